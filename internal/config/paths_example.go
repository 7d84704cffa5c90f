//go:build example

package config

import (
	"log/slog"
	"os"
)

// ExampleUsage demonstrates how to use the paths package throughout the application
func ExampleUsage() {
	// Always get paths from the centralized GetPaths() function
	paths, err := GetPaths()
	if err != nil {
		slog.Error("Failed to get paths", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Ensure all directories exist at startup
	if err := paths.EnsureDirectories(); err != nil {
		slog.Error("Failed to ensure directories", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Log all resolved paths for debugging
	paths.LogPathResolution()

	// Example 1: Scraper saving a season table
	rawPath := paths.GetRawTablePath("Batting", 2005)
	slog.Info("2005 batting table saves to", slog.String("path", rawPath))

	// Example 2: Loader recovering the season from a file name
	season := SeasonFromFilename(rawPath)
	slog.Info("Season recovered from filename", slog.Int("season", season))

	// Example 3: Exporter writing the merged output
	slog.Info("Merged table writes to", slog.String("path", paths.MergedCSV))

	// Example 4: Report and manifest locations
	slog.Info("Run artifacts",
		slog.String("summary", paths.SummaryJSON),
		slog.String("manifest", paths.ManifestJSON))
}

// Migration Guide:
//
// OLD CODE (problematic):
//   mergedPath := filepath.Join(os.Getwd(), "merged.csv")
//   rawPath := "data/raw/2005/Batting_2005.csv"
//
// NEW CODE (correct):
//   paths, _ := config.GetPaths()
//   mergedPath := paths.MergedCSV
//   rawPath := paths.GetRawTablePath("Batting", 2005)
//
// Benefits:
// 1. All paths relative to executable, not working directory
// 2. Consistent across all components
// 3. Cross-platform path handling
// 4. Centralized logging and debugging
// 5. Easy to test and mock
