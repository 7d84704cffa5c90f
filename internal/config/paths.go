package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
)

// Paths contains all the application paths.
// This is the single source of truth for ALL file paths in the application.
type Paths struct {
	BaseDir      string
	DataDir      string
	RawDir       string
	ProcessedDir string
	ReportsDir   string
	CacheDir     string
	LogsDir      string

	// Well-known output files
	MergedCSV    string
	SummaryJSON  string
	ManifestJSON string
}

// seasonFileRe extracts the season year a raw file was scraped for
var seasonFileRe = regexp.MustCompile(SeasonFilePattern)

// GetPaths returns the application paths relative to the executable location.
// All paths are ALWAYS relative to the executable directory, never the
// current working directory, so the binaries behave the same whether run
// from the source tree or a release layout.
func GetPaths() (*Paths, error) {
	exe, err := os.Executable()
	if err != nil {
		return nil, fmt.Errorf("failed to get executable path: %v", err)
	}

	// Resolve symlinks to get the actual executable location
	exe, err = filepath.EvalSymlinks(exe)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve executable symlinks: %v", err)
	}

	return GetPathsFrom(filepath.Dir(exe)), nil
}

// GetPathsFrom builds the path layout under an explicit base directory.
// Tests and the paths.base_dir config override use this directly.
//
// Directory structure:
//
//	<base>/
//	  ├── mlbcli.yaml
//	  ├── data/
//	  │   ├── raw/<year>/       (CSV files from the scraper)
//	  │   ├── processed/        (merged output tables)
//	  │   ├── reports/          (run summaries and manifests)
//	  │   └── cache/            (temporary files)
//	  └── logs/                 (application logs)
func GetPathsFrom(base string) *Paths {
	dataDir := filepath.Join(base, "data")
	processedDir := filepath.Join(dataDir, "processed")
	reportsDir := filepath.Join(dataDir, "reports")

	return &Paths{
		BaseDir:      base,
		DataDir:      dataDir,
		RawDir:       filepath.Join(dataDir, "raw"),
		ProcessedDir: processedDir,
		ReportsDir:   reportsDir,
		CacheDir:     filepath.Join(dataDir, "cache"),
		LogsDir:      filepath.Join(base, "logs"),

		MergedCSV:    filepath.Join(processedDir, "merged.csv"),
		SummaryJSON:  filepath.Join(reportsDir, "summary.json"),
		ManifestJSON: filepath.Join(reportsDir, "manifest.json"),
	}
}

// EnsureDirectories creates all required directories if they don't exist
func (p *Paths) EnsureDirectories() error {
	directories := []string{
		p.DataDir,
		p.RawDir,
		p.ProcessedDir,
		p.ReportsDir,
		p.CacheDir,
		p.LogsDir,
	}

	logger := slog.Default()

	for _, dir := range directories {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %v", dir, err)
		}

		if logger != nil {
			logger.Debug("Ensured directory exists",
				slog.String("directory", dir))
		}
	}

	return nil
}

// GetRawSeasonDir returns the raw-data directory for one season
func (p *Paths) GetRawSeasonDir(season int) string {
	return filepath.Join(p.RawDir, strconv.Itoa(season))
}

// GetRawTablePath returns the path a scraped table is saved under,
// e.g. data/raw/2005/Batting_2005.csv
func (p *Paths) GetRawTablePath(table string, season int) string {
	filename := fmt.Sprintf("%s_%d.csv", table, season)
	return filepath.Join(p.GetRawSeasonDir(season), filename)
}

// GetProcessedPath returns the path for a processed output file
func (p *Paths) GetProcessedPath(filename string) string {
	return filepath.Join(p.ProcessedDir, filename)
}

// GetReportPath returns the path for a report file
func (p *Paths) GetReportPath(filename string) string {
	return filepath.Join(p.ReportsDir, filename)
}

// GetLogPath returns the path for a log file
func (p *Paths) GetLogPath(filename string) string {
	return filepath.Join(p.LogsDir, filename)
}

// GetCachePath returns the path for a cache file
func (p *Paths) GetCachePath(filename string) string {
	return filepath.Join(p.CacheDir, filename)
}

// GetRelativePath returns a path relative to the base directory
func (p *Paths) GetRelativePath(subpath string) string {
	return filepath.Join(p.BaseDir, subpath)
}

// FileExists checks if a file exists
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return !os.IsNotExist(err)
}

// SeasonFromFilename extracts the season year from a raw file name of the
// form <Table>_<year>.csv. Returns 0 when the name carries no season.
func SeasonFromFilename(path string) int {
	m := seasonFileRe.FindStringSubmatch(filepath.Base(path))
	if m == nil {
		return 0
	}
	year, err := strconv.Atoi(m[1])
	if err != nil {
		return 0
	}
	return year
}

// LogPathResolution logs detailed path resolution information for debugging
func (p *Paths) LogPathResolution() {
	logger := slog.Default()
	if logger == nil {
		return
	}

	logger.Info("Path resolution summary",
		slog.Group("directories",
			slog.String("base", p.BaseDir),
			slog.String("data", p.DataDir),
			slog.String("raw", p.RawDir),
			slog.String("processed", p.ProcessedDir),
			slog.String("reports", p.ReportsDir),
			slog.String("cache", p.CacheDir),
			slog.String("logs", p.LogsDir),
		),
		slog.Group("output_files",
			slog.String("merged_csv", p.MergedCSV),
			slog.String("summary_json", p.SummaryJSON),
			slog.String("manifest_json", p.ManifestJSON),
		))
}
