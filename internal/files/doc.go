// Package files provides file system operations and discovery utilities for
// the raw and processed data trees.
//
// This package contains two main components:
//
// Discovery: Finds raw input files by glob pattern, lists the per-season
// directories the scraper populates, and groups raw files by the season year
// carried in their names.
//
// Manager: Basic file management relative to the application paths, including
// atomic writes so a partially written artifact is never observed by a resumed
// run.
//
// Example usage:
//
//	// Create a discovery instance
//	discovery := files.NewDiscovery(paths.BaseDir)
//
//	// Expand a raw source glob
//	matches, err := discovery.FindByPattern("data/raw/*/Batting_*.csv")
//
//	// Create a manager instance
//	manager := files.NewManager(paths)
//
//	// Write an artifact atomically
//	err = manager.WriteFileAtomic("data/reports/summary.json", data)
package files
