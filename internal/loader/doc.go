// Package loader reads configured raw sources into uniform in-memory tables.
//
// A source descriptor names a file path or glob, a format (CSV or Excel), and
// the columns the pipeline expects. The loader expands globs over per-season
// files, concatenates the matches into one RawTable, and can inject a season
// column derived from the file name. It performs no typing: every cell stays
// the raw text read from the file, and interpreting absent markers belongs to
// the cleaner.
//
// All configured sources load concurrently under an errgroup with a configured
// limit. The first failing source cancels the rest; loader errors are terminal
// for the run.
//
// Example usage:
//
//	ldr := loader.New(baseDir, logger)
//
//	// Load every configured source
//	tables, err := ldr.LoadAll(ctx, cfg)
//
//	// Or a single source
//	table, err := ldr.LoadSource(ctx, cfg.Sources[0])
package loader
