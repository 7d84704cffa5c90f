// Package config provides centralized configuration management for the MLB
// stats pipeline. It handles loading configuration from multiple sources,
// validation, and provides a type-safe API for accessing configuration
// values throughout the application.
//
// # Configuration Sources
//
// Configuration is loaded from the following sources in order of precedence:
//
//	1. Environment variables (highest priority)
//	2. Configuration file (YAML)
//	3. Default values (lowest priority)
//
// # Environment Variables
//
// All environment variables follow the pattern MLB_* for namespacing:
//
//	MLB_PIPELINE_TARGET_UNIT=season
//	MLB_PIPELINE_PARALLELISM=8
//	MLB_LOGGING_LEVEL=debug
//	MLB_SCRAPER_FROM_SEASON=2000
//
// # Column Policies
//
// Every column a source exposes carries an explicit policy: its declared
// type (date, float, integer, category), the imputation strategy applied to
// absent values (none, mean, interpolate, drop_row, constant), what happens
// when a raw value will not coerce (error, absent), and the aggregation used
// when the column is resampled to a coarser time unit (sum, mean, last).
// Nothing is inferred from the data; an incomplete policy fails validation
// before any stage runs.
//
// # Path Management
//
// The package provides centralized path management through the Paths type,
// which handles all file system paths relative to the executable location:
//
//	paths, err := config.GetPaths()
//	rawPath := paths.GetRawTablePath("Batting", 2005)
//	reportPath := paths.GetReportPath("summary.json")
//
// # Validation
//
// All configuration is validated at load time to ensure:
//
//	- Required fields are present
//	- Types, strategies, and aggregations are in range
//	- Strategies fit the declared column types (mean needs a numeric column)
//	- Key, time, and required columns all carry policies
//
// # Usage
//
// Load configuration at application startup:
//
//	cfg, err := config.Load("configs/mlbcli.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
package config
