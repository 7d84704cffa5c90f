package config

import "time"

// Application constants - all hardcoded values for the MLB stats pipeline
const (
	// Application Info
	AppName    = "MLB Stats Pipeline"
	AppVersion = "1.0.0"

	// Season bounds
	FirstProfessionalSeason = 1871
	DefaultFromSeason       = 1998
	DefaultToSeason         = 2022

	// File Paths (relative to executable)
	DefaultDataDir      = "data"
	DefaultRawDir       = "data/raw"
	DefaultProcessedDir = "data/processed"
	DefaultReportsDir   = "data/reports"
	DefaultCacheDir     = "data/cache"
	DefaultLogsDir      = "logs"

	// Raw file naming. The scraper writes one file per table per season and
	// the loader recovers the season year from the same pattern.
	SeasonFilePattern = `_(\d{4})\.(csv|xlsx)$`

	// Operation Timeouts
	DefaultStageTimeout = 10 * time.Minute
	ScraperRunTimeout   = 30 * time.Minute
	DefaultPageTimeout  = 60 * time.Second

	// Scraper pacing. Baseball Reference rate-limits aggressive clients, the
	// original workflow waited ten seconds between season pages.
	DefaultScrapeInterval = 10 * time.Second
	DefaultRateLimitRPS   = 0.1
	DefaultRateBurst      = 1

	// Log Settings
	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"
	DefaultLogFile   = "logs/mlbcli.log"
)

// Data sources (all embedded)
const (
	// Baseball Reference: one page per season carrying every team table
	BaseballReferenceURL = "https://www.baseball-reference.com"
	SeasonPageFormat     = "https://www.baseball-reference.com/leagues/majors/%d.shtml"

	// stevetheump.com: a single page carrying payroll tables for all seasons
	PayrollsPageURL = "https://www.stevetheump.com/Payrolls.htm"

	// Browser identity used for headless page loads
	DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
)

// Scraped table identities: HTML table id on the season page mapped to the
// raw file base name it is saved under.
const (
	TableIDBatting    = "teams_standard_batting"
	TableIDPitching   = "teams_standard_pitching"
	TableIDFielding   = "teams_standard_fielding"
	TableIDWAA        = "team_output"
	TableIDPostseason = "postseason"

	RawNameBatting    = "Batting"
	RawNamePitching   = "Pitching"
	RawNameFielding   = "Fielding"
	RawNameWAA        = "WAA_Positions"
	RawNamePostseason = "Postseason"
	RawNameSalaries   = "Salaries"
)
