package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"

	"mlbcli/pkg/contracts/domain"
)

// Config represents the complete application configuration.
// Everything the pipeline does to a column is stated here; nothing is
// inferred from the data at run time.
type Config struct {
	Pipeline  PipelineConfig  `yaml:"pipeline" envconfig:"PIPELINE"`
	Sources   []SourceConfig  `yaml:"sources" ignored:"true" validate:"required,min=1,dive"`
	Logging   LoggingConfig   `yaml:"logging" envconfig:"LOGGING"`
	Paths     PathsConfig     `yaml:"paths" envconfig:"PATHS"`
	Telemetry TelemetryConfig `yaml:"telemetry" envconfig:"TELEMETRY"`
	Scraper   ScraperConfig   `yaml:"scraper" envconfig:"SCRAPER"`
}

// PipelineConfig contains run-level pipeline configuration
type PipelineConfig struct {
	TargetUnit    string        `yaml:"target_unit" envconfig:"TARGET_UNIT" validate:"required,oneof=date month season"`
	Driver        string        `yaml:"driver" envconfig:"DRIVER"`
	OutputFile    string        `yaml:"output_file" envconfig:"OUTPUT_FILE" validate:"required"`
	ReportFile    string        `yaml:"report_file" envconfig:"REPORT_FILE"`
	ManifestFile  string        `yaml:"manifest_file" envconfig:"MANIFEST_FILE"`
	AbsentToken   string        `yaml:"absent_token" envconfig:"ABSENT_TOKEN"`
	AbsentMarkers []string      `yaml:"absent_markers" envconfig:"ABSENT_MARKERS"`
	Parallelism   int           `yaml:"parallelism" envconfig:"PARALLELISM" validate:"gte=1,lte=64"`
	StageTimeout  time.Duration `yaml:"stage_timeout" envconfig:"STAGE_TIMEOUT" validate:"gt=0"`
	ExportBOM     bool          `yaml:"export_bom" envconfig:"EXPORT_BOM"`
}

// SourceConfig describes one input table: where it lives, its granularity,
// and the policy for every column the pipeline is allowed to touch.
type SourceConfig struct {
	Name               string                  `yaml:"name" validate:"required"`
	Path               string                  `yaml:"path" validate:"required"`
	Format             string                  `yaml:"format" validate:"omitempty,oneof=csv xlsx"`
	Delimiter          string                  `yaml:"delimiter" validate:"omitempty,oneof=comma tab"`
	Sheet              string                  `yaml:"sheet"`
	SkipRows           int                     `yaml:"skip_rows" validate:"gte=0"`
	SeasonFromFilename bool                    `yaml:"season_from_filename"`
	SeasonColumn       string                  `yaml:"season_column"`
	Granularity        GranularityConfig       `yaml:"granularity"`
	PrimaryKey         []string                `yaml:"primary_key" validate:"required,min=1"`
	Required           []string                `yaml:"required"`
	Columns            map[string]ColumnPolicy `yaml:"columns" validate:"required,min=1,dive"`
	TeamColumns        []string                `yaml:"team_columns"`
	CurrencyColumns    []string                `yaml:"currency_columns"`
}

// GranularityConfig names the entity level and timeline unit of a source
type GranularityConfig struct {
	Level      string   `yaml:"level" validate:"required,oneof=player team league"`
	EntityKeys []string `yaml:"entity_keys"`
	TimeColumn string   `yaml:"time_column" validate:"required"`
	TimeUnit   string   `yaml:"time_unit" validate:"required,oneof=date month season"`
}

// Domain converts the configured granularity to its domain representation
func (g GranularityConfig) Domain() domain.Granularity {
	keys := make([]string, len(g.EntityKeys))
	copy(keys, g.EntityKeys)
	return domain.Granularity{
		Level:      domain.EntityLevel(g.Level),
		EntityKeys: keys,
		TimeColumn: g.TimeColumn,
		TimeUnit:   domain.TimeUnit(g.TimeUnit),
	}
}

// ColumnPolicy is the per-column contract: declared type, imputation
// strategy for absent values, coercion failure handling, and the
// aggregation used when the column is resampled to a coarser unit.
type ColumnPolicy struct {
	Type       string `yaml:"type" validate:"required,oneof=date float integer category"`
	Impute     string `yaml:"impute" validate:"required,oneof=none mean interpolate drop_row constant"`
	Constant   string `yaml:"constant"`
	OnBadValue string `yaml:"on_bad_value" validate:"omitempty,oneof=error absent"`
	Aggregate  string `yaml:"aggregate" validate:"omitempty,oneof=sum mean last"`
}

// DomainType returns the declared column type as a domain value
func (p ColumnPolicy) DomainType() domain.ColumnType {
	return domain.ColumnType(p.Type)
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL"`
	Format   string `yaml:"format" envconfig:"FORMAT"`
	Output   string `yaml:"output" envconfig:"OUTPUT"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH"`
}

// PathsConfig contains file system paths configuration
type PathsConfig struct {
	BaseDir      string `yaml:"base_dir" envconfig:"BASE_DIR"`
	DataDir      string `yaml:"data_dir" envconfig:"DATA_DIR"`
	RawDir       string `yaml:"raw_dir" envconfig:"RAW_DIR"`
	ProcessedDir string `yaml:"processed_dir" envconfig:"PROCESSED_DIR"`
	ReportsDir   string `yaml:"reports_dir" envconfig:"REPORTS_DIR"`
	CacheDir     string `yaml:"cache_dir" envconfig:"CACHE_DIR"`
	LogsDir      string `yaml:"logs_dir" envconfig:"LOGS_DIR"`
}

// TelemetryConfig contains OpenTelemetry configuration
type TelemetryConfig struct {
	Environment    string  `yaml:"environment" envconfig:"ENVIRONMENT"`
	EnableTracing  bool    `yaml:"enable_tracing" envconfig:"ENABLE_TRACING"`
	TraceExporter  string  `yaml:"trace_exporter" envconfig:"TRACE_EXPORTER" validate:"omitempty,oneof=stdout none"`
	EnableMetrics  bool    `yaml:"enable_metrics" envconfig:"ENABLE_METRICS"`
	MetricExporter string  `yaml:"metric_exporter" envconfig:"METRIC_EXPORTER" validate:"omitempty,oneof=log none"`
	SampleRatio    float64 `yaml:"sample_ratio" envconfig:"SAMPLE_RATIO" validate:"gte=0,lte=1"`
}

// ScraperConfig contains headless-browser acquisition configuration
type ScraperConfig struct {
	OutputDir   string        `yaml:"output_dir" envconfig:"OUTPUT_DIR"`
	FromSeason  int           `yaml:"from_season" envconfig:"FROM_SEASON" validate:"gte=1871"`
	ToSeason    int           `yaml:"to_season" envconfig:"TO_SEASON" validate:"gte=1871"`
	RateLimit   float64       `yaml:"rate_limit" envconfig:"RATE_LIMIT" validate:"gt=0"`
	Burst       int           `yaml:"burst" envconfig:"BURST" validate:"gte=1"`
	PageTimeout time.Duration `yaml:"page_timeout" envconfig:"PAGE_TIMEOUT" validate:"gt=0"`
	Headless    bool          `yaml:"headless" envconfig:"HEADLESS"`
	UserAgent   string        `yaml:"user_agent" envconfig:"USER_AGENT"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Load loads configuration from defaults, an optional YAML file, and
// environment variables, in that order of precedence (env highest).
// An empty configFile falls back to the well-known locations.
func Load(configFile string) (*Config, error) {
	cfg := Default()

	if configFile == "" {
		configFile = findConfigFile()
	}
	if configFile != "" {
		if err := loadFromFile(configFile, cfg); err != nil {
			return nil, fmt.Errorf("failed to load config from %s: %w", configFile, err)
		}
	}

	// Environment overrides
	if err := envconfig.Process("MLB", cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	cfg.normalize()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// loadFromFile merges a YAML file over the current configuration
func loadFromFile(filePath string, cfg *Config) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return err
	}

	return yaml.Unmarshal(data, cfg)
}

// normalize fills per-source gaps that have well-defined defaults.
// Column types and imputation strategies are never defaulted.
func (c *Config) normalize() {
	for i := range c.Sources {
		src := &c.Sources[i]
		if src.SeasonFromFilename && src.SeasonColumn == "" {
			src.SeasonColumn = "season"
		}
		for name, p := range src.Columns {
			if p.OnBadValue == "" {
				p.OnBadValue = "error"
			}
			if p.Aggregate == "" {
				p.Aggregate = "last"
			}
			src.Columns[name] = p
		}
	}
}

// Validate validates the configuration. Struct tags cover the per-field
// ranges; the cross-field rules that tags cannot express live here.
// The pipeline refuses to start on any validation failure.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}

	seen := make(map[string]bool, len(c.Sources))
	for i := range c.Sources {
		src := &c.Sources[i]
		if seen[src.Name] {
			return fmt.Errorf("duplicate source name %q", src.Name)
		}
		seen[src.Name] = true

		if err := src.validate(); err != nil {
			return fmt.Errorf("source %q: %w", src.Name, err)
		}
	}

	if c.Pipeline.Driver != "" && !seen[c.Pipeline.Driver] {
		return fmt.Errorf("merge driver %q does not name a configured source", c.Pipeline.Driver)
	}

	if c.Scraper.FromSeason > c.Scraper.ToSeason {
		return fmt.Errorf("scraper season range inverted: %d..%d", c.Scraper.FromSeason, c.Scraper.ToSeason)
	}

	return nil
}

// validate checks the cross-field rules of a single source
func (s *SourceConfig) validate() error {
	needPolicy := func(col, role string) error {
		if _, ok := s.Columns[col]; !ok {
			return fmt.Errorf("%s column %q has no column policy", role, col)
		}
		return nil
	}

	if err := needPolicy(s.Granularity.TimeColumn, "time"); err != nil {
		return err
	}
	for _, k := range s.Granularity.EntityKeys {
		if err := needPolicy(k, "entity key"); err != nil {
			return err
		}
	}
	for _, k := range s.PrimaryKey {
		if err := needPolicy(k, "primary key"); err != nil {
			return err
		}
	}
	for _, k := range s.Required {
		if err := needPolicy(k, "required"); err != nil {
			return err
		}
	}

	// Entity keys are what rows group by; only a league-wide table has none
	if s.Granularity.Level != string(domain.LevelLeague) && len(s.Granularity.EntityKeys) == 0 {
		return fmt.Errorf("%s-level granularity requires at least one entity key", s.Granularity.Level)
	}

	// The time column type must be able to carry the declared unit
	timeType := s.Columns[s.Granularity.TimeColumn].DomainType()
	switch domain.TimeUnit(s.Granularity.TimeUnit) {
	case domain.UnitSeason:
		if timeType != domain.TypeInteger && timeType != domain.TypeDate {
			return fmt.Errorf("time column %q: season unit requires integer or date type, got %s",
				s.Granularity.TimeColumn, timeType)
		}
	default:
		if timeType != domain.TypeDate {
			return fmt.Errorf("time column %q: %s unit requires date type, got %s",
				s.Granularity.TimeColumn, s.Granularity.TimeUnit, timeType)
		}
	}

	for _, k := range s.TeamColumns {
		if err := needPolicy(k, "team"); err != nil {
			return err
		}
		if s.Columns[k].DomainType() != domain.TypeCategory {
			return fmt.Errorf("team column %q must be category, got %s", k, s.Columns[k].Type)
		}
	}
	for _, k := range s.CurrencyColumns {
		if err := needPolicy(k, "currency"); err != nil {
			return err
		}
		if !s.Columns[k].DomainType().Numeric() {
			return fmt.Errorf("currency column %q must be numeric, got %s", k, s.Columns[k].Type)
		}
	}

	for name, p := range s.Columns {
		typ := p.DomainType()

		switch p.Impute {
		case "mean", "interpolate":
			if !typ.Numeric() {
				return fmt.Errorf("column %q: %s imputation requires a numeric type, got %s", name, p.Impute, p.Type)
			}
		case "constant":
			if p.Constant == "" {
				return fmt.Errorf("column %q: constant imputation requires a constant value", name)
			}
			if _, err := domain.ParseCell(p.Constant, typ); err != nil {
				return fmt.Errorf("column %q: constant %q is not a valid %s: %w", name, p.Constant, p.Type, err)
			}
		}

		switch p.Aggregate {
		case "sum", "mean":
			if !typ.Numeric() {
				return fmt.Errorf("column %q: %s aggregation requires a numeric type, got %s", name, p.Aggregate, p.Type)
			}
		}
	}

	return nil
}

// Source returns the configured source with the given name
func (c *Config) Source(name string) (*SourceConfig, bool) {
	for i := range c.Sources {
		if c.Sources[i].Name == name {
			return &c.Sources[i], true
		}
	}
	return nil, false
}

// FinestSource returns the source with the finest granularity. When the
// merge driver is configured explicitly it wins; otherwise the finest
// granularity (entity level first, then time unit) decides.
func (c *Config) FinestSource() *SourceConfig {
	if c.Pipeline.Driver != "" {
		if src, ok := c.Source(c.Pipeline.Driver); ok {
			return src
		}
	}

	var finest *SourceConfig
	for i := range c.Sources {
		src := &c.Sources[i]
		if finest == nil || src.Granularity.Domain().Finer(finest.Granularity.Domain()) {
			finest = src
		}
	}
	return finest
}

// findConfigFile returns the path to the config file
func findConfigFile() string {
	// Check for config file in common locations
	locations := []string{
		"mlbcli.yaml",
		"configs/mlbcli.yaml",
		"../configs/mlbcli.yaml",
		"../../configs/mlbcli.yaml",
	}

	for _, location := range locations {
		if _, err := os.Stat(location); err == nil {
			return location
		}
	}

	return "" // No config file found, use defaults and env vars only
}

// GetDataDir returns the resolved data directory path
func (c *Config) GetDataDir() string {
	return c.resolveDir(c.Paths.DataDir, DefaultDataDir)
}

// GetRawDir returns the resolved raw input directory path
func (c *Config) GetRawDir() string {
	return c.resolveDir(c.Paths.RawDir, DefaultRawDir)
}

// GetProcessedDir returns the resolved processed output directory path
func (c *Config) GetProcessedDir() string {
	return c.resolveDir(c.Paths.ProcessedDir, DefaultProcessedDir)
}

// GetReportsDir returns the resolved reports directory path
func (c *Config) GetReportsDir() string {
	return c.resolveDir(c.Paths.ReportsDir, DefaultReportsDir)
}

// GetLogsDir returns the resolved logs directory path
func (c *Config) GetLogsDir() string {
	return c.resolveDir(c.Paths.LogsDir, DefaultLogsDir)
}

func (c *Config) resolveDir(dir, fallback string) string {
	if dir == "" {
		dir = fallback
	}
	if filepath.IsAbs(dir) {
		return dir
	}

	base := c.Paths.BaseDir
	if base == "" {
		paths, err := GetPaths()
		if err != nil {
			return dir
		}
		base = paths.BaseDir
	}
	return filepath.Join(base, dir)
}

// Default returns default configuration. Defaults carry no sources; a run
// needs a config file naming at least one.
func Default() *Config {
	return &Config{
		Pipeline: PipelineConfig{
			TargetUnit:    string(domain.UnitSeason),
			OutputFile:    filepath.Join(DefaultProcessedDir, "merged.csv"),
			ReportFile:    filepath.Join(DefaultReportsDir, "summary.json"),
			ManifestFile:  filepath.Join(DefaultReportsDir, "manifest.json"),
			AbsentToken:   "",
			AbsentMarkers: []string{"", "NA", "N/A", "null", "NULL", "--"},
			Parallelism:   4,
			StageTimeout:  DefaultStageTimeout,
		},
		Logging: LoggingConfig{
			Level:    DefaultLogLevel,
			Format:   DefaultLogFormat,
			Output:   "both",
			FilePath: DefaultLogFile,
		},
		Paths: PathsConfig{
			DataDir:      DefaultDataDir,
			RawDir:       DefaultRawDir,
			ProcessedDir: DefaultProcessedDir,
			ReportsDir:   DefaultReportsDir,
			CacheDir:     DefaultCacheDir,
			LogsDir:      DefaultLogsDir,
		},
		Telemetry: TelemetryConfig{
			Environment:    "development",
			EnableTracing:  true,
			TraceExporter:  "none",
			EnableMetrics:  true,
			MetricExporter: "log",
			SampleRatio:    1.0,
		},
		Scraper: ScraperConfig{
			OutputDir:   DefaultRawDir,
			FromSeason:  DefaultFromSeason,
			ToSeason:    DefaultToSeason,
			RateLimit:   DefaultRateLimitRPS,
			Burst:       DefaultRateBurst,
			PageTimeout: DefaultPageTimeout,
			Headless:    true,
			UserAgent:   DefaultUserAgent,
		},
	}
}
