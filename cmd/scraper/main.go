package main

import (
	"bytes"
	"context"
	"encoding/csv"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"

	"github.com/chromedp/chromedp"
	"golang.org/x/time/rate"

	"mlbcli/internal/config"
	"mlbcli/internal/files"
	"mlbcli/internal/infrastructure"
	"mlbcli/internal/validation"
	"mlbcli/pkg/contracts"
)

// minPayrollRows is the smallest table accepted as a payroll listing;
// a full season carries one row per team, around thirty.
const minPayrollRows = 20

// seasonTable maps one Baseball Reference table to the raw file it is
// saved under. Some seasons publish a table under a different id, so
// each table carries alternates to try in order.
type seasonTable struct {
	Name       string
	ID         string
	Alternates []string
}

// seasonTables lists every table scraped from a season page. Batting,
// pitching and fielding are required for a season to count as complete;
// the WAA and postseason tables do not exist for every season.
var seasonTables = []seasonTable{
	{Name: config.RawNameBatting, ID: config.TableIDBatting, Alternates: []string{"teams_batting", "teams_batting_totals"}},
	{Name: config.RawNamePitching, ID: config.TableIDPitching, Alternates: []string{"teams_pitching", "teams_pitching_totals"}},
	{Name: config.RawNameFielding, ID: config.TableIDFielding, Alternates: []string{"teams_fielding", "teams_fielding_totals"}},
	{Name: config.RawNameWAA, ID: config.TableIDWAA, Alternates: []string{"teams_war_batting", "teams_pos_batting"}},
	{Name: config.RawNamePostseason, ID: config.TableIDPostseason},
}

// requiredTables are the season tables whose presence on disk marks the
// season as already downloaded.
var requiredTables = []string{config.RawNameBatting, config.RawNamePitching, config.RawNameFielding}

func main() {
	configFile := flag.String("config", "", "path to YAML config file (defaults to mlbcli.yaml next to the executable)")
	outDir := flag.String("out", "", "directory for raw season files (defaults to data/raw relative to the executable)")
	fromSeason := flag.Int("from", 0, "first season to scrape (defaults to config)")
	toSeason := flag.Int("to", 0, "last season to scrape (defaults to config)")
	headless := flag.Bool("headless", true, "run browser headless")
	logLevel := flag.String("log-level", "", "override log level: debug | info | warn | error")
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println(contracts.GetFullVersionString())
		return
	}

	paths, err := config.GetPaths()
	if err != nil {
		slog.Error("Failed to initialize paths", "error", err)
		os.Exit(1)
	}

	// The scraper needs no source list, so a missing or incomplete config
	// falls back to defaults instead of aborting.
	cfg, err := config.Load(*configFile)
	if err != nil {
		slog.Warn("Failed to load config, using defaults", "error", err)
		cfg = config.Default()
	}
	if *logLevel != "" {
		cfg.Logging.Level = *logLevel
	}
	cfg.Logging.FilePath = paths.GetLogPath("scraper.log")

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		slog.Warn("Failed to initialize logger, using default", "error", err)
		logger = slog.Default()
	}
	defer infrastructure.CloseLogFile()

	from, to := seasonRange(*fromSeason, *toSeason, cfg.Scraper)
	if from < config.FirstProfessionalSeason || from > to {
		logger.Error("Invalid season range",
			slog.Int("from", from),
			slog.Int("to", to))
		os.Exit(1)
	}

	rawDir := resolveOutDir(*outDir, cfg, paths)
	if err := validation.NewFileValidator(logger).ValidateOutputDirectory(rawDir); err != nil {
		logger.Error("Output directory unusable", slog.String("error", err.Error()))
		os.Exit(1)
	}
	fm := files.NewManager(paths)

	logger.Info("Starting season scraper",
		slog.Int("from", from),
		slog.Int("to", to),
		slog.String("out_dir", rawDir),
		slog.Bool("headless", *headless),
		slog.Float64("rate_limit_rps", cfg.Scraper.RateLimit))

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	ctx, cancelTimeout := context.WithTimeout(ctx, config.ScraperRunTimeout)
	defer cancelTimeout()

	// One token per page load; the bucket keeps page requests apart the
	// same way the original workflow slept between seasons.
	limiter := rate.NewLimiter(rate.Limit(cfg.Scraper.RateLimit), cfg.Scraper.Burst)

	opts := chromedp.DefaultExecAllocatorOptions[:]
	opts = append(opts,
		chromedp.Flag("headless", *headless),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.UserAgent(cfg.Scraper.UserAgent),
		chromedp.WindowSize(1920, 1080),
	)
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()

	var failed []int
	attempted, skipped, filesWritten := 0, 0, 0

	for season := from; season <= to; season++ {
		if seasonComplete(rawDir, season) {
			skipped++
			logger.Info("Season already downloaded",
				slog.Int("season", season))
			fmt.Printf("Season %d: already downloaded, skipping\n", season)
			continue
		}

		attempted++
		fmt.Printf("Season %d: scraping...\n", season)
		saved, err := scrapeSeason(allocCtx, limiter, fm, season, rawDir, cfg.Scraper, logger)
		if err != nil {
			failed = append(failed, season)
			logger.Error("Season scrape failed",
				slog.Int("season", season),
				slog.String("error", err.Error()))
			fmt.Printf("Season %d: failed (%v)\n", season, err)
			if ctx.Err() != nil {
				break
			}
			continue
		}
		filesWritten += len(saved)
		logger.Info("Season scraped",
			slog.Int("season", season),
			slog.Int("tables", len(saved)))
		fmt.Printf("Season %d: saved %d tables\n", season, len(saved))
	}

	// The payroll page carries every season at once, so it loads a single
	// time and only when at least one season still lacks a salary file.
	missing := missingSalarySeasons(rawDir, from, to)
	if len(missing) > 0 && ctx.Err() == nil {
		n, err := scrapePayrolls(allocCtx, limiter, fm, missing, rawDir, cfg.Scraper, logger)
		if err != nil {
			logger.Error("Payroll scrape failed", slog.String("error", err.Error()))
			fmt.Printf("Payrolls: failed (%v)\n", err)
		} else {
			filesWritten += n
			fmt.Printf("Payrolls: saved %d seasons\n", n)
		}
	}

	logger.Info("Scraper finished",
		slog.Int("seasons_attempted", attempted),
		slog.Int("seasons_skipped", skipped),
		slog.Int("seasons_failed", len(failed)),
		slog.Int("files_written", filesWritten))
	fmt.Printf("Done: %d files written, %d seasons skipped, %d failed\n",
		filesWritten, skipped, len(failed))

	if attempted > 0 && len(failed) == attempted && filesWritten == 0 {
		os.Exit(1)
	}
}

// seasonRange resolves the season bounds from flags, falling back to the
// configured range for any bound left unset.
func seasonRange(fromFlag, toFlag int, cfg config.ScraperConfig) (int, int) {
	from, to := cfg.FromSeason, cfg.ToSeason
	if fromFlag > 0 {
		from = fromFlag
	}
	if toFlag > 0 {
		to = toFlag
	}
	return from, to
}

// resolveOutDir picks the raw output directory: the flag wins, then the
// configured directory resolved against the executable layout. The result
// is absolute so later writes cannot drift with the working directory.
func resolveOutDir(flagDir string, cfg *config.Config, paths *config.Paths) string {
	if flagDir != "" {
		if abs, err := filepath.Abs(flagDir); err == nil {
			return abs
		}
		return flagDir
	}
	dir := cfg.Scraper.OutputDir
	if dir == "" {
		return paths.RawDir
	}
	if filepath.IsAbs(dir) {
		return dir
	}
	return filepath.Join(paths.BaseDir, dir)
}

// seasonTablePath returns where one scraped table lands on disk,
// e.g. <out>/2005/Batting_2005.csv
func seasonTablePath(outDir, name string, season int) string {
	filename := fmt.Sprintf("%s_%d.csv", name, season)
	return filepath.Join(outDir, strconv.Itoa(season), filename)
}

// seasonComplete reports whether every required table for a season is
// already on disk. The optional tables never block a skip; a season with
// no postseason would otherwise re-download forever.
func seasonComplete(outDir string, season int) bool {
	for _, name := range requiredTables {
		if !config.FileExists(seasonTablePath(outDir, name, season)) {
			return false
		}
	}
	return true
}

// missingSalarySeasons lists the seasons in range with no salary file yet
func missingSalarySeasons(outDir string, from, to int) []int {
	var missing []int
	for season := from; season <= to; season++ {
		if !config.FileExists(seasonTablePath(outDir, config.RawNameSalaries, season)) {
			missing = append(missing, season)
		}
	}
	return missing
}

// scrapeSeason loads one season page and writes every recognized table.
// Each season runs in a fresh browser so one stuck page cannot poison
// the seasons after it.
func scrapeSeason(parent context.Context, limiter *rate.Limiter, fm *files.Manager, season int, outDir string, cfg config.ScraperConfig, logger *slog.Logger) ([]string, error) {
	if err := limiter.Wait(parent); err != nil {
		return nil, err
	}

	src, err := fetchPage(parent, fmt.Sprintf(config.SeasonPageFormat, season), cfg)
	if err != nil {
		return nil, fmt.Errorf("season %d page load: %w", season, err)
	}

	tables, err := parseTables(src)
	if err != nil {
		return nil, fmt.Errorf("season %d page parse: %w", season, err)
	}
	logger.Debug("Season page parsed",
		slog.Int("season", season),
		slog.Int("tables_found", len(tables)))

	var saved []string
	for _, st := range seasonTables {
		t := lookupTable(tables, st.ID, st.Alternates)
		if t == nil {
			logger.Warn("Table not found on season page",
				slog.Int("season", season),
				slog.String("table", st.Name))
			continue
		}
		t = cleanTable(t)
		if t.RowCount() == 0 {
			logger.Warn("Table empty after cleanup",
				slog.Int("season", season),
				slog.String("table", st.Name))
			continue
		}

		path := seasonTablePath(outDir, st.Name, season)
		if err := writeTableCSV(fm, path, t); err != nil {
			return saved, fmt.Errorf("save %s: %w", filepath.Base(path), err)
		}
		saved = append(saved, path)
		logger.Info("Table saved",
			slog.Int("season", season),
			slog.String("table", st.Name),
			slog.Int("rows", t.RowCount()))
	}

	if len(saved) == 0 {
		return nil, fmt.Errorf("season %d: no tables extracted", season)
	}
	return saved, nil
}

// scrapePayrolls loads the payroll page once and writes a salary file
// for every season still missing one. Returns how many were written.
func scrapePayrolls(parent context.Context, limiter *rate.Limiter, fm *files.Manager, seasons []int, outDir string, cfg config.ScraperConfig, logger *slog.Logger) (int, error) {
	if err := limiter.Wait(parent); err != nil {
		return 0, err
	}

	src, err := fetchPage(parent, config.PayrollsPageURL, cfg)
	if err != nil {
		return 0, fmt.Errorf("payroll page load: %w", err)
	}

	sections, err := payrollSections(src)
	if err != nil {
		return 0, fmt.Errorf("payroll page parse: %w", err)
	}
	logger.Info("Payroll page parsed",
		slog.Int("season_sections", len(sections)))

	written := 0
	for _, season := range seasons {
		t := pickPayrollTable(sections[season], minPayrollRows)
		if t == nil || t.RowCount() == 0 {
			logger.Warn("No payroll table for season", slog.Int("season", season))
			continue
		}

		path := seasonTablePath(outDir, config.RawNameSalaries, season)
		if err := writeTableCSV(fm, path, t); err != nil {
			return written, fmt.Errorf("save %s: %w", filepath.Base(path), err)
		}
		written++
		logger.Info("Payroll table saved",
			slog.Int("season", season),
			slog.Int("rows", t.RowCount()))
	}
	return written, nil
}

// fetchPage navigates to a URL in a fresh browser and returns the fully
// rendered document HTML. The page timeout bounds the whole visit.
func fetchPage(parent context.Context, url string, cfg config.ScraperConfig) (string, error) {
	browserCtx, cancelBrowser := chromedp.NewContext(parent)
	defer cancelBrowser()

	runCtx, cancelRun := context.WithTimeout(browserCtx, cfg.PageTimeout)
	defer cancelRun()

	var src string
	err := chromedp.Run(runCtx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.OuterHTML("html", &src, chromedp.ByQuery),
	)
	if err != nil {
		return "", err
	}
	return src, nil
}

// lookupTable finds a table by its primary id, then by each alternate
func lookupTable(tables map[string]*statTable, id string, alternates []string) *statTable {
	if t, ok := tables[id]; ok {
		return t
	}
	for _, alt := range alternates {
		if t, ok := tables[alt]; ok {
			return t
		}
	}
	return nil
}

// writeTableCSV saves one extracted table under the season directory. The
// write is atomic: a resumed run treats any existing file as downloaded,
// truncated or not.
func writeTableCSV(fm *files.Manager, path string, t *statTable) error {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	if err := writer.Write(t.Headers); err != nil {
		return err
	}
	for _, row := range t.Rows {
		if err := writer.Write(row); err != nil {
			return err
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return err
	}
	return fm.WriteFileAtomic(path, buf.Bytes())
}
