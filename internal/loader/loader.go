package loader

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"

	"mlbcli/internal/config"
	apperrors "mlbcli/internal/errors"
	"mlbcli/internal/files"
	"mlbcli/internal/validation"
	"mlbcli/pkg/contracts/domain"
)

// Loader reads raw source files into RawTables. It is safe for one run at a
// time; a run constructs one Loader and discards it.
type Loader struct {
	baseDir   string
	logger    *slog.Logger
	validator *validation.FileValidator
	discovery *files.Discovery
}

// New creates a loader rooted at the given base directory. Relative source
// paths resolve against it.
func New(baseDir string, logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{
		baseDir:   baseDir,
		logger:    logger,
		validator: validation.NewFileValidator(logger),
		discovery: files.NewDiscovery(baseDir),
	}
}

// LoadAll loads every configured source concurrently. The sources are
// independent files, so order does not matter; the merger is the
// synchronization point downstream. The first error cancels the remaining
// loads and is returned.
func (l *Loader) LoadAll(ctx context.Context, cfg *config.Config) (map[string]*domain.RawTable, error) {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.Pipeline.Parallelism)

	results := make([]*domain.RawTable, len(cfg.Sources))
	for i := range cfg.Sources {
		g.Go(func() error {
			table, err := l.LoadSource(ctx, cfg.Sources[i])
			if err != nil {
				return err
			}
			results[i] = table
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	tables := make(map[string]*domain.RawTable, len(results))
	for _, t := range results {
		tables[t.Source] = t
	}

	l.logger.InfoContext(ctx, "all sources loaded",
		slog.Int("sources", len(tables)))
	return tables, nil
}

// LoadSource loads one configured source into a RawTable. A glob path loads
// every match and concatenates them; all matched files must present the same
// header.
func (l *Loader) LoadSource(ctx context.Context, src config.SourceConfig) (*domain.RawTable, error) {
	paths, err := l.expand(src)
	if err != nil {
		return nil, err
	}

	l.logger.InfoContext(ctx, "loading source",
		slog.String("source", src.Name),
		slog.String("path", src.Path),
		slog.Int("files", len(paths)))

	table := &domain.RawTable{Source: src.Name}

	for _, path := range paths {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		header, body, err := l.readFile(src, path)
		if err != nil {
			return nil, err
		}

		if table.Columns == nil {
			table.Columns = header
		} else if !equalHeader(table.Columns, header) {
			return nil, apperrors.NewAppError(apperrors.ErrTypeSchemaMismatch,
				fmt.Sprintf("source %q: file %s header does not match %s",
					src.Name, filepath.Base(path), filepath.Base(paths[0])), nil).
				WithContext("source", src.Name).
				WithContext("file", path)
		}

		season := 0
		if src.SeasonFromFilename {
			season = config.SeasonFromFilename(path)
			if season == 0 {
				return nil, apperrors.NewSourceUnreadableError(src.Name,
					fmt.Errorf("file %s carries no season in its name", filepath.Base(path)))
			}
		}

		for _, record := range body {
			row := make(domain.RawRow, len(table.Columns))
			for j, col := range table.Columns {
				if j < len(record) {
					row[col] = record[j]
				}
			}
			if src.SeasonFromFilename {
				row[src.SeasonColumn] = strconv.Itoa(season)
			}
			table.Rows = append(table.Rows, row)
		}
	}

	if src.SeasonFromFilename {
		if table.HasColumn(src.SeasonColumn) {
			return nil, apperrors.NewAppError(apperrors.ErrTypeSchemaMismatch,
				fmt.Sprintf("source %q: header already names column %q, cannot inject season from file names",
					src.Name, src.SeasonColumn), nil).
				WithContext("source", src.Name).
				WithContext("column", src.SeasonColumn)
		}
		table.Columns = append(table.Columns, src.SeasonColumn)
	}

	if err := l.checkSchema(src, table); err != nil {
		return nil, err
	}

	l.logger.InfoContext(ctx, "source loaded",
		slog.String("source", src.Name),
		slog.Int("columns", len(table.Columns)),
		slog.Int("rows", table.RowCount()))
	return table, nil
}

// expand resolves the source path against the base directory and expands it
// when it is a glob. Matches sort by path so concatenation order is stable.
func (l *Loader) expand(src config.SourceConfig) ([]string, error) {
	pattern := src.Path
	if !filepath.IsAbs(pattern) {
		pattern = filepath.Join(l.baseDir, pattern)
	}

	if !strings.ContainsAny(pattern, "*?[") {
		return []string{pattern}, nil
	}

	matches, err := l.discovery.FindByPattern(pattern)
	if err != nil {
		return nil, apperrors.NewSourceUnreadableError(src.Name, err)
	}
	if len(matches) == 0 {
		return nil, apperrors.NewSourceUnreadableError(src.Name,
			fmt.Errorf("no files match pattern %s", src.Path))
	}

	paths := make([]string, len(matches))
	for i, m := range matches {
		paths[i] = m.Path
	}
	sort.Strings(paths)
	return paths, nil
}

// readFile validates and parses one file, returning the header and body rows.
// Rows identical to the header are dropped: scraped exports repeat the header
// mid-table.
func (l *Loader) readFile(src config.SourceConfig, path string) ([]string, [][]string, error) {
	var records [][]string
	var err error

	switch format(src, path) {
	case "csv":
		if verr := l.validator.ValidateCSVFile(path); verr != nil {
			return nil, nil, apperrors.NewSourceUnreadableError(src.Name, verr)
		}
		records, err = readCSV(path, src.Delimiter)
	case "xlsx":
		if verr := l.validator.ValidateExcelFile(path); verr != nil {
			return nil, nil, apperrors.NewSourceUnreadableError(src.Name, verr)
		}
		records, err = readExcel(path, src.Sheet)
	default:
		return nil, nil, apperrors.NewSourceUnreadableError(src.Name,
			fmt.Errorf("file %s has no recognized tabular format", filepath.Base(path)))
	}
	if err != nil {
		return nil, nil, apperrors.NewSourceUnreadableError(src.Name, err)
	}

	if src.SkipRows > 0 {
		if src.SkipRows >= len(records) {
			records = nil
		} else {
			records = records[src.SkipRows:]
		}
	}

	// First non-empty row is the header
	headerIdx := -1
	for i, rec := range records {
		if !emptyRecord(rec) {
			headerIdx = i
			break
		}
	}
	if headerIdx < 0 {
		return nil, nil, apperrors.NewSourceUnreadableError(src.Name,
			fmt.Errorf("file %s contains no data", filepath.Base(path)))
	}

	header := make([]string, len(records[headerIdx]))
	for i, h := range records[headerIdx] {
		header[i] = strings.TrimSpace(h)
	}

	var body [][]string
	for _, rec := range records[headerIdx+1:] {
		if emptyRecord(rec) || isHeaderRepeat(rec, header) {
			continue
		}
		body = append(body, rec)
	}

	return header, body, nil
}

// checkSchema verifies every column the policy map names is present. The
// config layer already guarantees time, entity, primary-key, and required
// columns all carry policies, so covering the policy map covers them too.
func (l *Loader) checkSchema(src config.SourceConfig, table *domain.RawTable) error {
	names := make([]string, 0, len(src.Columns))
	for name := range src.Columns {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if !table.HasColumn(name) {
			return apperrors.NewSchemaMismatchError(src.Name, name)
		}
	}
	return nil
}

// format returns the parse format for a file: the configured one, or the file
// extension when the config leaves it open.
func format(src config.SourceConfig, path string) string {
	if src.Format != "" {
		return src.Format
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv", ".tsv":
		return "csv"
	case ".xlsx", ".xls":
		return "xlsx"
	}
	return ""
}

func emptyRecord(rec []string) bool {
	for _, cell := range rec {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

func equalHeader(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func isHeaderRepeat(rec, header []string) bool {
	if len(rec) != len(header) {
		return false
	}
	for i := range rec {
		if strings.TrimSpace(rec[i]) != header[i] {
			return false
		}
	}
	return true
}
