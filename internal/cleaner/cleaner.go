package cleaner

import (
	"context"
	"log/slog"
	"math"
	"sort"
	"strings"

	"mlbcli/internal/config"
	apperrors "mlbcli/internal/errors"
	"mlbcli/pkg/contracts/domain"
)

// Cleaner coerces raw tables into typed tables and resolves every absent
// value by the configured per-column imputation rule. One Cleaner serves one
// run; it holds no per-table state.
type Cleaner struct {
	logger  *slog.Logger
	markers map[string]struct{}
}

// Stats counts what cleaning did to one source, for the run report.
type Stats struct {
	Source        string         `json:"source"`
	RowsIn        int            `json:"rows_in"`
	RowsOut       int            `json:"rows_out"`
	RowsDropped   int            `json:"rows_dropped"`
	AbsentBefore  map[string]int `json:"absent_before"`
	ImputedCells  map[string]int `json:"imputed_cells"`
	CoercedAbsent int            `json:"coerced_absent"`
}

// New creates a cleaner. The absent markers are the raw strings read as "no
// value here", compared after trimming; the loader deliberately leaves that
// interpretation to this stage.
func New(logger *slog.Logger, absentMarkers []string) *Cleaner {
	if logger == nil {
		logger = slog.Default()
	}
	markers := make(map[string]struct{}, len(absentMarkers))
	for _, m := range absentMarkers {
		markers[m] = struct{}{}
	}
	return &Cleaner{logger: logger, markers: markers}
}

// CleanAll cleans every loaded table in configuration order. The first
// failing source aborts: cleaning errors are terminal for the run.
func (c *Cleaner) CleanAll(ctx context.Context, cfg *config.Config, raws map[string]*domain.RawTable) (map[string]*domain.CleanTable, map[string]*Stats, error) {
	tables := make(map[string]*domain.CleanTable, len(raws))
	stats := make(map[string]*Stats, len(raws))

	for i := range cfg.Sources {
		src := &cfg.Sources[i]
		raw, ok := raws[src.Name]
		if !ok {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}

		table, st, err := c.Clean(*src, raw)
		if err != nil {
			return nil, nil, err
		}
		tables[src.Name] = table
		stats[src.Name] = st

		c.logger.InfoContext(ctx, "source cleaned",
			slog.String("source", src.Name),
			slog.Int("rows_in", st.RowsIn),
			slog.Int("rows_out", st.RowsOut),
			slog.Int("rows_dropped", st.RowsDropped),
			slog.Int("coerced_absent", st.CoercedAbsent))
	}

	return tables, stats, nil
}

// Clean produces a typed table from one raw table. The output schema is
// exactly the configured policy columns, ordered by the raw header; columns
// the file carries but the policy does not name are dropped. After Clean
// returns, no cell of the table is absent.
func (c *Cleaner) Clean(src config.SourceConfig, raw *domain.RawTable) (*domain.CleanTable, *Stats, error) {
	schema, err := buildSchema(src, raw)
	if err != nil {
		return nil, nil, err
	}

	stats := &Stats{
		Source:       src.Name,
		RowsIn:       raw.RowCount(),
		AbsentBefore: make(map[string]int, len(schema)),
		ImputedCells: make(map[string]int),
	}

	rows, err := c.coerce(src, raw, schema, stats)
	if err != nil {
		return nil, nil, err
	}

	rows = dropAbsentRows(src, schema, rows, stats)

	if err := c.impute(src, schema, rows, stats); err != nil {
		return nil, nil, err
	}

	stats.RowsOut = len(rows)

	return &domain.CleanTable{
		Source:      src.Name,
		Schema:      schema,
		Rows:        rows,
		Granularity: src.Granularity.Domain(),
	}, stats, nil
}

// buildSchema orders the configured columns by the raw header. The loader
// already rejects headers missing a configured column, but a cleaner used on
// its own must hold the same line.
func buildSchema(src config.SourceConfig, raw *domain.RawTable) (domain.Schema, error) {
	schema := make(domain.Schema, 0, len(src.Columns))
	for _, col := range raw.Columns {
		policy, ok := src.Columns[col]
		if !ok {
			continue
		}
		schema = append(schema, domain.Field{Name: col, Type: policy.DomainType()})
	}
	for col := range src.Columns {
		if !schema.Has(col) {
			return nil, apperrors.NewSchemaMismatchError(src.Name, col)
		}
	}
	return schema, nil
}

// coerce parses every configured cell to its declared type. Team and currency
// columns are normalized first; ParseCell then sees canonical text. Values in
// the absent-marker set become the absent cell and wait for imputation.
func (c *Cleaner) coerce(src config.SourceConfig, raw *domain.RawTable, schema domain.Schema, stats *Stats) ([]domain.Row, error) {
	team := make(map[string]bool, len(src.TeamColumns))
	for _, col := range src.TeamColumns {
		team[col] = true
	}
	currency := make(map[string]bool, len(src.CurrencyColumns))
	for _, col := range src.CurrencyColumns {
		currency[col] = true
	}

	rows := make([]domain.Row, len(raw.Rows))
	for r, rec := range raw.Rows {
		row := make(domain.Row, len(schema))
		for i, field := range schema {
			value, present := rec[field.Name]
			if !present || c.isAbsent(value) {
				row[i] = domain.Absent()
				stats.AbsentBefore[field.Name]++
				continue
			}

			if team[field.Name] {
				value = StandardizeTeam(value)
			}
			if currency[field.Name] {
				normalized, err := NormalizeCurrency(value)
				if err == nil {
					value = normalized
				}
			}

			cell, err := domain.ParseCell(value, field.Type)
			if err != nil {
				policy := src.Columns[field.Name]
				if policy.OnBadValue != "absent" {
					return nil, apperrors.NewTypeCoercionError(src.Name, field.Name, value, err).
						WithContext("row", r)
				}
				cell = domain.Absent()
				stats.AbsentBefore[field.Name]++
				stats.CoercedAbsent++
			}
			row[i] = cell
		}
		rows[r] = row
	}
	return rows, nil
}

// isAbsent reports whether the raw text is one of the configured markers.
func (c *Cleaner) isAbsent(value string) bool {
	_, ok := c.markers[strings.TrimSpace(value)]
	return ok
}

// dropAbsentRows removes every row holding an absent cell in a drop_row
// column. Removal runs before the fill strategies so means and interpolation
// never derive from rows that will not survive.
func dropAbsentRows(src config.SourceConfig, schema domain.Schema, rows []domain.Row, stats *Stats) []domain.Row {
	drop := make([]int, 0, 2)
	for i, field := range schema {
		if src.Columns[field.Name].Impute == "drop_row" {
			drop = append(drop, i)
		}
	}
	if len(drop) == 0 {
		return rows
	}

	kept := rows[:0]
	for _, row := range rows {
		remove := false
		for _, i := range drop {
			if row[i].IsAbsent() {
				remove = true
				break
			}
		}
		if remove {
			stats.RowsDropped++
			stats.ImputedCells["drop_row"]++
			continue
		}
		kept = append(kept, row)
	}
	return kept
}

// impute fills the remaining absent cells column by column. Totality is the
// contract: every strategy either fills the cell or fails the run.
func (c *Cleaner) impute(src config.SourceConfig, schema domain.Schema, rows []domain.Row, stats *Stats) error {
	timeIdx := schema.Index(src.Granularity.TimeColumn)

	for i, field := range schema {
		policy := src.Columns[field.Name]
		switch policy.Impute {
		case "drop_row":
			// already handled
		case "mean":
			if err := imputeMean(src.Name, field, i, rows, stats); err != nil {
				return err
			}
		case "interpolate":
			if err := imputeInterpolate(src.Name, field, i, timeIdx, rows, stats); err != nil {
				return err
			}
		case "constant":
			if err := imputeConstant(src.Name, field, i, policy.Constant, rows, stats); err != nil {
				return err
			}
		default:
			// impute: none. Key columns land here; an absent key is not
			// fillable, it is missing data.
			for r, row := range rows {
				if row[i].IsAbsent() {
					return apperrors.NewInsufficientDataError(src.Name, field.Name, policy.Impute).
						WithContext("row", r)
				}
			}
		}
	}
	return nil
}

// imputeMean fills absences with the column mean over present values.
// Integer columns round half away from zero and stay integer.
func imputeMean(source string, field domain.Field, col int, rows []domain.Row, stats *Stats) error {
	var sum float64
	var n int
	for _, row := range rows {
		if v, ok := row[col].Numeric(); ok {
			sum += v
			n++
		}
	}

	filled := 0
	for _, row := range rows {
		if !row[col].IsAbsent() {
			continue
		}
		if n == 0 {
			return apperrors.NewInsufficientDataError(source, field.Name, "mean")
		}
		row[col] = numericCell(field.Type, sum/float64(n))
		filled++
	}
	stats.add("mean", filled)
	return nil
}

// imputeInterpolate fills interior absences by linear interpolation between
// the nearest present neighbors, with rows ordered by the time column (stable
// on input order). Boundary absences copy the nearest present value; there is
// no extrapolation. A column with no present values at all cannot be filled.
func imputeInterpolate(source string, field domain.Field, col, timeIdx int, rows []domain.Row, stats *Stats) error {
	order := make([]int, len(rows))
	for i := range order {
		order[i] = i
	}
	if timeIdx >= 0 {
		sort.SliceStable(order, func(a, b int) bool {
			return rows[order[a]][timeIdx].Compare(rows[order[b]][timeIdx]) < 0
		})
	}

	// present[k] = position in order of the k-th present value
	present := make([]int, 0, len(order))
	for pos, r := range order {
		if !rows[r][col].IsAbsent() {
			present = append(present, pos)
		}
	}

	filled := 0
	for pos, r := range order {
		if !rows[r][col].IsAbsent() {
			continue
		}
		if len(present) == 0 {
			return apperrors.NewInsufficientDataError(source, field.Name, "interpolate")
		}

		// nearest present neighbors on either side of pos
		next := sort.SearchInts(present, pos)
		switch {
		case next == 0:
			rows[r][col] = rows[order[present[0]]][col]
		case next == len(present):
			rows[r][col] = rows[order[present[len(present)-1]]][col]
		default:
			prevPos, nextPos := present[next-1], present[next]
			prev, _ := rows[order[prevPos]][col].Numeric()
			succ, _ := rows[order[nextPos]][col].Numeric()
			frac := float64(pos-prevPos) / float64(nextPos-prevPos)
			rows[r][col] = numericCell(field.Type, prev+(succ-prev)*frac)
		}
		filled++
	}
	stats.add("interpolate", filled)
	return nil
}

// imputeConstant fills absences with the configured constant. The constant
// was parsed once at config validation; a failure here means the policy never
// went through validation.
func imputeConstant(source string, field domain.Field, col int, constant string, rows []domain.Row, stats *Stats) error {
	cell, err := domain.ParseCell(constant, field.Type)
	if err != nil {
		return apperrors.NewTypeCoercionError(source, field.Name, constant, err)
	}

	filled := 0
	for _, row := range rows {
		if row[col].IsAbsent() {
			row[col] = cell
			filled++
		}
	}
	stats.add("constant", filled)
	return nil
}

// numericCell builds a cell of the declared numeric type from a float value.
// Integer columns round half away from zero.
func numericCell(t domain.ColumnType, v float64) domain.Cell {
	if t == domain.TypeInteger {
		return domain.IntCell(int64(math.Round(v)))
	}
	return domain.FloatCell(v)
}

// add accumulates one strategy's fill count, skipping zero so the report
// only lists strategies that did something.
func (s *Stats) add(strategy string, n int) {
	if n > 0 {
		s.ImputedCells[strategy] += n
	}
}
