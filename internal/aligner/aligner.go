package aligner

import (
	"context"
	"log/slog"
	"math"
	"sort"
	"strings"
	"time"

	"mlbcli/internal/config"
	apperrors "mlbcli/internal/errors"
	"mlbcli/pkg/contracts/domain"
)

// Aligner resamples cleaned tables onto one target timeline unit so the
// merger can join rows that describe the same span of play. One Aligner
// serves one run.
type Aligner struct {
	logger *slog.Logger
}

// New creates an aligner.
func New(logger *slog.Logger) *Aligner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Aligner{logger: logger}
}

// AlignAll aligns every cleaned table to the configured target unit, in
// configuration order. The first failure aborts the run.
func (a *Aligner) AlignAll(ctx context.Context, cfg *config.Config, tables map[string]*domain.CleanTable) (map[string]*domain.AlignedTable, error) {
	target := domain.TimeUnit(cfg.Pipeline.TargetUnit)
	out := make(map[string]*domain.AlignedTable, len(tables))

	for i := range cfg.Sources {
		src := &cfg.Sources[i]
		table, ok := tables[src.Name]
		if !ok {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		aligned, err := a.Align(*src, table, target)
		if err != nil {
			return nil, err
		}
		out[src.Name] = aligned

		a.logger.InfoContext(ctx, "source aligned",
			slog.String("source", src.Name),
			slog.String("from", string(table.Granularity.TimeUnit)),
			slog.String("to", string(target)),
			slog.Int("rows_in", table.RowCount()),
			slog.Int("rows_out", aligned.RowCount()))
	}

	return out, nil
}

// Align resamples one table to the target unit. Rows at a finer unit
// aggregate into target buckets under the per-column aggregation policy;
// rows already at the target unit pass through with their time value
// normalized to the canonical bucket form, deduplicating on the way. A table
// coarser than the target cannot be disaggregated: that would invent rows.
//
// Alignment is deterministic: the output is sorted by (time bucket, entity
// keys), and the "last" aggregator breaks ties by latest original timestamp,
// then input order.
func (a *Aligner) Align(src config.SourceConfig, table *domain.CleanTable, target domain.TimeUnit) (*domain.AlignedTable, error) {
	unit := table.Granularity.TimeUnit
	if target.Finer(unit) {
		return nil, apperrors.NewGranularityMismatchError(src.Name, string(unit), string(target))
	}

	timeIdx := table.Schema.Index(table.Granularity.TimeColumn)
	if timeIdx < 0 {
		return nil, apperrors.NewSchemaMismatchError(src.Name, table.Granularity.TimeColumn)
	}

	entityIdx := make([]int, 0, len(table.Granularity.EntityKeys))
	for _, key := range table.Granularity.EntityKeys {
		i := table.Schema.Index(key)
		if i < 0 {
			return nil, apperrors.NewSchemaMismatchError(src.Name, key)
		}
		entityIdx = append(entityIdx, i)
	}

	groups := groupRows(table, timeIdx, entityIdx, target)

	schema := alignedSchema(table.Schema, timeIdx, target)
	rows := make([]domain.Row, 0, len(groups))
	for _, g := range groups {
		rows = append(rows, aggregateGroup(src, table, g, timeIdx))
	}

	sortRows(rows, timeIdx, entityIdx)

	granularity := table.Granularity.Clone()
	granularity.TimeUnit = target

	return &domain.AlignedTable{
		Source:      src.Name,
		Schema:      schema,
		Rows:        rows,
		Granularity: granularity,
		PrimaryKey:  append([]string(nil), src.PrimaryKey...),
	}, nil
}

// group collects the input rows falling into one (entity, bucket) pair.
// Member order is input order, which the "last" tie-break depends on.
type group struct {
	bucket  domain.Cell
	members []int
}

// groupRows buckets every row by its canonical target-time value and entity
// keys. Group emission order does not matter: the final sort fixes it.
func groupRows(table *domain.CleanTable, timeIdx int, entityIdx []int, target domain.TimeUnit) []*group {
	index := make(map[string]*group)
	ordered := make([]*group, 0, len(table.Rows))

	for r, row := range table.Rows {
		b := bucketOf(row[timeIdx], target)

		var key strings.Builder
		key.WriteString(b.String())
		for _, i := range entityIdx {
			key.WriteByte(0x1f)
			key.WriteString(row[i].String())
		}

		k := key.String()
		g, ok := index[k]
		if !ok {
			g = &group{bucket: b}
			index[k] = g
			ordered = append(ordered, g)
		}
		g.members = append(g.members, r)
	}

	return ordered
}

// bucketOf normalizes a time cell to the canonical bucket of the target
// unit: season buckets are integer years, month buckets first-of-month UTC
// dates, date buckets day-precision UTC dates.
func bucketOf(cell domain.Cell, target domain.TimeUnit) domain.Cell {
	switch target {
	case domain.UnitSeason:
		if cell.Kind == domain.KindInt {
			return cell
		}
		return domain.IntCell(int64(cell.Date.Year()))
	case domain.UnitMonth:
		y, m, _ := cell.Date.Date()
		return domain.DateCell(time.Date(y, m, 1, 0, 0, 0, 0, time.UTC))
	default:
		return cell
	}
}

// aggregateGroup collapses one group into a single output row. The time
// column takes the bucket; every other column applies its configured
// aggregator, "last" when the policy names none.
func aggregateGroup(src config.SourceConfig, table *domain.CleanTable, g *group, timeIdx int) domain.Row {
	last := g.members[0]
	for _, r := range g.members[1:] {
		if table.Rows[r][timeIdx].Compare(table.Rows[last][timeIdx]) >= 0 {
			last = r
		}
	}

	out := make(domain.Row, len(table.Schema))
	for i, field := range table.Schema {
		if i == timeIdx {
			out[i] = g.bucket
			continue
		}

		switch src.Columns[field.Name].Aggregate {
		case "sum":
			out[i] = sumCells(table, g.members, i, field.Type)
		case "mean":
			out[i] = meanCells(table, g.members, i, field.Type)
		default:
			out[i] = table.Rows[last][i]
		}
	}
	return out
}

// sumCells totals a numeric column over the group. Integer columns stay
// integer.
func sumCells(table *domain.CleanTable, members []int, col int, t domain.ColumnType) domain.Cell {
	if t == domain.TypeInteger {
		var sum int64
		for _, r := range members {
			sum += table.Rows[r][col].Int
		}
		return domain.IntCell(sum)
	}
	var sum float64
	for _, r := range members {
		v, _ := table.Rows[r][col].Numeric()
		sum += v
	}
	return domain.FloatCell(sum)
}

// meanCells averages a numeric column over the group. Integer columns round
// half away from zero and stay integer, matching mean imputation.
func meanCells(table *domain.CleanTable, members []int, col int, t domain.ColumnType) domain.Cell {
	var sum float64
	for _, r := range members {
		v, _ := table.Rows[r][col].Numeric()
		sum += v
	}
	mean := sum / float64(len(members))
	if t == domain.TypeInteger {
		return domain.IntCell(int64(math.Round(mean)))
	}
	return domain.FloatCell(mean)
}

// alignedSchema carries the input schema with the time column retyped to the
// canonical bucket representation of the target unit.
func alignedSchema(in domain.Schema, timeIdx int, target domain.TimeUnit) domain.Schema {
	out := in.Clone()
	if target == domain.UnitSeason {
		out[timeIdx].Type = domain.TypeInteger
	} else {
		out[timeIdx].Type = domain.TypeDate
	}
	return out
}

// sortRows orders output rows by (time bucket, entity keys). No two rows
// share that tuple, so the order is total.
func sortRows(rows []domain.Row, timeIdx int, entityIdx []int) {
	sort.Slice(rows, func(a, b int) bool {
		if c := rows[a][timeIdx].Compare(rows[b][timeIdx]); c != 0 {
			return c < 0
		}
		for _, i := range entityIdx {
			if c := rows[a][i].Compare(rows[b][i]); c != 0 {
				return c < 0
			}
		}
		return false
	})
}
