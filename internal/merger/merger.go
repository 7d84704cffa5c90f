package merger

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"mlbcli/internal/config"
	apperrors "mlbcli/internal/errors"
	"mlbcli/pkg/contracts/domain"
)

// Merger joins aligned tables into the single output table. The join is
// left-biased and driven by the finest-granularity table: every driver row
// appears exactly once, and coarser tables broadcast their columns onto the
// matching driver rows.
type Merger struct {
	logger *slog.Logger
}

// New creates a merger.
func New(logger *slog.Logger) *Merger {
	if logger == nil {
		logger = slog.Default()
	}
	return &Merger{logger: logger}
}

// Merge joins every aligned table onto the driver. The driver is the
// configured merge driver, or the finest-granularity source when none is
// configured. Join columns against each coarser table are that table's
// declared primary key; each must exist in the driver's schema. A coarser
// table claiming one key tuple twice cannot broadcast unambiguously; both
// defects surface as key-conflict errors.
func (m *Merger) Merge(ctx context.Context, cfg *config.Config, tables map[string]*domain.AlignedTable) (*domain.MergedTable, error) {
	finest := cfg.FinestSource()
	if finest == nil {
		return nil, apperrors.NewConfigError("no sources configured", nil)
	}
	driver, ok := tables[finest.Name]
	if !ok {
		return nil, apperrors.NewConfigError(fmt.Sprintf("driver source %q has no aligned table", finest.Name), nil)
	}

	// Driver columns come first, in driver order
	schema := driver.Schema.Clone()
	rows := make([]domain.Row, len(driver.Rows))
	for i, row := range driver.Rows {
		rows[i] = row.Clone()
	}
	sources := []string{driver.Source}

	for i := range cfg.Sources {
		src := &cfg.Sources[i]
		if src.Name == finest.Name {
			continue
		}
		table, ok := tables[src.Name]
		if !ok {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		var err error
		schema, rows, err = m.joinOne(driver, table, schema, rows)
		if err != nil {
			return nil, err
		}
		sources = append(sources, table.Source)
	}

	merged := &domain.MergedTable{
		Schema:  schema,
		Rows:    rows,
		Sources: sources,
		Driver:  driver.Source,
	}

	m.logger.InfoContext(ctx, "tables merged",
		slog.String("driver", driver.Source),
		slog.Int("sources", len(sources)),
		slog.Int("rows", merged.RowCount()),
		slog.Int("absent_cells", merged.AbsentCells()))

	return merged, nil
}

// joinOne broadcasts one coarser table onto the accumulated output. The
// returned schema and rows extend the input; driver rows without a match get
// explicit absent cells for the table's non-key columns.
func (m *Merger) joinOne(driver, table *domain.AlignedTable, schema domain.Schema, rows []domain.Row) (domain.Schema, []domain.Row, error) {
	if len(table.PrimaryKey) == 0 {
		return nil, nil, apperrors.NewKeyConflictError("", table.Source, driver.Source,
			fmt.Sprintf("source %q declares no primary key to join on", table.Source))
	}

	// Resolve the join key on both sides
	driverIdx := make([]int, len(table.PrimaryKey))
	tableIdx := make([]int, len(table.PrimaryKey))
	keyCols := make(map[string]bool, len(table.PrimaryKey))
	for i, col := range table.PrimaryKey {
		keyCols[col] = true

		d := driver.Schema.Index(col)
		if d < 0 {
			return nil, nil, apperrors.NewKeyConflictError(col, table.Source, driver.Source,
				fmt.Sprintf("join key %q declared by %q does not exist in driver %q", col, table.Source, driver.Source))
		}
		driverIdx[i] = d

		o := table.Schema.Index(col)
		if o < 0 {
			return nil, nil, apperrors.NewKeyConflictError(col, table.Source, driver.Source,
				fmt.Sprintf("source %q declares primary key %q but carries no such column", table.Source, col))
		}
		tableIdx[i] = o
	}

	// Index the coarse rows by key tuple; a duplicate cannot broadcast
	index := make(map[string]domain.Row, len(table.Rows))
	for _, row := range table.Rows {
		key := row.Key(tableIdx)
		if _, dup := index[key]; dup {
			return nil, nil, apperrors.NewKeyConflictError(strings.Join(table.PrimaryKey, ","), table.Source, driver.Source,
				fmt.Sprintf("source %q holds duplicate rows for key (%s)", table.Source, strings.Join(keyTuple(row, tableIdx), ", ")))
		}
		index[key] = row
	}

	// Non-key columns append to the schema, suffixed on name collision
	carry := make([]int, 0, len(table.Schema))
	for i, field := range table.Schema {
		if keyCols[field.Name] {
			continue
		}
		name := field.Name
		if schema.Has(name) {
			name = name + "_" + table.Source
		}
		if schema.Has(name) {
			return nil, nil, apperrors.NewConfigError(
				fmt.Sprintf("column %q from source %q collides even after suffixing", field.Name, table.Source), nil)
		}
		schema = append(schema, domain.Field{Name: name, Type: field.Type})
		carry = append(carry, i)
	}

	// Driver columns occupy the same positions in the accumulated rows,
	// so the driver-side key indices apply directly
	matched := 0
	for r, row := range rows {
		key := row.Key(driverIdx)
		if match, ok := index[key]; ok {
			matched++
			for _, i := range carry {
				row = append(row, match[i])
			}
		} else {
			for range carry {
				row = append(row, domain.Absent())
			}
		}
		rows[r] = row
	}

	m.logger.Debug("source joined",
		slog.String("source", table.Source),
		slog.String("key", strings.Join(table.PrimaryKey, ",")),
		slog.Int("matched", matched),
		slog.Int("unmatched", len(rows)-matched))

	return schema, rows, nil
}

// keyTuple renders a key's cell values for an error message.
func keyTuple(row domain.Row, idx []int) []string {
	out := make([]string, len(idx))
	for i, j := range idx {
		out[i] = row[j].String()
	}
	return out
}
