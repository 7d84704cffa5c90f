// Package report builds the per-run data-quality summary consumed by the
// exporter.
package report

import (
	"context"
	"log/slog"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"mlbcli/internal/cleaner"
	"mlbcli/pkg/contracts/domain"
)

// Report is the per-run data-quality summary written next to the merged
// output. It answers the questions a notebook asks before trusting the data:
// how many rows, what does each numeric column look like, how much was
// imputed and by which strategy, and where did the time go.
type Report struct {
	GeneratedAt time.Time       `json:"generated_at"`
	RunID       string          `json:"run_id,omitempty"`
	Driver      string          `json:"driver"`
	Rows        int             `json:"rows"`
	AbsentCells int             `json:"absent_cells"`
	Columns     []ColumnSummary `json:"columns"`
	Sources     []SourceSummary `json:"sources"`
	Imputation  map[string]int  `json:"imputation_totals"`
	RowsDropped int             `json:"rows_dropped"`
	Stages      []StageTiming   `json:"stages,omitempty"`
}

// ColumnSummary describes one merged column. The moment statistics are only
// populated for numeric columns; Count excludes explicit absent cells.
type ColumnSummary struct {
	Name   string  `json:"name"`
	Type   string  `json:"type"`
	Count  int     `json:"count"`
	Absent int     `json:"absent"`
	Mean   float64 `json:"mean,omitempty"`
	StdDev float64 `json:"std_dev,omitempty"`
	Min    float64 `json:"min,omitempty"`
	Max    float64 `json:"max,omitempty"`
}

// SourceSummary describes what cleaning did to one source: the absent cells
// it found before imputation and how each strategy resolved them.
type SourceSummary struct {
	Source       string         `json:"source"`
	RowsIn       int            `json:"rows_in"`
	RowsOut      int            `json:"rows_out"`
	RowsDropped  int            `json:"rows_dropped"`
	AbsentBefore int            `json:"absent_before"`
	Imputed      map[string]int `json:"imputed,omitempty"`
}

// StageTiming records one pipeline stage's wall-clock execution.
type StageTiming struct {
	Stage    string    `json:"stage"`
	Status   string    `json:"status"`
	Started  time.Time `json:"started"`
	Finished time.Time `json:"finished"`
	Duration string    `json:"duration"`
}

// Generator builds run reports. One Generator serves one run.
type Generator struct {
	logger *slog.Logger
}

// NewGenerator creates a report generator.
func NewGenerator(logger *slog.Logger) *Generator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Generator{logger: logger}
}

// Generate summarizes a merged table together with the cleaning statistics
// and stage timings of the run that produced it.
func (g *Generator) Generate(ctx context.Context, merged *domain.MergedTable, stats map[string]*cleaner.Stats, stages []StageTiming) *Report {
	rep := &Report{
		GeneratedAt: time.Now().UTC(),
		Driver:      merged.Driver,
		Rows:        merged.RowCount(),
		AbsentCells: merged.AbsentCells(),
		Columns:     make([]ColumnSummary, 0, len(merged.Schema)),
		Imputation:  make(map[string]int),
		Stages:      stages,
	}

	for i, field := range merged.Schema {
		rep.Columns = append(rep.Columns, summarizeColumn(merged, i, field))
	}

	// Source order follows the merge order for a stable report
	for _, name := range merged.Sources {
		st, ok := stats[name]
		if !ok {
			continue
		}
		absent := 0
		for _, n := range st.AbsentBefore {
			absent += n
		}
		rep.Sources = append(rep.Sources, SourceSummary{
			Source:       st.Source,
			RowsIn:       st.RowsIn,
			RowsOut:      st.RowsOut,
			RowsDropped:  st.RowsDropped,
			AbsentBefore: absent,
			Imputed:      st.ImputedCells,
		})
		rep.RowsDropped += st.RowsDropped
		for strategy, n := range st.ImputedCells {
			rep.Imputation[strategy] += n
		}
	}

	g.logger.InfoContext(ctx, "run report generated",
		slog.Int("rows", rep.Rows),
		slog.Int("columns", len(rep.Columns)),
		slog.Int("absent_cells", rep.AbsentCells),
		slog.Int("rows_dropped", rep.RowsDropped))

	return rep
}

// summarizeColumn computes one column's summary. Moment statistics come from
// gonum over the present numeric values.
func summarizeColumn(merged *domain.MergedTable, col int, field domain.Field) ColumnSummary {
	summary := ColumnSummary{Name: field.Name, Type: string(field.Type)}

	values := make([]float64, 0, len(merged.Rows))
	for _, row := range merged.Rows {
		cell := row[col]
		if cell.IsAbsent() {
			summary.Absent++
			continue
		}
		summary.Count++
		if v, ok := cell.Numeric(); ok {
			values = append(values, v)
		}
	}

	if field.Type.Numeric() && len(values) > 0 {
		summary.Mean = stat.Mean(values, nil)
		summary.Min = floats.Min(values)
		summary.Max = floats.Max(values)
		if len(values) > 1 {
			summary.StdDev = stat.StdDev(values, nil)
		}
	}

	return summary
}
