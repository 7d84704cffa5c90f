package aligner

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mlbcli/internal/config"
	apperrors "mlbcli/internal/errors"
	"mlbcli/pkg/contracts/domain"
)

// dailyTable builds a team-per-date table of (Tm, day, R) rows.
func dailyTable(rows ...domain.Row) *domain.CleanTable {
	return &domain.CleanTable{
		Source: "scores",
		Schema: domain.Schema{
			{Name: "Tm", Type: domain.TypeCategory},
			{Name: "day", Type: domain.TypeDate},
			{Name: "R", Type: domain.TypeInteger},
		},
		Rows: rows,
		Granularity: domain.Granularity{
			Level:      domain.LevelTeam,
			EntityKeys: []string{"Tm"},
			TimeColumn: "day",
			TimeUnit:   domain.UnitDate,
		},
	}
}

func dailySource(aggregate string) config.SourceConfig {
	return config.SourceConfig{
		Name: "scores",
		Granularity: config.GranularityConfig{
			Level:      "team",
			EntityKeys: []string{"Tm"},
			TimeColumn: "day",
			TimeUnit:   "date",
		},
		PrimaryKey: []string{"Tm", "day"},
		Columns: map[string]config.ColumnPolicy{
			"Tm":  {Type: "category", Impute: "none", Aggregate: "last"},
			"day": {Type: "date", Impute: "none", Aggregate: "last"},
			"R":   {Type: "integer", Impute: "none", Aggregate: aggregate},
		},
	}
}

func day(s string) domain.Cell {
	d, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return domain.DateCell(d)
}

func row(team, date string, runs int64) domain.Row {
	return domain.Row{domain.CategoryCell(team), day(date), domain.IntCell(runs)}
}

func TestAlignSumsFinerRowsIntoSeasonBuckets(t *testing.T) {
	table := dailyTable(
		row("ATH", "2021-06-01", 4),
		row("ATH", "2021-06-02", 7),
		row("BOS", "2021-06-01", 2),
		row("ATH", "2022-04-08", 5),
	)

	aligned, err := New(nil).Align(dailySource("sum"), table, domain.UnitSeason)
	require.NoError(t, err)

	// One row per (team, season), sorted by season then team
	require.Equal(t, 3, aligned.RowCount())

	timeIdx := aligned.ColumnIndex("day")
	r := aligned.ColumnIndex("R")
	tm := aligned.ColumnIndex("Tm")

	assert.Equal(t, domain.IntCell(2021), aligned.Rows[0][timeIdx])
	assert.Equal(t, domain.CategoryCell("ATH"), aligned.Rows[0][tm])
	assert.Equal(t, domain.IntCell(11), aligned.Rows[0][r])

	assert.Equal(t, domain.CategoryCell("BOS"), aligned.Rows[1][tm])
	assert.Equal(t, domain.IntCell(2), aligned.Rows[1][r])

	assert.Equal(t, domain.IntCell(2022), aligned.Rows[2][timeIdx])
	assert.Equal(t, domain.IntCell(5), aligned.Rows[2][r])

	// The time column is retyped to the canonical season representation
	assert.Equal(t, domain.TypeInteger, aligned.Schema[timeIdx].Type)
	assert.Equal(t, domain.UnitSeason, aligned.Granularity.TimeUnit)
}

func TestAlignMeanAggregation(t *testing.T) {
	table := dailyTable(
		row("ATH", "2021-06-01", 4),
		row("ATH", "2021-06-02", 7),
	)

	aligned, err := New(nil).Align(dailySource("mean"), table, domain.UnitSeason)
	require.NoError(t, err)

	require.Equal(t, 1, aligned.RowCount())
	// mean of 4 and 7 on an integer column rounds half away from zero
	assert.Equal(t, domain.IntCell(6), aligned.Rows[0][aligned.ColumnIndex("R")])
}

func TestAlignLastTakesLatestTimestamp(t *testing.T) {
	// Input order scrambled: the June 3rd row is latest and must win
	table := dailyTable(
		row("ATH", "2021-06-03", 9),
		row("ATH", "2021-06-01", 4),
		row("ATH", "2021-06-02", 7),
	)

	aligned, err := New(nil).Align(dailySource("last"), table, domain.UnitSeason)
	require.NoError(t, err)

	require.Equal(t, 1, aligned.RowCount())
	assert.Equal(t, domain.IntCell(9), aligned.Rows[0][aligned.ColumnIndex("R")])
}

func TestAlignLastTieBreaksOnInputOrder(t *testing.T) {
	// Two rows share the timestamp; the later input row wins
	table := dailyTable(
		row("ATH", "2021-06-01", 4),
		row("ATH", "2021-06-01", 7),
	)

	aligned, err := New(nil).Align(dailySource("last"), table, domain.UnitSeason)
	require.NoError(t, err)

	require.Equal(t, 1, aligned.RowCount())
	assert.Equal(t, domain.IntCell(7), aligned.Rows[0][aligned.ColumnIndex("R")])
}

func TestAlignMonthBucketsAreFirstOfMonth(t *testing.T) {
	table := dailyTable(
		row("ATH", "2021-06-01", 4),
		row("ATH", "2021-06-28", 7),
		row("ATH", "2021-07-02", 3),
	)

	aligned, err := New(nil).Align(dailySource("sum"), table, domain.UnitMonth)
	require.NoError(t, err)

	require.Equal(t, 2, aligned.RowCount())
	timeIdx := aligned.ColumnIndex("day")
	assert.Equal(t, day("2021-06-01"), aligned.Rows[0][timeIdx])
	assert.Equal(t, domain.IntCell(11), aligned.Rows[0][aligned.ColumnIndex("R")])
	assert.Equal(t, day("2021-07-01"), aligned.Rows[1][timeIdx])
}

func TestAlignSameUnitPassesThroughAndDedupes(t *testing.T) {
	table := &domain.CleanTable{
		Source: "batting",
		Schema: domain.Schema{
			{Name: "Tm", Type: domain.TypeCategory},
			{Name: "season", Type: domain.TypeInteger},
			{Name: "HR", Type: domain.TypeInteger},
		},
		Rows: []domain.Row{
			{domain.CategoryCell("BOS"), domain.IntCell(2018), domain.IntCell(100)},
			{domain.CategoryCell("BOS"), domain.IntCell(2018), domain.IntCell(208)},
			{domain.CategoryCell("ATH"), domain.IntCell(2018), domain.IntCell(227)},
		},
		Granularity: domain.Granularity{
			Level:      domain.LevelTeam,
			EntityKeys: []string{"Tm"},
			TimeColumn: "season",
			TimeUnit:   domain.UnitSeason,
		},
	}
	src := config.SourceConfig{
		Name:       "batting",
		PrimaryKey: []string{"Tm", "season"},
		Granularity: config.GranularityConfig{
			Level: "team", EntityKeys: []string{"Tm"}, TimeColumn: "season", TimeUnit: "season",
		},
		Columns: map[string]config.ColumnPolicy{
			"Tm":     {Type: "category", Impute: "none", Aggregate: "last"},
			"season": {Type: "integer", Impute: "none", Aggregate: "last"},
			"HR":     {Type: "integer", Impute: "none", Aggregate: "last"},
		},
	}

	aligned, err := New(nil).Align(src, table, domain.UnitSeason)
	require.NoError(t, err)

	// Duplicate (BOS, 2018) collapses; later input row wins under "last"
	require.Equal(t, 2, aligned.RowCount())
	assert.Equal(t, domain.CategoryCell("ATH"), aligned.Rows[0][0])
	assert.Equal(t, domain.IntCell(208), aligned.Rows[1][2])
	assert.Equal(t, []string{"Tm", "season"}, aligned.PrimaryKey)
}

func TestAlignRefusesDisaggregation(t *testing.T) {
	table := &domain.CleanTable{
		Source: "payroll",
		Schema: domain.Schema{
			{Name: "Tm", Type: domain.TypeCategory},
			{Name: "season", Type: domain.TypeInteger},
		},
		Rows: []domain.Row{
			{domain.CategoryCell("BOS"), domain.IntCell(2018)},
		},
		Granularity: domain.Granularity{
			Level:      domain.LevelTeam,
			EntityKeys: []string{"Tm"},
			TimeColumn: "season",
			TimeUnit:   domain.UnitSeason,
		},
	}
	src := config.SourceConfig{Name: "payroll"}

	_, err := New(nil).Align(src, table, domain.UnitDate)
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeGranularityMismatch))
	assert.Contains(t, err.Error(), "payroll")
}

func TestAlignIsDeterministic(t *testing.T) {
	table := dailyTable(
		row("BOS", "2021-06-02", 3),
		row("ATH", "2021-06-01", 4),
		row("ATH", "2021-09-12", 7),
		row("BOS", "2021-06-01", 2),
		row("ATH", "2022-04-08", 5),
	)

	a := New(nil)
	first, err := a.Align(dailySource("sum"), table, domain.UnitSeason)
	require.NoError(t, err)
	second, err := a.Align(dailySource("sum"), table, domain.UnitSeason)
	require.NoError(t, err)

	require.Equal(t, first.RowCount(), second.RowCount())
	for i := range first.Rows {
		for j := range first.Rows[i] {
			assert.True(t, first.Rows[i][j].Equal(second.Rows[i][j]),
				"row %d col %d differs between runs", i, j)
		}
	}
}

func TestAlignAllUsesConfiguredTarget(t *testing.T) {
	cfg := config.Default()
	cfg.Pipeline.TargetUnit = string(domain.UnitSeason)
	src := dailySource("sum")
	cfg.Sources = []config.SourceConfig{src}

	tables := map[string]*domain.CleanTable{
		"scores": dailyTable(
			row("ATH", "2021-06-01", 4),
			row("ATH", "2021-06-02", 7),
		),
	}

	aligned, err := New(nil).AlignAll(context.Background(), cfg, tables)
	require.NoError(t, err)
	require.Len(t, aligned, 1)
	assert.Equal(t, 1, aligned["scores"].RowCount())
}
