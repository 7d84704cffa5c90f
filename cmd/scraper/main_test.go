package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mlbcli/internal/config"
	"mlbcli/internal/files"
)

const seasonPageFixture = `<html><body>
<div id="content">
<table id="teams_standard_batting">
  <thead>
    <tr><th>Tm</th><th>R</th><th>HR</th></tr>
  </thead>
  <tbody>
    <tr><td>NYY</td><td>711</td><td>254</td></tr>
    <tr><td>HOU</td><td>738</td><td>214</td></tr>
    <tr><td>Tm</td><td>R</td><td>HR</td></tr>
    <tr><td>League Average</td><td>702</td><td>198</td></tr>
  </tbody>
</table>
<!--
<table id="teams_standard_pitching">
  <thead>
    <tr><th>Tm</th><th>ERA</th></tr>
  </thead>
  <tbody>
    <tr><td>NYY</td><td>3.30</td></tr>
    <tr><td>HOU</td><td>2.90</td></tr>
  </tbody>
</table>
-->
</div>
</body></html>`

func TestParseTablesFindsVisibleAndCommented(t *testing.T) {
	tables, err := parseTables(seasonPageFixture)
	require.NoError(t, err)

	batting, ok := tables["teams_standard_batting"]
	require.True(t, ok, "visible table should be found")
	assert.Equal(t, []string{"Tm", "R", "HR"}, batting.Headers)
	assert.Len(t, batting.Rows, 4)

	pitching, ok := tables["teams_standard_pitching"]
	require.True(t, ok, "comment-hidden table should be recovered")
	assert.Equal(t, []string{"Tm", "ERA"}, pitching.Headers)
	require.Len(t, pitching.Rows, 2)
	assert.Equal(t, []string{"NYY", "3.30"}, pitching.Rows[0])
}

func TestTableDataTwoLevelHeader(t *testing.T) {
	src := `<table id="t">
  <thead>
    <tr><th></th><th colspan="2">Batting</th></tr>
    <tr><th>Tm</th><th>R</th><th>HR</th></tr>
  </thead>
  <tbody>
    <tr><td>BOS</td><td>735</td><td>208</td></tr>
  </tbody>
</table>`

	tables, err := parseTables(src)
	require.NoError(t, err)
	table := tables["t"]
	require.NotNil(t, table)

	assert.Equal(t, []string{"Tm", "Batting R", "Batting HR"}, table.Headers)
	require.Len(t, table.Rows, 1)
	assert.Equal(t, []string{"BOS", "735", "208"}, table.Rows[0])
}

func TestTableDataHeaderlessTable(t *testing.T) {
	src := `<table id="plain">
  <tr><td>Team</td><td>Payroll</td></tr>
  <tr><td>Yankees</td><td>$245,000,000</td></tr>
  <tr><td>Mets</td><td>$236,000,000</td></tr>
</table>`

	tables, err := parseTables(src)
	require.NoError(t, err)
	table := tables["plain"]
	require.NotNil(t, table)

	assert.Equal(t, []string{"Team", "Payroll"}, table.Headers)
	require.Len(t, table.Rows, 2)
	assert.Equal(t, []string{"Yankees", "$245,000,000"}, table.Rows[0])
}

func TestCleanTableDropsNoiseRows(t *testing.T) {
	table := &statTable{
		Headers: []string{"Tm", "R", "HR"},
		Rows: [][]string{
			{"NYY", "711", "254"},
			{"Tm", "R", "HR"},
			{"League Average", "702", "198"},
			{"Lg Avg", "702", "198"},
			{"HOU", "738"},
		},
	}

	cleaned := cleanTable(table)

	require.Len(t, cleaned.Rows, 2)
	assert.Equal(t, []string{"NYY", "711", "254"}, cleaned.Rows[0])
	// Short rows pad to the header width
	assert.Equal(t, []string{"HOU", "738", ""}, cleaned.Rows[1])
}

func payrollPageFixture(rowsPerTable int) string {
	var sb strings.Builder
	sb.WriteString("<html><body>")

	writeTable := func(prefix string) {
		sb.WriteString("<table><tr><th>Team</th><th>Payroll</th></tr>")
		for i := 0; i < rowsPerTable; i++ {
			fmt.Fprintf(&sb, "<tr><td>%s Team %d</td><td>$%d</td></tr>", prefix, i, 1000000*(i+1))
		}
		sb.WriteString("</table>")
	}

	sb.WriteString("<b>2021 MLB Team Payrolls</b>")
	writeTable("A")
	sb.WriteString("<h3>2022 Opening Day payrolls</h3>")
	writeTable("B")
	// A year in prose without a payroll keyword must not start a section
	sb.WriteString("<b>Since 1998 the figures come from press reports</b>")
	sb.WriteString("</body></html>")
	return sb.String()
}

func TestPayrollSections(t *testing.T) {
	sections, err := payrollSections(payrollPageFixture(25))
	require.NoError(t, err)

	require.Contains(t, sections, 2021)
	require.Contains(t, sections, 2022)
	assert.NotContains(t, sections, 1998)

	require.Len(t, sections[2021], 1)
	table := sections[2021][0]
	assert.Equal(t, []string{"Team", "Payroll"}, table.Headers)
	assert.Equal(t, 25, table.RowCount())
	assert.Equal(t, "A Team 0", table.Rows[0][0])

	assert.Equal(t, "B Team 0", sections[2022][0].Rows[0][0])
}

func TestHeadingYear(t *testing.T) {
	tests := []struct {
		text string
		want int
	}{
		{"2021 MLB Team Payrolls", 2021},
		{"Opening Day payrolls for 2015", 2015},
		{"2019 season in review", 0},
		{"MLB Payrolls", 0},
		{"", 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, headingYear(tt.text), "text %q", tt.text)
	}
}

func TestPickPayrollTable(t *testing.T) {
	small := &statTable{Rows: make([][]string, 5)}
	big := &statTable{Rows: make([][]string, 30)}

	assert.Same(t, big, pickPayrollTable([]*statTable{small, big}, minPayrollRows))
	// Nothing reaches the threshold: the largest wins
	assert.Same(t, small, pickPayrollTable([]*statTable{small}, minPayrollRows))
	assert.Nil(t, pickPayrollTable(nil, minPayrollRows))
}

func TestSeasonCompleteRequiresCoreTables(t *testing.T) {
	dir := t.TempDir()
	assert.False(t, seasonComplete(dir, 2005))

	for _, name := range []string{config.RawNameBatting, config.RawNamePitching} {
		writeFixtureFile(t, seasonTablePath(dir, name, 2005))
	}
	assert.False(t, seasonComplete(dir, 2005), "fielding still missing")

	// WAA and postseason files are optional and never block the skip
	writeFixtureFile(t, seasonTablePath(dir, config.RawNameFielding, 2005))
	assert.True(t, seasonComplete(dir, 2005))
}

func TestMissingSalarySeasons(t *testing.T) {
	dir := t.TempDir()
	writeFixtureFile(t, seasonTablePath(dir, config.RawNameSalaries, 2001))

	missing := missingSalarySeasons(dir, 2000, 2002)
	assert.Equal(t, []int{2000, 2002}, missing)
}

func TestSeasonRange(t *testing.T) {
	cfg := config.ScraperConfig{FromSeason: 1998, ToSeason: 2022}

	from, to := seasonRange(0, 0, cfg)
	assert.Equal(t, 1998, from)
	assert.Equal(t, 2022, to)

	from, to = seasonRange(2010, 0, cfg)
	assert.Equal(t, 2010, from)
	assert.Equal(t, 2022, to)

	from, to = seasonRange(2010, 2012, cfg)
	assert.Equal(t, 2010, from)
	assert.Equal(t, 2012, to)
}

func TestSeasonTablePath(t *testing.T) {
	path := seasonTablePath("/data/raw", config.RawNameBatting, 2005)
	assert.Equal(t, filepath.Join("/data/raw", "2005", "Batting_2005.csv"), path)
}

func TestResolveOutDir(t *testing.T) {
	paths := config.GetPathsFrom("/base")
	cfg := config.Default()

	assert.Equal(t, "/explicit", resolveOutDir("/explicit", cfg, paths))
	assert.Equal(t, filepath.Join("/base", "data", "raw"), resolveOutDir("", cfg, paths))

	cfg.Scraper.OutputDir = "/abs/raw"
	assert.Equal(t, "/abs/raw", resolveOutDir("", cfg, paths))

	cfg.Scraper.OutputDir = ""
	assert.Equal(t, paths.RawDir, resolveOutDir("", cfg, paths))
}

func TestWriteTableCSV(t *testing.T) {
	dir := t.TempDir()
	path := seasonTablePath(dir, config.RawNameBatting, 2005)
	fm := files.NewManager(config.GetPathsFrom(dir))

	table := &statTable{
		Headers: []string{"Tm", "R", "HR"},
		Rows: [][]string{
			{"NYY", "711", "254"},
			{"HOU", "738", "214"},
		},
	}
	require.NoError(t, writeTableCSV(fm, path, table))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "Tm,R,HR\nNYY,711,254\nHOU,738,214\n", string(data))

	// No leftover temporary file next to the final artifact
	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	require.Len(t, entries, 1)
}

func TestLookupTableUsesAlternates(t *testing.T) {
	tables := map[string]*statTable{
		"teams_batting": {Headers: []string{"Tm"}},
	}

	assert.Nil(t, lookupTable(tables, "teams_standard_batting", nil))
	found := lookupTable(tables, "teams_standard_batting", []string{"teams_batting"})
	require.NotNil(t, found)
	assert.Same(t, tables["teams_batting"], found)
}

// writeFixtureFile creates an empty file plus its parent directories
func writeFixtureFile(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte("x\n"), 0644))
}
