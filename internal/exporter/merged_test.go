package exporter

import (
	"context"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mlbcli/internal/config"
	"mlbcli/pkg/contracts/domain"
)

func mergedFixture(rows int) *domain.MergedTable {
	table := &domain.MergedTable{
		Schema: domain.Schema{
			{Name: "Name", Type: domain.TypeCategory},
			{Name: "season", Type: domain.TypeInteger},
			{Name: "HR", Type: domain.TypeInteger},
			{Name: "Payroll", Type: domain.TypeFloat},
		},
		Sources: []string{"batting", "payroll"},
		Driver:  "batting",
	}
	for i := 0; i < rows; i++ {
		payroll := domain.FloatCell(71333575)
		if i%3 == 2 {
			payroll = domain.Absent()
		}
		table.Rows = append(table.Rows, domain.Row{
			domain.CategoryCell("Player " + string(rune('A'+i%26))),
			domain.IntCell(int64(2020 + i%2)),
			domain.IntCell(int64(i)),
			payroll,
		})
	}
	return table
}

func TestMergedExport(t *testing.T) {
	paths := config.GetPathsFrom(t.TempDir())
	exp := NewMergedExporter(paths, slog.Default())

	fullPath, err := exp.Export(context.Background(), mergedFixture(3), MergedOptions{
		AbsentToken: "NA",
	})
	require.NoError(t, err)
	assert.Equal(t, paths.MergedCSV, fullPath)

	content := readFile(t, fullPath)
	lines := strings.Split(strings.TrimRight(content, "\n"), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "Name,season,HR,Payroll", lines[0])
	assert.Equal(t, "Player A,2020,0,71333575", lines[1])
	assert.Equal(t, "Player C,2020,2,NA", lines[3], "absent cell renders as the token")
}

func TestMergedExportBOM(t *testing.T) {
	paths := config.GetPathsFrom(t.TempDir())
	exp := NewMergedExporter(paths, slog.Default())

	fullPath, err := exp.Export(context.Background(), mergedFixture(1), MergedOptions{
		AbsentToken: "NA",
		BOM:         true,
	})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(readFile(t, fullPath), "\xEF\xBB\xBF"))
}

func TestMergedExportCustomPath(t *testing.T) {
	paths := config.GetPathsFrom(t.TempDir())
	exp := NewMergedExporter(paths, slog.Default())

	fullPath, err := exp.Export(context.Background(), mergedFixture(2), MergedOptions{
		Path:        "season_2020.csv",
		AbsentToken: "NA",
	})
	require.NoError(t, err)
	assert.Equal(t, paths.GetProcessedPath("season_2020.csv"), fullPath)
	assert.FileExists(t, fullPath)
}

func TestMergedExportStreaming(t *testing.T) {
	paths := config.GetPathsFrom(t.TempDir())
	exp := NewMergedExporter(paths, slog.Default())

	table := mergedFixture(4)
	err := exp.exportStreaming("merged.csv", table.Schema.Names(), table, MergedOptions{
		AbsentToken: "NA",
	})
	require.NoError(t, err)

	content := readFile(t, paths.GetProcessedPath("merged.csv"))
	lines := strings.Split(strings.TrimRight(content, "\n"), "\n")
	require.Len(t, lines, 5)
	assert.Equal(t, "Name,season,HR,Payroll", lines[0])
	assert.Equal(t, "Player C,2020,2,NA", lines[3])
}
