package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetPaths(t *testing.T) {
	t.Run("basic path resolution", func(t *testing.T) {
		paths, err := GetPaths()
		require.NoError(t, err)
		require.NotNil(t, paths)

		// Verify all paths are absolute
		assert.True(t, filepath.IsAbs(paths.BaseDir), "BaseDir should be absolute")
		assert.True(t, filepath.IsAbs(paths.DataDir), "DataDir should be absolute")
		assert.True(t, filepath.IsAbs(paths.RawDir), "RawDir should be absolute")
		assert.True(t, filepath.IsAbs(paths.LogsDir), "LogsDir should be absolute")

		// Verify paths are correctly related to the base dir
		assert.Equal(t, filepath.Join(paths.BaseDir, "data"), paths.DataDir)
		assert.Equal(t, filepath.Join(paths.BaseDir, "logs"), paths.LogsDir)
	})

	t.Run("consistent calls return same paths", func(t *testing.T) {
		paths1, err1 := GetPaths()
		require.NoError(t, err1)

		paths2, err2 := GetPaths()
		require.NoError(t, err2)

		assert.Equal(t, paths1.BaseDir, paths2.BaseDir)
		assert.Equal(t, paths1.DataDir, paths2.DataDir)
		assert.Equal(t, paths1.MergedCSV, paths2.MergedCSV)
	})
}

func TestGetPathsFrom(t *testing.T) {
	base := t.TempDir()
	paths := GetPathsFrom(base)
	require.NotNil(t, paths)

	t.Run("nested directory structure", func(t *testing.T) {
		assert.Equal(t, base, paths.BaseDir)
		assert.Equal(t, filepath.Join(base, "data"), paths.DataDir)
		assert.Equal(t, filepath.Join(base, "data", "raw"), paths.RawDir)
		assert.Equal(t, filepath.Join(base, "data", "processed"), paths.ProcessedDir)
		assert.Equal(t, filepath.Join(base, "data", "reports"), paths.ReportsDir)
		assert.Equal(t, filepath.Join(base, "data", "cache"), paths.CacheDir)
		assert.Equal(t, filepath.Join(base, "logs"), paths.LogsDir)
	})

	t.Run("well-known output files", func(t *testing.T) {
		assert.True(t, strings.HasPrefix(paths.MergedCSV, paths.ProcessedDir))
		assert.True(t, strings.HasPrefix(paths.SummaryJSON, paths.ReportsDir))
		assert.True(t, strings.HasPrefix(paths.ManifestJSON, paths.ReportsDir))

		assert.Equal(t, "merged.csv", filepath.Base(paths.MergedCSV))
		assert.Equal(t, "summary.json", filepath.Base(paths.SummaryJSON))
		assert.Equal(t, "manifest.json", filepath.Base(paths.ManifestJSON))
	})
}

func TestEnsureDirectories(t *testing.T) {
	paths := GetPathsFrom(t.TempDir())

	require.NoError(t, paths.EnsureDirectories())

	for _, dir := range []string{
		paths.DataDir,
		paths.RawDir,
		paths.ProcessedDir,
		paths.ReportsDir,
		paths.CacheDir,
		paths.LogsDir,
	} {
		info, err := os.Stat(dir)
		require.NoError(t, err, "directory %s should exist", dir)
		assert.True(t, info.IsDir(), "%s should be a directory", dir)
	}

	// Calling again on an existing tree is a no-op
	assert.NoError(t, paths.EnsureDirectories())
}

func TestPathHelperMethods(t *testing.T) {
	base := t.TempDir()
	paths := GetPathsFrom(base)

	t.Run("raw season paths", func(t *testing.T) {
		assert.Equal(t, filepath.Join(base, "data", "raw", "2005"), paths.GetRawSeasonDir(2005))
		assert.Equal(t,
			filepath.Join(base, "data", "raw", "2005", "Batting_2005.csv"),
			paths.GetRawTablePath(RawNameBatting, 2005))
		assert.Equal(t,
			filepath.Join(base, "data", "raw", "1998", "Salaries_1998.csv"),
			paths.GetRawTablePath(RawNameSalaries, 1998))
	})

	t.Run("output paths", func(t *testing.T) {
		assert.Equal(t, filepath.Join(base, "data", "processed", "merged.csv"), paths.GetProcessedPath("merged.csv"))
		assert.Equal(t, filepath.Join(base, "data", "reports", "summary.json"), paths.GetReportPath("summary.json"))
		assert.Equal(t, filepath.Join(base, "logs", "mlbcli.log"), paths.GetLogPath("mlbcli.log"))
		assert.Equal(t, filepath.Join(base, "data", "cache", "page.html"), paths.GetCachePath("page.html"))
	})

	t.Run("relative path", func(t *testing.T) {
		assert.Equal(t, filepath.Join(base, "configs", "mlbcli.yaml"), paths.GetRelativePath("configs/mlbcli.yaml"))
	})
}

func TestFileExists(t *testing.T) {
	dir := t.TempDir()

	existing := filepath.Join(dir, "present.csv")
	require.NoError(t, os.WriteFile(existing, []byte("a,b\n1,2\n"), 0644))

	assert.True(t, FileExists(existing))
	assert.False(t, FileExists(filepath.Join(dir, "absent.csv")))
}

func TestSeasonFromFilename(t *testing.T) {
	tests := []struct {
		name string
		path string
		want int
	}{
		{"batting csv", "data/raw/2005/Batting_2005.csv", 2005},
		{"salaries csv", "Salaries_1998.csv", 1998},
		{"excel file", "WAA_Positions_2022.xlsx", 2022},
		{"absolute path", "/srv/mlb/data/raw/2010/Pitching_2010.csv", 2010},
		{"no season suffix", "data/processed/merged.csv", 0},
		{"year not before extension", "2005_Batting.csv", 0},
		{"short year", "Batting_95.csv", 0},
		{"wrong extension", "Batting_2005.json", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SeasonFromFilename(tt.path))
		})
	}
}

func BenchmarkGetPathsFrom(b *testing.B) {
	for i := 0; i < b.N; i++ {
		_ = GetPathsFrom("/srv/mlb")
	}
}
