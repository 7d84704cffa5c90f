package pipeline_test

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mlbcli/internal/pipeline"
)

func TestRunManifestStageTracking(t *testing.T) {
	manifest := pipeline.NewRunManifest("run-1", 5)
	manifest.MarkRunning()

	manifest.RecordStageStart("load", "Source Loading")
	assert.False(t, manifest.IsStageCompleted("load"))

	manifest.RecordStageCompletion("load")
	assert.True(t, manifest.IsStageCompleted("load"))
	assert.Equal(t, 20, manifest.Progress())

	require.Len(t, manifest.Stages, 1)
	assert.Equal(t, "completed", manifest.Stages[0].Status)
	assert.NotEmpty(t, manifest.Stages[0].Duration)
}

func TestRunManifestStageFailure(t *testing.T) {
	manifest := pipeline.NewRunManifest("run-2", 5)
	manifest.MarkRunning()

	manifest.RecordStageStart("clean", "Data Cleaning")
	manifest.RecordStageFailure("clean", errors.New("absent key column"))

	assert.Equal(t, "failed", manifest.Status)
	assert.Contains(t, manifest.Error, "clean")
	require.Len(t, manifest.Stages, 1)
	assert.Equal(t, "failed", manifest.Stages[0].Status)
	assert.Equal(t, "absent key column", manifest.Stages[0].Error)
}

func TestRunManifestStageSkip(t *testing.T) {
	manifest := pipeline.NewRunManifest("run-3", 5)

	manifest.RecordStageSkip("merge", "Table Merging", "dependency align failed")

	require.Len(t, manifest.Stages, 1)
	assert.Equal(t, "skipped", manifest.Stages[0].Status)
	assert.Equal(t, "dependency align failed", manifest.Stages[0].Error)
	assert.False(t, manifest.IsStageCompleted("merge"))
}

func TestRunManifestArtifacts(t *testing.T) {
	manifest := pipeline.NewRunManifest("run-4", 5)

	manifest.AddArtifact("merged_csv", &pipeline.ArtifactInfo{
		Type:      "merged_csv",
		Path:      "/data/processed/merged.csv",
		Rows:      100,
		Columns:   12,
		CreatedBy: "export",
	})

	info, ok := manifest.GetArtifact("merged_csv")
	require.True(t, ok)
	assert.Equal(t, 100, info.Rows)
	assert.False(t, info.CreatedAt.IsZero())

	_, ok = manifest.GetArtifact("report_json")
	assert.False(t, ok)
}

func TestRunManifestSaveLoad(t *testing.T) {
	manifest := pipeline.NewRunManifest("run-5", 2)
	manifest.SetConfigSnapshot("season", "batting", []string{"batting", "payroll"})
	manifest.MarkRunning()
	manifest.RecordStageStart("load", "Source Loading")
	manifest.RecordStageCompletion("load")
	manifest.MarkCompleted()

	path := filepath.Join(t.TempDir(), "manifest.json")
	require.NoError(t, manifest.SaveToFile(path))

	loaded, err := pipeline.LoadManifestFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, "run-5", loaded.RunID)
	assert.Equal(t, "completed", loaded.Status)
	assert.Equal(t, "season", loaded.TargetUnit)
	assert.Equal(t, "batting", loaded.Driver)
	assert.Equal(t, []string{"batting", "payroll"}, loaded.Sources)
	require.Len(t, loaded.Stages, 1)
	assert.Equal(t, "load", loaded.Stages[0].StageID)
}

func TestLoadManifestMissingFile(t *testing.T) {
	_, err := pipeline.LoadManifestFromFile(filepath.Join(t.TempDir(), "nope.json"))
	assert.Error(t, err)
}
