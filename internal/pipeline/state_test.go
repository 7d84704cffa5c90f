package pipeline_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mlbcli/internal/cleaner"
	"mlbcli/internal/pipeline"
	"mlbcli/pkg/contracts/domain"
)

func TestStageStateLifecycle(t *testing.T) {
	state := pipeline.NewStageState("load", "Source Loading")
	assert.Equal(t, pipeline.StageStatusPending, state.CurrentStatus())
	assert.Zero(t, state.Duration())

	state.Start()
	assert.Equal(t, pipeline.StageStatusActive, state.CurrentStatus())

	state.Complete()
	assert.Equal(t, pipeline.StageStatusCompleted, state.CurrentStatus())

	start, end := state.Window()
	require.NotNil(t, start)
	require.NotNil(t, end)
	assert.False(t, end.Before(*start))
	assert.GreaterOrEqual(t, state.Duration(), time.Duration(0))
}

func TestStageStateFail(t *testing.T) {
	state := pipeline.NewStageState("clean", "Data Cleaning")
	state.Start()

	cause := errors.New("type coercion failed")
	state.Fail(cause)

	assert.Equal(t, pipeline.StageStatusFailed, state.CurrentStatus())
	assert.Equal(t, cause, state.Error)
}

func TestStageStateSkip(t *testing.T) {
	state := pipeline.NewStageState("merge", "Table Merging")
	state.Skip("dependency align failed")

	assert.Equal(t, pipeline.StageStatusSkipped, state.CurrentStatus())
	assert.Equal(t, "dependency align failed", state.Message)
}

func TestRunStateTransitions(t *testing.T) {
	state := pipeline.NewRunState("run-1")
	assert.Equal(t, pipeline.RunStatusPending, state.Status)

	state.Start()
	assert.Equal(t, pipeline.RunStatusRunning, state.Status)

	state.Complete()
	assert.Equal(t, pipeline.RunStatusCompleted, state.Status)
	require.NotNil(t, state.EndTime)
}

func TestRunStateFailure(t *testing.T) {
	state := pipeline.NewRunState("run-2")
	state.Start()

	cause := errors.New("schema mismatch")
	state.Fail(cause)

	assert.Equal(t, pipeline.RunStatusFailed, state.Status)
	assert.Equal(t, cause, state.Error)
}

func TestRunStateTableHandoff(t *testing.T) {
	state := pipeline.NewRunState("run-3")

	raw := map[string]*domain.RawTable{
		"batting": {Source: "batting", Columns: []string{"Name"}},
	}
	state.SetRawTables(raw)
	assert.Equal(t, raw, state.RawTables())

	clean := map[string]*domain.CleanTable{"batting": {Source: "batting"}}
	stats := map[string]*cleaner.Stats{"batting": {Source: "batting", RowsIn: 10}}
	state.SetCleanTables(clean, stats)
	assert.Equal(t, clean, state.CleanTables())
	assert.Equal(t, stats, state.CleanStats())

	aligned := map[string]*domain.AlignedTable{"batting": {}}
	state.SetAlignedTables(aligned)
	assert.Equal(t, aligned, state.AlignedTables())

	merged := &domain.MergedTable{Driver: "batting"}
	state.SetMerged(merged)
	assert.Same(t, merged, state.Merged())

	state.SetArtifactPaths("/out/merged.csv", "/out/summary.json")
	output, reportPath := state.ArtifactPaths()
	assert.Equal(t, "/out/merged.csv", output)
	assert.Equal(t, "/out/summary.json", reportPath)
}

func TestRunStateStageTracking(t *testing.T) {
	state := pipeline.NewRunState("run-4")
	state.SetStage("load", pipeline.NewStageState("load", "Source Loading"))
	state.SetStage("clean", pipeline.NewStageState("clean", "Data Cleaning"))

	assert.False(t, state.IsComplete())
	assert.False(t, state.HasFailures())

	state.Stage("load").Start()
	state.Stage("load").Complete()
	state.Stage("clean").Start()
	state.Stage("clean").Fail(errors.New("bad value"))

	assert.True(t, state.IsComplete())
	assert.True(t, state.HasFailures())
}

func TestRunStateTimings(t *testing.T) {
	state := pipeline.NewRunState("run-5")
	state.SetStage("load", pipeline.NewStageState("load", "Source Loading"))
	state.SetStage("clean", pipeline.NewStageState("clean", "Data Cleaning"))
	state.SetStage("align", pipeline.NewStageState("align", "Granularity Alignment"))

	state.Stage("load").Start()
	state.Stage("load").Complete()
	time.Sleep(time.Millisecond)
	state.Stage("clean").Start()
	state.Stage("clean").Complete()
	// align never ran

	timings := state.Timings()
	require.Len(t, timings, 2)
	assert.Equal(t, "load", timings[0].Stage)
	assert.Equal(t, "clean", timings[1].Stage)
	assert.Equal(t, string(pipeline.StageStatusCompleted), timings[0].Status)
	assert.NotEmpty(t, timings[0].Duration)
}
