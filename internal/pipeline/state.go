package pipeline

import (
	"sort"
	"sync"
	"time"

	"mlbcli/internal/cleaner"
	"mlbcli/internal/report"
	"mlbcli/pkg/contracts/domain"
)

// RunStatus represents the overall run status
type RunStatus string

const (
	RunStatusPending   RunStatus = "pending"
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
	RunStatusCancelled RunStatus = "cancelled"
)

// RunState is the complete state of one pipeline run. It carries the stage
// states and the typed tables handed from stage to stage. Tables are set
// once by their producing stage and read by later stages; the state never
// mutates a table in place.
type RunState struct {
	mu sync.RWMutex

	ID        string     `json:"id"`
	Status    RunStatus  `json:"status"`
	StartTime time.Time  `json:"start_time"`
	EndTime   *time.Time `json:"end_time,omitempty"`

	// Stage states keyed by stage ID
	Stages map[string]*StageState `json:"stages"`

	// Error if the run failed
	Error error `json:"error,omitempty"`

	// Table hand-off between stages
	raw     map[string]*domain.RawTable
	clean   map[string]*domain.CleanTable
	stats   map[string]*cleaner.Stats
	aligned map[string]*domain.AlignedTable
	merged  *domain.MergedTable
	rep     *report.Report

	// Paths of the written artifacts
	outputPath string
	reportPath string
}

// NewRunState creates a new run state
func NewRunState(id string) *RunState {
	return &RunState{
		ID:        id,
		Status:    RunStatusPending,
		StartTime: time.Now(),
		Stages:    make(map[string]*StageState),
	}
}

// Start marks the run as running
func (r *RunState) Start() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Status = RunStatusRunning
	r.StartTime = time.Now()
}

// Complete marks the run as completed
func (r *RunState) Complete() {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now()
	r.EndTime = &now
	r.Status = RunStatusCompleted
}

// Fail marks the run as failed
func (r *RunState) Fail(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now()
	r.EndTime = &now
	r.Status = RunStatusFailed
	r.Error = err
}

// Cancel marks the run as cancelled
func (r *RunState) Cancel() {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now()
	r.EndTime = &now
	r.Status = RunStatusCancelled
}

// Stage returns the state of a specific stage
func (r *RunState) Stage(stageID string) *StageState {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.Stages[stageID]
}

// SetStage updates the state of a specific stage
func (r *RunState) SetStage(stageID string, state *StageState) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Stages[stageID] = state
}

// Duration returns the duration of the run
func (r *RunState) Duration() time.Duration {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.EndTime != nil {
		return r.EndTime.Sub(r.StartTime)
	}
	return time.Since(r.StartTime)
}

// SetRawTables publishes the loaded source tables
func (r *RunState) SetRawTables(tables map[string]*domain.RawTable) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.raw = tables
}

// RawTables returns the loaded source tables
func (r *RunState) RawTables() map[string]*domain.RawTable {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.raw
}

// SetCleanTables publishes the cleaned tables and their statistics
func (r *RunState) SetCleanTables(tables map[string]*domain.CleanTable, stats map[string]*cleaner.Stats) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.clean = tables
	r.stats = stats
}

// CleanTables returns the cleaned tables
func (r *RunState) CleanTables() map[string]*domain.CleanTable {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.clean
}

// CleanStats returns the per-source cleaning statistics
func (r *RunState) CleanStats() map[string]*cleaner.Stats {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.stats
}

// SetAlignedTables publishes the granularity-aligned tables
func (r *RunState) SetAlignedTables(tables map[string]*domain.AlignedTable) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.aligned = tables
}

// AlignedTables returns the granularity-aligned tables
func (r *RunState) AlignedTables() map[string]*domain.AlignedTable {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.aligned
}

// SetMerged publishes the merged output table
func (r *RunState) SetMerged(table *domain.MergedTable) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.merged = table
}

// Merged returns the merged output table
func (r *RunState) Merged() *domain.MergedTable {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.merged
}

// SetReport publishes the generated run report
func (r *RunState) SetReport(rep *report.Report) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rep = rep
}

// Report returns the generated run report
func (r *RunState) Report() *report.Report {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.rep
}

// SetArtifactPaths records where the export stage wrote its files
func (r *RunState) SetArtifactPaths(output, reportPath string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.outputPath = output
	r.reportPath = reportPath
}

// ArtifactPaths returns the written output and report paths
func (r *RunState) ArtifactPaths() (output, reportPath string) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.outputPath, r.reportPath
}

// HasFailures returns true if any stage has failed
func (r *RunState) HasFailures() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, stage := range r.Stages {
		if stage.CurrentStatus() == StageStatusFailed {
			return true
		}
	}
	return false
}

// IsComplete returns true if no stage is pending or active
func (r *RunState) IsComplete() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, stage := range r.Stages {
		switch stage.CurrentStatus() {
		case StageStatusPending, StageStatusActive:
			return false
		}
	}
	return true
}

// Timings returns the stage timings of the run for the report, ordered by
// stage start time. Stages that never started are excluded.
func (r *RunState) Timings() []report.StageTiming {
	r.mu.RLock()
	defer r.mu.RUnlock()

	timings := make([]report.StageTiming, 0, len(r.Stages))
	for _, stage := range r.Stages {
		start, end := stage.Window()
		if start == nil {
			continue
		}
		t := report.StageTiming{
			Stage:    stage.ID,
			Status:   string(stage.CurrentStatus()),
			Started:  *start,
			Duration: stage.Duration().String(),
		}
		if end != nil {
			t.Finished = *end
		}
		timings = append(timings, t)
	}
	sort.Slice(timings, func(i, j int) bool {
		return timings[i].Started.Before(timings[j].Started)
	})
	return timings
}
