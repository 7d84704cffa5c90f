package pipeline

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"
)

// RunManifest records what one pipeline run produced: the stages that ran,
// how long they took, and the artifacts they wrote. Saved as JSON next to
// the run report so a later inspection can tell which file came from which
// run.
type RunManifest struct {
	mu sync.RWMutex `json:"-"`

	// Identity
	ID        string    `json:"id"`
	RunID     string    `json:"run_id"`
	StartTime time.Time `json:"start_time"`

	// Configuration snapshot
	TargetUnit string   `json:"target_unit,omitempty"`
	Driver     string   `json:"driver,omitempty"`
	Sources    []string `json:"sources,omitempty"`

	// Artifacts written by the run
	Artifacts map[string]*ArtifactInfo `json:"artifacts"`

	// Execution tracking
	Stages []StageExecution `json:"stages"`

	// Current status
	Status      string    `json:"status"` // "pending", "running", "completed", "failed", "cancelled"
	LastUpdated time.Time `json:"last_updated"`
	Error       string    `json:"error,omitempty"`

	totalStages int
}

// ArtifactInfo describes one file the run wrote
type ArtifactInfo struct {
	Type      string    `json:"type"` // "merged_csv", "report_json"
	Path      string    `json:"path"`
	Rows      int       `json:"rows,omitempty"`
	Columns   int       `json:"columns,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	CreatedBy string    `json:"created_by"` // Which stage created this
}

// StageExecution tracks the execution of a single stage
type StageExecution struct {
	StageID   string    `json:"stage_id"`
	StageName string    `json:"stage_name"`
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
	Duration  string    `json:"duration"`
	Status    string    `json:"status"` // "running", "completed", "failed", "skipped"
	Error     string    `json:"error,omitempty"`
}

// NewRunManifest creates a new run manifest
func NewRunManifest(runID string, totalStages int) *RunManifest {
	return &RunManifest{
		ID:          fmt.Sprintf("manifest-%d", time.Now().Unix()),
		RunID:       runID,
		StartTime:   time.Now(),
		Artifacts:   make(map[string]*ArtifactInfo),
		Stages:      []StageExecution{},
		Status:      "pending",
		LastUpdated: time.Now(),
		totalStages: totalStages,
	}
}

// SetConfigSnapshot records the run's effective target unit, driver and
// source names.
func (m *RunManifest) SetConfigSnapshot(targetUnit, driver string, sources []string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.TargetUnit = targetUnit
	m.Driver = driver
	m.Sources = append([]string(nil), sources...)
	m.LastUpdated = time.Now()
}

// MarkRunning flags the manifest as belonging to an in-flight run
func (m *RunManifest) MarkRunning() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Status = "running"
	m.LastUpdated = time.Now()
}

// MarkCompleted flags the run as finished successfully
func (m *RunManifest) MarkCompleted() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Status = "completed"
	m.LastUpdated = time.Now()
}

// MarkCancelled flags the run as aborted before the named stage ran
func (m *RunManifest) MarkCancelled(stageID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Status = "cancelled"
	m.Error = fmt.Sprintf("run cancelled before stage %s", stageID)
	m.LastUpdated = time.Now()
}

// AddArtifact records a file written by the run
func (m *RunManifest) AddArtifact(artifactType string, info *ArtifactInfo) {
	m.mu.Lock()
	defer m.mu.Unlock()

	info.CreatedAt = time.Now()
	m.Artifacts[artifactType] = info
	m.LastUpdated = time.Now()
}

// GetArtifact returns information about a written artifact
func (m *RunManifest) GetArtifact(artifactType string) (*ArtifactInfo, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	info, exists := m.Artifacts[artifactType]
	return info, exists
}

// RecordStageStart records the start of a stage execution
func (m *RunManifest) RecordStageStart(stageID, stageName string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, stage := range m.Stages {
		if stage.StageID == stageID {
			m.Stages[i].StartTime = time.Now()
			m.Stages[i].Status = "running"
			m.LastUpdated = time.Now()
			return
		}
	}

	m.Stages = append(m.Stages, StageExecution{
		StageID:   stageID,
		StageName: stageName,
		StartTime: time.Now(),
		Status:    "running",
	})
	m.LastUpdated = time.Now()
}

// RecordStageCompletion records the completion of a stage
func (m *RunManifest) RecordStageCompletion(stageID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, stage := range m.Stages {
		if stage.StageID == stageID {
			m.Stages[i].EndTime = time.Now()
			m.Stages[i].Duration = time.Since(stage.StartTime).String()
			m.Stages[i].Status = "completed"
			break
		}
	}
	m.LastUpdated = time.Now()
}

// RecordStageFailure records a stage failure and marks the run failed
func (m *RunManifest) RecordStageFailure(stageID string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, stage := range m.Stages {
		if stage.StageID == stageID {
			m.Stages[i].EndTime = time.Now()
			m.Stages[i].Duration = time.Since(stage.StartTime).String()
			m.Stages[i].Status = "failed"
			m.Stages[i].Error = err.Error()
			break
		}
	}
	m.Status = "failed"
	m.Error = fmt.Sprintf("stage %s failed: %v", stageID, err)
	m.LastUpdated = time.Now()
}

// RecordStageSkip records a stage that was skipped
func (m *RunManifest) RecordStageSkip(stageID, stageName, reason string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	m.Stages = append(m.Stages, StageExecution{
		StageID:   stageID,
		StageName: stageName,
		StartTime: now,
		EndTime:   now,
		Duration:  "0s",
		Status:    "skipped",
		Error:     reason,
	})
	m.LastUpdated = time.Now()
}

// IsStageCompleted checks if a stage has been completed
func (m *RunManifest) IsStageCompleted(stageID string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, stage := range m.Stages {
		if stage.StageID == stageID && stage.Status == "completed" {
			return true
		}
	}
	return false
}

// Progress returns the percentage of stages that completed
func (m *RunManifest) Progress() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.totalStages == 0 {
		return 0
	}

	completed := 0
	for _, stage := range m.Stages {
		if stage.Status == "completed" {
			completed++
		}
	}

	return (completed * 100) / m.totalStages
}

// SaveToFile saves the manifest to a JSON file
func (m *RunManifest) SaveToFile(path string) error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal manifest: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write manifest file: %w", err)
	}

	return nil
}

// LoadManifestFromFile loads a manifest from a JSON file
func LoadManifestFromFile(path string) (*RunManifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest file: %w", err)
	}

	var manifest RunManifest
	if err := json.Unmarshal(data, &manifest); err != nil {
		return nil, fmt.Errorf("failed to unmarshal manifest: %w", err)
	}
	manifest.totalStages = len(manifest.Stages)

	return &manifest, nil
}
