package pipeline

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Stage is a single step of the processing pipeline. Stages receive the
// shared RunState, read the tables earlier stages produced and publish their
// own output back into it.
type Stage interface {
	// ID returns the unique identifier for this stage
	ID() string

	// Name returns the human-readable name for this stage
	Name() string

	// Dependencies returns the IDs of stages that must complete first
	Dependencies() []string

	// Validate checks if the stage can be executed with the current state
	Validate(state *RunState) error

	// Execute runs the stage with the given context and run state
	Execute(ctx context.Context, state *RunState) error
}

// StageStatus represents the current status of a stage
type StageStatus string

const (
	StageStatusPending   StageStatus = "pending"
	StageStatusActive    StageStatus = "active"
	StageStatusCompleted StageStatus = "completed"
	StageStatusFailed    StageStatus = "failed"
	StageStatusSkipped   StageStatus = "skipped"
)

// StageState represents the runtime state of a stage
type StageState struct {
	mu        sync.RWMutex `json:"-"`
	ID        string       `json:"id"`
	Name      string       `json:"name"`
	Status    StageStatus  `json:"status"`
	StartTime *time.Time   `json:"start_time,omitempty"`
	EndTime   *time.Time   `json:"end_time,omitempty"`
	Message   string       `json:"message,omitempty"`
	Error     error        `json:"error,omitempty"`
}

// NewStageState creates a new stage state with default values
func NewStageState(id, name string) *StageState {
	return &StageState{
		ID:     id,
		Name:   name,
		Status: StageStatusPending,
	}
}

// Start marks the stage as active and sets the start time
func (s *StageState) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	s.StartTime = &now
	s.Status = StageStatusActive
}

// Complete marks the stage as completed and sets the end time
func (s *StageState) Complete() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	s.EndTime = &now
	s.Status = StageStatusCompleted
}

// Fail marks the stage as failed with the given error
func (s *StageState) Fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	s.EndTime = &now
	s.Status = StageStatusFailed
	s.Error = err
}

// Skip marks the stage as skipped with the given reason
func (s *StageState) Skip(reason string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	s.EndTime = &now
	s.Status = StageStatusSkipped
	s.Message = reason
}

// CurrentStatus returns the status under the read lock
func (s *StageState) CurrentStatus() StageStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.Status
}

// Duration returns the duration of the stage execution
func (s *StageState) Duration() time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.StartTime == nil {
		return 0
	}
	if s.EndTime != nil {
		return s.EndTime.Sub(*s.StartTime)
	}
	return time.Since(*s.StartTime)
}

// Window returns the recorded start and end times, which may be nil for a
// stage that never ran.
func (s *StageState) Window() (start, end *time.Time) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.StartTime, s.EndTime
}

// BaseStage provides common functionality for Stage implementations
type BaseStage struct {
	id           string
	name         string
	dependencies []string
}

// NewBaseStage creates a new base stage
func NewBaseStage(id, name string, dependencies []string) BaseStage {
	if dependencies == nil {
		dependencies = []string{}
	}
	return BaseStage{
		id:           id,
		name:         name,
		dependencies: dependencies,
	}
}

// ID returns the stage ID
func (b *BaseStage) ID() string {
	if b == nil {
		return ""
	}
	return b.id
}

// Name returns the stage name
func (b *BaseStage) Name() string {
	if b == nil {
		return ""
	}
	return b.name
}

// Dependencies returns the stage dependencies
func (b *BaseStage) Dependencies() []string {
	if b == nil {
		return nil
	}
	return b.dependencies
}

// Validate provides a default validation that always passes
func (b *BaseStage) Validate(state *RunState) error {
	if b == nil {
		return fmt.Errorf("BaseStage is nil")
	}
	return nil
}
