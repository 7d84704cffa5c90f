package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"mlbcli/internal/config"
	"mlbcli/internal/infrastructure"
)

// TracerName identifies pipeline spans
const TracerName = "mlbcli.pipeline"

// Manager orchestrates pipeline runs. Stages execute sequentially in
// dependency order; the first failure stops the run and skips every
// dependent stage. Failed stages are never retried.
type Manager struct {
	registry *Registry
	cfg      *config.Config
	paths    *config.Paths
	logger   *slog.Logger
	tracer   trace.Tracer
	metrics  *infrastructure.PipelineMetrics

	// Active runs
	mu   sync.RWMutex
	runs map[string]*RunState
}

// NewManager creates a new pipeline manager
func NewManager(registry *Registry, cfg *config.Config, paths *config.Paths, logger *slog.Logger) *Manager {
	if registry == nil {
		registry = NewRegistry()
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Manager{
		registry: registry,
		cfg:      cfg,
		paths:    paths,
		logger:   logger,
		tracer:   otel.Tracer(TracerName),
		runs:     make(map[string]*RunState),
	}
}

// SetMetrics attaches pipeline metrics instruments
func (m *Manager) SetMetrics(metrics *infrastructure.PipelineMetrics) {
	m.metrics = metrics
}

// GetRegistry returns the registry for accessing registered stages
func (m *Manager) GetRegistry() *Registry {
	return m.registry
}

// Execute runs the pipeline for the given request
func (m *Manager) Execute(ctx context.Context, req RunRequest) (*RunResponse, error) {
	if req.ID == "" {
		req.ID = fmt.Sprintf("run-%s", uuid.NewString())
	}

	// Stage log lines pick up the run ID through the trace handler
	ctx = infrastructure.WithTraceID(ctx, req.ID)

	state := NewRunState(req.ID)
	m.storeRun(state)
	defer m.removeRun(req.ID)

	// Determine which stages to run
	var stages []Stage
	if req.Stage != "" {
		requested, err := m.registry.Get(req.Stage)
		if err != nil {
			m.logger.ErrorContext(ctx, "requested stage not found",
				slog.String("run_id", req.ID),
				slog.String("stage", req.Stage))
			state.Fail(err)
			return m.createResponse(state), err
		}
		stages = []Stage{requested}

		m.logger.InfoContext(ctx, "executing single stage",
			slog.String("run_id", req.ID),
			slog.String("stage", req.Stage))
	} else {
		var err error
		stages, err = m.registry.DependencyOrder()
		if err != nil {
			m.logger.ErrorContext(ctx, "failed to order stages",
				slog.String("run_id", req.ID),
				slog.String("error", err.Error()))
			state.Fail(err)
			return m.createResponse(state), err
		}

		m.logger.InfoContext(ctx, "executing full pipeline",
			slog.String("run_id", req.ID),
			slog.Int("stage_count", len(stages)))
	}

	// Initialize stage states
	for _, stage := range stages {
		state.SetStage(stage.ID(), NewStageState(stage.ID(), stage.Name()))
	}

	manifest := m.newManifest(req.ID, len(stages))

	ctx, span := m.tracer.Start(ctx, "pipeline.run",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("run.id", req.ID),
			attribute.Int("run.stage_count", len(stages)),
		),
	)
	defer span.End()

	state.Start()
	manifest.MarkRunning()
	runStart := time.Now()

	err := m.executeSequential(ctx, state, manifest, stages)

	duration := time.Since(runStart)
	if err != nil {
		if KindOf(err) == ErrorKindCancellation {
			state.Cancel()
		} else {
			state.Fail(err)
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		state.Complete()
		manifest.MarkCompleted()
		span.SetStatus(codes.Ok, "run completed")
	}
	infrastructure.RecordRunMetrics(ctx, m.metrics, req.ID, duration, err == nil, err)

	m.recordArtifacts(state, manifest)
	m.saveManifest(ctx, manifest)

	return m.createResponse(state), err
}

// executeSequential executes stages one by one
func (m *Manager) executeSequential(ctx context.Context, state *RunState, manifest *RunManifest, stages []Stage) error {
	for i, stage := range stages {
		select {
		case <-ctx.Done():
			m.logger.WarnContext(ctx, "run cancelled",
				slog.String("run_id", state.ID),
				slog.String("stage", stage.ID()))
			manifest.MarkCancelled(stage.ID())
			return NewCancellationError(stage.ID())
		default:
		}

		stageState := state.Stage(stage.ID())
		if stageState != nil && stageState.CurrentStatus() == StageStatusSkipped {
			m.logger.InfoContext(ctx, "stage skipped",
				slog.String("run_id", state.ID),
				slog.String("stage", stage.ID()))
			continue
		}

		m.logger.InfoContext(ctx, "executing stage",
			slog.String("run_id", state.ID),
			slog.String("stage", stage.ID()),
			slog.Int("stage_number", i+1),
			slog.Int("total_stages", len(stages)))

		if err := m.executeStage(ctx, state, manifest, stage); err != nil {
			m.logger.ErrorContext(ctx, "stage failed",
				slog.String("run_id", state.ID),
				slog.String("stage", stage.ID()),
				slog.String("error", err.Error()))
			m.skipDependents(state, manifest, stages, stage.ID())
			return err
		}

		m.logger.InfoContext(ctx, "stage completed",
			slog.String("run_id", state.ID),
			slog.String("stage", stage.ID()),
			slog.Duration("duration", stageState.Duration()))
	}

	m.logger.InfoContext(ctx, "all stages completed",
		slog.String("run_id", state.ID))
	return nil
}

// executeStage executes a single stage
func (m *Manager) executeStage(ctx context.Context, state *RunState, manifest *RunManifest, stage Stage) error {
	stageState := state.Stage(stage.ID())
	if stageState == nil {
		return &RunError{
			Kind:    ErrorKindExecution,
			Stage:   stage.ID(),
			Message: "stage state not found",
		}
	}

	if err := m.checkDependencies(state, stage); err != nil {
		stageState.Skip(fmt.Sprintf("dependencies not met: %v", err))
		manifest.RecordStageSkip(stage.ID(), stage.Name(), stageState.Message)
		return NewDependencyError(stage.ID(), err.Error())
	}

	if err := stage.Validate(state); err != nil {
		stageState.Skip(fmt.Sprintf("validation failed: %v", err))
		manifest.RecordStageSkip(stage.ID(), stage.Name(), stageState.Message)
		return NewValidationError(stage.ID(), err.Error())
	}

	stageCtx := ctx
	var cancel context.CancelFunc
	if timeout := m.cfg.Pipeline.StageTimeout; timeout > 0 {
		stageCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	stageCtx, span := m.tracer.Start(stageCtx, fmt.Sprintf("pipeline.stage.%s", stage.ID()),
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("run.id", state.ID),
			attribute.String("stage.id", stage.ID()),
		),
	)
	defer span.End()

	stageState.Start()
	manifest.RecordStageStart(stage.ID(), stage.Name())

	startTime := time.Now()
	err := stage.Execute(stageCtx, state)
	duration := time.Since(startTime)

	infrastructure.RecordStageMetrics(ctx, m.metrics, state.ID, stage.ID(), duration, err == nil)

	if err != nil {
		if stageCtx.Err() == context.DeadlineExceeded {
			err = NewTimeoutError(stage.ID(), m.cfg.Pipeline.StageTimeout.String())
		}
		stageState.Fail(err)
		manifest.RecordStageFailure(stage.ID(), err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return WrapError(err, stage.ID(), "stage execution failed")
	}

	stageState.Complete()
	manifest.RecordStageCompletion(stage.ID())
	span.SetStatus(codes.Ok, "stage completed")
	m.recordDataMetrics(ctx, stage.ID(), state)

	return nil
}

// skipDependents marks all stages that depend on the failed stage as skipped
func (m *Manager) skipDependents(state *RunState, manifest *RunManifest, stages []Stage, failedStageID string) {
	for _, stage := range stages {
		for _, dep := range stage.Dependencies() {
			if dep == failedStageID {
				stageState := state.Stage(stage.ID())
				if stageState != nil && stageState.CurrentStatus() == StageStatusPending {
					reason := fmt.Sprintf("dependency %s failed", failedStageID)
					stageState.Skip(reason)
					manifest.RecordStageSkip(stage.ID(), stage.Name(), reason)
					m.skipDependents(state, manifest, stages, stage.ID())
				}
				break
			}
		}
	}
}

// checkDependencies verifies that all dependencies completed
func (m *Manager) checkDependencies(state *RunState, stage Stage) error {
	for _, dep := range stage.Dependencies() {
		depState := state.Stage(dep)
		if depState == nil {
			return fmt.Errorf("dependency %s not found", dep)
		}
		if status := depState.CurrentStatus(); status != StageStatusCompleted {
			return fmt.Errorf("dependency %s not completed (status: %s)", dep, status)
		}
	}
	return nil
}

// recordDataMetrics publishes table size metrics after a stage succeeds
func (m *Manager) recordDataMetrics(ctx context.Context, stageID string, state *RunState) {
	if m.metrics == nil {
		return
	}

	switch stageID {
	case StageIDLoad:
		for name, table := range state.RawTables() {
			infrastructure.RecordTableMetrics(ctx, m.metrics, name, int64(table.RowCount()), 0, 0)
		}
	case StageIDClean:
		for name, stats := range state.CleanStats() {
			imputed := int64(0)
			for _, n := range stats.ImputedCells {
				imputed += int64(n)
			}
			infrastructure.RecordTableMetrics(ctx, m.metrics, name, 0, int64(stats.RowsDropped), imputed)
		}
	case StageIDMerge:
		if merged := state.Merged(); merged != nil {
			infrastructure.RecordMergeMetrics(ctx, m.metrics, merged.Driver,
				int64(merged.RowCount()), int64(merged.AbsentCells()))
		}
	}
}

// newManifest builds the manifest for a run with the config snapshot
func (m *Manager) newManifest(runID string, totalStages int) *RunManifest {
	manifest := NewRunManifest(runID, totalStages)

	driver := m.cfg.Pipeline.Driver
	if driver == "" {
		if finest := m.cfg.FinestSource(); finest != nil {
			driver = finest.Name
		}
	}
	sources := make([]string, 0, len(m.cfg.Sources))
	for _, src := range m.cfg.Sources {
		sources = append(sources, src.Name)
	}
	manifest.SetConfigSnapshot(m.cfg.Pipeline.TargetUnit, driver, sources)

	return manifest
}

// recordArtifacts copies the written artifact paths into the manifest
func (m *Manager) recordArtifacts(state *RunState, manifest *RunManifest) {
	outputPath, reportPath := state.ArtifactPaths()
	if outputPath != "" {
		info := &ArtifactInfo{
			Type:      "merged_csv",
			Path:      outputPath,
			CreatedBy: StageIDExport,
		}
		if merged := state.Merged(); merged != nil {
			info.Rows = merged.RowCount()
			info.Columns = len(merged.Schema)
		}
		manifest.AddArtifact("merged_csv", info)
	}
	if reportPath != "" {
		manifest.AddArtifact("report_json", &ArtifactInfo{
			Type:      "report_json",
			Path:      reportPath,
			CreatedBy: StageIDExport,
		})
	}
}

// saveManifest writes the manifest when the config names a file for it
func (m *Manager) saveManifest(ctx context.Context, manifest *RunManifest) {
	name := m.cfg.Pipeline.ManifestFile
	if name == "" {
		return
	}

	path := name
	if !filepath.IsAbs(path) && m.paths != nil {
		path = m.paths.GetReportPath(filepath.Base(name))
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		m.logger.WarnContext(ctx, "failed to create manifest directory",
			slog.String("path", path),
			slog.String("error", err.Error()))
		return
	}

	if err := manifest.SaveToFile(path); err != nil {
		m.logger.WarnContext(ctx, "failed to save run manifest",
			slog.String("path", path),
			slog.String("error", err.Error()))
		return
	}

	m.logger.InfoContext(ctx, "run manifest saved", slog.String("path", path))
}

// createResponse creates a run response from state
func (m *Manager) createResponse(state *RunState) *RunResponse {
	outputPath, reportPath := state.ArtifactPaths()
	resp := &RunResponse{
		ID:         state.ID,
		Status:     state.Status,
		Duration:   state.Duration(),
		Stages:     state.Stages,
		OutputPath: outputPath,
		ReportPath: reportPath,
	}

	if state.Error != nil {
		resp.Error = state.Error.Error()
	}

	return resp
}

// GetRun retrieves the state of an active run
func (m *Manager) GetRun(id string) (*RunState, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	state, exists := m.runs[id]
	if !exists {
		return nil, ErrRunNotFound
	}

	return state, nil
}

// storeRun stores a run state
func (m *Manager) storeRun(state *RunState) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runs[state.ID] = state
}

// removeRun removes a run state
func (m *Manager) removeRun(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.runs, id)
}
