// Package pipeline orchestrates the load, clean, align, merge and export
// stages of a processing run.
//
// The package supports:
//
//   - Stage-based execution with dependency management
//   - Terminal error handling: a failed stage stops the run and its
//     dependents are skipped, never retried
//   - Typed table hand-off between stages through the shared RunState
//   - Per-stage timeouts, tracing spans and metrics
//   - A JSON run manifest recording stages and written artifacts
//
// Core Components:
//
// Manager: The main orchestrator that manages run execution, stage
// registration, and state management. It executes stages sequentially in
// dependency order.
//
// Stage: An interface that defines a single unit of work in the run. Stages
// can have dependencies on other stages and are executed in the correct
// order.
//
// Registry: Manages the registration and retrieval of stages. It validates
// dependencies and provides topological sorting for execution order.
//
// RunState: Tracks the runtime state of both the run and individual stages,
// and carries the typed tables each stage produces for the next one.
//
// RunManifest: Records what a run produced so a later inspection can tell
// which artifact came from which run.
//
// Example usage:
//
//	registry := pipeline.NewRegistry()
//	if err := pipeline.RegisterDefaultStages(registry, cfg, paths, logger); err != nil {
//		return err
//	}
//
//	manager := pipeline.NewManager(registry, cfg, paths, logger)
//	manager.SetMetrics(metrics)
//
//	resp, err := manager.Execute(ctx, pipeline.RunRequest{})
package pipeline
