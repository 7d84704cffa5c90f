package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"mlbcli/internal/aligner"
	"mlbcli/internal/cleaner"
	"mlbcli/internal/config"
	"mlbcli/internal/exporter"
	"mlbcli/internal/infrastructure"
	"mlbcli/internal/loader"
	"mlbcli/internal/merger"
	"mlbcli/internal/report"
)

// LoadStage reads every configured source file into raw tables.
type LoadStage struct {
	BaseStage
	loader *loader.Loader
	cfg    *config.Config
}

// NewLoadStage creates the source loading stage
func NewLoadStage(cfg *config.Config, paths *config.Paths, logger *slog.Logger) *LoadStage {
	return &LoadStage{
		BaseStage: NewBaseStage(StageIDLoad, StageNameLoad, nil),
		loader:    loader.New(paths.BaseDir, infrastructure.WithComponent(logger, "loader")),
		cfg:       cfg,
	}
}

// Validate checks that at least one source is configured
func (s *LoadStage) Validate(state *RunState) error {
	if len(s.cfg.Sources) == 0 {
		return fmt.Errorf("no sources configured")
	}
	return nil
}

// Execute loads all sources and publishes the raw tables
func (s *LoadStage) Execute(ctx context.Context, state *RunState) error {
	tables, err := s.loader.LoadAll(ctx, s.cfg)
	if err != nil {
		return err
	}
	state.SetRawTables(tables)
	return nil
}

// CleanStage coerces raw cells to their declared types and resolves absent
// values per column policy.
type CleanStage struct {
	BaseStage
	cleaner *cleaner.Cleaner
	cfg     *config.Config
}

// NewCleanStage creates the cleaning stage
func NewCleanStage(cfg *config.Config, logger *slog.Logger) *CleanStage {
	return &CleanStage{
		BaseStage: NewBaseStage(StageIDClean, StageNameClean, []string{StageIDLoad}),
		cleaner:   cleaner.New(infrastructure.WithComponent(logger, "cleaner"), cfg.Pipeline.AbsentMarkers),
		cfg:       cfg,
	}
}

// Validate checks that the load stage published its tables
func (s *CleanStage) Validate(state *RunState) error {
	if state.RawTables() == nil {
		return fmt.Errorf("no raw tables available")
	}
	return nil
}

// Execute cleans all raw tables and publishes the results
func (s *CleanStage) Execute(ctx context.Context, state *RunState) error {
	tables, stats, err := s.cleaner.CleanAll(ctx, s.cfg, state.RawTables())
	if err != nil {
		return err
	}
	state.SetCleanTables(tables, stats)
	return nil
}

// AlignStage aggregates every cleaned table up to the target time unit.
type AlignStage struct {
	BaseStage
	aligner *aligner.Aligner
	cfg     *config.Config
}

// NewAlignStage creates the granularity alignment stage
func NewAlignStage(cfg *config.Config, logger *slog.Logger) *AlignStage {
	return &AlignStage{
		BaseStage: NewBaseStage(StageIDAlign, StageNameAlign, []string{StageIDClean}),
		aligner:   aligner.New(infrastructure.WithComponent(logger, "aligner")),
		cfg:       cfg,
	}
}

// Validate checks that the clean stage published its tables
func (s *AlignStage) Validate(state *RunState) error {
	if state.CleanTables() == nil {
		return fmt.Errorf("no clean tables available")
	}
	return nil
}

// Execute aligns all clean tables and publishes the results
func (s *AlignStage) Execute(ctx context.Context, state *RunState) error {
	tables, err := s.aligner.AlignAll(ctx, s.cfg, state.CleanTables())
	if err != nil {
		return err
	}
	state.SetAlignedTables(tables)
	return nil
}

// MergeStage joins the aligned tables into the single output table.
type MergeStage struct {
	BaseStage
	merger *merger.Merger
	cfg    *config.Config
}

// NewMergeStage creates the merging stage
func NewMergeStage(cfg *config.Config, logger *slog.Logger) *MergeStage {
	return &MergeStage{
		BaseStage: NewBaseStage(StageIDMerge, StageNameMerge, []string{StageIDAlign}),
		merger:    merger.New(infrastructure.WithComponent(logger, "merger")),
		cfg:       cfg,
	}
}

// Validate checks that the align stage published its tables
func (s *MergeStage) Validate(state *RunState) error {
	if state.AlignedTables() == nil {
		return fmt.Errorf("no aligned tables available")
	}
	return nil
}

// Execute merges the aligned tables and publishes the result
func (s *MergeStage) Execute(ctx context.Context, state *RunState) error {
	merged, err := s.merger.Merge(ctx, s.cfg, state.AlignedTables())
	if err != nil {
		return err
	}
	state.SetMerged(merged)
	return nil
}

// ExportStage writes the merged table, the run report and records where
// they landed.
type ExportStage struct {
	BaseStage
	generator    *report.Generator
	mergedWriter *exporter.MergedExporter
	reportWriter *exporter.ReportExporter
	cfg          *config.Config
}

// NewExportStage creates the export stage
func NewExportStage(cfg *config.Config, paths *config.Paths, logger *slog.Logger) *ExportStage {
	exportLogger := infrastructure.WithComponent(logger, "exporter")
	return &ExportStage{
		BaseStage:    NewBaseStage(StageIDExport, StageNameExport, []string{StageIDMerge}),
		generator:    report.NewGenerator(infrastructure.WithComponent(logger, "report")),
		mergedWriter: exporter.NewMergedExporter(paths, exportLogger),
		reportWriter: exporter.NewReportExporter(paths, exportLogger),
		cfg:          cfg,
	}
}

// Validate checks that the merge stage published its table
func (s *ExportStage) Validate(state *RunState) error {
	if state.Merged() == nil {
		return fmt.Errorf("no merged table available")
	}
	return nil
}

// Execute writes the merged CSV and the run report
func (s *ExportStage) Execute(ctx context.Context, state *RunState) error {
	merged := state.Merged()

	outputPath, err := s.mergedWriter.Export(ctx, merged, exporter.MergedOptions{
		Path:        s.cfg.Pipeline.OutputFile,
		AbsentToken: s.cfg.Pipeline.AbsentToken,
		BOM:         s.cfg.Pipeline.ExportBOM,
	})
	if err != nil {
		return err
	}

	rep := s.generator.Generate(ctx, merged, state.CleanStats(), state.Timings())
	rep.RunID = state.ID
	reportPath, err := s.reportWriter.Write(ctx, s.cfg.Pipeline.ReportFile, rep)
	if err != nil {
		return err
	}

	state.SetReport(rep)
	state.SetArtifactPaths(outputPath, reportPath)
	return nil
}

// RegisterDefaultStages registers the full pipeline in execution order
func RegisterDefaultStages(registry *Registry, cfg *config.Config, paths *config.Paths, logger *slog.Logger) error {
	stages := []Stage{
		NewLoadStage(cfg, paths, logger),
		NewCleanStage(cfg, logger),
		NewAlignStage(cfg, logger),
		NewMergeStage(cfg, logger),
		NewExportStage(cfg, paths, logger),
	}

	for _, stage := range stages {
		if err := registry.Register(stage); err != nil {
			return err
		}
	}
	return nil
}
