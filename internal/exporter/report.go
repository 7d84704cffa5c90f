package exporter

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"

	"mlbcli/internal/config"
	apperrors "mlbcli/internal/errors"
	"mlbcli/internal/report"
)

// ReportExporter writes the run's data-quality summary to JSON.
type ReportExporter struct {
	paths  *config.Paths
	logger *slog.Logger
}

// NewReportExporter creates a report exporter.
func NewReportExporter(paths *config.Paths, logger *slog.Logger) *ReportExporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &ReportExporter{paths: paths, logger: logger}
}

// Write serializes the report to the given path, creating parent directories
// as needed. A relative path resolves under the reports directory. Returns
// the resolved path.
func (e *ReportExporter) Write(ctx context.Context, path string, rep *report.Report) (string, error) {
	if path == "" {
		path = e.paths.SummaryJSON
	}
	fullPath := e.resolvePath(path)

	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return "", apperrors.NewStorageError("failed to create directory for run report", err)
	}

	file, err := os.Create(fullPath)
	if err != nil {
		return "", apperrors.NewStorageError("failed to create run report file", err)
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(rep); err != nil {
		return "", apperrors.NewStorageError("failed to encode run report", err)
	}

	e.logger.InfoContext(ctx, "run report written",
		slog.String("path", fullPath),
		slog.Int("columns", len(rep.Columns)),
		slog.Int("sources", len(rep.Sources)))

	return fullPath, nil
}

func (e *ReportExporter) resolvePath(path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return e.paths.GetReportPath(filepath.Base(path))
}
