package exporter

import (
	"context"
	"log/slog"

	"mlbcli/internal/config"
	apperrors "mlbcli/internal/errors"
	"mlbcli/pkg/contracts/domain"
)

// streamThreshold is the row count beyond which the merged table is written
// through the streaming writer instead of being materialized as one record
// slice.
const streamThreshold = 5000

// MergedExporter writes the pipeline's merged output table to CSV.
type MergedExporter struct {
	csv    *CSVWriter
	logger *slog.Logger
}

// MergedOptions configures one merged-table export.
type MergedOptions struct {
	Path        string // output path, resolved under the processed directory
	AbsentToken string // rendering for explicit absent cells
	BOM         bool   // prefix UTF-8 BOM for Excel
}

// NewMergedExporter creates a merged-table exporter.
func NewMergedExporter(paths *config.Paths, logger *slog.Logger) *MergedExporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &MergedExporter{csv: NewCSVWriter(paths), logger: logger}
}

// Export writes the merged table with its schema as the header row. Returns
// the resolved path the file landed at.
func (e *MergedExporter) Export(ctx context.Context, table *domain.MergedTable, opts MergedOptions) (string, error) {
	path := opts.Path
	if path == "" {
		path = e.csv.paths.MergedCSV
	}
	fullPath := e.csv.resolvePath(path)
	headers := table.Schema.Names()

	var err error
	if table.RowCount() > streamThreshold {
		err = e.exportStreaming(path, headers, table, opts)
	} else {
		records := make([][]string, len(table.Rows))
		for i, row := range table.Rows {
			records[i] = formatRow(row, opts.AbsentToken)
		}
		err = e.csv.WriteCSV(path, WriteOptions{
			Headers:   headers,
			Records:   records,
			BOMPrefix: opts.BOM,
		})
	}
	if err != nil {
		return "", apperrors.NewStorageError("failed to write merged table", err)
	}

	e.logger.InfoContext(ctx, "merged table exported",
		slog.String("path", fullPath),
		slog.Int("rows", table.RowCount()),
		slog.Int("columns", len(headers)))

	return fullPath, nil
}

// exportStreaming writes row by row so a large merge never doubles in memory
func (e *MergedExporter) exportStreaming(path string, headers []string, table *domain.MergedTable, opts MergedOptions) error {
	stream, err := e.csv.CreateStreamWriter(path, headers, opts.BOM)
	if err != nil {
		return err
	}
	for _, row := range table.Rows {
		if err := stream.WriteRecord(formatRow(row, opts.AbsentToken)); err != nil {
			stream.Close()
			return err
		}
	}
	return stream.Close()
}
