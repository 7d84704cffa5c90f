// Package exporter writes the pipeline's output artifacts to disk.
//
// This package contains three main components:
//
// CSVWriter: Core CSV writing functionality with support for headers, streaming,
// and UTF-8 BOM for Excel compatibility.
//
// MergedExporter: Renders the merged analysis table as CSV, formatting cells
// in their canonical text form and writing explicit absent cells as the
// configured token. Large tables go through the streaming writer.
//
// ReportExporter: Serializes the per-run data-quality report to indented JSON
// under the reports directory.
//
// Example usage:
//
//	mergedExporter := exporter.NewMergedExporter(paths, logger)
//	path, err := mergedExporter.Export(ctx, merged, exporter.MergedOptions{
//		AbsentToken: cfg.Pipeline.AbsentToken,
//		BOM:         cfg.Pipeline.ExportBOM,
//	})
//
//	reportExporter := exporter.NewReportExporter(paths, logger)
//	path, err = reportExporter.Write(ctx, cfg.Pipeline.ReportFile, rep)
package exporter
