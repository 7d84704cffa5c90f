package exporter

import (
	"mlbcli/pkg/contracts/domain"
)

// formatCell renders a cell in its canonical text form for CSV output.
// Absent cells render as the configured absent token so a notebook reading
// the file can tell a broadcast gap from an empty category.
func formatCell(cell domain.Cell, absentToken string) string {
	if cell.IsAbsent() {
		return absentToken
	}
	return cell.String()
}

// formatRow renders one table row for CSV output
func formatRow(row domain.Row, absentToken string) []string {
	out := make([]string, len(row))
	for i, cell := range row {
		out[i] = formatCell(cell, absentToken)
	}
	return out
}
