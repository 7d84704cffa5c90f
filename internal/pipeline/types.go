package pipeline

import (
	"time"
)

// Pipeline stage identifiers
const (
	StageIDLoad   = "load"
	StageIDClean  = "clean"
	StageIDAlign  = "align"
	StageIDMerge  = "merge"
	StageIDExport = "export"
)

// Pipeline stage names
const (
	StageNameLoad   = "Source Loading"
	StageNameClean  = "Data Cleaning"
	StageNameAlign  = "Granularity Alignment"
	StageNameMerge  = "Table Merging"
	StageNameExport = "Artifact Export"
)

// RunRequest represents a request to execute a pipeline run
type RunRequest struct {
	// ID is the run identifier; generated when empty
	ID string `json:"id"`

	// Stage limits the run to a single stage. Empty runs the full pipeline
	// in dependency order.
	Stage string `json:"stage,omitempty"`
}

// RunResponse represents the outcome of a pipeline run
type RunResponse struct {
	ID         string                 `json:"id"`
	Status     RunStatus              `json:"status"`
	Duration   time.Duration          `json:"duration"`
	Stages     map[string]*StageState `json:"stages"`
	OutputPath string                 `json:"output_path,omitempty"`
	ReportPath string                 `json:"report_path,omitempty"`
	Error      string                 `json:"error,omitempty"`
}
