package output

import (
	"github.com/manav03panchal/mindstore/internal/model"
)

// JSONFormatter provides JSON-specific formatting.
type JSONFormatter struct {
	*Formatter
}

// NewJSONFormatter creates a new JSON formatter.
func NewJSONFormatter(f *Formatter) *JSONFormatter {
	return &JSONFormatter{Formatter: f}
}

// StatusResponse is the status output.
type StatusResponse struct {
	Status        string   `json:"status"`
	Mode          string   `json:"mode"`
	Backend       string   `json:"backend,omitempty"`
	Reason        string   `json:"reason,omitempty"`
	Error         string   `json:"error,omitempty"`
	SchemaVersion int      `json:"schema_version"`
	Stores        []string `json:"stores,omitempty"`
	QueueLength   int      `json:"queue_length"`
	SyncEnabled   bool     `json:"sync_enabled"`
	Encryption    bool     `json:"encryption_configured"`
	DataPath      string   `json:"data_path,omitempty"`
	DiskFree      float64  `json:"disk_free_percent,omitempty"`
}

// ProjectsResponse is the project list output.
type ProjectsResponse struct {
	Projects []model.Project `json:"projects"`
	Count    int             `json:"count"`
}

// NewProjectsResponse wraps a project list.
func NewProjectsResponse(projects []model.Project) *ProjectsResponse {
	if projects == nil {
		projects = []model.Project{}
	}
	return &ProjectsResponse{Projects: projects, Count: len(projects)}
}

// ErrorResponse represents an error in JSON.
type ErrorResponse struct {
	Status     string `json:"status"`
	Error      string `json:"error"`
	Category   string `json:"category,omitempty"`
	Suggestion string `json:"suggestion,omitempty"`
}

// ResultResponse acknowledges a mutation.
type ResultResponse struct {
	Status string `json:"status"`
	ID     string `json:"id,omitempty"`
	Count  int    `json:"count,omitempty"`
}

// PrintStatus outputs status in JSON format.
func (j *JSONFormatter) PrintStatus(resp StatusResponse) error {
	return j.JSON(resp)
}

// PrintProjects outputs a project list in JSON format.
func (j *JSONFormatter) PrintProjects(projects []model.Project) error {
	return j.JSON(NewProjectsResponse(projects))
}

// PrintError outputs an error in JSON format.
func (j *JSONFormatter) PrintError(errMsg, category, suggestion string) error {
	return j.JSON(ErrorResponse{
		Status:     "error",
		Error:      errMsg,
		Category:   category,
		Suggestion: suggestion,
	})
}

// PrintResult outputs a mutation acknowledgement.
func (j *JSONFormatter) PrintResult(status, id string, count int) error {
	return j.JSON(ResultResponse{Status: status, ID: id, Count: count})
}
