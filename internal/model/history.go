package model

import (
	"slices"
	"time"
)

// HistoryAction names a project lifecycle event.
type HistoryAction string

const (
	ActionCreate    HistoryAction = "create"
	ActionView      HistoryAction = "view"
	ActionUpdate    HistoryAction = "update"
	ActionDelete    HistoryAction = "delete"
	ActionArchive   HistoryAction = "archive"
	ActionUnarchive HistoryAction = "unarchive"
	ActionExport    HistoryAction = "export"
	ActionSave      HistoryAction = "save"
)

// HistoryActions lists every known action.
var HistoryActions = []HistoryAction{
	ActionCreate, ActionView, ActionUpdate, ActionDelete,
	ActionArchive, ActionUnarchive, ActionExport, ActionSave,
}

// Valid reports whether a is a known action.
func (a HistoryAction) Valid() bool {
	return slices.Contains(HistoryActions, a)
}

// ProjectHistoryEntry is an append-only audit record keyed by
// (project ID, timestamp).
type ProjectHistoryEntry struct {
	ProjectID string         `json:"project_id"`
	Timestamp time.Time      `json:"timestamp"`
	Action    HistoryAction  `json:"action"`
	Details   map[string]any `json:"details,omitempty"`
}

// HistoryKey builds the composite primary key for a history entry.
func HistoryKey(projectID string, ts time.Time) string {
	return projectID + "|" + FormatTimestamp(ts)
}

// HistoryPrefix returns the key prefix shared by a project's history.
func HistoryPrefix(projectID string) string {
	return projectID + "|"
}

// SetKey is a no-op: the key is derived from ProjectID and Timestamp.
func (h *ProjectHistoryEntry) SetKey(string) {}

// GetKey returns the composite key.
func (h *ProjectHistoryEntry) GetKey() string {
	return HistoryKey(h.ProjectID, h.Timestamp)
}
