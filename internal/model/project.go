package model

import (
	"encoding/json"
	"errors"
	"strings"
	"time"
)

// Node types known to the built-in color schemes.
const (
	NodeTypeIdea     = "idea"
	NodeTypeTopic    = "topic"
	NodeTypeTask     = "task"
	NodeTypeNote     = "note"
	NodeTypeQuestion = "question"
)

// Sync frequencies for remote object storage.
const (
	SyncManual   = "manual"
	SyncOnSave   = "on_save"
	SyncInterval = "interval"
)

// Position is a node location on the canvas.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Node is a graph node.
type Node struct {
	ID       string         `json:"id"`
	Type     string         `json:"type"`
	Position Position       `json:"position"`
	Data     map[string]any `json:"data,omitempty"`
}

// Edge connects two nodes.
type Edge struct {
	ID     string `json:"id"`
	Source string `json:"source"`
	Target string `json:"target"`
	Type   string `json:"type,omitempty"`
}

// SyncSettings controls remote object storage sync for a project.
type SyncSettings struct {
	EnableS3Sync    bool   `json:"enable_s3_sync"`
	SyncFrequency   string `json:"sync_frequency"`
	IntervalMinutes int    `json:"interval_minutes,omitempty"`
}

// Project is a mind-map document.
type Project struct {
	ID             string       `json:"id"`
	Name           string       `json:"name"`
	Description    string       `json:"description,omitempty"`
	CreatedAt      time.Time    `json:"created_at"`
	UpdatedAt      time.Time    `json:"updated_at"`
	LastAccessedAt time.Time    `json:"last_accessed_at"`
	Version        string       `json:"version"`
	Template       string       `json:"template,omitempty"`
	IsTemplate     bool         `json:"is_template,omitempty"`
	Tags           []string     `json:"tags,omitempty"`
	Nodes          []Node       `json:"nodes"`
	Edges          []Edge       `json:"edges"`
	IsArchived     bool         `json:"is_archived"`
	ArchivedAt     *time.Time   `json:"archived_at,omitempty"`
	SyncSettings   SyncSettings `json:"sync_settings"`
}

// SetKey sets the project ID.
func (p *Project) SetKey(key string) {
	p.ID = key
}

// GetKey returns the project ID.
func (p *Project) GetKey() string {
	return p.ID
}

// SetArchived toggles the archive flag and keeps ArchivedAt in step with it.
func (p *Project) SetArchived(archived bool, now time.Time) {
	p.IsArchived = archived
	if archived {
		t := now
		p.ArchivedAt = &t
	} else {
		p.ArchivedAt = nil
	}
}

// HasTag reports whether the project carries the given tag (case-insensitive).
func (p *Project) HasTag(tag string) bool {
	if tag == "" {
		return false
	}
	for _, t := range p.Tags {
		if strings.EqualFold(t, tag) {
			return true
		}
	}
	return false
}

// Validation errors for projects.
var (
	ErrProjectNameRequired = errors.New("project name is required")
	ErrArchiveMismatch     = errors.New("archived_at must be set exactly when the project is archived")
	ErrDanglingEdge        = errors.New("edge references an unknown node")
)

// Validate checks the structural invariants of a project.
func (p *Project) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return ErrProjectNameRequired
	}
	if p.IsArchived != (p.ArchivedAt != nil && !p.ArchivedAt.IsZero()) {
		return ErrArchiveMismatch
	}
	ids := make(map[string]struct{}, len(p.Nodes))
	for _, n := range p.Nodes {
		ids[n.ID] = struct{}{}
	}
	for _, e := range p.Edges {
		if _, ok := ids[e.Source]; !ok {
			return ErrDanglingEdge
		}
		if _, ok := ids[e.Target]; !ok {
			return ErrDanglingEdge
		}
	}
	return nil
}

// Clone returns a deep copy of the project.
func (p *Project) Clone() *Project {
	if p == nil {
		return nil
	}
	data, err := json.Marshal(p)
	if err != nil {
		c := *p
		return &c
	}
	var c Project
	if err := json.Unmarshal(data, &c); err != nil {
		cp := *p
		return &cp
	}
	return &c
}
