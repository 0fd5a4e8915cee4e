// Package project manages the project lifecycle: create, read, update,
// archive and delete, with an append-only history entry for every action
// and an initial commit for every new project.
package project

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/manav03panchal/mindstore/internal/errors"
	"github.com/manav03panchal/mindstore/internal/logging"
	"github.com/manav03panchal/mindstore/internal/model"
)

// Stable messages for write failures. The storage cause is only logged.
const (
	msgSaveFailed   = "failed to save project"
	msgUpdateFailed = "failed to update project"
	msgDeleteFailed = "failed to delete project"
)

// Projects is the project persistence. storage.ProjectRepo implements it.
type Projects interface {
	Get(ctx context.Context, id string) *model.Project
	Put(ctx context.Context, p *model.Project) (string, error)
	Update(ctx context.Context, p *model.Project) error
	Delete(ctx context.Context, id string) (*model.Project, error)
	List(ctx context.Context) []model.Project
	Archived(ctx context.Context, archived bool) []model.Project
	ByTag(ctx context.Context, tag string) []model.Project
	RecentlyAccessed(ctx context.Context, limit int) []model.Project
	Archive(ctx context.Context, id string, archived bool, now time.Time) (*model.Project, error)
	Touch(ctx context.Context, id string, now time.Time) error
}

// History is the history persistence. storage.HistoryRepo implements it.
type History interface {
	Append(ctx context.Context, e *model.ProjectHistoryEntry) error
	List(ctx context.Context, projectID string) []model.ProjectHistoryEntry
	ByAction(ctx context.Context, action model.HistoryAction) []model.ProjectHistoryEntry
}

// Versions is the commit tracker. *version.Tracker implements it.
type Versions interface {
	CommitInitial(ctx context.Context, p *model.Project, message string) (*model.Project, *model.Commit, error)
	Commit(ctx context.Context, p *model.Project, message string) (*model.Project, *model.Commit, error)
	Forget(ctx context.Context, projectID string) error
}

// Manager is the project lifecycle manager.
type Manager struct {
	projects Projects
	history  History
	versions Versions
	now      func() time.Time
}

// Option configures a Manager.
type Option func(*Manager)

// WithClock overrides the clock used for timestamps.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// NewManager creates a project manager.
func NewManager(projects Projects, history History, versions Versions, opts ...Option) *Manager {
	m := &Manager{projects: projects, history: history, versions: versions, now: time.Now}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// ListOptions filters List.
type ListOptions struct {
	// IncludeArchived includes archived projects alongside active ones.
	IncludeArchived bool
	// OnlyArchived returns archived projects only.
	OnlyArchived bool
	// IncludeTemplates includes projects saved as templates.
	IncludeTemplates bool
	// Tag keeps only projects carrying the tag, compared case-insensitively.
	Tag string
	// Recent orders by last access, newest first, and keeps at most Recent
	// projects. Zero keeps the default order.
	Recent int
}

func (m *Manager) clock() time.Time {
	return m.now().UTC()
}

// writeError logs the storage cause and returns a stable error. Not-found,
// validation and unavailable errors pass through unchanged.
func writeError(ctx context.Context, op, message string, err error) error {
	for _, passthrough := range []error{errors.ErrNotFound, errors.ErrInvalidInput, errors.ErrUnavailable} {
		if stderrors.Is(err, passthrough) {
			return err
		}
	}
	logging.ErrorContext(ctx, message, logging.KeyOperation, op, logging.KeyError, err)
	if !stderrors.Is(err, errors.ErrPersistence) {
		err = fmt.Errorf("%w: %w", errors.ErrPersistence, err)
	}
	return errors.NewSystemError(message, err)
}

func notFound(id string) error {
	return fmt.Errorf("project %s: %w", id, errors.ErrNotFound)
}

// record appends a history entry. Failures are logged, never returned.
func (m *Manager) record(ctx context.Context, id string, action model.HistoryAction, details map[string]any) {
	e := &model.ProjectHistoryEntry{ProjectID: id, Timestamp: m.clock(), Action: action, Details: details}
	if err := m.history.Append(ctx, e); err != nil {
		logging.WarnContext(ctx, "history append failed",
			logging.KeyProjectID, id, "action", string(action), logging.KeyError, err)
	}
}

// Create builds a project from a template, persists it, records a create
// entry and makes the initial commit. template may be a built-in name, the
// ID of a project saved as a template, or empty for blank.
func (m *Manager) Create(ctx context.Context, name, description, template string) (*model.Project, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errors.NewUserErrorWithField("name", name, "project name is required", "")
	}
	if template == "" {
		template = TemplateBlank
	}

	nodes, edges, err := m.seed(ctx, template, name)
	if err != nil {
		return nil, err
	}

	now := m.clock()
	p := &model.Project{
		ID:             uuid.Must(uuid.NewV7()).String(),
		Name:           name,
		Description:    description,
		CreatedAt:      now,
		UpdatedAt:      now,
		LastAccessedAt: now,
		Version:        model.InitialVersion,
		Template:       template,
		Nodes:          nodes,
		Edges:          edges,
		SyncSettings:   model.SyncSettings{SyncFrequency: model.SyncManual},
	}

	if _, err := m.projects.Put(ctx, p); err != nil {
		return nil, writeError(ctx, "project.create", msgSaveFailed, err)
	}
	m.record(ctx, p.ID, model.ActionCreate, map[string]any{"name": p.Name, "template": template})

	if _, _, err := m.versions.CommitInitial(ctx, p, "Initial version"); err != nil {
		logging.WarnContext(ctx, "initial commit failed", logging.KeyProjectID, p.ID, logging.KeyError, err)
	}

	logging.InfoContext(ctx, "project created", logging.KeyProjectID, p.ID, "template", template)
	return p, nil
}

func (m *Manager) seed(ctx context.Context, template, title string) ([]model.Node, []model.Edge, error) {
	if t, ok := builtinTemplates[template]; ok {
		nodes, edges := t.build(title)
		return nodes, edges, nil
	}
	src := m.projects.Get(ctx, template)
	if src == nil || !src.IsTemplate {
		return nil, nil, errors.NewUserErrorWithField("template", template,
			fmt.Sprintf("%s: %q", errors.ErrUnknownTemplate, template),
			errors.GetSuggestion(errors.ErrUnknownTemplate))
	}
	c := src.Clone()
	return c.Nodes, c.Edges, nil
}

// Get returns the project, or nil. A successful read records a view entry
// and refreshes LastAccessedAt; neither side effect can fail the read.
func (m *Manager) Get(ctx context.Context, id string) *model.Project {
	p := m.projects.Get(ctx, id)
	if p == nil {
		return nil
	}
	now := m.clock()
	m.record(ctx, id, model.ActionView, nil)
	if err := m.projects.Touch(ctx, id, now); err != nil {
		logging.WarnContext(ctx, "touch failed", logging.KeyProjectID, id, logging.KeyError, err)
	} else {
		p.LastAccessedAt = now
	}
	return p
}

// List returns projects most recently updated first, or most recently
// accessed first when opts.Recent is set.
func (m *Manager) List(ctx context.Context, opts ListOptions) []model.Project {
	var all []model.Project
	switch {
	case opts.Recent > 0:
		all = m.projects.RecentlyAccessed(ctx, 0)
	case opts.Tag != "":
		all = m.projects.ByTag(ctx, opts.Tag)
	case opts.OnlyArchived:
		all = m.projects.Archived(ctx, true)
	default:
		all = m.projects.List(ctx)
	}
	out := make([]model.Project, 0, len(all))
	for _, p := range all {
		switch {
		case p.IsTemplate && !opts.IncludeTemplates:
			continue
		case opts.OnlyArchived && !p.IsArchived:
			continue
		case p.IsArchived && !opts.IncludeArchived && !opts.OnlyArchived:
			continue
		case opts.Tag != "" && !p.HasTag(opts.Tag):
			continue
		}
		out = append(out, p)
		if opts.Recent > 0 && len(out) == opts.Recent {
			break
		}
	}
	return out
}

// Update overwrites an existing project, stamping UpdatedAt. It fails with
// ErrNotFound when the project does not exist.
func (m *Manager) Update(ctx context.Context, p *model.Project) (*model.Project, error) {
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", errors.ErrInvalidInput, err)
	}
	next := p.Clone()
	next.UpdatedAt = m.clock()
	if err := m.projects.Update(ctx, next); err != nil {
		return nil, writeError(ctx, "project.update", msgUpdateFailed, err)
	}
	m.record(ctx, next.ID, model.ActionUpdate, map[string]any{"version": next.Version})
	return next, nil
}

// Delete removes a project and its commit history. The delete entry keeps
// the last known name and version. It fails with ErrNotFound when the
// project does not exist.
func (m *Manager) Delete(ctx context.Context, id string) error {
	p, err := m.projects.Delete(ctx, id)
	if err != nil {
		return writeError(ctx, "project.delete", msgDeleteFailed, err)
	}
	m.record(ctx, id, model.ActionDelete, map[string]any{"name": p.Name, "version": p.Version})
	if err := m.versions.Forget(ctx, id); err != nil {
		logging.WarnContext(ctx, "dropping commits failed", logging.KeyProjectID, id, logging.KeyError, err)
	}
	return nil
}

// Archive sets or clears the archive flag and returns the updated project.
// It returns nil, nil when the project does not exist.
func (m *Manager) Archive(ctx context.Context, id string, archive bool) (*model.Project, error) {
	p, err := m.projects.Archive(ctx, id, archive, m.clock())
	if err != nil {
		return nil, writeError(ctx, "project.archive", msgUpdateFailed, err)
	}
	if p == nil {
		return nil, nil
	}
	action := model.ActionUnarchive
	if archive {
		action = model.ActionArchive
	}
	m.record(ctx, id, action, nil)
	return p, nil
}

// History returns the project's history in timestamp order.
func (m *Manager) History(ctx context.Context, id string) []model.ProjectHistoryEntry {
	return m.history.List(ctx, id)
}

// HistoryByAction returns entries recorded with action in timestamp order,
// across all projects when id is empty.
func (m *Manager) HistoryByAction(ctx context.Context, id string, action model.HistoryAction) []model.ProjectHistoryEntry {
	entries := m.history.ByAction(ctx, action)
	if id == "" {
		return entries
	}
	out := entries[:0]
	for _, e := range entries {
		if e.ProjectID == id {
			out = append(out, e)
		}
	}
	return out
}

// Save commits the project and persists the committed version, recording a
// save entry. It fails with ErrNotFound when the project does not exist.
func (m *Manager) Save(ctx context.Context, p *model.Project, message string) (*model.Project, error) {
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", errors.ErrInvalidInput, err)
	}
	if m.projects.Get(ctx, p.ID) == nil {
		return nil, notFound(p.ID)
	}
	if message == "" {
		message = "Save"
	}

	next, _, err := m.versions.Commit(ctx, p, message)
	if err != nil {
		return nil, writeError(ctx, "project.save", msgSaveFailed, err)
	}
	if err := m.projects.Update(ctx, next); err != nil {
		return nil, writeError(ctx, "project.save", msgSaveFailed, err)
	}
	m.record(ctx, next.ID, model.ActionSave, map[string]any{"version": next.Version, "message": message})
	return next, nil
}

// SaveAsTemplate copies a project's graph into a new template project that
// Create accepts by ID.
func (m *Manager) SaveAsTemplate(ctx context.Context, id, name string) (*model.Project, error) {
	src := m.projects.Get(ctx, id)
	if src == nil {
		return nil, notFound(id)
	}
	if strings.TrimSpace(name) == "" {
		name = src.Name + " template"
	}

	now := m.clock()
	t := src.Clone()
	t.ID = uuid.Must(uuid.NewV7()).String()
	t.Name = name
	t.IsTemplate = true
	t.Template = src.ID
	t.CreatedAt, t.UpdatedAt, t.LastAccessedAt = now, now, now
	t.Version = model.InitialVersion
	t.SetArchived(false, now)

	if _, err := m.projects.Put(ctx, t); err != nil {
		return nil, writeError(ctx, "project.save_template", msgSaveFailed, err)
	}
	m.record(ctx, t.ID, model.ActionCreate, map[string]any{"name": t.Name, "template_of": src.ID})
	return t, nil
}

// Templates lists built-in templates followed by saved template projects.
func (m *Manager) Templates(ctx context.Context) []Template {
	out := BuiltinTemplates()
	for _, p := range m.projects.List(ctx) {
		if p.IsTemplate {
			out = append(out, Template{Name: p.ID, Description: p.Name})
		}
	}
	return out
}
