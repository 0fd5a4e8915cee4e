package remote

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"sync/atomic"

	"github.com/manav03panchal/mindstore/internal/errors"
	"github.com/manav03panchal/mindstore/internal/events"
	"github.com/manav03panchal/mindstore/internal/logging"
	"github.com/manav03panchal/mindstore/internal/model"
	"github.com/manav03panchal/mindstore/internal/offline"
)

// OpUpload is the queued operation name for a deferred upload.
const OpUpload = "upload"

// Remote is the object storage client. *S3Store implements it.
type Remote interface {
	Upload(ctx context.Context, p *model.Project) (*UploadResult, error)
	Download(ctx context.Context, projectID, version string) (*model.Project, error)
	ListVersions(ctx context.Context, projectID string) ([]VersionInfo, error)
}

// Projects loads the project a queued upload refers to.
type Projects interface {
	Get(ctx context.Context, id string) *model.Project
}

type uploadIntent struct {
	ProjectID string `json:"project_id"`
}

// PushResult reports what Push did: uploaded, or queued for replay.
type PushResult struct {
	Upload   *UploadResult `json:"upload,omitempty"`
	QueuedID int64         `json:"queued_id,omitempty"`
}

// Queued reports whether the upload was deferred.
func (r PushResult) Queued() bool {
	return r.Upload == nil && r.QueuedID != 0
}

// Syncer pushes projects to the remote and defers failed uploads to the
// offline queue. It publishes Offline on the bus when the remote starts
// failing and Online on the first success after that.
type Syncer struct {
	remote   Remote
	projects Projects
	queue    *offline.Queue
	bus      *events.Bus
	offline  atomic.Bool
}

// NewSyncer creates a syncer. remote may be nil when sync is not
// configured; every push is then queued. bus may be nil.
func NewSyncer(remote Remote, projects Projects, queue *offline.Queue, bus *events.Bus) *Syncer {
	return &Syncer{remote: remote, projects: projects, queue: queue, bus: bus}
}

// observe tracks reachability from the outcome of a remote call. Only
// network failures count; bad input or undecodable objects are ignored.
func (s *Syncer) observe(err error) {
	switch {
	case err == nil:
		if s.offline.CompareAndSwap(true, false) {
			s.bus.Publish(events.Online{})
		}
	case stderrors.Is(err, errors.ErrNetworkUnavailable):
		if s.offline.CompareAndSwap(false, true) {
			s.bus.Publish(events.Offline{})
		}
	}
}

// Offline reports whether the last remote call failed.
func (s *Syncer) Offline() bool {
	return s.offline.Load()
}

// Enabled reports whether a remote is configured.
func (s *Syncer) Enabled() bool {
	return s.remote != nil
}

// Push uploads p. When the remote is missing or fails, an upload intent
// carrying the project id is queued instead and the returned error is nil.
func (s *Syncer) Push(ctx context.Context, p *model.Project) (PushResult, error) {
	var cause error = errors.ErrSyncDisabled
	if s.remote != nil {
		res, err := s.remote.Upload(ctx, p)
		s.observe(err)
		if err == nil {
			return PushResult{Upload: res}, nil
		}
		if errors.IsUserError(err) {
			return PushResult{}, err
		}
		cause = err
	}

	id, err := s.queue.Enqueue(ctx, OpUpload, uploadIntent{ProjectID: p.ID}, 0)
	if err != nil {
		return PushResult{}, errors.NewSystemError("failed to queue upload", fmt.Errorf("%w; upload: %w", err, cause))
	}
	logging.InfoContext(ctx, "upload queued for replay",
		logging.KeyProjectID, p.ID, logging.KeyQueueID, id, logging.KeyError, cause)
	return PushResult{QueuedID: id}, nil
}

// Pull downloads a snapshot; an empty version means latest.
func (s *Syncer) Pull(ctx context.Context, projectID, version string) (*model.Project, error) {
	if s.remote == nil {
		return nil, errors.ErrSyncDisabled
	}
	p, err := s.remote.Download(ctx, projectID, version)
	s.observe(err)
	return p, err
}

// Versions lists the remote versions of a project.
func (s *Syncer) Versions(ctx context.Context, projectID string) ([]VersionInfo, error) {
	if s.remote == nil {
		return nil, errors.ErrSyncDisabled
	}
	versions, err := s.remote.ListVersions(ctx, projectID)
	s.observe(err)
	return versions, err
}

// Handler replays queued uploads. A project deleted since it was queued
// completes without uploading.
func (s *Syncer) Handler() offline.Handler {
	return func(ctx context.Context, e model.OfflineQueueEntry) error {
		if s.remote == nil {
			return errors.ErrSyncDisabled
		}
		var intent uploadIntent
		if err := json.Unmarshal(e.Data, &intent); err != nil || intent.ProjectID == "" {
			logging.WarnContext(ctx, "discarding malformed upload intent",
				logging.KeyQueueID, e.ID, logging.KeyError, err)
			return nil
		}
		p := s.projects.Get(ctx, intent.ProjectID)
		if p == nil {
			return nil
		}
		_, err := s.remote.Upload(ctx, p)
		s.observe(err)
		return err
	}
}
