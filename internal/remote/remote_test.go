package remote

import (
	"bytes"
	"context"
	stderrors "errors"
	"io"
	"slices"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/manav03panchal/mindstore/internal/config"
	"github.com/manav03panchal/mindstore/internal/errors"
	"github.com/manav03panchal/mindstore/internal/events"
	"github.com/manav03panchal/mindstore/internal/model"
	"github.com/manav03panchal/mindstore/internal/offline"
	"github.com/manav03panchal/mindstore/internal/storage"
)

var modTime = time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC)

// fakeS3 is an in-memory bucket. List pages hold pageSize keys.
type fakeS3 struct {
	mu       sync.Mutex
	objects  map[string][]byte
	pageSize int
	fail     error
}

func newFakeS3() *fakeS3 {
	return &fakeS3{objects: make(map[string][]byte), pageSize: 2}
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail != nil {
		return nil, f.fail
	}
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.objects[aws.ToString(in.Key)] = data
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail != nil {
		return nil, f.fail
	}
	data, ok := f.objects[aws.ToString(in.Key)]
	if !ok {
		return nil, &types.NoSuchKey{}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(data))}, nil
}

func (f *fakeS3) ListObjectsV2(_ context.Context, in *s3.ListObjectsV2Input, _ ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail != nil {
		return nil, f.fail
	}
	var keys []string
	for k := range f.objects {
		if strings.HasPrefix(k, aws.ToString(in.Prefix)) {
			keys = append(keys, k)
		}
	}
	slices.Sort(keys)

	start := 0
	if tok := aws.ToString(in.ContinuationToken); tok != "" {
		start, _ = strconv.Atoi(tok)
	}
	end := min(start+f.pageSize, len(keys))

	out := &s3.ListObjectsV2Output{}
	for _, k := range keys[start:end] {
		out.Contents = append(out.Contents, types.Object{Key: aws.String(k), LastModified: aws.Time(modTime)})
	}
	if end < len(keys) {
		out.IsTruncated = aws.Bool(true)
		out.NextContinuationToken = aws.String(strconv.Itoa(end))
	}
	return out, nil
}

func demoProject(version string) *model.Project {
	return &model.Project{ID: "p1", Name: "Demo", Version: version, Nodes: []model.Node{{ID: "root", Type: "topic"}}}
}

func TestS3Store_UploadDownload(t *testing.T) {
	api := newFakeS3()
	s := newS3Store(api, "bucket", "/projects/")
	ctx := context.Background()

	res, err := s.Upload(ctx, demoProject("0.1.0"))
	require.NoError(t, err)
	assert.Equal(t, "projects/p1/0.1.0.json", res.Key)
	assert.Contains(t, api.objects, "projects/p1/latest.json")

	_, err = s.Upload(ctx, demoProject("2025.3.14-0926"))
	require.NoError(t, err)

	latest, err := s.Download(ctx, "p1", "")
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, "2025.3.14-0926", latest.Version)

	old, err := s.Download(ctx, "p1", "0.1.0")
	require.NoError(t, err)
	assert.Equal(t, "0.1.0", old.Version)
	assert.Equal(t, "Demo", old.Name)

	missing, err := s.Download(ctx, "p1", "9.9.9")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestS3Store_ListVersions(t *testing.T) {
	api := newFakeS3()
	s := newS3Store(api, "bucket", "projects")
	ctx := context.Background()

	for _, v := range []string{"2025.3.10-0001", "2025.3.9-2359", "0.1.0"} {
		_, err := s.Upload(ctx, demoProject(v))
		require.NoError(t, err)
	}
	other := demoProject("0.1.0")
	other.ID = "p10"
	_, err := s.Upload(ctx, other)
	require.NoError(t, err)

	versions, err := s.ListVersions(ctx, "p1")
	require.NoError(t, err)
	var labels []string
	for _, v := range versions {
		labels = append(labels, v.Version)
		assert.Equal(t, modTime, v.LastModified)
	}
	assert.Equal(t, []string{"0.1.0", "2025.3.9-2359", "2025.3.10-0001"}, labels)
}

func TestS3Store_Errors(t *testing.T) {
	api := newFakeS3()
	api.fail = stderrors.New("connection refused")
	s := newS3Store(api, "bucket", "projects")
	ctx := context.Background()

	_, err := s.Upload(ctx, demoProject("0.1.0"))
	assert.ErrorIs(t, err, errors.ErrNetworkUnavailable)

	_, err = s.Download(ctx, "p1", "")
	assert.ErrorIs(t, err, errors.ErrNetworkUnavailable)

	_, err = s.ListVersions(ctx, "p1")
	assert.ErrorIs(t, err, errors.ErrNetworkUnavailable)

	_, err = s.Upload(ctx, &model.Project{})
	assert.ErrorIs(t, err, errors.ErrInvalidInput)
}

func TestNewS3Store_Disabled(t *testing.T) {
	_, err := NewS3Store(context.Background(), config.SyncConfig{})
	assert.ErrorIs(t, err, errors.ErrSyncDisabled)
}

func TestNewS3Store_Endpoint(t *testing.T) {
	s, err := NewS3Store(context.Background(), config.SyncConfig{
		Bucket:    "b",
		Region:    "us-east-1",
		Endpoint:  "http://127.0.0.1:9000",
		AccessKey: "minio",
		SecretKey: "minio123",
		Prefix:    "p",
	})
	require.NoError(t, err)
	assert.Equal(t, "b", s.bucket)
	assert.Equal(t, "p", s.prefix)
}

func TestNewS3Store_BadEndpoint(t *testing.T) {
	_, err := NewS3Store(context.Background(), config.SyncConfig{
		Bucket:   "b",
		Region:   "us-east-1",
		Endpoint: "ftp://files.example.com",
	})
	assert.ErrorIs(t, err, errors.ErrInvalidInput)
}

type syncFixture struct {
	api      *fakeS3
	projects *storage.ProjectRepo
	queue    *offline.Queue
	bus      *events.Bus
	syncer   *Syncer

	mu   sync.Mutex
	seen []string
}

func (f *syncFixture) events() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.seen)
}

func newSyncFixture(t *testing.T) *syncFixture {
	t.Helper()
	g := storage.NewGateway(
		storage.NewBadgerBackend(storage.BadgerOptions{InMemory: true}),
		storage.NewMemoryBackend(storage.MemoryOptions{}),
		storage.GatewayOptions{},
	)
	require.NoError(t, g.Init(context.Background()))
	t.Cleanup(func() { g.Close() })

	f := &syncFixture{
		api:      newFakeS3(),
		projects: storage.NewProjectRepo(g),
		queue:    offline.NewQueue(storage.NewQueueRepo(g)),
		bus:      events.NewBus(),
	}
	f.bus.Subscribe(func(e events.Event) {
		f.mu.Lock()
		f.seen = append(f.seen, e.Name())
		f.mu.Unlock()
	})
	f.syncer = NewSyncer(newS3Store(f.api, "bucket", "projects"), f.projects, f.queue, f.bus)
	return f
}

func TestSyncer_PushUploads(t *testing.T) {
	f := newSyncFixture(t)
	res, err := f.syncer.Push(context.Background(), demoProject("0.1.0"))
	require.NoError(t, err)
	assert.False(t, res.Queued())
	require.NotNil(t, res.Upload)
	assert.Equal(t, 0, f.queue.Len(context.Background()))
}

func TestSyncer_PushQueuesOnFailureAndReplays(t *testing.T) {
	f := newSyncFixture(t)
	ctx := context.Background()

	p := demoProject("0.1.0")
	_, err := f.projects.Put(ctx, p)
	require.NoError(t, err)

	f.api.fail = stderrors.New("offline")
	res, err := f.syncer.Push(ctx, p)
	require.NoError(t, err)
	assert.True(t, res.Queued())

	entries := f.queue.DequeueAllOrdered(ctx)
	require.Len(t, entries, 1)
	assert.Equal(t, OpUpload, entries[0].Operation)
	assert.JSONEq(t, `{"project_id":"p1"}`, string(entries[0].Data))

	r := offline.NewReplayer(f.queue, offline.ReplayerOptions{})
	r.Register(OpUpload, f.syncer.Handler())

	assert.Equal(t, 1, r.ReplayOnce(ctx).Failed)

	f.api.fail = nil
	assert.Equal(t, 1, r.ReplayOnce(ctx).Replayed)
	assert.Equal(t, 0, f.queue.Len(ctx))
	assert.Contains(t, f.api.objects, "projects/p1/0.1.0.json")
}

func TestSyncer_HandlerSkipsDeletedProject(t *testing.T) {
	f := newSyncFixture(t)
	err := f.syncer.Handler()(context.Background(), model.OfflineQueueEntry{Data: []byte(`{"project_id":"gone"}`)})
	assert.NoError(t, err)
	assert.Empty(t, f.api.objects)
}

func TestSyncer_Disabled(t *testing.T) {
	f := newSyncFixture(t)
	s := NewSyncer(nil, f.projects, f.queue, nil)
	ctx := context.Background()

	assert.False(t, s.Enabled())
	res, err := s.Push(ctx, demoProject("0.1.0"))
	require.NoError(t, err)
	assert.True(t, res.Queued())

	_, err = s.Pull(ctx, "p1", "")
	assert.ErrorIs(t, err, errors.ErrSyncDisabled)
	_, err = s.Versions(ctx, "p1")
	assert.ErrorIs(t, err, errors.ErrSyncDisabled)
}

func TestSyncer_PublishesReachability(t *testing.T) {
	f := newSyncFixture(t)
	ctx := context.Background()

	_, err := f.syncer.Push(ctx, demoProject("0.1.0"))
	require.NoError(t, err)
	assert.Empty(t, f.events(), "success while online publishes nothing")

	f.api.fail = stderrors.New("offline")
	for range 2 {
		res, err := f.syncer.Push(ctx, demoProject("0.1.1"))
		require.NoError(t, err)
		assert.True(t, res.Queued())
	}
	assert.True(t, f.syncer.Offline())
	assert.Equal(t, []string{"network.offline"}, f.events())

	f.api.fail = nil
	_, err = f.syncer.Versions(ctx, "p1")
	require.NoError(t, err)
	assert.False(t, f.syncer.Offline())
	assert.Equal(t, []string{"network.offline", "network.online"}, f.events())
}

func TestSyncer_OnlineTriggersReplay(t *testing.T) {
	f := newSyncFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	p := demoProject("0.1.0")
	_, err := f.projects.Put(ctx, p)
	require.NoError(t, err)

	f.api.fail = stderrors.New("offline")
	_, err = f.syncer.Push(ctx, p)
	require.NoError(t, err)
	require.Equal(t, 1, f.queue.Len(ctx))

	r := offline.NewReplayer(f.queue, offline.ReplayerOptions{Bus: f.bus, Interval: time.Hour})
	r.Register(OpUpload, f.syncer.Handler())
	r.Start(ctx)
	defer r.Stop()

	f.api.fail = nil
	_, err = f.syncer.Pull(ctx, "p1", "")
	require.NoError(t, err)

	assert.Eventually(t, func() bool { return f.queue.Len(ctx) == 0 }, time.Second, 5*time.Millisecond)
	f.api.mu.Lock()
	defer f.api.mu.Unlock()
	assert.Contains(t, f.api.objects, "projects/p1/0.1.0.json")
}
