package storage

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"io/fs"
	"os"
	"slices"
	"strings"
	"sync"

	"github.com/manav03panchal/mindstore/internal/logging"
	"github.com/manav03panchal/mindstore/internal/model"
)

// MirroredStores are the object stores whose records the memory backend
// copies to its fallback file, so a restart in degraded mode still recovers
// the last known projects and settings.
var MirroredStores = []string{model.StoreProjects, model.StoreSettings}

// MemoryOptions configures the degraded-mode backend.
type MemoryOptions struct {
	// MirrorPath is the JSON fallback file. Empty disables mirroring.
	MirrorPath string
	// MinFreeSpace is passed to SafeWrite for each mirror write.
	MinFreeSpace uint64
}

// MemoryBackend keeps everything in a process-local map. Records of
// MirroredStores are additionally written through to MirrorPath.
type MemoryBackend struct {
	opts     MemoryOptions
	prefixes []string

	mu   sync.RWMutex
	data map[string][]byte
	open bool

	// writeMu serializes mirror file writes.
	writeMu sync.Mutex
}

// NewMemoryBackend creates an unopened memory backend.
func NewMemoryBackend(opts MemoryOptions) *MemoryBackend {
	prefixes := make([]string, 0, len(MirroredStores))
	for _, store := range MirroredStores {
		prefixes = append(prefixes, recordPrefix(store))
	}
	return &MemoryBackend{
		opts:     opts,
		prefixes: prefixes,
		data:     make(map[string][]byte),
	}
}

func (m *MemoryBackend) Name() string { return "memory" }

// Probe always succeeds: the map is always available.
func (m *MemoryBackend) Probe(context.Context) Availability { return Available }

// Open loads the mirror file if one exists. An unreadable mirror is logged
// and ignored.
func (m *MemoryBackend) Open(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.open {
		return nil
	}
	m.open = true

	if m.opts.MirrorPath == "" {
		return nil
	}
	raw, err := os.ReadFile(m.opts.MirrorPath)
	if err != nil {
		if !stderrors.Is(err, fs.ErrNotExist) {
			logging.WarnContext(ctx, "fallback mirror unreadable", "path", m.opts.MirrorPath, logging.KeyError, err)
		}
		return nil
	}

	var mirror map[string]json.RawMessage
	if err := json.Unmarshal(raw, &mirror); err != nil {
		logging.WarnContext(ctx, "fallback mirror is not valid JSON", "path", m.opts.MirrorPath, logging.KeyError, err)
		return nil
	}
	for k, v := range mirror {
		if m.mirrored(k) {
			m.data[k] = []byte(v)
		}
	}
	logging.InfoContext(ctx, "fallback mirror loaded", logging.KeyCount, len(mirror))
	return nil
}

func (m *MemoryBackend) View(fn func(Txn) error) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if !m.open {
		return ErrBackendClosed
	}
	return fn(&memoryTxn{base: m.data, readOnly: true})
}

// Update applies fn's writes atomically. If any mirrored key changed, the
// mirror file is rewritten after the commit; a failed mirror write is logged,
// never returned.
func (m *MemoryBackend) Update(fn func(Txn) error) error {
	m.mu.Lock()
	if !m.open {
		m.mu.Unlock()
		return ErrBackendClosed
	}
	txn := &memoryTxn{base: m.data, writes: map[string][]byte{}, deletes: map[string]bool{}}
	if err := fn(txn); err != nil {
		m.mu.Unlock()
		return err
	}

	touched := false
	for k, v := range txn.writes {
		m.data[k] = v
		touched = touched || m.mirrored(k)
	}
	for k := range txn.deletes {
		delete(m.data, k)
		touched = touched || m.mirrored(k)
	}
	var snapshot map[string]json.RawMessage
	if touched && m.opts.MirrorPath != "" {
		snapshot = m.mirrorSnapshot()
	}
	m.mu.Unlock()

	if snapshot != nil {
		m.writeMirror(snapshot)
	}
	return nil
}

func (m *MemoryBackend) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.open = false
	return nil
}

// Len returns the number of keys held. Used by status output.
func (m *MemoryBackend) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.data)
}

func (m *MemoryBackend) mirrored(key string) bool {
	for _, p := range m.prefixes {
		if strings.HasPrefix(key, p) {
			return true
		}
	}
	return false
}

// mirrorSnapshot must be called with mu held.
func (m *MemoryBackend) mirrorSnapshot() map[string]json.RawMessage {
	out := make(map[string]json.RawMessage)
	for k, v := range m.data {
		if m.mirrored(k) && json.Valid(v) {
			out[k] = json.RawMessage(v)
		}
	}
	return out
}

func (m *MemoryBackend) writeMirror(snapshot map[string]json.RawMessage) {
	m.writeMu.Lock()
	defer m.writeMu.Unlock()

	data, err := json.Marshal(snapshot)
	if err != nil {
		logging.Warn("fallback mirror encode failed", logging.KeyError, err)
		return
	}
	if err := SafeWrite(m.opts.MirrorPath, data, 0o600, m.opts.MinFreeSpace); err != nil {
		logging.Warn("fallback mirror write failed", "path", m.opts.MirrorPath, logging.KeyError, err)
	}
}

// memoryTxn overlays pending writes on the committed map.
type memoryTxn struct {
	base     map[string][]byte
	writes   map[string][]byte
	deletes  map[string]bool
	readOnly bool
}

var errReadOnlyTxn = stderrors.New("write in read-only transaction")

func (t *memoryTxn) Get(key string) ([]byte, error) {
	if v, ok := t.writes[key]; ok {
		return slices.Clone(v), nil
	}
	if t.deletes[key] {
		return nil, ErrKeyNotFound
	}
	if v, ok := t.base[key]; ok {
		return slices.Clone(v), nil
	}
	return nil, ErrKeyNotFound
}

func (t *memoryTxn) Set(key string, value []byte) error {
	if t.readOnly {
		return errReadOnlyTxn
	}
	delete(t.deletes, key)
	t.writes[key] = slices.Clone(value)
	return nil
}

func (t *memoryTxn) Delete(key string) error {
	if t.readOnly {
		return errReadOnlyTxn
	}
	delete(t.writes, key)
	t.deletes[key] = true
	return nil
}

func (t *memoryTxn) Iterate(prefix string, fn func(key string, value []byte) error) error {
	var keys []string
	for k := range t.base {
		if strings.HasPrefix(k, prefix) && !t.deletes[k] {
			if _, overlaid := t.writes[k]; !overlaid {
				keys = append(keys, k)
			}
		}
	}
	for k := range t.writes {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	slices.Sort(keys)

	type kv struct {
		key   string
		value []byte
	}
	batch := make([]kv, 0, len(keys))
	for _, k := range keys {
		v, _ := t.Get(k)
		batch = append(batch, kv{k, v})
	}
	for _, e := range batch {
		if err := fn(e.key, e.value); err != nil {
			return iterationDone(err)
		}
	}
	return nil
}
