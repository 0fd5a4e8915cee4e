package model

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// OfflineQueueEntry is a deferred remote operation awaiting replay.
type OfflineQueueEntry struct {
	ID        int64           `json:"id"`
	Operation string          `json:"operation"`
	Data      json.RawMessage `json:"data,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
	Retries   int             `json:"retries"`
	Priority  int             `json:"priority"`
}

// QueueKey renders an auto-assigned ID as a sortable primary key.
func QueueKey(id int64) string {
	return fmt.Sprintf("%020d", id)
}

// SetKey parses the primary key back into ID.
func (q *OfflineQueueEntry) SetKey(key string) {
	if id, err := strconv.ParseInt(key, 10, 64); err == nil {
		q.ID = id
	}
}

// GetKey returns the primary key.
func (q *OfflineQueueEntry) GetKey() string {
	return QueueKey(q.ID)
}
