package model

import (
	"encoding/json"
	"time"
)

// Setting is a single key/value application setting.
type Setting struct {
	Key       string          `json:"key"`
	Value     json.RawMessage `json:"value"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// SetKey sets the setting key.
func (s *Setting) SetKey(key string) {
	s.Key = key
}

// GetKey returns the setting key.
func (s *Setting) GetKey() string {
	return s.Key
}
