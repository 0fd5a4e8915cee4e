package model

import "time"

// SecureData is an encrypted blob addressed by a unique key. Only the
// ciphertext is ever persisted.
type SecureData struct {
	ID         string    `json:"id"`
	Key        string    `json:"key"`
	Ciphertext string    `json:"ciphertext"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// SetKey sets the record ID.
func (s *SecureData) SetKey(key string) {
	s.ID = key
}

// GetKey returns the record ID.
func (s *SecureData) GetKey() string {
	return s.ID
}
