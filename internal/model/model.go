// Package model defines the persisted records for Mindstore.
package model

// Model is the interface that all stored records must implement.
type Model interface {
	// SetKey sets the primary key for this record.
	SetKey(key string)
	// GetKey returns the primary key for this record.
	GetKey() string
}

// Store names. These are the logical object stores owned by the gateway.
const (
	StoreSettings        = "settings"
	StoreColors          = "colors"
	StoreNodePreferences = "nodePreferences"
	StoreLogs            = "logs"
	StoreSecure          = "secureStore"
	StoreProjects        = "projects"
	StoreProjectHistory  = "projectHistory"
	StoreOfflineQueue    = "offlineQueue"
	StoreCommits         = "commits"
)
