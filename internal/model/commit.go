package model

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// InitialVersion is the version given to a project's first commit.
const InitialVersion = "0.1.0"

// Commit is an immutable full snapshot of a project.
type Commit struct {
	ID        string    `json:"id"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
	Version   string    `json:"version"`
	Snapshot  *Project  `json:"snapshot"`
}

// CommitLog is the per-project append-only commit list.
type CommitLog struct {
	ProjectID       string   `json:"project_id"`
	Commits         []Commit `json:"commits"`
	CurrentCommitID string   `json:"current_commit_id,omitempty"`
}

// SetKey sets the project ID.
func (c *CommitLog) SetKey(key string) {
	c.ProjectID = key
}

// GetKey returns the project ID.
func (c *CommitLog) GetKey() string {
	return c.ProjectID
}

// Find returns the commit with the given ID.
func (c *CommitLog) Find(id string) (*Commit, bool) {
	for i := range c.Commits {
		if c.Commits[i].ID == id {
			return &c.Commits[i], true
		}
	}
	return nil, false
}

// Current resolves CurrentCommitID.
func (c *CommitLog) Current() (*Commit, bool) {
	if c == nil || c.CurrentCommitID == "" {
		return nil, false
	}
	return c.Find(c.CurrentCommitID)
}

// VersionLabel derives a version string (YYYY.M.D-HHMM) from t.
func VersionLabel(t time.Time) string {
	return fmt.Sprintf("%d.%d.%d-%02d%02d", t.Year(), int(t.Month()), t.Day(), t.Hour(), t.Minute())
}

// CompareVersions orders two version labels numerically, component by
// component, treating '.' and '-' as separators. Non-numeric components
// compare lexically. It returns -1, 0 or 1.
func CompareVersions(a, b string) int {
	split := func(s string) []string {
		return strings.FieldsFunc(s, func(r rune) bool { return r == '.' || r == '-' })
	}
	pa, pb := split(a), split(b)
	for i := 0; i < len(pa) || i < len(pb); i++ {
		if i >= len(pa) {
			return -1
		}
		if i >= len(pb) {
			return 1
		}
		na, errA := strconv.Atoi(pa[i])
		nb, errB := strconv.Atoi(pb[i])
		if errA == nil && errB == nil {
			if na != nb {
				if na < nb {
					return -1
				}
				return 1
			}
			continue
		}
		if c := strings.Compare(pa[i], pb[i]); c != 0 {
			return c
		}
	}
	return 0
}
