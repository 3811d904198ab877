package models

// ChangeType classifies a change within a diff or a version commit.
// Field-level diffs use added/modified/removed; version commits use
// added/modified/deleted.
type ChangeType string

const (
	ChangeAdded    ChangeType = "added"
	ChangeModified ChangeType = "modified"
	ChangeRemoved  ChangeType = "removed"
	ChangeDeleted  ChangeType = "deleted"
)

// FieldChange is one changed field between two content snapshots.
type FieldChange struct {
	Field      string     `json:"field"`
	Before     any        `json:"before,omitempty"`
	After      any        `json:"after,omitempty"`
	ChangeType ChangeType `json:"change_type"`
}

// DiffResult is the structural diff between two snapshots of one content
// item. Derived, never persisted.
type DiffResult struct {
	ContentID   string        `json:"content_id"`
	FromVersion int           `json:"from_version"`
	ToVersion   int           `json:"to_version"`
	ChangeCount int           `json:"change_count"`
	Changes     []FieldChange `json:"changes"`
	Summary     string        `json:"summary"`
}
