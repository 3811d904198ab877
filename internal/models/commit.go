package models

import "time"

// VersionChange describes how one content item changed in a commit.
type VersionChange struct {
	ContentID    string     `json:"content_id"`
	ContentType  string     `json:"content_type"`
	ContentTitle string     `json:"content_title"`
	ChangeType   ChangeType `json:"change_type"`
	FilesChanged []string   `json:"files_changed"`
}

// VersionCommit is one immutable entry in a branch's history. Version
// numbers are branch-scoped, contiguous, and start at 1; CommitHash is
// unique across the whole graph.
type VersionCommit struct {
	Version    int             `json:"version"`
	CommitHash string          `json:"commit_hash"`
	Branch     string          `json:"branch"`
	Author     string          `json:"author"`
	Timestamp  time.Time       `json:"timestamp"`
	Message    string          `json:"message"`
	Changes    []VersionChange `json:"changes"`
}

// ShortHash returns a shortened commit hash (first 7 characters).
func (c *VersionCommit) ShortHash() string {
	if len(c.CommitHash) > 7 {
		return c.CommitHash[:7]
	}
	return c.CommitHash
}

// Touches reports whether the commit includes a change to the given content.
func (c *VersionCommit) Touches(contentID string) bool {
	for _, ch := range c.Changes {
		if ch.ContentID == contentID {
			return true
		}
	}
	return false
}

// ChangeFor returns the commit's change entry for the given content, or nil.
func (c *VersionCommit) ChangeFor(contentID string) *VersionChange {
	for i := range c.Changes {
		if c.Changes[i].ContentID == contentID {
			return &c.Changes[i]
		}
	}
	return nil
}
