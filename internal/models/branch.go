package models

import "time"

// Branch is a named, independent line of version history. The branch named
// "main" is the permanent default and may never be deleted.
type Branch struct {
	Name           string    `json:"name"`
	IsDefault      bool      `json:"is_default"`
	LastCommit     string    `json:"last_commit"`
	LastCommitHash string    `json:"last_commit_hash"`
	CreatedAt      time.Time `json:"created_at"`
	CreatedBy      string    `json:"created_by"`
}
