package models

// MergeStrategy selects how a source branch's commits land on the target.
type MergeStrategy string

const (
	// MergeSquash flattens all source commits into one commit on the target.
	MergeSquash MergeStrategy = "squash"
	// MergeRebase replays each source commit individually on the target,
	// re-tagging every change as modified.
	MergeRebase MergeStrategy = "rebase"
	// MergeMerge carries forward only the latest source commit's changes.
	MergeMerge MergeStrategy = "merge"
)

// MergeResult is the outcome of merging a branch. A successful merge
// deletes the source branch pointer; its commits remain in history.
type MergeResult struct {
	Success        bool          `json:"success"`
	CommitHash     string        `json:"commit_hash,omitempty"`
	CommitsCreated int           `json:"commits_created"`
	Strategy       MergeStrategy `json:"merge_strategy"`
}

// VersionDiff compares how one content item stands between two versions.
type VersionDiff struct {
	FromVersion int      `json:"from_version"`
	ToVersion   int      `json:"to_version"`
	ContentID   string   `json:"content_id"`
	Added       []string `json:"added"`
	Removed     []string `json:"removed"`
	Modified    []string `json:"modified"`
	Summary     string   `json:"summary"`
}
