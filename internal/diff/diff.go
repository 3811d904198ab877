// Package diff computes structural diffs between keyed content snapshots.
package diff

import (
	"fmt"
	"sort"
	"strings"

	"github.com/tomsboren/aivc/internal/digest"
	"github.com/tomsboren/aivc/internal/models"
)

// Compute diffs two snapshots of one content item. A key absent in before
// is added, absent in after is removed, present in both with different
// canonical serializations is modified; equal keys are omitted. Entries are
// ordered by field name.
func Compute(contentID string, before, after map[string]any) *models.DiffResult {
	keys := make([]string, 0, len(before)+len(after))
	seen := make(map[string]bool, len(before)+len(after))
	for k := range before {
		if !seen[k] {
			seen[k] = true
			keys = append(keys, k)
		}
	}
	for k := range after {
		if !seen[k] {
			seen[k] = true
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	changes := make([]models.FieldChange, 0, len(keys))
	for _, key := range keys {
		beforeVal, inBefore := before[key]
		afterVal, inAfter := after[key]

		switch {
		case !inBefore:
			changes = append(changes, models.FieldChange{
				Field:      key,
				After:      afterVal,
				ChangeType: models.ChangeAdded,
			})
		case !inAfter:
			changes = append(changes, models.FieldChange{
				Field:      key,
				Before:     beforeVal,
				ChangeType: models.ChangeRemoved,
			})
		default:
			if !digest.Equal(beforeVal, afterVal) {
				changes = append(changes, models.FieldChange{
					Field:      key,
					Before:     beforeVal,
					After:      afterVal,
					ChangeType: models.ChangeModified,
				})
			}
		}
	}

	return &models.DiffResult{
		ContentID:   contentID,
		FromVersion: snapshotVersion(before, 0),
		ToVersion:   snapshotVersion(after, 1),
		ChangeCount: len(changes),
		Changes:     changes,
		Summary:     Summarize(changes),
	}
}

// Summarize renders change counts as "+N new, ~M modified, -K removed",
// omitting zero categories.
func Summarize(changes []models.FieldChange) string {
	var added, modified, removed int
	for _, c := range changes {
		switch c.ChangeType {
		case models.ChangeAdded:
			added++
		case models.ChangeModified:
			modified++
		case models.ChangeRemoved:
			removed++
		}
	}

	var parts []string
	if added > 0 {
		parts = append(parts, fmt.Sprintf("+%d new", added))
	}
	if modified > 0 {
		parts = append(parts, fmt.Sprintf("~%d modified", modified))
	}
	if removed > 0 {
		parts = append(parts, fmt.Sprintf("-%d removed", removed))
	}
	return strings.Join(parts, ", ")
}

// snapshotVersion reads a numeric "version" field from a snapshot.
func snapshotVersion(snapshot map[string]any, fallback int) int {
	switch v := snapshot["version"].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	}
	return fallback
}
