// Package version implements the branch/commit version graph for content
// identifiers: per-branch monotonic version numbers, branch lifecycle, diffs
// between versions, and three merge strategies. History is forward-only;
// rollback and merge create new commits and never delete old ones.
package version

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"go.uber.org/zap"

	"github.com/tomsboren/aivc/internal/digest"
	"github.com/tomsboren/aivc/internal/graph"
	"github.com/tomsboren/aivc/internal/models"
)

// Export formats understood by Export.
const (
	FormatStructured = "structured"
	FormatTabular    = "tabular"
)

// Session carries one caller's current-branch state. Each concurrent caller
// holds its own session so a checkout never moves another caller's branch.
type Session struct {
	branch string
}

// NewSession starts a session on the default branch.
func NewSession() *Session {
	return &Session{branch: graph.DefaultBranch}
}

// NewSessionAt starts a session on the given branch.
func NewSessionAt(branch string) *Session {
	if branch == "" {
		branch = graph.DefaultBranch
	}
	return &Session{branch: branch}
}

// Branch returns the session's current branch.
func (s *Session) Branch() string {
	return s.branch
}

// Service is the version graph, constructed once per process around a
// shared store and passed by handle.
type Service struct {
	store  *graph.Store
	logger *zap.Logger

	// mu makes version allocation and commit append one critical section
	// so concurrent commits on a branch cannot claim the same version.
	mu sync.Mutex
}

// NewService creates a version service over the given store.
func NewService(store *graph.Store, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, logger: logger}
}

// CreateVersion commits the given changes to the session's current branch,
// allocating the next version number on that branch.
func (s *Service) CreateVersion(sess *Session, changes []models.VersionChange, author, message string) (*models.VersionCommit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.commitLocked(sess.Branch(), changes, author, message)
}

// commitLocked appends one commit to a branch. Callers hold s.mu.
func (s *Service) commitLocked(branch string, changes []models.VersionChange, author, message string) (*models.VersionCommit, error) {
	exists, err := s.store.BranchExists(branch)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, fmt.Errorf("branch not found: %s", branch)
	}

	max, err := s.store.MaxVersion(branch)
	if err != nil {
		return nil, err
	}

	normalized := make([]models.VersionChange, len(changes))
	for i, c := range changes {
		if c.FilesChanged == nil {
			c.FilesChanged = []string{}
		}
		normalized[i] = c
	}

	commit := &models.VersionCommit{
		Version:   max + 1,
		Branch:    branch,
		Author:    author,
		Timestamp: time.Now().UTC(),
		Message:   message,
		Changes:   normalized,
	}
	commit.CommitHash = commitHash(commit)

	if err := s.store.AppendCommit(commit); err != nil {
		return nil, err
	}
	if err := s.store.SetBranchHead(branch, message, commit.CommitHash); err != nil {
		return nil, err
	}

	s.logger.Debug("version created",
		zap.String("branch", branch),
		zap.Int("version", commit.Version),
		zap.String("commit", commit.ShortHash()))

	return commit, nil
}

// commitHash generates a content-addressed hash over the commit fields.
func commitHash(c *models.VersionCommit) string {
	data := fmt.Sprintf("%s|%d|%s|%s|%s|%s",
		c.Branch, c.Version, c.Author,
		c.Timestamp.Format(time.RFC3339Nano), c.Message,
		digest.Hash(c.Changes))
	sum := sha256.Sum256([]byte(data))
	return hex.EncodeToString(sum[:])
}

// History returns commits, optionally filtered to those touching a content
// ID and/or on a branch, newest first.
func (s *Service) History(contentID, branch string) ([]*models.VersionCommit, error) {
	commits, err := s.store.AllCommits()
	if err != nil {
		return nil, err
	}

	filtered := commits[:0]
	for _, c := range commits {
		if contentID != "" && !c.Touches(contentID) {
			continue
		}
		if branch != "" && c.Branch != branch {
			continue
		}
		filtered = append(filtered, c)
	}

	sort.Slice(filtered, func(i, j int) bool {
		if !filtered[i].Timestamp.Equal(filtered[j].Timestamp) {
			return filtered[i].Timestamp.After(filtered[j].Timestamp)
		}
		return filtered[i].Version > filtered[j].Version
	})
	return filtered, nil
}

// Compare diffs one content item between two versions. Returns (nil, nil)
// when either version has no commit touching the content.
func (s *Service) Compare(contentID string, fromVersion, toVersion int) (*models.VersionDiff, error) {
	commits, err := s.store.AllCommits()
	if err != nil {
		return nil, err
	}

	fromCommit := findVersion(commits, contentID, fromVersion)
	toCommit := findVersion(commits, contentID, toVersion)
	if fromCommit == nil || toCommit == nil {
		return nil, nil
	}

	fromChange := fromCommit.ChangeFor(contentID)
	toChange := toCommit.ChangeFor(contentID)

	diff := &models.VersionDiff{
		FromVersion: fromVersion,
		ToVersion:   toVersion,
		ContentID:   contentID,
		Added:       []string{},
		Removed:     []string{},
		Modified:    []string{},
	}

	switch {
	case toChange != nil && fromChange == nil:
		diff.Added = append(diff.Added, contentID)
	case toChange == nil && fromChange != nil:
		diff.Removed = append(diff.Removed, contentID)
	case fromChange != nil && toChange != nil && fromChange.ChangeType != toChange.ChangeType:
		diff.Modified = append(diff.Modified, contentID)
	}

	diff.Summary = fmt.Sprintf("Added: %d, Removed: %d, Modified: %d",
		len(diff.Added), len(diff.Removed), len(diff.Modified))
	return diff, nil
}

// RollbackToVersion creates a forward-only commit on the session's branch
// referencing the target version. Returns (nil, nil) when no commit at the
// target version touches the content.
func (s *Service) RollbackToVersion(sess *Session, contentID string, targetVersion int, operator string) (*models.VersionCommit, error) {
	commits, err := s.store.AllCommits()
	if err != nil {
		return nil, err
	}
	if findVersion(commits, contentID, targetVersion) == nil {
		return nil, nil
	}

	changes := []models.VersionChange{{
		ContentID:    contentID,
		ContentType:  "rollback",
		ContentTitle: fmt.Sprintf("Rollback to version %d", targetVersion),
		ChangeType:   models.ChangeModified,
	}}
	message := fmt.Sprintf("Rollback %s to version %d", contentID, targetVersion)

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.commitLocked(sess.Branch(), changes, operator, message)
}

// CreateAIBranch registers a branch named deterministically from the agent
// and task identifiers and returns its name.
func (s *Service) CreateAIBranch(agentID, taskID string) (string, error) {
	name := fmt.Sprintf("ai/%s/%s", agentID, taskID)
	branch := &models.Branch{
		Name:      name,
		CreatedAt: time.Now().UTC(),
		CreatedBy: agentID,
	}
	if err := s.store.CreateBranch(branch); err != nil {
		return "", err
	}
	return name, nil
}

// Checkout moves the session to the named branch. Returns false if the
// branch is unknown.
func (s *Service) Checkout(sess *Session, name string) (bool, error) {
	exists, err := s.store.BranchExists(name)
	if err != nil {
		return false, err
	}
	if !exists {
		return false, nil
	}
	sess.branch = name
	return true, nil
}

// ListBranches returns all registered branches.
func (s *Service) ListBranches() ([]*models.Branch, error) {
	return s.store.ListBranches()
}

// DeleteBranch removes a branch pointer. Deleting the default branch
// always fails; deleting the session's current branch resets the session
// to the default.
func (s *Service) DeleteBranch(sess *Session, name string) (bool, error) {
	if name == graph.DefaultBranch {
		return false, nil
	}

	deleted, err := s.store.DeleteBranch(name)
	if err != nil {
		return false, err
	}
	if deleted && sess != nil && sess.branch == name {
		sess.branch = graph.DefaultBranch
	}
	return deleted, nil
}

// Merge lands a source branch's commits on the target branch using the
// given strategy and deletes the source branch pointer on success. The
// default branch is never deleted, nor is the source of a self-merge. A
// source with no commits fails without any state change.
func (s *Service) Merge(source, target string, strategy models.MergeStrategy, author string) (*models.MergeResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sourceCommits, err := s.store.CommitsOnBranch(source)
	if err != nil {
		return nil, err
	}
	if len(sourceCommits) == 0 {
		return &models.MergeResult{Success: false, Strategy: strategy}, nil
	}

	var last *models.VersionCommit
	var created int

	switch strategy {
	case models.MergeSquash:
		var combined []models.VersionChange
		for _, c := range sourceCommits {
			combined = append(combined, c.Changes...)
		}
		message := fmt.Sprintf("Squash merge %s into %s", source, target)
		last, err = s.commitLocked(target, combined, author, message)
		if err != nil {
			return nil, err
		}
		created = 1

	case models.MergeRebase:
		for _, c := range sourceCommits {
			replayed := make([]models.VersionChange, len(c.Changes))
			for i, ch := range c.Changes {
				ch.ChangeType = models.ChangeModified
				replayed[i] = ch
			}
			last, err = s.commitLocked(target, replayed, author, "Rebase: "+c.Message)
			if err != nil {
				return nil, err
			}
			created++
		}

	case models.MergeMerge:
		latest := sourceCommits[len(sourceCommits)-1]
		message := fmt.Sprintf("Merge %s into %s", source, target)
		last, err = s.commitLocked(target, latest.Changes, author, message)
		if err != nil {
			return nil, err
		}
		created = 1

	default:
		return nil, fmt.Errorf("unknown merge strategy: %s", strategy)
	}

	if source != target && source != graph.DefaultBranch {
		if _, err := s.store.DeleteBranch(source); err != nil {
			return nil, err
		}
	}

	s.logger.Info("branch merged",
		zap.String("source", source),
		zap.String("target", target),
		zap.String("strategy", string(strategy)),
		zap.Int("commits", created))

	return &models.MergeResult{
		Success:        true,
		CommitHash:     last.CommitHash,
		CommitsCreated: created,
		Strategy:       strategy,
	}, nil
}

// VersionDetails returns the first commit carrying the given version
// number, or (nil, nil).
func (s *Service) VersionDetails(version int) (*models.VersionCommit, error) {
	commits, err := s.store.AllCommits()
	if err != nil {
		return nil, err
	}
	for _, c := range commits {
		if c.Version == version {
			return c, nil
		}
	}
	return nil, nil
}

// ContentVersions returns every commit touching a content item, highest
// version first.
func (s *Service) ContentVersions(contentID string) ([]*models.VersionCommit, error) {
	commits, err := s.store.AllCommits()
	if err != nil {
		return nil, err
	}

	filtered := commits[:0]
	for _, c := range commits {
		if c.Touches(contentID) {
			filtered = append(filtered, c)
		}
	}
	sort.Slice(filtered, func(i, j int) bool {
		return filtered[i].Version > filtered[j].Version
	})
	return filtered, nil
}

// Search filters the commit history by author/message substring, time
// range, and change type, newest first.
func (s *Service) Search(q *models.VersionSearch) ([]*models.VersionCommit, error) {
	if q == nil {
		q = &models.VersionSearch{}
	}

	commits, err := s.store.AllCommits()
	if err != nil {
		return nil, err
	}

	filtered := commits[:0]
	for _, c := range commits {
		if q.Author != "" && !strings.Contains(c.Author, q.Author) {
			continue
		}
		if q.Message != "" && !strings.Contains(c.Message, q.Message) {
			continue
		}
		if q.StartDate != nil && c.Timestamp.Before(*q.StartDate) {
			continue
		}
		if q.EndDate != nil && c.Timestamp.After(*q.EndDate) {
			continue
		}
		if q.ChangeType != "" {
			match := false
			for _, ch := range c.Changes {
				if ch.ChangeType == q.ChangeType {
					match = true
					break
				}
			}
			if !match {
				continue
			}
		}
		filtered = append(filtered, c)
	}

	sort.Slice(filtered, func(i, j int) bool {
		return filtered[i].Timestamp.After(filtered[j].Timestamp)
	})
	return filtered, nil
}

// Export renders the full version history. "structured" produces indented
// JSON; "tabular" produces a rendered table.
func (s *Service) Export(format string) (string, error) {
	commits, err := s.History("", "")
	if err != nil {
		return "", err
	}

	switch format {
	case "", FormatStructured:
		data, err := json.MarshalIndent(commits, "", "  ")
		if err != nil {
			return "", fmt.Errorf("marshal history: %w", err)
		}
		return string(data), nil

	case FormatTabular:
		tw := table.NewWriter()
		tw.AppendHeader(table.Row{"Version", "Commit", "Branch", "Author", "Timestamp", "Message"})
		for _, c := range commits {
			tw.AppendRow(table.Row{
				c.Version,
				c.ShortHash(),
				c.Branch,
				c.Author,
				c.Timestamp.Format(time.RFC3339),
				c.Message,
			})
		}
		return tw.Render(), nil

	default:
		return "", fmt.Errorf("unsupported export format: %s", format)
	}
}

// findVersion locates the first commit at the given version that touches
// the content.
func findVersion(commits []*models.VersionCommit, contentID string, version int) *models.VersionCommit {
	for _, c := range commits {
		if c.Version == version && c.Touches(contentID) {
			return c
		}
	}
	return nil
}
