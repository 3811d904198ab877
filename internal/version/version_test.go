package version

import (
	"encoding/json"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tomsboren/aivc/internal/graph"
	"github.com/tomsboren/aivc/internal/models"
)

// newTestService creates a version service over a temp-dir store.
func newTestService(t *testing.T) *Service {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "versions.db")
	store, err := graph.Open(dbPath)
	require.NoError(t, err)
	require.NoError(t, store.Initialize())
	t.Cleanup(func() { store.Close() })
	return NewService(store, nil)
}

func change(contentID string, ct models.ChangeType) []models.VersionChange {
	return []models.VersionChange{{
		ContentID:   contentID,
		ContentType: "article",
		ChangeType:  ct,
	}}
}

func TestCreateVersion_ContiguousFromOne(t *testing.T) {
	s := newTestService(t)
	sess := NewSession()

	for i := 1; i <= 3; i++ {
		commit, err := s.CreateVersion(sess, change("c1", models.ChangeModified), "alice", "update")
		require.NoError(t, err)
		assert.Equal(t, i, commit.Version)
		assert.Equal(t, graph.DefaultBranch, commit.Branch)
		assert.Len(t, commit.CommitHash, 64)
	}
}

func TestCreateVersion_UpdatesBranchHead(t *testing.T) {
	s := newTestService(t)
	sess := NewSession()

	commit, err := s.CreateVersion(sess, change("c1", models.ChangeAdded), "alice", "first post")
	require.NoError(t, err)

	branches, err := s.ListBranches()
	require.NoError(t, err)
	require.Len(t, branches, 1)
	assert.Equal(t, "first post", branches[0].LastCommit)
	assert.Equal(t, commit.CommitHash, branches[0].LastCommitHash)
}

func TestCreateVersion_UnknownBranch(t *testing.T) {
	s := newTestService(t)
	sess := NewSessionAt("ghost")

	_, err := s.CreateVersion(sess, change("c1", models.ChangeAdded), "alice", "m")
	assert.Error(t, err)
}

func TestCreateVersion_NormalizesFilesChanged(t *testing.T) {
	s := newTestService(t)
	sess := NewSession()

	commit, err := s.CreateVersion(sess, change("c1", models.ChangeAdded), "alice", "m")
	require.NoError(t, err)
	require.Len(t, commit.Changes, 1)
	assert.NotNil(t, commit.Changes[0].FilesChanged)
	assert.Empty(t, commit.Changes[0].FilesChanged)
}

func TestCreateVersion_UniqueHashes(t *testing.T) {
	s := newTestService(t)
	sess := NewSession()

	seen := make(map[string]bool)
	for i := 0; i < 5; i++ {
		commit, err := s.CreateVersion(sess, change("c1", models.ChangeModified), "alice", "same message")
		require.NoError(t, err)
		assert.False(t, seen[commit.CommitHash])
		seen[commit.CommitHash] = true
	}
}

func TestCreateVersion_ConcurrentCommits(t *testing.T) {
	s := newTestService(t)

	const n = 16
	var wg sync.WaitGroup
	versions := make(chan int, n)
	errs := make(chan error, n)

	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			commit, err := s.CreateVersion(NewSession(), change("c1", models.ChangeModified), "alice", "racing")
			if err != nil {
				errs <- err
				return
			}
			versions <- commit.Version
		}()
	}
	wg.Wait()
	close(versions)
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}

	// Every commit claimed a distinct version and the sequence is contiguous.
	seen := make(map[int]bool, n)
	for v := range versions {
		assert.False(t, seen[v])
		seen[v] = true
	}
	require.Len(t, seen, n)
	for v := 1; v <= n; v++ {
		assert.True(t, seen[v])
	}
}

func TestHistory_FiltersAndOrder(t *testing.T) {
	s := newTestService(t)
	sess := NewSession()

	_, err := s.CreateVersion(sess, change("c1", models.ChangeAdded), "alice", "one")
	require.NoError(t, err)
	_, err = s.CreateVersion(sess, change("c2", models.ChangeAdded), "alice", "two")
	require.NoError(t, err)

	name, err := s.CreateAIBranch("gen-1", "t1")
	require.NoError(t, err)
	ok, err := s.Checkout(sess, name)
	require.NoError(t, err)
	require.True(t, ok)
	_, err = s.CreateVersion(sess, change("c1", models.ChangeModified), "gen-1", "three")
	require.NoError(t, err)

	// Unfiltered, newest first.
	commits, err := s.History("", "")
	require.NoError(t, err)
	require.Len(t, commits, 3)
	assert.Equal(t, "three", commits[0].Message)
	assert.Equal(t, "one", commits[2].Message)

	// By content.
	commits, err = s.History("c1", "")
	require.NoError(t, err)
	require.Len(t, commits, 2)

	// By branch.
	commits, err = s.History("", graph.DefaultBranch)
	require.NoError(t, err)
	require.Len(t, commits, 2)

	// Both.
	commits, err = s.History("c1", graph.DefaultBranch)
	require.NoError(t, err)
	require.Len(t, commits, 1)
	assert.Equal(t, "one", commits[0].Message)
}

func TestCompare(t *testing.T) {
	s := newTestService(t)
	sess := NewSession()

	_, err := s.CreateVersion(sess, change("c1", models.ChangeAdded), "alice", "v1")
	require.NoError(t, err)
	_, err = s.CreateVersion(sess, change("c1", models.ChangeModified), "alice", "v2")
	require.NoError(t, err)

	diff, err := s.Compare("c1", 1, 2)
	require.NoError(t, err)
	require.NotNil(t, diff)
	assert.Equal(t, 1, diff.FromVersion)
	assert.Equal(t, 2, diff.ToVersion)
	assert.Equal(t, []string{"c1"}, diff.Modified)
	assert.Equal(t, "Added: 0, Removed: 0, Modified: 1", diff.Summary)
}

func TestCompare_MissingVersion(t *testing.T) {
	s := newTestService(t)
	sess := NewSession()

	_, err := s.CreateVersion(sess, change("c1", models.ChangeAdded), "alice", "v1")
	require.NoError(t, err)

	diff, err := s.Compare("c1", 1, 9)
	require.NoError(t, err)
	assert.Nil(t, diff)

	diff, err = s.Compare("other", 1, 1)
	require.NoError(t, err)
	assert.Nil(t, diff)
}

func TestRollbackToVersion(t *testing.T) {
	s := newTestService(t)
	sess := NewSession()

	_, err := s.CreateVersion(sess, change("c1", models.ChangeAdded), "alice", "v1")
	require.NoError(t, err)
	_, err = s.CreateVersion(sess, change("c1", models.ChangeModified), "alice", "v2")
	require.NoError(t, err)

	commit, err := s.RollbackToVersion(sess, "c1", 1, "carol")
	require.NoError(t, err)
	require.NotNil(t, commit)

	// Forward-only: the rollback is a new third version.
	assert.Equal(t, 3, commit.Version)
	assert.Equal(t, "Rollback c1 to version 1", commit.Message)
	require.Len(t, commit.Changes, 1)
	assert.Equal(t, "rollback", commit.Changes[0].ContentType)
	assert.Equal(t, "Rollback to version 1", commit.Changes[0].ContentTitle)
	assert.Equal(t, models.ChangeModified, commit.Changes[0].ChangeType)
}

func TestRollbackToVersion_UnknownTarget(t *testing.T) {
	s := newTestService(t)
	sess := NewSession()

	_, err := s.CreateVersion(sess, change("c1", models.ChangeAdded), "alice", "v1")
	require.NoError(t, err)

	// No such version.
	commit, err := s.RollbackToVersion(sess, "c1", 5, "carol")
	require.NoError(t, err)
	assert.Nil(t, commit)

	// Version exists but for different content.
	commit, err = s.RollbackToVersion(sess, "c2", 1, "carol")
	require.NoError(t, err)
	assert.Nil(t, commit)
}

func TestCreateAIBranch(t *testing.T) {
	s := newTestService(t)

	name, err := s.CreateAIBranch("agentX", "task7")
	require.NoError(t, err)
	assert.Equal(t, "ai/agentX/task7", name)

	branches, err := s.ListBranches()
	require.NoError(t, err)
	require.Len(t, branches, 2)
	assert.Equal(t, "ai/agentX/task7", branches[0].Name)
	assert.Equal(t, "agentX", branches[0].CreatedBy)
}

func TestCheckout(t *testing.T) {
	s := newTestService(t)
	sess := NewSession()

	name, err := s.CreateAIBranch("gen-1", "t1")
	require.NoError(t, err)

	ok, err := s.Checkout(sess, name)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, name, sess.Branch())

	ok, err = s.Checkout(sess, "nope")
	require.NoError(t, err)
	assert.False(t, ok)
	// A failed checkout leaves the session in place.
	assert.Equal(t, name, sess.Branch())
}

func TestDeleteBranch(t *testing.T) {
	s := newTestService(t)
	sess := NewSession()

	// The default branch can never be deleted.
	ok, err := s.DeleteBranch(sess, graph.DefaultBranch)
	require.NoError(t, err)
	assert.False(t, ok)

	name, err := s.CreateAIBranch("gen-1", "t1")
	require.NoError(t, err)
	ok, err = s.Checkout(sess, name)
	require.NoError(t, err)
	require.True(t, ok)

	// Deleting the current branch moves the session back to main.
	ok, err = s.DeleteBranch(sess, name)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, graph.DefaultBranch, sess.Branch())

	ok, err = s.DeleteBranch(sess, name)
	require.NoError(t, err)
	assert.False(t, ok)
}

func setupMergeBranch(t *testing.T, s *Service) string {
	t.Helper()
	name, err := s.CreateAIBranch("gen-1", "t1")
	require.NoError(t, err)

	work := NewSessionAt(name)
	_, err = s.CreateVersion(work, change("c1", models.ChangeAdded), "gen-1", "draft")
	require.NoError(t, err)
	_, err = s.CreateVersion(work, change("c2", models.ChangeAdded), "gen-1", "expand")
	require.NoError(t, err)
	return name
}

func TestMerge_Squash(t *testing.T) {
	s := newTestService(t)
	name := setupMergeBranch(t, s)

	result, err := s.Merge(name, graph.DefaultBranch, models.MergeSquash, "alice")
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, 1, result.CommitsCreated)
	assert.Equal(t, models.MergeSquash, result.Strategy)
	assert.NotEmpty(t, result.CommitHash)

	// One target commit carrying both changes.
	commits, err := s.History("", graph.DefaultBranch)
	require.NoError(t, err)
	require.Len(t, commits, 1)
	assert.Equal(t, 1, commits[0].Version)
	assert.Len(t, commits[0].Changes, 2)
	assert.Equal(t, "Squash merge "+name+" into main", commits[0].Message)

	// The source branch pointer is gone.
	exists := false
	branches, err := s.ListBranches()
	require.NoError(t, err)
	for _, b := range branches {
		if b.Name == name {
			exists = true
		}
	}
	assert.False(t, exists)
}

func TestMerge_Rebase(t *testing.T) {
	s := newTestService(t)
	name := setupMergeBranch(t, s)

	result, err := s.Merge(name, graph.DefaultBranch, models.MergeRebase, "alice")
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, 2, result.CommitsCreated)

	commits, err := s.History("", graph.DefaultBranch)
	require.NoError(t, err)
	require.Len(t, commits, 2)

	for _, c := range commits {
		// Every replayed change is re-tagged as a modification.
		for _, ch := range c.Changes {
			assert.Equal(t, models.ChangeModified, ch.ChangeType)
		}
	}
	// Source messages survive with a rebase prefix, in order.
	assert.Equal(t, "Rebase: expand", commits[0].Message)
	assert.Equal(t, "Rebase: draft", commits[1].Message)
}

func TestMerge_LatestOnly(t *testing.T) {
	s := newTestService(t)
	name := setupMergeBranch(t, s)

	result, err := s.Merge(name, graph.DefaultBranch, models.MergeMerge, "alice")
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, 1, result.CommitsCreated)

	commits, err := s.History("", graph.DefaultBranch)
	require.NoError(t, err)
	require.Len(t, commits, 1)
	// Only the latest source commit's changes land.
	require.Len(t, commits[0].Changes, 1)
	assert.Equal(t, "c2", commits[0].Changes[0].ContentID)
}

func TestMerge_KeepsDefaultSource(t *testing.T) {
	s := newTestService(t)
	sess := NewSession()

	_, err := s.CreateVersion(sess, change("c1", models.ChangeAdded), "alice", "v1")
	require.NoError(t, err)
	name, err := s.CreateAIBranch("gen-1", "t1")
	require.NoError(t, err)

	result, err := s.Merge(graph.DefaultBranch, name, models.MergeSquash, "alice")
	require.NoError(t, err)
	assert.True(t, result.Success)

	// The default branch survives being a merge source.
	exists, err := s.store.BranchExists(graph.DefaultBranch)
	require.NoError(t, err)
	assert.True(t, exists)

	commits, err := s.History("", name)
	require.NoError(t, err)
	require.Len(t, commits, 1)
	assert.Equal(t, "Squash merge main into "+name, commits[0].Message)
}

func TestMerge_SelfMergeKeepsBranch(t *testing.T) {
	s := newTestService(t)
	name := setupMergeBranch(t, s)

	result, err := s.Merge(name, name, models.MergeSquash, "gen-1")
	require.NoError(t, err)
	assert.True(t, result.Success)

	exists, err := s.store.BranchExists(name)
	require.NoError(t, err)
	assert.True(t, exists)

	commits, err := s.History("", name)
	require.NoError(t, err)
	assert.Len(t, commits, 3)
}

func TestMerge_EmptySource(t *testing.T) {
	s := newTestService(t)

	name, err := s.CreateAIBranch("gen-1", "t1")
	require.NoError(t, err)

	result, err := s.Merge(name, graph.DefaultBranch, models.MergeSquash, "alice")
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, 0, result.CommitsCreated)

	// A failed merge keeps the source branch.
	exists, err := s.store.BranchExists(name)
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestMerge_UnknownStrategy(t *testing.T) {
	s := newTestService(t)
	name := setupMergeBranch(t, s)

	_, err := s.Merge(name, graph.DefaultBranch, "octopus", "alice")
	assert.Error(t, err)
}

func TestVersionDetails(t *testing.T) {
	s := newTestService(t)
	sess := NewSession()

	_, err := s.CreateVersion(sess, change("c1", models.ChangeAdded), "alice", "v1")
	require.NoError(t, err)

	commit, err := s.VersionDetails(1)
	require.NoError(t, err)
	require.NotNil(t, commit)
	assert.Equal(t, "v1", commit.Message)

	commit, err = s.VersionDetails(9)
	require.NoError(t, err)
	assert.Nil(t, commit)
}

func TestContentVersions(t *testing.T) {
	s := newTestService(t)
	sess := NewSession()

	_, err := s.CreateVersion(sess, change("c1", models.ChangeAdded), "alice", "v1")
	require.NoError(t, err)
	_, err = s.CreateVersion(sess, change("c2", models.ChangeAdded), "alice", "v2")
	require.NoError(t, err)
	_, err = s.CreateVersion(sess, change("c1", models.ChangeModified), "alice", "v3")
	require.NoError(t, err)

	commits, err := s.ContentVersions("c1")
	require.NoError(t, err)
	require.Len(t, commits, 2)
	// Highest version first.
	assert.Equal(t, 3, commits[0].Version)
	assert.Equal(t, 1, commits[1].Version)
}

func TestSearch(t *testing.T) {
	s := newTestService(t)
	sess := NewSession()

	_, err := s.CreateVersion(sess, change("c1", models.ChangeAdded), "alice", "Add intro")
	require.NoError(t, err)
	_, err = s.CreateVersion(sess, change("c2", models.ChangeModified), "bob", "Fix typo")
	require.NoError(t, err)

	commits, err := s.Search(&models.VersionSearch{Author: "ali"})
	require.NoError(t, err)
	require.Len(t, commits, 1)
	assert.Equal(t, "Add intro", commits[0].Message)

	commits, err = s.Search(&models.VersionSearch{Message: "typo"})
	require.NoError(t, err)
	require.Len(t, commits, 1)
	assert.Equal(t, "bob", commits[0].Author)

	commits, err = s.Search(&models.VersionSearch{ChangeType: models.ChangeAdded})
	require.NoError(t, err)
	require.Len(t, commits, 1)

	commits, err = s.Search(nil)
	require.NoError(t, err)
	assert.Len(t, commits, 2)
}

func TestExport(t *testing.T) {
	s := newTestService(t)
	sess := NewSession()

	_, err := s.CreateVersion(sess, change("c1", models.ChangeAdded), "alice", "v1")
	require.NoError(t, err)

	out, err := s.Export(FormatStructured)
	require.NoError(t, err)

	var commits []*models.VersionCommit
	require.NoError(t, json.Unmarshal([]byte(out), &commits))
	require.Len(t, commits, 1)
	assert.Equal(t, "v1", commits[0].Message)

	out, err = s.Export(FormatTabular)
	require.NoError(t, err)
	assert.Contains(t, out, "VERSION")
	assert.Contains(t, out, "alice")

	// Empty format defaults to structured.
	out, err = s.Export("")
	require.NoError(t, err)
	assert.Contains(t, out, "\"version\": 1")

	_, err = s.Export("csv")
	assert.Error(t, err)
}
