// Package graph provides bbolt-based persistence for the version graph:
// branches, per-branch commit sequences, and the current-branch pointer.
// Commits are stored under keys that order by (branch, version) so a
// branch's history reads back in version order.
package graph

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/tomsboren/aivc/internal/models"
)

// Bucket names used by the version graph store.
var (
	bucketBranches  = []byte("branches")
	bucketCommits   = []byte("commits")
	bucketCommitIdx = []byte("commit_index") // commit hash -> commit key
	bucketKV        = []byte("kv")
)

// DefaultBranch is the permanent default branch.
const DefaultBranch = "main"

const currentBranchKey = "CURRENT_BRANCH"

// Store is the bbolt database behind the version graph.
type Store struct {
	db *bolt.DB
}

// Open opens or creates a bbolt database at the given path.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Initialize creates all buckets and seeds the default branch.
func (s *Store) Initialize() error {
	return s.db.Update(func(tx *bolt.Tx) error {
		for _, name := range [][]byte{bucketBranches, bucketCommits, bucketCommitIdx, bucketKV} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return fmt.Errorf("create bucket %s: %w", name, err)
			}
		}

		branches := tx.Bucket(bucketBranches)
		if branches.Get([]byte(DefaultBranch)) == nil {
			main := &models.Branch{
				Name:      DefaultBranch,
				IsDefault: true,
				CreatedAt: time.Now().UTC(),
				CreatedBy: "system",
			}
			data, err := json.Marshal(main)
			if err != nil {
				return fmt.Errorf("marshal default branch: %w", err)
			}
			if err := branches.Put([]byte(DefaultBranch), data); err != nil {
				return err
			}
		}

		kv := tx.Bucket(bucketKV)
		if kv.Get([]byte(currentBranchKey)) == nil {
			return kv.Put([]byte(currentBranchKey), []byte(DefaultBranch))
		}
		return nil
	})
}

// commitKey builds a key ordering by (branch, version). Branch names never
// contain NUL, so the separator keeps prefixes unambiguous.
func commitKey(branch string, version int) []byte {
	key := make([]byte, 0, len(branch)+9)
	key = append(key, branch...)
	key = append(key, 0)
	var v [8]byte
	binary.BigEndian.PutUint64(v[:], uint64(version))
	return append(key, v[:]...)
}

func branchPrefix(branch string) []byte {
	prefix := make([]byte, 0, len(branch)+1)
	prefix = append(prefix, branch...)
	return append(prefix, 0)
}

// CreateBranch stores a branch record, overwriting an existing entry of
// the same name.
func (s *Store) CreateBranch(branch *models.Branch) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		data, err := json.Marshal(branch)
		if err != nil {
			return fmt.Errorf("marshal branch: %w", err)
		}
		return tx.Bucket(bucketBranches).Put([]byte(branch.Name), data)
	})
}

// GetBranch retrieves a branch by name. Returns (nil, nil) if not found.
func (s *Store) GetBranch(name string) (*models.Branch, error) {
	var branch *models.Branch

	err := s.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(bucketBranches).Get([]byte(name))
		if data == nil {
			return nil
		}
		branch = &models.Branch{}
		return json.Unmarshal(data, branch)
	})
	if err != nil {
		return nil, err
	}
	return branch, nil
}

// ListBranches returns all branches sorted by name.
func (s *Store) ListBranches() ([]*models.Branch, error) {
	var branches []*models.Branch

	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketBranches).ForEach(func(k, v []byte) error {
			var branch models.Branch
			if err := json.Unmarshal(v, &branch); err != nil {
				return fmt.Errorf("unmarshal branch: %w", err)
			}
			branches = append(branches, &branch)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(branches, func(i, j int) bool {
		return branches[i].Name < branches[j].Name
	})
	return branches, nil
}

// BranchExists checks if a branch with the given name exists.
func (s *Store) BranchExists(name string) (bool, error) {
	var exists bool
	err := s.db.View(func(tx *bolt.Tx) error {
		exists = tx.Bucket(bucketBranches).Get([]byte(name)) != nil
		return nil
	})
	return exists, err
}

// DeleteBranch removes a branch pointer. The branch's commits stay in
// history. Returns false if the branch does not exist.
func (s *Store) DeleteBranch(name string) (bool, error) {
	var deleted bool
	err := s.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(bucketBranches)
		if bucket.Get([]byte(name)) == nil {
			return nil
		}
		deleted = true
		return bucket.Delete([]byte(name))
	})
	return deleted, err
}

// SetBranchHead updates a branch's last-commit fields.
func (s *Store) SetBranchHead(name, message, commitHash string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(bucketBranches)
		data := bucket.Get([]byte(name))
		if data == nil {
			return fmt.Errorf("branch not found: %s", name)
		}

		var branch models.Branch
		if err := json.Unmarshal(data, &branch); err != nil {
			return fmt.Errorf("unmarshal branch: %w", err)
		}
		branch.LastCommit = message
		branch.LastCommitHash = commitHash

		updated, err := json.Marshal(&branch)
		if err != nil {
			return fmt.Errorf("marshal branch: %w", err)
		}
		return bucket.Put([]byte(name), updated)
	})
}

// AppendCommit stores a new commit. Commit hashes are unique across the
// whole graph and a (branch, version) slot is written at most once.
func (s *Store) AppendCommit(commit *models.VersionCommit) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		idx := tx.Bucket(bucketCommitIdx)
		if idx.Get([]byte(commit.CommitHash)) != nil {
			return fmt.Errorf("commit hash already exists: %s", commit.CommitHash)
		}

		key := commitKey(commit.Branch, commit.Version)
		commits := tx.Bucket(bucketCommits)
		if commits.Get(key) != nil {
			return fmt.Errorf("version %d already exists on branch %s", commit.Version, commit.Branch)
		}

		data, err := json.Marshal(commit)
		if err != nil {
			return fmt.Errorf("marshal commit: %w", err)
		}
		if err := commits.Put(key, data); err != nil {
			return err
		}
		return idx.Put([]byte(commit.CommitHash), key)
	})
}

// CommitsOnBranch returns a branch's commits in ascending version order.
func (s *Store) CommitsOnBranch(branch string) ([]*models.VersionCommit, error) {
	var commits []*models.VersionCommit

	err := s.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(bucketCommits).Cursor()
		prefix := branchPrefix(branch)
		for k, v := c.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, v = c.Next() {
			var commit models.VersionCommit
			if err := json.Unmarshal(v, &commit); err != nil {
				return fmt.Errorf("unmarshal commit: %w", err)
			}
			commits = append(commits, &commit)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return commits, nil
}

// AllCommits returns every commit in the graph.
func (s *Store) AllCommits() ([]*models.VersionCommit, error) {
	var commits []*models.VersionCommit

	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketCommits).ForEach(func(k, v []byte) error {
			var commit models.VersionCommit
			if err := json.Unmarshal(v, &commit); err != nil {
				return fmt.Errorf("unmarshal commit: %w", err)
			}
			commits = append(commits, &commit)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return commits, nil
}

// MaxVersion returns the highest committed version on a branch, or 0 if
// the branch has no commits.
func (s *Store) MaxVersion(branch string) (int, error) {
	var max int

	err := s.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(bucketCommits).Cursor()
		prefix := branchPrefix(branch)
		for k, _ := c.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, _ = c.Next() {
			version := int(binary.BigEndian.Uint64(k[len(prefix):]))
			if version > max {
				max = version
			}
		}
		return nil
	})
	return max, err
}

// GetCommitByHash retrieves a commit by hash. Returns (nil, nil) if not
// found.
func (s *Store) GetCommitByHash(hash string) (*models.VersionCommit, error) {
	var commit *models.VersionCommit

	err := s.db.View(func(tx *bolt.Tx) error {
		key := tx.Bucket(bucketCommitIdx).Get([]byte(hash))
		if key == nil {
			return nil
		}
		data := tx.Bucket(bucketCommits).Get(key)
		if data == nil {
			return nil
		}
		commit = &models.VersionCommit{}
		return json.Unmarshal(data, commit)
	})
	if err != nil {
		return nil, err
	}
	return commit, nil
}

// CurrentBranch retrieves the persisted current-branch pointer.
func (s *Store) CurrentBranch() (string, error) {
	branch := DefaultBranch

	err := s.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(bucketKV).Get([]byte(currentBranchKey))
		if len(data) > 0 {
			branch = string(data)
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	return branch, nil
}

// SetCurrentBranch persists the current-branch pointer.
func (s *Store) SetCurrentBranch(name string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketKV).Put([]byte(currentBranchKey), []byte(name))
	})
}
