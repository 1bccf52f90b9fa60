// Package history keeps an audit trail of the indicator catalog in a local
// git repository. Every catalog change lands as a commit, so operators can
// see when indicators were added, renamed, or retired.
package history

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
)

const catalogFile = "catalog.json"

// CommitInfo describes one recorded catalog revision.
type CommitInfo struct {
	Hash      string    `json:"hash"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"createdAt"`
}

type Service struct {
	dir string
	mu  sync.Mutex
}

func New(dir string) *Service {
	return &Service{dir: dir}
}

// Record stores raw as the current catalog revision. The first call
// initializes the repository; later calls commit only when the catalog
// actually changed, so repeated startups stay quiet.
func (s *Service) Record(raw []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	repo, fresh, err := s.openOrInit()
	if err != nil {
		return err
	}

	worktree, err := repo.Worktree()
	if err != nil {
		return fmt.Errorf("open worktree: %w", err)
	}

	if err := os.WriteFile(filepath.Join(s.dir, catalogFile), raw, 0o644); err != nil {
		return fmt.Errorf("write catalog: %w", err)
	}
	if _, err := worktree.Add(catalogFile); err != nil {
		return fmt.Errorf("git add catalog: %w", err)
	}

	status, err := worktree.Status()
	if err != nil {
		return fmt.Errorf("read worktree status: %w", err)
	}
	if status.IsClean() {
		return nil
	}

	message := "Update indicator catalog"
	if fresh {
		message = "Import indicator catalog baseline"
	}

	hash, err := worktree.Commit(message, &git.CommitOptions{
		Author: &object.Signature{
			Name:  "Tally",
			Email: "tally@localhost",
			When:  time.Now(),
		},
	})
	if err != nil {
		return fmt.Errorf("commit catalog: %w", err)
	}

	if fresh {
		if err := repo.Storer.SetReference(plumbing.NewHashReference(plumbing.NewBranchReferenceName("main"), hash)); err != nil {
			return fmt.Errorf("set main branch ref: %w", err)
		}
		if err := repo.Storer.SetReference(plumbing.NewSymbolicReference(plumbing.HEAD, plumbing.NewBranchReferenceName("main"))); err != nil {
			return fmt.Errorf("set HEAD to main: %w", err)
		}
	}
	return nil
}

// History returns the most recent catalog revisions, newest first.
func (s *Service) History(limit int) ([]CommitInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	repo, err := git.PlainOpen(s.dir)
	if err != nil {
		if errors.Is(err, git.ErrRepositoryNotExists) {
			return []CommitInfo{}, nil
		}
		return nil, fmt.Errorf("open repo: %w", err)
	}

	head, err := repo.Head()
	if err != nil {
		if errors.Is(err, plumbing.ErrReferenceNotFound) {
			return []CommitInfo{}, nil
		}
		return nil, fmt.Errorf("resolve HEAD: %w", err)
	}

	iter, err := repo.Log(&git.LogOptions{From: head.Hash()})
	if err != nil {
		return nil, fmt.Errorf("read log: %w", err)
	}
	defer iter.Close()

	items := make([]CommitInfo, 0, limit)
	count := 0
	err = iter.ForEach(func(commitObj *object.Commit) error {
		items = append(items, CommitInfo{
			Hash:      commitObj.Hash.String()[:7],
			Message:   commitObj.Message,
			CreatedAt: commitObj.Author.When,
		})
		count++
		if limit > 0 && count >= limit {
			return io.EOF
		}
		return nil
	})
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("iterate log: %w", err)
	}
	return items, nil
}

func (s *Service) openOrInit() (*git.Repository, bool, error) {
	repo, err := git.PlainOpen(s.dir)
	if err == nil {
		return repo, false, nil
	}
	if !errors.Is(err, git.ErrRepositoryNotExists) {
		return nil, false, fmt.Errorf("open repo: %w", err)
	}

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return nil, false, fmt.Errorf("create history dir: %w", err)
	}
	repo, err = git.PlainInit(s.dir, false)
	if err != nil {
		return nil, false, fmt.Errorf("init repo: %w", err)
	}
	return repo, true, nil
}
