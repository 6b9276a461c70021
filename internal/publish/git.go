package publish

import (
	"errors"
	"fmt"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/rs/zerolog/log"
)

// ErrNothingToCommit means the worktree had no changes.
var ErrNothingToCommit = errors.New("nothing to commit")

// GitCommitter commits a generated SDK directory, initialising a repository
// there when there is none.
type GitCommitter struct {
	Author string
	Email  string
}

// NewGitCommitter creates a committer with the given identity
func NewGitCommitter(author, email string) *GitCommitter {
	if author == "" {
		author = "sdkgen"
	}
	if email == "" {
		email = "sdkgen@localhost"
	}
	return &GitCommitter{Author: author, Email: email}
}

// Commit stages every change in dir and commits it. It returns the new
// commit hash.
func (c *GitCommitter) Commit(dir, message string) (string, error) {
	repo, err := git.PlainOpen(dir)
	if errors.Is(err, git.ErrRepositoryNotExists) {
		log.Debug().Str("dir", dir).Msg("initialising repository")
		repo, err = git.PlainInit(dir, false)
	}
	if err != nil {
		return "", fmt.Errorf("failed to open repository: %w", err)
	}

	worktree, err := repo.Worktree()
	if err != nil {
		return "", fmt.Errorf("failed to get worktree: %w", err)
	}

	if err := worktree.AddWithOptions(&git.AddOptions{All: true}); err != nil {
		return "", fmt.Errorf("failed to stage files: %w", err)
	}

	status, err := worktree.Status()
	if err != nil {
		return "", fmt.Errorf("failed to get status: %w", err)
	}
	if status.IsClean() {
		return "", ErrNothingToCommit
	}

	hash, err := worktree.Commit(message, &git.CommitOptions{
		Author: &object.Signature{
			Name:  c.Author,
			Email: c.Email,
			When:  time.Now(),
		},
	})
	if err != nil {
		return "", fmt.Errorf("failed to commit: %w", err)
	}

	log.Info().
		Str("dir", dir).
		Str("commit", hash.String()[:8]).
		Msg("committed sdk")

	return hash.String(), nil
}
