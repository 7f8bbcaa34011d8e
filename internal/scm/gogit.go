package scm

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	log "github.com/sirupsen/logrus"
)

const remoteName = "origin"

// GoGit implements Provider in process with go-git.
type GoGit struct {
	log *log.Entry
}

// NewGoGit returns a provider that needs no git binary.
func NewGoGit(logger *log.Entry) *GoGit {
	return &GoGit{log: logger}
}

func (g *GoGit) Clone(ctx context.Context, url, dir string) error {
	g.debug("cloning repository", log.Fields{"url": url, "dir": dir})
	_, err := git.PlainCloneContext(ctx, dir, false, &git.CloneOptions{
		URL:        url,
		RemoteName: remoteName,
	})
	if err != nil {
		return fmt.Errorf("clone %s: %w", url, err)
	}
	return nil
}

// CurrentBranch returns "HEAD" for a detached head, as git rev-parse does.
func (g *GoGit) CurrentBranch(_ context.Context, dir string) (string, error) {
	repo, err := git.PlainOpen(dir)
	if err != nil {
		return "", fmt.Errorf("open %s: %w", dir, err)
	}
	head, err := repo.Head()
	if err != nil {
		return "", fmt.Errorf("resolve HEAD: %w", err)
	}
	if !head.Name().IsBranch() {
		return plumbing.HEAD.String(), nil
	}
	return head.Name().Short(), nil
}

// Checkout switches to branch, creating a tracking branch from origin when
// only the remote one exists.
func (g *GoGit) Checkout(_ context.Context, dir, branch string) error {
	repo, err := git.PlainOpen(dir)
	if err != nil {
		return fmt.Errorf("open %s: %w", dir, err)
	}
	wt, err := repo.Worktree()
	if err != nil {
		return fmt.Errorf("failed to get worktree: %w", err)
	}

	branchRef := plumbing.NewBranchReferenceName(branch)
	if _, err := repo.Reference(branchRef, true); errors.Is(err, plumbing.ErrReferenceNotFound) {
		if err := createTrackingBranch(repo, branch); err != nil {
			return err
		}
	} else if err != nil {
		return fmt.Errorf("failed to get reference %s: %w", branchRef, err)
	}

	g.debug("checking out branch", log.Fields{"dir": dir, "branch": branch})
	if err := wt.Checkout(&git.CheckoutOptions{Branch: branchRef}); err != nil {
		return fmt.Errorf("checkout %s: %w", branch, err)
	}
	return nil
}

func createTrackingBranch(repo *git.Repository, branch string) error {
	remoteRef, err := repo.Reference(plumbing.NewRemoteReferenceName(remoteName, branch), true)
	if err != nil {
		return fmt.Errorf("branch %s not found on %s: %w", branch, remoteName, err)
	}

	ref := plumbing.NewHashReference(plumbing.NewBranchReferenceName(branch), remoteRef.Hash())
	if err := repo.Storer.SetReference(ref); err != nil {
		return fmt.Errorf("failed to save new branch: %w", err)
	}

	err = repo.CreateBranch(&config.Branch{
		Name:   branch,
		Remote: remoteName,
		Merge:  plumbing.NewBranchReferenceName(branch),
	})
	if err != nil && !errors.Is(err, git.ErrBranchExists) {
		return fmt.Errorf("failed to configure branch %s: %w", branch, err)
	}
	return nil
}

// IsStale compares the local branch tip with the tip advertised by origin.
// A branch that origin does not have is never stale.
func (g *GoGit) IsStale(ctx context.Context, dir string) (bool, error) {
	repo, err := git.PlainOpen(dir)
	if err != nil {
		return false, fmt.Errorf("open %s: %w", dir, err)
	}
	head, err := repo.Head()
	if err != nil {
		return false, fmt.Errorf("resolve HEAD: %w", err)
	}
	if !head.Name().IsBranch() {
		return false, nil
	}

	remote, err := repo.Remote(remoteName)
	if err != nil {
		return false, fmt.Errorf("remote %s: %w", remoteName, err)
	}
	refs, err := remote.ListContext(ctx, &git.ListOptions{})
	if err != nil {
		return false, fmt.Errorf("list %s: %w", remoteName, err)
	}

	for _, ref := range refs {
		if ref.Name() != head.Name() {
			continue
		}
		stale := ref.Hash() != head.Hash()
		g.debug("compared branch tips", log.Fields{
			"branch": head.Name().Short(),
			"local":  head.Hash().String(),
			"remote": ref.Hash().String(),
			"stale":  stale,
		})
		return stale, nil
	}
	return false, nil
}

func (g *GoGit) Pull(ctx context.Context, dir string) error {
	repo, err := git.PlainOpen(dir)
	if err != nil {
		return fmt.Errorf("open %s: %w", dir, err)
	}
	head, err := repo.Head()
	if err != nil {
		return fmt.Errorf("resolve HEAD: %w", err)
	}
	wt, err := repo.Worktree()
	if err != nil {
		return fmt.Errorf("failed to get worktree: %w", err)
	}

	g.debug("pulling branch", log.Fields{"dir": dir, "branch": head.Name().Short()})
	err = wt.PullContext(ctx, &git.PullOptions{
		RemoteName:    remoteName,
		ReferenceName: head.Name(),
		SingleBranch:  true,
	})
	if err != nil && !errors.Is(err, git.NoErrAlreadyUpToDate) {
		return fmt.Errorf("pull %s: %w", head.Name().Short(), err)
	}
	return nil
}

func (g *GoGit) debug(msg string, fields log.Fields) {
	if g.log != nil {
		g.log.WithFields(fields).Debug(msg)
	}
}
