// Package git stamps sessions with the branch and commit of the work tree
// they were recorded in, using go-git.
package git

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"

	"github.com/xvierd/flow-grid/internal/ports"
)

// Detector implements the ports.GitDetector interface using go-git.
type Detector struct{}

// NewDetector creates a new git detector.
func NewDetector() *Detector {
	return &Detector{}
}

// Ensure Detector implements ports.GitDetector.
var _ ports.GitDetector = (*Detector)(nil)

func open(workingDir string) (*git.Repository, error) {
	if workingDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get working directory: %w", err)
		}
		workingDir = wd
	}
	return git.PlainOpenWithOptions(workingDir, &git.PlainOpenOptions{DetectDotGit: true})
}

// Detect reads HEAD of the repository containing workingDir.
func (d *Detector) Detect(ctx context.Context, workingDir string) (*ports.GitInfo, error) {
	repo, err := open(workingDir)
	if err != nil {
		return nil, fmt.Errorf("failed to open git repository: %w", err)
	}

	head, err := repo.Head()
	if err != nil {
		return nil, fmt.Errorf("failed to get HEAD: %w", err)
	}

	info := &ports.GitInfo{
		Branch: branchName(head),
		Commit: head.Hash().String(),
	}

	if commit, err := repo.CommitObject(head.Hash()); err == nil {
		info.CommitMsg = strings.SplitN(commit.Message, "\n", 2)[0]
	}

	if remotes, err := repo.Remotes(); err == nil && len(remotes) > 0 {
		if urls := remotes[0].Config().URLs; len(urls) > 0 {
			info.Repository = repoName(urls[0])
		}
	}

	if wt, err := repo.Worktree(); err == nil {
		if status, err := wt.Status(); err == nil {
			info.IsClean = status.IsClean()
		}
	}
	return info, nil
}

// IsAvailable reports whether workingDir is inside a repository with a HEAD.
func (d *Detector) IsAvailable(workingDir string) bool {
	repo, err := open(workingDir)
	if err != nil {
		return false
	}
	_, err = repo.Head()
	return err == nil
}

func branchName(head *plumbing.Reference) string {
	if !head.Name().IsBranch() {
		return "HEAD detached"
	}
	return head.Name().Short()
}

// repoName reduces a remote URL to owner/name.
func repoName(url string) string {
	url = strings.TrimSuffix(url, ".git")
	if i := strings.Index(url, "://"); i >= 0 {
		url = url[i+3:]
		if j := strings.Index(url, "/"); j >= 0 {
			return url[j+1:]
		}
		return url
	}
	if strings.HasPrefix(url, "git@") {
		if i := strings.LastIndex(url, ":"); i >= 0 {
			return url[i+1:]
		}
	}
	return url
}
