package git

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
)

func initRepo(t *testing.T) (string, *git.Repository, plumbing.Hash) {
	t.Helper()
	dir := t.TempDir()

	repo, err := git.PlainInit(dir, false)
	if err != nil {
		t.Fatalf("Failed to init git repo: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("grid"), 0o644); err != nil {
		t.Fatalf("Failed to create test file: %v", err)
	}
	wt, err := repo.Worktree()
	if err != nil {
		t.Fatalf("Failed to get worktree: %v", err)
	}
	if _, err := wt.Add("notes.txt"); err != nil {
		t.Fatalf("Failed to add file: %v", err)
	}
	hash, err := wt.Commit("Initial commit\n\nbody", &git.CommitOptions{
		Author: &object.Signature{Name: "Test User", Email: "test@example.com", When: time.Now()},
	})
	if err != nil {
		t.Fatalf("Failed to create commit: %v", err)
	}
	return dir, repo, hash
}

func TestDetector_Detect(t *testing.T) {
	dir, repo, hash := initRepo(t)
	if _, err := repo.CreateRemote(&config.RemoteConfig{
		Name: "origin",
		URLs: []string{"git@github.com:xvierd/flow-grid.git"},
	}); err != nil {
		t.Fatalf("Failed to add remote: %v", err)
	}

	info, err := NewDetector().Detect(context.Background(), dir)
	if err != nil {
		t.Fatalf("Detect() error = %v", err)
	}
	if info.Commit != hash.String() {
		t.Errorf("Commit = %s, want %s", info.Commit, hash)
	}
	if info.Branch != "master" && info.Branch != "main" {
		t.Errorf("Unexpected branch: %s", info.Branch)
	}
	if info.CommitMsg != "Initial commit" {
		t.Errorf("CommitMsg = %q, want first line only", info.CommitMsg)
	}
	if info.Repository != "xvierd/flow-grid" {
		t.Errorf("Repository = %q", info.Repository)
	}
	if !info.IsClean {
		t.Error("Expected clean worktree after commit")
	}
}

func TestDetector_DetectFromSubdirectory(t *testing.T) {
	dir, _, hash := initRepo(t)
	sub := filepath.Join(dir, "a", "b")
	if err := os.MkdirAll(sub, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("edited"), 0o644); err != nil {
		t.Fatal(err)
	}

	d := NewDetector()
	if !d.IsAvailable(sub) {
		t.Fatal("IsAvailable() = false inside a repository")
	}
	info, err := d.Detect(context.Background(), sub)
	if err != nil {
		t.Fatalf("Detect() error = %v", err)
	}
	if info.Commit != hash.String() {
		t.Errorf("Commit = %s, want %s", info.Commit, hash)
	}
	if info.IsClean {
		t.Error("Expected dirty worktree with a modified file")
	}
}

func TestDetector_NoRepository(t *testing.T) {
	dir := t.TempDir()
	d := NewDetector()

	if d.IsAvailable(dir) {
		t.Error("IsAvailable() = true outside a repository")
	}
	if _, err := d.Detect(context.Background(), dir); err == nil {
		t.Error("Expected error when no git repo exists")
	}
}

func TestDetector_EmptyRepository(t *testing.T) {
	dir := t.TempDir()
	if _, err := git.PlainInit(dir, false); err != nil {
		t.Fatal(err)
	}
	if NewDetector().IsAvailable(dir) {
		t.Error("IsAvailable() = true for a repository without commits")
	}
}

func TestRepoName(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{"git@github.com:user/repo.git", "user/repo"},
		{"https://github.com/user/repo.git", "user/repo"},
		{"ssh://git@host.example/team/tool", "team/tool"},
		{"local-path", "local-path"},
	}
	for _, tt := range tests {
		if got := repoName(tt.url); got != tt.want {
			t.Errorf("repoName(%q) = %q, want %q", tt.url, got, tt.want)
		}
	}
}
