// Package gitops records data-directory changes as git commits.
package gitops

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// ErrNothingToCommit is returned by CommitAll when the tree is clean.
var ErrNothingToCommit = errors.New("nothing to commit")

// Commit subject prefixes, one per kind of change.
const (
	PrefixInit    = "init"
	PrefixBonus   = "bonus"
	PrefixDeposit = "deposit"
	PrefixDelete  = "delete"
	PrefixImport  = "import"
)

// Author identifies who commits.
type Author struct {
	Name  string
	Email string
}

func (a Author) String() string {
	return fmt.Sprintf("%s <%s>", a.Name, a.Email)
}

// Message builds a commit subject such as "deposit: Chase $500.00".
func Message(prefix, subject string) string {
	return prefix + ": " + strings.TrimSpace(subject)
}

// Init initializes a new git repository at dir. Git's own output goes to out.
func Init(ctx context.Context, dir string, out io.Writer) error {
	cmd := exec.CommandContext(ctx, "git", "init")
	cmd.Dir = dir
	cmd.Stdout = out
	cmd.Stderr = out
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("git init: %w", err)
	}
	return nil
}

// CommitAll stages all files and creates a commit. Returns the short commit hash.
func CommitAll(ctx context.Context, dir, message string, author Author) (string, error) {
	add := exec.CommandContext(ctx, "git", "add", "-A")
	add.Dir = dir
	if out, err := add.CombinedOutput(); err != nil {
		return "", fmt.Errorf("git add: %s: %w", out, err)
	}

	status := exec.CommandContext(ctx, "git", "status", "--porcelain")
	status.Dir = dir
	pending, err := status.Output()
	if err != nil {
		return "", fmt.Errorf("git status: %w", err)
	}
	if len(strings.TrimSpace(string(pending))) == 0 {
		return "", ErrNothingToCommit
	}

	commit := exec.CommandContext(ctx, "git", "commit", "-m", message, "--author", author.String())
	commit.Dir = dir
	commit.Env = append(os.Environ(),
		"GIT_COMMITTER_NAME="+author.Name,
		"GIT_COMMITTER_EMAIL="+author.Email,
	)
	if out, err := commit.CombinedOutput(); err != nil {
		return "", fmt.Errorf("git commit: %s: %w", out, err)
	}

	rev := exec.CommandContext(ctx, "git", "rev-parse", "--short", "HEAD")
	rev.Dir = dir
	out, err := rev.Output()
	if err != nil {
		return "", fmt.Errorf("git rev-parse: %w", err)
	}
	return strings.TrimSpace(string(out)), nil
}

// IsRepo reports whether dir is the root of a git repository.
func IsRepo(dir string) bool {
	_, err := os.Stat(filepath.Join(dir, ".git"))
	return err == nil
}
