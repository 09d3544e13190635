// Package git wraps the git executable for the one operation a backup needs:
// cloning a repository into a fresh directory.
package git

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// ErrGitNotFound is returned when no git executable is available.
var ErrGitNotFound = errors.New("git executable not found in PATH")

// Client runs git commands
type Client struct {
	GitPath string   // Path to git executable
	Env     []string // Extra environment entries appended to os.Environ()
}

// NewClient creates a client using the git found in PATH
func NewClient() (*Client, error) {
	gitPath, err := exec.LookPath("git")
	if err != nil {
		return nil, ErrGitNotFound
	}

	return &Client{
		GitPath: gitPath,
		// never block a batch run on a credential prompt
		Env: []string{"GIT_TERMINAL_PROMPT=0"},
	}, nil
}

// Command creates a git command.
// Note: Do not set Stdout/Stderr if you plan to use CombinedOutput()
func (c *Client) Command(ctx context.Context, args ...string) *exec.Cmd {
	cmd := exec.CommandContext(ctx, c.GitPath, args...)
	if len(c.Env) > 0 {
		cmd.Env = append(os.Environ(), c.Env...)
	}

	return cmd
}

// Clone populates targetPath with a full working copy of sourceURL. The
// target must not exist or must be an empty directory.
func (c *Client) Clone(ctx context.Context, sourceURL, targetPath string) error {
	if strings.TrimSpace(sourceURL) == "" {
		return fmt.Errorf("empty clone source for %s", targetPath)
	}

	args := []string{"clone", "--quiet", sourceURL, targetPath}
	cmd := c.Command(ctx, args...)

	output, err := cmd.CombinedOutput()
	if err != nil {
		return NewGitError(args, string(output), err)
	}

	return nil
}

// Version returns the output of `git --version`.
func (c *Client) Version(ctx context.Context) (string, error) {
	output, err := c.Command(ctx, "--version").Output()
	if err != nil {
		return "", fmt.Errorf("failed to get git version: %w", err)
	}

	return strings.TrimSpace(string(output)), nil
}

// GitError represents a git command error
type GitError struct {
	ExitCode int
	Stderr   string
	Args     []string
	err      error
}

func (e *GitError) Error() string {
	if e.Stderr == "" {
		return fmt.Errorf("git command failed: %w", e.err).Error()
	}

	return fmt.Sprintf("git command failed: %s", strings.TrimSpace(e.Stderr))
}

func (e *GitError) Unwrap() error {
	return e.err
}
