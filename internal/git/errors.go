package git

import (
	"errors"
	"os/exec"
	"strings"
)

// Common error messages from git and ssh
const (
	errMsgAuthFailed       = "Authentication failed"
	errMsgPermissionDenied = "Permission denied"
	errMsgHostKey          = "Host key verification failed"
	errMsgNoRepository     = "does not appear to be a git repository"
	errMsgRepoNotFound     = "not found"
	errMsgDoesNotExist     = "does not exist"
	errMsgResolveHost      = "Could not resolve hostname"
	errMsgConnRefused      = "Connection refused"
	errMsgAlreadyExists    = "already exists and is not an empty directory"
)

// IsAuthRequired checks if the error indicates the credential was rejected
func IsAuthRequired(err error) bool {
	return containsError(err, errMsgAuthFailed) ||
		containsError(err, errMsgPermissionDenied) ||
		containsError(err, errMsgHostKey)
}

// IsRepoNotFound checks if the error indicates the remote repository is missing
func IsRepoNotFound(err error) bool {
	return containsError(err, errMsgNoRepository) ||
		containsError(err, errMsgRepoNotFound) ||
		containsError(err, errMsgDoesNotExist)
}

// IsUnreachable checks if the error indicates the remote host could not be reached
func IsUnreachable(err error) bool {
	return containsError(err, errMsgResolveHost) || containsError(err, errMsgConnRefused)
}

// IsAlreadyExists checks if the error indicates the destination is occupied
func IsAlreadyExists(err error) bool {
	return containsError(err, errMsgAlreadyExists)
}

// Reason returns a short classification of a clone error for reports.
func Reason(err error) string {
	switch {
	case err == nil:
		return ""
	case IsAuthRequired(err):
		return "authentication"
	case IsUnreachable(err):
		return "unreachable"
	case IsAlreadyExists(err):
		return "destination exists"
	case IsRepoNotFound(err):
		return "not found"
	default:
		return "other"
	}
}

// containsError checks if the error contains a specific message
func containsError(err error, msg string) bool {
	if err == nil {
		return false
	}

	var gitErr *GitError
	if errors.As(err, &gitErr) {
		return strings.Contains(strings.ToLower(gitErr.Stderr), strings.ToLower(msg))
	}

	return strings.Contains(strings.ToLower(err.Error()), strings.ToLower(msg))
}

// GetExitCode returns the exit code from a git error, or -1 if not available
func GetExitCode(err error) int {
	if err == nil {
		return 0
	}

	var gitErr *GitError
	if errors.As(err, &gitErr) {
		return gitErr.ExitCode
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}

	return -1
}

// NewGitError creates a GitError from command output and error
func NewGitError(args []string, stderr string, err error) *GitError {
	exitCode := -1

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		exitCode = exitErr.ExitCode()
	}

	return &GitError{
		ExitCode: exitCode,
		Stderr:   stderr,
		Args:     args,
		err:      err,
	}
}
