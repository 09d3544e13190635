package core

import (
	"errors"
	"fmt"

	"github.com/inovacc/gitlab-dumper/internal/model"
)

// ErrPageLimit is returned when the groups listing never produced an empty
// page within the configured page cap.
var ErrPageLimit = errors.New("group listing did not terminate within the page limit")

// DestinationError indicates the destination argument is not an existing
// directory.
type DestinationError struct {
	Path string
	Err  error
}

func (e *DestinationError) Error() string {
	return fmt.Sprintf("invalid destination directory: %s", e.Path)
}

func (e *DestinationError) Unwrap() error {
	return e.Err
}

// RootDirError indicates the timestamped backup root could not be created.
type RootDirError struct {
	Path string
	Err  error
}

func (e *RootDirError) Error() string {
	return fmt.Sprintf("failed to create backup directory %s: %v", e.Path, e.Err)
}

func (e *RootDirError) Unwrap() error {
	return e.Err
}

// GroupDirError indicates a group directory could not be created. Two groups
// whose labels sanitize to the same string end up here.
type GroupDirError struct {
	GroupID model.ID
	Label   string
	Path    string
	Err     error
}

func (e *GroupDirError) Error() string {
	return fmt.Sprintf("failed to create directory %s for group %s: %v", e.Path, e.Label, e.Err)
}

func (e *GroupDirError) Unwrap() error {
	return e.Err
}

// CloneFailure records one project that could not be cloned. It is reported
// but never aborts a run.
type CloneFailure struct {
	GroupID     model.ID
	GroupLabel  string
	ProjectID   model.ID
	ProjectName string
	Source      string
	Path        string
	Reason      string
	Err         error
}

func (f *CloneFailure) Error() string {
	return fmt.Sprintf("failed to clone %s (%s): %v", f.ProjectName, f.Source, f.Err)
}

func (f *CloneFailure) Unwrap() error {
	return f.Err
}

// IsFatal reports whether err must abort a run. Clone failures are the only
// recoverable errors; everything else reaching the orchestrator is fatal.
func IsFatal(err error) bool {
	if err == nil {
		return false
	}

	var failure *CloneFailure

	return !errors.As(err, &failure)
}
