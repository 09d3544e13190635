package core

import (
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/inovacc/gitlab-dumper/internal/model"
)

// ProjectResult captures the outcome of one clone attempt
type ProjectResult struct {
	GroupID     model.ID
	GroupLabel  string
	ProjectID   model.ID
	ProjectName string
	Source      string
	Path        string
	Duration    time.Duration
	Failure     *CloneFailure // nil on success
}

// Success reports whether the project was cloned.
func (r ProjectResult) Success() bool {
	return r.Failure == nil
}

// Report summarizes a backup run
type Report struct {
	RunID     string
	Stamp     string
	Root      string
	Groups    int
	Attempted int
	Cloned    int
	Skipped   int
	Results   []ProjectResult
	Failures  []*CloneFailure
	Duration  time.Duration
}

func (r *Report) add(result ProjectResult) {
	r.Attempted++
	r.Results = append(r.Results, result)

	if result.Failure != nil {
		r.Failures = append(r.Failures, result.Failure)
		return
	}

	r.Cloned++
}

// Failed returns the number of projects that could not be cloned.
func (r *Report) Failed() int {
	return len(r.Failures)
}

// Err aggregates every clone failure into one error, or returns nil when all
// attempted projects were cloned. The error is informational: clone failures
// never make a run fatal.
func (r *Report) Err() error {
	var result *multierror.Error

	for _, f := range r.Failures {
		result = multierror.Append(result, f)
	}

	return result.ErrorOrNil()
}
