package core

import (
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/inovacc/gitlab-dumper/internal/git"
	"github.com/inovacc/gitlab-dumper/internal/giturl"
	"github.com/inovacc/gitlab-dumper/internal/model"
	"github.com/spf13/afero"
)

const (
	// DefaultParallel clones one project at a time
	DefaultParallel = 1

	// MaxParallel bounds the clone worker pool
	MaxParallel = 10
)

var (
	errInvalidProjectName = errors.New("project name is empty after sanitization")
	errMissingSource      = errors.New("project has no clone source")
)

// Cloner populates dest with a working copy of source. *git.Client
// implements it.
type Cloner interface {
	Clone(ctx context.Context, source, dest string) error
}

// Progress receives one event per group entered and per project finished.
// Calls are serialized by the Materializer.
type Progress interface {
	GroupStarted(label string)
	ProjectCloned(name, source string)
	ProjectFailed(name, source string, err error)
}

type nopProgress struct{}

func (nopProgress) GroupStarted(string) {}

func (nopProgress) ProjectCloned(string, string) {}

func (nopProgress) ProjectFailed(string, string, error) {}

// MaterializeOptions configures a Materializer
type MaterializeOptions struct {
	Fs       afero.Fs
	Cloner   Cloner
	Parallel int
	Progress Progress
	Logger   *slog.Logger
}

// Materializer lays out one directory per group under the backup root and
// clones each project into it.
type Materializer struct {
	fs       afero.Fs
	cloner   Cloner
	parallel int
	progress Progress
	logger   *slog.Logger

	mu sync.Mutex
}

// NewMaterializer creates a Materializer. A nil Fs means the OS filesystem.
func NewMaterializer(opts MaterializeOptions) *Materializer {
	fs := opts.Fs
	if fs == nil {
		fs = afero.NewOsFs()
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	var progress Progress = nopProgress{}
	if opts.Progress != nil {
		progress = opts.Progress
	}

	parallel := opts.Parallel
	if parallel < 1 {
		parallel = DefaultParallel
	}

	if parallel > MaxParallel {
		parallel = MaxParallel
	}

	return &Materializer{
		fs:       fs,
		cloner:   opts.Cloner,
		parallel: parallel,
		progress: progress,
		logger:   logger,
	}
}

// Run materializes catalog under root, which must already exist.
//
// Failing to create a group directory aborts the run with a *GroupDirError;
// the returned report covers the work done so far. A failed clone is recorded
// in the report and the run moves on. If ctx is cancelled, projects not yet
// started are counted as skipped and ctx.Err() is returned.
func (m *Materializer) Run(ctx context.Context, catalog *model.Catalog, root string) (*Report, error) {
	start := time.Now()
	report := &Report{Root: root}

	defer func() {
		report.Duration = time.Since(start)
	}()

	for _, group := range catalog.Groups() {
		if err := ctx.Err(); err != nil {
			report.Skipped += countRemaining(catalog, report.Groups)
			return report, err
		}

		if err := m.materializeGroup(ctx, group, root, report); err != nil {
			return report, err
		}
	}

	if err := ctx.Err(); err != nil {
		return report, err
	}

	m.logger.Info("materialization complete",
		slog.Int("groups", report.Groups),
		slog.Int("cloned", report.Cloned),
		slog.Int("failed", len(report.Failures)),
	)

	return report, nil
}

type cloneJob struct {
	index   int
	project *model.Project
}

func (m *Materializer) materializeGroup(ctx context.Context, group *model.Group, root string, report *Report) error {
	label := group.Label()
	groupDir := filepath.Join(root, Sanitize(label))

	m.mu.Lock()
	m.progress.GroupStarted(label)
	m.mu.Unlock()

	if err := m.fs.Mkdir(groupDir, 0o755); err != nil {
		m.logger.Error("failed to create group directory",
			slog.String("group", label),
			slog.String("path", groupDir),
			slog.String("error", err.Error()),
		)

		return &GroupDirError{GroupID: group.ID, Label: label, Path: groupDir, Err: err}
	}

	report.Groups++

	m.logger.Debug("group directory created",
		slog.String("group", label),
		slog.String("path", groupDir),
		slog.Int("projects", group.ProjectCount()),
	)

	projects := group.Projects()
	results := make([]ProjectResult, len(projects))
	attempted := make([]bool, len(projects))

	jobs := make(chan cloneJob)

	var wg sync.WaitGroup

	for i := 0; i < min(m.parallel, max(len(projects), 1)); i++ {
		wg.Go(func() {
			for job := range jobs {
				// a job received after cancellation is left unattempted
				if ctx.Err() != nil {
					continue
				}

				results[job.index] = m.cloneProject(ctx, group, groupDir, job.project)
				attempted[job.index] = true
			}
		})
	}

dispatch:
	for i, project := range projects {
		if ctx.Err() != nil {
			break
		}

		select {
		case jobs <- cloneJob{index: i, project: project}:
		case <-ctx.Done():
			break dispatch
		}
	}

	close(jobs)
	wg.Wait()

	for i, result := range results {
		if !attempted[i] {
			report.Skipped++
			continue
		}

		report.add(result)
	}

	return nil
}

func (m *Materializer) cloneProject(ctx context.Context, group *model.Group, groupDir string, project *model.Project) ProjectResult {
	name := Sanitize(project.Name)
	dest := filepath.Join(groupDir, name)

	result := ProjectResult{
		GroupID:     group.ID,
		GroupLabel:  group.Label(),
		ProjectID:   project.ID,
		ProjectName: project.Name,
		Source:      project.SSHURL,
		Path:        dest,
	}

	var err error

	switch {
	case name == "" || name == "." || name == "..":
		err = errInvalidProjectName
	case strings.TrimSpace(project.SSHURL) == "":
		err = errMissingSource
	default:
		start := time.Now()
		err = m.cloner.Clone(ctx, project.SSHURL, dest)
		result.Duration = time.Since(start)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if err != nil {
		reason := git.Reason(err)
		if errors.Is(err, errInvalidProjectName) {
			reason = "invalid name"
		} else if errors.Is(err, errMissingSource) {
			reason = "missing source"
		}

		result.Failure = &CloneFailure{
			GroupID:     group.ID,
			GroupLabel:  result.GroupLabel,
			ProjectID:   project.ID,
			ProjectName: project.Name,
			Source:      project.SSHURL,
			Path:        dest,
			Reason:      reason,
			Err:         err,
		}

		m.progress.ProjectFailed(project.Name, project.SSHURL, err)
		m.logger.Warn("clone failed",
			slog.String("group", result.GroupLabel),
			slog.String("project", project.Name),
			slog.String("source", giturl.Redact(project.SSHURL)),
			slog.String("host", giturl.Host(project.SSHURL)),
			slog.String("reason", reason),
			slog.Int("exit_code", git.GetExitCode(err)),
			slog.String("error", err.Error()),
		)

		return result
	}

	m.progress.ProjectCloned(project.Name, project.SSHURL)
	m.logger.Debug("clone complete",
		slog.String("group", result.GroupLabel),
		slog.String("project", project.Name),
		slog.String("path", dest),
		slog.Duration("duration", result.Duration),
	)

	return result
}

// countRemaining returns the number of projects in groups not yet entered.
func countRemaining(catalog *model.Catalog, entered int) int {
	n := 0
	for i, group := range catalog.Groups() {
		if i >= entered {
			n += group.ProjectCount()
		}
	}

	return n
}
