package core

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/inovacc/gitlab-dumper/internal/encoding"
	"github.com/inovacc/gitlab-dumper/internal/gitlab"
	"github.com/inovacc/gitlab-dumper/internal/model"
	"github.com/spf13/afero"
)

const (
	// StampLayout names the per-run backup directory (YYYYMMDD_HHMMSS)
	StampLayout = "20060102_150405"

	// ManifestName is the file written at the backup root when requested
	ManifestName = "manifest.json"
)

// BackupOptions configures a Backup run
type BackupOptions struct {
	Destination   string
	APIURL        string // recorded in the manifest only
	Fs            afero.Fs
	Now           func() time.Time
	DryRun        bool
	WriteManifest bool
	Out           io.Writer // receives the dry-run plan
	Logger        *slog.Logger
}

// Backup sequences one run: discovery, backup root creation, then
// materialization. Discovery always completes before anything is written.
type Backup struct {
	discoverer   *Discoverer
	materializer *Materializer
	opts         BackupOptions
	fs           afero.Fs
	logger       *slog.Logger
	now          func() time.Time
	out          io.Writer
}

// NewBackup creates a Backup from its components.
func NewBackup(discoverer *Discoverer, materializer *Materializer, opts BackupOptions) *Backup {
	fs := opts.Fs
	if fs == nil {
		fs = afero.NewOsFs()
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	now := opts.Now
	if now == nil {
		now = time.Now
	}

	out := opts.Out
	if out == nil {
		out = os.Stdout
	}

	return &Backup{
		discoverer:   discoverer,
		materializer: materializer,
		opts:         opts,
		fs:           fs,
		logger:       logger,
		now:          now,
		out:          out,
	}
}

// ValidateDestination checks that path is an existing directory.
func ValidateDestination(fs afero.Fs, path string) error {
	if path == "" {
		return &DestinationError{Path: path, Err: os.ErrNotExist}
	}

	ok, err := afero.IsDir(fs, path)
	if err != nil {
		return &DestinationError{Path: path, Err: err}
	}

	if !ok {
		return &DestinationError{Path: path, Err: fmt.Errorf("not a directory")}
	}

	return nil
}

// BackupRoot returns the per-run directory for a run started at t.
func BackupRoot(destination string, t time.Time) string {
	return filepath.Join(destination, t.Format(StampLayout))
}

// Execute runs the backup. A non-nil error is fatal; clone failures are only
// reported through the returned Report. No cleanup happens on a fatal error,
// so a partially populated backup root stays on disk.
func (b *Backup) Execute(ctx context.Context) (*Report, error) {
	started := b.now()
	stamp := started.Format(StampLayout)
	root := BackupRoot(b.opts.Destination, started)
	runID := uuid.NewString()

	logger := b.logger.With(slog.String("run_id", runID))

	if err := ValidateDestination(b.fs, b.opts.Destination); err != nil {
		return nil, err
	}

	logger.Info("starting backup",
		slog.String("destination", b.opts.Destination),
		slog.String("stamp", stamp),
	)

	catalog, err := b.discoverer.Build(ctx)
	if err != nil {
		attrs := []any{slog.String("error", err.Error())}
		if gitlab.IsAPIError(err) {
			attrs = append(attrs, slog.Int("status", gitlab.StatusCode(err)))
		}

		logger.Error("discovery failed", attrs...)

		return nil, err
	}

	if b.opts.DryRun {
		PrintPlan(b.out, catalog, root)
		return &Report{RunID: runID, Stamp: stamp, Root: root}, nil
	}

	if err := b.fs.Mkdir(root, 0o755); err != nil {
		logger.Error("failed to create backup directory",
			slog.String("path", root),
			slog.String("error", err.Error()),
		)

		return nil, &RootDirError{Path: root, Err: err}
	}

	report, err := b.materializer.Run(ctx, catalog, root)
	if report != nil {
		report.RunID = runID
		report.Stamp = stamp
	}

	if err != nil {
		return report, err
	}

	if err := report.Err(); err != nil {
		logger.Warn("some projects were not cloned",
			slog.Int("failed", report.Failed()),
			slog.String("errors", err.Error()),
		)
	}

	if b.opts.WriteManifest {
		manifest := BuildManifest(catalog, report, b.opts.APIURL, started, b.now())

		path := filepath.Join(root, ManifestName)
		if err := encoding.SaveJSON(b.fs, path, manifest); err != nil {
			logger.Warn("failed to write manifest",
				slog.String("path", path),
				slog.String("error", err.Error()),
			)
		}
	}

	logger.Info("backup complete",
		slog.String("root", root),
		slog.Int("groups", report.Groups),
		slog.Int("cloned", report.Cloned),
		slog.Int("failed", report.Failed()),
		slog.Duration("duration", report.Duration),
	)

	return report, nil
}

// PrintPlan writes the directories and clone sources a run would produce.
func PrintPlan(w io.Writer, catalog *model.Catalog, root string) {
	_, _ = fmt.Fprintf(w, "\nDry run: backup into %s\n", root)
	_, _ = fmt.Fprintf(w, "Groups: %d, projects: %d\n\n", catalog.Len(), catalog.ProjectCount())

	for _, group := range catalog.Groups() {
		groupDir := filepath.Join(root, Sanitize(group.Label()))
		_, _ = fmt.Fprintf(w, "%s/\n", group.Label())

		for _, project := range group.Projects() {
			_, _ = fmt.Fprintf(w, "   * %s (%s) -> %s\n",
				project.Name, project.SSHURL, filepath.Join(groupDir, Sanitize(project.Name)))
		}
	}
}
