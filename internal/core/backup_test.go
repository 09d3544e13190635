package core

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/inovacc/gitlab-dumper/internal/gitlab"
	"github.com/inovacc/gitlab-dumper/internal/model"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var runStart = time.Date(2024, 3, 5, 7, 8, 9, 0, time.Local)

func fixedNow() time.Time {
	return runStart
}

type backupFixture struct {
	fs     afero.Fs
	lister *fakeLister
	cloner *fakeCloner
	out    *bytes.Buffer
	logs   *bytes.Buffer
}

func newBackupFixture(t *testing.T) *backupFixture {
	t.Helper()

	fs := afero.NewMemMapFs()
	require.NoError(t, fs.MkdirAll("/dest", 0o755))

	lister := &fakeLister{
		pages: [][]*model.Group{{{ID: "1", Name: "Team A"}}},
		projects: map[model.ID][]*model.Project{
			"1": {
				{ID: "10", Name: "good", SSHURL: "git@gl:team-a/good.git"},
				{ID: "11", Name: "broken", SSHURL: "git@gl:team-a/broken.git"},
			},
		},
	}

	return &backupFixture{
		fs:     fs,
		lister: lister,
		cloner: &fakeCloner{fs: fs, failFor: map[string]bool{"git@gl:team-a/broken.git": true}},
		out:    &bytes.Buffer{},
		logs:   &bytes.Buffer{},
	}
}

func (f *backupFixture) backup(opts BackupOptions) *Backup {
	opts.Fs = f.fs
	opts.Now = fixedNow
	opts.Out = f.out
	opts.Logger = slog.New(slog.NewTextHandler(f.logs, nil))

	if opts.Destination == "" {
		opts.Destination = "/dest"
	}

	d := NewDiscoverer(f.lister, DiscoveryOptions{Logger: discardLogger()})
	m := NewMaterializer(MaterializeOptions{Fs: f.fs, Cloner: f.cloner, Logger: discardLogger()})

	return NewBackup(d, m, opts)
}

func TestBackup_EndToEnd(t *testing.T) {
	f := newBackupFixture(t)

	report, err := f.backup(BackupOptions{}).Execute(context.Background())
	require.NoError(t, err, "a failed clone must not make the run fatal")

	root := "/dest/20240305_070809"
	assert.Equal(t, root, report.Root)
	assert.Equal(t, "20240305_070809", report.Stamp)
	assert.NotEmpty(t, report.RunID)

	ok, err := afero.DirExists(f.fs, filepath.Join(root, "Team A_ID1"))
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = afero.Exists(f.fs, filepath.Join(root, "Team A_ID1", "good", "HEAD"))
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = afero.Exists(f.fs, filepath.Join(root, "Team A_ID1", "broken"))
	require.NoError(t, err)
	assert.False(t, ok)

	assert.Equal(t, 1, report.Cloned)
	require.Equal(t, 1, report.Failed())
	assert.Equal(t, "broken", report.Failures[0].ProjectName)

	logs := f.logs.String()
	assert.Contains(t, logs, "some projects were not cloned")
	assert.Contains(t, logs, "1 error occurred")
	assert.Contains(t, logs, "failed to clone broken (git@gl:team-a/broken.git)")

	ok, err = afero.Exists(f.fs, filepath.Join(root, ManifestName))
	require.NoError(t, err)
	assert.False(t, ok, "manifest is opt-in")
}

func TestBackup_APIFailureCreatesNothing(t *testing.T) {
	f := newBackupFixture(t)
	f.lister.groupErr = map[int]error{1: &gitlab.APIError{StatusCode: 500, URL: "https://gl/api/v4/groups?page=1&per_page=20"}}

	report, err := f.backup(BackupOptions{}).Execute(context.Background())
	require.Error(t, err)
	assert.Nil(t, report)
	assert.Equal(t, 500, gitlab.StatusCode(err))
	assert.True(t, IsFatal(err))
	assert.Contains(t, f.logs.String(), "discovery failed")
	assert.Contains(t, f.logs.String(), "status=500")

	entries, err := afero.ReadDir(f.fs, "/dest")
	require.NoError(t, err)
	assert.Empty(t, entries, "no backup directory may be created")
	assert.Empty(t, f.cloner.Attempts())
}

func TestBackup_InvalidDestinationBeforeNetwork(t *testing.T) {
	f := newBackupFixture(t)

	_, err := f.backup(BackupOptions{Destination: "/does/not/exist"}).Execute(context.Background())
	require.Error(t, err)

	var destErr *DestinationError
	require.ErrorAs(t, err, &destErr)
	assert.Equal(t, "invalid destination directory: /does/not/exist", err.Error())
	assert.Empty(t, f.lister.groupCalls, "no request may be made")
}

func TestBackup_DestinationIsFile(t *testing.T) {
	f := newBackupFixture(t)
	require.NoError(t, afero.WriteFile(f.fs, "/dest/file", []byte("x"), 0o644))

	_, err := f.backup(BackupOptions{Destination: "/dest/file"}).Execute(context.Background())

	var destErr *DestinationError
	require.ErrorAs(t, err, &destErr)
	assert.Empty(t, f.lister.groupCalls)
}

func TestBackup_RootAlreadyExists(t *testing.T) {
	f := newBackupFixture(t)
	require.NoError(t, f.fs.Mkdir("/dest/20240305_070809", 0o755))

	_, err := f.backup(BackupOptions{}).Execute(context.Background())

	var rootErr *RootDirError
	require.ErrorAs(t, err, &rootErr)
	assert.Equal(t, "/dest/20240305_070809", rootErr.Path)
	assert.Empty(t, f.cloner.Attempts())
}

func TestBackup_AllClonedLogsNoFailures(t *testing.T) {
	f := newBackupFixture(t)
	f.cloner.failFor = nil

	report, err := f.backup(BackupOptions{}).Execute(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, report.Cloned)
	assert.NotContains(t, f.logs.String(), "some projects were not cloned")
}

func TestBackup_DryRun(t *testing.T) {
	f := newBackupFixture(t)

	report, err := f.backup(BackupOptions{DryRun: true}).Execute(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "/dest/20240305_070809", report.Root)

	entries, err := afero.ReadDir(f.fs, "/dest")
	require.NoError(t, err)
	assert.Empty(t, entries)
	assert.Empty(t, f.cloner.Attempts())

	out := f.out.String()
	assert.Contains(t, out, "Dry run: backup into /dest/20240305_070809")
	assert.Contains(t, out, "Team A_ID1/")
	assert.Contains(t, out, "good (git@gl:team-a/good.git) -> /dest/20240305_070809/Team A_ID1/good")
}

func TestBackup_WritesManifest(t *testing.T) {
	f := newBackupFixture(t)

	_, err := f.backup(BackupOptions{WriteManifest: true, APIURL: "https://gl/api/v4"}).Execute(context.Background())
	require.NoError(t, err)

	data, err := afero.ReadFile(f.fs, "/dest/20240305_070809/"+ManifestName)
	require.NoError(t, err)

	var manifest Manifest
	require.NoError(t, json.Unmarshal(data, &manifest))

	assert.Equal(t, "https://gl/api/v4", manifest.APIURL)
	assert.Equal(t, "20240305_070809", manifest.Stamp)
	assert.Equal(t, ManifestSummary{Groups: 1, Attempted: 2, Cloned: 1, Failed: 1}, manifest.Summary)

	require.Len(t, manifest.Groups, 1)
	g := manifest.Groups[0]
	assert.Equal(t, "Team A_ID1", g.Directory)
	assert.True(t, g.TopLevel)
	require.Len(t, g.Projects, 2)
	assert.True(t, g.Projects[0].Cloned)
	assert.Equal(t, filepath.Join("Team A_ID1", "good"), g.Projects[0].Directory)
	assert.False(t, g.Projects[1].Cloned)
	assert.NotEmpty(t, g.Projects[1].Error)
}

func TestBackupRoot(t *testing.T) {
	ts := time.Date(2023, 12, 31, 23, 59, 1, 0, time.UTC)
	assert.Equal(t, filepath.Join("/backups", "20231231_235901"), BackupRoot("/backups", ts))
}
