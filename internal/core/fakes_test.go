package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"sync"

	"github.com/inovacc/gitlab-dumper/internal/gitlab"
	"github.com/inovacc/gitlab-dumper/internal/model"
	"github.com/spf13/afero"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func idPtr(id model.ID) *model.ID {
	return &id
}

// fakeLister serves pre-built group pages and project lists.
type fakeLister struct {
	mu sync.Mutex

	pages      [][]*model.Group
	projects   map[model.ID][]*model.Project
	truncated  map[model.ID]bool
	groupErr   map[int]error
	projectErr map[model.ID]error
	endless    bool

	groupCalls   []int
	projectCalls []model.ID
}

func (f *fakeLister) ListGroups(_ context.Context, page, _ int) ([]*model.Group, gitlab.PageInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.groupCalls = append(f.groupCalls, page)

	if err := f.groupErr[page]; err != nil {
		return nil, gitlab.PageInfo{}, err
	}

	if f.endless {
		return []*model.Group{{ID: model.ID(fmt.Sprint(page)), Name: "g"}}, gitlab.PageInfo{}, nil
	}

	if page-1 < len(f.pages) {
		return f.pages[page-1], gitlab.PageInfo{Page: page}, nil
	}

	return nil, gitlab.PageInfo{Page: page}, nil
}

func (f *fakeLister) ListGroupProjects(_ context.Context, groupID model.ID) ([]*model.Project, gitlab.PageInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.projectCalls = append(f.projectCalls, groupID)

	if err := f.projectErr[groupID]; err != nil {
		return nil, gitlab.PageInfo{}, err
	}

	info := gitlab.PageInfo{Total: len(f.projects[groupID])}
	if f.truncated[groupID] {
		info.NextPage = 2
	}

	return f.projects[groupID], info, nil
}

// fakeCloner writes a marker file into dest, failing for chosen sources.
type fakeCloner struct {
	mu sync.Mutex

	fs       afero.Fs
	failFor  map[string]bool
	attempts []string
	block    chan struct{}
}

func (c *fakeCloner) Clone(ctx context.Context, source, dest string) error {
	if c.block != nil {
		select {
		case <-c.block:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	c.mu.Lock()
	c.attempts = append(c.attempts, source)
	c.mu.Unlock()

	if c.failFor[source] {
		return errors.New("fatal: Could not read from remote repository")
	}

	if err := c.fs.MkdirAll(dest, 0o755); err != nil {
		return err
	}

	return afero.WriteFile(c.fs, filepath.Join(dest, "HEAD"), []byte("ref: refs/heads/main\n"), 0o644)
}

func (c *fakeCloner) Attempts() []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	return append([]string(nil), c.attempts...)
}

type clonerFunc func(ctx context.Context, source, dest string) error

func (f clonerFunc) Clone(ctx context.Context, source, dest string) error {
	return f(ctx, source, dest)
}

// recordingProgress keeps console events for assertions.
type recordingProgress struct {
	lines []string
}

func (p *recordingProgress) GroupStarted(label string) {
	p.lines = append(p.lines, label+"/")
}

func (p *recordingProgress) ProjectCloned(name, source string) {
	p.lines = append(p.lines, fmt.Sprintf("ok %s (%s)", name, source))
}

func (p *recordingProgress) ProjectFailed(name, source string, _ error) {
	p.lines = append(p.lines, fmt.Sprintf("fail %s (%s)", name, source))
}

func group(id model.ID, name string, projects ...*model.Project) *model.Group {
	g := model.NewGroup(id, name)
	for _, p := range projects {
		g.AddProject(p)
	}

	return g
}

func project(id model.ID, name, source string) *model.Project {
	return &model.Project{ID: id, Name: name, SSHURL: source}
}
