package core

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/inovacc/gitlab-dumper/internal/gitlab"
	"github.com/inovacc/gitlab-dumper/internal/giturl"
	"github.com/inovacc/gitlab-dumper/internal/model"
)

const (
	// DefaultPageSize is the per_page value used for the groups listing
	DefaultPageSize = 20

	// DefaultMaxPages caps the groups listing in case the service never
	// returns an empty page
	DefaultMaxPages = 1000
)

// GroupLister is the listing API consumed by discovery. *gitlab.Client
// implements it.
type GroupLister interface {
	ListGroups(ctx context.Context, page, perPage int) ([]*model.Group, gitlab.PageInfo, error)
	ListGroupProjects(ctx context.Context, groupID model.ID) ([]*model.Project, gitlab.PageInfo, error)
}

// DiscoveryOptions configures a Discoverer
type DiscoveryOptions struct {
	PageSize int
	MaxPages int
	Logger   *slog.Logger
}

// Discoverer builds a Catalog from the listing API.
type Discoverer struct {
	api      GroupLister
	pageSize int
	maxPages int
	logger   *slog.Logger
}

// NewDiscoverer creates a Discoverer reading from api.
func NewDiscoverer(api GroupLister, opts DiscoveryOptions) *Discoverer {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	pageSize := opts.PageSize
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}

	maxPages := opts.MaxPages
	if maxPages <= 0 {
		maxPages = DefaultMaxPages
	}

	return &Discoverer{
		api:      api,
		pageSize: pageSize,
		maxPages: maxPages,
		logger:   logger,
	}
}

// Build pages through the groups listing until an empty page, then fetches
// the projects of every group. The first failing request aborts discovery and
// no partial catalog is returned.
func (d *Discoverer) Build(ctx context.Context) (*model.Catalog, error) {
	pages, err := d.fetchGroupPages(ctx)
	if err != nil {
		return nil, err
	}

	catalog := model.NewCatalog()

	for _, page := range pages {
		for _, listed := range page {
			group, err := d.buildGroup(ctx, listed)
			if err != nil {
				return nil, err
			}

			if replaced := catalog.Add(group); replaced {
				d.logger.Warn("duplicate group identity, keeping the later entry",
					slog.String("group_id", group.ID.String()),
					slog.String("name", group.Name),
				)
			}
		}
	}

	d.logger.Info("discovery complete",
		slog.Int("pages", len(pages)),
		slog.Int("groups", catalog.Len()),
		slog.Int("projects", catalog.ProjectCount()),
	)
	d.logger.Debug("catalog order", slog.Any("group_ids", catalog.GroupIDs()))

	return catalog, nil
}

// fetchGroupPages returns every non-empty page of the groups listing.
func (d *Discoverer) fetchGroupPages(ctx context.Context) ([][]*model.Group, error) {
	var pages [][]*model.Group

	for page := 1; ; page++ {
		if page > d.maxPages {
			return nil, fmt.Errorf("%w (%d pages of %d)", ErrPageLimit, d.maxPages, d.pageSize)
		}

		if err := ctx.Err(); err != nil {
			return nil, err
		}

		groups, _, err := d.api.ListGroups(ctx, page, d.pageSize)
		if err != nil {
			return nil, err
		}

		d.logger.Debug("fetched group page",
			slog.Int("page", page),
			slog.Int("count", len(groups)),
		)

		if len(groups) == 0 {
			return pages, nil
		}

		pages = append(pages, groups)
	}
}

// buildGroup copies the listing fields into a fresh Group and attaches the
// group's projects.
func (d *Discoverer) buildGroup(ctx context.Context, listed *model.Group) (*model.Group, error) {
	group := model.NewGroup(listed.ID, listed.Name)
	group.ParentID = listed.ParentID
	group.FullName = listed.FullName
	group.FullPath = listed.FullPath
	group.WebURL = listed.WebURL
	group.Description = listed.Description

	projects, info, err := d.api.ListGroupProjects(ctx, group.ID)
	if err != nil {
		return nil, err
	}

	if info.HasMore() {
		d.logger.Warn("project listing truncated by service page size",
			slog.String("group", group.Label()),
			slog.Int("received", len(projects)),
			slog.Int("total", info.Total),
		)
	}

	for _, p := range projects {
		project := &model.Project{
			ID:          p.ID,
			Name:        p.Name,
			SSHURL:      p.SSHURL,
			WebURL:      p.WebURL,
			Description: p.Description,
		}

		if !giturl.IsURL(project.SSHURL) {
			d.logger.Warn("project has no usable clone source",
				slog.String("group", group.Label()),
				slog.String("project", project.Name),
				slog.String("source", project.SSHURL),
			)
		}

		if replaced := group.AddProject(project); replaced {
			d.logger.Warn("duplicate project identity, keeping the later entry",
				slog.String("group", group.Label()),
				slog.String("project_id", project.ID.String()),
			)
		}
	}

	return group, nil
}
