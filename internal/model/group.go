package model

import "fmt"

// Group is a GitLab namespace owning zero or more projects.
type Group struct {
	// ID is unique within the service
	ID ID `json:"id"`

	// ParentID is nil for top-level groups. It is kept for reference only;
	// a Catalog never nests groups.
	ParentID *ID `json:"parent_id"`

	Name        string `json:"name"`
	FullName    string `json:"full_name"`
	FullPath    string `json:"full_path"`
	WebURL      string `json:"web_url"`
	Description string `json:"description"`

	projects map[ID]*Project
	order    []ID
}

// NewGroup returns an empty group with the given identity and name.
func NewGroup(id ID, name string) *Group {
	return &Group{
		ID:       id,
		Name:     name,
		projects: make(map[ID]*Project),
	}
}

// Label returns "<name>_ID<id>", the group's directory label before
// sanitization.
func (g *Group) Label() string {
	return fmt.Sprintf("%s_ID%s", g.Name, g.ID)
}

// IsTopLevel reports whether the service listed the group without a parent.
func (g *Group) IsTopLevel() bool {
	return g.ParentID == nil
}

// AddProject stores p under its identity. It reports true when a project with
// the same identity was already present and has been replaced.
func (g *Group) AddProject(p *Project) bool {
	if g.projects == nil {
		g.projects = make(map[ID]*Project)
	}

	_, replaced := g.projects[p.ID]
	if !replaced {
		g.order = append(g.order, p.ID)
	}

	g.projects[p.ID] = p

	return replaced
}

// Project returns the project with the given identity.
func (g *Group) Project(id ID) (*Project, bool) {
	p, ok := g.projects[id]
	return p, ok
}

// Projects returns the group's projects in first-insertion order.
func (g *Group) Projects() []*Project {
	out := make([]*Project, 0, len(g.order))
	for _, id := range g.order {
		out = append(out, g.projects[id])
	}

	return out
}

// ProjectCount returns the number of distinct projects in the group.
func (g *Group) ProjectCount() int {
	return len(g.projects)
}
