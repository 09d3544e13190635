package model

// Catalog is the flattened collection of every group discovered during one
// run. It is permanently single-level: parent identities are ignored when a
// group is added.
type Catalog struct {
	groups map[ID]*Group
	order  []ID
}

// NewCatalog returns an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{groups: make(map[ID]*Group)}
}

// Add stores g as a top-level entry. A group with an identity already present
// replaces the earlier entry in place and Add reports true.
func (c *Catalog) Add(g *Group) bool {
	if c.groups == nil {
		c.groups = make(map[ID]*Group)
	}

	_, replaced := c.groups[g.ID]
	if !replaced {
		c.order = append(c.order, g.ID)
	}

	c.groups[g.ID] = g

	return replaced
}

// Group returns the group with the given identity.
func (c *Catalog) Group(id ID) (*Group, bool) {
	g, ok := c.groups[id]
	return g, ok
}

// GroupIDs returns the identities of all groups in first-insertion order.
func (c *Catalog) GroupIDs() []ID {
	return append([]ID(nil), c.order...)
}

// Groups returns all groups in first-insertion order.
func (c *Catalog) Groups() []*Group {
	out := make([]*Group, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.groups[id])
	}

	return out
}

// Len returns the number of groups.
func (c *Catalog) Len() int {
	return len(c.groups)
}

// ProjectCount returns the number of projects across all groups.
func (c *Catalog) ProjectCount() int {
	n := 0
	for _, g := range c.groups {
		n += g.ProjectCount()
	}

	return n
}
