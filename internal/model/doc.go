// Package model defines the data structures used throughout gitlab-dumper.
//
// These models describe what discovery found on the GitLab instance and are
// consumed by the materializer to lay out the backup tree.
//
// # Project
//
// A [Project] is a single hosted repository together with the address used
// to clone it:
//
//	type Project struct {
//	    ID          ID     // Unique within the service
//	    Name        string // Display name, used as the directory name
//	    SSHURL      string // Clone source (ssh_url_to_repo)
//	    WebURL      string // Browsable address
//	    Description string
//	}
//
// # Group
//
// A [Group] owns zero or more projects. [Group.Label] returns the directory
// label "<name>_ID<id>", which is unique across a catalog even when two groups
// share a plain name.
//
// # Catalog
//
// A [Catalog] holds every discovered group keyed by identity. It is always a
// single level: groups reporting a parent are stored as top-level entries.
package model
