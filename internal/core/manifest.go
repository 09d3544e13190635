package core

import (
	"path/filepath"
	"time"

	"github.com/inovacc/gitlab-dumper/internal/giturl"
	"github.com/inovacc/gitlab-dumper/internal/model"
)

// Manifest describes one finished backup run. It is written next to the group
// directories so the tree can be audited without the API.
type Manifest struct {
	RunID      string          `json:"run_id"`
	Stamp      string          `json:"stamp"`
	APIURL     string          `json:"api_url"`
	StartedAt  time.Time       `json:"started_at"`
	FinishedAt time.Time       `json:"finished_at"`
	Summary    ManifestSummary `json:"summary"`
	Groups     []ManifestGroup `json:"groups"`
}

// ManifestSummary holds the run counters
type ManifestSummary struct {
	Groups    int `json:"groups"`
	Attempted int `json:"attempted"`
	Cloned    int `json:"cloned"`
	Failed    int `json:"failed"`
	Skipped   int `json:"skipped"`
}

// ManifestGroup is one group directory
type ManifestGroup struct {
	ID        model.ID          `json:"id"`
	ParentID  *model.ID         `json:"parent_id"`
	TopLevel  bool              `json:"top_level"`
	Name      string            `json:"name"`
	FullPath  string            `json:"full_path"`
	WebURL    string            `json:"web_url"`
	Directory string            `json:"directory"`
	Projects  []ManifestProject `json:"projects"`
}

// ManifestProject is one clone attempt
type ManifestProject struct {
	ID         model.ID `json:"id"`
	Name       string   `json:"name"`
	Source     string   `json:"source"`
	RemotePath string   `json:"remote_path,omitempty"`
	WebURL     string   `json:"web_url"`
	Directory  string   `json:"directory"`
	Cloned     bool     `json:"cloned"`
	Reason     string   `json:"reason,omitempty"`
	Error      string   `json:"error,omitempty"`
}

type projectKey struct {
	group   model.ID
	project model.ID
}

// BuildManifest assembles the manifest for a finished run. Directories are
// relative to the backup root.
func BuildManifest(catalog *model.Catalog, report *Report, apiURL string, started, finished time.Time) *Manifest {
	results := make(map[projectKey]ProjectResult, len(report.Results))
	for _, r := range report.Results {
		results[projectKey{group: r.GroupID, project: r.ProjectID}] = r
	}

	m := &Manifest{
		RunID:      report.RunID,
		Stamp:      report.Stamp,
		APIURL:     apiURL,
		StartedAt:  started,
		FinishedAt: finished,
		Summary: ManifestSummary{
			Groups:    report.Groups,
			Attempted: report.Attempted,
			Cloned:    report.Cloned,
			Failed:    report.Failed(),
			Skipped:   report.Skipped,
		},
		Groups: make([]ManifestGroup, 0, catalog.Len()),
	}

	for _, group := range catalog.Groups() {
		dir := Sanitize(group.Label())

		mg := ManifestGroup{
			ID:        group.ID,
			ParentID:  group.ParentID,
			TopLevel:  group.IsTopLevel(),
			Name:      group.Name,
			FullPath:  group.FullPath,
			WebURL:    group.WebURL,
			Directory: dir,
			Projects:  make([]ManifestProject, 0, group.ProjectCount()),
		}

		for _, project := range group.Projects() {
			mp := ManifestProject{
				ID:         project.ID,
				Name:       project.Name,
				Source:     giturl.Redact(project.SSHURL),
				RemotePath: giturl.ProjectPath(project.SSHURL),
				WebURL:     project.WebURL,
				Directory:  filepath.Join(dir, Sanitize(project.Name)),
			}

			if r, ok := results[projectKey{group: group.ID, project: project.ID}]; ok {
				mp.Cloned = r.Success()
				if r.Failure != nil {
					mp.Reason = r.Failure.Reason
					mp.Error = r.Failure.Err.Error()
				}
			}

			mg.Projects = append(mg.Projects, mp)
		}

		m.Groups = append(m.Groups, mg)
	}

	return m
}
