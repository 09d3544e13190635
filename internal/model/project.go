package model

// Project is a single repository hosted on the GitLab instance.
type Project struct {
	// ID is unique within the service
	ID ID `json:"id"`

	// Name is the display name; its sanitized form becomes the clone directory
	Name string `json:"name"`

	// SSHURL is the clone source address (ssh_url_to_repo)
	SSHURL string `json:"ssh_url_to_repo"`

	// WebURL is the browsable address, informational only
	WebURL string `json:"web_url"`

	// Description is free text, informational only
	Description string `json:"description"`
}
