package application

import (
	"fmt"
	"runtime"
)

const (
	// AppName is the application name used for the command and identification
	AppName = "gitlab-dumper"
)

// Version is overridden at build time:
//
//	go build -ldflags "-X github.com/inovacc/gitlab-dumper/internal/application.Version=1.2.0"
var Version = "dev"

// UserAgent returns the User-Agent sent with API requests.
// Example: gitlab-dumper/1.2.0 (linux/amd64)
func UserAgent() string {
	return fmt.Sprintf("%s/%s (%s/%s)", AppName, Version, runtime.GOOS, runtime.GOARCH)
}
