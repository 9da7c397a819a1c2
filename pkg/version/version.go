// Package version exposes build information stamped in via -ldflags.
package version

import "fmt"

// Populated at build time:
//
//	go build -ldflags "-X .../pkg/version.Version=v1.2.3 ..."
var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)

// String renders the full version line.
func String() string {
	return fmt.Sprintf("gitloc %s (commit: %s, built: %s)", Version, Commit, Date)
}
