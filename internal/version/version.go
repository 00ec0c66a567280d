// Package version exposes the build metadata stamped into the binary:
//
//	go build -ldflags "-X github.com/synterhq/synter-api/internal/version.Version=1.0.0 ..."
package version

import "runtime"

// Set via ldflags at build time
var (
	// Version is the semantic version (e.g., "1.0.0")
	Version = "0.0.0-dev"

	// Commit is the git commit SHA
	Commit = "unknown"

	// Date is the build date in RFC3339 format
	Date = "unknown"
)

// Info is the resolved build metadata served on the health endpoint and
// logged at startup.
type Info struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	Date      string `json:"date"`
	GoVersion string `json:"go_version"`
}

// Get returns the build metadata.
func Get() Info {
	return Info{
		Version:   Version,
		Commit:    Commit,
		Date:      Date,
		GoVersion: runtime.Version(),
	}
}
