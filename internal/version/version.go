// Package version exposes build-time version information. The variables are
// overridden at build time via -ldflags.
package version

import "fmt"

var (
	// Version is the semantic version of the build.
	Version = "0.1.0-dev"
	// Commit is the git commit the binary was built from.
	Commit = "unknown"
	// Date is the build timestamp.
	Date = "unknown"
)

// Short returns the bare version string.
func Short() string {
	return Version
}

// String returns a human-readable version line.
func String() string {
	return fmt.Sprintf("synapse-ai %s (%s, built %s)", Version, Commit, Date)
}

// Map returns the version fields for JSON responses.
func Map() map[string]string {
	return map[string]string{
		"version": Version,
		"commit":  Commit,
		"date":    Date,
	}
}
