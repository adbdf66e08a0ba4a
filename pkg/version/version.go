// Package version exposes build information set at link time.
package version

import (
	"fmt"
	"runtime"
)

// Set with -ldflags "-X github.com/rshade/bizcheck/pkg/version.version=...".
//
//nolint:gochecknoglobals // Link-time variables.
var (
	version   = "dev"
	commit    = "none"
	buildDate = "unknown"
)

// GetVersion returns the semantic version of the binary.
func GetVersion() string {
	return version
}

// GetCommit returns the git commit the binary was built from.
func GetCommit() string {
	return commit
}

// GetBuildDate returns when the binary was built.
func GetBuildDate() string {
	return buildDate
}

// String returns a one-line description for --version output.
func String() string {
	return fmt.Sprintf("%s (commit %s, built %s, %s/%s)", version, commit, buildDate, runtime.GOOS, runtime.GOARCH)
}
