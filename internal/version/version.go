// Package version carries build metadata injected with -ldflags.
package version

import "fmt"

var (
	// Version is the current release of the housing tools
	Version = "dev"
	// GitSHA is the git commit SHA
	GitSHA = "unknown"
	// BuildTime is the build timestamp
	BuildTime = "unknown"
)

// String formats the build metadata for the CLI version command.
func String() string {
	return fmt.Sprintf("housingpos %s (%s, built %s)", Version, GitSHA, BuildTime)
}
