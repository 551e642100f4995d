// Package version carries build information stamped in by the linker:
//
//	go build -ldflags "-X github.com/banshee-data/voxelview/internal/version.Version=v0.1.0"
package version

import "fmt"

var (
	// Version is the current application version
	Version = "dev"
	// GitSHA is the git commit SHA
	GitSHA = "unknown"
	// BuildTime is the build timestamp
	BuildTime = "unknown"
)

// String formats the build information for a version command.
func String(program string) string {
	return fmt.Sprintf("%s version %s (%s, built %s)", program, Version, GitSHA, BuildTime)
}
