// Package version holds build identification stamped in via -ldflags.
package version

var (
	// Version is the coilwinder release version
	Version = "dev"
	// GitSHA is the git commit SHA
	GitSHA = "unknown"
	// BuildTime is the build timestamp
	BuildTime = "unknown"
)
