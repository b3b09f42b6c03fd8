package version

import "fmt"

// Set at build time via -ldflags.
var (
	Version = "v0.1.0"
	Commit  = "unknown"
	BuiltAt = "unknown"
)

// Info returns the semantic version.
func Info() string {
	return Version
}

// FullInfo returns version plus build metadata for the startup banner.
func FullInfo() string {
	return fmt.Sprintf("%s (commit=%s built_at=%s)", Version, Commit, BuiltAt)
}
