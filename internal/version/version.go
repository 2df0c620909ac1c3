// Package version exposes build-time version information.
package version

// Set via -ldflags at build time, e.g.
//
//	go build -ldflags "-X github.com/candorlabs/candor/internal/version.Version=v0.3.0"
var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)

// Short returns the bare version string.
func Short() string {
	return Version
}

// Info returns a one-line human-readable version string.
func Info() string {
	return "candor " + Version + " (" + Commit + ", " + Date + ")"
}

// Map returns version info as a map for JSON responses.
func Map() map[string]string {
	return map[string]string{
		"version": Version,
		"commit":  Commit,
		"date":    Date,
	}
}
