// Package version exposes build-time version information.
//
// The variables below are overridden at build time with -ldflags, e.g.
//
//	go build -ldflags "-X github.com/govdocs-network/govdocs-demo/internal/version.version=v0.2.0"
package version

var (
	version   = "dev"
	gitCommit = "unknown"
	buildDate = "unknown"
)

// Info describes the running build.
type Info struct {
	Version   string `json:"version" example:"v0.2.0"`
	GitCommit string `json:"gitCommit" example:"b1946ac9"`
	BuildDate string `json:"buildDate" example:"2024-01-28T10:00:00Z"`
}

// Get returns the build information for the running binary.
func Get() Info {
	return Info{
		Version:   version,
		GitCommit: gitCommit,
		BuildDate: buildDate,
	}
}
