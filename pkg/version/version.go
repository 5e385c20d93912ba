// Package version carries build metadata set through -ldflags, e.g.
//
//	go build -ldflags "-X github.com/frostdev-ops/home-planner-go/pkg/version.Version=1.2.0"
package version

import (
	"fmt"
	"runtime"
)

var (
	Version   = "dev"
	Commit    = "unknown"
	BuildDate = "unknown"
)

// Info is the build metadata reported by the health endpoint
type Info struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildDate string `json:"build_date"`
	GoVersion string `json:"go_version"`
}

// Short returns the version, suffixed with the short commit for dev builds
func Short() string {
	if Version != "dev" {
		return Version
	}
	commit := Commit
	if len(commit) > 8 {
		commit = commit[:8]
	}
	return "dev-" + commit
}

// String returns a one-line description of the build
func String() string {
	return fmt.Sprintf("%s (commit %s, built %s, %s)", Short(), Commit, BuildDate, runtime.Version())
}

func Get() Info {
	return Info{
		Version:   Short(),
		Commit:    Commit,
		BuildDate: BuildDate,
		GoVersion: runtime.Version(),
	}
}
