// Package version exposes build version information for the runtime.
package version

import (
	"fmt"
	"runtime/debug"
	"time"
)

// Set at build time with -ldflags.
var (
	Version   = "dev"
	GitCommit = ""
	BuildTime = ""
)

// Info is the resolved build metadata.
type Info struct {
	Version   string    `json:"version"`
	GitCommit string    `json:"git_commit"`
	GoVersion string    `json:"go_version"`
	BuildDate time.Time `json:"build_date"`
	Dirty     bool      `json:"dirty"`
}

// Get resolves version info from ldflags, falling back to the binary's
// embedded build info for anything not set.
func Get() Info {
	info := Info{
		Version:   Version,
		GitCommit: GitCommit,
	}
	if BuildTime != "" {
		if t, err := time.Parse(time.RFC3339, BuildTime); err == nil {
			info.BuildDate = t
		}
	}

	if bi, ok := debug.ReadBuildInfo(); ok {
		info.GoVersion = bi.GoVersion
		for _, setting := range bi.Settings {
			switch setting.Key {
			case "vcs.revision":
				if info.GitCommit == "" && len(setting.Value) >= 7 {
					info.GitCommit = setting.Value[:7]
				}
			case "vcs.modified":
				info.Dirty = setting.Value == "true"
			case "vcs.time":
				if info.BuildDate.IsZero() {
					if t, err := time.Parse(time.RFC3339, setting.Value); err == nil {
						info.BuildDate = t
					}
				}
			}
		}
	}
	return info
}

// Short returns "version-commit", with a -dirty suffix for modified
// trees.
func Short() string {
	info := Get()
	s := info.Version
	if info.GitCommit != "" {
		s = fmt.Sprintf("%s-%s", s, info.GitCommit)
	}
	if info.Dirty {
		s += "-dirty"
	}
	return s
}
