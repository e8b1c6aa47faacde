package version

import (
	"fmt"
	"runtime/debug"
	"strings"
	"sync"
)

var (
	// These variables are set at build time using -ldflags.
	Version   = "dev"
	GitCommit = ""
	GoVersion = ""
)

// Info represents version information.
type Info struct {
	Version   string `json:"version"`
	GitCommit string `json:"git_commit"`
	GoVersion string `json:"go_version"`
	IsRelease bool   `json:"is_release"`
}

// GetVersionInfo returns version information, preferring ldflags values and
// falling back to the binary's embedded build info.
func GetVersionInfo() *Info {
	info := &Info{
		Version:   Version,
		GitCommit: GitCommit,
		GoVersion: GoVersion,
		IsRelease: Version != "dev" && !strings.Contains(Version, "dirty"),
	}

	if buildInfo, ok := debug.ReadBuildInfo(); ok {
		if info.GoVersion == "" {
			info.GoVersion = buildInfo.GoVersion
		}
		if info.GitCommit == "" {
			for _, setting := range buildInfo.Settings {
				if setting.Key == "vcs.revision" {
					info.GitCommit = setting.Value
					if len(info.GitCommit) > 7 {
						info.GitCommit = info.GitCommit[:7]
					}
				}
			}
		}
	}

	return info
}

// GetShortVersion returns a short version string.
func GetShortVersion() string {
	info := GetVersionInfo()
	if info.GitCommit != "" {
		return fmt.Sprintf("%s-%s", info.Version, info.GitCommit)
	}
	return info.Version
}

// userAgentOnce computes the default user-agent exactly once; the value is
// process-lifetime state and never changes after startup.
var userAgentOnce = sync.OnceValue(func() string {
	info := GetVersionInfo()
	ua := "fetchkit/" + info.Version
	if info.GoVersion != "" {
		ua += " (" + strings.TrimPrefix(info.GoVersion, "go") + ")"
	}
	return ua
})

// UserAgent returns the default user-agent header value, e.g.
// "fetchkit/dev (1.25.0)".
func UserAgent() string {
	return userAgentOnce()
}
