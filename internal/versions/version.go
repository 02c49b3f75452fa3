// Package versions provides build information for the manifest server binary.
package versions

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"strings"
	"time"
)

const unknownStr = "unknown"

// Version information set by build using -ldflags
var (
	// Version is the current version of the manifest server
	Version = "dev"
	// Commit is the git commit hash of the build
	Commit = unknownStr
	// BuildDate is the date when the binary was built
	BuildDate = unknownStr
)

// VersionInfo represents the version information
type VersionInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildDate string `json:"build_date"`
	GoVersion string `json:"go_version"`
	Platform  string `json:"platform"`
}

// String renders the version info on one line for the version command
func (v VersionInfo) String() string {
	return fmt.Sprintf("%s (commit %s, built %s, %s %s)", v.Version, v.Commit, v.BuildDate, v.GoVersion, v.Platform)
}

// GetVersionInfo returns the version information
func GetVersionInfo() VersionInfo {
	return versionInfo(Version, Commit, BuildDate, readBuildSettings())
}

func readBuildSettings() map[string]string {
	settings := map[string]string{}
	if info, ok := debug.ReadBuildInfo(); ok {
		for _, s := range info.Settings {
			settings[s.Key] = s.Value
		}
	}
	return settings
}

// versionInfo fills unknown commit and build date from VCS build settings of dev builds.
func versionInfo(version, commit, buildDate string, settings map[string]string) VersionInfo {
	if strings.HasPrefix(version, "dev") {
		if commit == unknownStr && settings["vcs.revision"] != "" {
			commit = settings["vcs.revision"]
		}
		if buildDate == unknownStr && settings["vcs.time"] != "" {
			buildDate = settings["vcs.time"]
		}
	}

	if buildDate != unknownStr {
		if t, err := time.Parse(time.RFC3339, buildDate); err == nil {
			buildDate = t.Format("2006-01-02 15:04:05 MST")
		}
	}

	// A plain dev build is named after its commit.
	if version == "dev" {
		version = fmt.Sprintf("build-%.*s", 8, commit)
	}

	return VersionInfo{
		Version:   version,
		Commit:    commit,
		BuildDate: buildDate,
		GoVersion: runtime.Version(),
		Platform:  fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH),
	}
}
