// Package version reports build information, set at link time with
// -ldflags "-X github.com/lobocrea/wsptranscriber/internal/version.Version=...".
package version

import (
	"flag"
	"fmt"
	"runtime"
	"runtime/debug"
)

var (
	Version   = "develop"
	GitCommit = ""
	BuildDate = ""
)

type BuildInfo struct {
	Version   string `json:"version,omitempty"`
	GitCommit string `json:"gitCommit,omitempty"`
	BuildDate string `json:"buildDate,omitempty"`
	GoVersion string `json:"goVersion,omitempty"`
}

// Get returns the build information. Binaries installed with go install
// carry no ldflags, so the module version and VCS settings are used then.
func Get() BuildInfo {
	v := BuildInfo{
		Version:   Version,
		GitCommit: GitCommit,
		BuildDate: BuildDate,
		GoVersion: runtime.Version(),
	}

	if bi, ok := debug.ReadBuildInfo(); ok {
		fillFromBuildInfo(&v, bi)
	}

	if flag.Lookup("test.v") != nil {
		v.GoVersion = ""
	}
	return v
}

func fillFromBuildInfo(v *BuildInfo, bi *debug.BuildInfo) {
	if v.Version == "develop" && bi.Main.Version != "" && bi.Main.Version != "(devel)" {
		v.Version = bi.Main.Version
	}
	for _, s := range bi.Settings {
		switch s.Key {
		case "vcs.revision":
			if v.GitCommit == "" {
				v.GitCommit = s.Value
			}
		case "vcs.time":
			if v.BuildDate == "" {
				v.BuildDate = s.Value
			}
		}
	}
}

func (b BuildInfo) String() string {
	s := b.Version
	if b.GitCommit != "" {
		commit := b.GitCommit
		if len(commit) > 7 {
			commit = commit[:7]
		}
		s += fmt.Sprintf(" (%s)", commit)
	}
	return s
}
