package contracts

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

const (
	Version = "0.3.0"

	// ResultFormatVersion tags the layout of JSON result documents so
	// consumers can tell incompatible revisions apart
	ResultFormatVersion = "v1"
)

// Stamped by build.go through -ldflags -X
var (
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// Build describes the running binary
type Build struct {
	Version      string `json:"version"`
	Commit       string `json:"commit"`
	Modified     bool   `json:"modified,omitempty"`
	BuiltAt      string `json:"built_at"`
	Go           string `json:"go"`
	Platform     string `json:"platform"`
	ResultFormat string `json:"result_format"`
}

// CurrentBuild reports the running binary. When no commit was stamped at
// link time the VCS settings recorded by the go tool are used instead.
func CurrentBuild() Build {
	b := Build{
		Version:      Version,
		Commit:       GitCommit,
		BuiltAt:      BuildTime,
		Go:           runtime.Version(),
		Platform:     runtime.GOOS + "/" + runtime.GOARCH,
		ResultFormat: ResultFormatVersion,
	}
	if info, ok := debug.ReadBuildInfo(); ok {
		for _, s := range info.Settings {
			switch s.Key {
			case "vcs.revision":
				if b.Commit == "unknown" && len(s.Value) >= 7 {
					b.Commit = s.Value[:7]
				}
			case "vcs.time":
				if b.BuiltAt == "unknown" {
					b.BuiltAt = s.Value
				}
			case "vcs.modified":
				b.Modified = s.Value == "true"
			}
		}
	}
	return b
}

func (b Build) String() string {
	commit := b.Commit
	if b.Modified {
		commit += "-dirty"
	}
	return fmt.Sprintf("battcli v%s (commit %s, built %s, %s %s, results %s)",
		b.Version, commit, b.BuiltAt, b.Go, b.Platform, b.ResultFormat)
}
