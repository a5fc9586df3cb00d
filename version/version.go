package version

import (
	"fmt"
	"io"
	"runtime"
	"runtime/debug"
)

// Set with -ldflags -X at release time.
var (
	Version   = "dev"
	GitCommit = ""
	BuildTime = ""
)

// Info describes the running binary. It is served on /version and printed
// by "scribe version".
type Info struct {
	Version   string `json:"version"`
	GitCommit string `json:"git_commit,omitempty"`
	BuildTime string `json:"build_time,omitempty"`
	Dirty     bool   `json:"dirty,omitempty"`
	GoVersion string `json:"go_version"`
	Platform  string `json:"platform"`
}

// Get merges the ldflags values with the VCS stamp embedded by the Go
// toolchain. Explicit ldflags values win.
func Get() Info {
	info := Info{
		Version:   Version,
		GitCommit: GitCommit,
		BuildTime: BuildTime,
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
	}
	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return info
	}
	for _, s := range bi.Settings {
		switch s.Key {
		case "vcs.revision":
			if info.GitCommit == "" {
				info.GitCommit = s.Value
			}
		case "vcs.time":
			if info.BuildTime == "" {
				info.BuildTime = s.Value
			}
		case "vcs.modified":
			info.Dirty = s.Value == "true"
		}
	}
	if len(info.GitCommit) > 7 {
		info.GitCommit = info.GitCommit[:7]
	}
	return info
}

// Short renders the info as "1.2.0", "dev-3f2a1bc" or "dev-3f2a1bc-dirty".
func (i Info) Short() string {
	v := i.Version
	if i.GitCommit != "" {
		v += "-" + i.GitCommit
	}
	if i.Dirty {
		v += "-dirty"
	}
	return v
}

// Short is shorthand for Get().Short().
func Short() string { return Get().Short() }

// Print writes the multi-line report shown by "scribe version".
func Print(w io.Writer, name string) error {
	i := Get()
	_, err := fmt.Fprintf(w, "%s %s\n  commit:   %s\n  built:    %s\n  go:       %s\n  platform: %s\n",
		name, i.Short(), orNone(i.GitCommit), orNone(i.BuildTime), i.GoVersion, i.Platform)
	return err
}

func orNone(s string) string {
	if s == "" {
		return "none"
	}
	return s
}
