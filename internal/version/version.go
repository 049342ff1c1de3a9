// Package version reports the build version of the yukora binary.
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"strings"
	"time"
)

const defaultModule = "pkt.systems/yukora"

// buildVersion is set via -ldflags "-X pkt.systems/yukora/internal/version.buildVersion=...".
var buildVersion = ""

// Info describes the running build.
type Info struct {
	Version   string
	Module    string
	Revision  string
	Dirty     bool
	GoVersion string
}

// String renders the info on one line.
func (i Info) String() string {
	out := fmt.Sprintf("%s %s (%s)", i.Module, i.Version, i.GoVersion)
	if i.Revision != "" {
		out += " rev " + i.Revision
	}
	if i.Dirty {
		out += " dirty"
	}
	return out
}

// Read collects version details from the build info.
func Read() Info {
	info, _ := debug.ReadBuildInfo()
	return fromBuildInfo(info)
}

// Current returns the best available version string (without dirty suffix).
func Current() string {
	return Read().Version
}

func fromBuildInfo(info *debug.BuildInfo) Info {
	out := Info{
		Version:   "v0.0.0-unknown",
		Module:    defaultModule,
		GoVersion: runtime.Version(),
	}
	if info != nil {
		if path := strings.TrimSpace(info.Main.Path); path != "" {
			out.Module = path
		}
		vcs := readVCS(info)
		out.Revision = vcs.shortRevision()
		out.Dirty = vcs.modified
		switch v := strings.TrimSpace(info.Main.Version); {
		case v != "" && v != "(devel)":
			out.Version = v
		case vcs.pseudo() != "":
			out.Version = vcs.pseudo()
		}
	}
	if v := strings.TrimSpace(buildVersion); v != "" {
		out.Version = v
	}
	out.Version = strings.TrimSuffix(out.Version, "+dirty")
	return out
}

type vcsInfo struct {
	revision string
	time     time.Time
	modified bool
}

func readVCS(info *debug.BuildInfo) vcsInfo {
	var out vcsInfo
	for _, setting := range info.Settings {
		switch setting.Key {
		case "vcs.revision":
			out.revision = setting.Value
		case "vcs.time":
			if parsed, err := time.Parse(time.RFC3339, setting.Value); err == nil {
				out.time = parsed
			}
		case "vcs.modified":
			out.modified = setting.Value == "true"
		}
	}
	return out
}

func (v vcsInfo) shortRevision() string {
	if len(v.revision) > 12 {
		return v.revision[:12]
	}
	return v.revision
}

func (v vcsInfo) pseudo() string {
	if v.revision == "" || v.time.IsZero() {
		return ""
	}
	return "v0.0.0-" + v.time.UTC().Format("20060102150405") + "-" + v.shortRevision()
}
