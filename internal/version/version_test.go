package version

import (
	"runtime/debug"
	"strings"
	"testing"
	"time"
)

func TestCurrentPrefersBuildVersion(t *testing.T) {
	old := buildVersion
	buildVersion = "v1.2.3"
	t.Cleanup(func() { buildVersion = old })

	if got := Current(); got != "v1.2.3" {
		t.Fatalf("expected build version, got %q", got)
	}
}

func TestFromBuildInfoPseudoVersion(t *testing.T) {
	ts := time.Date(2025, time.January, 2, 3, 4, 5, 0, time.UTC)
	info := &debug.BuildInfo{
		Main: debug.Module{Path: "pkt.systems/yukora", Version: "(devel)"},
		Settings: []debug.BuildSetting{
			{Key: "vcs.revision", Value: "1234567890abcdef"},
			{Key: "vcs.time", Value: ts.Format(time.RFC3339)},
			{Key: "vcs.modified", Value: "true"},
		},
	}
	got := fromBuildInfo(info)
	if got.Version != "v0.0.0-20250102030405-1234567890ab" {
		t.Fatalf("unexpected version: %q", got.Version)
	}
	if !got.Dirty || got.Revision != "1234567890ab" {
		t.Fatalf("unexpected vcs details: %+v", got)
	}
	if s := got.String(); !strings.Contains(s, "pkt.systems/yukora") || !strings.HasSuffix(s, "dirty") {
		t.Fatalf("unexpected string form %q", s)
	}
}

func TestFromBuildInfoNil(t *testing.T) {
	got := fromBuildInfo(nil)
	if got.Version != "v0.0.0-unknown" || got.Module != defaultModule {
		t.Fatalf("unexpected info for nil build info: %+v", got)
	}
}
