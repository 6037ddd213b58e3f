package buildinfo

import (
	"runtime/debug"
	"strings"
	"testing"
)

func withDefaults(t *testing.T) {
	t.Helper()
	v, c, d := Version, Commit, Date
	Version, Commit, Date = "dev", "none", "unknown"
	t.Cleanup(func() { Version, Commit, Date = v, c, d })
}

func TestFill(t *testing.T) {
	withDefaults(t)
	fill(&debug.BuildInfo{
		Main: debug.Module{Version: "v1.2.3"},
		Settings: []debug.BuildSetting{
			{Key: "vcs.revision", Value: "abc123"},
			{Key: "vcs.time", Value: "2026-01-02T03:04:05Z"},
		},
	})

	if Version != "v1.2.3" || Commit != "abc123" || Date != "2026-01-02T03:04:05Z" {
		t.Errorf("fill() = %q %q %q", Version, Commit, Date)
	}
}

func TestFillKeepsLdflags(t *testing.T) {
	withDefaults(t)
	Version, Commit = "v9.0.0", "fromldflags"
	fill(&debug.BuildInfo{
		Main:     debug.Module{Version: "(devel)"},
		Settings: []debug.BuildSetting{{Key: "vcs.revision", Value: "abc123"}},
	})

	if Version != "v9.0.0" || Commit != "fromldflags" {
		t.Errorf("fill() overwrote ldflags values: %q %q", Version, Commit)
	}
}

func TestTemplate(t *testing.T) {
	withDefaults(t)
	if got := Template(); !strings.HasPrefix(got, "{{.Name}} version dev\n") {
		t.Errorf("Template() = %q", got)
	}
	if got := String(); !strings.Contains(got, "commit: none") {
		t.Errorf("String() = %q", got)
	}
}
