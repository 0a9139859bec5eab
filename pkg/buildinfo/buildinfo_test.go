package buildinfo

import (
	"runtime"
	"runtime/debug"
	"testing"
)

func TestGet_Name(t *testing.T) {
	info := Get("sprintctl")
	if info.Name != "sprintctl" {
		t.Errorf("expected Name='sprintctl', got %q", info.Name)
	}
	if info.GoVersion != runtime.Version() {
		t.Errorf("expected GoVersion=%q, got %q", runtime.Version(), info.GoVersion)
	}
}

func TestFillFromModule(t *testing.T) {
	info := Info{Version: "dev", Commit: "unknown", BuildTime: "unknown"}
	fillFromModule(&info, &debug.BuildInfo{
		Main: debug.Module{Version: "v0.3.1"},
		Settings: []debug.BuildSetting{
			{Key: "vcs.revision", Value: "0123456789abcdef"},
			{Key: "vcs.time", Value: "2026-05-02T10:30:00Z"},
		},
	})

	if info.Version != "v0.3.1" {
		t.Errorf("Version = %q", info.Version)
	}
	if info.Commit != "0123456" {
		t.Errorf("Commit = %q", info.Commit)
	}
	if info.BuildTime != "2026-05-02T10:30:00Z" {
		t.Errorf("BuildTime = %q", info.BuildTime)
	}
}

func TestFillFromModule_LdflagsWin(t *testing.T) {
	info := Info{Version: "v1.0.0", Commit: "abc1234", BuildTime: "then"}
	fillFromModule(&info, &debug.BuildInfo{
		Main: debug.Module{Version: "(devel)"},
		Settings: []debug.BuildSetting{
			{Key: "vcs.revision", Value: "fffffff"},
		},
	})

	if info.Version != "v1.0.0" || info.Commit != "abc1234" || info.BuildTime != "then" {
		t.Errorf("ldflags values should not be replaced: %+v", info)
	}
}

func TestFillFromModule_DevelVersion(t *testing.T) {
	info := Info{Version: "dev", Commit: "unknown", BuildTime: "unknown"}
	fillFromModule(&info, &debug.BuildInfo{Main: debug.Module{Version: "(devel)"}})
	if info.Version != "dev" {
		t.Errorf("Version = %q, want dev", info.Version)
	}
}

func TestString(t *testing.T) {
	origV, origC, origB := Version, Commit, BuildTime
	defer func() { Version, Commit, BuildTime = origV, origC, origB }()

	Version, Commit, BuildTime = "v0.3.0", "b806fe7", "2026-05-02T10:30:00Z"
	if got := String(); got != "v0.3.0 (b806fe7, 2026-05-02T10:30:00Z)" {
		t.Errorf("String() = %q", got)
	}
}
