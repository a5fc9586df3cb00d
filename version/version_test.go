package version

import (
	"bytes"
	"strings"
	"testing"
)

func TestShort(t *testing.T) {
	tests := []struct {
		info Info
		want string
	}{
		{Info{Version: "1.2.0"}, "1.2.0"},
		{Info{Version: "dev", GitCommit: "3f2a1bc"}, "dev-3f2a1bc"},
		{Info{Version: "dev", GitCommit: "3f2a1bc", Dirty: true}, "dev-3f2a1bc-dirty"},
	}
	for _, tc := range tests {
		if got := tc.info.Short(); got != tc.want {
			t.Errorf("Short() = %q, want %q", got, tc.want)
		}
	}
}

func TestGetPrefersLdflags(t *testing.T) {
	v, c, b := Version, GitCommit, BuildTime
	defer func() { Version, GitCommit, BuildTime = v, c, b }()
	Version, GitCommit, BuildTime = "1.2.0", "abcdef0123", "2026-03-01T10:00:00Z"

	info := Get()
	if info.Version != "1.2.0" || info.GitCommit != "abcdef0" || info.BuildTime != "2026-03-01T10:00:00Z" {
		t.Errorf("unexpected info %+v", info)
	}
	if info.GoVersion == "" || !strings.Contains(info.Platform, "/") {
		t.Errorf("expected runtime fields, got %+v", info)
	}
}

func TestPrint(t *testing.T) {
	var buf bytes.Buffer
	if err := Print(&buf, "scribe"); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{"scribe ", "commit:", "platform:"} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in %q", want, out)
		}
	}
}
