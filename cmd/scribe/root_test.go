package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/kbukum/scribe/audio"
	"github.com/kbukum/scribe/auth"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(out, "scribe ") || !strings.Contains(out, "platform:") {
		t.Errorf("version output = %q", out)
	}
}

func TestProbeCommand(t *testing.T) {
	dir := t.TempDir()
	mono := filepath.Join(dir, "mono.wav")
	stereo := filepath.Join(dir, "stereo.wav")
	if err := audio.WritePCM(mono, 16000, 1, 16, audio.Silence(0.1, 16000, 1)); err != nil {
		t.Fatal(err)
	}
	if err := audio.WritePCM(stereo, 44100, 2, 16, audio.Silence(0.1, 44100, 2)); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		args []string
		want string
	}{
		{[]string{"probe", mono}, "(canonical at 16000Hz)"},
		{[]string{"probe", stereo}, "(needs conversion at 16000Hz)"},
		{[]string{"probe", "--rate", "44100", stereo}, "(canonical at 44100Hz)"},
		{[]string{"probe", "--json", mono}, `"canonical": true`},
	}
	for _, tc := range tests {
		out, err := execute(t, tc.args...)
		if err != nil {
			t.Fatalf("%v: %v", tc.args, err)
		}
		if !strings.Contains(out, tc.want) {
			t.Errorf("%v: output %q missing %q", tc.args, out, tc.want)
		}
	}

	if _, err := execute(t, "probe", filepath.Join(dir, "missing.wav")); err == nil {
		t.Error("expected error for missing file")
	}
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestTokenCommand(t *testing.T) {
	path := writeConfig(t, "server:\n  auth:\n    secret: token-command-secret\n")
	out, err := execute(t, "token", "--config", path, "--subject", "ci", "--scope", "history")
	if err != nil {
		t.Fatal(err)
	}

	cfg := auth.Config{}
	cfg.JWT.Secret = "token-command-secret"
	cfg.ApplyDefaults()
	svc, err := auth.NewService(&cfg)
	if err != nil {
		t.Fatal(err)
	}
	claims, err := svc.Verify(strings.TrimSpace(out))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if claims.Subject != "ci" || !claims.HasScope(auth.ScopeHistory) || claims.HasScope(auth.ScopeTranscribe) {
		t.Errorf("claims = %+v", claims)
	}
}

func TestTokenCommandWithoutSecret(t *testing.T) {
	path := writeConfig(t, "name: scribe\n")
	if _, err := execute(t, "token", "--config", path); err == nil {
		t.Fatal("expected error without server.auth.secret")
	}
}

func TestRunRejectsUnknownFormat(t *testing.T) {
	if _, err := execute(t, "run", "--format", "docx", "a.wav"); err == nil {
		t.Fatal("expected error for unknown format")
	}
}
