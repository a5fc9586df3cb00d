package app

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/kbukum/scribe/auth"
	"github.com/kbukum/scribe/component"
	"github.com/kbukum/scribe/job"
	"github.com/kbukum/scribe/job/jobtest"
	"github.com/kbukum/scribe/logger"
)

func testConfig(t *testing.T) *Config {
	t.Helper()
	cfg := &Config{}
	cfg.Job.WorkDir = t.TempDir()
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	return cfg
}

func newTestScribe(t *testing.T, cfg *Config, opts ...Option) *Scribe {
	t.Helper()
	tr, d := jobtest.HelloWorld()
	opts = append([]Option{
		WithNormalizer(&jobtest.Normalizer{}),
		WithTranscriber(tr),
		WithDiarizer(d),
	}, opts...)
	s, err := New(context.Background(), cfg, logger.NewNop(), opts...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return s
}

func TestConfigDefaults(t *testing.T) {
	cfg := &Config{}
	cfg.ApplyDefaults()

	if cfg.Name != "scribe" {
		t.Errorf("name = %q", cfg.Name)
	}
	if cfg.Transcription.Backend != "whisper" || cfg.Diarization.Backend != "pyannote" {
		t.Errorf("backends = %q/%q", cfg.Transcription.Backend, cfg.Diarization.Backend)
	}
	if cfg.History.Capacity != DefaultHistoryCapacity {
		t.Errorf("history capacity = %d", cfg.History.Capacity)
	}
	if cfg.Batch.Concurrency != 4 || cfg.Audio.SampleRate != 16000 {
		t.Errorf("batch/audio defaults = %d/%d", cfg.Batch.Concurrency, cfg.Audio.SampleRate)
	}
	if cfg.Server.Auth.Enabled() {
		t.Error("auth enabled without a secret")
	}
	if cfg.Align.Chronological {
		t.Error("chronological ordering on by default")
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"negative history", func(c *Config) { c.History.Capacity = -1 }},
		{"sample rate", func(c *Config) { c.Audio.SampleRate = 100 }},
		{"server port", func(c *Config) { c.Server.Port = 70000 }},
		{"environment", func(c *Config) { c.Environment = "moon" }},
		{"jwt method", func(c *Config) {
			c.Server.Auth.JWT.Secret = "secret"
			c.Server.Auth.JWT.Method = "RS256"
		}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := testConfig(t)
			tc.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

func TestBackendOptions(t *testing.T) {
	cfg := testConfig(t)
	cfg.Job.Language = "de"
	cfg.Transcription.Options = map[string]any{"url": "http://whisper:8387"}
	cfg.Diarization.Options = map[string]any{"base_url": "http://pyannote:8388"}
	cfg.Diarization.AuthToken = ` "hf_secret" `

	tr := cfg.transcriptionOptions()
	if tr["language"] != "de" || tr["url"] != "http://whisper:8387" {
		t.Errorf("transcription options = %v", tr)
	}
	di := cfg.diarizationOptions()
	if di["auth_token"] != "hf_secret" {
		t.Errorf("auth_token = %v", di["auth_token"])
	}
	if _, leaked := cfg.Diarization.Options["auth_token"]; leaked {
		t.Error("credential written back into config options")
	}

	cfg.Transcription.Options["language"] = "fr"
	if got := cfg.transcriptionOptions()["language"]; got != "fr" {
		t.Errorf("explicit language overridden: %v", got)
	}
}

func TestNewFromRegistries(t *testing.T) {
	cfg := testConfig(t)
	cfg.Transcription.Options = map[string]any{"url": "http://127.0.0.1:1"}
	cfg.Diarization.Options = map[string]any{"base_url": "http://127.0.0.1:1"}

	s, err := New(context.Background(), cfg, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	names := map[string]bool{}
	for _, c := range s.Components() {
		names[c.Name()] = true
	}
	for _, want := range []string{"telemetry", "transcription", "diarization"} {
		if !names[want] {
			t.Errorf("missing component %q", want)
		}
	}
	for _, c := range s.Components() {
		if c.Name() == "transcription" {
			h := c.Health(context.Background())
			if h.Status != component.StatusUnhealthy || !h.Critical {
				t.Errorf("unreachable backend health = %+v", h)
			}
		}
		if err := c.Stop(context.Background()); err != nil {
			t.Errorf("stop %s: %v", c.Name(), err)
		}
	}
}

func TestNewRejectsUnknownBackend(t *testing.T) {
	for _, section := range []string{"transcription", "diarization"} {
		t.Run(section, func(t *testing.T) {
			cfg := testConfig(t)
			if section == "transcription" {
				cfg.Transcription.Backend = "nope"
			} else {
				cfg.Diarization.Backend = "nope"
			}
			if _, err := New(context.Background(), cfg, nil); err == nil {
				t.Fatal("expected error for unknown backend")
			}
		})
	}
}

func TestNewRunsBatches(t *testing.T) {
	cfg := testConfig(t)
	cfg.Align.Chronological = true
	s := newTestScribe(t, cfg)

	results := s.Batches.Run(context.Background(), []job.Input{
		job.BytesInput("a.wav", []byte("RIFF")),
		job.BytesInput("b.wav", jobtest.CorruptPayload),
	})
	if len(results) != 2 || !results[0].Succeeded() || results[1].Succeeded() {
		t.Fatalf("results = %+v", results)
	}
	if s.History.Len() != 1 {
		t.Errorf("history len = %d, want 1", s.History.Len())
	}
}

func multipartBody(t *testing.T) (*bytes.Buffer, string) {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", "call.wav")
	if err != nil {
		t.Fatal(err)
	}
	_, _ = part.Write([]byte("RIFF"))
	if err := mw.Close(); err != nil {
		t.Fatal(err)
	}
	return &body, mw.FormDataContentType()
}

func TestServerAuth(t *testing.T) {
	cfg := testConfig(t)
	cfg.Server.Auth.JWT.Secret = "0123456789abcdef0123456789abcdef"
	cfg.Server.Auth.ApplyDefaults()
	s := newTestScribe(t, cfg)

	srv, err := s.NewServer(nil)
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	svc, err := auth.NewService(&cfg.Server.Auth)
	if err != nil {
		t.Fatal(err)
	}
	transcribeOnly, _ := auth.Issue(svc, "ci", time.Hour, auth.ScopeTranscribe)

	tests := []struct {
		name   string
		method string
		path   string
		token  string
		want   int
	}{
		{"no token", http.MethodPost, APIPrefix + "/transcripts", "", http.StatusUnauthorized},
		{"scoped token", http.MethodPost, APIPrefix + "/transcripts", transcribeOnly, http.StatusOK},
		{"missing scope", http.MethodGet, APIPrefix + "/history", transcribeOnly, http.StatusForbidden},
		{"public health", http.MethodGet, "/health", "", http.StatusOK},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var req *http.Request
			if tc.method == http.MethodPost {
				body, ct := multipartBody(t)
				req = httptest.NewRequest(tc.method, tc.path, body)
				req.Header.Set("Content-Type", ct)
			} else {
				req = httptest.NewRequest(tc.method, tc.path, http.NoBody)
			}
			if tc.token != "" {
				req.Header.Set("Authorization", "Bearer "+tc.token)
			}
			rr := httptest.NewRecorder()
			srv.Handler().ServeHTTP(rr, req)
			if rr.Code != tc.want {
				t.Errorf("code = %d, want %d: %s", rr.Code, tc.want, rr.Body.String())
			}
		})
	}
}

func TestServerHealthReflectsBackends(t *testing.T) {
	cfg := testConfig(t)
	s := newTestScribe(t, cfg, WithDiarizer(&downDiarizer{&jobtest.Diarizer{}}))
	reg := component.NewRegistry(nil)
	for _, c := range s.Components() {
		if err := reg.Register(c); err != nil {
			t.Fatal(err)
		}
	}

	srv, err := s.NewServer(reg.HealthAll)
	if err != nil {
		t.Fatal(err)
	}
	rr := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", http.NoBody))
	if rr.Code != http.StatusServiceUnavailable {
		t.Errorf("code = %d, want 503: %s", rr.Code, rr.Body.String())
	}
}

type downDiarizer struct {
	*jobtest.Diarizer
}

func (d *downDiarizer) IsAvailable(context.Context) bool { return false }
