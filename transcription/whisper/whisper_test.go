package whisper

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	apperrors "github.com/kbukum/scribe/errors"
	"github.com/kbukum/scribe/transcription"
)

func writeAudio(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "canonical.wav")
	if err := os.WriteFile(path, []byte("RIFF....WAVE"), 0o600); err != nil {
		t.Fatalf("write audio: %v", err)
	}
	return path
}

func TestTranscribe(t *testing.T) {
	var gotModel, gotLang, gotFile string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/transcribe" || r.Method != http.MethodPost {
			http.NotFound(w, r)
			return
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		gotModel = r.FormValue("model")
		gotLang = r.FormValue("language")
		if _, hdr, err := r.FormFile("audio"); err == nil {
			gotFile = hdr.Filename
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"text":     " hello world",
			"language": "en",
			"segments": []map[string]any{
				{"start": 0.0, "end": 1.5, "text": " hello"},
				{"start": 1.5, "end": 3.0, "text": " world"},
			},
		})
	}))
	defer srv.Close()

	p := NewProvider(Config{URL: srv.URL + "/", Language: "de"})
	resp, err := p.Transcribe(context.Background(), transcription.Request{
		AudioPath: writeAudio(t),
		Language:  "en",
	})
	if err != nil {
		t.Fatalf("Transcribe failed: %v", err)
	}

	if gotModel != defaultModel {
		t.Errorf("model = %q, want %q", gotModel, defaultModel)
	}
	if gotLang != "en" {
		t.Errorf("request language should override config, got %q", gotLang)
	}
	if gotFile != "canonical.wav" {
		t.Errorf("file name = %q", gotFile)
	}
	if len(resp.Segments) != 2 {
		t.Fatalf("expected 2 segments, got %d", len(resp.Segments))
	}
	if resp.Segments[0].Text != "hello" || resp.Segments[1].Text != "world" {
		t.Errorf("segment text not trimmed: %+v", resp.Segments)
	}
	if resp.Text != "hello world" {
		t.Errorf("text = %q", resp.Text)
	}
	if resp.Duration != 3.0 {
		t.Errorf("duration = %v, want 3.0", resp.Duration)
	}
}

func TestTranscribeErrors(t *testing.T) {
	tests := []struct {
		name     string
		handler  http.HandlerFunc
		wantCode apperrors.ErrorCode
	}{
		{
			name: "server error",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				http.Error(w, "model not loaded", http.StatusInternalServerError)
			},
			wantCode: apperrors.ErrCodeTranscription,
		},
		{
			name: "malformed body",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte("{not json"))
			},
			wantCode: apperrors.ErrCodeTranscription,
		},
		{
			name: "error field",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte(`{"error":"cuda out of memory"}`))
			},
			wantCode: apperrors.ErrCodeTranscription,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			p := NewProvider(Config{URL: srv.URL})
			_, err := p.Transcribe(context.Background(), transcription.Request{AudioPath: writeAudio(t)})
			var appErr *apperrors.AppError
			if !errors.As(err, &appErr) {
				t.Fatalf("expected AppError, got %v", err)
			}
			if appErr.Code != tt.wantCode {
				t.Errorf("code = %s, want %s", appErr.Code, tt.wantCode)
			}
		})
	}
}

func TestTranscribeMissingFile(t *testing.T) {
	p := NewProvider(Config{URL: "http://127.0.0.1:1"})
	_, err := p.Transcribe(context.Background(), transcription.Request{AudioPath: "/nonexistent/a.wav"})
	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) || appErr.Code != apperrors.ErrCodeIO {
		t.Fatalf("expected IO error, got %v", err)
	}
}

func TestIsAvailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			w.WriteHeader(http.StatusOK)
			return
		}
		http.NotFound(w, r)
	}))
	p := NewProvider(Config{URL: srv.URL})
	if !p.IsAvailable(context.Background()) {
		t.Error("expected sidecar to be available")
	}
	srv.Close()
	if p.IsAvailable(context.Background()) {
		t.Error("expected sidecar to be unavailable after shutdown")
	}
}

func TestFactory(t *testing.T) {
	p, err := Factory()(map[string]any{
		"url":     "http://whisper:9000",
		"model":   "large-v3",
		"timeout": "30s",
	})
	if err != nil {
		t.Fatalf("Factory failed: %v", err)
	}
	wp := p.(*Provider)
	if wp.cfg.Model != "large-v3" || wp.cfg.Timeout != 30*time.Second {
		t.Errorf("unexpected config %+v", wp.cfg)
	}
	if err := wp.Init(context.Background()); err != nil {
		t.Errorf("Init failed: %v", err)
	}

	bad := NewProvider(Config{URL: "not a url"})
	if err := bad.Init(context.Background()); err == nil {
		t.Error("expected Init to reject a relative URL")
	}
}
