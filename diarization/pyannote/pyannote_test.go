package pyannote

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/kbukum/scribe/diarization"
	apperrors "github.com/kbukum/scribe/errors"
)

func writeAudio(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "canonical.wav")
	if err := os.WriteFile(path, []byte("RIFF....WAVE"), 0o600); err != nil {
		t.Fatalf("write audio: %v", err)
	}
	return path
}

func TestDiarize(t *testing.T) {
	var gotAuth, gotMax string
	var gotAudio []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		gotMax = r.FormValue("max_speakers")
		if f, _, err := r.FormFile("audio"); err == nil {
			buf := make([]byte, 64)
			n, _ := f.Read(buf)
			gotAudio = buf[:n]
		}
		// Backends may return spans out of order.
		_, _ = w.Write([]byte(`{"segments":[
			{"speaker_id":"B","start_time":2.5,"end_time":5.0},
			{"speaker_id":"A","start_time":0.0,"end_time":2.5}
		]}`))
	}))
	defer srv.Close()

	p := NewProvider(Config{BaseURL: srv.URL, AuthToken: "hf_secret", MaxSpeakers: 3})
	resp, err := p.Diarize(context.Background(), diarization.Request{AudioPath: writeAudio(t)})
	if err != nil {
		t.Fatalf("Diarize failed: %v", err)
	}

	if gotAuth != "Bearer hf_secret" {
		t.Errorf("Authorization = %q", gotAuth)
	}
	if gotMax != "3" {
		t.Errorf("max_speakers = %q, want 3", gotMax)
	}
	if string(gotAudio) != "RIFF....WAVE" {
		t.Errorf("audio body = %q", gotAudio)
	}
	want := []diarization.Segment{{Speaker: "B", Start: 2.5, End: 5.0}, {Speaker: "A", Start: 0, End: 2.5}}
	if len(resp.Segments) != len(want) {
		t.Fatalf("got %d segments", len(resp.Segments))
	}
	for i := range want {
		if resp.Segments[i] != want[i] {
			t.Errorf("segment %d = %+v, want %+v", i, resp.Segments[i], want[i])
		}
	}
	if resp.NumSpeakers != 2 {
		t.Errorf("NumSpeakers = %d, want 2", resp.NumSpeakers)
	}
}

func TestDiarizeWithoutToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "" {
			t.Errorf("unexpected Authorization header")
		}
		_, _ = w.Write([]byte(`{"segments":[]}`))
	}))
	defer srv.Close()

	resp, err := NewProvider(Config{BaseURL: srv.URL}).
		Diarize(context.Background(), diarization.Request{AudioPath: writeAudio(t)})
	if err != nil {
		t.Fatalf("Diarize failed: %v", err)
	}
	if len(resp.Segments) != 0 {
		t.Errorf("expected no segments, got %d", len(resp.Segments))
	}
}

func TestDiarizeErrors(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"unauthorized", func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, "gated model", http.StatusUnauthorized)
		}},
		{"error field", func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{"error":"pipeline failed"}`))
		}},
		{"malformed body", func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`[`))
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			_, err := NewProvider(Config{BaseURL: srv.URL}).
				Diarize(context.Background(), diarization.Request{AudioPath: writeAudio(t)})
			var appErr *apperrors.AppError
			if !errors.As(err, &appErr) || appErr.Code != apperrors.ErrCodeDiarization {
				t.Fatalf("expected DIARIZATION_ERROR, got %v", err)
			}
		})
	}
}

func TestFactoryReadsAuthToken(t *testing.T) {
	p, err := Factory()(map[string]any{"base_url": "http://pyannote:8388", "auth_token": "tok"})
	if err != nil {
		t.Fatalf("Factory failed: %v", err)
	}
	pp := p.(*Provider)
	if pp.cfg.AuthToken != "tok" {
		t.Errorf("AuthToken = %q", pp.cfg.AuthToken)
	}
	if err := pp.Init(context.Background()); err != nil {
		t.Errorf("Init failed: %v", err)
	}
}
