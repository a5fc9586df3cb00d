package middleware_test

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/kbukum/scribe/logger"
	"github.com/kbukum/scribe/server/middleware"
)

func ok(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) }

func TestRecovery(t *testing.T) {
	h := middleware.Recovery(logger.NewNop())(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("ffmpeg exploded")
	}))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/v1/transcriptions", http.NoBody))

	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rr.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("response is not JSON: %v", err)
	}
	if body["error"] == "" {
		t.Error("expected an error message")
	}
}

func TestRequestID(t *testing.T) {
	tests := []struct {
		name     string
		incoming string
	}{
		{"generated", ""},
		{"propagated", "batch-7"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var seen string
			h := middleware.RequestID()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				seen = r.Header.Get(middleware.RequestIDHeader)
			}))
			req := httptest.NewRequest(http.MethodGet, "/", http.NoBody)
			if tc.incoming != "" {
				req.Header.Set(middleware.RequestIDHeader, tc.incoming)
			}
			rr := httptest.NewRecorder()
			h.ServeHTTP(rr, req)

			got := rr.Header().Get(middleware.RequestIDHeader)
			if got == "" || got != seen {
				t.Fatalf("response id %q, handler saw %q", got, seen)
			}
			if tc.incoming != "" && got != tc.incoming {
				t.Errorf("expected %q, got %q", tc.incoming, got)
			}
		})
	}
}

func TestCORS(t *testing.T) {
	cfg := &middleware.CORSConfig{
		AllowedOrigins:   []string{"https://studio.example"},
		AllowedMethods:   []string{"GET", "POST"},
		AllowedHeaders:   []string{"Authorization"},
		ExposedHeaders:   []string{middleware.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           600,
	}
	tests := []struct {
		name       string
		method     string
		origin     string
		wantStatus int
		wantHeader map[string]string
	}{
		{
			name:       "allowed request",
			method:     http.MethodPost,
			origin:     "https://studio.example",
			wantStatus: http.StatusOK,
			wantHeader: map[string]string{
				"Access-Control-Allow-Origin":      "https://studio.example",
				"Access-Control-Allow-Credentials": "true",
				"Access-Control-Expose-Headers":    middleware.RequestIDHeader,
				"Access-Control-Allow-Methods":     "",
			},
		},
		{
			name:       "preflight",
			method:     http.MethodOptions,
			origin:     "https://studio.example",
			wantStatus: http.StatusNoContent,
			wantHeader: map[string]string{
				"Access-Control-Allow-Methods": "GET, POST",
				"Access-Control-Allow-Headers": "Authorization",
				"Access-Control-Max-Age":       "600",
			},
		},
		{
			name:       "foreign origin",
			method:     http.MethodGet,
			origin:     "https://elsewhere.example",
			wantStatus: http.StatusOK,
			wantHeader: map[string]string{"Access-Control-Allow-Origin": ""},
		},
		{
			name:       "no origin",
			method:     http.MethodGet,
			wantStatus: http.StatusOK,
			wantHeader: map[string]string{"Access-Control-Allow-Origin": ""},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			h := middleware.CORS(cfg)(http.HandlerFunc(ok))
			req := httptest.NewRequest(tc.method, "/api/v1/transcriptions", http.NoBody)
			if tc.origin != "" {
				req.Header.Set("Origin", tc.origin)
			}
			rr := httptest.NewRecorder()
			h.ServeHTTP(rr, req)

			if rr.Code != tc.wantStatus {
				t.Fatalf("expected %d, got %d", tc.wantStatus, rr.Code)
			}
			for k, want := range tc.wantHeader {
				if got := rr.Header().Get(k); got != want {
					t.Errorf("%s = %q, want %q", k, got, want)
				}
			}
		})
	}
}

func TestRequestLoggerPassesThrough(t *testing.T) {
	for _, path := range []string{"/api/v1/batches", "/health", "/api/v1/metrics"} {
		called := false
		h := middleware.RequestLogger(logger.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			called = true
			w.WriteHeader(http.StatusCreated)
			_, _ = io.WriteString(w, "{}")
		}))
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, path, http.NoBody))
		if !called || rr.Code != http.StatusCreated || rr.Body.String() != "{}" {
			t.Errorf("%s: called=%v code=%d body=%q", path, called, rr.Code, rr.Body.String())
		}
	}
}

type flushRecorder struct {
	*httptest.ResponseRecorder
	flushed bool
}

func (f *flushRecorder) Flush() { f.flushed = true }

func TestRequestLoggerKeepsFlusher(t *testing.T) {
	fr := &flushRecorder{ResponseRecorder: httptest.NewRecorder()}
	h := middleware.RequestLogger(logger.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.(http.Flusher).Flush()
	}))
	h.ServeHTTP(fr, httptest.NewRequest(http.MethodGet, "/api/v1/history", http.NoBody))
	if !fr.flushed {
		t.Error("expected Flush to reach the underlying writer")
	}
}

func TestBodySizeLimit(t *testing.T) {
	h := middleware.BodySizeLimit("1KB")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, err := io.ReadAll(r.Body); err != nil {
			w.WriteHeader(http.StatusRequestEntityTooLarge)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	tests := []struct {
		size int
		want int
	}{
		{512, http.StatusOK},
		{1024, http.StatusOK},
		{4096, http.StatusRequestEntityTooLarge},
	}
	for _, tc := range tests {
		rr := httptest.NewRecorder()
		body := strings.NewReader(strings.Repeat("x", tc.size))
		h.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/v1/transcriptions", body))
		if rr.Code != tc.want {
			t.Errorf("size %d: expected %d, got %d", tc.size, tc.want, rr.Code)
		}
	}
}

func TestChain(t *testing.T) {
	var order []string
	tag := func(name string) middleware.Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}
	h := middleware.Chain(tag("recovery"), tag("request-id"), tag("cors"))(http.HandlerFunc(ok))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", http.NoBody))

	if got := strings.Join(order, ","); got != "recovery,request-id,cors" {
		t.Errorf("unexpected order %s", got)
	}
}
