package api_test

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/kbukum/scribe/api"
	"github.com/kbukum/scribe/batch"
	"github.com/kbukum/scribe/history"
	"github.com/kbukum/scribe/job"
	"github.com/kbukum/scribe/job/jobtest"
	"github.com/kbukum/scribe/render"
)

type fixture struct {
	router  *gin.Engine
	store   *history.MemoryStore
	reg     *prometheus.Registry
	handler *api.Handler
}

func newFixture(t *testing.T, cfg api.Config) *fixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	tr, d := jobtest.HelloWorld()
	p := job.NewPipeline(job.Config{WorkDir: t.TempDir()}, &jobtest.Normalizer{}, tr, d)
	store := history.NewMemoryStore(0)
	orch := batch.New(batch.Config{Concurrency: 2}, p, batch.WithHistory(store))
	reg := prometheus.NewRegistry()

	h := api.NewHandler(cfg, orch, store, api.WithMetrics(api.NewMetrics(reg)))
	r := gin.New()
	h.Register(r.Group("/api/v1"))
	return &fixture{router: r, store: store, reg: reg, handler: h}
}

type upload struct {
	field, name string
	data        []byte
}

func (f *fixture) post(t *testing.T, path string, files ...upload) *httptest.ResponseRecorder {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for _, u := range files {
		part, err := mw.CreateFormFile(u.field, u.name)
		if err != nil {
			t.Fatal(err)
		}
		_, _ = part.Write(u.data)
	}
	if err := mw.Close(); err != nil {
		t.Fatal(err)
	}
	req := httptest.NewRequest(http.MethodPost, path, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rr := httptest.NewRecorder()
	f.router.ServeHTTP(rr, req)
	return rr
}

func (f *fixture) get(path string) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	f.router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, path, http.NoBody))
	return rr
}

func TestCreateTranscript(t *testing.T) {
	f := newFixture(t, api.Config{})
	rr := f.post(t, "/api/v1/transcripts", upload{"file", "call.wav", []byte("RIFF")})
	if rr.Code != http.StatusOK {
		t.Fatalf("code = %d body = %s", rr.Code, rr.Body.String())
	}

	var res render.Result
	if err := json.Unmarshal(rr.Body.Bytes(), &res); err != nil {
		t.Fatal(err)
	}
	if res.Name != "call.wav" || res.JobID == "" || res.Code != "" {
		t.Errorf("unexpected result %+v", res)
	}
	want := []string{"Speaker A [0.00s - 2.50s]: hello world", "Speaker B [2.50s - 4.00s]: "}
	if len(res.Formatted) != len(want) {
		t.Fatalf("formatted = %q", res.Formatted)
	}
	for i := range want {
		if res.Formatted[i] != want[i] {
			t.Errorf("formatted[%d] = %q, want %q", i, res.Formatted[i], want[i])
		}
	}
	if f.store.Len() != 1 {
		t.Errorf("history records = %d, want 1", f.store.Len())
	}
}

func TestCreateTranscriptFormats(t *testing.T) {
	f := newFixture(t, api.Config{})

	rr := f.post(t, "/api/v1/transcripts?format=srt", upload{"file", "call.wav", []byte("RIFF")})
	if rr.Code != http.StatusOK {
		t.Fatalf("code = %d", rr.Code)
	}
	if !strings.HasPrefix(rr.Header().Get("Content-Type"), "application/x-subrip") {
		t.Errorf("content type = %q", rr.Header().Get("Content-Type"))
	}
	if !strings.Contains(rr.Body.String(), "00:00:00,000 --> 00:00:02,500") {
		t.Errorf("srt body = %q", rr.Body.String())
	}

	rr = f.post(t, "/api/v1/transcripts?format=doc", upload{"file", "call.wav", []byte("RIFF")})
	if rr.Code != http.StatusBadRequest {
		t.Errorf("bad format code = %d", rr.Code)
	}
}

func TestCreateTranscriptFailure(t *testing.T) {
	f := newFixture(t, api.Config{})
	rr := f.post(t, "/api/v1/transcripts", upload{"file", "broken.wav", jobtest.CorruptPayload})
	if rr.Code != http.StatusUnsupportedMediaType {
		t.Fatalf("code = %d body = %s", rr.Code, rr.Body.String())
	}
	var res render.Result
	if err := json.Unmarshal(rr.Body.Bytes(), &res); err != nil {
		t.Fatal(err)
	}
	if res.Code != "UNSUPPORTED_FORMAT" || res.Stage != "normalize" || res.Error == "" {
		t.Errorf("unexpected failure %+v", res)
	}
}

func TestCreateTranscriptMissingFile(t *testing.T) {
	f := newFixture(t, api.Config{})
	rr := f.post(t, "/api/v1/transcripts", upload{"other", "x.wav", []byte("RIFF")})
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("code = %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "MISSING_FIELD") {
		t.Errorf("body = %s", rr.Body.String())
	}
}

func TestCreateTranscriptTooLarge(t *testing.T) {
	f := newFixture(t, api.Config{})
	inner := f.router
	limited := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, 256)
		inner.ServeHTTP(w, r)
	})

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, _ := mw.CreateFormFile("file", "long.wav")
	_, _ = part.Write(bytes.Repeat([]byte("RIFF"), 1024))
	_ = mw.Close()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/transcripts", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rr := httptest.NewRecorder()
	limited.ServeHTTP(rr, req)

	if rr.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("code = %d body = %s", rr.Code, rr.Body.String())
	}
	if !strings.Contains(rr.Body.String(), "PAYLOAD_TOO_LARGE") {
		t.Errorf("body = %s", rr.Body.String())
	}
}

func TestCreateBatch(t *testing.T) {
	f := newFixture(t, api.Config{})
	rr := f.post(t, "/api/v1/batches",
		upload{"files", "a.wav", []byte("RIFF-a")},
		upload{"files", "bad.wav", jobtest.CorruptPayload},
		upload{"files", "c.wav", []byte("RIFF-c")},
	)
	if rr.Code != http.StatusOK {
		t.Fatalf("code = %d body = %s", rr.Code, rr.Body.String())
	}

	var resp api.BatchResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.BatchID == "" || len(resp.Results) != 3 {
		t.Fatalf("unexpected response %+v", resp)
	}
	names := []string{"a.wav", "bad.wav", "c.wav"}
	for i, r := range resp.Results {
		if r.Name != names[i] {
			t.Errorf("results[%d].name = %q, want %q", i, r.Name, names[i])
		}
	}
	if resp.Results[1].Code != "UNSUPPORTED_FORMAT" || resp.Results[0].Code != "" || resp.Results[2].Code != "" {
		t.Errorf("unexpected codes %+v", resp.Results)
	}

	rec, ok, err := f.store.Get(t.Context(), resp.BatchID)
	if err != nil || !ok {
		t.Fatalf("history Get = %v, %v", ok, err)
	}
	if rec.Source != api.SourceUpload || rec.Succeeded() != 2 {
		t.Errorf("history record %+v", rec)
	}

	expected := `
# HELP scribe_batch_jobs_total Total number of finished jobs by outcome code
# TYPE scribe_batch_jobs_total counter
scribe_batch_jobs_total{code="OK"} 2
scribe_batch_jobs_total{code="UNSUPPORTED_FORMAT"} 1
`
	if err := testutil.GatherAndCompare(f.reg, strings.NewReader(expected), "scribe_batch_jobs_total"); err != nil {
		t.Error(err)
	}
}

func TestCreateBatchRejects(t *testing.T) {
	f := newFixture(t, api.Config{MaxFiles: 1})
	tests := []struct {
		name  string
		files []upload
		want  string
	}{
		{"no files", []upload{{"file", "a.wav", []byte("x")}}, "MISSING_FIELD"},
		{"too many", []upload{{"files", "a.wav", []byte("x")}, {"files", "b.wav", []byte("y")}}, "INVALID_INPUT"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := f.post(t, "/api/v1/batches", tt.files...)
			if rr.Code != http.StatusBadRequest {
				t.Fatalf("code = %d", rr.Code)
			}
			if !strings.Contains(rr.Body.String(), tt.want) {
				t.Errorf("body = %s", rr.Body.String())
			}
		})
	}
	if f.store.Len() != 0 {
		t.Errorf("rejected uploads reached history")
	}
}

func TestHistory(t *testing.T) {
	f := newFixture(t, api.Config{})
	first := f.post(t, "/api/v1/transcripts", upload{"file", "one.wav", []byte("RIFF")})
	second := f.post(t, "/api/v1/batches", upload{"files", "two.wav", []byte("RIFF")})
	if first.Code != http.StatusOK || second.Code != http.StatusOK {
		t.Fatalf("setup codes %d %d", first.Code, second.Code)
	}
	var batchResp api.BatchResponse
	if err := json.Unmarshal(second.Body.Bytes(), &batchResp); err != nil {
		t.Fatal(err)
	}

	rr := f.get("/api/v1/history?limit=1")
	if rr.Code != http.StatusOK {
		t.Fatalf("list code = %d", rr.Code)
	}
	var list struct {
		Data []api.RecordView `json:"data"`
		Meta struct {
			Total    int `json:"total"`
			Returned int `json:"returned"`
		} `json:"meta"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &list); err != nil {
		t.Fatal(err)
	}
	if list.Meta.Total != 2 || list.Meta.Returned != 1 || len(list.Data) != 1 {
		t.Fatalf("list = %+v", list)
	}
	if list.Data[0].BatchID != batchResp.BatchID {
		t.Errorf("newest record = %s, want %s", list.Data[0].BatchID, batchResp.BatchID)
	}

	rr = f.get("/api/v1/history/" + batchResp.BatchID)
	if rr.Code != http.StatusOK {
		t.Fatalf("get code = %d", rr.Code)
	}
	var view api.RecordView
	if err := json.Unmarshal(rr.Body.Bytes(), &view); err != nil {
		t.Fatal(err)
	}
	if view.Total != 1 || view.Succeeded != 1 || view.Results[0].Name != "two.wav" {
		t.Errorf("view = %+v", view)
	}

	if rr := f.get("/api/v1/history/" + uuid.NewString()); rr.Code != http.StatusNotFound {
		t.Errorf("missing code = %d", rr.Code)
	}
	if rr := f.get("/api/v1/history/not-a-uuid"); rr.Code != http.StatusBadRequest {
		t.Errorf("malformed id code = %d", rr.Code)
	}
	if rr := f.get("/api/v1/history?limit=0"); rr.Code != http.StatusOK {
		t.Errorf("limit=0 code = %d", rr.Code)
	}
	if rr := f.get("/api/v1/history?limit=5000"); rr.Code != http.StatusBadRequest {
		t.Errorf("limit=5000 code = %d", rr.Code)
	}
}
