package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/scribe/auth"
	"github.com/kbukum/scribe/auth/authctx"
	"github.com/kbukum/scribe/batch"
	apperrors "github.com/kbukum/scribe/errors"
	"github.com/kbukum/scribe/history"
	"github.com/kbukum/scribe/job"
	"github.com/kbukum/scribe/logger"
	"github.com/kbukum/scribe/render"
	"github.com/kbukum/scribe/server"
	"github.com/kbukum/scribe/server/middleware"
	"github.com/kbukum/scribe/util"
	"github.com/kbukum/scribe/validation"
)

// SourceUpload labels batches submitted over HTTP in history.
const SourceUpload = "upload"

// Submitter starts batches. *batch.Orchestrator implements it.
type Submitter interface {
	Start(ctx context.Context, inputs []job.Input, opts ...batch.StartOption) *batch.Batch
}

var _ Submitter = (*batch.Orchestrator)(nil)

// Config bounds API submissions.
type Config struct {
	// MaxFiles caps the number of files in one batch upload.
	MaxFiles int `mapstructure:"max_files" yaml:"max_files" validate:"gte=0"`
}

// ApplyDefaults sets MaxFiles to 32 when unset.
func (c *Config) ApplyDefaults() {
	if c.MaxFiles == 0 {
		c.MaxFiles = 32
	}
}

// Handler serves the transcription API.
type Handler struct {
	cfg     Config
	batches Submitter
	history history.Store
	log     *logger.Logger
	metrics *Metrics
	render  []render.Option
}

// Option configures a Handler.
type Option func(*Handler)

// WithLogger sets the handler logger.
func WithLogger(log *logger.Logger) Option {
	return func(h *Handler) { h.log = log }
}

// WithMetrics records submissions in Prometheus.
func WithMetrics(m *Metrics) Option {
	return func(h *Handler) { h.metrics = m }
}

// WithRenderOptions applies render options to non-JSON responses.
func WithRenderOptions(opts ...render.Option) Option {
	return func(h *Handler) { h.render = opts }
}

// NewHandler creates the API handler.
func NewHandler(cfg Config, batches Submitter, store history.Store, opts ...Option) *Handler {
	cfg.ApplyDefaults()
	h := &Handler{cfg: cfg, batches: batches, history: store, log: logger.NewNop()}
	for _, opt := range opts {
		opt(h)
	}
	h.log = h.log.WithComponent("api")
	return h
}

// Register mounts the API routes on g.
func (h *Handler) Register(g gin.IRouter) {
	transcribe := middleware.RequireScope(auth.ScopeTranscribe)
	read := middleware.RequireScope(auth.ScopeHistory)

	g.POST("/transcripts", transcribe, h.CreateTranscript)
	g.POST("/batches", transcribe, h.CreateBatch)
	g.GET("/history", read, h.ListHistory)
	g.GET("/history/:id", read, h.GetHistory)
}

type transcriptQuery struct {
	Format string `form:"format" binding:"omitempty,oneof=json text txt srt vtt webvtt yaml yml markdown md"`
}

// CreateTranscript runs one uploaded file. A failed job answers with the
// status of its error code and the failure body.
func (h *Handler) CreateTranscript(c *gin.Context) {
	var q transcriptQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		server.RespondWithError(c, apperrors.InvalidInput("format", err.Error()))
		return
	}
	format := render.JSON
	if q.Format != "" {
		format, _ = render.ParseFormat(q.Format)
	}

	fh, err := c.FormFile("file")
	if err != nil {
		server.RespondWithError(c, formError(err, apperrors.MissingField("file")))
		return
	}

	b := h.batches.Start(c.Request.Context(), []job.Input{uploadInput(fh)}, batch.Source(SourceUpload))
	res := b.Wait()[0]
	h.metrics.record(SourceUpload, []job.Result{res})

	status := http.StatusOK
	if res.Failure != nil {
		status = res.Failure.HTTPStatus()
	}
	if format == render.JSON {
		c.JSON(status, render.NewResult(res))
		return
	}
	if res.Failure != nil && (format == render.SRT || format == render.VTT) {
		c.JSON(status, render.NewResult(res))
		return
	}
	c.Header("Content-Type", contentType(format))
	c.Status(status)
	if err := render.Write(c.Writer, format, res, h.render...); err != nil {
		h.log.WithContext(c.Request.Context()).Error("render failed", logger.ErrorFields("render", err))
	}
}

// BatchResponse is the body of POST /batches.
type BatchResponse struct {
	BatchID string          `json:"batch_id"`
	Results []render.Result `json:"results"`
}

// CreateBatch runs every uploaded file concurrently and answers 200 with
// per-job results in upload order.
func (h *Handler) CreateBatch(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		server.RespondWithError(c, formError(err, apperrors.InvalidInput("files", "expected a multipart form")))
		return
	}
	files := form.File["files"]
	if len(files) == 0 {
		server.RespondWithError(c, apperrors.MissingField("files"))
		return
	}
	if err := validation.New().
		Check(len(files) <= h.cfg.MaxFiles, "files", fmt.Sprintf("at most %d files per batch", h.cfg.MaxFiles)).
		Err(); err != nil {
		server.RespondWithError(c, err)
		return
	}

	inputs := make([]job.Input, len(files))
	for i, fh := range files {
		inputs[i] = uploadInput(fh)
	}
	ctx := c.Request.Context()
	b := h.batches.Start(ctx, inputs, batch.Source(SourceUpload))
	h.log.WithContext(ctx).Info("batch accepted", logger.Fields(
		logger.FieldBatchID, b.ID(),
		"files", len(inputs),
		"subject", authctx.Subject(ctx),
	))
	results := b.Wait()
	h.metrics.record(SourceUpload, results)

	server.RespondOK(c, BatchResponse{BatchID: b.ID(), Results: render.NewResults(results)})
}

type historyQuery struct {
	Limit int `form:"limit" binding:"omitempty,min=1,max=1000"`
}

// RecordView is the API shape of a history record.
type RecordView struct {
	BatchID   string          `json:"batch_id"`
	CreatedAt string          `json:"created_at"`
	Source    string          `json:"source,omitempty"`
	Total     int             `json:"total"`
	Succeeded int             `json:"succeeded"`
	Results   []render.Result `json:"results"`
}

func newRecordView(rec history.Record) RecordView {
	return RecordView{
		BatchID:   rec.BatchID,
		CreatedAt: rec.CreatedAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
		Source:    rec.Source,
		Total:     len(rec.Results),
		Succeeded: rec.Succeeded(),
		Results:   render.NewResults(rec.Results),
	}
}

// ListHistory returns completed batches, newest first. ?limit caps the count.
func (h *Handler) ListHistory(c *gin.Context) {
	var q historyQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		server.RespondWithError(c, apperrors.InvalidInput("limit", err.Error()))
		return
	}
	records, err := h.history.List(c.Request.Context())
	if err != nil {
		server.RespondWithError(c, apperrors.Internal(err))
		return
	}

	views := make([]RecordView, 0, len(records))
	for i := len(records) - 1; i >= 0; i-- {
		if q.Limit > 0 && len(views) == q.Limit {
			break
		}
		views = append(views, newRecordView(records[i]))
	}
	server.RespondList(c, views, len(records))
}

// GetHistory returns one batch by its UUID.
func (h *Handler) GetHistory(c *gin.Context) {
	id := c.Param("id")
	if err := validation.New().Required("id", id).UUID("id", id).Err(); err != nil {
		server.RespondWithError(c, err)
		return
	}
	rec, ok, err := h.history.Get(c.Request.Context(), id)
	if err != nil {
		server.RespondWithError(c, apperrors.Internal(err))
		return
	}
	if !ok {
		server.RespondWithError(c, apperrors.NotFound("batch", id))
		return
	}
	server.RespondOK(c, newRecordView(rec))
}

// formError reports a body cut off by the size limit as 413 and anything
// else as fallback.
func formError(err error, fallback *apperrors.AppError) *apperrors.AppError {
	var tooBig *http.MaxBytesError
	if errors.As(err, &tooBig) {
		return apperrors.TooLarge(tooBig.Limit).WithCause(err)
	}
	return fallback.WithCause(err)
}

func uploadInput(fh *multipart.FileHeader) job.Input {
	return job.Input{
		Name: util.BaseName(fh.Filename, "upload"),
		Open: func() (io.ReadCloser, error) {
			f, err := fh.Open()
			if err != nil {
				return nil, err
			}
			return f, nil
		},
	}
}

func contentType(f render.Format) string {
	switch f {
	case render.YAML:
		return "application/yaml; charset=utf-8"
	case render.Markdown:
		return "text/markdown; charset=utf-8"
	case render.VTT:
		return "text/vtt; charset=utf-8"
	case render.SRT:
		return "application/x-subrip; charset=utf-8"
	default:
		return "text/plain; charset=utf-8"
	}
}
