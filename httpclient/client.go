// Package httpclient talks to the model sidecars: a health probe and a
// streamed multipart upload answered with JSON.
package httpclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"maps"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"
)

const maxErrorBody = 4 << 10

// ErrReadFile marks a failure to read the local file being uploaded.
var ErrReadFile = errors.New("read upload")

// StatusError is a non-200 answer. Body holds the start of the response.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("status %d", e.StatusCode)
	}
	return fmt.Sprintf("status %d: %s", e.StatusCode, e.Body)
}

// StatusOf returns the status code of a StatusError in err's chain, or 0.
func StatusOf(err error) int {
	var se *StatusError
	if errors.As(err, &se) {
		return se.StatusCode
	}
	return 0
}

// Config locates one sidecar.
type Config struct {
	BaseURL string
	Timeout time.Duration
	// Token is sent as a bearer token when set.
	Token string
}

// Client is safe for concurrent use.
type Client struct {
	base  string
	token string
	hc    *http.Client
}

// New returns a client for cfg. The base URL is checked by Validate.
func New(cfg Config) *Client {
	return &Client{
		base:  strings.TrimRight(cfg.BaseURL, "/"),
		token: cfg.Token,
		hc:    &http.Client{Timeout: cfg.Timeout},
	}
}

// BaseURL is the sidecar root without a trailing slash.
func (c *Client) BaseURL() string { return c.base }

// Validate requires an absolute http(s) base URL.
func (c *Client) Validate() error {
	u, err := url.Parse(c.base)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return fmt.Errorf("%q is not an absolute http(s) URL", c.base)
	}
	return nil
}

// Close drops idle connections.
func (c *Client) Close() { c.hc.CloseIdleConnections() }

// Healthy reports whether GET /health answers 200.
func (c *Client) Healthy(ctx context.Context) bool {
	req, err := c.request(ctx, http.MethodGet, "/health", http.NoBody)
	if err != nil {
		return false
	}
	resp, err := c.hc.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxErrorBody))
	return resp.StatusCode == http.StatusOK
}

// Upload is one multipart request: the file at Path under the form field
// File, plus text fields. Empty field values are left out.
type Upload struct {
	File   string
	Path   string
	Fields map[string]string
}

// PostFile streams up to path and decodes the JSON answer into out. Errors
// opening or reading the file wrap ErrReadFile; non-200 answers are
// *StatusError.
func (c *Client) PostFile(ctx context.Context, path string, up Upload, out any) error {
	f, err := os.Open(up.Path)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrReadFile, err)
	}
	defer f.Close()

	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)
	readErr := make(chan error, 1)
	go func() {
		err := writeForm(mw, up, f)
		readErr <- err
		pw.CloseWithError(err)
	}()

	req, err := c.request(ctx, http.MethodPost, path, pr)
	if err != nil {
		pr.Close()
		return err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := c.hc.Do(req)
	if err != nil {
		pr.Close()
		if rerr := <-readErr; errors.Is(rerr, ErrReadFile) {
			return rerr
		}
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &StatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (c *Client) request(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	return req, nil
}

func writeForm(mw *multipart.Writer, up Upload, audio io.Reader) error {
	part, err := mw.CreateFormFile(up.File, filepath.Base(up.Path))
	if err != nil {
		return err
	}
	if _, err := io.Copy(part, fileReader{audio}); err != nil {
		return err
	}
	for _, k := range slices.Sorted(maps.Keys(up.Fields)) {
		if v := up.Fields[k]; v != "" {
			if err := mw.WriteField(k, v); err != nil {
				return err
			}
		}
	}
	return mw.Close()
}

// fileReader tags read errors so they are not mistaken for transport errors.
type fileReader struct{ r io.Reader }

func (f fileReader) Read(p []byte) (int, error) {
	n, err := f.r.Read(p)
	if err != nil && !errors.Is(err, io.EOF) {
		err = fmt.Errorf("%w: %w", ErrReadFile, err)
	}
	return n, err
}
