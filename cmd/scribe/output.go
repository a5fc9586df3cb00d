package main

import (
	"cmp"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/kbukum/scribe/job"
	"github.com/kbukum/scribe/render"
)

// resultWriter renders finished jobs either into dir, one file per input,
// or one after another to out.
type resultWriter struct {
	format render.Format
	dir    string
	out    io.Writer
	errOut io.Writer
	opts   []render.Option
	used   map[string]int
}

func newResultWriter(format render.Format, dir string, out, errOut io.Writer, opts ...render.Option) *resultWriter {
	return &resultWriter{format: format, dir: dir, out: out, errOut: errOut, opts: opts, used: make(map[string]int)}
}

// write renders every successful result and reports failures on errOut.
// It returns the number of failed jobs.
func (w *resultWriter) write(results []job.Result) (int, error) {
	failed := 0
	for i, r := range results {
		if !r.Succeeded() {
			failed++
			fmt.Fprintf(w.errOut, "%s: %s failed [%s]: %s\n", r.Name, r.Failure.Stage, r.Failure.Code, r.Failure.Message)
			continue
		}
		if w.dir != "" {
			path, err := w.writeFile(r)
			if err != nil {
				return failed, err
			}
			fmt.Fprintf(w.errOut, "%s -> %s\n", r.Name, path)
			continue
		}
		if len(results) > 1 && (w.format == render.Text || w.format == render.Markdown) {
			if i > 0 {
				fmt.Fprintln(w.out)
			}
			fmt.Fprintf(w.out, "== %s ==\n", r.Name)
		}
		if err := render.Write(w.out, w.format, r, w.opts...); err != nil {
			return failed, err
		}
	}
	return failed, nil
}

func (w *resultWriter) writeFile(r job.Result) (path string, err error) {
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return "", err
	}
	path = filepath.Join(w.dir, w.fileName(r.Name))
	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	return path, render.Write(f, w.format, r, w.opts...)
}

// fileName swaps the input extension for the format's and numbers repeats,
// so call.wav and call.mp3 become call.txt and call-2.txt.
func (w *resultWriter) fileName(name string) string {
	stem := cmp.Or(strings.TrimSuffix(name, filepath.Ext(name)), "transcript")
	w.used[stem]++
	if n := w.used[stem]; n > 1 {
		stem = fmt.Sprintf("%s-%d", stem, n)
	}
	return stem + w.format.Extension()
}
