package render

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/kbukum/scribe/align"
	"github.com/kbukum/scribe/job"
)

func writeText(w io.Writer, r job.Result, lines []align.Line) error {
	bw := bufio.NewWriter(w)
	if r.Failure != nil {
		fmt.Fprintf(bw, "Error: %s\n", r.Failure.Error())
		return bw.Flush()
	}
	for _, l := range lines {
		fmt.Fprintln(bw, l.String())
	}
	return bw.Flush()
}

func writeMarkdown(w io.Writer, r job.Result, lines []align.Line) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "## %s\n\n", markdownEscape(r.Name))
	if r.Failure != nil {
		fmt.Fprintf(bw, "> **%s** during %s: %s\n", r.Failure.Code, r.Failure.Stage, markdownEscape(r.Failure.Message))
		return bw.Flush()
	}
	fmt.Fprintln(bw, "| Speaker | Start | End | Text |")
	fmt.Fprintln(bw, "|---|---|---|---|")
	for _, l := range lines {
		fmt.Fprintf(bw, "| %s | %s | %s | %s |\n",
			markdownEscape(l.Speaker), clock(l.Start, "."), clock(l.End, "."), markdownEscape(l.Text))
	}
	return bw.Flush()
}

func writeSRT(w io.Writer, lines []align.Line) error {
	bw := bufio.NewWriter(w)
	n := 0
	for _, l := range lines {
		if strings.TrimSpace(l.Text) == "" {
			continue
		}
		n++
		fmt.Fprintf(bw, "%d\n%s --> %s\n[%s] %s\n\n", n, clock(l.Start, ","), clock(l.End, ","), l.Speaker, l.Text)
	}
	return bw.Flush()
}

func writeVTT(w io.Writer, lines []align.Line) error {
	bw := bufio.NewWriter(w)
	fmt.Fprint(bw, "WEBVTT\n\n")
	for _, l := range lines {
		if strings.TrimSpace(l.Text) == "" {
			continue
		}
		fmt.Fprintf(bw, "%s --> %s\n<v %s>%s\n\n", clock(l.Start, "."), clock(l.End, "."), l.Speaker, l.Text)
	}
	return bw.Flush()
}

// clock formats seconds as HH:MM:SS<sep>mmm.
func clock(seconds float64, sep string) string {
	ms := int64(math.Round(max(seconds, 0) * 1000))
	h := ms / 3_600_000
	m := ms / 60_000 % 60
	s := ms / 1000 % 60
	return fmt.Sprintf("%02d:%02d:%02d%s%03d", h, m, s, sep, ms%1000)
}

var markdownReplacer = strings.NewReplacer("|", `\|`, "\n", " ", "*", `\*`, "_", `\_`)

func markdownEscape(s string) string { return markdownReplacer.Replace(s) }
