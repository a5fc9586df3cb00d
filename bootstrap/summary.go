package bootstrap

import (
	"cmp"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/kbukum/scribe/component"
)

// Summary is the human-readable banner printed once startup completes.
type Summary struct {
	service string
	version string
	took    time.Duration
	out     io.Writer
}

// NewSummary returns a Summary writing to out.
func NewSummary(service, version string, out io.Writer) *Summary {
	return &Summary{service: service, version: version, out: out}
}

// SetStartupDuration records how long startup took.
func (s *Summary) SetStartupDuration(d time.Duration) { s.took = d }

// Display prints each registered component and its current health.
func (s *Summary) Display(ctx context.Context, registry *component.Registry) {
	var b strings.Builder
	fmt.Fprintf(&b, "\n%s %s started in %.2fs\n\n", s.service, s.version, s.took.Seconds())

	comps := registry.All()
	if len(comps) == 0 {
		b.WriteString("   └── no components registered\n\n")
		io.WriteString(s.out, b.String())
		return
	}

	lines := make([]string, len(comps))
	for i, c := range comps {
		lines[i] = summarize(c)
	}
	b.WriteString("Components\n")
	tree(&b, lines)

	healths := registry.HealthAll(ctx)
	lines = lines[:0]
	for _, h := range healths {
		line := fmt.Sprintf("%s %s: %s", mark(h.Status), h.Name, h.Status)
		if h.Message != "" {
			line += " (" + h.Message + ")"
		}
		lines = append(lines, line)
	}
	fmt.Fprintf(&b, "\nHealth (%s)\n", component.Overall(healths))
	tree(&b, lines)
	b.WriteString("\n")
	io.WriteString(s.out, b.String())
}

func tree(b *strings.Builder, lines []string) {
	for i, line := range lines {
		branch := "├──"
		if i == len(lines)-1 {
			branch = "└──"
		}
		fmt.Fprintf(b, "   %s %s\n", branch, line)
	}
}

func summarize(c component.Component) string {
	d, ok := c.(component.Describable)
	if !ok {
		return c.Name()
	}
	desc := d.Describe()
	parts := []string{cmp.Or(desc.Name, c.Name())}
	if desc.Type != "" {
		parts = append(parts, "["+desc.Type+"]")
	}
	if desc.Details != "" {
		parts = append(parts, desc.Details)
	}
	if desc.Port > 0 {
		parts = append(parts, fmt.Sprintf("(:%d)", desc.Port))
	}
	return strings.Join(parts, " ")
}

func mark(s component.HealthStatus) string {
	switch s {
	case component.StatusHealthy:
		return "ok"
	case component.StatusDegraded:
		return "!!"
	}
	return "xx"
}
