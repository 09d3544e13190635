package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/inovacc/gitlab-dumper/internal/core"
)

const maxErrLen = 70

// Console prints backup progress as plain lines, one per group entered and
// one per project attempted. It implements core.Progress.
type Console struct {
	out io.Writer
}

// NewConsole creates a Console writing to w.
func NewConsole(w io.Writer) *Console {
	return &Console{out: w}
}

func (c *Console) GroupStarted(label string) {
	_, _ = fmt.Fprintf(c.out, "%s/\n", groupStyle.Render(label))
}

func (c *Console) ProjectCloned(name, source string) {
	_, _ = fmt.Fprintf(c.out, "   --> %s %s (%s)\n", successStyle.Render("cloning"), name, sourceStyle.Render(source))
}

func (c *Console) ProjectFailed(name, source string, _ error) {
	_, _ = fmt.Fprintf(c.out, "   --> %s %s (%s)\n", errorStyle.Render("ERROR: Failed to clone"), name, sourceStyle.Render(source))
}

// PrintSummary writes the end-of-run totals and the failed projects.
func PrintSummary(w io.Writer, report *core.Report) {
	_, _ = fmt.Fprintln(w)
	_, _ = fmt.Fprintln(w, "═══════════════════════════════════════════════════════════")
	_, _ = fmt.Fprintln(w, "                    "+titleStyle.Render("Backup Complete"))
	_, _ = fmt.Fprintln(w, "═══════════════════════════════════════════════════════════")
	_, _ = fmt.Fprintf(w, "  Root:     %s\n", report.Root)
	_, _ = fmt.Fprintf(w, "  Groups:   %d\n", report.Groups)
	_, _ = fmt.Fprintf(w, "  Cloned:   %d\n", report.Cloned)
	_, _ = fmt.Fprintf(w, "  Failed:   %d\n", report.Failed())

	if report.Skipped > 0 {
		_, _ = fmt.Fprintf(w, "  Skipped:  %d\n", report.Skipped)
	}

	_, _ = fmt.Fprintln(w, "───────────────────────────────────────────────────────────")
	_, _ = fmt.Fprintf(w, "  Total:    %d projects in %s\n", report.Attempted, report.Duration.Round(time.Millisecond))
	_, _ = fmt.Fprintln(w, "═══════════════════════════════════════════════════════════")

	if report.Failed() == 0 {
		return
	}

	_, _ = fmt.Fprintln(w, "\nFailed projects:")

	for _, f := range report.Failures {
		errMsg := "unknown error"
		if f.Err != nil {
			errMsg = truncate(f.Err.Error(), maxErrLen)
		}

		_, _ = fmt.Fprintf(w, "  - %s/%s [%s]: %s\n", f.GroupLabel, f.ProjectName, f.Reason, errMsg)
	}
}

// truncate shortens s to at most n runes, marking the cut with "...".
func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}

	return string(runes[:n-3]) + "..."
}
