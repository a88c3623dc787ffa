package tui

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/aretw0/conform/pkg/domain"
	"github.com/muesli/termenv"
	"golang.org/x/term"
)

// Report renders findings for one document.
type Report struct {
	// Title names the document, e.g. its file path.
	Title    string
	Findings []domain.Finding
}

// Reporter writes reports either as a glamour-rendered markdown table (on a
// terminal) or as one coloured line per finding.
type Reporter struct {
	out      io.Writer
	markdown bool
	render   func(string) (string, error)
}

// NewReporter inspects w: when it is a terminal, reports are rendered as
// markdown tables sized to its width.
func NewReporter(w io.Writer) *Reporter {
	r := &Reporter{out: w}
	if f, ok := w.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		width, _, err := term.GetSize(int(f.Fd()))
		if err != nil {
			width = 0
		}
		r.markdown = true
		r.render = NewRenderer(width)
	}
	return r
}

// NewPlainReporter always writes plain lines.
func NewPlainReporter(w io.Writer) *Reporter {
	return &Reporter{out: w}
}

// Print writes the report.
func (r *Reporter) Print(rep Report) error {
	if r.markdown {
		rendered, err := r.render(Markdown(rep))
		if err != nil {
			return err
		}
		_, err = io.WriteString(r.out, rendered)
		return err
	}
	return r.printPlain(rep)
}

func (r *Reporter) printPlain(rep Report) error {
	out := termenv.NewOutput(r.out)
	errs, warnings := domain.Count(rep.Findings)

	status := out.String("✓").Foreground(out.Color("2"))
	if errs > 0 {
		status = out.String("✗").Foreground(out.Color("1"))
	}
	if _, err := fmt.Fprintf(r.out, "%s %s %s\n", status, out.String(rep.Title).Bold(), summary(errs, warnings)); err != nil {
		return err
	}

	for _, f := range rep.Findings {
		color := "1"
		if f.Severity == domain.SeverityWarning {
			color = "3"
		}
		if _, err := fmt.Fprintf(r.out, "  %s\n", out.String(f.String()).Foreground(out.Color(color))); err != nil {
			return err
		}
	}
	return nil
}

// Markdown renders a report as a heading and a findings table.
func Markdown(rep Report) string {
	errs, warnings := domain.Count(rep.Findings)

	var sb strings.Builder
	symbol := "✓"
	if errs > 0 {
		symbol = "✗"
	}
	fmt.Fprintf(&sb, "## %s %s\n\n%s\n", symbol, rep.Title, summary(errs, warnings))
	if len(rep.Findings) == 0 {
		return sb.String()
	}

	sb.WriteString("\n| Severity | Key | Message |\n|---|---|---|\n")
	for _, f := range rep.Findings {
		fmt.Fprintf(&sb, "| %s | `%s` | %s |\n", f.Severity, f.Key, escapeCell(f.Message))
	}
	return sb.String()
}

func summary(errs, warnings int) string {
	if errs == 0 && warnings == 0 {
		return "no findings"
	}
	return fmt.Sprintf("%s, %s", plural(errs, "error"), plural(warnings, "warning"))
}

func plural(n int, word string) string {
	if n == 1 {
		return "1 " + word
	}
	return fmt.Sprintf("%d %ss", n, word)
}

func escapeCell(s string) string {
	s = strings.ReplaceAll(s, "|", "\\|")
	return strings.ReplaceAll(s, "\n", " ")
}
