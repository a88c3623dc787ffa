package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/aretw0/conform"
	"github.com/aretw0/conform/internal/presentation/tui"
	"github.com/aretw0/conform/pkg/codec"
	"github.com/aretw0/conform/pkg/domain"
	"github.com/aretw0/conform/pkg/ports"
)

// Mode selects the operation a command runs on each document.
type Mode string

const (
	ModeValidate  Mode = "validate"
	ModeNormalize Mode = "normalize"
	ModeCheck     Mode = "check"
)

// ResolveSchema reads arg as a schema file when one exists at that path,
// and otherwise treats it as the name of a stored schema.
func ResolveSchema(arg string) (any, error) {
	info, err := os.Stat(arg)
	if err != nil || info.IsDir() {
		return conform.Ref(arg), nil
	}
	data, err := os.ReadFile(arg)
	if err != nil {
		return nil, err
	}
	s, err := codec.DecodeSchema(data)
	if err != nil {
		return nil, fmt.Errorf("schema %s: %w", arg, err)
	}
	return s, nil
}

// Summary counts outcomes across the documents of one command.
type Summary struct {
	Documents int
	Rejected  int
	Errors    int
	Warnings  int
}

// Err returns a domain.ErrDocumentRejected error when any document was
// rejected.
func (s Summary) Err() error {
	if s.Rejected == 0 {
		return nil
	}
	return fmt.Errorf("%w: %d of %d documents", domain.ErrDocumentRejected, s.Rejected, s.Documents)
}

// Runner applies one Mode to documents and prints the results.
type Runner struct {
	Checker  *conform.Checker
	Schema   any
	Mode     Mode
	Reporter *tui.Reporter
	// Out receives normalized documents in ModeNormalize.
	Out    io.Writer
	Format codec.Format
	Logger *slog.Logger
}

func (r *Runner) logger() *slog.Logger {
	if r.Logger == nil {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return r.Logger
}

// Run processes a single document and adds its outcome to sum.
func (r *Runner) Run(ctx context.Context, title string, doc map[string]any, sum *Summary) error {
	sum.Documents++

	var findings []domain.Finding
	switch r.Mode {
	case ModeValidate:
		res, err := r.Checker.Validate(ctx, r.Schema, doc)
		if err != nil {
			return err
		}
		findings = res
	case ModeCheck:
		res, err := r.Checker.Check(ctx, r.Schema, doc)
		if err != nil {
			return err
		}
		findings = res.Findings
	case ModeNormalize:
		out, err := r.Checker.Normalize(ctx, r.Schema, doc)
		if err != nil {
			return fmt.Errorf("%s: %w", title, err)
		}
		return r.writeDocument(out, sum.Documents > 1)
	default:
		return fmt.Errorf("unknown mode %q", r.Mode)
	}

	errs, warnings := domain.Count(findings)
	sum.Errors += errs
	sum.Warnings += warnings
	if errs > 0 {
		sum.Rejected++
	}
	return r.Reporter.Print(tui.Report{Title: title, Findings: findings})
}

func (r *Runner) writeDocument(doc map[string]any, separate bool) error {
	format := r.Format
	if format == "" {
		format = codec.FormatYAML
	}
	data, err := codec.EncodeDocument(doc, format)
	if err != nil {
		return err
	}
	if format == codec.FormatJSON {
		data = append(data, '\n')
	}
	if separate && format == codec.FormatYAML {
		if _, err := io.WriteString(r.Out, "---\n"); err != nil {
			return err
		}
	}
	_, err = r.Out.Write(data)
	return err
}

// Files decodes and processes each YAML or JSON file in order.
func (r *Runner) Files(ctx context.Context, paths []string) (Summary, error) {
	var sum Summary
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return sum, err
		}
		doc, err := codec.DecodeDocument(data)
		if err != nil {
			return sum, fmt.Errorf("%s: %w", path, err)
		}
		if err := r.Run(ctx, path, doc, &sum); err != nil {
			return sum, err
		}
	}
	return sum, nil
}

// Source processes every document of src in ID order.
func (r *Runner) Source(ctx context.Context, src ports.DocumentSource) (Summary, error) {
	var sum Summary
	ids, err := src.Documents(ctx)
	if err != nil {
		return sum, err
	}
	for _, id := range ids {
		doc, err := src.Document(ctx, id)
		if err != nil {
			return sum, err
		}
		if err := r.Run(ctx, id, doc, &sum); err != nil {
			return sum, err
		}
	}
	return sum, nil
}

// WatchSource is a document source that reports changed document IDs.
type WatchSource interface {
	ports.DocumentSource
	Watch(ctx context.Context) (<-chan string, error)
}

// Watch processes src once and then every changed document until ctx is
// done. Per-document failures are logged and do not stop the watcher.
func (r *Runner) Watch(ctx context.Context, src WatchSource) error {
	if _, err := r.Source(ctx, src); err != nil {
		r.logger().Error("Initial pass failed", "err", err)
	}

	changes, err := src.Watch(ctx)
	if err != nil {
		return err
	}
	r.logger().Info("Watching for changes")

	for {
		select {
		case <-ctx.Done():
			return nil
		case id, ok := <-changes:
			if !ok {
				return nil
			}
			doc, err := src.Document(ctx, id)
			if errors.Is(err, domain.ErrDocumentNotFound) {
				r.logger().Info("Document removed", "id", id)
				continue
			}
			if err != nil {
				r.logger().Error("Failed to read document", "id", id, "err", err)
				continue
			}
			var sum Summary
			if err := r.Run(ctx, id, doc, &sum); err != nil {
				r.logger().Error("Check failed", "id", id, "err", err)
			}
		}
	}
}
