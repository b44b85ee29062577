package pdf

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"prospect-composer/internal/common/logger"
	"prospect-composer/internal/common/metrics"
	"prospect-composer/internal/common/observability"
)

// ErrUnknownGuide is returned by Run when a requested slug is not in the catalog.
var ErrUnknownGuide = errors.New("no guide found with slug")

// Summary reports what a batch did. Total is the number of guides selected.
type Summary struct {
	Total     int
	Generated int
	Skipped   int
	Failed    int
	OutputDir string
	Failures  map[string]error
}

// Runner generates guide PDFs from catalog entries and stored content.
type Runner struct {
	catalog  *Catalog
	store    ContentStore
	renderer Renderer
	outDir   string
	logger   logger.Logger
	out      io.Writer
	obs      *observability.Observability
}

type RunnerOption func(*Runner)

// WithProgress sends human-readable progress lines to w.
func WithProgress(w io.Writer) RunnerOption {
	return func(r *Runner) { r.out = w }
}

func WithObservability(o *observability.Observability) RunnerOption {
	return func(r *Runner) { r.obs = o }
}

func NewRunner(catalog *Catalog, store ContentStore, renderer Renderer, outDir string, log logger.Logger, opts ...RunnerOption) *Runner {
	r := &Runner{
		catalog:  catalog,
		store:    store,
		renderer: renderer,
		outDir:   outDir,
		logger:   log,
		out:      io.Discard,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Select returns the guides a run would process. An empty slug means all of
// them in catalog order.
func (r *Runner) Select(slug string) ([]Guide, error) {
	if slug == "" {
		return r.catalog.Guides(), nil
	}
	g, ok := r.catalog.Guide(slug)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownGuide, slug)
	}
	return []Guide{g}, nil
}

// Run generates one PDF per selected guide into the output directory. An
// unknown slug fails before anything touches the filesystem. Guides without
// content are skipped and a guide that fails to render is logged and counted;
// neither stops the batch. Only context cancellation ends it early.
func (r *Runner) Run(ctx context.Context, slug string) (Summary, error) {
	guides, err := r.Select(slug)
	if err != nil {
		return Summary{}, err
	}

	summary := Summary{Total: len(guides), OutputDir: r.outDir, Failures: map[string]error{}}
	if err := os.MkdirAll(r.outDir, 0o755); err != nil {
		return summary, fmt.Errorf("create output directory: %w", err)
	}

	r.printf("\nGenerating %d PDF(s)...\n\n", len(guides))

	for _, guide := range guides {
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		content, found, err := r.store.Content(ctx, guide.Slug)
		if err == nil && !found {
			r.printf("  ⚠ No content found for: %s\n", guide.Slug)
			r.logger.Warn("Skipping guide without content", map[string]interface{}{"slug": guide.Slug})
			metrics.GuidePDFs.WithLabelValues(metrics.OutcomeSkipped).Inc()
			summary.Skipped++
			continue
		}
		if err == nil {
			r.printf("  Generating: %s\n", guide.Slug)
			err = r.generate(ctx, guide, content)
		}
		if err != nil {
			if ctx.Err() != nil {
				return summary, ctx.Err()
			}
			r.printf("  ✗ Failed: %s: %v\n", guide.Slug, err)
			r.logger.Error("Guide PDF generation failed", map[string]interface{}{
				"slug":  guide.Slug,
				"error": err.Error(),
			})
			metrics.GuidePDFs.WithLabelValues(metrics.OutcomeFailed).Inc()
			summary.Failed++
			summary.Failures[guide.Slug] = err
			continue
		}

		r.printf("  ✓ Created: %s.pdf\n", guide.Slug)
		metrics.GuidePDFs.WithLabelValues(metrics.OutcomeGenerated).Inc()
		summary.Generated++
	}

	r.printf("\nDone! Generated %d PDF(s), skipped %d\n", summary.Generated, summary.Skipped)
	if summary.Failed > 0 {
		r.printf("Failed: %d\n", summary.Failed)
	}
	r.printf("Output: %s/\n", r.outDir)

	r.logger.Info("Guide PDF batch finished", map[string]interface{}{
		"total":     summary.Total,
		"generated": summary.Generated,
		"skipped":   summary.Skipped,
		"failed":    summary.Failed,
	})
	return summary, nil
}

// Document assembles the template input for one guide. Guides without an
// industry mapping get the legal theme.
func (r *Runner) Document(guide Guide, content string) Document {
	theme := r.catalog.ThemeForGuide(guide.Slug, r.logger)
	if theme == nil {
		legal, _ := ThemeFor(ThemeLegal)
		theme = &legal
	}

	heroIcon, _ := HeroIcon(guide.Slug, theme.Accent)
	diagram, _ := Diagram(guide.Slug)

	return Document{
		Title:            guide.Title,
		Subtitle:         guide.Subtitle,
		Content:          content,
		HeroIcon:         heroIcon,
		Diagram:          diagram,
		Theme:            theme,
		GeometricPattern: Pattern(theme.Industry, theme.Accent),
		StatCallout:      guide.StatCallout,
	}
}

func (r *Runner) generate(ctx context.Context, guide Guide, content string) error {
	doc := r.Document(guide, content)
	page, err := Compose(doc)
	if err != nil {
		return fmt.Errorf("compose %s: %w", guide.Slug, err)
	}

	start := time.Now()
	data, err := r.renderer.Render(ctx, page, *doc.Theme)
	elapsed := time.Since(start)
	metrics.PDFRenderDuration.Observe(elapsed.Seconds())
	r.obs.RecordRender(ctx, guide.Slug, elapsed, err == nil)
	if err != nil {
		return err
	}

	return writeFileAtomic(filepath.Join(r.outDir, guide.Slug+".pdf"), data)
}

func (r *Runner) printf(format string, args ...interface{}) {
	fmt.Fprintf(r.out, format, args...)
}

// writeFileAtomic leaves either the old file or the complete new one.
func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".guide-*.pdf")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
