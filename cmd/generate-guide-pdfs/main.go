package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"prospect-composer/internal/common/config"
	"prospect-composer/internal/common/database"
	"prospect-composer/internal/common/logger"
	"prospect-composer/internal/common/observability"
	"prospect-composer/internal/pdf"
)

// options are the command-line overrides for the pdf config section.
type options struct {
	configPath    string
	contentDir    string
	outDir        string
	contentSource string
	browserBin    string
	list          bool
	syncIndex     bool
}

// app holds what run needs besides configuration. Tests swap the renderer.
type app struct {
	stdout      io.Writer
	stderr      io.Writer
	newRenderer func(pdf.RodConfig) pdf.Renderer
	newLogger   func(cfg *config.Config) logger.Logger
}

func main() {
	a := &app{
		stdout:      os.Stdout,
		stderr:      os.Stderr,
		newRenderer: func(c pdf.RodConfig) pdf.Renderer { return pdf.NewRodRenderer(c) },
		newLogger: func(cfg *config.Config) logger.Logger {
			return logger.NewStructured(cfg.Logging.Level, cfg.Logging.Format)
		},
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := a.rootCmd().ExecuteContext(ctx); err != nil {
		if !errors.Is(err, pdf.ErrUnknownGuide) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}

func (a *app) rootCmd() *cobra.Command {
	var opts options

	cmd := &cobra.Command{
		Use:   "generate-guide-pdfs [slug]",
		Short: "Render guide PDFs into the downloads directory",
		Long: `Renders every guide in the catalog, or only [slug], to a branded PDF.

Guides without content are skipped. A guide that fails to render is reported
and the batch continues.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(opts.configPath)
			if err != nil {
				return err
			}
			slug := ""
			if len(args) == 1 {
				slug = args[0]
			}
			return a.run(cmd.Context(), cfg, opts, slug)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.configPath, "config", "c", "", "config file (default: configs/config.yaml lookup)")
	f.StringVar(&opts.contentDir, "content-dir", "", "directory of <slug>.html guide bodies")
	f.StringVarP(&opts.outDir, "out", "o", "", "output directory for the PDFs")
	f.StringVar(&opts.contentSource, "content-source", "", "where guide bodies come from: dir or elasticsearch")
	f.StringVar(&opts.browserBin, "browser-bin", "", "Chrome/Chromium executable")
	f.BoolVar(&opts.list, "list", false, "list catalog guides and exit")
	f.BoolVar(&opts.syncIndex, "sync-index", false, "copy the content directory into the elasticsearch index before rendering")
	return cmd
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFromFile(path)
	}
	return config.Load()
}

func applyOverrides(cfg *config.Config, opts options) {
	if opts.contentDir != "" {
		cfg.PDF.ContentDir = opts.contentDir
	}
	if opts.outDir != "" {
		cfg.PDF.OutputDir = opts.outDir
	}
	if opts.contentSource != "" {
		cfg.PDF.ContentSource = opts.contentSource
	}
	if opts.browserBin != "" {
		cfg.PDF.BrowserBin = opts.browserBin
	}
}

func (a *app) run(ctx context.Context, cfg *config.Config, opts options, slug string) error {
	applyOverrides(cfg, opts)

	catalog, err := pdf.DefaultCatalog()
	if err != nil {
		return err
	}
	if opts.list {
		a.printCatalog(catalog)
		return nil
	}
	if err := cfg.ValidatePDF(); err != nil {
		return err
	}

	log := a.newLogger(cfg)
	obs := observability.New(cfg.Observability.ServiceName, cfg.Observability.JaegerEndpoint, log)
	defer obs.Shutdown()

	var docs pdf.DocumentStore
	if cfg.PDF.ContentSource == pdf.SourceElasticsearch {
		es, err := database.NewElasticsearch(cfg.Database.Elasticsearch)
		if err != nil {
			return err
		}
		if err := es.Ping(ctx); err != nil {
			return err
		}
		docs = es
	}
	store, err := pdf.NewContentStore(cfg.PDF.ContentSource, cfg.PDF.ContentDir, docs, cfg.PDF.ContentIndex)
	if err != nil {
		return err
	}

	if opts.syncIndex {
		if docs == nil {
			return fmt.Errorf("--sync-index needs --content-source=elasticsearch")
		}
		n, err := pdf.NewElasticsearchStore(docs, cfg.PDF.ContentIndex).
			Sync(ctx, catalog, pdf.NewDirStore(cfg.PDF.ContentDir), log)
		if err != nil {
			return err
		}
		fmt.Fprintf(a.stdout, "Indexed %d guide(s) into %s\n", n, cfg.PDF.ContentIndex)
	}

	renderer := a.newRenderer(pdf.RodConfig{
		Bin:        cfg.PDF.BrowserBin,
		Headless:   cfg.PDF.Headless,
		Timeout:    config.GetDuration(cfg.PDF.RenderTimeout),
		FooterText: cfg.PDF.FooterText,
	})
	runner := pdf.NewRunner(catalog, store, renderer, cfg.PDF.OutputDir, log,
		pdf.WithProgress(a.stdout), pdf.WithObservability(obs))

	_, err = runner.Run(ctx, slug)
	if errors.Is(err, pdf.ErrUnknownGuide) {
		fmt.Fprintf(a.stdout, "No guide found with slug: %s\n", slug)
	}
	return err
}

func (a *app) printCatalog(catalog *pdf.Catalog) {
	for _, g := range catalog.Groups() {
		industry := g.Industry
		if industry == "" {
			industry = "unmapped"
		}
		fmt.Fprintf(a.stdout, "%s (%s)\n", g.Name, industry)
		for _, guide := range g.Guides {
			fmt.Fprintf(a.stdout, "  %s  %s\n", guide.Slug, guide.Title)
		}
	}
}
