package pdf

import (
	"context"
	"fmt"
	"html"
	"io"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"prospect-composer/internal/common/observability"
)

// Renderer turns a composed HTML page into PDF bytes.
type Renderer interface {
	Render(ctx context.Context, page string, theme Theme) ([]byte, error)
}

// Letter paper and margins, in inches.
const (
	paperWidth       = 8.5
	paperHeight      = 11
	marginVertical   = 0.75
	marginHorizontal = 0.65
)

// DefaultIdleWait is how long the network must stay quiet before a page is
// printed. The stylesheet pulls web fonts in with @import, which the load
// event does not wait for.
const DefaultIdleWait = 500 * time.Millisecond

type RodConfig struct {
	// Bin is the Chrome/Chromium executable. Empty lets rod find or
	// download one.
	Bin        string
	Headless   bool
	Timeout    time.Duration
	IdleWait   time.Duration
	FooterText string
}

func (c RodConfig) withDefaults() RodConfig {
	if c.FooterText == "" {
		c.FooterText = "databender.co"
	}
	if c.IdleWait <= 0 {
		c.IdleWait = DefaultIdleWait
	}
	return c
}

// RodRenderer prints pages with a headless Chromium driven by go-rod. Every
// Render call launches its own browser and tears it down before returning.
type RodRenderer struct {
	cfg RodConfig
}

func NewRodRenderer(cfg RodConfig) *RodRenderer {
	return &RodRenderer{cfg: cfg.withDefaults()}
}

func (r *RodRenderer) Render(ctx context.Context, page string, theme Theme) (out []byte, err error) {
	ctx, span := observability.StartSpan(ctx, "pdf.render",
		attribute.String("theme", theme.Industry))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	if r.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.cfg.Timeout)
		defer cancel()
	}

	l := launcher.New().Headless(r.cfg.Headless).NoSandbox(true)
	if r.cfg.Bin != "" {
		l = l.Bin(r.cfg.Bin)
	}
	controlURL, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("launch browser: %w", err)
	}
	defer func() {
		l.Kill()
		l.Cleanup()
	}()

	browser := rod.New().ControlURL(controlURL).Context(ctx)
	if err := browser.Connect(); err != nil {
		return nil, fmt.Errorf("connect to browser: %w", err)
	}
	defer browser.Close()

	tab, err := browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		return nil, fmt.Errorf("open page: %w", err)
	}
	waitIdle := tab.WaitRequestIdle(r.cfg.IdleWait, nil, nil, nil)
	if err := tab.SetDocumentContent(page); err != nil {
		return nil, fmt.Errorf("load document: %w", err)
	}
	waitIdle()
	if _, err := tab.Eval(fontsReadyJS); err != nil {
		return nil, fmt.Errorf("wait for fonts: %w", err)
	}

	stream, err := tab.PDF(&proto.PagePrintToPDF{
		PaperWidth:          num(paperWidth),
		PaperHeight:         num(paperHeight),
		MarginTop:           num(marginVertical),
		MarginBottom:        num(marginVertical),
		MarginLeft:          num(marginHorizontal),
		MarginRight:         num(marginHorizontal),
		PrintBackground:     true,
		DisplayHeaderFooter: true,
		HeaderTemplate:      "<div></div>",
		FooterTemplate:      footerTemplate(r.cfg.FooterText, theme.Accent),
	})
	if err != nil {
		return nil, fmt.Errorf("print to pdf: %w", err)
	}
	return io.ReadAll(stream)
}

// fontsReadyJS resolves once every font the page uses has loaded.
const fontsReadyJS = `() => document.fonts.ready.then(() => true)`

// footerTemplate puts the site name in the accent color on the left and the
// page number on the right.
func footerTemplate(text, accent string) string {
	return fmt.Sprintf(`<div style="width: 100%%; font-size: 8pt; padding: 0 %.2fin; display: flex; justify-content: space-between; color: #999; font-family: Inter, -apple-system, sans-serif;">`+
		`<span style="color: %s; font-weight: 600;">%s</span>`+
		`<span><span class="pageNumber"></span></span>`+
		`</div>`, marginHorizontal, html.EscapeString(accent), html.EscapeString(text))
}

func num(f float64) *float64 {
	return &f
}
