package ansi

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"pkt.systems/mdpdf"
	"pkt.systems/mdpdf/asset"
)

// RenderRequest contains inputs for terminal rendering. Either Reader or
// Document must be set; Document wins when both are.
type RenderRequest struct {
	Reader   io.Reader
	Document *mdpdf.Document
	Writer   io.Writer
	Theme    mdpdf.Theme
	Config   Config
	Options  []mdpdf.RenderOption
	// Resolver, when set, resolves images first so they are labelled as
	// available. Without it every image prints as pending.
	Resolver *asset.Resolver
	Logger   *slog.Logger
	Debug    bool
}

// Render converts Markdown to ANSI-styled terminal output.
func Render(ctx context.Context, req RenderRequest) error {
	if req.Writer == nil {
		return fmt.Errorf("ansi render: writer is nil")
	}
	log := req.Logger
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	doc := req.Document
	if doc == nil {
		if req.Reader == nil {
			return fmt.Errorf("ansi render: reader is nil")
		}
		var err error
		if doc, err = mdpdf.ParseReader(req.Reader); err != nil {
			return fmt.Errorf("ansi render: %w", err)
		}
	}
	start := time.Now()
	cfg := DefaultConfig()
	applyConfig(&cfg, req.Config)
	if req.Resolver != nil {
		rctx := ctx
		if cfg.ImageTimeout > 0 {
			var cancel context.CancelFunc
			rctx, cancel = context.WithTimeout(ctx, cfg.ImageTimeout)
			defer cancel()
		}
		summary, err := mdpdf.ResolveImages(rctx, doc, req.Resolver).Wait(ctx)
		if err != nil && ctx.Err() != nil {
			return ctx.Err()
		}
		log.Debug("images resolved", "resolved", summary.Resolved, "failed", summary.Failed, "cancelled", summary.Cancelled)
	}
	theme := req.Theme
	if theme == nil {
		theme = mdpdf.DefaultTheme()
	}
	opts := append([]mdpdf.RenderOption{mdpdf.WithTheme(theme), mdpdf.WithDebug(req.Debug)}, req.Options...)
	engine := NewEngine(req.Writer, cfg)
	if err := mdpdf.RenderTo(engine, doc, mdpdf.NewRenderOptions(opts...)); err != nil {
		return fmt.Errorf("ansi render: %w", err)
	}
	if err := engine.Flush(); err != nil {
		return fmt.Errorf("ansi render: %w", err)
	}
	log.Debug("ansi rendered", "duration_ms", time.Since(start).Milliseconds())
	return nil
}
