package pdf

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"path/filepath"
	"strings"
	"time"

	"codeberg.org/go-pdf/fpdf"

	"pkt.systems/mdpdf"
	"pkt.systems/mdpdf/asset"
)

// RenderRequest contains inputs for PDF rendering. Either Reader or Document
// must be set; Document wins when both are.
type RenderRequest struct {
	Reader   io.Reader
	Document *mdpdf.Document
	Writer   io.Writer
	Theme    mdpdf.Theme
	Config   Config
	Options  []mdpdf.RenderOption
	// Resolver fetches images. Nil uses a default HTTP resolver.
	Resolver *asset.Resolver
	Logger   *slog.Logger
	// Debug outlines every block, on an optional content layer unless
	// Config.Boring is set.
	Debug bool
}

// Render converts Markdown to a themed PDF. Images are resolved first, for
// at most Config.ImageTimeout; whatever is still missing then renders as a
// placeholder. Cancelling ctx aborts the render.
func Render(ctx context.Context, req RenderRequest) error {
	if req.Writer == nil {
		return fmt.Errorf("pdf render: writer is nil")
	}
	log := req.Logger
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	doc := req.Document
	if doc == nil {
		if req.Reader == nil {
			return fmt.Errorf("pdf render: reader is nil")
		}
		var err error
		if doc, err = mdpdf.ParseReader(req.Reader); err != nil {
			return fmt.Errorf("pdf render: %w", err)
		}
	}

	cfg := DefaultConfig()
	applyConfig(&cfg, req.Config)
	if req.Debug && !cfg.Boring {
		cfg.UseOCGDebugLayer = true
	}

	start := time.Now()
	if err := resolveImages(ctx, doc, req.Resolver, cfg.ImageTimeout, log); err != nil {
		return err
	}

	engine, err := NewEngine(cfg)
	if err != nil {
		return err
	}
	engine.SetMetadata(doc.AST.Meta)

	theme := req.Theme
	if theme == nil {
		theme = mdpdf.DefaultTheme()
	}
	opts := append([]mdpdf.RenderOption{mdpdf.WithTheme(theme), mdpdf.WithDebug(req.Debug)}, req.Options...)
	if err := mdpdf.RenderTo(engine, doc, mdpdf.NewRenderOptions(opts...)); err != nil {
		return fmt.Errorf("pdf render: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := engine.Output(req.Writer); err != nil {
		return err
	}
	log.Debug("pdf rendered",
		"pages", engine.PageCount(),
		"debug", req.Debug,
		"duration_ms", time.Since(start).Milliseconds())
	return nil
}

// resolveImages waits for the document's images under timeout. Only a
// cancelled parent context is an error.
func resolveImages(ctx context.Context, doc *mdpdf.Document, r *asset.Resolver, timeout time.Duration, log *slog.Logger) error {
	rctx := ctx
	if timeout > 0 {
		var cancel context.CancelFunc
		rctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	summary, err := mdpdf.ResolveImages(rctx, doc, r).Wait(ctx)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if !errors.Is(err, context.DeadlineExceeded) {
			return fmt.Errorf("pdf render: resolve images: %w", err)
		}
		log.Warn("image resolution timed out", "timeout", timeout, "cancelled", summary.Cancelled)
		return nil
	}
	if summary.Failed > 0 {
		log.Warn("some images could not be resolved", "failed", summary.Failed, "requested", summary.Requested)
	}
	return nil
}

func validateImagePath(path string) error {
	if imageTypeForPath(path) == "" {
		return fmt.Errorf("corner image must be PNG or JPEG")
	}
	return nil
}

func imageTypeForPath(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		return "PNG"
	case ".jpg", ".jpeg":
		return "JPG"
	default:
		return ""
	}
}

// prepareCornerImage registers the first page's corner image and scales it
// into the configured bounds.
func prepareCornerImage(pdf *fpdf.Fpdf, cfg Config) (*cornerImage, error) {
	if cfg.CornerImagePath == "" {
		return nil, nil
	}
	imageType := imageTypeForPath(cfg.CornerImagePath)
	if imageType == "" {
		return nil, fmt.Errorf("pdf render: corner image must be PNG or JPEG")
	}
	info := pdf.RegisterImageOptions(cfg.CornerImagePath, fpdf.ImageOptions{ImageType: imageType, ReadDpi: true})
	if err := pdf.Error(); err != nil {
		return nil, fmt.Errorf("pdf render: load corner image: %w", err)
	}
	if info == nil {
		return nil, fmt.Errorf("pdf render: load corner image: not registered")
	}
	width, height := info.Extent()
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("pdf render: invalid corner image dimensions")
	}
	maxW, maxH := cfg.CornerImageMaxWidth, cfg.CornerImageMaxHeight
	if maxW > 0 || maxH > 0 {
		scale := 1.0
		if maxW > 0 {
			scale = math.Min(scale, maxW/width)
		}
		if maxH > 0 {
			scale = math.Min(scale, maxH/height)
		}
		width *= scale
		height *= scale
	}
	return &cornerImage{
		name:   cfg.CornerImagePath,
		width:  width,
		height: height,
		bottom: cfg.Margin + height + cfg.CornerImagePadding,
	}, nil
}
