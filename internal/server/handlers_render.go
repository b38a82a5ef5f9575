package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5/middleware"

	"pkt.systems/mdpdf"
	"pkt.systems/mdpdf/ansi"
	"pkt.systems/mdpdf/internal/config"
	"pkt.systems/mdpdf/layout"
	"pkt.systems/mdpdf/pdf"
)

const (
	formatPDF          = "pdf"
	formatANSI         = "ansi"
	formatInstructions = "instructions"
)

// renderParams are the query parameters of POST /v1/render.
type renderParams struct {
	format   string
	debug    bool
	boring   bool
	theme    mdpdf.Theme
	width    int
	pageSize string
}

func parseRenderParams(r *http.Request, cfg pageDefaults) (renderParams, error) {
	q := r.URL.Query()
	p := renderParams{
		format:   strings.ToLower(q.Get("format")),
		pageSize: cfg.pageSize,
	}
	if p.format == "" {
		p.format = formatPDF
	}
	switch p.format {
	case formatPDF, formatANSI, formatInstructions:
	default:
		return p, fmt.Errorf("unknown format %q: expected pdf|ansi|instructions", p.format)
	}
	var err error
	if p.debug, err = boolParam(q.Get("debug")); err != nil {
		return p, fmt.Errorf("debug: %w", err)
	}
	if p.boring, err = boolParam(q.Get("boring")); err != nil {
		return p, fmt.Errorf("boring: %w", err)
	}
	name := q.Get("theme")
	if name == "" {
		name = cfg.theme
	}
	theme, ok := mdpdf.ThemeByName(name)
	if !ok {
		return p, fmt.Errorf("unknown theme %q", name)
	}
	p.theme = theme
	if v := q.Get("width"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 20 || n > 1000 {
			return p, fmt.Errorf("width must be an integer between 20 and 1000")
		}
		p.width = n
	}
	if v := q.Get("page_size"); v != "" {
		if !config.ValidPageSize(v) {
			return p, fmt.Errorf("unknown page size %q", v)
		}
		p.pageSize = v
	}
	return p, nil
}

type pageDefaults struct {
	pageSize string
	theme    string
}

func boolParam(v string) (bool, error) {
	if v == "" {
		return false, nil
	}
	return strconv.ParseBool(v)
}

func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	params, err := parseRenderParams(r, pageDefaults{pageSize: s.cfg.PageSize, theme: s.cfg.Theme})
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxRequestBytes)
	src, err := io.ReadAll(r.Body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			jsonError(w, fmt.Sprintf("request exceeds max size (%d bytes)", s.cfg.MaxRequestBytes), http.StatusRequestEntityTooLarge)
			return
		}
		jsonError(w, "failed to read request body", http.StatusBadRequest)
		return
	}
	if err := mdpdf.ValidateInput(src); err != nil {
		jsonError(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}
	doc := mdpdf.Parse(string(src))

	ctx := r.Context()
	if s.cfg.RenderTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.RenderTimeout)
		defer cancel()
	}
	log := s.log.With("request_id", middleware.GetReqID(r.Context()), "format", params.format)

	var out bytes.Buffer
	var contentType string
	switch params.format {
	case formatPDF:
		contentType = "application/pdf"
		err = pdf.Render(ctx, pdf.RenderRequest{
			Document: doc,
			Writer:   &out,
			Theme:    params.theme,
			Config: pdf.Config{
				PageSize:     params.pageSize,
				FontSize:     s.cfg.FontSize,
				Boring:       params.boring,
				ImageTimeout: s.cfg.ImageTimeout,
			},
			Resolver: s.resolver,
			Logger:   log,
			Debug:    params.debug,
		})
	case formatANSI:
		contentType = "text/plain; charset=utf-8"
		err = ansi.Render(ctx, ansi.RenderRequest{
			Document: doc,
			Writer:   &out,
			Theme:    params.theme,
			Config:   ansi.Config{Width: params.width, Plain: params.boring, ImageTimeout: s.cfg.ImageTimeout},
			Resolver: s.resolver,
			Logger:   log,
			Debug:    params.debug,
		})
	case formatInstructions:
		contentType = "text/plain; charset=utf-8"
		err = s.renderInstructions(ctx, doc, &out, params)
	}
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			status = http.StatusServiceUnavailable
		}
		log.Warn("render failed", "error", err)
		jsonError(w, err.Error(), status)
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Length", strconv.Itoa(out.Len()))
	w.WriteHeader(http.StatusOK)
	w.Write(out.Bytes())
}

// renderInstructions writes the layout instruction stream as text. Images
// get at most the configured image timeout to resolve.
func (s *Server) renderInstructions(ctx context.Context, doc *mdpdf.Document, w io.Writer, p renderParams) error {
	imgCtx := ctx
	if s.cfg.ImageTimeout > 0 {
		var cancel context.CancelFunc
		imgCtx, cancel = context.WithTimeout(ctx, s.cfg.ImageTimeout)
		defer cancel()
	}
	if _, err := mdpdf.ResolveImages(imgCtx, doc, s.resolver).Wait(imgCtx); err != nil && ctx.Err() != nil {
		return ctx.Err()
	}
	instrs := mdpdf.Render(doc, mdpdf.NewRenderOptions(mdpdf.WithTheme(p.theme), mdpdf.WithDebug(p.debug)))
	return layout.Fprint(w, instrs)
}

func (s *Server) handleThemes(w http.ResponseWriter, r *http.Request) {
	names := mdpdf.AvailableThemes()
	sort.Strings(names)
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"themes": names, "default": s.cfg.Theme})
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
