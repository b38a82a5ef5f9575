package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/pflag"
	"golang.org/x/term"
	"pkt.systems/version"

	"pkt.systems/mdpdf"
	"pkt.systems/mdpdf/ansi"
	"pkt.systems/mdpdf/asset"
	"pkt.systems/mdpdf/internal/config"
	"pkt.systems/mdpdf/internal/server"
	"pkt.systems/mdpdf/layout"
	"pkt.systems/mdpdf/pdf"
)

const (
	defaultWidth = 80

	formatAuto         = "auto"
	formatPDF          = "pdf"
	formatANSI         = "ansi"
	formatInstructions = "instructions"
)

func init() {
	version.SetDefaultModule("pkt.systems/mdpdf")
}

// options holds the parsed command line.
type options struct {
	format      string
	themeName   string
	width       int
	osc8        string
	listThemes  bool
	showVersion bool
	outPath     string
	boring      bool
	debug       bool
	verbose     bool
	serve       bool
	listen      string
	noImages    bool

	imageTimeout time.Duration

	pdfPageSize       string
	pdfMargin         float64
	pdfLineHeight     float64
	pdfFontSize       float64
	pdfRegularFont    string
	pdfBoldFont       string
	pdfItalicFont     string
	pdfBoldItalicFont string
	pdfLayerPane      bool
	pdfCornerImage    string
	pdfCornerMaxW     float64
	pdfCornerMaxH     float64
	pdfCornerPadding  float64

	inputs []string
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func parseFlags(args []string, cfg config.Config, stderr io.Writer) (options, error) {
	var opts options
	var pdfMode bool
	pdfDefaults := pdf.DefaultConfig()

	flags := pflag.NewFlagSet("mdpdf", pflag.ContinueOnError)
	flags.SetOutput(stderr)
	flags.StringVarP(&opts.format, "format", "f", formatAuto, "Output format: auto|pdf|ansi|instructions")
	flags.BoolVar(&pdfMode, "pdf", false, "Generate a PDF (same as --format pdf)")
	flags.StringVarP(&opts.themeName, "theme", "t", cfg.Theme, "Theme name")
	flags.IntVarP(&opts.width, "width", "w", 0, "Terminal width override (0 uses terminal width if available)")
	flags.StringVarP(&opts.osc8, "osc8", "8", "auto", "OSC8 hyperlinks: auto|on|off")
	flags.BoolVar(&opts.listThemes, "list-themes", false, "List available themes")
	flags.BoolVarP(&opts.showVersion, "version", "V", false, "Print version and exit")
	flags.StringVarP(&opts.outPath, "output", "o", "", "Output file instead of stdout")
	flags.BoolVarP(&opts.boring, "boring", "b", false, "Generate non-ANSI output or boring PDF")
	flags.BoolVarP(&opts.debug, "debug", "d", false, "Outline every block with its type (PDF: on a hideable layer)")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "Log debug output to stderr")
	flags.BoolVar(&opts.serve, "serve", false, "Run the HTTP render service")
	flags.StringVar(&opts.listen, "listen", cfg.ListenAddr, "Listen address for --serve")
	flags.BoolVar(&opts.noImages, "no-images", false, "Do not fetch images; render placeholders")
	flags.DurationVar(&opts.imageTimeout, "image-timeout", cfg.ImageTimeout, "Maximum time to wait for images")
	flags.StringVar(&opts.pdfPageSize, "pdf-page-size", cfg.PageSize, "PDF page size")
	flags.Float64Var(&opts.pdfMargin, "pdf-margin", pdfDefaults.Margin, "Page margin in points")
	flags.Float64Var(&opts.pdfLineHeight, "pdf-line-height", pdfDefaults.LineHeight, "Line height multiplier")
	flags.Float64Var(&opts.pdfFontSize, "pdf-font-size", cfg.FontSize, "Base font size in points")
	flags.StringVar(&opts.pdfRegularFont, "pdf-regular-font", "", "TTF path for regular font")
	flags.StringVar(&opts.pdfBoldFont, "pdf-bold-font", "", "TTF path for bold font")
	flags.StringVar(&opts.pdfItalicFont, "pdf-italic-font", "", "TTF path for italic font")
	flags.StringVar(&opts.pdfBoldItalicFont, "pdf-bold-italic-font", "", "TTF path for bold-italic font")
	flags.BoolVar(&opts.pdfLayerPane, "pdf-layer-pane", false, "Open the viewer's layer pane (with --debug)")
	flags.StringVar(&opts.pdfCornerImage, "corner-image", "", "Corner image path (PNG or JPEG)")
	flags.Float64Var(&opts.pdfCornerMaxW, "corner-image-max-width", pdfDefaults.CornerImageMaxWidth, "Corner image max width in points")
	flags.Float64Var(&opts.pdfCornerMaxH, "corner-image-max-height", pdfDefaults.CornerImageMaxHeight, "Corner image max height in points")
	flags.Float64Var(&opts.pdfCornerPadding, "corner-image-padding", pdfDefaults.CornerImagePadding, "Corner image padding in points")

	flags.SetInterspersed(true)
	flags.Usage = func() {
		fmt.Fprintln(stderr, version.Module(), version.Current())
		fmt.Fprintf(stderr, "Usage: mdpdf [flags] [inputs...]\n")
		fmt.Fprintln(stderr, "\nIf no input is provided, Markdown is read from stdin.")
		fmt.Fprintln(stderr, "Inputs may be files, file:// URLs or http(s) URLs; they are concatenated.")
		fmt.Fprintln(stderr, "\nFlags:")
		flags.PrintDefaults()
	}

	if err := flags.Parse(args); err != nil {
		return opts, err
	}
	if pdfMode {
		opts.format = formatPDF
	}
	opts.format = strings.ToLower(strings.TrimSpace(opts.format))
	switch opts.format {
	case formatAuto, formatPDF, formatANSI, formatInstructions:
	default:
		return opts, fmt.Errorf("invalid --format %q: expected auto|pdf|ansi|instructions", opts.format)
	}
	opts.inputs = flags.Args()
	return opts, nil
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	cfg := config.Load()
	opts, err := parseFlags(args, cfg, stderr)
	if err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return 0
		}
		fmt.Fprintln(stderr, err)
		return 2
	}
	if opts.showVersion {
		fmt.Fprintln(stdout, version.Module(), version.Current())
		return 0
	}
	if opts.listThemes {
		printThemes(stdout)
		return 0
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(stderr, "invalid configuration: %v\n", err)
		return 2
	}
	log := newLogger(stderr, cfg.LogLevel, opts.verbose)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if opts.serve {
		cfg.ListenAddr = opts.listen
		if err := serve(ctx, cfg, log); err != nil {
			log.Error("server error", "error", err)
			return 1
		}
		return 0
	}

	theme, ok := mdpdf.ThemeByName(opts.themeName)
	if !ok {
		fmt.Fprintf(stderr, "unknown theme %q\n\n", opts.themeName)
		printThemes(stderr)
		return 2
	}

	format := opts.format
	if format == formatAuto {
		format = formatANSI
		if strings.HasSuffix(strings.ToLower(opts.outPath), ".pdf") {
			format = formatPDF
		}
	}

	reader, closer, err := openInputs(ctx, opts.inputs, stdin)
	if err != nil {
		fmt.Fprintf(stderr, "open input: %v\n", err)
		return 1
	}
	if closer != nil {
		defer func() { _ = closer.Close() }()
	}
	doc, err := mdpdf.ParseReader(reader)
	if err != nil {
		fmt.Fprintf(stderr, "read input: %v\n", err)
		return 1
	}

	writer, closeOut, err := resolveOutput(opts.outPath, stdout)
	if err != nil {
		fmt.Fprintf(stderr, "open output: %v\n", err)
		return 1
	}
	if closeOut != nil {
		defer func() { _ = closeOut.Close() }()
	}

	resolver := server.NewResolver(cfg, imageBaseDir(cfg, opts.inputs), log)
	if opts.noImages {
		resolver = asset.NewResolver(asset.Options{Fetcher: asset.FetcherFunc(imagesDisabled), Logger: log})
	}

	switch format {
	case formatPDF:
		if isTerminal(writer) {
			fmt.Fprintln(stderr, "refusing to write PDF to terminal; use -o/--output")
			return 2
		}
		pdfCfg, err := buildPDFConfig(opts)
		if err != nil {
			fmt.Fprintf(stderr, "pdf config: %v\n", err)
			return 2
		}
		err = pdf.Render(ctx, pdf.RenderRequest{
			Document: doc,
			Writer:   writer,
			Theme:    theme,
			Config:   pdfCfg,
			Resolver: resolver,
			Logger:   log,
			Debug:    opts.debug,
		})
		if err != nil {
			fmt.Fprintf(stderr, "render pdf: %v\n", err)
			return 1
		}
	case formatANSI:
		osc8, err := resolveOSC8(opts.osc8)
		if err != nil {
			fmt.Fprintf(stderr, "invalid --osc8 %q: %v\n", opts.osc8, err)
			return 2
		}
		err = ansi.Render(ctx, ansi.RenderRequest{
			Document: doc,
			Writer:   writer,
			Theme:    theme,
			Config: ansi.Config{
				Width:        resolveWidth(opts.width),
				OSC8:         osc8 && !opts.boring,
				Plain:        opts.boring,
				ImageTimeout: opts.imageTimeout,
			},
			Resolver: resolver,
			Logger:   log,
			Debug:    opts.debug,
		})
		if err != nil {
			fmt.Fprintf(stderr, "render: %v\n", err)
			return 1
		}
	case formatInstructions:
		imgCtx, cancel := context.WithTimeout(ctx, opts.imageTimeout)
		summary, _ := mdpdf.ResolveImages(imgCtx, doc, resolver).Wait(imgCtx)
		cancel()
		log.Debug("images resolved", "resolved", summary.Resolved, "failed", summary.Failed)
		instrs := mdpdf.Render(doc, mdpdf.NewRenderOptions(mdpdf.WithTheme(theme), mdpdf.WithDebug(opts.debug)))
		if err := layout.Fprint(writer, instrs); err != nil {
			fmt.Fprintf(stderr, "write instructions: %v\n", err)
			return 1
		}
	}
	return 0
}

var errImagesDisabled = errors.New("images disabled")

func imagesDisabled(context.Context, string) ([]byte, error) {
	return nil, errImagesDisabled
}

func serve(ctx context.Context, cfg config.Config, log *slog.Logger) error {
	srv := server.NewServer(nil, log, cfg)
	httpServer := &http.Server{
		Addr:         cfg.ListenAddr,
		Handler:      srv,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: cfg.RenderTimeout + 30*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		log.Info("shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = httpServer.Shutdown(shutdownCtx)
	}()

	log.Info("starting mdpdf", "addr", cfg.ListenAddr, "version", version.Current())
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func newLogger(w io.Writer, level string, verbose bool) *slog.Logger {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	if verbose {
		lvl = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl}))
}

func buildPDFConfig(opts options) (pdf.Config, error) {
	cfg := pdf.Config{
		PageSize:             opts.pdfPageSize,
		Margin:               opts.pdfMargin,
		LineHeight:           opts.pdfLineHeight,
		FontSize:             opts.pdfFontSize,
		Boring:               opts.boring,
		OpenLayerPane:        opts.pdfLayerPane,
		CornerImageMaxWidth:  opts.pdfCornerMaxW,
		CornerImageMaxHeight: opts.pdfCornerMaxH,
		CornerImagePadding:   opts.pdfCornerPadding,
		ImageTimeout:         opts.imageTimeout,
	}
	if !config.ValidPageSize(cfg.PageSize) {
		return cfg, fmt.Errorf("unknown page size %q", cfg.PageSize)
	}
	if opts.pdfCornerImage != "" {
		cfg.CornerImagePath = normalizePath(opts.pdfCornerImage)
	}

	reg, bold, italic := strings.TrimSpace(opts.pdfRegularFont), strings.TrimSpace(opts.pdfBoldFont), strings.TrimSpace(opts.pdfItalicFont)
	if reg == "" && bold == "" && italic == "" {
		return cfg, nil
	}
	if reg == "" || bold == "" || italic == "" {
		return cfg, fmt.Errorf("pdf fonts: regular, bold, and italic fonts must all be provided")
	}
	reg = normalizePath(reg)
	bold = normalizePath(bold)
	italic = normalizePath(italic)
	if err := ensureFont(reg); err != nil {
		return cfg, fmt.Errorf("regular font: %w", err)
	}
	if err := ensureFont(bold); err != nil {
		return cfg, fmt.Errorf("bold font: %w", err)
	}
	if err := ensureFont(italic); err != nil {
		return cfg, fmt.Errorf("italic font: %w", err)
	}
	cfg.FontFamily = "mdpdf"
	cfg.RegularFont = reg
	cfg.BoldFont = bold
	cfg.ItalicFont = italic
	if opts.pdfBoldItalicFont != "" {
		boldItalic := normalizePath(opts.pdfBoldItalicFont)
		if err := ensureFont(boldItalic); err != nil {
			return cfg, fmt.Errorf("bold-italic font: %w", err)
		}
		cfg.BoldItalicFont = boldItalic
	}
	return cfg, nil
}

func printThemes(w io.Writer) {
	names := mdpdf.AvailableThemes()
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintln(w, name)
	}
}

// imageBaseDir is the directory relative image paths resolve against: the
// first local input's directory, or the working directory for stdin.
// Remote inputs and MDPDF_ALLOW_FILES=false disable file images.
func imageBaseDir(cfg config.Config, inputs []string) string {
	if !cfg.AllowFiles {
		return ""
	}
	if len(inputs) == 0 {
		wd, err := os.Getwd()
		if err != nil {
			return ""
		}
		return wd
	}
	raw := strings.TrimSpace(inputs[0])
	if u, err := url.Parse(raw); err == nil && u.Scheme != "" {
		switch strings.ToLower(u.Scheme) {
		case "http", "https":
			return ""
		case "file":
			return filepath.Dir(fileURLPath(u))
		}
	}
	return filepath.Dir(normalizePath(raw))
}

func resolveWidth(width int) int {
	if width > 0 {
		return width
	}
	return terminalWidth(defaultWidth)
}

func terminalWidth(fallback int) int {
	fd := int(os.Stdout.Fd())
	if term.IsTerminal(fd) {
		if w, _, err := term.GetSize(fd); err == nil && w > 0 {
			return w
		}
	}
	if value := os.Getenv("COLUMNS"); value != "" {
		if w, err := strconv.Atoi(value); err == nil && w > 0 {
			return w
		}
	}
	return fallback
}

func resolveOSC8(mode string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case "", "auto":
		return ansi.DetectOSC8Support(), nil
	case "on", "true", "1", "yes":
		return true, nil
	case "off", "false", "0", "no":
		return false, nil
	default:
		return false, fmt.Errorf("expected auto|on|off")
	}
}

func resolveOutput(path string, stdout io.Writer) (io.Writer, io.Closer, error) {
	if strings.TrimSpace(path) == "" {
		return stdout, nil, nil
	}
	clean := normalizePath(path)
	dir := filepath.Dir(clean)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, nil, err
		}
	}
	f, err := os.Create(clean)
	if err != nil {
		return nil, nil, err
	}
	return f, f, nil
}

func normalizePath(path string) string {
	if strings.HasPrefix(path, "~/") || path == "~" {
		home, err := os.UserHomeDir()
		if err == nil {
			if path == "~" {
				path = home
			} else {
				path = filepath.Join(home, path[2:])
			}
		}
	}
	abs, err := filepath.Abs(path)
	if err == nil {
		return abs
	}
	return path
}

func ensureFont(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if info.IsDir() {
		return fmt.Errorf("path is a directory")
	}
	if !strings.HasSuffix(strings.ToLower(info.Name()), ".ttf") {
		return fmt.Errorf("expected .ttf font file")
	}
	return nil
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(f.Fd()))
}
