package pdf

import (
	"fmt"
	"io"
	"math"
	"path/filepath"
	"strings"

	"codeberg.org/go-pdf/fpdf"

	"pkt.systems/mdpdf/ast"
	"pkt.systems/mdpdf/layout"
)

// Vertical spacing between blocks, in em.
const (
	gapHeadingBefore   = 0.8
	gapHeadingAfter    = 0.4
	gapParagraph       = 0.6
	gapParagraphInList = 0.2
	gapCode            = 0.5
	gapEquation        = 0.5
	gapTable           = 0.6
	gapQuote           = 0.4

	listIndent   = 1.6
	markerGap    = 0.4
	codePadding  = 0.5
	cellPadding  = 0.4
	quoteRuleW   = 0.15
	debugLabelPt = 6
)

// Engine is a layout.Engine that flows the instruction stream onto PDF pages
// with fpdf: it wraps lines by font metrics, breaks pages, draws list
// markers, quote rules, code backgrounds, table grids, images, math regions
// and clickable links. Debug annotations are outlined, optionally in their
// own optional content layer.
type Engine struct {
	pdf        *fpdf.Fpdf
	cfg        Config
	translate  func(string) string
	encoded    map[rune]string
	boldItalic bool
	images     map[string]registeredImage
	corner     *cornerImage
	debugLayer int

	pageW, pageH float64
	pageNum      int
	y            float64
	gap          float64

	frames []*frame
	items  []item
	table  *tableState
}

type frame struct {
	box    layout.Box
	left   float64
	right  float64
	marker string
	// started is set once the frame drew something; top is the y of its
	// first drawing on the current page.
	started    bool
	top        float64
	annotation bool
}

type cornerImage struct {
	name   string
	width  float64
	height float64
	bottom float64
}

// NewEngine creates a PDF document with the first page started.
func NewEngine(cfg Config) (*Engine, error) {
	merged := DefaultConfig()
	applyConfig(&merged, cfg)
	cfg = merged
	if cfg.FontFamily == "" || cfg.FontSize <= 0 || cfg.LineHeight <= 0 {
		return nil, fmt.Errorf("pdf render: invalid font configuration")
	}
	hasPath := cfg.RegularFont != "" || cfg.BoldFont != "" || cfg.ItalicFont != ""
	hasBytes := len(cfg.RegularFontBytes) > 0 || len(cfg.BoldFontBytes) > 0 || len(cfg.ItalicFontBytes) > 0
	if hasPath && hasBytes {
		return nil, fmt.Errorf("pdf render: cannot mix font paths with embedded font bytes")
	}
	if hasBytes && (len(cfg.RegularFontBytes) == 0 || len(cfg.BoldFontBytes) == 0 || len(cfg.ItalicFontBytes) == 0) {
		return nil, fmt.Errorf("pdf render: missing embedded font bytes")
	}
	if hasPath && (cfg.RegularFont == "" || cfg.BoldFont == "" || cfg.ItalicFont == "") {
		return nil, fmt.Errorf("pdf render: missing font paths")
	}
	useCoreFont := !hasPath && !hasBytes
	if useCoreFont && !isCoreFont(cfg.FontFamily) {
		return nil, fmt.Errorf("pdf render: core font family required when font paths are empty")
	}
	if !isCoreFont(cfg.MonoFamily) && cfg.MonoFamily != cfg.FontFamily {
		return nil, fmt.Errorf("pdf render: mono family %q must be a core font or the body family", cfg.MonoFamily)
	}
	if cfg.CornerImagePath != "" {
		if err := validateImagePath(cfg.CornerImagePath); err != nil {
			return nil, fmt.Errorf("pdf render: %w", err)
		}
	}
	if cfg.Boring {
		cfg.IgnoreColors = true
		cfg.BackgroundEnabled = false
		cfg.TextRGB = [3]int{0, 0, 0}
	}

	pdf := fpdf.New("P", "pt", cfg.PageSize, "")
	pdf.SetMargins(cfg.Margin, cfg.Margin, cfg.Margin)
	pdf.SetAutoPageBreak(false, cfg.Margin)
	pdf.SetCreator("mdpdf", true)
	e := &Engine{
		pdf:        pdf,
		cfg:        cfg,
		encoded:    make(map[rune]string),
		images:     make(map[string]registeredImage),
		debugLayer: -1,
		boldItalic: len(cfg.BoldItalicFontBytes) > 0 || cfg.BoldItalicFont != "",
	}
	if hasBytes {
		pdf.AddUTF8FontFromBytes(cfg.FontFamily, "", cfg.RegularFontBytes)
		pdf.AddUTF8FontFromBytes(cfg.FontFamily, "B", cfg.BoldFontBytes)
		pdf.AddUTF8FontFromBytes(cfg.FontFamily, "I", cfg.ItalicFontBytes)
		if len(cfg.BoldItalicFontBytes) > 0 {
			pdf.AddUTF8FontFromBytes(cfg.FontFamily, "BI", cfg.BoldItalicFontBytes)
		}
	} else if hasPath {
		fontDir := filepath.Dir(cfg.RegularFont)
		if filepath.Dir(cfg.BoldFont) != fontDir || filepath.Dir(cfg.ItalicFont) != fontDir {
			return nil, fmt.Errorf("pdf render: font paths must be in the same directory")
		}
		if cfg.BoldItalicFont != "" && filepath.Dir(cfg.BoldItalicFont) != fontDir {
			return nil, fmt.Errorf("pdf render: bold-italic font must be in the same directory as body fonts")
		}
		pdf.SetFontLocation(fontDir)
		pdf.AddUTF8Font(cfg.FontFamily, "", filepath.Base(cfg.RegularFont))
		pdf.AddUTF8Font(cfg.FontFamily, "B", filepath.Base(cfg.BoldFont))
		pdf.AddUTF8Font(cfg.FontFamily, "I", filepath.Base(cfg.ItalicFont))
		if cfg.BoldItalicFont != "" {
			pdf.AddUTF8Font(cfg.FontFamily, "BI", filepath.Base(cfg.BoldItalicFont))
		}
	}
	pdf.SetFont(cfg.FontFamily, "", cfg.FontSize)
	if err := pdf.Error(); err != nil {
		return nil, fmt.Errorf("pdf render: font setup failed: %w", err)
	}
	charWidth := pdf.GetStringWidth("M")
	if math.IsNaN(charWidth) || charWidth <= 0 {
		return nil, fmt.Errorf("pdf render: invalid font metrics (charWidth=%v)", charWidth)
	}
	e.translate = pdf.UnicodeTranslatorFromDescriptor("")
	e.pageW, e.pageH = pdf.GetPageSize()
	if cols := int((e.pageW - 2*cfg.Margin) / charWidth); cols < 10 {
		return nil, fmt.Errorf("pdf render: page too narrow for content (cols=%d)", cols)
	}
	corner, err := prepareCornerImage(pdf, cfg)
	if err != nil {
		return nil, err
	}
	e.corner = corner
	if cfg.UseOCGDebugLayer {
		e.debugLayer = pdf.AddLayer("debug", true)
		if cfg.OpenLayerPane {
			pdf.OpenLayerPane()
		}
	}
	e.frames = []*frame{{left: cfg.Margin, right: e.pageW - cfg.Margin}}
	e.addPage()
	return e, nil
}

// SetMetadata writes document metadata into the PDF info dictionary.
func (e *Engine) SetMetadata(meta ast.Meta) {
	if meta.Title != "" {
		e.pdf.SetTitle(meta.Title, true)
	}
	if meta.Author != "" {
		e.pdf.SetAuthor(meta.Author, true)
	}
	if meta.Subject != "" {
		e.pdf.SetSubject(meta.Subject, true)
	}
	if len(meta.Keywords) > 0 {
		e.pdf.SetKeywords(strings.Join(meta.Keywords, ", "), true)
	}
}

// PageCount returns the number of pages started so far.
func (e *Engine) PageCount() int {
	return e.pageNum
}

// Output flushes pending content and writes the document to w.
func (e *Engine) Output(w io.Writer) error {
	e.flush()
	if err := e.pdf.Output(w); err != nil {
		return fmt.Errorf("pdf render: output: %w", err)
	}
	return nil
}

func (e *Engine) err() error {
	if err := e.pdf.Error(); err != nil {
		return fmt.Errorf("pdf render: %w", err)
	}
	return nil
}

func (e *Engine) em() float64 {
	return e.cfg.FontSize
}

func (e *Engine) contentTop() float64 {
	return e.cfg.Margin
}

func (e *Engine) contentBottom() float64 {
	return e.pageH - e.cfg.Margin
}

func (e *Engine) top() *frame {
	return e.frames[len(e.frames)-1]
}

func (e *Engine) addPage() {
	e.pdf.AddPage()
	e.pageNum++
	if e.cfg.BackgroundEnabled {
		bg := e.cfg.BackgroundRGB
		e.pdf.SetFillColor(bg[0], bg[1], bg[2])
		e.pdf.Rect(0, 0, e.pageW, e.pageH, "F")
	}
	if e.corner != nil && e.pageNum == 1 {
		x := e.pageW - e.cfg.Margin - e.corner.width
		e.pdf.ImageOptions(e.corner.name, x, e.cfg.Margin, e.corner.width, e.corner.height, false, fpdf.ImageOptions{}, 0, "")
	}
	e.y = e.contentTop()
}

// newPage closes the drawn part of open rules and outlines, then continues
// them on a fresh page.
func (e *Engine) newPage() {
	for _, f := range e.frames {
		if f.started {
			e.closeSegment(f)
		}
	}
	e.addPage()
	for _, f := range e.frames {
		if f.started {
			f.top = e.y
		}
	}
}

func (e *Engine) closeSegment(f *frame) {
	switch {
	case f.annotation:
		e.drawOutline(f)
	case f.box.Rule && f.box.Role == layout.RoleQuote:
		e.drawQuoteRule(f)
	}
}

func (e *Engine) addGap(em float64) {
	if g := em * e.em(); g > e.gap {
		e.gap = g
	}
}

// ensureSpace applies the pending block gap and breaks the page when h does
// not fit below the cursor.
func (e *Engine) ensureSpace(h float64) {
	if e.gap > 0 {
		if e.y > e.contentTop()+0.01 {
			e.y += e.gap
		}
		e.gap = 0
	}
	if e.y+h > e.contentBottom() && e.y > e.contentTop()+0.01 {
		e.newPage()
	}
}

func (e *Engine) markStarted() {
	for _, f := range e.frames {
		if !f.started {
			f.started = true
			f.top = e.y
		}
	}
}

// lineWidth is the usable width of f at the cursor.
func (e *Engine) lineWidth(f *frame) float64 {
	right := f.right
	if e.corner != nil && e.pageNum == 1 && e.y < e.corner.bottom {
		right = math.Min(right, e.pageW-e.cfg.Margin-e.corner.width-e.cfg.CornerImagePadding)
	}
	if w := right - f.left; w > 1 {
		return w
	}
	return 1
}

func (e *Engine) inList() bool {
	for _, f := range e.frames {
		if f.box.Role == layout.RoleListItem {
			return true
		}
	}
	return false
}

func (e *Engine) preserve() bool {
	for i := len(e.frames) - 1; i >= 0; i-- {
		if e.frames[i].box.Preserve {
			return true
		}
	}
	return false
}

func (e *Engine) background() *frame {
	for i := len(e.frames) - 1; i >= 0; i-- {
		if e.frames[i].box.HasBackground {
			return e.frames[i]
		}
	}
	return nil
}

// Text implements layout.Engine.
func (e *Engine) Text(run layout.TextRun) error {
	items := e.textItems(run, e.preserve() && e.table == nil)
	if e.table != nil {
		e.table.add(items...)
	} else {
		e.items = append(e.items, items...)
	}
	return e.err()
}

// Image implements layout.Engine.
func (e *Engine) Image(img layout.Image) error {
	items := e.imageItems(img)
	if e.table != nil {
		e.table.add(items...)
	} else {
		e.items = append(e.items, items...)
	}
	return e.err()
}

// Region implements layout.Engine.
func (e *Engine) Region(r layout.Region) error {
	if r.Role == layout.RoleRule || r.Width <= 0 {
		if e.table != nil {
			return nil
		}
		e.flush()
		e.drawRule(r)
		return e.err()
	}
	it := e.regionItem(r)
	if e.table != nil {
		e.table.add(it)
	} else {
		e.items = append(e.items, it)
	}
	return e.err()
}

// Begin implements layout.Engine.
func (e *Engine) Begin(box layout.Box) error {
	if e.table != nil {
		e.table.begin(box)
		return nil
	}
	e.flush()
	parent := e.top()
	f := &frame{box: box, left: parent.left, right: parent.right}
	em := e.em()
	switch box.Role {
	case layout.RoleHeading:
		e.addGap(gapHeadingBefore)
	case layout.RoleListItem:
		f.left += listIndent * em
		f.marker = box.Marker
	case layout.RoleQuote:
		indent := box.Indent
		if indent <= 0 {
			indent = 1
		}
		f.left += indent * em
	case layout.RoleCode:
		e.addGap(gapCode)
		if box.HasBackground {
			f.left += codePadding * em
			f.right -= codePadding * em
		}
	case layout.RoleEquation:
		e.addGap(gapEquation)
	case layout.RoleTable:
		e.addGap(gapTable / 2)
		e.table = &tableState{box: box}
	}
	e.frames = append(e.frames, f)
	return e.err()
}

// End implements layout.Engine.
func (e *Engine) End() error {
	if e.table != nil && e.table.depth > 0 {
		e.table.end()
		return nil
	}
	if len(e.frames) <= 1 {
		return layout.ErrUnbalanced
	}
	e.flush()
	f := e.top()
	if f.box.Role == layout.RoleTable && e.table != nil {
		e.drawTable(f, e.table)
		e.table = nil
	}
	if f.started {
		e.closeSegment(f)
	}
	e.frames = e.frames[:len(e.frames)-1]
	switch f.box.Role {
	case layout.RoleHeading:
		e.addGap(gapHeadingAfter)
	case layout.RoleParagraph:
		if e.inList() {
			e.addGap(gapParagraphInList)
		} else {
			e.addGap(gapParagraph)
		}
	case layout.RoleCode:
		e.addGap(gapCode)
	case layout.RoleEquation:
		e.addGap(gapEquation)
	case layout.RoleTable:
		e.addGap(gapTable)
	case layout.RoleQuote, layout.RoleList:
		e.addGap(gapQuote)
	}
	return e.err()
}

// BeginAnnotation implements layout.AnnotationEngine.
func (e *Engine) BeginAnnotation(box layout.Box) error {
	if e.table != nil {
		e.table.begin(box)
		return nil
	}
	e.flush()
	parent := e.top()
	e.frames = append(e.frames, &frame{box: box, left: parent.left, right: parent.right, annotation: true})
	return nil
}

// EndAnnotation implements layout.AnnotationEngine.
func (e *Engine) EndAnnotation() error {
	return e.End()
}

func (e *Engine) flush() {
	if len(e.items) == 0 {
		return
	}
	items := e.items
	e.items = nil
	f := e.top()
	q := items
	for len(q) > 0 {
		var line []item
		line, q = nextLine(e, q, e.lineWidth(f))
		e.drawLine(line, f)
	}
}

func (e *Engine) drawLine(line []item, f *frame) {
	asc, desc := e.lineMetrics(line)
	e.ensureSpace(asc + desc)
	e.markStarted()
	width := lineItemsWidth(line)
	avail := e.lineWidth(f)
	x := f.left
	switch f.box.Align {
	case layout.AlignCenter:
		x += math.Max(0, (avail-width)/2)
	case layout.AlignEnd:
		x += math.Max(0, avail-width)
	}
	if bg := e.background(); bg != nil {
		c := bg.box.Background
		if !e.cfg.IgnoreColors {
			e.pdf.SetFillColor(int(c.R), int(c.G), int(c.B))
			pad := codePadding * e.em()
			e.pdf.Rect(bg.left-pad, e.y, bg.right-bg.left+2*pad, asc+desc, "F")
		}
	}
	e.drawMarkers(e.y + asc)
	e.drawItems(line, x, e.y+asc)
	e.y += asc + desc
}

// drawMarkers draws list markers still pending on the first line of their
// item, right-aligned in the hanging indent.
func (e *Engine) drawMarkers(baseline float64) {
	for _, f := range e.frames {
		if f.marker == "" {
			continue
		}
		st := e.styleFor(layout.TextStyle{})
		w := e.textWidth(f.marker, st)
		e.drawText(f.left-markerGap*e.em()-w, baseline, f.marker, st)
		f.marker = ""
	}
}

func (e *Engine) drawRule(r layout.Region) {
	f := e.top()
	h := r.Height * e.em()
	if h <= 0 {
		h = e.em()
	}
	e.ensureSpace(h)
	e.markStarted()
	col := e.rgb(r.Color, r.Color != (layout.Color{}))
	e.pdf.SetDrawColor(col[0], col[1], col[2])
	e.pdf.SetLineWidth(0.75)
	mid := e.y + h/2
	e.pdf.Line(f.left, mid, f.left+e.lineWidth(f), mid)
	e.y += h
}

func (e *Engine) drawQuoteRule(f *frame) {
	col := e.rgb(f.box.RuleColor, true)
	e.pdf.SetDrawColor(col[0], col[1], col[2])
	e.pdf.SetLineWidth(quoteRuleW * e.em())
	x := f.left - 0.6*e.em()
	e.pdf.Line(x, f.top, x, e.y)
}

func (e *Engine) drawOutline(f *frame) {
	if e.y <= f.top {
		return
	}
	if e.debugLayer >= 0 {
		e.pdf.BeginLayer(e.debugLayer)
		defer e.pdf.EndLayer()
	}
	c := f.box.Outline
	e.pdf.SetDrawColor(int(c.R), int(c.G), int(c.B))
	e.pdf.SetLineWidth(0.4)
	e.pdf.Rect(f.left-2, f.top, f.right-f.left+4, e.y-f.top, "D")
	if f.box.Label != "" {
		st := pdfStyle{fontFamily: "Helvetica", size: debugLabelPt, r: int(c.R), g: int(c.G), b: int(c.B)}
		e.drawText(f.right+4-e.textWidth(f.box.Label, st), f.top+debugLabelPt, f.box.Label, st)
	}
}
