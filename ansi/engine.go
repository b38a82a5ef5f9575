package ansi

import (
	"io"
	"strconv"
	"strings"

	rfansi "github.com/muesli/reflow/ansi"

	"pkt.systems/mdpdf/layout"
)

const (
	osc8Start = "\x1b]8;;"
	osc8End   = "\x1b]8;;\x1b\\"
	sgrReset  = "\x1b[0m"
)

// Engine is a layout.Engine that prints the instruction stream to a
// terminal: it wraps paragraphs at the configured width, indents lists and
// quotes, pads tables and colours text with 24-bit SGR sequences.
type Engine struct {
	w   io.Writer
	cfg Config
	err error

	frames    []*frame
	items     []item
	table     *tableState
	needBlank bool
	wrote     bool
}

type frame struct {
	box        layout.Box
	prefix     string
	first      string
	annotation bool
}

// NewEngine returns an Engine writing to w.
func NewEngine(w io.Writer, cfg Config) *Engine {
	merged := DefaultConfig()
	applyConfig(&merged, cfg)
	return &Engine{w: w, cfg: merged, frames: []*frame{{}}}
}

// Flush writes content that is not inside any box.
func (e *Engine) Flush() error {
	e.flush()
	return e.err
}

func (e *Engine) write(s string) {
	if e.err != nil {
		return
	}
	_, e.err = io.WriteString(e.w, s)
}

func (e *Engine) top() *frame {
	return e.frames[len(e.frames)-1]
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
	for _, f := range e.frames {
		if f.box.Preserve {
			return true
		}
	}
	return false
}

// prefix returns the line prefix and its width, consuming pending list
// markers when first is set.
func (e *Engine) prefix(first bool) (string, int) {
	var b strings.Builder
	for _, f := range e.frames {
		if f.first != "" && first {
			b.WriteString(f.first)
			f.first = ""
			continue
		}
		b.WriteString(f.prefix)
	}
	s := b.String()
	return s, rfansi.PrintableRuneWidth(s)
}

func (e *Engine) avail() int {
	_, w := e.peekPrefix()
	if a := e.cfg.Width - w; a > 4 {
		return a
	}
	return 4
}

func (e *Engine) peekPrefix() (string, int) {
	var b strings.Builder
	for _, f := range e.frames {
		if f.first != "" {
			b.WriteString(f.first)
			continue
		}
		b.WriteString(f.prefix)
	}
	s := b.String()
	return s, rfansi.PrintableRuneWidth(s)
}

// blank separates blocks with an empty line that keeps quote bars.
func (e *Engine) blank() {
	if !e.needBlank {
		return
	}
	e.needBlank = false
	if !e.wrote {
		return
	}
	var b strings.Builder
	for _, f := range e.frames {
		if f.box.Role == layout.RoleQuote {
			b.WriteString(f.prefix)
		}
	}
	e.write(strings.TrimRight(b.String(), " ") + "\n")
}

func (e *Engine) emitLine(body string) {
	p, _ := e.prefix(true)
	e.write(p + body + "\n")
	e.wrote = true
}

func (e *Engine) sgr(st layout.TextStyle) string {
	if e.cfg.Plain {
		return ""
	}
	var codes []string
	if st.Bold {
		codes = append(codes, "1")
	}
	if st.Italic {
		codes = append(codes, "3")
	}
	if st.Underline {
		codes = append(codes, "4")
	}
	if st.HasColor {
		codes = append(codes, "38;2;"+rgb(st.Color))
	}
	if st.HasBackground {
		codes = append(codes, "48;2;"+rgb(st.Background))
	}
	if len(codes) == 0 {
		return ""
	}
	return "\x1b[" + strings.Join(codes, ";") + "m"
}

func rgb(c layout.Color) string {
	return strconv.Itoa(int(c.R)) + ";" + strconv.Itoa(int(c.G)) + ";" + strconv.Itoa(int(c.B))
}

func (e *Engine) styled(text string, st layout.TextStyle) string {
	open := e.sgr(st)
	if open == "" {
		return text
	}
	return open + text + sgrReset
}

func colorStyle(c layout.Color) layout.TextStyle {
	return layout.TextStyle{Color: c, HasColor: c != (layout.Color{})}
}

// renderItems styles a line. Links become OSC 8 hyperlinks when enabled.
func (e *Engine) renderItems(line []item, links bool) string {
	var b strings.Builder
	link := ""
	for _, it := range line {
		if links && e.cfg.OSC8 && !e.cfg.Plain && it.link != link {
			if link != "" {
				b.WriteString(osc8End)
			}
			if it.link != "" {
				b.WriteString(osc8Start + it.link + "\x1b\\")
			}
			link = it.link
		}
		b.WriteString(e.styled(it.text, it.style))
	}
	if link != "" {
		b.WriteString(osc8End)
	}
	return b.String()
}

// linkTargets appends " (target)" after links when OSC 8 is not available
// and the target differs from the visible text.
func (e *Engine) linkTargets(q []item) []item {
	if e.cfg.OSC8 && !e.cfg.Plain {
		return q
	}
	out := make([]item, 0, len(q))
	start := 0
	for i, it := range q {
		out = append(out, it)
		if i == 0 || q[i-1].link != it.link {
			start = i
		}
		if it.link == "" || (i+1 < len(q) && q[i+1].link == it.link) {
			continue
		}
		var label strings.Builder
		for _, l := range q[start : i+1] {
			label.WriteString(l.text)
		}
		target := strings.TrimPrefix(it.link, "mailto:")
		if label.String() == target || label.String() == it.link {
			continue
		}
		st := it.style
		st.Underline = false
		out = append(out, textItem(itemSpace, " ", st, ""), textItem(itemText, "("+it.link+")", st, ""))
	}
	return out
}

func (e *Engine) flush() {
	if len(e.items) == 0 {
		return
	}
	q := e.linkTargets(e.items)
	e.items = nil
	f := e.top()
	for len(q) > 0 {
		var line []item
		avail := e.avail()
		line, q = nextLine(q, avail)
		width := itemsWidth(line)
		body := e.renderItems(line, true)
		if bg := e.background(); bg != nil && width < avail && !e.cfg.Plain {
			fill := layout.TextStyle{Background: bg.box.Background, HasBackground: true}
			body += e.styled(strings.Repeat(" ", avail-width), fill)
		}
		e.emitLine(alignPad(f.box.Align, width, avail) + body)
	}
}

func alignPad(align layout.Align, width, avail int) string {
	switch align {
	case layout.AlignCenter:
		if d := (avail - width) / 2; d > 0 {
			return strings.Repeat(" ", d)
		}
	case layout.AlignEnd:
		if d := avail - width; d > 0 {
			return strings.Repeat(" ", d)
		}
	}
	return ""
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
	items := splitRun(run, e.preserve() && e.table == nil)
	if e.table != nil {
		e.table.add(items...)
		return e.err
	}
	e.items = append(e.items, items...)
	return e.err
}

// Image implements layout.Engine. Terminals get a bracketed label instead
// of pixels.
func (e *Engine) Image(img layout.Image) error {
	label := img.Alt
	if label == "" {
		label = img.Source
	}
	var text string
	switch {
	case !img.Placeholder:
		text = "[image: " + label + "]"
	case img.Reason != "":
		text = "[image: " + label + " (" + img.Reason + ")]"
	default:
		text = "[image: " + label + " (unavailable)]"
	}
	link := ""
	if strings.HasPrefix(img.Source, "http://") || strings.HasPrefix(img.Source, "https://") {
		link = img.Source
	}
	return e.Text(layout.TextRun{Text: text, Style: layout.TextStyle{Italic: true}, Link: link})
}

// Region implements layout.Engine.
func (e *Engine) Region(r layout.Region) error {
	if r.Role == layout.RoleRule || r.Width <= 0 {
		if e.table != nil {
			return e.err
		}
		e.flush()
		e.blank()
		e.emitLine(e.styled(strings.Repeat("─", e.avail()), colorStyle(r.Color)))
		e.needBlank = true
		return e.err
	}
	rows := regionRows(r)
	st := colorStyle(r.Color)
	if e.table == nil && e.top().box.Role == layout.RoleEquation && len(rows) > 1 {
		e.flush()
		width := 0
		for _, row := range rows {
			width = max(width, rfansi.PrintableRuneWidth(row))
		}
		pad := alignPad(layout.AlignCenter, width, e.avail())
		for _, row := range rows {
			e.emitLine(pad + e.styled(row, st))
		}
		return e.err
	}
	text := r.Source
	if len(rows) == 1 {
		text = rows[0]
	}
	return e.Text(layout.TextRun{Text: text, Style: st})
}

// Begin implements layout.Engine.
func (e *Engine) Begin(box layout.Box) error {
	if e.table != nil {
		e.table.begin(box)
		return e.err
	}
	e.flush()
	f := &frame{box: box}
	switch box.Role {
	case layout.RoleHeading:
		e.blank()
		level := max(box.Level, 1)
		f.first = e.styled(strings.Repeat("#", level), layout.TextStyle{Bold: true}) + " "
		f.prefix = strings.Repeat(" ", level+1)
	case layout.RoleParagraph, layout.RoleCode, layout.RoleEquation:
		e.blank()
		if box.Role == layout.RoleCode {
			f.prefix = "  "
		}
	case layout.RoleList:
		if !e.inList() {
			e.blank()
		}
	case layout.RoleListItem:
		w := rfansi.PrintableRuneWidth(box.Marker)
		f.first = box.Marker + " "
		f.prefix = strings.Repeat(" ", w+1)
	case layout.RoleQuote:
		e.blank()
		f.prefix = e.styled("│", colorStyle(box.RuleColor)) + " "
	case layout.RoleTable:
		e.blank()
		e.table = &tableState{box: box}
	}
	e.frames = append(e.frames, f)
	return e.err
}

// End implements layout.Engine.
func (e *Engine) End() error {
	if e.table != nil && e.table.depth > 0 {
		e.table.end()
		return e.err
	}
	if len(e.frames) <= 1 {
		return layout.ErrUnbalanced
	}
	e.flush()
	f := e.top()
	if f.box.Role == layout.RoleTable && e.table != nil {
		t := e.table
		e.table = nil
		e.drawTable(t)
	}
	if f.box.Role == layout.RoleListItem && f.first != "" {
		e.emitLine("")
	}
	e.frames = e.frames[:len(e.frames)-1]
	switch f.box.Role {
	case layout.RoleParagraph:
		e.needBlank = !e.inList()
	case layout.RoleHeading, layout.RoleCode, layout.RoleEquation, layout.RoleTable, layout.RoleQuote:
		e.needBlank = true
	case layout.RoleList:
		e.needBlank = !e.inList()
	}
	return e.err
}

// BeginAnnotation implements layout.AnnotationEngine: the block's kind is
// printed above it in the outline colour.
func (e *Engine) BeginAnnotation(box layout.Box) error {
	if e.table != nil {
		e.table.begin(box)
		return e.err
	}
	e.flush()
	e.blank()
	if box.Label != "" {
		p, _ := e.prefix(false)
		e.write(p + e.styled("┌ "+box.Label, colorStyle(box.Outline)) + "\n")
		e.wrote = true
	}
	e.frames = append(e.frames, &frame{box: box, annotation: true})
	return e.err
}

// EndAnnotation implements layout.AnnotationEngine.
func (e *Engine) EndAnnotation() error {
	return e.End()
}
