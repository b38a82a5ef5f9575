package mdpdf

import (
	"strconv"

	"pkt.systems/mdpdf/asset"
	"pkt.systems/mdpdf/ast"
	"pkt.systems/mdpdf/internal/highlight"
	"pkt.systems/mdpdf/layout"
	"pkt.systems/mdpdf/mathtex"
)

var bullets = [...]string{"•", "◦", "▪"}

// Render maps doc onto a layout instruction stream. It is a pure function
// of the tree, the current state of the image cache and opts: images that
// are not resolved render as placeholders and math that fails to typeset
// renders as its source in monospace.
func Render(doc *Document, opts RenderOptions) []layout.Instruction {
	if doc == nil || doc.AST == nil {
		return nil
	}
	r := newRenderer(doc.Assets, opts)
	r.blocks(doc.AST.Blocks)
	return r.out
}

// RenderTo renders doc and replays the stream into e.
func RenderTo(e layout.Engine, doc *Document, opts RenderOptions) error {
	return layout.Replay(e, Render(doc, opts))
}

type renderer struct {
	out       []layout.Instruction
	opts      RenderOptions
	styles    Styles
	assets    *asset.Cache
	math      mathtex.Typesetter
	hl        *highlight.Highlighter
	listDepth int
	inQuote   int
}

func newRenderer(assets *asset.Cache, opts RenderOptions) *renderer {
	theme := opts.Theme
	if theme == nil {
		theme = DefaultTheme()
	}
	r := &renderer{
		opts:   opts,
		styles: theme.Styles(),
		assets: assets,
		math:   opts.Math,
	}
	if r.math == nil {
		r.math = mathtex.Unicode{}
	}
	if opts.CodeStyle != CodeStyleNone {
		r.hl = highlight.New(opts.CodeStyle)
	}
	return r
}

// styleFor returns the override for kind, or def.
func (r *renderer) styleFor(kind ast.Kind, def layout.TextStyle) layout.TextStyle {
	if st, ok := r.opts.StyleOverrides[kind]; ok {
		return st
	}
	return def
}

func (r *renderer) begin(box layout.Box) {
	r.out = append(r.out, layout.Instruction{Op: layout.OpBegin, Box: box})
}

func (r *renderer) end() {
	r.out = append(r.out, layout.Instruction{Op: layout.OpEnd})
}

func (r *renderer) text(run layout.TextRun) {
	if run.Text == "" {
		return
	}
	r.out = append(r.out, layout.Instruction{Op: layout.OpText, Run: run})
}

func (r *renderer) blocks(blocks []ast.Block) {
	for _, b := range blocks {
		r.block(b)
	}
}

func (r *renderer) block(b ast.Block) {
	if r.opts.Debug {
		r.out = append(r.out, layout.Instruction{
			Op:         layout.OpBegin,
			Box:        layout.Box{Role: layout.RoleDebug, Label: b.Kind().String(), Outline: r.styles.Debug},
			Annotation: true,
		})
		defer func() {
			r.out = append(r.out, layout.Instruction{Op: layout.OpEnd, Annotation: true})
		}()
	}
	switch n := b.(type) {
	case *ast.Heading:
		r.heading(n)
	case *ast.Paragraph:
		r.begin(layout.Box{Role: layout.RoleParagraph})
		r.inlines(n.Inlines, r.paragraphStyle(), "")
		r.end()
	case *ast.List:
		r.list(n)
	case *ast.Table:
		r.table(n)
	case *ast.CodeBlock:
		r.codeBlock(n)
	case *ast.BlockEquation:
		r.blockEquation(n)
	case *ast.BlockQuote:
		r.begin(layout.Box{Role: layout.RoleQuote, Rule: true, RuleColor: r.styles.QuoteRule, Indent: 1})
		r.inQuote++
		r.blocks(n.Children)
		r.inQuote--
		r.end()
	case *ast.ThematicBreak:
		r.out = append(r.out, layout.Instruction{
			Op:     layout.OpRegion,
			Region: layout.Region{Role: layout.RoleRule, Height: 1, Color: r.styles.Rule},
		})
	}
}

func (r *renderer) paragraphStyle() layout.TextStyle {
	st := r.styleFor(ast.KindParagraph, r.styles.Text)
	if r.listDepth > 0 {
		st = r.styleFor(ast.KindList, st)
	}
	if r.inQuote > 0 {
		st = combineStyles(st, r.styleFor(ast.KindBlockQuote, r.styles.Quote))
	}
	return st
}

func (r *renderer) heading(h *ast.Heading) {
	level := h.Level
	if level < 1 {
		level = 1
	}
	if level > 6 {
		level = 6
	}
	st := r.styleFor(ast.KindHeading, r.styles.Heading[level-1])
	if st.Scale <= 0 {
		st.Scale = r.styles.HeadingScale[level-1]
	}
	r.begin(layout.Box{Role: layout.RoleHeading, Level: level})
	r.inlines(h.Inlines, st, "")
	r.end()
}

func (r *renderer) list(l *ast.List) {
	r.listDepth++
	defer func() { r.listDepth-- }()
	r.begin(layout.Box{Role: layout.RoleList, Level: r.listDepth})
	start := l.Start
	if start < 0 {
		start = 0
	}
	for i, item := range l.Items {
		marker := bullets[(r.listDepth-1)%len(bullets)]
		if l.Ordered {
			marker = strconv.Itoa(start+i) + "."
		}
		r.begin(layout.Box{Role: layout.RoleListItem, Level: r.listDepth, Marker: marker})
		r.blocks(item)
		r.end()
	}
	r.end()
}

func (r *renderer) table(t *ast.Table) {
	cols := make([]layout.Align, len(t.Align))
	for i, a := range t.Align {
		cols[i] = alignOf(a)
	}
	r.begin(layout.Box{Role: layout.RoleTable, Columns: cols, Rule: true, RuleColor: r.styles.TableBorder})
	r.tableRow(t.Header, cols, true)
	for _, row := range t.Rows {
		r.tableRow(row, cols, false)
	}
	r.end()
}

func (r *renderer) tableRow(row ast.Row, cols []layout.Align, header bool) {
	st := r.styleFor(ast.KindTable, r.styles.Text)
	if header {
		st = combineStyles(st, r.styles.TableHeader)
	}
	r.begin(layout.Box{Role: layout.RoleTableRow, Header: header})
	for i, cell := range row {
		align := layout.AlignStart
		if i < len(cols) {
			align = cols[i]
		}
		r.begin(layout.Box{Role: layout.RoleTableCell, Align: align, Header: header})
		r.inlines(cell, st, "")
		r.end()
	}
	r.end()
}

func alignOf(a ast.Alignment) layout.Align {
	switch a {
	case ast.AlignCenter:
		return layout.AlignCenter
	case ast.AlignRight:
		return layout.AlignEnd
	default:
		return layout.AlignStart
	}
}

func (r *renderer) codeBlock(c *ast.CodeBlock) {
	st := r.styleFor(ast.KindCodeBlock, r.styles.CodeBlock)
	st.Mono = true
	r.begin(layout.Box{
		Role:          layout.RoleCode,
		Preserve:      true,
		Language:      c.Language,
		Background:    st.Background,
		HasBackground: st.HasBackground,
	})
	if r.hl != nil && c.Language != "" {
		if spans, ok := r.hl.Highlight(c.Language, c.Text); ok {
			for _, span := range spans {
				runStyle := st
				if span.Colour {
					runStyle.Color = span.Style.Color
					runStyle.HasColor = true
				}
				runStyle.Bold = runStyle.Bold || span.Style.Bold
				runStyle.Italic = runStyle.Italic || span.Style.Italic
				r.text(layout.TextRun{Text: span.Text, Style: runStyle})
			}
			r.end()
			return
		}
	}
	r.text(layout.TextRun{Text: c.Text, Style: st})
	r.end()
}

func (r *renderer) blockEquation(eq *ast.BlockEquation) {
	r.begin(layout.Box{Role: layout.RoleEquation, Align: layout.AlignCenter})
	region, err := r.math.Typeset(eq.Source, true)
	if err == nil {
		region.Role = layout.RoleMath
		region.Source = eq.Source
		r.applyMathColor(&region, r.styleFor(ast.KindBlockEquation, r.styles.Text))
		r.out = append(r.out, layout.Instruction{Op: layout.OpRegion, Region: region})
	} else {
		st := r.styleFor(ast.KindCodeBlock, r.styles.CodeBlock)
		st.Mono = true
		r.begin(layout.Box{Role: layout.RoleCode, Preserve: true, Background: st.Background, HasBackground: st.HasBackground})
		r.text(layout.TextRun{Text: eq.Source, Style: st})
		r.end()
	}
	r.end()
}

// applyMathColor gives uncoloured math runs the surrounding text colour.
func (r *renderer) applyMathColor(region *layout.Region, base layout.TextStyle) {
	if !base.HasColor {
		return
	}
	if region.Color == (layout.Color{}) {
		region.Color = base.Color
	}
	for i := range region.Runs {
		if !region.Runs[i].Run.Style.HasColor {
			region.Runs[i].Run.Style.Color = base.Color
			region.Runs[i].Run.Style.HasColor = true
		}
	}
}
