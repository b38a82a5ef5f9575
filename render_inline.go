package mdpdf

import (
	"pkt.systems/mdpdf/asset"
	"pkt.systems/mdpdf/ast"
	"pkt.systems/mdpdf/layout"
)

func (r *renderer) inlines(list []ast.Inline, st layout.TextStyle, link string) {
	for _, in := range list {
		r.inline(in, st, link)
	}
}

func (r *renderer) inline(in ast.Inline, st layout.TextStyle, link string) {
	switch n := in.(type) {
	case *ast.Text:
		r.text(layout.TextRun{Text: n.Value, Style: st, Link: link})
	case *ast.Emphasis:
		r.inlines(n.Children, combineStyles(st, r.styleFor(ast.KindEmphasis, r.styles.Emphasis)), link)
	case *ast.Strong:
		r.inlines(n.Children, combineStyles(st, r.styleFor(ast.KindStrong, r.styles.Strong)), link)
	case *ast.Code:
		r.text(layout.TextRun{Text: n.Value, Style: combineStyles(st, r.styleFor(ast.KindCode, r.styles.CodeInline)), Link: link})
	case *ast.Link:
		linkStyle := combineStyles(st, r.styleFor(ast.KindLink, r.styles.Link))
		if len(n.Children) == 0 {
			r.text(layout.TextRun{Text: n.Target, Style: linkStyle, Link: n.Target})
			return
		}
		r.inlines(n.Children, linkStyle, n.Target)
	case *ast.Image:
		r.image(n)
	case *ast.InlineEquation:
		r.inlineEquation(n, st, link)
	case *ast.LineBreak:
		if n.Hard {
			r.text(layout.TextRun{Text: "\n", Style: st})
		} else {
			r.text(layout.TextRun{Text: " ", Style: st, Link: link})
		}
	}
}

func (r *renderer) image(img *ast.Image) {
	e := r.assets.Lookup(img.Source)
	out := layout.Image{Source: img.Source, Alt: img.Alt}
	if e.State == asset.StateResolved {
		out.MIME = e.MIME
		out.Bytes = e.Bytes
		out.Width = e.Width
		out.Height = e.Height
	} else {
		out.Placeholder = true
		out.Reason = e.Reason
		if e.State == asset.StatePending {
			out.Reason = e.State.String()
		}
	}
	r.out = append(r.out, layout.Instruction{Op: layout.OpImage, Image: out})
}

func (r *renderer) inlineEquation(eq *ast.InlineEquation, st layout.TextStyle, link string) {
	region, err := r.math.Typeset(eq.Source, false)
	if err != nil {
		r.text(layout.TextRun{Text: eq.Source, Style: combineStyles(st, r.styleFor(ast.KindCode, r.styles.CodeInline)), Link: link})
		return
	}
	region.Role = layout.RoleMath
	region.Source = eq.Source
	scale := st.EffectiveScale()
	region.Width *= scale
	region.Height *= scale
	region.Baseline *= scale
	for i := range region.Runs {
		run := &region.Runs[i]
		run.Run.Style.Scale = run.Run.Style.EffectiveScale() * scale
		run.X *= scale
		run.Y *= scale
	}
	for i := range region.Lines {
		l := &region.Lines[i]
		l.X1, l.Y1, l.X2, l.Y2, l.Width = l.X1*scale, l.Y1*scale, l.X2*scale, l.Y2*scale, l.Width*scale
	}
	r.applyMathColor(&region, st)
	r.out = append(r.out, layout.Instruction{Op: layout.OpRegion, Region: region})
}
