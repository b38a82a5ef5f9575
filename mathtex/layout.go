package mathtex

import (
	"unicode/utf8"

	"pkt.systems/mdpdf/layout"
)

const (
	ascent      = 0.75
	descent     = 0.25
	scriptScale = 0.7
	supRise     = 0.45
	subDrop     = 0.2
	opPad       = 0.22
	axis        = 0.25
	fracGap     = 0.12
	ruleWidth   = 0.05
)

// glyph is a run positioned relative to the box origin: x to the right, dy
// up from the baseline.
type glyph struct {
	x, dy float64
	width float64
	text  string
	style layout.TextStyle
}

type rule struct {
	x1, dy1, x2, dy2 float64
}

// box is a laid out expression with its origin on the left baseline.
type box struct {
	w, asc, desc float64
	glyphs       []glyph
	rules        []rule
}

func (b *box) place(other box, dx, dy float64) {
	for _, g := range other.glyphs {
		g.x += dx
		g.dy += dy
		b.glyphs = append(b.glyphs, g)
	}
	for _, r := range other.rules {
		r.x1 += dx
		r.x2 += dx
		r.dy1 += dy
		r.dy2 += dy
		b.rules = append(b.rules, r)
	}
	b.asc = max(b.asc, other.asc+dy)
	b.desc = max(b.desc, other.desc-dy)
	b.w = max(b.w, dx+other.w)
}

func (b box) region(src string) layout.Region {
	reg := layout.Region{
		Role:     layout.RoleMath,
		Width:    b.w,
		Height:   b.asc + b.desc,
		Baseline: b.asc,
		Source:   src,
	}
	for _, g := range mergeGlyphs(b.glyphs) {
		reg.Runs = append(reg.Runs, layout.PlacedRun{
			X:   g.x,
			Y:   b.asc - g.dy,
			Run: layout.TextRun{Text: g.text, Style: g.style},
		})
	}
	for _, r := range b.rules {
		reg.Lines = append(reg.Lines, layout.Line{
			X1: r.x1, Y1: b.asc - r.dy1,
			X2: r.x2, Y2: b.asc - r.dy2,
			Width: ruleWidth,
		})
	}
	return reg
}

// mergeGlyphs joins horizontally adjacent glyphs that share a baseline and
// style into one run.
func mergeGlyphs(glyphs []glyph) []glyph {
	var out []glyph
	for _, g := range glyphs {
		if g.text == "" {
			continue
		}
		if n := len(out); n > 0 {
			prev := &out[n-1]
			if prev.dy == g.dy && prev.style == g.style && nearlyEqual(prev.x+prev.width, g.x) {
				prev.text += g.text
				prev.width += g.width
				continue
			}
		}
		out = append(out, g)
	}
	return out
}

func nearlyEqual(a, b float64) bool {
	d := a - b
	return d < 1e-9 && d > -1e-9
}

func layoutList(items []node, scale float64) box {
	var b box
	b.asc = ascent * scale
	b.desc = descent * scale
	x := 0.0
	for _, it := range items {
		child := layoutNode(it, scale)
		b.place(child, x, 0)
		x += child.w
	}
	b.w = x
	return b
}

func layoutNode(n node, scale float64) box {
	switch v := n.(type) {
	case atom:
		return layoutAtom(v, scale)
	case group:
		return layoutList(v.items, scale)
	case space:
		return box{w: v.em * scale}
	case scripts:
		return layoutScripts(v, scale)
	case fraction:
		return layoutFraction(v, scale)
	case root:
		return layoutRoot(v, scale)
	default:
		return box{}
	}
}

func layoutAtom(a atom, scale float64) box {
	if a.text == "" {
		return box{}
	}
	s := scale
	if a.large {
		s *= 1.3
	}
	w := textWidth(a.text, a.italic) * s
	pad := 0.0
	if a.op {
		pad = opPad * scale
	}
	style := layout.TextStyle{Italic: a.italic, Bold: a.bold, Scale: s}
	return box{
		w:    w + 2*pad,
		asc:  ascent * s,
		desc: descent * s,
		glyphs: []glyph{{
			x:     pad,
			width: w,
			text:  a.text,
			style: style,
		}},
	}
}

func layoutScripts(s scripts, scale float64) box {
	var b box
	base := layoutNode(s.base, scale)
	b.place(base, 0, 0)
	if base.w == 0 {
		b.asc, b.desc = ascent*scale, descent*scale
	}
	small := scale * scriptScale
	w := base.w
	if s.sup != nil {
		sup := layoutNode(s.sup, small)
		b.place(sup, base.w, supRise*scale)
		w = max(w, base.w+sup.w)
	}
	if s.sub != nil {
		sub := layoutNode(s.sub, small)
		b.place(sub, base.w, -subDrop*scale)
		w = max(w, base.w+sub.w)
	}
	b.w = w
	return b
}

func layoutFraction(f fraction, scale float64) box {
	small := scale * 0.85
	num := layoutNode(f.num, small)
	den := layoutNode(f.den, small)
	pad := 0.1 * scale
	width := max(num.w, den.w) + 2*pad
	bar := axis * scale

	var b box
	b.place(num, (width-num.w)/2, bar+fracGap*scale+num.desc)
	b.place(den, (width-den.w)/2, bar-fracGap*scale-den.asc)
	b.rules = append(b.rules, rule{x1: 0, dy1: bar, x2: width, dy2: bar})
	b.w = width
	return b
}

func layoutRoot(r root, scale float64) box {
	body := layoutNode(r.body, scale)
	var b box
	x := 0.0
	if r.index != nil {
		idx := layoutNode(r.index, scale*0.6)
		b.place(idx, 0, 0.35*scale)
		x = idx.w * 0.6
	}
	sign := layoutAtom(atom{text: "√"}, scale)
	b.place(sign, x, 0)
	x += sign.w
	b.place(body, x, 0)
	top := max(body.asc, ascent*scale) + 0.06*scale
	b.rules = append(b.rules, rule{x1: x, dy1: top, x2: x + body.w, dy2: top})
	b.asc = max(b.asc, top+ruleWidth)
	b.w = x + body.w
	return b
}

// textWidth estimates the advance of s in em.
func textWidth(s string, italic bool) float64 {
	w := 0.0
	for _, r := range s {
		switch {
		case r == ' ':
			w += 0.25
		case r < utf8.RuneSelf && isNarrow(byte(r)):
			w += 0.28
		case r == 'm' || r == 'w' || r == 'M' || r == 'W':
			w += 0.8
		case r >= 'A' && r <= 'Z':
			w += 0.65
		default:
			w += 0.52
		}
	}
	if italic {
		w += 0.04
	}
	return w
}

func isNarrow(c byte) bool {
	switch c {
	case 'i', 'j', 'l', 't', 'f', 'r', '1', '.', ',', ':', ';', '!', '|', '\'', '(', ')', '[', ']':
		return true
	}
	return false
}
