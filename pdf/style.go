package pdf

import (
	"strings"

	"pkt.systems/mdpdf/layout"
)

type pdfStyle struct {
	fontFamily string
	fontStyle  string
	size       float64
	r          int
	g          int
	b          int
	underline  bool
	background [3]int
	hasBg      bool
}

// rgb converts a layout colour, honouring IgnoreColors.
func (e *Engine) rgb(c layout.Color, set bool) [3]int {
	if !set || e.cfg.IgnoreColors {
		return e.cfg.TextRGB
	}
	return [3]int{int(c.R), int(c.G), int(c.B)}
}

func (e *Engine) styleFor(st layout.TextStyle) pdfStyle {
	family := e.cfg.FontFamily
	if st.Mono {
		family = e.cfg.MonoFamily
	}
	col := e.rgb(st.Color, st.HasColor)
	out := pdfStyle{
		fontFamily: family,
		fontStyle:  styleToFontStyle(st.Bold, st.Italic, e.allowBoldItalic(family)),
		size:       e.cfg.FontSize * st.EffectiveScale(),
		r:          col[0],
		g:          col[1],
		b:          col[2],
		underline:  st.Underline,
	}
	if st.HasBackground && !e.cfg.IgnoreColors {
		out.background = [3]int{int(st.Background.R), int(st.Background.G), int(st.Background.B)}
		out.hasBg = true
	}
	return out
}

func (e *Engine) allowBoldItalic(family string) bool {
	if isCoreFont(family) {
		return true
	}
	return e.boldItalic
}

func styleToFontStyle(bold, italic, allowBoldItalic bool) string {
	if bold && italic && !allowBoldItalic {
		italic = false
	}
	var b strings.Builder
	if bold {
		b.WriteByte('B')
	}
	if italic {
		b.WriteByte('I')
	}
	return b.String()
}

func (s pdfStyle) fpdfStyle() string {
	if s.underline {
		return s.fontStyle + "U"
	}
	return s.fontStyle
}
