package pdf

import (
	"strings"
	"unicode/utf8"
)

const symbolFamily = "Symbol"

func isCoreFont(name string) bool {
	switch name {
	case "Courier", "Helvetica", "Times", "Arial", "Symbol", "ZapfDingbats":
		return true
	default:
		return false
	}
}

// symbolGlyphs maps runes missing from cp1252 onto the core Symbol font.
var symbolGlyphs = map[rune]byte{
	'Α': 'A', 'Β': 'B', 'Γ': 'G', 'Δ': 'D', 'Ε': 'E', 'Ζ': 'Z', 'Η': 'H', 'Θ': 'Q',
	'Ι': 'I', 'Κ': 'K', 'Λ': 'L', 'Μ': 'M', 'Ν': 'N', 'Ξ': 'X', 'Ο': 'O', 'Π': 'P',
	'Ρ': 'R', 'Σ': 'S', 'Τ': 'T', 'Υ': 'U', 'Φ': 'F', 'Χ': 'C', 'Ψ': 'Y', 'Ω': 'W',
	'α': 'a', 'β': 'b', 'γ': 'g', 'δ': 'd', 'ε': 'e', 'ζ': 'z', 'η': 'h', 'θ': 'q',
	'ι': 'i', 'κ': 'k', 'λ': 'l', 'μ': 'm', 'ν': 'n', 'ξ': 'x', 'ο': 'o', 'π': 'p',
	'ρ': 'r', 'σ': 's', 'τ': 't', 'υ': 'u', 'φ': 'f', 'χ': 'c', 'ψ': 'y', 'ω': 'w',
	'ϑ': 'J', 'ϕ': 'j', 'ϖ': 'v', 'ς': 'V',
	'∀': 0x22, '∃': 0x24, '∍': 0x27, '∗': 0x2A, '−': 0x2D, '≅': 0x40, '⊥': 0x5E, '∼': 0x7E,
	'′': 0xA2, '≤': 0xA3, '⁄': 0xA4, '∞': 0xA5, '↔': 0xAB, '←': 0xAC, '↑': 0xAD, '→': 0xAE,
	'↓': 0xAF, '″': 0xB2, '≥': 0xB3, '∝': 0xB5, '∂': 0xB6, '•': 0xB7, '≠': 0xB9, '≡': 0xBA,
	'≈': 0xBB, '…': 0xBC, 'ℵ': 0xC0, 'ℑ': 0xC1, 'ℜ': 0xC2, '℘': 0xC3, '⊗': 0xC4, '⊕': 0xC5,
	'∅': 0xC6, '∩': 0xC7, '∪': 0xC8, '⊃': 0xC9, '⊇': 0xCA, '⊄': 0xCB, '⊂': 0xCC, '⊆': 0xCD,
	'∈': 0xCE, '∉': 0xCF, '∠': 0xD0, '∇': 0xD1, '∏': 0xD5, '√': 0xD6, '⋅': 0xD7, '∧': 0xD9,
	'∨': 0xDA, '⇔': 0xDB, '⇐': 0xDC, '⇑': 0xDD, '⇒': 0xDE, '⇓': 0xDF, '◊': 0xE0, '〈': 0xE1,
	'∑': 0xE5, '〉': 0xF1, '∫': 0xF2, '⟨': 0xE1, '⟩': 0xF1, '∣': 0x7C, '∘': 0xB0, '∓': 0xB1,
}

// glyphRun is a piece of text drawn with a single font.
type glyphRun struct {
	family string
	text   string
}

// glyphRuns splits text into runs the font of st can encode. UTF-8 fonts
// take the text as is. Core fonts use cp1252 with the Symbol font for
// mathematical glyphs; anything else becomes '?'.
func (e *Engine) glyphRuns(text string, st pdfStyle) []glyphRun {
	if !isCoreFont(st.fontFamily) {
		return []glyphRun{{family: st.fontFamily, text: text}}
	}
	var runs []glyphRun
	var cur strings.Builder
	curFamily := st.fontFamily
	push := func(family string, s string) {
		if family != curFamily && cur.Len() > 0 {
			runs = append(runs, glyphRun{family: curFamily, text: cur.String()})
			cur.Reset()
		}
		curFamily = family
		cur.WriteString(s)
	}
	for _, r := range text {
		if r < utf8.RuneSelf {
			push(st.fontFamily, string(r))
			continue
		}
		if enc, ok := e.cp1252(r); ok {
			push(st.fontFamily, enc)
			continue
		}
		if b, ok := symbolGlyphs[r]; ok && st.fontFamily != symbolFamily {
			push(symbolFamily, string([]byte{b}))
			continue
		}
		push(st.fontFamily, "?")
	}
	if cur.Len() > 0 {
		runs = append(runs, glyphRun{family: curFamily, text: cur.String()})
	}
	return runs
}

func (e *Engine) cp1252(r rune) (string, bool) {
	if enc, ok := e.encoded[r]; ok {
		return enc, enc != ""
	}
	enc := e.translate(string(r))
	if enc == "." {
		enc = ""
	}
	e.encoded[r] = enc
	return enc, enc != ""
}

func (e *Engine) setFont(family string, st pdfStyle) {
	style := st.fpdfStyle()
	if family == symbolFamily && st.fontFamily != symbolFamily {
		style = ""
		if st.underline {
			style = "U"
		}
	}
	e.pdf.SetFont(family, style, st.size)
}

// textWidth measures text drawn in st.
func (e *Engine) textWidth(text string, st pdfStyle) float64 {
	var w float64
	for _, run := range e.glyphRuns(text, st) {
		e.setFont(run.family, st)
		w += e.pdf.GetStringWidth(run.text)
	}
	return w
}

// drawText draws text with its baseline at y and returns the advance.
func (e *Engine) drawText(x, y float64, text string, st pdfStyle) float64 {
	e.pdf.SetTextColor(st.r, st.g, st.b)
	start := x
	for _, run := range e.glyphRuns(text, st) {
		e.setFont(run.family, st)
		e.pdf.Text(x, y, run.text)
		x += e.pdf.GetStringWidth(run.text)
	}
	return x - start
}
