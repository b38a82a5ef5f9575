// Package highlight colours code blocks by language using chroma lexers.
package highlight

import (
	"strings"

	"github.com/alecthomas/chroma"
	"github.com/alecthomas/chroma/lexers"
	"github.com/alecthomas/chroma/styles"

	"pkt.systems/mdpdf/layout"
)

// DefaultStyle is the chroma style used when none is named.
const DefaultStyle = "github"

// Span is a highlighted slice of code.
type Span struct {
	Text   string
	Style  layout.TextStyle
	Colour bool
}

// Highlighter tokenises code and maps token types to text styles.
type Highlighter struct {
	style *chroma.Style
}

// New returns a Highlighter for the named chroma style. Unknown names fall
// back to chroma's default style.
func New(style string) *Highlighter {
	if style == "" {
		style = DefaultStyle
	}
	return &Highlighter{style: styles.Get(style)}
}

// Known reports whether a lexer exists for the language tag.
func Known(language string) bool {
	return lexerFor(language) != nil
}

func lexerFor(language string) chroma.Lexer {
	language = strings.TrimSpace(strings.ToLower(language))
	if language == "" {
		return nil
	}
	return lexers.Get(language)
}

// Highlight splits code into styled spans. It reports false when the
// language is unknown or the lexer fails, in which case callers render the
// code unhighlighted. Spans concatenate to exactly code.
func (h *Highlighter) Highlight(language, code string) ([]Span, bool) {
	lexer := lexerFor(language)
	if lexer == nil {
		return nil, false
	}
	lexer = chroma.Coalesce(lexer)
	iterator, err := lexer.Tokenise(nil, code)
	if err != nil {
		return nil, false
	}
	var spans []Span
	var total int
	for token := iterator(); token != chroma.EOF; token = iterator() {
		if token.Value == "" {
			continue
		}
		total += len(token.Value)
		span := h.span(token)
		if n := len(spans); n > 0 && spans[n-1].Style == span.Style && spans[n-1].Colour == span.Colour {
			spans[n-1].Text += span.Text
			continue
		}
		spans = append(spans, span)
	}
	// Some lexers append a trailing newline; keep the output faithful.
	if total != len(code) {
		trimmed := strings.TrimSuffix(code, "\n")
		if n := len(spans); n > 0 && total == len(trimmed)+1 {
			spans[n-1].Text = strings.TrimSuffix(spans[n-1].Text, "\n")
			if spans[n-1].Text == "" {
				spans = spans[:n-1]
			}
		}
	}
	return spans, true
}

func (h *Highlighter) span(token chroma.Token) Span {
	entry := h.style.Get(token.Type)
	st := layout.TextStyle{
		Mono:      true,
		Bold:      entry.Bold == chroma.Yes,
		Italic:    entry.Italic == chroma.Yes,
		Underline: entry.Underline == chroma.Yes,
	}
	span := Span{Text: token.Value, Style: st}
	if entry.Colour.IsSet() {
		span.Style.Color = layout.RGB(entry.Colour.Red(), entry.Colour.Green(), entry.Colour.Blue())
		span.Style.HasColor = true
		span.Colour = true
	}
	return span
}
