package mdpdf

import (
	"sort"
	"strconv"
	"strings"

	"pkt.systems/mdpdf/layout"
)

// Styles groups the semantic styles used by the renderer. Emphasis, Strong,
// Link and CodeInline are overlays merged onto the surrounding text style.
type Styles struct {
	Text         layout.TextStyle
	Heading      [6]layout.TextStyle
	HeadingScale [6]float64
	Emphasis     layout.TextStyle
	Strong       layout.TextStyle
	CodeInline   layout.TextStyle
	CodeBlock    layout.TextStyle
	Quote        layout.TextStyle
	ListMarker   layout.TextStyle
	Link         layout.TextStyle
	TableHeader  layout.TextStyle
	Placeholder  layout.TextStyle
	QuoteRule    layout.Color
	Rule         layout.Color
	TableBorder  layout.Color
	Debug        layout.Color
}

// Theme provides named styles for Markdown rendering.
type Theme interface {
	Name() string
	Styles() Styles
}

type theme struct {
	name   string
	styles Styles
}

func (t theme) Name() string   { return t.name }
func (t theme) Styles() Styles { return t.styles }

// NewTheme returns a Theme from a Styles definition.
func NewTheme(name string, styles Styles) Theme {
	return theme{name: name, styles: styles}
}

// palette lists the colours of a theme as hex strings.
type palette struct {
	Text       string
	H1, H2, H3 string
	H4, H5, H6 string
	Emphasis   string
	Strong     string
	CodeFg     string
	CodeBg     string
	Quote      string
	QuoteRule  string
	ListMarker string
	Link       string
	Rule       string
	Debug      string
}

var defaultHeadingScale = [6]float64{2.0, 1.5, 1.25, 1.1, 1.0, 0.9}

func hex(s string) layout.Color {
	s = strings.TrimPrefix(s, "#")
	if len(s) != 6 {
		return layout.Color{}
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return layout.Color{}
	}
	return layout.RGB(uint8(v>>16), uint8(v>>8), uint8(v))
}

func fg(s string) layout.TextStyle {
	return layout.TextStyle{Color: hex(s), HasColor: true}
}

func stylesFromPalette(p palette) Styles {
	heading := func(c string) layout.TextStyle {
		st := fg(c)
		st.Bold = true
		return st
	}
	emphasis := fg(p.Emphasis)
	emphasis.Italic = true
	strong := fg(p.Strong)
	strong.Bold = true
	code := fg(p.CodeFg)
	code.Mono = true
	code.Background = hex(p.CodeBg)
	code.HasBackground = true
	link := fg(p.Link)
	link.Underline = true
	quote := fg(p.Quote)
	quote.Italic = true
	header := fg(p.Text)
	header.Bold = true
	placeholder := fg(p.Quote)
	placeholder.Italic = true
	return Styles{
		Text:         fg(p.Text),
		Heading:      [6]layout.TextStyle{heading(p.H1), heading(p.H2), heading(p.H3), heading(p.H4), heading(p.H5), heading(p.H6)},
		HeadingScale: defaultHeadingScale,
		Emphasis:     emphasis,
		Strong:       strong,
		CodeInline:   code,
		CodeBlock:    code,
		Quote:        quote,
		ListMarker:   fg(p.ListMarker),
		Link:         link,
		TableHeader:  header,
		Placeholder:  placeholder,
		QuoteRule:    hex(p.QuoteRule),
		Rule:         hex(p.Rule),
		TableBorder:  hex(p.Rule),
		Debug:        hex(p.Debug),
	}
}

var (
	paletteDefault = palette{
		Text: "#1f2328", H1: "#0b3d91", H2: "#0b3d91", H3: "#1a5fb4", H4: "#1a5fb4", H5: "#3d3d3d", H6: "#5e5e5e",
		Emphasis: "#1f2328", Strong: "#1f2328", CodeFg: "#24292f", CodeBg: "#f2f4f7",
		Quote: "#57606a", QuoteRule: "#d0d7de", ListMarker: "#57606a", Link: "#0969da", Rule: "#d0d7de", Debug: "#e5534b",
	}
	paletteGithubLight = palette{
		Text: "#24292f", H1: "#24292f", H2: "#24292f", H3: "#24292f", H4: "#24292f", H5: "#24292f", H6: "#57606a",
		Emphasis: "#24292f", Strong: "#24292f", CodeFg: "#24292f", CodeBg: "#f6f8fa",
		Quote: "#57606a", QuoteRule: "#d0d7de", ListMarker: "#57606a", Link: "#0969da", Rule: "#d8dee4", Debug: "#cf222e",
	}
	paletteGithubDark = palette{
		Text: "#c9d1d9", H1: "#e6edf3", H2: "#e6edf3", H3: "#e6edf3", H4: "#e6edf3", H5: "#e6edf3", H6: "#8b949e",
		Emphasis: "#c9d1d9", Strong: "#e6edf3", CodeFg: "#c9d1d9", CodeBg: "#161b22",
		Quote: "#8b949e", QuoteRule: "#30363d", ListMarker: "#8b949e", Link: "#58a6ff", Rule: "#30363d", Debug: "#f85149",
	}
	paletteSolarizedLight = palette{
		Text: "#657b83", H1: "#cb4b16", H2: "#b58900", H3: "#859900", H4: "#2aa198", H5: "#268bd2", H6: "#6c71c4",
		Emphasis: "#586e75", Strong: "#073642", CodeFg: "#586e75", CodeBg: "#eee8d5",
		Quote: "#93a1a1", QuoteRule: "#93a1a1", ListMarker: "#d33682", Link: "#268bd2", Rule: "#93a1a1", Debug: "#dc322f",
	}
	paletteSolarizedDark = palette{
		Text: "#839496", H1: "#cb4b16", H2: "#b58900", H3: "#859900", H4: "#2aa198", H5: "#268bd2", H6: "#6c71c4",
		Emphasis: "#93a1a1", Strong: "#eee8d5", CodeFg: "#93a1a1", CodeBg: "#073642",
		Quote: "#586e75", QuoteRule: "#586e75", ListMarker: "#d33682", Link: "#268bd2", Rule: "#586e75", Debug: "#dc322f",
	}
	paletteGruvboxLight = palette{
		Text: "#3c3836", H1: "#9d0006", H2: "#af3a03", H3: "#b57614", H4: "#79740e", H5: "#427b58", H6: "#076678",
		Emphasis: "#504945", Strong: "#282828", CodeFg: "#3c3836", CodeBg: "#ebdbb2",
		Quote: "#7c6f64", QuoteRule: "#bdae93", ListMarker: "#af3a03", Link: "#076678", Rule: "#bdae93", Debug: "#cc241d",
	}
	paletteGruvbox = palette{
		Text: "#ebdbb2", H1: "#fb4934", H2: "#fe8019", H3: "#fabd2f", H4: "#b8bb26", H5: "#8ec07c", H6: "#83a598",
		Emphasis: "#d5c4a1", Strong: "#fbf1c7", CodeFg: "#ebdbb2", CodeBg: "#3c3836",
		Quote: "#a89984", QuoteRule: "#665c54", ListMarker: "#fe8019", Link: "#83a598", Rule: "#665c54", Debug: "#fb4934",
	}
	paletteNord = palette{
		Text: "#d8dee9", H1: "#88c0d0", H2: "#81a1c1", H3: "#5e81ac", H4: "#8fbcbb", H5: "#a3be8c", H6: "#b48ead",
		Emphasis: "#e5e9f0", Strong: "#eceff4", CodeFg: "#d8dee9", CodeBg: "#3b4252",
		Quote: "#9aa5b8", QuoteRule: "#4c566a", ListMarker: "#ebcb8b", Link: "#88c0d0", Rule: "#4c566a", Debug: "#bf616a",
	}
	paletteDracula = palette{
		Text: "#f8f8f2", H1: "#ff79c6", H2: "#bd93f9", H3: "#8be9fd", H4: "#50fa7b", H5: "#f1fa8c", H6: "#ffb86c",
		Emphasis: "#f1fa8c", Strong: "#ffb86c", CodeFg: "#f8f8f2", CodeBg: "#44475a",
		Quote: "#6272a4", QuoteRule: "#6272a4", ListMarker: "#ff79c6", Link: "#8be9fd", Rule: "#6272a4", Debug: "#ff5555",
	}
	paletteTokyoNight = palette{
		Text: "#c0caf5", H1: "#7aa2f7", H2: "#bb9af7", H3: "#7dcfff", H4: "#9ece6a", H5: "#e0af68", H6: "#f7768e",
		Emphasis: "#c0caf5", Strong: "#e0e6ff", CodeFg: "#a9b1d6", CodeBg: "#24283b",
		Quote: "#565f89", QuoteRule: "#3b4261", ListMarker: "#ff9e64", Link: "#7aa2f7", Rule: "#3b4261", Debug: "#f7768e",
	}
	paletteOneLight = palette{
		Text: "#383a42", H1: "#e45649", H2: "#986801", H3: "#4078f2", H4: "#50a14f", H5: "#a626a4", H6: "#0184bc",
		Emphasis: "#383a42", Strong: "#232324", CodeFg: "#383a42", CodeBg: "#f0f0f1",
		Quote: "#a0a1a7", QuoteRule: "#d4d4d6", ListMarker: "#c18401", Link: "#4078f2", Rule: "#d4d4d6", Debug: "#e45649",
	}
)

var builtinThemes = map[string]Theme{
	"default":         theme{name: "default", styles: stylesFromPalette(paletteDefault)},
	"github-light":    theme{name: "github-light", styles: stylesFromPalette(paletteGithubLight)},
	"github-dark":     theme{name: "github-dark", styles: stylesFromPalette(paletteGithubDark)},
	"solarized-light": theme{name: "solarized-light", styles: stylesFromPalette(paletteSolarizedLight)},
	"solarized-dark":  theme{name: "solarized-dark", styles: stylesFromPalette(paletteSolarizedDark)},
	"gruvbox":         theme{name: "gruvbox", styles: stylesFromPalette(paletteGruvbox)},
	"gruvbox-light":   theme{name: "gruvbox-light", styles: stylesFromPalette(paletteGruvboxLight)},
	"nord":            theme{name: "nord", styles: stylesFromPalette(paletteNord)},
	"dracula":         theme{name: "dracula", styles: stylesFromPalette(paletteDracula)},
	"tokyo-night":     theme{name: "tokyo-night", styles: stylesFromPalette(paletteTokyoNight)},
	"one-light":       theme{name: "one-light", styles: stylesFromPalette(paletteOneLight)},
}

// AvailableThemes returns the names of built-in themes.
func AvailableThemes() []string {
	names := make([]string, 0, len(builtinThemes))
	for name := range builtinThemes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ThemeByName returns a built-in theme by name.
func ThemeByName(name string) (Theme, bool) {
	if name == "" {
		return builtinThemes["default"], true
	}
	normalized := strings.ToLower(strings.TrimSpace(name))
	theme, ok := builtinThemes[normalized]
	return theme, ok
}

// DefaultTheme returns the default built-in theme.
func DefaultTheme() Theme {
	return builtinThemes["default"]
}

// combineStyles overlays extra onto base: flags accumulate, colours and
// scale in extra win when set.
func combineStyles(base, extra layout.TextStyle) layout.TextStyle {
	out := base
	out.Bold = out.Bold || extra.Bold
	out.Italic = out.Italic || extra.Italic
	out.Underline = out.Underline || extra.Underline
	out.Mono = out.Mono || extra.Mono
	if extra.HasColor {
		out.Color = extra.Color
		out.HasColor = true
	}
	if extra.HasBackground {
		out.Background = extra.Background
		out.HasBackground = true
	}
	if extra.Scale > 0 {
		out.Scale = extra.Scale
	}
	if extra.Rise != 0 {
		out.Rise = extra.Rise
	}
	return out
}
