package mdpdf

import (
	"pkt.systems/mdpdf/ast"
	"pkt.systems/mdpdf/layout"
	"pkt.systems/mdpdf/mathtex"
)

// CodeStyleNone disables syntax highlighting of code blocks.
const CodeStyleNone = "none"

// RenderOptions configures Render. It is a value: the renderer reads it and
// never modifies it.
type RenderOptions struct {
	// Debug wraps every block in an annotation box.
	Debug bool
	// StyleOverrides replaces the base text style for a node kind.
	StyleOverrides map[ast.Kind]layout.TextStyle
	// Theme defaults to DefaultTheme.
	Theme Theme
	// Math defaults to mathtex.Unicode.
	Math mathtex.Typesetter
	// CodeStyle names the chroma style for code blocks; CodeStyleNone
	// disables highlighting.
	CodeStyle string
}

// RenderOption configures rendering behavior.
type RenderOption func(*RenderOptions)

// NewRenderOptions applies opts over the zero RenderOptions.
func NewRenderOptions(opts ...RenderOption) RenderOptions {
	var o RenderOptions
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	return o
}

// WithDebug enables or disables debug annotations.
func WithDebug(enabled bool) RenderOption {
	return func(o *RenderOptions) {
		o.Debug = enabled
	}
}

// WithTheme selects the theme.
func WithTheme(theme Theme) RenderOption {
	return func(o *RenderOptions) {
		o.Theme = theme
	}
}

// WithMath selects the math typesetter.
func WithMath(ts mathtex.Typesetter) RenderOption {
	return func(o *RenderOptions) {
		o.Math = ts
	}
}

// WithCodeStyle selects the chroma style used for code blocks.
func WithCodeStyle(name string) RenderOption {
	return func(o *RenderOptions) {
		o.CodeStyle = name
	}
}

// WithStyleOverride replaces the base style of one node kind. The override
// map is copied so options built from a shared base never alias.
func WithStyleOverride(kind ast.Kind, style layout.TextStyle) RenderOption {
	return func(o *RenderOptions) {
		next := make(map[ast.Kind]layout.TextStyle, len(o.StyleOverrides)+1)
		for k, v := range o.StyleOverrides {
			next[k] = v
		}
		next[kind] = style
		o.StyleOverrides = next
	}
}
