// Package mathtex typesets LaTeX math source into layout regions.
//
// The Typesetter interface is the capability the Markdown renderer consumes.
// Unicode is a built-in implementation covering a practical subset of LaTeX
// math: letters, digits and operators, scripts, fractions, roots, Greek
// letters, common symbols and spacing. It draws with ordinary text runs, so
// any engine that can place text can show the result. Environments and
// commands outside the subset are reported as ErrUnsupported and left to the
// caller's fallback.
package mathtex

import (
	"errors"
	"fmt"

	"pkt.systems/mdpdf/layout"
)

var (
	// ErrUnsupported reports LaTeX the typesetter does not handle.
	ErrUnsupported = errors.New("mathtex: unsupported construct")
	// ErrSyntax reports malformed LaTeX such as unbalanced braces.
	ErrSyntax = errors.New("mathtex: syntax error")
)

// Typesetter turns math source into a self-contained region. Display is
// true for block equations.
type Typesetter interface {
	Typeset(src string, display bool) (layout.Region, error)
}

// Func adapts a function to Typesetter.
type Func func(src string, display bool) (layout.Region, error)

// Typeset calls f.
func (f Func) Typeset(src string, display bool) (layout.Region, error) {
	return f(src, display)
}

// Unicode is the built-in typesetter.
type Unicode struct {
	// DisplayScale enlarges block equations; zero means 1.2.
	DisplayScale float64
}

// Typeset lays out src. The returned region uses em of the base font size.
func (u Unicode) Typeset(src string, display bool) (layout.Region, error) {
	nodes, err := parse(src)
	if err != nil {
		return layout.Region{}, err
	}
	if len(nodes) == 0 {
		return layout.Region{}, fmt.Errorf("%w: empty expression", ErrSyntax)
	}
	scale := 1.0
	if display {
		scale = u.DisplayScale
		if scale <= 0 {
			scale = 1.2
		}
	}
	b := layoutList(nodes, scale)
	return b.region(src), nil
}
