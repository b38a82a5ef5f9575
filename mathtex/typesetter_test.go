package mathtex

import (
	"errors"
	"strings"
	"testing"

	"pkt.systems/mdpdf/layout"
)

func runText(reg layout.Region) string {
	var b strings.Builder
	for _, r := range reg.Runs {
		b.WriteString(r.Run.Text)
	}
	return b.String()
}

func TestTypesetSimpleExpression(t *testing.T) {
	reg, err := Unicode{}.Typeset(`y = mx + b`, false)
	if err != nil {
		t.Fatalf("typeset: %v", err)
	}
	if reg.Role != layout.RoleMath || reg.Source != "y = mx + b" {
		t.Fatalf("unexpected region header %+v", reg)
	}
	if got := runText(reg); got != "y=mx+b" {
		t.Fatalf("unexpected text %q", got)
	}
	if reg.Width <= 0 || reg.Height <= 0 || reg.Baseline <= 0 || reg.Baseline > reg.Height {
		t.Fatalf("unexpected metrics w=%v h=%v base=%v", reg.Width, reg.Height, reg.Baseline)
	}
}

func TestTypesetSuperscriptIsRaised(t *testing.T) {
	reg, err := Unicode{}.Typeset(`x^2`, false)
	if err != nil {
		t.Fatalf("typeset: %v", err)
	}
	if len(reg.Runs) != 2 {
		t.Fatalf("expected base and exponent runs, got %+v", reg.Runs)
	}
	base, exp := reg.Runs[0], reg.Runs[1]
	if exp.Y >= base.Y {
		t.Fatalf("exponent should sit above the baseline: base=%v exp=%v", base.Y, exp.Y)
	}
	if exp.Run.Style.Scale >= base.Run.Style.Scale {
		t.Fatalf("exponent should be smaller")
	}
	if !base.Run.Style.Italic || exp.Run.Style.Italic {
		t.Fatalf("letters italic, digits upright: %+v", reg.Runs)
	}
}

func TestTypesetFractionDrawsBar(t *testing.T) {
	reg, err := Unicode{}.Typeset(`\frac{a+b}{2}`, true)
	if err != nil {
		t.Fatalf("typeset: %v", err)
	}
	if len(reg.Lines) != 1 {
		t.Fatalf("expected one fraction bar, got %d", len(reg.Lines))
	}
	bar := reg.Lines[0]
	var num, den layout.PlacedRun
	for _, r := range reg.Runs {
		if r.Run.Text == "2" {
			den = r
		} else if num.Run.Text == "" {
			num = r
		}
	}
	if !(num.Y < bar.Y1 && den.Y > bar.Y1) {
		t.Fatalf("numerator above and denominator below the bar: num=%v bar=%v den=%v", num.Y, bar.Y1, den.Y)
	}
}

func TestTypesetSymbols(t *testing.T) {
	reg, err := Unicode{}.Typeset(`\alpha \le \sum_{i=1}^{n} i \cdot \infty`, false)
	if err != nil {
		t.Fatalf("typeset: %v", err)
	}
	got := runText(reg)
	for _, want := range []string{"α", "≤", "∑", "·", "∞"} {
		if !strings.Contains(got, want) {
			t.Fatalf("missing %q in %q", want, got)
		}
	}
}

func TestTypesetUnsupported(t *testing.T) {
	tests := []struct {
		src  string
		want error
	}{
		{src: `\begin{matrix} a & b \end{matrix}`, want: ErrUnsupported},
		{src: `\unknowncommand{x}`, want: ErrUnsupported},
		{src: `a \\ b`, want: ErrUnsupported},
		{src: `{x`, want: ErrSyntax},
		{src: `x}`, want: ErrSyntax},
		{src: `\frac{1}`, want: ErrSyntax},
		{src: `   `, want: ErrSyntax},
	}
	for _, tc := range tests {
		_, err := Unicode{}.Typeset(tc.src, false)
		if !errors.Is(err, tc.want) {
			t.Errorf("Typeset(%q) error = %v, want %v", tc.src, err, tc.want)
		}
	}
}

func TestFuncAdapter(t *testing.T) {
	var ts Typesetter = Func(func(src string, display bool) (layout.Region, error) {
		return layout.Region{Source: src, Width: 1}, nil
	})
	reg, err := ts.Typeset("x", true)
	if err != nil || reg.Source != "x" {
		t.Fatalf("unexpected result %+v %v", reg, err)
	}
}
