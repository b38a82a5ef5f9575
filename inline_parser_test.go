package mdpdf

import (
	"reflect"
	"strings"
	"testing"
	"time"

	"pkt.systems/mdpdf/ast"
)

func TestParseInline(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []ast.Inline
	}{
		{
			name: "plain",
			in:   "hello world",
			want: []ast.Inline{text("hello world")},
		},
		{
			name: "emphasis and strong",
			in:   "*a* **b** _c_ __d__",
			want: []ast.Inline{
				&ast.Emphasis{Children: []ast.Inline{text("a")}},
				text(" "),
				&ast.Strong{Children: []ast.Inline{text("b")}},
				text(" "),
				&ast.Emphasis{Children: []ast.Inline{text("c")}},
				text(" "),
				&ast.Strong{Children: []ast.Inline{text("d")}},
			},
		},
		{
			name: "triple delimiters",
			in:   "***x***",
			want: []ast.Inline{
				&ast.Emphasis{Children: []ast.Inline{
					&ast.Strong{Children: []ast.Inline{text("x")}},
				}},
			},
		},
		{
			name: "nested",
			in:   "**bold *and italic***",
			want: []ast.Inline{
				&ast.Strong{Children: []ast.Inline{
					text("bold "),
					&ast.Emphasis{Children: []ast.Inline{text("and italic")}},
				}},
			},
		},
		{
			name: "mixed delimiters do not pair",
			in:   "*a_",
			want: []ast.Inline{text("*a_")},
		},
		{
			name: "intraword underscore",
			in:   "snake_case_name",
			want: []ast.Inline{text("snake_case_name")},
		},
		{
			name: "intraword star",
			in:   "un*frigging*believable",
			want: []ast.Inline{
				text("un"),
				&ast.Emphasis{Children: []ast.Inline{text("frigging")}},
				text("believable"),
			},
		},
		{
			name: "unmatched opener",
			in:   "**open",
			want: []ast.Inline{text("**open")},
		},
		{
			name: "code span",
			in:   "use `` a`b `` and `*x*`",
			want: []ast.Inline{
				text("use "),
				&ast.Code{Value: "a`b"},
				text(" and "),
				&ast.Code{Value: "*x*"},
			},
		},
		{
			name: "unterminated code span",
			in:   "a `b",
			want: []ast.Inline{text("a `b")},
		},
		{
			name: "escapes",
			in:   `\*not\* \_em\_ \$5`,
			want: []ast.Inline{text("*not* _em_ $5")},
		},
		{
			name: "link",
			in:   `[the *site*](https://example.com "Title")`,
			want: []ast.Inline{
				&ast.Link{Target: "https://example.com", Title: "Title", Children: []ast.Inline{
					text("the "),
					&ast.Emphasis{Children: []ast.Inline{text("site")}},
				}},
			},
		},
		{
			name: "image",
			in:   `![a **logo**](img/logo.png "L")`,
			want: []ast.Inline{
				&ast.Image{Source: "img/logo.png", Alt: "a logo", Title: "L"},
			},
		},
		{
			name: "link with parens in destination",
			in:   "[w](https://en.wikipedia.org/wiki/Go_(language))",
			want: []ast.Inline{
				&ast.Link{Target: "https://en.wikipedia.org/wiki/Go_(language)", Children: []ast.Inline{text("w")}},
			},
		},
		{
			name: "broken link stays text",
			in:   "[a](b",
			want: []ast.Inline{text("[a](b")},
		},
		{
			name: "autolinks",
			in:   "<https://go.dev> <me@example.com>",
			want: []ast.Inline{
				&ast.Link{Target: "https://go.dev", Children: []ast.Inline{text("https://go.dev")}},
				text(" "),
				&ast.Link{Target: "mailto:me@example.com", Children: []ast.Inline{text("me@example.com")}},
			},
		},
		{
			name: "math is opaque",
			in:   "$a_1 * b_2$ and *c*",
			want: []ast.Inline{
				&ast.InlineEquation{Source: "a_1 * b_2"},
				text(" and "),
				&ast.Emphasis{Children: []ast.Inline{text("c")}},
			},
		},
		{
			name: "math inside link text",
			in:   "[$x$](u)",
			want: []ast.Inline{
				&ast.Link{Target: "u", Children: []ast.Inline{&ast.InlineEquation{Source: "x"}}},
			},
		},
		{
			name: "nested brackets in label",
			in:   "[[a]](b)",
			want: []ast.Inline{
				&ast.Link{Target: "b", Children: []ast.Inline{text("[a]")}},
			},
		},
		{
			name: "backtick in destination",
			in:   "[a](x`y) [b](c)`",
			want: []ast.Inline{
				&ast.Link{Target: "x`y", Children: []ast.Inline{text("a")}},
				text(" "),
				&ast.Link{Target: "c", Children: []ast.Inline{text("b")}},
				text("`"),
			},
		},
		{
			name: "angle destination",
			in:   "[a](<b c>) [d](<e<f>)",
			want: []ast.Inline{
				&ast.Link{Target: "b c", Children: []ast.Inline{text("a")}},
				text(" [d](<e<f>)"),
			},
		},
		{
			name: "deeply nested destination parens",
			in:   "[a](" + strings.Repeat("(", 40) + strings.Repeat(")", 41),
			want: []ast.Inline{text("[a](" + strings.Repeat("(", 40) + strings.Repeat(")", 41))},
		},
		{
			name: "closer skips unmatched opener of other kind",
			in:   "_a *b* c",
			want: []ast.Inline{
				text("_a "),
				&ast.Emphasis{Children: []ast.Inline{text("b")}},
				text(" c"),
			},
		},
		{
			name: "entities",
			in:   "a &amp; b &#169; &bogus;",
			want: []ast.Inline{text("a & b © &bogus;")},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := ParseInline(tc.in)
			if !reflect.DeepEqual(got, tc.want) {
				t.Fatalf("ParseInline(%q)\n got %s\nwant %s", tc.in, dumpInlines(got), dumpInlines(tc.want))
			}
		})
	}
}

func dumpInlines(list []ast.Inline) string {
	out := "["
	for i, in := range list {
		if i > 0 {
			out += ", "
		}
		switch n := in.(type) {
		case *ast.Text:
			out += "Text(" + n.Value + ")"
		case *ast.Emphasis:
			out += "Em" + dumpInlines(n.Children)
		case *ast.Strong:
			out += "Strong" + dumpInlines(n.Children)
		case *ast.Link:
			out += "Link(" + n.Target + ")" + dumpInlines(n.Children)
		default:
			out += in.Kind().String()
		}
	}
	return out + "]"
}

// Each input repeats an opener whose closer is far away or missing. A
// megabyte of any of them must parse within the limit.
func TestParseLinearOnRepeatedOpeners(t *testing.T) {
	const size = 1 << 20
	units := []string{
		"$a ",
		"[",
		"[a](",
		"[a](<",
		"[a](x`y) ",
		"<a",
		"*a* ",
		"a * ",
		"_a b* ",
		"`` ` ",
	}
	for _, unit := range units {
		t.Run(strings.TrimSpace(unit), func(t *testing.T) {
			src := strings.Repeat(unit, size/len(unit))
			done := make(chan struct{})
			go func() {
				defer close(done)
				Parse(src)
			}()
			select {
			case <-done:
			case <-time.After(5 * time.Second):
				t.Fatalf("parsing %d bytes of %q did not finish in time", len(src), unit)
			}
		})
	}
}
