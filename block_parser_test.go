package mdpdf

import (
	"reflect"
	"strings"
	"testing"

	"pkt.systems/mdpdf/ast"
)

func parseAST(t *testing.T, src string) []ast.Block {
	t.Helper()
	doc := Parse(src)
	if doc == nil || doc.AST == nil || doc.Assets == nil {
		t.Fatalf("Parse returned an incomplete document: %+v", doc)
	}
	return doc.AST.Blocks
}

func text(v string) *ast.Text { return &ast.Text{Value: v} }

func TestParseHeadings(t *testing.T) {
	blocks := parseAST(t, "# One\n## Two ##\n###### Six\n####### Seven\n#nospace\n")
	want := []ast.Block{
		&ast.Heading{Level: 1, Inlines: []ast.Inline{text("One")}},
		&ast.Heading{Level: 2, Inlines: []ast.Inline{text("Two")}},
		&ast.Heading{Level: 6, Inlines: []ast.Inline{text("Six")}},
		&ast.Paragraph{Inlines: []ast.Inline{
			text("####### Seven"),
			&ast.LineBreak{},
			text("#nospace"),
		}},
	}
	if !reflect.DeepEqual(blocks, want) {
		t.Fatalf("unexpected blocks:\n got %s\nwant %s", dumpBlocks(blocks), dumpBlocks(want))
	}
}

func TestParseSetextHeadings(t *testing.T) {
	blocks := parseAST(t, "Title\n=====\n\nSub\n---\n")
	if len(blocks) != 2 {
		t.Fatalf("expected two headings, got %s", dumpBlocks(blocks))
	}
	h1, ok1 := blocks[0].(*ast.Heading)
	h2, ok2 := blocks[1].(*ast.Heading)
	if !ok1 || !ok2 || h1.Level != 1 || h2.Level != 2 {
		t.Fatalf("unexpected setext headings: %s", dumpBlocks(blocks))
	}
}

func TestParseFencedCode(t *testing.T) {
	blocks := parseAST(t, "```go title\nfunc main() {}\n\n  x := 1\n```\nafter\n")
	if len(blocks) != 2 {
		t.Fatalf("expected code and paragraph, got %s", dumpBlocks(blocks))
	}
	code, ok := blocks[0].(*ast.CodeBlock)
	if !ok || code.Language != "go" || code.Text != "func main() {}\n\n  x := 1" {
		t.Fatalf("unexpected code block %+v", blocks[0])
	}
}

func TestParseUnterminatedFenceClosesAtEOF(t *testing.T) {
	blocks := parseAST(t, "~~~\n# not a heading\n")
	if len(blocks) != 1 {
		t.Fatalf("expected one block, got %s", dumpBlocks(blocks))
	}
	code, ok := blocks[0].(*ast.CodeBlock)
	if !ok || code.Language != "" || code.Text != "# not a heading" {
		t.Fatalf("unexpected block %+v", blocks[0])
	}
}

func TestParseFenceNeedsLongEnoughCloser(t *testing.T) {
	blocks := parseAST(t, "````\n```\nstill code\n````\n")
	code, ok := blocks[0].(*ast.CodeBlock)
	if !ok || code.Text != "```\nstill code" {
		t.Fatalf("unexpected block %+v", blocks[0])
	}
}

func TestParseIndentedCode(t *testing.T) {
	blocks := parseAST(t, "    a\n\n    b\n\npara\n")
	code, ok := blocks[0].(*ast.CodeBlock)
	if !ok || code.Text != "a\n\nb" {
		t.Fatalf("unexpected block %s", dumpBlocks(blocks))
	}
	if _, ok := blocks[1].(*ast.Paragraph); !ok {
		t.Fatalf("expected trailing paragraph, got %s", dumpBlocks(blocks))
	}
}

func TestParseBlockEquations(t *testing.T) {
	blocks := parseAST(t, "$$E = mc^2$$\n\n$$\n\\int_0^1 x\\,dx\n$$\n\n$$\na + b\n")
	want := []ast.Block{
		&ast.BlockEquation{Source: "E = mc^2"},
		&ast.BlockEquation{Source: `\int_0^1 x\,dx`},
		&ast.BlockEquation{Source: "a + b"},
	}
	if !reflect.DeepEqual(blocks, want) {
		t.Fatalf("unexpected blocks:\n got %s\nwant %s", dumpBlocks(blocks), dumpBlocks(want))
	}
}

func TestParseEmptyMathFenceIsText(t *testing.T) {
	soft := &ast.LineBreak{}
	tests := []struct {
		name string
		in   string
		want []ast.Block
	}{
		{
			name: "four dollars",
			in:   "before\n\n$$$$\n\nafter",
			want: []ast.Block{
				&ast.Paragraph{Inlines: []ast.Inline{text("before")}},
				&ast.Paragraph{Inlines: []ast.Inline{text("$$$$")}},
				&ast.Paragraph{Inlines: []ast.Inline{text("after")}},
			},
		},
		{
			name: "blank body on one line",
			in:   "$$ $$",
			want: []ast.Block{
				&ast.Paragraph{Inlines: []ast.Inline{text("$$ $$")}},
			},
		},
		{
			name: "empty fence pair inside paragraph",
			in:   "text\n$$\n$$\nmore",
			want: []ast.Block{
				&ast.Paragraph{Inlines: []ast.Inline{
					text("text"), soft, text("$$"), soft, text("$$"), soft, text("more"),
				}},
			},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			blocks := parseAST(t, tc.in)
			if !reflect.DeepEqual(blocks, tc.want) {
				t.Fatalf("unexpected blocks:\n got %s\nwant %s", dumpBlocks(blocks), dumpBlocks(tc.want))
			}
		})
	}
}

func TestParseMathExtraction(t *testing.T) {
	blocks := parseAST(t, "Inline $x^2$ and $$y=mx+b$$ block.")
	want := []ast.Block{
		&ast.Paragraph{Inlines: []ast.Inline{
			text("Inline "),
			&ast.InlineEquation{Source: "x^2"},
			text(" and "),
		}},
		&ast.BlockEquation{Source: "y=mx+b"},
		&ast.Paragraph{Inlines: []ast.Inline{text(" block.")}},
	}
	if !reflect.DeepEqual(blocks, want) {
		t.Fatalf("unexpected blocks:\n got %s\nwant %s", dumpBlocks(blocks), dumpBlocks(want))
	}
}

func TestParseThematicBreaks(t *testing.T) {
	blocks := parseAST(t, "***\n\n- - -\n\n___\n")
	if len(blocks) != 3 {
		t.Fatalf("expected three breaks, got %s", dumpBlocks(blocks))
	}
	for _, b := range blocks {
		if _, ok := b.(*ast.ThematicBreak); !ok {
			t.Fatalf("expected thematic break, got %s", dumpBlocks(blocks))
		}
	}
}

func TestParseBlockQuote(t *testing.T) {
	blocks := parseAST(t, "> # Title\n> first\nlazy\n>\n> > nested\n\nafter\n")
	if len(blocks) != 2 {
		t.Fatalf("expected quote and paragraph, got %s", dumpBlocks(blocks))
	}
	q, ok := blocks[0].(*ast.BlockQuote)
	if !ok || len(q.Children) != 3 {
		t.Fatalf("unexpected quote %s", dumpBlocks(blocks))
	}
	if _, ok := q.Children[0].(*ast.Heading); !ok {
		t.Fatalf("expected heading in quote, got %s", dumpBlocks(q.Children))
	}
	p, ok := q.Children[1].(*ast.Paragraph)
	if !ok || ast.PlainText(p.Inlines) != "first lazy" {
		t.Fatalf("expected lazy continuation, got %s", dumpBlocks(q.Children))
	}
	if _, ok := q.Children[2].(*ast.BlockQuote); !ok {
		t.Fatalf("expected nested quote, got %s", dumpBlocks(q.Children))
	}
}

func TestParseOrderedList(t *testing.T) {
	blocks := parseAST(t, "1. one\n2. two\n3. three\n")
	list, ok := blocks[0].(*ast.List)
	if !ok || !list.Ordered || list.Start != 1 || len(list.Items) != 3 {
		t.Fatalf("unexpected list %s", dumpBlocks(blocks))
	}
	for i, want := range []string{"one", "two", "three"} {
		p, ok := list.Items[i][0].(*ast.Paragraph)
		if !ok || ast.PlainText(p.Inlines) != want {
			t.Fatalf("item %d: unexpected %s", i, dumpBlocks(list.Items[i]))
		}
	}
}

func TestParseListStartAndParenMarker(t *testing.T) {
	blocks := parseAST(t, "3) c\n4) d\n")
	list, ok := blocks[0].(*ast.List)
	if !ok || !list.Ordered || list.Start != 3 || len(list.Items) != 2 {
		t.Fatalf("unexpected list %s", dumpBlocks(blocks))
	}
}

func TestParseNestedList(t *testing.T) {
	src := "- a\n  - a1\n  - a2\n- b\n\n  continued\n- c\n"
	blocks := parseAST(t, src)
	if len(blocks) != 1 {
		t.Fatalf("expected one list, got %s", dumpBlocks(blocks))
	}
	list := blocks[0].(*ast.List)
	if list.Ordered || len(list.Items) != 3 {
		t.Fatalf("unexpected list %s", dumpBlocks(blocks))
	}
	first := list.Items[0]
	if len(first) != 2 {
		t.Fatalf("expected paragraph and nested list, got %s", dumpBlocks(first))
	}
	nested, ok := first[1].(*ast.List)
	if !ok || len(nested.Items) != 2 {
		t.Fatalf("expected nested list with two items, got %s", dumpBlocks(first))
	}
	if len(list.Items[1]) != 2 {
		t.Fatalf("expected item with two paragraphs, got %s", dumpBlocks(list.Items[1]))
	}
}

func TestParseListTypeChangeStartsNewList(t *testing.T) {
	blocks := parseAST(t, "- a\n+ b\n1. c\n")
	if len(blocks) != 3 {
		t.Fatalf("expected three lists, got %s", dumpBlocks(blocks))
	}
}

func TestParseListEndsOnUnindentedParagraph(t *testing.T) {
	blocks := parseAST(t, "- a\n\nnot in list\n")
	if len(blocks) != 2 {
		t.Fatalf("expected list and paragraph, got %s", dumpBlocks(blocks))
	}
	if _, ok := blocks[1].(*ast.Paragraph); !ok {
		t.Fatalf("expected trailing paragraph, got %s", dumpBlocks(blocks))
	}
}

func TestParseNumberInParagraphDoesNotStartList(t *testing.T) {
	blocks := parseAST(t, "The year was\n1984. It rained.\n")
	if len(blocks) != 1 {
		t.Fatalf("expected single paragraph, got %s", dumpBlocks(blocks))
	}
}

func TestParseTable(t *testing.T) {
	src := "| A | B |\n|:--|--:|\n| 1 | 2 | 3 |\n| only |\n| `a|b` | \\| |\n"
	blocks := parseAST(t, src)
	if len(blocks) != 1 {
		t.Fatalf("expected one table, got %s", dumpBlocks(blocks))
	}
	table, ok := blocks[0].(*ast.Table)
	if !ok {
		t.Fatalf("expected table, got %s", dumpBlocks(blocks))
	}
	if !reflect.DeepEqual(table.Align, []ast.Alignment{ast.AlignLeft, ast.AlignRight}) {
		t.Fatalf("unexpected alignment %v", table.Align)
	}
	if len(table.Header) != 2 || len(table.Rows) != 3 {
		t.Fatalf("unexpected shape header=%d rows=%d", len(table.Header), len(table.Rows))
	}
	for i, row := range table.Rows {
		if len(row) != 2 {
			t.Fatalf("row %d has %d cells", i, len(row))
		}
	}
	if got := ast.PlainText(table.Rows[0][1]); got != "2" {
		t.Fatalf("expected truncated row to keep second cell, got %q", got)
	}
	if len(table.Rows[1][1]) != 0 {
		t.Fatalf("expected padded empty cell, got %+v", table.Rows[1][1])
	}
	if code, ok := table.Rows[2][0][0].(*ast.Code); !ok || code.Value != "a|b" {
		t.Fatalf("pipe inside code span should not split: %+v", table.Rows[2][0])
	}
	if got := ast.PlainText(table.Rows[2][1]); got != "|" {
		t.Fatalf("escaped pipe should be literal, got %q", got)
	}
}

func TestParseMalformedTableIsParagraph(t *testing.T) {
	blocks := parseAST(t, "| A | B |\n|-x-|---|\n| 1 | 2 |\n")
	if len(blocks) != 1 {
		t.Fatalf("expected one paragraph, got %s", dumpBlocks(blocks))
	}
	if _, ok := blocks[0].(*ast.Paragraph); !ok {
		t.Fatalf("expected paragraph, got %s", dumpBlocks(blocks))
	}
}

func TestParseHardBreaks(t *testing.T) {
	blocks := parseAST(t, "one  \ntwo\\\nthree\nfour")
	p := blocks[0].(*ast.Paragraph)
	var hard, soft int
	for _, in := range p.Inlines {
		if lb, ok := in.(*ast.LineBreak); ok {
			if lb.Hard {
				hard++
			} else {
				soft++
			}
		}
	}
	if hard != 2 || soft != 1 {
		t.Fatalf("expected 2 hard and 1 soft break, got %d/%d: %s", hard, soft, dumpBlocks(blocks))
	}
}

func TestParseFrontMatterMeta(t *testing.T) {
	doc := Parse("---\ntitle: Report\nauthor: Ada\ntags: [b, a]\nlang: en\n---\n\n# Body\n")
	meta := doc.AST.Meta
	if meta.Title != "Report" || meta.Author != "Ada" {
		t.Fatalf("unexpected meta %+v", meta)
	}
	if !reflect.DeepEqual(meta.Keywords, []string{"a", "b"}) {
		t.Fatalf("unexpected keywords %v", meta.Keywords)
	}
	if meta.Extra["lang"] != "en" {
		t.Fatalf("expected extra field, got %v", meta.Extra)
	}
	if len(doc.AST.Blocks) != 1 {
		t.Fatalf("front matter leaked into body: %s", dumpBlocks(doc.AST.Blocks))
	}
}

func TestParseFrontMatterOnlyAtStart(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{name: "not at start", src: "# Intro\n\n+++\ntitle = \"Keep me\"\n+++\n"},
		{name: "unclosed", src: "---\ntitle: Post\n\n# Hello\n"},
		{name: "rule then heading", src: "---\n# Keep\n---\n\nTail\n"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			doc := Parse(tc.src)
			if !doc.AST.Meta.IsZero() {
				t.Fatalf("unexpected metadata %+v", doc.AST.Meta)
			}
			if len(doc.AST.Blocks) == 0 {
				t.Fatalf("content dropped")
			}
		})
	}
}

func TestParseTomlFrontMatter(t *testing.T) {
	doc := Parse("+++\ntitle = \"Post\"\nkeywords = \"x, y\"\n+++\n\n# Hello\n")
	if doc.AST.Meta.Title != "Post" || !reflect.DeepEqual(doc.AST.Meta.Keywords, []string{"x", "y"}) {
		t.Fatalf("unexpected meta %+v", doc.AST.Meta)
	}
}

func TestParseIsTotal(t *testing.T) {
	inputs := []string{
		"",
		"\n\n\n",
		"```",
		"$$",
		"$",
		"> ",
		"- ",
		"1.",
		"|",
		"| a |\n|",
		"[",
		"![](",
		"**_`$",
		"\x00\xff\r\n#",
		strings.Repeat("> ", 200) + "deep",
		strings.Repeat("- ", 100) + "deep",
		strings.Repeat("[", 500),
		strings.Repeat("*a", 500),
	}
	for _, in := range inputs {
		doc := Parse(in)
		if doc == nil || doc.AST == nil {
			t.Fatalf("Parse(%q) returned nil", in)
		}
	}
}

func TestParseIsDeterministic(t *testing.T) {
	src := "# T\n\n- a *b* `c`\n- $x$\n\n| a | b |\n|---|---|\n| 1 | 2 |\n\n```go\nx\n```\n"
	a := Parse(src).AST
	b := Parse(src).AST
	if !reflect.DeepEqual(a, b) {
		t.Fatalf("two parses of the same input differ")
	}
}

func dumpBlocks(blocks []ast.Block) string {
	var b strings.Builder
	for _, blk := range blocks {
		dumpBlock(&b, blk, 0)
	}
	return b.String()
}

func dumpBlock(b *strings.Builder, blk ast.Block, depth int) {
	b.WriteString("\n" + strings.Repeat("  ", depth) + blk.Kind().String())
	switch n := blk.(type) {
	case *ast.Heading:
		b.WriteString(" " + ast.PlainText(n.Inlines))
	case *ast.Paragraph:
		b.WriteString(" " + ast.PlainText(n.Inlines))
	case *ast.CodeBlock:
		b.WriteString(" " + n.Text)
	case *ast.BlockEquation:
		b.WriteString(" " + n.Source)
	case *ast.BlockQuote:
		for _, c := range n.Children {
			dumpBlock(b, c, depth+1)
		}
	case *ast.List:
		for _, item := range n.Items {
			b.WriteString("\n" + strings.Repeat("  ", depth+1) + "item")
			for _, c := range item {
				dumpBlock(b, c, depth+2)
			}
		}
	}
}
