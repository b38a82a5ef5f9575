package ansi

import (
	"bytes"
	"context"
	"regexp"
	"strconv"
	"strings"
	"testing"

	rfansi "github.com/muesli/reflow/ansi"

	"pkt.systems/mdpdf"
	"pkt.systems/mdpdf/layout"
)

var escapes = regexp.MustCompile(`\x1b\[[0-9;]*m|\x1b\]8;;[^\x1b]*\x1b\\`)

func stripANSI(s string) string {
	return escapes.ReplaceAllString(s, "")
}

func renderTerminal(t *testing.T, src string, cfg Config, debug bool) string {
	t.Helper()
	var out bytes.Buffer
	err := Render(context.Background(), RenderRequest{
		Reader: strings.NewReader(src),
		Writer: &out,
		Config: cfg,
		Debug:  debug,
	})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	return out.String()
}

func TestRenderPlainLayout(t *testing.T) {
	src := strings.Join([]string{
		"# Title",
		"",
		"Paragraph with *emphasis* and `code`.",
		"",
		"> Quote line one",
		"> Quote line two",
		"",
		"- item one",
		"- item two",
		"  - nested one",
		"",
		"1. ordered one",
		"2. ordered two",
		"",
		"[site](https://example.com)",
		"",
		"---",
	}, "\n")
	got := renderTerminal(t, src, Config{Width: 40, Plain: true}, false)
	want := strings.Join([]string{
		"# Title",
		"",
		"Paragraph with emphasis and code.",
		"",
		"│ Quote line one Quote line two",
		"",
		"• item one",
		"• item two",
		"  ◦ nested one",
		"",
		"1. ordered one",
		"2. ordered two",
		"",
		"site (https://example.com)",
		"",
		strings.Repeat("─", 40),
	}, "\n") + "\n"
	if got != want {
		t.Fatalf("plain output mismatch\n---want---\n%s\n---got---\n%s", want, got)
	}
}

func TestRenderColoursWithTheme(t *testing.T) {
	out := renderTerminal(t, "# Title\n\n**strong** text\n", Config{}, false)
	h1 := mdpdf.DefaultTheme().Styles().Heading[0]
	if !strings.Contains(out, "38;2;"+rgb(h1.Color)) {
		t.Fatalf("missing heading colour in %q", out)
	}
	if !strings.Contains(out, "\x1b[1") {
		t.Fatalf("missing bold SGR in %q", out)
	}
	if stripANSI(out) != "# Title\n\nstrong text\n" {
		t.Fatalf("unexpected text %q", stripANSI(out))
	}
}

func TestRenderWrapsAtWidth(t *testing.T) {
	src := "Paragraph one with words that should wrap cleanly at a smaller width.\n\n" +
		"- list item with a long line that wraps properly\n  - nested item with more words and wrapping\n"
	out := stripANSI(renderTerminal(t, src, Config{Width: 24}, false))
	for _, line := range strings.Split(strings.TrimRight(out, "\n"), "\n") {
		if w := rfansi.PrintableRuneWidth(line); w > 24 {
			t.Fatalf("line %q is %d columns wide", line, w)
		}
	}
	if !strings.Contains(out, "• list item") {
		t.Fatalf("missing list item marker in %q", out)
	}
	if !strings.Contains(out, "\n    ◦ nested") && !strings.Contains(out, "\n  ◦ nested") {
		t.Fatalf("nested item not indented: %q", out)
	}
}

func TestRenderListContinuationIndent(t *testing.T) {
	out := renderTerminal(t, "- alpha beta gamma delta\n", Config{Width: 14, Plain: true}, false)
	want := "• alpha beta\n  gamma delta\n"
	if out != want {
		t.Fatalf("got %q, want %q", out, want)
	}
}

func TestRenderOSC8Links(t *testing.T) {
	out := renderTerminal(t, "[site](https://example.com)\n", Config{OSC8: true}, false)
	if !strings.Contains(out, osc8Start+"https://example.com\x1b\\") {
		t.Fatalf("missing OSC 8 start in %q", out)
	}
	if !strings.Contains(out, osc8End) {
		t.Fatalf("missing OSC 8 end in %q", out)
	}
	if strings.Contains(stripANSI(out), "(https://example.com)") {
		t.Fatalf("target printed although OSC 8 is enabled: %q", out)
	}
}

func TestRenderAutolinkPrintsOnce(t *testing.T) {
	out := renderTerminal(t, "<https://pkt.systems> <ops@example.org>\n", Config{Plain: true}, false)
	if out != "https://pkt.systems ops@example.org\n" {
		t.Fatalf("got %q", out)
	}
}

func TestRenderLongURLIsFitted(t *testing.T) {
	url := "https://example.com/" + strings.Repeat("a", 60)
	out := renderTerminal(t, "<"+url+">\n", Config{Width: 30, Plain: true}, false)
	line := strings.TrimRight(out, "\n")
	if strings.Contains(line, "\n") || rfansi.PrintableRuneWidth(line) != 30 || !strings.HasSuffix(line, "…") {
		t.Fatalf("expected one fitted line, got %q", out)
	}
}

func TestRenderTable(t *testing.T) {
	src := "| Name | Qty |\n|:-----|----:|\n| apple | 3 |\n| kiwi | 12 |\n"
	got := renderTerminal(t, src, Config{Plain: true}, false)
	want := strings.Join([]string{
		"┌───────┬─────┐",
		"│ Name  │ Qty │",
		"├───────┼─────┤",
		"│ apple │   3 │",
		"│ kiwi  │  12 │",
		"└───────┴─────┘",
	}, "\n") + "\n"
	if got != want {
		t.Fatalf("table mismatch\n---want---\n%s\n---got---\n%s", want, got)
	}
}

func TestRenderTableTruncatesToWidth(t *testing.T) {
	src := "| A | B |\n|---|---|\n| " + strings.Repeat("x", 50) + " | y |\n"
	out := renderTerminal(t, src, Config{Width: 30, Plain: true}, false)
	for _, line := range strings.Split(strings.TrimRight(out, "\n"), "\n") {
		if w := rfansi.PrintableRuneWidth(line); w > 30 {
			t.Fatalf("table line %q is %d columns wide", line, w)
		}
	}
	if !strings.Contains(out, "…") {
		t.Fatalf("expected truncated cell in %q", out)
	}
}

func TestRenderCodeBlockKeepsWhitespace(t *testing.T) {
	src := "```\nif x {\n    y()\n}\n```\n"
	got := renderTerminal(t, src, Config{Plain: true}, false)
	want := "  if x {\n      y()\n  }\n"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestRenderMath(t *testing.T) {
	out := renderTerminal(t, "Inline $a + b$ here.\n\n$$\\frac{1}{2}$$\n", Config{Plain: true}, false)
	if !regexp.MustCompile(`a\s*\+\s*b`).MatchString(out) {
		t.Fatalf("inline math missing: %q", out)
	}
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	var num, bar, den int
	for i, l := range lines {
		switch strings.TrimSpace(l) {
		case "1":
			num = i
		case "─", "──", "───":
			bar = i
		case "2":
			den = i
		}
	}
	if !(num > 0 && num < bar && bar < den) {
		t.Fatalf("fraction not stacked: %q", lines)
	}
}

func TestRenderImageLabels(t *testing.T) {
	out := renderTerminal(t, "![diagram](https://example.com/d.png)\n", Config{Plain: true}, false)
	if !strings.Contains(out, "[image: diagram (pending)]") {
		t.Fatalf("unexpected image label: %q", out)
	}
}

func TestRenderDebugLabels(t *testing.T) {
	out := renderTerminal(t, "# Title\n\n- item\n", Config{Plain: true}, true)
	for _, want := range []string{"┌ Heading", "┌ List", "┌ Paragraph", "# Title", "• item"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in %q", want, out)
		}
	}
	plain := renderTerminal(t, "# Title\n\n- item\n", Config{Plain: true}, false)
	if strings.Contains(plain, "┌") {
		t.Fatalf("labels without debug: %q", plain)
	}
}

func TestEngineUnbalancedEnd(t *testing.T) {
	e := NewEngine(&bytes.Buffer{}, Config{})
	if err := e.End(); err != layout.ErrUnbalanced {
		t.Fatalf("End = %v, want ErrUnbalanced", err)
	}
}

func TestRegionRows(t *testing.T) {
	r := layout.Region{
		Width: 2,
		Runs: []layout.PlacedRun{
			{X: 0, Y: 0.8, Run: layout.TextRun{Text: "x"}},
			{X: 0.5, Y: 0.4, Run: layout.TextRun{Text: "2"}},
		},
	}
	rows := regionRows(r)
	if len(rows) != 2 || rows[0] != " 2" || rows[1] != "x" {
		t.Fatalf("rows = %q", rows)
	}
}

func TestFitURL(t *testing.T) {
	cases := []struct {
		url   string
		limit int
		want  string
	}{
		{"https://example.com", 30, "https://example.com"},
		{"https://example.com", 12, "example.com"},
		{"https://example.com/path", 8, "https:/…"},
	}
	for _, tc := range cases {
		if got := fitURL(tc.url, tc.limit); got != tc.want {
			t.Fatalf("fitURL(%q, %d) = %q, want %q", tc.url, tc.limit, got, tc.want)
		}
	}
}

func TestDetectOSC8SupportHonoursOverride(t *testing.T) {
	t.Setenv("OSC8", "0")
	t.Setenv("TERM_PROGRAM", "WezTerm")
	if DetectOSC8Support() {
		t.Fatalf("OSC8=0 should disable detection")
	}
	t.Setenv("OSC8", "1")
	t.Setenv("TERM_PROGRAM", "")
	if !DetectOSC8Support() {
		t.Fatalf("OSC8=1 should force support")
	}
}

func TestHeadingWrapIndentation(t *testing.T) {
	src := "# This is a long header\n\n## This is an even longer header\n"
	out := renderTerminal(t, src, Config{Width: 12, Plain: true}, false)
	want := strings.Join([]string{
		"# This is a",
		"  long",
		"  header",
		"",
		"## This is",
		"   an even",
		"   longer",
		"   header",
	}, "\n") + "\n"
	if out != want {
		t.Fatalf("heading wrap mismatch\n---want---\n%s\n---got---\n%s", want, out)
	}
}

func TestWrappedBulletIndentation(t *testing.T) {
	src := strings.Join([]string{
		"- Inputs:",
		"",
		"  - If a user-facing function or interface method takes more than 4",
		"    parameters total (including context.Context), move non-ctx inputs into",
		"    a request struct (e.g. FooRequest).",
	}, "\n")
	out := renderTerminal(t, src, Config{Width: 60, Plain: true}, false)
	var got []string
	for _, line := range strings.Split(out, "\n") {
		if line = strings.TrimRight(line, " "); line != "" {
			got = append(got, line)
		}
	}
	want := []string{
		"• Inputs:",
		"  ◦ If a user-facing function or interface method takes more",
		"    than 4 parameters total (including context.Context),",
		"    move non-ctx inputs into a request struct (e.g.",
		"    FooRequest).",
	}
	if strings.Join(got, "\n") != strings.Join(want, "\n") {
		t.Fatalf("bullet wrap mismatch\n---want---\n%s\n---got---\n%s", strings.Join(want, "\n"), strings.Join(got, "\n"))
	}
}

func BenchmarkRenderWidths(b *testing.B) {
	src := strings.Repeat("## Section\n\nParagraph with *emphasis*, `code` and a [link](https://example.com) that wraps.\n\n"+
		"- item one\n- item two\n\n| a | b |\n|---|---|\n| 1 | 2 |\n\n", 20)
	doc, err := mdpdf.ParseReader(strings.NewReader(src))
	if err != nil {
		b.Fatalf("parse: %v", err)
	}
	for _, width := range []int{50, 60, 80} {
		b.Run("w"+strconv.Itoa(width), func(b *testing.B) {
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				var out bytes.Buffer
				if err := Render(context.Background(), RenderRequest{Document: doc, Writer: &out, Config: Config{Width: width}}); err != nil {
					b.Fatalf("render: %v", err)
				}
			}
		})
	}
}
