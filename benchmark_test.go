package mdpdf

import (
	"strconv"
	"strings"
	"testing"
)

// sampleMarkdown returns a document mixing every block type, repeated
// sections times.
func sampleMarkdown(sections int) string {
	section := strings.Join([]string{
		"## Section",
		"",
		"Paragraph with *emphasis*, **strong** text, `code`, a [link](https://example.com)",
		"and inline math $a^2 + b^2 = c^2$ that wraps over several lines of prose.",
		"",
		"- first item",
		"- second item with **bold**",
		"  1. nested ordered",
		"  2. nested again",
		"",
		"> Quoted text with an ![image](https://example.com/i.png) inside.",
		"",
		"| Name | Value |",
		"|:-----|------:|",
		"| alpha | 1 |",
		"| beta | 22 |",
		"",
		"```go",
		"func main() {",
		"\tfmt.Println(\"hello\")",
		"}",
		"```",
		"",
		"$$",
		"\\frac{1}{\\sqrt{x}} + \\sum_{i=0}^{n} x_i",
		"$$",
		"",
		"---",
		"",
	}, "\n")
	return "# Benchmark\n\n" + strings.Repeat(section, sections)
}

func BenchmarkParse(b *testing.B) {
	for _, n := range []int{1, 10, 100} {
		src := sampleMarkdown(n)
		b.Run(strconv.Itoa(n)+"sections", func(b *testing.B) {
			b.ReportAllocs()
			b.SetBytes(int64(len(src)))
			for i := 0; i < b.N; i++ {
				_ = Parse(src)
			}
		})
	}
}

func BenchmarkRender(b *testing.B) {
	doc := Parse(sampleMarkdown(10))
	opts := NewRenderOptions()
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = Render(doc, opts)
	}
}

func BenchmarkValidateInput(b *testing.B) {
	src := []byte(sampleMarkdown(100))
	b.ReportAllocs()
	b.SetBytes(int64(len(src)))
	for i := 0; i < b.N; i++ {
		if err := ValidateInput(src); err != nil {
			b.Fatalf("validate: %v", err)
		}
	}
}

func BenchmarkParseRepeatedOpeners(b *testing.B) {
	for _, unit := range []string{"$a ", "[", "*a* "} {
		src := strings.Repeat(unit, (256<<10)/len(unit))
		b.Run(strings.TrimSpace(unit), func(b *testing.B) {
			b.SetBytes(int64(len(src)))
			for i := 0; i < b.N; i++ {
				_ = Parse(src)
			}
		})
	}
}
