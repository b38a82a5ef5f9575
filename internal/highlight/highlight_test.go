package highlight

import (
	"strings"
	"testing"
)

func TestHighlightGoPreservesText(t *testing.T) {
	code := "package main\n\nfunc main() {\n\tprintln(\"hi\")\n}"
	spans, ok := New("").Highlight("go", code)
	if !ok {
		t.Fatalf("expected go to be highlighted")
	}
	var b strings.Builder
	coloured := false
	for _, s := range spans {
		b.WriteString(s.Text)
		if s.Colour {
			coloured = true
		}
		if !s.Style.Mono {
			t.Fatalf("code spans must be monospace: %+v", s)
		}
	}
	if b.String() != code {
		t.Fatalf("spans do not reproduce the code:\n got %q\nwant %q", b.String(), code)
	}
	if !coloured {
		t.Fatalf("expected at least one coloured span")
	}
}

func TestHighlightUnknownLanguage(t *testing.T) {
	if _, ok := New("").Highlight("definitely-not-a-language", "x"); ok {
		t.Fatalf("unknown language should not highlight")
	}
	if _, ok := New("").Highlight("", "x"); ok {
		t.Fatalf("empty language should not highlight")
	}
	if Known("") || !Known("python") {
		t.Fatalf("unexpected Known results")
	}
}
