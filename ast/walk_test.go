package ast

import (
	"reflect"
	"testing"
)

func TestImageSourcesDistinctInOrder(t *testing.T) {
	doc := &Document{Blocks: []Block{
		&Paragraph{Inlines: []Inline{
			&Image{Source: "https://example.com/a.png", Alt: "a"},
			&Text{Value: " and "},
			&Link{Target: "https://example.com", Children: []Inline{
				&Image{Source: "https://example.com/b.png"},
			}},
		}},
		&List{Items: [][]Block{
			{&Paragraph{Inlines: []Inline{&Image{Source: "https://example.com/a.png"}}}},
		}},
		&Table{
			Header: Row{{&Text{Value: "h"}}},
			Rows:   []Row{{{&Strong{Children: []Inline{&Image{Source: "c.png"}}}}}},
		},
		&BlockQuote{Children: []Block{
			&Heading{Level: 2, Inlines: []Inline{&Image{Source: "d.png"}}},
		}},
	}}
	got := ImageSources(doc)
	want := []string{"https://example.com/a.png", "https://example.com/b.png", "c.png", "d.png"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("ImageSources = %q, want %q", got, want)
	}
}

func TestImageSourcesNilDocument(t *testing.T) {
	if got := ImageSources(nil); got != nil {
		t.Fatalf("expected nil sources, got %q", got)
	}
}

func TestPlainText(t *testing.T) {
	inlines := []Inline{
		&Text{Value: "a "},
		&Strong{Children: []Inline{&Emphasis{Children: []Inline{&Text{Value: "b"}}}}},
		&LineBreak{},
		&Code{Value: "c()"},
		&Text{Value: " "},
		&InlineEquation{Source: "x^2"},
		&Image{Alt: "img"},
	}
	if got := PlainText(inlines); got != "a b c() x^2img" {
		t.Fatalf("PlainText = %q", got)
	}
}

func TestKindString(t *testing.T) {
	if KindBlockEquation.String() != "BlockEquation" {
		t.Fatalf("unexpected kind name %q", KindBlockEquation.String())
	}
	if Kind(200).String() != "Unknown" {
		t.Fatalf("expected Unknown for out of range kind")
	}
	var b Block = &ThematicBreak{}
	if b.Kind() != KindThematicBreak {
		t.Fatalf("unexpected kind %v", b.Kind())
	}
}
