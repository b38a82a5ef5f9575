package ast

import "strings"

// Visitor is called for every node in pre-order. Returning false skips the
// node's children.
type Visitor struct {
	Block  func(Block) bool
	Inline func(Inline) bool
}

// Walk visits blocks and their inlines depth-first in document order.
func Walk(blocks []Block, v Visitor) {
	for _, b := range blocks {
		walkBlock(b, v)
	}
}

func walkBlock(b Block, v Visitor) {
	if v.Block != nil && !v.Block(b) {
		return
	}
	switch n := b.(type) {
	case *Heading:
		walkInlines(n.Inlines, v)
	case *Paragraph:
		walkInlines(n.Inlines, v)
	case *List:
		for _, item := range n.Items {
			Walk(item, v)
		}
	case *Table:
		for _, cell := range n.Header {
			walkInlines(cell, v)
		}
		for _, row := range n.Rows {
			for _, cell := range row {
				walkInlines(cell, v)
			}
		}
	case *BlockQuote:
		Walk(n.Children, v)
	case *CodeBlock, *BlockEquation, *ThematicBreak:
	}
}

func walkInlines(inlines []Inline, v Visitor) {
	if v.Inline == nil {
		return
	}
	for _, in := range inlines {
		if !v.Inline(in) {
			continue
		}
		switch n := in.(type) {
		case *Emphasis:
			walkInlines(n.Children, v)
		case *Strong:
			walkInlines(n.Children, v)
		case *Link:
			walkInlines(n.Children, v)
		}
	}
}

// ImageSources returns the distinct image sources referenced by the document
// in order of first appearance.
func ImageSources(doc *Document) []string {
	if doc == nil {
		return nil
	}
	seen := make(map[string]struct{})
	var out []string
	Walk(doc.Blocks, Visitor{
		Inline: func(in Inline) bool {
			img, ok := in.(*Image)
			if !ok || img.Source == "" {
				return true
			}
			if _, dup := seen[img.Source]; !dup {
				seen[img.Source] = struct{}{}
				out = append(out, img.Source)
			}
			return true
		},
	})
	return out
}

// PlainText flattens inlines to their textual content. Images contribute
// their alt text and equations their source.
func PlainText(inlines []Inline) string {
	var b strings.Builder
	writePlain(&b, inlines)
	return b.String()
}

func writePlain(b *strings.Builder, inlines []Inline) {
	for _, in := range inlines {
		switch n := in.(type) {
		case *Text:
			b.WriteString(n.Value)
		case *Emphasis:
			writePlain(b, n.Children)
		case *Strong:
			writePlain(b, n.Children)
		case *Link:
			writePlain(b, n.Children)
		case *Code:
			b.WriteString(n.Value)
		case *Image:
			b.WriteString(n.Alt)
		case *InlineEquation:
			b.WriteString(n.Source)
		case *LineBreak:
			b.WriteByte(' ')
		}
	}
}
