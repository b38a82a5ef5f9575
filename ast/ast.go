// Package ast defines the parsed Markdown document model.
//
// Block and Inline are closed sum types: every concrete node type implements
// an unexported marker method, so consumers switch over the concrete types
// and a new node kind shows up as an unhandled case rather than a silent
// virtual-dispatch fallback. The tree is immutable once built and carries no
// parent pointers.
package ast

// Kind tags a node type.
type Kind uint8

const (
	KindHeading Kind = iota + 1
	KindParagraph
	KindList
	KindTable
	KindCodeBlock
	KindBlockEquation
	KindBlockQuote
	KindThematicBreak

	KindText
	KindEmphasis
	KindStrong
	KindCode
	KindLink
	KindImage
	KindInlineEquation
	KindLineBreak
)

var kindNames = [...]string{
	KindHeading:        "Heading",
	KindParagraph:      "Paragraph",
	KindList:           "List",
	KindTable:          "Table",
	KindCodeBlock:      "CodeBlock",
	KindBlockEquation:  "BlockEquation",
	KindBlockQuote:     "BlockQuote",
	KindThematicBreak:  "ThematicBreak",
	KindText:           "Text",
	KindEmphasis:       "Emphasis",
	KindStrong:         "Strong",
	KindCode:           "Code",
	KindLink:           "Link",
	KindImage:          "Image",
	KindInlineEquation: "InlineEquation",
	KindLineBreak:      "LineBreak",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) && kindNames[k] != "" {
		return kindNames[k]
	}
	return "Unknown"
}

// Document is the root of a parsed Markdown source.
type Document struct {
	Meta   Meta
	Blocks []Block
}

// Meta holds document metadata read from front matter.
type Meta struct {
	Title    string
	Author   string
	Subject  string
	Keywords []string
	Extra    map[string]any
}

// IsZero reports whether no metadata was set.
func (m Meta) IsZero() bool {
	return m.Title == "" && m.Author == "" && m.Subject == "" && len(m.Keywords) == 0 && len(m.Extra) == 0
}

// Block is a block-level node.
type Block interface {
	Kind() Kind
	block()
}

// Inline is a span-level node.
type Inline interface {
	Kind() Kind
	inline()
}

// Alignment is a table column alignment.
type Alignment uint8

const (
	AlignNone Alignment = iota
	AlignLeft
	AlignCenter
	AlignRight
)

// Row is a table row; each cell is an inline sequence.
type Row [][]Inline

// Heading is an ATX or setext heading of Level 1 to 6.
type Heading struct {
	Level   int
	Inlines []Inline
}

// Paragraph is a run of inline content.
type Paragraph struct {
	Inlines []Inline
}

// List holds items that are themselves block sequences. Start is the first
// ordinal of an ordered list.
type List struct {
	Ordered bool
	Start   int
	Items   [][]Block
}

// Table is a pipe table. Align has one entry per column.
type Table struct {
	Header Row
	Rows   []Row
	Align  []Alignment
}

// CodeBlock is raw, unparsed code. Language is empty when the fence had no
// info string.
type CodeBlock struct {
	Language string
	Text     string
}

// BlockEquation carries opaque LaTeX source.
type BlockEquation struct {
	Source string
}

// BlockQuote wraps a nested block sequence.
type BlockQuote struct {
	Children []Block
}

// ThematicBreak is a horizontal rule.
type ThematicBreak struct{}

func (*Heading) Kind() Kind       { return KindHeading }
func (*Paragraph) Kind() Kind     { return KindParagraph }
func (*List) Kind() Kind          { return KindList }
func (*Table) Kind() Kind         { return KindTable }
func (*CodeBlock) Kind() Kind     { return KindCodeBlock }
func (*BlockEquation) Kind() Kind { return KindBlockEquation }
func (*BlockQuote) Kind() Kind    { return KindBlockQuote }
func (*ThematicBreak) Kind() Kind { return KindThematicBreak }

func (*Heading) block()       {}
func (*Paragraph) block()     {}
func (*List) block()          {}
func (*Table) block()         {}
func (*CodeBlock) block()     {}
func (*BlockEquation) block() {}
func (*BlockQuote) block()    {}
func (*ThematicBreak) block() {}

// Text is literal text with escapes and entities already resolved.
type Text struct {
	Value string
}

// Emphasis is italic content.
type Emphasis struct {
	Children []Inline
}

// Strong is bold content.
type Strong struct {
	Children []Inline
}

// Code is an inline code span.
type Code struct {
	Value string
}

// Link points at Target; Title is empty when none was given.
type Link struct {
	Target   string
	Title    string
	Children []Inline
}

// Image references a source resolved through the document asset cache.
// Alt is the plain text of the label.
type Image struct {
	Source string
	Alt    string
	Title  string
}

// InlineEquation carries opaque LaTeX source.
type InlineEquation struct {
	Source string
}

// LineBreak is a soft (rendered as a space) or hard line break.
type LineBreak struct {
	Hard bool
}

func (*Text) Kind() Kind           { return KindText }
func (*Emphasis) Kind() Kind       { return KindEmphasis }
func (*Strong) Kind() Kind         { return KindStrong }
func (*Code) Kind() Kind           { return KindCode }
func (*Link) Kind() Kind           { return KindLink }
func (*Image) Kind() Kind          { return KindImage }
func (*InlineEquation) Kind() Kind { return KindInlineEquation }
func (*LineBreak) Kind() Kind      { return KindLineBreak }

func (*Text) inline()           {}
func (*Emphasis) inline()       {}
func (*Strong) inline()         {}
func (*Code) inline()           {}
func (*Link) inline()           {}
func (*Image) inline()          {}
func (*InlineEquation) inline() {}
func (*LineBreak) inline()      {}
