// Package layout defines the instruction stream exchanged between the
// Markdown renderer and a layout engine.
//
// The renderer is a pure producer: it emits styled text runs, images,
// vector regions and nested boxes in reading order. An Engine performs
// everything else (line breaking, pagination, font shaping, output). All
// lengths are expressed in em of the engine's base font size.
package layout

// Op identifies an instruction.
type Op uint8

const (
	OpText Op = iota + 1
	OpImage
	OpRegion
	OpBegin
	OpEnd
)

func (o Op) String() string {
	switch o {
	case OpText:
		return "text"
	case OpImage:
		return "image"
	case OpRegion:
		return "region"
	case OpBegin:
		return "begin"
	case OpEnd:
		return "end"
	default:
		return "unknown"
	}
}

// Color is an RGB colour.
type Color struct {
	R, G, B uint8
}

// RGB builds a Color.
func RGB(r, g, b uint8) Color { return Color{R: r, G: g, B: b} }

// TextStyle describes how a run of text is drawn.
type TextStyle struct {
	Bold      bool
	Italic    bool
	Underline bool
	Mono      bool
	// Scale multiplies the base font size; zero means 1.
	Scale         float64
	Color         Color
	HasColor      bool
	Background    Color
	HasBackground bool
	// Rise shifts the baseline up (positive) or down, in em.
	Rise float64
}

// EffectiveScale returns Scale with the zero value mapped to 1.
func (s TextStyle) EffectiveScale() float64 {
	if s.Scale <= 0 {
		return 1
	}
	return s.Scale
}

// TextRun is a styled span of text. Link, when set, makes the run a
// clickable region pointing at the target. A newline inside Text is a forced
// line break.
type TextRun struct {
	Text  string
	Style TextStyle
	Link  string
}

// PlaceholderSize is the edge length, in em, of the box drawn for an image
// that is not available.
const PlaceholderSize = 1.5

// Image places a bitmap inline. Placeholder images have no bytes and are
// drawn as a PlaceholderSize square labelled with Alt.
type Image struct {
	Source      string
	Alt         string
	MIME        string
	Bytes       []byte
	Width       int
	Height      int
	Placeholder bool
	Reason      string
}

// Role classifies a Box or a Region.
type Role uint8

const (
	RoleNone Role = iota
	RoleHeading
	RoleParagraph
	RoleList
	RoleListItem
	RoleTable
	RoleTableRow
	RoleTableCell
	RoleCode
	RoleEquation
	RoleQuote
	RoleRule
	RoleMath
	RoleDebug
)

var roleNames = [...]string{
	RoleNone:      "none",
	RoleHeading:   "heading",
	RoleParagraph: "paragraph",
	RoleList:      "list",
	RoleListItem:  "list-item",
	RoleTable:     "table",
	RoleTableRow:  "table-row",
	RoleTableCell: "table-cell",
	RoleCode:      "code",
	RoleEquation:  "equation",
	RoleQuote:     "quote",
	RoleRule:      "rule",
	RoleMath:      "math",
	RoleDebug:     "debug",
}

func (r Role) String() string {
	if int(r) < len(roleNames) {
		return roleNames[r]
	}
	return "unknown"
}

// Align is a horizontal alignment.
type Align uint8

const (
	AlignStart Align = iota
	AlignCenter
	AlignEnd
)

// Box opens a nested block container. Every Begin is matched by an End.
type Box struct {
	Role  Role
	Level int
	// Marker is drawn in the hanging indent of a list item.
	Marker string
	Indent float64
	Align  Align
	// Columns lists column alignments of a table.
	Columns []Align
	Header  bool
	// Preserve keeps whitespace and line breaks verbatim.
	Preserve      bool
	Language      string
	Background    Color
	HasBackground bool
	// Rule draws a vertical bar on the left edge (block quotes).
	Rule      bool
	RuleColor Color
	// Label and Outline are used by diagnostic boxes.
	Label   string
	Outline Color
}

// Line is a straight segment inside a Region, in em relative to the
// region's top-left corner.
type Line struct {
	X1, Y1, X2, Y2 float64
	Width          float64
}

// PlacedRun is a text run positioned inside a Region. Y is the baseline
// offset from the region's top edge.
type PlacedRun struct {
	X, Y float64
	Run  TextRun
}

// Region is a self-contained vector area such as a typeset equation or a
// horizontal rule. A zero Width means the full available width.
type Region struct {
	Role     Role
	Width    float64
	Height   float64
	Baseline float64
	Runs     []PlacedRun
	Lines    []Line
	Color    Color
	Source   string
}

// Instruction is one element of the layout stream. Annotation marks
// diagnostic instructions that carry no document content.
type Instruction struct {
	Op         Op
	Run        TextRun
	Image      Image
	Region     Region
	Box        Box
	Annotation bool
}

// Content returns the instructions without diagnostic annotations.
func Content(instrs []Instruction) []Instruction {
	out := make([]Instruction, 0, len(instrs))
	for _, in := range instrs {
		if in.Annotation {
			continue
		}
		out = append(out, in)
	}
	return out
}
