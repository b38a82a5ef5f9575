package ansi

import (
	"strings"

	rfansi "github.com/muesli/reflow/ansi"
	"github.com/muesli/reflow/padding"
	"github.com/muesli/reflow/truncate"

	"pkt.systems/mdpdf/layout"
)

type tableState struct {
	box   layout.Box
	rows  []tableRow
	depth int
	cell  bool
}

type tableRow struct {
	header bool
	cells  []tableCell
}

type tableCell struct {
	align layout.Align
	items []item
}

func (t *tableState) begin(box layout.Box) {
	t.depth++
	switch box.Role {
	case layout.RoleTableRow:
		t.rows = append(t.rows, tableRow{header: box.Header})
	case layout.RoleTableCell:
		if len(t.rows) == 0 {
			t.rows = append(t.rows, tableRow{})
		}
		row := &t.rows[len(t.rows)-1]
		row.cells = append(row.cells, tableCell{align: box.Align})
		t.cell = true
	}
}

func (t *tableState) end() {
	t.depth--
	t.cell = false
}

func (t *tableState) add(items ...item) {
	if !t.cell || len(t.rows) == 0 {
		return
	}
	row := &t.rows[len(t.rows)-1]
	c := &row.cells[len(row.cells)-1]
	for _, it := range items {
		if it.kind == itemBreak {
			it = textItem(itemSpace, " ", it.style, "")
		}
		c.items = append(c.items, it)
	}
}

// fitColumns shrinks the widest columns until the table fits avail.
func fitColumns(widths []int, avail int) []int {
	out := append([]int(nil), widths...)
	total := 0
	for _, w := range out {
		total += w
	}
	for total > avail {
		widest := 0
		for i, w := range out {
			if w > out[widest] {
				widest = i
			}
		}
		if out[widest] <= 3 {
			break
		}
		out[widest]--
		total--
	}
	return out
}

// drawTable prints the collected table with box-drawing borders. Cells are
// single lines; content wider than its column is cut with an ellipsis.
func (e *Engine) drawTable(t *tableState) {
	cols := 0
	for _, r := range t.rows {
		cols = max(cols, len(r.cells))
	}
	if cols == 0 {
		return
	}
	widths := make([]int, cols)
	for _, r := range t.rows {
		for i, c := range r.cells {
			widths[i] = max(widths[i], itemsWidth(trimSpaces(c.items)), 1)
		}
	}
	// Borders take one column plus one space of padding on each side per cell.
	widths = fitColumns(widths, e.avail()-(3*cols+1))
	border := colorStyle(t.box.RuleColor)
	rule := func(left, mid, right string) {
		parts := make([]string, cols)
		for i, w := range widths {
			parts[i] = strings.Repeat("─", w+2)
		}
		e.emitLine(e.styled(left+strings.Join(parts, mid)+right, border))
	}
	bar := e.styled("│", border)

	rule("┌", "┬", "┐")
	for ri, r := range t.rows {
		var b strings.Builder
		b.WriteString(bar)
		for i, w := range widths {
			var cell tableCell
			if i < len(r.cells) {
				cell = r.cells[i]
			}
			text := e.renderItems(trimSpaces(cell.items), false)
			if rfansi.PrintableRuneWidth(text) > w {
				text = truncate.StringWithTail(text, uint(w), "…")
				if !e.cfg.Plain {
					text += sgrReset
				}
			}
			lead := alignPad(cell.align, rfansi.PrintableRuneWidth(text), w)
			b.WriteString(" " + lead + padding.String(text, uint(w-len(lead))) + " ")
			b.WriteString(bar)
		}
		e.emitLine(b.String())
		if r.header && ri+1 < len(t.rows) {
			rule("├", "┼", "┤")
		}
	}
	rule("└", "┴", "┘")
}
