package pdf

import (
	"math"

	"pkt.systems/mdpdf/layout"
)

// tableState collects a table until its End so column widths can be
// computed from every row.
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
	c.items = append(c.items, items...)
}

// columnWidths shares avail between columns in proportion to their natural
// width, never going below the widest word of a column while that fits.
func columnWidths(rows []tableRow, avail, pad float64) []float64 {
	cols := 0
	for _, r := range rows {
		cols = max(cols, len(r.cells))
	}
	if cols == 0 {
		return nil
	}
	natural := make([]float64, cols)
	minimum := make([]float64, cols)
	for _, r := range rows {
		for i, c := range r.cells {
			natural[i] = max(natural[i], lineItemsWidth(c.items)+2*pad)
			q := c.items
			for len(q) > 0 {
				if n := wordLen(q); n > 0 {
					minimum[i] = max(minimum[i], lineItemsWidth(q[:n])+2*pad)
					q = q[n:]
					continue
				}
				q = q[1:]
			}
		}
	}
	var total, minTotal float64
	for i := range natural {
		natural[i] = max(natural[i], 2*pad+1)
		total += natural[i]
		minTotal += minimum[i]
	}
	widths := make([]float64, cols)
	if minTotal > 0 && minTotal <= avail && total > avail {
		spare := avail - minTotal
		var extra float64
		for i := range natural {
			extra += natural[i] - minimum[i]
		}
		for i := range widths {
			widths[i] = minimum[i]
			if extra > 0 {
				widths[i] += spare * (natural[i] - minimum[i]) / extra
			}
		}
		return widths
	}
	for i := range widths {
		widths[i] = avail * natural[i] / total
	}
	return widths
}

func (e *Engine) drawTable(f *frame, t *tableState) {
	em := e.em()
	pad := cellPadding * em
	widths := columnWidths(t.rows, e.lineWidth(f), pad)
	if len(widths) == 0 {
		return
	}
	border := e.rgb(t.box.RuleColor, t.box.Rule)
	for _, row := range t.rows {
		lines := make([][][]item, len(widths))
		rowH := 0.0
		for i := range widths {
			var cell tableCell
			if i < len(row.cells) {
				cell = row.cells[i]
			}
			q := cell.items
			h := 0.0
			for len(q) > 0 {
				var line []item
				line, q = nextLine(e, q, widths[i]-2*pad)
				lines[i] = append(lines[i], line)
				asc, desc := e.lineMetrics(line)
				h += asc + desc
			}
			if h == 0 {
				asc, desc := e.lineMetrics(nil)
				h = asc + desc
			}
			rowH = math.Max(rowH, h+2*pad)
		}
		e.ensureSpace(rowH)
		e.markStarted()
		x := f.left
		for i, w := range widths {
			if row.header && !e.cfg.IgnoreColors {
				e.pdf.SetFillColor(tint(border[0]), tint(border[1]), tint(border[2]))
				e.pdf.Rect(x, e.y, w, rowH, "F")
			}
			if t.box.Rule {
				e.pdf.SetDrawColor(border[0], border[1], border[2])
				e.pdf.SetLineWidth(0.5)
				e.pdf.Rect(x, e.y, w, rowH, "D")
			}
			align := layout.AlignStart
			if i < len(row.cells) {
				align = row.cells[i].align
			}
			y := e.y + pad
			for _, line := range lines[i] {
				asc, desc := e.lineMetrics(line)
				lx := x + pad
				free := w - 2*pad - lineItemsWidth(line)
				switch align {
				case layout.AlignCenter:
					lx += math.Max(0, free/2)
				case layout.AlignEnd:
					lx += math.Max(0, free)
				}
				e.drawItems(line, lx, y+asc)
				y += asc + desc
			}
			x += w
		}
		e.y += rowH
	}
}

// tint lightens a colour component towards white for header shading.
func tint(c int) int {
	return 255 - (255-c)/4
}
