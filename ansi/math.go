package ansi

import (
	"math"
	"sort"
	"strings"

	"pkt.systems/mdpdf/layout"
)

const (
	// cellEm is the assumed advance of one terminal column in em.
	cellEm = 0.5
	// rowEm is the vertical distance, in em, that starts a new text row.
	rowEm = 0.3
)

// regionRows draws a typeset region on a character grid: runs on the same
// baseline share a row and horizontal rules become box-drawing lines.
// Sloped lines are dropped.
func regionRows(r layout.Region) []string {
	grid := map[int][]rune{}
	put := func(row, col int, rs []rune) {
		line := grid[row]
		for len(line) < col+len(rs) {
			line = append(line, ' ')
		}
		copy(line[col:], rs)
		grid[row] = line
	}
	runs := append([]layout.PlacedRun(nil), r.Runs...)
	sort.SliceStable(runs, func(i, j int) bool { return runs[i].X < runs[j].X })
	cursor := map[int]int{}
	for _, run := range runs {
		row := int(math.Round(run.Y / rowEm))
		col := max(int(math.Round(run.X/cellEm)), cursor[row])
		rs := []rune(run.Run.Text)
		put(row, col, rs)
		cursor[row] = col + len(rs)
	}
	for _, l := range r.Lines {
		if math.Abs(l.Y1-l.Y2) > 0.01 {
			continue
		}
		row := int(math.Round(l.Y1 / rowEm))
		if _, taken := grid[row]; taken {
			row--
		}
		from := int(math.Round(math.Min(l.X1, l.X2) / cellEm))
		to := int(math.Round(math.Max(l.X1, l.X2) / cellEm))
		put(row, from, []rune(strings.Repeat("─", max(to-from, 1))))
	}
	keys := make([]int, 0, len(grid))
	for k := range grid {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	var out []string
	for _, k := range keys {
		if s := strings.TrimRight(string(grid[k]), " "); s != "" {
			out = append(out, s)
		}
	}
	return out
}
