package mdpdf

import (
	"strings"

	"pkt.systems/mdpdf/ast"
)

// parseTable recognizes a pipe table at the start of lines: a header row, a
// separator row and data rows up to the first blank line or block start. The
// column count comes from the separator; rows are padded with empty cells or
// truncated to it.
func parseTable(lines []string) (*ast.Table, int, bool) {
	if len(lines) < 2 {
		return nil, 0, false
	}
	header := splitTableRow(lines[0])
	align, ok := parseTableSeparator(lines[1])
	if !ok || len(header) != len(align) {
		return nil, 0, false
	}
	cols := len(align)
	table := &ast.Table{
		Header: tableRow(header, cols),
		Align:  align,
	}
	consumed := 2
	for consumed < len(lines) {
		line := lines[consumed]
		if isBlankLine(line) {
			break
		}
		trimmed := strings.TrimLeft(line, " ")
		if leadingIndent(line) < 4 && startsBlock(trimmed) {
			break
		}
		table.Rows = append(table.Rows, tableRow(splitTableRow(line), cols))
		consumed++
	}
	return table, consumed, true
}

func tableRow(cells []string, cols int) ast.Row {
	row := make(ast.Row, cols)
	for i := 0; i < cols; i++ {
		if i < len(cells) {
			row[i] = ParseInline(cells[i])
		} else {
			row[i] = []ast.Inline{}
		}
	}
	return row
}

func parseTableSeparator(line string) ([]ast.Alignment, bool) {
	if !strings.Contains(line, "-") {
		return nil, false
	}
	cells := splitTableRow(line)
	if len(cells) == 0 {
		return nil, false
	}
	if !strings.Contains(line, "|") && len(cells) == 1 {
		// A bare "---" is a setext underline or a rule, not a separator.
		return nil, false
	}
	align := make([]ast.Alignment, len(cells))
	for i, cell := range cells {
		left := strings.HasPrefix(cell, ":")
		right := strings.HasSuffix(cell, ":")
		dashes := strings.TrimSuffix(strings.TrimPrefix(cell, ":"), ":")
		if dashes == "" || strings.Trim(dashes, "-") != "" {
			return nil, false
		}
		switch {
		case left && right:
			align[i] = ast.AlignCenter
		case left:
			align[i] = ast.AlignLeft
		case right:
			align[i] = ast.AlignRight
		default:
			align[i] = ast.AlignNone
		}
	}
	return align, true
}

// splitTableRow splits a row on unescaped pipes outside code spans. One
// leading and one trailing pipe are optional. Escaped pipes stay escaped so
// the inline parser turns them into literal text.
func splitTableRow(line string) []string {
	s := strings.TrimSpace(line)
	s = strings.TrimPrefix(s, "|")
	if strings.HasSuffix(s, "|") && !strings.HasSuffix(s, "\\|") {
		s = s[:len(s)-1]
	}
	var cells []string
	runs := indexBacktickRuns(s)
	start := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '\\':
			i++
		case '`':
			n := runLength(s, i, '`')
			if close := runs.next(i+n, n, len(s)); close >= 0 {
				i = close + n - 1
			} else {
				i += n - 1
			}
		case '|':
			cells = append(cells, strings.TrimSpace(s[start:i]))
			start = i + 1
		}
	}
	cells = append(cells, strings.TrimSpace(s[start:]))
	return cells
}
