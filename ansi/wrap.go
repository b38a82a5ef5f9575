package ansi

import (
	"strings"
	"unicode/utf8"

	rfansi "github.com/muesli/reflow/ansi"

	"pkt.systems/mdpdf/layout"
)

type itemKind uint8

const (
	itemText itemKind = iota
	itemSpace
	itemBreak
)

// item is a word fragment, a space or a forced break. Consecutive text
// items form one unbreakable word.
type item struct {
	kind  itemKind
	text  string
	style layout.TextStyle
	link  string
	width int
}

func textItem(kind itemKind, text string, st layout.TextStyle, link string) item {
	return item{kind: kind, text: text, style: st, link: link, width: rfansi.PrintableRuneWidth(text)}
}

// splitRun turns a run into items. Preserved text keeps its whitespace and
// breaks only at newlines.
func splitRun(run layout.TextRun, preserve bool) []item {
	var out []item
	for i, part := range strings.Split(run.Text, "\n") {
		if i > 0 {
			out = append(out, item{kind: itemBreak})
		}
		if preserve {
			part = strings.ReplaceAll(part, "\t", "    ")
			if part != "" {
				out = append(out, textItem(itemText, part, run.Style, run.Link))
			}
			continue
		}
		start := -1
		space := false
		for j, r := range part {
			if r == ' ' || r == '\t' {
				if start >= 0 {
					out = append(out, textItem(itemText, part[start:j], run.Style, run.Link))
					start = -1
				}
				if !space {
					out = append(out, textItem(itemSpace, " ", run.Style, run.Link))
				}
				space = true
				continue
			}
			space = false
			if start < 0 {
				start = j
			}
		}
		if start >= 0 {
			out = append(out, textItem(itemText, part[start:], run.Style, run.Link))
		}
	}
	return out
}

func itemsWidth(line []item) int {
	w := 0
	for _, it := range line {
		w += it.width
	}
	return w
}

func wordLen(q []item) int {
	n := 0
	for n < len(q) && q[n].kind == itemText {
		n++
	}
	return n
}

// nextLine takes the next line of at most avail columns from q.
func nextLine(q []item, avail int) ([]item, []item) {
	var line []item
	width := 0
	content := false
	for len(q) > 0 {
		it := q[0]
		switch it.kind {
		case itemBreak:
			return trimSpaces(line), q[1:]
		case itemSpace:
			q = q[1:]
			if content {
				line = append(line, it)
				width += it.width
			}
			continue
		}
		n := wordLen(q)
		ww := itemsWidth(q[:n])
		if content && width+ww > avail {
			break
		}
		if ww > avail-width {
			head, rest := splitWord(q[:n], avail-width)
			line = append(line, head...)
			return trimSpaces(line), append(rest, q[n:]...)
		}
		line = append(line, q[:n]...)
		width += ww
		content = true
		q = q[n:]
	}
	return trimSpaces(line), q
}

func trimSpaces(line []item) []item {
	for len(line) > 0 && line[len(line)-1].kind == itemSpace {
		line = line[:len(line)-1]
	}
	return line
}

// splitWord breaks an overlong word. A bare URL is shortened with fitURL
// instead so it stays one clickable piece.
func splitWord(word []item, avail int) ([]item, []item) {
	if avail < 1 {
		avail = 1
	}
	if len(word) == 1 && word[0].link != "" && strings.HasSuffix(word[0].link, word[0].text) {
		it := word[0]
		it.text = fitURL(it.text, avail)
		it.width = rfansi.PrintableRuneWidth(it.text)
		return []item{it}, nil
	}
	var head []item
	used := 0
	for i, it := range word {
		if used+it.width <= avail {
			head = append(head, it)
			used += it.width
			continue
		}
		w := used
		cut := 0
		for j, r := range it.text {
			rw := rfansi.PrintableRuneWidth(string(r))
			if w+rw > avail && (cut > 0 || len(head) > 0) {
				break
			}
			w += rw
			cut = j + utf8.RuneLen(r)
		}
		rest := append([]item(nil), word[i+1:]...)
		if cut > 0 {
			head = append(head, textItem(itemText, it.text[:cut], it.style, it.link))
		}
		if cut < len(it.text) {
			rest = append([]item{textItem(itemText, it.text[cut:], it.style, it.link)}, rest...)
		}
		return head, rest
	}
	return head, nil
}

func truncateWithEllipsis(text string, limit int) string {
	if rfansi.PrintableRuneWidth(text) <= limit {
		return text
	}
	if limit <= 0 {
		return ""
	}
	if limit == 1 {
		return "…"
	}
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit-1]) + "…"
}

func fitURL(url string, limit int) string {
	if rfansi.PrintableRuneWidth(url) <= limit {
		return url
	}
	if idx := strings.Index(url, "://"); idx != -1 {
		trimmed := url[idx+3:]
		if rfansi.PrintableRuneWidth(trimmed) <= limit {
			return trimmed
		}
	}
	return truncateWithEllipsis(url, limit)
}
