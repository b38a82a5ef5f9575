package mdpdf

import (
	"strings"

	"pkt.systems/mdpdf/ast"
)

const tabWidth = 4

// parseBlocks is the line-oriented block scanner. Container blocks (quotes
// and list items) collect their own lines, strip their prefix and recurse.
func parseBlocks(lines []string) []ast.Block {
	p := &blockParser{lines: lines}
	p.run()
	return p.blocks
}

type blockParser struct {
	lines  []string
	pos    int
	blocks []ast.Block
	para   []string
}

// listState describes the list item currently collecting lines.
type listState struct {
	indent        int
	contentIndent int
	ordered       bool
	marker        byte
}

func (p *blockParser) emit(b ast.Block) {
	p.blocks = append(p.blocks, b)
}

func (p *blockParser) run() {
	for p.pos < len(p.lines) {
		line := p.lines[p.pos]
		if isBlankLine(line) {
			p.flushParagraph()
			p.pos++
			continue
		}
		indent := leadingIndent(line)
		trimmed := line[indent:]

		if len(p.para) > 0 && indent < 4 {
			if level := setextLevel(trimmed); level > 0 {
				p.emitSetext(level)
				p.pos++
				continue
			}
		}
		if indent >= 4 {
			if len(p.para) > 0 {
				p.para = append(p.para, trimmed)
				p.pos++
				continue
			}
			p.parseIndentedCode()
			continue
		}
		if char, n, info, ok := parseFenceOpen(trimmed); ok {
			p.flushParagraph()
			p.parseFencedCode(indent, char, n, info)
			continue
		}
		if strings.HasPrefix(trimmed, "$$") && p.parseMathFence(trimmed) {
			continue
		}
		if level, content, ok := parseHeading(trimmed); ok {
			p.flushParagraph()
			p.emit(&ast.Heading{Level: level, Inlines: ParseInline(content)})
			p.pos++
			continue
		}
		if isThematicBreak(trimmed) {
			p.flushParagraph()
			p.emit(&ast.ThematicBreak{})
			p.pos++
			continue
		}
		if strings.HasPrefix(trimmed, ">") {
			p.flushParagraph()
			p.parseBlockQuote()
			continue
		}
		if m, ok := parseListMarker(trimmed); ok && (len(p.para) == 0 || m.canInterruptParagraph()) {
			p.flushParagraph()
			p.parseList(indent, m)
			continue
		}
		if strings.Contains(trimmed, "|") && p.pos+1 < len(p.lines) {
			if table, consumed, ok := parseTable(p.lines[p.pos:]); ok {
				p.flushParagraph()
				p.emit(table)
				p.pos += consumed
				continue
			}
		}
		p.para = append(p.para, trimmed)
		p.pos++
	}
	p.flushParagraph()
}

func (p *blockParser) emitSetext(level int) {
	text := strings.TrimSpace(strings.Join(p.para, "\n"))
	p.para = p.para[:0]
	p.emit(&ast.Heading{Level: level, Inlines: ParseInline(text)})
}

// flushParagraph closes the open paragraph. Display math inside it splits
// the paragraph: the equation becomes a block between the text fragments.
func (p *blockParser) flushParagraph() {
	if len(p.para) == 0 {
		return
	}
	last := len(p.para) - 1
	p.para[last] = strings.TrimRight(p.para[last], " \t")
	text := strings.Join(p.para, "\n")
	p.para = p.para[:0]

	segs := SplitMath(text)
	fragStart := 0
	for _, seg := range segs {
		if seg.Kind != MathBlock {
			continue
		}
		p.emitFragment(text[fragStart:seg.Start])
		p.emit(&ast.BlockEquation{Source: seg.Text})
		fragStart = seg.End
	}
	p.emitFragment(text[fragStart:])
}

func (p *blockParser) emitFragment(text string) {
	if strings.TrimSpace(text) == "" {
		return
	}
	p.emit(&ast.Paragraph{Inlines: ParseInline(text)})
}

func (p *blockParser) parseIndentedCode() {
	var body []string
	for p.pos < len(p.lines) {
		line := p.lines[p.pos]
		if isBlankLine(line) {
			body = append(body, "")
			p.pos++
			continue
		}
		if leadingIndent(line) < 4 {
			break
		}
		body = append(body, line[4:])
		p.pos++
	}
	body = trimTrailingBlank(body)
	p.emit(&ast.CodeBlock{Text: strings.Join(body, "\n")})
}

// parseFencedCode captures raw lines until a closing fence of the same
// character that is at least as long as the opener. End of input closes the
// block implicitly.
func (p *blockParser) parseFencedCode(indent int, char byte, n int, info string) {
	p.pos++
	var body []string
	for p.pos < len(p.lines) {
		line := p.lines[p.pos]
		p.pos++
		lineIndent := leadingIndent(line)
		if lineIndent < 4 && isClosingFence(line[lineIndent:], char, n) {
			break
		}
		body = append(body, trimIndent(line, indent))
	}
	lang := ""
	if fields := strings.Fields(info); len(fields) > 0 {
		lang = fields[0]
	}
	p.emit(&ast.CodeBlock{Language: lang, Text: strings.Join(body, "\n")})
}

// parseMathFence handles lines opening with `$$`. It reports false when the
// line is paragraph text that merely starts with display math, such as
// "$$a$$ continues here". Fences with an empty body stay paragraph text.
func (p *blockParser) parseMathFence(trimmed string) bool {
	rest := strings.TrimSpace(trimmed)
	inner := rest[2:]
	close := strings.Index(inner, "$$")
	switch {
	case close >= 0 && close == len(inner)-2:
		src := strings.TrimSpace(inner[:close])
		if src == "" {
			return false
		}
		p.flushParagraph()
		p.emit(&ast.BlockEquation{Source: src})
		p.pos++
		return true
	case close >= 0:
		return false
	}

	var body []string
	if first := strings.TrimSpace(inner); first != "" {
		body = append(body, first)
	}
	next := p.pos + 1
	for next < len(p.lines) {
		line := strings.TrimSpace(p.lines[next])
		next++
		if strings.HasSuffix(line, "$$") {
			if head := strings.TrimSpace(strings.TrimSuffix(line, "$$")); head != "" {
				body = append(body, head)
			}
			break
		}
		body = append(body, line)
	}
	src := strings.TrimSpace(strings.Join(body, "\n"))
	if src == "" {
		for ; p.pos < next && !isBlankLine(p.lines[p.pos]); p.pos++ {
			p.para = append(p.para, strings.TrimSpace(p.lines[p.pos]))
		}
		return true
	}
	p.flushParagraph()
	p.pos = next
	p.emit(&ast.BlockEquation{Source: src})
	return true
}

// parseBlockQuote collects `>` lines plus lazy paragraph continuations and
// parses the stripped content as a nested document.
func (p *blockParser) parseBlockQuote() {
	var inner []string
	lazyOK := false
	for p.pos < len(p.lines) {
		line := p.lines[p.pos]
		if isBlankLine(line) {
			break
		}
		indent := leadingIndent(line)
		trimmed := line[indent:]
		if indent < 4 && strings.HasPrefix(trimmed, ">") {
			content := trimmed[1:]
			if strings.HasPrefix(content, " ") {
				content = content[1:]
			}
			inner = append(inner, content)
			lazyOK = !isBlankLine(content) && !startsBlock(strings.TrimLeft(content, " "))
			p.pos++
			continue
		}
		if !lazyOK || startsBlock(trimmed) {
			break
		}
		inner = append(inner, trimmed)
		p.pos++
	}
	p.emit(&ast.BlockQuote{Children: parseBlocks(inner)})
}

// parseList consumes one list. A line indented to the content column stays
// in the current item; a marker of the same type below that column starts a
// sibling; anything else ends the list.
func (p *blockParser) parseList(indent int, first listMarker) {
	list := &ast.List{Ordered: first.ordered, Start: 1}
	if first.ordered {
		list.Start = first.number
	}
	state := listState{
		indent:        indent,
		contentIndent: indent + first.width(),
		ordered:       first.ordered,
		marker:        first.char,
	}
	item := []string{first.content}
	lastBlank := false
	p.pos++

	for p.pos < len(p.lines) {
		line := p.lines[p.pos]
		if isBlankLine(line) {
			item = append(item, "")
			lastBlank = true
			p.pos++
			continue
		}
		lineIndent := leadingIndent(line)
		if lineIndent >= state.contentIndent {
			item = append(item, line[state.contentIndent:])
			lastBlank = false
			p.pos++
			continue
		}
		trimmed := line[lineIndent:]
		if isThematicBreak(trimmed) {
			break
		}
		if m, ok := parseListMarker(trimmed); ok {
			if m.ordered != state.ordered || m.char != state.marker {
				break
			}
			list.Items = append(list.Items, parseBlocks(trimTrailingBlank(item)))
			state.indent = lineIndent
			state.contentIndent = lineIndent + m.width()
			item = []string{m.content}
			lastBlank = false
			p.pos++
			continue
		}
		if lastBlank || startsBlock(trimmed) {
			break
		}
		item = append(item, trimmed)
		p.pos++
	}
	list.Items = append(list.Items, parseBlocks(trimTrailingBlank(item)))
	p.emit(list)
}

type listMarker struct {
	ordered bool
	char    byte
	number  int
	// markerLen covers the bullet or the digits plus delimiter.
	markerLen int
	padding   int
	content   string
}

func (m listMarker) width() int {
	return m.markerLen + m.padding
}

// canInterruptParagraph limits which markers may start a list directly
// below paragraph text, so that "in 1984. we" wrapped onto a new line does
// not turn into a list.
func (m listMarker) canInterruptParagraph() bool {
	if strings.TrimSpace(m.content) == "" {
		return false
	}
	return !m.ordered || m.number == 1
}

func parseListMarker(text string) (listMarker, bool) {
	if text == "" {
		return listMarker{}, false
	}
	var m listMarker
	rest := ""
	switch text[0] {
	case '-', '+', '*':
		m.char = text[0]
		m.markerLen = 1
		rest = text[1:]
	default:
		i := 0
		for i < len(text) && i < 9 && text[i] >= '0' && text[i] <= '9' {
			i++
		}
		if i == 0 || i >= len(text) || (text[i] != '.' && text[i] != ')') {
			return listMarker{}, false
		}
		for j := 0; j < i; j++ {
			m.number = m.number*10 + int(text[j]-'0')
		}
		m.ordered = true
		m.char = text[i]
		m.markerLen = i + 1
		rest = text[i+1:]
	}
	if rest == "" {
		m.padding = 1
		return m, true
	}
	if rest[0] != ' ' {
		return listMarker{}, false
	}
	spaces := 0
	for spaces < len(rest) && rest[spaces] == ' ' {
		spaces++
	}
	if spaces > 4 || spaces == len(rest) {
		// Content starting with an indented code block, or a bare marker.
		m.padding = 1
		m.content = rest[1:]
		if spaces == len(rest) {
			m.content = ""
		}
		return m, true
	}
	m.padding = spaces
	m.content = rest[spaces:]
	return m, true
}

func parseHeading(text string) (int, string, bool) {
	level := 0
	for level < len(text) && text[level] == '#' {
		level++
	}
	if level == 0 || level > 6 {
		return 0, "", false
	}
	if level < len(text) && text[level] != ' ' && text[level] != '\t' {
		return 0, "", false
	}
	content := strings.TrimSpace(text[level:])
	// Closing sequence: trailing #s preceded by a space, or the whole content.
	trimmedHashes := strings.TrimRight(content, "#")
	if trimmedHashes == "" {
		content = ""
	} else if len(trimmedHashes) < len(content) && strings.HasSuffix(trimmedHashes, " ") {
		content = strings.TrimSpace(trimmedHashes)
	}
	return level, content, true
}

func parseFenceOpen(text string) (byte, int, string, bool) {
	if len(text) < 3 || (text[0] != '`' && text[0] != '~') {
		return 0, 0, "", false
	}
	char := text[0]
	n := runLength(text, 0, char)
	if n < 3 {
		return 0, 0, "", false
	}
	info := strings.TrimSpace(text[n:])
	if char == '`' && strings.Contains(info, "`") {
		return 0, 0, "", false
	}
	return char, n, info, true
}

func isClosingFence(text string, char byte, n int) bool {
	m := runLength(text, 0, char)
	return m >= n && strings.TrimSpace(text[m:]) == ""
}

func isThematicBreak(text string) bool {
	trim := strings.TrimSpace(text)
	if len(trim) < 3 {
		return false
	}
	ch := trim[0]
	if ch != '-' && ch != '*' && ch != '_' {
		return false
	}
	count := 0
	for i := 0; i < len(trim); i++ {
		switch trim[i] {
		case ch:
			count++
		case ' ', '\t':
		default:
			return false
		}
	}
	return count >= 3
}

func setextLevel(text string) int {
	trim := strings.TrimSpace(text)
	if trim == "" {
		return 0
	}
	ch := trim[0]
	if ch != '=' && ch != '-' {
		return 0
	}
	if strings.Trim(trim, string(ch)) != "" {
		return 0
	}
	if ch == '=' {
		return 1
	}
	return 2
}

// startsBlock reports whether an unindented line opens a block other than a
// paragraph, which ends lazy continuation.
func startsBlock(trimmed string) bool {
	if trimmed == "" {
		return false
	}
	if _, _, _, ok := parseFenceOpen(trimmed); ok {
		return true
	}
	if _, _, ok := parseHeading(trimmed); ok {
		return true
	}
	if isThematicBreak(trimmed) {
		return true
	}
	if strings.HasPrefix(trimmed, ">") || strings.HasPrefix(trimmed, "$$") {
		return true
	}
	_, ok := parseListMarker(trimmed)
	return ok
}

func isBlankLine(s string) bool {
	return strings.TrimSpace(s) == ""
}

// leadingIndent counts leading spaces. Tabs are expanded before scanning.
func leadingIndent(s string) int {
	n := 0
	for n < len(s) && s[n] == ' ' {
		n++
	}
	return n
}

func trimIndent(s string, count int) string {
	i := 0
	for i < len(s) && i < count && s[i] == ' ' {
		i++
	}
	return s[i:]
}

func trimTrailingBlank(lines []string) []string {
	for len(lines) > 0 && isBlankLine(lines[len(lines)-1]) {
		lines = lines[:len(lines)-1]
	}
	return lines
}

// splitLines splits sanitized text into lines with leading tabs expanded to
// the next tab stop.
func splitLines(src string) []string {
	src = strings.TrimSuffix(src, "\n")
	if src == "" {
		return nil
	}
	lines := strings.Split(src, "\n")
	for i, line := range lines {
		if strings.IndexByte(line, '\t') >= 0 {
			lines[i] = expandLeadingTabs(line)
		}
	}
	return lines
}

func expandLeadingTabs(line string) string {
	var b strings.Builder
	col := 0
	i := 0
	for ; i < len(line); i++ {
		switch line[i] {
		case ' ':
			b.WriteByte(' ')
			col++
			continue
		case '\t':
			next := (col/tabWidth + 1) * tabWidth
			b.WriteString(strings.Repeat(" ", next-col))
			col = next
			continue
		}
		break
	}
	b.WriteString(line[i:])
	return b.String()
}
