package mdpdf

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/yuin/goldmark/util"

	"pkt.systems/mdpdf/ast"
)

const (
	maxEntityLen = 32
	// maxDestParens bounds parenthesis nesting in a link destination.
	maxDestParens = 32
)

// ParseInline parses span-level Markdown. It never fails: constructs that do
// not resolve are kept as literal text. Display math found inline becomes an
// InlineEquation.
func ParseInline(text string) []ast.Inline {
	runs := indexBacktickRuns(text)
	p := newInlineParser(text, splitMath(text, runs), runs)
	return p.parse(0, len(text))
}

type inlineParser struct {
	src   string
	math  map[int]MathSegment
	runs  backtickRuns
	links map[int]linkRef
}

func newInlineParser(src string, segs []MathSegment, runs backtickRuns) *inlineParser {
	p := &inlineParser{src: src, runs: runs}
	for _, seg := range segs {
		if seg.Kind == MathPlain {
			continue
		}
		if p.math == nil {
			p.math = make(map[int]MathSegment)
		}
		p.math[seg.Start] = seg
	}
	return p
}

// delimRun is an unresolved `*` or `_` run awaiting a partner.
type delimRun struct {
	char     byte
	count    int
	canOpen  bool
	canClose bool
}

// item is either an ast.Inline or a *delimRun.
type item any

func (p *inlineParser) parse(start, end int) []ast.Inline {
	var (
		items []item
		buf   strings.Builder
	)
	flush := func() {
		if buf.Len() > 0 {
			items = append(items, &ast.Text{Value: buf.String()})
			buf.Reset()
		}
	}
	emit := func(in ast.Inline) {
		flush()
		items = append(items, in)
	}

	i := start
	for i < end {
		if seg, ok := p.math[i]; ok && seg.End <= end {
			emit(&ast.InlineEquation{Source: seg.Text})
			i = seg.End
			continue
		}
		c := p.src[i]
		switch c {
		case '\\':
			if i+1 < end {
				next := p.src[i+1]
				if next == '\n' {
					trimTrailingSpaces(&buf)
					emit(&ast.LineBreak{Hard: true})
					i = skipLeadingSpaces(p.src, i+2, end)
					continue
				}
				if isASCIIPunct(next) {
					buf.WriteByte(next)
					i += 2
					continue
				}
			}
			buf.WriteByte(c)
			i++
		case '`':
			n := runLength(p.src[:end], i, '`')
			close := p.runs.next(i+n, n, end)
			if close < 0 {
				buf.WriteString(p.src[i : i+n])
				i += n
				continue
			}
			emit(&ast.Code{Value: normalizeCodeSpan(p.src[i+n : close])})
			i = close + n
		case '!':
			if i+1 < end && p.src[i+1] == '[' {
				if ref, ok := p.scanLink(i+1, end); ok {
					emit(&ast.Image{
						Source: ref.dest,
						Title:  ref.title,
						Alt:    ast.PlainText(p.parse(ref.labelStart, ref.labelEnd)),
					})
					i = ref.end
					continue
				}
			}
			buf.WriteByte(c)
			i++
		case '[':
			if ref, ok := p.scanLink(i, end); ok {
				emit(&ast.Link{
					Target:   ref.dest,
					Title:    ref.title,
					Children: p.parse(ref.labelStart, ref.labelEnd),
				})
				i = ref.end
				continue
			}
			buf.WriteByte(c)
			i++
		case '<':
			if target, next, ok := scanAutolink(p.src, i, end); ok {
				emit(&ast.Link{Target: target, Children: []ast.Inline{&ast.Text{Value: strings.TrimPrefix(target, "mailto:")}}})
				i = next
				continue
			}
			buf.WriteByte(c)
			i++
		case '*', '_':
			n := runLength(p.src[:end], i, c)
			d := classifyDelim(p.src, start, end, i, n, c)
			flush()
			items = append(items, d)
			i += n
		case '\n':
			hard := strings.HasSuffix(buf.String(), "  ")
			trimTrailingSpaces(&buf)
			emit(&ast.LineBreak{Hard: hard})
			i = skipLeadingSpaces(p.src, i+1, end)
		case '&':
			if resolved, next, ok := scanEntity(p.src, i, end); ok {
				buf.WriteString(resolved)
				i = next
				continue
			}
			buf.WriteByte(c)
			i++
		default:
			buf.WriteByte(c)
			i++
		}
	}
	flush()
	return finishInlines(resolveEmphasis(items))
}

func trimTrailingSpaces(b *strings.Builder) {
	s := b.String()
	trimmed := strings.TrimRight(s, " \t")
	if len(trimmed) != len(s) {
		b.Reset()
		b.WriteString(trimmed)
	}
}

func skipLeadingSpaces(s string, i, end int) int {
	for i < end && (s[i] == ' ' || s[i] == '\t') {
		i++
	}
	return i
}

func normalizeCodeSpan(s string) string {
	s = strings.ReplaceAll(s, "\n", " ")
	if len(s) >= 2 && s[0] == ' ' && s[len(s)-1] == ' ' && strings.TrimSpace(s) != "" {
		s = s[1 : len(s)-1]
	}
	return s
}

func isASCIIPunct(c byte) bool {
	return (c >= '!' && c <= '/') || (c >= ':' && c <= '@') || (c >= '[' && c <= '`') || (c >= '{' && c <= '~')
}

// classifyDelim applies the flanking rules: `*` may open or close inside a
// word, `_` may not.
func classifyDelim(s string, start, end, i, n int, c byte) *delimRun {
	before := ' '
	if i > start {
		before, _ = utf8.DecodeLastRuneInString(s[start:i])
	}
	after := ' '
	if i+n < end {
		after, _ = utf8.DecodeRuneInString(s[i+n : end])
	}
	beforeSpace := unicode.IsSpace(before)
	afterSpace := unicode.IsSpace(after)
	beforePunct := isPunctRune(before)
	afterPunct := isPunctRune(after)

	leftFlanking := !afterSpace && (!afterPunct || beforeSpace || beforePunct)
	rightFlanking := !beforeSpace && (!beforePunct || afterSpace || afterPunct)

	d := &delimRun{char: c, count: n}
	if c == '*' {
		d.canOpen = leftFlanking
		d.canClose = rightFlanking
	} else {
		d.canOpen = leftFlanking && (!rightFlanking || beforePunct)
		d.canClose = rightFlanking && (!leftFlanking || afterPunct)
	}
	return d
}

func isPunctRune(r rune) bool {
	if r < utf8.RuneSelf {
		return isASCIIPunct(byte(r))
	}
	return unicode.IsPunct(r) || unicode.IsSymbol(r)
}

// resolveEmphasis pairs delimiter runs using stack discipline: a closer
// matches the nearest open run of the same character. Runs of two or more
// on both sides produce Strong, otherwise Emphasis. Openers skipped over by
// a match stay literal.
func resolveEmphasis(items []item) []item {
	var (
		out     []item
		openers []int
		open    [2]int
	)
	for i := 0; i < len(items); {
		d, ok := items[i].(*delimRun)
		if !ok {
			out = append(out, items[i])
			i++
			continue
		}
		if d.canClose && open[delimSlot(d.char)] > 0 {
			k := len(openers) - 1
			for out[openers[k]].(*delimRun).char != d.char {
				k--
			}
			oi := openers[k]
			o := out[oi].(*delimRun)
			use := 1
			if o.count >= 2 && d.count >= 2 {
				use = 2
			}
			children := finishInlines(out[oi+1:])
			var node ast.Inline
			if use == 2 {
				node = &ast.Strong{Children: children}
			} else {
				node = &ast.Emphasis{Children: children}
			}
			o.count -= use
			d.count -= use

			keep := k
			if o.count > 0 {
				keep = k + 1
			}
			for _, oj := range openers[keep:] {
				open[delimSlot(out[oj].(*delimRun).char)]--
			}
			openers = openers[:keep]
			if o.count > 0 {
				out = out[:oi+1]
			} else {
				out = out[:oi]
			}
			out = append(out, node)
			if d.count == 0 {
				i++
			}
			continue
		}
		if d.canOpen {
			openers = append(openers, len(out))
			open[delimSlot(d.char)]++
		}
		out = append(out, d)
		i++
	}
	return out
}

func delimSlot(c byte) int {
	if c == '*' {
		return 0
	}
	return 1
}

// finishInlines turns leftover delimiter runs into text and merges adjacent
// text nodes.
func finishInlines(items []item) []ast.Inline {
	out := make([]ast.Inline, 0, len(items))
	var text strings.Builder
	flush := func() {
		if text.Len() > 0 {
			out = append(out, &ast.Text{Value: text.String()})
			text.Reset()
		}
	}
	for _, it := range items {
		switch v := it.(type) {
		case *delimRun:
			for n := 0; n < v.count; n++ {
				text.WriteByte(v.char)
			}
		case *ast.Text:
			text.WriteString(v.Value)
		case ast.Inline:
			flush()
			out = append(out, v)
		}
	}
	flush()
	return out
}

type linkRef struct {
	labelStart int
	labelEnd   int
	dest       string
	title      string
	end        int
}

// scanLink matches `[label](dest "title")` starting at the '[' at i.
func (p *inlineParser) scanLink(i, end int) (linkRef, bool) {
	if p.links == nil {
		p.indexLinks()
	}
	ref, ok := p.links[i]
	if !ok || ref.end > end {
		return linkRef{}, false
	}
	return ref, true
}

// indexLinks pairs brackets in one pass over the source, walking it the way
// parse does: code spans, math, autolinks and escapes are skipped, and so is
// the destination of every link found.
func (p *inlineParser) indexLinks() {
	p.links = make(map[int]linkRef)
	s := p.src
	var open []int
	for j := 0; j < len(s); j++ {
		if seg, ok := p.math[j]; ok {
			j = seg.End - 1
			continue
		}
		switch s[j] {
		case '\\':
			j++
		case '`':
			n := runLength(s, j, '`')
			if close := p.runs.next(j+n, n, len(s)); close >= 0 {
				j = close + n - 1
			} else {
				j += n - 1
			}
		case '<':
			if _, next, ok := scanAutolink(s, j, len(s)); ok {
				j = next - 1
			}
		case '[':
			open = append(open, j)
		case ']':
			if len(open) == 0 {
				continue
			}
			start := open[len(open)-1]
			open = open[:len(open)-1]
			if ref, ok := p.scanDestination(start, j, len(s)); ok {
				p.links[start] = ref
				j = ref.end - 1
			}
		}
	}
}

// scanDestination parses `(dest "title")` after the label closed at close.
func (p *inlineParser) scanDestination(i, close, end int) (linkRef, bool) {
	if close+1 >= end || p.src[close+1] != '(' {
		return linkRef{}, false
	}
	j := skipLeadingSpaces(p.src, close+2, end)
	var dest string
	if j < end && p.src[j] == '<' {
		k := strings.IndexAny(p.src[j+1:end], "<>\n")
		if k < 0 || p.src[j+1+k] != '>' {
			return linkRef{}, false
		}
		dest = p.src[j+1 : j+1+k]
		j += k + 2
	} else {
		depth := 0
		k := j
		for k < end {
			c := p.src[k]
			if c == '\\' && k+1 < end {
				k += 2
				continue
			}
			if c == ' ' || c == '\n' || c == '\t' {
				break
			}
			if c == '(' {
				if depth++; depth > maxDestParens {
					return linkRef{}, false
				}
			} else if c == ')' {
				if depth == 0 {
					break
				}
				depth--
			}
			k++
		}
		dest = unescapePunct(p.src[j:k])
		j = k
	}
	j = skipSpaceAndNewline(p.src, j, end)
	var title string
	if j < end && (p.src[j] == '"' || p.src[j] == '\'' || p.src[j] == '(') {
		closer := p.src[j]
		if closer == '(' {
			closer = ')'
		}
		k := j + 1
		for k < end && p.src[k] != closer {
			if p.src[k] == '\\' {
				k++
			}
			k++
		}
		if k >= end {
			return linkRef{}, false
		}
		title = unescapePunct(p.src[j+1 : k])
		j = skipSpaceAndNewline(p.src, k+1, end)
	}
	if j >= end || p.src[j] != ')' {
		return linkRef{}, false
	}
	return linkRef{labelStart: i + 1, labelEnd: close, dest: dest, title: title, end: j + 1}, true
}

func skipSpaceAndNewline(s string, i, end int) int {
	for i < end && (s[i] == ' ' || s[i] == '\t' || s[i] == '\n') {
		i++
	}
	return i
}

func unescapePunct(s string) string {
	if !strings.Contains(s, "\\") {
		return s
	}
	return string(util.UnescapePunctuations([]byte(s)))
}

func scanAutolink(s string, i, end int) (string, int, bool) {
	k := strings.IndexAny(s[i+1:end], " \t\n<>")
	if k <= 0 || s[i+1+k] != '>' {
		return "", 0, false
	}
	body := s[i+1 : i+1+k]
	if colon := strings.IndexByte(body, ':'); colon >= 2 && colon <= 32 && isScheme(body[:colon]) {
		return body, i + k + 2, true
	}
	if at := strings.IndexByte(body, '@'); at > 0 && at < len(body)-1 && strings.Contains(body[at:], ".") {
		return "mailto:" + body, i + k + 2, true
	}
	return "", 0, false
}

func isScheme(s string) bool {
	for j := 0; j < len(s); j++ {
		c := s[j]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z':
		case j > 0 && (c >= '0' && c <= '9' || c == '+' || c == '.' || c == '-'):
		default:
			return false
		}
	}
	return true
}

// scanEntity resolves a named or numeric character reference at i.
func scanEntity(s string, i, end int) (string, int, bool) {
	limit := end
	if limit > i+maxEntityLen {
		limit = i + maxEntityLen
	}
	k := strings.IndexByte(s[i:limit], ';')
	if k < 2 {
		return "", 0, false
	}
	ref := []byte(s[i : i+k+1])
	resolved := util.ResolveNumericReferences(util.ResolveEntityNames(ref))
	if string(resolved) == string(ref) {
		return "", 0, false
	}
	return string(resolved), i + k + 1, true
}
