package mdpdf

import (
	"sort"
	"strings"
)

// MathKind tags a MathSegment.
type MathKind uint8

const (
	MathPlain MathKind = iota
	MathInline
	MathBlock
)

func (k MathKind) String() string {
	switch k {
	case MathInline:
		return "inline"
	case MathBlock:
		return "block"
	default:
		return "plain"
	}
}

// MathSegment is a span of block text. For math segments Text holds the
// body without delimiters; Start and End always cover the raw span,
// delimiters included.
type MathSegment struct {
	Kind  MathKind
	Text  string
	Start int
	End   int
}

// SplitMath splits block text into plain and math spans. `$$` opens display
// math closed by the next unescaped `$$`; a single `$` opens inline math that
// must close within the text. A `$` preceded by a backslash or inside a
// backtick code span never acts as a delimiter. Unterminated or empty math is
// left as plain text.
func SplitMath(text string) []MathSegment {
	return splitMath(text, indexBacktickRuns(text))
}

func splitMath(text string, runs backtickRuns) []MathSegment {
	var segs []MathSegment
	plainStart := 0
	emitPlain := func(end int) {
		if end > plainStart {
			segs = append(segs, MathSegment{Kind: MathPlain, Text: text[plainStart:end], Start: plainStart, End: end})
		}
	}
	closer := inlineCloser{s: text}
	i := 0
	for i < len(text) {
		switch text[i] {
		case '\\':
			i += 2
			continue
		case '`':
			n := runLength(text, i, '`')
			if close := runs.next(i+n, n, len(text)); close >= 0 {
				i = close + n
			} else {
				i += n
			}
			continue
		case '$':
			if strings.HasPrefix(text[i:], "$$") {
				if end := findDisplayClose(text, i+2); end >= 0 {
					body := text[i+2 : end]
					if strings.TrimSpace(body) != "" {
						emitPlain(i)
						segs = append(segs, MathSegment{Kind: MathBlock, Text: strings.TrimSpace(body), Start: i, End: end + 2})
						i = end + 2
						plainStart = i
						continue
					}
				}
				i += 2
				continue
			}
			if end := closer.find(i + 1); end >= 0 {
				emitPlain(i)
				segs = append(segs, MathSegment{Kind: MathInline, Text: text[i+1 : end], Start: i, End: end + 1})
				i = end + 1
				plainStart = i
				continue
			}
		}
		i++
	}
	emitPlain(len(text))
	return segs
}

func runLength(s string, i int, c byte) int {
	n := 0
	for i+n < len(s) && s[i+n] == c {
		n++
	}
	return n
}

// backtickRuns holds the start offsets of every backtick run in a text,
// keyed by run length and sorted ascending.
type backtickRuns map[int][]int

func indexBacktickRuns(s string) backtickRuns {
	var runs backtickRuns
	for j := 0; j < len(s); {
		k := strings.IndexByte(s[j:], '`')
		if k < 0 {
			break
		}
		j += k
		m := runLength(s, j, '`')
		if runs == nil {
			runs = make(backtickRuns)
		}
		runs[m] = append(runs[m], j)
		j += m
	}
	return runs
}

// next returns the start of the first run of exactly n backticks at or after
// from that ends by end, or -1. from must not fall inside a run.
func (r backtickRuns) next(from, n, end int) int {
	starts := r[n]
	k := sort.SearchInts(starts, from)
	if k < len(starts) && starts[k]+n <= end {
		return starts[k]
	}
	return -1
}

func findDisplayClose(s string, from int) int {
	for j := from; j < len(s)-1; j++ {
		switch s[j] {
		case '\\':
			j++
		case '$':
			if s[j+1] == '$' {
				return j
			}
		}
	}
	return -1
}

// inlineCloser finds the closing `$` of inline math. The body may not start
// or end with whitespace and the closer may not be followed by a digit, which
// keeps prices such as "$5 and $10" literal. A `$$` or a blank line ends the
// search.
//
// The first stop-or-closer position after an opener does not depend on where
// the opener sits, so it is cached and reused by every later opener before
// it. Openers must be queried in ascending order.
type inlineCloser struct {
	s       string
	scanned bool
	from    int
	event   int
}

func (c *inlineCloser) find(from int) int {
	s := c.s
	if from >= len(s) || isSpaceByte(s[from]) || s[from] == '$' {
		return -1
	}
	if !c.scanned || from < c.from || (c.event >= 0 && c.event < from) {
		c.event = nextInlineEvent(s, from)
		c.from = from
		c.scanned = true
	}
	j := c.event
	if j < 0 || s[j] != '$' || (j+1 < len(s) && s[j+1] == '$') {
		return -1
	}
	return j
}

// nextInlineEvent returns the first unescaped blank line, `$$` or valid
// closing `$` at or after from, or -1.
func nextInlineEvent(s string, from int) int {
	for j := from; j < len(s); j++ {
		switch s[j] {
		case '\\':
			j++
		case '\n':
			if j+1 < len(s) && s[j+1] == '\n' {
				return j
			}
		case '$':
			if j+1 < len(s) && s[j+1] == '$' {
				return j
			}
			if isSpaceByte(s[j-1]) {
				continue
			}
			if j+1 < len(s) && s[j+1] >= '0' && s[j+1] <= '9' {
				continue
			}
			return j
		}
	}
	return -1
}

func isSpaceByte(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}
