package mathtex

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

type node interface{}

// atom is a single symbol or a run of upright text.
type atom struct {
	text   string
	italic bool
	bold   bool
	op     bool // binary operator or relation, spaced on both sides
	large  bool // big operator such as \sum
}

type group struct {
	items []node
}

type scripts struct {
	base node
	sup  node
	sub  node
}

type fraction struct {
	num node
	den node
}

type root struct {
	body  node
	index node
}

type space struct {
	em float64
}

type parser struct {
	src string
	pos int
}

func parse(src string) ([]node, error) {
	p := &parser{src: src}
	nodes, err := p.list(false)
	if err != nil {
		return nil, err
	}
	if p.pos < len(p.src) {
		return nil, fmt.Errorf("%w: unexpected '}' at %d", ErrSyntax, p.pos)
	}
	return nodes, nil
}

func (p *parser) skipSpace() {
	for p.pos < len(p.src) && (p.src[p.pos] == ' ' || p.src[p.pos] == '\t' || p.src[p.pos] == '\n') {
		p.pos++
	}
}

// list parses items until end of input, or until '}' when inGroup is set.
func (p *parser) list(inGroup bool) ([]node, error) {
	var items []node
	for {
		p.skipSpace()
		if p.pos >= len(p.src) {
			if inGroup {
				return nil, fmt.Errorf("%w: missing '}'", ErrSyntax)
			}
			return items, nil
		}
		c := p.src[p.pos]
		switch c {
		case '}':
			if !inGroup {
				return items, nil
			}
			p.pos++
			return items, nil
		case '^', '_':
			p.pos++
			arg, err := p.arg()
			if err != nil {
				return nil, err
			}
			var base node = atom{}
			if len(items) > 0 {
				base = items[len(items)-1]
				items = items[:len(items)-1]
			}
			s, ok := base.(scripts)
			if !ok || (c == '^' && s.sup != nil) || (c == '_' && s.sub != nil) {
				if ok {
					items = append(items, s)
					base = atom{}
				}
				s = scripts{base: base}
			}
			if c == '^' {
				s.sup = arg
			} else {
				s.sub = arg
			}
			items = append(items, s)
		case '&':
			return nil, fmt.Errorf("%w: alignment tab", ErrUnsupported)
		case '\'':
			p.pos++
			items = append(items, scripts{base: popLast(&items), sup: atom{text: "′"}})
		default:
			n, err := p.item()
			if err != nil {
				return nil, err
			}
			if n != nil {
				items = append(items, n)
			}
		}
	}
}

func popLast(items *[]node) node {
	if len(*items) == 0 {
		return atom{}
	}
	last := (*items)[len(*items)-1]
	*items = (*items)[:len(*items)-1]
	return last
}

// item parses one group, command or character.
func (p *parser) item() (node, error) {
	c := p.src[p.pos]
	switch c {
	case '{':
		p.pos++
		items, err := p.list(true)
		if err != nil {
			return nil, err
		}
		return group{items: items}, nil
	case '\\':
		return p.command()
	}
	r, size := utf8.DecodeRuneInString(p.src[p.pos:])
	p.pos += size
	return charAtom(r), nil
}

// arg parses a command or script argument: a group, a command or a single
// character.
func (p *parser) arg() (node, error) {
	p.skipSpace()
	if p.pos >= len(p.src) {
		return nil, fmt.Errorf("%w: missing argument", ErrSyntax)
	}
	if p.src[p.pos] == '}' {
		return nil, fmt.Errorf("%w: missing argument", ErrSyntax)
	}
	return p.item()
}

func (p *parser) rawGroup() (string, error) {
	p.skipSpace()
	if p.pos >= len(p.src) || p.src[p.pos] != '{' {
		return "", fmt.Errorf("%w: expected '{'", ErrSyntax)
	}
	depth := 0
	start := p.pos + 1
	for i := p.pos; i < len(p.src); i++ {
		switch p.src[i] {
		case '\\':
			i++
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				p.pos = i + 1
				return p.src[start:i], nil
			}
		}
	}
	return "", fmt.Errorf("%w: missing '}'", ErrSyntax)
}

func (p *parser) commandName() string {
	p.pos++ // backslash
	if p.pos >= len(p.src) {
		return ""
	}
	start := p.pos
	for p.pos < len(p.src) && isLetter(p.src[p.pos]) {
		p.pos++
	}
	if p.pos == start {
		p.pos++
	}
	return p.src[start:p.pos]
}

func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func (p *parser) command() (node, error) {
	name := p.commandName()
	switch name {
	case "":
		return nil, fmt.Errorf("%w: trailing backslash", ErrSyntax)
	case "frac", "dfrac", "tfrac":
		num, err := p.arg()
		if err != nil {
			return nil, err
		}
		den, err := p.arg()
		if err != nil {
			return nil, err
		}
		return fraction{num: num, den: den}, nil
	case "sqrt":
		var index node
		p.skipSpace()
		if p.pos < len(p.src) && p.src[p.pos] == '[' {
			end := strings.IndexByte(p.src[p.pos:], ']')
			if end < 0 {
				return nil, fmt.Errorf("%w: missing ']'", ErrSyntax)
			}
			inner, err := parse(p.src[p.pos+1 : p.pos+end])
			if err != nil {
				return nil, err
			}
			index = group{items: inner}
			p.pos += end + 1
		}
		body, err := p.arg()
		if err != nil {
			return nil, err
		}
		return root{body: body, index: index}, nil
	case "text", "textrm", "mathrm", "operatorname", "textit", "textbf":
		raw, err := p.rawGroup()
		if err != nil {
			return nil, err
		}
		return atom{text: raw, italic: name == "textit", bold: name == "textbf"}, nil
	case "mathbf", "boldsymbol", "mathit":
		arg, err := p.arg()
		if err != nil {
			return nil, err
		}
		return restyle(arg, name == "mathit", name != "mathit"), nil
	case "mathbb":
		raw, err := p.rawGroup()
		if err != nil {
			return nil, err
		}
		var b strings.Builder
		for _, r := range raw {
			ds, ok := doubleStruck[r]
			if !ok {
				return nil, fmt.Errorf("%w: \\mathbb{%c}", ErrUnsupported, r)
			}
			b.WriteRune(ds)
		}
		return atom{text: b.String()}, nil
	case "left", "right", "big", "Big", "bigl", "bigr", "Bigl", "Bigr":
		return p.delimiter(name)
	case "begin", "end":
		raw, _ := p.rawGroup()
		return nil, fmt.Errorf("%w: environment %q", ErrUnsupported, raw)
	case "\\":
		return nil, fmt.Errorf("%w: line break", ErrUnsupported)
	}
	if em, ok := spacing[name]; ok {
		return space{em: em}, nil
	}
	if len(name) == 1 && strings.ContainsAny(name, "{}%$#&_|") {
		return atom{text: name}, nil
	}
	if fn, ok := functions[name]; ok {
		return atom{text: fn}, nil
	}
	if sym, ok := symbols[name]; ok {
		return sym, nil
	}
	return nil, fmt.Errorf("%w: \\%s", ErrUnsupported, name)
}

func (p *parser) delimiter(cmd string) (node, error) {
	p.skipSpace()
	if p.pos >= len(p.src) {
		return nil, fmt.Errorf("%w: \\%s without delimiter", ErrSyntax, cmd)
	}
	if p.src[p.pos] == '\\' {
		name := p.commandName()
		switch name {
		case "{", "}", "|":
			if name == "|" {
				return atom{text: "‖"}, nil
			}
			return atom{text: name}, nil
		}
		if sym, ok := symbols[name]; ok {
			return sym, nil
		}
		return nil, fmt.Errorf("%w: delimiter \\%s", ErrUnsupported, name)
	}
	c := p.src[p.pos]
	p.pos++
	switch c {
	case '.':
		return nil, nil
	case '(', ')', '[', ']', '|', '/':
		return atom{text: string(c)}, nil
	case '<':
		return atom{text: "⟨"}, nil
	case '>':
		return atom{text: "⟩"}, nil
	}
	return nil, fmt.Errorf("%w: delimiter %q", ErrUnsupported, c)
}

func restyle(n node, italic, bold bool) node {
	switch v := n.(type) {
	case atom:
		v.italic = italic
		v.bold = bold
		return v
	case group:
		items := make([]node, len(v.items))
		for i, it := range v.items {
			items[i] = restyle(it, italic, bold)
		}
		return group{items: items}
	default:
		return n
	}
}

func charAtom(r rune) atom {
	switch {
	case unicode.IsLetter(r):
		return atom{text: string(r), italic: true}
	case unicode.IsDigit(r) || r == '.':
		return atom{text: string(r)}
	}
	switch r {
	case '-':
		return atom{text: "−", op: true}
	case '*':
		return atom{text: "∗", op: true}
	case '+', '=', '<', '>':
		return atom{text: string(r), op: true}
	}
	return atom{text: string(r)}
}
