package pdf

import (
	"strings"
	"unicode/utf8"

	"pkt.systems/mdpdf/layout"
)

type itemKind uint8

const (
	itemText itemKind = iota
	itemSpace
	itemBreak
	itemImage
	itemPlaceholder
	itemRegion
)

// item is one unit of inline content. Consecutive items without a space or
// break between them form an unbreakable word.
type item struct {
	kind    itemKind
	text    string
	style   pdfStyle
	link    string
	rise    float64
	width   float64
	height  float64
	ascent  float64
	descent float64
	image   string
	region  *layout.Region
}

func (e *Engine) textMetrics(st pdfStyle) (float64, float64) {
	lead := (e.cfg.LineHeight - 1) / 2
	return st.size * (0.8 + lead), st.size * (0.2 + lead)
}

func (e *Engine) textItem(kind itemKind, text string, run layout.TextRun, st pdfStyle) item {
	asc, desc := e.textMetrics(st)
	rise := run.Style.Rise * e.em()
	if rise > 0 {
		asc += rise
	} else {
		desc -= rise
	}
	return item{
		kind:    kind,
		text:    text,
		style:   st,
		link:    run.Link,
		rise:    rise,
		width:   e.textWidth(text, st),
		ascent:  asc,
		descent: desc,
	}
}

// textItems splits a run into words, spaces and forced breaks. Preserved
// text keeps its spaces inside the words and only breaks at newlines.
func (e *Engine) textItems(run layout.TextRun, preserve bool) []item {
	st := e.styleFor(run.Style)
	var out []item
	for i, part := range strings.Split(run.Text, "\n") {
		if i > 0 {
			out = append(out, item{kind: itemBreak})
		}
		if preserve {
			part = strings.ReplaceAll(part, "\t", "    ")
			if part != "" {
				out = append(out, e.textItem(itemText, part, run, st))
			}
			continue
		}
		start := -1
		space := false
		for j, r := range part {
			isSpace := r == ' ' || r == '\t'
			if isSpace {
				if start >= 0 {
					out = append(out, e.textItem(itemText, part[start:j], run, st))
					start = -1
				}
				if !space {
					out = append(out, e.textItem(itemSpace, " ", run, st))
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
			out = append(out, e.textItem(itemText, part[start:], run, st))
		}
	}
	return out
}

func (e *Engine) imageItems(img layout.Image) []item {
	if !img.Placeholder && len(img.Bytes) > 0 {
		reg := e.registerImage(img)
		if reg.err == nil {
			w, h := img.Width, img.Height
			var pw, ph float64
			if w > 0 && h > 0 {
				pw, ph = imageSize(w, h, e.lineWidth(e.top()), (e.contentBottom()-e.contentTop())*0.9)
			} else {
				pw, ph = imageSize(int(reg.width/0.75), int(reg.height/0.75), e.lineWidth(e.top()), (e.contentBottom()-e.contentTop())*0.9)
			}
			if pw > 0 && ph > 0 {
				return []item{{kind: itemImage, image: reg.name, width: pw, height: ph, ascent: ph, descent: 0.2 * e.em()}}
			}
		}
	}
	size := layout.PlaceholderSize * e.em()
	out := []item{{kind: itemPlaceholder, width: size, height: size, ascent: size, descent: 0.2 * e.em()}}
	if img.Alt != "" {
		run := layout.TextRun{Text: " " + img.Alt, Style: layout.TextStyle{Italic: true}}
		alt := e.textItems(run, false)
		for i := range alt {
			alt[i].style.r, alt[i].style.g, alt[i].style.b = e.cfg.PlaceholderRGB[0], e.cfg.PlaceholderRGB[1], e.cfg.PlaceholderRGB[2]
		}
		out = append(out, alt...)
	}
	return out
}

func (e *Engine) regionItem(r layout.Region) item {
	em := e.em()
	pad := 0.1 * em
	return item{
		kind:    itemRegion,
		region:  &r,
		width:   r.Width * em,
		ascent:  r.Baseline*em + pad,
		descent: (r.Height-r.Baseline)*em + pad,
	}
}

func lineItemsWidth(line []item) float64 {
	var w float64
	for _, it := range line {
		w += it.width
	}
	return w
}

func (e *Engine) lineMetrics(line []item) (float64, float64) {
	var asc, desc float64
	for _, it := range line {
		if it.kind == itemBreak {
			continue
		}
		asc = max(asc, it.ascent)
		desc = max(desc, it.descent)
	}
	if asc == 0 && desc == 0 {
		return e.textMetrics(e.styleFor(layout.TextStyle{}))
	}
	return asc, desc
}

func wordLen(q []item) int {
	n := 0
	for n < len(q) && q[n].kind != itemSpace && q[n].kind != itemBreak {
		n++
	}
	return n
}

// nextLine takes the next line of at most avail points from q. A word wider
// than a whole line is split between characters.
func nextLine(e *Engine, q []item, avail float64) ([]item, []item) {
	var line []item
	var width float64
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
		ww := lineItemsWidth(q[:n])
		if content && width+ww > avail {
			break
		}
		if ww > avail {
			head, rest := e.splitWord(q[:n], avail-width)
			line = append(line, head...)
			q = append(rest, q[n:]...)
			return trimSpaces(line), q
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

// splitWord returns the prefix of word fitting avail and the remainder. The
// prefix always holds at least one character so wrapping makes progress.
func (e *Engine) splitWord(word []item, avail float64) ([]item, []item) {
	var head []item
	var used float64
	for i, it := range word {
		if used+it.width <= avail {
			head = append(head, it)
			used += it.width
			continue
		}
		if it.kind != itemText {
			if len(head) == 0 {
				head = append(head, it)
				i++
			}
			return head, append([]item(nil), word[i:]...)
		}
		cut := 0
		w := used
		for j, r := range it.text {
			rw := e.textWidth(string(r), it.style)
			if w+rw > avail && (cut > 0 || len(head) > 0) {
				break
			}
			w += rw
			cut = j + utf8.RuneLen(r)
		}
		rest := append([]item(nil), word[i+1:]...)
		if cut > 0 {
			left := it
			left.text = it.text[:cut]
			left.width = e.textWidth(left.text, it.style)
			head = append(head, left)
		}
		if cut < len(it.text) {
			right := it
			right.text = it.text[cut:]
			right.width = e.textWidth(right.text, it.style)
			rest = append([]item{right}, rest...)
		}
		return head, rest
	}
	return head, nil
}

// drawItems draws a line starting at x with the given baseline.
func (e *Engine) drawItems(line []item, x, baseline float64) {
	for _, it := range line {
		switch it.kind {
		case itemText, itemSpace:
			st := it.style
			top := baseline - it.rise - st.size*0.8
			if st.hasBg {
				e.pdf.SetFillColor(st.background[0], st.background[1], st.background[2])
				e.pdf.Rect(x, top-0.1*st.size, it.width, st.size*1.2, "F")
			}
			if it.kind == itemText {
				e.drawText(x, baseline-it.rise, it.text, st)
			} else if st.underline {
				e.pdf.SetDrawColor(st.r, st.g, st.b)
				e.pdf.SetLineWidth(st.size * 0.05)
				e.pdf.Line(x, baseline+st.size*0.1, x+it.width, baseline+st.size*0.1)
			}
			if it.link != "" && it.width > 0 {
				e.pdf.LinkString(x, top, it.width, st.size, it.link)
			}
		case itemImage:
			e.pdf.ImageOptions(it.image, x, baseline-it.height, it.width, it.height, false, fpdfImageOptions, 0, "")
		case itemPlaceholder:
			c := e.cfg.PlaceholderRGB
			e.pdf.SetDrawColor(c[0], c[1], c[2])
			e.pdf.SetLineWidth(0.75)
			y := baseline - it.height
			e.pdf.Rect(x, y, it.width, it.height, "D")
			e.pdf.Line(x, y, x+it.width, baseline)
			e.pdf.Line(x, baseline, x+it.width, y)
		case itemRegion:
			e.drawRegion(*it.region, x, baseline)
		}
		x += it.width
	}
}

func (e *Engine) drawRegion(r layout.Region, x, baseline float64) {
	em := e.em()
	top := baseline - r.Baseline*em
	for _, run := range r.Runs {
		st := e.styleFor(run.Run.Style)
		if !run.Run.Style.HasColor && r.Color != (layout.Color{}) {
			col := e.rgb(r.Color, true)
			st.r, st.g, st.b = col[0], col[1], col[2]
		}
		e.drawText(x+run.X*em, top+run.Y*em, run.Run.Text, st)
	}
	col := e.rgb(r.Color, r.Color != (layout.Color{}))
	e.pdf.SetDrawColor(col[0], col[1], col[2])
	for _, l := range r.Lines {
		e.pdf.SetLineWidth(max(l.Width*em, 0.3))
		e.pdf.Line(x+l.X1*em, top+l.Y1*em, x+l.X2*em, top+l.Y2*em)
	}
}
