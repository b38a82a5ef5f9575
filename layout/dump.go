package layout

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Fprint writes a readable, indented listing of the instruction stream.
func Fprint(w io.Writer, instrs []Instruction) error {
	bw := bufio.NewWriter(w)
	depth := 0
	for _, in := range instrs {
		if in.Op == OpEnd && depth > 0 {
			depth--
		}
		bw.WriteString(strings.Repeat("  ", depth))
		if in.Annotation {
			bw.WriteString("~")
		}
		bw.WriteString(in.Op.String())
		switch in.Op {
		case OpText:
			bw.WriteByte(' ')
			bw.WriteString(strconv.Quote(in.Run.Text))
			if attrs := styleAttrs(in.Run.Style); attrs != "" {
				bw.WriteString(" [" + attrs + "]")
			}
			if in.Run.Link != "" {
				bw.WriteString(" -> " + in.Run.Link)
			}
		case OpImage:
			if in.Image.Placeholder {
				fmt.Fprintf(bw, " placeholder %q alt=%q", in.Image.Source, in.Image.Alt)
				if in.Image.Reason != "" {
					fmt.Fprintf(bw, " reason=%q", in.Image.Reason)
				}
			} else {
				fmt.Fprintf(bw, " %q %dx%d %s", in.Image.Source, in.Image.Width, in.Image.Height, in.Image.MIME)
			}
		case OpRegion:
			fmt.Fprintf(bw, " %s %.2fx%.2f", in.Region.Role, in.Region.Width, in.Region.Height)
			if in.Region.Source != "" {
				fmt.Fprintf(bw, " %q", in.Region.Source)
			}
		case OpBegin:
			bw.WriteByte(' ')
			bw.WriteString(in.Box.Role.String())
			if in.Box.Level > 0 {
				fmt.Fprintf(bw, " level=%d", in.Box.Level)
			}
			if in.Box.Marker != "" {
				fmt.Fprintf(bw, " marker=%q", in.Box.Marker)
			}
			if in.Box.Label != "" {
				fmt.Fprintf(bw, " label=%q", in.Box.Label)
			}
			if in.Box.Language != "" {
				fmt.Fprintf(bw, " lang=%s", in.Box.Language)
			}
			if len(in.Box.Columns) > 0 {
				fmt.Fprintf(bw, " columns=%d", len(in.Box.Columns))
			}
			if in.Box.Header {
				bw.WriteString(" header")
			}
			depth++
		}
		bw.WriteByte('\n')
	}
	return bw.Flush()
}

func styleAttrs(s TextStyle) string {
	var parts []string
	if s.Bold {
		parts = append(parts, "bold")
	}
	if s.Italic {
		parts = append(parts, "italic")
	}
	if s.Underline {
		parts = append(parts, "underline")
	}
	if s.Mono {
		parts = append(parts, "mono")
	}
	if s.Scale > 0 && s.Scale != 1 {
		parts = append(parts, "scale="+strconv.FormatFloat(s.Scale, 'g', 3, 64))
	}
	if s.Rise != 0 {
		parts = append(parts, "rise="+strconv.FormatFloat(s.Rise, 'g', 3, 64))
	}
	return strings.Join(parts, ",")
}
