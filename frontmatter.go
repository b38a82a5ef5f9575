package mdpdf

import (
	"fmt"
	"sort"
	"strings"

	"github.com/adrg/frontmatter"

	"pkt.systems/mdpdf/ast"
)

// splitFrontMatter removes a leading metadata block and decodes it. Input
// that only looks like front matter (a thematic break followed by prose, an
// unclosed block, undecodable YAML) is returned untouched.
func splitFrontMatter(src string) (ast.Meta, string) {
	openLine, next := nextLine(src, 0)
	delim, ok := parseOpeningFrontMatterDelimiter(openLine)
	if !ok {
		return ast.Meta{}, src
	}
	second, _ := nextLine(src, next)
	if !frontMatterMetadataLikely(second) {
		return ast.Meta{}, src
	}
	if !hasClosingFrontMatterDelimiter(src, next, delim) {
		return ast.Meta{}, src
	}

	var raw map[string]any
	body, err := frontmatter.Parse(strings.NewReader(src), &raw)
	if err != nil {
		return ast.Meta{}, src
	}
	return metaFromMap(raw), string(body)
}

func nextLine(src string, start int) (string, int) {
	if start >= len(src) {
		return "", len(src)
	}
	i := strings.IndexByte(src[start:], '\n')
	if i < 0 {
		return src[start:], len(src)
	}
	return src[start : start+i], start + i + 1
}

func parseOpeningFrontMatterDelimiter(line string) (string, bool) {
	switch strings.TrimSpace(line) {
	case "---":
		return "---", true
	case "+++":
		return "+++", true
	case ";;;":
		return ";;;", true
	default:
		return "", false
	}
}

func frontMatterMetadataLikely(line string) bool {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return false
	}
	if strings.HasPrefix(trimmed, "{") || strings.HasPrefix(trimmed, "[") {
		return true
	}
	return strings.ContainsAny(trimmed, ":=")
}

func hasClosingFrontMatterDelimiter(src string, start int, delim string) bool {
	for idx := start; idx < len(src); {
		line, next := nextLine(src, idx)
		if strings.TrimSpace(line) == delim {
			return true
		}
		idx = next
	}
	return false
}

func metaFromMap(raw map[string]any) ast.Meta {
	var meta ast.Meta
	for key, value := range raw {
		switch strings.ToLower(key) {
		case "title":
			meta.Title = scalarString(value)
		case "author", "authors":
			meta.Author = joinValues(value, ", ")
		case "subject", "description", "summary":
			if meta.Subject == "" {
				meta.Subject = scalarString(value)
			}
		case "keywords", "tags":
			meta.Keywords = append(meta.Keywords, listValues(value)...)
		default:
			if meta.Extra == nil {
				meta.Extra = make(map[string]any)
			}
			meta.Extra[key] = value
		}
	}
	sort.Strings(meta.Keywords)
	return meta
}

func scalarString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(t)
	default:
		return fmt.Sprint(t)
	}
}

func listValues(v any) []string {
	switch t := v.(type) {
	case []any:
		out := make([]string, 0, len(t))
		for _, item := range t {
			if s := scalarString(item); s != "" {
				out = append(out, s)
			}
		}
		return out
	case []string:
		return append([]string(nil), t...)
	case string:
		var out []string
		for _, part := range strings.Split(t, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
		return out
	default:
		if s := scalarString(t); s != "" {
			return []string{s}
		}
		return nil
	}
}

func joinValues(v any, sep string) string {
	if _, ok := v.(string); ok {
		return scalarString(v)
	}
	return strings.Join(listValues(v), sep)
}
