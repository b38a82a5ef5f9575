package mdpdf

import (
	"context"
	"fmt"
	"io"

	"pkt.systems/mdpdf/asset"
	"pkt.systems/mdpdf/ast"
)

// Document is a parsed Markdown source: the immutable syntax tree plus the
// image cache that ResolveImages fills.
type Document struct {
	AST    *ast.Document
	Assets *asset.Cache
}

// Parse parses Markdown text. It never fails; malformed constructs degrade
// to literal text and unterminated fences close at end of input.
func Parse(text string) *Document {
	meta, body := splitFrontMatter(Sanitize(text))
	return &Document{
		AST: &ast.Document{
			Meta:   meta,
			Blocks: parseBlocks(splitLines(body)),
		},
		Assets: asset.NewCache(),
	}
}

// ParseReader reads r to the end, rejects input that is not UTF-8 text
// (ErrInvalidUTF8, ErrBinaryInput) and parses it.
func ParseReader(r io.Reader) (*Document, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read input: %w", err)
	}
	if err := ValidateInput(src); err != nil {
		return nil, err
	}
	return Parse(string(src)), nil
}

// ResolveImages starts resolving every distinct image source in doc into
// doc.Assets and returns the running task. A nil resolver uses a default
// one.
func ResolveImages(ctx context.Context, doc *Document, r *asset.Resolver) *asset.Task {
	if r == nil {
		r = asset.NewResolver(asset.Options{})
	}
	if doc.Assets == nil {
		doc.Assets = asset.NewCache()
	}
	return r.Resolve(ctx, doc.Assets, ast.ImageSources(doc.AST))
}
