// Package mdpdf turns Markdown with embedded LaTeX math into a layout
// instruction stream ready for pagination.
//
// Work happens in three phases:
//   - Parse builds an immutable syntax tree (package ast) from the source
//     text. Parsing never fails.
//   - ResolveImages fetches the images the tree references into the
//     document's asset cache. It runs concurrently and can be cancelled
//     through its context.
//   - Render walks the tree and emits layout instructions (package layout).
//     Images that are not resolved become placeholders, so rendering never
//     waits on the network.
//
// A layout engine consumes the stream. Package pdf provides one backed by
// fpdf and package ansi provides a terminal preview.
//
// Example:
//
//	doc := mdpdf.Parse("# Hello\n\nInline $x^2$ and ![logo](https://example.com/logo.png)\n")
//	task := mdpdf.ResolveImages(ctx, doc, nil)
//	if _, err := task.Wait(ctx); err != nil {
//		log.Printf("image resolution cancelled: %v", err)
//	}
//	instrs := mdpdf.Render(doc, mdpdf.NewRenderOptions(mdpdf.WithDebug(false)))
//	if err := layout.Fprint(os.Stdout, instrs); err != nil {
//		log.Fatal(err)
//	}
package mdpdf
