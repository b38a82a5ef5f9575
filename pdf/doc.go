// Package pdf lays out a rendered Markdown document on PDF pages.
//
// Engine implements layout.Engine on top of fpdf: it wraps text by font
// metrics, breaks pages, draws tables, code backgrounds, images and
// typeset math, and turns links into clickable annotations. Render is the
// one-call pipeline: it parses the input, resolves images under
// Config.ImageTimeout and writes the PDF.
//
// Example:
//
//	cfg := pdf.DefaultConfig()
//	cfg.PageSize = "Letter"
//
//	err := pdf.Render(ctx, pdf.RenderRequest{
//		Reader: strings.NewReader("# Report\n\nHello $\\alpha$.\n"),
//		Writer: outFile,
//		Theme:  mdpdf.DefaultTheme(),
//		Config: cfg,
//	})
//	if err != nil {
//		log.Fatal(err)
//	}
//
// The core fonts cover cp1252 text; Greek letters and common mathematical
// symbols fall back to the Symbol font. For full Unicode coverage set
// RegularFont/BoldFont/ItalicFont to TrueType files, or pass the font data
// via RegularFontBytes/BoldFontBytes/ItalicFontBytes.
//
// With RenderRequest.Debug set, every block is outlined and labelled. The
// outlines live on an optional content layer named "debug" that viewers can
// hide, unless Config.Boring asks for plain output.
package pdf
