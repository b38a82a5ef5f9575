// Package ansi previews rendered Markdown in a terminal.
//
// Engine implements layout.Engine and writes themed text with 24-bit SGR
// colours, word wrapping at Config.Width, indented lists, barred quotes,
// bordered tables and math drawn on a character grid. Links become OSC 8
// hyperlinks when Config.OSC8 is set (see DetectOSC8Support); otherwise the
// target is printed after the link text.
//
//	err := ansi.Render(ctx, ansi.RenderRequest{
//		Reader: os.Stdin,
//		Writer: os.Stdout,
//		Config: ansi.Config{Width: 100, OSC8: ansi.DetectOSC8Support()},
//	})
package ansi
