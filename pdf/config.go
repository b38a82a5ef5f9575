package pdf

import "time"

// Config holds PDF rendering settings. Lengths are in points.
type Config struct {
	PageSize   string
	Margin     float64
	FontFamily string
	// MonoFamily is used for code and for monospace math fallbacks.
	MonoFamily string
	FontSize   float64
	LineHeight float64

	RegularFont         string
	BoldFont            string
	ItalicFont          string
	BoldItalicFont      string
	RegularFontBytes    []byte
	BoldFontBytes       []byte
	ItalicFontBytes     []byte
	BoldItalicFontBytes []byte

	IgnoreColors      bool
	BackgroundEnabled bool
	Boring            bool
	BackgroundRGB     [3]int
	TextRGB           [3]int
	PlaceholderRGB    [3]int

	// UseOCGDebugLayer draws debug annotations into an optional content
	// group that viewers can hide and that is excluded from print.
	UseOCGDebugLayer bool
	OpenLayerPane    bool

	CornerImagePath      string
	CornerImageMaxWidth  float64
	CornerImageMaxHeight float64
	CornerImagePadding   float64

	// ImageTimeout bounds image resolution in Render. Images still missing
	// when it expires render as placeholders.
	ImageTimeout time.Duration
}

// DefaultConfig returns a baseline configuration: A4, 1 cm margins, 12 pt
// Helvetica with a 1.5 line height.
func DefaultConfig() Config {
	return Config{
		PageSize:             "A4",
		Margin:               28.35,
		FontFamily:           "Helvetica",
		MonoFamily:           "Courier",
		FontSize:             12,
		LineHeight:           1.5,
		BackgroundRGB:        [3]int{255, 255, 255},
		TextRGB:              [3]int{0, 0, 0},
		PlaceholderRGB:       [3]int{150, 150, 150},
		CornerImageMaxWidth:  96,
		CornerImageMaxHeight: 96,
		CornerImagePadding:   8,
		ImageTimeout:         30 * time.Second,
	}
}

func applyConfig(dst *Config, src Config) {
	if src.PageSize != "" {
		dst.PageSize = src.PageSize
	}
	if src.Margin > 0 {
		dst.Margin = src.Margin
	}
	if src.FontFamily != "" {
		dst.FontFamily = src.FontFamily
	}
	if src.MonoFamily != "" {
		dst.MonoFamily = src.MonoFamily
	}
	if src.FontSize > 0 {
		dst.FontSize = src.FontSize
	}
	if src.LineHeight > 0 {
		dst.LineHeight = src.LineHeight
	}
	if src.RegularFont != "" {
		dst.RegularFont = src.RegularFont
	}
	if src.BoldFont != "" {
		dst.BoldFont = src.BoldFont
	}
	if src.ItalicFont != "" {
		dst.ItalicFont = src.ItalicFont
	}
	if src.BoldItalicFont != "" {
		dst.BoldItalicFont = src.BoldItalicFont
	}
	if len(src.RegularFontBytes) > 0 {
		dst.RegularFontBytes = src.RegularFontBytes
	}
	if len(src.BoldFontBytes) > 0 {
		dst.BoldFontBytes = src.BoldFontBytes
	}
	if len(src.ItalicFontBytes) > 0 {
		dst.ItalicFontBytes = src.ItalicFontBytes
	}
	if len(src.BoldItalicFontBytes) > 0 {
		dst.BoldItalicFontBytes = src.BoldItalicFontBytes
	}
	if src.IgnoreColors {
		dst.IgnoreColors = true
	}
	if src.BackgroundEnabled {
		dst.BackgroundEnabled = true
	}
	if src.Boring {
		dst.Boring = true
	}
	if src.BackgroundRGB != [3]int{} {
		dst.BackgroundRGB = src.BackgroundRGB
	}
	if src.TextRGB != [3]int{} {
		dst.TextRGB = src.TextRGB
	}
	if src.PlaceholderRGB != [3]int{} {
		dst.PlaceholderRGB = src.PlaceholderRGB
	}
	if src.UseOCGDebugLayer {
		dst.UseOCGDebugLayer = true
	}
	if src.OpenLayerPane {
		dst.OpenLayerPane = true
	}
	if src.CornerImagePath != "" {
		dst.CornerImagePath = src.CornerImagePath
	}
	if src.CornerImageMaxWidth > 0 {
		dst.CornerImageMaxWidth = src.CornerImageMaxWidth
	}
	if src.CornerImageMaxHeight > 0 {
		dst.CornerImageMaxHeight = src.CornerImageMaxHeight
	}
	if src.CornerImagePadding > 0 {
		dst.CornerImagePadding = src.CornerImagePadding
	}
	if src.ImageTimeout > 0 {
		dst.ImageTimeout = src.ImageTimeout
	}
}
