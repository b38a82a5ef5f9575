package asset

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"math"

	"github.com/gabriel-vasile/mimetype"
	"github.com/srwiley/oksvg"
	"golang.org/x/image/bmp"
	"golang.org/x/image/webp"
)

// ErrUnsupportedImage reports bytes that are not a supported image format.
var ErrUnsupportedImage = errors.New("asset: unsupported image type")

// Info describes a decoded image.
type Info struct {
	MIME   string
	Width  int
	Height int
}

// Decode sniffs the image type and reads its intrinsic pixel dimensions
// without decoding the full bitmap. SVG dimensions come from the viewBox.
func Decode(data []byte) (Info, error) {
	if len(data) == 0 {
		return Info{}, fmt.Errorf("%w: empty body", ErrUnsupportedImage)
	}
	mt := mimetype.Detect(data)
	info := Info{MIME: mt.String()}
	var (
		cfg image.Config
		err error
	)
	switch {
	case mt.Is("image/png"), mt.Is("image/jpeg"), mt.Is("image/gif"):
		cfg, _, err = image.DecodeConfig(bytes.NewReader(data))
	case mt.Is("image/webp"):
		cfg, err = webp.DecodeConfig(bytes.NewReader(data))
	case mt.Is("image/bmp"):
		cfg, err = bmp.DecodeConfig(bytes.NewReader(data))
	case mt.Is("image/svg+xml"):
		info.MIME = "image/svg+xml"
		cfg, err = svgConfig(data)
	default:
		return Info{}, fmt.Errorf("%w: %s", ErrUnsupportedImage, mt.String())
	}
	if err != nil {
		return Info{}, fmt.Errorf("asset: decode %s: %w", info.MIME, err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return Info{}, fmt.Errorf("asset: decode %s: zero dimensions", info.MIME)
	}
	if i := bytes.IndexByte([]byte(info.MIME), ';'); i >= 0 {
		info.MIME = info.MIME[:i]
	}
	info.Width = cfg.Width
	info.Height = cfg.Height
	return info, nil
}

func svgConfig(data []byte) (image.Config, error) {
	icon, err := oksvg.ReadIconStream(bytes.NewReader(data), oksvg.IgnoreErrorMode)
	if err != nil {
		return image.Config{}, err
	}
	w := int(math.Ceil(icon.ViewBox.W))
	h := int(math.Ceil(icon.ViewBox.H))
	if w <= 0 || h <= 0 {
		return image.Config{}, errors.New("svg without viewBox")
	}
	return image.Config{Width: w, Height: h}, nil
}
