package pdf

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"math"

	"codeberg.org/go-pdf/fpdf"
	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"
	"golang.org/x/image/bmp"
	"golang.org/x/image/webp"

	"pkt.systems/mdpdf/layout"
)

// svgRasterScale oversamples SVG rasterization so vector art stays crisp
// when printed.
const svgRasterScale = 2

// maxRasterPixels caps the bitmap produced for one SVG.
const maxRasterPixels = 4096 * 4096

var fpdfImageOptions = fpdf.ImageOptions{}

type registeredImage struct {
	name   string
	width  float64
	height float64
	err    error
}

// registerImage makes img available to fpdf under its source name. Formats
// fpdf cannot embed are converted to PNG first.
func (e *Engine) registerImage(img layout.Image) registeredImage {
	if reg, ok := e.images[img.Source]; ok {
		return reg
	}
	reg := registeredImage{name: img.Source}
	data, imageType, err := embeddable(img)
	if err == nil {
		info := e.pdf.RegisterImageOptionsReader(reg.name, fpdf.ImageOptions{ImageType: imageType}, bytes.NewReader(data))
		if e.pdf.Err() {
			err = e.pdf.Error()
			e.pdf.ClearError()
		} else if info == nil {
			err = fmt.Errorf("image %s not registered", img.Source)
		} else {
			reg.width, reg.height = info.Extent()
		}
	}
	reg.err = err
	e.images[img.Source] = reg
	return reg
}

func embeddable(img layout.Image) ([]byte, string, error) {
	switch img.MIME {
	case "image/png":
		return img.Bytes, "PNG", nil
	case "image/jpeg":
		return img.Bytes, "JPG", nil
	case "image/gif":
		return img.Bytes, "GIF", nil
	case "image/webp":
		m, err := webp.Decode(bytes.NewReader(img.Bytes))
		if err != nil {
			return nil, "", fmt.Errorf("decode webp: %w", err)
		}
		return encodePNG(m)
	case "image/bmp":
		m, err := bmp.Decode(bytes.NewReader(img.Bytes))
		if err != nil {
			return nil, "", fmt.Errorf("decode bmp: %w", err)
		}
		return encodePNG(m)
	case "image/svg+xml":
		m, err := rasterizeSVG(img.Bytes, img.Width, img.Height)
		if err != nil {
			return nil, "", err
		}
		return encodePNG(m)
	default:
		return nil, "", fmt.Errorf("unsupported image type %q", img.MIME)
	}
}

func encodePNG(m image.Image) ([]byte, string, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, m); err != nil {
		return nil, "", fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), "PNG", nil
}

func rasterizeSVG(data []byte, width, height int) (image.Image, error) {
	icon, err := oksvg.ReadIconStream(bytes.NewReader(data), oksvg.IgnoreErrorMode)
	if err != nil {
		return nil, fmt.Errorf("parse svg: %w", err)
	}
	if width <= 0 || height <= 0 {
		width, height = int(math.Ceil(icon.ViewBox.W)), int(math.Ceil(icon.ViewBox.H))
	}
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("svg has no usable size")
	}
	w, h := width*svgRasterScale, height*svgRasterScale
	if w*h > maxRasterPixels {
		f := math.Sqrt(float64(maxRasterPixels) / float64(w*h))
		w, h = int(float64(w)*f), int(float64(h)*f)
		if w < 1 {
			w = 1
		}
		if h < 1 {
			h = 1
		}
	}
	icon.SetTarget(0, 0, float64(w), float64(h))
	rgba := image.NewRGBA(image.Rect(0, 0, w, h))
	icon.Draw(rasterx.NewDasher(w, h, rasterx.NewScannerGV(w, h, rgba, rgba.Bounds())), 1)
	return rgba, nil
}

// imageSize converts intrinsic pixels to points at 96 dpi and scales the
// result down to fit maxW x maxH.
func imageSize(width, height int, maxW, maxH float64) (float64, float64) {
	w := float64(width) * 0.75
	h := float64(height) * 0.75
	if w <= 0 || h <= 0 {
		return 0, 0
	}
	scale := 1.0
	if maxW > 0 && w > maxW {
		scale = maxW / w
	}
	if maxH > 0 && h*scale > maxH {
		scale = maxH / h
	}
	return w * scale, h * scale
}
