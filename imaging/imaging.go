// Package imaging normalizes uploaded pictures into the single format the photo service stores.
package imaging

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/jpeg"
	"io"
	"io/ioutil"

	// registered decoders
	_ "image/gif"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/nfnt/resize"
	pe "wuyrush.io/photo/errors"
)

const (
	MaxWidth    = 800
	MaxHeight   = 800
	JPEGQuality = 70
	// MaxPixels bounds the decoded size of uploads, about 200 MiB of RGBA
	MaxPixels = 50000000
)

// Normalizer turns arbitrary image bytes into the stored representation
type Normalizer interface {
	Normalize(r io.Reader) ([]byte, *pe.Err)
}

// JPEGNormalizer fits images into a bounding box, flattens them onto a solid background and encodes them as
// JPEG
type JPEGNormalizer struct {
	MaxWidth   uint
	MaxHeight  uint
	Quality    int
	Background color.Color
	// MaxPixels is the largest width*height accepted for decoding
	MaxPixels int64
}

// NewJPEGNormalizer returns the normalizer used for stored photos: 800x800 box, white background, quality 70
func NewJPEGNormalizer() *JPEGNormalizer {
	return &JPEGNormalizer{
		MaxWidth:   MaxWidth,
		MaxHeight:  MaxHeight,
		Quality:    JPEGQuality,
		Background: color.White,
		MaxPixels:  MaxPixels,
	}
}

func (n *JPEGNormalizer) Normalize(r io.Reader) ([]byte, *pe.Err) {
	data, err := ioutil.ReadAll(r)
	if err != nil {
		return nil, pe.NewInvalidImage("error reading image").WithCause(err)
	}
	// headers are checked first so a small body declaring huge dimensions never gets decoded
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, pe.NewInvalidImage("error decoding image header").WithCause(err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, pe.NewInvalidImage("image has no pixels")
	}
	if n.MaxPixels > 0 && int64(cfg.Width)*int64(cfg.Height) > n.MaxPixels {
		return nil, pe.NewInvalidImage(fmt.Sprintf("image of %dx%d exceeds %d pixels", cfg.Width, cfg.Height, n.MaxPixels))
	}
	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, pe.NewInvalidImage("error decoding image").WithCause(err)
	}
	// Thumbnail keeps aspect ratio and returns images already inside the box untouched
	fitted := resize.Thumbnail(n.MaxWidth, n.MaxHeight, src, resize.Lanczos3)
	b := fitted.Bounds()
	if b.Dx() == 0 || b.Dy() == 0 {
		return nil, pe.NewInvalidImage("image has no pixels")
	}
	canvas := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(canvas, canvas.Bounds(), image.NewUniform(n.Background), image.Point{}, draw.Src)
	draw.Draw(canvas, canvas.Bounds(), fitted, b.Min, draw.Over)

	buf := &bytes.Buffer{}
	if err := jpeg.Encode(buf, canvas, &jpeg.Options{Quality: n.Quality}); err != nil {
		return nil, pe.NewServiceFailure("error encoding image").WithCause(err)
	}
	return buf.Bytes(), nil
}
