package thumbcache

import (
	"bytes"
	"context"
	"crypto/sha256"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	_ "image/gif"
	_ "image/jpeg"

	"golang.org/x/image/draw"
)

var rasterExtensions = map[string]struct{}{
	".png":  {},
	".jpg":  {},
	".jpeg": {},
	".gif":  {},
}

// RasterThumbnailer returns the built-in generator. Raster images are
// decoded and scaled so their longest edge matches the requested pixel
// size; every other format renders as a flat placeholder tile colored
// from its extension.
func RasterThumbnailer() Generator {
	return func(ctx context.Context, source string, pixelSize int) ([]byte, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		ext := strings.ToLower(filepath.Ext(source))
		if _, raster := rasterExtensions[ext]; !raster {
			return renderPlaceholder(ext, pixelSize)
		}
		return renderScaled(source, pixelSize)
	}
}

func renderScaled(source string, pixelSize int) ([]byte, error) {
	f, err := os.Open(source)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	src, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	bounds := src.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	if width < 1 || height < 1 {
		return nil, fmt.Errorf("image has no pixels")
	}
	outW, outH := pixelSize, pixelSize
	if width >= height {
		outH = max(1, height*pixelSize/width)
	} else {
		outW = max(1, width*pixelSize/height)
	}
	dst := image.NewRGBA(image.Rect(0, 0, outW, outH))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, bounds, draw.Over, nil)

	var buf bytes.Buffer
	if err := png.Encode(&buf, dst); err != nil {
		return nil, fmt.Errorf("encode thumbnail: %w", err)
	}
	return buf.Bytes(), nil
}

// renderPlaceholder produces a bordered tile whose color derives from
// the file extension, so documents of different types stay visually
// distinct in listings.
func renderPlaceholder(ext string, pixelSize int) ([]byte, error) {
	sum := sha256.Sum256([]byte(ext))
	base := color.RGBA{R: 0x60 | sum[0]&0x3f, G: 0x60 | sum[1]&0x3f, B: 0x60 | sum[2]&0x3f, A: 0xff}
	edge := color.RGBA{R: base.R / 2, G: base.G / 2, B: base.B / 2, A: 0xff}
	img := image.NewRGBA(image.Rect(0, 0, pixelSize, pixelSize))
	for y := 0; y < pixelSize; y++ {
		for x := 0; x < pixelSize; x++ {
			if x == 0 || y == 0 || x == pixelSize-1 || y == pixelSize-1 {
				img.Set(x, y, edge)
				continue
			}
			img.Set(x, y, base)
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode placeholder: %w", err)
	}
	return buf.Bytes(), nil
}
