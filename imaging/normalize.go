// Package imaging turns image hosts the bitmap parser cannot use directly
// (PNG, JPEG, GIF, TIFF, WebP, palette or row-padded BMP) into plain
// uncompressed bitmaps.
package imaging

import (
	"bytes"
	"fmt"
	"image"
	"image/draw"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"

	"golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/ran4na/steg/container"
)

// Padded reports whether the rows of img are padded to four bytes. The
// carrier view treats pixel data as one flat run, so a padded bitmap would
// lose the tail of its pixel data when written back.
func Padded(img *container.Image) bool {
	rowBytes := uint64(img.Info.Width) * uint64(img.Info.BitsPerPixel) / 8
	return rowBytes%4 != 0
}

// Normalize decodes any registered image format and returns it as a bitmap
// container together with the name of the source format. Transparency is
// flattened onto white. Widths whose 24-bit rows need no padding become
// 24-bit bitmaps written by x/image/bmp; the rest become 32-bit bitmaps.
//
// The dimensions are read first. Images whose RGBA pixels would not fit in
// container.MaxCarrierBytes fail with container.ErrAllocationFailure before
// any pixel is decoded.
func Normalize(r io.Reader) (*container.Image, string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, "", fmt.Errorf("read image host: %w", err)
	}
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("decode image host: %w", err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, format, fmt.Errorf("%w: empty %s image", container.ErrInvalidGeometry, format)
	}
	if n := uint64(cfg.Width) * uint64(cfg.Height) * 4; n > container.MaxCarrierBytes {
		return nil, format, fmt.Errorf("%w: %dx%d %s image needs %d bytes, limit %d",
			container.ErrAllocationFailure, cfg.Width, cfg.Height, format, n, container.MaxCarrierBytes)
	}

	src, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("decode image host: %w", err)
	}
	b := src.Bounds()
	if b.Empty() {
		return nil, format, fmt.Errorf("%w: empty %s image", container.ErrInvalidGeometry, format)
	}

	flat := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(flat, flat.Bounds(), image.White, image.Point{}, draw.Src)
	draw.Draw(flat, flat.Bounds(), src, b.Min, draw.Over)

	var img *container.Image
	if (b.Dx()*3)%4 == 0 {
		img, err = encode24(flat)
	} else {
		img, err = encode32(flat)
	}
	if err != nil {
		return nil, format, err
	}
	return img, format, nil
}

// encode24 lets x/image/bmp write an opaque RGBA image, which it stores as
// 24 bits per pixel, and parses the result.
func encode24(m *image.RGBA) (*container.Image, error) {
	var buf bytes.Buffer
	if err := bmp.Encode(&buf, m); err != nil {
		return nil, fmt.Errorf("encode bitmap: %w", err)
	}
	return container.ParseImage(&buf)
}

func encode32(m *image.RGBA) (*container.Image, error) {
	w, h := m.Rect.Dx(), m.Rect.Dy()
	img, err := container.SynthesizeImage(uint32(w), uint32(h), 32)
	if err != nil {
		return nil, err
	}
	img.File.FileSize = uint32(container.BitmapHeaderSize + img.PixelBytes())
	img.Info.ColorsUsed = 0

	// bottom-up rows of BGRA
	for y := 0; y < h; y++ {
		row := img.Data[(h-1-y)*w*4:]
		for x := 0; x < w; x++ {
			p := m.RGBAAt(x, y)
			row[x*4+0] = p.B
			row[x*4+1] = p.G
			row[x*4+2] = p.R
			row[x*4+3] = 0xFF
		}
	}
	return img, nil
}
