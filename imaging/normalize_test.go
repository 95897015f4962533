package imaging

import (
	"bytes"
	"encoding/binary"
	"hash/crc32"
	"image"
	"image/color"
	"image/color/palette"
	"image/gif"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/bmp"

	"github.com/ran4na/steg/container"
	"github.com/ran4na/steg/stego"
)

func gradient(w, h int) *image.NRGBA {
	m := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			m.SetNRGBA(x, y, color.NRGBA{uint8(x * 40), uint8(y * 60), uint8(x + y), 0xFF})
		}
	}
	return m
}

func pngBytes(t *testing.T, m image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, m))
	return buf.Bytes()
}

func serialize(t *testing.T, img *container.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	_, err := img.WriteTo(&buf)
	require.NoError(t, err)
	return buf.Bytes()
}

func assertSameRGB(t *testing.T, want image.Image, got image.Image) {
	t.Helper()
	require.Equal(t, want.Bounds().Size(), got.Bounds().Size())
	b := want.Bounds()
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			wr, wg, wb, _ := want.At(b.Min.X+x, b.Min.Y+y).RGBA()
			gr, gg, gb, _ := got.At(got.Bounds().Min.X+x, got.Bounds().Min.Y+y).RGBA()
			assert.Equal(t, [3]uint32{wr >> 8, wg >> 8, wb >> 8}, [3]uint32{gr >> 8, gg >> 8, gb >> 8}, "pixel %d,%d", x, y)
		}
	}
}

func TestNormalizePNGTo24Bit(t *testing.T) {
	src := gradient(4, 3)
	img, format, err := Normalize(bytes.NewReader(pngBytes(t, src)))
	require.NoError(t, err)

	assert.Equal(t, "png", format)
	assert.Equal(t, uint16(24), img.Info.BitsPerPixel)
	assert.Equal(t, 36, img.PixelBytes())
	assert.False(t, Padded(img))

	// first stored row is the bottom one, as BGR
	bottomLeft := src.NRGBAAt(0, 2)
	assert.Equal(t, []byte{bottomLeft.B, bottomLeft.G, bottomLeft.R}, img.Carrier()[:3])

	decoded, err := bmp.Decode(bytes.NewReader(serialize(t, img)))
	require.NoError(t, err)
	assertSameRGB(t, src, decoded)
}

func TestNormalizeOddWidthTo32Bit(t *testing.T) {
	src := gradient(3, 2)
	img, _, err := Normalize(bytes.NewReader(pngBytes(t, src)))
	require.NoError(t, err)

	assert.Equal(t, uint16(32), img.Info.BitsPerPixel)
	assert.Equal(t, 24, img.PixelBytes())
	assert.Equal(t, uint32(container.BitmapHeaderSize+24), img.File.FileSize)
	assert.False(t, Padded(img))

	raw := serialize(t, img)
	assert.Len(t, raw, container.BitmapHeaderSize+24)
	decoded, err := bmp.Decode(bytes.NewReader(raw))
	require.NoError(t, err)
	assertSameRGB(t, src, decoded)
}

func TestNormalizeFlattensTransparency(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 4, 1))
	src.SetNRGBA(0, 0, color.NRGBA{0xFF, 0, 0, 0})
	src.SetNRGBA(1, 0, color.NRGBA{0, 0, 0xFF, 0xFF})

	img, _, err := Normalize(bytes.NewReader(pngBytes(t, src)))
	require.NoError(t, err)
	assert.Equal(t, []byte{0xFF, 0xFF, 0xFF, 0xFF, 0, 0}, img.Carrier()[:6])
}

func TestNormalizeGIF(t *testing.T) {
	m := image.NewPaletted(image.Rect(0, 0, 8, 8), palette.Plan9)
	for i := range m.Pix {
		m.Pix[i] = uint8(i)
	}
	var buf bytes.Buffer
	require.NoError(t, gif.Encode(&buf, m, nil))

	img, format, err := Normalize(&buf)
	require.NoError(t, err)
	assert.Equal(t, "gif", format)
	assert.Equal(t, 8*8*3, img.PixelBytes())
}

func TestNormalizePaletteBitmap(t *testing.T) {
	m := image.NewPaletted(image.Rect(0, 0, 8, 8), palette.Plan9)
	for i := range m.Pix {
		m.Pix[i] = uint8(i * 3)
	}
	var buf bytes.Buffer
	require.NoError(t, bmp.Encode(&buf, m))
	raw := buf.Bytes()

	_, err := container.ParseImage(bytes.NewReader(raw))
	require.ErrorIs(t, err, container.ErrUnsupportedBitDepth)

	img, format, err := Normalize(bytes.NewReader(raw))
	require.NoError(t, err)
	assert.Equal(t, "bmp", format)
	assert.Equal(t, uint16(24), img.Info.BitsPerPixel)

	lsb := stego.NewLSBSteganography(nil)
	require.NoError(t, lsb.Embed(img.Carrier(), []byte("palette")))
	data, ok := lsb.Extract(img.Carrier())
	assert.True(t, ok)
	assert.Equal(t, "palette", string(data))
}

// pngHeader is a PNG whose IHDR declares w x h 8-bit RGBA and whose IDAT
// holds nothing decodable.
func pngHeader(w, h uint32) []byte {
	var buf bytes.Buffer
	buf.WriteString("\x89PNG\r\n\x1a\n")
	chunk := func(typ string, data []byte) {
		binary.Write(&buf, binary.BigEndian, uint32(len(data)))
		buf.WriteString(typ)
		buf.Write(data)
		binary.Write(&buf, binary.BigEndian, crc32.ChecksumIEEE(append([]byte(typ), data...)))
	}
	ihdr := make([]byte, 13)
	binary.BigEndian.PutUint32(ihdr[0:], w)
	binary.BigEndian.PutUint32(ihdr[4:], h)
	ihdr[8], ihdr[9] = 8, 6
	chunk("IHDR", ihdr)
	chunk("IDAT", []byte{0x78, 0x9c})
	chunk("IEND", nil)
	return buf.Bytes()
}

func TestNormalizeRejectsHugeDimensions(t *testing.T) {
	_, format, err := Normalize(bytes.NewReader(pngHeader(1<<20, 1<<20)))
	assert.ErrorIs(t, err, container.ErrAllocationFailure)
	assert.Equal(t, "png", format)

	// just past the limit in one dimension
	_, _, err = Normalize(bytes.NewReader(pngHeader(1<<14, 1<<14+1)))
	assert.ErrorIs(t, err, container.ErrAllocationFailure)
}

func TestNormalizeTopDownBitmap(t *testing.T) {
	src := gradient(4, 2)
	var buf bytes.Buffer
	require.NoError(t, bmp.Encode(&buf, src))
	raw := buf.Bytes()
	require.Equal(t, uint16(24), binary.LittleEndian.Uint16(raw[28:]))

	// store the rows top first and flag it with a negative height
	offset := binary.LittleEndian.Uint32(raw[10:])
	rows := raw[offset:]
	stride := len(rows) / 2
	top := append([]byte(nil), rows[stride:]...)
	copy(rows[stride:], rows[:stride])
	copy(rows, top)
	binary.LittleEndian.PutUint32(raw[22:], uint32(0xFFFFFFFE))

	img, format, err := Normalize(bytes.NewReader(raw))
	require.NoError(t, err)
	assert.Equal(t, "bmp", format)
	assert.Equal(t, uint32(2), img.Info.Height)

	decoded, err := bmp.Decode(bytes.NewReader(serialize(t, img)))
	require.NoError(t, err)
	assertSameRGB(t, src, decoded)
}

func TestNormalizeRejectsGarbage(t *testing.T) {
	_, _, err := Normalize(bytes.NewReader([]byte("no image here")))
	assert.Error(t, err)
}

func TestPadded(t *testing.T) {
	tests := []struct {
		width uint32
		bpp   uint16
		want  bool
	}{
		{4, 24, false},
		{3, 24, true},
		{5, 24, true},
		{3, 32, false},
		{2, 16, false},
		{3, 16, true},
	}
	for _, tt := range tests {
		img, err := container.SynthesizeImage(tt.width, 1, tt.bpp)
		require.NoError(t, err)
		assert.Equal(t, tt.want, Padded(img), "%dx1 at %d bpp", tt.width, tt.bpp)
	}
}
