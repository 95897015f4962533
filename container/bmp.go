// Package container reads, writes and synthesizes the two host formats used
// as carriers: uncompressed BMP images and canonical PCM WAV files.
//
// Headers are decoded field by field from their packed little-endian on-disk
// layout. Each container owns its carrier buffer; the codec borrows it for a
// single embed or extract pass.
package container

import (
	"encoding/binary"
	"fmt"
	"io"
)

const (
	FileHeaderSize = 14
	InfoHeaderSize = 40
	// BitmapHeaderSize is the offset of pixel data in a bitmap with no
	// color table.
	BitmapHeaderSize = FileHeaderSize + InfoHeaderSize

	// BitmapSignature is "BM" read as a little-endian uint16.
	BitmapSignature uint16 = 0x4D42

	defaultPixelsPerMeter = 72
)

// FileHeader is the 14-byte BITMAPFILEHEADER.
type FileHeader struct {
	Signature  uint16
	FileSize   uint32
	Reserved1  uint16
	Reserved2  uint16
	DataOffset uint32
}

// InfoHeader is the 40-byte BITMAPINFOHEADER.
type InfoHeader struct {
	HeaderSize      uint32
	Width           uint32
	Height          uint32
	Planes          uint16
	BitsPerPixel    uint16
	Compression     uint32
	ImageSize       uint32
	XPixelsPerMeter uint32
	YPixelsPerMeter uint32
	ColorsUsed      uint32
	ImportantColors uint32
}

// Image is a parsed or synthesized bitmap.
type Image struct {
	File FileHeader
	Info InfoHeader
	// Extra holds whatever sits between the info header and the pixel data
	// (color masks, color table). It is written back unchanged.
	Extra []byte
	// Data is the carrier buffer. Synthesized images round it up to a
	// multiple of 4, so it can be longer than PixelBytes.
	Data []byte
}

func pixelBytes(width, height uint32, bpp uint16) uint64 {
	return uint64(width) * uint64(height) * uint64(bpp/8)
}

// ParseImage reads a bitmap from r. Only uncompressed bitmaps with at least
// 16 bits per pixel are accepted.
func ParseImage(r io.Reader) (*Image, error) {
	var fh FileHeader
	if err := readPacked(r, &fh, "bitmap file header"); err != nil {
		return nil, err
	}
	if fh.Signature != BitmapSignature {
		return nil, fmt.Errorf("%w: bitmap signature 0x%04X", ErrBadMagic, fh.Signature)
	}

	var ih InfoHeader
	if err := readPacked(r, &ih, "bitmap info header"); err != nil {
		return nil, err
	}
	if ih.Compression != 0 {
		return nil, fmt.Errorf("%w: compression type %d", ErrUnsupportedCompression, ih.Compression)
	}
	if ih.BitsPerPixel < 16 || ih.BitsPerPixel%8 != 0 {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedBitDepth, ih.BitsPerPixel)
	}
	if fh.DataOffset < BitmapHeaderSize {
		return nil, fmt.Errorf("%w: offset %d", ErrBadOffset, fh.DataOffset)
	}

	extraLen := uint64(fh.DataOffset) - BitmapHeaderSize
	size := pixelBytes(ih.Width, ih.Height, ih.BitsPerPixel)
	if err := checkCarrierSize(extraLen + size); err != nil {
		return nil, err
	}

	img := &Image{File: fh, Info: ih}
	if extraLen > 0 {
		img.Extra = make([]byte, extraLen)
		if _, err := io.ReadFull(r, img.Extra); err != nil {
			return nil, truncated(err, "bitmap color table")
		}
	}

	data := make([]byte, size)
	if _, err := io.ReadFull(r, data); err != nil {
		return nil, truncated(err, "bitmap pixel data")
	}
	img.Data = data
	return img, nil
}

// SynthesizeImage builds a blank bitmap of the given geometry.
//
// FileSize is set to width*height*bpp, which is neither a byte count nor
// inclusive of the headers. Readers ignore the field in practice and existing
// stego images carry this value, so it is kept.
func SynthesizeImage(width, height uint32, bpp uint16) (*Image, error) {
	if width == 0 || height == 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidGeometry, width, height)
	}
	switch bpp {
	case 16, 24, 32:
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedBitDepth, bpp)
	}

	size := pixelBytes(width, height, bpp)
	size = (size + 3) &^ 3
	if err := checkCarrierSize(size); err != nil {
		return nil, err
	}

	return &Image{
		File: FileHeader{
			Signature:  BitmapSignature,
			FileSize:   width * height * uint32(bpp),
			DataOffset: BitmapHeaderSize,
		},
		Info: InfoHeader{
			HeaderSize:      InfoHeaderSize,
			Width:           width,
			Height:          height,
			Planes:          1,
			BitsPerPixel:    bpp,
			XPixelsPerMeter: defaultPixelsPerMeter,
			YPixelsPerMeter: defaultPixelsPerMeter,
			ColorsUsed:      uint32(uint64(1)<<bpp - 1),
		},
		Data: make([]byte, size),
	}, nil
}

// PixelBytes is the pixel data length the headers declare.
func (img *Image) PixelBytes() int {
	return int(pixelBytes(img.Info.Width, img.Info.Height, img.Info.BitsPerPixel))
}

// Carrier returns the declared pixel bytes. The slice aliases img.Data.
func (img *Image) Carrier() []byte {
	n := min(img.PixelBytes(), len(img.Data))
	return img.Data[:n]
}

// CapacityBits is the nominal bit capacity width*height*bitsPerPixel. One
// payload bit consumes a whole carrier byte, so the usable capacity is the
// length of Carrier, not this figure.
func (img *Image) CapacityBits() uint64 {
	return uint64(img.Info.Width) * uint64(img.Info.Height) * uint64(img.Info.BitsPerPixel)
}

// WriteTo writes the file header, info header, any extra header bytes and the
// declared pixel bytes.
func (img *Image) WriteTo(w io.Writer) (int64, error) {
	var n int64
	if err := binary.Write(w, binary.LittleEndian, &img.File); err != nil {
		return n, fmt.Errorf("write bitmap file header: %w", err)
	}
	n += FileHeaderSize
	if err := binary.Write(w, binary.LittleEndian, &img.Info); err != nil {
		return n, fmt.Errorf("write bitmap info header: %w", err)
	}
	n += InfoHeaderSize

	for _, chunk := range [][]byte{img.Extra, img.Carrier()} {
		m, err := w.Write(chunk)
		n += int64(m)
		if err != nil {
			return n, fmt.Errorf("write bitmap data: %w", err)
		}
	}
	return n, nil
}

// Clone returns a deep copy.
func (img *Image) Clone() *Image {
	c := *img
	c.Extra = append([]byte(nil), img.Extra...)
	c.Data = append([]byte(nil), img.Data...)
	return &c
}
