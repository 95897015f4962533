package container

import (
	"encoding/binary"
	"fmt"
	"io"
	"log"
)

// Chunk tags as they read from disk as little-endian uint32s.
const (
	TagRIFF uint32 = 0x46464952 // "RIFF"
	TagWAVE uint32 = 0x45564157 // "WAVE"
	TagFmt  uint32 = 0x20746D66 // "fmt "
	TagData uint32 = 0x61746164 // "data"
)

const (
	RIFFHeaderSize   = 12
	FormatHeaderSize = 24
	DataHeaderSize   = 8
	WaveHeaderSize   = RIFFHeaderSize + FormatHeaderSize + DataHeaderSize

	FormatPCM uint16 = 1

	pcmFormatSize = 16
	// riffSizeOverhead is what the RIFF size field counts besides the data
	// region: the WAVE tag, the format chunk and the data chunk header.
	riffSizeOverhead = 36
)

type RIFFHeader struct {
	ID     uint32
	Size   uint32
	Format uint32
}

type FormatHeader struct {
	ID            uint32
	Size          uint32
	AudioFormat   uint16
	NumChannels   uint16
	SampleRate    uint32
	ByteRate      uint32
	BlockAlign    uint16
	BitsPerSample uint16
}

type DataHeader struct {
	ID   uint32
	Size uint32
}

// Audio is a canonical 44-byte-header PCM WAV file. Data is the carrier
// buffer and is treated as a flat byte array regardless of channel count.
type Audio struct {
	RIFF       RIFFHeader
	Format     FormatHeader
	DataHeader DataHeader
	Data       []byte
}

// SupportedSampleWidth reports whether bits is a sample width the sample
// aware operations can rasterize.
func SupportedSampleWidth(bits uint16) bool {
	switch bits {
	case 8, 16, 32:
		return true
	}
	return false
}

// ParseAudio reads a canonical PCM WAV file from r. An unsupported sample
// width is only logged here; CheckSampleWidth reports it to the operations
// that depend on it.
func ParseAudio(r io.Reader) (*Audio, error) {
	var riff RIFFHeader
	if err := readPacked(r, &riff, "RIFF header"); err != nil {
		return nil, err
	}
	if riff.ID != TagRIFF || riff.Format != TagWAVE {
		return nil, fmt.Errorf("%w: RIFF id 0x%08X, format 0x%08X", ErrBadMagic, riff.ID, riff.Format)
	}

	var format FormatHeader
	if err := readPacked(r, &format, "fmt chunk"); err != nil {
		return nil, err
	}
	if format.ID != TagFmt {
		return nil, fmt.Errorf("%w: fmt chunk id 0x%08X", ErrBadMagic, format.ID)
	}
	if format.Size != pcmFormatSize || format.AudioFormat != FormatPCM {
		return nil, fmt.Errorf("%w: fmt size %d, audio format %d", ErrNotPCM, format.Size, format.AudioFormat)
	}
	if !SupportedSampleWidth(format.BitsPerSample) {
		log.Printf("Warning: %d-bit samples are not supported, only raw byte embedding will work", format.BitsPerSample)
	}

	var data DataHeader
	if err := readPacked(r, &data.ID, "data chunk id"); err != nil {
		return nil, err
	}
	if data.ID != TagData {
		return nil, fmt.Errorf("%w: id 0x%08X", ErrBadDataBlock, data.ID)
	}
	if err := readPacked(r, &data.Size, "data chunk size"); err != nil {
		return nil, err
	}
	if err := checkCarrierSize(uint64(data.Size)); err != nil {
		return nil, err
	}

	buf := make([]byte, data.Size)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, truncated(err, "sample data")
	}

	return &Audio{
		RIFF:       riff,
		Format:     format,
		DataHeader: data,
		Data:       buf,
	}, nil
}

// SynthesizeAudio builds a PCM WAV file holding dataLen zeroed bytes.
func SynthesizeAudio(dataLen uint32, channels uint16, sampleRate uint32, bitsPerSample uint16) (*Audio, error) {
	if channels == 0 {
		return nil, fmt.Errorf("%w: zero channels", ErrInvalidGeometry)
	}
	if !SupportedSampleWidth(bitsPerSample) {
		return nil, fmt.Errorf("%w: %d bits", ErrUnsupportedSampleWidth, bitsPerSample)
	}
	if err := checkCarrierSize(uint64(dataLen)); err != nil {
		return nil, err
	}

	bytesPerSample := uint32(bitsPerSample / 8)
	return &Audio{
		RIFF: RIFFHeader{
			ID:     TagRIFF,
			Size:   dataLen + riffSizeOverhead,
			Format: TagWAVE,
		},
		Format: FormatHeader{
			ID:            TagFmt,
			Size:          pcmFormatSize,
			AudioFormat:   FormatPCM,
			NumChannels:   channels,
			SampleRate:    sampleRate,
			ByteRate:      sampleRate * uint32(channels) * bytesPerSample,
			BlockAlign:    channels * uint16(bytesPerSample),
			BitsPerSample: bitsPerSample,
		},
		DataHeader: DataHeader{
			ID:   TagData,
			Size: dataLen,
		},
		Data: make([]byte, dataLen),
	}, nil
}

// BytesPerSample is the width of one sample of one channel.
func (a *Audio) BytesPerSample() int {
	return int(a.Format.BitsPerSample / 8)
}

// SampleCount is the number of whole samples in the data region, counting
// every channel.
func (a *Audio) SampleCount() int {
	bps := a.BytesPerSample()
	if bps == 0 {
		return 0
	}
	return len(a.Data) / bps
}

// CheckSampleWidth returns ErrUnsupportedSampleWidth unless the samples are
// 8, 16 or 32 bits wide.
func (a *Audio) CheckSampleWidth() error {
	if !SupportedSampleWidth(a.Format.BitsPerSample) {
		return fmt.Errorf("%w: %d bits", ErrUnsupportedSampleWidth, a.Format.BitsPerSample)
	}
	return nil
}

// WriteTo writes the headers exactly as held in memory followed by the data
// region. No size field is recomputed.
func (a *Audio) WriteTo(w io.Writer) (int64, error) {
	var n int64
	headers := []struct {
		v    any
		size int64
		what string
	}{
		{&a.RIFF, RIFFHeaderSize, "RIFF header"},
		{&a.Format, FormatHeaderSize, "fmt chunk"},
		{&a.DataHeader, DataHeaderSize, "data chunk header"},
	}
	for _, h := range headers {
		if err := binary.Write(w, binary.LittleEndian, h.v); err != nil {
			return n, fmt.Errorf("write %s: %w", h.what, err)
		}
		n += h.size
	}

	m, err := w.Write(a.Data)
	n += int64(m)
	if err != nil {
		return n, fmt.Errorf("write sample data: %w", err)
	}
	return n, nil
}

// Clone returns a deep copy.
func (a *Audio) Clone() *Audio {
	c := *a
	c.Data = append([]byte(nil), a.Data...)
	return &c
}
