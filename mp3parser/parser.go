// Package mp3parser recognizes MP3 hosts: an optional ID3v2 tag followed by
// MPEG audio Layer III frames.
package mp3parser

import (
	"encoding/binary"
	"errors"
	"fmt"
)

const (
	id3v2HeaderSize = 10
	frameHeaderSize = 4
)

var ErrNoFrame = errors.New("mp3parser: no MPEG audio frame")

// ID3v2Header represents ID3v2 tag header
type ID3v2Header struct {
	Version [2]byte
	Flags   byte
	Size    int
}

// FrameHeader represents an MP3 frame header
type FrameHeader struct {
	VersionID     int
	Layer         int
	ProtectionBit bool
	Bitrate       int
	SampleRate    int
	Padding       bool
	ChannelMode   int
	FrameLength   int
}

// Channels is 1 for mono frames and 2 otherwise.
func (h *FrameHeader) Channels() int {
	if h.ChannelMode == channelModeMono {
		return 1
	}
	return 2
}

const (
	versionMPEG25   = 0
	versionMPEG2    = 2
	versionMPEG1    = 3
	layerIII        = 1
	channelModeMono = 3
)

var (
	bitrateMPEG1 = [16]int{0, 32, 40, 48, 56, 64, 80, 96, 112, 128, 160, 192, 224, 256, 320, 0}
	bitrateMPEG2 = [16]int{0, 8, 16, 24, 32, 40, 48, 56, 64, 80, 96, 112, 128, 144, 160, 0}

	sampleRates = map[int][4]int{
		versionMPEG1:  {44100, 48000, 32000, 0},
		versionMPEG2:  {22050, 24000, 16000, 0},
		versionMPEG25: {11025, 12000, 8000, 0},
	}
)

// read syncsafe int for ID3v2 size
func syncSafeToInt(b []byte) int {
	return int(b[0]&0x7F)<<21 |
		int(b[1]&0x7F)<<14 |
		int(b[2]&0x7F)<<7 |
		int(b[3]&0x7F)
}

// SkipID3v2 splits a leading ID3v2 tag off data. The header is nil when
// there is none.
func SkipID3v2(data []byte) (*ID3v2Header, []byte, error) {
	if len(data) < id3v2HeaderSize || string(data[:3]) != "ID3" {
		return nil, data, nil
	}
	h := &ID3v2Header{
		Version: [2]byte{data[3], data[4]},
		Flags:   data[5],
		Size:    syncSafeToInt(data[6:10]),
	}
	end := id3v2HeaderSize + h.Size
	if end > len(data) {
		return nil, nil, fmt.Errorf("mp3parser: ID3v2 tag of %d bytes exceeds file", h.Size)
	}
	return h, data[end:], nil
}

// ParseFrameHeader decodes the 4-byte header at the start of b.
func ParseFrameHeader(b []byte) (*FrameHeader, error) {
	if len(b) < frameHeaderSize {
		return nil, ErrNoFrame
	}
	header := binary.BigEndian.Uint32(b)

	// check sync
	if (header & 0xFFE00000) != 0xFFE00000 {
		return nil, fmt.Errorf("%w: invalid sync word 0x%08X", ErrNoFrame, header)
	}

	versionID := int((header >> 19) & 0x3)
	layer := int((header >> 17) & 0x3)
	prot := ((header >> 16) & 0x1) == 0
	bitrateIdx := int((header >> 12) & 0xF)
	sampleRateIdx := int((header >> 10) & 0x3)
	padding := ((header >> 9) & 0x1) == 1
	channelMode := int((header >> 6) & 0x3)

	rates, ok := sampleRates[versionID]
	if !ok || layer != layerIII {
		return nil, fmt.Errorf("%w: version %d layer %d", ErrNoFrame, versionID, layer)
	}

	bitrateTable, coefficient := bitrateMPEG1, 144
	if versionID != versionMPEG1 {
		bitrateTable, coefficient = bitrateMPEG2, 72
	}
	bitrate := bitrateTable[bitrateIdx] * 1000
	sampleRate := rates[sampleRateIdx]

	if bitrate == 0 || sampleRate == 0 {
		return nil, fmt.Errorf("%w: unsupported bitrate or samplerate", ErrNoFrame)
	}

	return &FrameHeader{
		VersionID:     versionID,
		Layer:         layer,
		ProtectionBit: prot,
		Bitrate:       bitrate,
		SampleRate:    sampleRate,
		Padding:       padding,
		ChannelMode:   channelMode,
		FrameLength:   (coefficient*bitrate)/sampleRate + btoi(padding),
	}, nil
}

// Probe reports the first frame of data when it looks like an MP3 stream.
// When the file is long enough the frame that follows must also parse, so
// a stray sync word is not mistaken for audio.
func Probe(data []byte) (*FrameHeader, error) {
	_, rest, err := SkipID3v2(data)
	if err != nil {
		return nil, err
	}
	first, err := ParseFrameHeader(rest)
	if err != nil {
		return nil, err
	}
	if next := rest[min(first.FrameLength, len(rest)):]; len(next) >= frameHeaderSize {
		if _, err := ParseFrameHeader(next); err != nil {
			return nil, fmt.Errorf("second frame: %w", err)
		}
	}
	return first, nil
}

func btoi(b bool) int {
	if b {
		return 1
	}
	return 0
}
