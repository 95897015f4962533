package handlers

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"log"

	"github.com/ran4na/steg/adapter"
	"github.com/ran4na/steg/container"
	"github.com/ran4na/steg/imaging"
	"github.com/ran4na/steg/models"
	"github.com/ran4na/steg/mp3parser"
)

// host is an uploaded cover file turned into a container the adapter can
// use directly.
type host struct {
	format   adapter.Format
	kind     string
	image    *container.Image
	audio    *container.Audio
	metadata *models.AudioMetadata
}

func (h *host) job() *adapter.Job {
	return &adapter.Job{Image: h.image, Audio: h.audio}
}

// nominalBits is the raw bit size of the carrier region.
func (h *host) nominalBits() uint64 {
	if h.image != nil {
		return h.image.CapacityBits()
	}
	return uint64(h.audio.DataHeader.Size) * 8
}

func isWAV(data []byte) bool {
	return len(data) >= 12 && string(data[:4]) == "RIFF" && string(data[8:12]) == "WAVE"
}

func isBMP(data []byte) bool {
	return len(data) >= 2 && data[0] == 'B' && data[1] == 'M'
}

// isTopDown reports whether a bitmap declares a negative height, which
// stores rows top first.
func isTopDown(data []byte) bool {
	return len(data) >= 26 && int32(binary.LittleEndian.Uint32(data[22:26])) < 0
}

func isMP3(data []byte) bool {
	_, err := mp3parser.Probe(data)
	return err == nil
}

func isFLAC(data []byte) bool {
	return len(data) >= 4 && string(data[:4]) == "fLaC"
}

// loadCover accepts any supported cover file. Files the strict parsers
// reject are transcoded: compressed audio and unusual WAV layouts become
// PCM WAV, other images become uncompressed bitmaps.
func (h *StegoHandler) loadCover(data []byte) (*host, error) {
	switch {
	case isBMP(data):
		if isTopDown(data) {
			return h.normalizeImage(data)
		}
		img, err := container.ParseImage(bytes.NewReader(data))
		if err == nil && !imaging.Padded(img) {
			return &host{format: adapter.FormatImage, kind: "bmp", image: img}, nil
		}
		if err == nil && img.Info.BitsPerPixel == 16 {
			// x/image/bmp cannot decode 16-bit bitmaps
			return nil, fmt.Errorf("%w: 16-bit bitmap rows must be a multiple of 4 bytes, width %d is odd",
				errUnsupportedHost, img.Info.Width)
		}
		if err != nil && !errors.Is(err, container.ErrUnsupportedBitDepth) && !errors.Is(err, container.ErrUnsupportedCompression) {
			return nil, err
		}
		return h.normalizeImage(data)

	case isWAV(data):
		a, err := container.ParseAudio(bytes.NewReader(data))
		if err == nil {
			return &host{format: adapter.FormatAudio, kind: "wav", audio: a}, nil
		}
		normalized, nerr := h.audioDecoder.NormalizeWAV(bytes.NewReader(data))
		if nerr != nil {
			log.Printf("Warning: WAV host could not be normalized: %v", nerr)
			return nil, err
		}
		return &host{format: adapter.FormatAudio, kind: "wav", audio: normalized}, nil

	case isFLAC(data):
		a, meta, err := h.audioDecoder.DecodeFLAC(bytes.NewReader(data))
		if err != nil {
			return nil, err
		}
		return &host{format: adapter.FormatAudio, kind: "flac", audio: a, metadata: meta}, nil

	case isMP3(data):
		a, meta, err := h.audioDecoder.DecodeMP3(data)
		if err != nil {
			return nil, err
		}
		return &host{format: adapter.FormatAudio, kind: "mp3", audio: a, metadata: meta}, nil
	}
	return h.normalizeImage(data)
}

func (h *StegoHandler) normalizeImage(data []byte) (*host, error) {
	img, kind, err := imaging.Normalize(bytes.NewReader(data))
	if errors.Is(err, container.ErrAllocationFailure) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("%w: unsupported cover file: %v", errUnsupportedHost, err)
	}
	return &host{format: adapter.FormatImage, kind: kind, image: img}, nil
}

// loadStego accepts only the containers an embed produces. Transcoding
// would destroy the hidden bits.
func loadStego(data []byte) (*host, error) {
	switch {
	case isBMP(data):
		img, err := container.ParseImage(bytes.NewReader(data))
		if err != nil {
			return nil, err
		}
		return &host{format: adapter.FormatImage, kind: "bmp", image: img}, nil
	case isWAV(data):
		a, err := container.ParseAudio(bytes.NewReader(data))
		if err != nil {
			return nil, err
		}
		return &host{format: adapter.FormatAudio, kind: "wav", audio: a}, nil
	}
	return nil, fmt.Errorf("%w: stego file must be a BMP or WAV file", errUnsupportedHost)
}
