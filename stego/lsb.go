// Package stego to implement LSB
package stego

import (
	"fmt"
	"io"

	"github.com/ran4na/steg/models"
)

// LSBSteganography hides one payload bit in the least significant bit of each
// carrier unit. Payload bytes are laid out least significant bit first and
// are always followed by a zero byte that marks the end of the message.
type LSBSteganography struct {
	config *models.StegoConfig
}

func NewLSBSteganography(config *models.StegoConfig) *LSBSteganography {
	if config == nil {
		config = &models.StegoConfig{}
	}
	return &LSBSteganography{config: config}
}

func (lsb *LSBSteganography) stride() int {
	if lsb.config.SampleStride <= 1 {
		return 1
	}
	return lsb.config.SampleStride
}

// Units is the number of carrier units in carrier.
func (lsb *LSBSteganography) Units(carrier []byte) int {
	s := lsb.stride()
	return (len(carrier) + s - 1) / s
}

// CalculateCapacity is the largest payload Embed accepts. It is negative
// when not even the terminator fits.
func (lsb *LSBSteganography) CalculateCapacity(carrier []byte) int {
	return (lsb.Units(carrier)-1)/8 - 1
}

// Embed writes payload and its terminator into carrier in place. Only the
// least significant bit of the first (len(payload)+1)*8 units changes.
func (lsb *LSBSteganography) Embed(carrier []byte, payload []byte) error {
	units := lsb.Units(carrier)
	totalBits := (len(payload) + 1) * 8
	if totalBits >= units {
		return fmt.Errorf("%w: %d bits needed, %d carrier units", ErrPayloadTooLarge, totalBits, units)
	}

	stride := lsb.stride()
	for i := 0; i < totalBits; i++ {
		var bit byte
		if i/8 < len(payload) {
			bit = (payload[i/8] >> (i % 8)) & 1
		}
		pos := i * stride
		carrier[pos] = (carrier[pos] & 0xFE) | bit
	}
	return nil
}

// Extract reads bytes until the terminator. terminated is false when the
// carrier ran out first; data then holds every complete byte decoded.
func (lsb *LSBSteganography) Extract(carrier []byte) (data []byte, terminated bool) {
	data, err := io.ReadAll(lsb.NewReader(carrier))
	return data, err == nil
}

// NewWriter returns a streaming embedder over carrier.
func (lsb *LSBSteganography) NewWriter(carrier []byte) *Writer {
	return &Writer{carrier: carrier, stride: lsb.stride(), units: lsb.Units(carrier)}
}

// NewReader returns a streaming extractor over carrier.
func (lsb *LSBSteganography) NewReader(carrier []byte) *Reader {
	return &Reader{carrier: carrier, stride: lsb.stride(), units: lsb.Units(carrier)}
}
