package audio

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/ran4na/steg/container"
)

// Clamp limits value to [lo, hi].
func Clamp(value, lo, hi float64) float64 {
	if value < lo {
		return lo
	}
	if value > hi {
		return hi
	}
	return value
}

// FullScale is the largest magnitude a signed sample of the given width can
// take.
func FullScale(bits uint16) float64 {
	switch bits {
	case 8:
		return 127
	case 16:
		return math.MaxInt16
	case 32:
		return math.MaxInt32
	}
	return 0
}

// Rasterize clamps sample to the signed range of the sample width, truncates
// it to an integer and stores it in dst as one little-endian PCM sample.
// 8-bit samples are stored unsigned with a bias of 128.
func Rasterize(dst []byte, sample float64, bits uint16) error {
	if math.IsNaN(sample) {
		sample = 0
	}
	switch bits {
	case 8:
		dst[0] = uint8(int(Clamp(sample, -128, 127)) + 128)
	case 16:
		binary.LittleEndian.PutUint16(dst, uint16(int16(Clamp(sample, -math.MaxInt16, math.MaxInt16))))
	case 32:
		binary.LittleEndian.PutUint32(dst, uint32(int32(Clamp(sample, -math.MaxInt32, math.MaxInt32))))
	default:
		return fmt.Errorf("%w: %d bits", container.ErrUnsupportedSampleWidth, bits)
	}
	return nil
}

// SampleValue reads one little-endian PCM sample from src as a signed value.
func SampleValue(src []byte, bits uint16) float64 {
	switch bits {
	case 8:
		return float64(int(src[0]) - 128)
	case 16:
		return float64(int16(binary.LittleEndian.Uint16(src)))
	case 32:
		return float64(int32(binary.LittleEndian.Uint32(src)))
	}
	return 0
}

// WriteWaveform rasterizes wave into every sample of a. Samples past the end
// of wave are written as silence.
func WriteWaveform(a *container.Audio, wave []float64) error {
	if err := a.CheckSampleWidth(); err != nil {
		return err
	}
	bits := a.Format.BitsPerSample
	bps := a.BytesPerSample()
	for i := 0; i < a.SampleCount(); i++ {
		var s float64
		if i < len(wave) {
			s = wave[i]
		}
		if err := Rasterize(a.Data[i*bps:], s, bits); err != nil {
			return err
		}
	}
	return nil
}

// Samples returns every sample of a as a signed value, channels interleaved.
func Samples(a *container.Audio) ([]float64, error) {
	if err := a.CheckSampleWidth(); err != nil {
		return nil, err
	}
	bits := a.Format.BitsPerSample
	bps := a.BytesPerSample()
	out := make([]float64, a.SampleCount())
	for i := range out {
		out[i] = SampleValue(a.Data[i*bps:], bits)
	}
	return out, nil
}
