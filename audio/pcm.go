package audio

import (
	"fmt"
	"io"
	"os"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/ran4na/steg/container"
)

const wavFormatExtensible = 0xFFFE

// ToIntBuffer converts the data region of a to a go-audio buffer of signed
// sample values.
func ToIntBuffer(a *container.Audio) (*goaudio.IntBuffer, error) {
	samples, err := Samples(a)
	if err != nil {
		return nil, err
	}
	data := make([]int, len(samples))
	for i, s := range samples {
		data[i] = int(s)
	}
	return &goaudio.IntBuffer{
		Format: &goaudio.Format{
			NumChannels: int(a.Format.NumChannels),
			SampleRate:  int(a.Format.SampleRate),
		},
		Data:           data,
		SourceBitDepth: int(a.Format.BitsPerSample),
	}, nil
}

// FromIntBuffer encodes buf as a canonical PCM WAV file with the go-audio
// encoder and parses the result. 24-bit sources are widened to 32 bits so
// that the sample aware embedding modes can use them.
func FromIntBuffer(buf *goaudio.IntBuffer) (*container.Audio, error) {
	if buf == nil || buf.Format == nil || buf.Format.NumChannels == 0 {
		return nil, fmt.Errorf("%w: empty PCM buffer", container.ErrInvalidGeometry)
	}

	bitDepth := buf.SourceBitDepth
	switch bitDepth {
	case 8, 16, 32:
	case 24:
		data := make([]int, len(buf.Data))
		for i, v := range buf.Data {
			data[i] = v << 8
		}
		buf = &goaudio.IntBuffer{Format: buf.Format, Data: data, SourceBitDepth: 32}
		bitDepth = 32
	default:
		return nil, fmt.Errorf("%w: %d bits", container.ErrUnsupportedSampleWidth, bitDepth)
	}

	// wav.NewEncoder needs a WriteSeeker to patch the chunk sizes on Close
	tempFile, err := os.CreateTemp("", "carrier_*.wav")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tempFile.Name())
	defer tempFile.Close()

	encoder := wav.NewEncoder(tempFile, buf.Format.SampleRate, bitDepth, buf.Format.NumChannels, int(container.FormatPCM))
	if err := encoder.Write(buf); err != nil {
		return nil, fmt.Errorf("failed to encode WAV: %w", err)
	}
	if err := encoder.Close(); err != nil {
		return nil, fmt.Errorf("failed to close WAV encoder: %w", err)
	}

	if _, err := tempFile.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("failed to rewind WAV data: %w", err)
	}
	return container.ParseAudio(tempFile)
}

// NormalizeWAV decodes any PCM WAV file go-audio understands (extra chunks,
// extensible format header, 24-bit samples) and rewrites it as a canonical
// carrier.
func (ad *AudioDecoder) NormalizeWAV(r io.ReadSeeker) (*container.Audio, error) {
	decoder := wav.NewDecoder(r)
	if !decoder.IsValidFile() {
		return nil, fmt.Errorf("%w: not a WAV file", container.ErrBadMagic)
	}
	if decoder.WavAudioFormat != container.FormatPCM && decoder.WavAudioFormat != wavFormatExtensible {
		return nil, fmt.Errorf("%w: audio format %d", container.ErrNotPCM, decoder.WavAudioFormat)
	}

	buf, err := decoder.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to decode WAV: %w", err)
	}
	if buf.SourceBitDepth == 0 {
		buf.SourceBitDepth = int(decoder.BitDepth)
	}
	return FromIntBuffer(buf)
}
