package audio

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log"

	"github.com/bogem/id3v2"
	goaudio "github.com/go-audio/audio"
	"github.com/mewkiz/flac"
	"github.com/tosone/minimp3"

	"github.com/ran4na/steg/container"
	"github.com/ran4na/steg/models"
)

// AudioDecoder turns compressed audio hosts into WAV carriers. The stego
// output of such a host is always a WAV file.
type AudioDecoder struct{}

func NewAudioDecoder() *AudioDecoder {
	return &AudioDecoder{}
}

// DecodeMP3 decodes mp3Data to 16-bit PCM and wraps it in a WAV carrier.
func (ad *AudioDecoder) DecodeMP3(mp3Data []byte) (*container.Audio, *models.AudioMetadata, error) {
	decoder, data, err := minimp3.DecodeFull(mp3Data)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to decode MP3: %w", err)
	}
	defer decoder.Close()

	if len(data) > container.MaxCarrierBytes {
		return nil, nil, fmt.Errorf("%w: MP3 decodes to %d bytes, limit %d",
			container.ErrAllocationFailure, len(data), container.MaxCarrierBytes)
	}
	if decoder.Channels == 0 || len(data) < 2 {
		return nil, nil, fmt.Errorf("%w: MP3 decoded to no samples", container.ErrInvalidGeometry)
	}

	sampleCount := len(data) / 2
	samples := make([]int, sampleCount)
	for i := range sampleCount {
		// Little-endian 16-bit sample
		samples[i] = int(int16(uint16(data[i*2]) | uint16(data[i*2+1])<<8))
	}

	carrier, err := FromIntBuffer(&goaudio.IntBuffer{
		Format: &goaudio.Format{
			NumChannels: decoder.Channels,
			SampleRate:  decoder.SampleRate,
		},
		Data:           samples,
		SourceBitDepth: 16,
	})
	if err != nil {
		return nil, nil, err
	}

	samplesPerChannel := sampleCount / decoder.Channels
	metadata := &models.AudioMetadata{
		SampleRate: decoder.SampleRate,
		Channels:   decoder.Channels,
		BitDepth:   16,
		Duration:   float64(samplesPerChannel) / float64(decoder.SampleRate),
		TotalBytes: len(carrier.Data),
	}

	tag, err := id3v2.ParseReader(bytes.NewReader(mp3Data), id3v2.Options{Parse: true})
	if err != nil {
		log.Printf("Warning: Could not parse MP3 metadata: %v", err)
	} else {
		metadata.Title = tag.Title()
		metadata.Artist = tag.Artist()
	}

	return carrier, metadata, nil
}

// flacPrealloc caps the sample buffer reserved up front from the stream
// header. Longer streams grow it as frames arrive.
const flacPrealloc = 1 << 20

// DecodeFLAC decodes a FLAC stream and wraps it in a WAV carrier. Sample
// widths below 16 bits are widened to 16. Streams that declare or decode to
// more samples than a carrier may hold fail with
// container.ErrAllocationFailure.
func (ad *AudioDecoder) DecodeFLAC(r io.Reader) (*container.Audio, *models.AudioMetadata, error) {
	stream, err := flac.New(r)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open FLAC stream: %w", err)
	}
	defer stream.Close()

	channels := int(stream.Info.NChannels)
	bits := int(stream.Info.BitsPerSample)
	shift := 0
	if bits < 16 {
		shift, bits = 16-bits, 16
	}

	// samples end up 16 or 32 bits wide in the carrier
	width := uint64(2)
	if bits > 16 {
		width = 4
	}
	limit := uint64(container.MaxCarrierBytes) / width
	declared := stream.Info.NSamples * uint64(channels)
	if declared > limit {
		return nil, nil, fmt.Errorf("%w: FLAC stream declares %d samples, limit %d",
			container.ErrAllocationFailure, declared, limit)
	}

	samples := make([]int, 0, min(declared, flacPrealloc))
	for {
		frame, err := stream.ParseNext()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("failed to decode FLAC frame: %w", err)
		}
		if len(frame.Subframes) != channels {
			return nil, nil, fmt.Errorf("FLAC frame has %d channels, stream declares %d", len(frame.Subframes), channels)
		}
		if uint64(len(samples))+uint64(len(frame.Subframes[0].Samples)*channels) > limit {
			return nil, nil, fmt.Errorf("%w: FLAC stream decodes past %d samples",
				container.ErrAllocationFailure, limit)
		}
		for i := range frame.Subframes[0].Samples {
			for _, sub := range frame.Subframes {
				samples = append(samples, int(sub.Samples[i])<<shift)
			}
		}
	}

	carrier, err := FromIntBuffer(&goaudio.IntBuffer{
		Format: &goaudio.Format{
			NumChannels: channels,
			SampleRate:  int(stream.Info.SampleRate),
		},
		Data:           samples,
		SourceBitDepth: bits,
	})
	if err != nil {
		return nil, nil, err
	}

	metadata := &models.AudioMetadata{
		SampleRate: int(stream.Info.SampleRate),
		Channels:   channels,
		BitDepth:   int(carrier.Format.BitsPerSample),
		TotalBytes: len(carrier.Data),
	}
	if channels > 0 && stream.Info.SampleRate > 0 {
		metadata.Duration = float64(len(samples)/channels) / float64(stream.Info.SampleRate)
	}
	return carrier, metadata, nil
}
