package adapter

import (
	"errors"
	"fmt"

	"github.com/ran4na/steg/audio"
	"github.com/ran4na/steg/container"
	"github.com/ran4na/steg/models"
	"github.com/ran4na/steg/stego"
)

// Defaults for a synthesized WAV carrier.
const (
	DefaultChannels      = 1
	DefaultSampleRate    = 44100
	DefaultBitsPerSample = 16
)

// EncodeAudio embeds the job payload in a WAV carrier and writes the WAV
// file to the job output.
//
// In AudioRaw mode every byte of a host's data region is a carrier unit. In
// AudioWaveform mode each sample carries one bit in its low byte; the samples
// are first rasterized from job.Waveform when one is given, otherwise the
// host's samples are used unchanged. A synthesized carrier is always filled from a waveform, a generated
// tone when the job has none.
func EncodeAudio(job *Job) (*Report, error) {
	a, synthesized, err := loadAudio(job, true)
	if err != nil {
		return nil, err
	}

	// a host without job.Waveform keeps its own samples as they are
	if synthesized || (job.Mode == AudioWaveform && job.Waveform != nil) {
		wave := job.Waveform
		if wave == nil {
			tone := audio.Tone{
				SampleRate:     a.Format.SampleRate,
				BytesPerSample: a.BytesPerSample(),
				Amplitude:      audio.DefaultAmplitude(a.Format.BitsPerSample),
			}
			wave = tone.Generate(a.SampleCount())
		}
		if err := audio.WriteWaveform(a, wave); err != nil {
			return nil, err
		}
	}

	lsb, err := audioCodec(a, job.Mode)
	if err != nil {
		return nil, err
	}
	original := a.Clone()

	n, err := embed(lsb, a.Data, job)
	if err != nil {
		return nil, err
	}

	psnr := stego.CalculatePSNR(original.Data, a.Data)
	if a.CheckSampleWidth() == nil {
		if psnr, err = audio.CalculateSamplePSNR(original, a); err != nil {
			return nil, err
		}
	}

	written, err := a.WriteTo(output(job))
	if err != nil {
		return nil, err
	}
	return &Report{
		CarrierUnits: lsb.Units(a.Data),
		Capacity:     lsb.CalculateCapacity(a.Data),
		PayloadBytes: n,
		Terminated:   true,
		PSNR:         psnr,
		OutputBytes:  written,
	}, nil
}

// DecodeAudio streams the message hidden in a WAV host to the job output.
// job.Mode must match the mode used to embed it.
func DecodeAudio(job *Job) (*Report, error) {
	a, _, err := loadAudio(job, false)
	if err != nil {
		return nil, err
	}
	lsb, err := audioCodec(a, job.Mode)
	if err != nil {
		return nil, err
	}
	return extract(lsb, a.Data, job)
}

// InspectAudio reports the capacity of a WAV host in job.Mode.
func InspectAudio(job *Job) (*Report, error) {
	a, _, err := loadAudio(job, false)
	if err != nil {
		return nil, err
	}
	lsb, err := audioCodec(a, job.Mode)
	if err != nil {
		return nil, err
	}
	return &Report{
		Operation:    Operation{FormatAudio, Encode},
		CarrierUnits: lsb.Units(a.Data),
		Capacity:     lsb.CalculateCapacity(a.Data),
	}, nil
}

func audioCodec(a *container.Audio, mode AudioMode) (*stego.LSBSteganography, error) {
	if mode != AudioWaveform {
		return stego.NewLSBSteganography(nil), nil
	}
	if err := a.CheckSampleWidth(); err != nil {
		return nil, err
	}
	return stego.NewLSBSteganography(&models.StegoConfig{SampleStride: a.BytesPerSample()}), nil
}

func loadAudio(job *Job, synthesize bool) (*container.Audio, bool, error) {
	switch {
	case job.Audio != nil:
		return job.Audio, false, nil
	case job.Host != nil:
		a, err := container.ParseAudio(job.Host)
		if err != nil {
			return nil, false, fmt.Errorf("parse WAV host: %w", err)
		}
		return a, false, nil
	case synthesize:
		a, err := synthesizeAudio(job)
		return a, err == nil, err
	}
	return nil, false, errors.New("no WAV host")
}

func synthesizeAudio(job *Job) (*container.Audio, error) {
	p := job.AudioParams
	if p.Channels == 0 {
		p.Channels = DefaultChannels
	}
	if p.SampleRate == 0 {
		p.SampleRate = DefaultSampleRate
	}
	if p.BitsPerSample == 0 {
		p.BitsPerSample = DefaultBitsPerSample
	}
	if !container.SupportedSampleWidth(p.BitsPerSample) {
		return nil, fmt.Errorf("%w: %d bits", container.ErrUnsupportedSampleWidth, p.BitsPerSample)
	}
	bps := uint64(p.BitsPerSample / 8)

	frames := uint64(p.Samples)
	if frames == 0 {
		if job.Payload == nil && job.PayloadStream != nil {
			return nil, fmt.Errorf("%w: sample count needed for a streamed payload", container.ErrInvalidGeometry)
		}
		// one unit more than the payload and terminator need
		units := uint64(len(job.Payload)+1)*8 + 1
		samples := units
		if job.Mode != AudioWaveform {
			samples = (units + bps - 1) / bps
		}
		frames = (samples + uint64(p.Channels) - 1) / uint64(p.Channels)
	}

	dataLen := frames * uint64(p.Channels) * bps
	if dataLen > container.MaxCarrierBytes {
		return nil, fmt.Errorf("%w: %d bytes of samples", container.ErrAllocationFailure, dataLen)
	}
	return container.SynthesizeAudio(uint32(dataLen), p.Channels, p.SampleRate, p.BitsPerSample)
}
