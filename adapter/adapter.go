// Package adapter drives a whole encode or decode pass over one host:
// obtain or synthesize the container, hand its carrier bytes to the LSB
// codec, then serialize the container or stream the recovered payload.
package adapter

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/ran4na/steg/container"
	"github.com/ran4na/steg/stego"
)

type Format int

const (
	FormatImage Format = iota
	FormatAudio
)

func (f Format) String() string {
	switch f {
	case FormatImage:
		return "image"
	case FormatAudio:
		return "audio"
	}
	return fmt.Sprintf("Format(%d)", int(f))
}

type Direction int

const (
	Encode Direction = iota
	Decode
)

func (d Direction) String() string {
	if d == Decode {
		return "decode"
	}
	return "encode"
}

// Operation selects one of the four passes Run knows about.
type Operation struct {
	Format    Format
	Direction Direction
}

func (op Operation) String() string {
	return op.Format.String() + " " + op.Direction.String()
}

// AudioMode picks which bytes of a WAV data region carry the payload.
type AudioMode int

const (
	// AudioRaw uses every byte of the data region and leaves everything but
	// the least significant bits as they were.
	AudioRaw AudioMode = iota
	// AudioWaveform writes every sample from a waveform first and then
	// carries one bit in the low bit of each sample.
	AudioWaveform
)

func (m AudioMode) String() string {
	if m == AudioWaveform {
		return "waveform"
	}
	return "raw"
}

// ParseAudioMode accepts "raw", "waveform" and the empty string, which
// means raw.
func ParseAudioMode(s string) (AudioMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "raw":
		return AudioRaw, nil
	case "waveform", "sample":
		return AudioWaveform, nil
	}
	return AudioRaw, fmt.Errorf("unknown audio mode %q", s)
}

// ImageGeometry describes a bitmap to synthesize when an image encode has
// no host.
type ImageGeometry struct {
	Width        uint32
	Height       uint32
	BitsPerPixel uint16
}

// AudioParams describes a WAV carrier to synthesize when an audio encode
// has no host. A zero Samples sizes the carrier to fit the payload, which
// needs a fixed payload.
type AudioParams struct {
	Channels      uint16
	SampleRate    uint32
	BitsPerSample uint16
	Samples       uint32
}

// Job holds everything one pass reads and writes.
//
// The host is taken from Image or Audio when set, otherwise parsed from
// Host. With neither, an encode synthesizes a fresh carrier; a decode fails.
type Job struct {
	Host  io.Reader
	Image *container.Image
	Audio *container.Audio

	Geometry    ImageGeometry
	AudioParams AudioParams
	Mode        AudioMode
	// Waveform replaces the host samples in AudioWaveform mode. Without a
	// host and without a waveform a cover tone is generated.
	Waveform []float64

	// Payload is embedded with a capacity check up front. PayloadStream,
	// used when Payload is nil, is embedded as it arrives and can run out
	// of carrier part way.
	Payload       []byte
	PayloadStream io.Reader

	// Output receives the serialized container on encode and the recovered
	// payload on decode.
	Output io.Writer
}

// Report describes a finished pass.
type Report struct {
	Operation    Operation
	CarrierUnits int
	// Capacity is the largest fixed payload the carrier accepts.
	Capacity     int
	PayloadBytes int
	// Terminated is false when a decode ran out of carrier before the end
	// of message marker.
	Terminated bool
	PSNR       float64
	// OutputBytes counts what was written to Job.Output.
	OutputBytes int64
}

// Run dispatches job to the pass op names.
func Run(op Operation, job *Job) (*Report, error) {
	if job == nil {
		return nil, errors.New("adapter: nil job")
	}
	var (
		rep *Report
		err error
	)
	switch op {
	case Operation{FormatImage, Encode}:
		rep, err = EncodeImage(job)
	case Operation{FormatImage, Decode}:
		rep, err = DecodeImage(job)
	case Operation{FormatAudio, Encode}:
		rep, err = EncodeAudio(job)
	case Operation{FormatAudio, Decode}:
		rep, err = DecodeAudio(job)
	default:
		return nil, fmt.Errorf("adapter: unsupported operation %v", op)
	}
	if err != nil {
		return nil, fmt.Errorf("%v: %w", op, err)
	}
	rep.Operation = op
	return rep, nil
}

func output(job *Job) io.Writer {
	if job.Output == nil {
		return io.Discard
	}
	return job.Output
}

// embed writes the job payload into carrier. It returns the number of
// payload bytes embedded, not counting the terminator.
func embed(lsb *stego.LSBSteganography, carrier []byte, job *Job) (int, error) {
	if job.Payload != nil || job.PayloadStream == nil {
		if err := lsb.Embed(carrier, job.Payload); err != nil {
			return 0, err
		}
		return len(job.Payload), nil
	}

	w := lsb.NewWriter(carrier)
	if _, err := io.Copy(w, job.PayloadStream); err != nil {
		return 0, fmt.Errorf("embed payload stream: %w", err)
	}
	if err := w.Close(); err != nil {
		return 0, fmt.Errorf("embed terminator: %w", err)
	}
	return w.Written() - 1, nil
}

// extract streams the message in carrier to the job output.
func extract(lsb *stego.LSBSteganography, carrier []byte, job *Job) (*Report, error) {
	rep := &Report{
		CarrierUnits: lsb.Units(carrier),
		Capacity:     lsb.CalculateCapacity(carrier),
		Terminated:   true,
	}
	n, err := io.Copy(output(job), lsb.NewReader(carrier))
	rep.PayloadBytes = int(n)
	rep.OutputBytes = n
	if errors.Is(err, stego.ErrNoTerminator) {
		rep.Terminated = false
		err = nil
	}
	if err != nil {
		return nil, fmt.Errorf("write payload: %w", err)
	}
	return rep, nil
}
