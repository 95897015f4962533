package adapter

import (
	"errors"
	"fmt"

	"github.com/ran4na/steg/container"
	"github.com/ran4na/steg/stego"
)

// EncodeImage embeds the job payload in the pixel bytes of a bitmap and
// writes the bitmap to the job output. Without a host a blank bitmap of
// job.Geometry is synthesized.
func EncodeImage(job *Job) (*Report, error) {
	img, err := loadImage(job, true)
	if err != nil {
		return nil, err
	}

	lsb := stego.NewLSBSteganography(nil)
	carrier := img.Carrier()
	original := append([]byte(nil), carrier...)

	n, err := embed(lsb, carrier, job)
	if err != nil {
		return nil, err
	}

	written, err := img.WriteTo(output(job))
	if err != nil {
		return nil, err
	}
	return &Report{
		CarrierUnits: lsb.Units(carrier),
		Capacity:     lsb.CalculateCapacity(carrier),
		PayloadBytes: n,
		Terminated:   true,
		PSNR:         stego.CalculatePSNR(original, carrier),
		OutputBytes:  written,
	}, nil
}

// DecodeImage streams the message hidden in a bitmap to the job output.
func DecodeImage(job *Job) (*Report, error) {
	img, err := loadImage(job, false)
	if err != nil {
		return nil, err
	}
	return extract(stego.NewLSBSteganography(nil), img.Carrier(), job)
}

// InspectImage reports the capacity of a bitmap host without touching it.
func InspectImage(job *Job) (*Report, error) {
	img, err := loadImage(job, false)
	if err != nil {
		return nil, err
	}
	lsb := stego.NewLSBSteganography(nil)
	return &Report{
		Operation:    Operation{FormatImage, Encode},
		CarrierUnits: lsb.Units(img.Carrier()),
		Capacity:     lsb.CalculateCapacity(img.Carrier()),
	}, nil
}

func loadImage(job *Job, synthesize bool) (*container.Image, error) {
	switch {
	case job.Image != nil:
		return job.Image, nil
	case job.Host != nil:
		img, err := container.ParseImage(job.Host)
		if err != nil {
			return nil, fmt.Errorf("parse bitmap host: %w", err)
		}
		return img, nil
	case synthesize:
		g := job.Geometry
		if g.BitsPerPixel == 0 {
			g.BitsPerPixel = 24
		}
		return container.SynthesizeImage(g.Width, g.Height, g.BitsPerPixel)
	}
	return nil, errors.New("no bitmap host")
}
