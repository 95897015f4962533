// Package audio handles PCM samples for WAV carriers: rasterizing waveforms,
// generating cover tones, measuring distortion and turning other audio hosts
// into canonical WAV containers.
package audio

import (
	"fmt"
	"math"

	"github.com/ran4na/steg/container"
)

// CalculatePSNRFloat64 compares two signals normalized to [-1, 1].
// Mismatched or empty inputs yield 0; identical ones +Inf.
func CalculatePSNRFloat64(original, stego []float64) float64 {
	if len(original) != len(stego) || len(original) == 0 {
		return 0
	}
	var mse float64
	for i := range original {
		diff := original[i] - stego[i]
		mse += diff * diff
	}
	return psnr(mse/float64(len(original)), 1)
}

// psnr = 20 * log10(peak / sqrt(mse))
func psnr(mse, peak float64) float64 {
	if mse == 0 {
		return math.Inf(1)
	}
	return 20 * math.Log10(peak/math.Sqrt(mse))
}

// CalculateSamplePSNR compares two carriers sample by sample, normalized to
// full scale, rather than byte by byte.
func CalculateSamplePSNR(original, stego *container.Audio) (float64, error) {
	if original.Format.BitsPerSample != stego.Format.BitsPerSample {
		return 0, fmt.Errorf("sample width mismatch: %d and %d bits",
			original.Format.BitsPerSample, stego.Format.BitsPerSample)
	}
	a, err := ToIntBuffer(original)
	if err != nil {
		return 0, err
	}
	b, err := ToIntBuffer(stego)
	if err != nil {
		return 0, err
	}

	scale := FullScale(original.Format.BitsPerSample)
	fa, fb := a.AsFloatBuffer().Data, b.AsFloatBuffer().Data
	for i := range fa {
		fa[i] /= scale
	}
	for i := range fb {
		fb[i] /= scale
	}
	return CalculatePSNRFloat64(fa, fb), nil
}

// ValidatePSNR reports whether psnr meets threshold. +Inf always does.
func ValidatePSNR(psnr float64, threshold float64) bool {
	return math.IsInf(psnr, 1) || psnr >= threshold
}
