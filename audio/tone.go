package audio

import "math"

// Base pitches of the three partials, in Hz.
const (
	pitchLow  = 120.665
	pitchMid  = 261.626
	pitchHigh = 329.628
)

// Tone generates the cover signal used when a WAV carrier is synthesized
// from scratch: three sine partials whose pitches drift with slow
// modulators, so the carrier does not sound like a pure test tone.
type Tone struct {
	SampleRate     uint32
	BytesPerSample int
	// Amplitude of each partial. The sum of the three can exceed full scale;
	// Rasterize saturates.
	Amplitude float64
}

// DefaultAmplitude is a quarter of full scale for the sample width.
func DefaultAmplitude(bits uint16) float64 {
	return FullScale(bits) / 4
}

// Generate returns n samples. The pitch modulators carry state from one
// sample to the next, so the sequence is only reproducible from sample 0.
func (t Tone) Generate(n int) []float64 {
	out := make([]float64, n)
	if t.SampleRate == 0 {
		return out
	}
	p1, p2, p3 := pitchMid, pitchLow, pitchHigh
	step := float64(max(t.BytesPerSample, 1))
	for i := range out {
		angle := float64(i) * step / float64(t.SampleRate) * 2 * math.Pi
		w1 := math.Sin(angle * p1)
		w2 := math.Sin(angle * p2)
		w3 := math.Sin(angle * p3)
		p1 = 36 * math.Sin(angle*p3/500)
		p2 = 12 * math.Cos(angle*0.1)
		p3 = 64 * math.Sin(angle*p2/500)
		out[i] = t.Amplitude * (w1 + w2 + w3)
	}
	return out
}
