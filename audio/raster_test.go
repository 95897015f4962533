package audio

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ran4na/steg/container"
)

func TestRasterizeClampsThenTruncates(t *testing.T) {
	tests := []struct {
		bits   uint16
		sample float64
		want   float64
	}{
		{16, 40000, 32767},
		{16, -40000, -32767},
		{16, 1.9, 1},
		{16, -1.9, -1},
		{16, math.NaN(), 0},
		{8, 0, 0},
		{8, 200, 127},
		{8, -300, -128},
		{8, 5.5, 5},
		{32, 1e12, math.MaxInt32},
		{32, -1e12, -math.MaxInt32},
		{32, -123456.7, -123456},
	}
	for _, tt := range tests {
		buf := make([]byte, tt.bits/8)
		require.NoError(t, Rasterize(buf, tt.sample, tt.bits))
		assert.Equal(t, tt.want, SampleValue(buf, tt.bits), "%d-bit %v", tt.bits, tt.sample)
	}
}

func TestRasterizeLayout(t *testing.T) {
	buf := make([]byte, 2)
	require.NoError(t, Rasterize(buf, -2, 16))
	assert.Equal(t, []byte{0xFE, 0xFF}, buf)

	buf = make([]byte, 1)
	require.NoError(t, Rasterize(buf, 0, 8))
	assert.Equal(t, []byte{0x80}, buf)
}

func TestRasterizeUnsupportedWidth(t *testing.T) {
	err := Rasterize(make([]byte, 3), 1, 24)
	assert.ErrorIs(t, err, container.ErrUnsupportedSampleWidth)
}

func TestWriteWaveform(t *testing.T) {
	a, err := container.SynthesizeAudio(8, 1, 8000, 16)
	require.NoError(t, err)

	require.NoError(t, WriteWaveform(a, []float64{100, -100, 1e9}))
	samples, err := Samples(a)
	require.NoError(t, err)
	assert.Equal(t, []float64{100, -100, 32767, 0}, samples)
}

func TestWriteWaveformUnsupportedWidth(t *testing.T) {
	a, err := container.SynthesizeAudio(6, 1, 8000, 16)
	require.NoError(t, err)
	a.Format.BitsPerSample = 24

	assert.ErrorIs(t, WriteWaveform(a, []float64{1}), container.ErrUnsupportedSampleWidth)
	_, err = Samples(a)
	assert.ErrorIs(t, err, container.ErrUnsupportedSampleWidth)
}

func TestToneGenerate(t *testing.T) {
	tone := Tone{SampleRate: 44100, BytesPerSample: 2, Amplitude: DefaultAmplitude(16)}
	a := tone.Generate(2048)
	b := tone.Generate(2048)

	require.Len(t, a, 2048)
	assert.Equal(t, a, b)
	assert.Equal(t, 0.0, a[0])

	var nonZero int
	for _, s := range a {
		assert.LessOrEqual(t, math.Abs(s), 3*tone.Amplitude)
		if s != 0 {
			nonZero++
		}
	}
	assert.Greater(t, nonZero, 2000)

	assert.Equal(t, make([]float64, 4), Tone{}.Generate(4))
}
