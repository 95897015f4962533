package stego

import (
	"bytes"
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ran4na/steg/models"
)

func randomBytes(rng *rand.Rand, n int) []byte {
	b := make([]byte, n)
	rng.Read(b)
	return b
}

// nonZero keeps random payloads free of bytes that would read as the
// terminator.
func nonZero(b []byte) []byte {
	for i := range b {
		if b[i] == 0 {
			b[i] = 1
		}
	}
	return b
}

func TestEmbedExtractRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	lsb := NewLSBSteganography(nil)

	for _, size := range []int{0, 1, 2, 17, 100, 511} {
		payload := nonZero(randomBytes(rng, size))
		carrier := randomBytes(rng, (size+1)*8+1+rng.Intn(64))

		require.NoError(t, lsb.Embed(carrier, payload))
		got, terminated := lsb.Extract(carrier)
		assert.True(t, terminated, "size %d", size)
		assert.Equal(t, payload, append([]byte{}, got...), "size %d", size)
	}
}

func TestEmbedSentinel(t *testing.T) {
	lsb := NewLSBSteganography(nil)
	carrier := make([]byte, 64)

	require.NoError(t, lsb.Embed(carrier, []byte("hi")))

	// 'h' is 0x68, least significant bit first.
	assert.Equal(t, []byte{0, 0, 0, 1, 0, 1, 1, 0}, carrier[:8])
	assert.Equal(t, make([]byte, 8), carrier[16:24], "terminator")

	got, terminated := lsb.Extract(carrier)
	assert.True(t, terminated)
	assert.Equal(t, []byte("hi"), got)
}

func TestEmbedCapacityBoundary(t *testing.T) {
	lsb := NewLSBSteganography(nil)

	for _, units := range []int{80, 81, 88, 89, 200} {
		carrier := make([]byte, units)
		capacity := lsb.CalculateCapacity(carrier)

		require.NoError(t, lsb.Embed(carrier, bytes.Repeat([]byte{'x'}, capacity)), "units %d", units)
		assert.Less(t, (capacity+1)*8, units)

		before := append([]byte(nil), carrier...)
		err := lsb.Embed(carrier, bytes.Repeat([]byte{'y'}, capacity+1))
		assert.ErrorIs(t, err, ErrPayloadTooLarge, "units %d", units)
		assert.GreaterOrEqual(t, (capacity+2)*8, units)
		assert.Equal(t, before, carrier, "rejected embed must not touch the carrier")
	}
}

func TestCalculateCapacitySmallCarriers(t *testing.T) {
	lsb := NewLSBSteganography(nil)
	assert.Equal(t, -1, lsb.CalculateCapacity(nil))
	assert.Equal(t, -1, lsb.CalculateCapacity(make([]byte, 8)))
	assert.Equal(t, 0, lsb.CalculateCapacity(make([]byte, 9)))

	assert.ErrorIs(t, lsb.Embed(make([]byte, 8), nil), ErrPayloadTooLarge)
	assert.NoError(t, lsb.Embed(make([]byte, 9), nil))
}

func TestEmbedTouchesOnlyLSB(t *testing.T) {
	rng := rand.New(rand.NewSource(2))
	lsb := NewLSBSteganography(nil)

	payload := nonZero(randomBytes(rng, 20))
	carrier := randomBytes(rng, 400)
	before := append([]byte(nil), carrier...)

	require.NoError(t, lsb.Embed(carrier, payload))

	used := (len(payload) + 1) * 8
	for i := range carrier {
		if i < used {
			assert.Equal(t, before[i]&0xFE, carrier[i]&0xFE, "upper bits of unit %d", i)
		} else {
			assert.Equal(t, before[i], carrier[i], "unit %d beyond payload", i)
		}
	}
}

func TestExtractWithoutTerminator(t *testing.T) {
	lsb := NewLSBSteganography(nil)
	carrier := bytes.Repeat([]byte{0x01}, 20)

	got, terminated := lsb.Extract(carrier)
	assert.False(t, terminated)
	assert.Equal(t, []byte{0xFF, 0xFF}, got)
}

func TestExtractEmptyMessage(t *testing.T) {
	lsb := NewLSBSteganography(nil)
	got, terminated := lsb.Extract(make([]byte, 32))
	assert.True(t, terminated)
	assert.Empty(t, got)
}

func TestEmbedWithStride(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	lsb := NewLSBSteganography(&models.StegoConfig{SampleStride: 2})

	carrier := randomBytes(rng, 2*(4*8)+1)
	before := append([]byte(nil), carrier...)
	payload := []byte("abc")

	assert.Equal(t, 33, lsb.Units(carrier))
	assert.Equal(t, 3, lsb.CalculateCapacity(carrier))
	require.NoError(t, lsb.Embed(carrier, payload))

	for i := 1; i < len(carrier); i += 2 {
		assert.Equal(t, before[i], carrier[i], "odd byte %d must not carry data", i)
	}
	got, terminated := lsb.Extract(carrier)
	assert.True(t, terminated)
	assert.Equal(t, payload, got)
}

func TestCalculatePSNR(t *testing.T) {
	assert.True(t, math.IsInf(CalculatePSNR([]byte{1, 2, 3}, []byte{1, 2, 3}), 1))
	assert.Equal(t, 0.0, CalculatePSNR([]byte{1}, []byte{1, 2}))
	assert.Equal(t, 0.0, CalculatePSNR(nil, nil))
	assert.InDelta(t, 48.13, CalculatePSNR([]byte{0, 0}, []byte{1, 1}), 0.01)
}
