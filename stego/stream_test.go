package stego

import (
	"bytes"
	"io"
	"math/rand"
	"testing"
	"testing/iotest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ran4na/steg/models"
)

func TestWriterMatchesEmbed(t *testing.T) {
	rng := rand.New(rand.NewSource(4))
	lsb := NewLSBSteganography(nil)

	payload := nonZero(randomBytes(rng, 37))
	carrier := randomBytes(rng, 1024)
	streamed := append([]byte(nil), carrier...)

	require.NoError(t, lsb.Embed(carrier, payload))

	w := lsb.NewWriter(streamed)
	_, err := io.Copy(w, iotest.OneByteReader(bytes.NewReader(payload)))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	assert.Equal(t, carrier, streamed)
	assert.Equal(t, len(payload)+1, w.Written())
}

func TestWriterCarrierExhausted(t *testing.T) {
	lsb := NewLSBSteganography(nil)
	carrier := make([]byte, 20)
	w := lsb.NewWriter(carrier)

	n, err := w.Write([]byte("abc"))
	assert.ErrorIs(t, err, ErrCarrierExhausted)
	assert.Equal(t, 2, n)

	_, err = w.Write([]byte("d"))
	assert.ErrorIs(t, err, ErrCarrierExhausted, "errors are sticky")
	assert.ErrorIs(t, w.Close(), ErrCarrierExhausted)
}

func TestWriterCloseNeedsRoomForTerminator(t *testing.T) {
	lsb := NewLSBSteganography(nil)
	w := lsb.NewWriter(make([]byte, 16))

	n, err := w.Write([]byte("ab"))
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.ErrorIs(t, w.Close(), ErrCarrierExhausted)
}

func TestWriterExactFit(t *testing.T) {
	lsb := NewLSBSteganography(nil)
	carrier := make([]byte, 24)
	w := lsb.NewWriter(carrier)

	_, err := w.Write([]byte("ab"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	got, terminated := lsb.Extract(carrier)
	assert.True(t, terminated)
	assert.Equal(t, []byte("ab"), got)
}

func TestWriterWithStride(t *testing.T) {
	lsb := NewLSBSteganography(&models.StegoConfig{SampleStride: 4})
	carrier := bytes.Repeat([]byte{0xAA}, 4*8*3)
	w := lsb.NewWriter(carrier)

	_, err := w.Write([]byte("Z"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	for i := range carrier {
		if i%4 != 0 {
			assert.Equal(t, byte(0xAA), carrier[i])
		}
	}
	got, terminated := lsb.Extract(carrier)
	assert.True(t, terminated)
	assert.Equal(t, []byte("Z"), got)
}

func TestReaderStopsAtTerminator(t *testing.T) {
	lsb := NewLSBSteganography(nil)
	carrier := make([]byte, 200)
	require.NoError(t, lsb.Embed(carrier, []byte("hello")))
	// Anything after the terminator is ignored.
	copy(carrier[48:], bytes.Repeat([]byte{1}, 16))

	got, err := io.ReadAll(iotest.OneByteReader(lsb.NewReader(carrier)))
	require.NoError(t, err)
	assert.Equal(t, []byte("hello"), got)
}

func TestReaderNoTerminator(t *testing.T) {
	lsb := NewLSBSteganography(nil)
	carrier := bytes.Repeat([]byte{0x03}, 27)

	var out bytes.Buffer
	n, err := io.Copy(&out, lsb.NewReader(carrier))
	assert.ErrorIs(t, err, ErrNoTerminator)
	assert.Equal(t, int64(3), n)
	assert.Equal(t, []byte{0xFF, 0xFF, 0xFF}, out.Bytes())
}

func TestCursorAdvance(t *testing.T) {
	var c Cursor
	for i := 0; i < 20; i++ {
		assert.Equal(t, i, c.Unit())
		assert.Equal(t, i/8, c.Byte)
		assert.Equal(t, i%8, c.Bit)
		c.Advance()
	}
}
