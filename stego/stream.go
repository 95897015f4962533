package stego

import (
	"fmt"
	"io"
)

// Writer embeds a payload of unknown length as it arrives. Each bit is
// bounds checked, so running out of carrier surfaces as ErrCarrierExhausted
// instead of a write past the buffer. Bits already written stay written.
type Writer struct {
	carrier []byte
	stride  int
	units   int
	pos     Cursor
	err     error
	closed  bool
}

var _ io.WriteCloser = (*Writer)(nil)

func (w *Writer) Write(p []byte) (int, error) {
	if w.err != nil {
		return 0, w.err
	}
	if w.closed {
		return 0, fmt.Errorf("stego: write after close")
	}
	for i, b := range p {
		if err := w.writeByte(b); err != nil {
			w.err = err
			return i, err
		}
	}
	return len(p), nil
}

// Close writes the terminator.
func (w *Writer) Close() error {
	if w.closed {
		return w.err
	}
	w.closed = true
	if w.err != nil {
		return w.err
	}
	if err := w.writeByte(0); err != nil {
		w.err = err
	}
	return w.err
}

// Written is the number of complete bytes embedded so far, counting the
// terminator once closed.
func (w *Writer) Written() int {
	return w.pos.Byte
}

func (w *Writer) writeByte(b byte) error {
	for bit := 0; bit < 8; bit++ {
		unit := w.pos.Unit()
		if unit >= w.units {
			return fmt.Errorf("%w: %d carrier units used", ErrCarrierExhausted, unit)
		}
		off := unit * w.stride
		w.carrier[off] = (w.carrier[off] & 0xFE) | ((b >> bit) & 1)
		w.pos.Advance()
	}
	return nil
}

// Reader yields embedded bytes until the terminator, then io.EOF. If the
// carrier ends first it returns ErrNoTerminator; trailing bits that do not
// make a whole byte are dropped.
type Reader struct {
	carrier []byte
	stride  int
	units   int
	pos     Cursor
	err     error
}

func (r *Reader) Read(p []byte) (int, error) {
	n := 0
	for n < len(p) && r.err == nil {
		b, ok := r.next()
		switch {
		case !ok:
			r.err = ErrNoTerminator
		case b == 0:
			r.err = io.EOF
		default:
			p[n] = b
			n++
		}
	}
	if n > 0 {
		return n, nil
	}
	return 0, r.err
}

func (r *Reader) next() (byte, bool) {
	if r.pos.Unit()+8 > r.units {
		return 0, false
	}
	var b byte
	for bit := 0; bit < 8; bit++ {
		b |= (r.carrier[r.pos.Unit()*r.stride] & 1) << bit
		r.pos.Advance()
	}
	return b, true
}
