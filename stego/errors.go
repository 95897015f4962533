package stego

import "errors"

var (
	// ErrPayloadTooLarge is returned by Embed, before the carrier is
	// touched, when the payload and its terminator do not fit.
	ErrPayloadTooLarge = errors.New("secret data too large for carrier")
	// ErrCarrierExhausted is returned by a Writer when the next bit has no
	// carrier unit left to go to.
	ErrCarrierExhausted = errors.New("carrier exhausted")
	// ErrNoTerminator is returned by a Reader when the carrier ends before a
	// zero byte. The bytes read so far are still valid.
	ErrNoTerminator = errors.New("no terminator found before end of carrier")
)
