package container

import (
	"errors"
	"fmt"
)

// Container errors. Parse and synthesis functions wrap these with context, so
// callers should match them with errors.Is.
var (
	ErrBadMagic               = errors.New("bad magic")
	ErrBadDataBlock           = fmt.Errorf("%w: bad data block", ErrBadMagic)
	ErrBadOffset              = fmt.Errorf("%w: data offset inside header", ErrBadMagic)
	ErrNotPCM                 = errors.New("not uncompressed PCM")
	ErrUnsupportedCompression = errors.New("compressed bitmaps are not supported")
	ErrUnsupportedBitDepth    = errors.New("unsupported bits per pixel")
	ErrUnsupportedSampleWidth = errors.New("unsupported sample width")
	ErrTruncatedRead          = errors.New("truncated read")
	ErrAllocationFailure      = errors.New("carrier buffer cannot be allocated")
	ErrInvalidGeometry        = errors.New("invalid geometry")
)

// MaxCarrierBytes bounds the carrier buffer a header may declare.
const MaxCarrierBytes = 1 << 30

func checkCarrierSize(n uint64) error {
	if n > MaxCarrierBytes {
		return fmt.Errorf("%w: %d bytes declared, limit %d", ErrAllocationFailure, n, MaxCarrierBytes)
	}
	return nil
}
