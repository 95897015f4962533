package container

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// readPacked decodes a fixed-size header struct in its packed little-endian
// layout.
func readPacked(r io.Reader, v any, what string) error {
	if err := binary.Read(r, binary.LittleEndian, v); err != nil {
		return truncated(err, what)
	}
	return nil
}

func truncated(err error, what string) error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return fmt.Errorf("%w: %s", ErrTruncatedRead, what)
	}
	return fmt.Errorf("read %s: %w", what, err)
}
