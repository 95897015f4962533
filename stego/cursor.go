package stego

// Cursor addresses one payload bit. Byte is the payload byte and Bit the bit
// within it, least significant first. Payload bit n travels in carrier unit n.
type Cursor struct {
	Byte int
	Bit  int
}

// Unit is the index of the carrier unit holding the addressed bit.
func (c Cursor) Unit() int {
	return c.Byte*8 + c.Bit
}

// Advance moves to the next bit. It never wraps.
func (c *Cursor) Advance() {
	c.Bit++
	if c.Bit == 8 {
		c.Bit = 0
		c.Byte++
	}
}
