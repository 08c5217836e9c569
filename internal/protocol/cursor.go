package protocol

// Cursor iterates the field records of a parsed buffer in order. It does
// not own the bytes it reads and does not check the header field count.
type Cursor struct {
	data   []byte
	offset int
}

func newCursor(data []byte, start int) *Cursor {
	return &Cursor{data: data, offset: start}
}

// HasNext reports whether unread bytes remain in the fields region.
func (c *Cursor) HasNext() bool {
	return c.offset < len(c.data)
}

// Offset returns the absolute buffer offset of the next record.
func (c *Cursor) Offset() int { return c.offset }

// Next decodes one record with codec and advances past it.
func Next[T any](c *Cursor, codec Codec[T]) (string, T, error) {
	return ReadField(c.data, &c.offset, codec)
}

// NextRaw returns one record's name and undecoded value bytes.
func (c *Cursor) NextRaw() (string, []byte, error) {
	return ReadRawField(c.data, &c.offset)
}

// Skip advances past one record and returns its name.
func (c *Cursor) Skip() (string, error) {
	name, _, err := ReadRawField(c.data, &c.offset)
	return name, err
}
