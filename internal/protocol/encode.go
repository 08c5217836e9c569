package protocol

// Builder accumulates one wire buffer. It is not safe for concurrent use.
type Builder struct {
	data  []byte
	count int
	done  bool
}

// NewBuilder starts a buffer for a struct called name. Names longer than
// MaxNameLen bytes or not valid UTF-8 are rejected.
func NewBuilder(name string) (*Builder, error) {
	if err := CheckName(name); err != nil {
		return nil, err
	}
	data := make([]byte, 0, 1+1+len(name)+SeparatorLen+64)
	data = append(data, 0)
	data = appendName(data, name)
	data = append(data, 0, 0)
	return &Builder{data: data}, nil
}

// AddField appends one record holding value as-is. A rejected field
// leaves the buffer unchanged.
func (b *Builder) AddField(name string, value []byte) error {
	if b.done {
		return ErrBuilderDone
	}
	if b.count >= MaxFieldCount {
		return ErrTooManyFields
	}
	if err := CheckName(name); err != nil {
		return err
	}
	b.data = appendField(b.data, name, value)
	b.count++
	return nil
}

// Add appends one record whose value is encoded by c.
func Add[T any](b *Builder, name string, c Codec[T], v T) error {
	if b.done {
		return ErrBuilderDone
	}
	return b.AddField(name, c.Encode(v))
}

// FieldCount returns the number of fields added so far.
func (b *Builder) FieldCount() int { return b.count }

// Len returns the current buffer size in bytes.
func (b *Builder) Len() int { return len(b.data) }

// Done patches the field count and hands the buffer to the caller. The
// builder cannot be used afterwards.
func (b *Builder) Done() ([]byte, error) {
	if b.done {
		return nil, ErrBuilderDone
	}
	b.done = true
	out := b.data
	out[OffsetFieldCount] = byte(b.count)
	b.data = nil
	return out, nil
}
