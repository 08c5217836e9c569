package protocol

import (
	"encoding/binary"
	"fmt"
	"unicode/utf8"
)

// ReadFieldCount reads the one byte field count at offset. Any value
// 0..255 is accepted.
func ReadFieldCount(data []byte, offset *int) (uint8, error) {
	pos := *offset
	if remaining(data, pos) < 1 {
		return 0, &LengthError{What: "field count", Offset: pos, Need: 1, Have: remaining(data, pos)}
	}
	*offset = pos + 1
	return data[pos], nil
}

// ReadStructName reads a length-prefixed struct name at offset.
func ReadStructName(data []byte, offset *int) (string, error) {
	return readName(data, offset, "struct name")
}

// ExpectStructName reads the struct name at offset and fails with a
// NameMismatchError carrying the decoded name if it is not expected.
func ExpectStructName(data []byte, offset *int, expected string) (string, error) {
	pos := *offset
	name, err := readName(data, &pos, "struct name")
	if err != nil {
		return "", err
	}
	if name != expected {
		return "", &NameMismatchError{Expected: expected, Actual: name}
	}
	*offset = pos
	return name, nil
}

// EnsureSeparator checks the two reserved bytes at offset are zero and
// advances past them.
func EnsureSeparator(data []byte, offset *int) error {
	pos := *offset
	if remaining(data, pos) < SeparatorLen {
		return &LengthError{What: "separator", Offset: pos, Need: SeparatorLen, Have: remaining(data, pos)}
	}
	for i := 0; i < SeparatorLen; i++ {
		if b := data[pos+i]; b != 0 {
			return &UnexpectedByteError{Offset: pos + i, Byte: b}
		}
	}
	*offset = pos + SeparatorLen
	return nil
}

// ReadRawField reads one field record at offset and returns its name and
// value bytes. The value aliases data.
func ReadRawField(data []byte, offset *int) (string, []byte, error) {
	pos := *offset
	name, err := readName(data, &pos, "field name")
	if err != nil {
		return "", nil, err
	}
	if remaining(data, pos) < ValueLenSize {
		return "", nil, &LengthError{What: "value length", Offset: pos, Need: ValueLenSize, Have: remaining(data, pos)}
	}
	size := binary.BigEndian.Uint64(data[pos : pos+ValueLenSize])
	pos += ValueLenSize
	if size > uint64(remaining(data, pos)) {
		return "", nil, &LengthError{What: fmt.Sprintf("value of field %q", name), Offset: pos, Need: size, Have: remaining(data, pos)}
	}
	end := pos + int(size)
	*offset = end
	return name, data[pos:end:end], nil
}

// ReadField reads one field record at offset and decodes its value with c.
func ReadField[T any](data []byte, offset *int, c Codec[T]) (string, T, error) {
	var zero T
	pos := *offset
	name, raw, err := ReadRawField(data, &pos)
	if err != nil {
		return "", zero, err
	}
	v, err := c.Decode(raw)
	if err != nil {
		return "", zero, &FieldError{Name: name, Offset: pos - len(raw), Err: err}
	}
	*offset = pos
	return name, v, nil
}

// CheckName reports whether name can be framed as a struct or field name.
func CheckName(name string) error {
	if len(name) > MaxNameLen {
		return &NameLengthError{Name: name, Len: len(name)}
	}
	if !utf8.ValidString(name) {
		return fmt.Errorf("%w: %q is not valid UTF-8", ErrWrongName, name)
	}
	return nil
}

func readName(data []byte, offset *int, what string) (string, error) {
	pos := *offset
	if remaining(data, pos) < 1 {
		return "", &LengthError{What: what + " length", Offset: pos, Need: 1, Have: remaining(data, pos)}
	}
	n := int(data[pos])
	pos++
	if n > remaining(data, pos) {
		return "", &LengthError{What: what, Offset: pos, Need: uint64(n), Have: remaining(data, pos)}
	}
	raw := data[pos : pos+n]
	if !utf8.Valid(raw) {
		return "", fmt.Errorf("%w: %s at offset %d is not valid UTF-8", ErrWrongName, what, pos)
	}
	*offset = pos + n
	return string(raw), nil
}

// appendName writes a checked name with its length byte.
func appendName(dst []byte, name string) []byte {
	dst = append(dst, byte(len(name)))
	return append(dst, name...)
}

func appendField(dst []byte, name string, value []byte) []byte {
	dst = appendName(dst, name)
	dst = binary.BigEndian.AppendUint64(dst, uint64(len(value)))
	return append(dst, value...)
}

func remaining(data []byte, offset int) int {
	if offset < 0 || offset >= len(data) {
		return 0
	}
	return len(data) - offset
}
