package protocol

import "fmt"

// Parser reads one wire buffer. It keeps a private copy of the input and
// caches the fields-region offset after the first struct name parse.
// It is not safe for concurrent use.
type Parser struct {
	data []byte

	name         string
	fieldsOffset int
	parsed       bool
}

// NewParser copies data and returns a parser over it.
func NewParser(data []byte) *Parser {
	buf := make([]byte, len(data))
	copy(buf, data)
	return &Parser{data: buf}
}

// StructName parses the header name and the reserved bytes that follow it.
// The result is cached; later calls do no work.
func (p *Parser) StructName() (string, error) {
	if p.parsed {
		return p.name, nil
	}
	offset := OffsetStructName
	name, err := ReadStructName(p.data, &offset)
	if err != nil {
		return "", err
	}
	if err := p.finishHeader(name, offset); err != nil {
		return "", err
	}
	return name, nil
}

// finishHeader checks the reserved bytes after the name and caches the
// fields offset.
func (p *Parser) finishHeader(name string, offset int) error {
	if err := EnsureSeparator(p.data, &offset); err != nil {
		return err
	}
	p.name = name
	p.fieldsOffset = offset
	p.parsed = true
	return nil
}

// ExpectStructName parses the header like StructName and fails with a
// NameMismatchError when the name is not expected.
func (p *Parser) ExpectStructName(expected string) error {
	if p.parsed {
		if p.name != expected {
			return &NameMismatchError{Expected: expected, Actual: p.name}
		}
		return nil
	}
	offset := OffsetStructName
	name, err := ExpectStructName(p.data, &offset, expected)
	if err != nil {
		return err
	}
	return p.finishHeader(name, offset)
}

// FieldCount reads the header field count. It does not depend on the
// struct name having been parsed.
func (p *Parser) FieldCount() (uint8, error) {
	offset := OffsetFieldCount
	return ReadFieldCount(p.data, &offset)
}

// Fields returns a cursor over the fields region, parsing the header
// first if needed. The cursor is valid as long as p is.
func (p *Parser) Fields() (*Cursor, error) {
	if !p.parsed {
		if _, err := p.StructName(); err != nil {
			return nil, fmt.Errorf("%w: fields offset unavailable: %w", ErrInternal, err)
		}
	}
	return newCursor(p.data, p.fieldsOffset), nil
}

// Verify walks every record and checks the total against the header count.
func (p *Parser) Verify() error {
	count, err := p.FieldCount()
	if err != nil {
		return err
	}
	cur, err := p.Fields()
	if err != nil {
		return err
	}
	records := 0
	for cur.HasNext() {
		if _, err := cur.Skip(); err != nil {
			return err
		}
		records++
	}
	if records != int(count) {
		return &CountMismatchError{Header: count, Records: records}
	}
	return nil
}

// Bytes returns the parser's copy of the buffer. Callers must not modify it.
func (p *Parser) Bytes() []byte { return p.data }
