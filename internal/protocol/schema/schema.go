package schema

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/danmuck/structwire/internal/protocol"
)

// Type identifies the leaf codec used for a field value.
type Type uint8

const (
	TypeI8 Type = iota + 1
	TypeI16
	TypeI32
	TypeI64
	TypeI128
	TypeU8
	TypeU16
	TypeU32
	TypeU64
	TypeU128
	TypeF32
	TypeF64
	TypeBool
	TypeString
	TypeBytes
)

var typeNames = map[Type]string{
	TypeI8:     "i8",
	TypeI16:    "i16",
	TypeI32:    "i32",
	TypeI64:    "i64",
	TypeI128:   "i128",
	TypeU8:     "u8",
	TypeU16:    "u16",
	TypeU32:    "u32",
	TypeU64:    "u64",
	TypeU128:   "u128",
	TypeF32:    "f32",
	TypeF64:    "f64",
	TypeBool:   "bool",
	TypeString: "string",
	TypeBytes:  "bytes",
}

func (t Type) String() string {
	if name, ok := typeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("type(%d)", uint8(t))
}

// ParseType resolves a type name such as "u32" or "string".
func ParseType(raw string) (Type, error) {
	want := strings.ToLower(strings.TrimSpace(raw))
	for t, name := range typeNames {
		if name == want {
			return t, nil
		}
	}
	return 0, fmt.Errorf("%w: unknown type %q", protocol.ErrInvalidDataType, raw)
}

// FieldSpec declares one field in order.
type FieldSpec struct {
	Name string
	Type Type
}

// Schema is the expected shape of a struct: its name and ordered fields.
type Schema struct {
	Name   string
	Fields []FieldSpec
}

// Value is one decoded field.
type Value struct {
	Name string
	Type Type
	Data any
}

// Record is a decoded struct.
type Record struct {
	Name   string
	Fields []Value
}

// Schema returns the shape of r.
func (r Record) Schema() Schema {
	s := Schema{Name: r.Name, Fields: make([]FieldSpec, len(r.Fields))}
	for i, f := range r.Fields {
		s.Fields[i] = FieldSpec{Name: f.Name, Type: f.Type}
	}
	return s
}

type ValidationError struct {
	Struct string
	Field  string
	Reason string
}

func (e ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("schema: struct=%q: %s", e.Struct, e.Reason)
	}
	return fmt.Sprintf("schema: struct=%q field=%q: %s", e.Struct, e.Field, e.Reason)
}

// Validate checks that s can be framed on the wire.
func (s Schema) Validate() error {
	if err := protocol.CheckName(s.Name); err != nil {
		return err
	}
	if len(s.Fields) > protocol.MaxFieldCount {
		return ValidationError{Struct: s.Name, Reason: fmt.Sprintf("%d fields, max %d", len(s.Fields), protocol.MaxFieldCount)}
	}
	for _, f := range s.Fields {
		if err := protocol.CheckName(f.Name); err != nil {
			return err
		}
		if _, ok := typeNames[f.Type]; !ok {
			return ValidationError{Struct: s.Name, Field: f.Name, Reason: "unknown type " + f.Type.String()}
		}
	}
	return nil
}

// Encode builds a wire buffer with values in schema order. Each value is
// converted to its field's type.
func Encode(s Schema, values []any) ([]byte, error) {
	log.Debug().Str("struct", s.Name).Int("fields", len(s.Fields)).Msg("schema.Encode")
	if err := s.Validate(); err != nil {
		return nil, err
	}
	if len(values) != len(s.Fields) {
		return nil, ValidationError{Struct: s.Name, Reason: fmt.Sprintf("%d values for %d fields", len(values), len(s.Fields))}
	}
	b, err := protocol.NewBuilder(s.Name)
	if err != nil {
		return nil, err
	}
	for i, spec := range s.Fields {
		raw, err := encodeValue(spec.Type, values[i])
		if err != nil {
			log.Error().Str("struct", s.Name).Str("field", spec.Name).Err(err).Msg("schema.Encode value")
			return nil, fmt.Errorf("schema: field %q: %w", spec.Name, err)
		}
		if err := b.AddField(spec.Name, raw); err != nil {
			return nil, err
		}
	}
	return b.Done()
}

// EncodeRecord encodes r using the types carried by its values.
func EncodeRecord(r Record) ([]byte, error) {
	values := make([]any, len(r.Fields))
	for i, f := range r.Fields {
		values[i] = f.Data
	}
	return Encode(r.Schema(), values)
}

// Decode parses data and checks it against s: struct name, field count,
// and field names in order. Values are decoded with each field's type.
func Decode(s Schema, data []byte) (Record, error) {
	log.Debug().Str("struct", s.Name).Int("bytes", len(data)).Msg("schema.Decode")
	p := protocol.NewParser(data)
	if err := p.ExpectStructName(s.Name); err != nil {
		log.Error().Str("struct", s.Name).Err(err).Msg("schema.Decode header")
		return Record{}, err
	}
	count, err := p.FieldCount()
	if err != nil {
		return Record{}, err
	}
	if int(count) != len(s.Fields) {
		return Record{}, ValidationError{Struct: s.Name, Reason: fmt.Sprintf("header declares %d fields, schema has %d", count, len(s.Fields))}
	}
	cur, err := p.Fields()
	if err != nil {
		return Record{}, err
	}
	rec := Record{Name: s.Name, Fields: make([]Value, 0, len(s.Fields))}
	for _, spec := range s.Fields {
		if !cur.HasNext() {
			return Record{}, ValidationError{Struct: s.Name, Field: spec.Name, Reason: "missing field"}
		}
		name, raw, err := cur.NextRaw()
		if err != nil {
			return Record{}, err
		}
		if name != spec.Name {
			log.Error().Str("struct", s.Name).Str("want", spec.Name).Str("got", name).Msg("schema.Decode field order")
			return Record{}, ValidationError{Struct: s.Name, Field: spec.Name, Reason: fmt.Sprintf("found field %q", name)}
		}
		v, err := decodeValue(spec.Type, raw)
		if err != nil {
			return Record{}, &protocol.FieldError{Name: name, Offset: cur.Offset() - len(raw), Err: err}
		}
		rec.Fields = append(rec.Fields, Value{Name: name, Type: spec.Type, Data: v})
	}
	if cur.HasNext() {
		return Record{}, ValidationError{Struct: s.Name, Reason: fmt.Sprintf("%d trailing bytes after last field", len(data)-cur.Offset())}
	}
	log.Info().Str("struct", s.Name).Int("fields", len(rec.Fields)).Msg("schema.Decode ok")
	return rec, nil
}

// Inspect decodes data without a schema. Every value is returned as raw
// bytes with TypeBytes.
func Inspect(data []byte) (Record, error) {
	p := protocol.NewParser(data)
	name, err := p.StructName()
	if err != nil {
		return Record{}, err
	}
	if err := p.Verify(); err != nil {
		return Record{}, err
	}
	count, err := p.FieldCount()
	if err != nil {
		return Record{}, err
	}
	cur, err := p.Fields()
	if err != nil {
		return Record{}, err
	}
	rec := Record{Name: name, Fields: make([]Value, 0, count)}
	for cur.HasNext() {
		fname, raw, err := cur.NextRaw()
		if err != nil {
			return Record{}, err
		}
		buf := make([]byte, len(raw))
		copy(buf, raw)
		rec.Fields = append(rec.Fields, Value{Name: fname, Type: TypeBytes, Data: buf})
	}
	log.Debug().Str("struct", name).Int("fields", len(rec.Fields)).Msg("schema.Inspect")
	return rec, nil
}
