package protocol

import (
	"errors"
	"fmt"
)

// Error kinds. Structured errors below unwrap to one of these.
var (
	ErrInvalidLength    = errors.New("protocol: invalid length")
	ErrInvalidDataType  = errors.New("protocol: invalid data type")
	ErrWrongDataType    = errors.New("protocol: wrong data type")
	ErrWrongNameLength  = errors.New("protocol: wrong name length")
	ErrWrongName        = errors.New("protocol: wrong name")
	ErrUnexpectedByte   = errors.New("protocol: unexpected byte")
	ErrInvalidFieldData = errors.New("protocol: invalid field data conversion")
	ErrInternal         = errors.New("protocol: internal error")

	ErrTooManyFields = errors.New("protocol: too many fields")
	ErrBuilderDone   = errors.New("protocol: builder already finished")
)

// LengthError reports a declared length that does not fit the bytes
// available at Offset.
type LengthError struct {
	What   string
	Offset int
	Need   uint64
	Have   int
}

func (e *LengthError) Error() string {
	return fmt.Sprintf("protocol: %s at offset %d needs %d bytes, have %d", e.What, e.Offset, e.Need, e.Have)
}

func (e *LengthError) Unwrap() error { return ErrInvalidLength }

// NameLengthError reports a struct or field name that cannot be framed
// with a one byte length prefix.
type NameLengthError struct {
	Name string
	Len  int
}

func (e *NameLengthError) Error() string {
	return fmt.Sprintf("protocol: name %.16q... is %d bytes, max %d", e.Name, e.Len, MaxNameLen)
}

func (e *NameLengthError) Unwrap() error { return ErrWrongNameLength }

// NameMismatchError carries the decoded struct name when it differs from
// the one the caller expected.
type NameMismatchError struct {
	Expected string
	Actual   string
}

func (e *NameMismatchError) Error() string {
	return fmt.Sprintf("protocol: struct name %q, expected %q", e.Actual, e.Expected)
}

func (e *NameMismatchError) Unwrap() error { return ErrWrongName }

// UnexpectedByteError reports a nonzero reserved byte.
type UnexpectedByteError struct {
	Offset int
	Byte   byte
}

func (e *UnexpectedByteError) Error() string {
	return fmt.Sprintf("protocol: unexpected byte 0x%02x at offset %d", e.Byte, e.Offset)
}

func (e *UnexpectedByteError) Unwrap() error { return ErrUnexpectedByte }

// CountMismatchError reports a header field count that disagrees with the
// records present in the fields region.
type CountMismatchError struct {
	Header  uint8
	Records int
}

func (e *CountMismatchError) Error() string {
	return fmt.Sprintf("protocol: header declares %d fields, buffer holds %d", e.Header, e.Records)
}

func (e *CountMismatchError) Unwrap() error { return ErrInvalidLength }

// FieldError names the record a decode failure came from.
type FieldError struct {
	Name   string
	Offset int
	Err    error
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("protocol: field %q at offset %d: %v", e.Name, e.Offset, e.Err)
}

func (e *FieldError) Unwrap() error { return e.Err }
