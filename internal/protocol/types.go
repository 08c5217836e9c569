package protocol

// Fixed layout of the wire buffer header.
const (
	OffsetFieldCount = 0
	OffsetStructName = 1

	SeparatorLen  = 2
	ValueLenSize  = 8
	MaxNameLen    = 255
	MaxFieldCount = 255
)

// Codec is the leaf encode/decode contract for one value type.
// Encode output becomes the value bytes of a field record; Decode
// receives exactly those bytes back.
type Codec[T any] interface {
	Encode(v T) []byte
	Decode(b []byte) (T, error)
}
