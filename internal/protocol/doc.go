// Package protocol owns the self-describing struct wire format.
//
// A wire buffer is a one byte field count, a length-prefixed struct name,
// two reserved zero bytes, then field records of the form
// name_len(1) | name | value_len(8, big-endian) | value.
//
// Ownership boundary:
// - framing primitives shared by both directions
// - Builder (encode) and Parser/Cursor (decode)
// - error kinds
//
// Leaf value encodings live in protocol/leaf and plug in through Codec.
// Every read is bounds checked: malformed input yields a typed error
// and never an out of range access.
package protocol
