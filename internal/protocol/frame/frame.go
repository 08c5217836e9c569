package frame

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/rs/zerolog/log"

	"github.com/danmuck/structwire/internal/protocol"
)

const (
	Magic          uint32 = 0x53575231 // "SWR1"
	Version        uint16 = 1
	FixedHeaderLen        = 16

	// FlagVerified marks a payload whose field count was checked against
	// its records before it was written.
	FlagVerified uint16 = 0x01
)

var (
	ErrShortHeader        = errors.New("frame: short fixed header")
	ErrInvalidMagic       = errors.New("frame: invalid magic")
	ErrUnsupportedVersion = errors.New("frame: unsupported version")
	ErrPayloadTooLarge    = errors.New("frame: payload too large")
	ErrShortPayload       = errors.New("frame: short payload")
)

// Header is the fixed header in front of every wire buffer in a file.
type Header struct {
	Magic      uint32
	Version    uint16
	Flags      uint16
	PayloadLen uint64
}

// Frame is one stored wire buffer.
type Frame struct {
	Header  Header
	Payload []byte
}

// Limits constrains frame decode/encode memory use.
type Limits struct {
	MaxPayloadBytes uint64
}

func DefaultLimits() Limits {
	return Limits{MaxPayloadBytes: 8 * 1024 * 1024}
}

// ReadFrame reads one frame. A clean end of input before any header byte
// returns io.EOF.
func ReadFrame(r io.Reader, limits Limits) (Frame, error) {
	var fixed [FixedHeaderLen]byte
	if _, err := io.ReadFull(r, fixed[:]); err != nil {
		if errors.Is(err, io.EOF) {
			return Frame{}, io.EOF
		}
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return Frame{}, ErrShortHeader
		}
		return Frame{}, err
	}

	h, err := DecodeHeader(fixed[:])
	if err != nil {
		return Frame{}, err
	}
	if h.PayloadLen > limits.MaxPayloadBytes {
		return Frame{}, ErrPayloadTooLarge
	}

	payload := make([]byte, h.PayloadLen)
	if h.PayloadLen > 0 {
		if _, err := io.ReadFull(r, payload); err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				return Frame{}, ErrShortPayload
			}
			return Frame{}, err
		}
	}
	if h.Flags&FlagVerified != 0 {
		if err := protocol.NewParser(payload).Verify(); err != nil {
			return Frame{}, fmt.Errorf("frame: verified payload failed check: %w", err)
		}
	}
	return Frame{Header: h, Payload: payload}, nil
}

// WriteFrame writes payload behind a fresh header. When verify is set the
// payload is checked as a wire buffer first and the frame is flagged.
func WriteFrame(w io.Writer, payload []byte, verify bool, limits Limits) error {
	payloadLen := uint64(len(payload))
	if payloadLen > limits.MaxPayloadBytes {
		return ErrPayloadTooLarge
	}
	h := Header{Magic: Magic, Version: Version, PayloadLen: payloadLen}
	if verify {
		if err := protocol.NewParser(payload).Verify(); err != nil {
			return err
		}
		h.Flags |= FlagVerified
	}
	if _, err := w.Write(EncodeHeader(h)); err != nil {
		return err
	}
	if payloadLen > 0 {
		if _, err := w.Write(payload); err != nil {
			return err
		}
	}
	return nil
}

// ReadAll reads frames until a clean end of input.
func ReadAll(r io.Reader, limits Limits) ([]Frame, error) {
	var frames []Frame
	for {
		f, err := ReadFrame(r, limits)
		if errors.Is(err, io.EOF) {
			log.Debug().Int("frames", len(frames)).Msg("frame.ReadAll done")
			return frames, nil
		}
		if err != nil {
			log.Error().Int("frame", len(frames)).Err(err).Msg("frame.ReadAll")
			return nil, fmt.Errorf("frame %d: %w", len(frames), err)
		}
		frames = append(frames, f)
	}
}

func EncodeHeader(h Header) []byte {
	buf := make([]byte, FixedHeaderLen)
	binary.BigEndian.PutUint32(buf[0:4], h.Magic)
	binary.BigEndian.PutUint16(buf[4:6], h.Version)
	binary.BigEndian.PutUint16(buf[6:8], h.Flags)
	binary.BigEndian.PutUint64(buf[8:16], h.PayloadLen)
	return buf
}

func DecodeHeader(b []byte) (Header, error) {
	if len(b) != FixedHeaderLen {
		return Header{}, fmt.Errorf("frame: invalid fixed header length: %d", len(b))
	}
	h := Header{
		Magic:      binary.BigEndian.Uint32(b[0:4]),
		Version:    binary.BigEndian.Uint16(b[4:6]),
		Flags:      binary.BigEndian.Uint16(b[6:8]),
		PayloadLen: binary.BigEndian.Uint64(b[8:16]),
	}
	if h.Magic != Magic {
		return Header{}, ErrInvalidMagic
	}
	if h.Version != Version {
		return Header{}, ErrUnsupportedVersion
	}
	return h, nil
}
