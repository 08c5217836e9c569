package frame

import (
	"bytes"
	"errors"
	"io"
	"testing"

	"github.com/danmuck/structwire/internal/protocol"
	"github.com/danmuck/structwire/internal/protocol/leaf"
	"github.com/danmuck/structwire/internal/testutil/testlog"
)

func wireBuffer(t *testing.T, name string, n uint32) []byte {
	t.Helper()
	b, err := protocol.NewBuilder(name)
	if err != nil {
		t.Fatalf("new builder: %v", err)
	}
	if err := protocol.Add(b, "n", leaf.Uint32, n); err != nil {
		t.Fatalf("add: %v", err)
	}
	out, err := b.Done()
	if err != nil {
		t.Fatalf("done: %v", err)
	}
	return out
}

func TestReadWriteFrameRoundTrip(t *testing.T) {
	testlog.Start(t)
	payload := wireBuffer(t, "Counter", 7)
	var buf bytes.Buffer
	if err := WriteFrame(&buf, payload, true, DefaultLimits()); err != nil {
		t.Fatalf("write frame: %v", err)
	}
	out, err := ReadFrame(&buf, DefaultLimits())
	if err != nil {
		t.Fatalf("read frame: %v", err)
	}
	if out.Header.Magic != Magic || out.Header.Version != Version || out.Header.Flags&FlagVerified == 0 {
		t.Fatalf("header mismatch: %+v", out.Header)
	}
	if !bytes.Equal(out.Payload, payload) {
		t.Fatalf("payload mismatch")
	}
	if _, err := ReadFrame(&buf, DefaultLimits()); !errors.Is(err, io.EOF) {
		t.Fatalf("expected io.EOF after last frame, got %v", err)
	}
}

func TestReadAllKeepsOrder(t *testing.T) {
	testlog.Start(t)
	var buf bytes.Buffer
	for i := uint32(0); i < 3; i++ {
		if err := WriteFrame(&buf, wireBuffer(t, "Counter", i), false, DefaultLimits()); err != nil {
			t.Fatalf("write %d: %v", i, err)
		}
	}
	frames, err := ReadAll(&buf, DefaultLimits())
	if err != nil {
		t.Fatalf("read all: %v", err)
	}
	if len(frames) != 3 {
		t.Fatalf("expected 3 frames, got %d", len(frames))
	}
	for i, f := range frames {
		cur, err := protocol.NewParser(f.Payload).Fields()
		if err != nil {
			t.Fatalf("frame %d fields: %v", i, err)
		}
		_, v, err := protocol.Next(cur, leaf.Uint32)
		if err != nil || v != uint32(i) {
			t.Fatalf("frame %d: got %d err=%v", i, v, err)
		}
	}
}

func TestReadFrameMalformedHeaderIsDeterministic(t *testing.T) {
	testlog.Start(t)
	_, err := ReadFrame(bytes.NewReader([]byte{1, 2, 3}), DefaultLimits())
	if !errors.Is(err, ErrShortHeader) {
		t.Fatalf("expected ErrShortHeader, got %v", err)
	}
}

func TestReadFrameInvalidMagic(t *testing.T) {
	testlog.Start(t)
	buf := EncodeHeader(Header{Magic: 1, Version: Version})
	_, err := ReadFrame(bytes.NewReader(buf), DefaultLimits())
	if !errors.Is(err, ErrInvalidMagic) {
		t.Fatalf("expected ErrInvalidMagic, got %v", err)
	}
}

func TestReadFramePayloadOverLimit(t *testing.T) {
	testlog.Start(t)
	buf := EncodeHeader(Header{Magic: Magic, Version: Version, PayloadLen: 1 << 40})
	_, err := ReadFrame(bytes.NewReader(buf), DefaultLimits())
	if !errors.Is(err, ErrPayloadTooLarge) {
		t.Fatalf("expected ErrPayloadTooLarge, got %v", err)
	}
}

func TestReadFrameShortPayload(t *testing.T) {
	testlog.Start(t)
	buf := EncodeHeader(Header{Magic: Magic, Version: Version, PayloadLen: 10})
	buf = append(buf, 1, 2)
	_, err := ReadFrame(bytes.NewReader(buf), DefaultLimits())
	if !errors.Is(err, ErrShortPayload) {
		t.Fatalf("expected ErrShortPayload, got %v", err)
	}
}

func TestWriteFrameVerifyRejectsBadPayload(t *testing.T) {
	testlog.Start(t)
	payload := wireBuffer(t, "Counter", 1)
	payload[0] = 2
	var buf bytes.Buffer
	err := WriteFrame(&buf, payload, true, DefaultLimits())
	var cm *protocol.CountMismatchError
	if !errors.As(err, &cm) {
		t.Fatalf("expected CountMismatchError, got %v", err)
	}
	if buf.Len() != 0 {
		t.Fatalf("rejected frame was written")
	}
}

func TestReadFrameVerifiedFlagChecksPayload(t *testing.T) {
	testlog.Start(t)
	payload := wireBuffer(t, "Counter", 1)
	payload[0] = 4
	buf := EncodeHeader(Header{Magic: Magic, Version: Version, Flags: FlagVerified, PayloadLen: uint64(len(payload))})
	buf = append(buf, payload...)
	_, err := ReadFrame(bytes.NewReader(buf), DefaultLimits())
	if !errors.Is(err, protocol.ErrInvalidLength) {
		t.Fatalf("expected wrapped count mismatch, got %v", err)
	}
}
