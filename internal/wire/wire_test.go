package wire

import (
	"testing"
)

// ---------------------------------------------------------------------------
// primitive round-trips
// ---------------------------------------------------------------------------

func TestPrimitiveRoundTrip(t *testing.T) {
	w := NewWriter(64)
	w.U8(0xAB).I8(-7).U16(0xBEEF).I16(-1234).U32(0xDEADBEEF).I32(-99999).
		U64(0x1122334455667788).I64(-1).F32(3.25).F64(-6.5)

	r := NewReader(w.Bytes())

	if v, err := r.U8(); err != nil || v != 0xAB {
		t.Fatalf("U8: got %#x, %v", v, err)
	}
	if v, err := r.I8(); err != nil || v != -7 {
		t.Fatalf("I8: got %d, %v", v, err)
	}
	if v, err := r.U16(); err != nil || v != 0xBEEF {
		t.Fatalf("U16: got %#x, %v", v, err)
	}
	if v, err := r.I16(); err != nil || v != -1234 {
		t.Fatalf("I16: got %d, %v", v, err)
	}
	if v, err := r.U32(); err != nil || v != 0xDEADBEEF {
		t.Fatalf("U32: got %#x, %v", v, err)
	}
	if v, err := r.I32(); err != nil || v != -99999 {
		t.Fatalf("I32: got %d, %v", v, err)
	}
	if v, err := r.U64(); err != nil || v != 0x1122334455667788 {
		t.Fatalf("U64: got %#x, %v", v, err)
	}
	if v, err := r.I64(); err != nil || v != -1 {
		t.Fatalf("I64: got %d, %v", v, err)
	}
	if v, err := r.F32(); err != nil || v != 3.25 {
		t.Fatalf("F32: got %v, %v", v, err)
	}
	if v, err := r.F64(); err != nil || v != -6.5 {
		t.Fatalf("F64: got %v, %v", v, err)
	}
	if r.Len() != 0 {
		t.Fatalf("expected buffer fully consumed, %d bytes left", r.Len())
	}
}

func TestStringRoundTripEmpty(t *testing.T) {
	w := NewWriter(4)
	w.String("")
	got, err := NewReader(w.Bytes()).String()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "" {
		t.Errorf("got %q, want empty string", got)
	}
}

func TestStringRoundTripNonEmpty(t *testing.T) {
	want := "the quick brown fox"
	w := NewWriter(32)
	w.String(want)
	got, err := NewReader(w.Bytes()).String()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestStringRoundTripLong(t *testing.T) {
	want := make([]byte, 5000)
	for i := range want {
		want[i] = byte('a' + i%26)
	}
	w := NewWriter(len(want) + 8)
	w.String(string(want))
	got, err := NewReader(w.Bytes()).String()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != string(want) {
		t.Errorf("long string round-trip mismatch, len(got)=%d want=%d", len(got), len(want))
	}
}

func TestStringBadTag(t *testing.T) {
	r := NewReader([]byte{0x42})
	if _, err := r.String(); err != ErrBadStringTag {
		t.Errorf("got %v, want ErrBadStringTag", err)
	}
}

func TestStringShortBuffer(t *testing.T) {
	// tag says ULEB128 length follows, but nothing does.
	r := NewReader([]byte{0x0b})
	if _, err := r.String(); err != ErrShortBuffer {
		t.Errorf("got %v, want ErrShortBuffer", err)
	}
}

func TestI32ListRoundTrip(t *testing.T) {
	want := []int32{1, -2, 3, -400000, 0}
	w := NewWriter(4 + 4*len(want))
	w.I32List(want)

	got, err := NewReader(w.Bytes()).I32List()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != len(want) {
		t.Fatalf("got %d elements, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("element %d: got %d, want %d", i, got[i], want[i])
		}
	}
}

func TestI32ListEmpty(t *testing.T) {
	w := NewWriter(2)
	w.I32List(nil)
	got, err := NewReader(w.Bytes()).I32List()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("got %d elements, want 0", len(got))
	}
}

func TestShortBufferErrors(t *testing.T) {
	r := NewReader([]byte{0x01})
	if _, err := r.U16(); err != ErrShortBuffer {
		t.Errorf("U16: got %v, want ErrShortBuffer", err)
	}
	if _, err := r.U32(); err != ErrShortBuffer {
		t.Errorf("U32: got %v, want ErrShortBuffer", err)
	}
	if _, err := r.U64(); err != ErrShortBuffer {
		t.Errorf("U64: got %v, want ErrShortBuffer", err)
	}
}

func TestSkip(t *testing.T) {
	r := NewReader([]byte{1, 2, 3, 4, 5})
	if err := r.Skip(3); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	v, err := r.U8()
	if err != nil || v != 4 {
		t.Fatalf("got %d, %v, want 4, nil", v, err)
	}
	if err := r.Skip(10); err != ErrShortBuffer {
		t.Errorf("got %v, want ErrShortBuffer", err)
	}
}

// ---------------------------------------------------------------------------
// packet framing
// ---------------------------------------------------------------------------

func TestBuildPacketHeader(t *testing.T) {
	payload := []byte{0xAA, 0xBB, 0xCC}
	packet := BuildPacket(24, payload)

	r := NewReader(packet)
	id, _ := r.U16()
	if id != 24 {
		t.Errorf("packet id: got %d, want 24", id)
	}
	pad, _ := r.U8()
	if pad != 0 {
		t.Errorf("pad byte: got %d, want 0", pad)
	}
	length, _ := r.U32()
	if int(length) != len(payload) {
		t.Errorf("length: got %d, want %d", length, len(payload))
	}
	rest, _ := r.Bytes(int(length))
	if string(rest) != string(payload) {
		t.Errorf("payload: got %v, want %v", rest, payload)
	}
}

func TestReadFramesMultiple(t *testing.T) {
	body := append(BuildPacket(1, []byte("a")), BuildPacket(2, []byte("bc"))...)
	frames, err := ReadFrames(body)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(frames) != 2 {
		t.Fatalf("got %d frames, want 2", len(frames))
	}
	if frames[0].PacketID != 1 || string(frames[0].Payload) != "a" {
		t.Errorf("frame 0: got id=%d payload=%q", frames[0].PacketID, frames[0].Payload)
	}
	if frames[1].PacketID != 2 || string(frames[1].Payload) != "bc" {
		t.Errorf("frame 1: got id=%d payload=%q", frames[1].PacketID, frames[1].Payload)
	}
}

func TestReadFramesSkipsUnknownByDeclaredLength(t *testing.T) {
	// A frame whose payload we don't understand must not desynchronise the
	// stream: the frame after it still decodes correctly.
	body := append(BuildPacket(999, []byte("whatever garbage")), BuildPacket(2, []byte("ok"))...)
	frames, err := ReadFrames(body)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(frames) != 2 {
		t.Fatalf("got %d frames, want 2", len(frames))
	}
	if frames[1].PacketID != 2 || string(frames[1].Payload) != "ok" {
		t.Errorf("second frame: got id=%d payload=%q", frames[1].PacketID, frames[1].Payload)
	}
}

func TestReadFramesEmptyBody(t *testing.T) {
	frames, err := ReadFrames(nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(frames) != 0 {
		t.Errorf("got %d frames, want 0", len(frames))
	}
}

// ---------------------------------------------------------------------------
// compound types
// ---------------------------------------------------------------------------

func TestMessageRoundTrip(t *testing.T) {
	msg := Message{Sender: "alice", Content: "hello world", Recipient: "#osu", SenderID: 7}
	w := NewWriter(64)
	EncodeMessage(w, msg)

	got, err := DecodeMessage(NewReader(w.Bytes()))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != msg {
		t.Errorf("got %+v, want %+v", got, msg)
	}
}

func TestChannelInfoRoundTrip(t *testing.T) {
	info := ChannelInfo{Name: "#osu", Topic: "general discussion", UserCount: 42}
	w := NewWriter(64)
	EncodeChannelInfo(w, info)

	got, err := DecodeChannelInfo(NewReader(w.Bytes()))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != info {
		t.Errorf("got %+v, want %+v", got, info)
	}
}
