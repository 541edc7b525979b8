package wire

// Frame is one length-prefixed binary message on the poll stream:
// u16 packet_id, u8 pad, u32 length, bytes[length] payload.
type Frame struct {
	PacketID uint16
	Payload  []byte
}

// BuildPacket writes a single frame header plus payload into a fresh
// buffer, ready to append to a session's write queue.
func BuildPacket(packetID uint16, payload []byte) []byte {
	w := NewWriter(7 + len(payload))
	w.U16(packetID)
	w.U8(0)
	w.U32(uint32(len(payload)))
	w.Raw(payload)
	return w.Bytes()
}

// ReadFrames splits body into a sequence of frames. Each frame's declared
// length is trusted to skip it even when the packet id is unrecognised or
// its payload fails to decode — a malformed frame never desynchronises the
// stream for the frames that follow it, matching the protocol error policy
// in the spec: skip the offending frame by its declared length.
func ReadFrames(body []byte) ([]Frame, error) {
	r := NewReader(body)
	var frames []Frame
	for r.Len() > 0 {
		if r.Len() < 7 {
			// Trailing partial header: the client never sends one, but
			// guard against a truncated body rather than reading past EOF.
			return frames, ErrShortBuffer
		}
		id, err := r.U16()
		if err != nil {
			return frames, err
		}
		if _, err := r.U8(); err != nil { // pad byte
			return frames, err
		}
		length, err := r.U32()
		if err != nil {
			return frames, err
		}
		payload, err := r.Bytes(int(length))
		if err != nil {
			return frames, err
		}
		frames = append(frames, Frame{PacketID: id, Payload: payload})
	}
	return frames, nil
}
