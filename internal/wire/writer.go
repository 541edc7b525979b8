package wire

import (
	"encoding/binary"
	"math"
)

// Writer accumulates little-endian encoded primitives into a growable
// buffer. The zero value is ready to use.
type Writer struct {
	buf []byte
}

// NewWriter returns a Writer with capacity hint n.
func NewWriter(n int) *Writer {
	return &Writer{buf: make([]byte, 0, n)}
}

// Bytes returns the accumulated buffer. The caller must not mutate it.
func (w *Writer) Bytes() []byte { return w.buf }

// Len returns the number of bytes written so far.
func (w *Writer) Len() int { return len(w.buf) }

func (w *Writer) U8(v uint8) *Writer {
	w.buf = append(w.buf, v)
	return w
}

func (w *Writer) I8(v int8) *Writer { return w.U8(uint8(v)) }

func (w *Writer) U16(v uint16) *Writer {
	var b [2]byte
	binary.LittleEndian.PutUint16(b[:], v)
	w.buf = append(w.buf, b[:]...)
	return w
}

func (w *Writer) I16(v int16) *Writer { return w.U16(uint16(v)) }

func (w *Writer) U32(v uint32) *Writer {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	w.buf = append(w.buf, b[:]...)
	return w
}

func (w *Writer) I32(v int32) *Writer { return w.U32(uint32(v)) }

func (w *Writer) U64(v uint64) *Writer {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	w.buf = append(w.buf, b[:]...)
	return w
}

func (w *Writer) I64(v int64) *Writer { return w.U64(uint64(v)) }

func (w *Writer) F32(v float32) *Writer { return w.U32(math.Float32bits(v)) }

func (w *Writer) F64(v float64) *Writer { return w.U64(math.Float64bits(v)) }

func (w *Writer) Raw(b []byte) *Writer {
	w.buf = append(w.buf, b...)
	return w
}

func (w *Writer) uleb128(n uint64) *Writer {
	for {
		b := byte(n & 0x7f)
		n >>= 7
		if n != 0 {
			b |= 0x80
		}
		w.buf = append(w.buf, b)
		if n == 0 {
			return w
		}
	}
}

// String writes s in the ULEB128-prefixed format: 0x00 for an empty string,
// otherwise 0x0b followed by the ULEB128 byte length and the UTF-8 bytes.
func (w *Writer) String(s string) *Writer {
	if s == "" {
		return w.U8(0x00)
	}
	w.U8(0x0b)
	w.uleb128(uint64(len(s)))
	return w.Raw([]byte(s))
}

// I32List writes the int-list format: a u16 count followed by that many
// u32 values.
func (w *Writer) I32List(vals []int32) *Writer {
	w.U16(uint16(len(vals)))
	for _, v := range vals {
		w.U32(uint32(v))
	}
	return w
}
