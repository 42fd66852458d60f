package planet

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// encoder/decoder implement the mesh's fixed bit-level encoding:
// variable-length strings are u64-LE length || UTF-8 bytes; tagged
// unions are u32-LE discriminant || variant payload. This has to be
// hand-rolled rather than gob/json because the wire format is pinned
// bit-exactly by the protocol, not left to a generic codec.
type encoder struct {
	buf bytes.Buffer
}

func (e *encoder) putString(s string) {
	var lenBuf [8]byte
	binary.LittleEndian.PutUint64(lenBuf[:], uint64(len(s)))
	e.buf.Write(lenBuf[:])
	e.buf.WriteString(s)
}

func (e *encoder) putUint32(v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	e.buf.Write(b[:])
}

func (e *encoder) putByte(b byte) {
	e.buf.WriteByte(b)
}

func (e *encoder) bytes() []byte {
	return e.buf.Bytes()
}

type decoder struct {
	data []byte
	pos  int
}

func newDecoder(data []byte) *decoder {
	return &decoder{data: data}
}

func (d *decoder) getString() (string, error) {
	if d.pos+8 > len(d.data) {
		return "", fmt.Errorf("planet: truncated string length")
	}
	length := binary.LittleEndian.Uint64(d.data[d.pos : d.pos+8])
	d.pos += 8
	if d.pos+int(length) > len(d.data) {
		return "", fmt.Errorf("planet: truncated string body")
	}
	s := string(d.data[d.pos : d.pos+int(length)])
	d.pos += int(length)
	return s, nil
}

func (d *decoder) getUint32() (uint32, error) {
	if d.pos+4 > len(d.data) {
		return 0, fmt.Errorf("planet: truncated uint32")
	}
	v := binary.LittleEndian.Uint32(d.data[d.pos : d.pos+4])
	d.pos += 4
	return v, nil
}

func (d *decoder) getByte() (byte, error) {
	if d.pos+1 > len(d.data) {
		return 0, fmt.Errorf("planet: truncated byte")
	}
	b := d.data[d.pos]
	d.pos++
	return b, nil
}

func (d *decoder) finished() bool {
	return d.pos == len(d.data)
}
