package packet

import (
	"encoding/binary"
	"math"

	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/encoding/traditionalchinese"
)

// StringEncoding selects the text codec a length-prefixed string field was
// written in (spec.md §6: "Shift-JIS (CP932) for Japanese-origin fields...
// UTF-8 for system messages", plus the teacher's existing Big5 path for the
// Taiwan client).
type StringEncoding int

const (
	EncodingBig5 StringEncoding = iota
	EncodingShiftJIS
	EncodingUTF8
)

// Reader reads L1J packet fields from a decrypted payload.
// Bytes 0-1 are always the little-endian opcode.
type Reader struct {
	data []byte
	off  int
}

func NewReader(data []byte) *Reader {
	return &Reader{data: data, off: 2} // skip the 2-byte opcode
}

func (r *Reader) Opcode() uint16 {
	if len(r.data) < 2 {
		return 0
	}
	return binary.LittleEndian.Uint16(r.data[0:2])
}

// ReadC reads 1 unsigned byte.
func (r *Reader) ReadC() byte {
	if r.off >= len(r.data) {
		return 0
	}
	v := r.data[r.off]
	r.off++
	return v
}

// ReadH reads 2 bytes as little-endian uint16.
func (r *Reader) ReadH() uint16 {
	if r.off+2 > len(r.data) {
		return 0
	}
	v := binary.LittleEndian.Uint16(r.data[r.off:])
	r.off += 2
	return v
}

// ReadD reads 4 bytes as little-endian int32.
func (r *Reader) ReadD() int32 {
	if r.off+4 > len(r.data) {
		return 0
	}
	v := int32(binary.LittleEndian.Uint32(r.data[r.off:]))
	r.off += 4
	return v
}

// ReadFloat reads 4 bytes as an IEEE-754 little-endian float32.
func (r *Reader) ReadFloat() float32 {
	return math.Float32frombits(uint32(r.ReadD()))
}

// ReadS reads a null-terminated string in enc and returns UTF-8.
func (r *Reader) ReadS(enc StringEncoding) string {
	start := r.off
	for r.off < len(r.data) {
		if r.data[r.off] == 0 {
			raw := r.data[start:r.off]
			r.off++ // skip null terminator
			return decodeString(raw, enc)
		}
		r.off++
	}
	return decodeString(r.data[start:r.off], enc)
}

func decodeString(raw []byte, enc StringEncoding) string {
	if len(raw) == 0 {
		return ""
	}
	if enc == EncodingUTF8 {
		return string(raw)
	}
	// Fast path: pure ASCII needs no conversion under any of the three codecs.
	allASCII := true
	for _, b := range raw {
		if b >= 0x80 {
			allASCII = false
			break
		}
	}
	if allASCII {
		return string(raw)
	}

	var decoded []byte
	var err error
	switch enc {
	case EncodingShiftJIS:
		decoded, err = japanese.ShiftJIS.NewDecoder().Bytes(raw)
	default:
		decoded, err = traditionalchinese.Big5.NewDecoder().Bytes(raw)
	}
	if err != nil {
		return string(raw) // fallback to raw bytes
	}
	return string(decoded)
}

// ReadBytes reads n raw bytes.
func (r *Reader) ReadBytes(n int) []byte {
	if r.off+n > len(r.data) {
		remaining := r.data[r.off:]
		r.off = len(r.data)
		return remaining
	}
	b := make([]byte, n)
	copy(b, r.data[r.off:r.off+n])
	r.off += n
	return b
}

// Remaining returns the number of unread bytes.
func (r *Reader) Remaining() int {
	return len(r.data) - r.off
}
