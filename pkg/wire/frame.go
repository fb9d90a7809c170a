package wire

// HeaderSize is the fixed length of the 7-byte mobile frame header.
const HeaderSize = 7

// MaxPayloadSize is the sanity cap applied to the length field of inbound
// frames. A header declaring a longer payload is treated as corrupt.
const MaxPayloadSize = 10_000_000

// Frame is a single decoded protocol message: either a RESPONSE (no
// payload, Code set) or any other command (payload set, Code unused).
type Frame struct {
	Command   Command
	ID        uint16
	Code      Status // valid only when Command == RESPONSE
	Length    uint32 // payload length for non-RESPONSE frames
	Payload   []byte
}

// IsResponse reports whether f is a RESPONSE frame.
func (f Frame) IsResponse() bool {
	return f.Command == RESPONSE
}

// Encode serialises f into the 7-byte-header wire format.
//
// For RESPONSE frames the status code occupies the status_or_length field
// and no payload bytes are written, regardless of f.Payload. For all other
// frames, status_or_length carries len(f.Payload) and the payload bytes
// follow the header.
func Encode(f Frame) []byte {
	if f.IsResponse() {
		buf := make([]byte, HeaderSize)
		buf[0] = byte(f.Command)
		putUint16(buf[1:3], f.ID)
		putUint32(buf[3:7], uint32(f.Code))
		return buf
	}
	n := len(f.Payload)
	buf := make([]byte, HeaderSize+n)
	buf[0] = byte(f.Command)
	putUint16(buf[1:3], f.ID)
	putUint32(buf[3:7], uint32(n))
	copy(buf[HeaderSize:], f.Payload)
	return buf
}

func putUint16(b []byte, v uint16) {
	b[0] = byte(v >> 8)
	b[1] = byte(v)
}

func putUint32(b []byte, v uint32) {
	b[0] = byte(v >> 24)
	b[1] = byte(v >> 16)
	b[2] = byte(v >> 8)
	b[3] = byte(v)
}

func getUint16(b []byte) uint16 {
	return uint16(b[0])<<8 | uint16(b[1])
}

func getUint32(b []byte) uint32 {
	return uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3])
}
