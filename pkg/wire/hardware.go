package wire

// HardwareHeaderSize is the length of the 5-byte header used by
// device-side ("hardware") connections: 1-byte command, 2-byte message id,
// 2-byte length. The controller never opens a hardware connection; these
// are provided only so a caller bridging to a device-facing proxy has a
// matching codec available.
const HardwareHeaderSize = 5

// EncodeHardware serialises f using the 5-byte hardware header. Unlike the
// mobile framing, RESPONSE frames still encode their status in the length
// field position and carry no payload, consistent with the wire behaviour
// observed on hardware links.
func EncodeHardware(f Frame) []byte {
	if f.IsResponse() {
		buf := make([]byte, HardwareHeaderSize)
		buf[0] = byte(f.Command)
		putUint16(buf[1:3], f.ID)
		putUint16(buf[3:5], uint16(f.Code))
		return buf
	}
	n := len(f.Payload)
	buf := make([]byte, HardwareHeaderSize+n)
	buf[0] = byte(f.Command)
	putUint16(buf[1:3], f.ID)
	putUint16(buf[3:5], uint16(n))
	copy(buf[HardwareHeaderSize:], f.Payload)
	return buf
}

// DecodeHardware parses a single 5-byte-header frame from buf, returning
// the frame and the number of bytes consumed. It reports ok=false if buf
// does not yet contain a complete frame.
func DecodeHardware(buf []byte) (f Frame, n int, ok bool) {
	if len(buf) < HardwareHeaderSize {
		return Frame{}, 0, false
	}
	cmd := Command(buf[0])
	id := getUint16(buf[1:3])
	length := getUint16(buf[3:5])

	if cmd == RESPONSE {
		return Frame{Command: RESPONSE, ID: id, Code: ParseStatus(uint32(length))}, HardwareHeaderSize, true
	}

	total := HardwareHeaderSize + int(length)
	if len(buf) < total {
		return Frame{}, 0, false
	}
	payload := make([]byte, length)
	copy(payload, buf[HardwareHeaderSize:total])
	return Frame{Command: cmd, ID: id, Length: uint32(length), Payload: payload}, total, true
}
