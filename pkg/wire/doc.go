// Package wire defines the binary frame format used to talk to a Blynk-family
// server over TLS.
//
// Every frame is a fixed 7-byte header followed by an optional payload:
//
//	offset  bytes  field
//	0       1      command (opcode, 0 = RESPONSE)
//	1       2      message id (big-endian)
//	3       4      status_or_length (big-endian)
//	7       N      payload (N bytes, N = status_or_length unless command == RESPONSE)
//
// RESPONSE frames (command == 0) carry no payload; status_or_length holds a
// response status code instead of a byte count. All other frames carry a
// payload of exactly status_or_length bytes, often UTF-8 text fields joined
// by a single NUL byte.
//
// The session controller uses only this 7-byte "mobile" header. The 5-byte
// "hardware" header of device-side connections is available through
// EncodeHardware and DecodeHardware, which the controller never calls.
package wire
