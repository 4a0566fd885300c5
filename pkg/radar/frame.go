package radar

import (
	"bytes"
	"encoding/binary"
)

// Telemetry frame delimiters.
var (
	dataHeader  = []byte{0xf4, 0xf3, 0xf2, 0xf1}
	dataTrailer = []byte{0xf8, 0xf7, 0xf6, 0xf5}
)

// Command/ACK frame delimiters.
var (
	cmdHeader  = []byte{0xfd, 0xfc, 0xfb, 0xfa}
	cmdTrailer = []byte{0x04, 0x03, 0x02, 0x01}
)

// Command opcodes, little-endian words on the wire.
const (
	opEnterConfig   uint16 = 0x00ff
	opExitConfig    uint16 = 0x00fe
	opEngineeringOn uint16 = 0x0062
	opEngineeringOf uint16 = 0x0063
	opVersion       uint16 = 0x00a0
	opBluetooth     uint16 = 0x00a4
	opSetDistance   uint16 = 0x0060
	opSetGate       uint16 = 0x0064
	opSetResolution uint16 = 0x00aa
	opGetResolution uint16 = 0x00ab
	opGetConfig     uint16 = 0x0061
	opFactoryReset  uint16 = 0x00a2
	opReboot        uint16 = 0x00a3
)

// encodeCommand frames an opcode and payload for sending. The 16-bit
// length field counts the opcode word plus the payload.
func encodeCommand(op uint16, payload []byte) []byte {
	frame := make([]byte, 0, len(payload)+12)
	frame = append(frame, cmdHeader...)
	frame = append(frame, byte(len(payload)+2), byte((len(payload)+2)>>8))
	frame = append(frame, byte(op), byte(op>>8))
	frame = append(frame, payload...)
	frame = append(frame, cmdTrailer...)
	return frame
}

// encodeParamCommand frames an opcode with parameter words, each a
// 16-bit parameter id followed by a 32-bit little-endian value.
func encodeParamCommand(op uint16, params [][2]uint32) []byte {
	payload := make([]byte, 6*len(params))
	for i, p := range params {
		binary.LittleEndian.PutUint16(payload[6*i:], uint16(p[0]))
		binary.LittleEndian.PutUint32(payload[6*i+2:], p[1])
	}
	return encodeCommand(op, payload)
}

// scanAck locates a complete ACK frame anywhere in buf. It returns the
// framed bytes and the unconsumed remainder, or (nil, buf) if no
// complete frame is present yet.
func scanAck(buf []byte) (frame, rest []byte) {
	start := bytes.Index(buf, cmdHeader)
	if start < 0 {
		return nil, buf
	}
	end := bytes.Index(buf[start+4:], cmdTrailer)
	if end < 0 {
		return nil, buf
	}
	stop := start + 4 + end + 4
	return buf[start:stop], buf[stop:]
}

// ackOK reports whether frame carries a zero ACK status word.
func ackOK(frame []byte) bool {
	return len(frame) >= 9 && frame[8] == 0
}
