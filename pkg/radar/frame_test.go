package radar

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// Golden command frames from the module's serial protocol reference.
func TestEncodeCommandGolden(t *testing.T) {
	testCases := []struct {
		name   string
		frame  []byte
		expect []byte
	}{
		{
			name:  "enter config",
			frame: encodeCommand(opEnterConfig, []byte{0x01, 0x00}),
			expect: []byte{0xfd, 0xfc, 0xfb, 0xfa, 0x04, 0x00, 0xff, 0x00,
				0x01, 0x00, 0x04, 0x03, 0x02, 0x01},
		},
		{
			name:  "exit config",
			frame: encodeCommand(opExitConfig, nil),
			expect: []byte{0xfd, 0xfc, 0xfb, 0xfa, 0x02, 0x00, 0xfe, 0x00,
				0x04, 0x03, 0x02, 0x01},
		},
		{
			name:  "engineering on",
			frame: encodeCommand(opEngineeringOn, nil),
			expect: []byte{0xfd, 0xfc, 0xfb, 0xfa, 0x02, 0x00, 0x62, 0x00,
				0x04, 0x03, 0x02, 0x01},
		},
		{
			name:  "get version",
			frame: encodeCommand(opVersion, nil),
			expect: []byte{0xfd, 0xfc, 0xfb, 0xfa, 0x02, 0x00, 0xa0, 0x00,
				0x04, 0x03, 0x02, 0x01},
		},
		{
			name:  "bluetooth on",
			frame: encodeCommand(opBluetooth, []byte{0x01, 0x00}),
			expect: []byte{0xfd, 0xfc, 0xfb, 0xfa, 0x04, 0x00, 0xa4, 0x00,
				0x01, 0x00, 0x04, 0x03, 0x02, 0x01},
		},
		{
			name:  "set resolution 0.25m",
			frame: encodeCommand(opSetResolution, []byte{0x01, 0x00}),
			expect: []byte{0xfd, 0xfc, 0xfb, 0xfa, 0x04, 0x00, 0xaa, 0x00,
				0x01, 0x00, 0x04, 0x03, 0x02, 0x01},
		},
		{
			name: "set detection distance",
			frame: encodeParamCommand(opSetDistance, [][2]uint32{
				{0x0000, 6}, {0x0001, 6}, {0x0002, 30},
			}),
			expect: []byte{0xfd, 0xfc, 0xfb, 0xfa, 0x14, 0x00, 0x60, 0x00,
				0x00, 0x00, 0x06, 0x00, 0x00, 0x00,
				0x01, 0x00, 0x06, 0x00, 0x00, 0x00,
				0x02, 0x00, 0x1e, 0x00, 0x00, 0x00,
				0x04, 0x03, 0x02, 0x01},
		},
		{
			name: "set gate power",
			frame: encodeParamCommand(opSetGate, [][2]uint32{
				{0x0000, 3}, {0x0001, 40}, {0x0002, 40},
			}),
			expect: []byte{0xfd, 0xfc, 0xfb, 0xfa, 0x14, 0x00, 0x64, 0x00,
				0x00, 0x00, 0x03, 0x00, 0x00, 0x00,
				0x01, 0x00, 0x28, 0x00, 0x00, 0x00,
				0x02, 0x00, 0x28, 0x00, 0x00, 0x00,
				0x04, 0x03, 0x02, 0x01},
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.expect, tc.frame)
		})
	}
}

func TestScanAck(t *testing.T) {
	ack := ackFrame(opVersion, 0)

	frame, rest := scanAck(ack)
	require.Equal(t, ack, frame)
	require.Empty(t, rest)

	// Header anywhere in the buffer is found, leading noise skipped.
	buf := append([]byte{0x99, 0xfd, 0x11}, ack...)
	buf = append(buf, 0xab)
	frame, rest = scanAck(buf)
	require.Equal(t, ack, frame)
	require.Equal(t, []byte{0xab}, rest)

	// Incomplete frames are left alone.
	frame, rest = scanAck(ack[:len(ack)-2])
	require.Nil(t, frame)
	require.Equal(t, ack[:len(ack)-2], rest)

	frame, _ = scanAck([]byte{0x01, 0x02, 0x03})
	require.Nil(t, frame)
}

func TestAckOK(t *testing.T) {
	require.True(t, ackOK(ackFrame(opReboot, 0)))
	require.False(t, ackOK(ackFrame(opReboot, 1)))
	require.False(t, ackOK(cmdHeader))
}
