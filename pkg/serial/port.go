// Package serial provides the byte transport to the radar module.
package serial

import (
	"io"
	"time"

	bugst "go.bug.st/serial"
)

// DefaultBaud is the factory baud rate of the radar module.
const DefaultBaud = 256000

// Options configures the serial link.
type Options struct {
	Device string
	Baud   int
}

// DefaultOptions returns Options for the factory configuration of the
// module on the most common device node.
func DefaultOptions() Options {
	return Options{Device: "/dev/ttyUSB0", Baud: DefaultBaud}
}

// Port is the duplex channel the driver operates on. Read blocks up to
// the configured read timeout and returns 0 bytes when it expires, which
// the driver uses to poll for currently available bytes.
type Port interface {
	io.ReadWriteCloser
	ResetInputBuffer() error
	ResetOutputBuffer() error
	SetReadTimeout(time.Duration) error
}

// Open opens the serial device in 8N1 mode.
func Open(opts Options) (Port, error) {
	baud := opts.Baud
	if baud == 0 {
		baud = DefaultBaud
	}
	mode := &bugst.Mode{
		BaudRate: baud,
		DataBits: 8,
		Parity:   bugst.NoParity,
		StopBits: bugst.OneStopBit,
	}
	port, err := bugst.Open(opts.Device, mode)
	if err != nil {
		return nil, err
	}
	return port, nil
}
