package radar

import (
	"time"

	"github.com/golang/glog"

	"github.com/robotalks/mmwave.go/pkg/serial"
)

// CommandConfig bounds a command/ACK exchange. Zero values fall back
// to the device's documented timing.
type CommandConfig struct {
	// Attempts is the transmission cap, including the first send.
	Attempts int
	// SendInterval is the spacing between transmissions.
	SendInterval time.Duration
	// PollInterval is the pause between response scans.
	PollInterval time.Duration
	// Deadline bounds the whole exchange across all attempts.
	Deadline time.Duration
}

// DefaultCommandConfig returns the exchange parameters matching the
// module's documented timing.
func DefaultCommandConfig() CommandConfig {
	return CommandConfig{
		Attempts:     3,
		SendInterval: time.Second,
		PollInterval: 200 * time.Millisecond,
		Deadline:     4 * time.Second,
	}
}

func (c CommandConfig) withDefaults() CommandConfig {
	def := DefaultCommandConfig()
	if c.Attempts <= 0 {
		c.Attempts = def.Attempts
	}
	if c.SendInterval <= 0 {
		c.SendInterval = def.SendInterval
	}
	if c.PollInterval <= 0 {
		c.PollInterval = def.PollInterval
	}
	if c.Deadline <= 0 {
		c.Deadline = def.Deadline
	}
	return c
}

// Commander performs synchronous command/ACK exchanges over the port.
// It must own the link: callers guarantee the ingest loop is stopped
// before any exchange. Its own deadline is the only bound on wait time.
type Commander struct {
	Port   serial.Port
	Config CommandConfig
}

// Send transmits a framed command and waits for its ACK. It retransmits
// on the send interval up to the attempt cap, without resetting the
// overall deadline. ok reports a zero ACK status word; resp is the raw
// ACK frame, or nil when none arrived in time.
func (c *Commander) Send(cmd []byte) (ok bool, resp []byte) {
	cfg := c.Config.withDefaults()
	start := time.Now()
	var lastSend time.Time
	var attempts int
	var buf []byte
	for {
		if attempts < cfg.Attempts && (attempts == 0 || time.Since(lastSend) >= cfg.SendInterval) {
			if err := c.Port.ResetInputBuffer(); err != nil {
				glog.Errorf("reset input buffer: %v", err)
			}
			if glog.V(2) {
				glog.Infof("TX % 02x", cmd)
			}
			if _, err := c.Port.Write(cmd); err != nil {
				glog.Errorf("command write: %v", err)
				return false, nil
			}
			attempts++
			lastSend = time.Now()
		}
		time.Sleep(cfg.PollInterval)

		data, err := drain(c.Port)
		if err != nil {
			glog.Errorf("command read: %v", err)
			return false, nil
		}
		if len(data) > 0 {
			if glog.V(2) {
				glog.Infof("RX % 02x", data)
			}
			buf = append(buf, data...)
			if frame, _ := scanAck(buf); frame != nil {
				return ackOK(frame), frame
			}
		}

		if time.Since(start) > cfg.Deadline {
			return false, nil
		}
	}
}

// drain reads all bytes currently available on the port. The port read
// timeout bounds the wait; a zero-length read means nothing is left.
func drain(p serial.Port) ([]byte, error) {
	var out []byte
	buf := make([]byte, 256)
	for {
		n, err := p.Read(buf)
		if n > 0 {
			out = append(out, buf[:n]...)
		}
		if err != nil {
			return out, err
		}
		if n < len(buf) {
			return out, nil
		}
	}
}
