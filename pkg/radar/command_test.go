package radar

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/mmwave.go/pkg/serial"
)

// fakePort is an in-memory serial.Port. Read returns whatever was
// injected, or 0 bytes like a real port whose read timeout expired.
type fakePort struct {
	lock    sync.Mutex
	rx      []byte
	writes  [][]byte
	respond func(written []byte) []byte
	readErr error
	resets  int
	closed  bool
}

func (p *fakePort) Read(buf []byte) (int, error) {
	p.lock.Lock()
	defer p.lock.Unlock()
	if p.readErr != nil {
		return 0, p.readErr
	}
	if len(p.rx) == 0 {
		return 0, nil
	}
	n := copy(buf, p.rx)
	p.rx = p.rx[n:]
	return n, nil
}

func (p *fakePort) Write(data []byte) (int, error) {
	p.lock.Lock()
	defer p.lock.Unlock()
	written := append([]byte{}, data...)
	p.writes = append(p.writes, written)
	if p.respond != nil {
		p.rx = append(p.rx, p.respond(written)...)
	}
	return len(data), nil
}

func (p *fakePort) Close() error {
	p.lock.Lock()
	defer p.lock.Unlock()
	p.closed = true
	return nil
}

func (p *fakePort) ResetInputBuffer() error {
	p.lock.Lock()
	defer p.lock.Unlock()
	p.rx = nil
	p.resets++
	return nil
}

func (p *fakePort) ResetOutputBuffer() error { return nil }

func (p *fakePort) SetReadTimeout(time.Duration) error { return nil }

func (p *fakePort) inject(data []byte) {
	p.lock.Lock()
	p.rx = append(p.rx, data...)
	p.lock.Unlock()
}

func (p *fakePort) writeCount() int {
	p.lock.Lock()
	defer p.lock.Unlock()
	return len(p.writes)
}

// ackFrame builds a device ACK: the opcode echoed with its high byte
// set, a status word, then payload.
func ackFrame(op uint16, status uint16, payload ...byte) []byte {
	frame := append([]byte{}, cmdHeader...)
	n := 4 + len(payload)
	frame = append(frame, byte(n), byte(n>>8))
	frame = append(frame, byte(op), byte(op>>8)|0x01)
	frame = append(frame, byte(status), byte(status>>8))
	frame = append(frame, payload...)
	frame = append(frame, cmdTrailer...)
	return frame
}

// fastConfig keeps command tests quick while preserving the
// attempts/interval/deadline structure.
func fastConfig() CommandConfig {
	return CommandConfig{
		Attempts:     3,
		SendInterval: 30 * time.Millisecond,
		PollInterval: 2 * time.Millisecond,
		Deadline:     100 * time.Millisecond,
	}
}

func TestCommanderSilentDevice(t *testing.T) {
	port := &fakePort{}
	c := &Commander{Port: port, Config: fastConfig()}
	start := time.Now()
	ok, resp := c.Send(encodeCommand(opVersion, nil))
	elapsed := time.Since(start)
	require.False(t, ok)
	require.Nil(t, resp)
	require.Equal(t, 3, port.writeCount())
	require.GreaterOrEqual(t, elapsed, c.Config.Deadline)
	require.Less(t, elapsed, 3*c.Config.Deadline)
}

func TestCommanderFirstAttemptAck(t *testing.T) {
	ack := ackFrame(opEnterConfig, 0, 0x01, 0x00)
	port := &fakePort{respond: func([]byte) []byte { return ack }}
	c := &Commander{Port: port, Config: fastConfig()}
	start := time.Now()
	ok, resp := c.Send(encodeCommand(opEnterConfig, []byte{0x01, 0x00}))
	require.True(t, ok)
	require.Equal(t, ack, resp)
	require.Equal(t, 1, port.writeCount())
	// No waiting for the retry interval once the ACK is in.
	require.Less(t, time.Since(start), c.Config.SendInterval)
}

func TestCommanderAckAfterNoise(t *testing.T) {
	ack := ackFrame(opReboot, 0)
	port := &fakePort{respond: func([]byte) []byte {
		return append([]byte{0x00, 0xfd, 0xfc, 0x37}, ack...)
	}}
	c := &Commander{Port: port, Config: fastConfig()}
	ok, resp := c.Send(encodeCommand(opReboot, nil))
	require.True(t, ok)
	require.Equal(t, ack, resp)
}

func TestCommanderErrorStatus(t *testing.T) {
	ack := ackFrame(opSetResolution, 1)
	port := &fakePort{respond: func([]byte) []byte { return ack }}
	c := &Commander{Port: port, Config: fastConfig()}
	ok, resp := c.Send(encodeCommand(opSetResolution, []byte{0x01, 0x00}))
	require.False(t, ok)
	require.Equal(t, ack, resp)
}

func TestCommanderRetransmitThenAck(t *testing.T) {
	ack := ackFrame(opExitConfig, 0)
	var calls int
	port := &fakePort{respond: func([]byte) []byte {
		calls++
		if calls < 2 {
			return nil // first transmission goes unanswered
		}
		return ack
	}}
	c := &Commander{Port: port, Config: fastConfig()}
	ok, resp := c.Send(encodeCommand(opExitConfig, nil))
	require.True(t, ok)
	require.Equal(t, ack, resp)
	require.Equal(t, 2, port.writeCount())
}

func TestCommanderWriteError(t *testing.T) {
	port := &fakePort{}
	c := &Commander{Port: port, Config: fastConfig()}
	broken := &brokenPort{fakePort: port, writeErr: errors.New("eio")}
	c.Port = broken
	ok, resp := c.Send(encodeCommand(opVersion, nil))
	require.False(t, ok)
	require.Nil(t, resp)
}

type brokenPort struct {
	*fakePort
	writeErr error
}

func (p *brokenPort) Write(data []byte) (int, error) {
	if p.writeErr != nil {
		return 0, p.writeErr
	}
	return p.fakePort.Write(data)
}

var _ serial.Port = (*fakePort)(nil)
