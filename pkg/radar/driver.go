package radar

import (
	"fmt"
	"time"

	"github.com/golang/glog"

	"github.com/robotalks/mmwave.go/pkg/serial"
)

const (
	// readTimeout bounds a single port read while polling.
	readTimeout = 10 * time.Millisecond
	// ingestInterval is the sleep between ingest iterations.
	ingestInterval = 10 * time.Millisecond
	// joinTimeout bounds the wait for the ingest loop to stop.
	joinTimeout = time.Second
)

// ConfigSnapshot is the device configuration reported by the radar.
type ConfigSnapshot struct {
	DetectionGate     byte    `json:"detection_gate"`
	MovingGate        byte    `json:"moving_gate"`
	StaticGate        byte    `json:"static_gate"`
	MovingSensitivity [9]byte `json:"moving_sensitivity"`
	StaticSensitivity [9]byte `json:"static_sensitivity"`
	NoTargetDuration  uint16  `json:"no_target_duration_s"`
}

// Driver owns one radar module on one serial link. Lifecycle methods
// and configuration operations are driven from a single controlling
// context; only ReadData is safe to call concurrently with the ingest
// loop. The owner must call Disconnect to release the port; nothing is
// tied to finalization.
type Driver struct {
	Options serial.Options
	Command CommandConfig

	open      func(serial.Options) (serial.Port, error)
	port      serial.Port
	commander *Commander
	queue     *ReadingQueue

	configMode  bool
	engineering bool
	running     bool
	stopCh      chan struct{}
	doneCh      chan struct{}
}

// New creates a Driver for the given serial options with default
// command timing.
func New(opts serial.Options) *Driver {
	return &Driver{
		Options: opts,
		Command: DefaultCommandConfig(),
		open:    serial.Open,
	}
}

// Connected reports whether the port is open.
func (d *Driver) Connected() bool {
	return d.port != nil
}

// ConfigModeActive reports whether the device is in config mode.
func (d *Driver) ConfigModeActive() bool {
	return d.configMode
}

// EngineeringModeActive reports whether engineering telemetry was
// requested.
func (d *Driver) EngineeringModeActive() bool {
	return d.engineering
}

// Reading reports whether the ingest loop is running.
func (d *Driver) Reading() bool {
	return d.running
}

// Connect opens the serial port and clears both transfer buffers.
func (d *Driver) Connect() error {
	if d.port != nil {
		return nil
	}
	port, err := d.open(d.Options)
	if err != nil {
		return err
	}
	if err := port.SetReadTimeout(readTimeout); err != nil {
		port.Close()
		return err
	}
	if err := port.ResetInputBuffer(); err != nil {
		glog.Warningf("reset input buffer: %v", err)
	}
	if err := port.ResetOutputBuffer(); err != nil {
		glog.Warningf("reset output buffer: %v", err)
	}
	d.port = port
	d.commander = &Commander{Port: port, Config: d.Command}
	d.queue = NewReadingQueue(queueDepth)
	glog.V(4).Infof("radar connected on %s", d.Options.Device)
	return nil
}

// Disconnect stops the ingest loop, then closes the port. The driver
// returns to its initial state.
func (d *Driver) Disconnect() error {
	d.StopReading()
	if d.port == nil {
		return nil
	}
	err := d.port.Close()
	d.port = nil
	d.commander = nil
	d.queue = nil
	d.configMode = false
	return err
}

// EnableConfigMode switches the device into config mode so it accepts
// command frames. Refused while the ingest loop owns the link.
func (d *Driver) EnableConfigMode() error {
	if d.port == nil {
		return ErrNotConnected
	}
	if d.running {
		return ErrIngestRunning
	}
	ok, _ := d.commander.Send(encodeCommand(opEnterConfig, []byte{0x01, 0x00}))
	if !ok {
		return &CommandError{Op: "enter config mode"}
	}
	d.configMode = true
	return nil
}

// DisableConfigMode returns the device to streaming telemetry.
func (d *Driver) DisableConfigMode() error {
	if d.port == nil {
		return ErrNotConnected
	}
	if d.running {
		return ErrIngestRunning
	}
	ok, _ := d.commander.Send(encodeCommand(opExitConfig, nil))
	if !ok {
		return &CommandError{Op: "exit config mode"}
	}
	d.configMode = false
	return nil
}

// requireConfigMode gates config commands without touching the
// transport.
func (d *Driver) requireConfigMode() error {
	if d.port == nil {
		return ErrNotConnected
	}
	if !d.configMode {
		return ErrConfigModeRequired
	}
	return nil
}

// Version queries the firmware version string.
func (d *Driver) Version() (string, error) {
	if err := d.requireConfigMode(); err != nil {
		return "", err
	}
	ok, resp := d.commander.Send(encodeCommand(opVersion, nil))
	if !ok || len(resp) < 18 || resp[7] != 0x01 {
		return "", &CommandError{Op: "get version"}
	}
	return fmt.Sprintf("V%02x.%02x.%02x%02x%02x%02x",
		resp[13], resp[12], resp[17], resp[16], resp[15], resp[14]), nil
}

// SetBluetooth switches the module's Bluetooth radio on or off.
func (d *Driver) SetBluetooth(enable bool) error {
	if err := d.requireConfigMode(); err != nil {
		return err
	}
	payload := []byte{0x00, 0x00}
	if enable {
		payload[0] = 0x01
	}
	ok, resp := d.commander.Send(encodeCommand(opBluetooth, payload))
	if !ok || len(resp) < 14 || resp[7] != 0x01 {
		return &CommandError{Op: "set bluetooth"}
	}
	return nil
}

// SetDetectionDistance sets the furthest detection gate (1-8) and the
// no-target report delay in seconds.
func (d *Driver) SetDetectionDistance(distance, seconds int) error {
	if err := d.requireConfigMode(); err != nil {
		return err
	}
	if distance < 1 || distance > 8 {
		return &RangeError{Param: "distance gate", Value: distance}
	}
	if seconds <= 0 {
		return &RangeError{Param: "no-target duration", Value: seconds}
	}
	cmd := encodeParamCommand(opSetDistance, [][2]uint32{
		{0x0000, uint32(distance)},
		{0x0001, uint32(distance)},
		{0x0002, uint32(seconds)},
	})
	ok, resp := d.commander.Send(cmd)
	if !ok || len(resp) < 14 || resp[7] != 0x01 {
		return &CommandError{Op: "set detection distance"}
	}
	return nil
}

// SetGatePower sets per-gate sensitivity: gate 1-8, movement and static
// sensitivity 1-100.
func (d *Driver) SetGatePower(gate, movePower, staticPower int) error {
	if err := d.requireConfigMode(); err != nil {
		return err
	}
	if gate < 1 || gate > 8 {
		return &RangeError{Param: "gate", Value: gate}
	}
	if movePower < 1 || movePower > 100 {
		return &RangeError{Param: "movement sensitivity", Value: movePower}
	}
	if staticPower < 1 || staticPower > 100 {
		return &RangeError{Param: "static sensitivity", Value: staticPower}
	}
	cmd := encodeParamCommand(opSetGate, [][2]uint32{
		{0x0000, uint32(gate)},
		{0x0001, uint32(movePower)},
		{0x0002, uint32(staticPower)},
	})
	ok, resp := d.commander.Send(cmd)
	if !ok || len(resp) < 14 || resp[7] != 0x01 {
		return &CommandError{Op: "set gate power"}
	}
	return nil
}

// SetResolution sets gate resolution: 0 for 0.75m, 1 for 0.25m. The
// device persists it and reboots to apply.
func (d *Driver) SetResolution(resolution int) error {
	if err := d.requireConfigMode(); err != nil {
		return err
	}
	if resolution != 0 && resolution != 1 {
		return &RangeError{Param: "resolution", Value: resolution}
	}
	ok, _ := d.commander.Send(encodeCommand(opSetResolution, []byte{byte(resolution), 0x00}))
	if !ok {
		return &CommandError{Op: "set resolution"}
	}
	return d.Reboot()
}

// Resolution queries the current gate resolution (0 or 1).
func (d *Driver) Resolution() (int, error) {
	if err := d.requireConfigMode(); err != nil {
		return 0, err
	}
	ok, resp := d.commander.Send(encodeCommand(opGetResolution, nil))
	if !ok || len(resp) < 14 {
		return 0, &CommandError{Op: "get resolution"}
	}
	return int(resp[10]), nil
}

// Config queries the full device configuration snapshot.
func (d *Driver) Config() (*ConfigSnapshot, error) {
	if err := d.requireConfigMode(); err != nil {
		return nil, err
	}
	ok, resp := d.commander.Send(encodeCommand(opGetConfig, nil))
	if !ok || len(resp) < 34 || resp[7] != 0x01 {
		return nil, &CommandError{Op: "get config"}
	}
	snap := &ConfigSnapshot{
		DetectionGate:    resp[11],
		MovingGate:       resp[12],
		StaticGate:       resp[13],
		NoTargetDuration: uint16(resp[32]) | uint16(resp[33])<<8,
	}
	copy(snap.MovingSensitivity[:], resp[14:23])
	copy(snap.StaticSensitivity[:], resp[23:32])
	return snap, nil
}

// ResetFactory restores factory settings. The device reboots to apply.
func (d *Driver) ResetFactory() error {
	if err := d.requireConfigMode(); err != nil {
		return err
	}
	ok, _ := d.commander.Send(encodeCommand(opFactoryReset, nil))
	if !ok {
		return &CommandError{Op: "factory reset"}
	}
	return d.Reboot()
}

// Reboot restarts the module.
func (d *Driver) Reboot() error {
	if err := d.requireConfigMode(); err != nil {
		return err
	}
	ok, _ := d.commander.Send(encodeCommand(opReboot, nil))
	if !ok {
		return &CommandError{Op: "reboot"}
	}
	return nil
}

// EnableEngineeringMode switches the telemetry stream to the extended
// engineering format. It performs the full config-mode entry/exit
// sequence itself, and always exits config mode even on failure.
func (d *Driver) EnableEngineeringMode() error {
	return d.engineeringMode(opEngineeringOn, true)
}

// DisableEngineeringMode returns the telemetry stream to the normal
// format.
func (d *Driver) DisableEngineeringMode() error {
	return d.engineeringMode(opEngineeringOf, false)
}

func (d *Driver) engineeringMode(op uint16, enable bool) error {
	if err := d.EnableConfigMode(); err != nil {
		return err
	}
	ok, _ := d.commander.Send(encodeCommand(op, nil))
	if ok {
		d.engineering = enable
	}
	if err := d.DisableConfigMode(); err != nil {
		glog.Warningf("exit config mode: %v", err)
	}
	if !ok {
		return &CommandError{Op: "engineering mode"}
	}
	return nil
}

// StartReading starts the background ingest loop. Refused while config
// mode is active: the loop and command exchanges must never share the
// link.
func (d *Driver) StartReading() error {
	if d.port == nil {
		return ErrNotConnected
	}
	if d.configMode {
		return ErrConfigMode
	}
	if d.running {
		return nil
	}
	d.stopCh = make(chan struct{})
	d.doneCh = make(chan struct{})
	d.running = true
	go d.ingest(d.stopCh, d.doneCh)
	glog.V(4).Info("ingest loop started")
	return nil
}

// StopReading asks the ingest loop to stop and waits for it with a
// bounded join. A join timeout is a logged anomaly, not an error.
func (d *Driver) StopReading() {
	if !d.running {
		return
	}
	d.running = false
	close(d.stopCh)
	select {
	case <-d.doneCh:
		glog.V(4).Info("ingest loop stopped")
	case <-time.After(joinTimeout):
		glog.Warningf("ingest loop did not stop within %v", joinTimeout)
	}
}

// ReadData returns the oldest buffered reading without blocking. The
// second result is false when no reading is available; errors never
// surface here, the ingest path is fail-soft.
func (d *Driver) ReadData() (*Reading, bool) {
	if d.queue == nil {
		return nil, false
	}
	return d.queue.TryPop()
}

// ingest is the telemetry loop: drain the port, synchronize frames,
// decode, publish. Read and decode errors are logged and survived;
// only a stop request ends the loop.
func (d *Driver) ingest(stopCh <-chan struct{}, doneCh chan<- struct{}) {
	defer close(doneCh)
	var sync Synchronizer
	for {
		select {
		case <-stopCh:
			return
		default:
		}
		data, err := drain(d.port)
		if err != nil {
			glog.Errorf("radar read: %v", err)
		}
		for _, frame := range sync.Feed(data) {
			reading, err := DecodeReading(frame, time.Now())
			if err != nil {
				glog.Errorf("telemetry frame dropped: %v", err)
				continue
			}
			d.queue.Push(reading)
		}
		time.Sleep(ingestInterval)
	}
}
