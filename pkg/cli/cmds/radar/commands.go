package radar

import (
	"fmt"
	"strconv"
	"time"

	"github.com/abiosoft/ishell"

	"github.com/robotalks/mmwave.go/pkg/cli/sh"
	"github.com/robotalks/mmwave.go/pkg/radar"
)

// withConfigMode runs fn inside config mode, entering and leaving it
// when the shell is not already there.
func withConfigMode(c *ishell.Context, fn func(d *radar.Driver) error) {
	d := sh.ShellFrom(c).Driver
	entered := false
	if !d.ConfigModeActive() {
		if err := d.EnableConfigMode(); err != nil {
			c.Err(err)
			return
		}
		entered = true
	}
	err := fn(d)
	if entered {
		if exitErr := d.DisableConfigMode(); err == nil {
			err = exitErr
		}
	}
	if err != nil {
		c.Err(err)
	}
}

func parseSwitch(arg string) (bool, error) {
	switch arg {
	case "on", "1", "true":
		return true, nil
	case "off", "0", "false":
		return false, nil
	}
	return false, fmt.Errorf("expect on|off, got %q", arg)
}

func parseInt(arg, name string) (int, error) {
	val, err := strconv.Atoi(arg)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %v", name, err)
	}
	return val, nil
}

var (
	// VersionCmd reads the firmware version.
	VersionCmd = ishell.Cmd{
		Name:    "version",
		Aliases: []string{"v"},
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			withConfigMode(c, func(d *radar.Driver) error {
				version, err := d.Version()
				if err != nil {
					return err
				}
				sh.PrintResult(c, version)
				return nil
			})
		}),
	}

	// ConfigCmd reads the current sensor configuration.
	ConfigCmd = ishell.Cmd{
		Name:    "config",
		Aliases: []string{"cfg"},
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			withConfigMode(c, func(d *radar.Driver) error {
				snap, err := d.Config()
				if err != nil {
					return err
				}
				sh.PrintResult(c, snap)
				return nil
			})
		}),
	}

	// ResolutionCmd reads the distance resolution setting.
	ResolutionCmd = ishell.Cmd{
		Name: "resolution",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			withConfigMode(c, func(d *radar.Driver) error {
				res, err := d.Resolution()
				if err != nil {
					return err
				}
				if res == 1 {
					sh.PrintResult(c, "0.25m")
				} else {
					sh.PrintResult(c, "0.75m")
				}
				return nil
			})
		}),
	}

	// SetResolutionCmd sets the distance resolution. The sensor reboots.
	SetResolutionCmd = ishell.Cmd{
		Name: "set-resolution",
		Help: "0|1 (0: 0.75m per gate, 1: 0.25m per gate)",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			if len(c.Args) < 1 {
				c.Err(fmt.Errorf("RESOLUTION required"))
				return
			}
			res, err := parseInt(c.Args[0], "RESOLUTION")
			if err != nil {
				c.Err(err)
				return
			}
			withConfigMode(c, func(d *radar.Driver) error {
				return d.SetResolution(res)
			})
		}),
	}

	// SetDistanceCmd sets the maximum detection gates and idle duration.
	SetDistanceCmd = ishell.Cmd{
		Name: "set-distance",
		Help: "GATE(1-8) DURATION(s)",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			if len(c.Args) < 2 {
				c.Err(fmt.Errorf("GATE and DURATION required"))
				return
			}
			gate, err := parseInt(c.Args[0], "GATE")
			if err != nil {
				c.Err(err)
				return
			}
			duration, err := parseInt(c.Args[1], "DURATION")
			if err != nil {
				c.Err(err)
				return
			}
			withConfigMode(c, func(d *radar.Driver) error {
				return d.SetDetectionDistance(gate, duration)
			})
		}),
	}

	// SetGateCmd sets per-gate sensitivities.
	SetGateCmd = ishell.Cmd{
		Name: "set-gate",
		Help: "GATE(1-8) MOVING(1-100) STATIC(1-100)",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			if len(c.Args) < 3 {
				c.Err(fmt.Errorf("GATE, MOVING and STATIC required"))
				return
			}
			gate, err := parseInt(c.Args[0], "GATE")
			if err != nil {
				c.Err(err)
				return
			}
			moving, err := parseInt(c.Args[1], "MOVING")
			if err != nil {
				c.Err(err)
				return
			}
			static, err := parseInt(c.Args[2], "STATIC")
			if err != nil {
				c.Err(err)
				return
			}
			withConfigMode(c, func(d *radar.Driver) error {
				return d.SetGatePower(gate, moving, static)
			})
		}),
	}

	// EngineeringCmd toggles engineering telemetry.
	EngineeringCmd = ishell.Cmd{
		Name:    "engineering",
		Aliases: []string{"eng"},
		Help:    "on|off",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			if len(c.Args) < 1 {
				c.Err(fmt.Errorf("on|off required"))
				return
			}
			enable, err := parseSwitch(c.Args[0])
			if err != nil {
				c.Err(err)
				return
			}
			d := sh.ShellFrom(c).Driver
			if enable {
				err = d.EnableEngineeringMode()
			} else {
				err = d.DisableEngineeringMode()
			}
			if err != nil {
				c.Err(err)
			}
		}),
	}

	// BluetoothCmd toggles the bluetooth radio.
	BluetoothCmd = ishell.Cmd{
		Name:    "bluetooth",
		Aliases: []string{"bt"},
		Help:    "on|off",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			if len(c.Args) < 1 {
				c.Err(fmt.Errorf("on|off required"))
				return
			}
			enable, err := parseSwitch(c.Args[0])
			if err != nil {
				c.Err(err)
				return
			}
			withConfigMode(c, func(d *radar.Driver) error {
				return d.SetBluetooth(enable)
			})
		}),
	}

	// ConfigModeCmd enters or leaves config mode explicitly.
	ConfigModeCmd = ishell.Cmd{
		Name: "config-mode",
		Help: "on|off",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			if len(c.Args) < 1 {
				c.Err(fmt.Errorf("on|off required"))
				return
			}
			enable, err := parseSwitch(c.Args[0])
			if err != nil {
				c.Err(err)
				return
			}
			d := sh.ShellFrom(c).Driver
			if enable {
				err = d.EnableConfigMode()
			} else {
				err = d.DisableConfigMode()
			}
			if err != nil {
				c.Err(err)
			}
		}),
	}

	// RebootCmd restarts the sensor.
	RebootCmd = ishell.Cmd{
		Name: "reboot",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			withConfigMode(c, func(d *radar.Driver) error {
				return d.Reboot()
			})
		}),
	}

	// FactoryResetCmd restores factory settings. The sensor reboots.
	FactoryResetCmd = ishell.Cmd{
		Name: "factory-reset",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			withConfigMode(c, func(d *radar.Driver) error {
				return d.ResetFactory()
			})
		}),
	}

	// StartCmd starts background ingestion.
	StartCmd = ishell.Cmd{
		Name: "start",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			if err := sh.ShellFrom(c).Driver.StartReading(); err != nil {
				c.Err(err)
			}
		}),
	}

	// StopCmd stops background ingestion.
	StopCmd = ishell.Cmd{
		Name: "stop",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			sh.ShellFrom(c).Driver.StopReading()
		}),
	}

	// ReadCmd prints one reading.
	ReadCmd = ishell.Cmd{
		Name:    "read",
		Aliases: []string{"r"},
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			d := sh.ShellFrom(c).Driver
			started := false
			if !d.Reading() {
				if err := d.StartReading(); err != nil {
					c.Err(err)
					return
				}
				started = true
			}
			reading, err := waitReading(d, time.Second)
			if started {
				d.StopReading()
			}
			if err != nil {
				c.Err(err)
				return
			}
			sh.PrintResult(c, reading)
		}),
	}

	// WatchCmd streams readings for a while.
	WatchCmd = ishell.Cmd{
		Name:    "watch",
		Aliases: []string{"w"},
		Help:    "[SECONDS]",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			seconds := 5
			if len(c.Args) >= 1 {
				val, err := strconv.Atoi(c.Args[0])
				if err != nil || val <= 0 {
					c.Err(fmt.Errorf("invalid SECONDS %q", c.Args[0]))
					return
				}
				seconds = val
			}
			d := sh.ShellFrom(c).Driver
			started := false
			if !d.Reading() {
				if err := d.StartReading(); err != nil {
					c.Err(err)
					return
				}
				started = true
			}
			deadline := time.After(time.Duration(seconds) * time.Second)
			ticker := time.NewTicker(50 * time.Millisecond)
			defer ticker.Stop()
			for done := false; !done; {
				select {
				case <-deadline:
					done = true
				case <-ticker.C:
					for {
						reading, ok := d.ReadData()
						if !ok {
							break
						}
						sh.PrintResult(c, reading)
					}
				}
			}
			if started {
				d.StopReading()
			}
		}),
	}
)

func waitReading(d *radar.Driver, timeout time.Duration) (*radar.Reading, error) {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if reading, ok := d.ReadData(); ok {
			return reading, nil
		}
		time.Sleep(10 * time.Millisecond)
	}
	return nil, fmt.Errorf("no data")
}

func init() {
	sh.AddCmds(
		&VersionCmd,
		&ConfigCmd,
		&ResolutionCmd,
		&SetResolutionCmd,
		&SetDistanceCmd,
		&SetGateCmd,
		&EngineeringCmd,
		&BluetoothCmd,
		&ConfigModeCmd,
		&RebootCmd,
		&FactoryResetCmd,
		&StartCmd,
		&StopCmd,
		&ReadCmd,
		&WatchCmd,
	)
}
