package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/golang/glog"

	"github.com/robotalks/mmwave.go/pkg/env"
	fx "github.com/robotalks/mmwave.go/pkg/framework"
	"github.com/robotalks/mmwave.go/pkg/radar"
	"github.com/robotalks/mmwave.go/pkg/serial"
	"github.com/robotalks/mmwave.go/pkg/telemetry/mqtt"
	"github.com/robotalks/mmwave.go/pkg/telemetry/ws"
)

//go-build: CGO_ENABLED=0

var (
	opts        = serial.DefaultOptions()
	mqttURL     = "mqtt://localhost:1883/sensors/"
	listenAddr  string
	sensorID    string
	interval    = 100 * time.Millisecond
	engineering bool
)

func init() {
	if val := os.Getenv("MMWAVE_MQTT_URL"); val != "" {
		mqttURL = val
	}
	flag.StringVar(&opts.Device, "device", opts.Device, "Serial device of the sensor.")
	flag.IntVar(&opts.Baud, "baud", opts.Baud, "Serial baud rate.")
	flag.StringVar(&mqttURL, "mqtt", mqttURL, "MQTT broker URL, empty to disable.")
	flag.StringVar(&listenAddr, "listen", listenAddr, "Websocket listen address, empty to disable.")
	flag.StringVar(&sensorID, "id", sensorID, "Sensor ID, defaults to the machine ID.")
	flag.DurationVar(&interval, "interval", interval, "Publish poll interval.")
	flag.BoolVar(&engineering, "engineering", engineering, "Enable engineering telemetry.")
}

func main() {
	flag.Parse()
	log.SetFlags(log.Lmicroseconds)
	if sensorID == "" {
		sensorID = env.MachineID()
	}

	driver := radar.New(opts)
	if err := driver.Connect(); err != nil {
		log.Fatalln(err)
	}
	defer driver.Disconnect()

	var version string
	if err := driver.EnableConfigMode(); err != nil {
		log.Fatalln(err)
	}
	if v, err := driver.Version(); err == nil {
		version = v
	} else {
		glog.Warningf("get version: %v", err)
	}
	if err := driver.DisableConfigMode(); err != nil {
		log.Fatalln(err)
	}
	if engineering {
		if err := driver.EnableEngineeringMode(); err != nil {
			log.Fatalln(err)
		}
	}
	if err := driver.StartReading(); err != nil {
		log.Fatalln(err)
	}

	runner := fx.NewRunner().HandleSignals()

	var publisher *mqtt.Publisher
	if mqttURL != "" {
		meta := mqtt.Meta{
			Ref:         mqtt.SensorRef{Type: "mmwave", ID: sensorID},
			Device:      opts.Device,
			Baud:        opts.Baud,
			Version:     version,
			Engineering: engineering,
		}
		var err error
		if publisher, err = mqtt.NewPublisher(mqttURL, meta); err != nil {
			log.Fatalln(err)
		}
		runner.Go(fx.NamedRun("mqtt", publisher))
	}

	var hub *ws.Hub
	if listenAddr != "" {
		hub = ws.NewHub()
		srv := &http.Server{Addr: listenAddr, Handler: hub.Handler()}
		runner.Go(fx.NamedRun("ws", fx.RunnableFunc(func(ctx context.Context) error {
			return fx.RunWithContextCancel(ctx, func() {
				srv.Close()
				hub.Close()
			}, func() error {
				err := srv.ListenAndServe()
				if err == http.ErrServerClosed {
					return nil
				}
				return err
			})
		})))
	}

	loop := fx.NewLoop()
	loop.Interval = interval
	loop.AddController(fx.ControlFunc(func(fx.ControlContext) error {
		for {
			reading, ok := driver.ReadData()
			if !ok {
				return nil
			}
			glog.V(1).Infof("reading: %s moving=%dmm static=%dmm",
				reading.Target, reading.MovingDistanceMM, reading.StaticDistanceMM)
			if publisher != nil {
				if err := publisher.Publish(reading); err != nil {
					return err
				}
			}
			if hub != nil {
				if err := hub.Broadcast(reading); err != nil {
					return err
				}
			}
		}
	}))
	runner.Go(fx.NamedRun("poll", loop))

	if err := runner.Wait(); err != nil {
		log.Fatalln(err)
	}
}
