package mqtt

import (
	"context"
	"encoding/json"

	"github.com/robotalks/mmwave.go/pkg/radar"
)

// SensorRef identifies a sensor on the message bus.
type SensorRef struct {
	Type string `json:"type"`
	ID   string `json:"id"`
}

// Name builds the topic component for the sensor.
func (r SensorRef) Name() string {
	return r.Type + "/" + r.ID
}

// Meta describes the sensor. It is published retained on connect and
// cleared by the broker will when the publisher dies.
type Meta struct {
	Ref         SensorRef `json:"ref"`
	Device      string    `json:"device"`
	Baud        int       `json:"baud,omitempty"`
	Version     string    `json:"version,omitempty"`
	Engineering bool      `json:"engineering,omitempty"`
}

// Publisher publishes sensor readings over MQTT.
type Publisher struct {
	Queue *Queue
	Meta  Meta

	metaJSON string
}

// NewPublisher creates a Publisher connected to the broker at brokerURL.
func NewPublisher(brokerURL string, meta Meta) (*Publisher, error) {
	metaJSON, err := json.Marshal(&meta)
	if err != nil {
		panic(err)
	}
	opts, topicPrefix, err := ClientOptionsFromURL(brokerURL)
	if err != nil {
		return nil, err
	}
	opts.SetBinaryWill(topicPrefix+meta.Ref.Name()+"/meta", nil, 1, true)
	if opts.ClientID == "" {
		opts.SetClientID("mmwave:" + meta.Ref.ID)
	}
	p := &Publisher{
		Queue: NewQueue(opts, topicPrefix),
		Meta:  meta,
	}
	p.metaJSON = string(metaJSON)
	p.Queue.OnConnect = func(*Queue) { p.onConnected() }
	return p, nil
}

// Publish publishes one reading as JSON.
func (p *Publisher) Publish(reading *radar.Reading) error {
	payload, err := json.Marshal(reading)
	if err != nil {
		return err
	}
	p.Queue.Pub(p.Meta.Ref.Name()+"/data", payload)
	return nil
}

// Run implements Runnable.
func (p *Publisher) Run(ctx context.Context) error {
	p.Queue.Connect()
	<-ctx.Done()
	p.Queue.PubWith(p.Meta.Ref.Name()+"/meta", nil, 1, true)
	p.Queue.Close()
	return nil
}

func (p *Publisher) onConnected() {
	p.Queue.PubWith(p.Meta.Ref.Name()+"/meta", []byte(p.metaJSON), 1, true)
}
