// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package telemetry publishes recorded readings and LED changes over MQTT
// and decodes them on the subscriber side.
package telemetry

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/relabs-tech/sensor_dashboard/internal/env"
)

const publishTimeout = 2 * time.Second

// ErrPublishTimeout is returned when the broker does not acknowledge a
// publish within the timeout.
var ErrPublishTimeout = errors.New("telemetry: publish timed out")

// tokenPublisher is the subset of mqtt.Client the Publisher needs.
type tokenPublisher interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
}

// Publisher sends readings and LED state as retained JSON messages.
type Publisher struct {
	client       tokenPublisher
	readingTopic string
	ledTopic     string
	timeout      time.Duration
	now          func() time.Time
	disconnect   func()
}

// NewClientOptions returns the options shared by every MQTT client here.
func NewClientOptions(broker, clientID string) *mqtt.ClientOptions {
	return mqtt.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID).
		SetAutoReconnect(true).
		SetConnectTimeout(5 * time.Second)
}

// Connect opens an MQTT connection and returns a Publisher on it.
func Connect(broker, clientID, readingTopic, ledTopic string) (*Publisher, error) {
	client := mqtt.NewClient(NewClientOptions(broker, clientID))
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("MQTT connect %s: %w", broker, token.Error())
	}
	log.Printf("telemetry: connected to MQTT broker at %s", broker)

	p := newPublisher(client, readingTopic, ledTopic)
	p.disconnect = func() { client.Disconnect(250) }
	return p, nil
}

func newPublisher(client tokenPublisher, readingTopic, ledTopic string) *Publisher {
	return &Publisher{
		client:       client,
		readingTopic: readingTopic,
		ledTopic:     ledTopic,
		timeout:      publishTimeout,
		now:          time.Now,
	}
}

// ReadingRecorded publishes r on the reading topic.
func (p *Publisher) ReadingRecorded(r env.Reading) error {
	return p.publish(p.readingTopic, r)
}

// LEDChanged publishes the LED state. It is a no-op without an LED topic.
func (p *Publisher) LEDChanged(on bool) error {
	if p.ledTopic == "" {
		return nil
	}
	return p.publish(p.ledTopic, env.LEDState{On: on, Time: p.now()})
}

func (p *Publisher) publish(topic string, v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("json marshal (%s): %w", topic, err)
	}

	token := p.client.Publish(topic, 0, true, payload)
	if !token.WaitTimeout(p.timeout) {
		return fmt.Errorf("%s: %w", topic, ErrPublishTimeout)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("MQTT publish (%s): %w", topic, err)
	}
	return nil
}

// Close disconnects from the broker.
func (p *Publisher) Close() {
	if p.disconnect != nil {
		p.disconnect()
	}
}

// DecodeReading parses a reading payload.
func DecodeReading(payload []byte) (env.Reading, error) {
	var r env.Reading
	if err := json.Unmarshal(payload, &r); err != nil {
		return env.Reading{}, fmt.Errorf("reading unmarshal: %w", err)
	}
	return r, nil
}

// DecodeLED parses an LED state payload.
func DecodeLED(payload []byte) (env.LEDState, error) {
	var s env.LEDState
	if err := json.Unmarshal(payload, &s); err != nil {
		return env.LEDState{}, fmt.Errorf("LED unmarshal: %w", err)
	}
	return s, nil
}
