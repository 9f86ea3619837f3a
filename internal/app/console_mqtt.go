package app

import (
	"context"
	"errors"
	"fmt"
	"log"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/relabs-tech/sensor_dashboard/internal/config"
	"github.com/relabs-tech/sensor_dashboard/internal/env"
	"github.com/relabs-tech/sensor_dashboard/internal/telemetry"
)

func RunConsoleMQTT(ctx context.Context, cfg *config.Config) error {
	if cfg.MQTTBroker == "" {
		return errors.New("console: MQTT_BROKER is required")
	}

	client := mqtt.NewClient(telemetry.NewClientOptions(cfg.MQTTBroker, cfg.MQTTClientIDConsole))
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return token.Error()
	}
	log.Printf("console: connected to MQTT broker at %s", cfg.MQTTBroker)

	readingToken := client.Subscribe(cfg.TopicReading, 0, func(_ mqtt.Client, msg mqtt.Message) {
		r, err := telemetry.DecodeReading(msg.Payload())
		if err != nil {
			log.Printf("console: %v", err)
			return
		}
		fmt.Println(formatReading(r))
	})
	readingToken.Wait()
	if readingToken.Error() != nil {
		return readingToken.Error()
	}
	log.Printf("console: subscribed to %s", cfg.TopicReading)

	if cfg.TopicLED != "" {
		ledToken := client.Subscribe(cfg.TopicLED, 0, func(_ mqtt.Client, msg mqtt.Message) {
			s, err := telemetry.DecodeLED(msg.Payload())
			if err != nil {
				log.Printf("console: %v", err)
				return
			}
			fmt.Println(formatLED(s))
		})
		ledToken.Wait()
		if ledToken.Error() != nil {
			return ledToken.Error()
		}
		log.Printf("console: subscribed to %s", cfg.TopicLED)
	}

	<-ctx.Done()

	log.Println("console: shutting down")
	client.Disconnect(250)
	return nil
}

func formatReading(r env.Reading) string {
	return fmt.Sprintf("[READ] %s  T=%6.2f°C  H=%6.2f%%  src=%s",
		r.Time.Format("15:04:05"), r.Temperature, r.Humidity, r.Source)
}

func formatLED(s env.LEDState) string {
	state := "off"
	if s.On {
		state = "on"
	}
	return fmt.Sprintf("[LED ] %s  %s", s.Time.Format("15:04:05"), state)
}
