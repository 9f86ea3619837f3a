// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package board wraps the physical refresh button and status LED.
// Both are wired active-low: a pressed button reads Low, and driving
// the LED pin Low turns it on.
package board

import (
	"fmt"
	"log"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"
)

// Button reports whether the refresh button is held down.
type Button interface {
	Pressed() bool
}

// LED drives the status LED.
type LED interface {
	Set(on bool) error
}

type gpioButton struct {
	pin gpio.PinIO
}

type gpioLED struct {
	pin gpio.PinIO
}

// OpenButton configures the named pin as an input with pull-up.
func OpenButton(name string) (Button, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("periph host init: %w", err)
	}

	pin := gpioreg.ByName(name)
	if pin == nil {
		return nil, fmt.Errorf("button pin %q not found", name)
	}
	if err := pin.In(gpio.PullUp, gpio.NoEdge); err != nil {
		return nil, fmt.Errorf("button pin %s input: %w", name, err)
	}

	log.Printf("board: button on %s (active-low, pull-up)", pin)
	return &gpioButton{pin: pin}, nil
}

func (b *gpioButton) Pressed() bool {
	return b.pin.Read() == gpio.Low
}

// OpenLED configures the named pin as an output with the LED off.
func OpenLED(name string) (LED, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("periph host init: %w", err)
	}

	pin := gpioreg.ByName(name)
	if pin == nil {
		return nil, fmt.Errorf("LED pin %q not found", name)
	}
	if err := pin.Out(gpio.High); err != nil {
		return nil, fmt.Errorf("LED pin %s output: %w", name, err)
	}

	log.Printf("board: LED on %s (active-low)", pin)
	return &gpioLED{pin: pin}, nil
}

func (l *gpioLED) Set(on bool) error {
	level := gpio.High
	if on {
		level = gpio.Low
	}
	return l.pin.Out(level)
}

// NoButton never reports a press. Used when no button is wired.
type NoButton struct{}

func (NoButton) Pressed() bool { return false }

// NoLED accepts every state change and drives nothing.
type NoLED struct{}

func (NoLED) Set(bool) error { return nil }
