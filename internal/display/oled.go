// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package display mirrors the latest reading on a 128x64 SSD1306 OLED.
package display

import (
	"fmt"
	"image"
	"log"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/devices/v3/ssd1306"
	"periph.io/x/devices/v3/ssd1306/image1bit"
	"periph.io/x/host/v3"

	"github.com/relabs-tech/sensor_dashboard/internal/env"
)

const (
	width  = 128
	height = 64
)

type drawer interface {
	Draw(r image.Rectangle, src image.Image, sp image.Point) error
	Bounds() image.Rectangle
}

// OLED redraws the panel on every reading or LED change.
type OLED struct {
	mu      sync.Mutex
	dev     drawer
	closers []func() error

	latest     env.Reading
	haveLatest bool
	ledOn      bool
}

// Open initializes an SSD1306 at its default I2C address on the named bus
// ("" selects the first bus) and shows the splash screen.
func Open(busName string) (*OLED, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize periph: %w", err)
	}

	bus, err := i2creg.Open(busName)
	if err != nil {
		return nil, fmt.Errorf("failed to open I2C bus: %w", err)
	}

	dev, err := ssd1306.NewI2C(bus, &ssd1306.DefaultOpts)
	if err != nil {
		bus.Close()
		return nil, fmt.Errorf("failed to initialize display: %w", err)
	}
	log.Printf("display: initialized on %s", bus)

	o := newOLED(dev)
	o.closers = []func() error{dev.Halt, bus.Close}
	if err := o.redraw(); err != nil {
		log.Printf("display: error showing splash: %v", err)
	}
	return o, nil
}

func newOLED(dev drawer) *OLED {
	return &OLED{dev: dev}
}

// ReadingRecorded shows r.
func (o *OLED) ReadingRecorded(r env.Reading) error {
	o.mu.Lock()
	o.latest, o.haveLatest = r, true
	o.mu.Unlock()
	return o.redraw()
}

// LEDChanged updates the LED indicator line.
func (o *OLED) LEDChanged(on bool) error {
	o.mu.Lock()
	o.ledOn = on
	o.mu.Unlock()
	return o.redraw()
}

func (o *OLED) redraw() error {
	o.mu.Lock()
	img := Frame(o.latest, o.haveLatest, o.ledOn)
	o.mu.Unlock()

	if err := o.dev.Draw(o.dev.Bounds(), img, image.Point{}); err != nil {
		return fmt.Errorf("display draw: %w", err)
	}
	return nil
}

// Close blanks the panel and releases the bus.
func (o *OLED) Close() error {
	var first error
	for _, c := range o.closers {
		if err := c(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// Frame renders the panel contents.
func Frame(r env.Reading, haveReading, ledOn bool) *image1bit.VerticalLSB {
	img := image1bit.NewVerticalLSB(image.Rect(0, 0, width, height))

	drawer := &font.Drawer{
		Dst:  img,
		Src:  &image.Uniform{image1bit.On},
		Face: basicfont.Face7x13,
	}

	drawer.Dot = fixed.P(0, 13)
	drawer.DrawBytes([]byte("Sensor Dashboard"))

	if !haveReading {
		drawer.Dot = fixed.P(0, 39)
		drawer.DrawBytes([]byte("Waiting..."))
	} else {
		drawer.Dot = fixed.P(0, 30)
		drawer.DrawBytes([]byte(fmt.Sprintf("T: %6.2f C", r.Temperature)))
		drawer.Dot = fixed.P(0, 45)
		drawer.DrawBytes([]byte(fmt.Sprintf("H: %6.2f %%", r.Humidity)))
	}

	drawer.Dot = fixed.P(0, 60)
	if ledOn {
		drawer.DrawBytes([]byte("LED: on"))
	} else {
		drawer.DrawBytes([]byte("LED: off"))
	}

	return img
}
