// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package display

import (
	"errors"
	"image"
	"testing"

	"periph.io/x/devices/v3/ssd1306/image1bit"

	"github.com/relabs-tech/sensor_dashboard/internal/env"
)

type fakePanel struct {
	frames []image.Image
	err    error
}

func (p *fakePanel) Draw(r image.Rectangle, src image.Image, sp image.Point) error {
	p.frames = append(p.frames, src)
	return p.err
}

func (p *fakePanel) Bounds() image.Rectangle { return image.Rect(0, 0, width, height) }

func litPixels(img image.Image) int {
	n := 0
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if img.At(x, y) == image1bit.On {
				n++
			}
		}
	}
	return n
}

func sameFrame(a, b image.Image) bool {
	bounds := a.Bounds()
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			if a.At(x, y) != b.At(x, y) {
				return false
			}
		}
	}
	return true
}

func TestFrameDependsOnData(t *testing.T) {
	waiting := Frame(env.Reading{}, false, false)
	if waiting.Bounds() != image.Rect(0, 0, width, height) {
		t.Fatalf("bounds = %v", waiting.Bounds())
	}
	if litPixels(waiting) == 0 {
		t.Fatal("waiting frame is blank")
	}

	a := Frame(env.Reading{Temperature: 21.5, Humidity: 40}, true, false)
	b := Frame(env.Reading{Temperature: 28.25, Humidity: 71}, true, false)
	if sameFrame(a, b) {
		t.Fatal("different readings rendered identical frames")
	}
	if sameFrame(a, waiting) {
		t.Fatal("reading frame identical to waiting frame")
	}

	on := Frame(env.Reading{Temperature: 21.5, Humidity: 40}, true, true)
	if sameFrame(a, on) {
		t.Fatal("LED state not visible")
	}
}

func TestOLEDRedrawsOnEvents(t *testing.T) {
	panel := &fakePanel{}
	o := newOLED(panel)

	if err := o.ReadingRecorded(env.Reading{Temperature: 20, Humidity: 50}); err != nil {
		t.Fatalf("ReadingRecorded: %v", err)
	}
	if err := o.LEDChanged(true); err != nil {
		t.Fatalf("LEDChanged: %v", err)
	}
	if len(panel.frames) != 2 {
		t.Fatalf("frames drawn = %d, want 2", len(panel.frames))
	}
	want := Frame(env.Reading{Temperature: 20, Humidity: 50}, true, true)
	if !sameFrame(panel.frames[1], want) {
		t.Fatal("last frame does not match reading and LED state")
	}

	panel.err = errors.New("i2c nack")
	if err := o.LEDChanged(false); err == nil {
		t.Fatal("draw error not reported")
	}
	if err := o.Close(); err != nil {
		t.Fatalf("Close without hardware: %v", err)
	}
}
