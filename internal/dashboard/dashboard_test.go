// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package dashboard

import (
	"math"
	"strings"
	"testing"

	"github.com/relabs-tech/sensor_dashboard/internal/env"
	"github.com/relabs-tech/sensor_dashboard/internal/history"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		in   string
		want Action
	}{
		{"GET /refresh HTTP/1.1", ActionRefresh},
		{"GET /ledtoggle HTTP/1.1", ActionToggleLED},
		{"GET / HTTP/1.1", ActionDefault},
		{"", ActionDefault},
		{"\x00\x01garbage", ActionDefault},
		{"POST /refresh HTTP/1.1", ActionDefault},
		{"GET /refresh?x=1 HTTP/1.1\r\nHost: pico\r\n\r\n", ActionRefresh},
		{"GET /ledtoggle? HTTP/1.1\r\nReferer: http://pico/refresh\r\n\r\n", ActionToggleLED},
	}
	for _, tt := range tests {
		if got := Classify(tt.in); got != tt.want {
			t.Errorf("Classify(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestActionString(t *testing.T) {
	for a, want := range map[Action]string{
		ActionDefault:   "default",
		ActionRefresh:   "refresh",
		ActionToggleLED: "ledtoggle",
		Action(42):      "default",
	} {
		if got := a.String(); got != want {
			t.Errorf("Action(%d).String() = %q, want %q", int(a), got, want)
		}
	}
}

func TestRequestLine(t *testing.T) {
	for in, want := range map[string]string{
		"GET / HTTP/1.1\r\nHost: x\r\n\r\n": "GET / HTTP/1.1",
		"GET /refresh HTTP/1.1":             "GET /refresh HTTP/1.1",
		"":                                  "",
		"\r\n":                              "",
	} {
		if got := RequestLine(in); got != want {
			t.Errorf("RequestLine(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestNewPageData(t *testing.T) {
	snap := history.Snapshot{
		Temperatures: []float64{20, 21.5, math.NaN()},
		Humidities:   []float64{50, 51.25, math.Inf(1)},
	}
	latest := env.Reading{Temperature: 21.456, Humidity: 51.254}

	data, err := NewPageData(latest, true, true, snap)
	if err != nil {
		t.Fatalf("NewPageData: %v", err)
	}
	if string(data.TempJSON) != "[20,21.5,null]" {
		t.Errorf("TempJSON = %s", data.TempJSON)
	}
	if string(data.HumJSON) != "[50,51.25,null]" {
		t.Errorf("HumJSON = %s", data.HumJSON)
	}
	if data.LEDText != LEDTextOn {
		t.Errorf("LEDText = %q, want %q", data.LEDText, LEDTextOn)
	}

	data, err = NewPageData(env.Reading{}, false, false, history.Snapshot{})
	if err != nil {
		t.Fatalf("NewPageData(empty): %v", err)
	}
	if string(data.TempJSON) != "[]" || string(data.HumJSON) != "[]" {
		t.Errorf("empty history JSON = %s / %s", data.TempJSON, data.HumJSON)
	}
	if data.LEDText != LEDTextOff {
		t.Errorf("LEDText = %q, want %q", data.LEDText, LEDTextOff)
	}
}

func TestRenderInjectsValues(t *testing.T) {
	b := history.New(history.MaxLog)
	b.Record(env.Reading{Temperature: 20, Humidity: 50})
	b.Record(env.Reading{Temperature: 21.456, Humidity: 51.254})
	latest, _ := b.Latest()

	data, err := NewPageData(latest, true, false, b.Snapshot())
	if err != nil {
		t.Fatalf("NewPageData: %v", err)
	}

	var out strings.Builder
	if err := Render(&out, data); err != nil {
		t.Fatalf("Render: %v", err)
	}
	page := out.String()

	for _, want := range []string{
		"<!DOCTYPE html>",
		">21.46</span> °C",
		">51.25</span> %",
		LEDTextOff,
		"const tempData = [20,21.456];",
		"const humData = [50,51.254];",
		`action="/refresh"`,
		`action="/ledtoggle"`,
		"location.reload()",
	} {
		if !strings.Contains(page, want) {
			t.Errorf("page missing %q", want)
		}
	}
	if strings.Contains(page, "WebSocket") {
		t.Error("polling page should not open a websocket")
	}
}

func TestRenderWithoutReading(t *testing.T) {
	data, err := NewPageData(env.Reading{}, false, true, history.Snapshot{})
	if err != nil {
		t.Fatalf("NewPageData: %v", err)
	}

	var out strings.Builder
	if err := Render(&out, data); err != nil {
		t.Fatalf("Render: %v", err)
	}
	page := out.String()
	if !strings.Contains(page, `<span id="temperature">--</span>`) {
		t.Error("missing temperature placeholder")
	}
	if !strings.Contains(page, LEDTextOn) {
		t.Errorf("missing %q", LEDTextOn)
	}
	if !strings.Contains(page, "const tempData = [];") {
		t.Error("missing empty temperature array")
	}
}

func TestRenderLive(t *testing.T) {
	data, err := NewPageData(env.Reading{}, false, false, history.Snapshot{})
	if err != nil {
		t.Fatalf("NewPageData: %v", err)
	}
	data.LiveURL = "/ws"

	var out strings.Builder
	if err := Render(&out, data); err != nil {
		t.Fatalf("Render: %v", err)
	}
	page := out.String()
	if !strings.Contains(page, "new WebSocket(") {
		t.Error("live page should open a websocket")
	}
	if strings.Contains(page, "location.reload()") {
		t.Error("live page should not reload")
	}
}
