// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package dashboard classifies dashboard requests and renders the
// dashboard page. The page layout is a static embedded template; the
// dynamic values go through PageData.
package dashboard

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"html/template"
	"io"
	"math"

	"github.com/relabs-tech/sensor_dashboard/internal/env"
	"github.com/relabs-tech/sensor_dashboard/internal/history"
)

const (
	defaultTitle         = "Sensor Dashboard"
	defaultRefreshMillis = 3000

	LEDTextOn  = "Turn light off"
	LEDTextOff = "Turn light on"
)

//go:embed templates/dashboard.html
var templateFS embed.FS

var pageTemplate = template.Must(template.ParseFS(templateFS, "templates/dashboard.html"))

// PageData is everything the dashboard template needs.
type PageData struct {
	Title       string
	HaveReading bool
	Temperature float64
	Humidity    float64
	LEDText     string

	// JSON arrays for the chart
	TempJSON template.JS
	HumJSON  template.JS

	RefreshMillis int
	// LiveURL switches the page from reload polling to websocket updates.
	LiveURL string
}

// NewPageData builds the page values from the latest reading, the LED
// state and a history snapshot.
func NewPageData(latest env.Reading, haveReading, ledOn bool, snap history.Snapshot) (PageData, error) {
	tempJSON, err := jsonNumbers(snap.Temperatures)
	if err != nil {
		return PageData{}, fmt.Errorf("temperature history: %w", err)
	}
	humJSON, err := jsonNumbers(snap.Humidities)
	if err != nil {
		return PageData{}, fmt.Errorf("humidity history: %w", err)
	}

	return PageData{
		Title:         defaultTitle,
		HaveReading:   haveReading,
		Temperature:   latest.Temperature,
		Humidity:      latest.Humidity,
		LEDText:       LEDText(ledOn),
		TempJSON:      tempJSON,
		HumJSON:       humJSON,
		RefreshMillis: defaultRefreshMillis,
	}, nil
}

// LEDText is the label of the toggle button for the given LED state.
func LEDText(on bool) string {
	if on {
		return LEDTextOn
	}
	return LEDTextOff
}

// jsonNumbers encodes values as a JSON array. NaN and ±Inf become null
// so the chart shows a gap instead of the encoder failing.
func jsonNumbers(values []float64) (template.JS, error) {
	out := make([]*float64, len(values))
	for i := range values {
		if math.IsNaN(values[i]) || math.IsInf(values[i], 0) {
			continue
		}
		v := values[i]
		out[i] = &v
	}

	b, err := json.Marshal(out)
	if err != nil {
		return "", err
	}
	return template.JS(b), nil
}

// Render writes the HTML page. Nothing is written if rendering fails.
func Render(w io.Writer, data PageData) error {
	var buf bytes.Buffer
	if err := pageTemplate.Execute(&buf, data); err != nil {
		return fmt.Errorf("render dashboard: %w", err)
	}
	_, err := buf.WriteTo(w)
	return err
}
