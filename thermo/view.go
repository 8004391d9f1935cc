// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package thermo

import (
	"fmt"
	"image"
	"image/color"
	"strings"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/gomonobold"
)

// Units selects how the temperature is displayed. The Store always holds °C.
type Units uint8

const (
	Metric Units = iota
	Imperial
)

// ParseUnits parses "metric" or "imperial".
func ParseUnits(s string) (Units, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "metric", "c", "celsius":
		return Metric, nil
	case "imperial", "f", "fahrenheit":
		return Imperial, nil
	default:
		return 0, fmt.Errorf("thermo: invalid units %q (allowed: metric, imperial)", s)
	}
}

func (u Units) String() string {
	switch u {
	case Metric:
		return "metric"
	case Imperial:
		return "imperial"
	default:
		return fmt.Sprintf("Units(%d)", uint8(u))
	}
}

// FormatTemperature returns the temperature in u with one decimal and the
// unit letter. An unknown Units value is a configuration error and panics.
func FormatTemperature(celsius float64, u Units) string {
	switch u {
	case Metric:
		return fmt.Sprintf("%.1fC", celsius)
	case Imperial:
		return fmt.Sprintf("%.1fF", celsius*9/5+32)
	default:
		panic(fmt.Sprintf("thermo: illegal measurement units %d", uint8(u)))
	}
}

// FormatHumidity returns the relative humidity with one decimal.
func FormatHumidity(percent float64) string {
	return fmt.Sprintf("%.1f%%", percent)
}

const (
	titleBottom = 16
	boxWidth    = 54
	boxHeight   = 20
)

// View draws the thermometer screen.
type View struct {
	// Bounds is the size of the rendered image. Default is 128x64.
	Bounds image.Rectangle
	// Units of the displayed temperature.
	Units Units
	// Pin names the GPIO the sensor should be connected to.
	Pin string

	title  font.Face
	value  font.Face
	detail font.Face
}

// NewView returns a View of the given size, 128x64 if w or h is 0.
func NewView(w, h int, units Units, pin string) (*View, error) {
	if w <= 0 || h <= 0 {
		w, h = 128, 64
	}
	// Check early rather than in the draw loop.
	FormatTemperature(0, units)
	title, err := loadFace(gomonobold.TTF, 12)
	if err != nil {
		return nil, err
	}
	value, err := loadFace(gomono.TTF, 13)
	if err != nil {
		return nil, err
	}
	return &View{
		Bounds: image.Rect(0, 0, w, h),
		Units:  units,
		Pin:    pin,
		title:  title,
		value:  value,
		detail: basicfont.Face7x13,
	}, nil
}

func loadFace(ttf []byte, size float64) (font.Face, error) {
	f, err := truetype.Parse(ttf)
	if err != nil {
		return nil, fmt.Errorf("thermo: parse font: %w", err)
	}
	return truetype.NewFace(f, &truetype.Options{Size: size, DPI: 72, Hinting: font.HintingFull}), nil
}

// Render draws snap. Lit pixels are white on a black background, which is
// what monochrome displays expect.
func (v *View) Render(snap Snapshot) image.Image {
	w, h := v.Bounds.Dx(), v.Bounds.Dy()
	dc := gg.NewContext(w, h)
	dc.SetColor(color.Black)
	dc.Clear()
	dc.SetColor(color.White)
	dc.SetLineWidth(1)

	mid := float64(w) / 2

	dc.SetFontFace(v.title)
	dc.DrawStringAnchored("Thermometer", mid, 12, 0.5, 0)
	dc.DrawLine(0, titleBottom+0.5, float64(w), titleBottom+0.5)
	dc.Stroke()

	dc.DrawRoundedRectangle(0.5, 0.5, float64(w-1), float64(h-2), 7)
	dc.Stroke()
	dc.DrawRoundedRectangle(0.5, 0.5, float64(w-1), float64(h-1), 7)
	dc.Stroke()

	if !snap.HasDevice {
		dc.SetFontFace(v.detail)
		dc.DrawStringAnchored("Connect thermometer", mid, 30, 0.5, 0)
		dc.DrawStringAnchored("to GPIO pin "+v.Pin, mid, 42, 0.5, 0)
		dc.DrawStringAnchored("-- No data --", mid, 56, 0.5, 0)
		return dc.Image()
	}

	temp, hum := "--", "--"
	if snap.HasReading {
		temp = FormatTemperature(snap.Reading.Temperature, v.Units)
		hum = FormatHumidity(snap.Reading.Humidity)
	}
	pad := (h - titleBottom - 2*boxHeight) / 3
	tempY := titleBottom + pad
	humY := tempY + boxHeight + pad

	dc.SetFontFace(v.value)
	for _, b := range []struct {
		y    int
		text string
	}{{tempY, temp}, {humY, hum}} {
		dc.DrawRoundedRectangle(mid-boxWidth/2+0.5, float64(b.y)+0.5, boxWidth-1, boxHeight-1, 3)
		dc.Stroke()
		dc.DrawStringAnchored(b.text, mid, float64(b.y+boxHeight/2+5), 0.5, 0)
	}
	return dc.Image()
}
