// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package webscreen is a display.Drawer served over HTTP.
//
// A browser pointed at the handler gets a page showing the screen. The image
// is sent as a multipart/x-mixed-replace stream of PNG frames, the "MJPEG"
// protocol of IP cameras, and a new frame is pushed on every Draw. Small
// displays are scaled up with nearest neighbour sampling so pixels stay
// sharp.
package webscreen

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"net/http"
	"sync"

	xdraw "golang.org/x/image/draw"
	"periph.io/x/conn/v3/display"
)

// Opts holds the configuration options of a Screen.
type Opts struct {
	// W and H are the size of the emulated display. Default is 128x64.
	W, H int
	// Scale multiplies the size of the served image. Default is 4.
	Scale int
}

// Screen holds the last drawn frame and streams it to HTTP clients.
type Screen struct {
	scale int

	mu      sync.Mutex
	frame   *image.RGBA
	changed chan struct{}
	encoded []byte

	haltOnce sync.Once
	halted   chan struct{}
}

// New returns a black Screen.
func New(opts *Opts) *Screen {
	w, h := opts.W, opts.H
	if w <= 0 || h <= 0 {
		w, h = 128, 64
	}
	scale := opts.Scale
	if scale < 1 {
		scale = 4
	}
	s := &Screen{
		scale:   scale,
		frame:   image.NewRGBA(image.Rect(0, 0, w, h)),
		changed: make(chan struct{}),
		halted:  make(chan struct{}),
	}
	// The zero RGBA is transparent.
	draw.Draw(s.frame, s.frame.Bounds(), image.Black, image.Point{}, draw.Src)
	return s
}

func (s *Screen) String() string {
	return fmt.Sprintf("WebScreen{%dx%d}", s.frame.Rect.Dx(), s.frame.Rect.Dy())
}

// Halt ends all running streams. The page and single frames are still
// served. Implements conn.Resource.
func (s *Screen) Halt() error {
	s.haltOnce.Do(func() { close(s.halted) })
	return nil
}

// ColorModel implements display.Drawer.
func (s *Screen) ColorModel() color.Model {
	return color.RGBAModel
}

// Bounds implements display.Drawer.
func (s *Screen) Bounds() image.Rectangle {
	return s.frame.Rect
}

// Draw implements display.Drawer. Every call pushes a frame to the streams.
func (s *Screen) Draw(r image.Rectangle, src image.Image, sp image.Point) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	draw.Draw(s.frame, r, src, sp, draw.Src)
	s.encoded = nil
	close(s.changed)
	s.changed = make(chan struct{})
	return nil
}

// snapshot returns the PNG encoding of the current frame and a channel
// closed on the next Draw.
func (s *Screen) snapshot() ([]byte, <-chan struct{}, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.encoded == nil {
		b := s.frame.Rect
		dst := image.NewRGBA(image.Rect(0, 0, b.Dx()*s.scale, b.Dy()*s.scale))
		xdraw.NearestNeighbor.Scale(dst, dst.Rect, s.frame, b, xdraw.Src, nil)
		var buf bytes.Buffer
		if err := png.Encode(&buf, dst); err != nil {
			return nil, nil, fmt.Errorf("webscreen: encode: %w", err)
		}
		s.encoded = buf.Bytes()
	}
	return s.encoded, s.changed, nil
}

var _ display.Drawer = &Screen{}
var _ http.Handler = &Screen{}
