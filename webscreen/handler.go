// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package webscreen

import (
	"bytes"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strconv"
)

const page = `<!DOCTYPE html>
<html><head><title>Thermometer</title></head>
<body style="background:#222;margin:0;display:flex;justify-content:center;align-items:center;height:100vh">
<img src="stream" style="image-rendering:pixelated" alt="screen">
</body></html>
`

// ServeHTTP serves the page on "/", the current frame on "/frame.png" and the
// frame stream on "/stream". Only GET is accepted.
func (s *Screen) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "", http.StatusMethodNotAllowed)
		return
	}
	switch r.URL.Path {
	case "/":
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = io.WriteString(w, page)
	case "/frame.png":
		s.serveFrame(w)
	case "/stream":
		s.serveStream(w, r)
	default:
		http.NotFound(w, r)
	}
}

func (s *Screen) serveFrame(w http.ResponseWriter) {
	b, _, err := s.snapshot()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Length", strconv.Itoa(len(b)))
	_, _ = w.Write(b)
}

func (s *Screen) serveStream(w http.ResponseWriter, r *http.Request) {
	boundary := newBoundary()
	w.Header().Set("Content-Type",
		mime.FormatMediaType("multipart/x-mixed-replace", map[string]string{"boundary": boundary}))
	flusher, _ := w.(http.Flusher)

	for first := true; ; first = false {
		b, changed, err := s.snapshot()
		if err != nil {
			return
		}
		// An error means the client went away; there is no way to report
		// it inside an image stream.
		if writePart(w, boundary, first, b) != nil {
			return
		}
		if flusher != nil {
			flusher.Flush()
		}
		select {
		case <-changed:
		case <-s.halted:
			return
		case <-r.Context().Done():
			return
		}
	}
}

// writePart writes one PNG part followed by the next boundary line, so a
// client can show the frame without waiting for the next one. The
// mime/multipart Writer only writes a boundary when the next part starts.
func writePart(w io.Writer, boundary string, first bool, body []byte) error {
	var buf bytes.Buffer
	if first {
		fmt.Fprintf(&buf, "--%s\r\n", boundary)
	}
	fmt.Fprintf(&buf, "Content-Type: image/png\r\nContent-Length: %d\r\n\r\n", len(body))
	buf.Write(body)
	fmt.Fprintf(&buf, "\r\n--%s\r\n", boundary)
	_, err := buf.WriteTo(w)
	return err
}

// newBoundary returns a RFC 2046 compatible random boundary.
func newBoundary() string {
	var b [30]byte
	if _, err := io.ReadFull(rand.Reader, b[:]); err != nil {
		panic(err)
	}
	return hex.EncodeToString(b[:])
}
