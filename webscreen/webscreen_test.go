// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package webscreen

import (
	"errors"
	"image"
	"image/color"
	"image/png"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestFrame(t *testing.T) {
	s := New(&Opts{W: 8, H: 4, Scale: 3})
	if got := s.String(); got != "WebScreen{8x4}" {
		t.Errorf("String() = %q", got)
	}
	if err := s.Draw(image.Rect(0, 0, 1, 1), image.NewUniform(color.White), image.Point{}); err != nil {
		t.Fatal(err)
	}

	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/frame.png", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}
	img, err := png.Decode(rec.Body)
	if err != nil {
		t.Fatal(err)
	}
	if got, want := img.Bounds().Size(), (image.Point{24, 12}); got != want {
		t.Errorf("size %v, want %v", got, want)
	}
	// The white pixel covers a 3x3 block.
	for _, p := range []image.Point{{0, 0}, {2, 2}} {
		if r, _, _, _ := img.At(p.X, p.Y).RGBA(); r != 0xffff {
			t.Errorf("pixel %v not white", p)
		}
	}
	if r, _, _, a := img.At(3, 3).RGBA(); r != 0 || a != 0xffff {
		t.Errorf("pixel (3,3) not opaque black")
	}
}

func TestRequestStatus(t *testing.T) {
	for _, tc := range []struct {
		method     string
		target     string
		wantStatus int
	}{
		{http.MethodGet, "/", http.StatusOK},
		{http.MethodGet, "/frame.png", http.StatusOK},
		{http.MethodGet, "/favicon.ico", http.StatusNotFound},
		{http.MethodPost, "/", http.StatusMethodNotAllowed},
	} {
		t.Run(tc.method+" "+tc.target, func(t *testing.T) {
			s := New(&Opts{})
			rec := httptest.NewRecorder()
			s.ServeHTTP(rec, httptest.NewRequest(tc.method, tc.target, nil))
			if rec.Code != tc.wantStatus {
				t.Errorf("status %d, want %d", rec.Code, tc.wantStatus)
			}
			if tc.target == "/" && tc.wantStatus == http.StatusOK && !strings.Contains(rec.Body.String(), `src="stream"`) {
				t.Error("page does not embed the stream")
			}
		})
	}
}

func TestStream(t *testing.T) {
	s := New(&Opts{W: 16, H: 8, Scale: 1})
	srv := httptest.NewServer(s)
	t.Cleanup(srv.Close)

	resp, err := srv.Client().Get(srv.URL + "/stream")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	mediaType, params, err := mime.ParseMediaType(resp.Header.Get("Content-Type"))
	if err != nil {
		t.Fatal(err)
	}
	if mediaType != "multipart/x-mixed-replace" {
		t.Fatalf("Content-Type %q", mediaType)
	}
	mr := multipart.NewReader(resp.Body, params["boundary"])

	readFrame := func() image.Image {
		t.Helper()
		part, err := mr.NextPart()
		if err != nil {
			t.Fatal(err)
		}
		if ct := part.Header.Get("Content-Type"); ct != "image/png" {
			t.Errorf("part Content-Type %q", ct)
		}
		img, err := png.Decode(part)
		if err != nil {
			t.Fatal(err)
		}
		return img
	}

	if r, _, _, _ := readFrame().At(0, 0).RGBA(); r != 0 {
		t.Error("initial frame not black")
	}
	if err := s.Draw(s.Bounds(), image.NewUniform(color.White), image.Point{}); err != nil {
		t.Fatal(err)
	}
	if r, _, _, _ := readFrame().At(0, 0).RGBA(); r != 0xffff {
		t.Error("drawn frame not pushed")
	}

	if err := s.Halt(); err != nil {
		t.Fatal(err)
	}
	if err := s.Halt(); err != nil {
		t.Fatal(err)
	}
	if _, err := mr.NextPart(); !(errors.Is(err, io.EOF) || strings.HasSuffix(err.Error(), " EOF")) {
		t.Errorf("stream not ended by Halt(): %v", err)
	}
}
