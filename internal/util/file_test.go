package util

import (
	"bytes"
	"errors"
	"testing"
)

// TestExtFromURL verifies query strings are ignored and the fallback is used when needed.
func TestExtFromURL(t *testing.T) {
	cases := []struct {
		url, want string
	}{
		{"https://cdn.example.com/letters/a.jpg", "jpg"},
		{"https://cdn.example.com/letters/a.jpg?v=1.2", "jpg"},
		{"https://cdn.example.com/letters.v2/a", "png"},
		{"/uploads/images/a.webp", "webp"},
		{"", "png"},
	}
	for _, c := range cases {
		if got := ExtFromURL(c.url, "png"); got != c.want {
			t.Fatalf("ExtFromURL(%q) = %q, want %q", c.url, got, c.want)
		}
	}
}

// TestHasExtension verifies extension checks ignore case.
func TestHasExtension(t *testing.T) {
	if !HasExtension("Clip.MP4", AllowedVideoExtensions) {
		t.Fatalf("expected .MP4 to be allowed")
	}
	if HasExtension("clip.avi", AllowedVideoExtensions) {
		t.Fatalf("expected .avi to be rejected")
	}
}

// TestValidateMimeType verifies content sniffing against allowed prefixes.
func TestValidateMimeType(t *testing.T) {
	png := []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")
	mt, err := ValidateMimeType(bytes.NewReader(png), []string{MimeImage})
	if err != nil || mt != "image/png" {
		t.Fatalf("ValidateMimeType(png) = %s, %v", mt, err)
	}
	if _, err := ValidateMimeType(bytes.NewReader([]byte("hello")), []string{MimeImage}); !errors.Is(err, ErrInvalidMediaType) {
		t.Fatalf("expected ErrInvalidMediaType, got %v", err)
	}
}

// TestParseIndex verifies negative and non-numeric indexes are rejected.
func TestParseIndex(t *testing.T) {
	if i, err := ParseIndex("7"); err != nil || i != 7 {
		t.Fatalf("ParseIndex(7) = %d, %v", i, err)
	}
	for _, bad := range []string{"-1", "x", ""} {
		if _, err := ParseIndex(bad); !errors.Is(err, ErrInvalidInput) {
			t.Fatalf("ParseIndex(%q) should fail", bad)
		}
	}
}

// TestParseProbeOutput verifies duration and video stream dimensions are extracted.
func TestParseProbeOutput(t *testing.T) {
	raw := `{"streams":[{"codec_type":"audio"},{"codec_type":"video","width":1280,"height":720}],"format":{"duration":"3.480000"}}`
	info, err := ParseProbeOutput(raw)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if info.Width != 1280 || info.Height != 720 || info.Duration != 3.48 {
		t.Fatalf("unexpected info %+v", info)
	}
	if _, err := ParseProbeOutput("not json"); err == nil {
		t.Fatalf("expected error for invalid json")
	}
}
