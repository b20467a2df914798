package player

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestSanitizeFilename(t *testing.T) {
	cases := map[string]string{
		"KEXP 90.3":             "KEXP 90.3",
		`Groove/Salad: *best*?`: "GrooveSalad best",
		`a\b<c>d|e"f`:           "abcdef",
		"   ":                   "recording",
		"":                      "recording",
	}
	for in, want := range cases {
		if got := sanitizeFilename(in); got != want {
			t.Fatalf("sanitizeFilename(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestByteRingKeepsMostRecentBytes(t *testing.T) {
	rb := newByteRing(8)

	rb.Write([]byte("abcdefgh"))
	rb.Write([]byte("ij"))

	if got := string(rb.Snapshot()); got != "cdefghij" {
		t.Fatalf("expected most recent bytes, got %q", got)
	}

	rb.Reset()
	if got := rb.Snapshot(); got != nil {
		t.Fatalf("expected empty ring after reset, got %q", got)
	}
}

func TestByteRingPartialFill(t *testing.T) {
	rb := newByteRing(8)
	rb.Write([]byte("abc"))
	if got := string(rb.Snapshot()); got != "abc" {
		t.Fatalf("expected partial fill snapshot, got %q", got)
	}
}

func TestCaptureTeeWritesPreRollAndLiveBytes(t *testing.T) {
	tee := newCaptureTee(strings.NewReader("0123456789"))

	buf := make([]byte, 4)
	if _, err := io.ReadFull(tee, buf); err != nil {
		t.Fatalf("reading pre-roll bytes: %v", err)
	}

	dir := t.TempDir()
	path, err := tee.start(dir, "Test FM", ".mp3")
	if err != nil {
		t.Fatalf("start returned error: %v", err)
	}
	base := filepath.Base(path)
	if !strings.HasPrefix(base, "Test FM - ") || !strings.HasSuffix(base, ".mp3") {
		t.Fatalf("unexpected capture filename %q", base)
	}
	if !tee.capturing() {
		t.Fatal("expected capture to be active")
	}

	if _, err := io.Copy(io.Discard, tee); err != nil {
		t.Fatalf("draining stream: %v", err)
	}

	gotPath, written, err := tee.stop()
	if err != nil {
		t.Fatalf("stop returned error: %v", err)
	}
	if gotPath != path {
		t.Fatalf("expected path %q, got %q", path, gotPath)
	}
	if written != 10 {
		t.Fatalf("expected 10 bytes written, got %d", written)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading capture file: %v", err)
	}
	if !bytes.Equal(data, []byte("0123456789")) {
		t.Fatalf("capture file mismatch: %q", data)
	}
}

func TestCaptureTeeRejectsSecondStart(t *testing.T) {
	tee := newCaptureTee(strings.NewReader("abc"))
	dir := t.TempDir()

	if _, err := tee.start(dir, "A", ".mp3"); err != nil {
		t.Fatalf("start returned error: %v", err)
	}
	if _, err := tee.start(dir, "B", ".mp3"); err == nil {
		t.Fatal("expected second start to fail")
	}
	if _, _, err := tee.stop(); err != nil {
		t.Fatalf("stop returned error: %v", err)
	}
}

func TestCaptureTeeStopWithoutStartFails(t *testing.T) {
	tee := newCaptureTee(strings.NewReader(""))
	if _, _, err := tee.stop(); err == nil {
		t.Fatal("expected stop without start to fail")
	}
}
