package player

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"time"
)

// preRollBytes bounds the capture pre-roll ring, roughly five seconds of
// stream at common radio bitrates.
const preRollBytes = 256 * 1024

const captureTimestampLayout = "2006-01-02 15.04.05"

var invalidFilenameChars = regexp.MustCompile(`[\\/:*?"<>|]`)

// sanitizeFilename strips characters invalid in filenames and trims whitespace.
// Falls back to "recording" if the result is empty.
func sanitizeFilename(name string) string {
	name = invalidFilenameChars.ReplaceAllString(name, "")
	name = strings.TrimSpace(name)
	if name == "" {
		return "recording"
	}
	return name
}

// byteRing is a fixed-capacity ring of the most recent stream bytes.
type byteRing struct {
	buf  []byte
	size int
	w    int // write position
	fill int // current fill level
	mu   sync.Mutex
}

func newByteRing(size int) *byteRing {
	return &byteRing{
		buf:  make([]byte, size),
		size: size,
	}
}

// Write appends data to the ring, overwriting the oldest bytes when full.
func (rb *byteRing) Write(p []byte) {
	rb.mu.Lock()
	defer rb.mu.Unlock()

	for _, b := range p {
		rb.buf[rb.w] = b
		rb.w = (rb.w + 1) % rb.size
	}
	rb.fill += len(p)
	if rb.fill > rb.size {
		rb.fill = rb.size
	}
}

// Snapshot returns a copy of the buffered bytes, oldest first.
func (rb *byteRing) Snapshot() []byte {
	rb.mu.Lock()
	defer rb.mu.Unlock()

	if rb.fill == 0 {
		return nil
	}

	out := make([]byte, rb.fill)
	start := (rb.w - rb.fill + rb.size) % rb.size
	for i := range rb.fill {
		out[i] = rb.buf[(start+i)%rb.size]
	}
	return out
}

// Reset discards all buffered bytes.
func (rb *byteRing) Reset() {
	rb.mu.Lock()
	defer rb.mu.Unlock()
	rb.w = 0
	rb.fill = 0
}

// captureTee sits between the ICY demux and the audio decoder. Every byte the
// decoder pulls lands in the pre-roll ring and, while a capture is active, in
// the capture file. The decoder goroutine writes through; start and stop come
// from the UI goroutine, hence the mutex.
type captureTee struct {
	src  io.Reader
	ring *byteRing

	mu      sync.Mutex
	file    *os.File
	path    string
	written int64
	err     error
}

func newCaptureTee(src io.Reader) *captureTee {
	return &captureTee{
		src:  src,
		ring: newByteRing(preRollBytes),
	}
}

func (t *captureTee) Read(p []byte) (int, error) {
	n, err := t.src.Read(p)
	if n > 0 {
		t.ring.Write(p[:n])

		t.mu.Lock()
		if t.file != nil {
			written, werr := t.file.Write(p[:n])
			t.written += int64(written)
			if werr != nil {
				t.err = werr
				t.file.Close()
				t.file = nil
			}
		}
		t.mu.Unlock()
	}
	return n, err
}

// start begins a capture named "<station> - <timestamp><ext>" under dir. The
// pre-roll ring is flushed into the file first so the recording includes the
// last few seconds already heard.
func (t *captureTee) start(dir, station, ext string) (string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.file != nil {
		return "", fmt.Errorf("capture already in progress")
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating recordings dir: %w", err)
	}

	name := fmt.Sprintf("%s - %s%s", sanitizeFilename(station), time.Now().Format(captureTimestampLayout), ext)
	path := filepath.Join(dir, name)
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("creating recording: %w", err)
	}

	written := 0
	if preroll := t.ring.Snapshot(); len(preroll) > 0 {
		written, err = f.Write(preroll)
		if err != nil {
			f.Close()
			os.Remove(path)
			return "", fmt.Errorf("writing pre-roll: %w", err)
		}
	}

	t.file = f
	t.path = path
	t.written = int64(written)
	t.err = nil
	return path, nil
}

// stop closes the capture file and reports its path and size.
func (t *captureTee) stop() (string, int64, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.file == nil {
		if t.err != nil {
			err := t.err
			t.err = nil
			return t.path, t.written, err
		}
		return "", 0, fmt.Errorf("no capture in progress")
	}

	err := t.file.Close()
	t.file = nil
	return t.path, t.written, err
}

func (t *captureTee) capturing() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.file != nil
}
