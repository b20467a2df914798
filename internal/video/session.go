package video

import (
	"fmt"
	"io"
	"os/exec"
	"sync"
	"time"
)

const defaultFPS = 15

// Session manages an ffmpeg subprocess that decodes a live video stream into
// raw rgb24 frames. A pump goroutine keeps only the newest frame, so slow UI
// ticks drop frames instead of falling behind the broadcast.
type Session struct {
	url      string
	probe    Probe
	renderer *Renderer

	// Current decode geometry.
	scaleW int // ffmpeg output width in pixels
	scaleH int // ffmpeg output height in pixels
	outW   int // terminal cells width
	outH   int // terminal cells height

	mu        sync.Mutex
	cmd       *exec.Cmd
	stdout    io.ReadCloser
	gen       int // decode generation; stale pumps exit
	frame     []byte
	haveFrame bool
	decodeErr error
	closed    bool
}

// NewSession probes the stream and starts decoding. termW, termH are the
// terminal cells available for the video pane. Streams the probe cannot see
// fall back to 720p geometry.
func NewSession(url string, termW, termH int) (*Session, error) {
	probe, err := ProbeStream(url)
	if err != nil || !probe.HasVideo {
		probe = Probe{Width: 1280, Height: 720, FPS: defaultFPS, HasVideo: true}
	}

	renderer := NewRenderer()
	color := renderer.mode != colorOff

	outW, outH, scaleW, scaleH := CalcFrameDimensions(termW, termH, probe.Width, probe.Height, color)

	s := &Session{
		url:      url,
		probe:    probe,
		renderer: renderer,
		scaleW:   scaleW,
		scaleH:   scaleH,
		outW:     outW,
		outH:     outH,
		frame:    make([]byte, scaleW*scaleH*3),
	}

	s.mu.Lock()
	err = s.startDecode()
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}
	return s, nil
}

// startDecode launches the ffmpeg decode subprocess. Callers hold mu.
func (s *Session) startDecode() error {
	s.stopDecode()

	ffmpeg, err := exec.LookPath("ffmpeg")
	if err != nil {
		return fmt.Errorf("ffmpeg not found")
	}

	args := []string{
		"-v", "quiet",
		"-reconnect", "1",
		"-reconnect_streamed", "1",
		"-reconnect_delay_max", "5",
		"-i", s.url,
		"-f", "rawvideo",
		"-pix_fmt", "rgb24",
		"-vf", fmt.Sprintf("scale=%d:%d,fps=%d", s.scaleW, s.scaleH, defaultFPS),
		"-an", // no video-side audio; sound runs through the player
		"pipe:1",
	}

	cmd := exec.Command(ffmpeg, args...)
	cmd.Stdin = nil

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("ffmpeg stdout pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("starting ffmpeg video decode: %w", err)
	}

	s.cmd = cmd
	s.stdout = stdout
	s.gen++
	s.haveFrame = false
	s.decodeErr = nil

	go s.pump(stdout, cmd, len(s.frame), s.gen)
	return nil
}

// stopDecode kills the current ffmpeg process. Callers hold mu; the pump
// reaps the process when its read fails or its generation goes stale.
func (s *Session) stopDecode() {
	if s.cmd != nil && s.cmd.Process != nil {
		s.cmd.Process.Kill()
	}
	if s.stdout != nil {
		s.stdout.Close()
	}
	s.cmd = nil
	s.stdout = nil
}

// pump reads complete frames from ffmpeg and publishes the newest one.
func (s *Session) pump(stdout io.Reader, cmd *exec.Cmd, frameSize, gen int) {
	buf := make([]byte, frameSize)
	for {
		if _, err := io.ReadFull(stdout, buf); err != nil {
			cmd.Wait()
			s.mu.Lock()
			if gen == s.gen && !s.closed {
				s.decodeErr = fmt.Errorf("video decode ended: %w", err)
			}
			s.mu.Unlock()
			return
		}

		s.mu.Lock()
		if gen != s.gen || s.closed {
			s.mu.Unlock()
			cmd.Wait()
			return
		}
		copy(s.frame, buf)
		s.haveFrame = true
		s.mu.Unlock()
	}
}

// Frame renders the newest decoded frame as a terminal string. ok is false
// until the first frame arrives.
func (s *Session) Frame() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed || !s.haveFrame {
		return "", false
	}
	return s.renderer.Render(s.frame, s.scaleW, s.scaleH, s.outW, s.outH), true
}

// Err reports a terminal decode error, nil while the stream is healthy.
func (s *Session) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.decodeErr
}

// Resize recalculates output geometry and restarts the decode when the
// geometry actually changed.
func (s *Session) Resize(termW, termH int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return fmt.Errorf("session closed")
	}

	color := s.renderer.mode != colorOff
	outW, outH, scaleW, scaleH := CalcFrameDimensions(termW, termH, s.probe.Width, s.probe.Height, color)
	if outW == s.outW && outH == s.outH && scaleW == s.scaleW && scaleH == s.scaleH {
		return nil
	}

	s.outW, s.outH = outW, outH
	s.scaleW, s.scaleH = scaleW, scaleH
	if size := scaleW * scaleH * 3; len(s.frame) != size {
		s.frame = make([]byte, size)
	}
	return s.startDecode()
}

// Close releases all resources.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	s.stopDecode()
	return nil
}

// TickInterval returns the recommended tick interval for frame updates.
func TickInterval() time.Duration {
	return time.Second / time.Duration(defaultFPS)
}

// Available returns whether video playback is possible (ffmpeg present).
func Available() bool {
	_, err := exec.LookPath("ffmpeg")
	return err == nil
}
