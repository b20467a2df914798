package player

import (
	"fmt"
	"io"
	"net/http"
	"os/exec"
	"sync"

	"github.com/olivier-w/clira/internal/media"
)

const (
	streamSampleRate = 44100
	streamChannels   = 2
)

// liveSource is an audioSource over a live stream. Err reports the terminal
// stream error once the source has died. TitleUpdates carries in-stream
// titles when the station sends them; the channel closes with the source.
type liveSource interface {
	audioSource
	Err() error
	TitleUpdates() <-chan string
	Close() error
}

// newLiveSource picks the decode path for a stream: ICY MP3 and OGG Vorbis
// decode natively over a single connection; everything else (HLS, AAC) goes
// through ffmpeg.
func newLiveSource(rawURL, format string) (liveSource, error) {
	switch format {
	case "mp3", "ogg":
		return newICYStream(rawURL, format)
	default:
		return newStreamDecoder(rawURL)
	}
}

// icyStream plays an ICY radio stream over one HTTP connection. The response
// body is demuxed inline for stream titles, teed through the capture ring,
// and decoded natively.
type icyStream struct {
	body    io.ReadCloser
	tee     *captureTee
	src     audioSource
	format  string
	updates chan string

	mu      sync.Mutex
	readErr error
	closed  bool
}

func newICYStream(rawURL, format string) (*icyStream, error) {
	req, err := http.NewRequest(http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Icy-MetaData", "1")
	req.Header.Set("User-Agent", "clira")

	resp, err := icyMetadataHTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 400 {
		resp.Body.Close()
		return nil, fmt.Errorf("stream returned status %s", resp.Status)
	}

	s := &icyStream{
		body:    resp.Body,
		format:  format,
		updates: make(chan string, 1),
	}

	var audio io.Reader = resp.Body
	if metaInt, err := parseICYMetaInt(resp.Header.Get("icy-metaint")); err == nil {
		audio = newICYDemux(audio, metaInt, s.publishTitle)
	}
	s.tee = newCaptureTee(audio)

	switch format {
	case "ogg":
		s.src, err = newOGGDecoder(s.tee)
	default:
		s.src, err = newMP3Decoder(s.tee)
	}
	if err != nil {
		resp.Body.Close()
		return nil, fmt.Errorf("opening %s stream: %w", format, err)
	}
	return s, nil
}

func (s *icyStream) Read(p []byte) (int, error) {
	n, err := s.src.Read(p)
	if err != nil {
		s.mu.Lock()
		if s.readErr == nil {
			s.readErr = err
		}
		s.mu.Unlock()
	}
	return n, err
}

func (s *icyStream) Length() int64     { return -1 }
func (s *icyStream) SampleRate() int   { return s.src.SampleRate() }
func (s *icyStream) ChannelCount() int { return s.src.ChannelCount() }

func (s *icyStream) TitleUpdates() <-chan string { return s.updates }

func (s *icyStream) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.readErr
}

// publishTitle hands a title to the updates channel, replacing any pending
// one so the UI always sees the newest. Called from the decode goroutine.
func (s *icyStream) publishTitle(title string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	select {
	case s.updates <- title:
	default:
		select {
		case <-s.updates:
		default:
		}
		s.updates <- title
	}
}

func (s *icyStream) StartCapture(dir, station string) (string, error) {
	return s.tee.start(dir, station, media.ExtForStreamFormat(s.format))
}

func (s *icyStream) StopCapture() (string, int64, error) { return s.tee.stop() }

func (s *icyStream) Capturing() bool { return s.tee.capturing() }

func (s *icyStream) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	close(s.updates)
	s.mu.Unlock()

	if s.tee.capturing() {
		s.tee.stop()
	}
	return s.body.Close()
}

// streamDecoder adapts an ffmpeg live decode subprocess to the liveSource
// interface. Titles come from a separate metadata connection since ffmpeg
// owns the audio one.
type streamDecoder struct {
	cmd       *exec.Cmd
	stdout    io.ReadCloser
	titleMeta *icyTitleWatcher
	titles    <-chan string
	waitDone  chan struct{}
	closeOnce sync.Once
}

func newStreamDecoder(url string) (*streamDecoder, error) {
	ffmpeg, err := exec.LookPath("ffmpeg")
	if err != nil {
		return nil, fmt.Errorf("ffmpeg not found (required for this stream format)")
	}

	cmd := exec.Command(
		ffmpeg,
		"-nostdin",
		"-hide_banner",
		"-loglevel", "error",
		"-reconnect", "1",
		"-reconnect_streamed", "1",
		"-reconnect_delay_max", "5",
		"-i", url,
		"-vn",
		"-ac", "2",
		"-ar", "44100",
		"-f", "s16le",
		"pipe:1",
	)
	cmd.Stdin = nil
	cmd.Stderr = io.Discard

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("setting up ffmpeg stream: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("starting ffmpeg stream: %w", err)
	}

	titleMeta, err := newICYTitleWatcher(url)
	if err != nil {
		titleMeta = nil
	}

	d := &streamDecoder{
		cmd:       cmd,
		stdout:    stdout,
		titleMeta: titleMeta,
		waitDone:  make(chan struct{}),
	}
	if titleMeta != nil {
		d.titles = titleMeta.Updates()
	}
	go func() {
		_ = cmd.Wait()
		close(d.waitDone)
	}()
	return d, nil
}

func (d *streamDecoder) Read(p []byte) (int, error) {
	return d.stdout.Read(p)
}

func (d *streamDecoder) TitleUpdates() <-chan string { return d.titles }
func (d *streamDecoder) Length() int64               { return -1 }
func (d *streamDecoder) SampleRate() int             { return streamSampleRate }
func (d *streamDecoder) ChannelCount() int           { return streamChannels }

func (d *streamDecoder) Err() error {
	select {
	case <-d.waitDone:
		return fmt.Errorf("stream decoder exited")
	default:
		return nil
	}
}

func (d *streamDecoder) Close() error {
	d.closeOnce.Do(func() {
		if d.titleMeta != nil {
			_ = d.titleMeta.Close()
		}
		if d.stdout != nil {
			_ = d.stdout.Close()
		}
		if d.cmd != nil && d.cmd.Process != nil {
			_ = d.cmd.Process.Kill()
		}
		<-d.waitDone
	})
	return nil
}
