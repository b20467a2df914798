package player

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"
)

const defaultVolume = 0.8

// countingReader wraps an io.Reader and tracks bytes read.
type countingReader struct {
	reader io.Reader
	pos    int64
	mu     sync.Mutex
}

func (cr *countingReader) Read(p []byte) (int, error) {
	n, err := cr.reader.Read(p)
	cr.mu.Lock()
	cr.pos += int64(n)
	cr.mu.Unlock()
	return n, err
}

func (cr *countingReader) Pos() int64 {
	cr.mu.Lock()
	defer cr.mu.Unlock()
	return cr.pos
}

func (cr *countingReader) SetPos(pos int64) {
	cr.mu.Lock()
	cr.pos = pos
	cr.mu.Unlock()
}

// Player drives PCM playback through oto for a single source, either a local
// file or a live stream.
type Player struct {
	decoder     audioSource
	counter     *countingReader
	stream      liveSource // nil for local files
	otoCtx      *oto.Context
	otoPlayer   *oto.Player
	duration    time.Duration
	bytesPerSec int
	volume      float64
	canSeek     bool
	paused      bool
	done        chan struct{}
	stopMon     chan struct{}
	cleanup     func()
	mu          sync.Mutex
	closed      bool
}

var (
	globalOtoCtx *oto.Context
	otoOnce      sync.Once
	otoInitErr   error
)

func initOto() (*oto.Context, error) {
	otoOnce.Do(func() {
		op := &oto.NewContextOptions{
			SampleRate:   playbackSampleRate,
			ChannelCount: playbackChannels,
			Format:       oto.FormatSignedInt16LE,
		}
		var ready chan struct{}
		globalOtoCtx, ready, otoInitErr = oto.NewContext(op)
		if otoInitErr == nil {
			<-ready
		}
	})
	return globalOtoCtx, otoInitErr
}

// NewFile creates a Player for a local audio file. Formats without a native
// Go decoder decode through an ffmpeg subprocess.
func NewFile(path string) (*Player, error) {
	ext := strings.ToLower(filepath.Ext(path))

	var (
		src     audioDecoder
		cleanup func()
	)
	if canDecodeNatively(ext) {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		dec, err := newDecoder(f)
		if err != nil {
			f.Close()
			return nil, err
		}
		src = dec
		cleanup = func() { f.Close() }
	} else {
		if !hasFFmpeg() {
			return nil, fmt.Errorf("playing %s files requires ffmpeg", ext)
		}
		dec, err := newFFmpegDecoder(path)
		if err != nil {
			return nil, err
		}
		src = dec
		cleanup = dec.Close
	}

	norm, err := newNormalizedDecoder(src)
	if err != nil {
		cleanup()
		return nil, err
	}

	dur := time.Duration(float64(norm.Length()) / float64(playbackBytesPerSec) * float64(time.Second))
	p, err := newPlayer(norm, nil, dur, true, cleanup)
	if err != nil {
		cleanup()
		return nil, err
	}
	return p, nil
}

// NewStream creates a Player for a live stream URL. format comes from the
// station resolver ("mp3", "ogg", "aac" or empty for unknown).
func NewStream(url, format string) (*Player, error) {
	src, err := newLiveSource(url, format)
	if err != nil {
		return nil, err
	}

	norm, err := newNormalizedDecoder(src)
	if err != nil {
		src.Close()
		return nil, err
	}

	p, err := newPlayer(norm, src, 0, false, func() { src.Close() })
	if err != nil {
		src.Close()
		return nil, err
	}
	return p, nil
}

func newPlayer(src audioSource, stream liveSource, duration time.Duration, canSeek bool, cleanup func()) (*Player, error) {
	ctx, err := initOto()
	if err != nil {
		return nil, err
	}

	cr := &countingReader{reader: src}
	p := &Player{
		decoder:     src,
		counter:     cr,
		stream:      stream,
		otoCtx:      ctx,
		duration:    duration,
		bytesPerSec: playbackBytesPerSec,
		volume:      defaultVolume,
		canSeek:     canSeek,
		done:        make(chan struct{}),
		stopMon:     make(chan struct{}),
		cleanup:     cleanup,
	}

	p.otoPlayer = ctx.NewPlayer(cr)
	p.otoPlayer.SetVolume(p.volume)
	p.otoPlayer.Play()

	go p.monitor()
	return p, nil
}

// monitor closes the done channel when playback finishes: end of data for
// files, terminal stream error for live sources.
func (p *Player) monitor() {
	ticker := time.NewTicker(200 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-p.stopMon:
			return
		case <-ticker.C:
		}

		p.mu.Lock()
		if p.closed {
			p.mu.Unlock()
			return
		}
		var finished bool
		if p.stream != nil {
			finished = p.stream.Err() != nil
		} else {
			finished = !p.paused && p.counter.Pos() >= p.decoder.Length()
		}
		if finished {
			close(p.done)
			p.mu.Unlock()
			return
		}
		p.mu.Unlock()
	}
}

// Done returns a channel that closes when playback finishes.
func (p *Player) Done() <-chan struct{} {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.done
}

// Live reports whether the player is on a live stream.
func (p *Player) Live() bool { return p.stream != nil }

// TitleUpdates returns the stream's title channel, or nil for local files
// and streams without in-band metadata.
func (p *Player) TitleUpdates() <-chan string {
	if p.stream == nil {
		return nil
	}
	return p.stream.TitleUpdates()
}

// TogglePause toggles between play and pause.
func (p *Player) TogglePause() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.paused {
		p.otoPlayer.Play()
		p.paused = false
	} else {
		p.otoPlayer.Pause()
		p.paused = true
	}
}

// Pause pauses playback if it is running.
func (p *Player) Pause() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.paused {
		return
	}
	if p.otoPlayer != nil {
		p.otoPlayer.Pause()
	}
	p.paused = true
}

// Paused returns whether playback is paused.
func (p *Player) Paused() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.paused
}

// Position returns the current playback position. For live streams this is
// the time spent listening.
func (p *Player) Position() time.Duration {
	pos := p.counter.Pos()
	secs := float64(pos) / float64(p.bytesPerSec)
	return time.Duration(secs * float64(time.Second))
}

// Duration returns the total duration of the track, zero for live streams.
func (p *Player) Duration() time.Duration {
	return p.duration
}

// SeekTo moves playback to the target position. When resume is true playback
// continues after the seek, otherwise the player stays paused.
func (p *Player) SeekTo(target time.Duration, resume bool) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.canSeek {
		return fmt.Errorf("stream is not seekable")
	}
	seeker, ok := p.decoder.(io.Seeker)
	if !ok {
		return fmt.Errorf("stream is not seekable")
	}

	frameSize := int64(p.decoder.ChannelCount()) * playbackBytesPerSample
	newPos := clampSeekByteOffset(target, p.bytesPerSec, p.decoder.Length(), frameSize)

	if _, err := seeker.Seek(newPos, io.SeekStart); err != nil {
		return err
	}
	p.counter.SetPos(newPos)

	// Recreate the oto player to flush buffered audio
	if p.otoPlayer != nil {
		p.otoPlayer.Pause()
		p.otoPlayer = p.otoCtx.NewPlayer(p.counter)
		p.otoPlayer.SetVolume(p.volume)
		if resume {
			p.otoPlayer.Play()
		}
	}
	p.paused = !resume
	return nil
}

// SeekBy moves playback relative to the current position, keeping the
// play/pause state.
func (p *Player) SeekBy(delta time.Duration) error {
	p.mu.Lock()
	resume := !p.paused
	p.mu.Unlock()
	return p.SeekTo(p.Position()+delta, resume)
}

// clampSeekByteOffset converts a target position to a byte offset clamped to
// the track and aligned to a whole sample frame.
func clampSeekByteOffset(target time.Duration, bytesPerSec int, length int64, frameSize int64) int64 {
	offset := int64(target.Seconds() * float64(bytesPerSec))
	if offset < 0 {
		return 0
	}
	if length >= 0 && offset > length {
		offset = length
	}
	if frameSize > 0 {
		offset -= offset % frameSize
	}
	return offset
}

// Volume returns current volume (0.0 to 1.0).
func (p *Player) Volume() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.volume
}

// SetVolume sets volume (clamped to 0.0 - 1.0).
func (p *Player) SetVolume(v float64) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if v < 0 {
		v = 0
	}
	if v > 1 {
		v = 1
	}
	p.volume = v
	p.otoPlayer.SetVolume(v)
}

// AdjustVolume adjusts volume by delta.
func (p *Player) AdjustVolume(delta float64) {
	p.mu.Lock()
	v := p.volume + delta
	p.mu.Unlock()
	p.SetVolume(v) // SetVolume handles clamping
}

// captureSource is implemented by live sources that expose their raw bytes.
type captureSource interface {
	StartCapture(dir, station string) (string, error)
	StopCapture() (string, int64, error)
	Capturing() bool
}

// CaptureSupported reports whether the playing stream can be recorded. Only
// natively decoded streams expose their raw bytes.
func (p *Player) CaptureSupported() bool {
	_, ok := p.stream.(captureSource)
	return ok
}

// StartCapture begins recording the live stream into dir and returns the
// file path. The recording opens with the buffered pre-roll.
func (p *Player) StartCapture(dir, station string) (string, error) {
	c, ok := p.stream.(captureSource)
	if !ok {
		return "", fmt.Errorf("recording is not supported for this stream")
	}
	return c.StartCapture(dir, station)
}

// StopCapture ends the active recording and reports its path and size.
func (p *Player) StopCapture() (string, int64, error) {
	c, ok := p.stream.(captureSource)
	if !ok {
		return "", 0, fmt.Errorf("recording is not supported for this stream")
	}
	return c.StopCapture()
}

// Capturing reports whether a recording is in progress.
func (p *Player) Capturing() bool {
	c, ok := p.stream.(captureSource)
	return ok && c.Capturing()
}

// Close releases all resources.
func (p *Player) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return
	}
	p.closed = true
	if p.stopMon != nil {
		close(p.stopMon)
	}
	// Release Done waiters; monitor only closes done under mu so this cannot
	// race a double close.
	if p.done != nil {
		select {
		case <-p.done:
		default:
			close(p.done)
		}
	}
	if p.otoPlayer != nil {
		p.otoPlayer.Pause()
	}
	if p.cleanup != nil {
		p.cleanup()
	}
}
