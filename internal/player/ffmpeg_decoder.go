package player

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os/exec"
	"strconv"
	"strings"
	"sync"
	"time"
)

var errFFmpegNotFound = fmt.Errorf("ffmpeg not found (required for this format)")

// ffmpegDecoder pipes formats without a native Go decoder (AAC captures,
// m4a) through an ffmpeg subprocess, reading signed 16-bit LE PCM at the
// source rate and channel count. Seeking restarts the process with -ss.
type ffmpegDecoder struct {
	path       string
	sampleRate int
	channels   int
	totalBytes int64
	duration   time.Duration

	mu       sync.Mutex
	cmd      *exec.Cmd
	stdout   io.ReadCloser
	cancel   context.CancelFunc
	pos      int64 // byte position in the PCM stream
	seekBase int64 // byte offset the running process started from
	closed   bool
}

func newFFmpegDecoder(path string) (*ffmpegDecoder, error) {
	probe, err := probeAudio(path)
	if err != nil {
		return nil, fmt.Errorf("probing %s: %w", path, err)
	}

	perSecond := probe.sampleRate * probe.channels * 2 // s16 = 2 bytes/sample
	d := &ffmpegDecoder{
		path:       path,
		sampleRate: probe.sampleRate,
		channels:   probe.channels,
		totalBytes: int64(probe.duration.Seconds() * float64(perSecond)),
		duration:   probe.duration,
	}
	if err := d.startProcess(0); err != nil {
		return nil, err
	}
	return d, nil
}

type audioProbe struct {
	sampleRate int
	channels   int
	duration   time.Duration
}

// probeAudio asks ffprobe for the first audio stream's rate, channel count
// and container duration. Missing fields fall back to CD-ish defaults rather
// than failing the whole open.
func probeAudio(path string) (audioProbe, error) {
	ffprobe, err := exec.LookPath("ffprobe")
	if err != nil {
		return audioProbe{}, fmt.Errorf("ffprobe not found (required for this format)")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	cmd := exec.CommandContext(ctx, ffprobe,
		"-v", "quiet",
		"-print_format", "json",
		"-show_streams",
		"-show_format",
		"-select_streams", "a:0",
		path,
	)
	cmd.Stdin = nil

	output, err := cmd.Output()
	if err != nil {
		return audioProbe{}, fmt.Errorf("ffprobe failed: %w", err)
	}

	var result struct {
		Streams []struct {
			SampleRate string `json:"sample_rate"`
			Channels   int    `json:"channels"`
		} `json:"streams"`
		Format struct {
			Duration string `json:"duration"`
		} `json:"format"`
	}
	if err := json.Unmarshal(output, &result); err != nil {
		return audioProbe{}, fmt.Errorf("parsing ffprobe output: %w", err)
	}
	if len(result.Streams) == 0 {
		return audioProbe{}, fmt.Errorf("no audio stream found")
	}

	probe := audioProbe{sampleRate: 44100, channels: 2}
	if sr, err := strconv.Atoi(result.Streams[0].SampleRate); err == nil && sr > 0 {
		probe.sampleRate = sr
	}
	if ch := result.Streams[0].Channels; ch > 0 {
		probe.channels = ch
	}
	if sec, err := strconv.ParseFloat(result.Format.Duration, 64); err == nil && sec > 0 {
		probe.duration = time.Duration(sec * float64(time.Second))
	}
	return probe, nil
}

// startProcess launches ffmpeg decoding from the given PCM byte offset,
// replacing any process already running.
func (d *ffmpegDecoder) startProcess(fromPos int64) error {
	ffmpeg, err := exec.LookPath("ffmpeg")
	if err != nil {
		return errFFmpegNotFound
	}

	d.stopProcess()

	ctx, cancel := context.WithCancel(context.Background())

	args := []string{"-v", "quiet"}
	if fromPos > 0 {
		// -ss before -i for keyframe-fast seeking.
		perSecond := float64(d.sampleRate * d.channels * 2)
		args = append(args, "-ss", ffmpegSeekStamp(float64(fromPos)/perSecond))
	}
	args = append(args,
		"-i", d.path,
		"-f", "s16le",
		"-acodec", "pcm_s16le",
		"-ar", strconv.Itoa(d.sampleRate),
		"-ac", strconv.Itoa(d.channels),
		"pipe:1",
	)

	cmd := exec.CommandContext(ctx, ffmpeg, args...)
	cmd.Stdin = nil

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		cancel()
		return fmt.Errorf("setting up ffmpeg stdout: %w", err)
	}
	if err := cmd.Start(); err != nil {
		cancel()
		return fmt.Errorf("starting ffmpeg: %w", err)
	}

	d.cmd = cmd
	d.stdout = stdout
	d.cancel = cancel
	d.pos = fromPos
	d.seekBase = fromPos
	return nil
}

func (d *ffmpegDecoder) stopProcess() {
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	if d.cmd != nil {
		d.cmd.Wait() // reap; errors from cancellation are expected
		d.cmd = nil
	}
	d.stdout = nil
}

func (d *ffmpegDecoder) Read(p []byte) (int, error) {
	d.mu.Lock()
	if d.closed || d.stdout == nil {
		d.mu.Unlock()
		return 0, io.EOF
	}
	stdout := d.stdout
	d.mu.Unlock()

	n, err := stdout.Read(p)

	d.mu.Lock()
	d.pos += int64(n)
	d.mu.Unlock()
	return n, err
}

func (d *ffmpegDecoder) Seek(offset int64, whence int) (int64, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	var target int64
	switch whence {
	case io.SeekStart:
		target = offset
	case io.SeekCurrent:
		target = d.pos + offset
	case io.SeekEnd:
		target = d.totalBytes + offset
	}
	if target < 0 {
		target = 0
	}
	if target > d.totalBytes {
		target = d.totalBytes
	}

	// Align to frame boundary.
	frame := int64(d.channels) * 2
	target -= target % frame

	if err := d.startProcess(target); err != nil {
		return d.pos, err
	}
	return target, nil
}

func (d *ffmpegDecoder) Length() int64     { return d.totalBytes }
func (d *ffmpegDecoder) SampleRate() int   { return d.sampleRate }
func (d *ffmpegDecoder) ChannelCount() int { return d.channels }

func (d *ffmpegDecoder) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return
	}
	d.closed = true
	d.stopProcess()
}

// ffmpegSeekStamp formats seconds as HH:MM:SS.mmm for -ss.
func ffmpegSeekStamp(seconds float64) string {
	if seconds < 0 {
		seconds = 0
	}
	h := int(seconds) / 3600
	m := (int(seconds) % 3600) / 60
	s := seconds - float64(h*3600+m*60)
	return fmt.Sprintf("%02d:%02d:%06.3f", h, m, s)
}

// hasFFmpeg reports whether ffmpeg is on PATH.
func hasFFmpeg() bool {
	_, err := exec.LookPath("ffmpeg")
	return err == nil
}

// canDecodeNatively reports whether the extension has a pure-Go decoder.
func canDecodeNatively(ext string) bool {
	switch strings.ToLower(ext) {
	case ".mp3", ".wav", ".flac", ".ogg":
		return true
	}
	return false
}
