package player

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-audio/wav"
	"github.com/hajimehoshi/go-mp3"
	"github.com/jfreymuth/oggvorbis"
	"github.com/mewkiz/flac"
)

// audioSource is a stream of signed 16-bit LE PCM in the source's native
// sample rate and channel count. Length returns the total PCM size in bytes,
// or -1 when the source is unbounded (live streams).
type audioSource interface {
	io.Reader
	Length() int64
	SampleRate() int
	ChannelCount() int
}

// audioDecoder is an audioSource over local data, always seekable.
type audioDecoder interface {
	audioSource
	io.Seeker
}

// newDecoder picks a decoder by file extension.
func newDecoder(f *os.File) (audioDecoder, error) {
	switch ext := strings.ToLower(filepath.Ext(f.Name())); ext {
	case ".mp3":
		return newMP3Decoder(f)
	case ".wav":
		return newWAVDecoder(f)
	case ".flac":
		return newFLACDecoder(f)
	case ".ogg":
		return newOGGDecoder(f)
	default:
		return nil, fmt.Errorf("unsupported format: %s", ext)
	}
}

// resolveSeek applies whence against the current position, then clamps the
// result into [0, total]. A negative total (unbounded source) only clamps the
// low end.
func resolveSeek(pos, total, offset int64, whence int) int64 {
	var target int64
	switch whence {
	case io.SeekStart:
		target = offset
	case io.SeekCurrent:
		target = pos + offset
	case io.SeekEnd:
		target = total + offset
	}
	if target < 0 {
		target = 0
	}
	if total >= 0 && target > total {
		target = total
	}
	return target
}

// clampS16 clips an int into the signed 16-bit sample range.
func clampS16(v int) int16 {
	if v > 32767 {
		return 32767
	}
	if v < -32768 {
		return -32768
	}
	return int16(v)
}

// pcmCarry holds converted PCM that did not fit the caller's read slice, so
// decoders never drop samples on short reads.
type pcmCarry struct {
	buf []byte
	pos int64
}

// drain copies leftover bytes into p, reporting whether anything was pending.
func (c *pcmCarry) drain(p []byte) (int, bool) {
	if len(c.buf) == 0 {
		return 0, false
	}
	n := copy(p, c.buf)
	c.buf = c.buf[n:]
	c.pos += int64(n)
	return n, true
}

// emit copies raw into p, stashing the overflow for the next read.
func (c *pcmCarry) emit(p, raw []byte) int {
	written := copy(p, raw)
	if written < len(raw) {
		c.buf = raw[written:]
	}
	c.pos += int64(written)
	return written
}

func (c *pcmCarry) rewindTo(pos int64) {
	c.buf = nil
	c.pos = pos
}

// --- MP3 ---

// mp3Decoder wraps go-mp3, which always emits 16-bit stereo PCM. It accepts
// plain readers so radio streams decode through the same path; Seek and
// Length only work when the underlying reader is seekable.
type mp3Decoder struct {
	dec *mp3.Decoder
}

func newMP3Decoder(r io.Reader) (*mp3Decoder, error) {
	dec, err := mp3.NewDecoder(r)
	if err != nil {
		return nil, err
	}
	return &mp3Decoder{dec: dec}, nil
}

func (d *mp3Decoder) Read(p []byte) (int, error) { return d.dec.Read(p) }
func (d *mp3Decoder) Seek(offset int64, whence int) (int64, error) {
	return d.dec.Seek(offset, whence)
}
func (d *mp3Decoder) Length() int64     { return d.dec.Length() }
func (d *mp3Decoder) SampleRate() int   { return d.dec.SampleRate() }
func (d *mp3Decoder) ChannelCount() int { return 2 }

// --- WAV ---

type wavDecoder struct {
	file         *os.File
	carry        pcmCarry
	totalBytes   int64
	pcmStart     int64 // file offset where PCM data begins
	sampleRate   int
	channels     int
	srcBitDepth  int
	srcFrameSize int64 // bytes per sample frame in the source encoding
}

func newWAVDecoder(f *os.File) (*wavDecoder, error) {
	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return nil, fmt.Errorf("invalid WAV file")
	}
	if err := dec.FwdToPCM(); err != nil {
		return nil, fmt.Errorf("reading WAV PCM data: %w", err)
	}

	channels := int(dec.NumChans)
	bitDepth := int(dec.BitDepth)
	srcFrameSize := int64(channels) * int64(bitDepth) / 8
	sourceFrames := dec.PCMLen() / srcFrameSize

	// FwdToPCM leaves the file positioned at the first PCM byte.
	pcmStart, err := f.Seek(0, io.SeekCurrent)
	if err != nil {
		return nil, fmt.Errorf("getting PCM start position: %w", err)
	}

	return &wavDecoder{
		file:         f,
		sampleRate:   int(dec.SampleRate),
		channels:     channels,
		srcBitDepth:  bitDepth,
		srcFrameSize: srcFrameSize,
		totalBytes:   sourceFrames * int64(channels) * 2, // 16-bit output
		pcmStart:     pcmStart,
	}, nil
}

func (d *wavDecoder) Read(p []byte) (int, error) {
	if n, ok := d.carry.drain(p); ok {
		return n, nil
	}

	srcBytesPerSample := d.srcBitDepth / 8
	wantSamples := len(p) / 2
	if wantSamples == 0 {
		wantSamples = 1
	}
	srcBytes := make([]byte, wantSamples*srcBytesPerSample)
	n, err := io.ReadFull(d.file, srcBytes)
	if n == 0 {
		if err != nil {
			return 0, err
		}
		return 0, io.EOF
	}

	samplesRead := n / srcBytesPerSample
	if samplesRead == 0 {
		return 0, io.EOF
	}

	raw := make([]byte, samplesRead*2)
	for i := 0; i < samplesRead; i++ {
		s := decodeWAVSample(srcBytes[i*srcBytesPerSample:], d.srcBitDepth)
		binary.LittleEndian.PutUint16(raw[i*2:], uint16(clampS16(s)))
	}

	if err == io.ErrUnexpectedEOF {
		err = io.EOF
	}
	return d.carry.emit(p, raw), err
}

// decodeWAVSample converts one source-encoded sample to signed 16-bit.
func decodeWAVSample(b []byte, bitDepth int) int {
	switch bitDepth {
	case 8:
		// 8-bit WAV is unsigned
		return (int(b[0]) - 128) << 8
	case 16:
		return int(int16(binary.LittleEndian.Uint16(b)))
	case 24:
		s := int32(b[0]) | int32(b[1])<<8 | int32(b[2])<<16
		if s&0x800000 != 0 {
			s |= ^0xFFFFFF // sign extend
		}
		return int(s >> 8)
	case 32:
		return int(int32(binary.LittleEndian.Uint32(b)) >> 16)
	}
	return 0
}

func (d *wavDecoder) Seek(offset int64, whence int) (int64, error) {
	target := resolveSeek(d.carry.pos, d.totalBytes, offset, whence)

	// Output position → source position.
	outFrameSize := int64(d.channels) * 2
	srcBytePos := (target / outFrameSize) * d.srcFrameSize
	if _, err := d.file.Seek(d.pcmStart+srcBytePos, io.SeekStart); err != nil {
		return d.carry.pos, err
	}

	d.carry.rewindTo(target)
	return target, nil
}

func (d *wavDecoder) Length() int64     { return d.totalBytes }
func (d *wavDecoder) SampleRate() int   { return d.sampleRate }
func (d *wavDecoder) ChannelCount() int { return d.channels }

// --- FLAC ---

type flacDecoder struct {
	stream     *flac.Stream
	carry      pcmCarry
	totalBytes int64
	sampleRate int
	channels   int
	bps        int
}

func newFLACDecoder(f *os.File) (*flacDecoder, error) {
	stream, err := flac.NewSeek(f)
	if err != nil {
		return nil, fmt.Errorf("decoding FLAC: %w", err)
	}

	info := stream.Info
	channels := int(info.NChannels)
	return &flacDecoder{
		stream:     stream,
		sampleRate: int(info.SampleRate),
		channels:   channels,
		bps:        int(info.BitsPerSample),
		totalBytes: int64(info.NSamples) * int64(channels) * 2,
	}, nil
}

func (d *flacDecoder) Read(p []byte) (int, error) {
	if n, ok := d.carry.drain(p); ok {
		return n, nil
	}

	frame, err := d.stream.ParseNext()
	if err != nil {
		return 0, err
	}

	nSamples := int(frame.Subframes[0].NSamples)
	raw := make([]byte, nSamples*d.channels*2)
	for i := 0; i < nSamples; i++ {
		for ch := 0; ch < d.channels; ch++ {
			sample := int(frame.Subframes[ch].Samples[i])
			switch {
			case d.bps > 16:
				sample >>= (d.bps - 16)
			case d.bps < 16:
				sample <<= (16 - d.bps)
			}
			off := (i*d.channels + ch) * 2
			binary.LittleEndian.PutUint16(raw[off:], uint16(clampS16(sample)))
		}
	}
	return d.carry.emit(p, raw), nil
}

func (d *flacDecoder) Seek(offset int64, whence int) (int64, error) {
	target := resolveSeek(d.carry.pos, d.totalBytes, offset, whence)

	sampleNum := uint64(target / (int64(d.channels) * 2))
	if _, err := d.stream.Seek(sampleNum); err != nil {
		return d.carry.pos, err
	}

	d.carry.rewindTo(target)
	return target, nil
}

func (d *flacDecoder) Length() int64     { return d.totalBytes }
func (d *flacDecoder) SampleRate() int   { return d.sampleRate }
func (d *flacDecoder) ChannelCount() int { return d.channels }

// --- OGG Vorbis ---

// oggDecoder accepts plain readers like mp3Decoder does; Length reports -1
// when the total sample count is unknown.
type oggDecoder struct {
	reader     *oggvorbis.Reader
	carry      pcmCarry
	totalBytes int64
	sampleRate int
	channels   int
}

func newOGGDecoder(r io.Reader) (*oggDecoder, error) {
	reader, err := oggvorbis.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("decoding OGG: %w", err)
	}

	channels := reader.Channels()
	totalBytes := int64(-1)
	if totalSamples := reader.Length(); totalSamples > 0 {
		totalBytes = totalSamples * int64(channels) * 2
	}

	return &oggDecoder{
		reader:     reader,
		sampleRate: reader.SampleRate(),
		channels:   channels,
		totalBytes: totalBytes,
	}, nil
}

func (d *oggDecoder) Read(p []byte) (int, error) {
	if n, ok := d.carry.drain(p); ok {
		return n, nil
	}

	samples := make([]float32, len(p)/2)
	n, err := d.reader.Read(samples)
	if n == 0 {
		if err != nil {
			return 0, err
		}
		return 0, io.EOF
	}

	raw := make([]byte, n*2)
	for i := 0; i < n; i++ {
		s := samples[i]
		if s > 1.0 {
			s = 1.0
		} else if s < -1.0 {
			s = -1.0
		}
		binary.LittleEndian.PutUint16(raw[i*2:], uint16(int16(s*32767)))
	}
	return d.carry.emit(p, raw), err
}

func (d *oggDecoder) Seek(offset int64, whence int) (int64, error) {
	if d.totalBytes < 0 {
		return d.carry.pos, fmt.Errorf("source is not seekable")
	}

	target := resolveSeek(d.carry.pos, d.totalBytes, offset, whence)
	if err := d.reader.SetPosition(target / (int64(d.channels) * 2)); err != nil {
		return d.carry.pos, err
	}

	d.carry.rewindTo(target)
	return target, nil
}

func (d *oggDecoder) Length() int64     { return d.totalBytes }
func (d *oggDecoder) SampleRate() int   { return d.sampleRate }
func (d *oggDecoder) ChannelCount() int { return d.channels }
