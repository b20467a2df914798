package video

import (
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

// probeTimeout bounds how long tune-in waits on ffprobe before the session
// falls back to default geometry.
const probeTimeout = 6 * time.Second

// Probe holds video stream metadata from ffprobe.
type Probe struct {
	Width    int
	Height   int
	FPS      float64
	HasVideo bool
}

type ffprobeVideoResult struct {
	Streams []struct {
		CodecType    string `json:"codec_type"`
		Width        int    `json:"width"`
		Height       int    `json:"height"`
		RFrameRate   string `json:"r_frame_rate"` // e.g. "30/1" or "24000/1001"
		AvgFrameRate string `json:"avg_frame_rate"`
	} `json:"streams"`
}

// ProbeStream uses ffprobe to get video metadata for a stream URL.
// Returns HasVideo=false if no video stream exists (audio-only stations).
func ProbeStream(url string) (Probe, error) {
	ffprobe, err := exec.LookPath("ffprobe")
	if err != nil {
		return Probe{}, fmt.Errorf("ffprobe not found")
	}

	ctx, cancel := context.WithTimeout(context.Background(), probeTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, ffprobe,
		"-v", "quiet",
		"-print_format", "json",
		"-show_streams",
		"-select_streams", "v:0",
		url,
	)
	cmd.Stdin = nil

	output, err := cmd.Output()
	if err != nil {
		return Probe{}, fmt.Errorf("ffprobe failed: %w", err)
	}

	var result ffprobeVideoResult
	if err := json.Unmarshal(output, &result); err != nil {
		return Probe{}, fmt.Errorf("parsing ffprobe output: %w", err)
	}

	for _, s := range result.Streams {
		if s.CodecType != "video" {
			continue
		}
		fps := parseFraction(s.AvgFrameRate)
		if fps <= 0 {
			fps = parseFraction(s.RFrameRate)
		}
		if fps <= 0 {
			fps = 24 // streams without rate metadata still need a pacer
		}
		return Probe{Width: s.Width, Height: s.Height, FPS: fps, HasVideo: true}, nil
	}

	// Audio-only station.
	return Probe{}, nil
}

// parseFraction parses ffprobe's "num/den" rate strings; bare numbers pass
// through, anything malformed is 0.
func parseFraction(s string) float64 {
	numStr, denStr, ok := strings.Cut(s, "/")
	if !ok {
		f, _ := strconv.ParseFloat(s, 64)
		return f
	}
	num, err1 := strconv.ParseFloat(numStr, 64)
	den, err2 := strconv.ParseFloat(denStr, 64)
	if err1 != nil || err2 != nil || den == 0 {
		return 0
	}
	return num / den
}
