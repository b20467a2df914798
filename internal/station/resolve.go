package station

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/olivier-w/clira/internal/media"
)

// StreamKind describes which playback path a resolved URL should take.
type StreamKind int

const (
	StreamDirect StreamKind = iota
	StreamHLS
)

// Resolution is the playable outcome of resolving a station URL: wrapper
// playlists unwrapped, redirects followed, format detected where possible.
type Resolution struct {
	URL    string
	Kind   StreamKind
	Format string // "mp3", "ogg", "aac" or "" when unknown
	Name   string // icy-name header when the server sent one
	Genre  string // icy-genre header when the server sent one
}

// ErrUnsupportedScheme is returned for URLs that are not http or https.
var ErrUnsupportedScheme = errors.New("unsupported URL scheme")

const (
	probeTimeout     = 4 * time.Second
	probeBodyLimit   = 128 * 1024
	maxPlaylistDepth = 3
)

var (
	probeHTTPClient = &http.Client{
		Timeout: probeTimeout,
	}

	resolutionCacheMu sync.RWMutex
	resolutionCache   = make(map[string]Resolution)
)

type probeResult struct {
	finalURL      string
	contentType   string
	contentLength int64
	headers       http.Header
	body          string
}

// NormalizeURL trims and validates a user-entered URL. A missing scheme
// defaults to https.
func NormalizeURL(raw string) (string, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return "", errors.New("empty URL")
	}
	if !strings.Contains(s, "://") {
		s = "https://" + s
	}
	parsed, err := url.Parse(s)
	if err != nil {
		return "", fmt.Errorf("invalid URL: %w", err)
	}
	scheme := strings.ToLower(parsed.Scheme)
	if scheme != "http" && scheme != "https" {
		return "", fmt.Errorf("%w %q", ErrUnsupportedScheme, parsed.Scheme)
	}
	if parsed.Host == "" {
		return "", fmt.Errorf("URL %q has no host", raw)
	}
	parsed.Fragment = ""
	return parsed.String(), nil
}

// Resolve probes a station URL and unwraps it to something playable:
// wrapper playlists (.pls/.m3u pointing at streams) are followed to their
// first entry, HLS is detected, and direct streams get a format hint plus
// any icy-name/icy-genre the server advertises. Results are cached per
// normalized URL for the life of the process.
func Resolve(ctx context.Context, rawURL string) (Resolution, error) {
	normalized, err := NormalizeURL(rawURL)
	if err != nil {
		return Resolution{}, err
	}

	resolutionCacheMu.RLock()
	cached, ok := resolutionCache[normalized]
	resolutionCacheMu.RUnlock()
	if ok {
		return cached, nil
	}

	current := normalized
	for range maxPlaylistDepth {
		probe, err := probeURL(ctx, current)
		if err != nil {
			return Resolution{}, err
		}
		if probe.finalURL != "" {
			current = probe.finalURL
		}

		if hasHLSBodyMarker(probe.body) || isHLSContentType(probe.contentType) {
			res := Resolution{
				URL:   current,
				Kind:  StreamHLS,
				Name:  probe.headers.Get("Icy-Name"),
				Genre: probe.headers.Get("Icy-Genre"),
			}
			cacheResolution(normalized, res)
			return res, nil
		}

		if isWrapperPlaylist(probe, current) {
			entries := parseRemotePlaylistBody(probe.body, current)
			if len(entries) == 0 {
				return Resolution{}, fmt.Errorf("playlist at %s has no stream entries", current)
			}
			current = entries[0].URL
			continue
		}

		if !isAudioLikeContentType(probe.contentType) && !hasICYHeaders(probe.headers) {
			return Resolution{}, fmt.Errorf("%s does not serve an audio stream (content-type %q)", current, probe.contentType)
		}

		res := Resolution{
			URL:    current,
			Kind:   StreamDirect,
			Format: formatFromProbe(probe),
			Name:   probe.headers.Get("Icy-Name"),
			Genre:  probe.headers.Get("Icy-Genre"),
		}
		cacheResolution(normalized, res)
		return res, nil
	}

	return Resolution{}, fmt.Errorf("playlists nested deeper than %d levels at %s", maxPlaylistDepth, normalized)
}

func cacheResolution(key string, res Resolution) {
	resolutionCacheMu.Lock()
	resolutionCache[key] = res
	resolutionCacheMu.Unlock()
}

func probeURL(ctx context.Context, rawURL string) (probeResult, error) {
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return probeResult{}, err
	}
	req.Header.Set("Range", "bytes=0-65535")
	req.Header.Set("Icy-MetaData", "1")
	req.Header.Set("User-Agent", "clira")

	resp, err := probeHTTPClient.Do(req)
	if err != nil {
		return probeResult{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return probeResult{}, fmt.Errorf("probing %s: HTTP %d", rawURL, resp.StatusCode)
	}

	// Partial reads are fine; markers sit at the top of playlist bodies.
	bodyBytes, _ := io.ReadAll(io.LimitReader(resp.Body, probeBodyLimit))
	contentType := strings.TrimSpace(resp.Header.Get("Content-Type"))
	if contentType != "" {
		if mediaType, _, parseErr := mime.ParseMediaType(contentType); parseErr == nil {
			contentType = strings.ToLower(strings.TrimSpace(mediaType))
		} else {
			contentType = strings.ToLower(strings.TrimSpace(strings.Split(contentType, ";")[0]))
		}
	}

	finalURL := rawURL
	if resp.Request != nil && resp.Request.URL != nil {
		finalURL = resp.Request.URL.String()
	}

	return probeResult{
		finalURL:      finalURL,
		contentType:   contentType,
		contentLength: resp.ContentLength,
		headers:       resp.Header,
		body:          string(bodyBytes),
	}, nil
}

func isWrapperPlaylist(p probeResult, currentURL string) bool {
	if hasHLSBodyMarker(p.body) {
		return false
	}
	if hasPlaylistExt(currentURL) || hasPlaylistExt(p.finalURL) {
		return true
	}
	if isPlaylistContentType(p.contentType) {
		return true
	}
	return hasPlaylistBodyMarker(p.body)
}

func formatFromProbe(p probeResult) string {
	switch p.contentType {
	case "audio/mpeg", "audio/mp3", "audio/mpg":
		return "mp3"
	case "audio/ogg", "application/ogg", "audio/vorbis":
		return "ogg"
	case "audio/aac", "audio/aacp", "application/aacp", "audio/mp4":
		return "aac"
	}
	lower := strings.ToLower(p.finalURL)
	switch {
	case strings.HasSuffix(lower, ".mp3"):
		return "mp3"
	case strings.HasSuffix(lower, ".ogg"):
		return "ogg"
	case strings.HasSuffix(lower, ".aac"):
		return "aac"
	}
	return ""
}

func hasPlaylistExt(rawURL string) bool {
	parsed, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return false
	}
	path := strings.ToLower(parsed.Path)
	return strings.HasSuffix(path, ".pls") ||
		strings.HasSuffix(path, ".m3u") ||
		strings.HasSuffix(path, ".m3u8")
}

func isPlaylistContentType(contentType string) bool {
	switch strings.ToLower(strings.TrimSpace(contentType)) {
	case "audio/x-mpegurl",
		"application/x-mpegurl",
		"application/vnd.apple.mpegurl",
		"audio/mpegurl",
		"audio/x-scpls",
		"application/pls+xml":
		return true
	default:
		return false
	}
}

func isHLSContentType(contentType string) bool {
	switch strings.ToLower(strings.TrimSpace(contentType)) {
	case "application/vnd.apple.mpegurl",
		"application/x-mpegurl":
		return true
	default:
		return false
	}
}

func isAudioLikeContentType(contentType string) bool {
	contentType = strings.ToLower(strings.TrimSpace(contentType))
	return strings.HasPrefix(contentType, "audio/") ||
		contentType == "application/ogg" ||
		contentType == "application/aacp" ||
		contentType == "video/mp2t" ||
		contentType == "application/octet-stream"
}

func hasICYHeaders(headers http.Header) bool {
	for key := range headers {
		if strings.HasPrefix(strings.ToLower(strings.TrimSpace(key)), "icy-") {
			return true
		}
	}
	return false
}

func hasPlaylistBodyMarker(body string) bool {
	for _, line := range strings.Split(body, "\n") {
		trimmed := strings.TrimSpace(strings.TrimPrefix(line, "\uFEFF"))
		if trimmed == "" {
			continue
		}
		lower := strings.ToLower(trimmed)
		return strings.HasPrefix(lower, "#extm3u") || lower == "[playlist]"
	}
	return false
}

func hasHLSBodyMarker(body string) bool {
	for _, line := range strings.Split(body, "\n") {
		trimmed := strings.ToUpper(strings.TrimSpace(strings.TrimPrefix(line, "\uFEFF")))
		if trimmed == "" {
			continue
		}
		if strings.HasPrefix(trimmed, "#EXT-X-") {
			return true
		}
	}
	return false
}

func parseRemotePlaylistBody(body, baseURL string) []media.PlaylistEntry {
	body = strings.TrimSpace(strings.TrimPrefix(body, "\uFEFF"))
	if body == "" {
		return nil
	}
	if looksLikePLS(body) {
		return parseRemotePLS(body, baseURL)
	}
	return parseRemoteM3U(body, baseURL)
}

func looksLikePLS(body string) bool {
	for _, line := range strings.Split(body, "\n") {
		trimmed := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(line, "\uFEFF")))
		if trimmed == "" {
			continue
		}
		if trimmed == "[playlist]" {
			return true
		}
		break
	}
	return strings.Contains(strings.ToLower(body), "\nfile1=")
}

func parseRemoteM3U(body, baseURL string) []media.PlaylistEntry {
	scanner := bufio.NewScanner(strings.NewReader(body))
	entries := make([]media.PlaylistEntry, 0)
	pendingTitle := ""
	for scanner.Scan() {
		line := normalizeRemotePlaylistValue(scanner.Text())
		if line == "" {
			continue
		}
		lower := strings.ToLower(line)
		if strings.HasPrefix(lower, "#extinf:") {
			if comma := strings.Index(line, ","); comma >= 0 && comma+1 < len(line) {
				pendingTitle = strings.TrimSpace(line[comma+1:])
			}
			continue
		}
		if strings.HasPrefix(line, "#") {
			continue
		}
		resolvedURL, ok := resolveRemoteURL(line, baseURL)
		if !ok {
			pendingTitle = ""
			continue
		}
		title := pendingTitle
		if title == "" {
			title = resolvedURL
		}
		entries = append(entries, media.PlaylistEntry{Title: title, URL: resolvedURL})
		pendingTitle = ""
	}
	return entries
}

func parseRemotePLS(body, baseURL string) []media.PlaylistEntry {
	scanner := bufio.NewScanner(strings.NewReader(body))
	files := make(map[int]string)
	titles := make(map[int]string)
	for scanner.Scan() {
		line := strings.TrimSpace(strings.TrimPrefix(scanner.Text(), "\uFEFF"))
		if line == "" {
			continue
		}
		eq := strings.Index(line, "=")
		if eq <= 0 {
			continue
		}
		key := strings.ToLower(strings.TrimSpace(line[:eq]))
		val := normalizeRemotePlaylistValue(line[eq+1:])
		if val == "" {
			continue
		}
		if idx, ok := parsePLSIndex(key, "file"); ok {
			files[idx] = val
			continue
		}
		if idx, ok := parsePLSIndex(key, "title"); ok {
			titles[idx] = val
		}
	}

	if len(files) == 0 {
		return nil
	}

	indices := make([]int, 0, len(files))
	for idx := range files {
		indices = append(indices, idx)
	}
	sort.Ints(indices)

	entries := make([]media.PlaylistEntry, 0, len(indices))
	for _, idx := range indices {
		resolvedURL, ok := resolveRemoteURL(files[idx], baseURL)
		if !ok {
			continue
		}
		title := strings.TrimSpace(titles[idx])
		if title == "" {
			title = resolvedURL
		}
		entries = append(entries, media.PlaylistEntry{Title: title, URL: resolvedURL})
	}
	return entries
}

func parsePLSIndex(key, prefix string) (int, bool) {
	if !strings.HasPrefix(key, prefix) {
		return 0, false
	}
	rest := strings.TrimSpace(key[len(prefix):])
	if rest == "" {
		return 0, false
	}
	idx, err := strconv.Atoi(rest)
	if err != nil || idx <= 0 {
		return 0, false
	}
	return idx, true
}

func normalizeRemotePlaylistValue(raw string) string {
	s := strings.TrimSpace(strings.TrimPrefix(raw, "\uFEFF"))
	if len(s) >= 2 {
		first := s[0]
		last := s[len(s)-1]
		if (first == '"' || first == '\'') && first == last {
			s = strings.TrimSpace(s[1 : len(s)-1])
		}
	}
	s = strings.TrimSpace(s)
	if strings.HasSuffix(s, ";") {
		s = strings.TrimSpace(strings.TrimSuffix(s, ";"))
	}
	return s
}

func resolveRemoteURL(raw, baseURL string) (string, bool) {
	candidate := normalizeRemotePlaylistValue(raw)
	if candidate == "" {
		return "", false
	}
	parsed, err := url.Parse(candidate)
	if err != nil {
		return "", false
	}

	base, err := url.Parse(baseURL)
	if err != nil {
		return "", false
	}
	if !parsed.IsAbs() {
		parsed = base.ResolveReference(parsed)
	}

	scheme := strings.ToLower(strings.TrimSpace(parsed.Scheme))
	if scheme != "http" && scheme != "https" {
		return "", false
	}
	if parsed.Host == "" {
		return "", false
	}

	return parsed.String(), true
}
