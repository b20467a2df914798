package player

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func icyBlock(meta string) []byte {
	if rem := len(meta) % 16; rem != 0 {
		meta += strings.Repeat("\x00", 16-rem)
	}
	out := []byte{byte(len(meta) / 16)}
	return append(out, meta...)
}

func TestICYDemuxStripsMetadataBlocks(t *testing.T) {
	var stream bytes.Buffer
	stream.WriteString("aaaa")
	stream.Write(icyBlock("StreamTitle='One';"))
	stream.WriteString("bbbb")
	stream.Write(icyBlock("")) // zero-length block between audio chunks
	stream.WriteString("cccc")

	var titles []string
	d := newICYDemux(&stream, 4, func(title string) { titles = append(titles, title) })

	audio, err := io.ReadAll(d)
	if err != nil && err != io.EOF {
		t.Fatalf("ReadAll returned error: %v", err)
	}
	if got := string(audio); got != "aaaabbbbcccc" {
		t.Fatalf("expected pure audio bytes, got %q", got)
	}
	if len(titles) != 1 || titles[0] != "One" {
		t.Fatalf("expected one title %q, got %v", "One", titles)
	}
}

func TestICYDemuxSuppressesRepeatedTitles(t *testing.T) {
	var stream bytes.Buffer
	for range 3 {
		stream.WriteString("xxxx")
		stream.Write(icyBlock("StreamTitle='Same Song';"))
	}

	var count int
	d := newICYDemux(&stream, 4, func(string) { count++ })
	if _, err := io.Copy(io.Discard, d); err != nil && err != io.EOF {
		t.Fatalf("Copy returned error: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected a single publish for a repeated title, got %d", count)
	}
}

func TestICYDemuxHonorsShortReads(t *testing.T) {
	var stream bytes.Buffer
	stream.WriteString("abcd")
	stream.Write(icyBlock(""))
	stream.WriteString("efgh")

	d := newICYDemux(&stream, 4, nil)
	buf := make([]byte, 3)
	var got []byte
	for {
		n, err := d.Read(buf)
		got = append(got, buf[:n]...)
		if err != nil {
			break
		}
	}
	if string(got) != "abcdefgh" {
		t.Fatalf("expected audio reassembled across block boundary, got %q", string(got))
	}
}

func TestParseICYMetaInt(t *testing.T) {
	cases := []struct {
		raw     string
		want    int
		wantErr bool
	}{
		{" 16000 ", 16000, false},
		{"", 0, true},
		{"0", 0, true},
		{"nope", 0, true},
	}
	for _, tc := range cases {
		got, err := parseICYMetaInt(tc.raw)
		if tc.wantErr {
			if err == nil {
				t.Fatalf("parseICYMetaInt(%q): expected error", tc.raw)
			}
			continue
		}
		if err != nil {
			t.Fatalf("parseICYMetaInt(%q) returned error: %v", tc.raw, err)
		}
		if got != tc.want {
			t.Fatalf("parseICYMetaInt(%q): expected %d, got %d", tc.raw, tc.want, got)
		}
	}
}

func TestExtractICYStreamTitle(t *testing.T) {
	cases := []struct {
		name  string
		block string
		want  string
	}{
		{"plain", "StreamTitle='Artist - Song';StreamUrl='';", "Artist - Song"},
		{"padded", "StreamTitle='Artist - Song';\x00\x00\x00", "Artist - Song"},
		{"apostrophe in title", "StreamTitle='Don't Stop';StreamUrl='';", "Don't Stop"},
		{"no title field", "StreamUrl='https://example.com';", ""},
		{"empty value", "StreamTitle='';", ""},
	}
	for _, tc := range cases {
		if got := extractICYStreamTitle([]byte(tc.block)); got != tc.want {
			t.Fatalf("%s: expected %q, got %q", tc.name, tc.want, got)
		}
	}
}

func TestICYTitleWatcherEmitsChangedTitles(t *testing.T) {
	const metaInt = 4

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Icy-MetaData"); got != "1" {
			t.Errorf("expected Icy-MetaData header, got %q", got)
		}
		w.Header().Set("icy-metaint", fmt.Sprintf("%d", metaInt))
		flusher, _ := w.(http.Flusher)
		for _, meta := range []string{
			"StreamTitle='First Title';",
			"StreamTitle='First Title';",
			"StreamTitle='Second Title';",
		} {
			if _, err := w.Write([]byte("abcd")); err != nil {
				return
			}
			if _, err := w.Write(icyBlock(meta)); err != nil {
				return
			}
			if flusher != nil {
				flusher.Flush()
			}
		}
	}))
	defer srv.Close()

	watcher, err := newICYTitleWatcher(srv.URL)
	if err != nil {
		t.Fatalf("newICYTitleWatcher returned error: %v", err)
	}
	defer watcher.Close()

	if got := waitForICYTitle(t, watcher.Updates()); got != "First Title" {
		t.Fatalf("expected first title, got %q", got)
	}
	if got := waitForICYTitle(t, watcher.Updates()); got != "Second Title" {
		t.Fatalf("expected second title, got %q", got)
	}
}

func TestICYTitleWatcherCloseClosesUpdates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("icy-metaint", "4")
		flusher, _ := w.(http.Flusher)
		if _, err := w.Write([]byte("abcd")); err != nil {
			return
		}
		if _, err := w.Write([]byte{0}); err != nil {
			return
		}
		if flusher != nil {
			flusher.Flush()
		}
		<-r.Context().Done()
	}))
	defer srv.Close()

	watcher, err := newICYTitleWatcher(srv.URL)
	if err != nil {
		t.Fatalf("newICYTitleWatcher returned error: %v", err)
	}

	if err := watcher.Close(); err != nil {
		t.Fatalf("watcher.Close returned error: %v", err)
	}

	select {
	case _, ok := <-watcher.Updates():
		if ok {
			t.Fatal("expected updates channel to be closed")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for updates channel close")
	}
}

func TestICYTitleWatcherRejectsMissingMetaInt(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	if _, err := newICYTitleWatcher(srv.URL); err == nil {
		t.Fatal("expected error when the server sends no icy-metaint header")
	}
}

func waitForICYTitle(t *testing.T, updates <-chan string) string {
	t.Helper()
	select {
	case title, ok := <-updates:
		if !ok {
			t.Fatal("updates channel closed unexpectedly")
		}
		return title
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for title update")
		return ""
	}
}
