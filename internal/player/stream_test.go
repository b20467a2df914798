package player

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestICYStreamPublishReplacesPendingTitle(t *testing.T) {
	s := &icyStream{updates: make(chan string, 1)}

	s.publishTitle("First")
	s.publishTitle("Second")

	select {
	case got := <-s.updates:
		if got != "Second" {
			t.Fatalf("expected newest title, got %q", got)
		}
	default:
		t.Fatal("expected a pending title")
	}
}

func TestICYStreamPublishAfterCloseIsNoop(t *testing.T) {
	s := &icyStream{
		body:    io.NopCloser(bytes.NewReader(nil)),
		tee:     newCaptureTee(bytes.NewReader(nil)),
		updates: make(chan string, 1),
	}

	if err := s.Close(); err != nil {
		t.Fatalf("Close returned error: %v", err)
	}
	s.publishTitle("late")

	if _, ok := <-s.updates; ok {
		t.Fatal("expected closed updates channel")
	}
}

func TestNewICYStreamRejectsErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down for maintenance", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	if _, err := newICYStream(srv.URL, "mp3"); err == nil {
		t.Fatal("expected error status to fail stream open")
	}
}
