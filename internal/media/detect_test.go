package media

import (
	"strings"
	"testing"
)

func TestIsSupportedExtIncludesAACFamily(t *testing.T) {
	for _, ext := range []string{".aac", ".m4a", ".m4b"} {
		if !IsSupportedExt(ext) {
			t.Fatalf("expected %s to be supported", ext)
		}
	}
}

func TestSupportedExtsListIncludesAACFamily(t *testing.T) {
	list := SupportedExtsList()
	for _, ext := range []string{".aac", ".m4a", ".m4b"} {
		if !strings.Contains(list, ext) {
			t.Fatalf("expected supported ext list to include %s, got %q", ext, list)
		}
	}
}

func TestExtForStreamFormat(t *testing.T) {
	cases := map[string]string{
		"mp3":     ".mp3",
		"MP3":     ".mp3",
		"ogg":     ".ogg",
		"vorbis":  ".ogg",
		"aac":     ".aac",
		"aacp":    ".aac",
		"unknown": ".mp3",
	}
	for format, want := range cases {
		if got := ExtForStreamFormat(format); got != want {
			t.Fatalf("ExtForStreamFormat(%q) = %q, want %q", format, got, want)
		}
	}
}
