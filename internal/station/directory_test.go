package station

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDirectorySortsFavoritesFirst(t *testing.T) {
	builtin := []Station{
		{ID: "a", Name: "A", URL: "https://a"},
		{ID: "b", Name: "B", URL: "https://b"},
		{ID: "c", Name: "C", URL: "https://c"},
	}
	d := NewDirectory(builtin, nil, []string{"c"})

	all := d.All()
	if all[0].ID != "c" {
		t.Fatalf("expected favorite c first, got %s", all[0].ID)
	}
	if all[1].ID != "a" || all[2].ID != "b" {
		t.Fatalf("expected stable order a, b after favorites, got %s, %s", all[1].ID, all[2].ID)
	}
}

func TestDirectoryAddMintsID(t *testing.T) {
	d := NewDirectory(nil, nil, nil)
	s := d.Add(Station{URL: "https://example.com/live"})
	if s.ID == "" {
		t.Fatal("expected Add to mint an ID")
	}
	if s.Name != "https://example.com/live" {
		t.Fatalf("expected name to fall back to the URL, got %q", s.Name)
	}
	if !d.IsUser(s.ID) {
		t.Fatal("expected the added station to be a user station")
	}
}

func TestDirectoryRemoveOnlyUserStations(t *testing.T) {
	builtin := []Station{{ID: "builtin", Name: "B", URL: "https://b"}}
	d := NewDirectory(builtin, nil, nil)
	s := d.Add(Station{Name: "Mine", URL: "https://mine"})

	if d.Remove("builtin") {
		t.Fatal("expected built-in stations to be unremovable")
	}
	if !d.Remove(s.ID) {
		t.Fatal("expected user station removal to succeed")
	}
	if _, ok := d.Get(s.ID); ok {
		t.Fatal("expected removed station to be gone")
	}
}

func TestDirectoryToggleFavorite(t *testing.T) {
	d := NewDirectory([]Station{{ID: "x", Name: "X", URL: "https://x"}}, nil, nil)
	if !d.ToggleFavorite("x") {
		t.Fatal("expected first toggle to favorite")
	}
	if !d.IsFavorite("x") {
		t.Fatal("expected x to be a favorite")
	}
	if d.ToggleFavorite("x") {
		t.Fatal("expected second toggle to unfavorite")
	}
	if got := d.FavoriteIDs(); len(got) != 0 {
		t.Fatalf("expected no favorite IDs, got %v", got)
	}
}

func TestImportFileKeepsOnlyStreamEntries(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "stations.m3u")
	content := "#EXTM3U\n#EXTINF:-1,Jazz FM\nhttps://example.com/jazz\nlocal-song.mp3\nhttps://example.com/untitled\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write playlist: %v", err)
	}

	got, err := ImportFile(path)
	if err != nil {
		t.Fatalf("ImportFile() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 stations, got %d", len(got))
	}
	if got[0].Name != "Jazz FM" || got[0].URL != "https://example.com/jazz" {
		t.Fatalf("unexpected first station %+v", got[0])
	}
	if got[1].Name != "https://example.com/untitled" {
		t.Fatalf("expected URL fallback name, got %q", got[1].Name)
	}
}

func TestImportFileRejectsPathOnlyPlaylists(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "local.m3u")
	if err := os.WriteFile(path, []byte("one.mp3\ntwo.mp3\n"), 0o644); err != nil {
		t.Fatalf("write playlist: %v", err)
	}
	if _, err := ImportFile(path); err == nil {
		t.Fatal("expected an error for a playlist with no stream URLs")
	}
}
