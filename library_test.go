package main

import (
	"os"
	"path/filepath"
	"testing"
)

func TestSourceForPath(t *testing.T) {
	src, ok := sourceForPath("/music/Artist - Song.FLAC")
	if !ok {
		t.Fatal("flac file not recognized")
	}
	if src.DeclaredName != "Artist - Song" {
		t.Errorf("name = %q", src.DeclaredName)
	}
	if src.DeclaredMIME != "audio/flac" {
		t.Errorf("mime = %q", src.DeclaredMIME)
	}

	if _, ok := sourceForPath("/music/cover.jpg"); ok {
		t.Error("jpg recognized as media")
	}
	if _, ok := sourceForPath("/music/README"); ok {
		t.Error("extensionless file recognized as media")
	}
}

func TestScanMediaDirRecursesAndSorts(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "album")
	if err := os.Mkdir(sub, 0755); err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{"b.mp3", "a.flac", "album/c.ogg", "skip.txt"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0644); err != nil {
			t.Fatal(err)
		}
	}

	sources := scanMediaDir(dir)
	if len(sources) != 3 {
		t.Fatalf("found %d sources, want 3: %v", len(sources), sources)
	}
	for i := 1; i < len(sources); i++ {
		if sources[i-1].Path > sources[i].Path {
			t.Errorf("sources out of order: %q after %q", sources[i].Path, sources[i-1].Path)
		}
	}
}

func TestScanMediaDirMissingDir(t *testing.T) {
	if got := scanMediaDir("/does/not/exist"); len(got) != 0 {
		t.Errorf("missing dir produced %d sources", len(got))
	}
}
