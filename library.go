package main

import (
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// mimeByExt declares media types for the file extensions the library hands
// to the registry. The registry validates the declared type, not the bytes;
// anything missing here never reaches it.
var mimeByExt = map[string]string{
	".flac": "audio/flac",
	".mp3":  "audio/mpeg",
	".wav":  "audio/wav",
	".ogg":  "audio/ogg",
	".oga":  "audio/ogg",
	".m4a":  "audio/mp4",
	".mp4":  "video/mp4",
	".mkv":  "video/x-matroska",
	".webm": "video/webm",
	".avi":  "video/x-msvideo",
	".mov":  "video/quicktime",
}

// libraryEventMsg reports filesystem changes under the media directory.
type libraryEventMsg struct {
	Added   []Source
	Removed []string // paths
}

// sourceForPath builds the ingestion tuple for a media file, or reports that
// the extension is not one the library declares a type for.
func sourceForPath(path string) (Source, bool) {
	mime, ok := mimeByExt[strings.ToLower(filepath.Ext(path))]
	if !ok {
		return Source{}, false
	}
	return Source{
		DeclaredName: strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)),
		DeclaredMIME: mime,
		Path:         path,
	}, true
}

// scanMediaDir walks the media directory once at startup and returns every
// recognized file in name order.
func scanMediaDir(dir string) []Source {
	var sources []Source
	filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		if src, ok := sourceForPath(path); ok {
			sources = append(sources, src)
		}
		return nil
	})
	sort.Slice(sources, func(i, j int) bool {
		return sources[i].Path < sources[j].Path
	})
	return sources
}

// newLibraryWatcher watches the media directory tree for created and
// removed files.
func newLibraryWatcher(dir string, log zerolog.Logger) (*fsnotify.Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || !d.IsDir() {
			return nil
		}
		if err := w.Add(path); err != nil {
			log.Warn().Err(err).Str("dir", path).Msg("library watch failed")
		}
		return nil
	})
	return w, nil
}

// waitForLibraryEvent blocks on the watcher and turns the next relevant
// filesystem event into a message. The app re-arms it after each delivery.
func waitForLibraryEvent(w *fsnotify.Watcher, log zerolog.Logger) tea.Cmd {
	return func() tea.Msg {
		for {
			select {
			case ev, ok := <-w.Events:
				if !ok {
					return nil
				}
				switch {
				case ev.Op.Has(fsnotify.Create):
					if src, match := sourceForPath(ev.Name); match {
						return libraryEventMsg{Added: []Source{src}}
					}
					// A new subdirectory joins the watch set.
					w.Add(ev.Name)
				case ev.Op.Has(fsnotify.Remove), ev.Op.Has(fsnotify.Rename):
					if _, match := sourceForPath(ev.Name); match {
						return libraryEventMsg{Removed: []string{ev.Name}}
					}
				}
			case err, ok := <-w.Errors:
				if !ok {
					return nil
				}
				log.Warn().Err(err).Msg("library watcher error")
			}
		}
	}
}
