package main

import (
	"os"
	"strings"
	"time"

	"github.com/dhowden/tag"
	"github.com/google/uuid"
)

// MediaKind classifies a track by its declared media type.
type MediaKind int

const (
	KindAudio MediaKind = iota
	KindVideo
)

// Source is an ingestion tuple handed to the registry by the library
// collaborator: a declared name, a declared media type, and the path the
// resource handle will be allocated over.
type Source struct {
	DeclaredName string
	DeclaredMIME string
	Path         string
}

// Handle is a release-once reference to a track's bytes. It pins the source
// file open for the lifetime of the track; playback opens its own descriptor,
// so releasing a handle never pulls bytes out from under the active stream.
type Handle struct {
	path     string
	file     *os.File
	released bool
}

func newHandle(path string) (*Handle, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	return &Handle{path: path, file: f}, nil
}

// Path returns the filesystem path the handle refers to.
func (h *Handle) Path() string { return h.path }

// Released reports whether Release has been called.
func (h *Handle) Released() bool { return h.released }

// Release frees the handle. Calling it more than once is a no-op.
func (h *Handle) Release() {
	if h.released {
		return
	}
	h.released = true
	if h.file != nil {
		h.file.Close()
		h.file = nil
	}
}

// Track is one playable item in the session playlist.
type Track struct {
	ID          string
	DisplayName string
	Handle      *Handle
	Kind        MediaKind
	Duration    time.Duration // zero until the transport has decoded the stream
}

// Registry holds the ordered playlist and the active track index.
// It is mutated only from the update loop; no locking.
type Registry struct {
	tracks []*Track
	active int
}

func NewRegistry() *Registry {
	return &Registry{active: -1}
}

func (r *Registry) Len() int         { return len(r.tracks) }
func (r *Registry) ActiveIndex() int { return r.active }

// Active returns the active track, or nil when none is selected.
func (r *Registry) Active() *Track {
	if r.active < 0 || r.active >= len(r.tracks) {
		return nil
	}
	return r.tracks[r.active]
}

// Tracks returns the playlist in insertion order. The slice is shared;
// callers must not mutate it.
func (r *Registry) Tracks() []*Track { return r.tracks }

// AddSources validates and appends the given sources. Anything whose declared
// media type is not audio/* or video/* is silently dropped, as are sources
// whose handle cannot be allocated. If the playlist was empty beforehand the
// first accepted track becomes active, but playback is not started.
func (r *Registry) AddSources(sources []Source) []*Track {
	wasEmpty := len(r.tracks) == 0
	var added []*Track
	for _, src := range sources {
		kind, ok := kindForMIME(src.DeclaredMIME)
		if !ok {
			continue
		}
		h, err := newHandle(src.Path)
		if err != nil {
			continue
		}
		t := &Track{
			ID:          uuid.NewString(),
			DisplayName: displayName(src, kind),
			Handle:      h,
			Kind:        kind,
		}
		r.tracks = append(r.tracks, t)
		added = append(added, t)
	}
	if wasEmpty && len(r.tracks) > 0 {
		r.active = 0
	}
	return added
}

// Remove drops the track with the given id and releases its handle.
// Unknown ids are a no-op. Removing the active track leaves no selection;
// removing an earlier track shifts the active index to follow its track.
// The second return value reports whether the removed track was active.
func (r *Registry) Remove(id string) (*Track, bool) {
	for i, t := range r.tracks {
		if t.ID != id {
			continue
		}
		r.tracks = append(r.tracks[:i], r.tracks[i+1:]...)
		wasActive := i == r.active
		switch {
		case wasActive:
			r.active = -1
		case i < r.active:
			r.active--
		}
		t.Handle.Release()
		return t, wasActive
	}
	return nil, false
}

// FindByPath returns the first track whose handle refers to path.
func (r *Registry) FindByPath(path string) *Track {
	for _, t := range r.tracks {
		if t.Handle.Path() == path {
			return t
		}
	}
	return nil
}

// ClearActive drops the selection without touching the playlist.
func (r *Registry) ClearActive() { r.active = -1 }

// SetActive selects the track at index i. Out-of-range indices are rejected.
func (r *Registry) SetActive(i int) bool {
	if i < 0 || i >= len(r.tracks) {
		return false
	}
	r.active = i
	return true
}

// Next advances the active index circularly. No-op on an empty playlist or
// when nothing is selected.
func (r *Registry) Next() bool {
	if len(r.tracks) == 0 || r.active < 0 {
		return false
	}
	r.active = (r.active + 1) % len(r.tracks)
	return true
}

// Previous retreats the active index circularly.
func (r *Registry) Previous() bool {
	if len(r.tracks) == 0 || r.active < 0 {
		return false
	}
	r.active = (r.active - 1 + len(r.tracks)) % len(r.tracks)
	return true
}

// ReleaseAll releases every handle. Called once at session teardown.
func (r *Registry) ReleaseAll() {
	for _, t := range r.tracks {
		t.Handle.Release()
	}
}

// kindForMIME maps a declared media type onto a MediaKind. Anything that is
// not audio/* or video/* is rejected.
func kindForMIME(mime string) (MediaKind, bool) {
	switch {
	case strings.HasPrefix(mime, "audio/"):
		return KindAudio, true
	case strings.HasPrefix(mime, "video/"):
		return KindVideo, true
	default:
		return 0, false
	}
}

// displayName prefers embedded tags for audio files and falls back to the
// declared name.
func displayName(src Source, kind MediaKind) string {
	if kind != KindAudio {
		return src.DeclaredName
	}
	f, err := os.Open(src.Path)
	if err != nil {
		return src.DeclaredName
	}
	defer f.Close()
	m, err := tag.ReadFrom(f)
	if err != nil || m.Title() == "" {
		return src.DeclaredName
	}
	if m.Artist() != "" {
		return m.Artist() + " - " + m.Title()
	}
	return m.Title()
}
