package main

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/effects"
	"github.com/gopxl/beep/v2/flac"
	"github.com/gopxl/beep/v2/mp3"
	"github.com/gopxl/beep/v2/speaker"
	"github.com/gopxl/beep/v2/vorbis"
	"github.com/gopxl/beep/v2/wav"
)

// speakerRate is the fixed output rate. Every track is resampled to it, so
// the speaker is initialized once and never reconfigured.
const speakerRate = beep.SampleRate(44100)

// Readiness is the transport precondition checked before any play command.
type Readiness int

const (
	Ready Readiness = iota
	NeedsResume
	Failed
)

// mediaLoadedMsg carries the result of an asynchronous decode back into the
// event loop. TrackID lets the handler discard results that arrive after the
// user has already moved on.
type mediaLoadedMsg struct {
	TrackID string
	stream  beep.StreamSeekCloser
	format  beep.Format
	Err     error
}

// release frees the decoded stream of a stale or failed load.
func (m mediaLoadedMsg) release() {
	if m.stream != nil {
		m.stream.Close()
	}
}

// trackEndedMsg is posted when the installed stream drains naturally.
type trackEndedMsg struct {
	TrackID string
}

// Transport is the media layer the playback controller drives. Commands are
// fire-and-forget: errors are reported for logging, never for control flow
// beyond what the controller's state machine prescribes.
type Transport interface {
	BeginLoad(t *Track) tea.Cmd
	Install(msg mediaLoadedMsg) (time.Duration, error)
	Play() error
	Pause() error
	SeekTo(pos time.Duration) error
	SetVolume(v float64, muted bool)
	Position() time.Duration
	Readiness() Readiness
	Resume() error
	Suspend()
	Close()
}

var errNoMedia = errors.New("no media installed")

// beepTransport is the production transport: one speaker, one playback chain,
// one analysis tap, shared by all tracks. Switching tracks replaces the
// source of the chain but never the chain's fixtures.
type beepTransport struct {
	notify func(tea.Msg)

	inited    bool
	suspended bool

	ctrl    *beep.Ctrl
	vol     *effects.Volume
	seeker  beep.StreamSeeker
	closer  io.Closer
	trackSR beep.SampleRate
	tap     *Tap

	volume float64
	muted  bool
}

func newBeepTransport(tap *Tap) *beepTransport {
	return &beepTransport{
		tap:    tap,
		volume: 1,
		notify: func(tea.Msg) {},
	}
}

// SetNotify installs the sink for asynchronous transport events. Must be
// called before the first Install.
func (b *beepTransport) SetNotify(fn func(tea.Msg)) {
	b.notify = fn
}

// BeginLoad decodes the track's bytes off the event loop. The result message
// must be revalidated against the active track before Install.
func (b *beepTransport) BeginLoad(t *Track) tea.Cmd {
	path := t.Handle.Path()
	id := t.ID
	return func() tea.Msg {
		f, err := os.Open(path)
		if err != nil {
			return mediaLoadedMsg{TrackID: id, Err: err}
		}
		stream, format, err := decode(path, f)
		if err != nil {
			f.Close()
			return mediaLoadedMsg{TrackID: id, Err: err}
		}
		return mediaLoadedMsg{TrackID: id, stream: stream, format: format}
	}
}

// decode picks a decoder from the file extension. Containers without a
// decodable audio stream fall out here and surface as a load failure.
func decode(path string, f *os.File) (beep.StreamSeekCloser, beep.Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".flac":
		return flac.Decode(f)
	case ".mp3":
		return mp3.Decode(f)
	case ".wav":
		return wav.Decode(f)
	case ".ogg", ".oga":
		return vorbis.Decode(f)
	default:
		return nil, beep.Format{}, fmt.Errorf("no audio decoder for %s", filepath.Ext(path))
	}
}

// Install swaps the decoded stream into the playback chain and starts it.
// The previous stream is drained from the speaker and closed first.
func (b *beepTransport) Install(msg mediaLoadedMsg) (time.Duration, error) {
	if err := b.ensureSpeaker(); err != nil {
		msg.release()
		return 0, err
	}

	speaker.Clear()
	if b.closer != nil {
		b.closer.Close()
	}

	id := msg.TrackID
	done := beep.Callback(func() {
		// Posted from the speaker goroutine; hop off it so the update
		// loop can take the speaker lock without deadlocking.
		go b.notify(trackEndedMsg{TrackID: id})
	})

	b.seeker = msg.stream
	b.closer = msg.stream
	b.trackSR = msg.format.SampleRate
	b.ctrl = &beep.Ctrl{Streamer: beep.Seq(msg.stream, done)}

	var s beep.Streamer = b.ctrl
	if msg.format.SampleRate != speakerRate {
		s = beep.Resample(4, msg.format.SampleRate, speakerRate, s)
	}
	b.vol = &effects.Volume{Streamer: s, Base: 2}
	b.applyVolume()

	b.tap.SetSource(b.vol)
	speaker.Play(b.tap)

	return msg.format.SampleRate.D(msg.stream.Len()), nil
}

func (b *beepTransport) ensureSpeaker() error {
	if b.inited {
		return nil
	}
	if err := speaker.Init(speakerRate, speakerRate.N(time.Second/10)); err != nil {
		return err
	}
	b.inited = true
	return nil
}

func (b *beepTransport) Play() error {
	if b.ctrl == nil {
		return errNoMedia
	}
	speaker.Lock()
	b.ctrl.Paused = false
	speaker.Unlock()
	return nil
}

func (b *beepTransport) Pause() error {
	if b.ctrl == nil {
		return errNoMedia
	}
	speaker.Lock()
	b.ctrl.Paused = true
	speaker.Unlock()
	return nil
}

func (b *beepTransport) SeekTo(pos time.Duration) error {
	if b.seeker == nil {
		return errNoMedia
	}
	speaker.Lock()
	defer speaker.Unlock()
	n := b.trackSR.N(pos)
	if n < 0 {
		n = 0
	}
	if last := b.seeker.Len() - 1; n > last {
		n = last
	}
	return b.seeker.Seek(n)
}

func (b *beepTransport) SetVolume(v float64, muted bool) {
	b.volume = v
	b.muted = muted
	if b.vol == nil {
		return
	}
	speaker.Lock()
	b.applyVolume()
	speaker.Unlock()
}

// applyVolume maps the linear [0,1] volume onto the exponential scale the
// volume effect expects. Mute silences the output without touching the
// stored value.
func (b *beepTransport) applyVolume() {
	b.vol.Silent = b.muted || b.volume <= 0
	if b.volume > 0 {
		b.vol.Volume = math.Log2(b.volume)
	}
}

func (b *beepTransport) Position() time.Duration {
	if b.seeker == nil {
		return 0
	}
	speaker.Lock()
	defer speaker.Unlock()
	return b.trackSR.D(b.seeker.Position())
}

func (b *beepTransport) Readiness() Readiness {
	if b.suspended {
		return NeedsResume
	}
	return Ready
}

// Resume reactivates a suspended speaker. A failure leaves the transport
// suspended; the caller must abort whatever play command it was about to
// issue.
func (b *beepTransport) Resume() error {
	if !b.suspended {
		return nil
	}
	if err := speaker.Resume(); err != nil {
		return err
	}
	b.suspended = false
	return nil
}

// Suspend releases the audio device while the player is stopped.
func (b *beepTransport) Suspend() {
	if !b.inited || b.suspended {
		return
	}
	if err := speaker.Suspend(); err != nil {
		return
	}
	b.suspended = true
}

// Close tears down the current stream. The speaker and tap stay; they are
// session singletons.
func (b *beepTransport) Close() {
	if b.inited {
		speaker.Clear()
	}
	b.tap.SetSource(nil)
	if b.closer != nil {
		b.closer.Close()
		b.closer = nil
	}
	b.ctrl = nil
	b.vol = nil
	b.seeker = nil
}
