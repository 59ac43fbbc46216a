package main

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"
)

// Phase is the controller's derived state machine over the active index and
// the playing flag.
type Phase int

const (
	Stopped Phase = iota
	Paused
	Playing
)

// PlaybackState is the read-only transport snapshot exposed to the UI.
type PlaybackState struct {
	Playing  bool
	Position time.Duration
	Duration time.Duration
	Volume   float64 // 0..1
	Muted    bool
}

// VolumeOverlay is the transient volume indicator. It mirrors the latest
// volume change and hides itself one second after the last one.
type VolumeOverlay struct {
	Value   float64
	Visible bool
}

const (
	overlayHideAfter  = time.Second
	controlsHideAfter = 2 * time.Second
)

// overlayTimeoutMsg expires the volume overlay. Gen guards against stale
// timers: only the most recently armed instance may hide the overlay.
type overlayTimeoutMsg struct {
	Gen int
}

// Controller owns transport state and mediates every playback transition.
// It is the only writer of track-advance logic. All methods run on the
// update loop; commands they return re-enter it.
type Controller struct {
	reg       *Registry
	transport Transport
	log       zerolog.Logger

	state      PlaybackState
	loaded     bool
	overlay    VolumeOverlay
	overlayGen int
}

func NewController(reg *Registry, transport Transport, log zerolog.Logger) *Controller {
	return &Controller{
		reg:       reg,
		transport: transport,
		log:       log,
		state:     PlaybackState{Volume: 1},
	}
}

// State returns the current playback snapshot.
func (c *Controller) State() PlaybackState { return c.state }

// Overlay returns the volume overlay snapshot.
func (c *Controller) Overlay() VolumeOverlay { return c.overlay }

// Phase derives the coarse state machine position.
func (c *Controller) Phase() Phase {
	switch {
	case c.reg.ActiveIndex() < 0:
		return Stopped
	case c.state.Playing:
		return Playing
	default:
		return Paused
	}
}

// ensureReady checks the transport precondition before a play command,
// resuming a suspended device if needed. A resume failure aborts the caller
// and leaves all state unchanged.
func (c *Controller) ensureReady() bool {
	switch c.transport.Readiness() {
	case Ready:
		return true
	case NeedsResume:
		if err := c.transport.Resume(); err != nil {
			c.log.Error().Err(err).Msg("audio resume failed, play aborted")
			return false
		}
		return true
	default:
		c.log.Error().Msg("transport not ready")
		return false
	}
}

// TogglePlay flips between Playing and Paused; from Stopped it selects the
// first track and starts it.
func (c *Controller) TogglePlay() tea.Cmd {
	switch c.Phase() {
	case Stopped:
		if c.reg.Len() == 0 {
			return nil
		}
		if !c.ensureReady() {
			return nil
		}
		c.reg.SetActive(0)
		return c.startActive()
	case Paused:
		if !c.ensureReady() {
			return nil
		}
		// A track selected at ingestion has no installed stream yet; the
		// first play starts its load instead of unpausing nothing.
		if !c.loaded {
			return c.startActive()
		}
		c.state.Playing = true
		if err := c.transport.Play(); err != nil {
			c.log.Warn().Err(err).Msg("play command failed")
			c.state.Playing = false
		}
		return nil
	default: // Playing
		c.state.Playing = false
		if err := c.transport.Pause(); err != nil {
			c.log.Warn().Err(err).Msg("pause command failed")
		}
		return nil
	}
}

// SelectTrack makes the track at index i the one now playing. The previous
// source stops implicitly: only one playback chain exists.
func (c *Controller) SelectTrack(i int) tea.Cmd {
	if !c.ensureReady() {
		return nil
	}
	if !c.reg.SetActive(i) {
		return nil
	}
	return c.startActive()
}

// SelectNext switches playback to the circular successor of the active track.
func (c *Controller) SelectNext() tea.Cmd {
	if !c.ensureReady() {
		return nil
	}
	if !c.reg.Next() {
		return nil
	}
	return c.startActive()
}

// SelectPrevious switches playback to the circular predecessor.
func (c *Controller) SelectPrevious() tea.Cmd {
	if !c.ensureReady() {
		return nil
	}
	if !c.reg.Previous() {
		return nil
	}
	return c.startActive()
}

// startActive marks the active track as playing and kicks off its load.
func (c *Controller) startActive() tea.Cmd {
	active := c.reg.Active()
	if active == nil {
		return nil
	}
	c.state.Playing = true
	c.state.Position = 0
	c.state.Duration = 0
	c.loaded = false
	return c.transport.BeginLoad(active)
}

// HandleLoaded installs an asynchronously decoded stream. Results for a
// track that is no longer active are discarded: a newer user action has
// superseded the load.
func (c *Controller) HandleLoaded(msg mediaLoadedMsg) {
	active := c.reg.Active()
	if active == nil || active.ID != msg.TrackID {
		msg.release()
		return
	}
	if msg.Err != nil {
		c.log.Warn().Err(msg.Err).Str("track", active.DisplayName).Msg("media load failed")
		c.state.Playing = false
		return
	}
	dur, err := c.transport.Install(msg)
	if err != nil {
		c.log.Warn().Err(err).Str("track", active.DisplayName).Msg("media install failed")
		c.state.Playing = false
		return
	}
	c.state.Duration = dur
	c.state.Position = 0
	c.loaded = true
	active.Duration = dur
	// The user may have paused or muted while the decode was in flight;
	// the controller flag, not the transport, is the source of truth.
	c.transport.SetVolume(c.state.Volume, c.state.Muted)
	if !c.state.Playing {
		if err := c.transport.Pause(); err != nil {
			c.log.Warn().Err(err).Msg("pause after load failed")
		}
	}
}

// HandleTrackEnded advances to the next track, wrapping at the end of the
// playlist. Playback keeps going for as long as the playlist is non-empty.
func (c *Controller) HandleTrackEnded(trackID string) tea.Cmd {
	active := c.reg.Active()
	if active == nil || active.ID != trackID {
		return nil // stale notification from a replaced stream
	}
	if !c.reg.Next() {
		c.stopPlayback()
		return nil
	}
	return c.startActive()
}

// RemoveTrack removes a track. Removing the active one stops playback
// before the registry releases its handle.
func (c *Controller) RemoveTrack(id string) {
	if active := c.reg.Active(); active != nil && active.ID == id {
		c.stopPlayback()
	}
	c.reg.Remove(id)
}

// Stop halts playback and drops the selection entirely.
func (c *Controller) Stop() {
	c.stopPlayback()
	c.reg.ClearActive()
}

func (c *Controller) stopPlayback() {
	c.state.Playing = false
	c.state.Position = 0
	c.state.Duration = 0
	c.loaded = false
	c.transport.Close()
	c.transport.Suspend()
}

// SeekBy seeks relative to the current position.
func (c *Controller) SeekBy(delta time.Duration) {
	c.SeekTo(c.state.Position + delta)
}

// SeekTo seeks to an absolute position, clamped into [0, duration]. The
// playing flag is untouched.
func (c *Controller) SeekTo(pos time.Duration) {
	if c.reg.Active() == nil {
		return
	}
	if pos < 0 {
		pos = 0
	}
	if pos > c.state.Duration {
		pos = c.state.Duration
	}
	c.state.Position = pos
	if err := c.transport.SeekTo(pos); err != nil {
		c.log.Warn().Err(err).Msg("seek command failed")
	}
}

// SyncPosition refreshes the position from the transport. Driven by the
// periodic tick while playing.
func (c *Controller) SyncPosition() {
	if !c.state.Playing {
		return
	}
	pos := c.transport.Position()
	if c.state.Duration > 0 && pos > c.state.Duration {
		pos = c.state.Duration
	}
	c.state.Position = pos
}

// SetVolume sets the volume, clamped into [0,1], clears mute, and shows the
// volume overlay with its debounced hide timer.
func (c *Controller) SetVolume(v float64) tea.Cmd {
	if v < 0 {
		v = 0
	}
	if v > 1 {
		v = 1
	}
	c.state.Volume = v
	c.state.Muted = false
	c.transport.SetVolume(v, false)

	c.overlay = VolumeOverlay{Value: v, Visible: true}
	c.overlayGen++
	gen := c.overlayGen
	return tea.Tick(overlayHideAfter, func(time.Time) tea.Msg {
		return overlayTimeoutMsg{Gen: gen}
	})
}

// AdjustVolume nudges the volume by delta.
func (c *Controller) AdjustVolume(delta float64) tea.Cmd {
	return c.SetVolume(c.state.Volume + delta)
}

// HandleOverlayTimeout hides the overlay unless a newer change re-armed the
// timer in the meantime.
func (c *Controller) HandleOverlayTimeout(msg overlayTimeoutMsg) {
	if msg.Gen == c.overlayGen {
		c.overlay.Visible = false
	}
}

// ToggleMute flips the mute flag without altering the stored volume.
func (c *Controller) ToggleMute() {
	c.state.Muted = !c.state.Muted
	c.transport.SetVolume(c.state.Volume, c.state.Muted)
}

// Shutdown releases transport resources at session teardown.
func (c *Controller) Shutdown() {
	c.transport.Close()
}
