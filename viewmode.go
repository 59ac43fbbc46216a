package main

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"
)

// ViewMode is the display mode tag. Cinema and Fullscreen are only ever
// observed while the fullscreen surface is active; they are mutually
// exclusive tags, not independent flags.
type ViewMode int

const (
	ModeNormal ViewMode = iota
	ModeCinema
	ModeFullscreen
)

func (m ViewMode) String() string {
	switch m {
	case ModeCinema:
		return "cinema"
	case ModeFullscreen:
		return "fullscreen"
	default:
		return "normal"
	}
}

// fullscreenChangedMsg is the asynchronous notification from the fullscreen
// surface. It can arrive without any local request having been made.
type fullscreenChangedMsg struct {
	Active bool
}

// controlsTimeoutMsg hides the transport controls after pointer inactivity.
type controlsTimeoutMsg struct {
	Gen int
}

// FullscreenSurface is the window-system boundary. Request and Release may
// be denied; a denial leaves the view mode untouched. State changes come
// back asynchronously as fullscreenChangedMsg, including changes the
// surface performs on its own.
type FullscreenSurface interface {
	Request() (tea.Cmd, error)
	Release() (tea.Cmd, error)
}

// termSurface drives the terminal's alternate screen as the fullscreen
// surface. The terminal cannot refuse, so the change notification is posted
// right behind the screen switch.
type termSurface struct{}

func (termSurface) Request() (tea.Cmd, error) {
	return tea.Sequence(tea.EnterAltScreen, func() tea.Msg {
		return fullscreenChangedMsg{Active: true}
	}), nil
}

func (termSurface) Release() (tea.Cmd, error) {
	return tea.Sequence(tea.ExitAltScreen, func() tea.Msg {
		return fullscreenChangedMsg{Active: false}
	}), nil
}

// ViewModeMachine owns the display mode and the controls-visible flag.
type ViewModeMachine struct {
	surface FullscreenSurface
	log     zerolog.Logger

	mode            ViewMode
	surfaceActive   bool
	controlsVisible bool
	controlsGen     int
}

func NewViewModeMachine(surface FullscreenSurface, log zerolog.Logger) *ViewModeMachine {
	return &ViewModeMachine{
		surface:         surface,
		log:             log,
		controlsVisible: true,
	}
}

func (v *ViewModeMachine) Mode() ViewMode        { return v.mode }
func (v *ViewModeMachine) ControlsVisible() bool { return v.controlsVisible }
func (v *ViewModeMachine) SurfaceActive() bool   { return v.surfaceActive }

// ToggleFullscreen enters fullscreen from normal mode and leaves it again,
// releasing the surface exactly once.
func (v *ViewModeMachine) ToggleFullscreen() tea.Cmd {
	switch v.mode {
	case ModeNormal:
		cmd, err := v.surface.Request()
		if err != nil {
			v.log.Warn().Err(err).Msg("fullscreen request denied")
			return nil
		}
		v.mode = ModeFullscreen
		v.surfaceActive = true
		v.controlsVisible = false
		return cmd
	default: // Fullscreen or Cinema
		return v.exitToNormal()
	}
}

// ToggleCinema cycles cinema mode. From normal it requests the surface;
// from fullscreen it only swaps the tag; from cinema it returns to normal,
// releasing the surface exactly once.
func (v *ViewModeMachine) ToggleCinema() tea.Cmd {
	switch {
	case !v.surfaceActive:
		cmd, err := v.surface.Request()
		if err != nil {
			v.log.Warn().Err(err).Msg("fullscreen request denied")
			return nil
		}
		v.mode = ModeCinema
		v.surfaceActive = true
		v.controlsVisible = false
		return cmd
	case v.mode == ModeCinema:
		return v.exitToNormal()
	default: // surface active in Fullscreen: retag without a second request
		v.mode = ModeCinema
		return nil
	}
}

func (v *ViewModeMachine) exitToNormal() tea.Cmd {
	cmd, err := v.surface.Release()
	if err != nil {
		v.log.Warn().Err(err).Msg("fullscreen release denied")
		return nil
	}
	v.mode = ModeNormal
	v.surfaceActive = false
	v.controlsVisible = true
	return cmd
}

// HandleSurfaceChanged applies an asynchronous surface notification. Losing
// the surface forces normal mode no matter which tag was set; gaining it
// changes nothing, since the explicit call already picked the tag.
func (v *ViewModeMachine) HandleSurfaceChanged(msg fullscreenChangedMsg) {
	v.surfaceActive = msg.Active
	if !msg.Active && v.mode != ModeNormal {
		v.mode = ModeNormal
		v.controlsVisible = true
	}
}

// PointerMoved shows the controls and, outside normal mode, re-arms the
// single-slot inactivity timer. In normal mode controls are always visible
// and no timer is armed.
func (v *ViewModeMachine) PointerMoved() tea.Cmd {
	v.controlsVisible = true
	if v.mode == ModeNormal {
		return nil
	}
	v.controlsGen++
	gen := v.controlsGen
	return tea.Tick(controlsHideAfter, func(time.Time) tea.Msg {
		return controlsTimeoutMsg{Gen: gen}
	})
}

// HandleControlsTimeout hides the controls unless a newer pointer move
// re-armed the timer, or the mode dropped back to normal meanwhile.
func (v *ViewModeMachine) HandleControlsTimeout(msg controlsTimeoutMsg) {
	if msg.Gen == v.controlsGen && v.mode != ModeNormal {
		v.controlsVisible = false
	}
}
