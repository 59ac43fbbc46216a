package main

import (
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"
)

// fakeSurface counts requests and releases and can deny either.
type fakeSurface struct {
	requests   int
	releases   int
	requestErr error
	releaseErr error
}

func (f *fakeSurface) Request() (tea.Cmd, error) {
	if f.requestErr != nil {
		return nil, f.requestErr
	}
	f.requests++
	return func() tea.Msg { return fullscreenChangedMsg{Active: true} }, nil
}

func (f *fakeSurface) Release() (tea.Cmd, error) {
	if f.releaseErr != nil {
		return nil, f.releaseErr
	}
	f.releases++
	return func() tea.Msg { return fullscreenChangedMsg{Active: false} }, nil
}

func newTestViewMode() (*ViewModeMachine, *fakeSurface) {
	surface := &fakeSurface{}
	return NewViewModeMachine(surface, zerolog.Nop()), surface
}

func TestCinemaToggleRequestsAndReleasesOnce(t *testing.T) {
	vm, surface := newTestViewMode()

	if cmd := vm.ToggleCinema(); cmd == nil {
		t.Fatal("entering cinema produced no surface command")
	}
	if vm.Mode() != ModeCinema || surface.requests != 1 {
		t.Fatalf("mode = %v, requests = %d; want cinema with one request", vm.Mode(), surface.requests)
	}

	if cmd := vm.ToggleCinema(); cmd == nil {
		t.Fatal("leaving cinema produced no surface command")
	}
	if vm.Mode() != ModeNormal || surface.releases != 1 {
		t.Errorf("mode = %v, releases = %d; want normal with one release", vm.Mode(), surface.releases)
	}
}

func TestFullscreenToCinemaRetagsWithoutSecondRequest(t *testing.T) {
	vm, surface := newTestViewMode()
	vm.ToggleFullscreen()
	if surface.requests != 1 {
		t.Fatalf("requests = %d, want 1", surface.requests)
	}

	vm.ToggleCinema()
	if vm.Mode() != ModeCinema {
		t.Errorf("mode = %v, want cinema", vm.Mode())
	}
	if surface.requests != 1 {
		t.Errorf("requests = %d after retag, want still 1", surface.requests)
	}

	// Leaving cinema afterwards releases the one surface we hold.
	vm.ToggleCinema()
	if surface.releases != 1 {
		t.Errorf("releases = %d, want 1", surface.releases)
	}
}

func TestDeniedRequestLeavesModeUnchanged(t *testing.T) {
	vm, surface := newTestViewMode()
	surface.requestErr = errors.New("denied")

	if cmd := vm.ToggleFullscreen(); cmd != nil {
		t.Error("denied request still produced a command")
	}
	if vm.Mode() != ModeNormal || vm.SurfaceActive() {
		t.Errorf("mode = %v, surfaceActive = %v; want unchanged normal", vm.Mode(), vm.SurfaceActive())
	}
}

func TestDeniedReleaseKeepsCurrentMode(t *testing.T) {
	vm, surface := newTestViewMode()
	vm.ToggleFullscreen()
	surface.releaseErr = errors.New("denied")

	vm.ToggleFullscreen()
	if vm.Mode() != ModeFullscreen {
		t.Errorf("mode = %v after denied release, want still fullscreen", vm.Mode())
	}
}

func TestSurfaceLossForcesNormalMode(t *testing.T) {
	vm, _ := newTestViewMode()
	vm.ToggleCinema()
	vm.HandleSurfaceChanged(fullscreenChangedMsg{Active: true})

	// The surface disappears out from under us.
	vm.HandleSurfaceChanged(fullscreenChangedMsg{Active: false})
	if vm.Mode() != ModeNormal {
		t.Errorf("mode = %v after surface loss, want normal", vm.Mode())
	}
	if !vm.ControlsVisible() {
		t.Error("controls hidden in normal mode")
	}
}

func TestPointerMoveArmsTimerOutsideNormalOnly(t *testing.T) {
	vm, _ := newTestViewMode()

	if cmd := vm.PointerMoved(); cmd != nil {
		t.Error("pointer move in normal mode armed a timer")
	}

	vm.ToggleFullscreen()
	if cmd := vm.PointerMoved(); cmd == nil {
		t.Error("pointer move in fullscreen armed no timer")
	}
	if !vm.ControlsVisible() {
		t.Error("pointer move did not show controls")
	}
}

func TestControlsTimeoutDebounces(t *testing.T) {
	vm, _ := newTestViewMode()
	vm.ToggleFullscreen()
	vm.PointerMoved() // gen 1
	vm.PointerMoved() // gen 2

	vm.HandleControlsTimeout(controlsTimeoutMsg{Gen: 1})
	if !vm.ControlsVisible() {
		t.Fatal("stale timer hid the controls")
	}
	vm.HandleControlsTimeout(controlsTimeoutMsg{Gen: 2})
	if vm.ControlsVisible() {
		t.Error("current timer did not hide the controls")
	}
}

func TestControlsTimeoutIgnoredInNormalMode(t *testing.T) {
	vm, _ := newTestViewMode()
	vm.ToggleFullscreen()
	vm.PointerMoved()
	vm.ToggleFullscreen() // back to normal before the timer fires

	vm.HandleControlsTimeout(controlsTimeoutMsg{Gen: 1})
	if !vm.ControlsVisible() {
		t.Error("timer hid controls in normal mode")
	}
}
