package main

import (
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func newTestApp(t *testing.T, trackNames ...string) (*App, *fakeTransport) {
	t.Helper()
	ctrl, reg, transport := newTestController(t, trackNames...)
	view, _ := newTestViewMode()
	app := NewApp(getDefaultConfig(), zerolog.Nop(), reg, ctrl,
		view, NewAnalyzer(), NewTap(), nil, newNotifier(zerolog.Nop()))
	return app, transport
}

func startPlayback(t *testing.T, a *App) {
	t.Helper()
	a.ctrl.TogglePlay()
	msg := mediaLoadedMsg{TrackID: a.reg.Active().ID}
	a.Update(msg)
}

func TestVizChainStartsWithAudioPlayback(t *testing.T) {
	app, _ := newTestApp(t, "a")
	if cmd := app.syncViz(); cmd != nil {
		t.Fatal("idle app started a frame chain")
	}

	startPlayback(t, app)
	if !app.vizRunning {
		t.Error("frame chain not running during audio playback")
	}
}

func TestVizChainStopsAndClearsFrameOnce(t *testing.T) {
	app, _ := newTestApp(t, "a")
	startPlayback(t, app)
	gen := app.vizGen
	app.Update(vizFrameMsg{Gen: gen})
	if app.vizFrame == nil {
		t.Fatal("frame chain produced no frame")
	}

	app.ctrl.TogglePlay() // pause
	app.syncViz()
	if app.vizRunning {
		t.Error("chain still running while paused")
	}
	if app.vizFrame != nil {
		t.Error("last frame not cleared on stop")
	}

	// A tick from the dead chain must neither render nor reschedule.
	app.Update(vizFrameMsg{Gen: gen})
	if app.vizFrame != nil {
		t.Error("stale frame tick rendered after stop")
	}
}

func TestStaleVizFrameIgnored(t *testing.T) {
	app, _ := newTestApp(t, "a")
	startPlayback(t, app)
	app.Update(vizFrameMsg{Gen: app.vizGen - 1})
	if app.vizFrame != nil {
		t.Error("frame from a superseded chain was rendered")
	}
}

func TestVizChainRestartGetsFreshGeneration(t *testing.T) {
	app, _ := newTestApp(t, "a")
	startPlayback(t, app)
	first := app.vizGen

	app.ctrl.TogglePlay() // pause
	app.syncViz()
	app.ctrl.TogglePlay() // play again
	app.syncViz()

	if app.vizGen <= first {
		t.Errorf("restarted chain generation = %d, want > %d", app.vizGen, first)
	}
	if !app.vizRunning {
		t.Error("chain not running after restart")
	}
}

func TestLibraryEventAddsAndRemovesTracks(t *testing.T) {
	app, _ := newTestApp(t, "a")
	src := audioSource(t, "new")
	app.applyLibraryEvent(libraryEventMsg{Added: []Source{src}})
	if app.reg.Len() != 2 {
		t.Fatalf("len = %d after add, want 2", app.reg.Len())
	}

	app.cursor = 1
	app.applyLibraryEvent(libraryEventMsg{Removed: []string{src.Path}})
	if app.reg.Len() != 1 {
		t.Errorf("len = %d after remove, want 1", app.reg.Len())
	}
	if app.cursor != 0 {
		t.Errorf("cursor = %d after shrink, want 0", app.cursor)
	}
}

func TestRemoveAtCursorClampsCursor(t *testing.T) {
	app, _ := newTestApp(t, "a", "b")
	app.cursor = 1
	app.removeAtCursor()
	if app.reg.Len() != 1 {
		t.Fatalf("len = %d, want 1", app.reg.Len())
	}
	if app.cursor != 0 {
		t.Errorf("cursor = %d, want 0", app.cursor)
	}
}

func TestFullscreenViewShowsTitleWithoutSpectrum(t *testing.T) {
	app, _ := newTestApp(t, "solaris")
	app.width, app.height = 80, 24
	app.view.ToggleFullscreen()
	if app.view.ControlsVisible() {
		t.Fatal("controls still visible after entering fullscreen")
	}
	if app.vizFrame != nil {
		t.Fatal("unexpected spectrum frame")
	}

	out := app.View()
	if out == "" {
		t.Fatal("fullscreen view is empty with chrome hidden and no spectrum")
	}
	if !strings.Contains(out, "solaris") {
		t.Error("fullscreen view does not show the active track title")
	}
}

func TestViewRendersInEveryMode(t *testing.T) {
	app, _ := newTestApp(t, "a", "b")
	app.width, app.height = 80, 24

	if out := app.View(); out == "" {
		t.Error("normal view is empty")
	}
	app.view.ToggleCinema()
	if out := app.View(); out == "" {
		t.Error("cinema view is empty")
	}
	app.view.ToggleCinema()
	app.view.ToggleFullscreen()
	if out := app.View(); out == "" {
		t.Error("fullscreen view is empty")
	}
}
