package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// tickMsg drives the periodic position refresh while the app runs.
type tickMsg time.Time

const tickEvery = 200 * time.Millisecond

func tickCmd() tea.Cmd {
	return tea.Tick(tickEvery, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// App is the top-level model. It owns no playback logic itself; every message
// is routed to the collaborator that does.
type App struct {
	cfg      *Config
	log      zerolog.Logger
	reg      *Registry
	ctrl     *Controller
	view     *ViewModeMachine
	analyzer *Analyzer
	tap      *Tap
	watcher  *fsnotify.Watcher
	notifier *notifier
	mpris    *MPRISServer

	keys keyMap
	help help.Model

	cursor int
	width  int
	height int

	// Spectrum frame chain. vizGen cancels superseded chains; vizFrame holds
	// the last rendered bins and is cleared exactly once on stop.
	vizGen     int
	vizRunning bool
	vizFrame   []byte

	quitting bool
}

func NewApp(cfg *Config, log zerolog.Logger, reg *Registry, ctrl *Controller,
	view *ViewModeMachine, analyzer *Analyzer, tap *Tap,
	watcher *fsnotify.Watcher, notifier *notifier) *App {
	return &App{
		cfg:      cfg,
		log:      log,
		reg:      reg,
		ctrl:     ctrl,
		view:     view,
		analyzer: analyzer,
		tap:      tap,
		watcher:  watcher,
		notifier: notifier,
		keys:     newKeyMap(cfg.Keymap),
		help:     help.New(),
	}
}

func (a *App) Init() tea.Cmd {
	cmds := []tea.Cmd{tickCmd()}
	if a.watcher != nil {
		cmds = append(cmds, waitForLibraryEvent(a.watcher, a.log))
	}
	return tea.Batch(cmds...)
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return a, a.handleKey(msg)

	case tea.MouseMsg:
		return a, a.handleMouse(msg)

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.help.Width = msg.Width
		return a, nil

	case tickMsg:
		a.ctrl.SyncPosition()
		if a.mpris != nil {
			a.mpris.UpdateState(a.ctrl.Phase(), a.reg.Active())
		}
		return a, tea.Batch(tickCmd(), a.syncViz())

	case vizFrameMsg:
		if !a.vizRunning || msg.Gen != a.vizGen {
			return a, nil // superseded chain
		}
		a.vizFrame = a.analyzer.Snapshot(a.ctrl.State().Playing)
		return a, vizFrameCmd(a.vizGen)

	case mediaLoadedMsg:
		a.ctrl.HandleLoaded(msg)
		if err := a.analyzer.Bind(a.tap); err != nil {
			a.log.Error().Err(err).Msg("analysis graph bind failed")
		}
		if msg.Err == nil {
			if active := a.reg.Active(); active != nil && active.ID == msg.TrackID {
				a.notifier.TrackChanged(active.DisplayName)
			}
		}
		return a, a.syncViz()

	case trackEndedMsg:
		cmd := a.ctrl.HandleTrackEnded(msg.TrackID)
		return a, tea.Batch(cmd, a.syncViz())

	case overlayTimeoutMsg:
		a.ctrl.HandleOverlayTimeout(msg)
		return a, nil

	case controlsTimeoutMsg:
		a.view.HandleControlsTimeout(msg)
		return a, nil

	case fullscreenChangedMsg:
		a.view.HandleSurfaceChanged(msg)
		return a, nil

	case libraryEventMsg:
		a.applyLibraryEvent(msg)
		return a, tea.Batch(waitForLibraryEvent(a.watcher, a.log), a.syncViz())

	case mprisActionMsg:
		return a, a.handleMPRIS(msg)
	}
	return a, nil
}

func (a *App) handleKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, a.keys.Quit):
		a.quitting = true
		return tea.Quit
	case key.Matches(msg, a.keys.TogglePlay):
		return tea.Batch(a.ctrl.TogglePlay(), a.syncViz())
	case key.Matches(msg, a.keys.Cinema):
		return a.view.ToggleCinema()
	case key.Matches(msg, a.keys.Fullscreen):
		return a.view.ToggleFullscreen()
	case key.Matches(msg, a.keys.VolumeUp):
		return a.ctrl.AdjustVolume(a.cfg.VolumeStep)
	case key.Matches(msg, a.keys.VolumeDown):
		return a.ctrl.AdjustVolume(-a.cfg.VolumeStep)
	case key.Matches(msg, a.keys.SeekForward):
		a.ctrl.SeekBy(time.Duration(a.cfg.SeekSeconds) * time.Second)
		return nil
	case key.Matches(msg, a.keys.SeekBackward):
		a.ctrl.SeekBy(-time.Duration(a.cfg.SeekSeconds) * time.Second)
		return nil
	case key.Matches(msg, a.keys.NextTrack):
		return tea.Batch(a.ctrl.SelectNext(), a.syncViz())
	case key.Matches(msg, a.keys.PrevTrack):
		return tea.Batch(a.ctrl.SelectPrevious(), a.syncViz())
	case key.Matches(msg, a.keys.ToggleMute):
		a.ctrl.ToggleMute()
		return nil
	case key.Matches(msg, a.keys.CursorUp):
		if a.cursor > 0 {
			a.cursor--
		}
		return nil
	case key.Matches(msg, a.keys.CursorDown):
		if a.cursor < a.reg.Len()-1 {
			a.cursor++
		}
		return nil
	case key.Matches(msg, a.keys.PlaySelected):
		return tea.Batch(a.ctrl.SelectTrack(a.cursor), a.syncViz())
	case key.Matches(msg, a.keys.RemoveTrack):
		a.removeAtCursor()
		return a.syncViz()
	case key.Matches(msg, a.keys.Help):
		a.help.ShowAll = !a.help.ShowAll
		return nil
	}
	return nil
}

func (a *App) handleMouse(msg tea.MouseMsg) tea.Cmd {
	switch msg.Button {
	case tea.MouseButtonWheelUp:
		return a.ctrl.AdjustVolume(a.cfg.VolumeStep)
	case tea.MouseButtonWheelDown:
		return a.ctrl.AdjustVolume(-a.cfg.VolumeStep)
	}
	if msg.Action == tea.MouseActionMotion {
		return a.view.PointerMoved()
	}
	return nil
}

func (a *App) handleMPRIS(msg mprisActionMsg) tea.Cmd {
	switch msg.Action {
	case mprisPlayPause:
		return tea.Batch(a.ctrl.TogglePlay(), a.syncViz())
	case mprisNext:
		return tea.Batch(a.ctrl.SelectNext(), a.syncViz())
	case mprisPrevious:
		return tea.Batch(a.ctrl.SelectPrevious(), a.syncViz())
	case mprisStop:
		a.ctrl.Stop()
		return a.syncViz()
	}
	return nil
}

func (a *App) removeAtCursor() {
	tracks := a.reg.Tracks()
	if a.cursor < 0 || a.cursor >= len(tracks) {
		return
	}
	a.ctrl.RemoveTrack(tracks[a.cursor].ID)
	if a.cursor >= a.reg.Len() && a.cursor > 0 {
		a.cursor--
	}
}

func (a *App) applyLibraryEvent(msg libraryEventMsg) {
	if len(msg.Added) > 0 {
		added := a.reg.AddSources(msg.Added)
		for _, t := range added {
			a.log.Info().Str("track", t.DisplayName).Msg("library added track")
		}
	}
	for _, path := range msg.Removed {
		if t := a.reg.FindByPath(path); t != nil {
			a.ctrl.RemoveTrack(t.ID)
			a.log.Info().Str("track", t.DisplayName).Msg("library removed track")
		}
	}
	if a.cursor >= a.reg.Len() && a.cursor > 0 {
		a.cursor = a.reg.Len() - 1
	}
}

// syncViz reconciles the frame chain with playback state: a chain runs while
// an audio track is playing and at no other time. Stopping clears the last
// frame once; a stopped chain is never rescheduled.
func (a *App) syncViz() tea.Cmd {
	active := a.reg.Active()
	want := a.ctrl.State().Playing && active != nil && active.Kind == KindAudio
	switch {
	case want && !a.vizRunning:
		a.vizRunning = true
		a.vizGen++
		return vizFrameCmd(a.vizGen)
	case !want && a.vizRunning:
		a.vizRunning = false
		a.vizGen++
		a.vizFrame = nil
	}
	return nil
}

func (a *App) View() string {
	if a.quitting {
		return ""
	}
	switch a.view.Mode() {
	case ModeCinema:
		return a.viewCinema()
	case ModeFullscreen:
		return a.viewFullscreen()
	default:
		return a.viewNormal()
	}
}

func (a *App) viewNormal() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("vmp"))
	b.WriteString("\n\n")
	b.WriteString(a.renderPlaylist())
	b.WriteString("\n")
	b.WriteString(a.renderStatus())
	b.WriteString("\n")
	if h := a.spectrumHeight(); h > 0 {
		b.WriteString(renderSpectrum(a.vizFrame, a.contentWidth(), h))
		b.WriteString("\n")
	}
	if overlay := a.renderOverlay(); overlay != "" {
		b.WriteString(overlay)
		b.WriteString("\n")
	}
	b.WriteString(a.help.View(a.keys))
	return b.String()
}

func (a *App) viewCinema() string {
	var b strings.Builder
	b.WriteString("\n")
	b.WriteString(lipgloss.PlaceHorizontal(a.contentWidth(), lipgloss.Center,
		cinemaTitleStyle.Render(a.activeTrackName())))
	b.WriteString("\n\n")
	h := a.height - 6
	if h < 1 {
		h = 1
	}
	b.WriteString(renderSpectrum(a.vizFrame, a.contentWidth(), h))
	b.WriteString("\n")
	if a.view.ControlsVisible() {
		b.WriteString(a.renderStatus())
		b.WriteString("\n")
		b.WriteString(helpTextStyle.Render(a.keys.Cinema.Help().Key + " exits cinema"))
	}
	if overlay := a.renderOverlay(); overlay != "" {
		b.WriteString("\n")
		b.WriteString(overlay)
	}
	return b.String()
}

func (a *App) viewFullscreen() string {
	var b strings.Builder
	if a.view.ControlsVisible() {
		b.WriteString(titleStyle.Render("vmp"))
		b.WriteString("\n\n")
		b.WriteString(a.renderPlaylist())
		b.WriteString("\n")
		b.WriteString(a.renderStatus())
		b.WriteString("\n")
		b.WriteString(helpTextStyle.Render(a.keys.Fullscreen.Help().Key + " exits fullscreen"))
		b.WriteString("\n")
	} else {
		// Chrome hidden and possibly no spectrum yet; keep the track
		// title on screen so the mode never renders blank.
		b.WriteString(lipgloss.PlaceHorizontal(a.contentWidth(), lipgloss.Center,
			titleStyle.Render(a.activeTrackName())))
		b.WriteString("\n")
	}
	h := a.height - lipgloss.Height(b.String()) - 2
	if h < 1 {
		h = 1
	}
	b.WriteString(renderSpectrum(a.vizFrame, a.contentWidth(), h))
	if overlay := a.renderOverlay(); overlay != "" {
		b.WriteString("\n")
		b.WriteString(overlay)
	}
	return b.String()
}

func (a *App) activeTrackName() string {
	if active := a.reg.Active(); active != nil {
		return active.DisplayName
	}
	return "no track"
}

func (a *App) renderPlaylist() string {
	tracks := a.reg.Tracks()
	if len(tracks) == 0 {
		return statusStyle.Render("library is empty")
	}
	var b strings.Builder
	for i, t := range tracks {
		line := t.DisplayName
		if t.Kind == KindVideo {
			line += " [video]"
		}
		style := trackStyle
		if i == a.reg.ActiveIndex() {
			style = activeTrackStyle
		}
		line = style.Render(line)
		if i == a.cursor {
			line = cursorStyle.Render("▸ ") + line
		} else {
			line = "  " + line
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	return b.String()
}

func (a *App) renderStatus() string {
	state := a.ctrl.State()
	var phase string
	switch a.ctrl.Phase() {
	case Playing:
		phase = "▶"
	case Paused:
		phase = "⏸"
	default:
		phase = "⏹"
	}
	vol := fmt.Sprintf("vol %3.0f%%", state.Volume*100)
	if state.Muted {
		vol = "muted"
	}
	return statusStyle.Render(fmt.Sprintf("%s  %s / %s  %s  [%s]",
		phase, formatDuration(state.Position), formatDuration(state.Duration),
		vol, a.view.Mode()))
}

func (a *App) renderOverlay() string {
	overlay := a.ctrl.Overlay()
	if !overlay.Visible {
		return ""
	}
	return overlayStyle.Render(fmt.Sprintf("volume %.0f%%", overlay.Value*100))
}

func (a *App) contentWidth() int {
	if a.width < 1 {
		return 80
	}
	return a.width
}

func (a *App) spectrumHeight() int {
	h := a.height - a.reg.Len() - 8
	if h > 8 {
		h = 8
	}
	if h < 0 {
		h = 0
	}
	return h
}

func formatDuration(d time.Duration) string {
	d = d.Round(time.Second)
	m := int(d.Minutes())
	s := int(d.Seconds()) % 60
	if m >= 60 {
		return fmt.Sprintf("%d:%02d:%02d", m/60, m%60, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}
