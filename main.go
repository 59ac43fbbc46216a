package main

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "vmp:", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := LoadConfig()
	if err != nil {
		return err
	}
	log := newLogger(cfg.LogFile)
	log.Info().Msg("starting")

	reg := NewRegistry()
	tap := NewTap()
	analyzer := NewAnalyzer()
	transport := newBeepTransport(tap)
	ctrl := NewController(reg, transport, log)
	view := NewViewModeMachine(termSurface{}, log)

	mediaDir := expandHome(cfg.MediaDir)
	reg.AddSources(scanMediaDir(mediaDir))
	log.Info().Int("tracks", reg.Len()).Str("dir", mediaDir).Msg("library scanned")

	watcher, err := newLibraryWatcher(mediaDir, log)
	if err != nil {
		log.Warn().Err(err).Msg("library watcher unavailable")
		watcher = nil
	}

	app := NewApp(cfg, log, reg, ctrl, view, analyzer, tap, watcher, newNotifier(log))

	// The alternate screen stays off at startup; entering it is what the
	// fullscreen and cinema modes do.
	p := tea.NewProgram(app, tea.WithMouseAllMotion())
	transport.SetNotify(p.Send)

	mpris, err := NewMPRISServer(p.Send)
	if err == nil {
		if err = mpris.Start(); err != nil {
			mpris.StopService()
		}
	}
	if err != nil {
		log.Warn().Err(err).Msg("mpris unavailable")
		mpris = nil
	}
	app.mpris = mpris

	_, runErr := p.Run()

	if mpris != nil {
		mpris.StopService()
	}
	if watcher != nil {
		watcher.Close()
	}
	ctrl.Shutdown()
	reg.ReleaseAll()
	log.Info().Msg("stopped")
	return runErr
}
