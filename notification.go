package main

import (
	"os/exec"
	"strings"

	"github.com/rs/zerolog"
)

// notifier sends desktop notifications through notify-send. Sends run in a
// goroutine so the update loop never blocks on the notification daemon.
type notifier struct {
	log     zerolog.Logger
	enabled bool
}

func newNotifier(log zerolog.Logger) *notifier {
	_, err := exec.LookPath("notify-send")
	return &notifier{log: log, enabled: err == nil}
}

// TrackChanged announces the track now playing.
func (n *notifier) TrackChanged(name string) {
	if !n.enabled {
		return
	}
	name = sanitizeNotification(name)
	if name == "" {
		name = "Unknown Track"
	}
	go func() {
		cmd := exec.Command("notify-send", "-a", "vmp", "Now Playing", name)
		if err := cmd.Run(); err != nil {
			n.log.Debug().Err(err).Msg("notification failed")
		}
	}()
}

// sanitizeNotification strips characters that confuse notification daemons.
func sanitizeNotification(s string) string {
	replacer := strings.NewReplacer(
		"&", "", ";", "", "|", "", "<", "", ">", "", "$", "", "\"", "",
	)
	return strings.TrimSpace(replacer.Replace(s))
}
