package main

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/godbus/dbus/v5"
)

const (
	mprisPath    = dbus.ObjectPath("/org/mpris/MediaPlayer2")
	mprisName    = "org.mpris.MediaPlayer2.vmp"
	mprisIface   = "org.mpris.MediaPlayer2"
	playerIface  = "org.mpris.MediaPlayer2.Player"
	propsChanged = "org.freedesktop.DBus.Properties.PropertiesChanged"
)

// mprisAction identifies a remote control command received over D-Bus.
type mprisAction int

const (
	mprisPlayPause mprisAction = iota
	mprisNext
	mprisPrevious
	mprisStop
)

// mprisActionMsg carries a D-Bus command into the event loop. The handlers
// never touch playback state themselves; all mutation stays on the loop.
type mprisActionMsg struct {
	Action mprisAction
}

// MPRISServer exposes the player on the session bus. It is optional: when the
// bus is unavailable the player runs without it.
type MPRISServer struct {
	conn *dbus.Conn
	send func(tea.Msg)

	// read-only snapshots, refreshed from the update loop
	status   string
	title    string
	metadata map[string]dbus.Variant
}

func NewMPRISServer(send func(tea.Msg)) (*MPRISServer, error) {
	conn, err := dbus.SessionBus()
	if err != nil {
		return nil, fmt.Errorf("session bus: %w", err)
	}
	return &MPRISServer{
		conn:     conn,
		send:     send,
		status:   "Stopped",
		metadata: map[string]dbus.Variant{},
	}, nil
}

// Start exports the MPRIS interfaces and claims the well-known name.
func (m *MPRISServer) Start() error {
	for _, iface := range []string{"org.freedesktop.DBus.Properties", mprisIface, playerIface} {
		if err := m.conn.Export(m, mprisPath, iface); err != nil {
			return fmt.Errorf("export %s: %w", iface, err)
		}
	}
	reply, err := m.conn.RequestName(mprisName, dbus.NameFlagDoNotQueue)
	if err != nil {
		return fmt.Errorf("request name: %w", err)
	}
	if reply != dbus.RequestNameReplyPrimaryOwner {
		return fmt.Errorf("name %s already taken", mprisName)
	}
	return nil
}

func (m *MPRISServer) StopService() {
	if m.conn != nil {
		m.conn.ReleaseName(mprisName)
		m.conn.Close()
	}
}

// UpdateState pushes the current playback snapshot out to bus listeners.
// Driven from the update loop; unchanged snapshots are not re-emitted.
func (m *MPRISServer) UpdateState(phase Phase, track *Track) {
	status := "Stopped"
	switch phase {
	case Playing:
		status = "Playing"
	case Paused:
		status = "Paused"
	}
	title := ""
	if track != nil {
		title = track.DisplayName
	}
	if status == m.status && title == m.title {
		return
	}
	m.status = status
	m.title = title
	m.metadata = map[string]dbus.Variant{
		"mpris:trackid": dbus.MakeVariant(dbus.ObjectPath("/org/mpris/MediaPlayer2/TrackList/NoTrack")),
	}
	if track != nil {
		m.metadata["xesam:title"] = dbus.MakeVariant(track.DisplayName)
		m.metadata["mpris:length"] = dbus.MakeVariant(track.Duration.Microseconds())
	}
	m.conn.Emit(mprisPath, propsChanged, playerIface, map[string]any{
		"PlaybackStatus": m.status,
		"Metadata":       m.metadata,
	}, []string{})
}

// --- org.mpris.MediaPlayer2 ---

func (m *MPRISServer) Raise() *dbus.Error { return nil }
func (m *MPRISServer) Quit() *dbus.Error  { return nil }

// --- org.mpris.MediaPlayer2.Player ---

func (m *MPRISServer) Next() *dbus.Error {
	m.send(mprisActionMsg{Action: mprisNext})
	return nil
}

func (m *MPRISServer) Previous() *dbus.Error {
	m.send(mprisActionMsg{Action: mprisPrevious})
	return nil
}

func (m *MPRISServer) PlayPause() *dbus.Error {
	m.send(mprisActionMsg{Action: mprisPlayPause})
	return nil
}

func (m *MPRISServer) Play() *dbus.Error {
	m.send(mprisActionMsg{Action: mprisPlayPause})
	return nil
}

func (m *MPRISServer) Pause() *dbus.Error {
	m.send(mprisActionMsg{Action: mprisPlayPause})
	return nil
}

func (m *MPRISServer) Stop() *dbus.Error {
	m.send(mprisActionMsg{Action: mprisStop})
	return nil
}

func (m *MPRISServer) OpenUri(uri string) *dbus.Error {
	return dbus.MakeFailedError(fmt.Errorf("OpenUri is not supported"))
}

// --- org.freedesktop.DBus.Properties ---

func (m *MPRISServer) Get(iface, prop string) (dbus.Variant, *dbus.Error) {
	props, derr := m.GetAll(iface)
	if derr != nil {
		return dbus.Variant{}, derr
	}
	if v, ok := props[prop]; ok {
		return v, nil
	}
	return dbus.Variant{}, dbus.MakeFailedError(fmt.Errorf("unknown property %s.%s", iface, prop))
}

func (m *MPRISServer) GetAll(iface string) (map[string]dbus.Variant, *dbus.Error) {
	switch iface {
	case mprisIface:
		return map[string]dbus.Variant{
			"CanQuit":             dbus.MakeVariant(false),
			"CanRaise":            dbus.MakeVariant(false),
			"HasTrackList":        dbus.MakeVariant(false),
			"Identity":            dbus.MakeVariant("vmp"),
			"DesktopEntry":        dbus.MakeVariant(""),
			"SupportedUriSchemes": dbus.MakeVariant([]string{"file"}),
			"SupportedMimeTypes":  dbus.MakeVariant([]string{"audio/flac", "audio/mpeg", "audio/wav", "audio/ogg"}),
		}, nil
	case playerIface:
		return map[string]dbus.Variant{
			"PlaybackStatus": dbus.MakeVariant(m.status),
			"LoopStatus":     dbus.MakeVariant("Playlist"),
			"Rate":           dbus.MakeVariant(1.0),
			"Shuffle":        dbus.MakeVariant(false),
			"Metadata":       dbus.MakeVariant(m.metadata),
			"Volume":         dbus.MakeVariant(1.0),
			"MinimumRate":    dbus.MakeVariant(1.0),
			"MaximumRate":    dbus.MakeVariant(1.0),
			"CanGoNext":      dbus.MakeVariant(true),
			"CanGoPrevious":  dbus.MakeVariant(true),
			"CanPlay":        dbus.MakeVariant(true),
			"CanPause":       dbus.MakeVariant(true),
			"CanSeek":        dbus.MakeVariant(false),
			"CanControl":     dbus.MakeVariant(true),
		}, nil
	}
	return nil, dbus.MakeFailedError(fmt.Errorf("unknown interface %s", iface))
}

func (m *MPRISServer) Set(iface, prop string, value dbus.Variant) *dbus.Error {
	return dbus.MakeFailedError(fmt.Errorf("property %s.%s is not writable", iface, prop))
}
