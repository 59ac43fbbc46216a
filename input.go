package main

import (
	"github.com/charmbracelet/bubbles/key"
)

// keyMap maps the configured keybindings onto bubbles key.Bindings so the
// help bubble can render them.
type keyMap struct {
	TogglePlay   key.Binding
	Cinema       key.Binding
	Fullscreen   key.Binding
	VolumeUp     key.Binding
	VolumeDown   key.Binding
	SeekForward  key.Binding
	SeekBackward key.Binding
	NextTrack    key.Binding
	PrevTrack    key.Binding
	ToggleMute   key.Binding
	CursorUp     key.Binding
	CursorDown   key.Binding
	PlaySelected key.Binding
	RemoveTrack  key.Binding
	Help         key.Binding
	Quit         key.Binding
}

func newKeyMap(cfg Keymap) keyMap {
	bind := func(keys Key, help string) key.Binding {
		label := ""
		if len(keys) > 0 {
			label = keys[0]
		}
		switch label {
		case " ", "space":
			label = "space"
		case "up":
			label = "↑"
		case "down":
			label = "↓"
		case "left":
			label = "←"
		case "right":
			label = "→"
		}
		return key.NewBinding(key.WithKeys(keys...), key.WithHelp(label, help))
	}
	return keyMap{
		TogglePlay:   bind(cfg.TogglePlay, "play/pause"),
		Cinema:       bind(cfg.Cinema, "cinema"),
		Fullscreen:   bind(cfg.Fullscreen, "fullscreen"),
		VolumeUp:     bind(cfg.VolumeUp, "volume up"),
		VolumeDown:   bind(cfg.VolumeDown, "volume down"),
		SeekForward:  bind(cfg.SeekForward, "seek +"),
		SeekBackward: bind(cfg.SeekBackward, "seek -"),
		NextTrack:    bind(cfg.NextTrack, "next"),
		PrevTrack:    bind(cfg.PrevTrack, "previous"),
		ToggleMute:   bind(cfg.ToggleMute, "mute"),
		CursorUp:     bind(cfg.CursorUp, "cursor up"),
		CursorDown:   bind(cfg.CursorDown, "cursor down"),
		PlaySelected: bind(cfg.PlaySelected, "play selected"),
		RemoveTrack:  bind(cfg.RemoveTrack, "remove"),
		Help:         bind(cfg.Help, "help"),
		Quit:         bind(cfg.Quit, "quit"),
	}
}

// ShortHelp implements help.KeyMap.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.TogglePlay, k.Cinema, k.Fullscreen, k.Help, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.TogglePlay, k.SeekBackward, k.SeekForward, k.NextTrack, k.PrevTrack},
		{k.VolumeUp, k.VolumeDown, k.ToggleMute, k.Cinema, k.Fullscreen},
		{k.CursorUp, k.CursorDown, k.PlaySelected, k.RemoveTrack, k.Quit},
	}
}
