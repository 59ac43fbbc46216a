package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Key is a custom type to handle single keys or a list of keys in the TOML file.
type Key []string

// UnmarshalTOML allows the Key type to be parsed from either a string or a list of strings.
func (k *Key) UnmarshalTOML(data any) error {
	switch v := data.(type) {
	case string:
		*k = []string{v}
		return nil
	case []any:
		keys := make([]string, 0, len(v))
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return fmt.Errorf("key list must contain only strings")
			}
			keys = append(keys, s)
		}
		*k = keys
		return nil
	}
	return fmt.Errorf("key must be a string or a list of strings")
}

// Config holds the application's configuration, loaded from a TOML file.
type Config struct {
	MediaDir    string  `toml:"media_dir"`
	VolumeStep  float64 `toml:"volume_step"`
	SeekSeconds int     `toml:"seek_seconds"`
	LogFile     string  `toml:"log_file"`
	Keymap      Keymap  `toml:"keymap"`
}

// Keymap defines all the keybindings for the player. Values are bubbletea
// key names ("space", "enter", "up", "ctrl+c", single characters, ...).
type Keymap struct {
	TogglePlay   Key `toml:"TogglePlay"`
	Cinema       Key `toml:"Cinema"`
	Fullscreen   Key `toml:"Fullscreen"`
	VolumeUp     Key `toml:"VolumeUp"`
	VolumeDown   Key `toml:"VolumeDown"`
	SeekForward  Key `toml:"SeekForward"`
	SeekBackward Key `toml:"SeekBackward"`
	NextTrack    Key `toml:"NextTrack"`
	PrevTrack    Key `toml:"PrevTrack"`
	ToggleMute   Key `toml:"ToggleMute"`
	CursorUp     Key `toml:"CursorUp"`
	CursorDown   Key `toml:"CursorDown"`
	PlaySelected Key `toml:"PlaySelected"`
	RemoveTrack  Key `toml:"RemoveTrack"`
	Help         Key `toml:"Help"`
	Quit         Key `toml:"Quit"`
}

// getDefaultConfig returns a Config struct with the default settings.
func getDefaultConfig() *Config {
	return &Config{
		MediaDir:    "~/Music",
		VolumeStep:  0.05,
		SeekSeconds: 5,
		LogFile:     "~/.config/vmp/vmp.log",
		Keymap: Keymap{
			TogglePlay:   Key{"space"},
			Cinema:       Key{"f"},
			Fullscreen:   Key{"enter"},
			VolumeUp:     Key{"up"},
			VolumeDown:   Key{"down"},
			SeekForward:  Key{"right"},
			SeekBackward: Key{"left"},
			NextTrack:    Key{"n"},
			PrevTrack:    Key{"p"},
			ToggleMute:   Key{"m"},
			CursorUp:     Key{"k"},
			CursorDown:   Key{"j"},
			PlaySelected: Key{"l"},
			RemoveTrack:  Key{"d"},
			Help:         Key{"?"},
			Quit:         Key{"q", "ctrl+c"},
		},
	}
}

// LoadConfig loads the configuration from ~/.config/vmp/config.toml.
// If the file doesn't exist, it creates it with default values.
func LoadConfig() (*Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("could not get user home directory: %v", err)
	}
	configDir := filepath.Join(home, ".config", "vmp")
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return nil, fmt.Errorf("could not create config directory: %v", err)
	}

	configFile := filepath.Join(configDir, "config.toml")
	defaults := getDefaultConfig()

	var config *Config
	if _, err := os.Stat(configFile); os.IsNotExist(err) {
		buf := new(bytes.Buffer)
		if err := toml.NewEncoder(buf).Encode(defaults); err != nil {
			return nil, fmt.Errorf("could not encode default config: %v", err)
		}
		if err := os.WriteFile(configFile, buf.Bytes(), 0644); err != nil {
			return nil, fmt.Errorf("could not write default config file: %v", err)
		}
		config = defaults
	} else {
		config = &Config{}
		if _, err := toml.DecodeFile(configFile, config); err != nil {
			return nil, fmt.Errorf("could not decode config file: %v", err)
		}
		applyConfigDefaults(config, defaults)
	}

	if err := validateKeymap(config.Keymap); err != nil {
		return nil, err
	}
	return config, nil
}

// applyConfigDefaults fills in any field the user's file left empty.
func applyConfigDefaults(config, defaults *Config) {
	if config.MediaDir == "" {
		config.MediaDir = defaults.MediaDir
	}
	if config.VolumeStep <= 0 || config.VolumeStep > 1 {
		config.VolumeStep = defaults.VolumeStep
	}
	if config.SeekSeconds <= 0 {
		config.SeekSeconds = defaults.SeekSeconds
	}
	if config.LogFile == "" {
		config.LogFile = defaults.LogFile
	}
	d := defaults.Keymap
	bindings := []struct {
		dst *Key
		def Key
	}{
		{&config.Keymap.TogglePlay, d.TogglePlay},
		{&config.Keymap.Cinema, d.Cinema},
		{&config.Keymap.Fullscreen, d.Fullscreen},
		{&config.Keymap.VolumeUp, d.VolumeUp},
		{&config.Keymap.VolumeDown, d.VolumeDown},
		{&config.Keymap.SeekForward, d.SeekForward},
		{&config.Keymap.SeekBackward, d.SeekBackward},
		{&config.Keymap.NextTrack, d.NextTrack},
		{&config.Keymap.PrevTrack, d.PrevTrack},
		{&config.Keymap.ToggleMute, d.ToggleMute},
		{&config.Keymap.CursorUp, d.CursorUp},
		{&config.Keymap.CursorDown, d.CursorDown},
		{&config.Keymap.PlaySelected, d.PlaySelected},
		{&config.Keymap.RemoveTrack, d.RemoveTrack},
		{&config.Keymap.Help, d.Help},
		{&config.Keymap.Quit, d.Quit},
	}
	for _, b := range bindings {
		if len(*b.dst) == 0 {
			*b.dst = b.def
		}
	}
}

// validateKeymap checks for duplicate or empty keybindings.
func validateKeymap(keymap Keymap) error {
	actions := []struct {
		name string
		keys Key
	}{
		{"TogglePlay", keymap.TogglePlay},
		{"Cinema", keymap.Cinema},
		{"Fullscreen", keymap.Fullscreen},
		{"VolumeUp", keymap.VolumeUp},
		{"VolumeDown", keymap.VolumeDown},
		{"SeekForward", keymap.SeekForward},
		{"SeekBackward", keymap.SeekBackward},
		{"NextTrack", keymap.NextTrack},
		{"PrevTrack", keymap.PrevTrack},
		{"ToggleMute", keymap.ToggleMute},
		{"CursorUp", keymap.CursorUp},
		{"CursorDown", keymap.CursorDown},
		{"PlaySelected", keymap.PlaySelected},
		{"RemoveTrack", keymap.RemoveTrack},
		{"Help", keymap.Help},
		{"Quit", keymap.Quit},
	}

	assigned := make(map[string]string)
	for _, action := range actions {
		for _, k := range action.keys {
			if k == "" {
				return fmt.Errorf("empty key in keymap action %s", action.name)
			}
			if existing, dup := assigned[k]; dup {
				return fmt.Errorf("key conflict: key %q is assigned to both %q and %q", k, existing, action.name)
			}
			assigned[k] = action.name
		}
	}
	return nil
}
