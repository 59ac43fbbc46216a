package main

import (
	"strings"
	"testing"

	"github.com/BurntSushi/toml"
)

func TestKeyUnmarshalsStringAndList(t *testing.T) {
	var cfg struct {
		Single Key `toml:"single"`
		Multi  Key `toml:"multi"`
	}
	_, err := toml.Decode(`
single = "space"
multi = ["q", "ctrl+c"]
`, &cfg)
	if err != nil {
		t.Fatal(err)
	}
	if len(cfg.Single) != 1 || cfg.Single[0] != "space" {
		t.Errorf("single = %v", cfg.Single)
	}
	if len(cfg.Multi) != 2 || cfg.Multi[1] != "ctrl+c" {
		t.Errorf("multi = %v", cfg.Multi)
	}
}

func TestKeyRejectsNonStringList(t *testing.T) {
	var cfg struct {
		Bad Key `toml:"bad"`
	}
	if _, err := toml.Decode(`bad = [1, 2]`, &cfg); err == nil {
		t.Error("numeric key list decoded without error")
	}
}

func TestValidateKeymapAcceptsDefaults(t *testing.T) {
	if err := validateKeymap(getDefaultConfig().Keymap); err != nil {
		t.Errorf("default keymap invalid: %v", err)
	}
}

func TestValidateKeymapDetectsConflicts(t *testing.T) {
	keymap := getDefaultConfig().Keymap
	keymap.NextTrack = Key{"space"} // collides with TogglePlay
	err := validateKeymap(keymap)
	if err == nil {
		t.Fatal("conflicting keymap passed validation")
	}
	if !strings.Contains(err.Error(), "space") {
		t.Errorf("error %q does not name the conflicting key", err)
	}
}

func TestValidateKeymapDetectsEmptyKey(t *testing.T) {
	keymap := getDefaultConfig().Keymap
	keymap.Quit = Key{""}
	if err := validateKeymap(keymap); err == nil {
		t.Error("empty key passed validation")
	}
}

func TestApplyConfigDefaultsFillsGaps(t *testing.T) {
	defaults := getDefaultConfig()
	cfg := &Config{VolumeStep: 2.5} // out of range, must fall back
	applyConfigDefaults(cfg, defaults)

	if cfg.MediaDir != defaults.MediaDir {
		t.Errorf("MediaDir = %q, want default", cfg.MediaDir)
	}
	if cfg.VolumeStep != defaults.VolumeStep {
		t.Errorf("VolumeStep = %v, want default", cfg.VolumeStep)
	}
	if cfg.SeekSeconds != defaults.SeekSeconds {
		t.Errorf("SeekSeconds = %v, want default", cfg.SeekSeconds)
	}
	if len(cfg.Keymap.TogglePlay) == 0 {
		t.Error("empty keymap action not defaulted")
	}
}

func TestApplyConfigDefaultsKeepsUserValues(t *testing.T) {
	defaults := getDefaultConfig()
	cfg := &Config{
		MediaDir:    "/srv/media",
		VolumeStep:  0.1,
		SeekSeconds: 30,
		Keymap:      Keymap{TogglePlay: Key{"x"}},
	}
	applyConfigDefaults(cfg, defaults)

	if cfg.MediaDir != "/srv/media" || cfg.VolumeStep != 0.1 || cfg.SeekSeconds != 30 {
		t.Errorf("user values overwritten: %+v", cfg)
	}
	if cfg.Keymap.TogglePlay[0] != "x" {
		t.Errorf("TogglePlay = %v, want user binding", cfg.Keymap.TogglePlay)
	}
	if len(cfg.Keymap.Quit) == 0 {
		t.Error("unset keymap action not defaulted")
	}
}
