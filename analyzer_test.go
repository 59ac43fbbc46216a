package main

import (
	"math"
	"testing"

	"github.com/gopxl/beep/v2"
)

// sineStreamer feeds a pure tone through the tap.
type sineStreamer struct {
	freq float64
	rate float64
	n    int
}

func (s *sineStreamer) Stream(samples [][2]float64) (int, bool) {
	for i := range samples {
		v := math.Sin(2 * math.Pi * s.freq * float64(s.n) / s.rate)
		samples[i][0] = v
		samples[i][1] = v
		s.n++
	}
	return len(samples), true
}

func (s *sineStreamer) Err() error { return nil }

func TestBindIsIdempotentForSameTap(t *testing.T) {
	a := NewAnalyzer()
	tap := NewTap()
	if err := a.Bind(tap); err != nil {
		t.Fatalf("first Bind: %v", err)
	}
	if err := a.Bind(tap); err != nil {
		t.Errorf("rebinding the same tap: %v, want nil", err)
	}
	if !a.Bound() {
		t.Error("analyzer not bound")
	}
}

func TestBindRejectsSecondTap(t *testing.T) {
	a := NewAnalyzer()
	if err := a.Bind(NewTap()); err != nil {
		t.Fatal(err)
	}
	if err := a.Bind(NewTap()); err != ErrGraphBound {
		t.Errorf("binding a second tap: %v, want ErrGraphBound", err)
	}
}

func TestSnapshotSizeIsFixed(t *testing.T) {
	a := NewAnalyzer()
	if got := len(a.Snapshot(false)); got != binCount {
		t.Errorf("snapshot length = %d, want %d", got, binCount)
	}
}

func TestSnapshotZeroWhenUnboundOrInactive(t *testing.T) {
	a := NewAnalyzer()
	for _, b := range a.Snapshot(true) {
		if b != 0 {
			t.Fatal("unbound snapshot not zero-filled")
		}
	}

	tap := NewTap()
	tap.SetSource(&sineStreamer{freq: 440, rate: 44100})
	var buf [512][2]float64
	tap.Stream(buf[:])
	a.Bind(tap)
	for _, b := range a.Snapshot(false) {
		if b != 0 {
			t.Fatal("inactive snapshot not zero-filled")
		}
	}
}

func TestSnapshotReflectsSignalEnergy(t *testing.T) {
	a := NewAnalyzer()
	tap := NewTap()
	tap.SetSource(&sineStreamer{freq: 440, rate: 44100})
	var buf [1024][2]float64
	tap.Stream(buf[:])
	if err := a.Bind(tap); err != nil {
		t.Fatal(err)
	}

	bins := a.Snapshot(true)
	var sum int
	for _, b := range bins {
		sum += int(b)
	}
	if sum == 0 {
		t.Error("snapshot of a live tone is all zero")
	}
}

func TestTapPassesAudioThrough(t *testing.T) {
	tap := NewTap()
	src := &sineStreamer{freq: 100, rate: 44100}
	tap.SetSource(src)

	var buf [64][2]float64
	n, ok := tap.Stream(buf[:])
	if n != 64 || !ok {
		t.Fatalf("Stream = %d, %v; want 64, true", n, ok)
	}
	if buf[1][0] == 0 {
		t.Error("tap zeroed the passing audio")
	}
}

func TestTapWithoutSourceDrains(t *testing.T) {
	tap := NewTap()
	var buf [16][2]float64
	if n, ok := tap.Stream(buf[:]); n != 0 || ok {
		t.Errorf("Stream without source = %d, %v; want 0, false", n, ok)
	}
	var _ beep.Streamer = tap
}
