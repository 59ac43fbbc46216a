package main

import (
	"errors"
	"math"
	"math/cmplx"
	"sync"

	"github.com/gopxl/beep/v2"
	"github.com/ktye/fft"
)

const (
	// fftWindow is the analysis window in samples; binCount is fixed at
	// initialization and never changes for the life of the session.
	fftWindow = 256
	binCount  = fftWindow / 2
)

// ErrGraphBound is returned when a second distinct tap is bound to the
// analyzer. That is a programming error, not a runtime condition; callers
// guard against it and never retry.
var ErrGraphBound = errors.New("analysis graph already bound to a tap")

// Tap is a streamer wrapper that copies a mono mix of the audio passing
// through it into a ring buffer. It sits at the end of the playback chain,
// just before the speaker, and is the single capture point shared by every
// track in the session.
type Tap struct {
	mu  sync.Mutex
	src beep.Streamer
	buf [fftWindow]float64
	pos int
}

func NewTap() *Tap { return &Tap{} }

// SetSource rebinds the tap to a new upstream streamer. Called under
// speaker.Lock whenever the transport installs a track; the tap itself is
// never recreated.
func (t *Tap) SetSource(src beep.Streamer) {
	t.mu.Lock()
	t.src = src
	t.mu.Unlock()
}

// Stream passes audio through while capturing a mono mix.
func (t *Tap) Stream(samples [][2]float64) (int, bool) {
	t.mu.Lock()
	src := t.src
	t.mu.Unlock()
	if src == nil {
		return 0, false
	}
	n, ok := src.Stream(samples)
	t.mu.Lock()
	for i := 0; i < n; i++ {
		t.buf[t.pos] = (samples[i][0] + samples[i][1]) / 2
		t.pos = (t.pos + 1) % fftWindow
	}
	t.mu.Unlock()
	return n, ok
}

// Err returns the upstream streamer's error.
func (t *Tap) Err() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.src == nil {
		return nil
	}
	return t.src.Err()
}

// window copies the ring buffer out in chronological order.
func (t *Tap) window(dst []float64) {
	t.mu.Lock()
	start := t.pos
	for i := range dst {
		dst[i] = t.buf[(start+i)%fftWindow]
	}
	t.mu.Unlock()
}

// Analyzer is the session's audio analysis graph: one FFT over the one tap,
// producing fixed-size frequency snapshots on demand.
type Analyzer struct {
	fft     fft.FFT
	tap     *Tap
	scratch []complex128
	samples []float64
}

func NewAnalyzer() *Analyzer {
	f, err := fft.New(fftWindow)
	if err != nil {
		// fftWindow is a compile-time power of two; New cannot fail on it.
		panic(err)
	}
	return &Analyzer{
		fft:     f,
		scratch: make([]complex128, fftWindow),
		samples: make([]float64, fftWindow),
	}
}

// Bind attaches the analyzer to the playback tap. Binding the same tap again
// is a no-op; binding a different tap reports ErrGraphBound.
func (a *Analyzer) Bind(tap *Tap) error {
	if a.tap == nil {
		a.tap = tap
		return nil
	}
	if a.tap == tap {
		return nil
	}
	return ErrGraphBound
}

// Bound reports whether a tap has been bound.
func (a *Analyzer) Bound() bool { return a.tap != nil }

// Snapshot returns the current frequency magnitudes, one unsigned byte per
// bin. When the graph is unbound or playback is inactive the snapshot is
// zero-filled.
func (a *Analyzer) Snapshot(active bool) []byte {
	bins := make([]byte, binCount)
	if a.tap == nil || !active {
		return bins
	}
	a.tap.window(a.samples)
	for i, s := range a.samples {
		a.scratch[i] = complex(s, 0)
	}
	a.fft.Transform(a.scratch)
	for i := 0; i < binCount; i++ {
		// Log-scaled magnitude mapped onto 0..255.
		db := 20 * math.Log1p(cmplx.Abs(a.scratch[i]))
		v := int(db * 255 / 96)
		if v > 255 {
			v = 255
		}
		if v < 0 {
			v = 0
		}
		bins[i] = byte(v)
	}
	return bins
}
