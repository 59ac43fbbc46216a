package main

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
)

func TestRenderSpectrumEmptyInputs(t *testing.T) {
	if renderSpectrum(nil, 80, 8) != "" {
		t.Error("nil bins rendered output")
	}
	if renderSpectrum([]byte{128}, 0, 8) != "" {
		t.Error("zero width rendered output")
	}
	if renderSpectrum([]byte{128}, 80, 0) != "" {
		t.Error("zero height rendered output")
	}
}

func TestRenderSpectrumRowGeometry(t *testing.T) {
	bins := make([]byte, binCount)
	out := renderSpectrum(bins, 80, 6)
	rows := strings.Split(out, "\n")
	if len(rows) != 6 {
		t.Fatalf("rows = %d, want 6", len(rows))
	}
	for i, row := range rows {
		if w := lipgloss.Width(row); w > 80 {
			t.Errorf("row %d width = %d, want <= 80", i, w)
		}
	}
}

func TestRenderSpectrumSilenceIsBlank(t *testing.T) {
	bins := make([]byte, 8)
	out := renderSpectrum(bins, 40, 4)
	for _, r := range out {
		if strings.ContainsRune(string(barChars[1:]), r) {
			t.Fatalf("silent spectrum contains bar rune %q", r)
		}
	}
}

func TestRenderSpectrumFullScaleFillsColumn(t *testing.T) {
	bins := []byte{255}
	out := renderSpectrum(bins, 40, 4)
	rows := strings.Split(out, "\n")
	full := string(barChars[len(barChars)-1])
	for i, row := range rows {
		if !strings.Contains(row, full) {
			t.Errorf("row %d of a full-scale bar has no full cell", i)
		}
	}
}

func TestSpectrumGradientLength(t *testing.T) {
	if got := len(spectrumGradient(5)); got != 5 {
		t.Errorf("gradient rows = %d, want 5", got)
	}
	if got := len(spectrumGradient(1)); got != 1 {
		t.Errorf("gradient rows = %d, want 1", got)
	}
}
