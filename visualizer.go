package main

import (
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/lucasb-eyer/go-colorful"
)

var barChars = []rune(" ▁▂▃▄▅▆▇█")

// vizFrameMsg drives one redraw of the spectrum. Gen cancels a frame chain:
// ticks from a superseded chain are dropped without rescheduling.
type vizFrameMsg struct {
	Gen int
}

// vizFrameCmd schedules the next frame of the given chain at roughly 30 fps.
func vizFrameCmd(gen int) tea.Cmd {
	return tea.Tick(time.Second/30, func(time.Time) tea.Msg {
		return vizFrameMsg{Gen: gen}
	})
}

// spectrumGradient precomputes one color per row, blending from the top
// color down to the bottom one.
func spectrumGradient(height int) []lipgloss.Style {
	top, _ := colorful.Hex("#F25D94")
	bottom, _ := colorful.Hex("#5A56E0")
	styles := make([]lipgloss.Style, height)
	for row := range styles {
		t := 0.0
		if height > 1 {
			t = float64(row) / float64(height-1)
		}
		c := top.BlendLuv(bottom, t)
		styles[row] = lipgloss.NewStyle().Foreground(lipgloss.Color(c.Hex()))
	}
	return styles
}

// renderSpectrum paints one bar per frequency bin, bottom-anchored, height
// proportional to magnitude. Bar width is width/binCount*2.5 cells with a
// one-cell gap; with many bins the bars run past the right edge and are
// clipped, which is the accepted behavior rather than a scaling bug.
func renderSpectrum(bins []byte, width, height int) string {
	if width < 1 || height < 1 || len(bins) == 0 {
		return ""
	}

	barWidth := int(float64(width) / float64(len(bins)) * 2.5)
	if barWidth < 1 {
		barWidth = 1
	}
	gradient := spectrumGradient(height)

	rows := make([]string, height)
	for row := 0; row < height; row++ {
		var line strings.Builder
		rowFromBottom := float64(height - 1 - row)
		for _, mag := range bins {
			if line.Len() >= width*4 { // clip overflowing bars
				break
			}
			level := float64(mag) / 255 * float64(height)
			idx := 0
			if level > rowFromBottom+1 {
				idx = len(barChars) - 1
			} else if level > rowFromBottom {
				idx = int((level - rowFromBottom) * float64(len(barChars)-1))
			}
			line.WriteString(strings.Repeat(string(barChars[idx]), barWidth))
			line.WriteByte(' ')
		}
		cells := []rune(line.String())
		if len(cells) > width {
			cells = cells[:width]
		}
		rows[row] = gradient[row].Render(string(cells))
	}
	return strings.Join(rows, "\n")
}
