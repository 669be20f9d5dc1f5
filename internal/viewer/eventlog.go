package viewer

import (
	"fmt"
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/text/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"

	"github.com/Garsondee/Tank-Arena/internal/game"
)

const (
	logPanelWidth = 360
	logMaxEntries = 80
	logLineHeight = 14
)

// EventLog is a ring buffer of match events rendered beside the arena.
type EventLog struct {
	entries []game.SimLogEntry
	head    int
	count   int
}

// NewEventLog creates an event log with a fixed capacity.
func NewEventLog() *EventLog {
	return &EventLog{entries: make([]game.SimLogEntry, logMaxEntries)}
}

// Add appends an entry, overwriting the oldest once full.
func (l *EventLog) Add(e game.SimLogEntry) {
	l.entries[l.head] = e
	l.head = (l.head + 1) % logMaxEntries
	if l.count < logMaxEntries {
		l.count++
	}
}

// Clear drops every entry.
func (l *EventLog) Clear() {
	l.head, l.count = 0, 0
}

// Len returns the number of stored entries.
func (l *EventLog) Len() int { return l.count }

// Recent returns entries in chronological order (oldest first).
func (l *EventLog) Recent() []game.SimLogEntry {
	result := make([]game.SimLogEntry, l.count)
	for i := 0; i < l.count; i++ {
		idx := (l.head - l.count + i + logMaxEntries) % logMaxEntries
		result[i] = l.entries[idx]
	}
	return result
}

func tankColour(label string) color.RGBA {
	switch label {
	case game.Tank1.String():
		return color.RGBA{R: 80, G: 130, B: 220, A: 255}
	case game.Tank2.String():
		return color.RGBA{R: 210, G: 80, B: 70, A: 255}
	default:
		return color.RGBA{R: 170, G: 170, B: 150, A: 255}
	}
}

// Draw renders the panel at panelX, newest entry at the bottom.
func (l *EventLog) Draw(screen *ebiten.Image, face text.Face, panelX, panelH int) {
	px := float32(panelX)
	vector.FillRect(screen, px, 0, logPanelWidth, float32(panelH), color.RGBA{R: 10, G: 12, B: 10, A: 248}, false)
	vector.StrokeLine(screen, px, 0, px, float32(panelH), 1.0, color.RGBA{R: 50, G: 70, B: 50, A: 255}, false)
	vector.FillRect(screen, px, 0, logPanelWidth, 18, color.RGBA{R: 20, G: 30, B: 20, A: 255}, false)
	drawText(screen, face, "EVENT LOG", panelX+8, 2, color.White)
	vector.StrokeLine(screen, px, 18, px+logPanelWidth, 18, 1.0, color.RGBA{R: 50, G: 80, B: 50, A: 200}, false)

	entries := l.Recent()
	maxVisible := (panelH - 26) / logLineHeight
	if len(entries) > maxVisible {
		entries = entries[len(entries)-maxVisible:]
	}

	const highlight = 3
	y := 22
	for i, e := range entries {
		recent := i >= len(entries)-highlight
		if recent {
			vector.FillRect(screen, px+2, float32(y), logPanelWidth-4, logLineHeight, color.RGBA{R: 30, G: 40, B: 30, A: 160}, false)
		}
		vector.FillRect(screen, px+5, float32(y+4), 3, 6, tankColour(e.Tank), false)

		fg := color.RGBA{R: 150, G: 160, B: 150, A: 255}
		if recent {
			fg = color.RGBA{R: 235, G: 240, B: 230, A: 255}
		}
		line := fmt.Sprintf("%5d %-3s %s/%s %s", e.Tick, e.Tank, e.Category, e.Key, e.Value)
		drawText(screen, face, line, panelX+12, y, fg)
		y += logLineHeight
	}
}
