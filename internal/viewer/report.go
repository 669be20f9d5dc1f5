package viewer

import (
	"fmt"
	"strings"

	"github.com/Garsondee/Tank-Arena/internal/game"
)

const reportWindowTicks = 300

// Report renders the state of a match as plain text for pasting into bug
// reports: header, one block per tank, then recent events.
func Report(field game.Field, v *game.StateView, events []game.SimLogEntry, lastTicks uint64) string {
	if v == nil {
		return ""
	}
	if lastTicks == 0 {
		lastTicks = reportWindowTicks
	}
	from := uint64(0)
	if v.Tick+1 > lastTicks {
		from = v.Tick + 1 - lastTicks
	}

	var b strings.Builder
	fmt.Fprintf(&b, "--- Tank Arena state report ---\n")
	fmt.Fprintf(&b, "field=%s size=%.0fx%.0f obstacles=%d\n", field.Name, field.Bounds.Width, field.Bounds.Height, len(field.Obstacles))
	fmt.Fprintf(&b, "tick=%d mode=%s phase=%s", v.Tick, v.Mode, v.Phase)
	if v.Phase == game.PhaseOver {
		if v.Winner.Valid() {
			fmt.Fprintf(&b, " winner=%s", v.Winner)
		} else {
			b.WriteString(" winner=draw")
		}
	}
	fmt.Fprintf(&b, " shells=%d\n\n", len(v.Projectiles))

	for _, t := range v.Tanks {
		driver := "text"
		if t.AI {
			driver = "ai"
		}
		fmt.Fprintf(&b, "== %s (%s) ==\n", t.ID, driver)
		fmt.Fprintf(&b, "pose: (%.1f, %.1f) hdg=%.1f", t.X, t.Y, t.Heading)
		if t.Cell != "" {
			fmt.Fprintf(&b, " cell=%s", t.Cell)
			if c, err := game.CellCenter(t.Cell, field.CellSize, field.Cols, field.Rows); err == nil {
				fmt.Fprintf(&b, " off=(%+.0f,%+.0f)", t.X-c.X, t.Y-c.Y)
			}
		}
		fmt.Fprintf(&b, "\nhealth=%d alive=%t shots=%d hits=%d\n", t.Health, t.Alive, t.Stats.Shots, t.Stats.Hits)

		ex := t.Executor
		fmt.Fprintf(&b, "executor: %s gen=%d", ex.State, ex.Generation)
		if ex.Current != nil {
			fmt.Fprintf(&b, " current=%s done=%.1f", ex.Current, ex.Progress.Done)
		}
		if ex.ObstructedTicks > 0 {
			fmt.Fprintf(&b, " obstructed=%d", ex.ObstructedTicks)
		}
		b.WriteByte('\n')
		if len(ex.Pending) > 0 {
			fmt.Fprintf(&b, "pending: %s\n", game.FormatActions(ex.Pending))
		}

		var recent []string
		for _, e := range events {
			if e.Tank == t.ID.String() && e.Tick >= from {
				recent = append(recent, e.String())
			}
		}
		if len(recent) > 0 {
			fmt.Fprintf(&b, "events (T=%d..%d):\n", from, v.Tick)
			for _, line := range recent {
				b.WriteString("  ")
				b.WriteString(line)
				b.WriteByte('\n')
			}
		}
		b.WriteByte('\n')
	}

	var match []string
	for _, e := range events {
		if e.Tank == "--" && e.Tick >= from {
			match = append(match, e.String())
		}
	}
	if len(match) > 0 {
		b.WriteString("== match ==\n")
		for _, line := range match {
			b.WriteString("  ")
			b.WriteString(line)
			b.WriteByte('\n')
		}
	}
	return b.String()
}
