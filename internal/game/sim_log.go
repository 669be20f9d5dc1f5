package game

import (
	"fmt"
	"strings"
)

// SimLogEntry is one recorded event during a match.
type SimLogEntry struct {
	Tick     uint64
	Tank     string  // "T1", "T2", or "--" for match-wide events
	Category string  // command, exec, ai, arena, match
	Key      string  // event name within the category
	Value    string  // human-readable detail
	NumVal   float64 // optional numeric value for threshold checks
}

// String formats the entry as a fixed-width log line.
//
//	[T=042] T1   exec      blocked          MoveForward(100) after 16 ticks
func (e SimLogEntry) String() string {
	return fmt.Sprintf("[T=%03d] %-4s %-9s %-16s %s",
		e.Tick, e.Tank, e.Category, e.Key, e.Value)
}

// SimLog collects structured match events. Unlike the viewer's event panel it
// is unbounded and meant for tests and headless reports.
type SimLog struct {
	entries []SimLogEntry
	verbose bool
}

// NewSimLog creates a SimLog. Verbose logs also carry per-tick progress and
// pose entries.
func NewSimLog(verbose bool) *SimLog {
	return &SimLog{verbose: verbose}
}

// Add records a new entry.
func (sl *SimLog) Add(tick uint64, tank, category, key, value string, numVal float64) {
	sl.entries = append(sl.entries, SimLogEntry{
		Tick:     tick,
		Tank:     tank,
		Category: category,
		Key:      key,
		Value:    value,
		NumVal:   numVal,
	})
}

// AddVerbose records an entry only when verbose mode is on.
func (sl *SimLog) AddVerbose(tick uint64, tank, category, key, value string, numVal float64) {
	if !sl.verbose {
		return
	}
	sl.Add(tick, tank, category, key, value, numVal)
}

// Entries returns all recorded entries.
func (sl *SimLog) Entries() []SimLogEntry {
	return sl.entries
}

// Flush returns the recorded entries and empties the log. Long-running
// consumers call it every frame so the log stays small.
func (sl *SimLog) Flush() []SimLogEntry {
	out := sl.entries
	sl.entries = nil
	return out
}

// Filter returns entries matching category and key. Empty strings match anything.
func (sl *SimLog) Filter(category, key string) []SimLogEntry {
	var out []SimLogEntry
	for _, e := range sl.entries {
		if category != "" && e.Category != category {
			continue
		}
		if key != "" && e.Key != key {
			continue
		}
		out = append(out, e)
	}
	return out
}

// FilterTank returns entries for one tank label.
func (sl *SimLog) FilterTank(label string) []SimLogEntry {
	var out []SimLogEntry
	for _, e := range sl.entries {
		if e.Tank == label {
			out = append(out, e)
		}
	}
	return out
}

// FilterTickRange returns entries within [fromTick, toTick] inclusive.
func (sl *SimLog) FilterTickRange(fromTick, toTick uint64) []SimLogEntry {
	var out []SimLogEntry
	for _, e := range sl.entries {
		if e.Tick >= fromTick && e.Tick <= toTick {
			out = append(out, e)
		}
	}
	return out
}

// CountCategory returns how many entries match category and key.
func (sl *SimLog) CountCategory(category, key string) int {
	return len(sl.Filter(category, key))
}

// LastOf returns the most recent entry matching category and key.
func (sl *SimLog) LastOf(category, key string) (SimLogEntry, bool) {
	entries := sl.Filter(category, key)
	if len(entries) == 0 {
		return SimLogEntry{}, false
	}
	return entries[len(entries)-1], true
}

// HasEntry reports whether an entry matches category, key and a value substring.
func (sl *SimLog) HasEntry(category, key, valueSubstr string) bool {
	for _, e := range sl.entries {
		if category != "" && e.Category != category {
			continue
		}
		if key != "" && e.Key != key {
			continue
		}
		if valueSubstr != "" && !strings.Contains(e.Value, valueSubstr) {
			continue
		}
		return true
	}
	return false
}

// Format returns the full log, one entry per line.
func (sl *SimLog) Format() string {
	var sb strings.Builder
	for _, e := range sl.entries {
		sb.WriteString(e.String())
		sb.WriteByte('\n')
	}
	return sb.String()
}

// FormatRange returns the log restricted to a tick range.
func (sl *SimLog) FormatRange(fromTick, toTick uint64) string {
	var sb strings.Builder
	for _, e := range sl.FilterTickRange(fromTick, toTick) {
		sb.WriteString(e.String())
		sb.WriteByte('\n')
	}
	return sb.String()
}

// Summary renders a short description of a published view.
func (sl *SimLog) Summary(v *StateView) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "--- Summary at T=%03d ---\n", v.Tick)
	fmt.Fprintf(&sb, "phase=%s mode=%s", v.Phase, v.Mode)
	if v.Phase == PhaseOver {
		if v.Winner.Valid() {
			fmt.Fprintf(&sb, " winner=%s", v.Winner)
		} else {
			sb.WriteString(" winner=draw")
		}
	}
	sb.WriteByte('\n')
	for _, t := range v.Tanks {
		fmt.Fprintf(&sb, "%s hp=%d pos=(%.0f,%.0f) hdg=%.0f exec=%s",
			t.ID, t.Health, t.X, t.Y, t.Heading, t.Executor.State)
		if t.Executor.Current != nil {
			fmt.Fprintf(&sb, " current=%s", t.Executor.Current)
		}
		if len(t.Executor.Pending) > 0 {
			fmt.Fprintf(&sb, " pending=%s", FormatActions(t.Executor.Pending))
		}
		fmt.Fprintf(&sb, " shots=%d hits=%d\n", t.Stats.Shots, t.Stats.Hits)
	}
	fmt.Fprintf(&sb, "blocked=%d replans=%d commands=%d\n",
		sl.CountCategory("exec", "blocked"), sl.CountCategory("ai", "replan"), sl.CountCategory("command", "applied"))
	return sb.String()
}
