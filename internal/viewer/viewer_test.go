package viewer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Garsondee/Tank-Arena/internal/game"
	"github.com/Garsondee/Tank-Arena/internal/level"
)

func newViewer(t *testing.T, opts ...Option) (*Game, *game.Match) {
	t.Helper()
	lvl, err := level.Default()
	require.NoError(t, err)
	cfg := game.DefaultMatchConfig()
	cfg.Mode = game.Mode2P
	m, err := game.NewMatch(cfg, lvl.Field(), game.WithSimLog(game.NewSimLog(false)))
	require.NoError(t, err)
	return New(context.Background(), m, lvl, opts...), m
}

func TestSpeedSteps(t *testing.T) {
	assert.Equal(t, 0.5, slower(1))
	assert.Equal(t, 0.0, slower(0.5))
	assert.Equal(t, 0.0, slower(0))
	assert.Equal(t, 2.0, faster(1))
	assert.Equal(t, 0.5, faster(0))
	assert.Equal(t, 4.0, faster(4))
}

func TestEventLogRing(t *testing.T) {
	l := NewEventLog()
	for i := 0; i < logMaxEntries+5; i++ {
		l.Add(game.SimLogEntry{Tick: uint64(i), Tank: "T1", Category: "exec", Key: "progress"})
	}
	got := l.Recent()
	require.Len(t, got, logMaxEntries)
	assert.Equal(t, uint64(5), got[0].Tick)
	assert.Equal(t, uint64(logMaxEntries+4), got[len(got)-1].Tick)

	l.Clear()
	assert.Equal(t, 0, l.Len())
	assert.Empty(t, l.Recent())
}

func TestAdvanceFollowsSpeed(t *testing.T) {
	g, m := newViewer(t)

	g.advance()
	assert.Equal(t, uint64(1), m.View().Tick)

	g.simSpeed = 0.5
	g.advance()
	assert.Equal(t, uint64(1), m.View().Tick)
	g.advance()
	assert.Equal(t, uint64(2), m.View().Tick)

	g.simSpeed = 4
	g.advance()
	assert.Equal(t, uint64(6), m.View().Tick)

	g.togglePause()
	g.advance()
	assert.Equal(t, uint64(6), m.View().Tick)
	g.togglePause()
	assert.Equal(t, 1.0, g.Speed())
}

func TestEventsReachThePanel(t *testing.T) {
	g, m := newViewer(t)
	_, err := m.Submit(game.Tank1, "shoot")
	require.NoError(t, err)
	g.advance()
	assert.Positive(t, g.events.Len())
	assert.Empty(t, m.SimLog().Entries(), "viewer should drain the sim log")
}

func TestCopyReport(t *testing.T) {
	var copied string
	g, m := newViewer(t, WithClipboard(func(s string) error { copied = s; return nil }))
	_, err := m.Submit(game.Tank1, "move forward 50")
	require.NoError(t, err)
	g.advance()

	g.copyReport()
	assert.Contains(t, copied, "--- Tank Arena state report ---")
	assert.Contains(t, copied, "field=Crossroads")
	assert.Contains(t, copied, "== T1 (text) ==")
	assert.Contains(t, copied, "executor: executing")
	assert.Contains(t, copied, "MoveForward(50)")
	assert.Regexp(t, `cell=B7 off=\(\+\d+,\+0\)`, copied)
	assert.True(t, strings.HasPrefix(g.status, "report copied"))

	g.copy = func(string) error { return errors.New("no clipboard") }
	g.copyReport()
	assert.Equal(t, "clipboard unavailable", g.status)
}

func TestResetClearsPanel(t *testing.T) {
	g, m := newViewer(t)
	_, _ = m.Submit(game.Tank1, "shoot")
	for i := 0; i < 10; i++ {
		g.advance()
	}
	g.reset()
	assert.Equal(t, uint64(0), m.View().Tick)
	for _, e := range g.events.Recent() {
		assert.Equal(t, "reset", e.Key, fmt.Sprintf("stale entry %s", e))
	}
}

func TestReportGameOver(t *testing.T) {
	v := &game.StateView{
		Tick:   42,
		Mode:   game.Mode1P,
		Phase:  game.PhaseOver,
		Winner: game.Tank2,
		Tanks: []game.TankView{
			{ID: game.Tank1, Alive: false},
			{ID: game.Tank2, Alive: true, Health: 2, AI: true},
		},
	}
	events := []game.SimLogEntry{
		{Tick: 40, Tank: "T1", Category: "arena", Key: "destroyed", Value: "by T2"},
		{Tick: 41, Tank: "--", Category: "match", Key: "over", Value: "T2 wins"},
	}
	out := Report(game.Field{Name: "Test"}, v, events, 0)
	assert.Contains(t, out, "phase=over winner=T2")
	assert.Contains(t, out, "== T2 (ai) ==")
	assert.Contains(t, out, "destroyed")
	assert.Contains(t, out, "== match ==")
	assert.Empty(t, Report(game.Field{}, nil, nil, 0))
}
