package game

import (
	"context"
	"errors"
	"testing"
)

func newDuelSim(t *testing.T, opts ...SimOption) *TestSim {
	t.Helper()
	base := []SimOption{
		WithSpawn(Tank1, 200, 360, 0),
		WithSpawn(Tank2, 1000, 360, 180),
	}
	ts, err := NewTestSim(append(base, opts...)...)
	if err != nil {
		t.Fatalf("NewTestSim: %v", err)
	}
	return ts
}

func TestMatch_TextCommandMovesTank(t *testing.T) {
	ts := newDuelSim(t)
	if err := ts.Command(Tank1, "move forward 100"); err != nil {
		t.Fatalf("command: %v", err)
	}
	ts.RunTicks(30)

	tv := ts.Tank(Tank1)
	if !approx(tv.X, 300) || !approx(tv.Y, 360) {
		t.Fatalf("tank 1 at (%.2f,%.2f), want (300,360)\n%s", tv.X, tv.Y, ts.SimLog.Format())
	}
	if tv.Executor.State != ExecIdle {
		t.Fatalf("executor should be idle, got %s", tv.Executor.State)
	}
	if !ts.SimLog.HasEntry("exec", "queue_drained", "MoveForward(100)") {
		t.Fatalf("missing drain entry:\n%s", ts.SimLog.Format())
	}
}

func TestMatch_StopCancels(t *testing.T) {
	ts := newDuelSim(t)
	_ = ts.Command(Tank1, "move forward 300")
	ts.RunTicks(5)
	if err := ts.Command(Tank1, "stop"); err != nil {
		t.Fatalf("stop: %v", err)
	}
	ts.RunTicks(20)
	if tv := ts.Tank(Tank1); !approx(tv.X, 230) || tv.Executor.State != ExecIdle {
		t.Fatalf("stop should halt at x=230 idle, got x=%.2f %s", tv.X, tv.Executor.State)
	}
}

func TestMatch_NewestCommandInATickWins(t *testing.T) {
	ts := newDuelSim(t)
	_ = ts.Command(Tank1, "move forward 300")
	_ = ts.Command(Tank1, "turn left 90")
	ts.RunTicks(1)
	if tv := ts.Tank(Tank1); !approx(tv.Heading, 3) || !approx(tv.X, 200) {
		t.Fatalf("want only the turn applied, got heading %.1f x %.1f", tv.Heading, tv.X)
	}
	if ts.SimLog.CountCategory("command", "superseded") != 1 {
		t.Fatalf("superseded submission not logged:\n%s", ts.SimLog.Format())
	}
}

func TestMatch_SubmitErrors(t *testing.T) {
	ts := newDuelSim(t, WithMode(Mode1P))
	if _, err := ts.Match.Submit(TankID(7), "shoot"); !errors.Is(err, ErrUnknownTank) {
		t.Fatalf("want ErrUnknownTank, got %v", err)
	}
	if _, err := ts.Match.Submit(Tank2, "shoot"); !errors.Is(err, ErrNotControllable) {
		t.Fatalf("want ErrNotControllable, got %v", err)
	}
	if _, err := ts.Match.Submit(Tank1, "moonwalk"); !errors.Is(err, ErrUnrecognized) {
		t.Fatalf("want ErrUnrecognized, got %v", err)
	}
	if !ts.Match.Controllable(Tank1) || ts.Match.Controllable(Tank2) {
		t.Fatal("1p: tank 1 is driven by text, tank 2 by the AI")
	}
}

func TestMatch_ShootingDestroysTank(t *testing.T) {
	ts := newDuelSim(t, WithConfig(func(c *MatchConfig) { c.Tank.FireCooldownTicks = 1 }))
	_ = ts.Command(Tank1, "shoot then shoot then shoot")
	at := ts.RunUntil(func(ts *TestSim) bool { return ts.Match.Phase() == PhaseOver }, 200)
	if at < 0 {
		t.Fatalf("match did not end:\n%s", ts.SimLog.Format())
	}
	v := ts.Match.View()
	if v.Winner != Tank1 || v.Phase != PhaseOver {
		t.Fatalf("want tank 1 to win, got winner=%s phase=%s", v.Winner, v.Phase)
	}
	if tv := ts.Tank(Tank2); tv.Alive || tv.Health != 0 {
		t.Fatalf("tank 2 should be destroyed, got %+v", tv)
	}
	if tv := ts.Tank(Tank1); tv.Stats.Shots != 3 || tv.Stats.Hits != 3 {
		t.Fatalf("stats %+v, want 3 shots 3 hits", tv.Stats)
	}

	// Over is terminal until Reset.
	tick := v.Tick
	ts.RunTicks(5)
	if ts.Match.View().Tick != tick {
		t.Fatal("match kept ticking after it was over")
	}
	ts.Match.Reset()
	if ts.Match.Phase() != PhasePlaying || !ts.Tank(Tank2).Alive {
		t.Fatal("reset should restore both tanks")
	}
}

func TestMatch_ObstacleStopsShell(t *testing.T) {
	ts := newDuelSim(t, WithBuilding(500, 300, 40, 120))
	_ = ts.Command(Tank1, "shoot")
	ts.RunTicks(60)
	if tv := ts.Tank(Tank2); tv.Health != DefaultTankConfig().Health {
		t.Fatalf("shell passed through the wall: %+v", tv)
	}
	if ts.SimLog.CountCategory("arena", "impact") != 1 {
		t.Fatalf("want one impact:\n%s", ts.SimLog.Format())
	}
}

func TestMatch_AIEngages(t *testing.T) {
	ts := newDuelSim(t, WithMode(Mode1P))
	at := ts.RunUntil(func(ts *TestSim) bool { return ts.Tank(Tank1).Health < 3 }, 300)
	if at < 0 {
		t.Fatalf("AI never hit tank 1:\n%s", ts.SimLog.Format())
	}
	if ts.SimLog.CountCategory("ai", "replan") == 0 {
		t.Fatal("AI hit without logging a plan")
	}
}

func TestMatch_BlockedMoveIsReported(t *testing.T) {
	ts := newDuelSim(t, WithBuilding(240, 200, 40, 320))
	_ = ts.Command(Tank1, "move forward 200")
	ts.RunTicks(40)
	tv := ts.Tank(Tank1)
	if tv.Executor.State != ExecBlocked {
		t.Fatalf("want blocked, got %s at x=%.1f", tv.Executor.State, tv.X)
	}
	if tv.X+tv.Radius > 240 {
		t.Fatalf("tank overlaps the wall: x=%.1f", tv.X)
	}
	if ts.SimLog.CountCategory("exec", "blocked") != 1 {
		t.Fatalf("blocked transition not logged once:\n%s", ts.SimLog.Format())
	}
}

func TestMatch_ViewIsImmutableCopy(t *testing.T) {
	ts := newDuelSim(t)
	before := ts.Match.View()
	_ = ts.Command(Tank1, "move forward 60")
	ts.Match.Step(context.Background())
	if before.Tanks[0].X != 200 {
		t.Fatal("published view was mutated by a later tick")
	}
	if ts.Match.View() == before {
		t.Fatal("step should publish a new view")
	}
}

func TestParseMode(t *testing.T) {
	for in, want := range map[string]Mode{"1p": Mode1P, "2P": Mode2P, " demo ": ModeDemo} {
		if got, err := ParseMode(in); err != nil || got != want {
			t.Fatalf("ParseMode(%q) = %q, %v", in, got, err)
		}
	}
	if _, err := ParseMode("manual"); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("want ErrInvalidArgument, got %v", err)
	}
}
