package game

import "context"

// TestSim is a headless match harness used by tests and the headless
// report. It drives Match.Step directly and has no Ebiten dependency.
type TestSim struct {
	Match  *Match
	SimLog *SimLog
	Field  Field

	cfg  MatchConfig
	tick int
}

// simOptionKind controls the pass in which an option is applied.
type simOptionKind int

const (
	simOptInfra  simOptionKind = iota // map size, obstacles, spawns, config
	simOptLoaded                      // whole-field replacement, applied before infra
)

// SimOption is a builder function applied to a TestSim during construction.
type SimOption struct {
	kind simOptionKind
	fn   func(*TestSim)
}

// WithField replaces the default empty field, e.g. with a loaded level.
// Other options still apply on top of it.
func WithField(f Field) SimOption {
	return SimOption{simOptLoaded, func(ts *TestSim) {
		ts.Field = f
		ts.Field.Obstacles = append([]Obstacle(nil), f.Obstacles...)
		ts.Field.Spawns = make(map[TankID]Pose, len(f.Spawns))
		for id, p := range f.Spawns {
			ts.Field.Spawns[id] = p
		}
	}}
}

// WithMapSize sets the arena dimensions.
func WithMapSize(w, h float64) SimOption {
	return SimOption{simOptInfra, func(ts *TestSim) {
		ts.Field.Bounds = Bounds{Width: w, Height: h}
	}}
}

// WithBuilding adds a box obstacle with its lower-left corner at (x, y).
func WithBuilding(x, y, w, h float64) SimOption {
	return SimOption{simOptInfra, func(ts *TestSim) {
		ts.Field.Obstacles = append(ts.Field.Obstacles, RectObstacle(x, y, x+w, y+h))
	}}
}

// WithRock adds a round obstacle.
func WithRock(cx, cy, r float64) SimOption {
	return SimOption{simOptInfra, func(ts *TestSim) {
		ts.Field.Obstacles = append(ts.Field.Obstacles, CircleObstacle(cx, cy, r))
	}}
}

// WithSpawn places a tank.
func WithSpawn(id TankID, x, y, heading float64) SimOption {
	return SimOption{simOptInfra, func(ts *TestSim) {
		ts.Field.Spawns[id] = Pose{Pos: Vec2{x, y}, Heading: heading}
	}}
}

// WithMode selects which tanks the AI drives.
func WithMode(m Mode) SimOption {
	return SimOption{simOptInfra, func(ts *TestSim) { ts.cfg.Mode = m }}
}

// WithConfig edits the match configuration in place.
func WithConfig(edit func(*MatchConfig)) SimOption {
	return SimOption{simOptInfra, func(ts *TestSim) { edit(&ts.cfg) }}
}

// WithVerbose enables per-tick progress entries in the SimLog.
func WithVerbose(v bool) SimOption {
	return SimOption{simOptInfra, func(ts *TestSim) { ts.SimLog = NewSimLog(v) }}
}

// NewTestSim builds a two-player match on a 1280x720 field with no
// obstacles and the AI startup delay disabled, then applies opts.
func NewTestSim(opts ...SimOption) (*TestSim, error) {
	cfg := DefaultMatchConfig()
	cfg.Mode = Mode2P
	cfg.AI.StartupTicks = 0
	ts := &TestSim{
		SimLog: NewSimLog(false),
		Field: Field{
			Name:   "test",
			Bounds: Bounds{Width: 1280, Height: 720},
			Spawns: map[TankID]Pose{},
		},
		cfg: cfg,
	}
	for _, kind := range []simOptionKind{simOptLoaded, simOptInfra} {
		for _, o := range opts {
			if o.kind == kind {
				o.fn(ts)
			}
		}
	}
	m, err := NewMatch(ts.cfg, ts.Field, WithSimLog(ts.SimLog))
	if err != nil {
		return nil, err
	}
	ts.Match = m
	return ts, nil
}

// Command sends text to a tank as the control surface would.
func (ts *TestSim) Command(id TankID, text string) error {
	_, err := ts.Match.Submit(id, text)
	return err
}

// RunTicks advances the match n ticks.
func (ts *TestSim) RunTicks(n int) {
	for i := 0; i < n; i++ {
		ts.tick++
		ts.Match.Step(context.Background())
	}
}

// RunUntil advances up to maxTicks, stopping once predicate holds. It returns
// the tick at which the predicate was satisfied, or -1.
func (ts *TestSim) RunUntil(predicate func(*TestSim) bool, maxTicks int) int {
	for i := 0; i < maxTicks; i++ {
		ts.tick++
		ts.Match.Step(context.Background())
		if predicate(ts) {
			return ts.tick
		}
	}
	return -1
}

// CurrentTick returns the number of ticks run.
func (ts *TestSim) CurrentTick() int { return ts.tick }

// Tank returns the published view of one tank.
func (ts *TestSim) Tank(id TankID) TankView {
	t, _ := ts.Match.View().Tank(id)
	return t
}
