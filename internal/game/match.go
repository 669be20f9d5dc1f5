package game

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

// Mode selects which tanks are driven by the AI.
type Mode string

const (
	Mode1P   Mode = "1p"   // tank 2 is AI
	Mode2P   Mode = "2p"   // both tanks take text commands
	ModeDemo Mode = "demo" // both tanks are AI
)

// ParseMode validates a mode name.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case Mode1P, Mode2P, ModeDemo:
		return m, nil
	}
	return "", fmt.Errorf("mode %q: %w", s, ErrInvalidArgument)
}

// AITanks lists the tanks driven by the planner in this mode.
func (m Mode) AITanks() []TankID {
	switch m {
	case Mode1P:
		return []TankID{Tank2}
	case ModeDemo:
		return []TankID{Tank1, Tank2}
	}
	return nil
}

// Phase is the match lifecycle.
type Phase string

const (
	PhasePlaying Phase = "playing"
	PhaseOver    Phase = "over"
)

// Field is the static battlefield a match is played on.
type Field struct {
	Name      string
	Bounds    Bounds
	Obstacles []Obstacle
	Spawns    map[TankID]Pose
	CellSize  float64 // grid used for cell names, 0 = none
	Cols      int
	Rows      int
}

// MatchConfig gathers every tunable of a match.
type MatchConfig struct {
	Mode           Mode            `mapstructure:"mode"`
	Tank           TankConfig      `mapstructure:"tank"`
	Parser         ParserConfig    `mapstructure:"parser"`
	Executor       ExecutorConfig  `mapstructure:"executor"`
	Avoidance      AvoidanceConfig `mapstructure:"avoidance"`
	AI             AIConfig        `mapstructure:"ai"`
	IntakeCapacity int             `mapstructure:"intakeCapacity"`
}

// DefaultMatchConfig returns a one-player match with stock settings.
func DefaultMatchConfig() MatchConfig {
	return MatchConfig{
		Mode:           Mode1P,
		Tank:           DefaultTankConfig(),
		Parser:         DefaultParserConfig(),
		Executor:       DefaultExecutorConfig(),
		Avoidance:      DefaultAvoidanceConfig(),
		AI:             DefaultAIConfig(),
		IntakeCapacity: DefaultIntakeCapacity,
	}
}

// TankView is the published state of one tank.
type TankView struct {
	ID           TankID         `json:"id"`
	X            float64        `json:"x"`
	Y            float64        `json:"y"`
	Heading      float64        `json:"heading"`
	Cell         string         `json:"cell,omitempty"`
	Health       int            `json:"health"`
	Alive        bool           `json:"alive"`
	AI           bool           `json:"ai"`
	Controllable bool           `json:"controllable"`
	Radius       float64        `json:"radius"`
	Executor     ExecutorStatus `json:"executor"`
	Stats        TankStats      `json:"stats"`
}

// ProjectileView is the published state of one shell.
type ProjectileView struct {
	Owner   TankID  `json:"owner"`
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	Heading float64 `json:"heading"`
}

// StateView is an immutable copy of the match published after every tick.
// Readers on any goroutine may hold on to it.
type StateView struct {
	Tick        uint64           `json:"tick"`
	Mode        Mode             `json:"mode"`
	Phase       Phase            `json:"phase"`
	Winner      TankID           `json:"winner,omitempty"`
	Tanks       []TankView       `json:"tanks"`
	Projectiles []ProjectileView `json:"projectiles"`
}

// Tank returns the view of one tank.
func (v *StateView) Tank(id TankID) (TankView, bool) {
	for _, t := range v.Tanks {
		if t.ID == id {
			return t, true
		}
	}
	return TankView{}, false
}

// MatchOption customizes NewMatch.
type MatchOption func(*Match)

// WithLogger sets the structured logger.
func WithLogger(log zerolog.Logger) MatchOption {
	return func(m *Match) { m.log = log }
}

// WithMeterProvider records match metrics through mp instead of the global
// provider.
func WithMeterProvider(mp metric.MeterProvider) MatchOption {
	return func(m *Match) { m.meters = mp }
}

// WithSimLog records match events into sl.
func WithSimLog(sl *SimLog) MatchOption {
	return func(m *Match) { m.simlog = sl }
}

// Match runs the tick loop: it owns the arena, one executor per tank, the AI
// controllers and the command intake. Step must be called from a single
// goroutine; Submit, Controllable and View are safe from any goroutine.
type Match struct {
	cfg    MatchConfig
	field  Field
	parser Parser
	log    zerolog.Logger
	simlog *SimLog

	arena   *Arena
	avoider *Avoider
	execs   map[TankID]*Executor
	ais     map[TankID]*Controller
	intake  *Intake
	meters  metric.MeterProvider
	metrics *matchMetrics

	phase  Phase
	winner TankID
	buf    IntentBuffer
	view   atomic.Pointer[StateView]
}

// NewMatch builds a match on field.
func NewMatch(cfg MatchConfig, field Field, opts ...MatchOption) (*Match, error) {
	if cfg.Mode == "" {
		cfg.Mode = Mode1P
	}
	if _, err := ParseMode(string(cfg.Mode)); err != nil {
		return nil, err
	}
	if !(field.Bounds.Width > 0) || !(field.Bounds.Height > 0) {
		return nil, fmt.Errorf("field %q bounds %vx%v: %w", field.Name, field.Bounds.Width, field.Bounds.Height, ErrInvalidArgument)
	}

	m := &Match{
		cfg:    cfg,
		field:  field,
		parser: NewParser(cfg.Parser),
		log:    zerolog.Nop(),
		simlog: NewSimLog(false),
		intake: NewIntake(cfg.IntakeCapacity),
		meters: otel.GetMeterProvider(),
	}
	for _, o := range opts {
		o(m)
	}
	m.log = m.log.With().Str("component", "match").Logger()

	mm, err := newMatchMetrics(m.meters, m.intake)
	if err != nil {
		return nil, err
	}
	m.metrics = mm

	m.arena = NewArena(field.Bounds, field.Obstacles, field.Spawns, cfg.Tank, m.log)
	m.avoider = NewAvoider(cfg.Avoidance)
	m.build()
	m.publish()
	m.log.Info().Str("field", field.Name).Str("mode", string(cfg.Mode)).Int("obstacles", len(m.arena.Obstacles())).Msg("match ready")
	return m, nil
}

// build creates fresh executors and controllers.
func (m *Match) build() {
	tank := m.arena.Config()
	ec := m.cfg.Executor
	ec.MoveSpeed = tank.Speed
	ec.TurnRate = tank.TurnRate

	m.execs = make(map[TankID]*Executor, 2)
	m.ais = make(map[TankID]*Controller, 2)
	for _, id := range []TankID{Tank1, Tank2} {
		m.execs[id] = NewExecutor(id, ec, m.avoider, m.log)
	}
	for _, id := range m.cfg.Mode.AITanks() {
		m.ais[id] = NewController(m.execs[id], m.avoider, m.cfg.AI, m.log)
	}
	m.phase = PhasePlaying
	m.winner = 0
}

// Reset restarts the match from the spawn poses. Pending submissions are
// discarded.
func (m *Match) Reset() {
	m.intake.Drain()
	m.arena.Reset()
	m.build()
	m.simlog.Add(0, "--", "match", "reset", m.field.Name, 0)
	m.publish()
	m.log.Info().Msg("match reset")
}

// Close stops accepting commands and releases the match's metric callback.
func (m *Match) Close() {
	m.intake.Close()
	m.metrics.close(m.log)
}

// Mode returns the configured mode.
func (m *Match) Mode() Mode { return m.cfg.Mode }

// Field returns the battlefield.
func (m *Match) Field() Field { return m.field }

// SimLog returns the event log.
func (m *Match) SimLog() *SimLog { return m.simlog }

// Executor returns the executor of a tank.
func (m *Match) Executor(id TankID) *Executor { return m.execs[id] }

// Controller returns the AI controller of a tank, nil for text-driven tanks.
func (m *Match) Controller(id TankID) *Controller { return m.ais[id] }

// Arena returns the physics collaborator.
func (m *Match) Arena() *Arena { return m.arena }

// Controllable reports whether text commands may drive tank id.
func (m *Match) Controllable(id TankID) bool {
	if !id.Valid() {
		return false
	}
	for _, ai := range m.cfg.Mode.AITanks() {
		if ai == id {
			return false
		}
	}
	return true
}

// Submit parses text and queues it for tank id. The word "stop" submits an
// empty queue, cancelling whatever the tank was doing.
func (m *Match) Submit(id TankID, text string) (Submission, error) {
	if !id.Valid() {
		return Submission{}, fmt.Errorf("tank %d: %w", int(id), ErrUnknownTank)
	}
	if !m.Controllable(id) {
		return Submission{}, fmt.Errorf("tank %s: %w", id, ErrNotControllable)
	}
	var actions []Action
	if strings.TrimSpace(strings.ToLower(text)) != "stop" {
		var err error
		if actions, err = m.parser.Parse(text); err != nil {
			return Submission{}, err
		}
	}
	return m.intake.Submit(id, text, actions)
}

// SubmitActions queues pre-built actions for tank id, bypassing the parser.
func (m *Match) SubmitActions(id TankID, actions []Action) (Submission, error) {
	if !m.Controllable(id) {
		if !id.Valid() {
			return Submission{}, fmt.Errorf("tank %d: %w", int(id), ErrUnknownTank)
		}
		return Submission{}, fmt.Errorf("tank %s: %w", id, ErrNotControllable)
	}
	return m.intake.Submit(id, FormatActions(actions), actions)
}

// View returns the most recently published state.
func (m *Match) View() *StateView { return m.view.Load() }

// Phase returns the lifecycle phase.
func (m *Match) Phase() Phase { return m.phase }

// Winner returns the surviving tank once the match is over, 0 for a draw.
func (m *Match) Winner() TankID { return m.winner }

// Step advances the match one tick and returns the published view.
func (m *Match) Step(ctx context.Context) *StateView {
	if m.phase == PhaseOver {
		m.intake.Drain()
		return m.View()
	}

	snap := m.arena.Snapshot()
	tick := snap.Tick
	ids := [2]TankID{Tank1, Tank2}

	latest, superseded := m.intake.Drain()
	if superseded > 0 {
		m.metrics.superseded.Add(ctx, int64(superseded))
		m.simlog.Add(tick, "--", "command", "superseded", fmt.Sprintf("%d older submissions dropped", superseded), float64(superseded))
	}
	for _, id := range ids {
		sub, ok := latest[id]
		if !ok {
			continue
		}
		if !m.Controllable(id) {
			m.log.Warn().Stringer("tank", id).Msg("dropping submission for AI tank")
			continue
		}
		m.execs[id].Submit(sub.Actions)
		m.simlog.Add(tick, id.String(), "command", "applied", FormatActions(sub.Actions), 0)
	}

	for _, id := range ids {
		ai, ok := m.ais[id]
		if !ok || !ai.Update(snap) {
			continue
		}
		m.metrics.replans.Add(ctx, 1)
		m.simlog.Add(tick, id.String(), "ai", "replan", FormatActions(m.execs[id].Pending()), 0)
	}

	m.buf.Reset()
	for _, id := range ids {
		res := m.execs[id].Tick(snap, &m.buf)
		m.recordStep(ctx, tick, id, res)
	}

	events := m.arena.Apply(m.buf)
	events = append(events, m.arena.Advance()...)
	for _, ev := range events {
		m.simlog.Add(tick, ev.Tank.String(), "arena", ev.Kind.String(), fmt.Sprintf("(%.0f,%.0f)", ev.Pos.X, ev.Pos.Y), 0)
	}

	m.updatePhase(tick)
	m.publish()

	m.metrics.ticks.Add(ctx, 1)
	m.metrics.recordIntents(ctx, m.buf)
	return m.View()
}

func (m *Match) recordStep(ctx context.Context, tick uint64, id TankID, res StepResult) {
	label := id.String()
	switch res.Event {
	case EventBlocked:
		m.metrics.blocked.Add(ctx, 1)
		m.simlog.Add(tick, label, "exec", "blocked", res.Action.String(), 0)
	case EventResumed:
		m.simlog.Add(tick, label, "exec", "resumed", res.Action.String(), 0)
	case EventCompleted, EventQueueDrained:
		m.simlog.Add(tick, label, "exec", res.Event.String(), res.Action.String(), 0)
	case EventProgress, EventObstructed:
		m.simlog.AddVerbose(tick, label, "exec", res.Event.String(), res.Action.String(), m.execs[id].Progress().Done)
	}
}

func (m *Match) updatePhase(tick uint64) {
	var alive []TankID
	for _, id := range []TankID{Tank1, Tank2} {
		if b := m.arena.body(id); b != nil && b.state.Alive {
			alive = append(alive, id)
		}
	}
	if len(alive) > 1 {
		return
	}
	m.phase = PhaseOver
	if len(alive) == 1 {
		m.winner = alive[0]
	}
	result := "draw"
	if m.winner.Valid() {
		result = m.winner.String() + " wins"
	}
	m.simlog.Add(tick, "--", "match", "over", result, 0)
	m.log.Info().Uint64("tick", tick).Stringer("winner", m.winner).Msg("match over")
}

// publish swaps in a fresh StateView.
func (m *Match) publish() {
	snap := m.arena.Snapshot()
	v := &StateView{
		Tick:        snap.Tick,
		Mode:        m.cfg.Mode,
		Phase:       m.phase,
		Winner:      m.winner,
		Tanks:       make([]TankView, 0, len(snap.Tanks)),
		Projectiles: make([]ProjectileView, 0, len(snap.Projectiles)),
	}
	for _, t := range snap.Tanks {
		_, ai := m.ais[t.ID]
		tv := TankView{
			ID:           t.ID,
			X:            t.Pose.Pos.X,
			Y:            t.Pose.Pos.Y,
			Heading:      t.Pose.Heading,
			Health:       t.Health,
			Alive:        t.Alive,
			AI:           ai,
			Controllable: m.Controllable(t.ID),
			Radius:       t.Radius,
			Executor:     m.execs[t.ID].Status(),
			Stats:        m.arena.Stats(t.ID),
		}
		if m.field.CellSize > 0 {
			tv.Cell = CellName(t.Pose.Pos, m.field.CellSize, m.field.Cols, m.field.Rows)
		}
		v.Tanks = append(v.Tanks, tv)
	}
	for _, p := range snap.Projectiles {
		v.Projectiles = append(v.Projectiles, ProjectileView{Owner: p.Owner, X: p.Pos.X, Y: p.Pos.Y, Heading: p.Heading})
	}
	m.view.Store(v)
}
