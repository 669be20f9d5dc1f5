package game

import (
	"math"

	"github.com/rs/zerolog"
)

const (
	completionEpsilon = 1e-9 // float error when the last step lands on the target
	moveTolerance     = 1e-6 // float slack when comparing observed displacement
)

// ExecState is the high-level state of an Executor.
type ExecState int

const (
	ExecIdle      ExecState = iota // empty queue
	ExecExecuting                  // advancing the head of the queue
	ExecBlocked                    // head is a move whose path stayed obstructed
)

func (s ExecState) String() string {
	switch s {
	case ExecIdle:
		return "idle"
	case ExecExecuting:
		return "executing"
	case ExecBlocked:
		return "blocked"
	default:
		return "unknown"
	}
}

// MarshalText renders the state name.
func (s ExecState) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// ExecEvent describes what one Tick did.
type ExecEvent int

const (
	EventNoQueue      ExecEvent = iota // ticked while idle; nothing emitted
	EventProgress                      // head advanced, not finished
	EventCompleted                     // head finished, more queued
	EventQueueDrained                  // head finished, queue now empty
	EventObstructed                    // move could not advance this tick
	EventBlocked                       // executor entered ExecBlocked
	EventResumed                       // left ExecBlocked and advanced
	EventTankDown                      // tank missing or destroyed; queue kept
)

func (e ExecEvent) String() string {
	switch e {
	case EventNoQueue:
		return "no_queue"
	case EventProgress:
		return "progress"
	case EventCompleted:
		return "completed"
	case EventQueueDrained:
		return "queue_drained"
	case EventObstructed:
		return "obstructed"
	case EventBlocked:
		return "blocked"
	case EventResumed:
		return "resumed"
	case EventTankDown:
		return "tank_down"
	default:
		return "unknown"
	}
}

// StepResult reports the outcome of one Tick.
type StepResult struct {
	Event  ExecEvent
	Action Action    // action the event refers to, zero for EventNoQueue
	State  ExecState // state after the tick
}

// ExecutorConfig holds the per-tick motion limits.
type ExecutorConfig struct {
	MoveSpeed         float64 `mapstructure:"moveSpeed"`         // units per tick
	TurnRate          float64 `mapstructure:"turnRate"`          // degrees per tick
	BlockedAfterTicks int     `mapstructure:"blockedAfterTicks"` // obstructed ticks tolerated before ExecBlocked
}

// DefaultExecutorConfig uses the tank physics of the original arena
// (6px and 3 degrees per frame).
func DefaultExecutorConfig() ExecutorConfig {
	return ExecutorConfig{MoveSpeed: 6, TurnRate: 3, BlockedAfterTicks: 15}
}

// ExecutorStatus is a copy of an executor's queue state for reporting.
type ExecutorStatus struct {
	Tank            TankID         `json:"tank"`
	State           ExecState      `json:"state"`
	Current         *Action        `json:"current,omitempty"`
	Progress        ActionProgress `json:"progress"`
	Pending         []Action       `json:"pending"`
	ObstructedTicks int            `json:"obstructedTicks"`
	Generation      uint64         `json:"generation"`
}

// Executor owns one tank's ActionQueue and ActionProgress and advances them a
// tick at a time. It never parses text and never mutates the world: all
// motion leaves through the IntentSink.
type Executor struct {
	tank    TankID
	cfg     ExecutorConfig
	avoider *Avoider
	log     zerolog.Logger

	state      ExecState
	queue      []Action // queue[0] is the action in flight
	progress   ActionProgress
	obstructed int
	generation uint64
	sent       *sentMove // last translate, unconfirmed until a later snapshot
}

// sentMove remembers a translate so the next snapshot can confirm it.
type sentMove struct {
	action    Action
	from      Vec2
	step      float64
	done      float64 // progress credited including step
	tick      uint64
	completed bool // the translate finished its action
}

// NewExecutor returns an idle executor for tank.
func NewExecutor(tank TankID, cfg ExecutorConfig, avoider *Avoider, log zerolog.Logger) *Executor {
	def := DefaultExecutorConfig()
	if !(cfg.MoveSpeed > 0) {
		cfg.MoveSpeed = def.MoveSpeed
	}
	if !(cfg.TurnRate > 0) {
		cfg.TurnRate = def.TurnRate
	}
	if cfg.BlockedAfterTicks < 0 {
		cfg.BlockedAfterTicks = def.BlockedAfterTicks
	}
	if avoider == nil {
		avoider = NewAvoider(DefaultAvoidanceConfig())
	}
	return &Executor{
		tank:    tank,
		cfg:     cfg,
		avoider: avoider,
		log:     log.With().Stringer("tank", tank).Logger(),
	}
}

// Tank returns the tank this executor drives.
func (e *Executor) Tank() TankID { return e.tank }

// State returns the current state.
func (e *Executor) State() ExecState { return e.state }

// Generation increases on every Submit.
func (e *Executor) Generation() uint64 { return e.generation }

// Pending returns a copy of the queue, in-flight action first.
func (e *Executor) Pending() []Action {
	out := make([]Action, len(e.queue))
	copy(out, e.queue)
	return out
}

// Progress returns the progress of the in-flight action.
func (e *Executor) Progress() ActionProgress { return e.progress }

// Status snapshots the queue for the query surface.
func (e *Executor) Status() ExecutorStatus {
	st := ExecutorStatus{
		Tank:            e.tank,
		State:           e.state,
		Progress:        e.progress,
		Pending:         []Action{},
		ObstructedTicks: e.obstructed,
		Generation:      e.generation,
	}
	if len(e.queue) > 0 {
		cur := e.queue[0]
		st.Current = &cur
		st.Pending = append(st.Pending, e.queue[1:]...)
	}
	return st
}

// Submit replaces the queue. The in-flight action and everything behind it
// are abandoned; the newest submission always wins. An empty submission
// leaves the executor idle.
func (e *Executor) Submit(actions []Action) {
	q := make([]Action, 0, len(actions))
	for _, a := range actions {
		if !actionValid(a) {
			e.log.Warn().Stringer("action", a).Msg("dropping malformed action")
			continue
		}
		q = append(q, a)
	}
	if len(e.queue) > 0 {
		e.log.Debug().Str("abandoned", FormatActions(e.queue)).Str("queue", FormatActions(q)).Msg("queue replaced")
	}
	e.queue = q
	e.progress = ActionProgress{}
	e.obstructed = 0
	e.generation++
	e.sent = nil
	if len(q) == 0 {
		e.state = ExecIdle
	} else {
		e.state = ExecExecuting
	}
}

func actionValid(a Action) bool {
	switch {
	case a.IsMove(), a.IsTurn():
		return a.amount > 0 && !math.IsInf(a.amount, 0)
	case a.kind == ActionShoot:
		return true
	}
	return false
}

// Tick advances the in-flight action by one tick against snap, emitting the
// resulting intents to sink.
func (e *Executor) Tick(snap *WorldSnapshot, sink IntentSink) StepResult {
	me, ok := snap.Tank(e.tank)
	if !ok || !me.Alive {
		return StepResult{Event: EventTankDown, State: e.state}
	}
	e.reconcile(snap, me)
	if len(e.queue) == 0 {
		e.state = ExecIdle
		return StepResult{Event: EventNoQueue, State: e.state}
	}

	cur := e.queue[0]
	switch cur.kind {
	case ActionShoot:
		sink.Emit(Intent{Kind: IntentFireProjectile, Tank: e.tank})
		return e.complete(cur)

	case ActionTurnLeft, ActionTurnRight, ActionTurnAround:
		step := math.Min(e.cfg.TurnRate, e.progress.Remaining(cur))
		delta := step
		if cur.kind == ActionTurnRight {
			delta = -step
		}
		sink.Emit(Intent{Kind: IntentSetHeading, Tank: e.tank, Amount: delta})
		e.progress.Done += step
		if e.progress.Remaining(cur) <= completionEpsilon {
			return e.complete(cur)
		}
		return StepResult{Event: EventProgress, Action: cur, State: e.state}

	case ActionMoveForward, ActionMoveBackward:
		return e.tickMove(snap, me, cur, sink)
	}

	// Unreachable for queues built through Submit.
	return e.complete(cur)
}

func (e *Executor) tickMove(snap *WorldSnapshot, me TankState, cur Action, sink IntentSink) StepResult {
	step := math.Min(e.cfg.MoveSpeed, e.progress.Remaining(cur))
	heading, sign := me.Pose.Heading, 1.0
	if cur.kind == ActionMoveBackward {
		heading, sign = heading+180, -1.0
	}

	v := e.avoider.Check(Probe{
		From:     me.Pose.Pos,
		Heading:  heading,
		Distance: step,
		Radius:   me.Radius,
	}, snap.ObstaclesFor(e.tank), snap.Bounds)

	// Steer counts as obstructed: human moves run straight, only the AI steers.
	if v.Kind != VerdictClear {
		e.obstructed++
		if e.state == ExecExecuting && e.obstructed > e.cfg.BlockedAfterTicks {
			e.state = ExecBlocked
			e.log.Info().Stringer("action", cur).Int("ticks", e.obstructed).
				Float64("done", e.progress.Done).Msg("executor blocked")
			return StepResult{Event: EventBlocked, Action: cur, State: e.state}
		}
		return StepResult{Event: EventObstructed, Action: cur, State: e.state}
	}

	resumed := e.state == ExecBlocked
	if resumed {
		e.state = ExecExecuting
		e.log.Info().Stringer("action", cur).Int("ticks", e.obstructed).Msg("executor resumed")
	}
	e.obstructed = 0

	sink.Emit(Intent{Kind: IntentTranslate, Tank: e.tank, Amount: sign * step})
	e.progress.Done += step
	e.sent = &sentMove{action: cur, from: me.Pose.Pos, step: step, done: e.progress.Done, tick: snap.Tick}
	if e.progress.Remaining(cur) <= completionEpsilon {
		e.sent.completed = true
		return e.complete(cur)
	}
	if resumed {
		return StepResult{Event: EventResumed, Action: cur, State: e.state}
	}
	return StepResult{Event: EventProgress, Action: cur, State: e.state}
}

// reconcile credits the last translate only as far as the tank actually
// moved. A move the arena refused, e.g. because the other tank got there
// first in the same tick, is rolled back and its action put back in flight.
// Snapshots no newer than the translate carry no evidence and are ignored.
func (e *Executor) reconcile(snap *WorldSnapshot, me TankState) {
	s := e.sent
	if s == nil || snap.Tick <= s.tick {
		return
	}
	e.sent = nil
	short := s.step - Distance(s.from, me.Pose.Pos)
	if short <= moveTolerance {
		return
	}
	if s.completed {
		e.queue = append([]Action{s.action}, e.queue...)
		e.state = ExecExecuting
	}
	e.progress.Done = math.Max(0, s.done-short)
	e.log.Debug().Stringer("action", s.action).Float64("short", short).
		Float64("done", e.progress.Done).Msg("translate refused")
}

// complete pops the head of the queue and resets progress.
func (e *Executor) complete(cur Action) StepResult {
	e.queue = e.queue[1:]
	e.progress = ActionProgress{}
	e.obstructed = 0
	if len(e.queue) == 0 {
		e.queue = nil
		e.state = ExecIdle
		return StepResult{Event: EventQueueDrained, Action: cur, State: e.state}
	}
	e.state = ExecExecuting
	return StepResult{Event: EventCompleted, Action: cur, State: e.state}
}
