package game

import (
	"math"

	"github.com/rs/zerolog"
)

// AIConfig tunes the autonomous planner.
type AIConfig struct {
	ReplanAngle    float64 `mapstructure:"replanAngle"`    // degrees of target drift tolerated
	ReplanDistance float64 `mapstructure:"replanDistance"` // pixels of target displacement tolerated
	FireTolerance  float64 `mapstructure:"fireTolerance"`  // largest bearing left uncorrected before firing
	AdvanceStep    float64 `mapstructure:"advanceStep"`    // longest move per plan
	Standoff       float64 `mapstructure:"standoff"`       // preferred engagement distance
	StartupTicks   int     `mapstructure:"startupTicks"`   // ticks before the AI acts
	SightRange     float64 `mapstructure:"sightRange"`     // 0 = unlimited
	FieldOfView    float64 `mapstructure:"fieldOfView"`    // degrees; 0 or 360 = all round
}

// DefaultAIConfig returns the stock planner settings. StartupTicks gives the
// opponent five seconds at 30 ticks per second.
func DefaultAIConfig() AIConfig {
	return AIConfig{
		ReplanAngle:    10,
		ReplanDistance: 40,
		FireTolerance:  4,
		AdvanceStep:    120,
		Standoff:       260,
		StartupTicks:   150,
	}
}

// plan remembers what the current queue was built against.
type plan struct {
	target    TankID
	targetPos Vec2
	los       bool
	tick      uint64
}

// Controller drives one tank autonomously. It never mutates the world; plans
// are handed to the tank's Executor, which executes them exactly as it would a
// parsed text command.
type Controller struct {
	tank    TankID
	exec    *Executor
	avoider *Avoider
	cfg     AIConfig
	log     zerolog.Logger

	current *plan
	ticks   int
}

// NewController builds a controller for the executor's tank.
func NewController(exec *Executor, avoider *Avoider, cfg AIConfig, log zerolog.Logger) *Controller {
	def := DefaultAIConfig()
	if !(cfg.ReplanAngle > 0) {
		cfg.ReplanAngle = def.ReplanAngle
	}
	if !(cfg.ReplanDistance > 0) {
		cfg.ReplanDistance = def.ReplanDistance
	}
	if !(cfg.FireTolerance >= 0) {
		cfg.FireTolerance = def.FireTolerance
	}
	if !(cfg.AdvanceStep > 0) {
		cfg.AdvanceStep = def.AdvanceStep
	}
	if !(cfg.Standoff >= 0) {
		cfg.Standoff = def.Standoff
	}
	if cfg.StartupTicks < 0 {
		cfg.StartupTicks = 0
	}
	if avoider == nil {
		avoider = NewAvoider(DefaultAvoidanceConfig())
	}
	return &Controller{
		tank:    exec.Tank(),
		exec:    exec,
		avoider: avoider,
		cfg:     cfg,
		log:     log.With().Stringer("tank", exec.Tank()).Str("component", "ai").Logger(),
	}
}

// Tank returns the controlled tank.
func (c *Controller) Tank() TankID { return c.tank }

// Update runs the planner for one tick and reports whether a new plan was
// submitted.
func (c *Controller) Update(snap *WorldSnapshot) bool {
	c.ticks++
	if c.ticks <= c.cfg.StartupTicks {
		return false
	}
	me, ok := snap.Tank(c.tank)
	if !ok || !me.Alive || !me.Pose.Valid() {
		return false
	}
	goal, ok := c.pickGoal(snap, me)
	if !ok {
		c.current = nil
		return false
	}

	los := c.sees(snap, me, goal)
	if !c.needsReplan(me, goal, los) {
		return false
	}

	actions := c.synthesize(snap, me, goal, los)
	if len(actions) == 0 {
		// Hold position and look again next tick.
		if c.exec.State() != ExecIdle {
			c.exec.Submit(nil)
		}
		c.current = nil
		return false
	}

	c.exec.Submit(actions)
	c.current = &plan{target: goal.ID, targetPos: goal.Pose.Pos, los: los, tick: snap.Tick}
	c.log.Debug().Uint64("tick", snap.Tick).Stringer("target", goal.ID).Bool("los", los).
		Str("plan", FormatActions(actions)).Msg("replanned")
	return true
}

// pickGoal returns the nearest live opponent.
func (c *Controller) pickGoal(snap *WorldSnapshot, me TankState) (TankState, bool) {
	var best TankState
	bestDist := math.Inf(1)
	for _, t := range snap.Others(c.tank) {
		if !t.Alive || !t.Pose.Valid() {
			continue
		}
		if d := Distance(me.Pose.Pos, t.Pose.Pos); d < bestDist {
			best, bestDist = t, d
		}
	}
	return best, !math.IsInf(bestDist, 1)
}

// sees reports whether goal is within sight range, inside the view cone and
// not hidden behind an obstacle.
func (c *Controller) sees(snap *WorldSnapshot, me, goal TankState) bool {
	maxRange := math.Inf(1)
	if c.cfg.SightRange > 0 {
		maxRange = c.cfg.SightRange
	}
	if Distance(me.Pose.Pos, goal.Pose.Pos) > maxRange {
		return false
	}
	if fov := c.cfg.FieldOfView; fov > 0 && fov < 360 && !InFieldOfView(me.Pose, goal.Pose.Pos, fov, maxRange) {
		return false
	}
	return HasLineOfSight(me.Pose.Pos, goal.Pose.Pos, snap.Obstacles)
}

func (c *Controller) needsReplan(me, goal TankState, los bool) bool {
	p := c.current
	switch {
	case p == nil, p.target != goal.ID:
		return true
	case c.exec.State() == ExecIdle, c.exec.State() == ExecBlocked:
		return true
	case p.los != los:
		return true
	case Distance(goal.Pose.Pos, p.targetPos) > c.cfg.ReplanDistance:
		return true
	}
	drift := NormalizeDelta(DirectionTo(me.Pose.Pos, goal.Pose.Pos) - DirectionTo(me.Pose.Pos, p.targetPos))
	return math.Abs(drift) > c.cfg.ReplanAngle
}

// synthesize builds the action list: face the target, fire if it is visible,
// then close to standoff range around whatever is in the way.
func (c *Controller) synthesize(snap *WorldSnapshot, me, goal TankState, los bool) []Action {
	var out []Action
	if b := Bearing(me.Pose.Heading, me.Pose.Pos, goal.Pose.Pos); math.Abs(b) > c.cfg.FireTolerance {
		out = append(out, Turn(b))
	}
	if los {
		out = append(out, Shoot())
	}

	dist := Distance(me.Pose.Pos, goal.Pose.Pos)
	if dist <= c.cfg.Standoff {
		return out
	}
	step := math.Min(c.cfg.AdvanceStep, dist-c.cfg.Standoff)
	target := goal.Pose.Pos
	v := c.avoider.Check(Probe{
		From:     me.Pose.Pos,
		Heading:  DirectionTo(me.Pose.Pos, target),
		Distance: step,
		Radius:   me.Radius,
		Target:   &target,
	}, snap.ObstaclesFor(c.tank), snap.Bounds)

	switch v.Kind {
	case VerdictClear:
		out = append(out, MoveForward(step))
	case VerdictSteer:
		out = append(out, Turn(v.Delta), MoveForward(step))
	case VerdictBlocked:
	}
	return out
}
