package game

import "math"

// AvoidanceConfig tunes the forward probe and the steering search.
type AvoidanceConfig struct {
	ProbeLength float64 `mapstructure:"probeLength"` // longest probe, pixels
	StepAngle   float64 `mapstructure:"stepAngle"`   // offset increment, degrees
	MaxAngle    float64 `mapstructure:"maxAngle"`    // largest offset tried, degrees
}

// DefaultAvoidanceConfig mirrors the sensor ring of the original arena:
// a 170px probe and side offsets out to 90 degrees.
func DefaultAvoidanceConfig() AvoidanceConfig {
	return AvoidanceConfig{ProbeLength: 170, StepAngle: 15, MaxAngle: 90}
}

// VerdictKind is the outcome of an avoidance check.
type VerdictKind int

const (
	VerdictClear   VerdictKind = iota // straight path is free
	VerdictSteer                      // free after turning by Delta
	VerdictBlocked                    // nothing free within MaxAngle
)

func (k VerdictKind) String() string {
	switch k {
	case VerdictClear:
		return "clear"
	case VerdictSteer:
		return "steer"
	case VerdictBlocked:
		return "blocked"
	default:
		return "unknown"
	}
}

// Verdict is returned by Avoider.Check. Delta is only set for VerdictSteer and
// follows the Bearing sign convention (positive = left).
type Verdict struct {
	Kind  VerdictKind
	Delta float64
}

// Probe describes an intended straight motion.
type Probe struct {
	From     Vec2    // current position
	Heading  float64 // direction of travel, degrees
	Distance float64 // intended travel, capped at ProbeLength
	Radius   float64 // body radius swept along the probe
	Target   *Vec2   // optional; breaks ties toward it
}

// Avoider is a local, reactive obstacle check. It keeps no state between
// calls.
type Avoider struct {
	cfg AvoidanceConfig
}

// NewAvoider returns an avoider, filling unset config fields with defaults.
func NewAvoider(cfg AvoidanceConfig) *Avoider {
	def := DefaultAvoidanceConfig()
	if !(cfg.ProbeLength > 0) {
		cfg.ProbeLength = def.ProbeLength
	}
	if !(cfg.StepAngle > 0) {
		cfg.StepAngle = def.StepAngle
	}
	if !(cfg.MaxAngle > 0) {
		cfg.MaxAngle = def.MaxAngle
	}
	cfg.MaxAngle = math.Min(cfg.MaxAngle, 180)
	return &Avoider{cfg: cfg}
}

// Config returns the effective configuration.
func (a *Avoider) Config() AvoidanceConfig { return a.cfg }

// Check casts the probe through the obstacles. When the straight path is hit
// it tries offsets of StepAngle, 2*StepAngle, ... up to MaxAngle on both
// sides, the side that brings the heading closer to Target first (left when
// there is no target), and steers to the first clear one.
func (a *Avoider) Check(p Probe, obstacles []Obstacle, bounds Bounds) Verdict {
	length := math.Min(math.Max(p.Distance, 0), a.cfg.ProbeLength)
	near := nearbyObstacles(p.From, length+p.Radius, obstacles)

	if !sweepHits(p.From, p.Heading, length, p.Radius, near, bounds) {
		return Verdict{Kind: VerdictClear}
	}

	for mag := a.cfg.StepAngle; mag <= a.cfg.MaxAngle+1e-9; mag += a.cfg.StepAngle {
		first, second := mag, -mag
		if p.Target != nil {
			left := math.Abs(Bearing(p.Heading+mag, p.From, *p.Target))
			right := math.Abs(Bearing(p.Heading-mag, p.From, *p.Target))
			if right < left {
				first, second = -mag, mag
			}
		}
		for _, d := range [2]float64{first, second} {
			if !sweepHits(p.From, p.Heading+d, length, p.Radius, near, bounds) {
				return Verdict{Kind: VerdictSteer, Delta: d}
			}
		}
	}
	return Verdict{Kind: VerdictBlocked}
}

// nearbyObstacles keeps only obstacles whose bounding circle could be reached
// within reach of from.
func nearbyObstacles(from Vec2, reach float64, obstacles []Obstacle) []Obstacle {
	var out []Obstacle
	for _, o := range obstacles {
		c, r := o.Bound()
		if Distance(from, c) <= reach+r {
			out = append(out, o)
		}
	}
	return out
}

// sweepHits reports whether a circle of radius r moved length along heading
// touches an obstacle or leaves the arena.
func sweepHits(from Vec2, heading, length, r float64, obstacles []Obstacle, bounds Bounds) bool {
	end := from.Add(HeadingVector(heading).Scale(length))
	if bounds.Width > 0 && bounds.Height > 0 && !bounds.ContainsCircle(end, r) {
		return true
	}
	for i := range obstacles {
		if obstacles[i].IntersectsSegment(from, end, r) {
			return true
		}
	}
	return false
}
