package game

import (
	"fmt"
	"math"
)

// TankID identifies a tank. Matches always field tanks 1 and 2.
type TankID int

const (
	Tank1 TankID = 1
	Tank2 TankID = 2
)

func (id TankID) String() string { return fmt.Sprintf("T%d", int(id)) }

// Valid reports whether id names one of the two arena tanks.
func (id TankID) Valid() bool { return id == Tank1 || id == Tank2 }

// Opponent returns the other tank.
func (id TankID) Opponent() TankID {
	if id == Tank1 {
		return Tank2
	}
	return Tank1
}

// ShapeKind discriminates obstacle geometry.
type ShapeKind int

const (
	ShapeRect   ShapeKind = iota // axis-aligned box Min..Max
	ShapeCircle                  // Center + Radius
)

func (k ShapeKind) String() string {
	switch k {
	case ShapeRect:
		return "rect"
	case ShapeCircle:
		return "circle"
	default:
		return "unknown"
	}
}

// Obstacle is a static collision shape. Only the fields of its Shape are used.
type Obstacle struct {
	Shape  ShapeKind
	Min    Vec2 // rect
	Max    Vec2 // rect
	Center Vec2 // circle
	Radius float64
	Label  string // level type name, informational
}

// RectObstacle builds an axis-aligned box obstacle.
func RectObstacle(minX, minY, maxX, maxY float64) Obstacle {
	return Obstacle{Shape: ShapeRect, Min: Vec2{minX, minY}, Max: Vec2{maxX, maxY}}
}

// CircleObstacle builds a round obstacle.
func CircleObstacle(cx, cy, r float64) Obstacle {
	return Obstacle{Shape: ShapeCircle, Center: Vec2{cx, cy}, Radius: r}
}

// Valid rejects NaN/Inf coordinates and degenerate shapes.
func (o Obstacle) Valid() bool {
	switch o.Shape {
	case ShapeRect:
		return o.Min.Finite() && o.Max.Finite() && o.Max.X > o.Min.X && o.Max.Y > o.Min.Y
	case ShapeCircle:
		return o.Center.Finite() && finite(o.Radius) && o.Radius > 0
	default:
		return false
	}
}

// Bound returns a circle enclosing the obstacle, used for broad-phase culling.
func (o Obstacle) Bound() (Vec2, float64) {
	if o.Shape == ShapeCircle {
		return o.Center, o.Radius
	}
	c := Vec2{(o.Min.X + o.Max.X) / 2, (o.Min.Y + o.Max.Y) / 2}
	return c, Distance(c, o.Max)
}

// IntersectsSegment reports whether the segment a-b, swept by a circle of
// radius inflate, touches the obstacle. inflate=0 is a plain segment test.
func (o Obstacle) IntersectsSegment(a, b Vec2, inflate float64) bool {
	switch o.Shape {
	case ShapeCircle:
		return segmentPointDistance(a, b, o.Center) < o.Radius+inflate
	case ShapeRect:
		if inflate <= 0 {
			_, hit := segmentAABBHitT(a, b, o.Min, o.Max)
			return hit
		}
		return segmentRectDistance(a, b, o.Min, o.Max) < inflate
	}
	return false
}

// segmentRectDistance returns the shortest distance between segment a-b and
// the box minB..maxB, zero when they intersect.
func segmentRectDistance(a, b, minB, maxB Vec2) float64 {
	if _, hit := segmentAABBHitT(a, b, minB, maxB); hit {
		return 0
	}
	d := math.Min(pointRectDistance(a, minB, maxB), pointRectDistance(b, minB, maxB))
	corners := [4]Vec2{minB, {maxB.X, minB.Y}, maxB, {minB.X, maxB.Y}}
	for _, c := range corners {
		d = math.Min(d, segmentPointDistance(a, b, c))
	}
	return d
}

func pointRectDistance(p, minB, maxB Vec2) float64 {
	nx := math.Max(minB.X, math.Min(p.X, maxB.X))
	ny := math.Max(minB.Y, math.Min(p.Y, maxB.Y))
	return Distance(p, Vec2{nx, ny})
}

// OverlapsCircle reports whether a circle at c with radius r overlaps the obstacle.
func (o Obstacle) OverlapsCircle(c Vec2, r float64) bool {
	switch o.Shape {
	case ShapeCircle:
		return Distance(c, o.Center) < o.Radius+r
	case ShapeRect:
		return pointRectDistance(c, o.Min, o.Max) < r
	}
	return false
}

// Bounds is the playable rectangle, origin at the bottom-left corner.
type Bounds struct {
	Width, Height float64
}

// ContainsCircle reports whether a circle lies fully inside the arena.
func (b Bounds) ContainsCircle(c Vec2, r float64) bool {
	return c.X-r >= 0 && c.Y-r >= 0 && c.X+r <= b.Width && c.Y+r <= b.Height
}

// Contains reports whether a point lies inside the arena.
func (b Bounds) Contains(p Vec2) bool {
	return p.X >= 0 && p.Y >= 0 && p.X <= b.Width && p.Y <= b.Height
}

// TankState is the read-only view of one tank inside a WorldSnapshot.
type TankState struct {
	ID     TankID
	Pose   Pose
	Alive  bool
	Health int
	Radius float64
}

// Projectile is a shell in flight.
type Projectile struct {
	Owner   TankID
	Pos     Vec2
	Heading float64
}

// WorldSnapshot is the per-tick view handed to executors and AI controllers.
// It is built once per tick and never mutated by the core.
type WorldSnapshot struct {
	Tick        uint64
	Bounds      Bounds
	Tanks       []TankState
	Obstacles   []Obstacle
	Projectiles []Projectile
}

// Tank returns the state of a tank by id.
func (s *WorldSnapshot) Tank(id TankID) (TankState, bool) {
	for _, t := range s.Tanks {
		if t.ID == id {
			return t, true
		}
	}
	return TankState{}, false
}

// Others returns every tank except id.
func (s *WorldSnapshot) Others(id TankID) []TankState {
	out := make([]TankState, 0, len(s.Tanks))
	for _, t := range s.Tanks {
		if t.ID != id {
			out = append(out, t)
		}
	}
	return out
}

// IntentKind enumerates the instructions the core emits to the physics layer.
type IntentKind int

const (
	IntentSetHeading     IntentKind = iota // rotate by Amount degrees (positive = left)
	IntentTranslate                        // move Amount units along heading (negative = backward)
	IntentFireProjectile                   // fire the main gun
)

func (k IntentKind) String() string {
	switch k {
	case IntentSetHeading:
		return "set_heading"
	case IntentTranslate:
		return "translate"
	case IntentFireProjectile:
		return "fire"
	default:
		return "unknown"
	}
}

// Intent is one instruction for the physics/render collaborator.
type Intent struct {
	Kind   IntentKind
	Tank   TankID
	Amount float64
}

func (i Intent) String() string {
	if i.Kind == IntentFireProjectile {
		return fmt.Sprintf("%s %s", i.Tank, i.Kind)
	}
	return fmt.Sprintf("%s %s %.2f", i.Tank, i.Kind, i.Amount)
}

// IntentSink receives the intents produced during a tick.
//
//go:generate go run go.uber.org/mock/mockgen -destination=./mocks/intent_sink_mock.go -package=mocks . IntentSink
type IntentSink interface {
	Emit(Intent)
}

// IntentBuffer collects intents in emission order.
type IntentBuffer []Intent

// Emit appends an intent.
func (b *IntentBuffer) Emit(i Intent) { *b = append(*b, i) }

// Reset empties the buffer, keeping its capacity.
func (b *IntentBuffer) Reset() { *b = (*b)[:0] }

// ObstaclesFor returns the static obstacles plus every other live tank as a
// circle, i.e. everything tank id can collide with.
func (s *WorldSnapshot) ObstaclesFor(id TankID) []Obstacle {
	out := make([]Obstacle, 0, len(s.Obstacles)+len(s.Tanks))
	out = append(out, s.Obstacles...)
	for _, t := range s.Tanks {
		if t.ID == id || !t.Alive {
			continue
		}
		out = append(out, Obstacle{Shape: ShapeCircle, Center: t.Pose.Pos, Radius: t.Radius, Label: t.ID.String()})
	}
	return out
}
