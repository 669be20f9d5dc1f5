package game

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Vec2 is a world-space position. The world is y-up: +X east, +Y north.
type Vec2 struct {
	X, Y float64
}

// Add returns v+o.
func (v Vec2) Add(o Vec2) Vec2 { return Vec2{v.X + o.X, v.Y + o.Y} }

// Sub returns v-o.
func (v Vec2) Sub(o Vec2) Vec2 { return Vec2{v.X - o.X, v.Y - o.Y} }

// Scale returns v*k.
func (v Vec2) Scale(k float64) Vec2 { return Vec2{v.X * k, v.Y * k} }

// Len returns the Euclidean length of v.
func (v Vec2) Len() float64 { return math.Hypot(v.X, v.Y) }

// Finite reports whether both components are real numbers.
func (v Vec2) Finite() bool { return finite(v.X) && finite(v.Y) }

// Pose is a tank position plus heading in degrees, [0, 360), counter-clockwise from +X.
type Pose struct {
	Pos     Vec2
	Heading float64
}

// Valid reports whether the pose holds only finite values.
func (p Pose) Valid() bool { return p.Pos.Finite() && finite(p.Heading) }

// Forward returns the unit vector the pose is facing.
func (p Pose) Forward() Vec2 { return HeadingVector(p.Heading) }

func finite(f float64) bool { return !math.IsNaN(f) && !math.IsInf(f, 0) }

// Distance returns the Euclidean distance between a and b.
func Distance(a, b Vec2) float64 {
	return math.Hypot(b.X-a.X, b.Y-a.Y)
}

// HeadingVector returns the unit vector for a heading in degrees.
func HeadingVector(deg float64) Vec2 {
	rad := deg * math.Pi / 180
	return Vec2{math.Cos(rad), math.Sin(rad)}
}

// DirectionTo returns the absolute heading from one position toward another.
// Coincident points yield 0.
func DirectionTo(from, to Vec2) float64 {
	dx, dy := to.X-from.X, to.Y-from.Y
	if dx == 0 && dy == 0 {
		return 0
	}
	return NormalizeHeading(math.Atan2(dy, dx) * 180 / math.Pi)
}

// NormalizeHeading wraps an angle to [0, 360).
func NormalizeHeading(deg float64) float64 {
	a := math.Mod(deg, 360)
	if a < 0 {
		a += 360
	}
	if a >= 360 {
		a = 0
	}
	return a
}

// NormalizeDelta wraps a signed angle to (-180, 180].
func NormalizeDelta(deg float64) float64 {
	a := math.Mod(deg, 360)
	if a <= -180 {
		a += 360
	} else if a > 180 {
		a -= 360
	}
	return a
}

// Bearing returns the signed shortest turn from heading toward the direction of
// to as seen from from. Positive means turn left (counter-clockwise), negative
// means turn right. The result lies in (-180, 180].
func Bearing(heading float64, from, to Vec2) float64 {
	return NormalizeDelta(DirectionTo(from, to) - heading)
}

// HasLineOfSight returns true if the segment from a to b intersects no obstacle.
func HasLineOfSight(a, b Vec2, obstacles []Obstacle) bool {
	for i := range obstacles {
		if obstacles[i].IntersectsSegment(a, b, 0) {
			return false
		}
	}
	return true
}

// InFieldOfView reports whether target lies inside the cone of half-angle fov/2
// around the pose heading and no farther than maxRange.
func InFieldOfView(p Pose, target Vec2, fov, maxRange float64) bool {
	if Distance(p.Pos, target) > maxRange {
		return false
	}
	return math.Abs(Bearing(p.Heading, p.Pos, target)) < fov/2
}

// segmentAABBHitT returns the first segment parameter t in [0,1] where the line
// from o->e enters the box. The bool is false when no hit exists.
func segmentAABBHitT(o, e, minB, maxB Vec2) (float64, bool) {
	dx := e.X - o.X
	dy := e.Y - o.Y

	tMin := 0.0
	tMax := 1.0

	// X slab
	if math.Abs(dx) < 1e-12 {
		if o.X < minB.X || o.X > maxB.X {
			return 0, false
		}
	} else {
		invD := 1.0 / dx
		t1 := (minB.X - o.X) * invD
		t2 := (maxB.X - o.X) * invD
		if t1 > t2 {
			t1, t2 = t2, t1
		}
		tMin = math.Max(tMin, t1)
		tMax = math.Min(tMax, t2)
		if tMin > tMax {
			return 0, false
		}
	}

	// Y slab
	if math.Abs(dy) < 1e-12 {
		if o.Y < minB.Y || o.Y > maxB.Y {
			return 0, false
		}
	} else {
		invD := 1.0 / dy
		t1 := (minB.Y - o.Y) * invD
		t2 := (maxB.Y - o.Y) * invD
		if t1 > t2 {
			t1, t2 = t2, t1
		}
		tMin = math.Max(tMin, t1)
		tMax = math.Min(tMax, t2)
		if tMin > tMax {
			return 0, false
		}
	}

	if tMax < 0 || tMin > 1 {
		return 0, false
	}
	return tMin, true
}

// segmentPointDistance returns the distance from p to the closest point of segment a-b.
func segmentPointDistance(a, b, p Vec2) float64 {
	ab := b.Sub(a)
	l2 := ab.X*ab.X + ab.Y*ab.Y
	if l2 == 0 {
		return Distance(a, p)
	}
	t := ((p.X-a.X)*ab.X + (p.Y-a.Y)*ab.Y) / l2
	t = math.Max(0, math.Min(1, t))
	return Distance(a.Add(ab.Scale(t)), p)
}

// --- Grid notation ---
//
// Levels are authored on a grid with columns A.. left to right and rows 1..
// top to bottom. The world is y-up, so row 1 is the top band of the arena.

// CellName returns the grid label (e.g. "B5") of the cell containing pos.
// Positions outside the grid are clamped to the nearest edge cell.
func CellName(pos Vec2, cellSize float64, cols, rows int) string {
	col := int(math.Floor(pos.X / cellSize))
	rowFromBottom := int(math.Floor(pos.Y / cellSize))
	row := rows - 1 - rowFromBottom
	col = max(0, min(col, cols-1))
	row = max(0, min(row, rows-1))
	return fmt.Sprintf("%s%d", columnLabel(col), row+1)
}

// CellCenter returns the world-space centre of a labelled cell.
func CellCenter(name string, cellSize float64, cols, rows int) (Vec2, error) {
	name = strings.ToUpper(strings.TrimSpace(name))
	i := 0
	for i < len(name) && name[i] >= 'A' && name[i] <= 'Z' {
		i++
	}
	if i == 0 || i == len(name) {
		return Vec2{}, fmt.Errorf("cell %q: %w", name, ErrInvalidArgument)
	}
	col := 0
	for _, c := range name[:i] {
		col = col*26 + int(c-'A'+1)
	}
	col--
	row, err := strconv.Atoi(name[i:])
	if err != nil || row < 1 || row > rows || col >= cols {
		return Vec2{}, fmt.Errorf("cell %q out of %dx%d grid: %w", name, cols, rows, ErrInvalidArgument)
	}
	return Vec2{
		X: (float64(col) + 0.5) * cellSize,
		Y: (float64(rows-row) + 0.5) * cellSize,
	}, nil
}

func columnLabel(col int) string {
	label := ""
	for col >= 0 {
		label = string(rune('A'+col%26)) + label
		col = col/26 - 1
	}
	return label
}
