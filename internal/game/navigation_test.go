package game

import (
	"errors"
	"math"
	"testing"
)

func approx(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func TestBearing_SignConvention(t *testing.T) {
	if got := Bearing(0, Vec2{0, 0}, Vec2{1, 1}); !approx(got, 45) {
		t.Fatalf("bearing to (1,1) at heading 0: got %v, want +45", got)
	}
	if got := Bearing(0, Vec2{0, 0}, Vec2{1, -1}); !approx(got, -45) {
		t.Fatalf("bearing to (1,-1) at heading 0: got %v, want -45", got)
	}
	if got := Bearing(90, Vec2{0, 0}, Vec2{1, 0}); !approx(got, -90) {
		t.Fatalf("bearing east while facing north: got %v, want -90", got)
	}
}

func TestBearing_BehindIsPlus180(t *testing.T) {
	if got := Bearing(0, Vec2{0, 0}, Vec2{-1, 0}); !approx(got, 180) {
		t.Fatalf("target straight behind: got %v, want 180", got)
	}
}

func TestNormalizeHeading(t *testing.T) {
	cases := map[float64]float64{0: 0, 360: 0, -90: 270, 725: 5, -360: 0, 359.5: 359.5}
	for in, want := range cases {
		if got := NormalizeHeading(in); !approx(got, want) {
			t.Fatalf("NormalizeHeading(%v) = %v, want %v", in, got, want)
		}
	}
}

func TestNormalizeDelta(t *testing.T) {
	cases := map[float64]float64{180: 180, -180: 180, 190: -170, -190: 170, 540: 180, 0: 0, 359: -1}
	for in, want := range cases {
		if got := NormalizeDelta(in); !approx(got, want) {
			t.Fatalf("NormalizeDelta(%v) = %v, want %v", in, got, want)
		}
	}
}

func TestDirectionTo_CoincidentIsZero(t *testing.T) {
	if got := DirectionTo(Vec2{3, 4}, Vec2{3, 4}); got != 0 {
		t.Fatalf("coincident points: got %v", got)
	}
	if got := DirectionTo(Vec2{0, 0}, Vec2{0, 5}); !approx(got, 90) {
		t.Fatalf("north: got %v, want 90", got)
	}
}

func TestLOS_ClearLine(t *testing.T) {
	if !HasLineOfSight(Vec2{0, 0}, Vec2{100, 100}, nil) {
		t.Fatal("expected clear LOS with no obstacles")
	}
}

func TestLOS_BlockedByRect(t *testing.T) {
	obs := []Obstacle{RectObstacle(40, 0, 60, 200)}
	if HasLineOfSight(Vec2{0, 100}, Vec2{200, 100}, obs) {
		t.Fatal("expected LOS blocked by rect")
	}
}

func TestLOS_RectBeyondEndpoint(t *testing.T) {
	obs := []Obstacle{RectObstacle(300, 0, 364, 64)}
	if !HasLineOfSight(Vec2{0, 32}, Vec2{200, 32}, obs) {
		t.Fatal("rect beyond endpoint should not block LOS")
	}
}

func TestLOS_DiagonalBlocked(t *testing.T) {
	obs := []Obstacle{RectObstacle(80, 80, 120, 120)}
	if HasLineOfSight(Vec2{0, 0}, Vec2{200, 200}, obs) {
		t.Fatal("diagonal ray should be blocked")
	}
}

func TestLOS_Circle(t *testing.T) {
	obs := []Obstacle{CircleObstacle(100, 0, 10)}
	if HasLineOfSight(Vec2{0, 0}, Vec2{200, 0}, obs) {
		t.Fatal("ray through circle should be blocked")
	}
	if !HasLineOfSight(Vec2{0, 20}, Vec2{200, 20}, obs) {
		t.Fatal("ray passing above circle should be clear")
	}
}

func TestLOS_ZeroLength(t *testing.T) {
	obs := []Obstacle{RectObstacle(0, 0, 100, 100)}
	// Point segment inside the box: must not panic.
	_ = HasLineOfSight(Vec2{50, 50}, Vec2{50, 50}, obs)
}

func TestInFieldOfView(t *testing.T) {
	p := Pose{Pos: Vec2{0, 0}, Heading: 0}
	if !InFieldOfView(p, Vec2{100, 10}, 90, 500) {
		t.Fatal("target slightly left of heading should be visible")
	}
	if InFieldOfView(p, Vec2{-100, 0}, 90, 500) {
		t.Fatal("target behind should not be visible")
	}
	if InFieldOfView(p, Vec2{600, 0}, 90, 500) {
		t.Fatal("target beyond range should not be visible")
	}
}

func TestCellName_RowsFromTop(t *testing.T) {
	// 18x12 grid of 100px cells, y-up world.
	if got := CellName(Vec2{50, 1150}, 100, 18, 12); got != "A1" {
		t.Fatalf("top-left cell: got %s", got)
	}
	if got := CellName(Vec2{150, 50}, 100, 18, 12); got != "B12" {
		t.Fatalf("bottom row: got %s", got)
	}
	if got := CellName(Vec2{-20, 5000}, 100, 18, 12); got != "A1" {
		t.Fatalf("clamped: got %s", got)
	}
}

func TestCellCenter_RoundTrip(t *testing.T) {
	c, err := CellCenter("i6", 100, 18, 12)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c != (Vec2{850, 650}) {
		t.Fatalf("I6 centre: got %+v", c)
	}
	if got := CellName(c, 100, 18, 12); got != "I6" {
		t.Fatalf("round trip: got %s", got)
	}
}

func TestCellCenter_Invalid(t *testing.T) {
	for _, name := range []string{"", "6", "A", "A13", "T1", "A0"} {
		if _, err := CellCenter(name, 100, 18, 12); !errors.Is(err, ErrInvalidArgument) {
			t.Fatalf("CellCenter(%q): want ErrInvalidArgument, got %v", name, err)
		}
	}
}
