package game

import (
	"fmt"
	"math"
	"reflect"
	"strings"
	"testing"

	"pgregory.net/rapid"
)

func TestNormalizeHeading_Property(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		deg := rapid.Float64Range(-1e5, 1e5).Draw(t, "deg")
		got := NormalizeHeading(deg)
		if got < 0 || got >= 360 {
			t.Fatalf("NormalizeHeading(%v) = %v, outside [0, 360)", deg, got)
		}
		if r := math.Abs(math.Remainder(got-deg, 360)); r > 1e-6 {
			t.Fatalf("NormalizeHeading(%v) = %v, not congruent (off by %v)", deg, got, r)
		}
	})
}

func TestNormalizeDelta_Property(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		deg := rapid.Float64Range(-1e5, 1e5).Draw(t, "deg")
		got := NormalizeDelta(deg)
		if got <= -180 || got > 180 {
			t.Fatalf("NormalizeDelta(%v) = %v, outside (-180, 180]", deg, got)
		}
		if r := math.Abs(math.Remainder(got-deg, 360)); r > 1e-6 {
			t.Fatalf("NormalizeDelta(%v) = %v, not congruent (off by %v)", deg, got, r)
		}
	})
}

func TestBearing_TurnFacesTarget(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		heading := rapid.Float64Range(0, 359.99).Draw(t, "heading")
		from := Vec2{rapid.Float64Range(-500, 500).Draw(t, "fx"), rapid.Float64Range(-500, 500).Draw(t, "fy")}
		to := Vec2{rapid.Float64Range(-500, 500).Draw(t, "tx"), rapid.Float64Range(-500, 500).Draw(t, "ty")}
		if Distance(from, to) < 1e-3 {
			t.Skip("coincident points")
		}
		after := NormalizeHeading(heading + Bearing(heading, from, to))
		if d := math.Abs(NormalizeDelta(after - DirectionTo(from, to))); d > 1e-6 {
			t.Fatalf("turning by bearing leaves %v degrees off target", d)
		}
	})
}

func TestCellNameCenter_RoundTrip(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		cols := rapid.IntRange(1, 60).Draw(t, "cols")
		rows := rapid.IntRange(1, 40).Draw(t, "rows")
		col := rapid.IntRange(0, cols-1).Draw(t, "col")
		row := rapid.IntRange(1, rows).Draw(t, "row")
		size := rapid.Float64Range(10, 200).Draw(t, "size")

		name := fmt.Sprintf("%s%d", columnLabel(col), row)
		c, err := CellCenter(name, size, cols, rows)
		if err != nil {
			t.Fatalf("CellCenter(%q): %v", name, err)
		}
		if got := CellName(c, size, cols, rows); got != name {
			t.Fatalf("CellName(CellCenter(%q)) = %q", name, got)
		}
	})
}

var clauseGen = rapid.Custom(func(t *rapid.T) clauseCase {
	n := rapid.IntRange(1, 720).Draw(t, "n")
	switch rapid.IntRange(0, 5).Draw(t, "kind") {
	case 0:
		return clauseCase{fmt.Sprintf("move forward %d", n), MoveForward(float64(n))}
	case 1:
		return clauseCase{fmt.Sprintf("move back %d", n), MoveBackward(float64(n))}
	case 2:
		return clauseCase{fmt.Sprintf("turn left %d", n), TurnLeft(float64(n))}
	case 3:
		return clauseCase{fmt.Sprintf("turn right %d", n), TurnRight(float64(n))}
	case 4:
		return clauseCase{"turn around", TurnAround()}
	default:
		return clauseCase{"shoot", Shoot()}
	}
})

type clauseCase struct {
	text string
	want Action
}

func TestParse_ClauseChains(t *testing.T) {
	seps := []string{" then ", ", ", "; ", " and then ", " and "}
	rapid.Check(t, func(t *rapid.T) {
		clauses := rapid.SliceOfN(clauseGen, 1, 8).Draw(t, "clauses")
		var sb strings.Builder
		want := make([]Action, 0, len(clauses))
		for i, c := range clauses {
			if i > 0 {
				sb.WriteString(rapid.SampledFrom(seps).Draw(t, "sep"))
			}
			sb.WriteString(c.text)
			want = append(want, c.want)
		}
		got, err := Parse(sb.String())
		if err != nil {
			t.Fatalf("Parse(%q): %v", sb.String(), err)
		}
		if !reflect.DeepEqual(got, want) {
			t.Fatalf("Parse(%q) = %v, want %v", sb.String(), got, want)
		}
	})
}
