package game

import (
	"fmt"
	"strconv"
	"strings"
)

// ActionKind tags the closed set of atomic tank commands.
type ActionKind uint8

const (
	ActionMoveForward ActionKind = iota + 1
	ActionMoveBackward
	ActionTurnLeft
	ActionTurnRight
	ActionTurnAround
	ActionShoot
)

func (k ActionKind) String() string {
	switch k {
	case ActionMoveForward:
		return "MoveForward"
	case ActionMoveBackward:
		return "MoveBackward"
	case ActionTurnLeft:
		return "TurnLeft"
	case ActionTurnRight:
		return "TurnRight"
	case ActionTurnAround:
		return "TurnAround"
	case ActionShoot:
		return "Shoot"
	default:
		return "Unknown"
	}
}

// turnAroundDegrees is the fixed sweep of TurnAround.
const turnAroundDegrees = 180.0

// Action is one atomic command. Values are immutable: build them with the
// constructors below and read them through the accessors.
type Action struct {
	kind   ActionKind
	amount float64
}

// MoveForward drives d units along the current heading.
func MoveForward(d float64) Action { return Action{kind: ActionMoveForward, amount: d} }

// MoveBackward reverses d units against the current heading.
func MoveBackward(d float64) Action { return Action{kind: ActionMoveBackward, amount: d} }

// TurnLeft rotates counter-clockwise by deg degrees.
func TurnLeft(deg float64) Action { return Action{kind: ActionTurnLeft, amount: deg} }

// TurnRight rotates clockwise by deg degrees.
func TurnRight(deg float64) Action { return Action{kind: ActionTurnRight, amount: deg} }

// TurnAround rotates 180 degrees.
func TurnAround() Action { return Action{kind: ActionTurnAround, amount: turnAroundDegrees} }

// Shoot fires once.
func Shoot() Action { return Action{kind: ActionShoot} }

// Turn builds a TurnLeft for positive deltas and a TurnRight for negative ones,
// matching the sign convention of Bearing.
func Turn(delta float64) Action {
	if delta >= 0 {
		return TurnLeft(delta)
	}
	return TurnRight(-delta)
}

// Kind returns the variant tag.
func (a Action) Kind() ActionKind { return a.kind }

// Amount returns the distance (moves) or degrees (turns). Shoot has none.
func (a Action) Amount() float64 { return a.amount }

// IsMove reports whether the action translates the tank.
func (a Action) IsMove() bool {
	return a.kind == ActionMoveForward || a.kind == ActionMoveBackward
}

// IsTurn reports whether the action rotates the tank.
func (a Action) IsTurn() bool {
	return a.kind == ActionTurnLeft || a.kind == ActionTurnRight || a.kind == ActionTurnAround
}

func (a Action) String() string {
	switch a.kind {
	case ActionShoot, ActionTurnAround:
		return a.kind.String()
	default:
		return fmt.Sprintf("%s(%s)", a.kind, strconv.FormatFloat(a.amount, 'f', -1, 64))
	}
}

// MarshalText renders the action in its String form.
func (a Action) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// FormatActions joins a queue for logs and reports: "[TurnRight(90) Shoot]".
func FormatActions(actions []Action) string {
	parts := make([]string, len(actions))
	for i, a := range actions {
		parts[i] = a.String()
	}
	return "[" + strings.Join(parts, " ") + "]"
}

// ActionProgress tracks how much of the current action is done.
type ActionProgress struct {
	Done float64 `json:"done"` // units travelled or degrees turned
}

// Remaining returns what is left of a for this progress, never negative.
func (p ActionProgress) Remaining(a Action) float64 {
	r := a.amount - p.Done
	if r < 0 {
		return 0
	}
	return r
}
