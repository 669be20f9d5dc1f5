package game

import (
	"math"
	"strconv"
	"strings"
)

const (
	// DefaultStep is the distance of a move clause without a number.
	DefaultStep = 100.0
	// DefaultTurn is the angle of a turn clause without a number.
	DefaultTurn = 90.0
)

// ParserConfig holds the defaults used for clauses that omit their number.
type ParserConfig struct {
	DefaultStep float64 `mapstructure:"defaultStep"`
	DefaultTurn float64 `mapstructure:"defaultTurn"`
}

// DefaultParserConfig returns the stock defaults.
func DefaultParserConfig() ParserConfig {
	return ParserConfig{DefaultStep: DefaultStep, DefaultTurn: DefaultTurn}
}

// Parser turns free text such as "turn right 90 then shoot" into an ordered
// action list. A Parser holds no mutable state and may be shared across
// goroutines.
type Parser struct {
	step float64
	turn float64
}

// NewParser builds a parser. Non-positive defaults fall back to the stock values.
func NewParser(cfg ParserConfig) Parser {
	p := Parser{step: cfg.DefaultStep, turn: cfg.DefaultTurn}
	if !(p.step > 0) || math.IsInf(p.step, 0) {
		p.step = DefaultStep
	}
	if !(p.turn > 0) || math.IsInf(p.turn, 0) {
		p.turn = DefaultTurn
	}
	return p
}

var defaultParser = NewParser(DefaultParserConfig())

// Parse parses text with the stock defaults.
func Parse(text string) ([]Action, error) {
	return defaultParser.Parse(text)
}

var (
	moveVerbs = map[string]bool{"move": true, "go": true, "drive": true}
	turnVerbs = map[string]bool{"turn": true, "rotate": true}
	forwards  = map[string]bool{"forward": true, "forwards": true, "ahead": true}
	backwards = map[string]bool{"backward": true, "backwards": true, "back": true}
	moveUnits = map[string]bool{"units": true, "unit": true, "px": true, "pixels": true}
	turnUnits = map[string]bool{"degrees": true, "degree": true, "deg": true}
)

// Parse converts text into actions, one per clause, in order. Any clause that
// does not match the grammar fails the whole command; nothing is dropped.
func (p Parser) Parse(text string) ([]Action, error) {
	clauses, err := splitClauses(text)
	if err != nil {
		return nil, err
	}
	out := make([]Action, 0, len(clauses))
	for i, words := range clauses {
		a, err := p.parseClause(words)
		if err != nil {
			return nil, &ParseError{Clause: i, Text: strings.Join(words, " "), Err: err}
		}
		out = append(out, a)
	}
	return out, nil
}

// splitClauses lowercases and tokenizes text, then cuts it on separators.
// A separator is a run of an optional "," or ";", an optional "and" and an
// optional "then", in that order.
func splitClauses(text string) ([][]string, error) {
	text = strings.ToLower(text)
	text = strings.NewReplacer(",", " , ", ";", " ; ").Replace(text)
	tokens := strings.Fields(text)
	if len(tokens) == 0 {
		return nil, &ParseError{Clause: -1, Err: ErrEmptyCommand}
	}

	var clauses [][]string
	var cur []string
	flush := func(at int) error {
		if len(cur) == 0 {
			return &ParseError{Clause: len(clauses), Text: strings.Join(tokens[max(0, at-1):min(len(tokens), at+1)], " "), Err: ErrUnrecognized}
		}
		clauses = append(clauses, cur)
		cur = nil
		return nil
	}

	for i := 0; i < len(tokens); {
		n := separatorLen(tokens[i:])
		if n == 0 {
			cur = append(cur, tokens[i])
			i++
			continue
		}
		if err := flush(i); err != nil {
			return nil, err
		}
		i += n
	}
	if err := flush(len(tokens)); err != nil {
		return nil, err
	}
	return clauses, nil
}

func separatorLen(tokens []string) int {
	n := 0
	if n < len(tokens) && (tokens[n] == "," || tokens[n] == ";") {
		n++
	}
	if n < len(tokens) && tokens[n] == "and" {
		n++
	}
	if n < len(tokens) && tokens[n] == "then" {
		n++
	}
	return n
}

func (p Parser) parseClause(w []string) (Action, error) {
	switch {
	case len(w) == 1 && (w[0] == "shoot" || w[0] == "fire"):
		return Shoot(), nil

	case len(w) == 2 && turnVerbs[w[0]] && w[1] == "around":
		return TurnAround(), nil

	case len(w) >= 2 && turnVerbs[w[0]] && (w[1] == "left" || w[1] == "right"):
		deg, err := amount(w[2:], p.turn, turnUnits)
		if err != nil {
			return Action{}, err
		}
		if w[1] == "left" {
			return TurnLeft(deg), nil
		}
		return TurnRight(deg), nil

	case len(w) >= 2 && moveVerbs[w[0]] && (forwards[w[1]] || backwards[w[1]]):
		d, err := amount(w[2:], p.step, moveUnits)
		if err != nil {
			return Action{}, err
		}
		if forwards[w[1]] {
			return MoveForward(d), nil
		}
		return MoveBackward(d), nil
	}
	return Action{}, ErrUnrecognized
}

// amount reads the optional "<number> [unit]" tail of a clause.
func amount(rest []string, def float64, units map[string]bool) (float64, error) {
	if len(rest) == 0 {
		return def, nil
	}
	if len(rest) > 2 || (len(rest) == 2 && !units[rest[1]]) {
		return 0, ErrUnrecognized
	}
	tok := strings.TrimSuffix(rest[0], "°")
	if !looksNumeric(tok) {
		return 0, ErrUnrecognized
	}
	v, err := strconv.ParseFloat(tok, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
		return 0, ErrInvalidArgument
	}
	return v, nil
}

func looksNumeric(tok string) bool {
	if tok == "" {
		return false
	}
	c := tok[0]
	return (c >= '0' && c <= '9') || c == '-' || c == '+' || c == '.'
}
