// Package level loads arena layouts authored on a cell grid and converts them
// into the continuous y-up field the simulation runs on.
package level

import (
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/Garsondee/Tank-Arena/internal/game"
)

//go:embed levels/*.json
var builtin embed.FS

// ErrInvalidLevel is wrapped by every validation failure.
var ErrInvalidLevel = errors.New("invalid level")

// Grid is the authoring grid. Rows are counted from the top.
type Grid struct {
	Columns  int     `json:"columns"`
	Rows     int     `json:"rows"`
	CellSize float64 `json:"cell_size"`
}

// Placement puts one obstacle on the grid. Span is [columns, rows]; when
// omitted the type's default span is used.
type Placement struct {
	Type string `json:"type"`
	Col  int    `json:"col"`
	Row  int    `json:"row"`
	Span []int  `json:"span,omitempty"`
}

// Spawn is a tank start cell.
type Spawn struct {
	Col    int    `json:"col"`
	Row    int    `json:"row"`
	Facing string `json:"facing"`
}

// Level is the on-disk layout.
type Level struct {
	Name      string           `json:"name"`
	Version   int              `json:"version"`
	Grid      Grid             `json:"grid"`
	Terrain   [][]string       `json:"terrain,omitempty"`
	Obstacles []Placement      `json:"obstacles"`
	Spawns    map[string]Spawn `json:"spawns"`
}

type obstacleDef struct {
	spanW, spanH int
	blocks       bool
	round        bool    // circle instead of box
	fill         float64 // fraction of the span the body occupies
}

var obstacleDefs = map[string]obstacleDef{
	"barrel_green":  {1, 1, true, true, 0.7},
	"barrel_grey":   {1, 1, true, true, 0.7},
	"barrel_red":    {1, 1, true, true, 0.7},
	"sandbag_beige": {1, 1, true, false, 0.9},
	"sandbag_brown": {1, 1, true, false, 0.9},
	"tree_large":    {2, 2, true, true, 0.9},
	"tree_small":    {1, 1, true, true, 0.8},
	"oil":           {2, 2, false, true, 0.9},
}

var terrainTypes = map[string]bool{"grass": true, "dirt": true, "sand": true}

var facings = map[string]float64{"right": 0, "up": 90, "left": 180, "down": 270}

var spawnKeys = map[game.TankID]string{game.Tank1: "player1", game.Tank2: "player2"}

// Parse decodes and validates a level.
func Parse(data []byte) (*Level, error) {
	var l Level
	if err := json.Unmarshal(data, &l); err != nil {
		return nil, fmt.Errorf("decoding level: %w", err)
	}
	if l.Name == "" {
		l.Name = "Untitled"
	}
	if l.Version == 0 {
		l.Version = 1
	}
	if err := l.Validate(); err != nil {
		return nil, err
	}
	return &l, nil
}

// Load reads a level file.
func Load(path string) (*Level, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading level %s: %w", path, err)
	}
	l, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("level %s: %w", path, err)
	}
	return l, nil
}

// Default returns the embedded Crossroads level.
func Default() (*Level, error) {
	data, err := builtin.ReadFile("levels/default.json")
	if err != nil {
		return nil, fmt.Errorf("reading embedded level: %w", err)
	}
	return Parse(data)
}

// LoadOrDefault loads path, or the embedded level when path is empty.
func LoadOrDefault(path string) (*Level, error) {
	if path == "" {
		return Default()
	}
	return Load(path)
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidLevel, fmt.Sprintf(format, args...))
}

// Validate checks grid dimensions, obstacle types and placement, terrain
// shape and spawns.
func (l *Level) Validate() error {
	g := l.Grid
	if g.Columns <= 0 || g.Rows <= 0 || !(g.CellSize > 0) {
		return invalid("grid %dx%d cell %v", g.Columns, g.Rows, g.CellSize)
	}
	if len(l.Terrain) > 0 {
		if len(l.Terrain) != g.Rows {
			return invalid("terrain has %d rows, grid has %d", len(l.Terrain), g.Rows)
		}
		for r, row := range l.Terrain {
			if len(row) != g.Columns {
				return invalid("terrain row %d has %d cells, grid has %d", r, len(row), g.Columns)
			}
			for c, t := range row {
				if !terrainTypes[t] {
					return invalid("terrain %q at col %d row %d", t, c, r)
				}
			}
		}
	}
	for i, p := range l.Obstacles {
		if _, ok := obstacleDefs[p.Type]; !ok {
			return invalid("obstacle %d: unknown type %q", i, p.Type)
		}
		if len(p.Span) != 0 && len(p.Span) != 2 {
			return invalid("obstacle %d: span must be [columns, rows]", i)
		}
		w, h := l.span(p)
		if w <= 0 || h <= 0 || p.Col < 0 || p.Row < 0 || p.Col+w > g.Columns || p.Row+h > g.Rows {
			return invalid("obstacle %d (%s) at col %d row %d span %dx%d leaves the grid", i, p.Type, p.Col, p.Row, w, h)
		}
	}
	for _, id := range []game.TankID{game.Tank1, game.Tank2} {
		key := spawnKeys[id]
		s, ok := l.Spawns[key]
		if !ok {
			return invalid("missing spawn %s", key)
		}
		if _, ok := facings[s.Facing]; !ok {
			return invalid("spawn %s: facing %q", key, s.Facing)
		}
		if s.Col < 0 || s.Row < 0 || s.Col >= g.Columns || s.Row >= g.Rows {
			return invalid("spawn %s at col %d row %d leaves the grid", key, s.Col, s.Row)
		}
		if l.blocked(s.Col, s.Row) {
			return invalid("spawn %s at col %d row %d is inside an obstacle", key, s.Col, s.Row)
		}
	}
	return nil
}

func (l *Level) span(p Placement) (int, int) {
	if len(p.Span) == 2 {
		return p.Span[0], p.Span[1]
	}
	d := obstacleDefs[p.Type]
	return d.spanW, d.spanH
}

// blocked reports whether a blocking obstacle covers the cell.
func (l *Level) blocked(col, row int) bool {
	for _, p := range l.Obstacles {
		if !obstacleDefs[p.Type].blocks {
			continue
		}
		w, h := l.span(p)
		if col >= p.Col && col < p.Col+w && row >= p.Row && row < p.Row+h {
			return true
		}
	}
	return false
}

// Bounds returns the arena size in pixels.
func (l *Level) Bounds() game.Bounds {
	return game.Bounds{
		Width:  float64(l.Grid.Columns) * l.Grid.CellSize,
		Height: float64(l.Grid.Rows) * l.Grid.CellSize,
	}
}

// cellRect converts a grid block into world min/max corners (y-up).
func (l *Level) cellRect(col, row, w, h int) (game.Vec2, game.Vec2) {
	cs := l.Grid.CellSize
	top := float64(l.Grid.Rows-row) * cs
	return game.Vec2{X: float64(col) * cs, Y: top - float64(h)*cs},
		game.Vec2{X: float64(col+w) * cs, Y: top}
}

// shape builds the world obstacle for a placement.
func (l *Level) shape(p Placement) game.Obstacle {
	d := obstacleDefs[p.Type]
	w, h := l.span(p)
	lo, hi := l.cellRect(p.Col, p.Row, w, h)
	c := game.Vec2{X: (lo.X + hi.X) / 2, Y: (lo.Y + hi.Y) / 2}
	if d.round {
		r := min(hi.X-lo.X, hi.Y-lo.Y) / 2 * d.fill
		o := game.CircleObstacle(c.X, c.Y, r)
		o.Label = p.Type
		return o
	}
	hw, hh := (hi.X-lo.X)/2*d.fill, (hi.Y-lo.Y)/2*d.fill
	o := game.RectObstacle(c.X-hw, c.Y-hh, c.X+hw, c.Y+hh)
	o.Label = p.Type
	return o
}

// Obstacles returns the blocking obstacles in world space.
func (l *Level) Obstacles() []game.Obstacle {
	out := make([]game.Obstacle, 0, len(l.Obstacles))
	for _, p := range l.Obstacles {
		if obstacleDefs[p.Type].blocks {
			out = append(out, l.shape(p))
		}
	}
	return out
}

// Decals returns passable placements such as oil, for drawing only.
func (l *Level) Decals() []game.Obstacle {
	var out []game.Obstacle
	for _, p := range l.Obstacles {
		if !obstacleDefs[p.Type].blocks {
			out = append(out, l.shape(p))
		}
	}
	return out
}

// SpawnPose returns the world pose of a tank's spawn.
func (l *Level) SpawnPose(id game.TankID) (game.Pose, bool) {
	s, ok := l.Spawns[spawnKeys[id]]
	if !ok {
		return game.Pose{}, false
	}
	lo, hi := l.cellRect(s.Col, s.Row, 1, 1)
	return game.Pose{
		Pos:     game.Vec2{X: (lo.X + hi.X) / 2, Y: (lo.Y + hi.Y) / 2},
		Heading: facings[s.Facing],
	}, true
}

// TerrainAt returns the terrain type of a cell, "grass" when unset.
func (l *Level) TerrainAt(col, row int) string {
	if row < 0 || row >= len(l.Terrain) || col < 0 || col >= len(l.Terrain[row]) {
		return "grass"
	}
	return l.Terrain[row][col]
}

// Field converts the level into the simulation's battlefield.
func (l *Level) Field() game.Field {
	spawns := make(map[game.TankID]game.Pose, 2)
	for id := range spawnKeys {
		if p, ok := l.SpawnPose(id); ok {
			spawns[id] = p
		}
	}
	return game.Field{
		Name:      l.Name,
		Bounds:    l.Bounds(),
		Obstacles: l.Obstacles(),
		Spawns:    spawns,
		CellSize:  l.Grid.CellSize,
		Cols:      l.Grid.Columns,
		Rows:      l.Grid.Rows,
	}
}
