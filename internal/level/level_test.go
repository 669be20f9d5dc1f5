package level

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Garsondee/Tank-Arena/internal/game"
)

const tinyLevel = `{
  "name": "Tiny",
  "grid": {"columns": 4, "rows": 3, "cell_size": 50},
  "obstacles": [
    {"type": "sandbag_brown", "col": 1, "row": 0},
    {"type": "barrel_red", "col": 3, "row": 2},
    {"type": "oil", "col": 1, "row": 1}
  ],
  "spawns": {
    "player1": {"col": 0, "row": 2, "facing": "up"},
    "player2": {"col": 3, "row": 0, "facing": "down"}
  }
}`

func TestDefaultLevelLoads(t *testing.T) {
	l, err := Default()
	require.NoError(t, err)
	assert.Equal(t, "Crossroads", l.Name)

	f := l.Field()
	assert.Equal(t, game.Bounds{Width: 1800, Height: 1200}, f.Bounds)
	assert.Len(t, f.Spawns, 2)
	// 13 placements, one of them passable oil.
	assert.Len(t, f.Obstacles, 12)
	assert.Len(t, l.Decals(), 1)

	p1 := f.Spawns[game.Tank1]
	assert.Equal(t, game.Vec2{X: 150, Y: 550}, p1.Pos)
	assert.Equal(t, 0.0, p1.Heading)
	assert.Equal(t, 180.0, f.Spawns[game.Tank2].Heading)

	for id, p := range f.Spawns {
		for _, o := range f.Obstacles {
			assert.False(t, o.OverlapsCircle(p.Pos, game.DefaultTankConfig().Radius), "%s spawns inside %s", id, o.Label)
		}
	}
}

func TestParseConvertsGridToWorld(t *testing.T) {
	l, err := Parse([]byte(tinyLevel))
	require.NoError(t, err)
	assert.Equal(t, 1, l.Version)

	obs := l.Obstacles()
	require.Len(t, obs, 2)

	// Row 0 is the top band: y in [100,150]. Sandbags fill 90% of the cell.
	bag := obs[0]
	assert.Equal(t, game.ShapeRect, bag.Shape)
	assert.InDelta(t, 52.5, bag.Min.X, 1e-9)
	assert.InDelta(t, 97.5, bag.Max.X, 1e-9)
	assert.InDelta(t, 102.5, bag.Min.Y, 1e-9)
	assert.InDelta(t, 147.5, bag.Max.Y, 1e-9)

	barrel := obs[1]
	assert.Equal(t, game.ShapeCircle, barrel.Shape)
	assert.Equal(t, game.Vec2{X: 175, Y: 25}, barrel.Center)
	assert.InDelta(t, 17.5, barrel.Radius, 1e-9)
	assert.Equal(t, "barrel_red", barrel.Label)

	p1, ok := l.SpawnPose(game.Tank1)
	require.True(t, ok)
	assert.Equal(t, game.Pose{Pos: game.Vec2{X: 25, Y: 25}, Heading: 90}, p1)
	p2, _ := l.SpawnPose(game.Tank2)
	assert.Equal(t, 270.0, p2.Heading)
	assert.Equal(t, "D1", game.CellName(p2.Pos, 50, 4, 3))
	assert.Equal(t, "grass", l.TerrainAt(0, 0))
}

func TestValidateRejects(t *testing.T) {
	cases := map[string]string{
		"empty grid":      `{"grid": {"columns": 0, "rows": 3, "cell_size": 50}}`,
		"unknown type":    `{"grid": {"columns": 2, "rows": 2, "cell_size": 50}, "obstacles": [{"type": "crate", "col": 0, "row": 0}]}`,
		"off grid":        `{"grid": {"columns": 2, "rows": 2, "cell_size": 50}, "obstacles": [{"type": "tree_large", "col": 1, "row": 1}]}`,
		"bad span":        `{"grid": {"columns": 2, "rows": 2, "cell_size": 50}, "obstacles": [{"type": "oil", "col": 0, "row": 0, "span": [1]}]}`,
		"missing spawn":   `{"grid": {"columns": 2, "rows": 2, "cell_size": 50}, "spawns": {"player1": {"col": 0, "row": 0, "facing": "up"}}}`,
		"bad facing":      `{"grid": {"columns": 2, "rows": 2, "cell_size": 50}, "spawns": {"player1": {"col": 0, "row": 0, "facing": "north"}, "player2": {"col": 1, "row": 1, "facing": "up"}}}`,
		"spawn in barrel": `{"grid": {"columns": 2, "rows": 2, "cell_size": 50}, "obstacles": [{"type": "barrel_grey", "col": 0, "row": 0}], "spawns": {"player1": {"col": 0, "row": 0, "facing": "up"}, "player2": {"col": 1, "row": 1, "facing": "up"}}}`,
		"ragged terrain":  `{"grid": {"columns": 2, "rows": 1, "cell_size": 50}, "terrain": [["grass"]], "spawns": {"player1": {"col": 0, "row": 0, "facing": "up"}, "player2": {"col": 1, "row": 0, "facing": "up"}}}`,
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(doc))
			assert.ErrorIs(t, err, ErrInvalidLevel)
		})
	}

	_, err := Parse([]byte(`{not json`))
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrInvalidLevel)
}

func TestSpawnOnOilIsAllowed(t *testing.T) {
	doc := `{"grid": {"columns": 2, "rows": 2, "cell_size": 50},
	  "obstacles": [{"type": "oil", "col": 0, "row": 0}],
	  "spawns": {"player1": {"col": 0, "row": 0, "facing": "up"}, "player2": {"col": 1, "row": 1, "facing": "up"}}}`
	_, err := Parse([]byte(doc))
	assert.NoError(t, err)
}

func TestLoadFromDisk(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tiny.json")
	require.NoError(t, os.WriteFile(path, []byte(tinyLevel), 0o644))

	l, err := LoadOrDefault(path)
	require.NoError(t, err)
	assert.Equal(t, "Tiny", l.Name)

	_, err = Load(filepath.Join(dir, "missing.json"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	l, err = LoadOrDefault("")
	require.NoError(t, err)
	assert.Equal(t, "Crossroads", l.Name)
}

func TestGeoJSON(t *testing.T) {
	l, err := Parse([]byte(tinyLevel))
	require.NoError(t, err)

	data, err := l.GeoJSON()
	require.NoError(t, err)

	var doc struct {
		Type     string `json:"type"`
		Features []struct {
			Geometry struct {
				Type string `json:"type"`
			} `json:"geometry"`
			Properties map[string]any `json:"properties"`
		} `json:"features"`
	}
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Equal(t, "FeatureCollection", doc.Type)
	// bounds + 2 obstacles + oil + 2 spawns
	require.Len(t, doc.Features, 6)

	kinds := map[string]int{}
	for _, f := range doc.Features {
		kinds[f.Properties["kind"].(string)]++
	}
	assert.Equal(t, map[string]int{"bounds": 1, "obstacle": 3, "spawn": 2}, kinds)
	assert.Equal(t, "Polygon", doc.Features[0].Geometry.Type)
	assert.Equal(t, "Point", doc.Features[2].Geometry.Type)
	assert.Equal(t, 17.5, doc.Features[2].Properties["radius"])
}
