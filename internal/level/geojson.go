package level

import (
	"encoding/json"
	"fmt"

	"github.com/peterstace/simplefeatures/geom"

	"github.com/Garsondee/Tank-Arena/internal/game"
)

func point(v game.Vec2) geom.Point {
	return geom.NewPoint(geom.Coordinates{XY: geom.XY{X: v.X, Y: v.Y}, Type: geom.DimXY})
}

func box(lo, hi game.Vec2) geom.Polygon {
	seq := geom.NewSequence([]float64{
		lo.X, lo.Y,
		hi.X, lo.Y,
		hi.X, hi.Y,
		lo.X, hi.Y,
		lo.X, lo.Y,
	}, geom.DimXY)
	return geom.NewPolygon([]geom.LineString{geom.NewLineString(seq)})
}

func obstacleFeature(o game.Obstacle, blocks bool) geom.GeoJSONFeature {
	props := map[string]interface{}{
		"kind":   "obstacle",
		"type":   o.Label,
		"shape":  o.Shape.String(),
		"blocks": blocks,
	}
	var g geom.Geometry
	if o.Shape == game.ShapeCircle {
		g = point(o.Center).AsGeometry()
		props["radius"] = o.Radius
	} else {
		g = box(o.Min, o.Max).AsGeometry()
	}
	return geom.GeoJSONFeature{Geometry: g, Properties: props}
}

// Features describes the level in world coordinates: the arena boundary,
// every placement and both spawns.
func (l *Level) Features() geom.GeoJSONFeatureCollection {
	b := l.Bounds()
	fc := geom.GeoJSONFeatureCollection{{
		Geometry: box(game.Vec2{}, game.Vec2{X: b.Width, Y: b.Height}).AsGeometry(),
		Properties: map[string]interface{}{
			"kind":      "bounds",
			"name":      l.Name,
			"columns":   l.Grid.Columns,
			"rows":      l.Grid.Rows,
			"cell_size": l.Grid.CellSize,
		},
	}}
	for _, o := range l.Obstacles() {
		fc = append(fc, obstacleFeature(o, true))
	}
	for _, o := range l.Decals() {
		fc = append(fc, obstacleFeature(o, false))
	}
	for _, id := range []game.TankID{game.Tank1, game.Tank2} {
		p, ok := l.SpawnPose(id)
		if !ok {
			continue
		}
		fc = append(fc, geom.GeoJSONFeature{
			ID:       spawnKeys[id],
			Geometry: point(p.Pos).AsGeometry(),
			Properties: map[string]interface{}{
				"kind":    "spawn",
				"tank":    int(id),
				"heading": p.Heading,
				"cell":    game.CellName(p.Pos, l.Grid.CellSize, l.Grid.Columns, l.Grid.Rows),
			},
		})
	}
	return fc
}

// GeoJSON encodes Features as a FeatureCollection document.
func (l *Level) GeoJSON() ([]byte, error) {
	data, err := json.Marshal(l.Features())
	if err != nil {
		return nil, fmt.Errorf("encoding level %s: %w", l.Name, err)
	}
	return data, nil
}
