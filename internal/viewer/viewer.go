// Package viewer draws a running match with Ebiten and offers a few
// keyboard controls for the simulation clock.
package viewer

import (
	"context"
	"fmt"
	"image/color"
	"math"

	"github.com/atotto/clipboard"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/text/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"github.com/rs/zerolog"
	"golang.org/x/image/font/basicfont"

	"github.com/Garsondee/Tank-Arena/internal/game"
	"github.com/Garsondee/Tank-Arena/internal/level"
)

const (
	borderWidth = 16
	hudHeight   = 96
)

// speeds are the selectable simulation multipliers; 0 is paused.
var speeds = []float64{0, 0.5, 1, 2, 4}

// slower returns the next lower speed step.
func slower(cur float64) float64 {
	for i, s := range speeds {
		if s >= cur && i > 0 {
			return speeds[i-1]
		}
	}
	return speeds[len(speeds)-1]
}

// faster returns the next higher speed step.
func faster(cur float64) float64 {
	for _, s := range speeds {
		if s > cur {
			return s
		}
	}
	return speeds[len(speeds)-1]
}

// Option customizes a Game.
type Option func(*Game)

// WithLogger sets the structured logger.
func WithLogger(log zerolog.Logger) Option {
	return func(g *Game) { g.log = log }
}

// WithClipboard replaces the system clipboard writer.
func WithClipboard(write func(string) error) Option {
	return func(g *Game) { g.copy = write }
}

// WithScale sets the world-to-screen scale.
func WithScale(s float64) Option {
	return func(g *Game) {
		if s > 0 {
			g.scale = s
		}
	}
}

// Game implements ebiten.Game for one match. The match is stepped from
// Update, so it runs on Ebiten's update goroutine.
type Game struct {
	ctx    context.Context
	match  *game.Match
	level  *level.Level
	log    zerolog.Logger
	events *EventLog
	face   text.Face
	copy   func(string) error

	scale         float64
	width, height int
	fieldW        int
	fieldH        int

	simSpeed  float64
	tickAccum float64
	prevKeys  map[ebiten.Key]bool
	status    string
}

// New builds the viewer. The match must have been created with a SimLog
// (game.WithSimLog) for the event panel to fill.
func New(ctx context.Context, m *game.Match, lvl *level.Level, opts ...Option) *Game {
	g := &Game{
		ctx:      ctx,
		match:    m,
		level:    lvl,
		log:      zerolog.Nop(),
		events:   NewEventLog(),
		face:     text.NewGoXFace(basicfont.Face7x13),
		copy:     clipboard.WriteAll,
		scale:    0.6,
		simSpeed: 1,
		prevKeys: make(map[ebiten.Key]bool),
	}
	for _, o := range opts {
		o(g)
	}
	b := m.Field().Bounds
	g.fieldW = int(math.Ceil(b.Width * g.scale))
	g.fieldH = int(math.Ceil(b.Height * g.scale))
	g.width = borderWidth*2 + g.fieldW + logPanelWidth
	g.height = borderWidth*2 + g.fieldH + hudHeight
	return g
}

// WindowSize returns the preferred window size.
func (g *Game) WindowSize() (int, int) { return g.width, g.height }

// Speed returns the current simulation multiplier.
func (g *Game) Speed() float64 { return g.simSpeed }

// Update handles input and advances the match by the current speed.
func (g *Game) Update() error {
	if err := g.ctx.Err(); err != nil {
		return ebiten.Termination
	}
	g.handleInput()
	g.advance()
	return nil
}

// advance runs whole ticks for the accumulated speed.
func (g *Game) advance() {
	if g.simSpeed <= 0 {
		return
	}
	g.tickAccum += g.simSpeed
	for g.tickAccum >= 1.0 {
		g.tickAccum -= 1.0
		g.match.Step(g.ctx)
	}
	g.collectEvents()
}

func (g *Game) collectEvents() {
	for _, e := range g.match.SimLog().Flush() {
		g.events.Add(e)
	}
}

// pressed reports a key-down edge and records the key state.
func (g *Game) pressed(cur map[ebiten.Key]bool, k ebiten.Key) bool {
	cur[k] = ebiten.IsKeyPressed(k)
	return cur[k] && !g.prevKeys[k]
}

func (g *Game) handleInput() {
	cur := map[ebiten.Key]bool{}

	if g.pressed(cur, ebiten.KeyP) {
		g.togglePause()
	}
	if g.pressed(cur, ebiten.KeyComma) {
		g.simSpeed = slower(g.simSpeed)
	}
	if g.pressed(cur, ebiten.KeyPeriod) {
		g.simSpeed = faster(g.simSpeed)
	}
	if g.pressed(cur, ebiten.KeyC) {
		g.copyReport()
	}
	if g.pressed(cur, ebiten.KeyR) {
		g.reset()
	}

	g.prevKeys = cur
}

func (g *Game) togglePause() {
	if g.simSpeed > 0 {
		g.simSpeed = 0
	} else {
		g.simSpeed = 1
	}
}

func (g *Game) reset() {
	g.match.Reset()
	g.events.Clear()
	g.collectEvents()
	g.tickAccum = 0
	g.status = "match reset"
}

// copyReport puts the text state report on the clipboard.
func (g *Game) copyReport() {
	report := Report(g.match.Field(), g.match.View(), g.events.Recent(), reportWindowTicks)
	if err := g.copy(report); err != nil {
		g.log.Warn().Err(err).Msg("clipboard write failed")
		g.status = "clipboard unavailable"
		return
	}
	g.status = fmt.Sprintf("report copied (%d bytes)", len(report))
}

// Layout implements ebiten.Game.
func (g *Game) Layout(_, _ int) (int, int) {
	return g.width, g.height
}

// toScreen maps a y-up world position to screen pixels.
func (g *Game) toScreen(p game.Vec2) (float32, float32) {
	h := g.match.Field().Bounds.Height
	return float32(borderWidth + p.X*g.scale), float32(borderWidth + (h-p.Y)*g.scale)
}

// Draw implements ebiten.Game.
func (g *Game) Draw(screen *ebiten.Image) {
	screen.Fill(color.RGBA{R: 14, G: 16, B: 14, A: 255})
	v := g.match.View()

	g.drawGround(screen)
	g.drawObstacles(screen)
	for _, p := range v.Projectiles {
		g.drawShell(screen, p)
	}
	for _, t := range v.Tanks {
		g.drawTank(screen, t)
	}
	vector.StrokeRect(screen, borderWidth-1, borderWidth-1, float32(g.fieldW+2), float32(g.fieldH+2), 2.0, color.RGBA{R: 60, G: 90, B: 60, A: 255}, false)

	g.drawHUD(screen, v)
	g.events.Draw(screen, g.face, borderWidth*2+g.fieldW, g.height)
}

var terrainColours = map[string]color.RGBA{
	"grass": {R: 44, G: 70, B: 40, A: 255},
	"dirt":  {R: 82, G: 66, B: 44, A: 255},
	"sand":  {R: 120, G: 108, B: 74, A: 255},
}

func (g *Game) drawGround(screen *ebiten.Image) {
	f := g.match.Field()
	vector.FillRect(screen, borderWidth, borderWidth, float32(g.fieldW), float32(g.fieldH), terrainColours["grass"], false)
	if g.level == nil || f.CellSize <= 0 {
		return
	}
	cs := float32(f.CellSize * g.scale)
	for row := 0; row < f.Rows; row++ {
		for col := 0; col < f.Cols; col++ {
			c := terrainColours[g.level.TerrainAt(col, row)]
			x := float32(borderWidth) + float32(col)*cs
			y := float32(borderWidth) + float32(row)*cs
			vector.FillRect(screen, x, y, cs, cs, c, false)
			vector.StrokeRect(screen, x, y, cs, cs, 0.5, color.RGBA{R: 0, G: 0, B: 0, A: 30}, false)
		}
	}
	for _, d := range g.level.Decals() {
		cx, cy := g.toScreen(d.Center)
		vector.FillCircle(screen, cx, cy, float32(d.Radius*g.scale), color.RGBA{R: 20, G: 18, B: 22, A: 200}, true)
	}
}

func obstacleColour(label string) color.RGBA {
	switch label {
	case "barrel_red":
		return color.RGBA{R: 170, G: 50, B: 40, A: 255}
	case "barrel_green":
		return color.RGBA{R: 60, G: 120, B: 60, A: 255}
	case "barrel_grey":
		return color.RGBA{R: 110, G: 110, B: 110, A: 255}
	case "sandbag_beige":
		return color.RGBA{R: 170, G: 150, B: 110, A: 255}
	case "sandbag_brown":
		return color.RGBA{R: 120, G: 90, B: 60, A: 255}
	case "tree_large", "tree_small":
		return color.RGBA{R: 30, G: 90, B: 36, A: 255}
	default:
		return color.RGBA{R: 88, G: 82, B: 70, A: 255}
	}
}

func (g *Game) drawObstacles(screen *ebiten.Image) {
	shadow := color.RGBA{R: 8, G: 6, B: 4, A: 110}
	for _, o := range g.match.Field().Obstacles {
		c := obstacleColour(o.Label)
		switch o.Shape {
		case game.ShapeCircle:
			cx, cy := g.toScreen(o.Center)
			r := float32(o.Radius * g.scale)
			vector.FillCircle(screen, cx+2, cy+2, r, shadow, true)
			vector.FillCircle(screen, cx, cy, r, c, true)
			vector.StrokeCircle(screen, cx, cy, r, 1.0, color.RGBA{R: 0, G: 0, B: 0, A: 120}, true)
		default:
			// Max.Y is the top edge on screen.
			x0, y0 := g.toScreen(game.Vec2{X: o.Min.X, Y: o.Max.Y})
			w := float32((o.Max.X - o.Min.X) * g.scale)
			h := float32((o.Max.Y - o.Min.Y) * g.scale)
			vector.FillRect(screen, x0+2, y0+2, w, h, shadow, false)
			vector.FillRect(screen, x0, y0, w, h, c, false)
			vector.StrokeRect(screen, x0, y0, w, h, 1.0, color.RGBA{R: 30, G: 26, B: 20, A: 220}, false)
		}
	}
}

func (g *Game) drawTank(screen *ebiten.Image, t game.TankView) {
	cx, cy := g.toScreen(game.Vec2{X: t.X, Y: t.Y})
	r := float32(t.Radius * g.scale)
	body := tankColour(t.ID.String())
	if !t.Alive {
		body = color.RGBA{R: 50, G: 46, B: 42, A: 255}
	}
	vector.FillCircle(screen, cx, cy, r, body, true)
	vector.StrokeCircle(screen, cx, cy, r, 1.5, color.RGBA{R: 10, G: 10, B: 10, A: 255}, true)

	// Screen y grows downward, so the barrel's y component flips.
	fwd := game.HeadingVector(t.Heading)
	bl := r * 1.5
	vector.StrokeLine(screen, cx, cy, cx+float32(fwd.X)*bl, cy-float32(fwd.Y)*bl, 4.0, color.RGBA{R: 20, G: 22, B: 20, A: 255}, true)

	if t.Executor.State == game.ExecBlocked {
		vector.StrokeCircle(screen, cx, cy, r+4, 2.0, color.RGBA{R: 230, G: 180, B: 40, A: 220}, true)
	}
	drawText(screen, g.face, fmt.Sprintf("%s %d", t.ID, t.Health), int(cx-r), int(cy+r+2), color.White)
}

func (g *Game) drawShell(screen *ebiten.Image, p game.ProjectileView) {
	x, y := g.toScreen(game.Vec2{X: p.X, Y: p.Y})
	vector.FillCircle(screen, x, y, 3, color.RGBA{R: 255, G: 230, B: 150, A: 255}, true)
}

func (g *Game) drawHUD(screen *ebiten.Image, v *game.StateView) {
	speed := fmt.Sprintf("%.1fx", g.simSpeed)
	switch g.simSpeed {
	case 0:
		speed = "PAUSED"
	case 1, 2, 4:
		speed = fmt.Sprintf("%.0fx", g.simSpeed)
	}

	lines := []string{fmt.Sprintf("T=%d  %s  mode=%s  SIM: %s  P=pause  ,/. speed  C=copy report  R=reset",
		v.Tick, v.Phase, v.Mode, speed)}
	for _, t := range v.Tanks {
		driver := "text"
		if t.AI {
			driver = "ai"
		}
		line := fmt.Sprintf("%s [%s] hp=%d %s", t.ID, driver, t.Health, t.Executor.State)
		if t.Executor.Current != nil {
			line += fmt.Sprintf(" %s", t.Executor.Current)
		}
		if n := len(t.Executor.Pending); n > 0 {
			line += fmt.Sprintf(" then %s", game.FormatActions(t.Executor.Pending))
		}
		lines = append(lines, line)
	}
	if v.Phase == game.PhaseOver {
		if v.Winner.Valid() {
			lines = append(lines, fmt.Sprintf("GAME OVER: %s wins. R to restart.", v.Winner))
		} else {
			lines = append(lines, "GAME OVER: draw. R to restart.")
		}
	}
	if g.status != "" {
		lines = append(lines, g.status)
	}

	top := borderWidth*2 + g.fieldH
	vector.FillRect(screen, borderWidth, float32(top-borderWidth/2), float32(g.fieldW), hudHeight-4, color.RGBA{R: 6, G: 10, B: 6, A: 210}, false)
	for i, l := range lines {
		drawText(screen, g.face, l, borderWidth+6, top-borderWidth/2+4+i*16, color.White)
	}
}

func drawText(dst *ebiten.Image, face text.Face, s string, x, y int, c color.Color) {
	op := &text.DrawOptions{}
	op.GeoM.Translate(float64(x), float64(y))
	op.ColorScale.ScaleWithColor(c)
	text.Draw(dst, s, face, op)
}
