package game

import (
	"math"

	"github.com/rs/zerolog"
)

// TankConfig describes tank and shell physics.
type TankConfig struct {
	Speed             float64 `mapstructure:"speed"`             // pixels per tick
	TurnRate          float64 `mapstructure:"turnRate"`          // degrees per tick
	Radius            float64 `mapstructure:"radius"`            // collision radius
	Health            int     `mapstructure:"health"`            // hits to destroy
	Damage            int     `mapstructure:"damage"`            // health removed per hit
	FireCooldownTicks int     `mapstructure:"fireCooldownTicks"` // ticks between shots
	ProjectileSpeed   float64 `mapstructure:"projectileSpeed"`   // pixels per tick
}

// DefaultTankConfig matches the original arena at 30 ticks per second.
func DefaultTankConfig() TankConfig {
	return TankConfig{
		Speed:             6,
		TurnRate:          3,
		Radius:            32,
		Health:            3,
		Damage:            1,
		FireCooldownTicks: 12,
		ProjectileSpeed:   20,
	}
}

func (c TankConfig) withDefaults() TankConfig {
	def := DefaultTankConfig()
	if !(c.Speed > 0) {
		c.Speed = def.Speed
	}
	if !(c.TurnRate > 0) {
		c.TurnRate = def.TurnRate
	}
	if !(c.Radius > 0) {
		c.Radius = def.Radius
	}
	if c.Health <= 0 {
		c.Health = def.Health
	}
	if c.Damage <= 0 {
		c.Damage = def.Damage
	}
	if c.FireCooldownTicks < 0 {
		c.FireCooldownTicks = def.FireCooldownTicks
	}
	if !(c.ProjectileSpeed > 0) {
		c.ProjectileSpeed = def.ProjectileSpeed
	}
	return c
}

// ArenaEventKind classifies physics outcomes worth reporting.
type ArenaEventKind int

const (
	ArenaFired     ArenaEventKind = iota // shell spawned
	ArenaCooldown                        // fire intent ignored, gun reloading
	ArenaBumped                          // translate refused by a collision
	ArenaHit                             // shell struck a tank
	ArenaDestroyed                       // tank health reached zero
	ArenaImpact                          // shell struck an obstacle or left the arena
)

func (k ArenaEventKind) String() string {
	switch k {
	case ArenaFired:
		return "fired"
	case ArenaCooldown:
		return "cooldown"
	case ArenaBumped:
		return "bumped"
	case ArenaHit:
		return "hit"
	case ArenaDestroyed:
		return "destroyed"
	case ArenaImpact:
		return "impact"
	default:
		return "unknown"
	}
}

// ArenaEvent is reported by Apply and Advance.
type ArenaEvent struct {
	Kind  ArenaEventKind
	Tank  TankID // actor: shooter, mover or victim
	Other TankID // shooter for hits, 0 otherwise
	Pos   Vec2
}

type tankBody struct {
	state    TankState
	cooldown int
	shots    int
	hits     int
}

// TankStats are per-tank counters for reports.
type TankStats struct {
	Shots int `json:"shots"`
	Hits  int `json:"hits"`
}

// Arena is the physics collaborator: it applies intents to tank bodies and
// flies shells. It is owned by the tick loop and is not safe for concurrent use.
type Arena struct {
	cfg       TankConfig
	bounds    Bounds
	obstacles []Obstacle
	spawns    map[TankID]Pose
	log       zerolog.Logger

	tick        uint64
	tanks       []*tankBody // ordered by TankID
	projectiles []Projectile
}

// NewArena places both tanks at their spawn poses.
func NewArena(bounds Bounds, obstacles []Obstacle, spawns map[TankID]Pose, cfg TankConfig, log zerolog.Logger) *Arena {
	obs := make([]Obstacle, 0, len(obstacles))
	for _, o := range obstacles {
		if o.Valid() {
			obs = append(obs, o)
		} else {
			log.Warn().Str("label", o.Label).Msg("skipping degenerate obstacle")
		}
	}
	a := &Arena{
		cfg:       cfg.withDefaults(),
		bounds:    bounds,
		obstacles: obs,
		spawns:    spawns,
		log:       log.With().Str("component", "arena").Logger(),
	}
	a.Reset()
	return a
}

// Reset restores spawn poses, full health and an empty sky.
func (a *Arena) Reset() {
	a.tick = 0
	a.projectiles = nil
	a.tanks = a.tanks[:0]
	for _, id := range []TankID{Tank1, Tank2} {
		pose, ok := a.spawns[id]
		if !ok || !pose.Valid() {
			pose = defaultSpawn(id, a.bounds)
		}
		pose.Heading = NormalizeHeading(pose.Heading)
		a.tanks = append(a.tanks, &tankBody{state: TankState{
			ID:     id,
			Pose:   pose,
			Alive:  true,
			Health: a.cfg.Health,
			Radius: a.cfg.Radius,
		}})
	}
}

func defaultSpawn(id TankID, b Bounds) Pose {
	if id == Tank1 {
		return Pose{Pos: Vec2{b.Width * 0.15, b.Height / 2}, Heading: 0}
	}
	return Pose{Pos: Vec2{b.Width * 0.85, b.Height / 2}, Heading: 180}
}

// Config returns the effective tank physics.
func (a *Arena) Config() TankConfig { return a.cfg }

// Bounds returns the playable area.
func (a *Arena) Bounds() Bounds { return a.bounds }

// Obstacles returns the static obstacles.
func (a *Arena) Obstacles() []Obstacle { return a.obstacles }

// Tick returns the number of Advance calls since the last Reset.
func (a *Arena) Tick() uint64 { return a.tick }

// Stats returns the shot counters for a tank.
func (a *Arena) Stats(id TankID) TankStats {
	if b := a.body(id); b != nil {
		return TankStats{Shots: b.shots, Hits: b.hits}
	}
	return TankStats{}
}

func (a *Arena) body(id TankID) *tankBody {
	for _, b := range a.tanks {
		if b.state.ID == id {
			return b
		}
	}
	return nil
}

// Snapshot copies the current state into a WorldSnapshot.
func (a *Arena) Snapshot() *WorldSnapshot {
	snap := &WorldSnapshot{
		Tick:        a.tick,
		Bounds:      a.bounds,
		Tanks:       make([]TankState, len(a.tanks)),
		Obstacles:   a.obstacles,
		Projectiles: append([]Projectile(nil), a.projectiles...),
	}
	for i, b := range a.tanks {
		snap.Tanks[i] = b.state
	}
	return snap
}

// Apply executes intents in order. Intents for dead or unknown tanks are
// ignored.
func (a *Arena) Apply(intents []Intent) []ArenaEvent {
	var events []ArenaEvent
	for _, in := range intents {
		b := a.body(in.Tank)
		if b == nil || !b.state.Alive {
			continue
		}
		switch in.Kind {
		case IntentSetHeading:
			if finite(in.Amount) {
				b.state.Pose.Heading = NormalizeHeading(b.state.Pose.Heading + in.Amount)
			}
		case IntentTranslate:
			if !finite(in.Amount) {
				continue
			}
			dest := b.state.Pose.Pos.Add(b.state.Pose.Forward().Scale(in.Amount))
			if a.blocked(b, dest) {
				events = append(events, ArenaEvent{Kind: ArenaBumped, Tank: in.Tank, Pos: dest})
				continue
			}
			b.state.Pose.Pos = dest
		case IntentFireProjectile:
			if b.cooldown > 0 {
				events = append(events, ArenaEvent{Kind: ArenaCooldown, Tank: in.Tank})
				continue
			}
			muzzle := b.state.Pose.Pos.Add(b.state.Pose.Forward().Scale(b.state.Radius + 4))
			a.projectiles = append(a.projectiles, Projectile{Owner: in.Tank, Pos: muzzle, Heading: b.state.Pose.Heading})
			b.cooldown = a.cfg.FireCooldownTicks
			b.shots++
			events = append(events, ArenaEvent{Kind: ArenaFired, Tank: in.Tank, Pos: muzzle})
		}
	}
	return events
}

// blocked reports whether body b cannot occupy dest.
func (a *Arena) blocked(b *tankBody, dest Vec2) bool {
	r := b.state.Radius
	if !a.bounds.ContainsCircle(dest, r) {
		return true
	}
	for i := range a.obstacles {
		if a.obstacles[i].OverlapsCircle(dest, r) {
			return true
		}
	}
	for _, o := range a.tanks {
		if o == b || !o.state.Alive {
			continue
		}
		if Distance(dest, o.state.Pose.Pos) < r+o.state.Radius {
			return true
		}
	}
	return false
}

// Advance moves shells one tick, resolves hits and ticks gun cooldowns.
func (a *Arena) Advance() []ArenaEvent {
	var events []ArenaEvent
	a.tick++
	for _, b := range a.tanks {
		if b.cooldown > 0 {
			b.cooldown--
		}
	}

	kept := a.projectiles[:0]
	for _, p := range a.projectiles {
		end := p.Pos.Add(HeadingVector(p.Heading).Scale(a.cfg.ProjectileSpeed))
		if victim := a.shellHitsTank(p, end); victim != nil {
			events = append(events, a.damage(victim, p)...)
			continue
		}
		if a.shellHitsObstacle(p.Pos, end) || !a.bounds.Contains(end) {
			events = append(events, ArenaEvent{Kind: ArenaImpact, Tank: p.Owner, Pos: end})
			continue
		}
		p.Pos = end
		kept = append(kept, p)
	}
	a.projectiles = kept
	return events
}

// shellHitsTank returns the nearest live tank, other than the shooter, whose
// body the shell path crosses.
func (a *Arena) shellHitsTank(p Projectile, end Vec2) *tankBody {
	var hit *tankBody
	best := math.Inf(1)
	for _, b := range a.tanks {
		if b.state.ID == p.Owner || !b.state.Alive {
			continue
		}
		if segmentPointDistance(p.Pos, end, b.state.Pose.Pos) < b.state.Radius {
			if d := Distance(p.Pos, b.state.Pose.Pos); d < best {
				hit, best = b, d
			}
		}
	}
	return hit
}

func (a *Arena) shellHitsObstacle(from, to Vec2) bool {
	for i := range a.obstacles {
		if a.obstacles[i].IntersectsSegment(from, to, 0) {
			return true
		}
	}
	return false
}

func (a *Arena) damage(victim *tankBody, p Projectile) []ArenaEvent {
	if shooter := a.body(p.Owner); shooter != nil {
		shooter.hits++
	}
	victim.state.Health -= a.cfg.Damage
	events := []ArenaEvent{{Kind: ArenaHit, Tank: victim.state.ID, Other: p.Owner, Pos: victim.state.Pose.Pos}}
	if victim.state.Health <= 0 {
		victim.state.Health = 0
		victim.state.Alive = false
		events = append(events, ArenaEvent{Kind: ArenaDestroyed, Tank: victim.state.ID, Other: p.Owner, Pos: victim.state.Pose.Pos})
		a.log.Info().Stringer("tank", victim.state.ID).Stringer("by", p.Owner).Uint64("tick", a.tick).Msg("tank destroyed")
	}
	return events
}
