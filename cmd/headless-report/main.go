package main

import (
	"flag"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/Garsondee/Tank-Arena/internal/config"
	"github.com/Garsondee/Tank-Arena/internal/game"
	"github.com/Garsondee/Tank-Arena/internal/level"
	"github.com/Garsondee/Tank-Arena/internal/logging"
)

type runStats struct {
	runIndex int
	swapped  bool

	endTick    int // -1 when the tick budget ran out
	winner     game.TankID
	firstFire  int
	firstHit   int
	firstBlock int

	shots      map[game.TankID]int
	hits       map[game.TankID]int
	health     map[game.TankID]int
	replans    int
	blocked    int
	bumps      int
	superseded int
	commands   int
}

// script is a queue of commands for one text-driven tank. The next command
// is sent whenever the tank's executor goes idle.
type script struct {
	tank  game.TankID
	lines []string
	next  int
}

func splitScript(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ";") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// feed sends the next line when the tank is idle. It returns true if a
// command was sent.
func (sc *script) feed(ts *game.TestSim, log zerolog.Logger) bool {
	if sc.next >= len(sc.lines) {
		return false
	}
	tv := ts.Tank(sc.tank)
	if !tv.Alive || tv.Executor.State != game.ExecIdle {
		return false
	}
	line := sc.lines[sc.next]
	sc.next++
	if err := ts.Command(sc.tank, line); err != nil {
		log.Warn().Err(err).Stringer("tank", sc.tank).Str("command", line).Msg("script command rejected")
		return false
	}
	return true
}

func main() {
	var runs int
	var ticks int
	var modeName string
	var script1, script2 string
	var levelPath string
	var configDir string
	var swap bool

	flag.IntVar(&runs, "runs", 4, "number of headless matches")
	flag.IntVar(&ticks, "ticks", 3600, "tick budget per match")
	flag.StringVar(&modeName, "mode", "demo", "match mode: 1p, 2p or demo")
	flag.StringVar(&script1, "script1", "", "commands for tank 1, separated by ';'")
	flag.StringVar(&script2, "script2", "", "commands for tank 2, separated by ';'")
	flag.StringVar(&levelPath, "level", "", "level file (default: embedded Crossroads)")
	flag.StringVar(&configDir, "config", "", "directory holding "+config.FileName)
	flag.BoolVar(&swap, "swap", true, "swap spawn points on even runs")
	flag.Parse()

	log, closer, _ := logging.Setup("warn", "", os.Stderr)
	defer closer.Close()

	if runs <= 0 {
		fmt.Println("error: -runs must be > 0")
		return
	}
	if ticks <= 0 {
		fmt.Println("error: -ticks must be > 0")
		return
	}
	mode, err := game.ParseMode(modeName)
	if err != nil {
		fmt.Printf("error: %v\n", err)
		return
	}
	settings, err := config.Load(configDir)
	if err != nil {
		fmt.Printf("error: %v\n", err)
		return
	}
	lvl, err := level.LoadOrDefault(levelPath)
	if err != nil {
		fmt.Printf("error: %v\n", err)
		return
	}

	fmt.Printf("=== Headless Match Report ===\n")
	fmt.Printf("level=%s mode=%s runs=%d ticks=%d swap=%t\n", lvl.Name, mode, runs, ticks, swap)
	if script1 != "" {
		fmt.Printf("script1=%q\n", script1)
	}
	if script2 != "" {
		fmt.Printf("script2=%q\n", script2)
	}
	fmt.Println()

	all := make([]runStats, 0, runs)
	for i := 0; i < runs; i++ {
		swapped := swap && i%2 == 1
		rs, err := runMatch(i+1, lvl.Field(), settings.GameConfig(), mode, swapped, ticks, script1, script2, log)
		if err != nil {
			fmt.Printf("error: run %d: %v\n", i+1, err)
			return
		}
		all = append(all, rs)
		printRun(rs, settings.TickInterval())
	}
	printAggregate(all, settings.TickInterval())
}

func swapSpawns(f game.Field) game.Field {
	p1, p2 := f.Spawns[game.Tank1], f.Spawns[game.Tank2]
	f.Spawns = map[game.TankID]game.Pose{game.Tank1: p2, game.Tank2: p1}
	return f
}

func runMatch(runIndex int, field game.Field, cfg game.MatchConfig, mode game.Mode, swapped bool, ticks int, script1, script2 string, log zerolog.Logger) (runStats, error) {
	if swapped {
		field = swapSpawns(field)
	}
	ts, err := game.NewTestSim(
		game.WithField(field),
		game.WithConfig(func(c *game.MatchConfig) {
			*c = cfg
			c.AI.StartupTicks = 0
		}),
		game.WithMode(mode),
	)
	if err != nil {
		return runStats{}, err
	}
	defer ts.Match.Close()

	var scripts []*script
	for id, text := range map[game.TankID]string{game.Tank1: script1, game.Tank2: script2} {
		if lines := splitScript(text); len(lines) > 0 && ts.Match.Controllable(id) {
			scripts = append(scripts, &script{tank: id, lines: lines})
		}
	}
	sort.Slice(scripts, func(i, j int) bool { return scripts[i].tank < scripts[j].tank })

	commands := 0
	for _, sc := range scripts {
		if sc.feed(ts, log) {
			commands++
		}
	}
	end := ts.RunUntil(func(ts *game.TestSim) bool {
		if ts.Match.Phase() == game.PhaseOver {
			return true
		}
		for _, sc := range scripts {
			if sc.feed(ts, log) {
				commands++
			}
		}
		return false
	}, ticks)

	rs := runStats{
		runIndex:   runIndex,
		swapped:    swapped,
		endTick:    end,
		winner:     ts.Match.Winner(),
		firstFire:  firstTick(ts.SimLog.Entries(), "arena", "fired"),
		firstHit:   firstTick(ts.SimLog.Entries(), "arena", "hit"),
		firstBlock: firstTick(ts.SimLog.Entries(), "exec", "blocked"),
		shots:      map[game.TankID]int{},
		hits:       map[game.TankID]int{},
		health:     map[game.TankID]int{},
		replans:    ts.SimLog.CountCategory("ai", "replan"),
		blocked:    ts.SimLog.CountCategory("exec", "blocked"),
		bumps:      ts.SimLog.CountCategory("arena", "bumped"),
		commands:   commands,
	}
	for _, e := range ts.SimLog.Filter("command", "superseded") {
		rs.superseded += int(e.NumVal)
	}
	for _, id := range []game.TankID{game.Tank1, game.Tank2} {
		tv := ts.Tank(id)
		rs.shots[id] = tv.Stats.Shots
		rs.hits[id] = tv.Stats.Hits
		rs.health[id] = tv.Health
	}
	return rs, nil
}

func firstTick(entries []game.SimLogEntry, category, key string) int {
	for _, e := range entries {
		if e.Category == category && e.Key == key {
			return int(e.Tick)
		}
	}
	return -1
}

func outcome(rs runStats) string {
	switch {
	case rs.endTick < 0:
		return "timeout"
	case rs.winner.Valid():
		return rs.winner.String() + " wins"
	default:
		return "draw"
	}
}

// gameTime converts a tick count into match time at the configured rate.
func gameTime(ticks int, tick time.Duration) time.Duration {
	if ticks < 0 {
		return 0
	}
	return (time.Duration(ticks) * tick).Round(time.Millisecond)
}

func printRun(rs runStats, tick time.Duration) {
	fmt.Printf("--- Run %d (swapped=%t) ---\n", rs.runIndex, rs.swapped)
	fmt.Printf("outcome: %s end_tick=%d game_time=%s\n", outcome(rs), rs.endTick, gameTime(rs.endTick, tick))
	fmt.Printf("phase_markers: first_fire=%d first_hit=%d first_blocked=%d\n", rs.firstFire, rs.firstHit, rs.firstBlock)
	for _, id := range []game.TankID{game.Tank1, game.Tank2} {
		fmt.Printf("%s: health=%d shots=%d hits=%d accuracy=%s\n", id, rs.health[id], rs.shots[id], rs.hits[id], pct(rs.hits[id], rs.shots[id]))
	}
	fmt.Printf("event_totals: replans=%d blocked=%d bumps=%d commands=%d superseded=%d\n\n",
		rs.replans, rs.blocked, rs.bumps, rs.commands, rs.superseded)
}

func pct(n, d int) string {
	if d == 0 {
		return "n/a"
	}
	return fmt.Sprintf("%.0f%%", 100*float64(n)/float64(d))
}

func printAggregate(all []runStats, tick time.Duration) {
	wins := map[game.TankID]int{}
	draws, timeouts := 0, 0
	shots := map[game.TankID]int{}
	hits := map[game.TankID]int{}
	totalReplans, totalBlocked := 0, 0
	var endTicks []int

	for _, rs := range all {
		switch {
		case rs.endTick < 0:
			timeouts++
		case rs.winner.Valid():
			wins[rs.winner]++
			endTicks = append(endTicks, rs.endTick)
		default:
			draws++
			endTicks = append(endTicks, rs.endTick)
		}
		for _, id := range []game.TankID{game.Tank1, game.Tank2} {
			shots[id] += rs.shots[id]
			hits[id] += rs.hits[id]
		}
		totalReplans += rs.replans
		totalBlocked += rs.blocked
	}

	fmt.Printf("=== Aggregate (%d runs) ===\n", len(all))
	fmt.Printf("outcomes: T1=%d T2=%d draws=%d timeouts=%d\n", wins[game.Tank1], wins[game.Tank2], draws, timeouts)
	if len(endTicks) > 0 {
		sort.Ints(endTicks)
		sum := 0
		for _, t := range endTicks {
			sum += t
		}
		fmt.Printf("end_tick: min=%d median=%d avg=%.0f max=%d (median game_time=%s)\n",
			endTicks[0], endTicks[len(endTicks)/2], float64(sum)/float64(len(endTicks)), endTicks[len(endTicks)-1],
			gameTime(endTicks[len(endTicks)/2], tick))
	}
	for _, id := range []game.TankID{game.Tank1, game.Tank2} {
		fmt.Printf("%s: shots=%d hits=%d accuracy=%s\n", id, shots[id], hits[id], pct(hits[id], shots[id]))
	}
	fmt.Printf("avg_replans=%.1f avg_blocked=%.1f\n",
		float64(totalReplans)/float64(len(all)), float64(totalBlocked)/float64(len(all)))
}
