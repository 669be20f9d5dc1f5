// Package config loads runtime settings from tankarena.cfg.json and
// TANKARENA_* environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/Garsondee/Tank-Arena/internal/game"
)

// FileName is the config file looked up in the config directory.
const FileName = "tankarena.cfg.json"

// EnvPrefix prefixes environment overrides, e.g. TANKARENA_CONTROL_ADDR.
const EnvPrefix = "TANKARENA"

// ControlConfig holds the remote command server settings.
type ControlConfig struct {
	Enabled           bool          `json:"enabled" mapstructure:"enabled"`
	Addr              string        `json:"addr" mapstructure:"addr"`
	StatePushInterval time.Duration `json:"statePushInterval" mapstructure:"statePushInterval"`
}

// Settings is the full runtime configuration.
type Settings struct {
	LogLevel string        `json:"logLevel" mapstructure:"logLevel"`
	LogsDir  string        `json:"logsDir" mapstructure:"logsDir"`
	Level    string        `json:"level" mapstructure:"level"`
	TickRate int           `json:"tickRate" mapstructure:"tickRate"`
	Control  ControlConfig `json:"control" mapstructure:"control"`

	game.MatchConfig `mapstructure:",squash"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("logLevel", "info")
	v.SetDefault("logsDir", "")
	v.SetDefault("level", "")
	v.SetDefault("tickRate", 60)

	v.SetDefault("control.enabled", true)
	v.SetDefault("control.addr", "127.0.0.1:8377")
	v.SetDefault("control.statePushInterval", "250ms")

	d := game.DefaultMatchConfig()
	v.SetDefault("mode", string(d.Mode))
	v.SetDefault("intakeCapacity", d.IntakeCapacity)

	v.SetDefault("tank.speed", d.Tank.Speed)
	v.SetDefault("tank.turnRate", d.Tank.TurnRate)
	v.SetDefault("tank.radius", d.Tank.Radius)
	v.SetDefault("tank.health", d.Tank.Health)
	v.SetDefault("tank.damage", d.Tank.Damage)
	v.SetDefault("tank.fireCooldownTicks", d.Tank.FireCooldownTicks)
	v.SetDefault("tank.projectileSpeed", d.Tank.ProjectileSpeed)

	v.SetDefault("parser.defaultStep", d.Parser.DefaultStep)
	v.SetDefault("parser.defaultTurn", d.Parser.DefaultTurn)

	v.SetDefault("executor.blockedAfterTicks", d.Executor.BlockedAfterTicks)

	v.SetDefault("avoidance.probeLength", d.Avoidance.ProbeLength)
	v.SetDefault("avoidance.stepAngle", d.Avoidance.StepAngle)
	v.SetDefault("avoidance.maxAngle", d.Avoidance.MaxAngle)

	v.SetDefault("ai.replanAngle", d.AI.ReplanAngle)
	v.SetDefault("ai.replanDistance", d.AI.ReplanDistance)
	v.SetDefault("ai.fireTolerance", d.AI.FireTolerance)
	v.SetDefault("ai.advanceStep", d.AI.AdvanceStep)
	v.SetDefault("ai.standoff", d.AI.Standoff)
	v.SetDefault("ai.startupTicks", d.AI.StartupTicks)
	v.SetDefault("ai.sightRange", d.AI.SightRange)
	v.SetDefault("ai.fieldOfView", d.AI.FieldOfView)
}

// Load reads configDir/tankarena.cfg.json when present, applies environment
// overrides and returns the validated settings. A missing file is not an
// error; a malformed one is.
func Load(configDir string) (Settings, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigName(FileName)
	v.SetConfigType("json")
	if configDir != "" {
		v.AddConfigPath(configDir)
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Settings{}, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return Settings{}, fmt.Errorf("error decoding config: %w", err)
	}
	if err := s.Validate(); err != nil {
		return Settings{}, err
	}
	return s, nil
}

// Validate normalises the mode and rejects values the game cannot run with.
func (s *Settings) Validate() error {
	m, err := game.ParseMode(string(s.Mode))
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	s.Mode = m
	if s.TickRate <= 0 {
		return fmt.Errorf("config: tickRate %d: %w", s.TickRate, game.ErrInvalidArgument)
	}
	if s.Control.Enabled && s.Control.StatePushInterval <= 0 {
		return fmt.Errorf("config: control.statePushInterval %s: %w", s.Control.StatePushInterval, game.ErrInvalidArgument)
	}
	return nil
}

// GameConfig returns the match settings.
func (s Settings) GameConfig() game.MatchConfig {
	return s.MatchConfig
}

// TickInterval is the wall-clock duration of one simulation tick.
func (s Settings) TickInterval() time.Duration {
	if s.TickRate <= 0 {
		return time.Second / 60
	}
	return time.Second / time.Duration(s.TickRate)
}
