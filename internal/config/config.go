package config

import (
	"os"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/rotisserie/eris"
)

type Config struct {
	World      WorldConfig      `toml:"world"`
	Loop       LoopConfig       `toml:"loop"`
	Scripting  ScriptingConfig  `toml:"scripting"`
	Blueprints BlueprintsConfig `toml:"blueprints"`
	Logging    LoggingConfig    `toml:"logging"`
}

type WorldConfig struct {
	StructuralEvents    bool `toml:"structural_events"`      // emit entity/component change events
	DrainQueueEachFrame bool `toml:"drain_queue_each_frame"` // ProcessQueue after systems run
}

type LoopConfig struct {
	TickRate  time.Duration `toml:"tick_rate"`
	MaxFrames uint64        `toml:"max_frames"` // 0 = run until signalled
}

type ScriptingConfig struct {
	Dir   string `toml:"dir"`
	Watch bool   `toml:"watch"` // hot reload on file change
}

type BlueprintsConfig struct {
	Path  string   `toml:"path"`
	Spawn []string `toml:"spawn"` // blueprint names spawned at startup, in order
}

type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"` // "json" or "console"
}

// Load reads a TOML config over the defaults. An empty path returns the
// defaults.
func Load(path string) (*Config, error) {
	cfg := defaults()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "read config %s", path)
	}
	if err := Parse(data, cfg); err != nil {
		return nil, eris.Wrapf(err, "parse config %s", path)
	}
	return cfg, nil
}

// Parse decodes TOML into cfg, keeping values the document does not set.
func Parse(data []byte, cfg *Config) error {
	if _, err := toml.Decode(string(data), cfg); err != nil {
		return err
	}
	if cfg.Loop.TickRate <= 0 {
		return eris.Errorf("loop.tick_rate must be positive, got %s", cfg.Loop.TickRate)
	}
	return nil
}

func Default() *Config { return defaults() }

func defaults() *Config {
	return &Config{
		World: WorldConfig{
			StructuralEvents:    true,
			DrainQueueEachFrame: true,
		},
		Loop: LoopConfig{
			TickRate: 100 * time.Millisecond,
		},
		Scripting: ScriptingConfig{
			Dir: "scripts",
		},
		Blueprints: BlueprintsConfig{
			Path: "data/blueprints.yaml",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}
