package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/Versifine/ledge/internal/controller"
	"github.com/Versifine/ledge/internal/logger"
	"github.com/Versifine/ledge/internal/physics"
	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Logging    LoggingConfig    `yaml:"logging"`
	Simulation SimulationConfig `yaml:"simulation"`
	Physics    physics.Config   `yaml:"physics"`
	Character  controller.Stats `yaml:"character"`
	Level      LevelConfig      `yaml:"level"`
	Store      StoreConfig      `yaml:"store"`
	Feed       FeedConfig       `yaml:"feed"`

	// Notes lists every value Validate had to clamp.
	Notes []string `yaml:"-"`
}

type LoggingConfig struct {
	Level  string `yaml:"level" env:"LEDGE_LOG_LEVEL"`
	Format string `yaml:"format" env:"LEDGE_LOG_FORMAT"`
	File   string `yaml:"file" env:"LEDGE_LOG_FILE"`
}

type SimulationConfig struct {
	FixedRate     float64 `yaml:"fixed_rate" env:"LEDGE_FIXED_RATE"`
	FrameRate     float64 `yaml:"frame_rate" env:"LEDGE_FRAME_RATE"`
	MaxFixedSteps int     `yaml:"max_fixed_steps" env:"LEDGE_MAX_FIXED_STEPS"`
}

type LevelConfig struct {
	Path string `yaml:"path" env:"LEDGE_LEVEL"`
}

// StoreConfig enables save slots when Path is set.
type StoreConfig struct {
	Path string `yaml:"path" env:"LEDGE_STORE_PATH"`
	Slot string `yaml:"slot" env:"LEDGE_STORE_SLOT"`
}

// FeedConfig enables the websocket state feed when Listen is set.
type FeedConfig struct {
	Listen string `yaml:"listen" env:"LEDGE_FEED_LISTEN"`
}

func Default() *Config {
	return &Config{
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
		Simulation: SimulationConfig{
			FixedRate:     50,
			FrameRate:     60,
			MaxFixedSteps: 5,
		},
		Physics:   physics.DefaultConfig(),
		Character: controller.DefaultStats(),
		Level:     LevelConfig{Path: "configs/level.yaml"},
		Store:     StoreConfig{Slot: "autosave"},
	}
}

// Load reads path over the defaults, applies LEDGE_* environment overrides
// and validates the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := ParseEnv(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ParseEnv loads overrides from environment variables. Unset variables keep
// the current value.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Validate clamps recoverable values, recording each in Notes, and rejects
// what cannot be repaired.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}
	defaults := Default()
	c.Notes = c.Notes[:0]

	switch c.Logging.Format {
	case "", "console", "json", "text":
	default:
		return fmt.Errorf("logging.format %q must be console, json or text", c.Logging.Format)
	}

	if c.Simulation.FixedRate <= 0 {
		c.note("simulation.fixed_rate %.2f must be > 0, using %.2f", c.Simulation.FixedRate, defaults.Simulation.FixedRate)
		c.Simulation.FixedRate = defaults.Simulation.FixedRate
	}
	if c.Simulation.FrameRate <= 0 {
		c.note("simulation.frame_rate %.2f must be > 0, using %.2f", c.Simulation.FrameRate, defaults.Simulation.FrameRate)
		c.Simulation.FrameRate = defaults.Simulation.FrameRate
	}
	if c.Simulation.MaxFixedSteps <= 0 {
		c.note("simulation.max_fixed_steps %d must be > 0, using %d", c.Simulation.MaxFixedSteps, defaults.Simulation.MaxFixedSteps)
		c.Simulation.MaxFixedSteps = defaults.Simulation.MaxFixedSteps
	}

	if err := c.Physics.Validate(); err != nil {
		return err
	}

	stats, notes := c.Character.Sanitized()
	for _, n := range notes {
		c.note("character: %s", n)
	}
	c.Character = stats

	if c.Store.Path != "" && c.Store.Slot == "" {
		c.Store.Slot = defaults.Store.Slot
	}
	return nil
}

// LogNotes reports every clamp through the process logger, once per note.
func (c *Config) LogNotes() {
	for _, n := range c.Notes {
		logger.WarnOnce("config:"+n, "Config value clamped", "detail", n)
	}
}

func (c *Config) note(format string, args ...any) {
	c.Notes = append(c.Notes, fmt.Sprintf(format, args...))
}
