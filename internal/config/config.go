// Package config loads rickrack settings from, in increasing precedence,
// built-in defaults, a TOML file, a .env file and RICKRACK_* environment
// variables. Command-line flags are applied on top by the cli package.
//
// Invalid values never fail a load; they are normalised to the nearest
// valid setting or reset to the default.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"

	"github.com/jmylchreest/rickrack/internal/colour"
	"github.com/jmylchreest/rickrack/internal/extract"
	"github.com/jmylchreest/rickrack/internal/grid"
	"github.com/jmylchreest/rickrack/internal/harmony"
	"github.com/jmylchreest/rickrack/internal/history"
	"github.com/jmylchreest/rickrack/internal/security"
	"github.com/jmylchreest/rickrack/internal/seed"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "RICKRACK_"

// DefaultAddr is the handoff listen address.
const DefaultAddr = "127.0.0.1:23333"

// Config is the full set of settings.
type Config struct {
	History HistoryConfig `toml:"history"`
	Handoff HandoffConfig `toml:"handoff"`
	Colour  ColourConfig  `toml:"colour"`
	Grid    grid.Values   `toml:"grid"`
	Extract ExtractConfig `toml:"extract"`
	Seed    seed.Config   `toml:"seed"`
}

// HistoryConfig controls the undo log.
type HistoryConfig struct {
	MaxSteps int `toml:"max_steps"`
}

// HandoffConfig controls the local inter-process listener.
type HandoffConfig struct {
	Addr string `toml:"addr"`
}

// ColourConfig holds the starting colour set.
type ColourConfig struct {
	Overflow string `toml:"overflow"`
	Rule     string `toml:"rule"`
	Sync     string `toml:"sync"`
}

// ExtractConfig holds extraction defaults.
type ExtractConfig struct {
	Samples   int     `toml:"samples"`
	ColorType int     `toml:"color_type"`
	Artist    bool    `toml:"artist"`
	Extend    float64 `toml:"extend"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		History: HistoryConfig{MaxSteps: history.DefaultMaxSteps},
		Handoff: HandoffConfig{Addr: DefaultAddr},
		Colour: ColourConfig{
			Overflow: colour.Cutoff.String(),
			Rule:     string(harmony.RuleAnalogous),
			Sync:     string(harmony.SyncUnlimited),
		},
		Grid: grid.DefaultValues(),
		Extract: ExtractConfig{
			Samples:   extract.DefaultSamples,
			ColorType: int(extract.TypeAuto),
			Extend:    1,
		},
		Seed: seed.Config{Mode: seed.ModeContent},
	}
}

// DefaultPath returns $XDG_CONFIG_HOME/rickrack/config.toml, falling back
// to the user config directory.
func DefaultPath() string {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		var err error
		if dir, err = os.UserConfigDir(); err != nil {
			return ""
		}
	}
	return filepath.Join(dir, "rickrack", "config.toml")
}

// Load reads path (DefaultPath when empty), then .env and the environment.
// A missing file is not an error.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		path = DefaultPath()
	}

	if path != "" {
		data, err := os.ReadFile(path) // #nosec G304 - user config file
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return cfg, fmt.Errorf("failed to read config: %w", err)
		default:
			if err := toml.Unmarshal(data, &cfg); err != nil {
				return cfg, fmt.Errorf("failed to parse config %s: %w", path, err)
			}
		}
	}

	// .env never overrides variables already set in the environment.
	_ = godotenv.Load()
	cfg.applyEnv()

	return cfg.Normalize(), nil
}

// Save writes cfg as TOML, creating the parent directory.
func (c Config) Save(path string) error {
	data, err := toml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// Normalize clamps or resets every field into its valid range.
func (c Config) Normalize() Config {
	def := Default()

	if c.History.MaxSteps < 1 {
		c.History.MaxSteps = def.History.MaxSteps
	}
	if security.ValidateLoopbackAddr(c.Handoff.Addr) != nil {
		c.Handoff.Addr = def.Handoff.Addr
	}

	c.Colour.Overflow = colour.ParseOverflow(c.Colour.Overflow).String()
	rule, _ := harmony.ParseRule(c.Colour.Rule)
	c.Colour.Rule = string(rule)
	sync, _ := harmony.ParseSync(c.Colour.Sync)
	c.Colour.Sync = string(sync)

	c.Grid = grid.NormValues(c.Grid)

	if c.Extract.Samples < 1 {
		c.Extract.Samples = def.Extract.Samples
	}
	if c.Extract.ColorType < int(extract.TypeAuto) || c.Extract.ColorType > int(extract.TypeAutoMuted) {
		c.Extract.ColorType = def.Extract.ColorType
	}
	if !(c.Extract.Extend > 0) {
		c.Extract.Extend = def.Extract.Extend
	}

	if mode, err := seed.ParseMode(string(c.Seed.Mode)); err != nil {
		c.Seed.Mode = def.Seed.Mode
	} else {
		c.Seed.Mode = mode
	}
	if c.Seed.Mode == seed.ModeManual && c.Seed.Value == nil {
		c.Seed.Mode = seed.ModeRandom
	}
	return c
}

func (c *Config) applyEnv() {
	c.History.MaxSteps = getEnvInt("HISTORY_MAX_STEPS", c.History.MaxSteps)
	c.Handoff.Addr = getEnv("LISTEN_ADDR", c.Handoff.Addr)
	c.Colour.Overflow = getEnv("OVERFLOW", c.Colour.Overflow)
	c.Colour.Rule = getEnv("RULE", c.Colour.Rule)
	c.Colour.Sync = getEnv("SYNC", c.Colour.Sync)
	c.Grid.Col = getEnvInt("GRID_COL", c.Grid.Col)
	c.Grid.CTP = getEnv("GRID_CTP", c.Grid.CTP)
	c.Extract.Samples = getEnvInt("EXTRACT_SAMPLES", c.Extract.Samples)
	c.Extract.Artist = getEnvBool("EXTRACT_ARTIST", c.Extract.Artist)
	c.Seed.Mode = seed.Mode(getEnv("SEED_MODE", string(c.Seed.Mode)))

	if v := os.Getenv(EnvPrefix + "SEED"); v != "" {
		if n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64); err == nil {
			c.Seed.Value = &n
			if os.Getenv(EnvPrefix+"SEED_MODE") == "" {
				c.Seed.Mode = seed.ModeManual
			}
		}
	}
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(EnvPrefix + key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(EnvPrefix + key)
	if value == "" {
		return defaultValue
	}
	intVal, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return defaultValue
	}
	return intVal
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(EnvPrefix + key)
	if value == "" {
		return defaultValue
	}
	boolVal, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}
	return boolVal
}
