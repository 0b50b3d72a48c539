package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	anime "github.com/rogtools/go-anime"
)

// DefaultPath is where animed looks for its configuration.
const DefaultPath = "/etc/asusd/anime.yaml"

type Config struct {
	// Model forces a variant instead of detecting it from the board name
	Model string `yaml:"model,omitempty" toml:"model,omitempty"`

	DisplayEnabled  bool             `yaml:"display_enabled" toml:"display_enabled"`
	Brightness      anime.Brightness `yaml:"brightness" toml:"brightness"`
	BuiltinsEnabled bool             `yaml:"builtins_enabled" toml:"builtins_enabled"`
	Builtins        anime.Builtins   `yaml:"builtins" toml:"builtins"`
	BrightnessScale float64          `yaml:"brightness_scale" toml:"brightness_scale"`

	OffWhenUnplugged bool `yaml:"off_when_unplugged" toml:"off_when_unplugged"`
	OffWhenSuspended bool `yaml:"off_when_suspended" toml:"off_when_suspended"`
	OffWhenLidClosed bool `yaml:"off_when_lid_closed" toml:"off_when_lid_closed"`

	System   []anime.ActionLoader `yaml:"system,omitempty" toml:"system,omitempty"`
	Boot     []anime.ActionLoader `yaml:"boot,omitempty" toml:"boot,omitempty"`
	Wake     []anime.ActionLoader `yaml:"wake,omitempty" toml:"wake,omitempty"`
	Sleep    []anime.ActionLoader `yaml:"sleep,omitempty" toml:"sleep,omitempty"`
	Shutdown []anime.ActionLoader `yaml:"shutdown,omitempty" toml:"shutdown,omitempty"`

	Hooks []Hook `yaml:"hooks,omitempty" toml:"hooks,omitempty"`
}

// Hook runs Command whenever the named engine event is published.
type Hook struct {
	On      string   `yaml:"on" toml:"on"`
	Command []string `yaml:"command" toml:"command"`
}

// Default returns the configuration written on first start: builtin
// animations on, display on at medium brightness, every power toggle on.
func Default() *Config {
	return &Config{
		DisplayEnabled:   true,
		Brightness:       anime.BrightnessMed,
		BuiltinsEnabled:  true,
		BrightnessScale:  1,
		OffWhenUnplugged: true,
		OffWhenSuspended: true,
		OffWhenLidClosed: true,
	}
}

func isTOML(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".toml")
}

// Load reads the configuration at path. A missing file is created with the
// defaults. Fields absent from the file keep their default values.
func Load(path string) (*Config, error) {
	conf := Default()

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		if err := Save(path, conf); err != nil {
			return nil, err
		}
		return conf, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if isTOML(path) {
		err = toml.Unmarshal(data, conf)
	} else {
		err = yaml.Unmarshal(data, conf)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	if err := conf.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return conf, nil
}

// Save writes conf to path, creating its directory.
func Save(path string, conf *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	var (
		data []byte
		err  error
	)
	if isTOML(path) {
		data, err = toml.Marshal(conf)
	} else {
		data, err = yaml.Marshal(conf)
	}
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// Validate checks values the type system does not.
func (c *Config) Validate() error {
	if !(c.BrightnessScale >= 0 && c.BrightnessScale <= 1) {
		return fmt.Errorf("brightness_scale %v is outside 0..1", c.BrightnessScale)
	}
	if c.Model != "" {
		if _, err := anime.ParseVariant(c.Model); err != nil {
			return err
		}
	}
	for i, h := range c.Hooks {
		if h.On == "" || len(h.Command) == 0 {
			return fmt.Errorf("hook %d needs both on and command", i)
		}
	}
	return nil
}

// Variant returns the configured model override, or Unsupported if none.
func (c *Config) Variant() anime.Variant {
	if c.Model == "" {
		return anime.Unsupported
	}
	v, err := anime.ParseVariant(c.Model)
	if err != nil {
		return anime.Unsupported
	}
	return v
}

// Settings converts the file into controller settings. Relative action
// files resolve against dir.
func (c *Config) Settings(dir string) anime.Settings {
	return anime.Settings{
		DisplayEnabled:  c.DisplayEnabled,
		Brightness:      c.Brightness,
		BuiltinsEnabled: c.BuiltinsEnabled,
		Builtins:        c.Builtins,
		BrightnessScale: c.BrightnessScale,
		Policy: anime.Policy{
			OffWhenSuspended: c.OffWhenSuspended,
			OffWhenLidClosed: c.OffWhenLidClosed,
			OffWhenUnplugged: c.OffWhenUnplugged,
		},
		Actions: map[anime.Trigger][]anime.ActionLoader{
			anime.TriggerSystem:   c.System,
			anime.TriggerBoot:     c.Boot,
			anime.TriggerWake:     c.Wake,
			anime.TriggerSleep:    c.Sleep,
			anime.TriggerShutdown: c.Shutdown,
		},
		Dir: dir,
	}
}
