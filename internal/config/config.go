// Package config provides Viper-based configuration loading for the world server.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// ContentConfig holds the layout of the on-disk world content tree.
type ContentConfig struct {
	// AreasDir is the root directory containing one subdirectory per area.
	AreasDir string `mapstructure:"areas_dir"`
	// ManifestName is the file name of the required per-area manifest.
	ManifestName string `mapstructure:"manifest_name"`
}

// ScriptsConfig holds the locations of room script directories.
type ScriptsConfig struct {
	// BehaviorDir is the directory of room behavior Lua scripts.
	BehaviorDir string `mapstructure:"behavior_dir"`
	// L10nDir is the directory of localization scripts passed through to
	// behavior attachment.
	L10nDir string `mapstructure:"l10n_dir"`
	// InstructionLimit caps Lua opcodes per behavior VM. 0 = library default.
	InstructionLimit int `mapstructure:"instruction_limit"`
}

// LocaleConfig holds localization settings.
type LocaleConfig struct {
	// Default is the reference locale used when flattening rooms.
	Default string `mapstructure:"default"`
}

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: "debug", "info", "warn", "error".
	Level string `mapstructure:"level"`
	// Format is the log output format: "json" or "console".
	Format string `mapstructure:"format"`
}

// Config is the top-level application configuration.
type Config struct {
	Content ContentConfig `mapstructure:"content"`
	Scripts ScriptsConfig `mapstructure:"scripts"`
	Locale  LocaleConfig  `mapstructure:"locale"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// Validate checks all configuration invariants.
//
// Postcondition: Returns nil if configuration is valid, or an error describing all violations.
func (c Config) Validate() error {
	var errs []string

	if err := validateContent(c.Content); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateScripts(c.Scripts); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateLocale(c.Locale); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateLogging(c.Logging); err != nil {
		errs = append(errs, err.Error())
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

func validateContent(c ContentConfig) error {
	var errs []string
	if c.AreasDir == "" {
		errs = append(errs, "content.areas_dir must not be empty")
	}
	if c.ManifestName == "" {
		errs = append(errs, "content.manifest_name must not be empty")
	} else if !strings.HasSuffix(c.ManifestName, ".yml") && !strings.HasSuffix(c.ManifestName, ".yaml") {
		errs = append(errs, fmt.Sprintf("content.manifest_name must end in .yml or .yaml, got %q", c.ManifestName))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validateScripts(s ScriptsConfig) error {
	if s.InstructionLimit < 0 {
		return fmt.Errorf("scripts.instruction_limit must be >= 0, got %d", s.InstructionLimit)
	}
	return nil
}

func validateLocale(l LocaleConfig) error {
	if l.Default == "" {
		return fmt.Errorf("locale.default must not be empty")
	}
	return nil
}

func validateLogging(l LoggingConfig) error {
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[l.Level] {
		return fmt.Errorf("logging.level must be one of [debug, info, warn, error], got %q", l.Level)
	}
	validFormats := map[string]bool{"json": true, "console": true}
	if !validFormats[l.Format] {
		return fmt.Errorf("logging.format must be one of [json, console], got %q", l.Format)
	}
	return nil
}

// Load reads configuration from the given file path, applies environment variable
// overrides, and validates the result.
//
// Precondition: path must be a valid file path to a YAML configuration file.
// Postcondition: Returns a valid Config or a non-nil error.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	// Environment variable overrides with LANTERN_ prefix
	v.SetEnvPrefix("LANTERN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return Config{}, fmt.Errorf("reading config file: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshalling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// LoadFromViper builds a Config from an already-configured Viper instance.
//
// Precondition: v must be non-nil and have configuration values set.
// Postcondition: Returns a valid Config or a non-nil error.
func LoadFromViper(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshalling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("content.areas_dir", "content/areas")
	v.SetDefault("content.manifest_name", "manifest.yml")

	v.SetDefault("scripts.behavior_dir", "content/scripts/rooms")
	v.SetDefault("scripts.l10n_dir", "content/l10n/rooms")
	v.SetDefault("scripts.instruction_limit", 0)

	v.SetDefault("locale.default", "en")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}
