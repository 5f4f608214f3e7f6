package main

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"

	"github.com/goccy/go-yaml"

	"scenepatch/patch"
)

// defaultConfigFile is read from the working directory when no -config flag is given.
const defaultConfigFile = ".scenepatch.yaml"

// Config holds the tunables shared by every command.
type Config struct {
	ContextLines int              `yaml:"context_lines"`
	Fuzzy        FuzzyConfig      `yaml:"fuzzy"`
	SideBySide   SideBySideConfig `yaml:"side_by_side"`
	Server       ServerConfig     `yaml:"server"`
	Log          LogConfig        `yaml:"log"`
}

type FuzzyConfig struct {
	Threshold     float64 `yaml:"threshold"`
	LineThreshold float64 `yaml:"line_threshold"`
	Window        int     `yaml:"window"`
	Scorer        string  `yaml:"scorer"`
}

type SideBySideConfig struct {
	Width int `yaml:"width"`
}

type ServerConfig struct {
	Addr            string `yaml:"addr"`
	MaxRequestBytes int64  `yaml:"max_request_bytes"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

// DefaultConfig returns the built-in settings.
func DefaultConfig() Config {
	return Config{
		ContextLines: patch.DefaultContextLines,
		Fuzzy: FuzzyConfig{
			Threshold:     patch.DefaultThreshold,
			LineThreshold: patch.DefaultLineThreshold,
			Window:        patch.DefaultWindow,
			Scorer:        "levenshtein",
		},
		SideBySide: SideBySideConfig{Width: 80},
		Server: ServerConfig{
			Addr:            "127.0.0.1:8080",
			MaxRequestBytes: 4 << 20,
		},
		Log: LogConfig{Level: "info"},
	}
}

// LoadConfig reads path over the defaults. An empty path reads .scenepatch.yaml when it
// exists; an explicit path must exist.
func LoadConfig(path string) (Config, error) {
	explicit := path != ""
	if !explicit {
		path = defaultConfigFile
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return DefaultConfig(), nil
		}
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}

	cfg, err := ParseConfig(data)
	if err != nil {
		return Config{}, fmt.Errorf("load config %s: %w", path, err)
	}
	return cfg, nil
}

// ParseConfig decodes YAML over the defaults and validates the result. Unknown keys are
// rejected.
func ParseConfig(data []byte) (Config, error) {
	cfg := DefaultConfig()
	if err := yaml.UnmarshalWithOptions(data, &cfg, yaml.DisallowUnknownField()); err != nil {
		return Config{}, fmt.Errorf("decode yaml: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	switch {
	case c.ContextLines < 0:
		return fmt.Errorf("context_lines must not be negative, got %d", c.ContextLines)
	case c.Fuzzy.Threshold < 0 || c.Fuzzy.Threshold > 100:
		return fmt.Errorf("fuzzy.threshold must be within 0-100, got %v", c.Fuzzy.Threshold)
	case c.Fuzzy.LineThreshold < 0 || c.Fuzzy.LineThreshold > 100:
		return fmt.Errorf("fuzzy.line_threshold must be within 0-100, got %v", c.Fuzzy.LineThreshold)
	case c.Fuzzy.Window < 1:
		return fmt.Errorf("fuzzy.window must be positive, got %d", c.Fuzzy.Window)
	case c.SideBySide.Width < 0:
		return fmt.Errorf("side_by_side.width must not be negative, got %d", c.SideBySide.Width)
	case c.Server.MaxRequestBytes < 1:
		return fmt.Errorf("server.max_request_bytes must be positive, got %d", c.Server.MaxRequestBytes)
	}
	if _, ok := patch.ScorerByName(c.Fuzzy.Scorer); !ok {
		return fmt.Errorf("fuzzy.scorer must be levenshtein or ratio, got %q", c.Fuzzy.Scorer)
	}
	if _, err := ParseLogLevel(c.Log.Level); err != nil {
		return err
	}
	return nil
}

// ApplyOptions converts the fuzzy settings into engine options.
func (c Config) ApplyOptions(mode patch.Mode, bestEffort bool) patch.Options {
	scorer, _ := patch.ScorerByName(c.Fuzzy.Scorer)
	return patch.Options{
		Mode:          mode,
		BestEffort:    bestEffort,
		Threshold:     c.Fuzzy.Threshold,
		LineThreshold: c.Fuzzy.LineThreshold,
		Window:        c.Fuzzy.Window,
		Scorer:        scorer,
	}
}

// SuggestionOptions converts the fuzzy settings for line suggestions.
func (c Config) SuggestionOptions() patch.SuggestionOptions {
	scorer, _ := patch.ScorerByName(c.Fuzzy.Scorer)
	return patch.SuggestionOptions{
		LineThreshold: c.Fuzzy.LineThreshold,
		Window:        c.Fuzzy.Window,
		Scorer:        scorer,
	}
}

// ParseLogLevel maps a level name to a slog level. An empty name means info.
func ParseLogLevel(name string) (slog.Level, error) {
	switch strings.ToLower(name) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("log.level must be debug, info, warn or error, got %q", name)
	}
}
