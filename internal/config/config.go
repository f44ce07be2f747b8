// Package config holds the engine process settings.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/rs/zerolog"

	"github.com/hailam/auntysue/internal/engine"
)

// Variant is the only variant the engine plays.
const Variant = "auntysue"

// Duration reads "100ms" style strings from JSON.
type Duration time.Duration

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

func (d *Duration) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		// Plain numbers are milliseconds.
		var ms int64
		if err := json.Unmarshal(data, &ms); err != nil {
			return fmt.Errorf("duration: %s is neither a string nor a number", data)
		}
		*d = Duration(time.Duration(ms) * time.Millisecond)
		return nil
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("duration: %w", err)
	}
	*d = Duration(v)
	return nil
}

type Config struct {
	Workers       int      `json:"workers"`
	RetryInterval Duration `json:"retry_interval"`
	MaxDepth      int      `json:"max_depth"`
	LogFile       string   `json:"log_file"`
	LogLevel      string   `json:"log_level"`
	DataDir       string   `json:"data_dir"`
	HTTPAddr      string   `json:"http_addr"`
	Post          bool     `json:"post"`
	Persist       bool     `json:"persist"`
}

// Default returns the settings used when no file is given. DataDir is left
// empty and resolved by the storage package.
func Default() Config {
	return Config{
		Workers:       runtime.NumCPU(),
		RetryInterval: Duration(100 * time.Millisecond),
		LogFile:       filepath.Join(os.TempDir(), "auntysue.log"),
		LogLevel:      "info",
		Persist:       true,
	}
}

// Load reads a JSON file over the defaults. Fields missing from the file
// keep their default values.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := json.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, cfg.Validate()
}

// Validate checks the settings for values the engine cannot run with.
func (c Config) Validate() error {
	var errs []error
	if c.Workers < 1 {
		errs = append(errs, fmt.Errorf("workers must be positive, got %d", c.Workers))
	}
	if c.RetryInterval <= 0 {
		errs = append(errs, fmt.Errorf("retry_interval must be positive, got %s", time.Duration(c.RetryInterval)))
	}
	if c.MaxDepth < 0 || (c.MaxDepth > 0 && c.MaxDepth < engine.MinDepth) {
		errs = append(errs, fmt.Errorf("max_depth must be 0 or at least %d, got %d", engine.MinDepth, c.MaxDepth))
	}
	if _, err := c.Level(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Level returns the zerolog level named by LogLevel.
func (c Config) Level() (zerolog.Level, error) {
	lvl, err := zerolog.ParseLevel(c.LogLevel)
	if err != nil {
		return zerolog.InfoLevel, fmt.Errorf("log_level: %w", err)
	}
	return lvl, nil
}
