package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"
)

// Config is read from config.json. Every field is optional.
type Config struct {
	Device    string     `json:"device"`               // LIRC device node
	Commands  string     `json:"commands,omitempty"`   // command file, empty for the bundled one
	DelayUs   int        `json:"delay_us"`             // pause between commands
	DutyCycle int        `json:"duty_cycle,omitempty"` // carrier duty cycle in percent, 0 keeps the driver's
	Notify    bool       `json:"notify"`               // desktop notifications
	LogFile   string     `json:"log_file,omitempty"`   // daemon log file, rotated
	LogLevel  slog.Level `json:"log_level"`
}

func defaultConfig() Config {
	return Config{
		Device:   defaultDevice,
		DelayUs:  int(DefaultDelay / time.Microsecond),
		Notify:   true,
		LogLevel: slog.LevelInfo,
	}
}

func configPath() string {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		dir = filepath.Join(os.Getenv("HOME"), ".config")
	}
	return filepath.Join(dir, "blackout", "config.json")
}

// loadConfig reads the config at path over the defaults. A missing file is
// not an error.
func loadConfig(path string) (Config, error) {
	cfg := defaultConfig()
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := json.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return cfg, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

func (c Config) validate() error {
	if c.DelayUs < 0 {
		return fmt.Errorf("delay_us must not be negative, got %d", c.DelayUs)
	}
	if c.DutyCycle < 0 || c.DutyCycle > 100 {
		return fmt.Errorf("duty_cycle must be within 0-100, got %d", c.DutyCycle)
	}
	return nil
}

func (c Config) delay() time.Duration {
	return time.Duration(c.DelayUs) * time.Microsecond
}

// resolveCommandFile picks a command file. If file is non-empty, it is
// returned directly. Otherwise the configured one is used, which may be empty
// to select the bundled document.
func resolveCommandFile(cfg Config, file string) string {
	if file != "" {
		return file
	}
	return cfg.Commands
}
