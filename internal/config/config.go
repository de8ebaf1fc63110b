// Package config provides configuration management for flow-grid.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"

	"github.com/xvierd/flow-grid/internal/timer"
)

// Config holds all configuration for the flow-grid application.
type Config struct {
	Timer         TimerConfig        `mapstructure:"timer"`
	Grid          GridConfig         `mapstructure:"grid"`
	Notifications NotificationConfig `mapstructure:"notifications"`
	Storage       StorageConfig      `mapstructure:"storage"`
	Git           GitConfig          `mapstructure:"git"`
	Theme         ThemeConfig        `mapstructure:"theme"`
}

// TimerConfig holds the countdown settings.
type TimerConfig struct {
	FocusDuration Duration `mapstructure:"focus_duration"`
	BreakDuration Duration `mapstructure:"break_duration"`
	BreakBonus    Duration `mapstructure:"break_bonus"`
	MinSession    Duration `mapstructure:"min_session"`
}

// GridConfig holds progress grid settings.
type GridConfig struct {
	DefaultSize int `mapstructure:"default_size"`
}

// NotificationConfig holds notification settings.
type NotificationConfig struct {
	Enabled bool `mapstructure:"enabled"`
	Sound   bool `mapstructure:"sound"`
}

// StorageConfig holds storage settings.
type StorageConfig struct {
	Backend string `mapstructure:"backend"`
	DataDir string `mapstructure:"data_dir"`
}

// GitConfig controls session stamping with git context.
type GitConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// ThemeConfig holds the TUI colors.
type ThemeConfig struct {
	ColorFocus  string `mapstructure:"color_focus"`
	ColorBreak  string `mapstructure:"color_break"`
	ColorPaused string `mapstructure:"color_paused"`
	ColorTitle  string `mapstructure:"color_title"`
	ColorHelp   string `mapstructure:"color_help"`
	CellFilled  string `mapstructure:"cell_filled"`
	CellEmpty   string `mapstructure:"cell_empty"`
	CellLinked  string `mapstructure:"cell_linked"`
}

// DefaultThemeConfig returns the default theme configuration.
func DefaultThemeConfig() ThemeConfig {
	return ThemeConfig{
		ColorFocus:  "#7C6FE0",
		ColorBreak:  "#4ECDC4",
		ColorPaused: "#6B7280",
		ColorTitle:  "#A0AEC0",
		ColorHelp:   "#95A5A6",
		CellFilled:  "#2ECC71",
		CellEmpty:   "#4B5563",
		CellLinked:  "#F5A623",
	}
}

// Storage backends.
const (
	BackendSQLite = "sqlite"
	BackendJSON   = "json"
)

const defaultDataDir = "~/.flow-grid"

// Duration is a wrapper around time.Duration for TOML parsing.
type Duration time.Duration

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	duration, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(duration)
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// String returns the string representation of the duration.
func (d Duration) String() string {
	return time.Duration(d).String()
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Timer: TimerConfig{
			FocusDuration: Duration(25 * time.Minute),
			BreakDuration: Duration(5 * time.Minute),
			BreakBonus:    Duration(5 * time.Minute),
			MinSession:    Duration(2 * time.Minute),
		},
		Grid: GridConfig{DefaultSize: 10},
		Notifications: NotificationConfig{
			Enabled: true,
			Sound:   true,
		},
		Storage: StorageConfig{
			Backend: BackendSQLite,
			DataDir: defaultDataDir,
		},
		Theme: DefaultThemeConfig(),
	}
}

// Load loads the configuration from the default config file, creating it
// with defaults on first use.
func Load() (*Config, error) {
	configPath, err := GetConfigPath()
	if err != nil {
		return nil, fmt.Errorf("failed to get config path: %w", err)
	}
	return LoadFrom(configPath)
}

// LoadFrom loads the configuration from configPath, creating it with
// defaults when missing.
func LoadFrom(configPath string) (*Config, error) {
	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create config directory: %w", err)
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		if err := Save(DefaultConfig(), configPath); err != nil {
			return nil, fmt.Errorf("failed to create default config: %w", err)
		}
	}

	v := newViper(configPath)
	setDefaults(v)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	hook := viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.TextUnmarshallerHookFunc(),
		mapstructure.StringToTimeDurationHookFunc(),
	))
	if err := v.Unmarshal(&cfg, hook); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	dataDir, err := expandHome(cfg.Storage.DataDir)
	if err != nil {
		return nil, err
	}
	cfg.Storage.DataDir = dataDir

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", configPath, err)
	}
	return &cfg, nil
}

// Save writes the configuration to configPath.
func Save(cfg *Config, configPath string) error {
	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	v := newViper(configPath)
	v.Set("timer.focus_duration", cfg.Timer.FocusDuration.String())
	v.Set("timer.break_duration", cfg.Timer.BreakDuration.String())
	v.Set("timer.break_bonus", cfg.Timer.BreakBonus.String())
	v.Set("timer.min_session", cfg.Timer.MinSession.String())
	v.Set("grid.default_size", cfg.Grid.DefaultSize)
	v.Set("notifications.enabled", cfg.Notifications.Enabled)
	v.Set("notifications.sound", cfg.Notifications.Sound)
	v.Set("storage.backend", cfg.Storage.Backend)
	v.Set("storage.data_dir", cfg.Storage.DataDir)
	v.Set("git.enabled", cfg.Git.Enabled)
	v.Set("theme.color_focus", cfg.Theme.ColorFocus)
	v.Set("theme.color_break", cfg.Theme.ColorBreak)
	v.Set("theme.color_paused", cfg.Theme.ColorPaused)
	v.Set("theme.color_title", cfg.Theme.ColorTitle)
	v.Set("theme.color_help", cfg.Theme.ColorHelp)
	v.Set("theme.cell_filled", cfg.Theme.CellFilled)
	v.Set("theme.cell_empty", cfg.Theme.CellEmpty)
	v.Set("theme.cell_linked", cfg.Theme.CellLinked)

	return v.WriteConfigAs(configPath)
}

func newViper(configPath string) *viper.Viper {
	v := viper.New()
	v.SetConfigFile(configPath)
	v.SetConfigType("toml")
	v.SetEnvPrefix("FLOW_GRID")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// setDefaults sets default values for viper.
func setDefaults(v *viper.Viper) {
	d := DefaultConfig()
	v.SetDefault("timer.focus_duration", d.Timer.FocusDuration.String())
	v.SetDefault("timer.break_duration", d.Timer.BreakDuration.String())
	v.SetDefault("timer.break_bonus", d.Timer.BreakBonus.String())
	v.SetDefault("timer.min_session", d.Timer.MinSession.String())
	v.SetDefault("grid.default_size", d.Grid.DefaultSize)
	v.SetDefault("notifications.enabled", d.Notifications.Enabled)
	v.SetDefault("notifications.sound", d.Notifications.Sound)
	v.SetDefault("storage.backend", d.Storage.Backend)
	v.SetDefault("storage.data_dir", d.Storage.DataDir)
	v.SetDefault("git.enabled", d.Git.Enabled)
	v.SetDefault("theme.color_focus", d.Theme.ColorFocus)
	v.SetDefault("theme.color_break", d.Theme.ColorBreak)
	v.SetDefault("theme.color_paused", d.Theme.ColorPaused)
	v.SetDefault("theme.color_title", d.Theme.ColorTitle)
	v.SetDefault("theme.color_help", d.Theme.ColorHelp)
	v.SetDefault("theme.cell_filled", d.Theme.CellFilled)
	v.SetDefault("theme.cell_empty", d.Theme.CellEmpty)
	v.SetDefault("theme.cell_linked", d.Theme.CellLinked)
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	var errs []error
	if c.Timer.FocusDuration < Duration(time.Second) {
		errs = append(errs, errors.New("timer.focus_duration must be at least 1s"))
	}
	if c.Timer.BreakDuration < Duration(time.Second) {
		errs = append(errs, errors.New("timer.break_duration must be at least 1s"))
	}
	if c.Timer.BreakBonus < 0 {
		errs = append(errs, errors.New("timer.break_bonus cannot be negative"))
	}
	if c.Timer.MinSession < 0 {
		errs = append(errs, errors.New("timer.min_session cannot be negative"))
	}
	if c.Grid.DefaultSize < 1 {
		errs = append(errs, errors.New("grid.default_size must be at least 1"))
	}
	switch c.Storage.Backend {
	case BackendSQLite, BackendJSON:
	default:
		errs = append(errs, fmt.Errorf("storage.backend %q must be %s or %s", c.Storage.Backend, BackendSQLite, BackendJSON))
	}
	return errors.Join(errs...)
}

// GetConfigPath returns the path to the config file.
func GetConfigPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(homeDir, ".flow-grid", "config.toml"), nil
}

// StorePath returns the path of the data file for the configured backend.
func StorePath(cfg *Config) string {
	if cfg.Storage.Backend == BackendJSON {
		return filepath.Join(cfg.Storage.DataDir, "flow-grid.json")
	}
	return filepath.Join(cfg.Storage.DataDir, "flow-grid.db")
}

// LogPath returns the path of the application log.
func LogPath(cfg *Config) string {
	return filepath.Join(cfg.Storage.DataDir, "flow-grid.log")
}

// TimerSettings converts the timer section for the engine.
func (c *Config) TimerSettings() timer.Config {
	return timer.Config{
		FocusSeconds:      int(time.Duration(c.Timer.FocusDuration).Seconds()),
		BreakSeconds:      int(time.Duration(c.Timer.BreakDuration).Seconds()),
		BonusSeconds:      int(time.Duration(c.Timer.BreakBonus).Seconds()),
		MinSessionMinutes: time.Duration(c.Timer.MinSession).Minutes(),
	}
}

func expandHome(path string) (string, error) {
	if path == "" {
		path = defaultDataDir
	}
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(homeDir, strings.TrimPrefix(path, "~")), nil
}
