package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Storage backends for the alarm record.
const (
	// StorageFile keeps the record in a JSON file.
	StorageFile = "file"
	// StorageSQLite keeps the record in a SQLite key-value table.
	StorageSQLite = "sqlite"
)

// Config holds the settings shared by the alarm binaries.
type Config struct {
	// ServerAddress is the gRPC address of the alarm daemon.
	ServerAddress string `yaml:"server_addr"`
	// Storage selects the record backend: "file" or "sqlite".
	Storage string `yaml:"storage"`
	// StateFile is the path of the JSON record or of the SQLite database.
	StateFile string `yaml:"state_file"`
	// Timeout is the duration for RPC calls.
	Timeout time.Duration `yaml:"timeout"`
	// LogLevel is the minimum level written by the daemon.
	LogLevel string `yaml:"log_level"`
	// LogFile enables a daily rotated log file when set.
	LogFile string `yaml:"log_file"`
	// Autostart registers the daemon to start at login.
	Autostart bool `yaml:"autostart"`
	// Alarm holds the lifecycle settings.
	Alarm Alarm `yaml:"alarm"`
	// Alert holds the presentation settings.
	Alert Alert `yaml:"alert"`
}

// Alarm holds lifecycle settings of the controller.
type Alarm struct {
	// WakeTimeout bounds the wake resource and the alert session.
	WakeTimeout time.Duration `yaml:"wake_timeout"`
	// RearmOnFire re-arms a weekday schedule as soon as it fires.
	RearmOnFire *bool `yaml:"rearm_on_fire"`
	// MissedGrace is how late a delivery found on startup may still fire.
	MissedGrace time.Duration `yaml:"missed_grace"`
	// CheckInterval is the longest sleep of the delivery timer between wall-clock checks.
	CheckInterval time.Duration `yaml:"check_interval"`
	// StartTimeout bounds how long a firing alarm waits for sound and alert to start.
	StartTimeout time.Duration `yaml:"start_timeout"`
	// ExactAlarms grants the exact scheduling capability.
	ExactAlarms *bool `yaml:"exact_alarms"`
}

// Alert holds presentation settings.
type Alert struct {
	// AppName is shown as the notification sender.
	AppName string `yaml:"app_name"`
	// Launcher is the full-screen alert executable started as a fallback.
	Launcher string `yaml:"launcher"`
	// AlwaysLaunch starts the launcher even if the notification was shown.
	AlwaysLaunch *bool `yaml:"always_launch"`
	// Volume is the playback volume in the range 0..1.
	Volume float64 `yaml:"volume"`
	// DisableNotifications skips the desktop notification path.
	DisableNotifications bool `yaml:"disable_notifications"`
}

const (
	// DefaultConfigFilename is the default filename for the settings.
	DefaultConfigFilename = "alarm-clock-settings.yaml"

	// DefaultStateFilename is the default filename for the alarm record.
	DefaultStateFilename = "alarm-clock-state.json"

	// DefaultServerAddress is where the daemon listens when nothing is configured.
	DefaultServerAddress = "127.0.0.1:50551"

	// DefaultTimeout is the default duration for RPC calls.
	DefaultTimeout = 5 * time.Second

	// DefaultWakeTimeout bounds the wake resource and the alert.
	DefaultWakeTimeout = 10 * time.Minute

	// DefaultMissedGrace is how late a delivery found on startup may still fire.
	DefaultMissedGrace = 10 * time.Minute

	// DefaultCheckInterval is the longest sleep between wall-clock checks.
	DefaultCheckInterval = 30 * time.Second

	// DefaultStartTimeout bounds the start of the sound and the alert.
	DefaultStartTimeout = 30 * time.Second

	// DefaultLauncher is the full-screen alert executable name.
	DefaultLauncher = "alarm-alert"

	// DefaultAppName is the notification sender name.
	DefaultAppName = "Alarm Clock"

	// DefaultFilePermissions is the default file permission for config files.
	DefaultFilePermissions = 0o600
)

var (
	// errConfigIsNotSet is returned when a nil configuration is provided.
	errConfigIsNotSet = errors.New("configuration is not set")
	// errUnknownStorage is returned for an unsupported storage backend.
	errUnknownStorage = errors.New("unknown storage backend")
	// errInvalidVolume is returned when the volume is outside 0..1.
	errInvalidVolume = errors.New("volume must be between 0 and 1")
	// errNegativeDuration is returned for negative durations.
	errNegativeDuration = errors.New("duration must not be negative")
)

// Default returns a validated configuration with every default applied.
func Default() *Config {
	cfg := new(Config)

	// Defaults always validate.
	_ = Validate(cfg)

	return cfg
}

// Load reads configuration from the provided path and validates essential fields.
// A missing file at the default path yields the defaults.
func Load(path string) (*Config, error) {
	explicit := path != "" && path != DefaultConfigFilename
	if path == "" {
		path = DefaultConfigFilename
	}

	contents, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) && !explicit {
			return Default(), nil
		}

		return nil, fmt.Errorf("read settings: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(contents, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal settings: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Save writes Config to the provided path.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if path == "" {
		path = DefaultConfigFilename
	}

	if err := Validate(cfg); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}

	// Restrict permissions.
	if err := os.WriteFile(filepath.Clean(path), data, DefaultFilePermissions); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}

	return nil
}

// Validate checks the provided settings and fills in defaults.
//
//nolint:cyclop // A flat list of defaults reads better than helpers.
func Validate(settings *Config) error {
	if settings == nil {
		return errConfigIsNotSet
	}

	if settings.ServerAddress == "" {
		settings.ServerAddress = DefaultServerAddress
	}

	if _, _, err := net.SplitHostPort(settings.ServerAddress); err != nil {
		return fmt.Errorf("invalid server address: %w", err)
	}

	switch settings.Storage {
	case "":
		settings.Storage = StorageFile
	case StorageFile, StorageSQLite:
	default:
		return fmt.Errorf("%w: %q", errUnknownStorage, settings.Storage)
	}

	if settings.Timeout <= 0 {
		settings.Timeout = DefaultTimeout
	}

	if settings.StateFile == "" {
		settings.StateFile = DefaultStateFilename
	}

	if err := settings.Alarm.validate(); err != nil {
		return err
	}

	return settings.Alert.validate()
}

// validate fills in lifecycle defaults.
func (a *Alarm) validate() error {
	if a.WakeTimeout < 0 || a.MissedGrace < 0 || a.CheckInterval < 0 || a.StartTimeout < 0 {
		return errNegativeDuration
	}

	if a.WakeTimeout == 0 {
		a.WakeTimeout = DefaultWakeTimeout
	}

	if a.MissedGrace == 0 {
		a.MissedGrace = DefaultMissedGrace
	}

	if a.CheckInterval == 0 {
		a.CheckInterval = DefaultCheckInterval
	}

	if a.StartTimeout == 0 {
		a.StartTimeout = DefaultStartTimeout
	}

	if a.RearmOnFire == nil {
		a.RearmOnFire = ptr(true)
	}

	if a.ExactAlarms == nil {
		a.ExactAlarms = ptr(true)
	}

	return nil
}

// validate fills in presentation defaults.
func (a *Alert) validate() error {
	if a.Volume < 0 || a.Volume > 1 {
		return errInvalidVolume
	}

	if a.Volume == 0 {
		a.Volume = 1
	}

	if a.Launcher == "" {
		a.Launcher = DefaultLauncher
	}

	if a.AppName == "" {
		a.AppName = DefaultAppName
	}

	if a.AlwaysLaunch == nil {
		a.AlwaysLaunch = ptr(true)
	}

	return nil
}

func ptr[T any](v T) *T {
	return &v
}
