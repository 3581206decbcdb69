package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the launcher settings.
// Every knob has a default, so a missing settings file yields a usable configuration.
type Config struct {
	// HomeDir is the base directory under which `.local/bin` and `.local/logs` live.
	// Defaults to the current user's home directory.
	HomeDir string `yaml:"home_dir"`
	// AppName is the base name of the managed application.
	// It determines image names (`<app>-*.<ext>`), the pointer name (`<app>.latest`)
	// and the log directory (`.local/logs/<app>`).
	AppName string `yaml:"app_name"`
	// ImageExtension is the extension of executable image files, without the dot.
	ImageExtension string `yaml:"image_extension"`
	// DownloadURL serves the latest build of the application.
	DownloadURL string `yaml:"download_url"`
	// MaxLogSize is the size in bytes above which a log file is rotated at launch.
	MaxLogSize int64 `yaml:"max_log_size"`
	// StartupProbeDelay is how long to wait before checking that
	// a freshly spawned process has not already exited.
	StartupProbeDelay time.Duration `yaml:"startup_probe_delay"`
	// DownloadTimeout bounds the whole image download.
	DownloadTimeout time.Duration `yaml:"download_timeout"`
	// InstanceCheck selects the duplicate-instance detection strategy:
	// "pgrep" (command-line scan, approximate) or "pidfile".
	InstanceCheck string `yaml:"instance_check"`
}

const (
	// DefaultConfigFilename is the default filename for launcher settings.
	DefaultConfigFilename = "cursor-launcher.yaml"

	// DefaultAppName is the managed application's base name.
	DefaultAppName = "cursor"

	// DefaultImageExtension is the executable image extension.
	DefaultImageExtension = "AppImage"

	// DefaultDownloadURL serves the latest Linux x64 build.
	DefaultDownloadURL = "https://downloader.cursor.sh/linux/appImage/x64"

	// DefaultMaxLogSize caps log files at 5 MiB.
	DefaultMaxLogSize int64 = 5 * 1024 * 1024

	// DefaultStartupProbeDelay is the liveness probe delay after spawn.
	DefaultStartupProbeDelay = 2 * time.Second

	// DefaultDownloadTimeout bounds the image download. The original had no
	// bound at all; a generous one accommodates large images on slow links.
	DefaultDownloadTimeout = 10 * time.Minute

	// DefaultFilePermissions is the file permission for persisted settings.
	DefaultFilePermissions = 0o600

	// InstanceCheckCommandLine scans the process table for the pointer path.
	InstanceCheckCommandLine = "pgrep"

	// InstanceCheckPIDFile tracks the launched process through a PID file.
	InstanceCheckPIDFile = "pidfile"
)

var (
	// errConfigIsNotSet is returned when a nil configuration is provided.
	errConfigIsNotSet = errors.New("configuration is not set")
	// errAppNameInvalid is returned when the application name is empty or contains path separators.
	errAppNameInvalid = errors.New("application name must be a plain file name component")
	// errInstanceCheckInvalid is returned for an unknown instance detection strategy.
	errInstanceCheckInvalid = errors.New("instance check must be \"pgrep\" or \"pidfile\"")
)

// Default returns a configuration populated with defaults.
// The home directory is resolved from the environment.
func Default() (*Config, error) {
	cfg := new(Config)
	if err := Validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Load reads configuration from the provided path and validates it.
// A missing file is not an error: defaults are returned instead,
// so the launcher works with zero setup.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultConfigFilename
	}

	contents, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Default()
		}

		return nil, fmt.Errorf("read settings: %w", err)
	}

	var cfg Config
	if err = yaml.Unmarshal(contents, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal settings: %w", err)
	}

	if err = Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Save writes the configuration to the provided path.
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

// Validate checks the provided settings and fills in defaults for unset fields.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if cfg.HomeDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("resolve home directory: %w", err)
		}

		cfg.HomeDir = homeDir
	}

	if cfg.AppName == "" {
		cfg.AppName = DefaultAppName
	}

	if strings.ContainsAny(cfg.AppName, `/\`) || cfg.AppName != filepath.Base(cfg.AppName) {
		return fmt.Errorf("%q: %w", cfg.AppName, errAppNameInvalid)
	}

	if cfg.ImageExtension == "" {
		cfg.ImageExtension = DefaultImageExtension
	}

	cfg.ImageExtension = strings.TrimPrefix(cfg.ImageExtension, ".")

	if cfg.DownloadURL == "" {
		cfg.DownloadURL = DefaultDownloadURL
	}

	if _, err := url.ParseRequestURI(cfg.DownloadURL); err != nil {
		return fmt.Errorf("invalid download URL: %w", err)
	}

	if cfg.MaxLogSize <= 0 {
		cfg.MaxLogSize = DefaultMaxLogSize
	}

	if cfg.StartupProbeDelay <= 0 {
		cfg.StartupProbeDelay = DefaultStartupProbeDelay
	}

	if cfg.DownloadTimeout <= 0 {
		cfg.DownloadTimeout = DefaultDownloadTimeout
	}

	switch cfg.InstanceCheck {
	case "":
		cfg.InstanceCheck = InstanceCheckCommandLine
	case InstanceCheckCommandLine, InstanceCheckPIDFile:
	default:
		return fmt.Errorf("%q: %w", cfg.InstanceCheck, errInstanceCheckInvalid)
	}

	return nil
}
