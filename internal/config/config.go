// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Protogen Contributors

// Package config loads the host configuration from a YAML file and
// command-line flags.
package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/samber/oops"
	"github.com/spf13/pflag"

	"github.com/mrf7777/protogen-software-sub000/internal/host"
	"github.com/mrf7777/protogen-software-sub000/internal/logging"
	"github.com/mrf7777/protogen-software-sub000/internal/xdg"
)

// Error codes.
const (
	CodeInvalid  = "CONFIG_INVALID"
	CodeNotFound = "CONFIG_NOT_FOUND"
)

// FileName is the name of the config file inside the config directory.
const FileName = "config.yaml"

// Config is the complete host configuration.
type Config struct {
	Extensions    ExtensionsConfig    `koanf:"extensions" json:"extensions,omitempty"`
	Host          HostConfig          `koanf:"host" json:"host,omitempty"`
	Control       ControlConfig       `koanf:"control" json:"control,omitempty"`
	Observability ObservabilityConfig `koanf:"observability" json:"observability,omitempty"`
	Log           LogConfig           `koanf:"log" json:"log,omitempty"`
}

// ExtensionsConfig selects where extensions are found.
type ExtensionsConfig struct {
	AppsDir     string `koanf:"apps_dir" json:"apps_dir,omitempty" jsonschema:"description=Directory holding one subdirectory per app"`
	SensorsDir  string `koanf:"sensors_dir" json:"sensors_dir,omitempty" jsonschema:"description=Directory holding one subdirectory per sensor"`
	SurfacesDir string `koanf:"surfaces_dir" json:"surfaces_dir,omitempty" jsonschema:"description=Directory holding one subdirectory per render surface"`

	Ignore             []string `koanf:"ignore" json:"ignore,omitempty" jsonschema:"description=Glob patterns of extension directory names to skip"`
	VersionConstraint  string   `koanf:"version_constraint" json:"version_constraint,omitempty" jsonschema:"description=Semantic version constraint extension versions must satisfy"`
	CreateUserDataDirs bool     `koanf:"create_user_data_dirs" json:"create_user_data_dirs,omitempty"`

	Watch         bool          `koanf:"watch" json:"watch,omitempty" jsonschema:"description=Reload when extension directories change"`
	WatchDebounce time.Duration `koanf:"watch_debounce" json:"watch_debounce,omitempty"`
}

// HostConfig tunes the runtime.
type HostConfig struct {
	SurfacePreference []string      `koanf:"surface_preference" json:"surface_preference,omitempty" jsonschema:"description=Render surface ids in order of preference"`
	DefaultApp        string        `koanf:"default_app" json:"default_app,omitempty"`
	IdleInterval      time.Duration `koanf:"idle_interval" json:"idle_interval,omitempty"`
	SensorCacheTTL    time.Duration `koanf:"sensor_cache_ttl" json:"sensor_cache_ttl,omitempty"`
	SensorCacheSize   int           `koanf:"sensor_cache_size" json:"sensor_cache_size,omitempty"`
}

// ControlConfig configures the HTTP control server.
type ControlConfig struct {
	Addr string `koanf:"addr" json:"addr,omitempty" jsonschema:"description=Listen address; empty disables the control server"`
}

// ObservabilityConfig configures the metrics and health server.
type ObservabilityConfig struct {
	Addr string `koanf:"addr" json:"addr,omitempty" jsonschema:"description=Listen address; empty disables the observability server"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `koanf:"level" json:"level,omitempty" jsonschema:"enum=debug,enum=info,enum=warn,enum=error"`
	Format string `koanf:"format" json:"format,omitempty" jsonschema:"enum=json,enum=text"`
}

// Default returns the configuration used when nothing is configured.
// Extension directories live under the XDG data directory.
func Default() Config {
	data, err := xdg.DataDir()
	if err != nil {
		data = "."
	}
	return Config{
		Extensions: ExtensionsConfig{
			AppsDir:            filepath.Join(data, "apps"),
			SensorsDir:         filepath.Join(data, "sensors"),
			SurfacesDir:        filepath.Join(data, "surfaces"),
			CreateUserDataDirs: true,
			WatchDebounce:      500 * time.Millisecond,
		},
		Host: HostConfig{
			IdleInterval:    host.DefaultIdleInterval,
			SensorCacheTTL:  50 * time.Millisecond,
			SensorCacheSize: 256,
		},
		Control:       ControlConfig{Addr: "127.0.0.1:8420"},
		Observability: ObservabilityConfig{Addr: "127.0.0.1:9100"},
		Log:           LogConfig{Level: "info", Format: "json"},
	}
}

// DefaultPath returns $XDG_CONFIG_HOME/protogen/config.yaml.
func DefaultPath() (string, error) {
	dir, err := xdg.ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, FileName), nil
}

// flagKeys maps command-line flags to config keys.
var flagKeys = map[string]string{
	"apps-dir":           "extensions.apps_dir",
	"sensors-dir":        "extensions.sensors_dir",
	"surfaces-dir":       "extensions.surfaces_dir",
	"ignore":             "extensions.ignore",
	"version-constraint": "extensions.version_constraint",
	"watch":              "extensions.watch",
	"default-app":        "host.default_app",
	"surface":            "host.surface_preference",
	"control-addr":       "control.addr",
	"metrics-addr":       "observability.addr",
	"log-level":          "log.level",
	"log-format":         "log.format",
}

// BindFlags registers the configuration flags on fs with the defaults of d.
func BindFlags(flags *pflag.FlagSet, d Config) {
	flags.String("apps-dir", d.Extensions.AppsDir, "directory of app extensions")
	flags.String("sensors-dir", d.Extensions.SensorsDir, "directory of sensor extensions")
	flags.String("surfaces-dir", d.Extensions.SurfacesDir, "directory of render surface extensions")
	flags.StringSlice("ignore", d.Extensions.Ignore, "glob patterns of extension directory names to skip")
	flags.String("version-constraint", d.Extensions.VersionConstraint, "semantic version constraint for extensions")
	flags.Bool("watch", d.Extensions.Watch, "reload when extension directories change")
	flags.String("default-app", d.Host.DefaultApp, "app to activate after loading")
	flags.StringSlice("surface", d.Host.SurfacePreference, "preferred render surface ids")
	flags.String("control-addr", d.Control.Addr, "control server address (empty to disable)")
	flags.String("metrics-addr", d.Observability.Addr, "observability server address (empty to disable)")
	flags.String("log-level", d.Log.Level, "log level (debug, info, warn, error)")
	flags.String("log-format", d.Log.Format, "log format (json, text)")
}

// Load builds the configuration from defaults, the YAML file at path and
// flags, in that order. An empty path uses DefaultPath, which may be
// missing; an explicit path must exist. flags may be nil.
func Load(path string, flags *pflag.FlagSet) (Config, error) {
	cfg := Default()
	k := koanf.New(".")

	explicit := path != ""
	if !explicit {
		p, err := DefaultPath()
		if err != nil {
			return cfg, err
		}
		path = p
	}

	data, err := os.ReadFile(path) //nolint:gosec // path comes from the operator
	switch {
	case err == nil:
		if err := ValidateSchema(data); err != nil {
			return cfg, oops.In("config").Code(CodeInvalid).With("path", path).Wrap(err)
		}
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return cfg, oops.In("config").Code(CodeInvalid).With("path", path).Wrap(err)
		}
	case errors.Is(err, fs.ErrNotExist) && !explicit:
		// Defaults only.
	case errors.Is(err, fs.ErrNotExist):
		return cfg, oops.In("config").Code(CodeNotFound).With("path", path).
			Hint("create the file or omit --config").Wrap(err)
	default:
		return cfg, oops.In("config").With("path", path).Wrap(err)
	}

	if flags != nil {
		provider := posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, any) {
			key, ok := flagKeys[f.Name]
			if !ok {
				return "", nil
			}
			return key, posflag.FlagVal(flags, f)
		})
		if err := k.Load(provider, nil); err != nil {
			return cfg, oops.In("config").Wrap(err)
		}
	}

	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return cfg, oops.In("config").Code(CodeInvalid).With("path", path).Wrap(err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate checks values the schema cannot express.
func (c Config) Validate() error {
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		return oops.In("config").Code(CodeInvalid).With("log.level", c.Log.Level).Wrap(err)
	}
	if c.Log.Format != "json" && c.Log.Format != "text" {
		return oops.In("config").Code(CodeInvalid).With("log.format", c.Log.Format).Errorf("log format must be json or text")
	}
	if c.Host.SensorCacheSize < 1 && c.Host.SensorCacheTTL > 0 {
		return oops.In("config").Code(CodeInvalid).Errorf("host.sensor_cache_size must be positive when caching is enabled")
	}
	return nil
}

// HostConfig converts to the runtime configuration.
func (c Config) HostConfig() host.Config {
	return host.Config{
		AppsDir:            c.Extensions.AppsDir,
		SensorsDir:         c.Extensions.SensorsDir,
		SurfacesDir:        c.Extensions.SurfacesDir,
		Ignore:             c.Extensions.Ignore,
		SurfacePreference:  c.Host.SurfacePreference,
		DefaultApp:         c.Host.DefaultApp,
		VersionConstraint:  c.Extensions.VersionConstraint,
		CreateUserDataDirs: c.Extensions.CreateUserDataDirs,
		SensorCacheTTL:     c.Host.SensorCacheTTL,
		SensorCacheSize:    c.Host.SensorCacheSize,
		IdleInterval:       c.Host.IdleInterval,
	}
}

// Roots returns the extension directories.
func (c Config) Roots() []string {
	return []string{c.Extensions.SurfacesDir, c.Extensions.SensorsDir, c.Extensions.AppsDir}
}

// Logging returns the logger options.
func (c Config) Logging(version string) logging.Options {
	return logging.Options{
		Service: "protogen",
		Version: version,
		Format:  c.Log.Format,
		Level:   c.Log.Level,
	}
}
