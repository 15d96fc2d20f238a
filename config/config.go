// Copyright 2023 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

// Package config holds the node configuration, read from a TOML file
// and command line flags.
package config

import (
	"errors"
	"fmt"
	"net"
	"path/filepath"
	"strings"

	"github.com/ChainSafe/rtapi/internal/log"
	"github.com/spf13/viper"
)

// Runtime executors.
const (
	NativeExecutor = "native"
	WasmExecutor   = "wasm"
	RemoteExecutor = "remote"
)

// Database backends.
const (
	BadgerDatabase = "badger"
	MemoryDatabase = "memory"
)

const (
	// DefaultBasePath is the default directory of the node.
	DefaultBasePath = "~/.rtapi"
	// DefaultMetricsAddress is the default address of the metrics server.
	DefaultMetricsAddress = "localhost:9876"
	// DefaultPprofAddress is the default address of the profiling server.
	DefaultPprofAddress = "localhost:6060"
	// FileName is the name of the configuration file, without extension,
	// looked up in the base path.
	FileName = "config"
)

var (
	errEmptyBasePath     = errors.New("base-path cannot be empty")
	errUnknownDatabase   = errors.New("unknown database backend")
	errUnknownExecutor   = errors.New("unknown runtime executor")
	errNoRemoteAddress   = errors.New("remote executor requires runtime.remote")
	errBadMetricsAddress = errors.New("invalid metrics address")
	errBadPprofAddress   = errors.New("invalid pprof address")
)

// Config is the configuration of the node.
type Config struct {
	BasePath string        `mapstructure:"base-path"`
	Genesis  string        `mapstructure:"genesis"`
	Database string        `mapstructure:"database"`
	Log      LogConfig     `mapstructure:"log"`
	Runtime  RuntimeConfig `mapstructure:"runtime"`
	Metrics  MetricsConfig `mapstructure:"metrics"`
	Pprof    PprofConfig   `mapstructure:"pprof"`
}

// LogConfig holds the log levels of the node.
type LogConfig struct {
	Level        string `mapstructure:"level"`
	StateLevel   string `mapstructure:"state"`
	RuntimeLevel string `mapstructure:"runtime"`
	// Colour colours the level of log lines.
	Colour bool `mapstructure:"colour"`
	// Caller appends the file and line of the logging code.
	Caller bool `mapstructure:"caller"`
}

// RuntimeConfig selects how runtime calls are executed.
type RuntimeConfig struct {
	// Executor is one of native, wasm or remote.
	Executor string `mapstructure:"executor"`
	// Remote is the address of the runtime server used by the remote executor.
	Remote string `mapstructure:"remote"`
}

// MetricsConfig configures the prometheus metrics server.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Address string `mapstructure:"address"`
}

// PprofConfig configures the profiling server.
type PprofConfig struct {
	Enabled          bool   `mapstructure:"enabled"`
	Address          string `mapstructure:"address"`
	BlockProfileRate int    `mapstructure:"block-profile-rate"`
	MutexProfileRate int    `mapstructure:"mutex-profile-rate"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		BasePath: DefaultBasePath,
		Database: BadgerDatabase,
		Log: LogConfig{
			Level:        log.Info.String(),
			StateLevel:   log.Info.String(),
			RuntimeLevel: log.Info.String(),
		},
		Runtime: RuntimeConfig{
			Executor: NativeExecutor,
		},
		Metrics: MetricsConfig{
			Address: DefaultMetricsAddress,
		},
		Pprof: PprofConfig{
			Address: DefaultPprofAddress,
		},
	}
}

// ValidateBasic checks the configuration values independently of the
// environment.
func (c *Config) ValidateBasic() error {
	if c.BasePath == "" {
		return errEmptyBasePath
	}

	switch c.Database {
	case BadgerDatabase, MemoryDatabase:
	default:
		return fmt.Errorf("%w: %q", errUnknownDatabase, c.Database)
	}

	for name, level := range map[string]string{
		"log.level":   c.Log.Level,
		"log.state":   c.Log.StateLevel,
		"log.runtime": c.Log.RuntimeLevel,
	} {
		_, err := log.ParseLevel(level)
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}

	switch c.Runtime.Executor {
	case NativeExecutor, WasmExecutor:
	case RemoteExecutor:
		if c.Runtime.Remote == "" {
			return errNoRemoteAddress
		}
	default:
		return fmt.Errorf("%w: %q", errUnknownExecutor, c.Runtime.Executor)
	}

	if c.Metrics.Enabled {
		_, _, err := net.SplitHostPort(c.Metrics.Address)
		if err != nil {
			return fmt.Errorf("%w: %w", errBadMetricsAddress, err)
		}
	}
	if c.Pprof.Enabled {
		_, _, err := net.SplitHostPort(c.Pprof.Address)
		if err != nil {
			return fmt.Errorf("%w: %w", errBadPprofAddress, err)
		}
	}
	return nil
}

// DatabasePath returns the directory of the node database.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.BasePath, "db")
}

// GenesisPath returns the path of the genesis file written by init when
// none is configured.
func (c *Config) GenesisPath() string {
	if c.Genesis != "" {
		return c.Genesis
	}
	return filepath.Join(c.BasePath, "genesis.json")
}

// level parses s, falling back to Info for levels ValidateBasic rejects.
func (l LogConfig) level(s string) log.Level {
	level, err := log.ParseLevel(s)
	if err != nil {
		return log.Info
	}
	return level
}

// Global returns the global log level.
func (l LogConfig) Global() log.Level { return l.level(l.Level) }

// State returns the log level of the state service.
func (l LogConfig) State() log.Level { return l.level(l.StateLevel) }

// Runtime returns the log level of the runtime packages.
func (l LogConfig) Runtime() log.Level { return l.level(l.RuntimeLevel) }

// Load reads the configuration file found in the base path, if any,
// then overrides it with the values set in v. The base path itself is
// read from v.
func Load(v *viper.Viper) (*Config, error) {
	cfg := DefaultConfig()
	setDefaults(v, cfg)

	basePath := ExpandDir(v.GetString("base-path"))
	v.SetConfigName(FileName)
	v.SetConfigType("toml")
	v.AddConfigPath(basePath)
	v.AddConfigPath(filepath.Join(basePath, "config"))

	err := v.ReadInConfig()
	if err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	err = v.Unmarshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.BasePath = ExpandDir(cfg.BasePath)

	err = cfg.ValidateBasic()
	if err != nil {
		return nil, fmt.Errorf("error in config: %w", err)
	}
	return cfg, nil
}

// ConfigureEnv makes v read RTAPI_ prefixed environment variables, so
// that RTAPI_RUNTIME_EXECUTOR sets runtime.executor.
func ConfigureEnv(v *viper.Viper) {
	v.SetEnvPrefix("rtapi")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
}

// setDefaults registers the keys of the configuration in v, so that
// environment variables are picked up by Unmarshal.
func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("base-path", cfg.BasePath)
	v.SetDefault("genesis", cfg.Genesis)
	v.SetDefault("database", cfg.Database)
	v.SetDefault("log.level", cfg.Log.Level)
	v.SetDefault("log.state", cfg.Log.StateLevel)
	v.SetDefault("log.runtime", cfg.Log.RuntimeLevel)
	v.SetDefault("log.colour", cfg.Log.Colour)
	v.SetDefault("log.caller", cfg.Log.Caller)
	v.SetDefault("runtime.executor", cfg.Runtime.Executor)
	v.SetDefault("runtime.remote", cfg.Runtime.Remote)
	v.SetDefault("metrics.enabled", cfg.Metrics.Enabled)
	v.SetDefault("metrics.address", cfg.Metrics.Address)
	v.SetDefault("pprof.enabled", cfg.Pprof.Enabled)
	v.SetDefault("pprof.address", cfg.Pprof.Address)
	v.SetDefault("pprof.block-profile-rate", cfg.Pprof.BlockProfileRate)
	v.SetDefault("pprof.mutex-profile-rate", cfg.Pprof.MutexProfileRate)
}
