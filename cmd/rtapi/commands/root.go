// Copyright 2023 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

// Package commands implements the rtapi command line interface.
package commands

import (
	"fmt"

	"github.com/ChainSafe/rtapi/config"
	"github.com/ChainSafe/rtapi/internal/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var logger = log.NewFromGlobal(log.AddContext("pkg", "cmd"))

// app is shared by the commands of one root command. Its configuration is
// loaded before any subcommand runs.
type app struct {
	viper  *viper.Viper
	config *config.Config
}

// NewRootCommand creates the root command and its subcommands.
func NewRootCommand() *cobra.Command {
	a := &app{viper: viper.New()}
	config.ConfigureEnv(a.viper)

	cmd := &cobra.Command{
		Use:   "rtapi",
		Short: "Host side of the runtime api boundary",
		Long: `rtapi builds and imports blocks by calling into a runtime through the
runtime api client.
Usage:
	rtapi init --base-path ./data
	rtapi build-block --base-path ./data --transfer alice:bob:10
	rtapi version --base-path ./data --executor remote --remote localhost:7100`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !needsConfig(cmd) {
				return nil
			}
			return a.loadConfig()
		},
	}

	err := addRootFlags(cmd, a.viper)
	if err != nil {
		// the flags are static, so binding can only fail on a programming error
		panic(err)
	}

	cmd.AddCommand(
		newInitCommand(a),
		newBuildBlockCommand(a),
		newVersionCommand(a),
		newKeysCommand(),
		newRuntimeServerCommand(),
	)
	return cmd
}

func (a *app) loadConfig() error {
	cfg, err := config.Load(a.viper)
	if err != nil {
		return err
	}
	a.config = cfg

	log.Patch(
		log.SetLevel(cfg.Log.Global()),
		log.SetColour(cfg.Log.Colour),
		log.SetCaller(cfg.Log.Caller),
	)
	logger.Debugf("loaded configuration with base path %s", cfg.BasePath)
	return nil
}

// needsConfig returns false for commands which run without a node.
func needsConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations["config"] == "none" {
			return false
		}
	}
	return true
}

// addRootFlags adds the persistent flags of the node configuration and
// binds them to v.
func addRootFlags(cmd *cobra.Command, v *viper.Viper) error {
	defaults := config.DefaultConfig()
	flags := []struct {
		name, viperKey, value, usage string
	}{
		{"base-path", "base-path", defaults.BasePath, "Directory of the node database and configuration"},
		{"genesis", "genesis", "", "Path of the genesis file, the development genesis when empty"},
		{"database", "database", defaults.Database, "Database backend: badger or memory"},
		{"log", "log.level", defaults.Log.Level, "Global log level"},
		{"log-state", "log.state", defaults.Log.StateLevel, "Log level of the state service"},
		{"log-runtime", "log.runtime", defaults.Log.RuntimeLevel, "Log level of the runtime packages"},
		{"executor", "runtime.executor", defaults.Runtime.Executor, "Runtime executor: native, wasm or remote"},
		{"remote", "runtime.remote", "", "Address of the runtime server used by the remote executor"},
		{"metrics-address", "metrics.address", defaults.Metrics.Address, "Listening address of the metrics server"},
		{"pprof-address", "pprof.address", defaults.Pprof.Address, "Listening address of the profiling server"},
	}
	for _, flag := range flags {
		err := addStringFlagBindViper(cmd, v, flag.name, flag.value, flag.usage, flag.viperKey)
		if err != nil {
			return fmt.Errorf("failed to add --%s flag: %w", flag.name, err)
		}
	}

	boolFlags := []struct {
		name, viperKey, usage string
	}{
		{"log-colour", "log.colour", "Colour the level of log lines"},
		{"log-caller", "log.caller", "Log the file and line of the caller"},
		{"metrics", "metrics.enabled", "Serve prometheus metrics"},
		{"pprof", "pprof.enabled", "Serve runtime profiles"},
	}
	for _, flag := range boolFlags {
		cmd.PersistentFlags().Bool(flag.name, false, flag.usage)
		err := v.BindPFlag(flag.viperKey, cmd.PersistentFlags().Lookup(flag.name))
		if err != nil {
			return fmt.Errorf("failed to bind --%s flag: %w", flag.name, err)
		}
	}
	return nil
}

// addStringFlagBindViper adds a string flag to the given command and binds it to the given viper name
func addStringFlagBindViper(cmd *cobra.Command, v *viper.Viper,
	name, defaultValue, usage, viperBindName string) error {
	cmd.PersistentFlags().String(name, defaultValue, usage)
	return v.BindPFlag(viperBindName, cmd.PersistentFlags().Lookup(name))
}
