// Copyright 2023 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package commands

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ChainSafe/rtapi/config"
	"github.com/ChainSafe/rtapi/dot/state"
	"github.com/ChainSafe/rtapi/lib/genesis"
	"github.com/ChainSafe/rtapi/lib/keyring"
	"github.com/spf13/cobra"
	terminal "golang.org/x/term"
)

const confirmCharacter = "Y"

func newInitCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialise the node database with the genesis state",
		Long: `The init command writes the genesis block and state to the node database.
Without --genesis the development genesis is used and written to the base path.
Example:
	rtapi init --base-path ./data
	rtapi init --base-path ./data --genesis genesis.json --force`,
		RunE: func(cmd *cobra.Command, args []string) error {
			force, err := cmd.Flags().GetBool("force")
			if err != nil {
				return fmt.Errorf("failed to get --force: %w", err)
			}
			return execInit(cmd, a.config, force)
		},
	}
	cmd.Flags().Bool("force", false, "remove an existing database before initialising")
	return cmd
}

// execInit executes the init command
func execInit(cmd *cobra.Command, cfg *config.Config, force bool) error {
	err := os.MkdirAll(cfg.BasePath, 0o700)
	if err != nil {
		return fmt.Errorf("creating base path: %w", err)
	}

	g, err := loadGenesis(cfg)
	if err != nil {
		return err
	}
	entries, err := g.Entries()
	if err != nil {
		return fmt.Errorf("building genesis state: %w", err)
	}
	header, err := genesis.Header(entries)
	if err != nil {
		return fmt.Errorf("building genesis header: %w", err)
	}
	authorities, err := genesis.GrandpaAuthorities(entries)
	if err != nil {
		return err
	}

	if !force && databaseExists(cfg) && terminal.IsTerminal(int(os.Stdin.Fd())) {
		if !confirmMessage(cmd.InOrStdin(), cmd.OutOrStdout(),
			"Are you sure you want to reinitialise the node? [Y/n]") {
			logger.Warn("exiting without reinitialising the node at base path " + cfg.BasePath)
			return nil
		}
		force = true
	}

	if force {
		logger.Info("removing database at " + cfg.DatabasePath())
		err = os.RemoveAll(cfg.DatabasePath())
		if err != nil {
			return fmt.Errorf("removing database: %w", err)
		}
	}

	service, err := state.NewService(state.Config{
		Path:     cfg.DatabasePath(),
		Database: cfg.Database,
		LogLevel: cfg.Log.State(),
	})
	if err != nil {
		return err
	}
	defer func() {
		_ = service.Stop()
	}()

	err = service.Initialise(header, entries, authorities)
	if err != nil {
		return fmt.Errorf("failed to initialise node: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "initialised chain %q at %s with genesis block %s\n",
		g.Name, cfg.BasePath, header.Hash())
	return nil
}

// loadGenesis reads the configured genesis file. Without one, the
// development genesis is written to the base path and used.
func loadGenesis(cfg *config.Config) (*genesis.Genesis, error) {
	if cfg.Genesis != "" {
		return genesis.NewGenesisFromJSON(cfg.Genesis)
	}

	kr, err := keyring.NewDevKeyring()
	if err != nil {
		return nil, err
	}
	g, err := genesis.NewDevGenesis(kr)
	if err != nil {
		return nil, err
	}
	err = g.WriteJSON(cfg.GenesisPath())
	if err != nil {
		return nil, fmt.Errorf("writing genesis file: %w", err)
	}
	return g, nil
}

func databaseExists(cfg *config.Config) bool {
	if cfg.Database == config.MemoryDatabase {
		return false
	}
	_, err := os.Stat(cfg.DatabasePath())
	return err == nil
}

// confirmMessage prompts the user to confirm the message and returns true
// if the answer is "Y".
func confirmMessage(in io.Reader, out io.Writer, msg string) bool {
	fmt.Fprintln(out, msg)
	fmt.Fprint(out, "> ")
	text, _ := bufio.NewReader(in).ReadString('\n')
	text = strings.TrimSpace(text)
	return strings.EqualFold(text, confirmCharacter)
}
