// Copyright 2023 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package commands

import (
	"errors"
	"fmt"

	"github.com/ChainSafe/rtapi/config"
	"github.com/spf13/cobra"
)

func newVersionCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the runtime version at the best block",
		RunE: func(cmd *cobra.Command, args []string) error {
			return execVersion(cmd, a.config)
		},
	}
}

// execVersion executes the version command
func execVersion(cmd *cobra.Command, cfg *config.Config) (err error) {
	n, err := openNode(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, n.close())
	}()

	best, err := n.best()
	if err != nil {
		return err
	}
	version, err := n.client.Version(cmd.Context(), best)
	if err != nil {
		return fmt.Errorf("getting runtime version: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s\n", version)
	fmt.Fprintf(out, "authoring version: %d\n", version.AuthoringVersion)
	for _, item := range version.APIItems {
		fmt.Fprintf(out, "api %s: %d\n", item.Name, item.Ver)
	}
	return nil
}
