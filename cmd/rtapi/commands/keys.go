// Copyright 2023 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package commands

import (
	"fmt"

	"github.com/ChainSafe/rtapi/lib/common"
	"github.com/ChainSafe/rtapi/lib/keyring"
	"github.com/spf13/cobra"
)

func newKeysCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:         "keys",
		Short:       "Manage account keys",
		Annotations: map[string]string{"config": "none"},
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "generate",
		Short: "Generate a key pair from a new mnemonic",
		RunE: func(cmd *cobra.Command, args []string) error {
			kp, mnemonic, err := keyring.GenerateKeyPair()
			if err != nil {
				return err
			}
			id := kp.AccountID()
			fmt.Fprintf(cmd.OutOrStdout(), "mnemonic: %s\naccount: %s\n", mnemonic, common.BytesToHex(id[:]))
			return nil
		},
	}, &cobra.Command{
		Use:   "dev",
		Short: "List the development accounts",
		RunE: func(cmd *cobra.Command, args []string) error {
			kr, err := keyring.NewDevKeyring()
			if err != nil {
				return err
			}
			for _, name := range kr.Names() {
				kp, err := kr.Get(name)
				if err != nil {
					return err
				}
				id := kp.AccountID()
				fmt.Fprintf(cmd.OutOrStdout(), "%-8s %s\n", name, common.BytesToHex(id[:]))
			}
			return nil
		},
	})
	return cmd
}
