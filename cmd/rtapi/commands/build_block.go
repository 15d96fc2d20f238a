// Copyright 2023 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package commands

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/ChainSafe/rtapi/config"
	"github.com/ChainSafe/rtapi/dot/types"
	"github.com/ChainSafe/rtapi/lib/keyring"
	"github.com/ChainSafe/rtapi/lib/runtime/native"
	"github.com/spf13/cobra"
)

var errBadTransfer = errors.New("transfer must be from:to:amount")

func newBuildBlockCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "build-block",
		Short: "Build and import blocks on top of the best block",
		Long: `The build-block command submits the given transfers to the transaction pool,
then builds, imports and finalises blocks holding the timestamp inherent and
the pool transactions.
Example:
	rtapi build-block --count 3
	rtapi build-block --transfer alice:bob:10 --transfer bob:0x1234...:1`,
		RunE: func(cmd *cobra.Command, args []string) error {
			count, err := cmd.Flags().GetUint("count")
			if err != nil {
				return fmt.Errorf("failed to get --count: %w", err)
			}
			transfers, err := cmd.Flags().GetStringArray("transfer")
			if err != nil {
				return fmt.Errorf("failed to get --transfer: %w", err)
			}
			return execBuildBlock(cmd, a.config, count, transfers)
		},
	}
	cmd.Flags().Uint("count", 1, "number of blocks to build")
	cmd.Flags().StringArray("transfer", nil,
		"transfer from a development account, as from:to:amount, where to is an account name or id")
	return cmd
}

// execBuildBlock executes the build-block command
func execBuildBlock(cmd *cobra.Command, cfg *config.Config, count uint, transfers []string) (err error) {
	ctx := cmd.Context()
	n, err := openNode(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, n.close())
	}()

	stopServices, err := startServices(cfg)
	if err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, stopServices())
	}()

	err = submitTransfers(cmd, n, transfers)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for i := uint(0); i < count; i++ {
		block, err := n.builder.BuildBlock(ctx)
		if err != nil {
			return fmt.Errorf("building block: %w", err)
		}
		fmt.Fprintf(out, "imported block #%d (%s) with %d extrinsics\n",
			block.Header.Number, block.Header.Hash(), len(block.Body))
	}
	return nil
}

// submitTransfers signs the transfers with the development keys and
// admits them to the pool. Nonces follow on from the best block state.
func submitTransfers(cmd *cobra.Command, n *node, transfers []string) error {
	if len(transfers) == 0 {
		return nil
	}
	kr, err := keyring.NewDevKeyring()
	if err != nil {
		return err
	}
	best, err := n.best()
	if err != nil {
		return err
	}

	nonces := make(map[types.AccountID]uint64)
	for _, transfer := range transfers {
		from, to, amount, err := parseTransfer(kr, transfer)
		if err != nil {
			return err
		}

		who := from.AccountID()
		nonce, ok := nonces[who]
		if !ok {
			nonce, err = n.accountNonce(best, who)
			if err != nil {
				return err
			}
		}

		ext, err := from.Sign(nonce, native.Transfer(to, amount))
		if err != nil {
			return err
		}
		hash, err := n.pool.Admit(cmd.Context(), best, ext)
		if err != nil {
			return fmt.Errorf("submitting transfer %s: %w", transfer, err)
		}
		nonces[who] = nonce + 1
		fmt.Fprintf(cmd.OutOrStdout(), "submitted transfer %s as %s\n", transfer, hash)
	}
	return nil
}

// parseTransfer parses from:to:amount, where from is a development account
// name and to an account name or a hex encoded account id.
func parseTransfer(kr *keyring.Keyring, s string) (from *keyring.KeyPair, to types.AccountID, amount uint64, err error) {
	parts := strings.Split(s, ":")
	if len(parts) != 3 {
		return nil, to, 0, fmt.Errorf("%w: %q", errBadTransfer, s)
	}

	from, err = kr.Get(parts[0])
	if err != nil {
		return nil, to, 0, err
	}

	if strings.HasPrefix(parts[1], "0x") {
		err = to.UnmarshalText([]byte(parts[1]))
		if err != nil {
			return nil, to, 0, fmt.Errorf("parsing destination: %w", err)
		}
	} else {
		dest, err := kr.Get(parts[1])
		if err != nil {
			return nil, to, 0, err
		}
		to = dest.AccountID()
	}

	amount, err = strconv.ParseUint(parts[2], 10, 64)
	if err != nil {
		return nil, to, 0, fmt.Errorf("parsing amount: %w", err)
	}
	return from, to, amount, nil
}
