// Copyright 2021 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package genesis

import (
	"github.com/ChainSafe/rtapi/dot/types"
	"github.com/ChainSafe/rtapi/lib/keyring"
	"github.com/ChainSafe/rtapi/lib/runtime/native"
)

const devEndowment = 1 << 60

// NewDevGenesis returns the genesis of a development chain: every account
// of the keyring is endowed, alice is the single authority and the sudo key.
func NewDevGenesis(kr *keyring.Keyring) (*Genesis, error) {
	alice, err := kr.Get("alice")
	if err != nil {
		return nil, err
	}
	sudo := alice.AccountID()

	config := &native.GenesisConfig{
		ExistentialDeposit: 1,
		TransactionBaseFee: 1,
		Authorities:        []types.AccountID{alice.AccountID()},
		GrandpaAuthorities: []types.GrandpaAuthoritiesRaw{{Key: alice.AccountID(), ID: 1}},
		SudoKey:            &sudo,
	}
	for _, name := range kr.Names() {
		kp, err := kr.Get(name)
		if err != nil {
			return nil, err
		}
		config.Balances = append(config.Balances, native.GenesisAccount{
			Account: kp.AccountID(),
			Balance: devEndowment,
		})
	}

	return &Genesis{
		Name:      "Development",
		ID:        "dev",
		ChainType: "Development",
		Build:     CurrentBuild,
		Properties: map[string]any{
			"tokenSymbol":   "UNIT",
			"tokenDecimals": 12,
		},
		Genesis: Fields{Runtime: config},
	}, nil
}
