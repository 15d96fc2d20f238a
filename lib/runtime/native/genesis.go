// Copyright 2021 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package native

import (
	"context"

	"github.com/ChainSafe/rtapi/dot/types"
	"github.com/ChainSafe/rtapi/lib/common"
	"github.com/ChainSafe/rtapi/lib/runtime/storage"
)

// GenesisAccount is an account endowed at genesis.
type GenesisAccount struct {
	Account types.AccountID `json:"account"`
	Balance uint64          `json:"balance"`
}

// GenesisConfig is the initial state of the runtime modules.
type GenesisConfig struct {
	Balances           []GenesisAccount              `json:"balances"`
	ExistentialDeposit uint64                        `json:"existentialDeposit"`
	TransferFee        uint64                        `json:"transferFee"`
	TransactionBaseFee uint64                        `json:"transactionBaseFee"`
	TransactionByteFee uint64                        `json:"transactionByteFee"`
	MinimumPeriod      uint64                        `json:"minimumPeriod"`
	Authorities        []types.AccountID             `json:"authorities"`
	GrandpaAuthorities []types.GrandpaAuthoritiesRaw `json:"grandpaAuthorities"`
	SudoKey            *types.AccountID              `json:"sudoKey,omitempty"`
}

// BuildStorage returns the genesis state of a chain running the build.
func (r *Runtime) BuildStorage(cfg GenesisConfig) (map[string][]byte, error) {
	overlay := storage.NewOverlay(nil)
	e := newEnv(context.Background(), overlay)

	err := overlay.Put(common.CodeKey, r.Code())
	if err != nil {
		return nil, err
	}

	var issuance uint64
	for _, account := range cfg.Balances {
		err = e.put(FreeBalanceKey(account.Account), account.Balance)
		if err != nil {
			return nil, err
		}
		issuance += account.Balance
	}

	values := []struct {
		key   []byte
		value any
	}{
		{keyTotalIssuance, issuance},
		{keyExistentialDeposit, cfg.ExistentialDeposit},
		{keyTransferFee, cfg.TransferFee},
		{keyTransactionBaseFee, cfg.TransactionBaseFee},
		{keyTransactionByteFee, cfg.TransactionByteFee},
		{keyMinimumPeriod, cfg.MinimumPeriod},
		{keyAuthorities, nonNil(cfg.Authorities)},
		{GrandpaAuthoritiesKey, nonNil(cfg.GrandpaAuthorities)},
		{keyNumber, uint64(0)},
	}
	for _, v := range values {
		err = e.put(v.key, v.value)
		if err != nil {
			return nil, err
		}
	}
	if cfg.SudoKey != nil {
		err = e.put(keySudoKey, *cfg.SudoKey)
		if err != nil {
			return nil, err
		}
	}

	overlay.CommitProspective()
	return overlay.Entries()
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
