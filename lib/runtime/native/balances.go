// Copyright 2021 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package native

import (
	"github.com/ChainSafe/rtapi/dot/types"
	"github.com/ChainSafe/rtapi/lib/common"
)

var (
	keyTotalIssuance      = common.StorageKey("Balances", "TotalIssuance")
	keyExistentialDeposit = common.StorageKey("Balances", "ExistentialDeposit")
	keyTransferFee        = common.StorageKey("Balances", "TransferFee")
	keyTransactionBaseFee = common.StorageKey("Balances", "TransactionBaseFee")
	keyTransactionByteFee = common.StorageKey("Balances", "TransactionByteFee")
)

// FreeBalanceKey returns the storage key of the free balance of an account.
func FreeBalanceKey(who types.AccountID) []byte {
	return common.StorageMapKey("Balances", "FreeBalance", who[:])
}

// Balances events
const (
	EventNewAccount uint8 = iota
	EventReapedAccount
	EventTransfer
)

var (
	errInsufficientBalance = newModuleError(0, "balance too low to send value")
	errExistentialDeposit  = newModuleError(1, "value too low to create account")
	errBalanceOverflow     = newModuleError(2, "destination balance too high to receive value")
)

// TransferEvent is the data of a transfer event.
type TransferEvent struct {
	From  types.AccountID
	To    types.AccountID
	Value uint64
	Fee   uint64
}

type balances struct{}

func (balances) name() string { return "Balances" }

func (balances) calls() []call {
	return []call{
		{name: "transfer", dispatch: balancesTransfer},
		{name: "set_balance", dispatch: balancesSetBalance},
	}
}

func balancesTransfer(e *env, o origin, args []byte) error {
	from, err := o.ensureSigned()
	if err != nil {
		return err
	}
	var transfer struct {
		Dest  types.AccountID
		Value uint64
	}
	err = decodeArgs(args, &transfer)
	if err != nil {
		return err
	}

	fee, err := getOr(e, keyTransferFee, uint64(0))
	if err != nil {
		return err
	}
	fromBalance, err := freeBalance(e, from)
	if err != nil {
		return err
	}
	toBalance, err := freeBalance(e, transfer.Dest)
	if err != nil {
		return err
	}

	if fromBalance < transfer.Value || fromBalance-transfer.Value < fee {
		return errInsufficientBalance
	}
	existentialDeposit, err := getOr(e, keyExistentialDeposit, uint64(0))
	if err != nil {
		return err
	}
	if toBalance == 0 && transfer.Value < existentialDeposit {
		return errExistentialDeposit
	}
	if from != transfer.Dest && toBalance+transfer.Value < toBalance {
		return errBalanceOverflow
	}

	err = setFreeBalance(e, from, fromBalance-transfer.Value-fee)
	if err != nil {
		return err
	}
	err = decreaseIssuance(e, fee)
	if err != nil {
		return err
	}

	// read again, the sender may be the destination
	toBalance, err = freeBalance(e, transfer.Dest)
	if err != nil {
		return err
	}
	err = setFreeBalance(e, transfer.Dest, toBalance+transfer.Value)
	if err != nil {
		return err
	}

	return depositEvent(e, BalancesModule, EventTransfer, TransferEvent{
		From:  from,
		To:    transfer.Dest,
		Value: transfer.Value,
		Fee:   fee,
	})
}

func balancesSetBalance(e *env, o origin, args []byte) error {
	err := o.ensureRoot()
	if err != nil {
		return err
	}
	var set struct {
		Who  types.AccountID
		Free uint64
	}
	err = decodeArgs(args, &set)
	if err != nil {
		return err
	}

	previous, err := freeBalance(e, set.Who)
	if err != nil {
		return err
	}
	issuance, err := getOr(e, keyTotalIssuance, uint64(0))
	if err != nil {
		return err
	}
	err = e.put(keyTotalIssuance, issuance-previous+set.Free)
	if err != nil {
		return err
	}
	return setFreeBalance(e, set.Who, set.Free)
}

func freeBalance(e *env, who types.AccountID) (uint64, error) {
	return getOr(e, FreeBalanceKey(who), uint64(0))
}

// setFreeBalance sets the free balance of an account. An account left with
// less than the existential deposit is reaped.
func setFreeBalance(e *env, who types.AccountID, balance uint64) error {
	existentialDeposit, err := getOr(e, keyExistentialDeposit, uint64(0))
	if err != nil {
		return err
	}
	existed, err := e.get(FreeBalanceKey(who), new(uint64))
	if err != nil {
		return err
	}

	if balance == 0 || balance < existentialDeposit {
		if !existed {
			return nil
		}
		return reapAccount(e, who, balance)
	}

	err = e.put(FreeBalanceKey(who), balance)
	if err != nil {
		return err
	}
	if !existed {
		return depositEvent(e, BalancesModule, EventNewAccount, who)
	}
	return nil
}

// reapAccount removes an account, burning its remaining dust, and calls
// the reap hooks of the modules.
func reapAccount(e *env, who types.AccountID, dust uint64) error {
	err := e.delete(FreeBalanceKey(who))
	if err != nil {
		return err
	}
	err = decreaseIssuance(e, dust)
	if err != nil {
		return err
	}
	err = onReap(e, who)
	if err != nil {
		return err
	}
	return depositEvent(e, BalancesModule, EventReapedAccount, who)
}

func decreaseIssuance(e *env, amount uint64) error {
	if amount == 0 {
		return nil
	}
	issuance, err := getOr(e, keyTotalIssuance, uint64(0))
	if err != nil {
		return err
	}
	if amount > issuance {
		amount = issuance
	}
	return e.put(keyTotalIssuance, issuance-amount)
}

// transactionFee returns the fee of an extrinsic of the given encoded length.
func transactionFee(e *env, length int) (uint64, error) {
	base, err := getOr(e, keyTransactionBaseFee, uint64(0))
	if err != nil {
		return 0, err
	}
	perByte, err := getOr(e, keyTransactionByteFee, uint64(0))
	if err != nil {
		return 0, err
	}
	return base + perByte*uint64(length), nil
}

// withdrawFee withdraws the fee of an extrinsic from the sender. The
// caller checks the sender can pay.
func withdrawFee(e *env, who types.AccountID, fee uint64) error {
	if fee == 0 {
		return nil
	}
	balance, err := freeBalance(e, who)
	if err != nil {
		return err
	}
	err = setFreeBalance(e, who, balance-fee)
	if err != nil {
		return err
	}
	return decreaseIssuance(e, fee)
}
