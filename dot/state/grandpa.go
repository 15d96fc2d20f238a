// Copyright 2021 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package state

import (
	"errors"
	"fmt"

	"github.com/ChainSafe/rtapi/dot/types"
	"github.com/ChainSafe/rtapi/internal/database"
	"github.com/ChainSafe/rtapi/pkg/scale"
)

const grandpaPrefix = "grandpa"

var (
	currentSetKey     = []byte("set")
	pendingChangeKey  = []byte("pending")
	setIDChangePrefix = []byte("change")
)

func setIDChangeKey(setID uint64) []byte {
	return database.PrefixedKey(setIDChangePrefix, encodeBlockNumber(setID))
}

// GrandpaState tracks the grandpa authority set and its scheduled change.
type GrandpaState struct {
	db database.Table
}

// NewGrandpaState returns the grandpa state stored in the database.
func NewGrandpaState(db database.Database) *GrandpaState {
	return &GrandpaState{db: db.NewTable(grandpaPrefix)}
}

func (s *GrandpaState) setCurrentSet(set types.GrandpaSet) error {
	enc, err := scale.Marshal(set)
	if err != nil {
		return err
	}
	return s.db.Set(currentSetKey, enc)
}

// GetCurrentSet returns the current authority set.
func (s *GrandpaState) GetCurrentSet() (set types.GrandpaSet, err error) {
	enc, err := s.db.Get(currentSetKey)
	if err != nil {
		return set, fmt.Errorf("getting current set: %w", err)
	}
	err = scale.Unmarshal(enc, &set)
	return set, err
}

// GetPendingChange returns the scheduled change waiting to be enacted, or
// nil if there is none.
func (s *GrandpaState) GetPendingChange() (*types.GrandpaPendingChange, error) {
	enc, err := s.db.Get(pendingChangeKey)
	if errors.Is(err, database.ErrKeyNotFound) {
		return nil, nil //nolint:nilnil
	} else if err != nil {
		return nil, fmt.Errorf("getting pending change: %w", err)
	}
	var change types.GrandpaPendingChange
	err = scale.Unmarshal(enc, &change)
	if err != nil {
		return nil, err
	}
	return &change, nil
}

// SetNextChange records a scheduled change. A change announced while
// another one is pending is ignored.
func (s *GrandpaState) SetNextChange(change types.GrandpaPendingChange) error {
	pending, err := s.GetPendingChange()
	if err != nil {
		return err
	}
	if pending != nil {
		logger.Warnf("ignoring authority set change announced in %s: change announced in %s is pending",
			change.AnnouncedIn, pending.AnnouncedIn)
		return nil
	}

	enc, err := scale.Marshal(change)
	if err != nil {
		return err
	}
	return s.db.Set(pendingChangeKey, enc)
}

// ApplyScheduledChanges enacts the pending change once the finalised block
// reaches its effective number.
func (s *GrandpaState) ApplyScheduledChanges(finalisedHeader *types.Header) error {
	pending, err := s.GetPendingChange()
	if err != nil {
		return err
	}
	if pending == nil || finalisedHeader.Number < pending.EffectiveAt {
		return nil
	}

	current, err := s.GetCurrentSet()
	if err != nil {
		return err
	}
	next := types.GrandpaSet{
		SetID:       current.SetID + 1,
		Authorities: pending.Change.Auths,
	}
	enc, err := scale.Marshal(next)
	if err != nil {
		return err
	}

	batch := s.db.NewWriteBatch()
	err = batch.Set(currentSetKey, enc)
	if err == nil {
		err = batch.Set(setIDChangeKey(next.SetID), encodeBlockNumber(finalisedHeader.Number))
	}
	if err == nil {
		err = batch.Delete(pendingChangeKey)
	}
	if err != nil {
		batch.Cancel()
		return err
	}
	err = batch.Flush()
	if err != nil {
		return err
	}

	logger.Infof("authority set %d enacted at block #%d", next.SetID, finalisedHeader.Number)
	return nil
}

// GetSetIDChange returns the number of the block at which the set id was enacted.
func (s *GrandpaState) GetSetIDChange(setID uint64) (uint64, error) {
	enc, err := s.db.Get(setIDChangeKey(setID))
	if err != nil {
		return 0, fmt.Errorf("getting change of set %d: %w", setID, err)
	}
	return decodeBlockNumber(enc), nil
}
