// Copyright 2021 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package digest

import (
	"fmt"

	"github.com/ChainSafe/rtapi/dot/types"
	"github.com/ChainSafe/rtapi/internal/log"
)

var logger = log.NewFromGlobal(log.AddContext("pkg", "digest"))

// Handler tracks the authority set changes signalled in block digests.
type Handler struct {
	grandpaState GrandpaState
}

// NewHandler returns a new Handler
func NewHandler(grandpaState GrandpaState) *Handler {
	return &Handler{grandpaState: grandpaState}
}

// HandleDigests handles the consensus digests of an imported block. Only the
// first authority set change of a block is scheduled, later ones in the same
// digest are ignored.
func (h *Handler) HandleDigests(header *types.Header) error {
	changes := GrandpaScheduledChanges(header.Digest)
	if len(changes) == 0 {
		return nil
	}
	for _, ignored := range changes[1:] {
		logger.Warnf("ignoring authority set change with delay %d in block #%d: a change is already signalled",
			ignored.Delay, header.Number)
	}

	pending := types.GrandpaPendingChange{
		Change:      changes[0],
		AnnouncedIn: header.Hash(),
		EffectiveAt: header.Number + uint64(changes[0].Delay),
	}
	err := h.grandpaState.SetNextChange(pending)
	if err != nil {
		return fmt.Errorf("setting next authority set change: %w", err)
	}
	logger.Debugf("authority set change announced in block #%d, effective at #%d",
		header.Number, pending.EffectiveAt)
	return nil
}

// HandleFinalised enacts the pending authority set change once the
// finalised block reaches it.
func (h *Handler) HandleFinalised(header *types.Header) error {
	err := h.grandpaState.ApplyScheduledChanges(header)
	if err != nil {
		return fmt.Errorf("applying scheduled changes: %w", err)
	}
	return nil
}
