// Copyright 2021 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package digest

import (
	"github.com/ChainSafe/rtapi/dot/types"
)

// GrandpaState is the interface for the state.GrandpaState
type GrandpaState interface {
	SetNextChange(change types.GrandpaPendingChange) error
	ApplyScheduledChanges(finalizedHeader *types.Header) error
}
