// Copyright 2021 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package types

import (
	"fmt"

	"github.com/ChainSafe/rtapi/lib/common"
)

// GrandpaAuthoritiesRaw represents a GRANDPA authority where their key is a byte array
type GrandpaAuthoritiesRaw struct {
	Key [32]byte
	ID  uint64
}

func (a GrandpaAuthoritiesRaw) String() string {
	return fmt.Sprintf("0x%x:%d", a.Key[:4], a.ID)
}

// GrandpaSet is an authority set together with its set id.
type GrandpaSet struct {
	SetID       uint64
	Authorities []GrandpaAuthoritiesRaw
}

// GrandpaPendingChange is a scheduled change the host waits to enact.
type GrandpaPendingChange struct {
	Change      GrandpaScheduledChange
	AnnouncedIn common.Hash
	EffectiveAt uint64
}
