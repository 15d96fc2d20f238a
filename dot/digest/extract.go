// Copyright 2021 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package digest

import (
	"github.com/ChainSafe/rtapi/dot/types"
	"github.com/ChainSafe/rtapi/pkg/scale"
)

// Iterator is a lazy scan over the items of a digest carrying a tag. Items
// with other tags, including tags unknown to this version, are skipped.
type Iterator struct {
	digest types.Digest
	tag    types.LogTag
	next   int
	item   types.DigestItem
}

// Extract returns an iterator over the items of the digest carrying the tag,
// in log order.
func Extract(d types.Digest, tag types.LogTag) *Iterator {
	return &Iterator{digest: d, tag: tag}
}

// Next advances to the next matching item and returns false when there
// are no more items.
func (it *Iterator) Next() bool {
	for it.next < len(it.digest) {
		item := it.digest[it.next]
		it.next++
		if it.tag.Matches(item) {
			it.item = item
			return true
		}
	}
	it.item = types.DigestItem{}
	return false
}

// Item returns the current item.
func (it *Iterator) Item() types.DigestItem {
	return it.item
}

// Payload returns the opaque payload of the current item.
func (it *Iterator) Payload() []byte {
	switch v := it.item.Value().(type) {
	case types.ConsensusDigest:
		return v.Data
	case types.PreRuntimeDigest:
		return v.Data
	case types.SealDigest:
		return v.Data
	case types.OtherDigest:
		return v
	case types.OpaqueDigest:
		return v.Data
	case nil:
		return nil
	default:
		return scale.MustMarshal(v)
	}
}

// Reset restarts the scan from the first item.
func (it *Iterator) Reset() {
	it.next = 0
	it.item = types.DigestItem{}
}

// Items collects the matching items of the digest.
func Items(d types.Digest, tag types.LogTag) []types.DigestItem {
	var items []types.DigestItem
	for it := Extract(d, tag); it.Next(); {
		items = append(items, it.Item())
	}
	return items
}

var grandpaTag = types.NewEngineTag(types.ConsensusDigestType, types.GrandpaEngineID)

// GrandpaScheduledChanges returns the authority set changes scheduled in
// the digest, in log order. Grandpa items which cannot be decoded, or
// which are not scheduled changes, are skipped.
func GrandpaScheduledChanges(d types.Digest) []types.GrandpaScheduledChange {
	var changes []types.GrandpaScheduledChange
	for it := Extract(d, grandpaTag); it.Next(); {
		var consensusDigest types.GrandpaConsensusDigest
		err := scale.Unmarshal(it.Payload(), &consensusDigest)
		if err != nil {
			logger.Debugf("skipping undecodable grandpa log: %s", err)
			continue
		}
		change, ok := consensusDigest.Value().(types.GrandpaScheduledChange)
		if !ok {
			continue
		}
		changes = append(changes, change)
	}
	return changes
}

// GrandpaPendingChange returns the first authority set change scheduled in
// the digest, and false if there is none.
func GrandpaPendingChange(d types.Digest) (types.GrandpaScheduledChange, bool) {
	for it := Extract(d, grandpaTag); it.Next(); {
		var consensusDigest types.GrandpaConsensusDigest
		if scale.Unmarshal(it.Payload(), &consensusDigest) != nil {
			continue
		}
		if change, ok := consensusDigest.Value().(types.GrandpaScheduledChange); ok {
			return change, true
		}
	}
	return types.GrandpaScheduledChange{}, false
}
