// Copyright 2021 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package runtime

import (
	"fmt"
)

// APIItem struct to hold runtime API Name and Version
type APIItem struct {
	Name APIID
	Ver  uint32
}

// Version represents the data returned by runtime call Core_version.
// It is fixed for a given runtime build.
type Version struct {
	SpecName         string
	ImplName         string
	AuthoringVersion uint32
	SpecVersion      uint32
	ImplVersion      uint32
	APIItems         []APIItem
}

// APIRevision returns the revision of the api group, and false if the
// runtime does not implement it. Core is always implemented and defaults
// to revision 1.
func (v Version) APIRevision(id APIID) (revision uint32, ok bool) {
	for _, item := range v.APIItems {
		if item.Name == id {
			return item.Ver, true
		}
	}
	if id == CoreAPIID {
		return 1, true
	}
	return 0, false
}

// HasAPI returns true if the runtime implements the api group at a
// revision of at least minRevision.
func (v Version) HasAPI(id APIID, minRevision uint32) bool {
	revision, ok := v.APIRevision(id)
	return ok && revision >= minRevision
}

func (v Version) String() string {
	return fmt.Sprintf("%s-%d (%s-%d)", v.SpecName, v.SpecVersion, v.ImplName, v.ImplVersion)
}
