// Copyright 2021 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package common

var (
	// CodeKey is the key where runtime code is stored in state
	CodeKey = []byte(":code")

	// HeapPagesKey is the key where the wasm heap size is stored in state
	HeapPagesKey = []byte(":heappages")
)

// StorageKey returns the key under which a module keeps a storage item:
// twox128(module) ++ twox128(item).
func StorageKey(module, item string) []byte {
	return append(Twox128Hash([]byte(module)), Twox128Hash([]byte(item))...)
}

// StorageMapKey returns the key of one entry of a module storage map:
// StorageKey(module, item) ++ twox64(key) ++ key.
func StorageMapKey(module, item string, key []byte) []byte {
	prefix := StorageKey(module, item)
	out := make([]byte, 0, len(prefix)+8+len(key))
	out = append(out, prefix...)
	out = append(out, Twox64(key)...)
	return append(out, key...)
}
