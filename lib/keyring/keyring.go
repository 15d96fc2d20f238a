// Copyright 2021 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package keyring

import (
	"crypto/ed25519"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/ChainSafe/rtapi/dot/types"
	"github.com/ChainSafe/rtapi/lib/common"
	bip39 "github.com/cosmos/go-bip39"
)

// ErrUnknownAccount is returned when looking up a name missing from the keyring.
var ErrUnknownAccount = errors.New("unknown account")

// KeyPair is an ed25519 key pair signing extrinsics for one account.
type KeyPair struct {
	private ed25519.PrivateKey
}

// NewKeyPairFromSeed returns the key pair of a 32 byte seed.
func NewKeyPairFromSeed(seed []byte) (*KeyPair, error) {
	if len(seed) != ed25519.SeedSize {
		return nil, fmt.Errorf("seed must be %d bytes, got %d", ed25519.SeedSize, len(seed))
	}
	return &KeyPair{private: ed25519.NewKeyFromSeed(seed)}, nil
}

// NewKeyPairFromMnemonic returns the key pair of a bip39 mnemonic. The
// first 32 bytes of the bip39 seed are the ed25519 seed.
func NewKeyPairFromMnemonic(mnemonic, password string) (*KeyPair, error) {
	seed, err := bip39.NewSeedWithErrorChecking(mnemonic, password)
	if err != nil {
		return nil, err
	}
	return NewKeyPairFromSeed(seed[:ed25519.SeedSize])
}

// GenerateKeyPair returns a new key pair and its mnemonic.
func GenerateKeyPair() (*KeyPair, string, error) {
	entropy, err := bip39.NewEntropy(128)
	if err != nil {
		return nil, "", err
	}
	mnemonic, err := bip39.NewMnemonic(entropy)
	if err != nil {
		return nil, "", err
	}
	kp, err := NewKeyPairFromMnemonic(mnemonic, "")
	if err != nil {
		return nil, "", err
	}
	return kp, mnemonic, nil
}

// AccountID returns the account of the key pair.
func (kp *KeyPair) AccountID() types.AccountID {
	return types.NewAccountID(kp.private.Public().(ed25519.PublicKey))
}

// Private returns the private key.
func (kp *KeyPair) Private() ed25519.PrivateKey {
	return kp.private
}

// Sign returns the signed extrinsic of the call with the nonce.
func (kp *KeyPair) Sign(nonce uint64, call types.Call) (types.Extrinsic, error) {
	ux, err := types.NewSignedExtrinsic(kp.private, nonce, call)
	if err != nil {
		return nil, err
	}
	return ux.Extrinsic()
}

// DevAccounts are the names of the development accounts.
var DevAccounts = []string{"alice", "bob", "charlie", "dave", "eve", "ferdie"}

// Keyring holds named key pairs.
type Keyring struct {
	keys map[string]*KeyPair
}

// NewDevKeyring returns the keyring of the development accounts. The seed
// of an account is the blake2b hash of "//" followed by its capitalised name.
func NewDevKeyring() (*Keyring, error) {
	kr := &Keyring{keys: make(map[string]*KeyPair, len(DevAccounts))}
	for _, name := range DevAccounts {
		seed, err := common.Blake2bHash([]byte("//" + strings.ToUpper(name[:1]) + name[1:]))
		if err != nil {
			return nil, err
		}
		kp, err := NewKeyPairFromSeed(seed[:])
		if err != nil {
			return nil, err
		}
		kr.keys[name] = kp
	}
	return kr, nil
}

// Add stores the key pair under the name, replacing any previous one.
func (kr *Keyring) Add(name string, kp *KeyPair) {
	kr.keys[strings.ToLower(name)] = kp
}

// Get returns the key pair stored under the name, which is case insensitive.
func (kr *Keyring) Get(name string) (*KeyPair, error) {
	kp, ok := kr.keys[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownAccount, name)
	}
	return kp, nil
}

// Names returns the sorted names of the keyring.
func (kr *Keyring) Names() []string {
	names := make([]string, 0, len(kr.keys))
	for name := range kr.keys {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
