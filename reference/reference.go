// Copyright 2025 The stellarhw Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package reference is the trusted signer that device output is checked against. Keys are derived
// from a mnemonic the same way the device derives them (BIP39 seed, SLIP-10 ed25519 path).
package reference

import (
	"crypto/sha256"
	"crypto/sha512"
	"fmt"
	"strings"

	"github.com/stellar/go/keypair"
	"github.com/stellar/go/tools/stellar-hd-wallet/crypto/derivation"
	"github.com/stellarhw/app-stellar-harness/util/errp"
	"golang.org/x/crypto/pbkdf2"
)

// TestMnemonic is the seed every simulator instance is started with.
const TestMnemonic = "other base behind follow wet put glad muscle unlock sell income october"

// PrimaryKeypath is the keypath of the first Stellar account.
const PrimaryKeypath = "m/44'/148'/0'"

const messagePrefix = "Stellar Signed Message:\n"

// Scheme is how a payload is turned into the 32 or more bytes that are actually signed.
type Scheme int

const (
	// SchemeRaw signs the payload as is. Used for hash signing.
	SchemeRaw Scheme = iota
	// SchemeSHA256 signs the SHA-256 of the payload. Used for transaction signature bases and
	// Soroban authorization preimages.
	SchemeSHA256
	// SchemeMessage signs the SHA-256 of the prefixed message (SEP-53).
	SchemeMessage
)

// String implements fmt.Stringer.
func (scheme Scheme) String() string {
	switch scheme {
	case SchemeRaw:
		return "raw"
	case SchemeSHA256:
		return "sha256"
	case SchemeMessage:
		return "message"
	default:
		return fmt.Sprintf("Scheme(%d)", int(scheme))
	}
}

// SeedFromMnemonic computes the BIP39 seed of a mnemonic.
func SeedFromMnemonic(mnemonic, passphrase string) []byte {
	normalized := strings.Join(strings.Fields(mnemonic), " ")
	return pbkdf2.Key([]byte(normalized), []byte("mnemonic"+passphrase), 2048, 64, sha512.New)
}

// KeypairForPath derives the account keypair at keypath, e.g. "m/44'/148'/0'".
func KeypairForPath(seed []byte, keypath string) (*keypair.Full, error) {
	if !strings.HasPrefix(keypath, "m/") {
		keypath = "m/" + keypath
	}
	key, err := derivation.DeriveForPath(keypath, seed)
	if err != nil {
		return nil, errp.WithMessagef(errp.WithStack(err), "could not derive %s", keypath)
	}
	var rawSeed [32]byte
	copy(rawSeed[:], key.Key)
	kp, err := keypair.FromRawSeed(rawSeed)
	if err != nil {
		return nil, errp.WithStack(err)
	}
	return kp, nil
}

// AccountKeypath returns the keypath of the account with the given index.
func AccountKeypath(index uint32) string {
	return fmt.Sprintf("m/44'/148'/%d'", index)
}

// TestKeypair returns the account keypair with the given index derived from TestMnemonic.
// It panics if derivation fails, which only happens on a broken build.
func TestKeypair(index uint32) *keypair.Full {
	kp, err := KeypairForPath(SeedFromMnemonic(TestMnemonic, ""), AccountKeypath(index))
	if err != nil {
		panic(err)
	}
	return kp
}

// Digest returns the bytes that are signed for payload under scheme.
func Digest(scheme Scheme, payload []byte) []byte {
	switch scheme {
	case SchemeSHA256:
		hash := sha256.Sum256(payload)
		return hash[:]
	case SchemeMessage:
		hash := sha256.Sum256(append([]byte(messagePrefix), payload...))
		return hash[:]
	default:
		return payload
	}
}

// Sign signs payload under scheme with kp.
func Sign(kp *keypair.Full, scheme Scheme, payload []byte) ([]byte, error) {
	signature, err := kp.Sign(Digest(scheme, payload))
	if err != nil {
		return nil, errp.WithStack(err)
	}
	return signature, nil
}
