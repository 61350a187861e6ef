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

// Package verify compares what a device returned with what a correct device returns for the same
// request and keys.
package verify

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"

	"github.com/google/go-cmp/cmp"
	"github.com/pkg/errors"
	"github.com/stellar/go/keypair"
	"github.com/stellar/go/strkey"
	"github.com/stellarhw/app-stellar-harness/api/stellar"
	"github.com/stellarhw/app-stellar-harness/fixtures"
	"github.com/stellarhw/app-stellar-harness/util/errp"
)

// Outcome is the result of one comparison.
type Outcome struct {
	Matched  bool
	Expected []byte
	Actual   []byte
	// MismatchDetail explains a mismatch. Empty if Matched.
	MismatchDetail string
}

// Err returns a *MismatchError unless the outcome matched.
func (outcome Outcome) Err() error {
	if outcome.Matched {
		return nil
	}
	return errp.WithStack(&MismatchError{Outcome: outcome})
}

// MismatchError is returned when device output decoded fine but differs from the reference.
type MismatchError struct {
	Outcome Outcome
}

// Error implements error.
func (err *MismatchError) Error() string {
	return "verification mismatch: " + err.Outcome.MismatchDetail
}

func matched(expected, actual []byte) Outcome {
	return Outcome{Matched: true, Expected: expected, Actual: actual}
}

func mismatch(expected, actual []byte, format string, args ...interface{}) Outcome {
	return Outcome{
		Expected:       expected,
		Actual:         actual,
		MismatchDetail: fmt.Sprintf(format, args...),
	}
}

func diff(expected, actual []byte) string {
	return cmp.Diff(hex.EncodeToString(expected), hex.EncodeToString(actual))
}

// Signature checks a device signature of request against the signature kp produces.
func Signature(request fixtures.Request, signature []byte, kp *keypair.Full) (Outcome, error) {
	expected, err := fixtures.ExpectedSignature(request, kp)
	if err != nil {
		return Outcome{}, errp.WithMessage(err, "could not compute the reference signature")
	}
	if cmp.Equal(expected, signature) {
		return matched(expected, signature), nil
	}
	if len(signature) != len(expected) {
		return mismatch(expected, signature, "signature has %d bytes, want %d",
			len(signature), len(expected)), nil
	}
	subject := request.Category().String()
	if hasher, ok := request.(fixtures.Hasher); ok {
		hash, err := hasher.Hash()
		if err != nil {
			return Outcome{}, err
		}
		subject += " " + hex.EncodeToString(hash[:])
	}
	return mismatch(expected, signature, "%s signature differs from the reference (-want +got):\n%s",
		subject, diff(expected, signature)), nil
}

// PublicKey checks a raw ed25519 public key returned by the device against kp.
func PublicKey(raw []byte, kp keypair.KP) (Outcome, error) {
	expected, err := strkey.Decode(strkey.VersionByteAccountID, kp.Address())
	if err != nil {
		return Outcome{}, errp.WithStack(err)
	}
	if cmp.Equal(expected, raw) {
		return matched(expected, raw), nil
	}
	address, err := strkey.Encode(strkey.VersionByteAccountID, raw)
	if err != nil {
		address = hex.EncodeToString(raw)
	}
	return mismatch(expected, raw, "public key %s, want %s", address, kp.Address()), nil
}

func statusWordBytes(statusWord uint16) []byte {
	return binary.BigEndian.AppendUint16(nil, statusWord)
}

// Rejection checks that a request failed with the device status of the given kind. A success or
// a different status word is a mismatch. Any other error is returned as is.
func Rejection(err error, want stellar.ErrorKind) (Outcome, error) {
	expected := statusWordBytes(want.StatusWord())
	if err == nil {
		return mismatch(expected, nil, "request succeeded, want rejection %q", want), nil
	}
	var deviceErr *stellar.Error
	if !errors.As(err, &deviceErr) {
		return Outcome{}, err
	}
	actual := statusWordBytes(deviceErr.StatusWord)
	if deviceErr.Kind() != want {
		return mismatch(expected, actual, "rejected with 0x%04x (%s), want 0x%04x (%s)",
			deviceErr.StatusWord, deviceErr.Kind(), want.StatusWord(), want), nil
	}
	return matched(expected, actual), nil
}
