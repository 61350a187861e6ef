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

package fixtures

import (
	"github.com/stellar/go/keypair"
	"github.com/stellar/go/network"
	"github.com/stellar/go/txnbuild"
	"github.com/stellar/go/xdr"
	"github.com/stellarhw/app-stellar-harness/reference"
	"github.com/stellarhw/app-stellar-harness/util/errp"
)

// Request is something the device is asked to sign.
type Request interface {
	Category() Category
	// Payload returns the canonical bytes sent to the device: the transaction signature base, the
	// raw 32 byte hash, the Soroban authorization preimage XDR or the message.
	Payload() ([]byte, error)
}

// ReferenceSigner is implemented by requests that can produce their expected signature without
// going through the generic digest, i.e. transactions signed by the Stellar SDK itself.
type ReferenceSigner interface {
	ReferenceSign(kp *keypair.Full) ([]byte, error)
}

// Hasher is implemented by requests with a network hash, i.e. transactions. The hash is what
// the app shows in its hash signing review.
type Hasher interface {
	Hash() ([32]byte, error)
}

// Transaction is a classic or Soroban transaction.
type Transaction struct {
	Tx         *txnbuild.Transaction
	Passphrase string
}

// Category implements Request.
func (transaction *Transaction) Category() Category { return CategoryTransaction }

// Payload implements Request.
func (transaction *Transaction) Payload() ([]byte, error) {
	return signatureBase(transaction.Tx.ToXDR(), transaction.Passphrase)
}

func signatureBase(envelope xdr.TransactionEnvelope, passphrase string) ([]byte, error) {
	if envelope.Type != xdr.EnvelopeTypeEnvelopeTypeTx || envelope.V1 == nil {
		return nil, errp.Newf("unsupported envelope type %s", envelope.Type)
	}
	payload := xdr.TransactionSignaturePayload{
		NetworkId: xdr.Hash(network.ID(passphrase)),
		TaggedTransaction: xdr.TransactionSignaturePayloadTaggedTransaction{
			Type: xdr.EnvelopeTypeEnvelopeTypeTx,
			Tx:   &envelope.V1.Tx,
		},
	}
	encoded, err := payload.MarshalBinary()
	if err != nil {
		return nil, errp.WithStack(err)
	}
	return encoded, nil
}

// Hash returns the transaction hash, which is the SHA-256 of Payload().
func (transaction *Transaction) Hash() ([32]byte, error) {
	hash, err := transaction.Tx.Hash(transaction.Passphrase)
	return hash, errp.WithStack(err)
}

// ReferenceSign implements ReferenceSigner.
func (transaction *Transaction) ReferenceSign(kp *keypair.Full) ([]byte, error) {
	signed, err := transaction.Tx.Sign(transaction.Passphrase, kp)
	if err != nil {
		return nil, errp.WithStack(err)
	}
	return lastSignature(signed.Signatures())
}

// FeeBump is a fee bump transaction wrapping a signed inner transaction.
type FeeBump struct {
	Tx         *txnbuild.FeeBumpTransaction
	Passphrase string
}

// Category implements Request.
func (feeBump *FeeBump) Category() Category { return CategoryFeeBumpTransaction }

// Payload implements Request.
func (feeBump *FeeBump) Payload() ([]byte, error) {
	envelope := feeBump.Tx.ToXDR()
	if envelope.Type != xdr.EnvelopeTypeEnvelopeTypeTxFeeBump || envelope.FeeBump == nil {
		return nil, errp.Newf("unsupported envelope type %s", envelope.Type)
	}
	payload := xdr.TransactionSignaturePayload{
		NetworkId: xdr.Hash(network.ID(feeBump.Passphrase)),
		TaggedTransaction: xdr.TransactionSignaturePayloadTaggedTransaction{
			Type:    xdr.EnvelopeTypeEnvelopeTypeTxFeeBump,
			FeeBump: &envelope.FeeBump.Tx,
		},
	}
	encoded, err := payload.MarshalBinary()
	if err != nil {
		return nil, errp.WithStack(err)
	}
	return encoded, nil
}

// Hash returns the fee bump transaction hash.
func (feeBump *FeeBump) Hash() ([32]byte, error) {
	hash, err := feeBump.Tx.Hash(feeBump.Passphrase)
	return hash, errp.WithStack(err)
}

// ReferenceSign implements ReferenceSigner.
func (feeBump *FeeBump) ReferenceSign(kp *keypair.Full) ([]byte, error) {
	signed, err := feeBump.Tx.Sign(feeBump.Passphrase, kp)
	if err != nil {
		return nil, errp.WithStack(err)
	}
	return lastSignature(signed.Signatures())
}

func lastSignature(signatures []xdr.DecoratedSignature) ([]byte, error) {
	if len(signatures) == 0 {
		return nil, errp.New("transaction carries no signature")
	}
	return []byte(signatures[len(signatures)-1].Signature), nil
}

// SorobanAuth is a Soroban authorization entry preimage.
type SorobanAuth struct {
	Preimage xdr.HashIdPreimage
}

// Category implements Request.
func (auth *SorobanAuth) Category() Category { return CategorySorobanAuthRequest }

// Payload implements Request.
func (auth *SorobanAuth) Payload() ([]byte, error) {
	encoded, err := auth.Preimage.MarshalBinary()
	if err != nil {
		return nil, errp.WithStack(err)
	}
	return encoded, nil
}

// Hash is a bare 32 byte hash, signed as is.
type Hash [32]byte

// Category implements Request.
func (hash Hash) Category() Category { return CategoryHashRequest }

// Payload implements Request.
func (hash Hash) Payload() ([]byte, error) {
	return append([]byte(nil), hash[:]...), nil
}

// Message is an arbitrary message signed with the SEP-53 prefix.
type Message []byte

// Category implements Request.
func (message Message) Category() Category { return CategoryMessageRequest }

// Payload implements Request.
func (message Message) Payload() ([]byte, error) {
	return append([]byte(nil), message...), nil
}

// ExpectedSignature is the signature a correct device produces for request with kp.
func ExpectedSignature(request Request, kp *keypair.Full) ([]byte, error) {
	if signer, ok := request.(ReferenceSigner); ok {
		return signer.ReferenceSign(kp)
	}
	payload, err := request.Payload()
	if err != nil {
		return nil, err
	}
	return reference.Sign(kp, request.Category().Scheme(), payload)
}
