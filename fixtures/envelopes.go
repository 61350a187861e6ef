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
	"crypto/sha256"

	"github.com/stellar/go/network"
	"github.com/stellar/go/txnbuild"
	"github.com/stellar/go/xdr"
	"github.com/stellarhw/app-stellar-harness/util/errp"
)

// Envelope is a transaction the SDK builder cannot produce, e.g. one without time bounds. It is
// signed through the generic digest of its payload.
type Envelope struct {
	Envelope   xdr.TransactionEnvelope
	Passphrase string
}

// Category implements Request.
func (envelope *Envelope) Category() Category { return CategoryTransaction }

// Payload implements Request.
func (envelope *Envelope) Payload() ([]byte, error) {
	return signatureBase(envelope.Envelope, envelope.Passphrase)
}

// Hash returns the transaction hash.
func (envelope *Envelope) Hash() ([32]byte, error) {
	payload, err := envelope.Payload()
	if err != nil {
		return [32]byte{}, err
	}
	return sha256.Sum256(payload), nil
}

// rawEnvelope decodes a base64 envelope without going through the SDK builder.
func rawEnvelope(encoded string, passphrase string) func() (Request, error) {
	return func() (Request, error) {
		var envelope xdr.TransactionEnvelope
		if err := xdr.SafeUnmarshalBase64(encoded, &envelope); err != nil {
			return nil, errp.WithStack(err)
		}
		return &Envelope{Envelope: envelope, Passphrase: passphrase}, nil
	}
}

// patched builds the common transaction around operation and lets patch change the encoded
// operation to something the SDK refuses to build.
func patched(operation txnbuild.Operation, patch func(*xdr.Operation)) func() (Request, error) {
	return func() (Request, error) {
		transaction, err := newTransaction([]txnbuild.Operation{operation})
		if err != nil {
			return nil, err
		}
		encoded, err := transaction.Tx.Base64()
		if err != nil {
			return nil, errp.WithStack(err)
		}
		request, err := rawEnvelope(encoded, transaction.Passphrase)()
		if err != nil {
			return nil, err
		}
		envelope := request.(*Envelope)
		patch(&envelope.Envelope.V1.Tx.Operations[0])
		return envelope, nil
	}
}

const (
	// txCondIsNoneEnvelope has no preconditions at all.
	txCondIsNoneEnvelope = "AAAAAgAAAADpM4i7/S+9EYBt0L1ZzqkHnnzHDOex4VTxFM3+TkZuzQAAAGQBcH2gMW7AaAAAAAAAAAAEVzwQsUj8S8fbl1QM5J2iKTD0vNSKBg3HNHvoTqn1LZ8AAAABAAAAAQAAAADpM4i7/S+9EYBt0L1ZzqkHnnzHDOex4VTxFM3+TkZuzQAAAAEAAAAA4saBD5tQmyZL8lxf+El0W8/MdWWJGd3aNqynMuZp6FUAAAAAAAAAAACYloAAAAAAAAAAAA=="
	// txCondTimeBoundsIsNoneEnvelope has v2 preconditions with ledger bounds but no time bounds.
	txCondTimeBoundsIsNoneEnvelope = "AAAAAgAAAADpM4i7/S+9EYBt0L1ZzqkHnnzHDOex4VTxFM3+TkZuzQAAAGQBcH2gMW7AaAAAAAIAAAAAAAAAAQJnuDgCZ7kAAAAAAQAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAARXPBCxSPxLx9uXVAzknaIpMPS81IoGDcc0e+hOqfUtnwAAAAEAAAABAAAAAOkziLv9L70RgG3QvVnOqQeefMcM57HhVPEUzf5ORm7NAAAAAQAAAADixoEPm1CbJkvyXF/4SXRbz8x1ZYkZ3do2rKcy5mnoVQAAAAAAAAAAAJiWgAAAAAAAAAAA"

	// createContractNewAssetEnvelope deploys the asset contract of kp0 with salt "c" * 32.
	createContractNewAssetEnvelope = "AAAAAgAAAADpM4i7/S+9EYBt0L1ZzqkHnnzHDOex4VTxFM3+TkZuzQABUbYALZ/tAAAACgAAAAEAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAEAAAABAAAAAOkziLv9L70RgG3QvVnOqQeefMcM57HhVPEUzf5ORm7NAAAAGAAAAAEAAAAAAAAAAAAAAADpM4i7/S+9EYBt0L1ZzqkHnnzHDOex4VTxFM3+TkZuzWNjY2NjY2NjY2NjY2NjY2NjY2NjY2NjY2NjY2NjY2NjAAAAAQAAAAEAAAAAAAAAAQAAAAAAAAAAAAAAAOkziLv9L70RgG3QvVnOqQeefMcM57HhVPEUzf5ORm7NY2NjY2NjY2NjY2NjY2NjY2NjY2NjY2NjY2NjY2NjY2MAAAABAAAAAAAAAAEAAAAAAAAAAAAAAAEAAAAGAAAAAVvz5/0ZDBy7NBxhMS/CR+rdii7rHMTLZO5cDByDoxtUAAAAFAAAAAEAAXf0AAAAMAAAAEgAAAAAAACSxAAAAAA="
	// unverifiedTransferEnvelope calls "approve" on the native asset contract.
	unverifiedTransferEnvelope = "AAAAAgAAAADpM4i7/S+9EYBt0L1ZzqkHnnzHDOex4VTxFM3+TkZuzQAAAfQALZ/tAAAACAAAAAEAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAEAAAAAAAAAGAAAAAAAAAABIODmjV2Bs0ZoUox9Rno22KIciwp5lCNN10G0BHKkqOAAAAAHYXBwcm92ZQAAAAAEAAAAEgAAAAAAAAAA6TOIu/0vvRGAbdC9Wc6pB558xwznseFU8RTN/k5Gbs0AAAASAAAAAAAAAADixoEPm1CbJkvyXF/4SXRbz8x1ZYkZ3do2rKcy5mnoVQAAAAoAAAAAAAAAAAAAAAA7msoAAAAAAwAtogAAAAAAAAAAAAAAAAA="
	// scvalsEnvelope passes one argument of every ScVal type to "test".
	scvalsEnvelope = "AAAAAgAAAADpM4i7/S+9EYBt0L1ZzqkHnnzHDOex4VTxFM3+TkZuzQAAAfQAAAAASZYC0wAAAAEAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAEAAAAAAAAAGAAAAAAAAAAB15KLcsJwPM/q9+uf9O9NUEpVqLl5/JtFDqLIQrTRzmEAAAAEdGVzdAAAABcAAAAAAAAAAQAAAAEAAAADAAAE0gAAAAQAADA5AAAABQAAAAABZY0FAAAABgAAAAAABu+SAAAABwAAAACMdzjKAAAACAAAAAACDxgbAAAACQAAAAAAAAAAAAAnmkuH600AAAAKAAAAAAAAAAAAACeaS4frTQAAAAsAAAAAAAAAAAAAAAAAAAAAAAAAAAAUJilkdtaR8ljiPAAAAAwAAAAAAAAAAAAAAAAAAAAAAAAAAAAUJilkdtaR8ljiPAAAAA0AAAASdGhpcyBpcyB0ZXN0IGJ5dGVzAAAAAAAOAAAAGWhlbGxvIHRoaXMgaXMgdGVzdCBzdHJpbmcAAAAAAAAPAAAACHRlc3RmdW5jAAAAEAAAAAEAAAACAAAAAAAAAAEAAAAAAAAAAAAAABEAAAABAAAAAgAAAA8AAAAEdHJ1ZQAAAAAAAAABAAAADwAAAAVmYWxzZQAAAAAAAAAAAAAAAAAAEgAAAAAAAAAA6TOIu/0vvRGAbdC9Wc6pB558xwznseFU8RTN/k5Gbs0AAAASAAAAAdeSi3LCcDzP6vfrn/TvTVBKVai5efybRQ6iyEK00c5hAAAAFAAAABUAAAAAAAAAZAAAABMAAAABAAAAAAAAABMAAAAAz4iEU9ZgVry2rlkqkZBztZO1llv/y8/DBKxHVJ6s2tYAAAABAAAAAgAAAA8AAAAEdHJ1ZQAAAAAAAAABAAAADwAAAAVmYWxzZQAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA"
	// unverifiedApproveEnvelope calls "mock" with approve arguments on an unknown contract.
	unverifiedApproveEnvelope = "AAAAAgAAAADpM4i7/S+9EYBt0L1ZzqkHnnzHDOex4VTxFM3+TkZuzQAAAfQALZ/tAAAACwAAAAEAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAEAAAABAAAAAOkziLv9L70RgG3QvVnOqQeefMcM57HhVPEUzf5ORm7NAAAAGAAAAAAAAAAB15KLcsJwPM/q9+uf9O9NUEpVqLl5/JtFDqLIQrTRzmEAAAAEbW9jawAAAAQAAAASAAAAAAAAAADpM4i7/S+9EYBt0L1ZzqkHnnzHDOex4VTxFM3+TkZuzQAAABIAAAAAAAAAAOLGgQ+bUJsmS/JcX/hJdFvPzHVliRnd2jaspzLmaehVAAAACgAAAAAAAAAAAAAAADuaygAAAAADAC2iAAAAAAAAAAAAAAAAAA=="
)

var envelopeFixtures = []entry{
	{"txCondIsNone", rawEnvelope(txCondIsNoneEnvelope, network.PublicNetworkPassphrase)},
	{"txCondTimeBoundsIsNone", rawEnvelope(txCondTimeBoundsIsNoneEnvelope, network.PublicNetworkPassphrase)},
	{"opAllowTrustAuthorizeToMaintainLiabilities", patched(&txnbuild.AllowTrust{
		Trustor:       kp1.Address(),
		Type:          txnbuild.CreditAsset{Code: "USD", Issuer: kp0.Address()},
		Authorize:     true,
		SourceAccount: kp0.Address(),
	}, func(operation *xdr.Operation) {
		operation.Body.AllowTrustOp.Authorize = xdr.Uint32(xdr.TrustLineFlagsAuthorizedToMaintainLiabilitiesFlag)
	})},
	{"opRevokeSponsorshipLiquidityPool", patched(&txnbuild.RevokeSponsorship{
		SponsorshipType: txnbuild.RevokeSponsorshipTypeAccount,
		Account:         stringPtr(kp1.Address()),
		SourceAccount:   kp0.Address(),
	}, func(operation *xdr.Operation) {
		operation.Body.RevokeSponsorshipOp.LedgerKey = &xdr.LedgerKey{
			Type: xdr.LedgerEntryTypeLiquidityPool,
			LiquidityPool: &xdr.LedgerKeyLiquidityPool{
				LiquidityPoolId: xdr.PoolId(mustHash32(
					"dd7b1ab831c273310ddbec6f97870aa83c2fbd78ce22aded37ecbf4f3380fac7")),
			},
		}
	})},
	{"opInvokeHostFunctionCreateContractNewAsset",
		rawEnvelope(createContractNewAssetEnvelope, network.TestNetworkPassphrase)},
	{"opInvokeHostFunctionUnverifiedContractWithTransferFunction",
		rawEnvelope(unverifiedTransferEnvelope, network.TestNetworkPassphrase)},
	{"opInvokeHostFunctionUnverifiedContractWithApproveFunction",
		rawEnvelope(unverifiedApproveEnvelope, network.TestNetworkPassphrase)},
	{"opInvokeHostFunctionScvals", rawEnvelope(scvalsEnvelope, network.TestNetworkPassphrase)},
}
