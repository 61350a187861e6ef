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

package fixtures_test

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"regexp"
	"testing"

	"github.com/stellar/go/xdr"
	"github.com/stellarhw/app-stellar-harness/fixtures"
	"github.com/stellarhw/app-stellar-harness/reference"
	"github.com/stretchr/testify/require"
)

var fixtureName = regexp.MustCompile(`^[a-z][a-zA-Z0-9]*$`)

func TestCaseName(t *testing.T) {
	tests := []struct {
		name     string
		expected string
	}{
		{"opPaymentAssetNative", "op-payment-asset-native"},
		{"opInvokeHostFunctionCreateContractWasmId", "op-invoke-host-function-create-contract-wasm-id"},
		{"txCondTimeBoundsMaxIsZero", "tx-cond-time-bounds-max-is-zero"},
		{"feeBumpTx", "fee-bump-tx"},
		{"sorobanAuthNetworkTestnet", "soroban-auth-network-testnet"},
		{"opPaymentAssetAlphanum12", "op-payment-asset-alphanum12"},
		{"", ""},
	}
	for _, test := range tests {
		require.Equal(t, test.expected, fixtures.CaseName(test.name))
		require.Equal(t, test.expected, fixtures.CaseName(test.expected), "not idempotent")
	}
}

func TestCaseNameIsInjective(t *testing.T) {
	seen := map[string]string{}
	for _, fixture := range fixtures.List() {
		require.Regexp(t, fixtureName, fixture.Name)
		caseName := fixture.CaseName()
		other, ok := seen[caseName]
		require.False(t, ok, "%s and %s both map to %s", fixture.Name, other, caseName)
		seen[caseName] = fixture.Name
		require.Equal(t, caseName, fixtures.CaseName(caseName))
	}
}

func TestCategorize(t *testing.T) {
	require.Equal(t, fixtures.CategorySorobanAuthRequest, fixtures.Categorize("sorobanAuthNetworkPublic"))
	require.Equal(t, fixtures.CategoryFeeBumpTransaction, fixtures.Categorize("feeBumpTx"))
	require.Equal(t, fixtures.CategoryHashRequest, fixtures.Categorize("hashSigning"))
	require.Equal(t, fixtures.CategoryMessageRequest, fixtures.Categorize("messageSimple"))
	require.Equal(t, fixtures.CategoryTransaction, fixtures.Categorize("opCreateAccount"))
	require.Equal(t, fixtures.CategoryTransaction, fixtures.Categorize("txMemoNone"))
	// Only the prefix counts.
	require.Equal(t, fixtures.CategoryTransaction, fixtures.Categorize("txSorobanAuth"))

	require.Equal(t, reference.SchemeRaw, fixtures.CategoryHashRequest.Scheme())
	require.Equal(t, reference.SchemeMessage, fixtures.CategoryMessageRequest.Scheme())
	require.Equal(t, reference.SchemeSHA256, fixtures.CategorySorobanAuthRequest.Scheme())
	require.Equal(t, "soroban-auth", fixtures.CategorySorobanAuthRequest.String())
}

func TestRequirements(t *testing.T) {
	require.True(t, fixtures.RequiresPlugin("opInvokeHostFunctionTestPlugin"))
	require.False(t, fixtures.RequiresPlugin("opInvokeHostFunctionAssetTransfer"))

	require.True(t, fixtures.RequiresCustomContracts("opInvokeHostFunctionAssetTransfer"))
	require.True(t, fixtures.RequiresCustomContracts("sorobanAuthInvokeContract"))
	require.False(t, fixtures.RequiresCustomContracts("opInvokeHostFunctionTestPlugin"))
	require.False(t, fixtures.RequiresCustomContracts("opPaymentAssetNative"))
	require.False(t, fixtures.RequiresCustomContracts("hashSigning"))

	// Every plugin fixture is registered.
	for _, name := range []string{"opInvokeHostFunctionTestPlugin", "sorobanAuthInvokeTestPlugin"} {
		_, err := fixtures.Lookup(name)
		require.NoError(t, err)
	}
}

func TestLookup(t *testing.T) {
	fixture, err := fixtures.Lookup("txNetworkTestnet")
	require.NoError(t, err)
	require.Equal(t, fixtures.CategoryTransaction, fixture.Category)
	require.Equal(t, "tx-network-testnet", fixture.CaseName())

	_, err = fixtures.Lookup("txDoesNotExist")
	require.Error(t, err)
}

// TestProduce produces every fixture twice and checks that the payload is stable and matches the
// category.
func TestProduce(t *testing.T) {
	list := fixtures.List()
	require.NotEmpty(t, list)
	for _, fixture := range list {
		fixture := fixture
		t.Run(fixture.Name, func(t *testing.T) {
			first, err := fixture.Produce()
			require.NoError(t, err)
			second, err := fixture.Produce()
			require.NoError(t, err)
			require.Equal(t, fixture.Category, first.Category())

			payload, err := first.Payload()
			require.NoError(t, err)
			again, err := second.Payload()
			require.NoError(t, err)
			require.Equal(t, payload, again)
			require.NotEmpty(t, payload)

			switch fixture.Category {
			case fixtures.CategoryHashRequest:
				require.Len(t, payload, 32)
			case fixtures.CategoryTransaction, fixtures.CategoryFeeBumpTransaction:
				hasher, ok := first.(fixtures.Hasher)
				require.True(t, ok)
				hash, err := hasher.Hash()
				require.NoError(t, err)
				require.Equal(t, hash, sha256.Sum256(payload))
			case fixtures.CategorySorobanAuthRequest:
				var preimage xdr.HashIdPreimage
				require.NoError(t, preimage.UnmarshalBinary(payload))
				require.Equal(t, xdr.EnvelopeTypeEnvelopeTypeSorobanAuthorization, preimage.Type)
			}
		})
	}
}

func TestExpectedSignature(t *testing.T) {
	kp := reference.TestKeypair(0)
	for _, fixture := range fixtures.List() {
		request, err := fixture.Produce()
		require.NoError(t, err)
		signature, err := fixtures.ExpectedSignature(request, kp)
		require.NoError(t, err)
		require.Len(t, signature, 64)

		payload, err := request.Payload()
		require.NoError(t, err)
		digest := reference.Digest(fixture.Category.Scheme(), payload)
		require.NoError(t, kp.Verify(digest, signature), fixture.Name)
	}
}

func TestHashSigningFixture(t *testing.T) {
	fixture, err := fixtures.Lookup("hashSigning")
	require.NoError(t, err)
	request, err := fixture.Produce()
	require.NoError(t, err)
	payload, err := request.Payload()
	require.NoError(t, err)
	require.Equal(t, "3389e9f0f1a65f19736cacf544c2e825313e8447f569233bb8db39aa607c8889", hex.EncodeToString(payload))
}

func TestSignatureBase(t *testing.T) {
	fixture, err := fixtures.Lookup("txNetworkPublic")
	require.NoError(t, err)
	request, err := fixture.Produce()
	require.NoError(t, err)
	payload, err := request.Payload()
	require.NoError(t, err)

	// The signature base starts with the network id followed by the envelope type.
	networkID := sha256.Sum256([]byte("Public Global Stellar Network ; September 2015"))
	require.True(t, bytes.HasPrefix(payload, networkID[:]))
	require.Equal(t, []byte{0, 0, 0, 2}, payload[32:36])

	transaction, ok := request.(*fixtures.Transaction)
	require.True(t, ok)
	require.Equal(t, int64(103720918407102568), transaction.Tx.SequenceNumber())
}

func envelopeOf(t *testing.T, name string) xdr.TransactionEnvelope {
	t.Helper()
	fixture, err := fixtures.Lookup(name)
	require.NoError(t, err)
	request, err := fixture.Produce()
	require.NoError(t, err)
	envelope, ok := request.(*fixtures.Envelope)
	require.True(t, ok, name)
	return envelope.Envelope
}

func TestEnvelopeFixtures(t *testing.T) {
	envelope := envelopeOf(t, "txCondIsNone")
	require.Equal(t, xdr.PreconditionTypePrecondNone, envelope.V1.Tx.Cond.Type)

	envelope = envelopeOf(t, "txCondTimeBoundsIsNone")
	require.Equal(t, xdr.PreconditionTypePrecondV2, envelope.V1.Tx.Cond.Type)
	require.Nil(t, envelope.V1.Tx.Cond.V2.TimeBounds)
	require.NotNil(t, envelope.V1.Tx.Cond.V2.LedgerBounds)

	envelope = envelopeOf(t, "opAllowTrustAuthorizeToMaintainLiabilities")
	allowTrust := envelope.V1.Tx.Operations[0].Body.AllowTrustOp
	require.Equal(t, xdr.Uint32(2), allowTrust.Authorize)

	envelope = envelopeOf(t, "opRevokeSponsorshipLiquidityPool")
	key := envelope.V1.Tx.Operations[0].Body.RevokeSponsorshipOp.LedgerKey
	require.Equal(t, xdr.LedgerEntryTypeLiquidityPool, key.Type)
	poolID := key.LiquidityPool.LiquidityPoolId
	require.Equal(t, "dd7b1ab831c273310ddbec6f97870aa83c2fbd78ce22aded37ecbf4f3380fac7",
		hex.EncodeToString(poolID[:]))

	for _, name := range []string{
		"opInvokeHostFunctionScvals",
		"opInvokeHostFunctionCreateContractNewAsset",
		"opInvokeHostFunctionUnverifiedContractWithApproveFunction",
	} {
		envelope = envelopeOf(t, name)
		require.Equal(t, xdr.OperationTypeInvokeHostFunction, envelope.V1.Tx.Operations[0].Body.Type, name)
		require.True(t, fixtures.RequiresCustomContracts(name))
	}
}

func TestUnitTestNames(t *testing.T) {
	fixture, err := fixtures.Lookup("sorobanAuthNetworkTestnet")
	require.NoError(t, err)
	require.Equal(t, []string{"sorobanAuthTestnet"}, fixture.UnitTestNames())
	fixture, err = fixtures.Lookup("opPaymentAssetNative")
	require.NoError(t, err)
	require.Empty(t, fixture.UnitTestNames())
}
