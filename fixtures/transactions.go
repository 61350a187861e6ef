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
	"math"

	"github.com/stellar/go/keypair"
	"github.com/stellar/go/network"
	"github.com/stellar/go/txnbuild"
	"github.com/stellarhw/app-stellar-harness/util/errp"
)

const (
	minTime     int64  = 1657951297
	minLedger   uint32 = 40351800
	maxLedger   uint32 = 40352000
	extraSigner        = "GBJCHUKZMTFSLOMNC7P4TS4VJJBTCYL3XKSOLXAUJSD56C4LHND5TWUC"
	// extraPayloadSigner is a signed payload signer.
	extraPayloadSigner = "PA7QYNF7SOWQ3GLR2BGMZEHXAVIRZA4KVWLTJJFC7MGXUA74P7UJUAAAAAQACAQDAQCQMBYIBEFAWDANBYHRAEISCMKBKFQXDAMRUGY4DUPB6IBZGM"

	bumpTo int64 = 1232134324234
	// innerBaseFee is the lowest base fee the SDK accepts.
	innerBaseFee  int64 = txnbuild.MinBaseFee
	outerBaseFee  int64 = 750
	customBaseFee int64 = 1275
)

func paymentOne(source string) txnbuild.Operation {
	return &txnbuild.Payment{
		Destination:   kp1.Address(),
		Asset:         txnbuild.NativeAsset{},
		Amount:        "1",
		SourceAccount: source,
	}
}

func bump(source string) txnbuild.Operation {
	return &txnbuild.BumpSequence{BumpTo: bumpTo, SourceAccount: source}
}

// tx builds a one operation transaction where the operation is constructed on every call.
func tx(operation func() txnbuild.Operation, opts ...txOption) func() (Request, error) {
	return func() (Request, error) {
		return newTransaction([]txnbuild.Operation{operation()}, opts...)
	}
}

func payment() txnbuild.Operation { return paymentOne(kp0.Address()) }

func conditions(preconditions txnbuild.Preconditions) txOption {
	return withPreconditions(preconditions)
}

func int64Ptr(value int64) *int64 { return &value }

func stringPtr(value string) *string { return &value }

var transactionFixtures = []entry{
	{"txMemoNone", tx(payment, withMemo(nil))},
	{"txMemoId", tx(payment, withMemo(txnbuild.MemoID(math.MaxUint64)))},
	{"txMemoText", tx(payment, withMemo(txnbuild.MemoText("hello world 123456789 123456")))},
	{"txMemoTextUnprintable", tx(payment, withMemo(txnbuild.MemoText("这是一条测试消息 hey")))},
	{"txMemoHash", tx(payment, withMemo(txnbuild.MemoHash(
		mustHash32("573c10b148fc4bc7db97540ce49da22930f4bcd48a060dc7347be84ea9f52d9f"))))},
	{"txMemoReturnHash", tx(payment, withMemo(txnbuild.MemoReturn(
		mustHash32("573c10b148fc4bc7db97540ce49da22930f4bcd48a060dc7347be84ea9f52d9f"))))},
	{"txCondWithAllItems", tx(payment, conditions(txnbuild.Preconditions{
		TimeBounds:                 txnbuild.NewTimebounds(minTime, maxTime),
		LedgerBounds:               &txnbuild.LedgerBounds{MinLedger: minLedger, MaxLedger: maxLedger},
		MinSequenceNumber:          int64Ptr(103420918407103888),
		MinSequenceNumberAge:       1649239999,
		MinSequenceNumberLedgerGap: 30,
		ExtraSigners:               []string{extraSigner, extraPayloadSigner},
	}))},
	{"txCondTimeBounds", tx(payment, conditions(txnbuild.Preconditions{
		TimeBounds: txnbuild.NewTimebounds(minTime, maxTime),
	}))},
	{"txCondTimeBoundsMaxIsZero", tx(payment, conditions(txnbuild.Preconditions{
		TimeBounds: txnbuild.NewTimebounds(minTime, 0),
	}))},
	{"txCondTimeBoundsMinIsZero", tx(payment, conditions(txnbuild.Preconditions{
		TimeBounds: txnbuild.NewTimebounds(0, maxTime),
	}))},
	{"txCondTimeBoundsAreZero", tx(payment, conditions(txnbuild.Preconditions{
		TimeBounds: txnbuild.NewTimebounds(0, 0),
	}))},
	{"txCondLedgerBounds", tx(payment, conditions(txnbuild.Preconditions{
		TimeBounds:   txnbuild.NewTimebounds(0, 0),
		LedgerBounds: &txnbuild.LedgerBounds{MinLedger: minLedger, MaxLedger: maxLedger},
	}))},
	{"txCondLedgerBoundsMaxIsZero", tx(payment, conditions(txnbuild.Preconditions{
		TimeBounds:   txnbuild.NewTimebounds(0, 0),
		LedgerBounds: &txnbuild.LedgerBounds{MinLedger: minLedger},
	}))},
	{"txCondLedgerBoundsMinIsZero", tx(payment, conditions(txnbuild.Preconditions{
		TimeBounds:   txnbuild.NewTimebounds(0, 0),
		LedgerBounds: &txnbuild.LedgerBounds{MaxLedger: maxLedger},
	}))},
	{"txCondLedgerBoundsAreZero", tx(payment, conditions(txnbuild.Preconditions{
		TimeBounds:   txnbuild.NewTimebounds(0, 0),
		LedgerBounds: &txnbuild.LedgerBounds{},
	}))},
	{"txCondMinAccountSequence", tx(payment, conditions(txnbuild.Preconditions{
		TimeBounds:        txnbuild.NewTimebounds(0, 0),
		MinSequenceNumber: int64Ptr(103420918407103888),
	}))},
	{"txCondMinAccountSequenceAge", tx(payment, conditions(txnbuild.Preconditions{
		TimeBounds:           txnbuild.NewTimebounds(0, 0),
		MinSequenceNumberAge: 1649239999,
	}))},
	{"txCondMinAccountSequenceLedgerGap", tx(payment, conditions(txnbuild.Preconditions{
		TimeBounds:                 txnbuild.NewTimebounds(0, 0),
		MinSequenceNumberLedgerGap: 30,
	}))},
	{"txCondExtraSignersWithOneSigner", tx(payment, conditions(txnbuild.Preconditions{
		TimeBounds:   txnbuild.NewTimebounds(0, 0),
		ExtraSigners: []string{extraPayloadSigner},
	}))},
	{"txCondExtraSignersWithTwoSigners", tx(payment, conditions(txnbuild.Preconditions{
		TimeBounds:   txnbuild.NewTimebounds(0, 0),
		ExtraSigners: []string{extraPayloadSigner, extraSigner},
	}))},
	{"txMultiOperations", func() (Request, error) {
		return newTransaction([]txnbuild.Operation{
			&txnbuild.Payment{
				Destination:   kp1.Address(),
				Asset:         txnbuild.NativeAsset{},
				Amount:        maxAmount,
				SourceAccount: kp0.Address(),
			},
			&txnbuild.Payment{
				Destination:   kp1.Address(),
				Asset:         assetBTC,
				Amount:        maxAmount,
				SourceAccount: kp0.Address(),
			},
			&txnbuild.SetOptions{HomeDomain: txnbuild.NewHomeDomain("stellar.org")},
		})
	}},
	{"txCustomBaseFee", tx(payment, withBaseFee(customBaseFee))},
	{"txWithMuxedSource", func() (Request, error) {
		return newTransaction([]txnbuild.Operation{payment()}, withSource(muxed(kp0.Address())))
	}},
	{"txNetworkPublic", tx(func() txnbuild.Operation { return bump(kp0.Address()) },
		withPassphrase(network.PublicNetworkPassphrase))},
	{"txNetworkTestnet", tx(func() txnbuild.Operation { return bump(kp0.Address()) },
		withPassphrase(network.TestNetworkPassphrase))},
	{"txNetworkCustom", tx(func() txnbuild.Operation { return bump(kp0.Address()) },
		withPassphrase(customPassphrase))},
}

// feeBumpOf wraps inner, signed by innerSigners, in a fee bump paid by feeAccount.
func feeBumpOf(inner func() (*Transaction, error), feeAccount string, innerSigners ...string) func() (Request, error) {
	return func() (Request, error) {
		innerTx, err := inner()
		if err != nil {
			return nil, err
		}
		signed := innerTx.Tx
		for _, signer := range innerSigners {
			signed, err = signed.Sign(innerTx.Passphrase, keypairFor(signer))
			if err != nil {
				return nil, errp.WithStack(err)
			}
		}
		feeBump, err := txnbuild.NewFeeBumpTransaction(txnbuild.FeeBumpTransactionParams{
			Inner:      signed,
			FeeAccount: feeAccount,
			BaseFee:    outerBaseFee,
		})
		if err != nil {
			return nil, errp.WithStack(err)
		}
		return &FeeBump{Tx: feeBump, Passphrase: innerTx.Passphrase}, nil
	}
}

func keypairFor(address string) *keypair.Full {
	switch address {
	case kp1.Address():
		return kp1
	case kp2.Address():
		return kp2
	default:
		return kp0
	}
}

func twoPayments() (*Transaction, error) {
	return newTransaction([]txnbuild.Operation{
		paymentOne(kp0.Address()),
		&txnbuild.Payment{
			Destination:   kp2.Address(),
			Asset:         txnbuild.NativeAsset{},
			Amount:        "1",
			SourceAccount: kp0.Address(),
		},
	}, withBaseFee(innerBaseFee))
}

func innerBump() (*Transaction, error) {
	return newTransaction([]txnbuild.Operation{bump(kp0.Address())}, withBaseFee(innerBaseFee))
}

var feeBumpFixtures = []entry{
	{"feeBumpTx", feeBumpOf(twoPayments, kp0.Address(), kp0.Address())},
	{"feeBumpTxWithMuxedFeeSource", func() (Request, error) {
		return feeBumpOf(twoPayments, muxed(kp0.Address()), kp0.Address(), kp1.Address())()
	}},
	{"feeBumpTxOmitFeeSourceEqualSigner", feeBumpOf(innerBump, kp0.Address(), kp0.Address())},
	{"feeBumpTxOmitFeeSourceNotEqualSigner", feeBumpOf(innerBump, kp1.Address(), kp0.Address())},
	{"feeBumpTxOmitMuxedFeeSourceEqualSigner", func() (Request, error) {
		return feeBumpOf(innerBump, muxed(kp0.Address()), kp0.Address())()
	}},
}

// sourceOmissionFixtures exercise when the device hides a transaction or operation source that
// equals the signing account.
var sourceOmissionFixtures = []entry{
	{"txSourceOmitSourceEqualSigner", tx(func() txnbuild.Operation { return bump(kp0.Address()) })},
	{"txSourceOmitSourceNotEqualSigner", tx(func() txnbuild.Operation { return bump(kp1.Address()) },
		withSource(kp1.Address()))},
	{"txSourceOmitMuxedSourceEqualSigner", func() (Request, error) {
		return newTransaction([]txnbuild.Operation{bump(kp0.Address())}, withSource(muxed(kp0.Address())))
	}},
	{"opSourceOmitTxSourceEqualOpSourceEqualSigner", tx(func() txnbuild.Operation { return bump(kp0.Address()) })},
	{"opSourceOmitTxSourceEqualOpSourceNotEqualSigner", tx(func() txnbuild.Operation { return bump(kp1.Address()) },
		withSource(kp1.Address()))},
	{"opSourceOmitOpSourceEqualSignerNotEqualTxSource", tx(func() txnbuild.Operation { return bump(kp0.Address()) },
		withSource(kp1.Address()))},
	{"opSourceOmitTxSourceEqualSignerNotEqualOpSource", tx(func() txnbuild.Operation { return bump(kp1.Address()) })},
	{"opSourceOmitTxMuxedSourceEqualOpMuxedSourceEqualSigner", func() (Request, error) {
		source := muxed(kp0.Address())
		return newTransaction([]txnbuild.Operation{bump(source)}, withSource(source))
	}},
	{"opSourceOmitTxSourceEqualOpMuxedSourceEqualSigner", func() (Request, error) {
		return newTransaction([]txnbuild.Operation{bump(muxed(kp0.Address()))})
	}},
	{"opSourceOmitTxMuxedSourceEqualOpSourceEqualSigner", func() (Request, error) {
		return newTransaction([]txnbuild.Operation{bump(kp0.Address())}, withSource(muxed(kp0.Address())))
	}},
}
