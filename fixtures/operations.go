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

	"github.com/stellar/go/txnbuild"
	"github.com/stellar/go/xdr"
)

var operationFixtures = []entry{
	{"opCreateAccount", single(op(&txnbuild.CreateAccount{
		Destination:   kp1.Address(),
		Amount:        "100",
		SourceAccount: kp0.Address(),
	}))},
	{"opPaymentAssetNative", single(op(&txnbuild.Payment{
		Destination:   kp1.Address(),
		Asset:         txnbuild.NativeAsset{},
		Amount:        maxAmount,
		SourceAccount: kp0.Address(),
	}))},
	{"opPaymentAssetAlphanum4", single(op(&txnbuild.Payment{
		Destination:   kp1.Address(),
		Asset:         assetBTC,
		Amount:        maxAmount,
		SourceAccount: kp0.Address(),
	}))},
	{"opPaymentAssetAlphanum12", single(op(&txnbuild.Payment{
		Destination:   kp1.Address(),
		Asset:         assetBanana,
		Amount:        maxAmount,
		SourceAccount: kp0.Address(),
	}))},
	{"opPaymentWithMuxedDestination", single(func() (txnbuild.Operation, error) {
		return &txnbuild.Payment{
			Destination:   muxed(kp1.Address()),
			Asset:         txnbuild.NativeAsset{},
			Amount:        maxAmount,
			SourceAccount: kp0.Address(),
		}, nil
	})},
	{"opPathPaymentStrictReceive", single(op(&txnbuild.PathPaymentStrictReceive{
		SendAsset:     assetBTC,
		SendMax:       "1",
		Destination:   kp1.Address(),
		DestAsset:     txnbuild.NativeAsset{},
		DestAmount:    "123456789.334",
		Path:          path,
		SourceAccount: kp0.Address(),
	}))},
	{"opPathPaymentStrictReceiveWithEmptyPath", single(op(&txnbuild.PathPaymentStrictReceive{
		SendAsset:     assetBTC,
		SendMax:       "1",
		Destination:   kp1.Address(),
		DestAsset:     txnbuild.NativeAsset{},
		DestAmount:    "123456789.334",
		SourceAccount: kp0.Address(),
	}))},
	{"opPathPaymentStrictReceiveWithMuxedDestination", single(func() (txnbuild.Operation, error) {
		return &txnbuild.PathPaymentStrictReceive{
			SendAsset:     assetBTC,
			SendMax:       "1",
			Destination:   muxed(kp1.Address()),
			DestAsset:     txnbuild.NativeAsset{},
			DestAmount:    "123456789.334",
			Path:          path,
			SourceAccount: kp0.Address(),
		}, nil
	})},
	{"opManageSellOfferCreate", single(func() (txnbuild.Operation, error) {
		return &txnbuild.ManageSellOffer{
			Selling:       assetBTC,
			Buying:        txnbuild.NativeAsset{},
			Amount:        "988448423.2134",
			Price:         mustPrice("0.0001234"),
			SourceAccount: kp0.Address(),
		}, nil
	})},
	{"opManageSellOfferUpdate", single(func() (txnbuild.Operation, error) {
		return &txnbuild.ManageSellOffer{
			Selling:       assetBTC,
			Buying:        txnbuild.NativeAsset{},
			Amount:        "988448423.2134",
			Price:         mustPrice("0.0001234"),
			OfferID:       7123456,
			SourceAccount: kp0.Address(),
		}, nil
	})},
	{"opManageSellOfferDelete", single(func() (txnbuild.Operation, error) {
		return &txnbuild.ManageSellOffer{
			Selling:       assetBTC,
			Buying:        txnbuild.NativeAsset{},
			Amount:        "0",
			Price:         mustPrice("0.0001234"),
			OfferID:       7123456,
			SourceAccount: kp0.Address(),
		}, nil
	})},
	{"opCreatePassiveSellOffer", single(func() (txnbuild.Operation, error) {
		return &txnbuild.CreatePassiveSellOffer{
			Selling:       assetBTC,
			Buying:        txnbuild.NativeAsset{},
			Amount:        "988448423.2134",
			Price:         mustPrice("0.0001234"),
			SourceAccount: kp0.Address(),
		}, nil
	})},
	{"opSetOptions", single(func() (txnbuild.Operation, error) {
		return &txnbuild.SetOptions{
			InflationDestination: txnbuild.NewInflationDestination(kp1.Address()),
			ClearFlags:           []txnbuild.AccountFlag{txnbuild.AuthClawbackEnabled},
			SetFlags:             []txnbuild.AccountFlag{txnbuild.AuthRequired},
			MasterWeight:         txnbuild.NewThreshold(255),
			LowThreshold:         txnbuild.NewThreshold(10),
			MediumThreshold:      txnbuild.NewThreshold(20),
			HighThreshold:        txnbuild.NewThreshold(30),
			HomeDomain:           txnbuild.NewHomeDomain("stellar.org"),
			Signer:               &txnbuild.Signer{Address: kp2.Address(), Weight: 10},
			SourceAccount:        kp0.Address(),
		}, nil
	})},
	{"opSetOptionsWithEmptyBody", single(op(&txnbuild.SetOptions{
		SourceAccount: kp0.Address(),
	}))},
	{"opSetOptionsAddPublicKeySigner", single(op(&txnbuild.SetOptions{
		Signer:        &txnbuild.Signer{Address: kp1.Address(), Weight: 10},
		SourceAccount: kp0.Address(),
	}))},
	{"opSetOptionsRemovePublicKeySigner", single(op(&txnbuild.SetOptions{
		Signer:        &txnbuild.Signer{Address: kp1.Address(), Weight: 0},
		SourceAccount: kp0.Address(),
	}))},
	{"opSetOptionsAddHashXSigner", single(op(&txnbuild.SetOptions{
		Signer:        &txnbuild.Signer{Address: hashSigner, Weight: 10},
		SourceAccount: kp0.Address(),
	}))},
	{"opSetOptionsRemoveHashXSigner", single(op(&txnbuild.SetOptions{
		Signer:        &txnbuild.Signer{Address: hashSigner, Weight: 0},
		SourceAccount: kp0.Address(),
	}))},
	{"opSetOptionsAddPreAuthTxSigner", single(op(&txnbuild.SetOptions{
		Signer:        &txnbuild.Signer{Address: preAuthTx, Weight: 10},
		SourceAccount: kp0.Address(),
	}))},
	{"opSetOptionsRemovePreAuthTxSigner", single(op(&txnbuild.SetOptions{
		Signer:        &txnbuild.Signer{Address: preAuthTx, Weight: 0},
		SourceAccount: kp0.Address(),
	}))},
	{"opSetOptionsAddEd25519SignerPayloadSigner", single(op(&txnbuild.SetOptions{
		Signer:        &txnbuild.Signer{Address: signedPayloadSigner, Weight: 10},
		SourceAccount: kp0.Address(),
	}))},
	{"opSetOptionsRemoveEd25519SignerPayloadSigner", single(op(&txnbuild.SetOptions{
		Signer:        &txnbuild.Signer{Address: signedPayloadSigner, Weight: 0},
		SourceAccount: kp0.Address(),
	}))},
	{"opChangeTrustAddTrustLine", single(op(&txnbuild.ChangeTrust{
		Line:          txnbuild.ChangeTrustAssetWrapper{Asset: assetUSDC},
		Limit:         "922337203680.9999999",
		SourceAccount: kp0.Address(),
	}))},
	{"opChangeTrustRemoveTrustLine", single(op(&txnbuild.ChangeTrust{
		Line:          txnbuild.ChangeTrustAssetWrapper{Asset: assetUSD},
		Limit:         "0",
		SourceAccount: kp0.Address(),
	}))},
	{"opChangeTrustWithLiquidityPoolAssetAddTrustLine", single(op(&txnbuild.ChangeTrust{
		Line:          txnbuild.LiquidityPoolShareChangeTrustAsset{LiquidityPoolParameters: liquidityPool()},
		Limit:         "922337203680.9999999",
		SourceAccount: kp0.Address(),
	}))},
	{"opChangeTrustWithLiquidityPoolAssetRemoveTrustLine", single(op(&txnbuild.ChangeTrust{
		Line:          txnbuild.LiquidityPoolShareChangeTrustAsset{LiquidityPoolParameters: liquidityPool()},
		Limit:         "0",
		SourceAccount: kp0.Address(),
	}))},
	{"opAllowTrustDeauthorize", single(op(&txnbuild.AllowTrust{
		Trustor:       kp1.Address(),
		Type:          txnbuild.CreditAsset{Code: "USD", Issuer: kp0.Address()},
		Authorize:     false,
		SourceAccount: kp0.Address(),
	}))},
	{"opAllowTrustAuthorize", single(op(&txnbuild.AllowTrust{
		Trustor:       kp1.Address(),
		Type:          txnbuild.CreditAsset{Code: "USD", Issuer: kp0.Address()},
		Authorize:     true,
		SourceAccount: kp0.Address(),
	}))},
	{"opAccountMerge", single(op(&txnbuild.AccountMerge{
		Destination:   kp1.Address(),
		SourceAccount: kp0.Address(),
	}))},
	{"opAccountMergeWithMuxedDestination", single(func() (txnbuild.Operation, error) {
		return &txnbuild.AccountMerge{
			Destination:   muxed(kp1.Address()),
			SourceAccount: kp0.Address(),
		}, nil
	})},
	{"opInflation", single(op(&txnbuild.Inflation{
		SourceAccount: kp0.Address(),
	}))},
	{"opManageDataAdd", single(op(&txnbuild.ManageData{
		Name:          dataName,
		Value:         []byte("Hello Stellar! abcdabcdabcdabcdabcdabcdabcdabcdabcdabcdabcdabcda"),
		SourceAccount: kp0.Address(),
	}))},
	{"opManageDataAddWithUnprintableData", single(op(&txnbuild.ManageData{
		Name:          dataName,
		Value:         []byte("这是一条测试消息 hey"),
		SourceAccount: kp0.Address(),
	}))},
	{"opManageDataRemove", single(op(&txnbuild.ManageData{
		Name:          dataName,
		SourceAccount: kp0.Address(),
	}))},
	{"opBumpSequence", single(op(&txnbuild.BumpSequence{
		BumpTo:        math.MaxInt64,
		SourceAccount: kp0.Address(),
	}))},
	{"opManageBuyOfferCreate", single(func() (txnbuild.Operation, error) {
		return &txnbuild.ManageBuyOffer{
			Selling:       assetBTC,
			Buying:        txnbuild.NativeAsset{},
			Amount:        "988448111.2222",
			Price:         mustPrice("0.0001011"),
			SourceAccount: kp0.Address(),
		}, nil
	})},
	{"opManageBuyOfferUpdate", single(func() (txnbuild.Operation, error) {
		return &txnbuild.ManageBuyOffer{
			Selling:       assetBTC,
			Buying:        txnbuild.NativeAsset{},
			Amount:        "988448111.2222",
			Price:         mustPrice("0.0001011"),
			OfferID:       3523456,
			SourceAccount: kp0.Address(),
		}, nil
	})},
	{"opManageBuyOfferDelete", single(func() (txnbuild.Operation, error) {
		return &txnbuild.ManageBuyOffer{
			Selling:       assetBTC,
			Buying:        txnbuild.NativeAsset{},
			Amount:        "0",
			Price:         mustPrice("0.0001011"),
			OfferID:       3523456,
			SourceAccount: kp0.Address(),
		}, nil
	})},
	{"opPathPaymentStrictSend", single(op(&txnbuild.PathPaymentStrictSend{
		SendAsset:     assetBTC,
		SendAmount:    "0.985",
		Destination:   kp1.Address(),
		DestAsset:     txnbuild.NativeAsset{},
		DestMin:       "123456789.987",
		Path:          path,
		SourceAccount: kp0.Address(),
	}))},
	{"opPathPaymentStrictSendWithEmptyPath", single(op(&txnbuild.PathPaymentStrictSend{
		SendAsset:     assetBTC,
		SendAmount:    "0.985",
		Destination:   kp1.Address(),
		DestAsset:     txnbuild.NativeAsset{},
		DestMin:       "123456789.987",
		SourceAccount: kp0.Address(),
	}))},
	{"opPathPaymentStrictSendWithMuxedDestination", single(func() (txnbuild.Operation, error) {
		return &txnbuild.PathPaymentStrictSend{
			SendAsset:     assetBTC,
			SendAmount:    "0.985",
			Destination:   muxed(kp1.Address()),
			DestAsset:     txnbuild.NativeAsset{},
			DestMin:       "123456789.987",
			Path:          path,
			SourceAccount: kp0.Address(),
		}, nil
	})},
	{"opCreateClaimableBalance", single(op(&txnbuild.CreateClaimableBalance{
		Asset:  assetUSDC,
		Amount: "100",
		Destinations: []txnbuild.Claimant{
			txnbuild.NewClaimant(kp1.Address(), &txnbuild.UnconditionalPredicate),
			txnbuild.NewClaimant(kp2.Address(), func() *xdr.ClaimPredicate {
				predicate := txnbuild.AndPredicate(
					txnbuild.OrPredicate(
						txnbuild.BeforeAbsoluteTimePredicate(1629344902),
						txnbuild.BeforeAbsoluteTimePredicate(1629300000),
					),
					txnbuild.NotPredicate(txnbuild.BeforeRelativeTimePredicate(180)),
				)
				return &predicate
			}()),
		},
		SourceAccount: kp0.Address(),
	}))},
	{"opClaimClaimableBalance", single(op(&txnbuild.ClaimClaimableBalance{
		BalanceID:     balanceID,
		SourceAccount: kp0.Address(),
	}))},
	{"opBeginSponsoringFutureReserves", single(op(&txnbuild.BeginSponsoringFutureReserves{
		SponsoredID:   kp1.Address(),
		SourceAccount: kp0.Address(),
	}))},
	{"opEndSponsoringFutureReserves", single(op(&txnbuild.EndSponsoringFutureReserves{
		SourceAccount: kp0.Address(),
	}))},
	{"opRevokeSponsorshipAccount", single(func() (txnbuild.Operation, error) {
		account := kp1.Address()
		return &txnbuild.RevokeSponsorship{
			SponsorshipType: txnbuild.RevokeSponsorshipTypeAccount,
			Account:         &account,
			SourceAccount:   kp0.Address(),
		}, nil
	})},
	{"opRevokeSponsorshipTrustLineWithAsset", single(func() (txnbuild.Operation, error) {
		asset, err := assetBTC.ToTrustLineAsset()
		if err != nil {
			return nil, err
		}
		return &txnbuild.RevokeSponsorship{
			SponsorshipType: txnbuild.RevokeSponsorshipTypeTrustLine,
			TrustLine:       &txnbuild.TrustLineID{Account: kp1.Address(), Asset: asset},
			SourceAccount:   kp0.Address(),
		}, nil
	})},
	{"opRevokeSponsorshipTrustLineWithLiquidityPoolId", single(func() (txnbuild.Operation, error) {
		id, err := liquidityPoolID()
		if err != nil {
			return nil, err
		}
		return &txnbuild.RevokeSponsorship{
			SponsorshipType: txnbuild.RevokeSponsorshipTypeTrustLine,
			TrustLine: &txnbuild.TrustLineID{
				Account: kp1.Address(),
				Asset:   txnbuild.LiquidityPoolShareTrustLineAsset{LiquidityPoolID: id},
			},
			SourceAccount: kp0.Address(),
		}, nil
	})},
	{"opRevokeSponsorshipOffer", single(op(&txnbuild.RevokeSponsorship{
		SponsorshipType: txnbuild.RevokeSponsorshipTypeOffer,
		Offer:           &txnbuild.OfferID{SellerAccountAddress: kp1.Address(), OfferID: 123456},
		SourceAccount:   kp0.Address(),
	}))},
	{"opRevokeSponsorshipData", single(op(&txnbuild.RevokeSponsorship{
		SponsorshipType: txnbuild.RevokeSponsorshipTypeData,
		Data:            &txnbuild.DataID{Account: kp1.Address(), DataName: dataName},
		SourceAccount:   kp0.Address(),
	}))},
	{"opRevokeSponsorshipClaimableBalance", single(func() (txnbuild.Operation, error) {
		id := balanceID
		return &txnbuild.RevokeSponsorship{
			SponsorshipType:  txnbuild.RevokeSponsorshipTypeClaimableBalance,
			ClaimableBalance: &id,
			SourceAccount:    kp0.Address(),
		}, nil
	})},
	{"opRevokeSponsorshipEd25519PublicKeySigner", single(op(&txnbuild.RevokeSponsorship{
		SponsorshipType: txnbuild.RevokeSponsorshipTypeSigner,
		Signer:          &txnbuild.SignerID{AccountID: kp1.Address(), SignerAddress: kp2.Address()},
		SourceAccount:   kp0.Address(),
	}))},
	{"opRevokeSponsorshipHashXSigner", single(op(&txnbuild.RevokeSponsorship{
		SponsorshipType: txnbuild.RevokeSponsorshipTypeSigner,
		Signer:          &txnbuild.SignerID{AccountID: kp1.Address(), SignerAddress: hashSigner},
		SourceAccount:   kp0.Address(),
	}))},
	{"opRevokeSponsorshipPreAuthTxSigner", single(op(&txnbuild.RevokeSponsorship{
		SponsorshipType: txnbuild.RevokeSponsorshipTypeSigner,
		Signer:          &txnbuild.SignerID{AccountID: kp1.Address(), SignerAddress: preAuthTx},
		SourceAccount:   kp0.Address(),
	}))},
	{"opClawback", single(op(&txnbuild.Clawback{
		From:          kp1.Address(),
		Amount:        "1000.85",
		Asset:         assetUSDC,
		SourceAccount: kp0.Address(),
	}))},
	{"opClawbackWithMuxedFrom", single(func() (txnbuild.Operation, error) {
		return &txnbuild.Clawback{
			From:          muxed(kp1.Address()),
			Amount:        "1000.85",
			Asset:         assetUSDC,
			SourceAccount: kp0.Address(),
		}, nil
	})},
	{"opClawbackClaimableBalance", single(op(&txnbuild.ClawbackClaimableBalance{
		BalanceID:     balanceID,
		SourceAccount: kp0.Address(),
	}))},
	{"opSetTrustLineFlagsUnauthorized", single(op(&txnbuild.SetTrustLineFlags{
		Trustor: kp1.Address(),
		Asset:   assetUSDC,
		ClearFlags: []txnbuild.TrustLineFlag{
			txnbuild.TrustLineAuthorized,
			txnbuild.TrustLineAuthorizedToMaintainLiabilities,
			txnbuild.TrustLineClawbackEnabled,
		},
		SourceAccount: kp0.Address(),
	}))},
	{"opSetTrustLineFlagsAuthorized", single(op(&txnbuild.SetTrustLineFlags{
		Trustor: kp1.Address(),
		Asset:   assetUSDC,
		SetFlags: []txnbuild.TrustLineFlag{
			txnbuild.TrustLineAuthorized,
			txnbuild.TrustLineAuthorizedToMaintainLiabilities,
		},
		ClearFlags:    []txnbuild.TrustLineFlag{txnbuild.TrustLineClawbackEnabled},
		SourceAccount: kp0.Address(),
	}))},
	{"opSetTrustLineFlagsAuthorizedToMaintainLiabilities", single(op(&txnbuild.SetTrustLineFlags{
		Trustor:  kp1.Address(),
		Asset:    assetUSDC,
		SetFlags: []txnbuild.TrustLineFlag{txnbuild.TrustLineAuthorizedToMaintainLiabilities},
		ClearFlags: []txnbuild.TrustLineFlag{
			txnbuild.TrustLineAuthorized,
			txnbuild.TrustLineClawbackEnabled,
		},
		SourceAccount: kp0.Address(),
	}))},
	{"opSetTrustLineFlagsAuthorizedAndClawbackEnabled", single(op(&txnbuild.SetTrustLineFlags{
		Trustor: kp1.Address(),
		Asset:   assetUSDC,
		SetFlags: []txnbuild.TrustLineFlag{
			txnbuild.TrustLineAuthorized,
			txnbuild.TrustLineClawbackEnabled,
		},
		ClearFlags:    []txnbuild.TrustLineFlag{txnbuild.TrustLineAuthorizedToMaintainLiabilities},
		SourceAccount: kp0.Address(),
	}))},
	{"opLiquidityPoolDeposit", single(func() (txnbuild.Operation, error) {
		id, err := liquidityPoolID()
		if err != nil {
			return nil, err
		}
		return &txnbuild.LiquidityPoolDeposit{
			LiquidityPoolID: id,
			MaxAmountA:      "1000000",
			MaxAmountB:      "0.2321",
			MinPrice:        mustPrice("14324232.23"),
			MaxPrice:        mustPrice("10000000.00"),
			SourceAccount:   kp0.Address(),
		}, nil
	})},
	{"opLiquidityPoolWithdraw", single(func() (txnbuild.Operation, error) {
		id, err := liquidityPoolID()
		if err != nil {
			return nil, err
		}
		return &txnbuild.LiquidityPoolWithdraw{
			LiquidityPoolID: id,
			Amount:          "5000",
			MinAmountA:      "10000",
			MinAmountB:      "20000",
			SourceAccount:   kp0.Address(),
		}, nil
	})},
	{"opWithEmptySource", single(op(&txnbuild.Payment{
		Destination: kp1.Address(),
		Asset:       txnbuild.NativeAsset{},
		Amount:      maxAmount,
	}))},
	{"opWithMuxedSource", single(func() (txnbuild.Operation, error) {
		return &txnbuild.Payment{
			Destination:   kp1.Address(),
			Asset:         txnbuild.NativeAsset{},
			Amount:        maxAmount,
			SourceAccount: muxed(kp0.Address()),
		}, nil
	})},
}
