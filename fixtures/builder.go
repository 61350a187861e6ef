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
	"encoding/hex"

	"github.com/stellar/go/network"
	"github.com/stellar/go/price"
	"github.com/stellar/go/txnbuild"
	"github.com/stellar/go/xdr"
	"github.com/stellarhw/app-stellar-harness/reference"
	"github.com/stellarhw/app-stellar-harness/util/errp"
)

const (
	// sequence is the account sequence before the build increments it.
	sequence int64 = 103720918407102567
	// maxTime is 2022-12-12T04:12:12+00:00.
	maxTime int64 = 1670818332

	maxAmount  = "922337203685.4775807"
	muxedID    = 10000
	memoText   = "hello world"
	dataName   = "Ledger Stellar App abcdabcdabcdabcdabcdabcdabcdabcdabcdabcdabcda"
	balanceID  = "00000000da0d57da7d4850e7fc10d2a9d0ebc731f7afb40574c03395b17d49149b91f5be"
	hashSigner = "XDNA2V62PVEFBZ74CDJKTUHLY4Y7PL5UAV2MAM4VWF6USFE3SH235FXL"
	preAuthTx  = "TDNA2V62PVEFBZ74CDJKTUHLY4Y7PL5UAV2MAM4VWF6USFE3SH234BSS"
	// signedPayloadSigner is kp1 with the payload
	// "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ000123456789".
	signedPayloadSigner = "PDRMNAIPTNIJWJSL6JOF76CJORN47TDVMWERTXO2G2WKOMXGNHUFKAAAABAGCYTDMRSWMZ3INFVGW3DNNZXXA4LSON2HK5TXPB4XUQKCINCEKRSHJBEUUS2MJVHE6UCRKJJVIVKWK5MFSWRQGAYDCMRTGQ2TMNZYHF52U"

	customPassphrase = "Custom Network; July 2022"
)

var (
	kp0 = reference.TestKeypair(0)
	kp1 = reference.TestKeypair(1)
	kp2 = reference.TestKeypair(2)

	assetBTC    = txnbuild.CreditAsset{Code: "BTC", Issuer: "GATEMHCCKCY67ZUCKTROYN24ZYT5GK4EQZ65JJLDHKHRUZI3EUEKMTCH"}
	assetBanana = txnbuild.CreditAsset{Code: "BANANANANANA", Issuer: "GCDGPFKW2LUJS2ESKAS42HGOKC6VWOKEJ44TQ3ZXZAMD4ZM5FVHJHPJS"}
	assetUSDC   = txnbuild.CreditAsset{Code: "USDC", Issuer: "GA5ZSEJYB37JRC5AVCIA5MOP4RHTM335X2KGX3IHOJAPP5RE34K4KZVN"}
	assetUSD    = txnbuild.CreditAsset{Code: "USD", Issuer: "GA5ZSEJYB37JRC5AVCIA5MOP4RHTM335X2KGX3IHOJAPP5RE34K4KZVN"}
	assetPanda  = txnbuild.CreditAsset{Code: "PANDA", Issuer: "GDJVFDG5OCW5PYWHB64MGTHGFF57DRRJEDUEFDEL2SLNIOONHYJWHA3Z"}

	path = []txnbuild.Asset{assetUSDC, assetPanda}
)

// txOptions are the knobs of the common transaction builder. The zero value is the common
// transaction: kp0 as source, base fee 100, public network, text memo and time bounds.
type txOptions struct {
	source        string
	baseFee       int64
	passphrase    string
	memo          txnbuild.Memo
	noMemo        bool
	preconditions *txnbuild.Preconditions
}

type txOption func(*txOptions)

func withSource(source string) txOption {
	return func(options *txOptions) { options.source = source }
}

func withBaseFee(fee int64) txOption {
	return func(options *txOptions) { options.baseFee = fee }
}

func withPassphrase(passphrase string) txOption {
	return func(options *txOptions) { options.passphrase = passphrase }
}

func withMemo(memo txnbuild.Memo) txOption {
	return func(options *txOptions) {
		options.memo = memo
		options.noMemo = memo == nil
	}
}

func withPreconditions(preconditions txnbuild.Preconditions) txOption {
	return func(options *txOptions) { options.preconditions = &preconditions }
}

func newTransaction(operations []txnbuild.Operation, opts ...txOption) (*Transaction, error) {
	options := txOptions{
		source:     kp0.Address(),
		baseFee:    txnbuild.MinBaseFee,
		passphrase: network.PublicNetworkPassphrase,
		memo:       txnbuild.MemoText(memoText),
	}
	for _, opt := range opts {
		opt(&options)
	}
	preconditions := txnbuild.Preconditions{TimeBounds: txnbuild.NewTimebounds(0, maxTime)}
	if options.preconditions != nil {
		preconditions = *options.preconditions
	}
	params := txnbuild.TransactionParams{
		SourceAccount:        &txnbuild.SimpleAccount{AccountID: options.source, Sequence: sequence},
		IncrementSequenceNum: true,
		Operations:           operations,
		BaseFee:              options.baseFee,
		Preconditions:        preconditions,
	}
	if !options.noMemo {
		params.Memo = options.memo
	}
	tx, err := txnbuild.NewTransaction(params)
	if err != nil {
		return nil, errp.WithStack(err)
	}
	return &Transaction{Tx: tx, Passphrase: options.passphrase}, nil
}

// single wraps one operation in the common transaction.
func single(operation func() (txnbuild.Operation, error), opts ...txOption) func() (Request, error) {
	return func() (Request, error) {
		op, err := operation()
		if err != nil {
			return nil, err
		}
		return newTransaction([]txnbuild.Operation{op}, opts...)
	}
}

// op adapts an operation that cannot fail to single.
func op(operation txnbuild.Operation) func() (txnbuild.Operation, error) {
	return func() (txnbuild.Operation, error) { return operation, nil }
}

// fromXDR loads a prebuilt unsigned transaction envelope.
func fromXDR(envelope string, passphrase string) func() (Request, error) {
	return func() (Request, error) {
		generic, err := txnbuild.TransactionFromXDR(envelope)
		if err != nil {
			return nil, errp.WithStack(err)
		}
		tx, ok := generic.Transaction()
		if !ok {
			return nil, errp.New("envelope is not a transaction")
		}
		return &Transaction{Tx: tx, Passphrase: passphrase}, nil
	}
}

func muxed(address string) string {
	account, err := xdr.MuxedAccountFromAccountId(address, muxedID)
	if err != nil {
		panic(err)
	}
	encoded, err := account.GetAddress()
	if err != nil {
		panic(err)
	}
	return encoded
}

func mustPrice(value string) xdr.Price {
	parsed, err := price.Parse(value)
	if err != nil {
		panic(err)
	}
	return parsed
}

func mustHash32(hexString string) [32]byte {
	var hash [32]byte
	decoded, err := hex.DecodeString(hexString)
	if err != nil || len(decoded) != len(hash) {
		panic("invalid 32 byte hex string " + hexString)
	}
	copy(hash[:], decoded)
	return hash
}

func liquidityPool() txnbuild.LiquidityPoolParameters {
	return txnbuild.LiquidityPoolParameters{
		AssetA: assetBTC,
		AssetB: assetUSDC,
		Fee:    txnbuild.LiquidityPoolFeeV18,
	}
}

func liquidityPoolID() (txnbuild.LiquidityPoolId, error) {
	id, err := txnbuild.NewLiquidityPoolId(assetBTC, assetUSDC)
	return id, errp.WithStack(err)
}
