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
	"github.com/stellar/go/network"
	"github.com/stellar/go/strkey"
	"github.com/stellar/go/txnbuild"
	"github.com/stellar/go/xdr"
	"github.com/stellarhw/app-stellar-harness/util/errp"
)

const (
	// nativeContract is the Stellar asset contract of XLM on the public network.
	nativeContract = "CDLZFC3SYJYDZT7K67VZ75HPJVIEUVNIXF47ZG2FB2RMQQVU2HHGCYSC"

	authFrom = "GCWNBLOHPARYAAF5W25NELURTERYS732Q7RRBTXRKBPGYCYLOFKCLKKA"
	authTo   = "GB42LIJ3V5KXCY32EFL4NL73OSI5PRCFJ3WNFMFX4QHGOAR7BFX2YC34"

	authNonce      = 1232432453
	authExpiration = 34654367
	// authAmount is 1035.6 XLM in stroops.
	authAmount = 103560 * 100000

	sorobanCustomPassphrase = "Custom Network; October 2025"

	wasmHash = "d99f1fee344eebd8307deb9ff42457d8db12ee53272918fe34380271c1d4100a"

	// unverifiedContractEnvelope invokes "increment" on a testnet contract the device does not know.
	unverifiedContractEnvelope = "AAAAAgAAAADpM4i7/S+9EYBt0L1ZzqkHnnzHDOex4VTxFM3+TkZuzQABxvgALZ/tAAAABAAAAAAAAAAAAAAAAQAAAAAAAAAYAAAAAAAAAAEg4OaNXYGzRmhSjH1GejbYohyLCnmUI03XQbQEcqSo4AAAAAlpbmNyZW1lbnQAAAAAAAAAAAAAAAAAAAEAAAAAAAAAAQAAAAcT4WhYveSrUKAG2/BxciiPPsGdhkDRqFMBbGDBXCURFwAAAAEAAAAGAAAAASDg5o1dgbNGaFKMfUZ6NtiiHIsKeZQjTddBtARypKjgAAAAFAAAAAEAGQovAAADSAAAAIQAAAAAAAANSQAAAAFORm7NAAAAQMeYqOX1HnwH9heyEgce5OcjQEakm+vFFqtXBEdaHMqDvMBVCcy4u8WhVAbOWCvNQf+/wjIaj03un47sRyLJtwc="
)

// testPluginContract is the all zero contract the companion test plugin answers for.
var testPluginContract = strkey.MustEncode(strkey.VersionByteContract, make([]byte, 32))

func contractAddress(address string) (xdr.ScAddress, error) {
	raw, err := strkey.Decode(strkey.VersionByteContract, address)
	if err != nil {
		return xdr.ScAddress{}, errp.WithStack(err)
	}
	var id xdr.ContractId
	copy(id[:], raw)
	return xdr.ScAddress{Type: xdr.ScAddressTypeScAddressTypeContract, ContractId: &id}, nil
}

func accountAddress(address string) (xdr.ScAddress, error) {
	accountID, err := xdr.AddressToAccountId(address)
	if err != nil {
		return xdr.ScAddress{}, errp.WithStack(err)
	}
	return xdr.ScAddress{Type: xdr.ScAddressTypeScAddressTypeAccount, AccountId: &accountID}, nil
}

func scAddress(address xdr.ScAddress) xdr.ScVal {
	return xdr.ScVal{Type: xdr.ScValTypeScvAddress, Address: &address}
}

func scI128(value uint64) xdr.ScVal {
	return xdr.ScVal{Type: xdr.ScValTypeScvI128, I128: &xdr.Int128Parts{Hi: 0, Lo: xdr.Uint64(value)}}
}

func scU32(value uint32) xdr.ScVal {
	u32 := xdr.Uint32(value)
	return xdr.ScVal{Type: xdr.ScValTypeScvU32, U32: &u32}
}

// transferArgs are the from, to and amount arguments of a token transfer.
func transferArgs(from, to string, amount uint64) (xdr.ScVec, error) {
	fromAddress, err := accountAddress(from)
	if err != nil {
		return nil, err
	}
	toAddress, err := accountAddress(to)
	if err != nil {
		return nil, err
	}
	return xdr.ScVec{scAddress(fromAddress), scAddress(toAddress), scI128(amount)}, nil
}

func invokeArgs(contract string, function string, args xdr.ScVec) (*xdr.InvokeContractArgs, error) {
	address, err := contractAddress(contract)
	if err != nil {
		return nil, err
	}
	return &xdr.InvokeContractArgs{
		ContractAddress: address,
		FunctionName:    xdr.ScSymbol(function),
		Args:            args,
	}, nil
}

// invoke builds a testnet transaction with a single contract call from kp0.
func invoke(contract string, function string, args func() (xdr.ScVec, error), auth bool) func() (Request, error) {
	return func() (Request, error) {
		scArgs, err := args()
		if err != nil {
			return nil, err
		}
		call, err := invokeArgs(contract, function, scArgs)
		if err != nil {
			return nil, err
		}
		operation := &txnbuild.InvokeHostFunction{
			HostFunction: xdr.HostFunction{
				Type:           xdr.HostFunctionTypeHostFunctionTypeInvokeContract,
				InvokeContract: call,
			},
			SourceAccount: kp0.Address(),
		}
		if auth {
			operation.Auth = []xdr.SorobanAuthorizationEntry{{
				Credentials: xdr.SorobanCredentials{
					Type: xdr.SorobanCredentialsTypeSorobanCredentialsSourceAccount,
				},
				RootInvocation: xdr.SorobanAuthorizedInvocation{
					Function: xdr.SorobanAuthorizedFunction{
						Type:       xdr.SorobanAuthorizedFunctionTypeSorobanAuthorizedFunctionTypeContractFn,
						ContractFn: call,
					},
				},
			}}
		}
		return newTransaction([]txnbuild.Operation{operation},
			withPassphrase(network.TestNetworkPassphrase), withMemo(nil))
	}
}

func hostFunction(build func() (xdr.HostFunction, error)) func() (Request, error) {
	return func() (Request, error) {
		function, err := build()
		if err != nil {
			return nil, err
		}
		operation := &txnbuild.InvokeHostFunction{HostFunction: function, SourceAccount: kp0.Address()}
		return newTransaction([]txnbuild.Operation{operation},
			withPassphrase(network.TestNetworkPassphrase), withMemo(nil))
	}
}

func noArgs() (xdr.ScVec, error) { return xdr.ScVec{}, nil }

var sorobanOperationFixtures = []entry{
	{"opInvokeHostFunctionUploadWasm", hostFunction(func() (xdr.HostFunction, error) {
		wasm := []byte("\x00asm\x01\x00\x00\x00")
		return xdr.HostFunction{
			Type: xdr.HostFunctionTypeHostFunctionTypeUploadContractWasm,
			Wasm: &wasm,
		}, nil
	})},
	{"opInvokeHostFunctionCreateContractWasmId", hostFunction(func() (xdr.HostFunction, error) {
		deployer, err := accountAddress(kp0.Address())
		if err != nil {
			return xdr.HostFunction{}, err
		}
		hash := xdr.Hash(mustHash32(wasmHash))
		return xdr.HostFunction{
			Type: xdr.HostFunctionTypeHostFunctionTypeCreateContract,
			CreateContract: &xdr.CreateContractArgs{
				ContractIdPreimage: xdr.ContractIdPreimage{
					Type: xdr.ContractIdPreimageTypeContractIdPreimageFromAddress,
					FromAddress: &xdr.ContractIdPreimageFromAddress{
						Address: deployer,
						Salt:    xdr.Uint256(mustHash32(wasmHash)),
					},
				},
				Executable: xdr.ContractExecutable{
					Type:     xdr.ContractExecutableTypeContractExecutableWasm,
					WasmHash: &hash,
				},
			},
		}, nil
	})},
	{"opInvokeHostFunctionCreateContractWrapAsset", hostFunction(func() (xdr.HostFunction, error) {
		asset, err := assetUSDC.ToXDR()
		if err != nil {
			return xdr.HostFunction{}, errp.WithStack(err)
		}
		return xdr.HostFunction{
			Type: xdr.HostFunctionTypeHostFunctionTypeCreateContract,
			CreateContract: &xdr.CreateContractArgs{
				ContractIdPreimage: xdr.ContractIdPreimage{
					Type:      xdr.ContractIdPreimageTypeContractIdPreimageFromAsset,
					FromAsset: &asset,
				},
				Executable: xdr.ContractExecutable{
					Type: xdr.ContractExecutableTypeContractExecutableStellarAsset,
				},
			},
		}, nil
	})},
	{"opInvokeHostFunctionUnverifiedContract", fromXDR(unverifiedContractEnvelope, network.TestNetworkPassphrase)},
	{"opInvokeHostFunctionAssetTransfer", invoke(nativeContract, "transfer", func() (xdr.ScVec, error) {
		return transferArgs(kp0.Address(), kp1.Address(), 100*10_000_000)
	}, true)},
	{"opInvokeHostFunctionAssetApprove", invoke(nativeContract, "approve", func() (xdr.ScVec, error) {
		args, err := transferArgs(kp0.Address(), kp1.Address(), 100*10_000_000)
		if err != nil {
			return nil, err
		}
		return append(args, scU32(1_000_000)), nil
	}, true)},
	{"opInvokeHostFunctionWithoutArgs", invoke(nativeContract, "testfunc", noArgs, false)},
	{"opInvokeHostFunctionWithAuth", invoke(nativeContract, "transfer", func() (xdr.ScVec, error) {
		return transferArgs(kp0.Address(), authTo, authAmount)
	}, true)},
	{"opInvokeHostFunctionTestPlugin", invoke(testPluginContract, "transfer", func() (xdr.ScVec, error) {
		return transferArgs(kp0.Address(), kp1.Address(), 100*10_000_000)
	}, false)},
	{"opExtendFootprintTtl", func() (Request, error) {
		return newTransaction([]txnbuild.Operation{&txnbuild.ExtendFootprintTtl{
			ExtendTo:      1400000,
			SourceAccount: kp0.Address(),
		}}, withPassphrase(network.TestNetworkPassphrase), withMemo(nil))
	}},
	{"opRestoreFootprint", func() (Request, error) {
		return newTransaction([]txnbuild.Operation{&txnbuild.RestoreFootprint{
			SourceAccount: kp0.Address(),
		}}, withPassphrase(network.TestNetworkPassphrase), withMemo(nil))
	}},
}

// authPreimage builds the signed preimage of a Soroban authorization entry.
func authPreimage(passphrase string, invocation func() (xdr.SorobanAuthorizedInvocation, error)) func() (Request, error) {
	return func() (Request, error) {
		root, err := invocation()
		if err != nil {
			return nil, err
		}
		return &SorobanAuth{Preimage: xdr.HashIdPreimage{
			Type: xdr.EnvelopeTypeEnvelopeTypeSorobanAuthorization,
			SorobanAuthorization: &xdr.HashIdPreimageSorobanAuthorization{
				NetworkId:                 xdr.Hash(network.ID(passphrase)),
				Nonce:                     authNonce,
				SignatureExpirationLedger: authExpiration,
				Invocation:                root,
			},
		}}, nil
	}
}

func contractFn(contract, function string, args func() (xdr.ScVec, error), subInvocations ...xdr.SorobanAuthorizedInvocation) (xdr.SorobanAuthorizedInvocation, error) {
	scArgs, err := args()
	if err != nil {
		return xdr.SorobanAuthorizedInvocation{}, err
	}
	call, err := invokeArgs(contract, function, scArgs)
	if err != nil {
		return xdr.SorobanAuthorizedInvocation{}, err
	}
	if subInvocations == nil {
		subInvocations = []xdr.SorobanAuthorizedInvocation{}
	}
	return xdr.SorobanAuthorizedInvocation{
		Function: xdr.SorobanAuthorizedFunction{
			Type:       xdr.SorobanAuthorizedFunctionTypeSorobanAuthorizedFunctionTypeContractFn,
			ContractFn: call,
		},
		SubInvocations: subInvocations,
	}, nil
}

func authTransferArgs() (xdr.ScVec, error) {
	return transferArgs(authFrom, authTo, authAmount)
}

func authTransfer() (xdr.SorobanAuthorizedInvocation, error) {
	return contractFn(nativeContract, "transfer", authTransferArgs)
}

var sorobanAuthFixtures = []entry{
	{"sorobanAuthNetworkTestnet", authPreimage(network.TestNetworkPassphrase, authTransfer)},
	{"sorobanAuthNetworkPublic", authPreimage(network.PublicNetworkPassphrase, authTransfer)},
	{"sorobanAuthNetworkCustom", authPreimage(sorobanCustomPassphrase, authTransfer)},
	{"sorobanAuthCreateSmartContract", authPreimage(network.PublicNetworkPassphrase, func() (xdr.SorobanAuthorizedInvocation, error) {
		deployer, err := accountAddress(authTo)
		if err != nil {
			return xdr.SorobanAuthorizedInvocation{}, err
		}
		hash := xdr.Hash(mustHash32(wasmHash))
		return xdr.SorobanAuthorizedInvocation{
			Function: xdr.SorobanAuthorizedFunction{
				Type: xdr.SorobanAuthorizedFunctionTypeSorobanAuthorizedFunctionTypeCreateContractHostFn,
				CreateContractHostFn: &xdr.CreateContractArgs{
					ContractIdPreimage: xdr.ContractIdPreimage{
						Type: xdr.ContractIdPreimageTypeContractIdPreimageFromAddress,
						FromAddress: &xdr.ContractIdPreimageFromAddress{
							Address: deployer,
							Salt:    xdr.Uint256(mustHash32(wasmHash)),
						},
					},
					Executable: xdr.ContractExecutable{
						Type:     xdr.ContractExecutableTypeContractExecutableWasm,
						WasmHash: &hash,
					},
				},
			},
			SubInvocations: []xdr.SorobanAuthorizedInvocation{},
		}, nil
	})},
	{"sorobanAuthInvokeContract", authPreimage(network.PublicNetworkPassphrase, authTransfer)},
	{"sorobanAuthInvokeContractWithoutArgs", authPreimage(network.PublicNetworkPassphrase, func() (xdr.SorobanAuthorizedInvocation, error) {
		transfer, err := authTransfer()
		if err != nil {
			return xdr.SorobanAuthorizedInvocation{}, err
		}
		return contractFn(nativeContract, "testfunc", noArgs, transfer)
	})},
	{"sorobanAuthInvokeContractWithComplexSubInvocation", authPreimage(network.PublicNetworkPassphrase, func() (xdr.SorobanAuthorizedInvocation, error) {
		leaf, err := authTransfer()
		if err != nil {
			return xdr.SorobanAuthorizedInvocation{}, err
		}
		middle, err := contractFn(nativeContract, "swap", authTransferArgs, leaf, leaf)
		if err != nil {
			return xdr.SorobanAuthorizedInvocation{}, err
		}
		return contractFn(nativeContract, "deposit", authTransferArgs, middle, leaf)
	})},
	{"sorobanAuthInvokeTestPlugin", authPreimage(network.PublicNetworkPassphrase, func() (xdr.SorobanAuthorizedInvocation, error) {
		return contractFn(testPluginContract, "transfer", authTransferArgs)
	})},
}
