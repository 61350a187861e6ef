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

package simtest

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/stellar/go/network"
	"github.com/stellar/go/strkey"
	"github.com/stellar/go/xdr"
	"github.com/stellarhw/app-stellar-harness/api/common"
	"github.com/stellarhw/app-stellar-harness/navigation"
	"github.com/stellarhw/app-stellar-harness/reference"
	"github.com/stellarhw/app-stellar-harness/util/errp"
)

// APDU constants of the Stellar app.
const (
	cla = 0xE0

	insGetPublicKey    = 0x02
	insSignTx          = 0x04
	insGetConf         = 0x06
	insSignHash        = 0x08
	insSignSorobanAuth = 0x0A
	insSignMessage     = 0x0C

	p1First   = 0x00
	p1More    = 0x80
	p2Last    = 0x00
	p2More    = 0x80
	p2Confirm = 0x01

	hardened = 0x80000000
)

// Status words of the Stellar app.
const (
	swOK                        = 0x9000
	swUserRefused               = 0x6985
	swHashSigningNotEnabled     = 0x6C66
	swCustomContractsNotEnabled = swHashSigningNotEnabled
	swDataTooLarge              = 0xB004
	swDataParsingFailed         = 0xB005
	swWrongDataLength           = 0x6A87
	swWrongP1P2                 = 0x6B00
	swInsNotSupported           = 0x6D00
	swClaNotSupported           = 0x6E00
	swBadState                  = 0xB007
)

const (
	hashLen     = 32
	pageChars   = 32
	messagePage = 64
)

// review is a request waiting for the user's decision.
type review struct {
	pages [][]string
	// noun names the request on the reject confirmation page.
	noun    string
	address bool
	risk    bool
	scheme  reference.Scheme
	keypath string
	payload []byte
	// result is returned as is on approval instead of a signature.
	result []byte
}

// pendingRequest collects the chunks of a multi-APDU request.
type pendingRequest struct {
	ins     byte
	keypath string
	payload []byte
}

func respond(statusWord uint16, data ...byte) []byte {
	return binary.BigEndian.AppendUint16(append([]byte(nil), data...), statusWord)
}

// parseKeypath decodes a length prefixed list of big endian indices into "m/..." notation.
func parseKeypath(data []byte) (string, []byte, error) {
	if len(data) < 1 || len(data) < 1+4*int(data[0]) || data[0] == 0 {
		return "", nil, errp.New("invalid keypath")
	}
	count := int(data[0])
	parts := make([]string, count)
	for i := range count {
		index := binary.BigEndian.Uint32(data[1+4*i:])
		if index >= hardened {
			parts[i] = strconv.FormatUint(uint64(index-hardened), 10) + "'"
		} else {
			parts[i] = strconv.FormatUint(uint64(index), 10)
		}
	}
	return "m/" + strings.Join(parts, "/"), data[1+4*count:], nil
}

// query handles one APDU. Requests that need a decision block until the user decides or the
// device is closed.
func (device *Device) query(apdu []byte) ([]byte, error) {
	device.mutex.Lock()
	if err := device.checkRunning(); err != nil {
		device.mutex.Unlock()
		return nil, err
	}
	response, wait := device.handle(apdu)
	device.mutex.Unlock()
	if !wait {
		return response, nil
	}
	select {
	case decision := <-device.decisions:
		return device.decide(decision)
	case <-device.closedCh:
		return nil, errp.New("device closed")
	}
}

// handle processes an APDU with the mutex held. It returns the response, or wait=true if a
// review was started.
func (device *Device) handle(apdu []byte) ([]byte, bool) {
	if len(apdu) < 5 {
		return respond(swWrongDataLength), false
	}
	if apdu[0] != cla {
		return respond(swClaNotSupported), false
	}
	ins, p1, p2, data := apdu[1], apdu[2], apdu[3], apdu[5:]
	if int(apdu[4]) != len(data) {
		return respond(swWrongDataLength), false
	}
	if device.mode != modeHome && ins != insGetConf {
		return respond(swBadState), false
	}
	switch ins {
	case insGetConf:
		return device.configuration(), false
	case insGetPublicKey:
		return device.publicKey(p2, data)
	case insSignHash:
		return device.signHash(data)
	case insSignTx, insSignSorobanAuth, insSignMessage:
		return device.chunk(ins, p1, p2, data)
	default:
		return respond(swInsNotSupported), false
	}
}

func (device *Device) configuration() []byte {
	var hashSigning byte
	if device.settings[navigation.SettingHashSigning] {
		hashSigning = 1
	}
	major, minor, patch := versionParts()
	size := device.model.MaxDataSize
	return respond(swOK, hashSigning, major, minor, patch, byte(size>>8), byte(size))
}

func versionParts() (byte, byte, byte) {
	var parts [3]byte
	for i, part := range strings.SplitN(AppVersion, ".", 3) {
		value, _ := strconv.Atoi(part)
		parts[i] = byte(value)
	}
	return parts[0], parts[1], parts[2]
}

func (device *Device) publicKey(p2 byte, data []byte) ([]byte, bool) {
	keypath, rest, err := parseKeypath(data)
	if err != nil || len(rest) != 0 {
		return respond(swWrongDataLength), false
	}
	kp, err := reference.KeypairForPath(device.seed, keypath)
	if err != nil {
		return respond(swDataParsingFailed), false
	}
	raw, err := strkey.Decode(strkey.VersionByteAccountID, kp.Address())
	if err != nil {
		return respond(swDataParsingFailed), false
	}
	switch p2 {
	case 0:
		return respond(swOK, raw...), false
	case p2Confirm:
	default:
		return respond(swWrongP1P2), false
	}
	var pages [][]string
	if device.model.Paradigm == common.TouchNav {
		pages = [][]string{{"Verify Stellar address"}, {kp.Address(), "Confirm address?"}}
	} else {
		pages = append([][]string{{"Verify", "Address"}}, split(kp.Address(), pageChars)...)
		pages = append(pages, []string{"Approve"}, []string{"Reject"})
	}
	device.begin(&review{pages: pages, noun: "address", address: true, result: raw})
	return nil, true
}

func (device *Device) signHash(data []byte) ([]byte, bool) {
	keypath, hash, err := parseKeypath(data)
	if err != nil || len(hash) != hashLen {
		return respond(swWrongDataLength), false
	}
	if !device.settings[navigation.SettingHashSigning] {
		return respond(swHashSigningNotEnabled), false
	}
	encoded := hex.EncodeToString(hash)
	device.begin(device.signingReview("hash", keypath, reference.SchemeRaw, hash,
		[][]string{{"Hash", encoded[:hashLen]}, {"Hash", encoded[hashLen:]}}))
	return nil, true
}

// chunk collects the keypath APDU and the payload chunks of a signing request.
func (device *Device) chunk(ins, p1, p2 byte, data []byte) ([]byte, bool) {
	switch p1 {
	case p1First:
		if p2 != p2More {
			return respond(swWrongP1P2), false
		}
		keypath, rest, err := parseKeypath(data)
		if err != nil || len(rest) != 0 {
			device.pending = nil
			return respond(swWrongDataLength), false
		}
		device.pending = &pendingRequest{ins: ins, keypath: keypath}
		return respond(swOK), false
	case p1More:
	default:
		return respond(swWrongP1P2), false
	}
	pending := device.pending
	if pending == nil || pending.ins != ins {
		device.pending = nil
		return respond(swBadState), false
	}
	pending.payload = append(pending.payload, data...)
	if len(pending.payload) > device.model.MaxDataSize {
		device.pending = nil
		return respond(swDataTooLarge), false
	}
	switch p2 {
	case p2More:
		return respond(swOK), false
	case p2Last:
	default:
		device.pending = nil
		return respond(swWrongP1P2), false
	}
	device.pending = nil
	var (
		review *review
		sw     uint16
	)
	switch ins {
	case insSignTx:
		review, sw = device.transactionReview(pending.keypath, pending.payload)
	case insSignSorobanAuth:
		review, sw = device.authReview(pending.keypath, pending.payload)
	default:
		review, sw = device.messageReview(pending.keypath, pending.payload), swOK
	}
	if sw != swOK {
		return respond(sw), false
	}
	device.begin(review)
	return nil, true
}

// signingReview builds the pages of a signing request around its detail pages.
func (device *Device) signingReview(
	noun, keypath string, scheme reference.Scheme, payload []byte, details [][]string) *review {
	var pages [][]string
	if device.model.Paradigm == common.TouchNav {
		pages = append([][]string{{"Review " + noun}}, details...)
		pages = append(pages, []string{"Sign " + noun + "?", "Hold to sign"})
	} else {
		pages = append([][]string{{"Review", noun}}, details...)
		approve := "Approve"
		if noun == "transaction" {
			approve = "Finalize"
		}
		pages = append(pages, []string{approve}, []string{"Reject"})
	}
	return &review{pages: pages, noun: noun, scheme: scheme, keypath: keypath, payload: payload}
}

// begin shows the risk warning or the first review page.
func (device *Device) begin(review *review) {
	// A decision of an earlier, abandoned review must not leak into this one.
	select {
	case <-device.decisions:
	default:
	}
	device.review = review
	device.page = 0
	device.mode = modeReview
	if review.risk {
		device.mode = modeRisk
	}
}

// decide turns the user's decision into the response of the blocked request.
func (device *Device) decide(decision decision) ([]byte, error) {
	review := decision.review
	if !decision.approve || review == nil {
		return respond(swUserRefused), nil
	}
	if review.result != nil {
		return respond(swOK, review.result...), nil
	}
	kp, err := reference.KeypairForPath(device.seed, review.keypath)
	if err != nil {
		return nil, err
	}
	signature, err := reference.Sign(kp, review.scheme, review.payload)
	if err != nil {
		return nil, err
	}
	if device.faults.CorruptSignature {
		signature[0] ^= 0x01
	}
	return respond(swOK, signature...), nil
}

func networkName(networkID xdr.Hash) string {
	switch networkID {
	case xdr.Hash(network.ID(network.PublicNetworkPassphrase)):
		return "Mainnet"
	case xdr.Hash(network.ID(network.TestNetworkPassphrase)):
		return "Testnet"
	default:
		return "Unknown"
	}
}

func (device *Device) transactionReview(keypath string, payload []byte) (*review, uint16) {
	var signaturePayload xdr.TransactionSignaturePayload
	if err := xdr.SafeUnmarshal(payload, &signaturePayload); err != nil {
		return nil, swDataParsingFailed
	}
	details := [][]string{{"Network", networkName(signaturePayload.NetworkId)}}
	tagged := signaturePayload.TaggedTransaction
	var tx *xdr.Transaction
	switch tagged.Type {
	case xdr.EnvelopeTypeEnvelopeTypeTx:
		tx = tagged.Tx
	case xdr.EnvelopeTypeEnvelopeTypeTxFeeBump:
		feeBump := tagged.FeeBump
		if feeBump == nil || feeBump.InnerTx.V1 == nil {
			return nil, swDataParsingFailed
		}
		details = append(details,
			[]string{"Fee Source", feeBump.FeeSource.Address()},
			[]string{"Max Fee", strconv.FormatInt(int64(feeBump.Fee), 10)})
		tx = &feeBump.InnerTx.V1.Tx
	}
	if tx == nil {
		return nil, swDataParsingFailed
	}
	details = append(details, []string{"Max Fee", strconv.FormatUint(uint64(tx.Fee), 10)})
	if device.settings[navigation.SettingSequenceNumber] {
		details = append(details, []string{"Sequence Num", strconv.FormatInt(int64(tx.SeqNum), 10)})
	}
	risk := false
	for i, operation := range tx.Operations {
		details = append(details, []string{
			fmt.Sprintf("Operation %d of %d", i+1, len(tx.Operations)),
			strings.TrimPrefix(operation.Body.Type.String(), "OperationType"),
		})
		if operation.Body.Type == xdr.OperationTypeInvokeHostFunction &&
			!device.pluginInvocation(operation.Body.InvokeHostFunctionOp.HostFunction.InvokeContract) {
			risk = true
		}
	}
	if risk && !device.settings[navigation.SettingCustomContracts] {
		return nil, swCustomContractsNotEnabled
	}
	review := device.signingReview("transaction", keypath, reference.SchemeSHA256, payload, details)
	review.risk = risk
	return review, swOK
}

func (device *Device) authReview(keypath string, payload []byte) (*review, uint16) {
	var preimage xdr.HashIdPreimage
	if err := xdr.SafeUnmarshal(payload, &preimage); err != nil {
		return nil, swDataParsingFailed
	}
	auth := preimage.SorobanAuthorization
	if preimage.Type != xdr.EnvelopeTypeEnvelopeTypeSorobanAuthorization || auth == nil {
		return nil, swDataParsingFailed
	}
	details := [][]string{
		{"Network", networkName(auth.NetworkId)},
		{"Nonce", strconv.FormatInt(int64(auth.Nonce), 10)},
		{"Valid Until", strconv.FormatUint(uint64(auth.SignatureExpirationLedger), 10)},
	}
	function := auth.Invocation.Function
	if function.Type == xdr.SorobanAuthorizedFunctionTypeSorobanAuthorizedFunctionTypeContractFn &&
		function.ContractFn != nil {
		details = append(details, []string{"Function", string(function.ContractFn.FunctionName)})
	}
	risk := !device.pluginInvocation(function.ContractFn)
	if risk && !device.settings[navigation.SettingCustomContracts] {
		return nil, swCustomContractsNotEnabled
	}
	review := device.signingReview("Soroban auth", keypath, reference.SchemeSHA256, payload, details)
	review.risk = risk
	return review, swOK
}

// pluginInvocation returns whether a contract call is decoded by the loaded companion plugin,
// which answers for the all zero contract.
func (device *Device) pluginInvocation(args *xdr.InvokeContractArgs) bool {
	if args == nil || !device.model.HasPlugin() {
		return false
	}
	address := args.ContractAddress
	return address.Type == xdr.ScAddressTypeScAddressTypeContract &&
		address.ContractId != nil && *address.ContractId == xdr.ContractId{}
}

func (device *Device) messageReview(keypath string, message []byte) *review {
	text := string(message)
	if !printable(message) {
		text = hex.EncodeToString(message)
	}
	var details [][]string
	for _, part := range split(text, messagePage) {
		details = append(details, append([]string{"Message"}, part...))
	}
	return device.signingReview("message", keypath, reference.SchemeMessage, message, details)
}

func printable(data []byte) bool {
	if !utf8.Valid(data) {
		return false
	}
	for _, r := range string(data) {
		if !unicode.IsPrint(r) {
			return false
		}
	}
	return true
}

// split cuts text into pages of at most size runes each.
func split(text string, size int) [][]string {
	runes := []rune(text)
	var pages [][]string
	for offset := 0; offset < len(runes); offset += size {
		pages = append(pages, []string{string(runes[offset:min(offset+size, len(runes))])})
	}
	if len(pages) == 0 {
		pages = [][]string{{""}}
	}
	return pages
}
