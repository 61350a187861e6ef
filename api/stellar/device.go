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

// Package stellar is the host side of the Stellar app's APDU protocol.
package stellar

import (
	"encoding/hex"

	"github.com/pion/logging"
	"github.com/stellar/go/strkey"
	"github.com/stellarhw/app-stellar-harness/util/errp"
	"github.com/stellarhw/app-stellar-harness/util/semver"
)

const (
	publicKeyLen = 32
	signatureLen = 64
	hashLen      = 32
)

// Communication contains functions needed to communicate with the device.
type Communication interface {
	Query([]byte) ([]byte, error)
	Close()
}

// AppConfiguration is the app's answer to the configuration request.
type AppConfiguration struct {
	HashSigningEnabled bool
	Version            *semver.SemVer
	MaxDataSize        int
}

// PublicKey is the ed25519 public key of an account.
type PublicKey struct {
	Raw []byte
	// Address is the strkey encoding of Raw, G...
	Address string
}

// Device provides the API to the Stellar app.
type Device struct {
	communication Communication
	log           logging.LeveledLogger
}

// NewDevice creates a new instance of Device. loggerFactory may be nil.
func NewDevice(communication Communication, loggerFactory logging.LoggerFactory) *Device {
	if loggerFactory == nil {
		loggerFactory = logging.NewDefaultLoggerFactory()
	}
	return &Device{
		communication: communication,
		log:           loggerFactory.NewLogger("stellar"),
	}
}

// Close closes the communication.
func (device *Device) Close() {
	device.communication.Close()
}

// query sends one APDU and returns the response data, or an *Error for any status word other
// than StatusOK.
func (device *Device) query(apdu []byte) ([]byte, error) {
	device.log.Tracef("> %s", hex.EncodeToString(apdu))
	response, err := device.communication.Query(apdu)
	if err != nil {
		return nil, err
	}
	data, statusWord, err := splitResponse(response)
	if err != nil {
		return nil, err
	}
	device.log.Tracef("< %s %04x", hex.EncodeToString(data), statusWord)
	if statusWord != StatusOK {
		return nil, errp.WithStack(NewError(statusWord))
	}
	return data, nil
}

func (device *Device) queryChunked(ins byte, keypath string, payload []byte) ([]byte, error) {
	parsedKeypath, err := ParseKeypath(keypath)
	if err != nil {
		return nil, err
	}
	var data []byte
	for _, apdu := range chunkedAPDUs(ins, parsedKeypath, payload) {
		data, err = device.query(apdu)
		if err != nil {
			return nil, err
		}
	}
	return data, nil
}

func checkSignature(data []byte) ([]byte, error) {
	if len(data) != signatureLen {
		return nil, errp.Newf("expected a %d byte signature, got %d bytes", signatureLen, len(data))
	}
	return data, nil
}

// AppConfiguration queries the app version and settings.
func (device *Device) AppConfiguration() (*AppConfiguration, error) {
	data, err := device.query(encodeAPDU(insGetConf, p1First, p2Last, nil))
	if err != nil {
		return nil, err
	}
	if len(data) < 4 {
		return nil, errp.Newf("unexpected configuration response %x", data)
	}
	config := &AppConfiguration{
		HashSigningEnabled: data[0] != 0,
		Version:            semver.NewSemVer(uint16(data[1]), uint16(data[2]), uint16(data[3])),
	}
	// Older app versions do not report the buffer size.
	if len(data) >= 6 {
		config.MaxDataSize = int(data[4])<<8 | int(data[5])
	}
	return config, nil
}

// PublicKey returns the public key at keypath. If confirm is true, the user has to confirm the
// address on the device and the call blocks until they do.
func (device *Device) PublicKey(keypath string, confirm bool) (*PublicKey, error) {
	parsedKeypath, err := ParseKeypath(keypath)
	if err != nil {
		return nil, err
	}
	p2 := byte(p2NonConfirm)
	if confirm {
		p2 = p2Confirm
	}
	data, err := device.query(encodeAPDU(insGetPublicKey, p1First, p2, packKeypath(parsedKeypath)))
	if err != nil {
		return nil, err
	}
	if len(data) < publicKeyLen {
		return nil, errp.Newf("expected a %d byte public key, got %d bytes", publicKeyLen, len(data))
	}
	raw := data[:publicKeyLen]
	address, err := strkey.Encode(strkey.VersionByteAccountID, raw)
	if err != nil {
		return nil, errp.WithStack(err)
	}
	return &PublicKey{Raw: raw, Address: address}, nil
}

// SignTransaction signs a transaction signature base. Blocks until the user approves or
// rejects the transaction on the device.
func (device *Device) SignTransaction(keypath string, signatureBase []byte) ([]byte, error) {
	data, err := device.queryChunked(insSignTx, keypath, signatureBase)
	if err != nil {
		return nil, err
	}
	return checkSignature(data)
}

// SignSorobanAuthorization signs the XDR of a Soroban authorization preimage.
func (device *Device) SignSorobanAuthorization(keypath string, preimage []byte) ([]byte, error) {
	data, err := device.queryChunked(insSignSorobanAuth, keypath, preimage)
	if err != nil {
		return nil, err
	}
	return checkSignature(data)
}

// SignMessage signs an arbitrary message.
func (device *Device) SignMessage(keypath string, message []byte) ([]byte, error) {
	data, err := device.queryChunked(insSignMessage, keypath, message)
	if err != nil {
		return nil, err
	}
	return checkSignature(data)
}

// SignHash signs a 32 byte hash. The app refuses unless hash signing is enabled in its settings.
func (device *Device) SignHash(keypath string, hash []byte) ([]byte, error) {
	if len(hash) != hashLen {
		return nil, errp.Newf("expected a %d byte hash, got %d bytes", hashLen, len(hash))
	}
	parsedKeypath, err := ParseKeypath(keypath)
	if err != nil {
		return nil, err
	}
	data, err := device.query(
		encodeAPDU(insSignHash, p1First, p2Last, append(packKeypath(parsedKeypath), hash...)))
	if err != nil {
		return nil, err
	}
	return checkSignature(data)
}
