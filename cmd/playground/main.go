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

// Package main is a playground for devs to interact with a live device running the Stellar app.
package main

import (
	"flag"
	"log"

	"github.com/karalabe/hid"
	"github.com/stellarhw/app-stellar-harness/api/stellar"
	"github.com/stellarhw/app-stellar-harness/communication/ledgerhid"
	"github.com/stellarhw/app-stellar-harness/reference"
)

const ledgerVendorID = 0x2c97

func errpanic(err error) {
	if err != nil {
		log.Fatalf("%+v", err)
	}
}

// isLedgerApp matches the generic HID interface of a Ledger device with an app open.
func isLedgerApp(deviceInfo *hid.DeviceInfo) bool {
	return deviceInfo.VendorID == ledgerVendorID &&
		(deviceInfo.UsagePage == 0xffa0 || deviceInfo.Interface == 0)
}

func main() {
	keypath := flag.String("keypath", reference.PrimaryKeypath, "BIP32 keypath of the account")
	confirm := flag.Bool("confirm", false, "verify the address on the device")
	flag.Parse()

	deviceInfo := func() *hid.DeviceInfo {
		infos, err := hid.Enumerate(ledgerVendorID, 0)
		errpanic(err)
		for idx := range infos {
			di := &infos[idx]
			if isLedgerApp(di) {
				return di
			}
		}
		log.Fatal("could not find a Ledger device")
		return nil
	}()
	hidDevice, err := deviceInfo.Open()
	errpanic(err)

	device := stellar.NewDevice(ledgerhid.NewCommunication(hidDevice), nil)
	defer device.Close()

	config, err := device.AppConfiguration()
	errpanic(err)
	log.Printf("Stellar app %s, hash signing enabled: %v, buffer: %d bytes",
		config.Version, config.HashSigningEnabled, config.MaxDataSize)

	publicKey, err := device.PublicKey(*keypath, *confirm)
	errpanic(err)
	log.Printf("%s: %s", *keypath, publicKey.Address)
}
