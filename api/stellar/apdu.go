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

package stellar

import (
	"bytes"
	"encoding/binary"
	"strconv"
	"strings"

	"github.com/stellarhw/app-stellar-harness/util/errp"
)

const (
	cla = 0xE0

	insGetPublicKey      = 0x02
	insSignTx            = 0x04
	insGetConf           = 0x06
	insSignHash          = 0x08
	insSignSorobanAuth   = 0x0A
	insSignMessage       = 0x0C
	p1First              = 0x00
	p1More               = 0x80
	p2Last               = 0x00
	p2More               = 0x80
	p2NonConfirm         = 0x00
	p2Confirm            = 0x01
	maxChunkLen          = 255
	hardened             = 0x80000000
	maxKeypathComponents = 10
)

// ParseKeypath parses a BIP32 path like "m/44'/148'/0'". The "m/" prefix is optional.
func ParseKeypath(keypath string) ([]uint32, error) {
	trimmed := strings.TrimPrefix(strings.TrimPrefix(keypath, "m"), "/")
	if trimmed == "" {
		return nil, errp.Newf("empty keypath %q", keypath)
	}
	parts := strings.Split(trimmed, "/")
	if len(parts) > maxKeypathComponents {
		return nil, errp.Newf("keypath %q has more than %d components", keypath, maxKeypathComponents)
	}
	result := make([]uint32, 0, len(parts))
	for _, part := range parts {
		var offset uint32
		if strings.HasSuffix(part, "'") || strings.HasSuffix(part, "h") {
			offset = hardened
			part = part[:len(part)-1]
		}
		index, err := strconv.ParseUint(part, 10, 31)
		if err != nil {
			return nil, errp.WithMessagef(errp.WithStack(err), "invalid keypath %q", keypath)
		}
		result = append(result, uint32(index)+offset)
	}
	return result, nil
}

// packKeypath encodes a keypath as a length byte followed by big endian indices.
func packKeypath(keypath []uint32) []byte {
	buf := bytes.NewBuffer(make([]byte, 0, 1+4*len(keypath)))
	buf.WriteByte(byte(len(keypath)))
	for _, index := range keypath {
		_ = binary.Write(buf, binary.BigEndian, index)
	}
	return buf.Bytes()
}

func encodeAPDU(ins, p1, p2 byte, data []byte) []byte {
	apdu := make([]byte, 0, 5+len(data))
	apdu = append(apdu, cla, ins, p1, p2, byte(len(data)))
	return append(apdu, data...)
}

// chunkedAPDUs encodes a multi-APDU request: the keypath alone first, then the payload in
// chunks of at most 255 bytes, the last one flagged with p2Last.
func chunkedAPDUs(ins byte, keypath []uint32, payload []byte) [][]byte {
	apdus := [][]byte{encodeAPDU(ins, p1First, p2More, packKeypath(keypath))}
	for offset := 0; ; offset += maxChunkLen {
		end := min(offset+maxChunkLen, len(payload))
		p2 := byte(p2More)
		if end == len(payload) {
			p2 = p2Last
		}
		apdus = append(apdus, encodeAPDU(ins, p1More, p2, payload[offset:end]))
		if end == len(payload) {
			return apdus
		}
	}
}

// splitResponse separates the response data from the trailing status word.
func splitResponse(response []byte) ([]byte, uint16, error) {
	if len(response) < 2 {
		return nil, 0, errp.Newf("response of %d bytes is missing the status word", len(response))
	}
	split := len(response) - 2
	return response[:split], binary.BigEndian.Uint16(response[split:]), nil
}
