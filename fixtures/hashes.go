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
	"bytes"
	"crypto/sha256"
	"fmt"
)

const greeting = "Hello, Ledger & Stellar!"

func hash(value [32]byte) func() (Request, error) {
	return func() (Request, error) { return Hash(value), nil }
}

func message(value []byte) func() (Request, error) {
	return func() (Request, error) { return Message(append([]byte(nil), value...)), nil }
}

func longMessage() []byte {
	parts := make([][]byte, 0, 500)
	for i := 1; i <= 500; i++ {
		parts = append(parts, []byte(fmt.Sprintf("%03d", i)))
	}
	return bytes.Join(parts, []byte("-"))
}

var hashFixtures = []entry{
	{"hashSigning", hash(mustHash32("3389e9f0f1a65f19736cacf544c2e825313e8447f569233bb8db39aa607c8889"))},
	{"hashSigningGreeting", hash(sha256.Sum256([]byte(greeting)))},
}

var messageFixtures = []entry{
	{"messageSimple", message([]byte(greeting))},
	{"messageLong", message(longMessage())},
	{"messageUnprintableBytes", message([]byte("Hello\x00\x01\x02\x03\x04\x05\x06\x07\x08\x09\x0a\x0b\x0c\x0d\x0e\x0f"))},
}
