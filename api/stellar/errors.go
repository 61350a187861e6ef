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
	"errors"
	"fmt"
)

// StatusOK is the status word of a successful response.
const StatusOK uint16 = 0x9000

// ErrorKind classifies a status word returned by the app.
type ErrorKind int

const (
	// ErrorKindUnknown is any status word without a dedicated kind.
	ErrorKindUnknown ErrorKind = iota
	// ErrorKindUserRefused means the user rejected the request on the device.
	ErrorKindUserRefused
	// ErrorKindHashSigningNotEnabled means a blind signing setting the request needs is disabled:
	// hash signing for hashes, custom contracts for unverified contract calls.
	ErrorKindHashSigningNotEnabled
	// ErrorKindDataTooLarge means the payload exceeds the app's buffer.
	ErrorKindDataTooLarge
	// ErrorKindDataParsingFailed means the app could not parse the payload.
	ErrorKindDataParsingFailed
	// ErrorKindWrongDataLength means the APDU length field is invalid.
	ErrorKindWrongDataLength
	// ErrorKindWrongP1P2 means P1 or P2 is invalid for the instruction.
	ErrorKindWrongP1P2
	// ErrorKindInsNotSupported means the instruction is unknown.
	ErrorKindInsNotSupported
	// ErrorKindClaNotSupported means the class byte is wrong.
	ErrorKindClaNotSupported
	// ErrorKindBadState means a chunk arrived out of order.
	ErrorKindBadState
	// ErrorKindFormattingFailed means the app could not render the payload.
	ErrorKindFormattingFailed
	// ErrorKindTooManyPages means the payload needs more screens than the app supports.
	ErrorKindTooManyPages
)

// ErrorKindCustomContractsNotEnabled is answered for unverified contracts while custom contracts
// are disabled. The app uses the hash signing status word for it.
const ErrorKindCustomContractsNotEnabled = ErrorKindHashSigningNotEnabled

var statusWords = map[uint16]ErrorKind{
	0x6985: ErrorKindUserRefused,
	0x6C66: ErrorKindHashSigningNotEnabled,
	0xB004: ErrorKindDataTooLarge,
	0xB005: ErrorKindDataParsingFailed,
	0x6A87: ErrorKindWrongDataLength,
	0x6B00: ErrorKindWrongP1P2,
	0x6D00: ErrorKindInsNotSupported,
	0x6E00: ErrorKindClaNotSupported,
	0xB007: ErrorKindBadState,
	0x6125: ErrorKindFormattingFailed,
	0x6126: ErrorKindTooManyPages,
}

var kindNames = map[ErrorKind]string{
	ErrorKindUnknown:               "unknown",
	ErrorKindUserRefused:           "user refused",
	ErrorKindHashSigningNotEnabled: "blind signing not enabled",
	ErrorKindDataTooLarge:          "data too large",
	ErrorKindDataParsingFailed:     "data parsing failed",
	ErrorKindWrongDataLength:       "wrong data length",
	ErrorKindWrongP1P2:             "wrong p1/p2",
	ErrorKindInsNotSupported:       "instruction not supported",
	ErrorKindClaNotSupported:       "class not supported",
	ErrorKindBadState:              "bad state",
	ErrorKindFormattingFailed:      "formatting failed",
	ErrorKindTooManyPages:          "too many pages",
}

// String implements fmt.Stringer.
func (kind ErrorKind) String() string {
	if name, ok := kindNames[kind]; ok {
		return name
	}
	return fmt.Sprintf("ErrorKind(%d)", int(kind))
}

// StatusWord returns the status word the app uses for the kind, or 0 for ErrorKindUnknown.
func (kind ErrorKind) StatusWord() uint16 {
	for statusWord, k := range statusWords {
		if k == kind {
			return statusWord
		}
	}
	return 0
}

// Error is returned when the app answers with a status word other than StatusOK.
type Error struct {
	StatusWord uint16
}

// NewError creates an Error from a status word.
func NewError(statusWord uint16) *Error {
	return &Error{StatusWord: statusWord}
}

// Kind classifies the status word.
func (err *Error) Kind() ErrorKind {
	if kind, ok := statusWords[err.StatusWord]; ok {
		return kind
	}
	return ErrorKindUnknown
}

// Error implements error.
func (err *Error) Error() string {
	return fmt.Sprintf("device error 0x%04x: %s", err.StatusWord, err.Kind())
}

// IsErrorKind returns whether err is a device Error of the given kind.
func IsErrorKind(err error, kind ErrorKind) bool {
	var deviceErr *Error
	if !errors.As(err, &deviceErr) {
		return false
	}
	return deviceErr.Kind() == kind
}
