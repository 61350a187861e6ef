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

package runner

import (
	"errors"
	"fmt"

	"github.com/stellarhw/app-stellar-harness/api/stellar"
	"github.com/stellarhw/app-stellar-harness/navigation"
	"github.com/stellarhw/app-stellar-harness/screen"
	"github.com/stellarhw/app-stellar-harness/verify"
)

// State is the lifecycle state of one case.
type State int

// The states of a case, in the order they are entered. A case ends in Passed or Failed, and
// always reaches TornDown once a simulator was acquired.
const (
	StateIdle State = iota
	StateStarting
	StateAwaitingIdleScreen
	StateRequestDispatched
	StateNavigating
	StateAwaitingTerminalScreen
	StateVerifying
	StatePassed
	StateFailed
	StateTornDown
)

var stateNames = map[State]string{
	StateIdle:                   "idle",
	StateStarting:               "starting",
	StateAwaitingIdleScreen:     "awaiting-idle-screen",
	StateRequestDispatched:      "request-dispatched",
	StateNavigating:             "navigating",
	StateAwaitingTerminalScreen: "awaiting-terminal-screen",
	StateVerifying:              "verifying",
	StatePassed:                 "passed",
	StateFailed:                 "failed",
	StateTornDown:               "torn-down",
}

// String implements fmt.Stringer.
func (state State) String() string {
	if name, ok := stateNames[state]; ok {
		return name
	}
	return fmt.Sprintf("State(%d)", int(state))
}

// FailureClass groups the reasons a case fails.
type FailureClass int

const (
	// FailureNone means the case passed.
	FailureNone FailureClass = iota
	// FailureTimeout means a bounded wait expired.
	FailureTimeout
	// FailureDeviceRejection means the app answered with an unexpected status word.
	FailureDeviceRejection
	// FailureVerificationMismatch means the app answered but the answer is wrong.
	FailureVerificationMismatch
	// FailureGolden means a screen differs from its golden snapshot.
	FailureGolden
	// FailureNavigation means an intent could not be compiled or executed.
	FailureNavigation
	// FailureInfrastructure is everything else: the simulator, transport or fixtures failed.
	FailureInfrastructure
)

var failureClassNames = map[FailureClass]string{
	FailureNone:                 "none",
	FailureTimeout:              "timeout",
	FailureDeviceRejection:      "device-rejection",
	FailureVerificationMismatch: "verification-mismatch",
	FailureGolden:               "golden",
	FailureNavigation:           "navigation",
	FailureInfrastructure:       "infrastructure",
}

// String implements fmt.Stringer.
func (class FailureClass) String() string {
	if name, ok := failureClassNames[class]; ok {
		return name
	}
	return fmt.Sprintf("FailureClass(%d)", int(class))
}

// TeardownError is returned when closing the simulator failed and nothing else did.
type TeardownError struct {
	Err error
}

// Error implements error.
func (err *TeardownError) Error() string {
	return fmt.Sprintf("simulator teardown failed: %v", err.Err)
}

// Unwrap returns the error of Close.
func (err *TeardownError) Unwrap() error {
	return err.Err
}

// Classify maps an error returned by the runner onto its failure class.
func Classify(err error) FailureClass {
	var (
		timeoutErr    *screen.TimeoutError
		goldenErr     *screen.GoldenMismatchError
		mismatchErr   *verify.MismatchError
		deviceErr     *stellar.Error
		unmappedErr   *navigation.UnmappedIntentError
		incompleteErr *navigation.IncompleteError
		teardownErr   *TeardownError
	)
	switch {
	case err == nil:
		return FailureNone
	case errors.As(err, &teardownErr):
		return FailureInfrastructure
	case errors.As(err, &timeoutErr):
		return FailureTimeout
	case errors.As(err, &goldenErr):
		return FailureGolden
	case errors.As(err, &mismatchErr):
		return FailureVerificationMismatch
	case errors.As(err, &deviceErr):
		return FailureDeviceRejection
	case errors.As(err, &unmappedErr), errors.As(err, &incompleteErr), errors.Is(err, errNavigation):
		return FailureNavigation
	default:
		return FailureInfrastructure
	}
}
