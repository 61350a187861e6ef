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
	"context"
	"testing"

	"github.com/stellarhw/app-stellar-harness/api/stellar"
	"github.com/stellarhw/app-stellar-harness/fixtures"
	"github.com/stellarhw/app-stellar-harness/navigation"
	"github.com/stellarhw/app-stellar-harness/screen"
	"github.com/stellarhw/app-stellar-harness/util/errp"
	"github.com/stellarhw/app-stellar-harness/verify"
	"github.com/stretchr/testify/require"
)

func TestClassify(t *testing.T) {
	timeout := errp.WithStack(&screen.TimeoutError{Condition: "screen change"})
	tests := []struct {
		err   error
		class FailureClass
	}{
		{nil, FailureNone},
		{timeout, FailureTimeout},
		{errp.WithStack(&navigation.IncompleteError{Err: timeout}), FailureTimeout},
		{errp.WithStack(&screen.GoldenMismatchError{Name: "nanos-op", Reason: "no golden image"}), FailureGolden},
		{errp.WithStack(&navigation.IncompleteError{
			Err: &screen.GoldenMismatchError{Name: "nanos-op"},
		}), FailureGolden},
		{verify.Outcome{MismatchDetail: "differs"}.Err(), FailureVerificationMismatch},
		{errp.WithMessage(stellar.NewError(0x6985), "sign"), FailureDeviceRejection},
		{errp.WithStack(&navigation.UnmappedIntentError{}), FailureNavigation},
		{errp.WithStack(&navigation.IncompleteError{Err: errp.New("press failed")}), FailureNavigation},
		{errp.WithMessage(errp.WithStack(errNavigation), "decision screen not shown"), FailureNavigation},
		{errp.WithStack(&TeardownError{Err: timeout}), FailureInfrastructure},
		{errp.New("speculos exited"), FailureInfrastructure},
		{context.Canceled, FailureInfrastructure},
	}
	for _, test := range tests {
		require.Equal(t, test.class, Classify(test.err), "%v", test.err)
	}
}

func TestStateNames(t *testing.T) {
	require.Equal(t, "awaiting-idle-screen", StateAwaitingIdleScreen.String())
	require.Equal(t, "torn-down", StateTornDown.String())
	require.Equal(t, "State(42)", State(42).String())
	require.Equal(t, "verification-mismatch", FailureVerificationMismatch.String())
	require.Equal(t, "FailureClass(42)", FailureClass(42).String())
}

func TestExpectedEarlyRejection(t *testing.T) {
	model := Case{}.Model
	model.MaxDataSize = 16
	c := Case{Model: model}
	kind, ok := expectedEarlyRejection(c, make([]byte, 17))
	require.True(t, ok)
	require.Equal(t, stellar.ErrorKindDataTooLarge, kind)
	_, ok = expectedEarlyRejection(c, make([]byte, 16))
	require.False(t, ok)
	c.WithoutSettings = true
	_, ok = expectedEarlyRejection(c, nil)
	require.False(t, ok)
	c.Fixture.Name = "hashSigning"
	c.Fixture.Category = fixtures.CategoryHashRequest
	kind, ok = expectedEarlyRejection(c, nil)
	require.True(t, ok)
	require.Equal(t, stellar.ErrorKindHashSigningNotEnabled, kind)
	c.Fixture.Name = "opInvokeHostFunctionUnverifiedContract"
	c.Fixture.Category = fixtures.CategoryTransaction
	kind, ok = expectedEarlyRejection(c, nil)
	require.True(t, ok)
	require.Equal(t, stellar.ErrorKindCustomContractsNotEnabled, kind)
}
