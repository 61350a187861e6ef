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

package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stellarhw/app-stellar-harness/fixtures"
	"github.com/stretchr/testify/require"
)

func TestGenerate(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "testcases")
	paths, err := generate(dir)
	require.NoError(t, err)
	written := 0
	for _, fixture := range fixtures.List() {
		written += 1 + len(fixture.UnitTestNames())
	}
	require.Len(t, paths, written)

	fixture, err := fixtures.Lookup("opCreateAccount")
	require.NoError(t, err)
	request, err := fixture.Produce()
	require.NoError(t, err)
	want, err := request.Payload()
	require.NoError(t, err)
	got, err := os.ReadFile(filepath.Join(dir, "opCreateAccount.raw"))
	require.NoError(t, err)
	require.Equal(t, want, got)

	// Renamed fixtures are also written under the name the unit tests open.
	public, err := os.ReadFile(filepath.Join(dir, "sorobanAuthNetworkPublic.raw"))
	require.NoError(t, err)
	legacy, err := os.ReadFile(filepath.Join(dir, "sorobanAuthPublic.raw"))
	require.NoError(t, err)
	require.Equal(t, public, legacy)
	for _, name := range []string{"txCondIsNone", "opRevokeSponsorshipLiquidityPool", "opInvokeHostFunctionScvals"} {
		require.FileExists(t, filepath.Join(dir, name+".raw"))
	}

	blocker := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(blocker, nil, 0o600))
	_, err = generate(filepath.Join(blocker, "testcases"))
	require.Error(t, err)
}
