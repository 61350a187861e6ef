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

package common_test

import (
	"path/filepath"
	"testing"

	"github.com/stellarhw/app-stellar-harness/api/common"
	"github.com/stretchr/testify/require"
)

func TestModels(t *testing.T) {
	ids := map[string]bool{}
	prefixes := map[string]bool{}
	for _, model := range common.Models() {
		t.Run(model.ID, func(t *testing.T) {
			require.False(t, ids[model.ID], "duplicate id")
			require.False(t, prefixes[model.Prefix], "duplicate prefix")
			ids[model.ID] = true
			prefixes[model.Prefix] = true

			require.NotEmpty(t, model.BinaryName)
			require.NotEmpty(t, model.IdleText)
			require.NotEmpty(t, model.ApproveTexts)
			require.NotEmpty(t, model.RejectTexts)
			require.Positive(t, model.MaxDataSize)
		})
	}
}

func TestModelsAreCopied(t *testing.T) {
	first := common.Models()
	first[0].ID = "mutated"
	require.Equal(t, common.ModelNanoS, common.Models()[0].ID)
}

func TestModelByID(t *testing.T) {
	model, err := common.ModelByID(common.ModelStax)
	require.NoError(t, err)
	require.Equal(t, common.TouchNav, model.Paradigm)
	require.Equal(t, "st", model.GoldenPrefix())

	_, err = common.ModelByID("nanoz")
	require.Error(t, err)

	selected, err := common.ModelsByID([]string{"nanos", " flex"})
	require.NoError(t, err)
	require.Len(t, selected, 2)
	all, err := common.ModelsByID(nil)
	require.NoError(t, err)
	require.Equal(t, common.Models(), all)
}

func TestPaths(t *testing.T) {
	nanos, err := common.ModelByID(common.ModelNanoS)
	require.NoError(t, err)
	require.Equal(t, filepath.Join("elfs", "stellar_nanos.elf"), nanos.BinaryPath("elfs"))
	require.False(t, nanos.HasPlugin())
	require.Empty(t, nanos.PluginBinaryPath("elfs"))
	require.Equal(t, "s-op-payment-asset-native", nanos.GoldenName("op-payment-asset-native"))

	nanox, err := common.ModelByID(common.ModelNanoX)
	require.NoError(t, err)
	require.Equal(t, filepath.Join("elfs", "plugin_nanox.elf"), nanox.PluginBinaryPath("elfs"))
}

func TestStringers(t *testing.T) {
	require.Equal(t, "both", common.ButtonBoth.String())
	require.Equal(t, "touch", common.TouchNav.String())
	require.Equal(t, "unknown", common.Button(42).String())
}
