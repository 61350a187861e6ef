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

package runner_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stellarhw/app-stellar-harness/reference"
	"github.com/stellarhw/app-stellar-harness/runner"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "harness.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
speculosCommand: [python3, -m, speculos]
elfDir: /opt/elfs
goldenDir: snapshots
screenTimeout: 7s
parallelism: 2
models: [nanos, stax]
minAppVersion: 5.0.0
`), 0o600))
	config, err := runner.LoadConfig(path)
	require.NoError(t, err)
	require.Equal(t, []string{"python3", "-m", "speculos"}, config.SpeculosCommand)
	require.Equal(t, "/opt/elfs", config.ELFDir)
	require.Equal(t, "snapshots", config.GoldenDir)
	require.Equal(t, 7*time.Second, config.ScreenTimeout)
	require.Equal(t, 2, config.Parallelism)
	require.Equal(t, []string{"nanos", "stax"}, config.Models)
	require.Equal(t, "5.0.0", config.MinAppVersion)
	// Unset fields keep their defaults.
	require.Equal(t, reference.TestMnemonic, config.Seed)
	require.Equal(t, runner.DefaultConfig().LongTimeout, config.LongTimeout)

	simulatorConfig := config.SimulatorConfig()
	require.Equal(t, config.SpeculosCommand, simulatorConfig.Command)
	require.Equal(t, "/opt/elfs", simulatorConfig.ELFDir)
	require.Equal(t, reference.TestMnemonic, simulatorConfig.Seed)
}

func TestLoadConfigErrors(t *testing.T) {
	dir := t.TempDir()
	_, err := runner.LoadConfig(filepath.Join(dir, "missing.yaml"))
	require.Error(t, err)

	for name, content := range map[string]string{
		"syntax":      "parallelism: [",
		"parallelism": "parallelism: -1",
		"timeout":     "longTimeout: 2h",
		"steps":       "maxSteps: 0",
		"version":     "minAppVersion: 5.x",
	} {
		path := filepath.Join(dir, name+".yaml")
		require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
		_, err := runner.LoadConfig(path)
		require.Error(t, err, name)
	}
}

func TestConfigFromEnv(t *testing.T) {
	t.Setenv(runner.EnvSpeculosCommand, "docker run speculos")
	t.Setenv(runner.EnvELFDir, "/elfs")
	t.Setenv(runner.EnvGoldenDir, "/golden")
	t.Setenv(runner.EnvUpdateGolden, "true")
	t.Setenv(runner.EnvScreenTimeout, "250ms")
	t.Setenv(runner.EnvParallelism, "8")
	config, err := runner.ConfigFromEnv(runner.DefaultConfig())
	require.NoError(t, err)
	require.Equal(t, []string{"docker", "run", "speculos"}, config.SpeculosCommand)
	require.Equal(t, "/elfs", config.ELFDir)
	require.Equal(t, "/golden", config.GoldenDir)
	require.True(t, config.UpdateGolden)
	require.Equal(t, 250*time.Millisecond, config.ScreenTimeout)
	require.Equal(t, 8, config.Parallelism)

	for _, env := range []string{runner.EnvUpdateGolden, runner.EnvScreenTimeout, runner.EnvParallelism} {
		t.Run(env, func(t *testing.T) {
			t.Setenv(env, "x")
			_, err := runner.ConfigFromEnv(runner.DefaultConfig())
			require.Error(t, err)
		})
	}
	t.Setenv(runner.EnvParallelism, "0")
	_, err = runner.ConfigFromEnv(runner.DefaultConfig())
	require.Error(t, err)
}
