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

package simulator_test

import (
	"context"
	"flag"
	"net"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"testing"
	"time"

	"github.com/stellarhw/app-stellar-harness/api/common"
	"github.com/stellarhw/app-stellar-harness/api/stellar"
	"github.com/stellarhw/app-stellar-harness/simulator"
	"github.com/stellarhw/app-stellar-harness/simulator/simtest"
	"github.com/stretchr/testify/require"
)

const helperEnv = "SIMULATOR_TEST_HELPER"

// TestHelperSpeculos is not a real test. It is started as a child process by the tests below and
// serves a simulated device with the Speculos command line and ports.
func TestHelperSpeculos(t *testing.T) {
	mode := os.Getenv(helperEnv)
	if mode == "" {
		t.Skip("helper process")
	}
	if mode == "exit" {
		os.Exit(3)
	}
	args := flag.Args()
	if len(args) < 1 {
		os.Exit(2)
	}
	flags := flag.NewFlagSet("speculos", flag.ContinueOnError)
	modelID := flags.String("model", "", "")
	flags.String("display", "", "")
	apduPort := flags.Int("apdu-port", 0, "")
	apiPort := flags.Int("api-port", 0, "")
	seed := flags.String("seed", "", "")
	flags.String("l", "", "")
	if err := flags.Parse(args[1:]); err != nil {
		os.Exit(2)
	}
	model, err := common.ModelByID(*modelID)
	if err != nil {
		os.Exit(2)
	}
	device, err := simtest.New(model, simtest.Config{Seed: *seed})
	if err != nil || device.Start(context.Background()) != nil {
		os.Exit(2)
	}
	apdu, err := net.Listen("tcp", net.JoinHostPort("127.0.0.1", strconv.Itoa(*apduPort)))
	if err != nil {
		os.Exit(2)
	}
	api, err := net.Listen("tcp", net.JoinHostPort("127.0.0.1", strconv.Itoa(*apiPort)))
	if err != nil {
		os.Exit(2)
	}
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM)
	defer stop()
	_ = simtest.Serve(ctx, device, apdu, api)
	_ = device.Close()
	os.Exit(0)
}

func helperConfig(t *testing.T, mode string, models ...common.Model) simulator.Config {
	t.Helper()
	t.Setenv(helperEnv, mode)
	elfDir := t.TempDir()
	for _, model := range models {
		require.NoError(t, os.WriteFile(filepath.Join(elfDir, model.BinaryName), nil, 0o600))
	}
	return simulator.Config{
		Command:      []string{os.Args[0], "-test.run=^TestHelperSpeculos$", "--"},
		ELFDir:       elfDir,
		StartTimeout: 20 * time.Second,
		StopGrace:    5 * time.Second,
	}
}

func TestInstance(t *testing.T) {
	model, err := common.ModelByID(common.ModelNanoSPlus)
	require.NoError(t, err)
	instance := simulator.NewInstance(model, helperConfig(t, "serve", model))
	ctx := context.Background()

	require.Nil(t, instance.Communication())
	_, err = instance.Snapshot(ctx)
	require.Error(t, err)

	require.NoError(t, instance.Start(ctx))
	defer func() { require.NoError(t, instance.Close()) }()
	require.Error(t, instance.Start(ctx))
	apduPort, apiPort := instance.Ports()
	require.NotZero(t, apduPort)
	require.NotEqual(t, apduPort, apiPort)

	config, err := stellar.NewDevice(instance.Communication(), nil).AppConfiguration()
	require.NoError(t, err)
	require.Equal(t, model.MaxDataSize, config.MaxDataSize)

	lines, err := instance.ScreenText(ctx)
	require.NoError(t, err)
	require.Contains(t, lines, model.IdleText)

	before, err := instance.Snapshot(ctx)
	require.NoError(t, err)
	require.NoError(t, instance.Press(ctx, common.ButtonRight))
	after, err := instance.Snapshot(ctx)
	require.NoError(t, err)
	require.False(t, before.Equal(after))
	lines, err = instance.ScreenText(ctx)
	require.NoError(t, err)
	require.Contains(t, lines, "Settings")
}

func TestInstanceTouch(t *testing.T) {
	model, err := common.ModelByID(common.ModelStax)
	require.NoError(t, err)
	instance := simulator.NewInstance(model, helperConfig(t, "serve", model))
	ctx := context.Background()
	require.NoError(t, instance.Start(ctx))
	defer func() { require.NoError(t, instance.Close()) }()

	// The settings button of the home screen.
	require.NoError(t, instance.Touch(ctx, 342, 55, 0))
	lines, err := instance.ScreenText(ctx)
	require.NoError(t, err)
	require.Contains(t, lines, "Settings")
	require.NoError(t, instance.Touch(ctx, 36, 36, 5*time.Millisecond))
	lines, err = instance.ScreenText(ctx)
	require.NoError(t, err)
	require.Contains(t, lines, model.IdleText)
}

func TestInstanceStartFailures(t *testing.T) {
	model, err := common.ModelByID(common.ModelNanoS)
	require.NoError(t, err)
	ctx := context.Background()

	t.Run("missing binary", func(t *testing.T) {
		instance := simulator.NewInstance(model, helperConfig(t, "serve"))
		require.Error(t, instance.Start(ctx))
		require.NoError(t, instance.Close())
		require.NoError(t, instance.Close())
	})
	t.Run("process exits", func(t *testing.T) {
		instance := simulator.NewInstance(model, helperConfig(t, "exit", model))
		err := instance.Start(ctx)
		require.Error(t, err)
		require.Contains(t, err.Error(), "exited during startup")
		require.NoError(t, instance.Close())
	})
	t.Run("unknown command", func(t *testing.T) {
		config := helperConfig(t, "serve", model)
		config.Command = []string{filepath.Join(t.TempDir(), "no-speculos")}
		instance := simulator.NewInstance(model, config)
		require.Error(t, instance.Start(ctx))
		require.NoError(t, instance.Close())
	})
}

func TestSpeculosFactory(t *testing.T) {
	model, err := common.ModelByID(common.ModelFlex)
	require.NoError(t, err)
	factory := &simulator.SpeculosFactory{Config: simulator.DefaultConfig()}
	sim, err := factory.New(model)
	require.NoError(t, err)
	require.Equal(t, model, sim.Model())
	require.NoError(t, sim.Close())
}
