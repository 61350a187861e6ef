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

package simtest_test

import (
	"context"
	"crypto/sha256"
	"net"
	"net/http/httptest"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/stellarhw/app-stellar-harness/api/common"
	"github.com/stellarhw/app-stellar-harness/api/stellar"
	"github.com/stellarhw/app-stellar-harness/communication/tcpapdu"
	"github.com/stellarhw/app-stellar-harness/fixtures"
	"github.com/stellarhw/app-stellar-harness/navigation"
	"github.com/stellarhw/app-stellar-harness/reference"
	"github.com/stellarhw/app-stellar-harness/screen"
	"github.com/stellarhw/app-stellar-harness/simulator/simtest"
	"github.com/stellarhw/app-stellar-harness/util/semver"
	"github.com/stretchr/testify/require"
)

var fastWait = screen.Options{Timeout: 2 * time.Second, Interval: time.Millisecond}

// fastTable is the default layout table without settle delays.
func fastTable() *navigation.Table {
	table := navigation.DefaultTable()
	for id, layout := range table.Models {
		layout.Settle = 0
		table.Models[id] = layout
	}
	return table
}

type testEnv struct {
	model    common.Model
	device   *simtest.Device
	client   *stellar.Device
	compiler navigation.Compiler
	executor *navigation.Executor
}

func newTestEnv(t *testing.T, model common.Model, faults simtest.Faults) *testEnv {
	t.Helper()
	device, err := simtest.New(model, simtest.Config{Faults: faults})
	require.NoError(t, err)
	t.Cleanup(func() { _ = device.Close() })
	require.NoError(t, device.Start(context.Background()))
	compiler, err := navigation.ForModel(model, fastTable())
	require.NoError(t, err)
	return &testEnv{
		model:    model,
		device:   device,
		client:   stellar.NewDevice(device.Communication(), nil),
		compiler: compiler,
		executor: navigation.NewExecutor(device, navigation.ExecutorConfig{Wait: fastWait}),
	}
}

func testModels(t *testing.T, faults simtest.Faults, run func(*testEnv, *testing.T)) {
	t.Helper()
	for _, model := range common.Models() {
		t.Run(model.ID, func(t *testing.T) {
			run(newTestEnv(t, model, faults), t)
		})
	}
}

func (env *testEnv) do(t *testing.T, intents ...navigation.Intent) {
	t.Helper()
	for _, intent := range intents {
		script, err := env.compiler.Compile(intent)
		require.NoError(t, err)
		require.NoError(t, env.executor.Run(context.Background(), script), intent.String())
	}
}

func (env *testEnv) configure(t *testing.T, settings ...navigation.Setting) {
	t.Helper()
	env.do(t, navigation.ConfigureSettings(settings...), navigation.ExitSettings())
	for _, setting := range settings {
		require.True(t, env.device.Setting(setting), setting.String())
	}
}

func (env *testEnv) text(t *testing.T) string {
	t.Helper()
	lines, err := env.device.ScreenText(context.Background())
	require.NoError(t, err)
	return strings.Join(lines, "\n")
}

func containsAny(text string, candidates []string) bool {
	return slices.ContainsFunc(candidates, func(candidate string) bool {
		return strings.Contains(text, candidate)
	})
}

// awaitReview waits until the device left the home screen.
func (env *testEnv) awaitReview(t *testing.T) {
	t.Helper()
	require.NoError(t, screen.Await(context.Background(), fastWait.Timeout, fastWait.Interval,
		func(context.Context) (bool, error) {
			return !strings.Contains(env.text(t), env.model.IdleText), nil
		}))
}

// review pages through a review until the decision screen and decides.
func (env *testEnv) review(t *testing.T, accept bool) {
	t.Helper()
	env.awaitReview(t)
	targets := env.model.RejectTexts
	if accept {
		targets = env.model.ApproveTexts
	}
	for i := 0; !containsAny(env.text(t), targets); i++ {
		require.Less(t, i, 50, "decision screen not reached")
		env.do(t, navigation.Next())
	}
	env.do(t, navigation.Confirm(accept))
}

func (env *testEnv) reviewAddress(t *testing.T, accept bool) {
	t.Helper()
	env.awaitReview(t)
	targets := env.model.AddressRejectTexts
	if accept {
		targets = env.model.AddressApproveTexts
	}
	for i := 0; !containsAny(env.text(t), targets); i++ {
		require.Less(t, i, 50, "decision screen not reached")
		env.do(t, navigation.Next())
	}
	env.do(t, navigation.ConfirmAddress(accept))
}

type result struct {
	data []byte
	err  error
}

func async(f func() ([]byte, error)) <-chan result {
	results := make(chan result, 1)
	go func() {
		data, err := f()
		results <- result{data: data, err: err}
	}()
	return results
}

func produce(t *testing.T, name string) fixtures.Request {
	t.Helper()
	fixture, err := fixtures.Lookup(name)
	require.NoError(t, err)
	request, err := fixture.Produce()
	require.NoError(t, err)
	return request
}

func TestStartAndClose(t *testing.T) {
	device, err := simtest.New(common.Models()[0], simtest.Config{})
	require.NoError(t, err)
	_, err = device.Snapshot(context.Background())
	require.Error(t, err)
	require.NoError(t, device.Start(context.Background()))
	require.Error(t, device.Start(context.Background()))
	require.NoError(t, device.Close())
	require.NoError(t, device.Close())
	require.Error(t, device.Press(context.Background(), common.ButtonRight))
}

func TestAppConfiguration(t *testing.T) {
	testModels(t, simtest.Faults{}, func(env *testEnv, t *testing.T) {
		config, err := env.client.AppConfiguration()
		require.NoError(t, err)
		require.False(t, config.HashSigningEnabled)
		require.Equal(t, semver.NewSemVer(5, 0, 0), config.Version)
		require.Equal(t, env.model.MaxDataSize, config.MaxDataSize)

		env.configure(t, navigation.SettingHashSigning)
		config, err = env.client.AppConfiguration()
		require.NoError(t, err)
		require.True(t, config.HashSigningEnabled)
	})
}

func TestIdleScreen(t *testing.T) {
	testModels(t, simtest.Faults{}, func(env *testEnv, t *testing.T) {
		require.Contains(t, env.text(t), env.model.IdleText)
		env.configure(t, navigation.SettingHashSigning, navigation.SettingCustomContracts)
		require.Contains(t, env.text(t), env.model.IdleText)
		require.False(t, env.device.Setting(navigation.SettingSequenceNumber))
	})
}

func TestScreenshots(t *testing.T) {
	testModels(t, simtest.Faults{}, func(env *testEnv, t *testing.T) {
		first, err := env.device.Snapshot(context.Background())
		require.NoError(t, err)
		again, err := env.device.Snapshot(context.Background())
		require.NoError(t, err)
		require.True(t, first.Equal(again))
		env.do(t, navigation.EnterSettings())
		changed, err := env.device.Snapshot(context.Background())
		require.NoError(t, err)
		require.False(t, first.Equal(changed))
	})
}

func TestSignHash(t *testing.T) {
	hash := sha256.Sum256([]byte("hash"))
	kp, err := reference.KeypairForPath(
		reference.SeedFromMnemonic(reference.TestMnemonic, ""), reference.PrimaryKeypath)
	require.NoError(t, err)
	expected, err := reference.Sign(kp, reference.SchemeRaw, hash[:])
	require.NoError(t, err)

	testModels(t, simtest.Faults{}, func(env *testEnv, t *testing.T) {
		_, err := env.client.SignHash(reference.PrimaryKeypath, hash[:])
		require.True(t, stellar.IsErrorKind(err, stellar.ErrorKindHashSigningNotEnabled), err)

		env.configure(t, navigation.SettingHashSigning)
		results := async(func() ([]byte, error) {
			return env.client.SignHash(reference.PrimaryKeypath, hash[:])
		})
		env.review(t, true)
		result := <-results
		require.NoError(t, result.err)
		require.Equal(t, expected, result.data)
		require.Contains(t, env.text(t), env.model.IdleText)
	})
}

func TestSignTransaction(t *testing.T) {
	request := produce(t, "opPaymentAssetNative")
	payload, err := request.Payload()
	require.NoError(t, err)
	expected, err := fixtures.ExpectedSignature(request, reference.TestKeypair(0))
	require.NoError(t, err)

	testModels(t, simtest.Faults{}, func(env *testEnv, t *testing.T) {
		results := async(func() ([]byte, error) {
			return env.client.SignTransaction(reference.PrimaryKeypath, payload)
		})
		env.review(t, true)
		result := <-results
		require.NoError(t, result.err)
		require.Equal(t, expected, result.data)

		results = async(func() ([]byte, error) {
			return env.client.SignTransaction(reference.PrimaryKeypath, payload)
		})
		env.review(t, false)
		result = <-results
		require.True(t, stellar.IsErrorKind(result.err, stellar.ErrorKindUserRefused), result.err)
	})
}

func TestSequenceNumberPage(t *testing.T) {
	request := produce(t, "txMemoNone")
	payload, err := request.Payload()
	require.NoError(t, err)

	testModels(t, simtest.Faults{}, func(env *testEnv, t *testing.T) {
		pages := func() []string {
			results := async(func() ([]byte, error) {
				return env.client.SignTransaction(reference.PrimaryKeypath, payload)
			})
			env.awaitReview(t)
			var seen []string
			for !containsAny(env.text(t), env.model.ApproveTexts) {
				seen = append(seen, env.text(t))
				env.do(t, navigation.Next())
			}
			env.do(t, navigation.Confirm(true))
			require.NoError(t, (<-results).err)
			return seen
		}
		without := pages()
		env.configure(t, navigation.SettingSequenceNumber)
		with := pages()
		require.Len(t, with, len(without)+1)
		require.True(t, slices.ContainsFunc(with, func(page string) bool {
			return strings.Contains(page, "Sequence Num")
		}))
	})
}

func TestUnverifiedContract(t *testing.T) {
	request := produce(t, "opInvokeHostFunctionUnverifiedContract")
	payload, err := request.Payload()
	require.NoError(t, err)
	expected, err := fixtures.ExpectedSignature(request, reference.TestKeypair(0))
	require.NoError(t, err)

	testModels(t, simtest.Faults{}, func(env *testEnv, t *testing.T) {
		_, err := env.client.SignTransaction(reference.PrimaryKeypath, payload)
		require.True(t, stellar.IsErrorKind(err, stellar.ErrorKindCustomContractsNotEnabled), err)

		env.configure(t, navigation.SettingCustomContracts)

		results := async(func() ([]byte, error) {
			return env.client.SignTransaction(reference.PrimaryKeypath, payload)
		})
		env.awaitReview(t)
		require.Contains(t, env.text(t), "Unverified contract")
		env.do(t, navigation.RefuseRisk())
		result := <-results
		require.True(t, stellar.IsErrorKind(result.err, stellar.ErrorKindUserRefused), result.err)

		results = async(func() ([]byte, error) {
			return env.client.SignTransaction(reference.PrimaryKeypath, payload)
		})
		env.awaitReview(t)
		env.do(t, navigation.AcceptRisk())
		env.review(t, true)
		result = <-results
		require.NoError(t, result.err)
		require.Equal(t, expected, result.data)
	})
}

func TestSorobanAuth(t *testing.T) {
	request := produce(t, "sorobanAuthInvokeContract")
	payload, err := request.Payload()
	require.NoError(t, err)
	expected, err := fixtures.ExpectedSignature(request, reference.TestKeypair(0))
	require.NoError(t, err)

	testModels(t, simtest.Faults{}, func(env *testEnv, t *testing.T) {
		env.configure(t, navigation.SettingCustomContracts)
		results := async(func() ([]byte, error) {
			return env.client.SignSorobanAuthorization(reference.PrimaryKeypath, payload)
		})
		env.awaitReview(t)
		env.do(t, navigation.AcceptRisk())
		env.review(t, true)
		result := <-results
		require.NoError(t, result.err)
		require.Equal(t, expected, result.data)
	})
}

func TestPluginContract(t *testing.T) {
	request := produce(t, "opInvokeHostFunctionTestPlugin")
	payload, err := request.Payload()
	require.NoError(t, err)

	testModels(t, simtest.Faults{}, func(env *testEnv, t *testing.T) {
		if !env.model.HasPlugin() {
			_, err := env.client.SignTransaction(reference.PrimaryKeypath, payload)
			require.True(t, stellar.IsErrorKind(err, stellar.ErrorKindCustomContractsNotEnabled), err)
			return
		}
		// The plugin decodes the contract: no setting and no risk warning needed.
		results := async(func() ([]byte, error) {
			return env.client.SignTransaction(reference.PrimaryKeypath, payload)
		})
		env.review(t, true)
		require.NoError(t, (<-results).err)
	})
}

func TestSignMessage(t *testing.T) {
	message := []byte("Hello, Ledger & Stellar!")
	expected, err := fixtures.ExpectedSignature(fixtures.Message(message), reference.TestKeypair(0))
	require.NoError(t, err)

	testModels(t, simtest.Faults{}, func(env *testEnv, t *testing.T) {
		results := async(func() ([]byte, error) {
			return env.client.SignMessage(reference.PrimaryKeypath, message)
		})
		env.review(t, true)
		result := <-results
		require.NoError(t, result.err)
		require.Equal(t, expected, result.data)
	})
}

func TestPublicKey(t *testing.T) {
	address := reference.TestKeypair(0).Address()
	testModels(t, simtest.Faults{}, func(env *testEnv, t *testing.T) {
		publicKey, err := env.client.PublicKey(reference.PrimaryKeypath, false)
		require.NoError(t, err)
		require.Equal(t, address, publicKey.Address)

		for _, accept := range []bool{true, false} {
			results := make(chan *stellar.PublicKey, 1)
			errs := make(chan error, 1)
			go func() {
				publicKey, err := env.client.PublicKey(reference.PrimaryKeypath, true)
				results <- publicKey
				errs <- err
			}()
			env.reviewAddress(t, accept)
			publicKey, err := <-results, <-errs
			if accept {
				require.NoError(t, err)
				require.Equal(t, address, publicKey.Address)
			} else {
				require.True(t, stellar.IsErrorKind(err, stellar.ErrorKindUserRefused), err)
			}
		}
	})
}

func TestEarlyRejections(t *testing.T) {
	testModels(t, simtest.Faults{}, func(env *testEnv, t *testing.T) {
		before, err := env.device.Snapshot(context.Background())
		require.NoError(t, err)

		_, err = env.client.SignMessage(reference.PrimaryKeypath, make([]byte, env.model.MaxDataSize+1))
		require.True(t, stellar.IsErrorKind(err, stellar.ErrorKindDataTooLarge), err)

		_, err = env.client.SignTransaction(reference.PrimaryKeypath, []byte("not a transaction"))
		require.True(t, stellar.IsErrorKind(err, stellar.ErrorKindDataParsingFailed), err)

		response, err := env.device.Communication().Query([]byte{0xE1, 0x06, 0x00, 0x00, 0x00})
		require.NoError(t, err)
		require.Equal(t, []byte{0x6E, 0x00}, response)

		response, err = env.device.Communication().Query([]byte{0xE0, 0x04, 0x80, 0x00, 0x01, 0x00})
		require.NoError(t, err)
		require.Equal(t, []byte{0xB0, 0x07}, response)

		after, err := env.device.Snapshot(context.Background())
		require.NoError(t, err)
		require.True(t, before.Equal(after))
	})
}

func TestCloseUnblocksRequest(t *testing.T) {
	env := newTestEnv(t, common.Models()[0], simtest.Faults{})
	message := []byte("pending")
	results := async(func() ([]byte, error) {
		return env.client.SignMessage(reference.PrimaryKeypath, message)
	})
	env.awaitReview(t)
	require.NoError(t, env.device.Close())
	require.Error(t, (<-results).err)
}

func TestFaults(t *testing.T) {
	model := common.Models()[0]
	ctx := context.Background()

	t.Run("start", func(t *testing.T) {
		device, err := simtest.New(model, simtest.Config{Faults: simtest.Faults{FailStart: true}})
		require.NoError(t, err)
		require.Error(t, device.Start(ctx))
		require.NoError(t, device.Close())
	})
	t.Run("input", func(t *testing.T) {
		env := newTestEnv(t, model, simtest.Faults{FailInput: 2})
		require.NoError(t, env.device.Press(ctx, common.ButtonRight))
		require.Error(t, env.device.Press(ctx, common.ButtonRight))
		require.Error(t, env.device.Press(ctx, common.ButtonRight))
	})
	t.Run("panic", func(t *testing.T) {
		env := newTestEnv(t, model, simtest.Faults{PanicInput: 1})
		require.Panics(t, func() { _ = env.device.Press(ctx, common.ButtonRight) })
	})
	t.Run("freeze", func(t *testing.T) {
		env := newTestEnv(t, model, simtest.Faults{FreezeScreen: true})
		before, err := env.device.Snapshot(ctx)
		require.NoError(t, err)
		require.NoError(t, env.device.Press(ctx, common.ButtonRight))
		after, err := env.device.Snapshot(ctx)
		require.NoError(t, err)
		require.True(t, before.Equal(after))
		require.Contains(t, env.text(t), "Settings")
	})
	t.Run("signature", func(t *testing.T) {
		env := newTestEnv(t, model, simtest.Faults{CorruptSignature: true})
		message := []byte("corrupt")
		expected, err := fixtures.ExpectedSignature(fixtures.Message(message), reference.TestKeypair(0))
		require.NoError(t, err)
		results := async(func() ([]byte, error) {
			return env.client.SignMessage(reference.PrimaryKeypath, message)
		})
		env.review(t, true)
		result := <-results
		require.NoError(t, result.err)
		require.Len(t, result.data, len(expected))
		require.NotEqual(t, expected, result.data)
	})
	t.Run("close", func(t *testing.T) {
		device, err := simtest.New(model, simtest.Config{Faults: simtest.Faults{FailClose: true}})
		require.NoError(t, err)
		require.NoError(t, device.Start(ctx))
		require.Error(t, device.Close())
		_, err = device.Snapshot(ctx)
		require.Error(t, err)
	})
}

func TestCounting(t *testing.T) {
	counting := &simtest.Counting{
		Faults: func(_ common.Model, n int) simtest.Faults {
			return simtest.Faults{FailStart: n == 1}
		},
	}
	ctx := context.Background()
	for i, model := range common.Models()[:3] {
		sim, err := counting.New(model)
		require.NoError(t, err)
		require.Equal(t, model, sim.Model())
		if i == 1 {
			require.Error(t, sim.Start(ctx))
		} else {
			require.NoError(t, sim.Start(ctx))
		}
		require.NoError(t, sim.Close())
	}
	require.Len(t, counting.Created(), 3)
	require.Equal(t, 3, counting.Starts())
	require.Equal(t, 3, counting.Closes())
}

func TestServer(t *testing.T) {
	model, err := common.ModelByID(common.ModelNanoSPlus)
	require.NoError(t, err)
	device, err := simtest.New(model, simtest.Config{})
	require.NoError(t, err)
	require.NoError(t, device.Start(context.Background()))
	defer func() { _ = device.Close() }()

	apdu, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	api, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	server := simtest.NewServer(device, apdu, api)
	defer func() { require.NoError(t, server.Close()) }()

	conn, err := net.Dial("tcp", apdu.Addr().String())
	require.NoError(t, err)
	client := stellar.NewDevice(tcpapdu.NewCommunication(conn), nil)
	defer client.Close()
	config, err := client.AppConfiguration()
	require.NoError(t, err)
	require.Equal(t, model.MaxDataSize, config.MaxDataSize)

	rest := httptest.NewServer(server.Handler())
	defer rest.Close()
	response, err := rest.Client().Get(rest.URL + "/events?currentscreenonly=true")
	require.NoError(t, err)
	require.NoError(t, response.Body.Close())
	require.Equal(t, 200, response.StatusCode)
	response, err = rest.Client().Post(rest.URL+"/button/right", "application/json",
		strings.NewReader(`{"action":"press-and-release"}`))
	require.NoError(t, err)
	require.NoError(t, response.Body.Close())
	require.Equal(t, 200, response.StatusCode)
	require.Contains(t, strings.Join(mustText(t, device), " "), "Settings")

	response, err = rest.Client().Post(rest.URL+"/button/middle", "application/json",
		strings.NewReader(`{"action":"press-and-release"}`))
	require.NoError(t, err)
	require.NoError(t, response.Body.Close())
	require.Equal(t, 404, response.StatusCode)
}

func mustText(t *testing.T, device *simtest.Device) []string {
	t.Helper()
	lines, err := device.ScreenText(context.Background())
	require.NoError(t, err)
	return lines
}
