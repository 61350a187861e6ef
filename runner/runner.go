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

// Package runner executes signing cases against simulated devices: it starts a simulator, puts the
// app into the required state, dispatches the request, walks the review on the device and checks
// the answer against the reference signer.
package runner

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/pion/logging"
	"github.com/stellar/go/keypair"
	"github.com/stellarhw/app-stellar-harness/api/common"
	"github.com/stellarhw/app-stellar-harness/api/stellar"
	"github.com/stellarhw/app-stellar-harness/fixtures"
	"github.com/stellarhw/app-stellar-harness/navigation"
	"github.com/stellarhw/app-stellar-harness/reference"
	"github.com/stellarhw/app-stellar-harness/screen"
	"github.com/stellarhw/app-stellar-harness/simulator"
	"github.com/stellarhw/app-stellar-harness/util/errp"
	"github.com/stellarhw/app-stellar-harness/verify"
)

// errNavigation marks failures to bring the device into an expected screen.
var errNavigation = errors.New("navigation failed")

// Case is one fixture signed on one device family.
type Case struct {
	Fixture fixtures.Fixture
	Model   common.Model
	// Keypath defaults to reference.PrimaryKeypath.
	Keypath string
	// Reject makes the user reject the request on the decision screen.
	Reject bool
	// RefuseRisk makes the user leave at the unverified contract warning.
	RefuseRisk bool
	// WithoutSettings leaves the settings the fixture requires disabled. The app is then expected
	// to reject the request without showing anything.
	WithoutSettings bool
	// Settings are enabled in addition to the ones the fixture requires.
	Settings []navigation.Setting
}

// Name identifies the case and names its golden snapshots.
func (c Case) Name() string {
	name := c.Fixture.CaseName()
	if c.WithoutSettings {
		name += "-settings-off"
	}
	if c.RefuseRisk {
		name += "-refuse-risk"
	}
	if c.Reject {
		name += "-reject"
	}
	for _, setting := range c.Settings {
		name += "-" + setting.String()
	}
	return c.Model.GoldenName(name)
}

func (c Case) keypath() string {
	if c.Keypath == "" {
		return reference.PrimaryKeypath
	}
	return c.Keypath
}

// requiredSettings returns the settings the app needs to accept the fixture.
func (c Case) requiredSettings() []navigation.Setting {
	var settings []navigation.Setting
	if c.Fixture.Category == fixtures.CategoryHashRequest {
		settings = append(settings, navigation.SettingHashSigning)
	}
	if fixtures.RequiresCustomContracts(c.Fixture.Name) {
		settings = append(settings, navigation.SettingCustomContracts)
	}
	return settings
}

// PublicKeyCase retrieves a public key, optionally confirmed on the device.
type PublicKeyCase struct {
	Model common.Model
	// Keypath defaults to reference.PrimaryKeypath.
	Keypath string
	Confirm bool
	// Reject makes the user reject the address. Only meaningful with Confirm.
	Reject bool
}

// Name identifies the case and names its golden snapshots.
func (c PublicKeyCase) Name() string {
	name := "public-key"
	if c.Confirm {
		name += "-confirm"
		if c.Reject {
			name += "-reject"
		}
	}
	return c.Model.GoldenName(name)
}

// Result is the outcome of one case.
type Result struct {
	Name  string
	Model common.Model
	// State is StatePassed or StateFailed.
	State   State
	Class   FailureClass
	Outcome verify.Outcome
	// Steps is the number of navigation steps executed.
	Steps     int
	Snapshots int
	Duration  time.Duration
	Err       error
}

// Runner runs cases. It is safe for concurrent use; every case gets its own simulator.
type Runner struct {
	config  Config
	factory simulator.Factory
	log     logging.LeveledLogger
}

// New creates a runner. If factory is nil, Speculos instances configured by config are used.
func New(config Config, factory simulator.Factory) *Runner {
	defaults := DefaultConfig()
	if config.ScreenTimeout <= 0 {
		config.ScreenTimeout = defaults.ScreenTimeout
	}
	if config.LongTimeout <= 0 {
		config.LongTimeout = defaults.LongTimeout
	}
	if config.IdleTimeout <= 0 {
		config.IdleTimeout = defaults.IdleTimeout
	}
	if config.PollInterval <= 0 {
		config.PollInterval = defaults.PollInterval
	}
	if config.MaxSteps <= 0 {
		config.MaxSteps = defaults.MaxSteps
	}
	if config.Parallelism <= 0 {
		config.Parallelism = defaults.Parallelism
	}
	if config.Seed == "" {
		config.Seed = defaults.Seed
	}
	if config.Layouts == nil {
		config.Layouts = navigation.DefaultTable()
	}
	if config.LoggerFactory == nil {
		config.LoggerFactory = logging.NewDefaultLoggerFactory()
	}
	if factory == nil {
		factory = &simulator.SpeculosFactory{Config: config.SimulatorConfig()}
	}
	return &Runner{
		config:  config,
		factory: factory,
		log:     config.LoggerFactory.NewLogger("runner"),
	}
}

// Config returns the effective configuration.
func (runner *Runner) Config() Config {
	return runner.config
}

func (runner *Runner) options(timeout time.Duration) screen.Options {
	return screen.Options{Timeout: timeout, Interval: runner.config.PollInterval}
}

func (runner *Runner) keypair(keypath string) (*keypair.Full, error) {
	return reference.KeypairForPath(reference.SeedFromMnemonic(runner.config.Seed, ""), keypath)
}

// caseRun is the state of one case while its simulator is up.
type caseRun struct {
	runner   *Runner
	name     string
	model    common.Model
	state    State
	sim      simulator.Simulator
	client   *stellar.Device
	compiler navigation.Compiler
	executor *navigation.Executor
	outcome  verify.Outcome
}

func (run *caseRun) transition(state State) {
	run.runner.log.Debugf("%s: %s -> %s", run.name, run.state, state)
	run.state = state
}

// withSimulator runs f against a fresh, started simulator that shows the home screen. The
// simulator is closed on every path, including panics, which are returned as errors.
func (runner *Runner) withSimulator(
	ctx context.Context, model common.Model, name string, f func(*caseRun) error) (result Result, err error) {
	start := time.Now()
	run := &caseRun{runner: runner, name: name, model: model, state: StateIdle}
	defer func() {
		result.Name = name
		result.Model = model
		result.Duration = time.Since(start)
		if run.executor != nil {
			result.Steps = run.executor.Steps()
			result.Snapshots = run.executor.Snapshots()
		}
		result.Outcome = run.outcome
		result.Err = err
		result.Class = Classify(err)
		result.State = StatePassed
		if err != nil {
			result.State = StateFailed
			runner.log.Infof("%s: failed (%s): %v", name, result.Class, err)
		} else {
			runner.log.Infof("%s: passed in %s", name, result.Duration.Round(time.Millisecond))
		}
	}()

	sim, err := runner.factory.New(model)
	if err != nil {
		return result, err
	}
	run.sim = sim
	defer func() {
		if recovered := recover(); recovered != nil {
			err = errp.Newf("panic: %v", recovered)
		}
		if err != nil {
			run.transition(StateFailed)
		} else {
			run.transition(StatePassed)
		}
		closeErr := sim.Close()
		run.transition(StateTornDown)
		if closeErr != nil {
			runner.log.Errorf("%s: %v", name, closeErr)
			if err == nil {
				err = errp.WithStack(&TeardownError{Err: closeErr})
			}
		}
	}()

	run.transition(StateStarting)
	if err := sim.Start(ctx); err != nil {
		return result, errp.WithMessagef(err, "could not start the %s simulator", model)
	}
	run.transition(StateAwaitingIdleScreen)
	if _, err := screen.WaitForText(ctx, sim, []string{model.IdleText},
		runner.options(runner.config.IdleTimeout)); err != nil {
		return result, err
	}
	run.client = stellar.NewDevice(sim.Communication(), runner.config.LoggerFactory)
	run.compiler, err = navigation.ForModel(model, runner.config.Layouts)
	if err != nil {
		return result, err
	}
	run.executor = navigation.NewExecutor(sim, navigation.ExecutorConfig{
		Wait:          runner.options(runner.config.ScreenTimeout),
		Golden:        runner.config.golden(),
		GoldenName:    name,
		LoggerFactory: runner.config.LoggerFactory,
	})
	return result, f(run)
}

func (run *caseRun) do(ctx context.Context, intents ...navigation.Intent) error {
	for _, intent := range intents {
		script, err := run.compiler.Compile(intent)
		if err != nil {
			return err
		}
		run.runner.log.Tracef("%s: %s: %s", run.name, intent, script)
		if err := run.executor.Run(ctx, script); err != nil {
			return err
		}
	}
	return nil
}

// enable turns on the given settings that are not on yet.
func (run *caseRun) enable(ctx context.Context, settings []navigation.Setting) error {
	missing := run.executor.Session().Missing(settings...)
	if len(missing) == 0 {
		return nil
	}
	return run.do(ctx, navigation.ConfigureSettings(missing...), navigation.ExitSettings())
}

func containsAny(lines []string, texts []string) bool {
	return slices.ContainsFunc(lines, func(line string) bool {
		return slices.ContainsFunc(texts, func(text string) bool {
			return strings.Contains(line, text)
		})
	})
}

// advanceTo pages through the review until a line contains one of texts.
func (run *caseRun) advanceTo(ctx context.Context, texts []string) error {
	for page := 0; ; page++ {
		lines, err := run.sim.ScreenText(ctx)
		if err != nil {
			return err
		}
		if containsAny(lines, texts) {
			return nil
		}
		if page >= run.runner.config.MaxSteps {
			return errp.WithMessagef(errp.WithStack(errNavigation),
				"none of %q shown after %d pages", texts, page)
		}
		if err := run.do(ctx, navigation.Next()); err != nil {
			return err
		}
	}
}

type response struct {
	data []byte
	err  error
}

// dispatch sends a request that blocks until the user decides. The goroutine ends at the latest
// when the simulator is closed.
func dispatch(request func() ([]byte, error)) <-chan response {
	responses := make(chan response, 1)
	go func() {
		data, err := request()
		responses <- response{data: data, err: err}
	}()
	return responses
}

// await waits at most timeout for the response. A request still pending on timeout is released
// when the simulator is torn down.
func (run *caseRun) await(
	ctx context.Context, responses <-chan response, timeout time.Duration) (response, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case answer := <-responses:
		return answer, nil
	case <-ctx.Done():
		return response{}, errp.WithStack(ctx.Err())
	case <-timer.C:
		return response{}, errp.WithStack(&screen.TimeoutError{
			Condition: "device response",
			Budget:    timeout,
			Waited:    timeout,
		})
	}
}

// awaitReview waits for the first screen of a review and records it.
func (run *caseRun) awaitReview(ctx context.Context, before screen.Snapshot) error {
	if _, err := screen.WaitForChange(ctx, run.sim, before,
		run.runner.options(run.runner.config.LongTimeout)); err != nil {
		return err
	}
	_, err := run.executor.Capture(ctx)
	return err
}

// finish waits for the response to the decision and for the app to return home.
func (run *caseRun) finish(ctx context.Context, responses <-chan response) (response, error) {
	run.transition(StateAwaitingTerminalScreen)
	answer, err := run.await(ctx, responses, run.runner.config.LongTimeout)
	if err != nil {
		return answer, err
	}
	if _, err := screen.WaitForText(ctx, run.sim, []string{run.model.IdleText},
		run.runner.options(run.runner.config.ScreenTimeout)); err != nil {
		return answer, err
	}
	return answer, nil
}

// earlyRejection sends a request the app must reject before showing anything.
func (run *caseRun) earlyRejection(
	ctx context.Context, want stellar.ErrorKind, request func() ([]byte, error)) (verify.Outcome, error) {
	before, err := run.sim.Snapshot(ctx)
	if err != nil {
		return verify.Outcome{}, err
	}
	run.transition(StateRequestDispatched)
	answer, err := run.await(ctx, dispatch(request), run.runner.config.ScreenTimeout)
	if err != nil {
		return verify.Outcome{}, err
	}
	after, err := run.sim.Snapshot(ctx)
	if err != nil {
		return verify.Outcome{}, err
	}
	run.transition(StateVerifying)
	if !before.Equal(after) {
		return verify.Outcome{}, errp.WithMessagef(errp.WithStack(errNavigation),
			"screen changed while the app was expected to reject with %s", want)
	}
	return verify.Rejection(answer.err, want)
}

func (run *caseRun) sign(c Case, payload []byte) func() ([]byte, error) {
	keypath := c.keypath()
	return func() ([]byte, error) {
		switch c.Fixture.Category {
		case fixtures.CategoryHashRequest:
			return run.client.SignHash(keypath, payload)
		case fixtures.CategorySorobanAuthRequest:
			return run.client.SignSorobanAuthorization(keypath, payload)
		case fixtures.CategoryMessageRequest:
			return run.client.SignMessage(keypath, payload)
		default:
			return run.client.SignTransaction(keypath, payload)
		}
	}
}

// expectedEarlyRejection returns the status the app answers c with before any review, if any.
func expectedEarlyRejection(c Case, payload []byte) (stellar.ErrorKind, bool) {
	if len(payload) > c.Model.MaxDataSize {
		return stellar.ErrorKindDataTooLarge, true
	}
	if !c.WithoutSettings {
		return stellar.ErrorKindUnknown, false
	}
	if c.Fixture.Category == fixtures.CategoryHashRequest {
		return stellar.ErrorKindHashSigningNotEnabled, true
	}
	if fixtures.RequiresCustomContracts(c.Fixture.Name) {
		return stellar.ErrorKindCustomContractsNotEnabled, true
	}
	return stellar.ErrorKindUnknown, false
}

// Run executes one signing case. The returned error is also stored in the result.
func (runner *Runner) Run(ctx context.Context, c Case) (Result, error) {
	if fixtures.RequiresPlugin(c.Fixture.Name) && !c.Model.HasPlugin() {
		err := errp.Newf("%s requires the plugin, which %s does not have", c.Fixture.Name, c.Model)
		return Result{Name: c.Name(), Model: c.Model, State: StateFailed, Class: Classify(err), Err: err}, err
	}
	return runner.withSimulator(ctx, c.Model, c.Name(), func(run *caseRun) error {
		outcome, err := run.signingCase(ctx, c)
		if err != nil {
			return err
		}
		run.outcome = outcome
		return outcome.Err()
	})
}

func (run *caseRun) signingCase(ctx context.Context, c Case) (verify.Outcome, error) {
	request, err := c.Fixture.Produce()
	if err != nil {
		return verify.Outcome{}, err
	}
	payload, err := request.Payload()
	if err != nil {
		return verify.Outcome{}, err
	}
	settings := c.Settings
	if !c.WithoutSettings {
		settings = append(c.requiredSettings(), settings...)
	}
	if err := run.enable(ctx, settings); err != nil {
		return verify.Outcome{}, err
	}
	if kind, ok := expectedEarlyRejection(c, payload); ok {
		return run.earlyRejection(ctx, kind, run.sign(c, payload))
	}

	before, err := run.sim.Snapshot(ctx)
	if err != nil {
		return verify.Outcome{}, err
	}
	run.transition(StateRequestDispatched)
	responses := dispatch(run.sign(c, payload))
	if err := run.awaitReview(ctx, before); err != nil {
		return verify.Outcome{}, err
	}

	run.transition(StateNavigating)
	if fixtures.RequiresCustomContracts(c.Fixture.Name) {
		if c.RefuseRisk {
			if err := run.do(ctx, navigation.RefuseRisk()); err != nil {
				return verify.Outcome{}, err
			}
			return run.verifyRejection(ctx, responses)
		}
		if err := run.do(ctx, navigation.AcceptRisk()); err != nil {
			return verify.Outcome{}, err
		}
	}
	texts := c.Model.ApproveTexts
	if c.Reject {
		texts = c.Model.RejectTexts
	}
	if err := run.advanceTo(ctx, texts); err != nil {
		return verify.Outcome{}, err
	}
	if err := run.do(ctx, navigation.Confirm(!c.Reject)); err != nil {
		return verify.Outcome{}, err
	}
	if c.Reject {
		return run.verifyRejection(ctx, responses)
	}

	answer, err := run.finish(ctx, responses)
	if err != nil {
		return verify.Outcome{}, err
	}
	run.transition(StateVerifying)
	if answer.err != nil {
		return verify.Outcome{}, answer.err
	}
	kp, err := run.runner.keypair(c.keypath())
	if err != nil {
		return verify.Outcome{}, err
	}
	return verify.Signature(request, answer.data, kp)
}

func (run *caseRun) verifyRejection(ctx context.Context, responses <-chan response) (verify.Outcome, error) {
	answer, err := run.finish(ctx, responses)
	if err != nil {
		return verify.Outcome{}, err
	}
	run.transition(StateVerifying)
	return verify.Rejection(answer.err, stellar.ErrorKindUserRefused)
}

// PublicKey executes a public key case.
func (runner *Runner) PublicKey(ctx context.Context, c PublicKeyCase) (Result, error) {
	keypath := c.Keypath
	if keypath == "" {
		keypath = reference.PrimaryKeypath
	}
	return runner.withSimulator(ctx, c.Model, c.Name(), func(run *caseRun) error {
		kp, err := runner.keypair(keypath)
		if err != nil {
			return err
		}
		request := func() ([]byte, error) {
			publicKey, err := run.client.PublicKey(keypath, c.Confirm)
			if err != nil {
				return nil, err
			}
			return publicKey.Raw, nil
		}
		var answer response
		if !c.Confirm {
			run.transition(StateRequestDispatched)
			if answer, err = run.await(ctx, dispatch(request), run.runner.config.ScreenTimeout); err != nil {
				return err
			}
		} else {
			before, err := run.sim.Snapshot(ctx)
			if err != nil {
				return err
			}
			run.transition(StateRequestDispatched)
			responses := dispatch(request)
			if err := run.awaitReview(ctx, before); err != nil {
				return err
			}
			run.transition(StateNavigating)
			texts := c.Model.AddressApproveTexts
			if c.Reject {
				texts = c.Model.AddressRejectTexts
			}
			if err := run.advanceTo(ctx, texts); err != nil {
				return err
			}
			if err := run.do(ctx, navigation.ConfirmAddress(!c.Reject)); err != nil {
				return err
			}
			if answer, err = run.finish(ctx, responses); err != nil {
				return err
			}
		}
		run.transition(StateVerifying)
		var outcome verify.Outcome
		if c.Confirm && c.Reject {
			outcome, err = verify.Rejection(answer.err, stellar.ErrorKindUserRefused)
		} else if answer.err != nil {
			return answer.err
		} else {
			outcome, err = verify.PublicKey(answer.data, kp)
		}
		if err != nil {
			return err
		}
		run.outcome = outcome
		return outcome.Err()
	})
}

// AppConfiguration starts a simulator of model and returns the configuration its app reports.
func (runner *Runner) AppConfiguration(ctx context.Context, model common.Model) (*stellar.AppConfiguration, error) {
	var config *stellar.AppConfiguration
	_, err := runner.withSimulator(ctx, model, model.GoldenName("app-configuration"),
		func(run *caseRun) error {
			run.transition(StateRequestDispatched)
			var reported *stellar.AppConfiguration
			responses := dispatch(func() ([]byte, error) {
				var err error
				reported, err = run.client.AppConfiguration()
				return nil, err
			})
			answer, err := run.await(ctx, responses, run.runner.config.ScreenTimeout)
			if err != nil {
				return err
			}
			if answer.err != nil {
				return answer.err
			}
			config = reported
			run.transition(StateVerifying)
			minVersion, err := runner.config.minAppVersion()
			if err != nil {
				return err
			}
			if minVersion != nil && !config.Version.AtLeast(minVersion) {
				return errp.WithStack(&verify.MismatchError{Outcome: verify.Outcome{
					MismatchDetail: fmt.Sprintf("app version %s is older than %s", config.Version, minVersion),
				}})
			}
			if config.MaxDataSize != 0 && config.MaxDataSize != model.MaxDataSize {
				return errp.WithStack(&verify.MismatchError{Outcome: verify.Outcome{
					MismatchDetail: fmt.Sprintf("app buffer is %d bytes, want %d",
						config.MaxDataSize, model.MaxDataSize),
				}})
			}
			return nil
		})
	return config, err
}
