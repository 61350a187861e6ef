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

package navigation

import (
	"context"
	"fmt"
	"time"

	"github.com/pion/logging"
	"github.com/stellarhw/app-stellar-harness/api/common"
	"github.com/stellarhw/app-stellar-harness/screen"
	"github.com/stellarhw/app-stellar-harness/util/errp"
)

// Device is what the executor drives.
type Device interface {
	screen.Source
	Press(ctx context.Context, button common.Button) error
	Touch(ctx context.Context, x, y int, hold time.Duration) error
}

// IncompleteError is returned when a script was not executed to completion.
type IncompleteError struct {
	Script Script
	// Executed is the number of steps that completed.
	Executed int
	Err      error
}

// Error implements error.
func (err *IncompleteError) Error() string {
	if err.Executed >= len(err.Script) {
		return fmt.Sprintf("navigation stopped after %d/%d steps: %v", err.Executed, len(err.Script), err.Err)
	}
	return fmt.Sprintf("navigation stopped after %d/%d steps at %s: %v",
		err.Executed, len(err.Script), err.Script[err.Executed], err.Err)
}

// Unwrap returns the error of the failed step.
func (err *IncompleteError) Unwrap() error {
	return err.Err
}

// ExecutorConfig configures an Executor.
type ExecutorConfig struct {
	// Session receives the toggled settings. If nil, a fresh session is used.
	Session *Session
	// Wait bounds the screen change wait after each step.
	Wait screen.Options
	// Golden, if enabled, receives the screen after every step under GoldenName.
	Golden     *screen.Golden
	GoldenName string
	// LoggerFactory may be nil.
	LoggerFactory logging.LoggerFactory
}

// Executor runs scripts against one device, strictly in order.
type Executor struct {
	device    Device
	config    ExecutorConfig
	log       logging.LeveledLogger
	steps     int
	snapshots int
}

// NewExecutor creates an executor for device.
func NewExecutor(device Device, config ExecutorConfig) *Executor {
	if config.Session == nil {
		config.Session = NewSession()
	}
	if config.LoggerFactory == nil {
		config.LoggerFactory = logging.NewDefaultLoggerFactory()
	}
	return &Executor{
		device: device,
		config: config,
		log:    config.LoggerFactory.NewLogger("navigation"),
	}
}

// Session returns the settings state the executor updates.
func (executor *Executor) Session() *Session {
	return executor.config.Session
}

// Steps returns the number of steps executed so far.
func (executor *Executor) Steps() int {
	return executor.steps
}

// Snapshots returns the number of screens checked against the golden images so far.
func (executor *Executor) Snapshots() int {
	return executor.snapshots
}

// Run executes script. If a step fails, the remaining steps are skipped and an *IncompleteError
// is returned.
func (executor *Executor) Run(ctx context.Context, script Script) error {
	for i, step := range script {
		if err := executor.execute(ctx, step); err != nil {
			return errp.WithStack(&IncompleteError{Script: script, Executed: i, Err: err})
		}
	}
	return nil
}

// Capture checks the current screen against the next golden image and returns it.
func (executor *Executor) Capture(ctx context.Context) (screen.Snapshot, error) {
	snapshot, err := executor.device.Snapshot(ctx)
	if err != nil {
		return screen.Snapshot{}, err
	}
	return snapshot, executor.check(snapshot)
}

func (executor *Executor) check(snapshot screen.Snapshot) error {
	if !executor.config.Golden.Enabled() {
		return nil
	}
	index := executor.snapshots
	executor.snapshots++
	return executor.config.Golden.Check(executor.config.GoldenName, index, snapshot)
}

func (executor *Executor) execute(ctx context.Context, step Step) error {
	var previous screen.Snapshot
	if step.ExpectChange {
		var err error
		previous, err = executor.device.Snapshot(ctx)
		if err != nil {
			return err
		}
	}
	executor.log.Debugf("step %d: %s", executor.steps, step)
	switch step.Kind {
	case StepPress:
		if err := executor.device.Press(ctx, step.Button); err != nil {
			return err
		}
	case StepTouch:
		if err := executor.device.Touch(ctx, step.X, step.Y, step.Hold); err != nil {
			return err
		}
	default:
		return errp.Newf("unknown step kind %d", step.Kind)
	}
	if err := sleep(ctx, step.Settle); err != nil {
		return err
	}
	var current screen.Snapshot
	if step.ExpectChange {
		var err error
		current, err = screen.WaitForChange(ctx, executor.device, previous, executor.config.Wait)
		if err != nil {
			return err
		}
	}
	executor.steps++
	if step.Toggles != SettingNone {
		executor.config.Session.toggle(step.Toggles)
	}
	if !executor.config.Golden.Enabled() {
		return nil
	}
	if !step.ExpectChange {
		var err error
		current, err = executor.device.Snapshot(ctx)
		if err != nil {
			return err
		}
	}
	return executor.check(current)
}

func sleep(ctx context.Context, duration time.Duration) error {
	if duration <= 0 {
		return nil
	}
	timer := time.NewTimer(duration)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return errp.WithStack(ctx.Err())
	case <-timer.C:
		return nil
	}
}
