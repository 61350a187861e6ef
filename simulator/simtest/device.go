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

// Package simtest provides an in-process simulated device running a model of the Stellar app, so
// that everything above the simulator can be tested without Speculos.
package simtest

import (
	"context"
	"sync"
	"time"

	"github.com/pion/logging"
	"github.com/stellarhw/app-stellar-harness/api/common"
	"github.com/stellarhw/app-stellar-harness/api/stellar"
	"github.com/stellarhw/app-stellar-harness/navigation"
	"github.com/stellarhw/app-stellar-harness/reference"
	"github.com/stellarhw/app-stellar-harness/screen"
	"github.com/stellarhw/app-stellar-harness/simulator"
	"github.com/stellarhw/app-stellar-harness/util/errp"
)

// AppVersion is the version the device reports.
const AppVersion = "5.0.0"

// Faults injects failures into a Device.
type Faults struct {
	// FailStart makes Start fail.
	FailStart bool
	// FailInput makes the n-th button press or touch and all following ones fail. Zero disables it.
	FailInput int
	// PanicInput makes the n-th button press or touch panic. Zero disables it.
	PanicInput int
	// FreezeScreen keeps the screenshot constant while the app keeps working.
	FreezeScreen bool
	// CorruptSignature flips a bit of every signature.
	CorruptSignature bool
	// FailClose makes Close return an error. The device is closed nonetheless.
	FailClose bool
}

// Config configures a Device.
type Config struct {
	// Seed is the mnemonic keys are derived from. Defaults to reference.TestMnemonic.
	Seed   string
	Faults Faults
	// Layout defaults to the layout of the model in navigation.DefaultTable.
	Layout *navigation.Layout
	// LoggerFactory may be nil.
	LoggerFactory logging.LoggerFactory
}

type mode int

const (
	modeHome mode = iota
	modeSettings
	modeRisk
	modeReview
	modeRejectConfirm
)

type decision struct {
	approve bool
	review  *review
}

// Device is a simulated device. It implements simulator.Simulator.
type Device struct {
	model  common.Model
	layout *navigation.Layout
	faults Faults
	seed   []byte
	log    logging.LeveledLogger

	mutex    sync.Mutex
	started  bool
	closed   bool
	closedCh chan struct{}
	inputs   int
	settings map[navigation.Setting]bool

	mode mode
	// page is the current page of the home screen, the settings menu, the risk warning or the
	// review, depending on mode.
	page    int
	review  *review
	pending *pendingRequest

	decisions chan decision
	frozen    []byte
	renderer  *renderer
}

var _ simulator.Simulator = (*Device)(nil)

// New creates an unstarted device of the given family.
func New(model common.Model, config Config) (*Device, error) {
	if config.Seed == "" {
		config.Seed = reference.TestMnemonic
	}
	if config.Layout == nil {
		layout, err := navigation.DefaultTable().Layout(model.ID)
		if err != nil {
			return nil, err
		}
		config.Layout = layout
	}
	if config.LoggerFactory == nil {
		config.LoggerFactory = logging.NewDefaultLoggerFactory()
	}
	return &Device{
		model:     model,
		layout:    config.Layout,
		faults:    config.Faults,
		seed:      reference.SeedFromMnemonic(config.Seed, ""),
		log:       config.LoggerFactory.NewLogger("simtest"),
		closedCh:  make(chan struct{}),
		settings:  map[navigation.Setting]bool{},
		decisions: make(chan decision, 1),
		renderer:  newRenderer(model.Width, model.Height),
	}, nil
}

// Model implements simulator.Simulator.
func (device *Device) Model() common.Model {
	return device.model
}

// Start implements simulator.Simulator.
func (device *Device) Start(context.Context) error {
	device.mutex.Lock()
	defer device.mutex.Unlock()
	if device.started {
		return errp.New("device already started")
	}
	if device.faults.FailStart {
		return errp.New("injected start failure")
	}
	device.started = true
	device.mode = modeHome
	device.page = 0
	return nil
}

// Close implements simulator.Simulator.
func (device *Device) Close() error {
	device.mutex.Lock()
	defer device.mutex.Unlock()
	if !device.closed {
		device.closed = true
		close(device.closedCh)
	}
	if device.faults.FailClose {
		return errp.New("injected close failure")
	}
	return nil
}

// Setting returns whether an app setting is currently enabled.
func (device *Device) Setting(setting navigation.Setting) bool {
	device.mutex.Lock()
	defer device.mutex.Unlock()
	return device.settings[setting]
}

// Communication implements simulator.Simulator.
func (device *Device) Communication() stellar.Communication {
	return &communication{device: device}
}

func (device *Device) checkRunning() error {
	if !device.started {
		return errp.New("device not started")
	}
	if device.closed {
		return errp.New("device closed")
	}
	return nil
}

// lines returns the text of the current screen. The caller holds the mutex.
func (device *Device) lines() []string {
	switch device.mode {
	case modeSettings:
		return device.settingsLines()
	case modeRisk:
		return device.riskLines()
	case modeReview:
		return device.review.pages[device.page]
	case modeRejectConfirm:
		return []string{"Reject " + device.review.noun + "?", "Yes, reject"}
	default:
		return device.homeLines()
	}
}

// Snapshot implements simulator.Simulator.
func (device *Device) Snapshot(context.Context) (screen.Snapshot, error) {
	device.mutex.Lock()
	defer device.mutex.Unlock()
	if err := device.checkRunning(); err != nil {
		return screen.Snapshot{}, err
	}
	data, err := device.renderer.render(device.lines())
	if err != nil {
		return screen.Snapshot{}, err
	}
	if device.faults.FreezeScreen {
		if device.frozen == nil {
			device.frozen = data
		}
		data = device.frozen
	}
	return screen.Snapshot{Data: data, Taken: time.Now()}, nil
}

// ScreenText implements simulator.Simulator.
func (device *Device) ScreenText(context.Context) ([]string, error) {
	device.mutex.Lock()
	defer device.mutex.Unlock()
	if err := device.checkRunning(); err != nil {
		return nil, err
	}
	return append([]string(nil), device.lines()...), nil
}

// input counts an input event and applies the injected faults. The caller holds the mutex.
func (device *Device) input() error {
	if err := device.checkRunning(); err != nil {
		return err
	}
	device.inputs++
	if device.faults.PanicInput > 0 && device.inputs == device.faults.PanicInput {
		panic("simtest: injected input panic")
	}
	if device.faults.FailInput > 0 && device.inputs >= device.faults.FailInput {
		return errp.Newf("injected failure of input %d", device.inputs)
	}
	return nil
}

func (device *Device) lockedInput() error {
	device.mutex.Lock()
	defer device.mutex.Unlock()
	return device.input()
}

// Press implements simulator.Simulator.
func (device *Device) Press(_ context.Context, button common.Button) error {
	device.mutex.Lock()
	defer device.mutex.Unlock()
	if err := device.input(); err != nil {
		return err
	}
	if device.model.Paradigm != common.ButtonNav {
		return errp.Newf("%s has no buttons", device.model)
	}
	switch device.mode {
	case modeHome:
		device.pressHome(button)
	case modeSettings:
		device.pressSettings(button)
	case modeRisk:
		device.pressRisk(button)
	case modeReview:
		device.pressReview(button)
	}
	return nil
}

// Touch implements simulator.Simulator.
func (device *Device) Touch(ctx context.Context, x, y int, hold time.Duration) error {
	return device.touch(ctx, x, y, hold, true)
}

// touch handles a touch. If wait is false, the hold is taken to have happened already.
func (device *Device) touch(ctx context.Context, x, y int, hold time.Duration, wait bool) error {
	if err := device.lockedInput(); err != nil {
		return err
	}
	if hold > 0 && wait {
		timer := time.NewTimer(min(hold, holdDuration))
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return errp.WithStack(ctx.Err())
		case <-timer.C:
		}
	}
	device.mutex.Lock()
	defer device.mutex.Unlock()
	if err := device.checkRunning(); err != nil {
		return err
	}
	if device.model.Paradigm != common.TouchNav {
		return errp.Newf("%s has no touchscreen", device.model)
	}
	point := navigation.Point{X: x, Y: y}
	switch device.mode {
	case modeHome:
		device.touchHome(point)
	case modeSettings:
		device.touchSettings(point)
	case modeRisk:
		device.touchRisk(point)
	case modeReview:
		device.touchReview(point, hold > 0)
	case modeRejectConfirm:
		device.touchRejectConfirm(point)
	}
	return nil
}

// holdDuration is how long a hold is simulated. Long enough to be observable, short enough for
// unit tests.
const holdDuration = 10 * time.Millisecond

// finish ends the review with the user's decision. The caller holds the mutex.
func (device *Device) finish(approve bool) {
	decided := decision{approve: approve, review: device.review}
	device.mode = modeHome
	device.page = 0
	device.review = nil
	select {
	case device.decisions <- decided:
	default:
		device.log.Warnf("decision dropped, no request is waiting")
	}
}

type communication struct {
	device *Device
}

func (communication *communication) Query(apdu []byte) ([]byte, error) {
	return communication.device.query(apdu)
}

func (communication *communication) Close() {}
