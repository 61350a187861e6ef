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

// Package simulator runs simulated devices. Every test case owns exactly one Simulator and closes
// it on every exit path.
package simulator

import (
	"context"
	"net/http"
	"time"

	"github.com/pion/logging"
	"github.com/stellarhw/app-stellar-harness/api/common"
	"github.com/stellarhw/app-stellar-harness/api/stellar"
	"github.com/stellarhw/app-stellar-harness/navigation"
	"github.com/stellarhw/app-stellar-harness/reference"
	"github.com/stellarhw/app-stellar-harness/screen"
)

// Simulator is one simulated device running the app.
type Simulator interface {
	navigation.Device
	screen.TextSource

	// Start boots the device. Close must be called even if Start fails.
	Start(ctx context.Context) error
	// Close stops the device and releases its ports. It is idempotent.
	Close() error
	// Communication is the APDU channel to the app. Only valid after Start succeeded.
	Communication() stellar.Communication
	Model() common.Model
}

// Factory creates one unstarted Simulator per call.
type Factory interface {
	New(model common.Model) (Simulator, error)
}

// FactoryFunc adapts a function to Factory.
type FactoryFunc func(model common.Model) (Simulator, error)

// New implements Factory.
func (f FactoryFunc) New(model common.Model) (Simulator, error) {
	return f(model)
}

// Config configures Speculos instances.
type Config struct {
	// Command runs Speculos, e.g. ["speculos"] or ["python3", "-m", "speculos"].
	Command []string
	// ELFDir contains the app and plugin ELF files, named as in common.Model.
	ELFDir string
	// Seed is the mnemonic the device is started with.
	Seed string
	// Display is the Speculos display backend.
	Display string
	// ExtraArgs are appended to the Speculos command line.
	ExtraArgs []string
	// StartTimeout bounds the time until both ports accept connections.
	StartTimeout time.Duration
	// StopGrace is the time between SIGTERM and SIGKILL.
	StopGrace time.Duration
	// HTTPClient talks to the Speculos REST API. If nil, a client with a short timeout is used.
	HTTPClient *http.Client
	// LoggerFactory may be nil.
	LoggerFactory logging.LoggerFactory
}

// DefaultConfig returns the configuration used by the harness unless overridden.
func DefaultConfig() Config {
	return Config{
		Command:      []string{"speculos"},
		ELFDir:       "elfs",
		Seed:         reference.TestMnemonic,
		Display:      "headless",
		StartTimeout: time.Minute,
		StopGrace:    5 * time.Second,
	}
}

// SpeculosFactory creates Speculos instances.
type SpeculosFactory struct {
	Config Config
}

// New implements Factory.
func (factory *SpeculosFactory) New(model common.Model) (Simulator, error) {
	return NewInstance(model, factory.Config), nil
}
