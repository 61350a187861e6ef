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

package simtest

import (
	"context"
	"sync"

	"github.com/pion/logging"
	"github.com/stellarhw/app-stellar-harness/api/common"
	"github.com/stellarhw/app-stellar-harness/simulator"
)

// Counting is a simulator.Factory of Devices that counts how often they are started and closed.
type Counting struct {
	// Faults returns the faults of the n-th created device. May be nil.
	Faults        func(model common.Model, n int) Faults
	Seed          string
	LoggerFactory logging.LoggerFactory

	mutex   sync.Mutex
	devices []*Device
	starts  int
	closes  int
}

var _ simulator.Factory = (*Counting)(nil)

// New implements simulator.Factory.
func (counting *Counting) New(model common.Model) (simulator.Simulator, error) {
	counting.mutex.Lock()
	defer counting.mutex.Unlock()
	var faults Faults
	if counting.Faults != nil {
		faults = counting.Faults(model, len(counting.devices))
	}
	device, err := New(model, Config{
		Seed:          counting.Seed,
		Faults:        faults,
		LoggerFactory: counting.LoggerFactory,
	})
	if err != nil {
		return nil, err
	}
	counting.devices = append(counting.devices, device)
	return &counted{Device: device, counting: counting}, nil
}

// Created returns the devices created so far.
func (counting *Counting) Created() []*Device {
	counting.mutex.Lock()
	defer counting.mutex.Unlock()
	return append([]*Device(nil), counting.devices...)
}

// Starts returns the number of Start calls.
func (counting *Counting) Starts() int {
	counting.mutex.Lock()
	defer counting.mutex.Unlock()
	return counting.starts
}

// Closes returns the number of Close calls.
func (counting *Counting) Closes() int {
	counting.mutex.Lock()
	defer counting.mutex.Unlock()
	return counting.closes
}

type counted struct {
	*Device
	counting *Counting
}

func (c *counted) Start(ctx context.Context) error {
	c.counting.mutex.Lock()
	c.counting.starts++
	c.counting.mutex.Unlock()
	return c.Device.Start(ctx)
}

func (c *counted) Close() error {
	c.counting.mutex.Lock()
	c.counting.closes++
	c.counting.mutex.Unlock()
	return c.Device.Close()
}
