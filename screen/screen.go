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

// Package screen synchronizes with the screen of a simulated device, which renders asynchronously
// to the APDUs and button events sent to it.
package screen

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/stellarhw/app-stellar-harness/util/errp"
)

const (
	// DefaultTimeout bounds a wait when the caller does not choose a budget.
	DefaultTimeout = 5 * time.Second
	// MaxTimeout caps every wait. Long contract invocations take minutes to render on the
	// simulator.
	MaxTimeout = time.Hour
	// DefaultInterval is the polling interval.
	DefaultInterval = 100 * time.Millisecond
)

// Snapshot is one capture of the screen. Snapshots are compared by content only.
type Snapshot struct {
	// Data is the PNG encoded screen.
	Data  []byte
	Taken time.Time
}

// Equal returns whether both snapshots show the same screen.
func (snapshot Snapshot) Equal(other Snapshot) bool {
	return bytes.Equal(snapshot.Data, other.Data)
}

// Source captures the current screen.
type Source interface {
	Snapshot(ctx context.Context) (Snapshot, error)
}

// TextSource reports the text drawn on the current screen.
type TextSource interface {
	ScreenText(ctx context.Context) ([]string, error)
}

// Options configures a wait. The zero value uses DefaultTimeout and DefaultInterval.
type Options struct {
	Timeout  time.Duration
	Interval time.Duration
}

func (options Options) normalized() Options {
	if options.Timeout <= 0 {
		options.Timeout = DefaultTimeout
	}
	if options.Timeout > MaxTimeout {
		options.Timeout = MaxTimeout
	}
	if options.Interval <= 0 {
		options.Interval = DefaultInterval
	}
	return options
}

// TimeoutError is returned when a condition did not hold within its budget.
type TimeoutError struct {
	Condition string
	Budget    time.Duration
	Waited    time.Duration
}

// Error implements error.
func (err *TimeoutError) Error() string {
	return fmt.Sprintf("timeout waiting for %s: waited %s, budget %s",
		err.Condition, err.Waited.Round(time.Millisecond), err.Budget)
}

// Await polls predicate every interval until it returns true. It returns a *TimeoutError once
// timeout has elapsed without the predicate holding, and never before. A predicate error ends the
// wait immediately.
func Await(
	ctx context.Context,
	timeout, interval time.Duration,
	predicate func(context.Context) (bool, error),
) error {
	return await(ctx, Options{Timeout: timeout, Interval: interval}, "condition", predicate)
}

func await(
	ctx context.Context,
	options Options,
	condition string,
	predicate func(context.Context) (bool, error),
) error {
	options = options.normalized()
	start := time.Now()
	timer := time.NewTimer(0)
	defer timer.Stop()
	<-timer.C
	for {
		ok, err := predicate(ctx)
		if err != nil {
			return err
		}
		if ok {
			return nil
		}
		waited := time.Since(start)
		if waited >= options.Timeout {
			return errp.WithStack(&TimeoutError{
				Condition: condition,
				Budget:    options.Timeout,
				Waited:    waited,
			})
		}
		timer.Reset(min(options.Interval, options.Timeout-waited))
		select {
		case <-ctx.Done():
			return errp.WithStack(ctx.Err())
		case <-timer.C:
		}
	}
}

// WaitForChange polls src until its screen differs from previous and returns the new snapshot.
func WaitForChange(ctx context.Context, src Source, previous Snapshot, options Options) (Snapshot, error) {
	var current Snapshot
	err := await(ctx, options, "screen change", func(ctx context.Context) (bool, error) {
		snapshot, err := src.Snapshot(ctx)
		if err != nil {
			return false, err
		}
		current = snapshot
		return !snapshot.Equal(previous), nil
	})
	if err != nil {
		return Snapshot{}, err
	}
	return current, nil
}

// WaitForText polls src until one of its text lines contains one of texts, and returns the text
// that matched.
func WaitForText(ctx context.Context, src TextSource, texts []string, options Options) (string, error) {
	if len(texts) == 0 {
		return "", errp.New("no text to wait for")
	}
	var matched string
	condition := fmt.Sprintf("screen text %q", texts)
	err := await(ctx, options, condition, func(ctx context.Context) (bool, error) {
		lines, err := src.ScreenText(ctx)
		if err != nil {
			return false, err
		}
		for _, line := range lines {
			for _, text := range texts {
				if strings.Contains(line, text) {
					matched = text
					return true, nil
				}
			}
		}
		return false, nil
	})
	if err != nil {
		return "", err
	}
	return matched, nil
}
