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

// Package navigation compiles device independent navigation intents into the button presses or
// touches of one device family, and executes them against a simulated device.
package navigation

import (
	"fmt"
	"strings"
	"time"

	"github.com/stellarhw/app-stellar-harness/api/common"
	"github.com/stellarhw/app-stellar-harness/util/errp"
)

// Setting is an app setting that can be toggled from the settings menu.
type Setting int

const (
	// SettingNone is the zero value, used by steps that toggle nothing.
	SettingNone Setting = iota
	// SettingHashSigning allows signing of raw hashes.
	SettingHashSigning
	// SettingSequenceNumber shows the transaction sequence number during review.
	SettingSequenceNumber
	// SettingCustomContracts allows signing of contract invocations the app cannot decode.
	SettingCustomContracts
)

var settingNames = map[Setting]string{
	SettingNone:            "none",
	SettingHashSigning:     "hash-signing",
	SettingSequenceNumber:  "sequence-number",
	SettingCustomContracts: "custom-contracts",
}

// String implements fmt.Stringer.
func (setting Setting) String() string {
	if name, ok := settingNames[setting]; ok {
		return name
	}
	return fmt.Sprintf("Setting(%d)", int(setting))
}

// ParseSetting is the inverse of Setting.String.
func ParseSetting(name string) (Setting, error) {
	for setting, settingName := range settingNames {
		if setting != SettingNone && settingName == name {
			return setting, nil
		}
	}
	return SettingNone, errp.Newf("unknown setting %q", name)
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (setting *Setting) UnmarshalText(text []byte) error {
	parsed, err := ParseSetting(string(text))
	if err != nil {
		return err
	}
	*setting = parsed
	return nil
}

// StepKind tells which variant of Step is set.
type StepKind int

const (
	// StepPress presses a physical button.
	StepPress StepKind = iota
	// StepTouch touches the screen.
	StepTouch
)

// Step is one input event.
type Step struct {
	Kind StepKind
	// Button is set for StepPress.
	Button common.Button
	// X and Y are set for StepTouch.
	X, Y int
	// Hold is how long a touch is held. Zero is a tap.
	Hold time.Duration
	// Settle is the time given to the device to render before the screen is polled.
	Settle time.Duration
	// ExpectChange makes the executor wait for the screen to change after the step.
	ExpectChange bool
	// Toggles is the setting flipped by the step, if any.
	Toggles Setting
}

// Press returns a step pressing button.
func Press(button common.Button) Step {
	return Step{Kind: StepPress, Button: button, ExpectChange: true}
}

// Touch returns a step tapping (x, y).
func Touch(x, y int) Step {
	return Step{Kind: StepTouch, X: x, Y: y, ExpectChange: true}
}

// String returns a compact, stable representation of the step, e.g. "press(both)" or
// "touch(340,140) toggles hash-signing".
func (step Step) String() string {
	var result string
	switch step.Kind {
	case StepPress:
		result = fmt.Sprintf("press(%s)", step.Button)
	case StepTouch:
		if step.Hold > 0 {
			result = fmt.Sprintf("hold(%d,%d)", step.X, step.Y)
		} else {
			result = fmt.Sprintf("touch(%d,%d)", step.X, step.Y)
		}
	default:
		result = fmt.Sprintf("StepKind(%d)", int(step.Kind))
	}
	if step.Toggles != SettingNone {
		result += " toggles " + step.Toggles.String()
	}
	return result
}

// Script is an ordered sequence of steps. Scripts are values and can be replayed.
type Script []Step

// Strings returns the string of every step.
func (script Script) Strings() []string {
	result := make([]string, len(script))
	for i, step := range script {
		result[i] = step.String()
	}
	return result
}

// String implements fmt.Stringer.
func (script Script) String() string {
	return strings.Join(script.Strings(), ", ")
}

// Toggled returns the settings toggled by the script, in order.
func (script Script) Toggled() []Setting {
	var result []Setting
	for _, step := range script {
		if step.Toggles != SettingNone {
			result = append(result, step.Toggles)
		}
	}
	return result
}
