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
	"fmt"

	"github.com/stellarhw/app-stellar-harness/api/common"
	"github.com/stellarhw/app-stellar-harness/util/errp"
)

// UnmappedIntentError is returned by Compile when an intent cannot be expressed on a device
// family. It means a layout or compiler is incomplete, and is raised before anything is executed.
type UnmappedIntentError struct {
	Model    string
	Paradigm common.Paradigm
	Intent   Intent
	Detail   string
}

// Error implements error.
func (err *UnmappedIntentError) Error() string {
	return fmt.Sprintf("intent %s has no mapping on %s (%s navigation): %s",
		err.Intent, err.Model, err.Paradigm, err.Detail)
}

// Compiler translates intents into the input events of one device family.
type Compiler interface {
	Compile(intent Intent) (Script, error)
	Model() common.Model
}

// ForModel returns the compiler for model's paradigm, configured with its layout from table.
// table may be nil to use DefaultTable.
func ForModel(model common.Model, table *Table) (Compiler, error) {
	if table == nil {
		table = DefaultTable()
	}
	layout, err := table.Layout(model.ID)
	if err != nil {
		return nil, err
	}
	switch model.Paradigm {
	case common.ButtonNav:
		return &ButtonCompiler{model: model, layout: layout}, nil
	case common.TouchNav:
		return &TouchCompiler{model: model, layout: layout}, nil
	default:
		return nil, errp.Newf("model %s has unsupported paradigm %s", model, model.Paradigm)
	}
}

// ButtonCompiler compiles intents for two-button devices.
type ButtonCompiler struct {
	model  common.Model
	layout *Layout
}

// Model implements Compiler.
func (compiler *ButtonCompiler) Model() common.Model {
	return compiler.model
}

func (compiler *ButtonCompiler) unmapped(intent Intent, format string, args ...interface{}) error {
	return errp.WithStack(&UnmappedIntentError{
		Model:    compiler.model.ID,
		Paradigm: common.ButtonNav,
		Intent:   intent,
		Detail:   fmt.Sprintf(format, args...),
	})
}

func (compiler *ButtonCompiler) press(button common.Button) Step {
	step := Press(button)
	step.Settle = compiler.layout.Settle
	return step
}

func (compiler *ButtonCompiler) repeat(script Script, button common.Button, count int) Script {
	for i := 0; i < count; i++ {
		script = append(script, compiler.press(button))
	}
	return script
}

// configure walks the whole settings menu once, toggling the given settings. It ends on the
// menu's "Back" entry.
func (compiler *ButtonCompiler) configure(intent Intent) (Script, error) {
	if len(intent.Settings) == 0 {
		return nil, compiler.unmapped(intent, "no settings given")
	}
	selected := map[Setting]bool{}
	for _, setting := range intent.Settings {
		if _, ok := compiler.layout.SettingIndex(setting); !ok {
			return nil, compiler.unmapped(intent, "%s is not in the settings menu", setting)
		}
		if selected[setting] {
			return nil, compiler.unmapped(intent, "%s given twice", setting)
		}
		selected[setting] = true
	}
	script := compiler.repeat(nil, common.ButtonRight, compiler.layout.SettingsOffset)
	script = append(script, compiler.press(common.ButtonBoth))
	for _, setting := range compiler.layout.Settings {
		if selected[setting] {
			step := compiler.press(common.ButtonBoth)
			step.Toggles = setting
			script = append(script, step)
		}
		script = append(script, compiler.press(common.ButtonRight))
	}
	return script, nil
}

// Compile implements Compiler.
func (compiler *ButtonCompiler) Compile(intent Intent) (Script, error) {
	switch intent.Kind {
	case IntentNext:
		return Script{compiler.press(common.ButtonRight)}, nil
	case IntentEnterSettings:
		script := compiler.repeat(nil, common.ButtonRight, compiler.layout.SettingsOffset)
		return append(script, compiler.press(common.ButtonBoth)), nil
	case IntentToggleSetting, IntentConfigureSettings:
		return compiler.configure(intent)
	case IntentExitSettings:
		return Script{compiler.press(common.ButtonBoth)}, nil
	case IntentAcceptRisk:
		return Script{compiler.press(common.ButtonBoth)}, nil
	case IntentRefuseRisk:
		if compiler.layout.RiskRejectOffset <= 0 {
			return nil, compiler.unmapped(intent, "layout has no risk reject offset")
		}
		script := compiler.repeat(nil, common.ButtonRight, compiler.layout.RiskRejectOffset)
		return append(script, compiler.press(common.ButtonBoth)), nil
	case IntentConfirm, IntentConfirmAddress:
		// The review is positioned on the approve or reject screen by the caller.
		step := compiler.press(common.ButtonBoth)
		step.ExpectChange = false
		return Script{step}, nil
	default:
		return nil, compiler.unmapped(intent, "unknown intent")
	}
}

// TouchCompiler compiles intents for touchscreen devices.
type TouchCompiler struct {
	model  common.Model
	layout *Layout
}

// Model implements Compiler.
func (compiler *TouchCompiler) Model() common.Model {
	return compiler.model
}

func (compiler *TouchCompiler) unmapped(intent Intent, format string, args ...interface{}) error {
	return errp.WithStack(&UnmappedIntentError{
		Model:    compiler.model.ID,
		Paradigm: common.TouchNav,
		Intent:   intent,
		Detail:   fmt.Sprintf(format, args...),
	})
}

func (compiler *TouchCompiler) touch(point Point) Step {
	step := Touch(point.X, point.Y)
	step.Settle = compiler.layout.Settle
	return step
}

// buttons returns a script touching the named targets in order.
func (compiler *TouchCompiler) buttons(intent Intent, names ...string) (Script, error) {
	script := make(Script, 0, len(names))
	for _, name := range names {
		point, ok := compiler.layout.Buttons[name]
		if !ok {
			return nil, compiler.unmapped(intent, "layout has no %q button", name)
		}
		script = append(script, compiler.touch(point))
	}
	return script, nil
}

// configure opens the settings and walks its pages, toggling the given settings. It ends on the
// last settings page.
func (compiler *TouchCompiler) configure(intent Intent) (Script, error) {
	if len(intent.Settings) == 0 {
		return nil, compiler.unmapped(intent, "no settings given")
	}
	selected := map[Setting]bool{}
	for _, setting := range intent.Settings {
		if _, _, ok := compiler.layout.SettingPage(setting); !ok {
			return nil, compiler.unmapped(intent, "%s is on no settings page", setting)
		}
		if selected[setting] {
			return nil, compiler.unmapped(intent, "%s given twice", setting)
		}
		selected[setting] = true
	}
	script, err := compiler.buttons(intent, ButtonSettings)
	if err != nil {
		return nil, err
	}
	pages := compiler.layout.SettingsPages
	for page, settings := range pages {
		for _, setting := range settings {
			if !selected[setting] {
				continue
			}
			_, point, _ := compiler.layout.SettingPage(setting)
			step := compiler.touch(point)
			step.Toggles = setting
			script = append(script, step)
		}
		if page < len(pages)-1 {
			next, err := compiler.buttons(intent, ButtonSettingsNext)
			if err != nil {
				return nil, err
			}
			script = append(script, next...)
		}
	}
	return script, nil
}

// Compile implements Compiler.
func (compiler *TouchCompiler) Compile(intent Intent) (Script, error) {
	switch intent.Kind {
	case IntentNext:
		return compiler.buttons(intent, ButtonNext)
	case IntentEnterSettings:
		return compiler.buttons(intent, ButtonSettings)
	case IntentToggleSetting, IntentConfigureSettings:
		return compiler.configure(intent)
	case IntentExitSettings:
		return compiler.buttons(intent, ButtonSettingsExit)
	case IntentAcceptRisk:
		return compiler.buttons(intent, ButtonRiskAccept)
	case IntentRefuseRisk:
		return compiler.buttons(intent, ButtonRiskReject)
	case IntentConfirm:
		if !intent.Accept {
			script, err := compiler.buttons(intent, ButtonReject, ButtonRejectConfirm)
			if err != nil {
				return nil, err
			}
			script[len(script)-1].ExpectChange = false
			return script, nil
		}
		if compiler.layout.Hold <= 0 {
			return nil, compiler.unmapped(intent, "layout has no hold duration")
		}
		script, err := compiler.buttons(intent, ButtonSign)
		if err != nil {
			return nil, err
		}
		script[0].Hold = compiler.layout.Hold
		script[0].ExpectChange = false
		return script, nil
	case IntentConfirmAddress:
		name := ButtonAddressReject
		if intent.Accept {
			name = ButtonAddressConfirm
		}
		script, err := compiler.buttons(intent, name)
		if err != nil {
			return nil, err
		}
		script[0].ExpectChange = false
		return script, nil
	default:
		return nil, compiler.unmapped(intent, "unknown intent")
	}
}
