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
	"strings"
)

// IntentKind enumerates what a caller can ask of the device, independent of how the device is
// driven.
type IntentKind int

const (
	// IntentNext advances to the next screen.
	IntentNext IntentKind = iota
	// IntentEnterSettings opens the settings menu from the home screen.
	IntentEnterSettings
	// IntentToggleSetting flips one setting, starting from the home screen.
	IntentToggleSetting
	// IntentConfigureSettings flips a set of settings in one pass through the menu, starting from
	// the home screen.
	IntentConfigureSettings
	// IntentExitSettings leaves the settings menu after IntentToggleSetting or
	// IntentConfigureSettings.
	IntentExitSettings
	// IntentAcceptRisk continues past the warning shown for unverified content.
	IntentAcceptRisk
	// IntentRefuseRisk aborts at the warning shown for unverified content.
	IntentRefuseRisk
	// IntentConfirm approves or rejects a request on its terminal review screen.
	IntentConfirm
	// IntentConfirmAddress approves or rejects an address on its verification screen.
	IntentConfirmAddress
)

var intentKindNames = map[IntentKind]string{
	IntentNext:              "next",
	IntentEnterSettings:     "enter-settings",
	IntentToggleSetting:     "toggle-setting",
	IntentConfigureSettings: "configure-settings",
	IntentExitSettings:      "exit-settings",
	IntentAcceptRisk:        "accept-risk",
	IntentRefuseRisk:        "refuse-risk",
	IntentConfirm:           "confirm",
	IntentConfirmAddress:    "confirm-address",
}

// String implements fmt.Stringer.
func (kind IntentKind) String() string {
	if name, ok := intentKindNames[kind]; ok {
		return name
	}
	return fmt.Sprintf("IntentKind(%d)", int(kind))
}

// Intent is a navigation request. Use the constructors below.
type Intent struct {
	Kind IntentKind
	// Settings is set for IntentToggleSetting (one entry) and IntentConfigureSettings.
	Settings []Setting
	// Accept is set for IntentConfirm and IntentConfirmAddress.
	Accept bool
}

// Next advances to the next screen.
func Next() Intent { return Intent{Kind: IntentNext} }

// EnterSettings opens the settings menu.
func EnterSettings() Intent { return Intent{Kind: IntentEnterSettings} }

// ToggleSetting flips setting.
func ToggleSetting(setting Setting) Intent {
	return Intent{Kind: IntentToggleSetting, Settings: []Setting{setting}}
}

// ConfigureSettings flips every given setting.
func ConfigureSettings(settings ...Setting) Intent {
	return Intent{Kind: IntentConfigureSettings, Settings: settings}
}

// ExitSettings leaves the settings menu.
func ExitSettings() Intent { return Intent{Kind: IntentExitSettings} }

// AcceptRisk continues past the risk warning.
func AcceptRisk() Intent { return Intent{Kind: IntentAcceptRisk} }

// RefuseRisk aborts at the risk warning.
func RefuseRisk() Intent { return Intent{Kind: IntentRefuseRisk} }

// Confirm approves (accept) or rejects the reviewed request.
func Confirm(accept bool) Intent { return Intent{Kind: IntentConfirm, Accept: accept} }

// ConfirmAddress approves (accept) or rejects the displayed address.
func ConfirmAddress(accept bool) Intent {
	return Intent{Kind: IntentConfirmAddress, Accept: accept}
}

// String implements fmt.Stringer.
func (intent Intent) String() string {
	switch intent.Kind {
	case IntentToggleSetting, IntentConfigureSettings:
		names := make([]string, len(intent.Settings))
		for i, setting := range intent.Settings {
			names[i] = setting.String()
		}
		return fmt.Sprintf("%s(%s)", intent.Kind, strings.Join(names, ","))
	case IntentConfirm, IntentConfirmAddress:
		if intent.Accept {
			return intent.Kind.String() + "(accept)"
		}
		return intent.Kind.String() + "(reject)"
	default:
		return intent.Kind.String()
	}
}
