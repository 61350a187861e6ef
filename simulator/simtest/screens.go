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
	"github.com/stellarhw/app-stellar-harness/api/common"
	"github.com/stellarhw/app-stellar-harness/navigation"
)

var settingTitles = map[navigation.Setting]string{
	navigation.SettingHashSigning:     "Hash signing",
	navigation.SettingSequenceNumber:  "Sequence number",
	navigation.SettingCustomContracts: "Custom contracts",
}

func enabledText(enabled bool) string {
	if enabled {
		return "Enabled"
	}
	return "Disabled"
}

// homePages returns the pages of the ButtonNav home menu. The settings entry is at the layout's
// settings offset.
func (device *Device) homePages() [][]string {
	pages := [][]string{{"Stellar", device.model.IdleText}}
	for len(pages) < device.layout.SettingsOffset {
		pages = append(pages, []string{"About"})
	}
	return append(pages, []string{"Settings"}, []string{"Version", AppVersion}, []string{"Quit"})
}

func (device *Device) homeLines() []string {
	if device.model.Paradigm == common.TouchNav {
		return []string{"Stellar", device.model.IdleText}
	}
	return device.homePages()[device.page]
}

func (device *Device) settingsLines() []string {
	if device.model.Paradigm == common.TouchNav {
		lines := []string{"Settings"}
		for _, setting := range device.layout.SettingsPages[device.page] {
			lines = append(lines, settingTitles[setting], enabledText(device.settings[setting]))
		}
		return lines
	}
	if device.page == len(device.layout.Settings) {
		return []string{"Back"}
	}
	setting := device.layout.Settings[device.page]
	return []string{settingTitles[setting], enabledText(device.settings[setting])}
}

func (device *Device) riskLines() []string {
	if device.model.Paradigm == common.TouchNav {
		return []string{"Security risk detected", "Unverified contract", "Accept risk and continue"}
	}
	if device.page == 0 {
		return []string{"Unverified contract", "Accept risk"}
	}
	return []string{"Go back"}
}

func wrap(index, length int) int {
	return (index%length + length) % length
}

func (device *Device) pressHome(button common.Button) {
	pages := device.homePages()
	switch button {
	case common.ButtonLeft:
		device.page = wrap(device.page-1, len(pages))
	case common.ButtonRight:
		device.page = wrap(device.page+1, len(pages))
	case common.ButtonBoth:
		if device.page == device.layout.SettingsOffset {
			device.mode = modeSettings
			device.page = 0
		}
	}
}

func (device *Device) pressSettings(button common.Button) {
	entries := len(device.layout.Settings) + 1
	switch button {
	case common.ButtonLeft:
		device.page = wrap(device.page-1, entries)
	case common.ButtonRight:
		device.page = wrap(device.page+1, entries)
	case common.ButtonBoth:
		if device.page == len(device.layout.Settings) {
			device.mode = modeHome
			device.page = 0
			return
		}
		setting := device.layout.Settings[device.page]
		device.settings[setting] = !device.settings[setting]
	}
}

func (device *Device) pressRisk(button common.Button) {
	switch button {
	case common.ButtonLeft:
		device.page = wrap(device.page-1, 2)
	case common.ButtonRight:
		device.page = wrap(device.page+1, 2)
	case common.ButtonBoth:
		if device.page == 0 {
			device.mode = modeReview
			device.page = 0
			return
		}
		device.finish(false)
	}
}

func (device *Device) pressReview(button common.Button) {
	last := len(device.review.pages) - 1
	switch button {
	case common.ButtonLeft:
		device.page = max(device.page-1, 0)
	case common.ButtonRight:
		device.page = min(device.page+1, last)
	case common.ButtonBoth:
		switch device.page {
		case last - 1:
			device.finish(true)
		case last:
			device.finish(false)
		}
	}
}

func (device *Device) button(name string) (navigation.Point, bool) {
	point, ok := device.layout.Buttons[name]
	return point, ok
}

func (device *Device) touched(point navigation.Point, name string) bool {
	target, ok := device.button(name)
	return ok && target == point
}

func (device *Device) touchHome(point navigation.Point) {
	if device.touched(point, navigation.ButtonSettings) {
		device.mode = modeSettings
		device.page = 0
	}
}

func (device *Device) touchSettings(point navigation.Point) {
	for _, setting := range device.layout.SettingsPages[device.page] {
		if target, ok := device.layout.Toggles[setting.String()]; ok && target == point {
			device.settings[setting] = !device.settings[setting]
			return
		}
	}
	switch {
	case device.touched(point, navigation.ButtonSettingsNext):
		if device.page+1 < len(device.layout.SettingsPages) {
			device.page++
		}
	case device.touched(point, navigation.ButtonSettingsExit):
		device.mode = modeHome
		device.page = 0
	}
}

func (device *Device) touchRisk(point navigation.Point) {
	switch {
	case device.touched(point, navigation.ButtonRiskAccept):
		device.mode = modeReview
		device.page = 0
	case device.touched(point, navigation.ButtonRiskReject):
		device.finish(false)
	}
}

func (device *Device) touchReview(point navigation.Point, held bool) {
	last := device.page == len(device.review.pages)-1
	if device.review.address {
		switch {
		case last && device.touched(point, navigation.ButtonAddressConfirm):
			device.finish(true)
		case last && device.touched(point, navigation.ButtonAddressReject):
			device.finish(false)
		case !last && device.touched(point, navigation.ButtonNext):
			device.page++
		}
		return
	}
	switch {
	case device.touched(point, navigation.ButtonReject):
		device.mode = modeRejectConfirm
	case last && held && device.touched(point, navigation.ButtonSign):
		device.finish(true)
	case !last && device.touched(point, navigation.ButtonNext):
		device.page++
	}
}

func (device *Device) touchRejectConfirm(point navigation.Point) {
	if device.touched(point, navigation.ButtonRejectConfirm) {
		device.finish(false)
		return
	}
	device.mode = modeReview
}
