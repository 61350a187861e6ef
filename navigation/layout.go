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
	_ "embed"
	"fmt"
	"time"

	"github.com/stellarhw/app-stellar-harness/util/errp"
	"gopkg.in/yaml.v3"
)

//go:embed layouts.yaml
var defaultLayouts []byte

// Named touch targets of a TouchNav layout.
const (
	ButtonNext           = "next"
	ButtonSettings       = "settings"
	ButtonSettingsNext   = "settingsNext"
	ButtonSettingsExit   = "settingsExit"
	ButtonRiskAccept     = "riskAccept"
	ButtonRiskReject     = "riskReject"
	ButtonSign           = "sign"
	ButtonReject         = "reject"
	ButtonRejectConfirm  = "rejectConfirm"
	ButtonAddressConfirm = "addressConfirm"
	ButtonAddressReject  = "addressReject"
)

// Point is a screen coordinate, written as [x, y] in the layout table.
type Point struct {
	X, Y int
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (point *Point) UnmarshalYAML(value *yaml.Node) error {
	var coordinates []int
	if err := value.Decode(&coordinates); err != nil {
		return errp.WithStack(err)
	}
	if len(coordinates) != 2 {
		return errp.Newf("line %d: expected [x, y], got %d values", value.Line, len(coordinates))
	}
	point.X, point.Y = coordinates[0], coordinates[1]
	return nil
}

// String implements fmt.Stringer.
func (point Point) String() string {
	return fmt.Sprintf("(%d,%d)", point.X, point.Y)
}

// Layout is the navigation data of one device family.
type Layout struct {
	// Settle is the render delay after every step.
	Settle time.Duration `yaml:"settle"`

	// SettingsOffset is the number of right clicks from the home screen to the settings entry of
	// a ButtonNav device.
	SettingsOffset int `yaml:"settingsOffset"`
	// Settings lists the settings menu of a ButtonNav device, top to bottom.
	Settings []Setting `yaml:"settings"`
	// RiskRejectOffset is the number of right clicks from the risk warning to its reject choice.
	RiskRejectOffset int `yaml:"riskRejectOffset"`

	// Hold is how long the sign button of a TouchNav device is held.
	Hold time.Duration `yaml:"hold"`
	// Buttons maps the named touch targets to coordinates.
	Buttons map[string]Point `yaml:"buttons"`
	// SettingsPages lists the settings of a TouchNav device, page by page.
	SettingsPages [][]Setting `yaml:"settingsPages"`
	// Toggles maps settings to the coordinate of their switch on their page.
	Toggles map[string]Point `yaml:"toggles"`
}

// SettingIndex returns the position of setting in the ButtonNav settings menu.
func (layout *Layout) SettingIndex(setting Setting) (int, bool) {
	for i, s := range layout.Settings {
		if s == setting {
			return i, true
		}
	}
	return 0, false
}

// SettingPage returns the TouchNav settings page of setting and its switch.
func (layout *Layout) SettingPage(setting Setting) (int, Point, bool) {
	point, ok := layout.Toggles[setting.String()]
	if !ok {
		return 0, Point{}, false
	}
	for page, settings := range layout.SettingsPages {
		for _, s := range settings {
			if s == setting {
				return page, point, true
			}
		}
	}
	return 0, Point{}, false
}

// Table is the versioned set of layouts for all device families.
type Table struct {
	// Revision is bumped whenever coordinates or offsets are re-derived.
	Revision  int               `yaml:"revision"`
	App       string            `yaml:"app"`
	Simulator string            `yaml:"simulator"`
	Models    map[string]Layout `yaml:"models"`
}

// ParseTable parses a layout table.
func ParseTable(data []byte) (*Table, error) {
	var table Table
	if err := yaml.Unmarshal(data, &table); err != nil {
		return nil, errp.WithMessage(errp.WithStack(err), "invalid layout table")
	}
	if table.Revision <= 0 {
		return nil, errp.New("layout table has no revision")
	}
	return &table, nil
}

// DefaultTable returns the built-in layout table. It panics if the embedded table is invalid,
// which only happens on a broken build.
func DefaultTable() *Table {
	table, err := ParseTable(defaultLayouts)
	if err != nil {
		panic(err)
	}
	return table
}

// Layout returns the layout of the device family with the given model id.
func (table *Table) Layout(modelID string) (*Layout, error) {
	layout, ok := table.Models[modelID]
	if !ok {
		return nil, errp.Newf("no layout for model %q in revision %d", modelID, table.Revision)
	}
	return &layout, nil
}
