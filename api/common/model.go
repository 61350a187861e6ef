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

// Package common contains the static description of the supported device families.
package common

import (
	"path/filepath"
	"strings"

	"github.com/stellarhw/app-stellar-harness/util/errp"
)

// Paradigm is the way a device family is driven by its user.
type Paradigm int

const (
	// ButtonNav devices have two physical buttons; pressing both selects.
	ButtonNav Paradigm = iota
	// TouchNav devices have a touchscreen driven by absolute coordinates.
	TouchNav
)

// String implements fmt.Stringer.
func (paradigm Paradigm) String() string {
	switch paradigm {
	case ButtonNav:
		return "button"
	case TouchNav:
		return "touch"
	default:
		return "unknown"
	}
}

// Button is a physical button on a ButtonNav device.
type Button int

const (
	// ButtonLeft is the left button.
	ButtonLeft Button = iota
	// ButtonRight is the right button.
	ButtonRight
	// ButtonBoth presses both buttons at once.
	ButtonBoth
)

// String returns the name the simulator API uses for the button.
func (button Button) String() string {
	switch button {
	case ButtonLeft:
		return "left"
	case ButtonRight:
		return "right"
	case ButtonBoth:
		return "both"
	default:
		return "unknown"
	}
}

// Model describes one hardware family. Models are immutable.
type Model struct {
	// ID is the simulator model name, e.g. "nanos".
	ID string
	// Prefix is used to name golden snapshot directories.
	Prefix   string
	Paradigm Paradigm
	// BinaryName is the app ELF file name, relative to the ELF directory.
	BinaryName string
	// PluginBinaryName is the companion plugin ELF, empty if the family has none.
	PluginBinaryName string
	// IdleText is shown on the home screen once the app has booted.
	IdleText string
	// ApproveTexts mark the screen on which a review is approved.
	ApproveTexts []string
	// RejectTexts mark the screen on which a review is rejected.
	RejectTexts []string
	// AddressApproveTexts and AddressRejectTexts are the equivalents for address verification.
	AddressApproveTexts []string
	AddressRejectTexts  []string
	// MaxDataSize is the largest payload the app accepts, as reported by its configuration.
	MaxDataSize int
	Width       int
	Height      int
}

var (
	buttonApproveTexts = []string{"Finalize", "Approve"}
	buttonRejectTexts  = []string{"Reject", "Cancel"}
	touchTerminalTexts = []string{"Hold to", "Sign transaction?", "Sign "}
	touchAddressTexts  = []string{"Confirm address?"}
)

const (
	// ModelNanoS is the Nano S.
	ModelNanoS = "nanos"
	// ModelNanoX is the Nano X.
	ModelNanoX = "nanox"
	// ModelNanoSPlus is the Nano S Plus.
	ModelNanoSPlus = "nanosp"
	// ModelStax is the Stax.
	ModelStax = "stax"
	// ModelFlex is the Flex.
	ModelFlex = "flex"
)

var models = []Model{
	{
		ID:                  ModelNanoS,
		Prefix:              "S",
		Paradigm:            ButtonNav,
		BinaryName:          "stellar_nanos.elf",
		IdleText:            "is ready",
		ApproveTexts:        buttonApproveTexts,
		RejectTexts:         buttonRejectTexts,
		AddressApproveTexts: []string{"Approve"},
		AddressRejectTexts:  []string{"Reject"},
		MaxDataSize:         8 * 1024,
		Width:               128,
		Height:              32,
	},
	{
		ID:                  ModelNanoX,
		Prefix:              "X",
		Paradigm:            ButtonNav,
		BinaryName:          "stellar_nanox.elf",
		PluginBinaryName:    "plugin_nanox.elf",
		IdleText:            "is ready",
		ApproveTexts:        buttonApproveTexts,
		RejectTexts:         buttonRejectTexts,
		AddressApproveTexts: []string{"Approve"},
		AddressRejectTexts:  []string{"Reject"},
		MaxDataSize:         4 * 1024,
		Width:               128,
		Height:              64,
	},
	{
		ID:                  ModelNanoSPlus,
		Prefix:              "SP",
		Paradigm:            ButtonNav,
		BinaryName:          "stellar_nanosp.elf",
		PluginBinaryName:    "plugin_nanosp.elf",
		IdleText:            "is ready",
		ApproveTexts:        buttonApproveTexts,
		RejectTexts:         buttonRejectTexts,
		AddressApproveTexts: []string{"Approve"},
		AddressRejectTexts:  []string{"Reject"},
		MaxDataSize:         8 * 1024,
		Width:               128,
		Height:              64,
	},
	{
		ID:                  ModelStax,
		Prefix:              "ST",
		Paradigm:            TouchNav,
		BinaryName:          "stellar_stax.elf",
		PluginBinaryName:    "plugin_stax.elf",
		IdleText:            "This app enables signing",
		ApproveTexts:        touchTerminalTexts,
		RejectTexts:         touchTerminalTexts,
		AddressApproveTexts: touchAddressTexts,
		AddressRejectTexts:  touchAddressTexts,
		MaxDataSize:         8 * 1024,
		Width:               400,
		Height:              672,
	},
	{
		ID:                  ModelFlex,
		Prefix:              "FL",
		Paradigm:            TouchNav,
		BinaryName:          "stellar_flex.elf",
		PluginBinaryName:    "plugin_flex.elf",
		IdleText:            "This app enables signing",
		ApproveTexts:        touchTerminalTexts,
		RejectTexts:         touchTerminalTexts,
		AddressApproveTexts: touchAddressTexts,
		AddressRejectTexts:  touchAddressTexts,
		MaxDataSize:         8 * 1024,
		Width:               480,
		Height:              600,
	},
}

// Models returns all supported device families, in a stable order.
func Models() []Model {
	result := make([]Model, len(models))
	copy(result, models)
	return result
}

// ModelByID looks up a device family by its simulator model name.
func ModelByID(id string) (Model, error) {
	for _, model := range models {
		if model.ID == id {
			return model, nil
		}
	}
	return Model{}, errp.Newf("unknown device model %q", id)
}

// ModelsByID resolves a list of model ids. An empty list selects every model.
func ModelsByID(ids []string) ([]Model, error) {
	if len(ids) == 0 {
		return Models(), nil
	}
	result := make([]Model, 0, len(ids))
	for _, id := range ids {
		model, err := ModelByID(strings.TrimSpace(id))
		if err != nil {
			return nil, err
		}
		result = append(result, model)
	}
	return result, nil
}

// BinaryPath returns the location of the app ELF inside elfDir.
func (model Model) BinaryPath(elfDir string) string {
	return filepath.Join(elfDir, model.BinaryName)
}

// PluginBinaryPath returns the location of the plugin ELF inside elfDir, or "" if the family
// has no plugin.
func (model Model) PluginBinaryPath(elfDir string) string {
	if model.PluginBinaryName == "" {
		return ""
	}
	return filepath.Join(elfDir, model.PluginBinaryName)
}

// HasPlugin returns whether the family ships a companion plugin.
func (model Model) HasPlugin() bool {
	return model.PluginBinaryName != ""
}

// GoldenPrefix is the lowercase prefix of every golden snapshot name of this family.
func (model Model) GoldenPrefix() string {
	return strings.ToLower(model.Prefix)
}

// GoldenName returns the golden snapshot name of a case on this family.
func (model Model) GoldenName(caseName string) string {
	return model.GoldenPrefix() + "-" + caseName
}

// String implements fmt.Stringer.
func (model Model) String() string {
	return model.ID
}
