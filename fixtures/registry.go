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

// Package fixtures is the registry of signing requests the device is tested against. Every
// fixture is derived from the test mnemonic and is deterministic: producing it twice yields the
// same payload.
package fixtures

import (
	"fmt"
	"strings"

	"github.com/stellarhw/app-stellar-harness/reference"
	"github.com/stellarhw/app-stellar-harness/util/errp"
)

// Category selects the device command and the pre-navigation a fixture needs.
type Category int

const (
	// CategoryTransaction is a transaction signed with SIGN_TX.
	CategoryTransaction Category = iota
	// CategoryFeeBumpTransaction is a fee bump transaction signed with SIGN_TX.
	CategoryFeeBumpTransaction
	// CategoryHashRequest is a bare hash signed with SIGN_HASH. Requires hash signing.
	CategoryHashRequest
	// CategorySorobanAuthRequest is a Soroban authorization preimage signed with
	// SIGN_SOROBAN_AUTHORIZATION.
	CategorySorobanAuthRequest
	// CategoryMessageRequest is a SEP-53 message signed with SIGN_MESSAGE.
	CategoryMessageRequest
)

var categoryNames = map[Category]string{
	CategoryTransaction:        "transaction",
	CategoryFeeBumpTransaction: "fee-bump-transaction",
	CategoryHashRequest:        "hash",
	CategorySorobanAuthRequest: "soroban-auth",
	CategoryMessageRequest:     "message",
}

func (category Category) String() string {
	if name, ok := categoryNames[category]; ok {
		return name
	}
	return fmt.Sprintf("Category(%d)", int(category))
}

// Scheme returns how the device turns the payload of this category into the signed bytes.
func (category Category) Scheme() reference.Scheme {
	switch category {
	case CategoryHashRequest:
		return reference.SchemeRaw
	case CategoryMessageRequest:
		return reference.SchemeMessage
	default:
		return reference.SchemeSHA256
	}
}

// Fixture is a named, categorized signing request.
type Fixture struct {
	Name     string
	Category Category
	Produce  func() (Request, error)
}

// CaseName is the kebab-cased name used for golden snapshots.
func (fixture Fixture) CaseName() string {
	return CaseName(fixture.Name)
}

type entry struct {
	name    string
	produce func() (Request, error)
}

// registry lists every fixture. Order is stable and is the order the matrix runs in.
var registry = concat(
	operationFixtures,
	sorobanOperationFixtures,
	transactionFixtures,
	feeBumpFixtures,
	sourceOmissionFixtures,
	envelopeFixtures,
	sorobanAuthFixtures,
	hashFixtures,
	messageFixtures,
)

func concat(groups ...[]entry) []entry {
	var all []entry
	for _, group := range groups {
		all = append(all, group...)
	}
	return all
}

// pluginFixtures invoke the contract served by the companion test plugin.
var pluginFixtures = map[string]struct{}{
	"opInvokeHostFunctionTestPlugin": {},
	"sorobanAuthInvokeTestPlugin":    {},
}

// List returns all registered fixtures in registration order.
func List() []Fixture {
	fixtures := make([]Fixture, len(registry))
	for i, entry := range registry {
		fixtures[i] = Fixture{
			Name:     entry.name,
			Category: Categorize(entry.name),
			Produce:  entry.produce,
		}
	}
	return fixtures
}

// Lookup returns the fixture with the given name.
func Lookup(name string) (Fixture, error) {
	for _, entry := range registry {
		if entry.name == name {
			return Fixture{Name: name, Category: Categorize(name), Produce: entry.produce}, nil
		}
	}
	return Fixture{}, errp.Newf("unknown fixture %q", name)
}

// Categorize infers the category from the fixture name prefix.
func Categorize(name string) Category {
	switch {
	case strings.HasPrefix(name, "sorobanAuth"):
		return CategorySorobanAuthRequest
	case strings.HasPrefix(name, "feeBump"):
		return CategoryFeeBumpTransaction
	case strings.HasPrefix(name, "hash"):
		return CategoryHashRequest
	case strings.HasPrefix(name, "message"):
		return CategoryMessageRequest
	default:
		return CategoryTransaction
	}
}

// unitTestNames maps fixtures to the older names the app's unit tests open them by.
var unitTestNames = map[string][]string{
	"sorobanAuthNetworkPublic":    {"sorobanAuthPublic"},
	"sorobanAuthNetworkTestnet":   {"sorobanAuthTestnet"},
	"sorobanAuthNetworkCustom":    {"sorobanAuthUnknownNetwork"},
	"sorobanAuthInvokeTestPlugin": {"sorobanAuthInvokeContractTestPlugin"},
}

// UnitTestNames returns the other names the payload of the fixture is also written under for
// the app's unit tests.
func (fixture Fixture) UnitTestNames() []string {
	return unitTestNames[fixture.Name]
}

// RequiresPlugin reports whether the fixture can only be reviewed with the companion plugin
// loaded.
func RequiresPlugin(name string) bool {
	_, ok := pluginFixtures[name]
	return ok
}

// RequiresCustomContracts reports whether signing the fixture needs the custom contracts setting
// and passes through the unverified contract warning.
func RequiresCustomContracts(name string) bool {
	if RequiresPlugin(name) {
		return false
	}
	return strings.HasPrefix(name, "opInvokeHostFunction") || strings.HasPrefix(name, "sorobanAuth")
}

// CaseName converts a camelCase fixture name to kebab-case: every ASCII upper case letter
// becomes '-' followed by its lower case form. No other byte is touched, so the transform does
// not depend on locale.
func CaseName(name string) string {
	var builder strings.Builder
	builder.Grow(len(name) + 8)
	for i := 0; i < len(name); i++ {
		c := name[i]
		if c >= 'A' && c <= 'Z' {
			builder.WriteByte('-')
			builder.WriteByte(c + ('a' - 'A'))
			continue
		}
		builder.WriteByte(c)
	}
	return builder.String()
}
