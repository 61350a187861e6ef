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
	"sync"
)

// Session is the settings state of one simulator instance. A fresh instance starts with every
// setting disabled. Only executed toggle steps change it.
type Session struct {
	mutex    sync.Mutex
	settings map[Setting]bool
}

// NewSession returns the state of a freshly started instance.
func NewSession() *Session {
	return &Session{settings: map[Setting]bool{}}
}

// Enabled returns whether setting is currently on.
func (session *Session) Enabled(setting Setting) bool {
	session.mutex.Lock()
	defer session.mutex.Unlock()
	return session.settings[setting]
}

// Missing returns the settings of required that are currently off, in the given order.
func (session *Session) Missing(required ...Setting) []Setting {
	session.mutex.Lock()
	defer session.mutex.Unlock()
	var result []Setting
	for _, setting := range required {
		if !session.settings[setting] {
			result = append(result, setting)
		}
	}
	return result
}

func (session *Session) toggle(setting Setting) {
	session.mutex.Lock()
	defer session.mutex.Unlock()
	session.settings[setting] = !session.settings[setting]
}
