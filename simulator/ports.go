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

package simulator

import (
	"math/rand/v2"
	"net"
	"strconv"

	"github.com/stellarhw/app-stellar-harness/util/errp"
)

// Ports are drawn at random from a wide range so that concurrently starting instances rarely
// collide without coordinating.
const (
	minPort      = 20000
	maxPort      = 60000
	portAttempts = 64
)

// freePort returns a random port that is currently unused on the loopback interface and is not
// in exclude.
func freePort(exclude ...int) (int, error) {
	for attempt := 0; attempt < portAttempts; attempt++ {
		port := minPort + rand.IntN(maxPort-minPort)
		if contains(exclude, port) {
			continue
		}
		listener, err := net.Listen("tcp", net.JoinHostPort("127.0.0.1", strconv.Itoa(port)))
		if err != nil {
			continue
		}
		if err := listener.Close(); err != nil {
			return 0, errp.WithStack(err)
		}
		return port, nil
	}
	return 0, errp.Newf("no free port found after %d attempts", portAttempts)
}

func contains(ports []int, port int) bool {
	for _, p := range ports {
		if p == port {
			return true
		}
	}
	return false
}
