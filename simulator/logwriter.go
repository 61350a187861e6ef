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
	"bytes"
	"sync"

	"github.com/pion/logging"
)

// logWriter forwards the output of a child process to a logger, one line per entry.
type logWriter struct {
	prefix string
	log    logging.LeveledLogger
	mutex  sync.Mutex
	buf    bytes.Buffer
}

func newLogWriter(prefix string, log logging.LeveledLogger) *logWriter {
	return &logWriter{prefix: prefix, log: log}
}

// Write implements io.Writer.
func (writer *logWriter) Write(p []byte) (int, error) {
	writer.mutex.Lock()
	defer writer.mutex.Unlock()
	writer.buf.Write(p)
	for {
		line, err := writer.buf.ReadBytes('\n')
		if err != nil {
			// Incomplete line, keep it for the next write.
			writer.buf.Write(line)
			return len(p), nil
		}
		writer.log.Debugf("%s %s", writer.prefix, bytes.TrimRight(line, "\r\n"))
	}
}

// Flush logs a trailing incomplete line.
func (writer *logWriter) Flush() {
	writer.mutex.Lock()
	defer writer.mutex.Unlock()
	if writer.buf.Len() > 0 {
		writer.log.Debugf("%s %s", writer.prefix, writer.buf.String())
		writer.buf.Reset()
	}
}
