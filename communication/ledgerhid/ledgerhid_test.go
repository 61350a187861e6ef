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

package ledgerhid

import (
	"bytes"
	"encoding/binary"
	"errors"
	"testing"
	"testing/quick"

	"github.com/stretchr/testify/require"
)

type testRW struct {
	writeBuffer    bytes.Buffer
	writeChunkSize int // max bytes to write per call
	readBuffer     bytes.Buffer
}

func (t *testRW) Write(p []byte) (n int, err error) {
	if t.writeChunkSize == 0 || t.writeChunkSize > len(p) {
		t.writeBuffer.Write(p)
		return len(p), nil
	}

	written := t.writeChunkSize
	t.writeBuffer.Write(p[:written])
	return written, nil
}

func (t *testRW) Read(p []byte) (n int, err error) { return t.readBuffer.Read(p) }
func (t *testRW) Close() error                     { return nil }

func TestSendFrame(t *testing.T) {
	tests := []struct {
		name      string
		apduLen   int
		chunkSize int
		packets   int
	}{
		{name: "empty apdu", apduLen: 0, chunkSize: 64, packets: 1},
		{name: "exact first packet", apduLen: 57, chunkSize: 64, packets: 1},
		{name: "one continuation packet", apduLen: 58, chunkSize: 32, packets: 2},
		{name: "signing chunk with uneven writes", apduLen: 5 + 255, chunkSize: 7, packets: 5},
		{name: "minimal writes", apduLen: 64 * 3, chunkSize: 1, packets: 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rw := &testRW{writeChunkSize: tt.chunkSize}
			apdu := bytes.Repeat([]byte{0xab}, tt.apduLen)
			require.NoError(t, NewCommunication(rw).SendFrame(apdu))

			written := rw.writeBuffer.Bytes()
			require.Len(t, written, tt.packets*packetSize)
			for i := 0; i < tt.packets; i++ {
				packet := written[i*packetSize : (i+1)*packetSize]
				require.Equal(t, uint16(defaultChannel), binary.BigEndian.Uint16(packet[0:2]))
				require.Equal(t, byte(tagAPDU), packet[2])
				require.Equal(t, uint16(i), binary.BigEndian.Uint16(packet[3:5]))
			}
			require.Equal(t, uint16(tt.apduLen), binary.BigEndian.Uint16(written[5:7]))

			// Payload is contiguous once headers are stripped, then zero padded.
			payload := new(bytes.Buffer)
			for i := 0; i < tt.packets; i++ {
				payload.Write(written[i*packetSize+headerLen : (i+1)*packetSize])
			}
			require.Equal(t, apdu, payload.Bytes()[2:2+tt.apduLen])
			for _, b := range payload.Bytes()[2+tt.apduLen:] {
				require.Equal(t, byte(0x00), b)
			}
		})
	}
}

func TestReadWrite(t *testing.T) {
	f := func(response []byte, sw uint16) bool {
		full := append(append([]byte{}, response...), byte(sw>>8), byte(sw))
		rw := &testRW{}
		// The device answers with the same packet layout the host uses.
		for _, packet := range NewCommunication(rw).packets(full) {
			rw.readBuffer.Write(packet)
		}
		read, err := NewCommunication(rw).ReadFrame()
		if err != nil {
			return false
		}
		return bytes.Equal(full, read)
	}
	require.NoError(t, quick.Check(f, nil))
}

func TestReadFrameErrors(t *testing.T) {
	valid := NewCommunication(&testRW{}).packets([]byte{0x90, 0x00})[0]

	tests := []struct {
		name   string
		mutate func(packet []byte)
		field  string
	}{
		{"channel", func(packet []byte) { packet[0] = 0x02 }, "channel"},
		{"tag", func(packet []byte) { packet[2] = 0x02 }, "tag"},
		{"sequence", func(packet []byte) { packet[4] = 0x01 }, "sequence"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			packet := append([]byte{}, valid...)
			tt.mutate(packet)
			rw := &testRW{}
			rw.readBuffer.Write(packet)
			_, err := NewCommunication(rw).ReadFrame()
			var frameErr *FrameError
			require.True(t, errors.As(err, &frameErr))
			require.Equal(t, tt.field, frameErr.Field)
		})
	}

	t.Run("missing status word", func(t *testing.T) {
		rw := &testRW{}
		rw.readBuffer.Write(NewCommunication(rw).packets([]byte{0x90})[0])
		_, err := NewCommunication(rw).ReadFrame()
		require.Error(t, err)
	})
}
