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

// Package ledgerhid implements the APDU framing used by Ledger devices over USB HID.
package ledgerhid

import (
	"bytes"
	"encoding/binary"
	"io"
	"sync"

	"github.com/stellarhw/app-stellar-harness/util/errp"
)

const (
	packetSize = 64
	// defaultChannel is the channel used by every Ledger host library.
	defaultChannel = 0x0101
	tagAPDU        = 0x05
	// channel(2) tag(1) sequence(2)
	headerLen = 5
)

func newBuffer() *bytes.Buffer {
	return bytes.NewBuffer([]byte{})
}

// FrameError is returned when a packet read from the device has an unexpected header.
type FrameError struct {
	Field    string
	Expected uint16
	Got      uint16
}

// Error implements error.
func (e *FrameError) Error() string {
	return "unexpected " + e.Field + " in hid packet"
}

// Communication encodes APDUs into HID packets and decodes responses.
type Communication struct {
	device  io.ReadWriteCloser
	mutex   sync.Mutex
	channel uint16
}

// NewCommunication creates a new Communication on the default channel.
func NewCommunication(device io.ReadWriteCloser) *Communication {
	return &Communication{
		device:  device,
		mutex:   sync.Mutex{},
		channel: defaultChannel,
	}
}

func (communication *Communication) packets(apdu []byte) [][]byte {
	payload := newBuffer()
	_ = binary.Write(payload, binary.BigEndian, uint16(len(apdu)))
	payload.Write(apdu)
	data := payload.Bytes()

	var packets [][]byte
	for seq := uint16(0); len(data) > 0; seq++ {
		packet := make([]byte, packetSize)
		binary.BigEndian.PutUint16(packet[0:2], communication.channel)
		packet[2] = tagAPDU
		binary.BigEndian.PutUint16(packet[3:5], seq)
		n := copy(packet[headerLen:], data)
		data = data[n:]
		packets = append(packets, packet)
	}
	return packets
}

// SendFrame sends one APDU.
func (communication *Communication) SendFrame(apdu []byte) error {
	communication.mutex.Lock()
	defer communication.mutex.Unlock()
	return communication.sendFrame(apdu)
}

func (communication *Communication) sendFrame(apdu []byte) error {
	if len(apdu) > 0xffff {
		return errp.Newf("apdu of %d bytes is too large", len(apdu))
	}
	for _, packet := range communication.packets(apdu) {
		for written := 0; written < len(packet); {
			n, err := communication.device.Write(packet[written:])
			if err != nil {
				return errp.WithMessage(errp.WithStack(err), "failed to send message")
			}
			written += n
		}
	}
	return nil
}

// ReadFrame reads one response, data followed by the status word.
func (communication *Communication) ReadFrame() ([]byte, error) {
	communication.mutex.Lock()
	defer communication.mutex.Unlock()
	return communication.readFrame()
}

func (communication *Communication) readFrame() ([]byte, error) {
	read := make([]byte, packetSize)
	result := newBuffer()
	total := -1
	for seq := uint16(0); total < 0 || result.Len() < total; seq++ {
		if _, err := io.ReadFull(communication.device, read); err != nil {
			return nil, errp.WithMessage(errp.WithStack(err), "failed to read hid packet")
		}
		if channel := binary.BigEndian.Uint16(read[0:2]); channel != communication.channel {
			return nil, errp.WithStack(&FrameError{Field: "channel", Expected: communication.channel, Got: channel})
		}
		if read[2] != tagAPDU {
			return nil, errp.WithStack(&FrameError{Field: "tag", Expected: tagAPDU, Got: uint16(read[2])})
		}
		if gotSeq := binary.BigEndian.Uint16(read[3:5]); gotSeq != seq {
			return nil, errp.WithStack(&FrameError{Field: "sequence", Expected: seq, Got: gotSeq})
		}
		data := read[headerLen:]
		if seq == 0 {
			total = int(binary.BigEndian.Uint16(data[0:2]))
			data = data[2:]
		}
		remaining := total - result.Len()
		if len(data) > remaining {
			data = data[:remaining]
		}
		result.Write(data)
	}
	if total < 2 {
		return nil, errp.Newf("response of %d bytes is missing the status word", total)
	}
	return result.Bytes(), nil
}

// Close closes the underlying device.
func (communication *Communication) Close() {
	if err := communication.device.Close(); err != nil {
		panic(err)
	}
}

// Query sends an APDU and waits for the response. Blocking.
func (communication *Communication) Query(apdu []byte) ([]byte, error) {
	communication.mutex.Lock()
	defer communication.mutex.Unlock()
	if err := communication.sendFrame(apdu); err != nil {
		return nil, err
	}
	return communication.readFrame()
}
