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

// Package tcpapdu implements the length-prefixed APDU framing of the simulator's raw APDU port.
//
// A request frame is a 4 byte big endian length followed by the APDU. A response frame is a
// 4 byte big endian length N, N bytes of response data and the 2 byte status word, which is not
// counted in N.
package tcpapdu

import (
	"bytes"
	"encoding/binary"
	"io"
	"sync"

	"github.com/stellarhw/app-stellar-harness/util/errp"
)

const (
	headerLen     = 4
	statusWordLen = 2
	// maxFrameLen bounds what a peer can make us allocate.
	maxFrameLen = 64 * 1024
)

// Communication implements the framing protocol over a stream, usually a TCP connection.
type Communication struct {
	device io.ReadWriteCloser
	mutex  sync.Mutex
}

// NewCommunication creates a new Communication.
func NewCommunication(device io.ReadWriteCloser) *Communication {
	return &Communication{
		device: device,
		mutex:  sync.Mutex{},
	}
}

func encodeFrame(apdu []byte) []byte {
	buf := bytes.NewBuffer(make([]byte, 0, headerLen+len(apdu)))
	_ = binary.Write(buf, binary.BigEndian, uint32(len(apdu)))
	buf.Write(apdu)
	return buf.Bytes()
}

// SendFrame sends one APDU.
func (communication *Communication) SendFrame(apdu []byte) error {
	communication.mutex.Lock()
	defer communication.mutex.Unlock()
	return communication.sendFrame(apdu)
}

func (communication *Communication) sendFrame(apdu []byte) error {
	if len(apdu) > maxFrameLen {
		return errp.Newf("apdu of %d bytes exceeds the maximum of %d bytes", len(apdu), maxFrameLen)
	}
	_, err := communication.device.Write(encodeFrame(apdu))
	return errp.WithMessage(errp.WithStack(err), "failed to send apdu")
}

func decodeFrame(reader io.Reader) ([]byte, error) {
	header := make([]byte, headerLen)
	if _, err := io.ReadFull(reader, header); err != nil {
		return nil, errp.WithMessage(errp.WithStack(err), "failed to read response length")
	}
	dataLen := binary.BigEndian.Uint32(header)
	if dataLen > maxFrameLen {
		return nil, errp.Newf("response length %d exceeds the maximum of %d bytes", dataLen, maxFrameLen)
	}
	response := make([]byte, int(dataLen)+statusWordLen)
	if _, err := io.ReadFull(reader, response); err != nil {
		return nil, errp.WithMessage(errp.WithStack(err), "failed to read response")
	}
	return response, nil
}

// ReadFrame reads one response, returning the response data followed by the status word.
func (communication *Communication) ReadFrame() ([]byte, error) {
	communication.mutex.Lock()
	defer communication.mutex.Unlock()
	return decodeFrame(communication.device)
}

// Close closes the underlying connection.
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
	return decodeFrame(communication.device)
}

// WriteResponse encodes a response the way the simulator does. It is the server side of
// ReadFrame and is used by in-process fakes of the APDU port.
func WriteResponse(writer io.Writer, response []byte) error {
	if len(response) < statusWordLen {
		return errp.New("response must contain at least the status word")
	}
	buf := bytes.NewBuffer(make([]byte, 0, headerLen+len(response)))
	_ = binary.Write(buf, binary.BigEndian, uint32(len(response)-statusWordLen))
	buf.Write(response)
	_, err := writer.Write(buf.Bytes())
	return errp.WithStack(err)
}

// ReadRequest decodes one request frame. It is the server side of SendFrame.
func ReadRequest(reader io.Reader) ([]byte, error) {
	header := make([]byte, headerLen)
	if _, err := io.ReadFull(reader, header); err != nil {
		return nil, errp.WithStack(err)
	}
	apduLen := binary.BigEndian.Uint32(header)
	if apduLen > maxFrameLen {
		return nil, errp.Newf("apdu length %d exceeds the maximum of %d bytes", apduLen, maxFrameLen)
	}
	apdu := make([]byte, apduLen)
	if _, err := io.ReadFull(reader, apdu); err != nil {
		return nil, errp.WithStack(err)
	}
	return apdu, nil
}
