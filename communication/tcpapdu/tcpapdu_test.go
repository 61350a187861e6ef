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

package tcpapdu_test

import (
	"bytes"
	"encoding/hex"
	"io"
	"net"
	"testing"
	"testing/quick"

	"github.com/stellarhw/app-stellar-harness/communication/tcpapdu"
	"github.com/stretchr/testify/require"
)

func mustDecodeHex(str string) []byte {
	decoded, err := hex.DecodeString(str)
	if err != nil {
		panic(err)
	}
	return decoded
}

type deviceMock struct {
	io.Writer
	io.Reader
}

func (device *deviceMock) Close() error {
	return nil
}

func TestWrite(t *testing.T) {
	tests := []struct {
		apdu    string
		encoded string
	}{
		{"e006000000", "00000005e006000000"},
		{"", "00000000"},
	}
	for _, test := range tests {
		t.Run(test.apdu, func(t *testing.T) {
			buf := new(bytes.Buffer)
			err := tcpapdu.NewCommunication(&deviceMock{Writer: buf}).SendFrame(mustDecodeHex(test.apdu))
			require.NoError(t, err)
			require.Equal(t, test.encoded, hex.EncodeToString(buf.Bytes()))
		})
	}
}

func TestRead(t *testing.T) {
	// Configuration response: 6 bytes of data and the status word, which is not counted.
	communication := tcpapdu.NewCommunication(&deviceMock{
		Reader: bytes.NewReader(mustDecodeHex("00000006000500030120009000")),
	})
	read, err := communication.ReadFrame()
	require.NoError(t, err)
	require.Equal(t, "0005000301209000", hex.EncodeToString(read))

	_, err = tcpapdu.NewCommunication(&deviceMock{
		Reader: bytes.NewReader(mustDecodeHex("0000000601")),
	}).ReadFrame()
	require.Error(t, err)

	_, err = tcpapdu.NewCommunication(&deviceMock{
		Reader: bytes.NewReader(mustDecodeHex("ffffffff")),
	}).ReadFrame()
	require.Error(t, err)
}

func TestReadWrite(t *testing.T) {
	f := func(apdu []byte, response []byte, sw uint16) bool {
		request := new(bytes.Buffer)
		if err := tcpapdu.NewCommunication(&deviceMock{Writer: request}).SendFrame(apdu); err != nil {
			return false
		}
		decodedRequest, err := tcpapdu.ReadRequest(request)
		if err != nil || !bytes.Equal(apdu, decodedRequest) {
			return false
		}

		full := append(append([]byte{}, response...), byte(sw>>8), byte(sw))
		encoded := new(bytes.Buffer)
		if err := tcpapdu.WriteResponse(encoded, full); err != nil {
			return false
		}
		read, err := tcpapdu.NewCommunication(&deviceMock{Reader: encoded}).ReadFrame()
		if err != nil {
			return false
		}
		return bytes.Equal(full, read)
	}
	require.NoError(t, quick.Check(f, nil))
}

func TestQuery(t *testing.T) {
	client, server := net.Pipe()
	defer server.Close()

	go func() {
		apdu, err := tcpapdu.ReadRequest(server)
		if err != nil {
			return
		}
		_ = tcpapdu.WriteResponse(server, append(apdu[:2], 0x90, 0x00))
	}()

	communication := tcpapdu.NewCommunication(client)
	defer communication.Close()
	response, err := communication.Query(mustDecodeHex("e00200000403"))
	require.NoError(t, err)
	require.Equal(t, "e0029000", hex.EncodeToString(response))
}

func TestWriteResponseRequiresStatusWord(t *testing.T) {
	require.Error(t, tcpapdu.WriteResponse(new(bytes.Buffer), []byte{0x90}))
}
