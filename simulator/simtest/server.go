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

package simtest

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/stellarhw/app-stellar-harness/api/common"
	"github.com/stellarhw/app-stellar-harness/communication/tcpapdu"
	"github.com/stellarhw/app-stellar-harness/util/errp"
)

// Server exposes a Device the way Speculos does: raw APDUs on one TCP port and the REST API on
// another.
type Server struct {
	device *Device
	apdu   net.Listener
	api    *http.Server

	mutex   sync.Mutex
	pressed map[[2]int]time.Time
	wg      sync.WaitGroup
}

// NewServer serves device on the given listeners. The device must be started.
func NewServer(device *Device, apdu, api net.Listener) *Server {
	server := &Server{
		device:  device,
		apdu:    apdu,
		pressed: map[[2]int]time.Time{},
	}
	server.api = &http.Server{Handler: server.Handler(), ReadHeaderTimeout: 10 * time.Second}
	server.wg.Add(2)
	go func() {
		defer server.wg.Done()
		server.serveAPDU()
	}()
	go func() {
		defer server.wg.Done()
		if err := server.api.Serve(api); err != nil && !errors.Is(err, http.ErrServerClosed) {
			server.device.log.Errorf("api server: %v", err)
		}
	}()
	return server
}

// Close stops both listeners. Open APDU connections are served until the device is closed.
func (server *Server) Close() error {
	apduErr := server.apdu.Close()
	apiErr := server.api.Close()
	server.wg.Wait()
	if apduErr != nil {
		return errp.WithStack(apduErr)
	}
	return errp.WithStack(apiErr)
}

func (server *Server) serveAPDU() {
	for {
		conn, err := server.apdu.Accept()
		if err != nil {
			return
		}
		// Connections end when the client hangs up or the device is closed.
		go server.serveConn(conn)
	}
}

func (server *Server) serveConn(conn net.Conn) {
	defer func() { _ = conn.Close() }()
	communication := server.device.Communication()
	for {
		apdu, err := tcpapdu.ReadRequest(conn)
		if err != nil {
			if !errors.Is(err, io.EOF) {
				server.device.log.Debugf("apdu connection: %v", err)
			}
			return
		}
		response, err := communication.Query(apdu)
		if err != nil {
			server.device.log.Debugf("apdu: %v", err)
			return
		}
		if err := tcpapdu.WriteResponse(conn, response); err != nil {
			server.device.log.Debugf("apdu connection: %v", err)
			return
		}
	}
}

type actionRequest struct {
	Action string `json:"action"`
	X      int    `json:"x"`
	Y      int    `json:"y"`
}

type event struct {
	Text string `json:"text"`
	X    int    `json:"x"`
	Y    int    `json:"y"`
	W    int    `json:"w"`
	H    int    `json:"h"`
}

var buttons = map[string]common.Button{
	common.ButtonLeft.String():  common.ButtonLeft,
	common.ButtonRight.String(): common.ButtonRight,
	common.ButtonBoth.String():  common.ButtonBoth,
}

// Handler returns the REST API of the device.
func (server *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /screenshot", server.screenshot)
	mux.HandleFunc("GET /events", server.events)
	mux.HandleFunc("POST /button/{button}", server.button)
	mux.HandleFunc("POST /finger", server.finger)
	return mux
}

func fail(writer http.ResponseWriter, status int, err error) {
	http.Error(writer, err.Error(), status)
}

func (server *Server) screenshot(writer http.ResponseWriter, request *http.Request) {
	snapshot, err := server.device.Snapshot(request.Context())
	if err != nil {
		fail(writer, http.StatusInternalServerError, err)
		return
	}
	writer.Header().Set("Content-Type", "image/png")
	_, _ = writer.Write(snapshot.Data)
}

func (server *Server) events(writer http.ResponseWriter, request *http.Request) {
	lines, err := server.device.ScreenText(request.Context())
	if err != nil {
		fail(writer, http.StatusInternalServerError, err)
		return
	}
	response := struct {
		Events []event `json:"events"`
	}{Events: make([]event, len(lines))}
	for i, line := range lines {
		response.Events[i] = event{Text: line, Y: 16 * i, W: server.device.model.Width, H: 16}
	}
	writer.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(writer).Encode(response)
}

func decodeAction(request *http.Request) (actionRequest, error) {
	var action actionRequest
	if err := json.NewDecoder(request.Body).Decode(&action); err != nil {
		return action, errp.WithStack(err)
	}
	return action, nil
}

func (server *Server) button(writer http.ResponseWriter, request *http.Request) {
	button, ok := buttons[request.PathValue("button")]
	if !ok {
		fail(writer, http.StatusNotFound, errp.Newf("unknown button %q", request.PathValue("button")))
		return
	}
	action, err := decodeAction(request)
	if err != nil {
		fail(writer, http.StatusBadRequest, err)
		return
	}
	if action.Action != "press-and-release" {
		fail(writer, http.StatusBadRequest, errp.Newf("unsupported action %q", action.Action))
		return
	}
	if err := server.device.Press(request.Context(), button); err != nil {
		fail(writer, http.StatusInternalServerError, err)
		return
	}
	writer.WriteHeader(http.StatusOK)
}

// finger turns press and release pairs into touches held for the time between them.
func (server *Server) finger(writer http.ResponseWriter, request *http.Request) {
	action, err := decodeAction(request)
	if err != nil {
		fail(writer, http.StatusBadRequest, err)
		return
	}
	key := [2]int{action.X, action.Y}
	var hold time.Duration
	switch action.Action {
	case "press":
		server.mutex.Lock()
		server.pressed[key] = time.Now()
		server.mutex.Unlock()
		writer.WriteHeader(http.StatusOK)
		return
	case "release":
		server.mutex.Lock()
		pressed, ok := server.pressed[key]
		delete(server.pressed, key)
		server.mutex.Unlock()
		if !ok {
			fail(writer, http.StatusBadRequest, errp.Newf("release without press at %v", key))
			return
		}
		// The hold already happened between the two requests.
		hold = max(time.Since(pressed), time.Nanosecond)
	case "press-and-release":
	default:
		fail(writer, http.StatusBadRequest, errp.Newf("unsupported action %q", action.Action))
		return
	}
	if err := server.device.touch(request.Context(), action.X, action.Y, hold, false); err != nil {
		fail(writer, http.StatusInternalServerError, err)
		return
	}
	writer.WriteHeader(http.StatusOK)
}

// Serve runs device behind a Server until ctx is done.
func Serve(ctx context.Context, device *Device, apdu, api net.Listener) error {
	server := NewServer(device, apdu, api)
	<-ctx.Done()
	return server.Close()
}
