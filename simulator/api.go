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
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/stellarhw/app-stellar-harness/api/common"
	"github.com/stellarhw/app-stellar-harness/screen"
	"github.com/stellarhw/app-stellar-harness/util/errp"
)

// Speculos REST API actions.
const (
	actionPressAndRelease = "press-and-release"
	actionPress           = "press"
	actionRelease         = "release"
)

// APIError is returned when the REST API answers with a non-2xx status.
type APIError struct {
	Method string
	Path   string
	Status int
	Body   string
}

// Error implements error.
func (err *APIError) Error() string {
	return fmt.Sprintf("%s %s: status %d: %s", err.Method, err.Path, err.Status, err.Body)
}

type buttonRequest struct {
	Action string `json:"action"`
}

type fingerRequest struct {
	Action string `json:"action"`
	X      int    `json:"x"`
	Y      int    `json:"y"`
}

// Event is a text element drawn on the screen, as reported by /events.
type Event struct {
	Text string `json:"text"`
	X    int    `json:"x"`
	Y    int    `json:"y"`
	W    int    `json:"w"`
	H    int    `json:"h"`
}

type eventsResponse struct {
	Events []Event `json:"events"`
}

// apiClient is a client of the Speculos REST API.
type apiClient struct {
	baseURL string
	client  *http.Client
}

func newAPIClient(baseURL string, client *http.Client) *apiClient {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &apiClient{baseURL: baseURL, client: client}
}

func (api *apiClient) do(ctx context.Context, method, path string, body interface{}) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return nil, errp.WithStack(err)
		}
		reader = bytes.NewReader(encoded)
	}
	request, err := http.NewRequestWithContext(ctx, method, api.baseURL+path, reader)
	if err != nil {
		return nil, errp.WithStack(err)
	}
	if body != nil {
		request.Header.Set("Content-Type", "application/json")
	}
	response, err := api.client.Do(request)
	if err != nil {
		return nil, errp.WithMessagef(errp.WithStack(err), "%s %s", method, path)
	}
	defer func() { _ = response.Body.Close() }()
	data, err := io.ReadAll(response.Body)
	if err != nil {
		return nil, errp.WithStack(err)
	}
	if response.StatusCode < 200 || response.StatusCode >= 300 {
		return nil, errp.WithStack(&APIError{
			Method: method,
			Path:   path,
			Status: response.StatusCode,
			Body:   string(bytes.TrimSpace(data)),
		})
	}
	return data, nil
}

func (api *apiClient) snapshot(ctx context.Context) (screen.Snapshot, error) {
	data, err := api.do(ctx, http.MethodGet, "/screenshot", nil)
	if err != nil {
		return screen.Snapshot{}, err
	}
	return screen.Snapshot{Data: data, Taken: time.Now()}, nil
}

func (api *apiClient) press(ctx context.Context, button common.Button) error {
	_, err := api.do(ctx, http.MethodPost, "/button/"+button.String(),
		buttonRequest{Action: actionPressAndRelease})
	return err
}

func (api *apiClient) touch(ctx context.Context, x, y int, hold time.Duration) error {
	if hold <= 0 {
		_, err := api.do(ctx, http.MethodPost, "/finger",
			fingerRequest{Action: actionPressAndRelease, X: x, Y: y})
		return err
	}
	if _, err := api.do(ctx, http.MethodPost, "/finger",
		fingerRequest{Action: actionPress, X: x, Y: y}); err != nil {
		return err
	}
	timer := time.NewTimer(hold)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return errp.WithStack(ctx.Err())
	case <-timer.C:
	}
	_, err := api.do(ctx, http.MethodPost, "/finger",
		fingerRequest{Action: actionRelease, X: x, Y: y})
	return err
}

func (api *apiClient) events(ctx context.Context) ([]Event, error) {
	data, err := api.do(ctx, http.MethodGet, "/events?currentscreenonly=true", nil)
	if err != nil {
		return nil, err
	}
	var response eventsResponse
	if err := json.Unmarshal(data, &response); err != nil {
		return nil, errp.WithMessage(errp.WithStack(err), "invalid events response")
	}
	return response.Events, nil
}

func (api *apiClient) screenText(ctx context.Context) ([]string, error) {
	events, err := api.events(ctx)
	if err != nil {
		return nil, err
	}
	lines := make([]string, len(events))
	for i, event := range events {
		lines[i] = event.Text
	}
	return lines, nil
}
