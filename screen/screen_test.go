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

package screen_test

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"sync"
	"testing"
	"time"

	"github.com/stellarhw/app-stellar-harness/screen"
	"github.com/stretchr/testify/require"
)

// scriptedSource returns frames[i] on the i-th call and repeats the last frame afterwards.
type scriptedSource struct {
	mutex  sync.Mutex
	frames [][]byte
	lines  [][]string
	calls  int
	err    error
}

func (src *scriptedSource) Snapshot(context.Context) (screen.Snapshot, error) {
	src.mutex.Lock()
	defer src.mutex.Unlock()
	if src.err != nil {
		return screen.Snapshot{}, src.err
	}
	frame := src.frames[min(src.calls, len(src.frames)-1)]
	src.calls++
	return screen.Snapshot{Data: frame, Taken: time.Now()}, nil
}

func (src *scriptedSource) ScreenText(context.Context) ([]string, error) {
	src.mutex.Lock()
	defer src.mutex.Unlock()
	if src.err != nil {
		return nil, src.err
	}
	lines := src.lines[min(src.calls, len(src.lines)-1)]
	src.calls++
	return lines, nil
}

func TestSnapshotEqual(t *testing.T) {
	a := screen.Snapshot{Data: []byte{1, 2, 3}, Taken: time.Unix(1, 0)}
	b := screen.Snapshot{Data: []byte{1, 2, 3}, Taken: time.Unix(2, 0)}
	c := screen.Snapshot{Data: []byte{1, 2, 4}, Taken: time.Unix(1, 0)}
	require.True(t, a.Equal(b))
	require.False(t, a.Equal(c))
}

func TestWaitForChange(t *testing.T) {
	src := &scriptedSource{frames: [][]byte{{1}, {1}, {1}, {2}}}
	previous := screen.Snapshot{Data: []byte{1}}
	snapshot, err := screen.WaitForChange(context.Background(), src, previous,
		screen.Options{Timeout: time.Second, Interval: time.Millisecond})
	require.NoError(t, err)
	require.Equal(t, []byte{2}, snapshot.Data)
	require.Equal(t, 4, src.calls)
}

func TestWaitForChangeTimeout(t *testing.T) {
	src := &scriptedSource{frames: [][]byte{{1}}}
	const budget = 50 * time.Millisecond
	start := time.Now()
	_, err := screen.WaitForChange(context.Background(), src, screen.Snapshot{Data: []byte{1}},
		screen.Options{Timeout: budget, Interval: 7 * time.Millisecond})
	elapsed := time.Since(start)

	var timeoutErr *screen.TimeoutError
	require.ErrorAs(t, err, &timeoutErr)
	require.GreaterOrEqual(t, elapsed, budget)
	require.GreaterOrEqual(t, timeoutErr.Waited, budget)
	require.Equal(t, budget, timeoutErr.Budget)
	require.Equal(t, "screen change", timeoutErr.Condition)
	// The source was polled until the budget was used up.
	require.Greater(t, src.calls, 2)
}

func TestWaitForChangeSourceError(t *testing.T) {
	expectedErr := errors.New("connection refused")
	src := &scriptedSource{err: expectedErr}
	_, err := screen.WaitForChange(context.Background(), src, screen.Snapshot{}, screen.Options{})
	require.ErrorIs(t, err, expectedErr)
	var timeoutErr *screen.TimeoutError
	require.False(t, errors.As(err, &timeoutErr))
}

func TestWaitForChangeCanceled(t *testing.T) {
	src := &scriptedSource{frames: [][]byte{{1}}}
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()
	_, err := screen.WaitForChange(ctx, src, screen.Snapshot{Data: []byte{1}},
		screen.Options{Timeout: time.Minute, Interval: time.Millisecond})
	require.ErrorIs(t, err, context.Canceled)
}

func TestAwait(t *testing.T) {
	calls := 0
	err := screen.Await(context.Background(), time.Second, time.Millisecond,
		func(context.Context) (bool, error) {
			calls++
			return calls == 3, nil
		})
	require.NoError(t, err)
	require.Equal(t, 3, calls)

	// The predicate is evaluated at least once, even with a tiny budget.
	calls = 0
	err = screen.Await(context.Background(), time.Nanosecond, time.Millisecond,
		func(context.Context) (bool, error) {
			calls++
			return true, nil
		})
	require.NoError(t, err)
	require.Equal(t, 1, calls)
}

func TestWaitForText(t *testing.T) {
	src := &scriptedSource{lines: [][]string{
		{"Review", "Transaction"},
		{"Memo", "hello world"},
		{"Sign transaction?"},
	}}
	matched, err := screen.WaitForText(context.Background(), src,
		[]string{"Hold to", "Sign transaction?"},
		screen.Options{Timeout: time.Second, Interval: time.Millisecond})
	require.NoError(t, err)
	require.Equal(t, "Sign transaction?", matched)

	_, err = screen.WaitForText(context.Background(), src, nil, screen.Options{})
	require.Error(t, err)

	src = &scriptedSource{lines: [][]string{{"Stellar", "is ready"}}}
	_, err = screen.WaitForText(context.Background(), src, []string{"Finalize"},
		screen.Options{Timeout: 20 * time.Millisecond, Interval: time.Millisecond})
	var timeoutErr *screen.TimeoutError
	require.ErrorAs(t, err, &timeoutErr)
	require.Contains(t, timeoutErr.Condition, "Finalize")
}

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func testImage(width, height int, marks ...image.Point) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, width, height))
	for _, mark := range marks {
		img.SetGray(mark.X, mark.Y, color.Gray{Y: 255})
	}
	return img
}

func TestGolden(t *testing.T) {
	dir := t.TempDir()
	name := "s-op-payment-asset-native"
	first := screen.Snapshot{Data: encodePNG(t, testImage(128, 32, image.Pt(3, 4)))}

	golden := &screen.Golden{Dir: dir, Update: true}
	require.NoError(t, golden.Check(name, 0, first))
	require.FileExists(t, golden.Path(name, 0))
	require.Error(t, golden.Check(name, 1, screen.Snapshot{Data: []byte("not a png")}))

	golden = &screen.Golden{Dir: dir}
	require.NoError(t, golden.Check(name, 0, first))

	var mismatch *screen.GoldenMismatchError

	// Same pixels, different encoding.
	rgba := image.NewRGBA(image.Rect(0, 0, 128, 32))
	draw.Draw(rgba, rgba.Bounds(), image.NewUniform(color.Black), image.Point{}, draw.Src)
	rgba.Set(3, 4, color.White)
	require.NoError(t, golden.Check(name, 0, screen.Snapshot{Data: encodePNG(t, rgba)}))

	blank := screen.Snapshot{Data: encodePNG(t, testImage(128, 32))}
	err := golden.Check(name, 0, blank)
	require.ErrorAs(t, err, &mismatch)
	require.Equal(t, 1, mismatch.Mismatches)
	require.Equal(t, 128*32, mismatch.Pixels)

	golden.MaxMismatches = 1
	require.NoError(t, golden.Check(name, 0, blank))
	golden.MaxMismatches = 0

	err = golden.Check(name, 0, screen.Snapshot{Data: encodePNG(t, testImage(128, 64))})
	require.ErrorAs(t, err, &mismatch)
	require.Contains(t, mismatch.Reason, "bounds")

	err = golden.Check(name, 7, first)
	require.ErrorAs(t, err, &mismatch)
	require.Equal(t, 7, mismatch.Index)
	require.Equal(t, name, mismatch.Name)
	require.Equal(t, "no golden image", mismatch.Reason)
}

func TestGoldenDisabled(t *testing.T) {
	var golden *screen.Golden
	require.False(t, golden.Enabled())
	require.NoError(t, golden.Check("x-anything", 0, screen.Snapshot{Data: []byte("garbage")}))
	require.NoError(t, (&screen.Golden{}).Check("x-anything", 0, screen.Snapshot{}))
}

func TestTakeSnapshot(t *testing.T) {
	dir := t.TempDir()
	frame := encodePNG(t, testImage(8, 8, image.Pt(1, 1)))
	src := &scriptedSource{frames: [][]byte{frame}}

	snapshot, err := screen.TakeSnapshot(context.Background(), src,
		&screen.Golden{Dir: dir, Update: true}, "st-fee-bump-tx", 0)
	require.NoError(t, err)
	require.Equal(t, frame, snapshot.Data)

	_, err = screen.TakeSnapshot(context.Background(), src, &screen.Golden{Dir: dir}, "st-fee-bump-tx", 0)
	require.NoError(t, err)

	src.frames = [][]byte{encodePNG(t, testImage(8, 8))}
	_, err = screen.TakeSnapshot(context.Background(), src, &screen.Golden{Dir: dir}, "st-fee-bump-tx", 0)
	var mismatch *screen.GoldenMismatchError
	require.ErrorAs(t, err, &mismatch)

	snapshot, err = screen.TakeSnapshot(context.Background(), src, nil, "st-fee-bump-tx", 0)
	require.NoError(t, err)
	require.NotEmpty(t, snapshot.Data)
}
