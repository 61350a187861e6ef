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

package screen

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"

	"github.com/stellarhw/app-stellar-harness/util/errp"
)

// Golden stores reference screens under Dir/<name>/<index>.png, where name is the golden name of
// a case (see common.Model.GoldenName). The zero value checks nothing.
type Golden struct {
	Dir string
	// Update rewrites the golden images instead of comparing against them.
	Update bool
	// MaxMismatches is the number of differing pixels that is still accepted.
	MaxMismatches int
}

// GoldenMismatchError is returned when a screen differs from its golden image.
type GoldenMismatchError struct {
	Name       string
	Index      int
	Mismatches int
	Pixels     int
	// Reason is set when the images could not be compared pixel by pixel.
	Reason string
}

// Error implements error.
func (err *GoldenMismatchError) Error() string {
	if err.Reason != "" {
		return fmt.Sprintf("golden %s/%05d: %s", err.Name, err.Index, err.Reason)
	}
	return fmt.Sprintf("golden %s/%05d: %d/%d pixels mismatch", err.Name, err.Index, err.Mismatches, err.Pixels)
}

// Enabled returns whether snapshots are stored or compared at all.
func (golden *Golden) Enabled() bool {
	return golden != nil && golden.Dir != ""
}

// Path returns the file of the index-th screen of name.
func (golden *Golden) Path(name string, index int) string {
	return filepath.Join(golden.Dir, name, fmt.Sprintf("%05d.png", index))
}

// Check stores snapshot as the index-th screen of name if Update is set, and otherwise compares
// it against the stored image.
func (golden *Golden) Check(name string, index int, snapshot Snapshot) error {
	if !golden.Enabled() {
		return nil
	}
	path := golden.Path(name, index)
	if golden.Update {
		if _, err := decode(snapshot.Data); err != nil {
			return errp.WithMessagef(err, "snapshot %s/%05d is not an image", name, index)
		}
		if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
			return errp.WithStack(err)
		}
		return errp.WithStack(os.WriteFile(path, snapshot.Data, 0o640))
	}
	want, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return errp.WithStack(&GoldenMismatchError{Name: name, Index: index, Reason: "no golden image"})
	}
	if err != nil {
		return errp.WithStack(err)
	}
	if bytes.Equal(want, snapshot.Data) {
		return nil
	}
	wantImage, err := decode(want)
	if err != nil {
		return errp.WithMessagef(err, "golden %s/%05d is not an image", name, index)
	}
	gotImage, err := decode(snapshot.Data)
	if err != nil {
		return errp.WithStack(&GoldenMismatchError{Name: name, Index: index, Reason: "snapshot is not an image"})
	}
	if w, g := wantImage.Bounds().Size(), gotImage.Bounds().Size(); w != g {
		return errp.WithStack(&GoldenMismatchError{
			Name:   name,
			Index:  index,
			Reason: fmt.Sprintf("bounds mismatch: got %v, want %v", g, w),
		})
	}
	mismatches, pixels := comparePixels(wantImage, gotImage)
	if mismatches > golden.MaxMismatches {
		return errp.WithStack(&GoldenMismatchError{
			Name:       name,
			Index:      index,
			Mismatches: mismatches,
			Pixels:     pixels,
		})
	}
	return nil
}

func decode(data []byte) (image.Image, error) {
	img, err := png.Decode(bytes.NewReader(data))
	return img, errp.WithStack(err)
}

// comparePixels counts the pixels that differ between two images of the same size.
func comparePixels(want, got image.Image) (int, int) {
	wantOff, gotOff := want.Bounds().Min, got.Bounds().Min
	width, height := want.Bounds().Dx(), want.Bounds().Dy()
	mismatches := 0
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			wr, wg, wb, wa := want.At(wantOff.X+x, wantOff.Y+y).RGBA()
			gr, gg, gb, ga := got.At(gotOff.X+x, gotOff.Y+y).RGBA()
			if wr != gr || wg != gg || wb != gb || wa != ga {
				mismatches++
			}
		}
	}
	return mismatches, width * height
}

// TakeSnapshot captures the current screen of src and checks it against the index-th golden
// image of name. golden may be nil.
func TakeSnapshot(ctx context.Context, src Source, golden *Golden, name string, index int) (Snapshot, error) {
	snapshot, err := src.Snapshot(ctx)
	if err != nil {
		return Snapshot{}, err
	}
	if err := golden.Check(name, index, snapshot); err != nil {
		return snapshot, err
	}
	return snapshot, nil
}
