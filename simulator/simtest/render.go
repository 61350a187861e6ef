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
	"bytes"
	"crypto/sha256"
	"image"
	"image/color"
	"image/png"
	"strings"

	"github.com/stellarhw/app-stellar-harness/util/errp"
)

// renderer draws a screen as a fingerprint of its text, so that equal text gives byte equal
// screenshots and different text gives different ones.
type renderer struct {
	width, height int
	key           string
	last          []byte
}

func newRenderer(width, height int) *renderer {
	return &renderer{width: width, height: height}
}

func (renderer *renderer) render(lines []string) ([]byte, error) {
	key := strings.Join(lines, "\n")
	if renderer.last != nil && key == renderer.key {
		return renderer.last, nil
	}
	img := image.NewGray(image.Rect(0, 0, renderer.width, renderer.height))
	fingerprint := sha256.Sum256([]byte(key))
	for bit := 0; bit < 8*len(fingerprint); bit++ {
		if fingerprint[bit/8]&(0x80>>(bit%8)) == 0 {
			continue
		}
		img.SetGray(bit%renderer.width, (bit/renderer.width)%renderer.height, color.Gray{Y: 0xFF})
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, errp.WithStack(err)
	}
	renderer.key, renderer.last = key, buf.Bytes()
	return renderer.last, nil
}
