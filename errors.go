// Copyright 2018 Fabian Wenzelmann
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package photomosaic

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrEmptyLibrary is returned if a library directory contains no usable
	// images or if clustering is attempted on zero feature vectors.
	ErrEmptyLibrary = errors.New("tile library is empty: no usable images found")
)

// MissingComponentError is returned if a required input (target image,
// library path or a generated output) is absent. Missing contains the names
// of the absent components, for example "target" and "library".
type MissingComponentError struct {
	Action  string
	Missing []string
}

// NewMissingComponentError returns a new error for the given action
// ("generate image", "save image") and missing components.
func NewMissingComponentError(action string, missing ...string) *MissingComponentError {
	return &MissingComponentError{Action: action, Missing: missing}
}

func (err *MissingComponentError) Error() string {
	verb := "is"
	if len(err.Missing) > 1 {
		verb = "are"
	}
	return fmt.Sprintf("cannot %s: %s %s missing", err.Action,
		strings.Join(err.Missing, " and "), verb)
}

// Has returns true if the component name is listed as missing.
func (err *MissingComponentError) Has(component string) bool {
	for _, m := range err.Missing {
		if m == component {
			return true
		}
	}
	return false
}

// ResourceExhaustionError is returned before allocating a grid or canvas that
// exceeds the configured pixel limit. It is never retried; reduce the grid
// size or the library size.
type ResourceExhaustionError struct {
	What   string
	Pixels int64
	Limit  int64
}

func (err *ResourceExhaustionError) Error() string {
	return fmt.Sprintf("%s requires %d pixels, limit is %d: reduce the number of tiles or the size of the library",
		err.What, err.Pixels, err.Limit)
}

// checkPixels returns a ResourceExhaustionError if width * height exceeds
// limit. A limit ≤ 0 disables the check, overflow is always reported.
func checkPixels(what string, width, height int, limit int64) error {
	if width < 0 || height < 0 {
		return fmt.Errorf("invalid dimensions for %s: %dx%d", what, width, height)
	}
	pixels := int64(width) * int64(height)
	if height != 0 && pixels/int64(height) != int64(width) {
		return &ResourceExhaustionError{What: what, Pixels: -1, Limit: limit}
	}
	if limit > 0 && pixels > limit {
		return &ResourceExhaustionError{What: what, Pixels: pixels, Limit: limit}
	}
	return nil
}
