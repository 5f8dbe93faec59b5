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
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

var (
	red   = color.RGBA{R: 255, A: 255}
	green = color.RGBA{G: 255, A: 255}
	blue  = color.RGBA{B: 255, A: 255}
)

func uniformImage(width, height int, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.SetRGBA(x, y, c)
		}
	}
	return img
}

// quadrantImage returns a (2 * size) x (2 * size) image with the given colors
// in the top left, top right, bottom left and bottom right quadrant.
func quadrantImage(size int, tl, tr, bl, br color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, 2*size, 2*size))
	for y := 0; y < 2*size; y++ {
		for x := 0; x < 2*size; x++ {
			switch {
			case y < size && x < size:
				img.SetRGBA(x, y, tl)
			case y < size:
				img.SetRGBA(x, y, tr)
			case x < size:
				img.SetRGBA(x, y, bl)
			default:
				img.SetRGBA(x, y, br)
			}
		}
	}
	return img
}

func writePNG(t *testing.T, dir, name string, img image.Image) string {
	t.Helper()
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, img))
	require.NoError(t, f.Close())
	return path
}

// rgbLibraryDir creates a directory with a 2x2 red, green and blue image.
// The images are listed in the order blue, green, red.
func rgbLibraryDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	writePNG(t, dir, "red.png", uniformImage(2, 2, red))
	writePNG(t, dir, "green.png", uniformImage(2, 2, green))
	writePNG(t, dir, "blue.png", uniformImage(2, 2, blue))
	return dir
}

func requireSamePixels(t *testing.T, expected, actual *image.RGBA) {
	t.Helper()
	require.Equal(t, expected.Bounds().Dx(), actual.Bounds().Dx())
	require.Equal(t, expected.Bounds().Dy(), actual.Bounds().Dy())
	for y := 0; y < expected.Bounds().Dy(); y++ {
		for x := 0; x < expected.Bounds().Dx(); x++ {
			e := expected.RGBAAt(expected.Bounds().Min.X+x, expected.Bounds().Min.Y+y)
			a := actual.RGBAAt(actual.Bounds().Min.X+x, actual.Bounds().Min.Y+y)
			require.Equal(t, e, a, "pixel (%d, %d)", x, y)
		}
	}
}

func testConfig() Config {
	config := DefaultConfig()
	config.Seed = 1
	config.NumRoutines = 2
	return config
}
