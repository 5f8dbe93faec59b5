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
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLibraryFileFormats(t *testing.T) {
	lib, err := NewTileLibrary(
		[]*image.RGBA{uniformImage(2, 2, red), quadrantImage(1, blue, green, red, blue)},
		[]string{"/lib/red.png", "/lib/quadrants.png"})
	require.NoError(t, err)

	dir := t.TempDir()
	for _, ext := range []string{".gob", ".json", ".zst"} {
		path := filepath.Join(dir, LibraryFileName(2, 2, ext))
		require.NoError(t, CreateLibraryFile("/lib", lib).WriteFile(path), ext)

		var f LibraryFile
		require.NoError(t, f.ReadFile(path), ext)
		assert.Equal(t, "/lib", f.Dir)
		assert.Equal(t, Version, f.Version)
		assert.Equal(t, 2, f.TileWidth)
		assert.Equal(t, 2, f.TileHeight)

		loaded, err := f.Library()
		require.NoError(t, err, ext)
		require.Equal(t, lib.Len(), loaded.Len())
		assert.Equal(t, lib.Paths, loaded.Paths)
		assert.Equal(t, lib.Features, loaded.Features)
		for i := range lib.Tiles {
			requireSamePixels(t, lib.Tiles[i], loaded.Tiles[i])
		}
	}

	assert.Error(t, CreateLibraryFile("/lib", lib).WriteFile(filepath.Join(dir, "tiles.txt")))
	var f LibraryFile
	assert.Error(t, f.ReadFile(filepath.Join(dir, "missing.gob")))
}

func TestLibraryFileInvalid(t *testing.T) {
	f := LibraryFile{TileWidth: 1, TileHeight: 1}
	_, err := f.Library()
	assert.True(t, errors.Is(err, ErrEmptyLibrary))

	f.Entries = []LibraryFileEntry{{Path: "a.png", Pixels: []byte{1, 2}}}
	_, err = f.Library()
	assert.Error(t, err)
}

func TestLibraryFileName(t *testing.T) {
	assert.Equal(t, "tiles-20x10.zst", LibraryFileName(20, 10, ".zst"))
	assert.Equal(t, "tiles-1x1.gob", LibraryFileName(1, 1, "gob"))
}

func TestCachingBuilder(t *testing.T) {
	libDir := rgbLibraryDir(t)
	cacheDir := t.TempDir()
	inner := &countingBuilder{LibraryBuilder: NewFSLibraryBuilder(2)}
	builder := NewCachingBuilder(inner, cacheDir)

	first, err := builder.Build(libDir, 2, 2)
	require.NoError(t, err)
	assert.Equal(t, 1, inner.calls)
	assert.FileExists(t, filepath.Join(cacheDir, "tiles-2x2.zst"))

	second, err := builder.Build(libDir, 2, 2)
	require.NoError(t, err)
	assert.Equal(t, 1, inner.calls)
	assert.Equal(t, first.Paths, second.Paths)
	assert.Equal(t, first.Features, second.Features)

	// other tile size
	_, err = builder.Build(libDir, 1, 1)
	require.NoError(t, err)
	assert.Equal(t, 2, inner.calls)

	// new image in the library
	writePNG(t, libDir, "white.png", uniformImage(2, 2, red))
	third, err := builder.Build(libDir, 2, 2)
	require.NoError(t, err)
	assert.Equal(t, 3, inner.calls)
	assert.Equal(t, 4, third.Len())

	// other library directory
	_, err = builder.Build(rgbLibraryDir(t), 2, 2)
	require.NoError(t, err)
	assert.Equal(t, 4, inner.calls)

	// broken cache file
	require.NoError(t, os.WriteFile(filepath.Join(cacheDir, "tiles-2x2.zst"), []byte("garbage"), 0o644))
	_, err = builder.Build(libDir, 2, 2)
	require.NoError(t, err)
	assert.Equal(t, 5, inner.calls)
}

func TestCachingBuilderInGenerator(t *testing.T) {
	dir := rgbLibraryDir(t)
	cacheDir := t.TempDir()
	config := testConfig()
	inner := &countingBuilder{LibraryBuilder: NewFSLibraryBuilder(config.NumRoutines)}

	target := quadrantImage(2, red, green, blue, red)
	for i := 0; i < 2; i++ {
		gen, err := NewGeneratorWith(config, NewCachingBuilder(inner, cacheDir),
			NewKMeans(config.MaxIterations, config.Tolerance, config.Seed))
		require.NoError(t, err)
		require.NoError(t, gen.SetTarget(target))
		gen.SetLibraryPath(dir)
		mosaic, err := gen.Generate(2, 2)
		require.NoError(t, err)
		requireSamePixels(t, target, mosaic)
	}
	assert.Equal(t, 1, inner.calls)
}

func TestResizerName(t *testing.T) {
	assert.Equal(t, "nfnt-NearestNeighbor", ResizerName(NewNfntResizer(GetInterP(0))))
	assert.Equal(t, "nfnt-Lanczos3", ResizerName(NewNfntResizer(GetInterP(5))))
	assert.Equal(t, "xdraw-CatmullRom", ResizerName(DefaultTargetResizer))
	assert.NotEqual(t, ResizerName(NewNfntResizer(GetInterP(1))), ResizerName(NewNfntResizer(GetInterP(2))))
}

func TestCachingBuilderInterpolationChange(t *testing.T) {
	libDir := t.TempDir()
	pair := image.NewRGBA(image.Rect(0, 0, 2, 1))
	pair.SetRGBA(1, 0, color.RGBA{R: 255, G: 255, B: 255, A: 255})
	pair.SetRGBA(0, 0, color.RGBA{A: 255})
	imgPath := writePNG(t, libDir, "pair.png", pair)
	cacheDir := t.TempDir()

	config := testConfig()
	config.InterP = 0
	gen, err := NewGenerator(config)
	require.NoError(t, err)
	gen.SetBuilder(NewCachingBuilder(gen.Builder(), cacheDir))
	require.NoError(t, gen.SetTarget(uniformImage(8, 1, red)))
	gen.SetLibraryPath(libDir)
	_, err = gen.Generate(1, 1)
	require.NoError(t, err)

	fresh := NewFSLibraryBuilder(1)
	fresh.Resizer = NewNfntResizer(GetInterP(0))
	nearest, err := fresh.LoadTile(imgPath, 8, 1)
	require.NoError(t, err)
	requireSamePixels(t, nearest, gen.Library().Tiles[0])

	config.InterP = 5
	require.NoError(t, gen.SetConfig(config))
	_, err = gen.Generate(1, 1)
	require.NoError(t, err)

	fresh.Resizer = NewNfntResizer(GetInterP(5))
	lanczos, err := fresh.LoadTile(imgPath, 8, 1)
	require.NoError(t, err)
	require.NotEqual(t, nearest.Pix, lanczos.Pix)
	requireSamePixels(t, lanczos, gen.Library().Tiles[0])

	var f LibraryFile
	require.NoError(t, f.ReadFile(filepath.Join(cacheDir, "tiles-8x1.zst")))
	assert.Equal(t, "nfnt-Lanczos3", f.Resizer)
}

func TestCachingBuilderSkippedImages(t *testing.T) {
	libDir := rgbLibraryDir(t)
	broken := filepath.Join(libDir, "broken.png")
	require.NoError(t, os.WriteFile(broken, []byte("not a png"), 0o644))
	cacheDir := t.TempDir()
	inner := &countingBuilder{LibraryBuilder: NewFSLibraryBuilder(2)}
	builder := NewCachingBuilder(inner, cacheDir)

	for i := 0; i < 3; i++ {
		lib, err := builder.Build(libDir, 2, 2)
		require.NoError(t, err)
		assert.Equal(t, 3, lib.Len())
	}
	assert.Equal(t, 1, inner.calls)

	var f LibraryFile
	require.NoError(t, f.ReadFile(filepath.Join(cacheDir, "tiles-2x2.zst")))
	assert.Len(t, f.Entries, 3)
	assert.Len(t, f.Listing, 4)
	assert.Contains(t, f.Listed(), broken)

	// the broken image is gone, the listing changed
	require.NoError(t, os.Remove(broken))
	_, err := builder.Build(libDir, 2, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, inner.calls)
	_, err = builder.Build(libDir, 2, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, inner.calls)
}
