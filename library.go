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
	"fmt"
	"image"
	"path/filepath"

	log "github.com/sirupsen/logrus"
)

// NumChannels is the number of colour channels in a feature vector (r, g, b).
const NumChannels = 3

// FeatureVector contains the flattened pixel data of an image: For each pixel
// (row by row) the r, g and b values between 0 and 255.
type FeatureVector []float64

// Features computes the feature vector of the area r in img.
// r must be inside the bounds of img.
func Features(img *image.RGBA, r image.Rectangle) FeatureVector {
	res := make(FeatureVector, 0, r.Dx()*r.Dy()*NumChannels)
	for y := r.Min.Y; y < r.Max.Y; y++ {
		offset := img.PixOffset(r.Min.X, y)
		for x := 0; x < r.Dx(); x++ {
			pix := img.Pix[offset+4*x : offset+4*x+3]
			res = append(res, float64(pix[0]), float64(pix[1]), float64(pix[2]))
		}
	}
	return res
}

// ImageFeatures is Features for the whole image.
func ImageFeatures(img *image.RGBA) FeatureVector {
	return Features(img, img.Bounds())
}

// TileLibrary is the ordered collection of candidate tiles. All tiles have
// exactly the size TileWidth x TileHeight, Features[i] is the feature vector
// of Tiles[i].
//
// A library is never changed after it was created, it is safe to read it
// concurrently.
type TileLibrary struct {
	Tiles                 []*image.RGBA
	Features              []FeatureVector
	Paths                 []string
	TileWidth, TileHeight int
}

// NewTileLibrary creates a library from already resized tiles. paths may be
// nil. All tiles must have the same size, otherwise an error is returned.
// An empty list of tiles returns ErrEmptyLibrary.
func NewTileLibrary(tiles []*image.RGBA, paths []string) (*TileLibrary, error) {
	if len(tiles) == 0 {
		return nil, ErrEmptyLibrary
	}
	if paths != nil && len(paths) != len(tiles) {
		return nil, fmt.Errorf("got %d tiles but %d paths", len(tiles), len(paths))
	}
	first := tiles[0].Bounds()
	res := &TileLibrary{
		Tiles:      tiles,
		Features:   make([]FeatureVector, len(tiles)),
		Paths:      paths,
		TileWidth:  first.Dx(),
		TileHeight: first.Dy(),
	}
	for i, tile := range tiles {
		bounds := tile.Bounds()
		if bounds.Dx() != res.TileWidth || bounds.Dy() != res.TileHeight {
			return nil, fmt.Errorf("tile %d has size %dx%d, expected %dx%d",
				i, bounds.Dx(), bounds.Dy(), res.TileWidth, res.TileHeight)
		}
		res.Features[i] = ImageFeatures(tile)
	}
	return res, nil
}

// Len returns the number of tiles in the library.
func (lib *TileLibrary) Len() int {
	return len(lib.Tiles)
}

// Path returns the file the tile was created from, the empty string if
// unknown.
func (lib *TileLibrary) Path(i int) string {
	if i < 0 || i >= len(lib.Paths) {
		return ""
	}
	return lib.Paths[i]
}

// LibraryBuilder creates a tile library from all images in a directory.
type LibraryBuilder interface {
	Build(dir string, tileWidth, tileHeight int) (*TileLibrary, error)
}

// ImageDecoder reads the image stored in a file.
type ImageDecoder func(path string) (image.Image, error)

// FSLibraryBuilder implements LibraryBuilder by listing a directory on the
// filesystem and loading the images concurrently.
//
// If Strict is false images that can't be decoded are skipped (and logged),
// the library then consists of all other images. If Strict is true the first
// error aborts the build.
type FSLibraryBuilder struct {
	Lister      DirLister
	Filter      SupportedImageFunc
	Decode      ImageDecoder
	Resizer     ImageResizer
	NumRoutines int
	Strict      bool
	Progress    ProgressFunc
}

// NewFSLibraryBuilder returns a builder that lists the directory
// non-recursively, accepts all supported formats and resizes with the
// DefaultTileResizer.
func NewFSLibraryBuilder(numRoutines int) *FSLibraryBuilder {
	if numRoutines <= 0 {
		numRoutines = 1
	}
	return &FSLibraryBuilder{
		Lister:      ListImages,
		Filter:      AllFormats,
		Decode:      LoadImage,
		Resizer:     DefaultTileResizer,
		NumRoutines: numRoutines,
	}
}

// LoadTile decodes the file, removes the alpha channel and resizes the image
// to tileWidth x tileHeight.
func (b *FSLibraryBuilder) LoadTile(path string, tileWidth, tileHeight int) (*image.RGBA, error) {
	img, err := b.Decode(path)
	if err != nil {
		return nil, err
	}
	if img.Bounds().Empty() {
		return nil, fmt.Errorf("image %s is empty", path)
	}
	return ResizeRGB(b.Resizer, tileWidth, tileHeight, FlattenAlpha(img)), nil
}

// Build implements LibraryBuilder. The order of the tiles is the order
// returned by the lister.
func (b *FSLibraryBuilder) Build(dir string, tileWidth, tileHeight int) (*TileLibrary, error) {
	if tileWidth <= 0 || tileHeight <= 0 {
		return nil, fmt.Errorf("invalid tile size %dx%d", tileWidth, tileHeight)
	}
	paths, listErr := b.Lister(dir, b.Filter)
	if listErr != nil {
		return nil, fmt.Errorf("listing library directory: %w", listErr)
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmptyLibrary, dir)
	}
	numRoutines := b.NumRoutines
	if numRoutines <= 0 {
		numRoutines = 1
	}

	type job struct {
		pos  int
		path string
	}
	type result struct {
		pos  int
		tile *image.RGBA
		err  error
	}

	numImages := len(paths)
	jobs := make(chan job, BufferSize)
	results := make(chan result, BufferSize)
	for w := 0; w < numRoutines; w++ {
		go func() {
			for next := range jobs {
				tile, err := b.LoadTile(next.path, tileWidth, tileHeight)
				results <- result{pos: next.pos, tile: tile, err: err}
			}
		}()
	}

	go func() {
		for i, path := range paths {
			jobs <- job{pos: i, path: path}
		}
		close(jobs)
	}()

	tiles := make([]*image.RGBA, numImages)
	// any error that occurs sets this variable (first error)
	var err error
	for i := 0; i < numImages; i++ {
		next := <-results
		if next.err != nil {
			if err == nil {
				err = next.err
			}
			log.WithFields(log.Fields{
				log.ErrorKey: next.err,
				"file":       filepath.Base(paths[next.pos]),
			}).Warn("Can't load library image, skipping it")
		} else {
			tiles[next.pos] = next.tile
		}
		if b.Progress != nil {
			b.Progress(i + 1)
		}
	}
	if err != nil && b.Strict {
		return nil, err
	}

	validTiles := make([]*image.RGBA, 0, numImages)
	validPaths := make([]string, 0, numImages)
	for i, tile := range tiles {
		if tile != nil {
			validTiles = append(validTiles, tile)
			validPaths = append(validPaths, paths[i])
		}
	}
	if len(validTiles) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmptyLibrary, dir)
	}
	return NewTileLibrary(validTiles, validPaths)
}
