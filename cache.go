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
	"encoding/gob"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zstd"
	log "github.com/sirupsen/logrus"
)

// This file contains functions and types for storing and retrieving
// preprocessed tile libraries. Loading and resizing thousands of images takes
// much longer than reading the resized tiles from a single file.

// LibraryFileEntry is a single tile stored on the filesystem: The path of the
// original image and the rgb values of the resized tile (3 bytes per pixel,
// row by row).
type LibraryFileEntry struct {
	Path   string
	Pixels []byte
}

// LibraryFile is used to store a tile library on the filesystem.
//
// Resizer names the interpolation used for the tiles (see ResizerName).
// Listing is the directory listing the library was built from, it also
// contains images that could not be loaded. If it is nil the paths of the
// entries are used instead.
//
// It also has a version field that is set to the Version constant when
// saving. This can be useful if the definition should ever change.
type LibraryFile struct {
	Dir        string
	TileWidth  int
	TileHeight int
	Resizer    string
	Listing    []string
	Entries    []LibraryFileEntry
	Version    string
}

// CreateLibraryFile creates the file content for a library that was built
// from the directory dir.
func CreateLibraryFile(dir string, lib *TileLibrary) *LibraryFile {
	res := &LibraryFile{
		Dir:        dir,
		TileWidth:  lib.TileWidth,
		TileHeight: lib.TileHeight,
		Entries:    make([]LibraryFileEntry, lib.Len()),
	}
	for i, features := range lib.Features {
		pixels := make([]byte, len(features))
		for j, value := range features {
			pixels[j] = byte(value)
		}
		res.Entries[i] = LibraryFileEntry{Path: lib.Path(i), Pixels: pixels}
	}
	return res
}

// Library creates the tile library from the file content.
func (f *LibraryFile) Library() (*TileLibrary, error) {
	if len(f.Entries) == 0 {
		return nil, ErrEmptyLibrary
	}
	expected := f.TileWidth * f.TileHeight * NumChannels
	tiles := make([]*image.RGBA, len(f.Entries))
	paths := make([]string, len(f.Entries))
	for i, entry := range f.Entries {
		if len(entry.Pixels) != expected {
			return nil, fmt.Errorf("invalid tile for image \"%s\": expected %d values, got %d",
				entry.Path, expected, len(entry.Pixels))
		}
		tile := image.NewRGBA(image.Rect(0, 0, f.TileWidth, f.TileHeight))
		for p := 0; p < f.TileWidth*f.TileHeight; p++ {
			copy(tile.Pix[4*p:4*p+3], entry.Pixels[3*p:3*p+3])
			tile.Pix[4*p+3] = 0xff
		}
		tiles[i] = tile
		paths[i] = entry.Path
	}
	return NewTileLibrary(tiles, paths)
}

// Paths returns the set of all image paths in the file.
func (f *LibraryFile) Paths() map[string]struct{} {
	res := make(map[string]struct{}, len(f.Entries))
	for _, entry := range f.Entries {
		res[entry.Path] = struct{}{}
	}
	return res
}

// Listed returns the set of all images in the library directory when the
// file was created, see Listing.
func (f *LibraryFile) Listed() map[string]struct{} {
	if f.Listing == nil {
		return f.Paths()
	}
	res := make(map[string]struct{}, len(f.Listing))
	for _, path := range f.Listing {
		res[path] = struct{}{}
	}
	return res
}

func (f *LibraryFile) encodeGob(w io.Writer) error {
	return gob.NewEncoder(w).Encode(f)
}

// WriteFile writes the library to a file, the format depends on the file
// extension: ".json", ".gob" or ".zst" (zstd compressed gob).
func (f *LibraryFile) WriteFile(path string) error {
	f.Version = Version
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".json", ".gob", ".zst":
	default:
		return fmt.Errorf("unknown file extension for library file: %s. Should be \".json\", \".gob\" or \".zst\"", ext)
	}
	out, err := os.Create(path)
	if err != nil {
		return err
	}
	switch ext {
	case ".json":
		err = json.NewEncoder(out).Encode(f)
	case ".gob":
		err = f.encodeGob(out)
	default:
		var enc *zstd.Encoder
		enc, err = zstd.NewWriter(out)
		if err == nil {
			err = f.encodeGob(enc)
			if closeErr := enc.Close(); err == nil {
				err = closeErr
			}
		}
	}
	if closeErr := out.Close(); err == nil {
		err = closeErr
	}
	return err
}

// ReadFile reads the content of the library file, see WriteFile for the
// supported formats.
func (f *LibraryFile) ReadFile(path string) error {
	ext := strings.ToLower(filepath.Ext(path))
	in, err := os.Open(path)
	if err != nil {
		return err
	}
	defer in.Close()
	switch ext {
	case ".json":
		return json.NewDecoder(in).Decode(f)
	case ".gob":
		return gob.NewDecoder(in).Decode(f)
	case ".zst":
		dec, decErr := zstd.NewReader(in)
		if decErr != nil {
			return decErr
		}
		defer dec.Close()
		return gob.NewDecoder(dec).Decode(f)
	default:
		return fmt.Errorf("unknown file extension for library file: %s. Should be \".json\", \".gob\" or \".zst\"", ext)
	}
}

// LibraryFileName returns the proposed filename for a library file with the
// given tile size: "tiles-WxH.ext".
func LibraryFileName(tileWidth, tileHeight int, ext string) string {
	ext = strings.TrimPrefix(ext, ".")
	return fmt.Sprintf("tiles-%dx%d.%s", tileWidth, tileHeight, ext)
}

// CachingBuilder is a LibraryBuilder that stores the libraries it builds in
// CacheDir and reuses them if the directory, the tile size, the tile
// interpolation and the list of images still match. Images that could not be
// loaded are remembered, they don't invalidate the cache.
type CachingBuilder struct {
	Builder  LibraryBuilder
	CacheDir string
	// Ext is the extension of cache files, ".zst" if empty.
	Ext string
	// Lister and Filter are used to check if images have been added or removed
	// since the cache file was written. If Lister is nil this is not checked.
	Lister DirLister
	Filter SupportedImageFunc
}

// NewCachingBuilder returns a caching builder that checks for added / removed
// images with the lister of builder if it is a FSLibraryBuilder and with
// ListImages otherwise.
func NewCachingBuilder(builder LibraryBuilder, cacheDir string) *CachingBuilder {
	res := &CachingBuilder{
		Builder:  builder,
		CacheDir: cacheDir,
		Ext:      ".zst",
		Lister:   ListImages,
		Filter:   AllFormats,
	}
	if fs := fsBuilder(builder); fs != nil {
		res.Lister, res.Filter = fs.Lister, fs.Filter
	}
	return res
}

func (b *CachingBuilder) cachePath(tileWidth, tileHeight int) string {
	ext := b.Ext
	if ext == "" {
		ext = ".zst"
	}
	return filepath.Join(b.CacheDir, LibraryFileName(tileWidth, tileHeight, ext))
}

// resizerName returns the name of the resizer of the wrapped builder, the
// empty string if it is unknown.
func (b *CachingBuilder) resizerName() string {
	if fs := fsBuilder(b.Builder); fs != nil && fs.Resizer != nil {
		return ResizerName(fs.Resizer)
	}
	return ""
}

// listing returns the images in dir, nil if there is no lister or listing
// fails.
func (b *CachingBuilder) listing(dir string) []string {
	if b.Lister == nil {
		return nil
	}
	paths, err := b.Lister(dir, b.Filter)
	if err != nil {
		log.WithError(err).Warn("Can't list library directory for cache check")
		return nil
	}
	return paths
}

func (b *CachingBuilder) upToDate(f *LibraryFile, dir string, tileWidth, tileHeight int, resizer string, paths []string) bool {
	if f.Dir != dir || f.TileWidth != tileWidth || f.TileHeight != tileHeight ||
		f.Resizer != resizer || f.Version != Version {
		return false
	}
	if b.Lister == nil {
		return true
	}
	if paths == nil {
		return false
	}
	stored := f.Listed()
	if len(stored) != len(paths) {
		return false
	}
	for _, path := range paths {
		if _, has := stored[path]; !has {
			return false
		}
	}
	return true
}

// Build implements LibraryBuilder.
func (b *CachingBuilder) Build(dir string, tileWidth, tileHeight int) (*TileLibrary, error) {
	absDir, absErr := filepath.Abs(dir)
	if absErr != nil {
		return nil, absErr
	}
	path := b.cachePath(tileWidth, tileHeight)
	resizer := b.resizerName()
	paths := b.listing(absDir)
	var f LibraryFile
	readErr := f.ReadFile(path)
	switch {
	case readErr == nil && b.upToDate(&f, absDir, tileWidth, tileHeight, resizer, paths):
		lib, libErr := f.Library()
		if libErr == nil {
			log.WithFields(log.Fields{
				"file":  path,
				"tiles": lib.Len(),
			}).Info("Using cached tile library")
			return lib, nil
		}
		log.WithError(libErr).Warn("Invalid library cache file, rebuilding it")
	case readErr != nil && !errors.Is(readErr, os.ErrNotExist):
		log.WithError(readErr).Warn("Can't read library cache file, rebuilding it")
	}

	lib, err := b.Builder.Build(dir, tileWidth, tileHeight)
	if err != nil {
		return nil, err
	}
	file := CreateLibraryFile(absDir, lib)
	file.Resizer = resizer
	file.Listing = paths
	if writeErr := file.WriteFile(path); writeErr != nil {
		log.WithError(writeErr).Warn("Can't write library cache file")
	}
	return lib, nil
}
