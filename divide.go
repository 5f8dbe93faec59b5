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
)

// TileDivision represents the divison of an image into rectangles.
//
// Tiles are not stored in the fashion (x, y) but (y, x). That means each entry
// in the division describes one row of the image.
// The get method does this correctly.
type TileDivision [][]image.Rectangle

// Get returns the rectangle at position div[y][x], that is the rectangle
// in row y and column x.
func (div TileDivision) Get(x, y int) image.Rectangle {
	return div[y][x]
}

// Size returns the number of rectangles in the division.
func (div TileDivision) Size() int {
	res := 0
	for _, row := range div {
		res += len(row)
	}
	return res
}

// TileDimensions computes the size of a single tile if an image with the given
// bounds is divided into numX columns and numY rows.
// That is width = ⌊dx / numX⌋ and height = ⌊dy / numY⌋, both are at least 1.
// If there are more columns (rows) than pixels the tile width (height) is 1,
// the normalized image then gets larger than the original one.
func TileDimensions(bounds image.Rectangle, numX, numY int) (width, height int) {
	width, height = 1, 1
	if numX > 0 {
		width = bounds.Dx() / numX
	}
	if numY > 0 {
		height = bounds.Dy() / numY
	}
	// this should take care of images that are too small, if such small images
	// are used the results will be bad I guess, this is just a way to ensure
	// that some part of the image is used
	if width <= 0 {
		width = 1
	}
	if height <= 0 {
		height = 1
	}
	return
}

// GridDivider divides an image whose size is an exact multiple of the tile
// size into NumX columns and NumY rows of equally sized tiles.
type GridDivider struct {
	NumX, NumY            int
	TileWidth, TileHeight int
}

// NewGridDivider returns a new divider.
func NewGridDivider(numX, numY, tileWidth, tileHeight int) GridDivider {
	return GridDivider{NumX: numX, NumY: numY, TileWidth: tileWidth, TileHeight: tileHeight}
}

// Bounds returns the rectangle (0, 0) to (TileWidth * NumX, TileHeight * NumY).
func (divider GridDivider) Bounds() image.Rectangle {
	return image.Rect(0, 0, divider.TileWidth*divider.NumX, divider.TileHeight*divider.NumY)
}

// Cell returns the rectangle of the tile in the given row and column,
// relative to origin.
func (divider GridDivider) Cell(origin image.Point, row, col int) image.Rectangle {
	x0 := origin.X + col*divider.TileWidth
	y0 := origin.Y + row*divider.TileHeight
	return image.Rect(x0, y0, x0+divider.TileWidth, y0+divider.TileHeight)
}

// Divide returns the division of bounds. bounds must have exactly the size
// returned by Bounds, otherwise an error is returned.
func (divider GridDivider) Divide(bounds image.Rectangle) (TileDivision, error) {
	if bounds.Dx() != divider.TileWidth*divider.NumX || bounds.Dy() != divider.TileHeight*divider.NumY {
		return nil, fmt.Errorf("image of size %dx%d can't be divided into %dx%d tiles of size %dx%d",
			bounds.Dx(), bounds.Dy(), divider.NumX, divider.NumY, divider.TileWidth, divider.TileHeight)
	}
	res := make(TileDivision, divider.NumY)
	for i := 0; i < divider.NumY; i++ {
		res[i] = make([]image.Rectangle, divider.NumX)
		for j := 0; j < divider.NumX; j++ {
			res[i][j] = divider.Cell(bounds.Min, i, j)
		}
	}
	return res, nil
}

// Normalized is a target image resized to an exact multiple of the tile size
// together with its division.
type Normalized struct {
	Image   *image.RGBA
	Divider GridDivider
}

// NormalizeTarget computes the tile size for numX columns and numY rows (see
// TileDimensions) and resizes img to exactly (tileWidth * numX) x
// (tileHeight * numY). An image that already has this size is only copied,
// thus normalizing a normalized image with the same numbers does not change it.
func NormalizeTarget(img image.Image, numX, numY int, resizer ImageResizer, maxPixels int64) (*Normalized, error) {
	if numX <= 0 || numY <= 0 {
		return nil, fmt.Errorf("number of tiles must be positive, got %dx%d", numX, numY)
	}
	bounds := img.Bounds()
	if bounds.Empty() {
		return nil, fmt.Errorf("can't normalize empty image")
	}
	if resizer == nil {
		resizer = DefaultTargetResizer
	}
	tileWidth, tileHeight := TileDimensions(bounds, numX, numY)
	divider := NewGridDivider(numX, numY, tileWidth, tileHeight)
	size := divider.Bounds()
	if err := checkPixels("normalized target", size.Dx(), size.Dy(), maxPixels); err != nil {
		return nil, err
	}
	return &Normalized{
		Image:   ResizeRGB(resizer, size.Dx(), size.Dy(), img),
		Divider: divider,
	}, nil
}
