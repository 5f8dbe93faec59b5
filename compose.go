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

	xdraw "golang.org/x/image/draw"
)

// ComposeMosaic creates the mosaic image: Row by row the selected tiles are
// placed next to each other. The result has size
// (TileWidth * columns) x (TileHeight * rows).
//
// maxPixels is the largest allowed canvas, ≤ 0 disables the check.
func ComposeMosaic(grid TileGrid, library *TileLibrary, maxPixels int64) (*image.RGBA, error) {
	numRows, numCols := grid.Rows(), grid.Cols()
	tileWidth, tileHeight := library.TileWidth, library.TileHeight
	width, height := tileWidth*numCols, tileHeight*numRows
	if err := checkPixels("mosaic", width, height, maxPixels); err != nil {
		return nil, err
	}
	divider := NewGridDivider(numCols, numRows, tileWidth, tileHeight)
	res := image.NewRGBA(divider.Bounds())
	for i := 0; i < numRows; i++ {
		if len(grid[i]) != numCols {
			return nil, fmt.Errorf("row %d of the tile grid has %d columns, expected %d", i, len(grid[i]), numCols)
		}
		for j := 0; j < numCols; j++ {
			id := grid[i][j]
			if id < 0 || id >= library.Len() {
				return nil, fmt.Errorf("invalid tile %d in row %d column %d", id, i, j)
			}
			tile := library.Tiles[id]
			area := divider.Cell(image.Point{}, i, j)
			xdraw.Draw(res, area, tile, tile.Bounds().Min, xdraw.Src)
		}
	}
	return res, nil
}
