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
	"math"
	"sync/atomic"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// NoTile is used in a TileGrid for cells that have not been assigned yet.
const NoTile = -1

// TileGrid contains for each cell of the target the index of the selected
// library tile. grid[row][col] is the cell in row row and column col.
type TileGrid [][]int

// NewTileGrid returns a grid with all cells set to NoTile.
func NewTileGrid(rows, cols int) TileGrid {
	res := make(TileGrid, rows)
	for i := range res {
		res[i] = make([]int, cols)
		for j := range res[i] {
			res[i][j] = NoTile
		}
	}
	return res
}

// Rows returns the number of rows.
func (grid TileGrid) Rows() int {
	return len(grid)
}

// Cols returns the number of columns.
func (grid TileGrid) Cols() int {
	if len(grid) == 0 {
		return 0
	}
	return len(grid[0])
}

// Get returns the tile in the given row and column.
func (grid TileGrid) Get(row, col int) int {
	return grid[row][col]
}

// Matcher selects for each cell of a normalized target the best library tile.
//
// For each cell the cluster of the cell is queried and the members of the
// cluster are scored in order. The best candidate is selected, but as soon as
// a candidate scores above Threshold the search for that cell stops.
// This trades optimality for speed.
//
// Cells are matched concurrently by NumRoutines go routines.
type Matcher struct {
	Scorer      Scorer
	Threshold   float64
	NumRoutines int
	Progress    ProgressFunc
}

// NewMatcher returns a new matcher.
func NewMatcher(scorer Scorer, threshold float64, numRoutines int) *Matcher {
	if scorer == nil {
		scorer = EuclideanScorer{}
	}
	if numRoutines <= 0 {
		numRoutines = 1
	}
	return &Matcher{Scorer: scorer, Threshold: threshold, NumRoutines: numRoutines}
}

// matchContext is everything a worker needs to match a cell. It is shared by
// all workers and never written.
type matchContext struct {
	target    *image.RGBA
	division  TileDivision
	library   *TileLibrary
	model     *ClusterModel
	scorer    Scorer
	threshold float64
}

// BestTile scores candidates against features in order and returns the index
// of the best one. The search stops early if a candidate scores above
// threshold. The result is NoTile if there are no candidates.
func BestTile(scorer Scorer, threshold float64, features FeatureVector,
	library *TileLibrary, candidates []int) int {
	best := NoTile
	bestScore := math.Inf(-1)
	for _, candidate := range candidates {
		score := scorer.Score(features, library.Features[candidate])
		if score > bestScore || best == NoTile {
			best, bestScore = candidate, score
		}
		if score > threshold {
			break
		}
	}
	return best
}

func (ctx *matchContext) matchCell(row, col int) int {
	features := Features(ctx.target, ctx.division[row][col])
	cluster := ctx.model.Query(features)
	candidates := ctx.model.Members(cluster)
	if len(candidates) == 0 {
		log.WithFields(log.Fields{
			"cluster": cluster,
			"row":     row,
			"col":     col,
		}).Warn("Empty cluster, scanning the whole library")
		candidates = allTiles(ctx.library.Len())
	}
	return BestTile(ctx.scorer, ctx.threshold, features, ctx.library, candidates)
}

func allTiles(n int) []int {
	res := make([]int, n)
	for i := range res {
		res[i] = i
	}
	return res
}

// MatchAll computes the tile grid for the normalized target. Each cell of the
// result is a valid index in the library.
func (m *Matcher) MatchAll(target *Normalized, library *TileLibrary, model *ClusterModel) (TileGrid, error) {
	divider := target.Divider
	if divider.TileWidth != library.TileWidth || divider.TileHeight != library.TileHeight {
		return nil, fmt.Errorf("target tiles have size %dx%d but library tiles have size %dx%d",
			divider.TileWidth, divider.TileHeight, library.TileWidth, library.TileHeight)
	}
	if len(model.Labels) != library.Len() {
		return nil, fmt.Errorf("cluster model was fitted on %d tiles, library contains %d tiles",
			len(model.Labels), library.Len())
	}
	division, divErr := divider.Divide(target.Image.Bounds())
	if divErr != nil {
		return nil, divErr
	}
	ctx := &matchContext{
		target:    target.Image,
		division:  division,
		library:   library,
		model:     model,
		scorer:    m.Scorer,
		threshold: m.Threshold,
	}
	grid := NewTileGrid(divider.NumY, divider.NumX)

	numRoutines := m.NumRoutines
	if numRoutines <= 0 {
		numRoutines = 1
	}
	var done atomic.Int64
	var group errgroup.Group
	group.SetLimit(numRoutines)
	// each task owns one row of the grid, no locking required
	for row := 0; row < divider.NumY; row++ {
		row := row
		group.Go(func() error {
			for col := 0; col < divider.NumX; col++ {
				grid[row][col] = ctx.matchCell(row, col)
				if m.Progress != nil {
					m.Progress(int(done.Add(1)))
				}
			}
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}
	return grid, nil
}
