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
	"math/rand"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingScorer counts how often Score is called.
type countingScorer struct {
	Scorer
	calls atomic.Int64
}

func (s *countingScorer) Score(a, b FeatureVector) float64 {
	s.calls.Add(1)
	return s.Scorer.Score(a, b)
}

func grayLibrary(t *testing.T, values ...uint8) *TileLibrary {
	t.Helper()
	tiles := make([]*image.RGBA, len(values))
	for i, v := range values {
		tiles[i] = uniformImage(1, 1, color.RGBA{R: v, G: v, B: v, A: 255})
	}
	lib, err := NewTileLibrary(tiles, nil)
	require.NoError(t, err)
	return lib
}

func TestBestTileEarlyExit(t *testing.T) {
	lib := grayLibrary(t, 100, 10, 0)
	scorer := &countingScorer{Scorer: EuclideanScorer{}}
	// first candidate is an exact match, score 0 > -3.5
	best := BestTile(scorer, DefaultThreshold, FeatureVector{100, 100, 100}, lib, []int{0, 1, 2})
	assert.Equal(t, 0, best)
	assert.Equal(t, int64(1), scorer.calls.Load())
}

func TestBestTileStopsAtFirstAboveThreshold(t *testing.T) {
	// distances to 10: tile 0 ~ 1.7 (above -3.5), tile 1 is exact but comes later
	lib := grayLibrary(t, 11, 10)
	scorer := &countingScorer{Scorer: EuclideanScorer{}}
	best := BestTile(scorer, DefaultThreshold, FeatureVector{10, 10, 10}, lib, []int{0, 1})
	assert.Equal(t, 0, best)
	assert.Equal(t, int64(1), scorer.calls.Load())
}

func TestBestTileScansAll(t *testing.T) {
	lib := grayLibrary(t, 200, 50, 60, 255)
	scorer := &countingScorer{Scorer: EuclideanScorer{}}
	// nothing scores above the threshold, the best candidate wins
	best := BestTile(scorer, DefaultThreshold, FeatureVector{56, 56, 56}, lib, []int{0, 1, 2, 3})
	assert.Equal(t, 2, best)
	assert.Equal(t, int64(4), scorer.calls.Load())

	assert.Equal(t, NoTile, BestTile(scorer, DefaultThreshold, FeatureVector{1, 1, 1}, lib, nil))
}

func TestMatchAllEmptyClusterFallback(t *testing.T) {
	lib := grayLibrary(t, 0, 255)
	// a model with a single cluster without members
	model := &ClusterModel{
		Centroids: []FeatureVector{{0, 0, 0}},
		Labels:    []int{0, 0},
		members:   [][]int{nil},
	}
	target := &Normalized{
		Image:   uniformImage(2, 1, color.RGBA{R: 250, G: 250, B: 250, A: 255}),
		Divider: NewGridDivider(2, 1, 1, 1),
	}
	grid, err := NewMatcher(EuclideanScorer{}, DefaultThreshold, 2).MatchAll(target, lib, model)
	require.NoError(t, err)
	assert.Equal(t, TileGrid{{1, 1}}, grid)
}

func TestMatchAllValidIndices(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	values := make([]uint8, 40)
	for i := range values {
		values[i] = uint8(rng.Intn(256))
	}
	lib := grayLibrary(t, values...)
	model, err := NewKMeans(DefaultMaxIterations, DefaultTolerance, 3).Fit(lib.Features, DefaultClusterCount)
	require.NoError(t, err)

	img := image.NewRGBA(image.Rect(0, 0, 7, 5))
	for i := range img.Pix {
		img.Pix[i] = uint8(rng.Intn(256))
	}
	target := &Normalized{Image: ToRGB(img), Divider: NewGridDivider(7, 5, 1, 1)}

	var progress atomic.Int64
	matcher := NewMatcher(EuclideanScorer{}, DefaultThreshold, 3)
	matcher.Progress = func(num int) { progress.Add(1) }
	grid, err := matcher.MatchAll(target, lib, model)
	require.NoError(t, err)
	require.Equal(t, 5, grid.Rows())
	require.Equal(t, 7, grid.Cols())
	for row := 0; row < grid.Rows(); row++ {
		for col := 0; col < grid.Cols(); col++ {
			id := grid.Get(row, col)
			assert.True(t, id >= 0 && id < lib.Len(), "invalid tile %d", id)
		}
	}
	assert.Equal(t, int64(35), progress.Load())
}

func TestMatchAllSizeMismatch(t *testing.T) {
	lib := grayLibrary(t, 0, 255)
	model, err := NewClusterModel([]FeatureVector{{0, 0, 0}}, []int{0, 0})
	require.NoError(t, err)
	target := &Normalized{
		Image:   uniformImage(4, 2, red),
		Divider: NewGridDivider(2, 1, 2, 2),
	}
	_, err = NewMatcher(nil, DefaultThreshold, 1).MatchAll(target, lib, model)
	assert.Error(t, err)

	// model of a different library
	target = &Normalized{Image: uniformImage(2, 1, red), Divider: NewGridDivider(2, 1, 1, 1)}
	model, err = NewClusterModel([]FeatureVector{{0, 0, 0}}, []int{0})
	require.NoError(t, err)
	_, err = NewMatcher(nil, DefaultThreshold, 1).MatchAll(target, lib, model)
	assert.Error(t, err)
}
