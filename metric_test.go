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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEuclideanScorer(t *testing.T) {
	var scorer EuclideanScorer
	assert.Equal(t, 0.0, scorer.Score(FeatureVector{1, 2, 3}, FeatureVector{1, 2, 3}))
	assert.InDelta(t, -5.0, scorer.Score(FeatureVector{0, 0, 0}, FeatureVector{3, 4, 0}), 1e-9)
	assert.Greater(t,
		scorer.Score(FeatureVector{10, 10, 10}, FeatureVector{12, 10, 10}),
		scorer.Score(FeatureVector{10, 10, 10}, FeatureVector{20, 10, 10}))
}

func TestDeltaEScorer(t *testing.T) {
	var scorer DeltaEScorer
	white := FeatureVector{255, 255, 255, 255, 255, 255}
	assert.InDelta(t, 0.0, scorer.Score(white, white), 1e-9)
	light := FeatureVector{250, 250, 250, 250, 250, 250}
	black := FeatureVector{0, 0, 0, 0, 0, 0}
	assert.Less(t, scorer.Score(white, light), 0.0)
	assert.Greater(t, scorer.Score(white, light), scorer.Score(white, black))
}

func TestScorerRegistry(t *testing.T) {
	names := GetScorerNames()
	assert.Contains(t, names, "euclid")
	assert.Contains(t, names, "ciede2000")

	scorer, ok := GetScorer("EUCLID")
	require.True(t, ok)
	assert.Equal(t, EuclideanScorer{}, scorer)

	_, ok = GetScorer("unknown")
	assert.False(t, ok)

	assert.False(t, RegisterScorer("Euclid", DeltaEScorer{}))
	negL1 := ScorerFunc(func(a, b FeatureVector) float64 {
		var sum float64
		for i := range a {
			if a[i] > b[i] {
				sum += a[i] - b[i]
			} else {
				sum += b[i] - a[i]
			}
		}
		return -sum
	})
	RegisterScorer("test-manhattan", negL1)
	scorer, ok = GetScorer("test-manhattan")
	require.True(t, ok)
	assert.Equal(t, -3.0, scorer.Score(FeatureVector{1, 1}, FeatureVector{2, 3}))
}
