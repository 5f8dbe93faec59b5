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
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func randomVectors(rng *rand.Rand, n, dim int) []FeatureVector {
	res := make([]FeatureVector, n)
	for i := range res {
		res[i] = make(FeatureVector, dim)
		for j := range res[i] {
			res[i][j] = float64(rng.Intn(256))
		}
	}
	return res
}

func checkModel(t *testing.T, model *ClusterModel, vectors []FeatureVector) {
	t.Helper()
	require.Len(t, model.Labels, len(vectors))
	seen := make([]int, len(vectors))
	for c := 0; c < model.K(); c++ {
		members := model.Members(c)
		require.NotEmpty(t, members, "cluster %d is empty", c)
		for _, i := range members {
			assert.Equal(t, c, model.Labels[i])
			seen[i]++
		}
	}
	for i, count := range seen {
		assert.Equal(t, 1, count, "vector %d must be in exactly one cluster", i)
	}
	for _, v := range vectors {
		assert.NotEmpty(t, model.Members(model.Query(v)))
	}
}

func TestKMeansSmallLibraries(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for _, n := range []int{1, 2, DefaultClusterCount + 1, 100} {
		vectors := randomVectors(rng, n, 12)
		model, err := NewKMeans(DefaultMaxIterations, DefaultTolerance, 7).Fit(vectors, DefaultClusterCount)
		require.NoError(t, err, "n = %d", n)
		assert.LessOrEqual(t, model.K(), min(n, DefaultClusterCount), "n = %d", n)
		assert.Positive(t, model.K())
		checkModel(t, model, vectors)
	}
}

func TestKMeansEmpty(t *testing.T) {
	_, err := NewKMeans(10, 0, 1).Fit(nil, 3)
	assert.True(t, errors.Is(err, ErrEmptyLibrary))

	_, err = NewKMeans(10, 0, 1).Fit([]FeatureVector{{1, 2, 3}}, 0)
	assert.Error(t, err)

	_, err = NewKMeans(10, 0, 1).Fit([]FeatureVector{{1, 2, 3}, {1, 2}}, 2)
	assert.Error(t, err)
}

func TestKMeansDuplicates(t *testing.T) {
	vectors := []FeatureVector{{10, 10, 10}, {10, 10, 10}, {10, 10, 10}, {10, 10, 10}, {10, 10, 10}}
	model, err := NewKMeans(DefaultMaxIterations, DefaultTolerance, 3).Fit(vectors, 3)
	require.NoError(t, err)
	assert.Equal(t, 1, model.K())
	checkModel(t, model, vectors)
}

func TestKMeansSeparatesGroups(t *testing.T) {
	vectors := []FeatureVector{
		{0, 0, 0}, {1, 0, 0}, {0, 2, 1},
		{250, 255, 250}, {255, 255, 255}, {252, 251, 255},
	}
	model, err := NewKMeans(DefaultMaxIterations, DefaultTolerance, 5).Fit(vectors, 2)
	require.NoError(t, err)
	require.Equal(t, 2, model.K())
	assert.Equal(t, model.Labels[0], model.Labels[1])
	assert.Equal(t, model.Labels[0], model.Labels[2])
	assert.Equal(t, model.Labels[3], model.Labels[4])
	assert.Equal(t, model.Labels[3], model.Labels[5])
	assert.NotEqual(t, model.Labels[0], model.Labels[3])
	assert.Equal(t, model.Labels[0], model.Query(FeatureVector{5, 5, 5}))
	assert.Equal(t, model.Labels[3], model.Query(FeatureVector{200, 200, 200}))
}

func TestKMeansSeedIsDeterministic(t *testing.T) {
	vectors := randomVectors(rand.New(rand.NewSource(1)), 60, 6)
	first, err := NewKMeans(DefaultMaxIterations, DefaultTolerance, 99).Fit(vectors, 8)
	require.NoError(t, err)
	second, err := NewKMeans(DefaultMaxIterations, DefaultTolerance, 99).Fit(vectors, 8)
	require.NoError(t, err)
	assert.Equal(t, first.Labels, second.Labels)
	assert.Equal(t, first.Centroids, second.Centroids)
}

func TestNewClusterModelCompacts(t *testing.T) {
	centroids := []FeatureVector{{0}, {5}, {10}}
	model, err := NewClusterModel(centroids, []int{0, 2, 2})
	require.NoError(t, err)
	assert.Equal(t, 2, model.K())
	assert.Equal(t, []int{0, 1, 1}, model.Labels)
	assert.Equal(t, []int{1, 2}, model.Members(1))
	assert.Nil(t, model.Members(2))
	assert.Nil(t, model.Members(-1))
	assert.Equal(t, 1, model.Query(FeatureVector{6}))

	_, err = NewClusterModel(centroids, []int{0, 3})
	assert.Error(t, err)
	_, err = NewClusterModel(centroids, nil)
	assert.True(t, errors.Is(err, ErrEmptyLibrary))
}
