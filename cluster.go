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
	"math"
	"math/rand"
	"time"

	log "github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/floats"
)

// Partitioner partitions feature vectors into (at most) k clusters.
// Implementations must fail with ErrEmptyLibrary if there are no vectors and
// must never produce more than len(vectors) clusters.
type Partitioner interface {
	Fit(vectors []FeatureVector, k int) (*ClusterModel, error)
}

// ClusterModel is a partition of the library tiles. Centroids[c] is the centre
// of cluster c and Labels[i] is the cluster of the library tile i.
//
// Every cluster in a model has at least one member, thus Query never returns
// the id of an empty cluster.
//
// A model is never changed after it was created, it is safe to use it
// concurrently.
type ClusterModel struct {
	Centroids []FeatureVector
	Labels    []int
	members   [][]int
}

// NewClusterModel creates a model given the centroids and the label for each
// vector. Clusters without any member are removed and the labels are
// renumbered accordingly.
func NewClusterModel(centroids []FeatureVector, labels []int) (*ClusterModel, error) {
	if len(labels) == 0 {
		return nil, ErrEmptyLibrary
	}
	k := len(centroids)
	members := make([][]int, k)
	for i, label := range labels {
		if label < 0 || label >= k {
			return nil, fmt.Errorf("invalid label %d for vector %d, must be in [0, %d)", label, i, k)
		}
		members[label] = append(members[label], i)
	}
	// remove empty clusters
	newID := make([]int, k)
	res := &ClusterModel{
		Centroids: make([]FeatureVector, 0, k),
		Labels:    make([]int, len(labels)),
		members:   make([][]int, 0, k),
	}
	for c := 0; c < k; c++ {
		if len(members[c]) == 0 {
			newID[c] = -1
			continue
		}
		newID[c] = len(res.Centroids)
		res.Centroids = append(res.Centroids, centroids[c])
		res.members = append(res.members, members[c])
	}
	for i, label := range labels {
		res.Labels[i] = newID[label]
	}
	return res, nil
}

// K returns the number of clusters.
func (m *ClusterModel) K() int {
	return len(m.Centroids)
}

// Query returns the id of the cluster whose centroid is closest to v
// (euclidean distance).
func (m *ClusterModel) Query(v FeatureVector) int {
	best, _ := nearestCentroid(v, m.Centroids)
	return best
}

// Members returns the indices of all library tiles in cluster id. The result
// must not be modified. For an invalid id nil is returned.
func (m *ClusterModel) Members(id int) []int {
	if id < 0 || id >= len(m.members) {
		return nil
	}
	return m.members[id]
}

func nearestCentroid(v FeatureVector, centroids []FeatureVector) (int, float64) {
	best, bestDist := -1, math.Inf(1)
	for c, centroid := range centroids {
		dist := floats.Distance(v, centroid, 2)
		if dist < bestDist {
			best, bestDist = c, dist
		}
	}
	return best, bestDist
}

// KMeans implements Partitioner with Lloyd's algorithm and k-means++
// initialization. The partition minimizes the within-cluster squared
// euclidean distance.
//
// Clusters that become empty during the iterations are re-seeded with the
// vector farthest from its centroid, clusters that are still empty in the end
// are removed from the model.
//
// Note that instances are not safe for concurrent use (the random generator).
type KMeans struct {
	MaxIterations int
	Tolerance     float64
	randGen       *rand.Rand
}

// NewKMeans returns a new k-means partitioner. A seed of 0 creates a time
// based seed, thus different calls will produce different partitions.
func NewKMeans(maxIterations int, tolerance float64, seed int64) *KMeans {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	if maxIterations <= 0 {
		maxIterations = DefaultMaxIterations
	}
	return &KMeans{
		MaxIterations: maxIterations,
		Tolerance:     tolerance,
		randGen:       rand.New(rand.NewSource(seed)),
	}
}

// Fit implements Partitioner. k is clamped to len(vectors).
func (km *KMeans) Fit(vectors []FeatureVector, k int) (*ClusterModel, error) {
	n := len(vectors)
	if n == 0 {
		return nil, ErrEmptyLibrary
	}
	if k <= 0 {
		return nil, fmt.Errorf("number of clusters must be positive, got %d", k)
	}
	dim := len(vectors[0])
	for i, v := range vectors {
		if len(v) != dim {
			return nil, fmt.Errorf("vector %d has length %d, expected %d", i, len(v), dim)
		}
	}
	k = min(k, n)

	centroids := km.initCentroids(vectors, k)
	labels := make([]int, n)
	dists := make([]float64, n)
	counts := make([]int, k)

	iteration := 0
	for ; iteration < km.MaxIterations; iteration++ {
		assign(vectors, centroids, labels, dists)

		// compute new centroids
		sums := make([]FeatureVector, k)
		for c := range sums {
			sums[c] = make(FeatureVector, dim)
			counts[c] = 0
		}
		for i, v := range vectors {
			floats.Add(sums[labels[i]], v)
			counts[labels[i]]++
		}

		shift := 0.0
		for c := 0; c < k; c++ {
			if counts[c] == 0 {
				// re-seed with the vector that is worst represented
				far := floats.MaxIdx(dists)
				if dists[far] == 0 {
					// all vectors lie on their centroid, nothing to improve
					continue
				}
				copy(sums[c], vectors[far])
				dists[far] = 0
				shift = math.Inf(1)
			} else {
				floats.Scale(1/float64(counts[c]), sums[c])
				shift = math.Max(shift, floats.Distance(centroids[c], sums[c], 2))
			}
			centroids[c] = sums[c]
		}
		if shift <= km.Tolerance {
			iteration++
			break
		}
	}
	// labels must match the final centroids
	assign(vectors, centroids, labels, dists)

	model, err := NewClusterModel(centroids, labels)
	if err != nil {
		return nil, err
	}
	log.WithFields(log.Fields{
		"vectors":    n,
		"requested":  k,
		"clusters":   model.K(),
		"iterations": iteration,
	}).Debug("Fitted clusters")
	return model, nil
}

// assign sets labels[i] to the nearest centroid of vectors[i] and dists[i] to
// the distance between the two.
func assign(vectors, centroids []FeatureVector, labels []int, dists []float64) {
	for i, v := range vectors {
		labels[i], dists[i] = nearestCentroid(v, centroids)
	}
}

// initCentroids implements k-means++: The first centroid is chosen at random,
// each following with probability proportional to D(x)², the squared distance
// to the closest centroid chosen so far.
func (km *KMeans) initCentroids(vectors []FeatureVector, k int) []FeatureVector {
	n := len(vectors)
	centroids := make([]FeatureVector, 0, k)
	chosen := make([]bool, n)
	first := km.randGen.Intn(n)
	centroids = append(centroids, cloneVector(vectors[first]))
	chosen[first] = true

	weights := make([]float64, n)
	for len(centroids) < k {
		for i, v := range vectors {
			_, d := nearestCentroid(v, centroids)
			weights[i] = d * d
		}
		total := floats.Sum(weights)
		next := -1
		if total > 0 {
			target := km.randGen.Float64() * total
			cumulative := 0.0
			for i, w := range weights {
				cumulative += w
				if w > 0 && cumulative >= target {
					next = i
					break
				}
			}
			if next < 0 {
				next = floats.MaxIdx(weights)
			}
		} else {
			// all remaining vectors are duplicates of a centroid, pick any unused
			// one, the resulting empty clusters are removed later
			for i := range vectors {
				if !chosen[i] {
					next = i
					break
				}
			}
		}
		chosen[next] = true
		centroids = append(centroids, cloneVector(vectors[next]))
	}
	return centroids
}

func cloneVector(v FeatureVector) FeatureVector {
	res := make(FeatureVector, len(v))
	copy(res, v)
	return res
}
