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
	"sort"
	"strings"
	"sync"

	"github.com/lucasb-eyer/go-colorful"
	"gonum.org/v1/gonum/floats"
)

// Scorer compares the feature vector of a target cell (a) with the feature
// vector of a library tile (b). The higher the score the better the tile fits,
// 0 is a perfect match. Both vectors have the same length.
//
// Implementations must be safe for concurrent use.
type Scorer interface {
	Score(a, b FeatureVector) float64
}

// ScorerFunc is a function that implements Scorer.
type ScorerFunc func(a, b FeatureVector) float64

// Score calls f(a, b).
func (f ScorerFunc) Score(a, b FeatureVector) float64 {
	return f(a, b)
}

// EuclideanScorer returns the negative euclidean distance
// -sqrt( (a1 - b1)² + ... + (an - bn)² ) of the raw pixel values.
type EuclideanScorer struct{}

// Score implements Scorer.
func (EuclideanScorer) Score(a, b FeatureVector) float64 {
	return -floats.Distance(a, b, 2)
}

// DeltaEScorer returns the negative sum of the CIEDE2000 colour differences of
// all pixels. It is much slower than EuclideanScorer but closer to how
// differences are perceived. Note that the default threshold is tuned for
// EuclideanScorer.
type DeltaEScorer struct{}

// Score implements Scorer.
func (DeltaEScorer) Score(a, b FeatureVector) float64 {
	var total float64
	for i := 0; i+2 < len(a); i += NumChannels {
		colorA := colorful.Color{R: a[i] / 255.0, G: a[i+1] / 255.0, B: a[i+2] / 255.0}
		colorB := colorful.Color{R: b[i] / 255.0, G: b[i+1] / 255.0, B: b[i+2] / 255.0}
		total += colorA.DistanceCIEDE2000(colorB)
	}
	return -total
}

// The following variables are used for registering named scorers.

var (
	scorersMutex sync.RWMutex
	scorers      map[string]Scorer
)

// RegisterScorer is used to register a named scorer. It will only add the
// scorer if the name does not exist yet. The result is true if the scorer was
// successfully registered and false otherwise.
// All names are transformed to lowercase.
func RegisterScorer(name string, scorer Scorer) bool {
	name = strings.ToLower(name)
	scorersMutex.Lock()
	defer scorersMutex.Unlock()
	if _, has := scorers[name]; has {
		return false
	}
	scorers[name] = scorer
	return true
}

// GetScorerNames returns the sorted names of all registered scorers.
func GetScorerNames() []string {
	scorersMutex.RLock()
	defer scorersMutex.RUnlock()
	res := make([]string, 0, len(scorers))
	for key := range scorers {
		res = append(res, key)
	}
	sort.Strings(res)
	return res
}

// GetScorer returns a registered scorer.
func GetScorer(name string) (Scorer, bool) {
	name = strings.ToLower(name)
	scorersMutex.RLock()
	defer scorersMutex.RUnlock()
	scorer, has := scorers[name]
	return scorer, has
}

func init() {
	scorers = make(map[string]Scorer)
	RegisterScorer("euclid", EuclideanScorer{})
	RegisterScorer("ciede2000", DeltaEScorer{})
}
