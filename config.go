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
	"os"
	"runtime"

	"gopkg.in/yaml.v3"
)

const (
	// DefaultClusterCount is the number of clusters the tile library is
	// partitioned into (if the library has at least that many images).
	DefaultClusterCount = 24

	// DefaultThreshold is the early-exit score: once a candidate scores above
	// this value the search for the current cell stops.
	// It was tuned by hand for the negative euclidean distance over raw pixel
	// values, a different scorer probably needs a different value.
	DefaultThreshold = -3.5

	// DefaultMaxIterations is the iteration cap for k-means.
	DefaultMaxIterations = 300

	// DefaultTolerance is the centroid movement below which k-means is
	// considered converged.
	DefaultTolerance = 1e-4

	// DefaultMaxCanvasPixels is the largest canvas (and target) we're willing
	// to allocate.
	DefaultMaxCanvasPixels int64 = 1 << 28
)

// Config contains all options of a Generator.
type Config struct {
	// ClusterCount is the requested number of clusters k, the actual number
	// is min(ClusterCount, number of tiles).
	ClusterCount int `yaml:"clusters"`

	// Threshold is the early-exit bound, see DefaultThreshold.
	Threshold float64 `yaml:"threshold"`

	// NumRoutines is the number of go routines used for loading tiles and
	// matching cells.
	NumRoutines int `yaml:"routines"`

	// MaxIterations and Tolerance control the k-means iterations.
	MaxIterations int     `yaml:"max-iterations"`
	Tolerance     float64 `yaml:"tolerance"`

	// Seed is used for the centroid initialization. 0 means a time based seed,
	// thus different runs might select different tiles.
	Seed int64 `yaml:"seed"`

	// MaxCanvasPixels is the maximal number of pixels of the normalized target
	// and the mosaic. ≤ 0 disables the check.
	MaxCanvasPixels int64 `yaml:"max-pixels"`

	// JPGQuality is the quality between 1 and 100 used when storing images.
	JPGQuality int `yaml:"jpeg-quality"`

	// InterP is the quality of the tile resize interpolation, see GetInterP.
	InterP uint `yaml:"interp"`

	// Metric is the name of the scorer, see GetScorer.
	Metric string `yaml:"metric"`

	// Recursive controls if sub-directories of the library are searched for
	// images.
	Recursive bool `yaml:"recursive"`
}

// DefaultConfig returns the config with all default values.
func DefaultConfig() Config {
	return Config{
		ClusterCount:    DefaultClusterCount,
		Threshold:       DefaultThreshold,
		NumRoutines:     defaultRoutines(),
		MaxIterations:   DefaultMaxIterations,
		Tolerance:       DefaultTolerance,
		Seed:            0,
		MaxCanvasPixels: DefaultMaxCanvasPixels,
		JPGQuality:      100,
		InterP:          1,
		Metric:          "euclid",
	}
}

func defaultRoutines() int {
	// seems reasonable
	routines := runtime.NumCPU() * 2
	if routines <= 0 {
		routines = 4
	}
	return routines
}

// Validate checks if all values are in their valid range.
func (c Config) Validate() error {
	switch {
	case c.ClusterCount <= 0:
		return fmt.Errorf("invalid cluster count %d: must be positive", c.ClusterCount)
	case c.NumRoutines <= 0:
		return fmt.Errorf("invalid number of routines %d: must be positive", c.NumRoutines)
	case c.MaxIterations <= 0:
		return fmt.Errorf("invalid number of iterations %d: must be positive", c.MaxIterations)
	case c.Tolerance < 0:
		return fmt.Errorf("invalid tolerance %f: must not be negative", c.Tolerance)
	case c.JPGQuality < 1 || c.JPGQuality > 100:
		return fmt.Errorf("invalid jpeg quality %d: must be between 1 and 100", c.JPGQuality)
	}
	if _, ok := GetScorer(c.Metric); !ok {
		return fmt.Errorf("unknown metric %q", c.Metric)
	}
	return nil
}

// LoadConfigFile reads a yaml file and applies it on top of DefaultConfig,
// keys not present in the file keep their default value.
func LoadConfigFile(path string) (Config, error) {
	res := DefaultConfig()
	content, err := os.ReadFile(path)
	if err != nil {
		return res, err
	}
	if err := yaml.Unmarshal(content, &res); err != nil {
		return res, fmt.Errorf("parsing config file %s: %w", path, err)
	}
	if err := res.Validate(); err != nil {
		return res, fmt.Errorf("config file %s: %w", path, err)
	}
	return res, nil
}
