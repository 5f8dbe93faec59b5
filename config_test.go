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
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()
	require.NoError(t, config.Validate())
	assert.Equal(t, 24, config.ClusterCount)
	assert.Equal(t, -3.5, config.Threshold)
	assert.Equal(t, 100, config.JPGQuality)
	assert.Equal(t, "euclid", config.Metric)
	assert.Positive(t, config.NumRoutines)
}

func TestConfigValidate(t *testing.T) {
	tests := map[string]func(c *Config){
		"clusters":   func(c *Config) { c.ClusterCount = 0 },
		"routines":   func(c *Config) { c.NumRoutines = -1 },
		"iterations": func(c *Config) { c.MaxIterations = 0 },
		"tolerance":  func(c *Config) { c.Tolerance = -0.1 },
		"quality":    func(c *Config) { c.JPGQuality = 101 },
		"metric":     func(c *Config) { c.Metric = "manhattan" },
	}
	for name, modify := range tests {
		config := DefaultConfig()
		modify(&config)
		assert.Error(t, config.Validate(), name)
	}
}

func TestLoadConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "mosaic.yaml")
	content := "clusters: 8\nthreshold: -10.5\nmetric: CIEDE2000\nrecursive: true\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	config, err := LoadConfigFile(path)
	require.NoError(t, err)
	assert.Equal(t, 8, config.ClusterCount)
	assert.Equal(t, -10.5, config.Threshold)
	assert.Equal(t, "CIEDE2000", config.Metric)
	assert.True(t, config.Recursive)
	// not in the file
	assert.Equal(t, DefaultMaxIterations, config.MaxIterations)
	assert.Equal(t, DefaultMaxCanvasPixels, config.MaxCanvasPixels)

	require.NoError(t, os.WriteFile(path, []byte("clusters: [1, 2"), 0o644))
	_, err = LoadConfigFile(path)
	assert.Error(t, err)

	require.NoError(t, os.WriteFile(path, []byte("jpeg-quality: 0\n"), 0o644))
	_, err = LoadConfigFile(path)
	assert.Error(t, err)

	_, err = LoadConfigFile(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}
