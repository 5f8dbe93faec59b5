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

// This file contains some predefined scripts that can be executed. This way
// we have some easy way to crate mosaics without requiring the user to know
// any details.

var (
	// RunSimple contains script code that sets the library and the target and
	// then creates and saves the mosaic.
	// It is parameterized by four parameters: First the directory containing the
	// library images, second the name of the target file, third the name of the
	// output file and fourth the number of tiles in the mosaic.
	//
	// Example usage: RunSimple ~/Pictures/ input.jpg output.png 20x30
	RunSimple = `library $1
target $2
mosaic $4 $3`

	// RunMetric is similar to RunSimple but takes an additional argument: The
	// metric name.
	//
	// Example usage: RunMetric ~/Pictures/ input.jpg output.png 20x30 ciede2000
	RunMetric = `set metric $5
library $1
target $2
mosaic $4 $3`

	// CompareMetrics is similar to RunSimple but generates one mosaic for each
	// metric. Thus the third argument is not a path for a file but a directory.
	// The library is only loaded and partitioned once.
	//
	// Example usage: CompareMetrics ~/Pictures/ input.jpg ./output/ 20x30
	CompareMetrics = `library $1
target $2
set metric euclid
mosaic $4 $3/mosaic-euclid.png
set metric ciede2000
mosaic $4 $3/mosaic-ciede2000.png`
)

// PredefinedScripts maps script names to scripts.
var PredefinedScripts = map[string]string{
	"RunSimple":      RunSimple,
	"RunMetric":      RunMetric,
	"CompareMetrics": CompareMetrics,
}
