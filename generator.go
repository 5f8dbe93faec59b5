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
	"sync"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// Stage describes how far the pipeline of a Generator got.
//
// Generate runs all stages while holding the lock of the generator, so Stage
// only reports the stages before PreProcessed or Assembled. The intermediate
// stages appear in the log messages of Generate.
type Stage int

const (
	// Uninitialized means no target image has been set.
	Uninitialized Stage = iota
	// TargetSet means the target is set but the library path is missing.
	TargetSet
	// LibrarySet means target and library path are set, mosaics can be
	// generated.
	LibrarySet
	// PreProcessed means the target is normalized and the library is loaded.
	PreProcessed
	// Clustered means the library has been partitioned.
	Clustered
	// Matched means a tile has been selected for each cell.
	Matched
	// Assembled means the mosaic has been created.
	Assembled
)

func (stage Stage) String() string {
	switch stage {
	case Uninitialized:
		return "Uninitialized"
	case TargetSet:
		return "TargetSet"
	case LibrarySet:
		return "LibrarySet"
	case PreProcessed:
		return "PreProcessed"
	case Clustered:
		return "Clustered"
	case Matched:
		return "Matched"
	case Assembled:
		return "Assembled"
	default:
		return fmt.Sprintf("Stage(%d)", stage)
	}
}

type targetKey struct {
	version    uint64
	numX, numY int
}

type libraryKey struct {
	dir                   string
	tileWidth, tileHeight int
}

// Generator drives the whole mosaic pipeline: normalize the target, load the
// library, partition the library, match tiles and compose the mosaic.
//
// Each stage caches its result together with the inputs it was computed for.
// Generate only re-runs the stages whose inputs changed: A new target or a new
// number of tiles normalizes the target again, a new library path or tile size
// reloads the library and partitions it again. Matching and composition run
// on every call.
//
// If Generate fails all previous results (target, library, mosaic) are kept.
//
// A Generator is safe for concurrent use, but calls are serialized.
type Generator struct {
	mu sync.Mutex

	config      Config
	builder     LibraryBuilder
	partitioner Partitioner
	scorer      Scorer

	// TargetResizer is used to normalize the target image.
	TargetResizer ImageResizer
	matchProgress ProgressFunc

	rawTarget     *image.RGBA
	targetVersion uint64
	libraryPath   string

	target    *Normalized
	targetFor targetKey

	library    *TileLibrary
	libraryFor libraryKey

	model  *ClusterModel
	grid   TileGrid
	output *image.RGBA
	stage  Stage
}

// NewGenerator returns a generator that loads libraries from the filesystem
// and partitions them with k-means.
func NewGenerator(config Config) (*Generator, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	builder := NewFSLibraryBuilder(config.NumRoutines)
	builder.Resizer = NewNfntResizer(GetInterP(config.InterP))
	builder.Lister = listerFor(config.Recursive)
	return NewGeneratorWith(config, builder,
		NewKMeans(config.MaxIterations, config.Tolerance, config.Seed))
}

// NewGeneratorWith returns a generator with the given library builder and
// partitioner.
func NewGeneratorWith(config Config, builder LibraryBuilder, partitioner Partitioner) (*Generator, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	scorer, _ := GetScorer(config.Metric)
	return &Generator{
		config:        config,
		builder:       builder,
		partitioner:   partitioner,
		scorer:        scorer,
		TargetResizer: DefaultTargetResizer,
		stage:         Uninitialized,
	}, nil
}

// Config returns the configuration of the generator.
func (g *Generator) Config() Config {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.config
}

// SetConfig replaces the configuration. Cached results that depend on changed
// values are dropped: A new tile interpolation reloads the library, new
// clustering parameters partition the library again.
func (g *Generator) SetConfig(config Config) error {
	if err := config.Validate(); err != nil {
		return err
	}
	scorer, _ := GetScorer(config.Metric)
	g.mu.Lock()
	defer g.mu.Unlock()
	old := g.config
	g.config = config
	g.scorer = scorer
	if fs := fsBuilder(g.builder); fs != nil {
		fs.NumRoutines = config.NumRoutines
		if config.InterP != old.InterP {
			fs.Resizer = NewNfntResizer(GetInterP(config.InterP))
			g.library, g.model = nil, nil
		}
		if config.Recursive != old.Recursive {
			fs.Lister = listerFor(config.Recursive)
			if caching, ok := g.builder.(*CachingBuilder); ok {
				caching.Lister = fs.Lister
			}
			g.library, g.model = nil, nil
		}
	}
	if config.ClusterCount != old.ClusterCount || config.MaxIterations != old.MaxIterations ||
		config.Tolerance != old.Tolerance || config.Seed != old.Seed {
		if _, isKMeans := g.partitioner.(*KMeans); isKMeans {
			g.partitioner = NewKMeans(config.MaxIterations, config.Tolerance, config.Seed)
		}
		g.model = nil
	}
	if g.library == nil || g.model == nil {
		g.stage = min(g.stage, g.inputStage())
	}
	return nil
}

func listerFor(recursive bool) DirLister {
	if recursive {
		return ListImagesRecursive
	}
	return ListImages
}

func fsBuilder(builder LibraryBuilder) *FSLibraryBuilder {
	switch b := builder.(type) {
	case *FSLibraryBuilder:
		return b
	case *CachingBuilder:
		return fsBuilder(b.Builder)
	default:
		return nil
	}
}

// Builder returns the builder used to load libraries.
func (g *Generator) Builder() LibraryBuilder {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.builder
}

// SetBuilder replaces the builder used to load libraries. The current library
// is kept until the library path or the tile size changes.
func (g *Generator) SetBuilder(builder LibraryBuilder) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.builder = builder
}

// SetMatchProgress sets the function that is called during matching, see
// Matcher. nil disables progress reports.
func (g *Generator) SetMatchProgress(progress ProgressFunc) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.matchProgress = progress
}

// SetScorer replaces the scorer used for matching.
func (g *Generator) SetScorer(scorer Scorer) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.scorer = scorer
}

// SetThreshold replaces the early-exit threshold used for matching.
func (g *Generator) SetThreshold(threshold float64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.config.Threshold = threshold
}

func (g *Generator) inputStage() Stage {
	switch {
	case g.rawTarget == nil:
		return Uninitialized
	case g.libraryPath == "":
		return TargetSet
	default:
		return LibrarySet
	}
}

// SetTarget sets the image the mosaic should recreate. The image is copied
// and converted to RGB. The output image is reset to the target, thus saving
// before generating stores the target.
func (g *Generator) SetTarget(img image.Image) error {
	if img == nil || img.Bounds().Empty() {
		return fmt.Errorf("target image is empty")
	}
	rgb := ToRGB(img)
	g.mu.Lock()
	defer g.mu.Unlock()
	g.rawTarget = rgb
	g.targetVersion++
	g.output = CloneRGBA(rgb)
	g.grid = nil
	g.stage = g.inputStage()
	return nil
}

// SetLibraryPath sets the directory containing the library images. Setting
// the same path again does nothing.
func (g *Generator) SetLibraryPath(dir string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if dir == g.libraryPath {
		return
	}
	g.libraryPath = dir
	g.stage = g.inputStage()
}

// LibraryPath returns the current library directory.
func (g *Generator) LibraryPath() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.libraryPath
}

// Stage returns the current stage of the pipeline.
func (g *Generator) Stage() Stage {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.stage
}

// CanGenerate returns a MissingComponentError if target or library path
// are missing, nil otherwise.
func (g *Generator) CanGenerate() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.canGenerate()
}

func (g *Generator) canGenerate() error {
	missing := make([]string, 0, 2)
	if g.libraryPath == "" {
		missing = append(missing, "library")
	}
	if g.rawTarget == nil {
		missing = append(missing, "target")
	}
	if len(missing) > 0 {
		return NewMissingComponentError("generate image", missing...)
	}
	return nil
}

// Generate creates a mosaic with numX columns and numY rows of tiles.
// It fails with a MissingComponentError if target or library path are not set
// and with ErrEmptyLibrary if there are no usable images in the library.
func (g *Generator) Generate(numX, numY int) (*image.RGBA, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.canGenerate(); err != nil {
		return nil, err
	}
	logger := log.WithFields(log.Fields{
		"run":     uuid.New().String(),
		"columns": numX,
		"rows":    numY,
	})
	totalStart := time.Now()

	// normalize target
	target, tKey := g.target, targetKey{version: g.targetVersion, numX: numX, numY: numY}
	if target == nil || tKey != g.targetFor {
		start := time.Now()
		var err error
		target, err = NormalizeTarget(g.rawTarget, numX, numY, g.TargetResizer, g.config.MaxCanvasPixels)
		if err != nil {
			return nil, err
		}
		logger.WithFields(log.Fields{
			"tile-width":  target.Divider.TileWidth,
			"tile-height": target.Divider.TileHeight,
			"took":        time.Since(start),
			"stage":       PreProcessed,
		}).Info("Normalized target image")
	}

	// load library
	divider := target.Divider
	library, lKey := g.library, libraryKey{dir: g.libraryPath, tileWidth: divider.TileWidth, tileHeight: divider.TileHeight}
	model := g.model
	if library == nil || lKey != g.libraryFor {
		start := time.Now()
		var err error
		library, err = g.builder.Build(g.libraryPath, divider.TileWidth, divider.TileHeight)
		if err != nil {
			return nil, err
		}
		logger.WithFields(log.Fields{
			"tiles": library.Len(),
			"took":  time.Since(start),
			"stage": PreProcessed,
		}).Info("Loaded tile library")
		// the model belongs to the old library
		model = nil
	}

	// partition library
	if model == nil {
		start := time.Now()
		var err error
		model, err = g.partitioner.Fit(library.Features, g.config.ClusterCount)
		if err != nil {
			return nil, err
		}
		logger.WithFields(log.Fields{
			"clusters": model.K(),
			"took":     time.Since(start),
			"stage":    Clustered,
		}).Info("Partitioned tile library")
	}

	// select tiles
	start := time.Now()
	matcher := NewMatcher(g.scorer, g.config.Threshold, g.config.NumRoutines)
	matcher.Progress = g.matchProgress
	grid, matchErr := matcher.MatchAll(target, library, model)
	if matchErr != nil {
		return nil, matchErr
	}
	logger.WithFields(log.Fields{
		"took":  time.Since(start),
		"stage": Matched,
	}).Info("Selected tiles")

	// compose
	start = time.Now()
	output, composeErr := ComposeMosaic(grid, library, g.config.MaxCanvasPixels)
	if composeErr != nil {
		return nil, composeErr
	}
	logger.WithFields(log.Fields{
		"took":  time.Since(start),
		"total": time.Since(totalStart),
		"stage": Assembled,
	}).Info("Composed mosaic")

	// everything worked, commit
	g.target, g.targetFor = target, tKey
	g.library, g.libraryFor = library, lKey
	g.model = model
	g.grid = grid
	g.output = output
	g.stage = Assembled
	return CloneRGBA(output), nil
}

// GetOutputImage returns a copy of the last generated mosaic. If no mosaic has
// been generated since the target was set it is a copy of the target.
// Returns nil if no target was set yet.
func (g *Generator) GetOutputImage() *image.RGBA {
	g.mu.Lock()
	defer g.mu.Unlock()
	return CloneRGBA(g.output)
}

// GetTargetImage returns a copy of the target image. If the target has been
// normalized for the last mosaic the normalized image is returned.
// Returns nil if no target was set yet.
func (g *Generator) GetTargetImage() *image.RGBA {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.target != nil && g.targetFor.version == g.targetVersion {
		return CloneRGBA(g.target.Image)
	}
	return CloneRGBA(g.rawTarget)
}

// TileGrid returns a copy of the tile grid of the last mosaic, nil if there
// is none.
func (g *Generator) TileGrid() TileGrid {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.grid == nil {
		return nil
	}
	res := make(TileGrid, len(g.grid))
	for i, row := range g.grid {
		res[i] = append([]int(nil), row...)
	}
	return res
}

// Library returns the library used for the last mosaic, nil if none has been
// loaded. The library must not be modified.
func (g *Generator) Library() *TileLibrary {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.library
}

// NumTiles returns the number of tiles in the current library, 0 if no
// library has been loaded.
func (g *Generator) NumTiles() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.library == nil {
		return 0
	}
	return g.library.Len()
}

// CanSave returns a MissingComponentError if there is no image to save.
func (g *Generator) CanSave() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.output == nil {
		return NewMissingComponentError("save image", "output")
	}
	return nil
}

// SaveImage writes the output image to the given file.
func (g *Generator) SaveImage(path string) error {
	if err := g.CanSave(); err != nil {
		return err
	}
	g.mu.Lock()
	output, quality := g.output, g.config.JPGQuality
	g.mu.Unlock()
	return SaveImage(path, output, quality)
}
