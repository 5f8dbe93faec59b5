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

package main

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/FabianWe/photomosaic"
	homedir "github.com/mitchellh/go-homedir"
	"github.com/samber/lo"
	log "github.com/sirupsen/logrus"
	flag "github.com/spf13/pflag"
)

type options struct {
	target, library, out, tiles string
	configFile, cacheDir        string
	script                      string
	metric                      string
	clusters, routines          int
	threshold                   float64
	seed                        int64
	verbose, recursive          bool
}

func parseFlags(args []string) (*options, *flag.FlagSet, error) {
	opts := &options{}
	defaults := photomosaic.DefaultConfig()
	fs := flag.NewFlagSet("mosaic", flag.ContinueOnError)
	fs.StringVarP(&opts.target, "target", "t", "", "image the mosaic should recreate, starts the shell if omitted")
	fs.StringVarP(&opts.library, "library", "l", "", "directory containing the tile images")
	fs.StringVarP(&opts.out, "out", "o", "mosaic.png", "file the mosaic is written to")
	fs.StringVar(&opts.tiles, "tiles", "20x20", "number of tiles, columns x rows")
	fs.StringVarP(&opts.configFile, "config", "c", "", "yaml file with generator options")
	fs.StringVar(&opts.cacheDir, "cache", "", "directory to store preprocessed libraries in")
	fs.StringVar(&opts.script, "script", "", "run a script file or one of the predefined scripts ("+
		strings.Join(scriptNames(), ", ")+"), remaining arguments are script parameters")
	fs.StringVar(&opts.metric, "metric", defaults.Metric, "tile scoring metric ("+
		strings.Join(photomosaic.GetScorerNames(), ", ")+")")
	fs.IntVar(&opts.clusters, "clusters", defaults.ClusterCount, "number of clusters the library is partitioned into")
	fs.IntVar(&opts.routines, "routines", defaults.NumRoutines, "number of go routines")
	fs.Float64Var(&opts.threshold, "threshold", defaults.Threshold, "stop searching a cluster once a tile scores above this value")
	fs.Int64Var(&opts.seed, "seed", defaults.Seed, "seed for the cluster initialization, 0 for a random seed")
	fs.BoolVarP(&opts.recursive, "recursive", "r", false, "also use images in sub-directories of the library")
	fs.BoolVarP(&opts.verbose, "verbose", "v", false, "print debug output")
	err := fs.Parse(args)
	return opts, fs, err
}

func scriptNames() []string {
	names := lo.Keys(photomosaic.PredefinedScripts)
	sort.Strings(names)
	return names
}

// buildConfig reads the config file (if any) and applies all flags that were
// set explicitly on top of it.
func buildConfig(opts *options, fs *flag.FlagSet) (photomosaic.Config, error) {
	config := photomosaic.DefaultConfig()
	if opts.configFile != "" {
		path, err := homedir.Expand(opts.configFile)
		if err != nil {
			return config, err
		}
		if config, err = photomosaic.LoadConfigFile(path); err != nil {
			return config, err
		}
	}
	if fs.Changed("metric") {
		config.Metric = opts.metric
	}
	if fs.Changed("clusters") {
		config.ClusterCount = opts.clusters
	}
	if fs.Changed("routines") {
		config.NumRoutines = opts.routines
	}
	if fs.Changed("threshold") {
		config.Threshold = opts.threshold
	}
	if fs.Changed("seed") {
		config.Seed = opts.seed
	}
	if fs.Changed("recursive") {
		config.Recursive = opts.recursive
	}
	return config, config.Validate()
}

func expandAll(paths ...*string) error {
	for _, path := range paths {
		if *path == "" {
			continue
		}
		expanded, err := homedir.Expand(*path)
		if err != nil {
			return err
		}
		*path = expanded
	}
	return nil
}

func runOnce(opts *options, config photomosaic.Config) error {
	if opts.library == "" {
		return photomosaic.NewMissingComponentError("generate image", "library")
	}
	numX, numY, err := photomosaic.ParseDimensions(opts.tiles)
	if err != nil {
		return err
	}
	gen, err := photomosaic.NewGenerator(config)
	if err != nil {
		return err
	}
	if opts.cacheDir != "" {
		if err := os.MkdirAll(opts.cacheDir, 0o755); err != nil {
			return err
		}
		gen.SetBuilder(photomosaic.NewCachingBuilder(gen.Builder(), opts.cacheDir))
	}
	img, err := photomosaic.LoadImage(opts.target)
	if err != nil {
		return err
	}
	if err := gen.SetTarget(img); err != nil {
		return err
	}
	gen.SetLibraryPath(opts.library)
	gen.SetMatchProgress(photomosaic.LoggerProgressFunc("Selecting tiles", numX*numY, max(1, numX*numY/10)))
	if _, err := gen.Generate(numX, numY); err != nil {
		return err
	}
	if err := gen.SaveImage(opts.out); err != nil {
		return err
	}
	log.WithField("file", opts.out).Info("Mosaic saved")
	return nil
}

func runScript(opts *options, config photomosaic.Config, args []string) error {
	var source io.Reader
	if script, ok := photomosaic.PredefinedScripts[opts.script]; ok {
		source = strings.NewReader(script)
	} else {
		path, err := homedir.Expand(opts.script)
		if err != nil {
			return err
		}
		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()
		source = f
	}
	parameterized, err := photomosaic.Parameterized(source, args...)
	if err != nil {
		return err
	}
	return photomosaic.Execute(photomosaic.NewScriptHandler(parameterized, config), photomosaic.DefaultCommands)
}

func main() {
	opts, fs, err := parseFlags(os.Args[1:])
	if err != nil {
		if err == flag.ErrHelp {
			os.Exit(0)
		}
		os.Exit(2)
	}
	if opts.verbose {
		log.SetLevel(log.DebugLevel)
	}
	if err := expandAll(&opts.target, &opts.library, &opts.out, &opts.cacheDir); err != nil {
		log.WithError(err).Fatal("Invalid path")
	}
	config, err := buildConfig(opts, fs)
	if err != nil {
		log.WithError(err).Fatal("Invalid configuration")
	}
	switch {
	case opts.script != "":
		err = runScript(opts, config, fs.Args())
	case opts.target != "":
		err = runOnce(opts, config)
	default:
		err = photomosaic.Execute(photomosaic.ReplHandler{Config: config}, photomosaic.DefaultCommands)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
