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
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	homedir "github.com/mitchellh/go-homedir"
	"github.com/samber/lo"
)

var (
	// ErrCmdSyntaxErr is returned by a CommandFunc if the syntax for the command
	// is invalid.
	ErrCmdSyntaxErr = errors.New("invalid command syntax")

	errParseCmd = errors.New("error parsing command line")
)

// ExecutorState is the state during a CommandHandler execution, see that
// type for more details of the workflow.
//
// The variables in the state are shared among the executions of the command
// functions.
type ExecutorState struct {
	// WorkingDir is the current directory. It must always be an absolute path.
	WorkingDir string

	// Generator holds target, library and the last mosaic.
	Generator *Generator

	// Verbose is true if detailed output should be generated.
	Verbose bool

	// In is the source to read commands from (line by line).
	In io.Reader

	// Out is used to write state information.
	Out io.Writer
}

// NewExecutorState returns a state working in the current directory with a
// new generator.
func NewExecutorState(config Config, in io.Reader, out io.Writer) (*ExecutorState, error) {
	dir, err := filepath.Abs(".")
	if err != nil {
		return nil, fmt.Errorf("unable to retrieve path: %w", err)
	}
	gen, genErr := NewGenerator(config)
	if genErr != nil {
		return nil, genErr
	}
	return &ExecutorState{
		WorkingDir: dir,
		Generator:  gen,
		Verbose:    true,
		In:         in,
		Out:        out,
	}, nil
}

// GetPath returns the absolute path given some other path.
// If the user inputs a relative path it is joined with the working
// directory. The home directory can be used like on Unix: ~/Pictures is the
// Pictures directory in the home directory of the user.
func (state *ExecutorState) GetPath(path string) (string, error) {
	res, pathErr := homedir.Expand(path)
	if pathErr != nil {
		return "", pathErr
	}
	if !filepath.IsAbs(res) {
		res = filepath.Join(state.WorkingDir, res)
	}
	return filepath.Abs(res)
}

// CommandFunc is a function that is applied to the current states and
// arguments to that command.
type CommandFunc func(state *ExecutorState, args ...string) error

// Command a command consists of a function to actually execute the command
// and some information about the command.
type Command struct {
	Exec        CommandFunc
	Usage       string
	Description string
}

// CommandMap maps command names to Commands.
type CommandMap map[string]Command

// DefaultCommands contains all commands of the mosaic shell.
var DefaultCommands CommandMap

// CommandHandler together with Execute implements a high-level command
// execution loop. CommandFuncs are applied to the current state until there
// are no more commands to execute (no more input).
//
// A command has the form "COMMAND ARG1 ... ARGN" where COMMAND is the command
// name and ARG1 to ARGN are the arguments for the command.
//
// Execute first creates the state with Init and calls Start. Then each line
// of the state's reader is parsed and executed, Before and After are called
// around each line. The On* methods are called on parse errors, unknown
// commands, failed and successful commands. Those returning a bool decide
// whether execution continues.
// Commands return ErrCmdSyntaxErr if they were called with invalid arguments,
// OnError can print the usage in this case.
type CommandHandler interface {
	Init() (*ExecutorState, error)
	Start(s *ExecutorState)
	Before(s *ExecutorState)
	After(s *ExecutorState)
	OnParseErr(s *ExecutorState, err error) bool
	OnInvalidCmd(s *ExecutorState, cmd string) bool
	OnSuccess(s *ExecutorState, cmd Command)
	OnError(s *ExecutorState, err error, cmd Command) bool
	OnScanErr(s *ExecutorState, err error)
}

// ErrExecutionStopped is returned by Execute if the handler stopped the
// execution after an error.
var ErrExecutionStopped = errors.New("execution stopped")

// Execute implements the high-level execution loop as described in the
// documentation of CommandHandler. commandMap is used to lookup commands.
//
// It returns an error if the state could not be created, the input could not
// be read or the handler stopped execution.
func Execute(handler CommandHandler, commandMap CommandMap) error {
	state, initErr := handler.Init()
	if initErr != nil {
		return initErr
	}
	handler.Start(state)
	scanner := bufio.NewScanner(state.In)
	for scanner.Scan() {
		handler.Before(state)
		if !executeLine(handler, commandMap, state, scanner.Text()) {
			return ErrExecutionStopped
		}
		handler.After(state)
	}
	if scanErr := scanner.Err(); scanErr != nil {
		handler.OnScanErr(state, scanErr)
		return scanErr
	}
	return nil
}

func executeLine(handler CommandHandler, commandMap CommandMap, state *ExecutorState, line string) bool {
	parsedCmd, parseErr := ParseCommand(line)
	if parseErr != nil {
		return handler.OnParseErr(state, parseErr)
	}
	if len(parsedCmd) == 0 || strings.HasPrefix(parsedCmd[0], "#") {
		return true
	}
	name := parsedCmd[0]
	cmd, ok := commandMap[name]
	if !ok {
		return handler.OnInvalidCmd(state, name)
	}
	if execErr := cmd.Exec(state, parsedCmd[1:]...); execErr != nil {
		return handler.OnError(state, execErr, cmd)
	}
	handler.OnSuccess(state, cmd)
	return true
}

type parseState int

const (
	parseBetween parseState = iota
	parsePlain
	parsePlainEscape
	parseQuoted
	parseQuotedEscape
)

// ParseCommand parses a command of the form "COMMAND ARG1 ... ARGN".
// Examples:
//
// foo bar is the command "foo" with argument "bar". Arguments might also
// be enclosed in quotes, so foo "bar bar" is parsed as command foo with
// argument bar bar (a single argument). Inside and outside of quotes \" and
// \\ are a literal quote / backslash.
func ParseCommand(s string) ([]string, error) {
	res := make([]string, 0)
	var current []rune
	state := parseBetween
	for _, r := range s {
		switch state {
		case parseBetween:
			switch r {
			case ' ', '\t':
			case '\\':
				state = parsePlainEscape
			case '"':
				state = parseQuoted
			default:
				current = append(current, r)
				state = parsePlain
			}
		case parsePlain:
			switch r {
			case ' ', '\t':
				res = append(res, string(current))
				current = nil
				state = parseBetween
			case '\\':
				state = parsePlainEscape
			case '"':
				return nil, errParseCmd
			default:
				current = append(current, r)
			}
		case parseQuoted:
			switch r {
			case '"':
				// might be empty, so add it here
				res = append(res, string(current))
				current = nil
				state = parseBetween
			case '\\':
				state = parseQuotedEscape
			default:
				current = append(current, r)
			}
		case parsePlainEscape, parseQuotedEscape:
			if r != '\\' && r != '"' {
				return nil, errParseCmd
			}
			current = append(current, r)
			if state == parsePlainEscape {
				state = parsePlain
			} else {
				state = parseQuoted
			}
		}
	}
	switch state {
	case parsePlain:
		res = append(res, string(current))
	case parsePlainEscape, parseQuoted, parseQuotedEscape:
		return nil, errParseCmd
	}
	return res, nil
}

// PwdCommand is a command that prints the current working directory.
func PwdCommand(state *ExecutorState, args ...string) error {
	fmt.Fprintln(state.Out, state.WorkingDir)
	return nil
}

// CdCommand is a command that changes the current directory.
func CdCommand(state *ExecutorState, args ...string) error {
	if len(args) != 1 {
		return ErrCmdSyntaxErr
	}
	path, pathErr := state.GetPath(args[0])
	if pathErr != nil {
		return fmt.Errorf("changing directory failed: %w", pathErr)
	}
	fi, statErr := os.Stat(path)
	if statErr != nil {
		return fmt.Errorf("changing directory failed: %w", statErr)
	}
	if !fi.IsDir() {
		return fmt.Errorf("changing directory failed: \"%s\" is not a directory", path)
	}
	state.WorkingDir = path
	return nil
}

func stateVariables(state *ExecutorState) map[string]interface{} {
	gen := state.Generator
	config := gen.Config()
	library := gen.LibraryPath()
	if library == "" {
		library = "<none>"
	}
	return map[string]interface{}{
		"routines":       config.NumRoutines,
		"verbose":        state.Verbose,
		"clusters":       config.ClusterCount,
		"threshold":      config.Threshold,
		"metric":         config.Metric,
		"max-iterations": config.MaxIterations,
		"tolerance":      config.Tolerance,
		"seed":           config.Seed,
		"max-pixels":     config.MaxCanvasPixels,
		"jpeg-quality":   config.JPGQuality,
		"interp":         InterPString(config.InterP),
		"recursive":      config.Recursive,
		"library":        library,
		"tiles":          gen.NumTiles(),
		"stage":          gen.Stage().String(),
	}
}

// StatsCommand is a command that prints variable / value pairs.
func StatsCommand(state *ExecutorState, args ...string) error {
	m := stateVariables(state)
	switch len(args) {
	case 0:
		keys := lo.Keys(m)
		sort.Strings(keys)
		for _, variable := range keys {
			fmt.Fprintf(state.Out, "%s ==> %v\n", variable, m[variable])
		}
		return nil
	case 1:
		val, has := m[args[0]]
		if !has {
			return fmt.Errorf("unknown variable %s", args[0])
		}
		fmt.Fprintf(state.Out, "%s ==> %v\n", args[0], val)
		return nil
	default:
		return ErrCmdSyntaxErr
	}
}

func parsePositive(name, s string) (int, error) {
	val, err := strconv.Atoi(s)
	if err != nil || val <= 0 {
		return 0, fmt.Errorf("invalid value for %s (must be positive int): %s", name, s)
	}
	return val, nil
}

// SetVarCommand sets a variable to a new value.
func SetVarCommand(state *ExecutorState, args ...string) error {
	if len(args) != 2 {
		return errors.New("invalid set syntax: requires variable and value. For a list of variables use \"stats\"")
	}
	name, valueStr := args[0], args[1]
	config := state.Generator.Config()
	var err error
	switch name {
	case "verbose":
		val, parseErr := strconv.ParseBool(valueStr)
		if parseErr != nil {
			return fmt.Errorf("invalid value for verbose (must be true or false): %w", parseErr)
		}
		state.Verbose = val
		return nil
	case "recursive":
		config.Recursive, err = strconv.ParseBool(valueStr)
	case "routines":
		config.NumRoutines, err = parsePositive(name, valueStr)
	case "clusters":
		config.ClusterCount, err = parsePositive(name, valueStr)
	case "max-iterations":
		config.MaxIterations, err = parsePositive(name, valueStr)
	case "jpeg-quality":
		config.JPGQuality, err = strconv.Atoi(valueStr)
	case "threshold":
		config.Threshold, err = strconv.ParseFloat(valueStr, 64)
	case "tolerance":
		config.Tolerance, err = strconv.ParseFloat(valueStr, 64)
	case "seed":
		config.Seed, err = strconv.ParseInt(valueStr, 10, 64)
	case "max-pixels":
		config.MaxCanvasPixels, err = strconv.ParseInt(valueStr, 10, 64)
	case "metric":
		config.Metric = valueStr
	case "interp":
		var val uint64
		val, err = strconv.ParseUint(valueStr, 10, 32)
		config.InterP = uint(val)
	default:
		return fmt.Errorf("invalid variable \"%s\". For a list use \"stats\"", name)
	}
	if err != nil {
		return fmt.Errorf("invalid value for %s: %w", name, err)
	}
	return state.Generator.SetConfig(config)
}

// TargetCommand loads the target image from a file. Without arguments it
// prints the size of the current target.
func TargetCommand(state *ExecutorState, args ...string) error {
	switch len(args) {
	case 0:
		target := state.Generator.GetTargetImage()
		if target == nil {
			fmt.Fprintln(state.Out, "No target image set")
		} else {
			fmt.Fprintf(state.Out, "Target image has size %dx%d\n", target.Bounds().Dx(), target.Bounds().Dy())
		}
		return nil
	case 1:
		path, pathErr := state.GetPath(args[0])
		if pathErr != nil {
			return pathErr
		}
		img, loadErr := LoadImage(path)
		if loadErr != nil {
			return loadErr
		}
		if err := state.Generator.SetTarget(img); err != nil {
			return err
		}
		if state.Verbose {
			fmt.Fprintf(state.Out, "Loaded target image %s (%dx%d)\n", path, img.Bounds().Dx(), img.Bounds().Dy())
		}
		return nil
	default:
		return ErrCmdSyntaxErr
	}
}

// LibraryCommand sets the directory containing the library images.
// Without arguments it prints the current directory and the number of loaded
// tiles, with "list" it prints all images found in the directory.
func LibraryCommand(state *ExecutorState, args ...string) error {
	gen := state.Generator
	switch {
	case len(args) == 0:
		if gen.LibraryPath() == "" {
			fmt.Fprintln(state.Out, "No library set")
		} else {
			fmt.Fprintf(state.Out, "Library %s with %d loaded tiles\n", gen.LibraryPath(), gen.NumTiles())
		}
		return nil
	case len(args) == 1 && args[0] == "list":
		if gen.LibraryPath() == "" {
			return NewMissingComponentError("list images", "library")
		}
		paths, err := ListImages(gen.LibraryPath(), AllFormats)
		if err != nil {
			return err
		}
		for _, path := range paths {
			fmt.Fprintln(state.Out, path)
		}
		fmt.Fprintf(state.Out, "%d images\n", len(paths))
		return nil
	case len(args) == 1:
		path, pathErr := state.GetPath(args[0])
		if pathErr != nil {
			return pathErr
		}
		fi, statErr := os.Stat(path)
		if statErr != nil {
			return statErr
		}
		if !fi.IsDir() {
			return fmt.Errorf("\"%s\" is not a directory", path)
		}
		gen.SetLibraryPath(path)
		if state.Verbose {
			fmt.Fprintln(state.Out, "Library set to", path)
		}
		return nil
	default:
		return ErrCmdSyntaxErr
	}
}

// MosaicCommand creates a mosaic with the given number of tiles and saves it
// if an output file is given.
func MosaicCommand(state *ExecutorState, args ...string) error {
	if len(args) < 1 || len(args) > 2 {
		return ErrCmdSyntaxErr
	}
	numX, numY, parseErr := ParseDimensions(args[0])
	if parseErr != nil {
		return parseErr
	}
	gen := state.Generator
	if err := gen.CanGenerate(); err != nil {
		return err
	}
	if state.Verbose {
		numTiles := numX * numY
		gen.SetMatchProgress(StdProgressFunc(state.Out, "Selecting tiles", numTiles, max(1, min(100, numTiles/10))))
	} else {
		gen.SetMatchProgress(nil)
	}
	start := time.Now()
	mosaic, err := gen.Generate(numX, numY)
	if err != nil {
		return err
	}
	if state.Verbose {
		fmt.Fprintf(state.Out, "Created mosaic of size %dx%d from %d tiles in %v\n",
			mosaic.Bounds().Dx(), mosaic.Bounds().Dy(), gen.NumTiles(), time.Since(start))
	}
	if len(args) == 2 {
		return SaveCommand(state, args[1])
	}
	return nil
}

// SaveCommand saves the output image.
func SaveCommand(state *ExecutorState, args ...string) error {
	if len(args) != 1 {
		return ErrCmdSyntaxErr
	}
	path, pathErr := state.GetPath(args[0])
	if pathErr != nil {
		return pathErr
	}
	if err := state.Generator.SaveImage(path); err != nil {
		return err
	}
	fmt.Fprintln(state.Out, "Image saved to", path)
	return nil
}

// CacheCommand enables ("cache DIR") or disables ("cache off") storing
// preprocessed libraries in DIR. Without arguments it prints the current
// cache directory.
func CacheCommand(state *ExecutorState, args ...string) error {
	gen := state.Generator
	current, caching := gen.Builder().(*CachingBuilder)
	switch {
	case len(args) == 0:
		if caching {
			fmt.Fprintln(state.Out, "Library cache in", current.CacheDir)
		} else {
			fmt.Fprintln(state.Out, "Library cache disabled")
		}
		return nil
	case len(args) == 1 && args[0] == "off":
		if caching {
			gen.SetBuilder(current.Builder)
		}
		return nil
	case len(args) == 1:
		dir, pathErr := state.GetPath(args[0])
		if pathErr != nil {
			return pathErr
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
		base := gen.Builder()
		if caching {
			base = current.Builder
		}
		gen.SetBuilder(NewCachingBuilder(base, dir))
		return nil
	default:
		return ErrCmdSyntaxErr
	}
}

func init() {
	DefaultCommands = make(CommandMap, 10)
	DefaultCommands["pwd"] = Command{
		Exec:        PwdCommand,
		Usage:       "pwd",
		Description: "Show current working directory.",
	}
	DefaultCommands["cd"] = Command{
		Exec:        CdCommand,
		Usage:       "cd <dir>",
		Description: "Change working directory to the specified directory.",
	}
	DefaultCommands["stats"] = Command{
		Exec:        StatsCommand,
		Usage:       "stats [var]",
		Description: "Show value of variables that can be changed via set, if var is given only value of that variable.",
	}
	DefaultCommands["set"] = Command{
		Exec:  SetVarCommand,
		Usage: "set <variable> <value>",
		Description: "Set value for a variable. Variables: routines, verbose, clusters, threshold," +
			" metric, max-iterations, tolerance, seed, max-pixels, jpeg-quality, interp and recursive." +
			" Valid metrics: " + strings.Join(GetScorerNames(), " "),
	}
	DefaultCommands["target"] = Command{
		Exec:        TargetCommand,
		Usage:       "target [file]",
		Description: "Load the image the mosaic should recreate.",
	}
	DefaultCommands["library"] = Command{
		Exec:  LibraryCommand,
		Usage: "library [dir] or library list",
		Description: "Set the directory containing the tile images. All images" +
			" in the directory (not recursive) are used as tiles, files that can't" +
			" be decoded are skipped. \"list\" prints all images in the directory.",
	}
	DefaultCommands["mosaic"] = Command{
		Exec:  MosaicCommand,
		Usage: "mosaic <tiles> [out]",
		Description: "Creates a mosaic. tiles is the number of tiles, for example" +
			" \"30x20\" creates 30 tiles in x and 20 tiles in y direction. If out" +
			" is given the mosaic is saved to that file.",
	}
	DefaultCommands["save"] = Command{
		Exec:        SaveCommand,
		Usage:       "save <file>",
		Description: "Save the last mosaic (or the target if no mosaic was created yet).",
	}
	DefaultCommands["cache"] = Command{
		Exec:  CacheCommand,
		Usage: "cache [dir] or cache off",
		Description: "Store preprocessed libraries in dir and reuse them while" +
			" the library directory does not change.",
	}
}

// ReplHandler implements CommandHandler by reading commands from stdin and
// writing output to stdout.
type ReplHandler struct {
	Config Config
}

// Init implements CommandHandler.
func (h ReplHandler) Init() (*ExecutorState, error) {
	return NewExecutorState(h.Config, os.Stdin, os.Stdout)
}

// Start implements CommandHandler.
func (h ReplHandler) Start(s *ExecutorState) {
	fmt.Fprintln(s.Out, "Welcome to the mosaic generator")
	fmt.Fprintln(s.Out, "Copyright © 2018 Fabian Wenzelmann")
	fmt.Fprint(s.Out, ">>> ")
}

// Before implements CommandHandler.
func (h ReplHandler) Before(s *ExecutorState) {}

// After implements CommandHandler.
func (h ReplHandler) After(s *ExecutorState) {
	fmt.Fprint(s.Out, ">>> ")
}

// OnParseErr implements CommandHandler.
func (h ReplHandler) OnParseErr(s *ExecutorState, err error) bool {
	fmt.Fprintln(s.Out, "Syntax error", err)
	return true
}

// OnInvalidCmd implements CommandHandler.
func (h ReplHandler) OnInvalidCmd(s *ExecutorState, cmd string) bool {
	fmt.Fprintf(s.Out, "Invalid command \"%s\"\n", cmd)
	return true
}

// OnSuccess implements CommandHandler.
func (h ReplHandler) OnSuccess(s *ExecutorState, cmd Command) {}

// OnError implements CommandHandler.
func (h ReplHandler) OnError(s *ExecutorState, err error, cmd Command) bool {
	if errors.Is(err, ErrCmdSyntaxErr) {
		fmt.Fprintln(s.Out, "Invalid syntax for command.")
		fmt.Fprintln(s.Out, "Usage:", cmd.Usage)
	} else {
		fmt.Fprintln(s.Out, "Error while executing command:", err)
	}
	return true
}

// OnScanErr implements CommandHandler.
func (h ReplHandler) OnScanErr(s *ExecutorState, err error) {
	fmt.Fprintln(s.Out, "Error while reading:", err)
}

// ScriptHandler implements CommandHandler. It reads commands from Source,
// writes the output to Out and errors to ErrOut. Execution stops on the first
// error.
type ScriptHandler struct {
	Source io.Reader
	Config Config
	Out    io.Writer
	ErrOut io.Writer
}

// NewScriptHandler returns a new script handler that reads input from the given
// source and writes to stdout / stderr.
func NewScriptHandler(source io.Reader, config Config) ScriptHandler {
	return ScriptHandler{Source: source, Config: config, Out: os.Stdout, ErrOut: os.Stderr}
}

// Init implements CommandHandler.
func (h ScriptHandler) Init() (*ExecutorState, error) {
	return NewExecutorState(h.Config, h.Source, h.Out)
}

// Start implements CommandHandler.
func (h ScriptHandler) Start(s *ExecutorState) {}

// Before implements CommandHandler.
func (h ScriptHandler) Before(s *ExecutorState) {}

// After implements CommandHandler.
func (h ScriptHandler) After(s *ExecutorState) {}

// OnParseErr implements CommandHandler.
func (h ScriptHandler) OnParseErr(s *ExecutorState, err error) bool {
	fmt.Fprintln(h.ErrOut, "Syntax error:", err)
	return false
}

// OnInvalidCmd implements CommandHandler.
func (h ScriptHandler) OnInvalidCmd(s *ExecutorState, cmd string) bool {
	fmt.Fprintf(h.ErrOut, "Invalid command \"%s\"\n", cmd)
	return false
}

// OnSuccess implements CommandHandler.
func (h ScriptHandler) OnSuccess(s *ExecutorState, cmd Command) {}

// OnError implements CommandHandler.
func (h ScriptHandler) OnError(s *ExecutorState, err error, cmd Command) bool {
	if errors.Is(err, ErrCmdSyntaxErr) {
		fmt.Fprintln(h.ErrOut, "Error: Invalid syntax for command.")
		fmt.Fprintln(h.ErrOut, "Usage:", cmd.Usage)
	} else {
		fmt.Fprintln(h.ErrOut, "Error while executing command:", err)
	}
	return false
}

// OnScanErr implements CommandHandler.
func (h ScriptHandler) OnScanErr(s *ExecutorState, err error) {
	fmt.Fprintln(h.ErrOut, "Error while reading:", err)
}

// ReaderFromCmdLines returns a reader that returns each command in a
// separate line.
func ReaderFromCmdLines(lines []string) io.Reader {
	return strings.NewReader(strings.Join(lines, "\n"))
}

func argReplacer(args []string) *strings.Replacer {
	// replace from the back s.t. $10 is replaced before $1
	replaceArgs := make([]string, 0, 2*len(args))
	for i := len(args) - 1; i >= 0; i-- {
		replaceArgs = append(replaceArgs, fmt.Sprintf("$%d", i+1), args[i])
	}
	return strings.NewReplacer(replaceArgs...)
}

// Parameterized is used to transform parameterized commands into executable
// commands. $i in the input is replaced by args[i - 1], for example
// "target $1" with args "in.jpg" becomes "target in.jpg".
func Parameterized(r io.Reader, args ...string) (io.Reader, error) {
	replacer := argReplacer(args)
	lines := make([]string, 0, 20)
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		lines = append(lines, replacer.Replace(scanner.Text()))
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return ReaderFromCmdLines(lines), nil
}

// ParameterizedFromStrings is like Parameterized but reads the commands from
// a slice, one command per entry.
func ParameterizedFromStrings(commands []string, args ...string) io.Reader {
	replacer := argReplacer(args)
	lines := lo.Map(commands, func(line string, _ int) string {
		return replacer.Replace(line)
	})
	return ReaderFromCmdLines(lines)
}
