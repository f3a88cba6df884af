// Command validate checks the scenario files in a directory. For each file it checks:
//   - the document against the scenario schema (JSON or YAML)
//   - layout geometry and setup commands
//   - the start position, when one is given
//   - reachability: every dirty tile can be reached from the start across the wrap
//
// A board whose robot can never reach a charger is reported as a warning.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/wricardo/mcp-training/gridcleaner/game/config"
	"github.com/wricardo/mcp-training/gridcleaner/game/engine"
)

// ValidationResult captures the outcome of validating a single file.
// If Valid is true, Errors contains informational messages; otherwise it
// accumulates the validation errors that were found.
type ValidationResult struct {
	File   string
	Valid  bool
	Errors []string
}

func (r *ValidationResult) fail(format string, args ...interface{}) {
	r.Valid = false
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

func (r *ValidationResult) info(format string, args ...interface{}) {
	r.Errors = append(r.Errors, "✓ "+fmt.Sprintf(format, args...))
}

func (r *ValidationResult) warn(format string, args ...interface{}) {
	r.Errors = append(r.Errors, "⚠ "+fmt.Sprintf(format, args...))
}

// validateScenario loads and validates a single scenario file
func validateScenario(filePath string) ValidationResult {
	result := ValidationResult{
		File:   filepath.Base(filePath),
		Valid:  true,
		Errors: []string{},
	}

	scenario, err := config.ReadScenarioFile(filePath)
	if err != nil {
		result.fail("%v", err)
		return result
	}

	board, err := scenario.Build()
	if err != nil {
		result.fail("%v", err)
		return result
	}

	walls := board.CountBase(engine.Wall)
	if walls == engine.Rows*engine.Cols {
		result.fail("Board is all walls; there is nowhere to start")
		return result
	}

	reachability := validateReachability(board, scenario.Start)
	result.Valid = result.Valid && reachability.Valid
	result.Errors = append(result.Errors, reachability.Errors...)

	if result.Valid {
		result.info("Name: %s", scenario.Name)
		result.info("Walls: %d", walls)
		result.info("Dirt: %d", board.DirtCount())
		result.info("Chargers: %d", board.CountBase(engine.Charger))
		if scenario.Start != nil {
			result.info("Start: %s", scenario.Start)
		} else {
			result.info("Start: chosen by the player")
		}
	}
	return result
}

// validateReachability flood-fills from the start (or the first open tile when the
// scenario leaves the start to the player) and reports dirt that can never be cleaned.
func validateReachability(board *engine.Board, start *engine.Position) ValidationResult {
	result := ValidationResult{
		Valid:  true,
		Errors: []string{},
	}

	from, ok := firstOpen(board)
	if start != nil {
		from, ok = *start, true
	}
	if !ok {
		result.fail("No open tile to start from")
		return result
	}

	dist := engine.Distances(board, from)
	if len(dist) == 0 {
		result.fail("Start %s is on a wall", from)
		return result
	}

	var unreachable []engine.Position
	farthest := 0
	chargerReachable := false
	for r := 0; r < engine.Rows; r++ {
		for c := 0; c < engine.Cols; c++ {
			p := engine.Position{Row: r, Col: c}
			tile, _ := board.At(p)
			d, reached := dist[p]
			if tile.Base == engine.Charger && reached {
				chargerReachable = true
			}
			if !tile.Dirty {
				continue
			}
			if !reached {
				unreachable = append(unreachable, p)
				continue
			}
			if d > farthest {
				farthest = d
			}
		}
	}

	dirt := board.DirtCount()
	if len(unreachable) > 0 {
		result.fail("Reachability failure: %d/%d dirty tiles unreachable from %s", len(unreachable), dirt, from)
		for _, p := range unreachable {
			result.fail("Unreachable: Dirt at %s", p)
		}
		return result
	}

	result.info("Reachability: All %d dirty tiles reachable from %s (farthest %d moves)", dirt, from, farthest)
	if !chargerReachable {
		result.warn("No reachable charger; the board must be cleaned on one charge of %d", engine.MaxBattery)
	}
	return result
}

// firstOpen returns the first non-wall tile in row-major order
func firstOpen(board *engine.Board) (engine.Position, bool) {
	for r := 0; r < engine.Rows; r++ {
		for c := 0; c < engine.Cols; c++ {
			p := engine.Position{Row: r, Col: c}
			if board.CanMoveTo(p) {
				return p, true
			}
		}
	}
	return engine.Position{}, false
}

// scenarioFiles lists the scenario documents in dir in name order
func scenarioFiles(dir string) ([]string, error) {
	var files []string
	for _, pattern := range []string{"*.json", "*.yaml", "*.yml"} {
		matches, err := filepath.Glob(filepath.Join(dir, pattern))
		if err != nil {
			return nil, err
		}
		files = append(files, matches...)
	}
	sort.Strings(files)
	return files, nil
}

// main validates every scenario in the directory, printing a concise report and
// exiting with non-zero status if any are invalid.
func main() {
	configDir := flag.String("dir", "configs", "directory containing scenario files")
	flag.Parse()

	files, err := scenarioFiles(*configDir)
	if err != nil {
		fmt.Printf("Error finding scenario files: %v\n", err)
		os.Exit(1)
	}
	if len(files) == 0 {
		fmt.Printf("No scenario files in %s\n", *configDir)
		os.Exit(1)
	}

	allValid := true
	for _, file := range files {
		result := validateScenario(file)

		fmt.Printf("\n%s %s\n", strings.Repeat("=", 20), result.File)

		if result.Valid {
			fmt.Println("✅ VALID")
			for _, info := range result.Errors {
				fmt.Println("  " + info)
			}
		} else {
			fmt.Println("❌ INVALID")
			allValid = false
			for _, err := range result.Errors {
				if !strings.HasPrefix(err, "✓") && !strings.HasPrefix(err, "⚠") {
					fmt.Println("  ❌ " + err)
				}
			}
		}
	}

	fmt.Printf("\n%s\n", strings.Repeat("=", 40))
	if allValid {
		fmt.Println("✅ All scenarios are valid!")
	} else {
		fmt.Println("❌ Some scenarios have errors")
		os.Exit(1)
	}
}
