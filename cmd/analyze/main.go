// Command analyze prints quick, human-readable heuristics about the scenario
// files in a directory. It summarizes tile counts, previews the board, and
// highlights dirt that is far from every charger.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/wricardo/mcp-training/gridcleaner/game/config"
	"github.com/wricardo/mcp-training/gridcleaner/game/engine"
	"github.com/wricardo/mcp-training/gridcleaner/game/render"
)

// Analysis holds the numbers printed for one scenario
type Analysis struct {
	Name     string
	Walls    int
	Dirt     int
	Chargers int
	Start    *engine.Position

	// FarDirt is dirt whose nearest charger is more than half a battery away,
	// so the robot cannot go there and come back on one charge.
	FarDirt []engine.Position
	// Isolated is dirt no charger can reach at all
	Isolated []engine.Position
}

func main() {
	dir := flag.String("dir", "configs", "directory containing scenario files")
	flag.Parse()

	paths, err := filepath.Glob(filepath.Join(*dir, "*"))
	if err != nil {
		fmt.Printf("Error listing %s: %v\n", *dir, err)
		os.Exit(1)
	}
	sort.Strings(paths)

	for _, path := range paths {
		switch filepath.Ext(path) {
		case ".json", ".yaml", ".yml":
		default:
			continue
		}
		fmt.Printf("\n=== Analyzing %s ===\n", filepath.Base(path))
		if err := analyzeFile(os.Stdout, path); err != nil {
			fmt.Printf("Error: %v\n", err)
		}
	}
}

func analyzeFile(w io.Writer, path string) error {
	scenario, err := config.ReadScenarioFile(path)
	if err != nil {
		return err
	}
	board, err := scenario.Build()
	if err != nil {
		return err
	}

	a := analyze(scenario.Name, board, scenario.Start)
	printAnalysis(w, a, board)
	return nil
}

// analyze measures every dirty tile against its nearest charger by walking distance
func analyze(name string, board *engine.Board, start *engine.Position) Analysis {
	a := Analysis{
		Name:     name,
		Walls:    board.CountBase(engine.Wall),
		Dirt:     board.DirtCount(),
		Chargers: board.CountBase(engine.Charger),
		Start:    start,
	}

	var fromChargers []map[engine.Position]int
	for r := 0; r < engine.Rows; r++ {
		for c := 0; c < engine.Cols; c++ {
			p := engine.Position{Row: r, Col: c}
			if tile, _ := board.At(p); tile.Base == engine.Charger {
				fromChargers = append(fromChargers, engine.Distances(board, p))
			}
		}
	}

	for r := 0; r < engine.Rows; r++ {
		for c := 0; c < engine.Cols; c++ {
			p := engine.Position{Row: r, Col: c}
			if tile, _ := board.At(p); !tile.Dirty {
				continue
			}
			nearest := -1
			for _, dist := range fromChargers {
				if d, ok := dist[p]; ok && (nearest == -1 || d < nearest) {
					nearest = d
				}
			}
			switch {
			case nearest == -1:
				a.Isolated = append(a.Isolated, p)
			case nearest > engine.MaxBattery/2:
				a.FarDirt = append(a.FarDirt, p)
			}
		}
	}
	return a
}

func printAnalysis(w io.Writer, a Analysis, board *engine.Board) {
	fmt.Fprintf(w, "Name: %s\n", a.Name)
	fmt.Fprintf(w, "Walls: %d  Dirt: %d  Chargers: %d\n", a.Walls, a.Dirt, a.Chargers)
	if a.Start != nil {
		fmt.Fprintf(w, "Start: %s\n", a.Start)
		player := engine.Player{Position: *a.Start, Battery: engine.MaxBattery}
		fmt.Fprintf(w, "Battery risk at start: %s\n", engine.AnalyzeBatteryRisk(board, player))
	} else {
		fmt.Fprintln(w, "Start: chosen by the player")
	}
	fmt.Fprint(w, render.String(board, a.Start))

	if a.Chargers == 0 {
		fmt.Fprintln(w, "⚠️  No chargers: the board must be cleaned on a single charge")
		return
	}

	if len(a.Isolated) > 0 {
		fmt.Fprintf(w, "⚠️  CRITICAL: %d dirty tiles cannot be reached from any charger!\n", len(a.Isolated))
		for _, p := range a.Isolated {
			fmt.Fprintf(w, "   Isolated: %s\n", p)
		}
	}

	if len(a.FarDirt) > 0 {
		fmt.Fprintf(w, "⚠️  WARNING: %d dirty tiles are more than %d moves from every charger\n", len(a.FarDirt), engine.MaxBattery/2)
		for i, p := range a.FarDirt {
			if i == 5 {
				fmt.Fprintf(w, "   ... and %d more\n", len(a.FarDirt)-5)
				break
			}
			fmt.Fprintf(w, "   Far: %s\n", p)
		}
	}

	if len(a.Isolated) == 0 && len(a.FarDirt) == 0 {
		fmt.Fprintln(w, "✅ Every dirty tile is a round trip from some charger")
	}
}
