// Package engine provides the core game logic for Grid Cleaner.
//
// The engine package implements the game mechanics including:
//   - A fixed 10x10 board of tiles with a base type and a dirt flag
//   - Setup-time board editing: walls, dirt, chargers and straight wall lines
//   - Toroidal movement with wall blocking
//   - Battery consumption, the empty-battery gate and recharging
//   - Cleaning and the all-clean victory condition
//
// Core Types:
//
// Board owns every tile. Step is the movement rule. Setup and Game are the two
// controllers: Setup consumes SetupCommand values, Game consumes PlayCommand
// values, and both answer with a Report. GameEngine ties them together for a
// session and exposes JSON snapshots through GameState.
//
// Usage:
//
//	eng := engine.NewEngine("custom", engine.NewBoard())
//	eng.ApplySetup(engine.MarkDirtCmd{At: engine.Position{Row: 5, Col: 6}})
//	eng.ApplySetup(engine.QuitSetupCmd{})
//
//	if _, err := eng.Start(engine.Position{Row: 5, Col: 5}); err != nil {
//		log.Fatal(err)
//	}
//
//	report := eng.Move(engine.Right)
//	fmt.Println(report.Message) // === All clean in 1 move! ===
//
// Game Rules:
//
// The robot starts with a full battery. Every accepted move costs one unit and
// cleans the destination tile. Moving off an edge re-enters from the opposite
// edge. Walls block movement. With an empty battery the robot cannot move until
// it recharges on a charger tile. The game is won when no dirt is left.
package engine
