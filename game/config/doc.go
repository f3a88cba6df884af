// Package config provides scenario management for Grid Cleaner.
//
// The config package handles:
//   - Loading scenarios from JSON or YAML files
//   - Schema and rule validation
//   - Default scenario selection
//   - Scenario discovery and listing
//
// Scenario Format:
//
// A scenario names a prepared board. The optional layout is ten rows of ten
// characters:
//
//	.  empty
//	#  wall
//	*  dirt
//	+  charger
//	&  dirty charger
//
// Setup lines use the setup command stream ("w r c", "d r c", "h r c",
// "L r1 c1 r2 c2") and are applied after the layout. An optional start
// position skips the start prompt in the network surfaces.
//
//	{
//	  "name": "Corridor",
//	  "description": "A wall splits the board",
//	  "setup": ["L 4 0 4 8", "d 0 0", "d 9 9", "h 5 5"],
//	  "start": {"row": 5, "col": 5}
//	}
//
// Usage:
//
//	manager, err := config.NewManager("configs")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	scenario, err := manager.LoadScenario("corridor")
//	board, err := scenario.Build()
//
// When the directory holds no scenario the built-in "empty" board is used.
package config
