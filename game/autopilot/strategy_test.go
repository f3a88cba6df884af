package autopilot

import (
	"testing"

	"github.com/wricardo/mcp-training/gridcleaner/game/engine"
)

func pos(r, c int) engine.Position {
	return engine.Position{Row: r, Col: c}
}

// stateFor builds a playing snapshot with the robot at p
func stateFor(b *engine.Board, p engine.Position, battery int) *engine.GameState {
	return &engine.GameState{
		Phase:    engine.PhasePlaying,
		Grid:     b.Grid(),
		Player:   &engine.Player{Position: p, Battery: battery},
		DirtLeft: b.DirtCount(),
	}
}

// walk applies moves and returns the final position, failing on a wall
func walk(t *testing.T, b *engine.Board, from engine.Position, moves []engine.Direction) engine.Position {
	t.Helper()
	p := from
	for i, d := range moves {
		p = engine.Next(p, d)
		if !b.CanMoveTo(p) {
			t.Fatalf("Move %d (%s) walks into a wall at %s", i+1, d, p)
		}
	}
	return p
}

func TestPath(t *testing.T) {
	b := engine.NewBoard()
	b.PlaceLine(pos(0, 5), pos(8, 5))

	tests := []struct {
		name     string
		from, to engine.Position
		wantLen  int
	}{
		{"same tile", pos(2, 2), pos(2, 2), 0},
		{"straight line", pos(2, 2), pos(2, 4), 2},
		{"through the wrap", pos(0, 0), pos(0, 9), 1},
		{"around the wall", pos(4, 4), pos(4, 6), 8},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			moves := Path(b, tt.from, tt.to)
			if len(moves) != tt.wantLen {
				t.Fatalf("Expected %d moves, got %d (%v)", tt.wantLen, len(moves), moves)
			}
			if end := walk(t, b, tt.from, moves); end != tt.to {
				t.Errorf("Expected to end at %s, got %s", tt.to, end)
			}
		})
	}
}

func TestPath_Unreachable(t *testing.T) {
	b := engine.NewBoard()
	for _, p := range []engine.Position{pos(1, 2), pos(3, 2), pos(2, 1), pos(2, 3)} {
		b.PlaceWall(p)
	}
	if moves := Path(b, pos(0, 0), pos(2, 2)); moves != nil {
		t.Errorf("Expected no path into a walled box, got %v", moves)
	}
}

func TestChooseStart(t *testing.T) {
	withCharger := engine.NewBoard()
	withCharger.MarkDirt(pos(1, 1))
	withCharger.PlaceCharger(pos(6, 6))

	dirtOnly := engine.NewBoard()
	dirtOnly.PlaceWall(pos(0, 0))
	dirtOnly.MarkDirt(pos(4, 4))

	blank := engine.NewBoard()
	blank.PlaceWall(pos(0, 0))

	solid := engine.NewBoard()
	solid.PlaceLine(pos(0, 0), pos(0, 9))
	for r := 1; r < engine.Rows; r++ {
		solid.PlaceLine(pos(r, 0), pos(r, 9))
	}

	tests := []struct {
		name   string
		board  *engine.Board
		want   engine.Position
		wantOK bool
	}{
		{"charger first", withCharger, pos(6, 6), true},
		{"then dirt", dirtOnly, pos(4, 4), true},
		{"then first open tile", blank, pos(0, 1), true},
		{"all walls", solid, engine.Position{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ChooseStart(tt.board.Grid())
			if ok != tt.wantOK || got != tt.want {
				t.Errorf("Expected %s/%v, got %s/%v", tt.want, tt.wantOK, got, ok)
			}
		})
	}
}

func TestNext(t *testing.T) {
	b := engine.NewBoard()
	b.PlaceCharger(pos(0, 0))
	b.MarkDirt(pos(0, 3))
	b.MarkDirt(pos(5, 5))

	tests := []struct {
		name       string
		at         engine.Position
		battery    int
		wantAction Action
		wantTarget engine.Position
	}{
		{"nearest dirt with a full battery", pos(0, 0), 100, ActionMove, pos(0, 3)},
		{"recharge on the charger", pos(0, 0), 4, ActionRecharge, pos(0, 0)},
		{"return to the charger", pos(0, 1), 3, ActionMove, pos(0, 0)},
		{"empty battery away from a charger", pos(0, 1), 0, ActionNone, engine.Position{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan := Next(stateFor(b, tt.at, tt.battery))
			if plan.Action != tt.wantAction {
				t.Fatalf("Expected %s, got %s (%s)", tt.wantAction, plan.Action, plan.Reason)
			}
			if plan.Target != tt.wantTarget {
				t.Errorf("Expected target %s, got %s", tt.wantTarget, plan.Target)
			}
			if plan.Action == ActionMove {
				if end := walk(t, b, tt.at, plan.Moves); end != tt.wantTarget {
					t.Errorf("Expected moves to end at %s, got %s", tt.wantTarget, end)
				}
			}
		})
	}
}

func TestNext_LastDirtNeedsNoReturn(t *testing.T) {
	b := engine.NewBoard()
	b.PlaceCharger(pos(0, 0))
	b.MarkDirt(pos(0, 3))

	// three moves reach the dirt; the way back does not matter
	plan := Next(stateFor(b, pos(0, 0), 3))
	if plan.Action != ActionMove || plan.Target != pos(0, 3) {
		t.Errorf("Expected to go for the last dirt, got %s to %s", plan.Action, plan.Target)
	}
	if plan.Keys() != "ddd" {
		t.Errorf("Expected keys ddd, got %q", plan.Keys())
	}
}

func TestNext_NotInPlay(t *testing.T) {
	b := engine.NewBoard()
	b.MarkDirt(pos(1, 1))

	tests := []struct {
		name  string
		state *engine.GameState
	}{
		{"nil state", nil},
		{"setup phase", &engine.GameState{Phase: engine.PhaseSetup, Grid: b.Grid(), DirtLeft: 1}},
		{"game over", &engine.GameState{Phase: engine.PhaseOver, Grid: b.Grid(), Player: &engine.Player{}, GameOver: true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if plan := Next(tt.state); plan.Action != ActionNone {
				t.Errorf("Expected no action, got %s", plan.Action)
			}
		})
	}
}

func TestNext_SolvesBoard(t *testing.T) {
	b := engine.NewBoard()
	b.PlaceLine(pos(3, 0), pos(3, 8))
	b.PlaceCharger(pos(9, 9))
	for _, p := range []engine.Position{pos(0, 0), pos(2, 7), pos(5, 5), pos(8, 1), pos(4, 9)} {
		b.MarkDirt(p)
	}

	player := engine.Player{Position: pos(9, 9), Battery: engine.MaxBattery}
	for turn := 0; turn < 100 && b.AnyDirtLeft(); turn++ {
		plan := Next(stateFor(b, player.Position, player.Battery))
		switch plan.Action {
		case ActionRecharge:
			player, _ = engine.Play(b, player, engine.RechargeCmd{})
		case ActionMove:
			for _, d := range plan.Moves {
				player, _ = engine.Play(b, player, engine.MoveCmd{Dir: d})
			}
		default:
			t.Fatalf("Autopilot gave up: %s", plan.Reason)
		}
	}

	if b.AnyDirtLeft() {
		t.Errorf("Expected a clean board, %d dirty tiles left", b.DirtCount())
	}
}
