package terminal

import (
	"context"
	"strings"
	"testing"

	"github.com/gdamore/tcell/v2"

	"github.com/wricardo/mcp-training/gridcleaner/game/config"
	"github.com/wricardo/mcp-training/gridcleaner/game/engine"
	"github.com/wricardo/mcp-training/gridcleaner/game/service"
	"github.com/wricardo/mcp-training/gridcleaner/game/session"
)

func newScreen(t *testing.T) tcell.SimulationScreen {
	t.Helper()
	screen := tcell.NewSimulationScreen("UTF-8")
	if err := screen.Init(); err != nil {
		t.Fatalf("Failed to init screen: %v", err)
	}
	screen.SetSize(100, 30)
	t.Cleanup(screen.Fini)
	return screen
}

// newService returns a service over a fresh scenario directory. A non-nil scenario is saved as "room".
func newService(t *testing.T, scenario *config.Scenario) service.GameService {
	t.Helper()
	scenarios, err := config.NewManager(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to create scenario manager: %v", err)
	}
	if scenario != nil {
		if err := scenarios.SaveScenario("room", scenario); err != nil {
			t.Fatalf("Failed to save scenario: %v", err)
		}
	}
	return service.NewGameService(session.NewManager(), scenarios)
}

func newUI(t *testing.T, screen tcell.Screen, scenario *config.Scenario) *UI {
	t.Helper()
	svc := newService(t, scenario)
	id := ""
	if scenario != nil {
		id = "room"
	}
	info, err := svc.CreateSession(context.Background(), id)
	if err != nil {
		t.Fatalf("Failed to create session: %v", err)
	}
	ui := New(screen, svc, info.ID)
	if err := ui.refresh(context.Background()); err != nil {
		t.Fatalf("Failed to load state: %v", err)
	}
	return ui
}

func roomScenario() *config.Scenario {
	return &config.Scenario{
		Name:  "Room",
		Setup: []string{"h 5 6", "d 5 7"},
		Start: &engine.Position{Row: 5, Col: 5},
	}
}

func key(r rune) *tcell.EventKey {
	return tcell.NewEventKey(tcell.KeyRune, r, tcell.ModNone)
}

func special(k tcell.Key) *tcell.EventKey {
	return tcell.NewEventKey(k, 0, tcell.ModNone)
}

func rowText(screen tcell.Screen, y int) string {
	w, _ := screen.Size()
	var b strings.Builder
	for x := 0; x < w; x++ {
		r, _, _, _ := screen.GetContent(x, y)
		if r == 0 {
			r = ' '
		}
		b.WriteRune(r)
	}
	return strings.TrimRight(b.String(), " ")
}

func TestPlayKeys(t *testing.T) {
	screen := newScreen(t)
	ui := newUI(t, screen, roomScenario())
	ctx := context.Background()

	if ui.state.Phase != engine.PhasePlaying {
		t.Fatalf("Expected a started session, got phase %s", ui.state.Phase)
	}

	if !ui.handleKey(ctx, key('b')) {
		t.Fatal("Expected 'b' to keep the UI running")
	}
	if ui.message != "Battery: 100%" {
		t.Errorf("Expected battery report, got %q", ui.message)
	}

	ui.handleKey(ctx, key('d'))
	if ui.state.Player.Col != 6 || ui.state.Player.Battery != 99 {
		t.Errorf("Expected robot at column 6 with 99%%, got %+v", ui.state.Player)
	}

	ui.handleKey(ctx, key('r'))
	if ui.state.Player.Battery != engine.MaxBattery {
		t.Errorf("Expected recharge on the charger, got %d", ui.state.Player.Battery)
	}

	ui.handleKey(ctx, key('d'))
	if !ui.state.Victory {
		t.Fatal("Expected victory after cleaning the last tile")
	}
	if !strings.Contains(ui.message, "All clean in 2 moves!") {
		t.Errorf("Expected victory message, got %q", ui.message)
	}

	ui.handleKey(ctx, key('d'))
	if !ui.failed || ui.message != "Game over. Press q to quit." {
		t.Errorf("Expected game over notice, got %q", ui.message)
	}
}

func TestQuitKeys(t *testing.T) {
	screen := newScreen(t)
	ui := newUI(t, screen, roomScenario())

	tests := []struct {
		name string
		ev   *tcell.EventKey
		want bool
	}{
		{"q quits", key('q'), false},
		{"escape quits", special(tcell.KeyEscape), false},
		{"ctrl-c quits", special(tcell.KeyCtrlC), false},
		{"unknown key is ignored", key('z'), true},
		{"arrow is ignored in play", special(tcell.KeyUp), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ui.handleKey(context.Background(), tt.ev); got != tt.want {
				t.Errorf("Expected %v, got %v", tt.want, got)
			}
		})
	}
	if ui.state.Player.Moves != 0 {
		t.Errorf("Expected no moves, got %d", ui.state.Player.Moves)
	}
}

func TestSetupKeys(t *testing.T) {
	screen := newScreen(t)
	ui := newUI(t, screen, nil)
	ctx := context.Background()

	if ui.state.Phase != engine.PhaseSetup {
		t.Fatalf("Expected setup phase, got %s", ui.state.Phase)
	}

	// cursor starts at (5, 5)
	ui.handleKey(ctx, special(tcell.KeyRight))
	ui.handleKey(ctx, key('*'))
	if ui.state.DirtLeft != 1 {
		t.Errorf("Expected 1 dirty tile, got %d", ui.state.DirtLeft)
	}

	ui.handleKey(ctx, special(tcell.KeyLeft))
	ui.handleKey(ctx, key('x'))
	if ui.state.Grid[5][5].Base != engine.Wall {
		t.Errorf("Expected wall at (5, 5), got %s", ui.state.Grid[5][5].Base)
	}

	ui.handleKey(ctx, special(tcell.KeyEnter))
	if ui.message != "Position (5, 5) is invalid" {
		t.Errorf("Expected invalid start message, got %q", ui.message)
	}
	if ui.state.Phase != engine.PhaseSetup {
		t.Errorf("Expected to stay in setup, got %s", ui.state.Phase)
	}

	ui.handleKey(ctx, special(tcell.KeyRight))
	ui.handleKey(ctx, special(tcell.KeyEnter))
	if !ui.state.Victory {
		t.Error("Expected starting on the only dirt to win at once")
	}
	if !strings.Contains(ui.message, "All clean in 0 moves!") {
		t.Errorf("Expected zero-move victory, got %q", ui.message)
	}
}

func TestCursorWraps(t *testing.T) {
	screen := newScreen(t)
	ui := newUI(t, screen, nil)
	ctx := context.Background()

	ui.cursor = engine.Position{Row: 0, Col: 0}
	ui.handleKey(ctx, special(tcell.KeyUp))
	ui.handleKey(ctx, special(tcell.KeyLeft))
	if ui.cursor != (engine.Position{Row: 9, Col: 9}) {
		t.Errorf("Expected cursor to wrap to (9, 9), got %s", ui.cursor)
	}
}

func TestDraw(t *testing.T) {
	screen := newScreen(t)
	ui := newUI(t, screen, nil)
	ui.draw()

	if !strings.Contains(rowText(screen, 1), "G R I D   C L E A N E R") {
		t.Errorf("Expected title row, got %q", rowText(screen, 1))
	}
	if !strings.Contains(rowText(screen, statusRow), "Phase: setup") {
		t.Errorf("Expected setup status, got %q", rowText(screen, statusRow))
	}
	if rowText(screen, helpRow) != helpSetup {
		t.Errorf("Expected setup help, got %q", rowText(screen, helpRow))
	}

	x, y := cellOrigin(ui.cursor)
	_, _, style, _ := screen.GetContent(x, y)
	if _, _, attrs := style.Decompose(); attrs&tcell.AttrReverse == 0 {
		t.Error("Expected the setup cursor to be highlighted")
	}
}

func TestRun(t *testing.T) {
	screen := newScreen(t)
	ui := newUI(t, screen, roomScenario())

	screen.InjectKey(tcell.KeyRune, 'd', tcell.ModNone)
	screen.InjectKey(tcell.KeyRune, 'q', tcell.ModNone)

	if err := ui.Run(context.Background()); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	status := rowText(screen, statusRow)
	if !strings.Contains(status, "Battery: 99%") || !strings.Contains(status, "Moves: 1") {
		t.Errorf("Expected status after one move, got %q", status)
	}
	x, y := cellOrigin(engine.Position{Row: 5, Col: 6})
	if r, _, _, _ := screen.GetContent(x+1, y); r != '@' {
		t.Errorf("Expected robot glyph at (5, 6), got %q", r)
	}
	if rowText(screen, helpRow) != helpPlay {
		t.Errorf("Expected play help, got %q", rowText(screen, helpRow))
	}
}

func TestRunUnknownSession(t *testing.T) {
	screen := newScreen(t)
	ui := New(screen, newService(t, nil), "zzzz")
	if err := ui.Run(context.Background()); err == nil {
		t.Error("Expected an error for a missing session")
	}
}
