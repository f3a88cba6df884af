package mcp

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/wricardo/mcp-training/gridcleaner/game/engine"
	"github.com/wricardo/mcp-training/gridcleaner/game/service"
)

func textOf(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	if result == nil || len(result.Content) == 0 {
		t.Fatal("Expected result content, got nil")
	}
	text, ok := result.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatal("Expected text content in result")
	}
	return text.Text
}

func callRequest(name string, args map[string]interface{}) mcp.CallToolRequest {
	return mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Name:      name,
			Arguments: args,
		},
	}
}

// testBoard has a wall at (9, 0), dirt at (2, 3) and a dirty charger at (2, 2)
func testBoard() *engine.Board {
	b := engine.NewBoard()
	b.PlaceWall(engine.Position{Row: 9, Col: 0})
	b.MarkDirt(engine.Position{Row: 2, Col: 3})
	b.PlaceCharger(engine.Position{Row: 2, Col: 2})
	b.MarkDirt(engine.Position{Row: 2, Col: 2})
	return b
}

func testState(row, col, battery int) *engine.GameState {
	b := testBoard()
	return &engine.GameState{
		Phase:    engine.PhasePlaying,
		Grid:     b.Grid(),
		Player:   &engine.Player{Position: engine.Position{Row: row, Col: col}, Battery: battery, Moves: 4},
		DirtLeft: b.DirtCount(),
	}
}

func TestNewClient(t *testing.T) {
	baseURL := "http://localhost:8080/"
	client := NewClient(baseURL)

	if client == nil {
		t.Fatal("Expected client to be created")
	}

	if client.baseURL != "http://localhost:8080" {
		t.Errorf("Expected trailing slash trimmed, got %s", client.baseURL)
	}

	if client.httpClient == nil {
		t.Error("Expected HTTP client to be initialized")
	}

	if client.GetMCPServer() == nil {
		t.Error("Expected MCP server to be initialized")
	}
}

func TestClient_apiCall(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/json":
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(map[string]interface{}{"id": "ab12"})
		case "/text":
			w.Write([]byte("|board|\n"))
		case "/missing":
			w.WriteHeader(http.StatusNotFound)
			json.NewEncoder(w).Encode(map[string]string{"error": "session not found"})
		default:
			w.WriteHeader(http.StatusInternalServerError)
			w.Write([]byte("Internal Server Error"))
		}
	}))
	defer server.Close()

	client := NewClient(server.URL)
	ctx := context.Background()

	var response map[string]interface{}
	if err := client.apiCall(ctx, "GET", "/json", nil, &response); err != nil {
		t.Fatalf("apiCall failed: %v", err)
	}
	if response["id"] != "ab12" {
		t.Errorf("Expected id ab12, got %v", response["id"])
	}

	var text string
	if err := client.apiCall(ctx, "GET", "/text", nil, &text); err != nil {
		t.Fatalf("apiCall failed: %v", err)
	}
	if text != "|board|\n" {
		t.Errorf("Expected raw body, got %q", text)
	}

	err := client.apiCall(ctx, "GET", "/missing", nil, nil)
	if err == nil || err.Error() != "session not found" {
		t.Errorf("Expected API error message, got %v", err)
	}

	err = client.apiCall(ctx, "GET", "/boom", nil, nil)
	if err == nil || !strings.Contains(err.Error(), "API error") {
		t.Errorf("Expected 'API error' in error message, got: %v", err)
	}
}

func TestClient_apiCall_Error(t *testing.T) {
	client := NewClient("http://invalid-url-that-does-not-exist:9999")

	if err := client.apiCall(context.Background(), "GET", "/api", nil, nil); err == nil {
		t.Error("Expected error for invalid URL")
	}
}

func TestClient_createSession(t *testing.T) {
	var gotBody map[string]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != "POST" || r.URL.Path != "/api/sessions" {
			t.Errorf("Expected POST /api/sessions, got %s %s", r.Method, r.URL.Path)
		}
		json.NewDecoder(r.Body).Decode(&gotBody)

		resp := service.SessionInfo{
			ID:         "ab12",
			ScenarioID: "corridor",
			GameState:  &engine.GameState{Phase: engine.PhaseSetup, Grid: engine.NewBoard().Grid()},
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	client := NewClient(server.URL)

	result, err := client.handleCreateSession(context.Background(), callRequest("create_session", map[string]interface{}{
		"scenario_id": "corridor",
	}))
	if err != nil {
		t.Fatalf("createSession failed: %v", err)
	}

	text := textOf(t, result)
	for _, want := range []string{"Session: ab12", "Scenario: corridor", "Phase: setup"} {
		if !strings.Contains(text, want) {
			t.Errorf("Expected %q in result, got: %s", want, text)
		}
	}
	if gotBody["scenario_id"] != "corridor" {
		t.Errorf("Expected scenario_id forwarded, got %v", gotBody)
	}
}

func TestClient_handleStart(t *testing.T) {
	var gotBody map[string]int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/sessions/ab12/start" {
			t.Errorf("Unexpected path %s", r.URL.Path)
		}
		json.NewDecoder(r.Body).Decode(&gotBody)
		json.NewEncoder(w).Encode(service.ActionResult{
			Success:   true,
			Event:     engine.EventStarted,
			GameState: testState(gotBody["row"], gotBody["col"], engine.MaxBattery),
		})
	}))
	defer server.Close()

	client := NewClient(server.URL)
	ctx := context.Background()

	result, err := client.handleStart(ctx, callRequest("start", map[string]interface{}{
		"session_id": "ab12",
		"row":        float64(5),
		"col":        float64(3),
	}))
	if err != nil {
		t.Fatalf("handleStart failed: %v", err)
	}
	text := textOf(t, result)
	if !strings.Contains(text, "✓ Start successful") || !strings.Contains(text, "Position: (5, 3)") {
		t.Errorf("Unexpected start output: %s", text)
	}
	if gotBody["row"] != 5 || gotBody["col"] != 3 {
		t.Errorf("Expected row 5 col 3 forwarded, got %v", gotBody)
	}

	result, _ = client.handleStart(ctx, callRequest("start", map[string]interface{}{"session_id": "ab12", "row": float64(1)}))
	if !result.IsError {
		t.Error("Expected error result when col is missing")
	}
}

func TestClient_handleRenderBoard(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Write([]byte("----\n| @ |\n----\n"))
	}))
	defer server.Close()

	client := NewClient(server.URL)
	result, err := client.handleRenderBoard(context.Background(), callRequest("render_board", map[string]interface{}{"session_id": "ab12"}))
	if err != nil {
		t.Fatalf("handleRenderBoard failed: %v", err)
	}
	if text := textOf(t, result); text != "----\n| @ |\n----\n" {
		t.Errorf("Expected board passed through, got %q", text)
	}
}

func TestClient_handleBulkMove(t *testing.T) {
	var gotMoves []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Moves []string `json:"moves"`
		}
		json.NewDecoder(r.Body).Decode(&req)
		gotMoves = req.Moves

		json.NewEncoder(w).Encode(service.BulkMoveResult{
			MovesExecuted:  1,
			RequestedMoves: 2,
			StopReasonCode: service.StopBlockedWall,
			StoppedReason:  "Blocked by wall",
			StoppedOnMove:  2,
			StartPos:       engine.Position{Row: 0, Col: 1},
			EndPos:         engine.Position{Row: 0, Col: 0},
			StartBattery:   100,
			EndBattery:     99,
			Steps: []service.StepInfo{
				{Idx: 1, Dir: "left", From: engine.Position{Row: 0, Col: 1}, To: engine.Position{Row: 0, Col: 0}, Moved: true, BatteryAfter: 99},
				{Idx: 2, Dir: "up", From: engine.Position{Row: 0, Col: 0}, To: engine.Position{Row: 0, Col: 0}, Blocked: true, BatteryAfter: 99},
			},
			LocalView3x3: []string{"...", ".@.", "..."},
			GameState:    testState(0, 0, 99),
		})
	}))
	defer server.Close()

	client := NewClient(server.URL)
	result, err := client.handleBulkMove(context.Background(), callRequest("bulk_move", map[string]interface{}{
		"session_id": "ab12",
		"moves":      []interface{}{"left", "up"},
		"intent":     "hug the corner",
	}))
	if err != nil {
		t.Fatalf("handleBulkMove failed: %v", err)
	}

	text := textOf(t, result)
	expected := []string{
		"Executed 1/2 moves",
		"Stopped on move 2: blocked_wall",
		"1. left (0, 1)→(0, 0) batt=99 ✓",
		"2. up (0, 0)→(0, 0) batt=99 ✗",
		"Possible moves: down,left,right",
		"Local 3x3:\n...\n.@.\n...",
	}
	for _, want := range expected {
		if !strings.Contains(text, want) {
			t.Errorf("Expected %q in bulk move output, got: %s", want, text)
		}
	}
	if strings.Join(gotMoves, ",") != "left,up" {
		t.Errorf("Expected moves forwarded, got %v", gotMoves)
	}

	result, _ = client.handleBulkMove(context.Background(), callRequest("bulk_move", map[string]interface{}{"session_id": "ab12"}))
	if !result.IsError {
		t.Error("Expected error result without moves")
	}
}

func TestFormatGameState(t *testing.T) {
	tests := []struct {
		name     string
		state    *engine.GameState
		expected []string
		absent   []string
	}{
		{
			name:     "nil",
			state:    nil,
			expected: []string{"No game state available"},
		},
		{
			name:     "setup has no robot",
			state:    &engine.GameState{Phase: engine.PhaseSetup, Grid: testBoard().Grid(), DirtLeft: 2},
			expected: []string{"Phase: setup | Dirt left: 2", "G R I D   C L E A N E R"},
			absent:   []string{"Battery:"},
		},
		{
			name:     "playing",
			state:    testState(5, 3, 75),
			expected: []string{"Position: (5, 3)", "Battery: 75/100", "Moves: 4", " @ "},
		},
		{
			name: "victory",
			state: func() *engine.GameState {
				s := testState(2, 3, 60)
				s.Phase = engine.PhaseOver
				s.GameOver = true
				s.Victory = true
				s.Message = engine.VictoryMessage(4)
				return s
			}(),
			expected: []string{"🎉 VICTORY!", "All clean in 4 moves"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := formatGameState(tt.state)
			for _, field := range tt.expected {
				if !strings.Contains(result, field) {
					t.Errorf("Expected field '%s' in formatted output, got: %s", field, result)
				}
			}
			for _, field := range tt.absent {
				if strings.Contains(result, field) {
					t.Errorf("Did not expect '%s' in formatted output, got: %s", field, result)
				}
			}
		})
	}
}

func TestFormatActionResult_Failed(t *testing.T) {
	result := formatActionResult("Recharge", &service.ActionResult{
		Success:   false,
		Event:     engine.EventNotOnCharger,
		Message:   "Not on a charger.",
		GameState: testState(1, 1, 40),
	})

	for _, want := range []string{"✗ Recharge failed", "Event: not_on_charger", "Message: Not on a charger."} {
		if !strings.Contains(result, want) {
			t.Errorf("Expected %q in result, got: %s", want, result)
		}
	}
}

func TestDescribeCell(t *testing.T) {
	state := testState(2, 3, 80)

	tests := []struct {
		name     string
		pos      engine.Position
		isError  bool
		expected []string
	}{
		{"dirty charger", engine.Position{Row: 2, Col: 2}, false, []string{`Glyph: " * "`, "Base: charger", "Dirty: true", "Passable: true"}},
		{"wall", engine.Position{Row: 9, Col: 0}, false, []string{`Glyph: "###"`, "Passable: false", "IMPASSABLE"}},
		{"robot", engine.Position{Row: 2, Col: 3}, false, []string{`Glyph: " @ "`, "The robot is here"}},
		{"out of bounds", engine.Position{Row: 10, Col: 0}, true, []string{"out of bounds"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := describeCell(state, tt.pos)
			if err != nil {
				t.Fatalf("describeCell failed: %v", err)
			}
			if result.IsError != tt.isError {
				t.Errorf("Expected IsError %v, got %v", tt.isError, result.IsError)
			}
			text := textOf(t, result)
			for _, want := range tt.expected {
				if !strings.Contains(text, want) {
					t.Errorf("Expected %q in result, got: %s", want, text)
				}
			}
		})
	}
}

func TestPossibleMoves(t *testing.T) {
	tests := []struct {
		name  string
		state *engine.GameState
		want  string
	}{
		{"wall above via wrap", testState(0, 0, 50), "down,left,right"},
		{"open", testState(5, 5, 50), "up,down,left,right"},
		{"empty battery", testState(5, 5, 0), ""},
		{"nil", nil, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := strings.Join(possibleMoves(tt.state), ","); got != tt.want {
				t.Errorf("Expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestClient_handleGameInstructions(t *testing.T) {
	client := NewClient("http://localhost:8080")

	result, err := client.handleGameInstructions(context.Background(), callRequest("game_instructions", map[string]interface{}{}))
	if err != nil {
		t.Fatalf("handleGameInstructions failed: %v", err)
	}

	text := textOf(t, result)
	expectedContent := []string{
		"Grid Cleaner - Complete Instructions",
		"GAME OBJECTIVE:",
		"LIFECYCLE:",
		"GRID LEGEND:",
		"MOVEMENT:",
		"The board wraps",
		"BATTERY:",
		"STRATEGY:",
	}

	for _, content := range expectedContent {
		if !strings.Contains(text, content) {
			t.Errorf("Expected '%s' in instructions, got: %s", content, text)
		}
	}
}
