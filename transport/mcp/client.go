package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/wricardo/mcp-training/gridcleaner/game/config"
	"github.com/wricardo/mcp-training/gridcleaner/game/engine"
	"github.com/wricardo/mcp-training/gridcleaner/game/render"
	"github.com/wricardo/mcp-training/gridcleaner/game/service"
)

// Client is a thin MCP client that proxies to the REST API
type Client struct {
	baseURL    string
	httpClient *http.Client
	mcpServer  *server.MCPServer
}

// NewClient creates a new MCP client that calls the REST API
func NewClient(baseURL string) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}

	c.initMCPServer()
	return c
}

// initMCPServer initializes the MCP server with all tools
func (c *Client) initMCPServer() {
	c.mcpServer = server.NewMCPServer(
		"Grid Cleaner",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithInstructions(`Grid Cleaner - MCP Interface

This is a thin client that proxies all requests to the REST API server.

GAME OBJECTIVE:
Clean every dirty tile (*) on a 10x10 board. The robot (@) spends 1% battery per move
and can only recharge while standing on a charger (+). Edges wrap around.

AVAILABLE TOOLS:
- create_session / list_sessions / get_session: manage sessions
- setup: send setup commands (w r c, d r c, h r c, L r1 c1 r2 c2, q)
- start: place the robot once setup is done
- move / bulk_move / play: drive the robot
- recharge: refill the battery on a charger
- game_state / render_board / describe_cell: inspect the board
- reset_game / move_history / list_scenarios / game_instructions

NOTE: The 'intent' parameter on move/bulk_move tools serves as rubber duck debugging - explain your reasoning!`),
	)

	// Register all tools
	c.registerTools()
}

func sessionProperty() map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": "Session ID",
	}
}

func sessionOnlySchema() mcp.ToolInputSchema {
	return mcp.ToolInputSchema{
		Type: "object",
		Properties: map[string]interface{}{
			"session_id": sessionProperty(),
		},
		Required: []string{"session_id"},
	}
}

var directionEnum = []string{"up", "down", "left", "right"}

// registerTools registers all MCP tools
func (c *Client) registerTools() {
	// Session management
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "create_session",
		Description: "Create a new game session from a scenario (default scenario when omitted)",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"scenario_id": map[string]interface{}{
					"type":        "string",
					"description": "Scenario to use (optional, see list_scenarios)",
				},
			},
		},
	}, c.handleCreateSession)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_sessions",
		Description: "List all active game sessions",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleListSessions)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "get_session",
		Description: "Get details of a specific session",
		InputSchema: sessionOnlySchema(),
	}, c.handleGetSession)

	// Setup
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "setup",
		Description: "Edit the board before the robot is placed. Commands: 'w r c' wall, 'd r c' dirt, 'h r c' charger, 'L r1 c1 r2 c2' straight wall line, 'q' finish setup.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionProperty(),
				"script": map[string]interface{}{
					"type":        "string",
					"description": "Setup commands separated by whitespace or newlines",
				},
			},
			Required: []string{"session_id", "script"},
		},
	}, c.handleSetup)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "start",
		Description: "Place the robot at its starting tile. Any tile that is on the board and not a wall is valid.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionProperty(),
				"row": map[string]interface{}{
					"type":        "integer",
					"description": "Row (0-9)",
				},
				"col": map[string]interface{}{
					"type":        "integer",
					"description": "Column (0-9)",
				},
			},
			Required: []string{"session_id", "row", "col"},
		},
	}, c.handleStart)

	// Game operations
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "game_state",
		Description: "Get the current game state",
		InputSchema: sessionOnlySchema(),
	}, c.handleGameState)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "render_board",
		Description: "Get the framed text board exactly as the console draws it",
		InputSchema: sessionOnlySchema(),
	}, c.handleRenderBoard)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "move",
		Description: "Move the robot one tile",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionProperty(),
				"direction": map[string]interface{}{
					"type":        "string",
					"enum":        directionEnum,
					"description": "Direction to move",
				},
				"intent": map[string]interface{}{
					"type":        "string",
					"description": "Brief explanation of the intent behind this move (serves as a rubber duck to help explain your reasoning)",
				},
			},
			Required: []string{"session_id", "direction"},
		},
	}, c.handleMove)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "bulk_move",
		Description: fmt.Sprintf("Execute up to %d moves in sequence. Stops at the first blocked move, empty battery or victory.", engine.MaxBulkMoves),
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionProperty(),
				"moves": map[string]interface{}{
					"type": "array",
					"items": map[string]interface{}{
						"type": "string",
						"enum": directionEnum,
					},
					"description": "Array of moves",
				},
				"intent": map[string]interface{}{
					"type":        "string",
					"description": "Brief explanation of the intent behind this sequence of moves (serves as a rubber duck to help explain your reasoning)",
				},
			},
			Required: []string{"session_id", "moves"},
		},
	}, c.handleBulkMove)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "play",
		Description: "Send a packed key stream: w/a/s/d move, b battery, c move count, r recharge. Example: 'dddsr'",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionProperty(),
				"keys": map[string]interface{}{
					"type":        "string",
					"description": "Key stream",
				},
			},
			Required: []string{"session_id", "keys"},
		},
	}, c.handlePlay)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "recharge",
		Description: "Recharge the battery to 100%. Only works on a charger tile.",
		InputSchema: sessionOnlySchema(),
	}, c.handleRecharge)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "reset_game",
		Description: "Reset the game to the session's scenario",
		InputSchema: sessionOnlySchema(),
	}, c.handleReset)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "move_history",
		Description: "Get move history for a session",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionProperty(),
				"page": map[string]interface{}{
					"type":        "integer",
					"description": "Page number",
				},
				"limit": map[string]interface{}{
					"type":        "integer",
					"description": "Items per page",
				},
			},
			Required: []string{"session_id"},
		},
	}, c.handleMoveHistory)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_scenarios",
		Description: "List available scenarios",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleListScenarios)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "game_instructions",
		Description: "Get comprehensive game instructions and rules",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleGameInstructions)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "describe_cell",
		Description: "Get detailed information about one tile: wall, dirt, charger and whether the robot can enter it",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionProperty(),
				"row": map[string]interface{}{
					"type":        "integer",
					"description": "Row (0-9)",
				},
				"col": map[string]interface{}{
					"type":        "integer",
					"description": "Column (0-9)",
				},
			},
			Required: []string{"session_id", "row", "col"},
		},
	}, c.handleDescribeCell)
}

// GetMCPServer returns the underlying MCP server for serving
func (c *Client) GetMCPServer() *server.MCPServer {
	return c.mcpServer
}

// Helper methods for API calls

func (c *Client) apiCall(ctx context.Context, method, path string, body interface{}, result interface{}) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reqBody = bytes.NewBuffer(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return err
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var errResp map[string]string
		json.NewDecoder(resp.Body).Decode(&errResp)
		if msg, ok := errResp["error"]; ok {
			return fmt.Errorf("%s", msg)
		}
		return fmt.Errorf("API error: %d", resp.StatusCode)
	}

	if result == nil {
		return nil
	}
	if s, ok := result.(*string); ok {
		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return err
		}
		*s = string(data)
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(result)
}

func sessionPath(sessionID, suffix string) string {
	return "/api/sessions/" + url.PathEscape(sessionID) + suffix
}

func intArg(args map[string]interface{}, key string) (int, bool) {
	switch v := args[key].(type) {
	case float64:
		return int(v), true
	case int:
		return v, true
	}
	return 0, false
}

// Tool handlers

func (c *Client) handleCreateSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	scenarioID, _ := args["scenario_id"].(string)

	body := map[string]string{}
	if scenarioID != "" {
		body["scenario_id"] = scenarioID
	}

	var session service.SessionInfo
	if err := c.apiCall(ctx, "POST", "/api/sessions", body, &session); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatSessionInfo(&session)), nil
}

func (c *Client) handleListSessions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var response struct {
		Count    int                   `json:"count"`
		Sessions []service.SessionInfo `json:"sessions"`
	}

	if err := c.apiCall(ctx, "GET", "/api/sessions", nil, &response); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Active Sessions (%d):\n\n", response.Count)
	for _, s := range response.Sessions {
		phase := engine.Phase("unknown")
		if s.GameState != nil {
			phase = s.GameState.Phase
		}
		fmt.Fprintf(&b, "- %s (Scenario: %s, Phase: %s, Created: %s)\n",
			s.ID, s.ScenarioID, phase, s.CreatedAt.Format("15:04:05"))
	}

	return mcp.NewToolResultText(b.String()), nil
}

func (c *Client) handleGetSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, _ := request.GetArguments()["session_id"].(string)

	var session service.SessionInfo
	if err := c.apiCall(ctx, "GET", sessionPath(sessionID, ""), nil, &session); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatSessionInfo(&session)), nil
}

func (c *Client) handleSetup(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	sessionID, _ := args["session_id"].(string)
	script, _ := args["script"].(string)

	var result service.SetupResult
	if err := c.apiCall(ctx, "POST", sessionPath(sessionID, "/setup"), map[string]string{"script": script}, &result); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatSetupResult(&result)), nil
}

func (c *Client) handleStart(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	sessionID, _ := args["session_id"].(string)
	row, okRow := intArg(args, "row")
	col, okCol := intArg(args, "col")
	if !okRow || !okCol {
		return mcp.NewToolResultError("row and col are required"), nil
	}

	var result service.ActionResult
	body := map[string]int{"row": row, "col": col}
	if err := c.apiCall(ctx, "POST", sessionPath(sessionID, "/start"), body, &result); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatActionResult("Start", &result)), nil
}

func (c *Client) handleGameState(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, _ := request.GetArguments()["session_id"].(string)

	var state engine.GameState
	if err := c.apiCall(ctx, "GET", sessionPath(sessionID, "/state"), nil, &state); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatGameState(&state)), nil
}

func (c *Client) handleRenderBoard(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, _ := request.GetArguments()["session_id"].(string)

	var board string
	if err := c.apiCall(ctx, "GET", sessionPath(sessionID, "/render"), nil, &board); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(board), nil
}

func (c *Client) handleMove(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	sessionID, _ := args["session_id"].(string)
	direction, _ := args["direction"].(string)

	// intent is rubber duck debugging for the caller; it is not sent upstream

	var result service.ActionResult
	if err := c.apiCall(ctx, "POST", sessionPath(sessionID, "/move"), map[string]string{"direction": direction}, &result); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatActionResult("Move", &result)), nil
}

func (c *Client) handleBulkMove(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	sessionID, _ := args["session_id"].(string)
	movesRaw, _ := args["moves"].([]interface{})

	moves := make([]string, 0, len(movesRaw))
	for _, m := range movesRaw {
		if move, ok := m.(string); ok {
			moves = append(moves, move)
		}
	}
	if len(moves) == 0 {
		return mcp.NewToolResultError("moves are required"), nil
	}

	var result service.BulkMoveResult
	if err := c.apiCall(ctx, "POST", sessionPath(sessionID, "/bulk-move"), map[string]interface{}{"moves": moves}, &result); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatBulkMoveResult(sessionID, &result)), nil
}

func (c *Client) handlePlay(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	sessionID, _ := args["session_id"].(string)
	keys, _ := args["keys"].(string)

	var result service.PlayResult
	if err := c.apiCall(ctx, "POST", sessionPath(sessionID, "/play"), map[string]string{"keys": keys}, &result); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Played %q (%d commands)\n", result.Keys, len(result.Results))
	for _, msg := range result.Messages {
		b.WriteString("- " + msg + "\n")
	}
	b.WriteString("\n")
	b.WriteString(formatGameState(result.GameState))
	return mcp.NewToolResultText(b.String()), nil
}

func (c *Client) handleRecharge(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, _ := request.GetArguments()["session_id"].(string)

	var result service.ActionResult
	if err := c.apiCall(ctx, "POST", sessionPath(sessionID, "/recharge"), nil, &result); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatActionResult("Recharge", &result)), nil
}

func (c *Client) handleReset(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, _ := request.GetArguments()["session_id"].(string)

	var response struct {
		Message string            `json:"message"`
		State   *engine.GameState `json:"state"`
	}

	if err := c.apiCall(ctx, "POST", sessionPath(sessionID, "/reset"), nil, &response); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("%s\n\n%s", response.Message, formatGameState(response.State))), nil
}

func (c *Client) handleMoveHistory(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	sessionID, _ := args["session_id"].(string)

	params := url.Values{}
	if page, ok := intArg(args, "page"); ok {
		params.Set("page", fmt.Sprint(page))
	}
	if limit, ok := intArg(args, "limit"); ok {
		params.Set("limit", fmt.Sprint(limit))
	}
	path := sessionPath(sessionID, "/history")
	if len(params) > 0 {
		path += "?" + params.Encode()
	}

	var history service.HistoryResponse
	if err := c.apiCall(ctx, "GET", path, nil, &history); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatHistory(&history)), nil
}

func (c *Client) handleListScenarios(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var scenarios []config.ScenarioInfo
	if err := c.apiCall(ctx, "GET", "/api/scenarios", nil, &scenarios); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var b strings.Builder
	b.WriteString("Available Scenarios:\n\n")
	for _, s := range scenarios {
		start := "choose at start"
		if s.HasStart {
			start = "preset"
		}
		fmt.Fprintf(&b, "• %s (%s)\n  %s\n  Walls: %d, Dirt: %d, Chargers: %d, Start: %s\n\n",
			s.ScenarioID, s.Name, s.Description, s.Walls, s.Dirt, s.Chargers, start)
	}

	return mcp.NewToolResultText(b.String()), nil
}

const instructions = `Grid Cleaner - Complete Instructions

GAME OBJECTIVE:
Drive the cleaning robot over every dirty tile on a 10x10 board. The game is won the moment
no dirt is left, and the final message is "=== All clean in N moves! ===".

LIFECYCLE:
1. Setup: edit the board with the setup tool.
     w r c            place a wall
     d r c            mark a tile dirty (ignored on walls)
     h r c            place a charger (ignored on walls)
     L r1 c1 r2 c2    straight wall line; endpoints are clamped onto the board
     q                finish setup
   Out of bounds edits report "Location out of bounds" and are skipped.
2. Start: place the robot on any tile that is on the board and not a wall.
   The start tile is cleaned immediately.
3. Play: move, bulk_move or play until the board is clean.

GRID LEGEND:
• @   - the robot
• ### - wall (impassable)
• *   - dirt
• +   - charger
• (blank) - clean floor

MOVEMENT:
• up, down, left, right (keys w, s, a, d)
• The board wraps: leaving the right edge enters the left edge, leaving the top enters the bottom
• Moving into a wall is rejected and costs nothing
• Every accepted move costs 1% battery and cleans the destination tile

BATTERY:
• Starts at 100%
• At 0% moves are refused until you recharge
• recharge (key r) refills to 100% but only on a charger tile
• b reports the battery, c reports the move count

STRATEGY:
• Distances wrap too: column 0 and column 9 are neighbours
• Plan loops that pass over a charger before the battery runs low
• Use bulk_move for long straight runs; it stops at the first wall or empty battery
• describe_cell tells you exactly what is on a tile

Good luck!`

func (c *Client) handleGameInstructions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(instructions), nil
}

func (c *Client) handleDescribeCell(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	sessionID, _ := args["session_id"].(string)
	row, okRow := intArg(args, "row")
	col, okCol := intArg(args, "col")
	if !okRow || !okCol {
		return mcp.NewToolResultError("row and col are required"), nil
	}

	var state engine.GameState
	if err := c.apiCall(ctx, "GET", sessionPath(sessionID, "/state"), nil, &state); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return describeCell(&state, engine.Position{Row: row, Col: col})
}

func describeCell(state *engine.GameState, p engine.Position) (*mcp.CallToolResult, error) {
	if !p.InBounds() || p.Row >= len(state.Grid) || p.Col >= len(state.Grid[p.Row]) {
		return mcp.NewToolResultError(fmt.Sprintf("Position %s is out of bounds. The board is %dx%d (0-%d for both row and col)",
			p, engine.Rows, engine.Cols, engine.Rows-1)), nil
	}

	tile := state.Grid[p.Row][p.Col]
	robot := state.Player != nil && state.Player.Position == p

	var notes []string
	switch tile.Base {
	case engine.Wall:
		notes = append(notes, "Wall - IMPASSABLE")
	case engine.Charger:
		notes = append(notes, "Charger - recharge restores the battery to 100%")
	default:
		notes = append(notes, "Floor")
	}
	if tile.Dirty {
		notes = append(notes, "Dirty - stepping here cleans it")
	}
	if robot {
		notes = append(notes, "The robot is here")
	}

	result := fmt.Sprintf(`Cell at %s:
━━━━━━━━━━━━━━━━━━━━━━━━
Glyph: %q
Base: %s
Dirty: %v
Passable: %v
%s`,
		p,
		render.Glyph(tile, robot),
		tile.Base,
		tile.Dirty,
		tile.Base != engine.Wall,
		strings.Join(notes, "\n"))

	return mcp.NewToolResultText(result), nil
}

// Formatting helpers

func formatSessionInfo(session *service.SessionInfo) string {
	return fmt.Sprintf("Session: %s\nScenario: %s\nCreated: %s\n\n%s",
		session.ID, session.ScenarioID,
		session.CreatedAt.Format("2006-01-02 15:04:05"),
		formatGameState(session.GameState))
}

func formatGameState(state *engine.GameState) string {
	if state == nil {
		return "No game state available"
	}

	var b strings.Builder
	var at *engine.Position

	fmt.Fprintf(&b, "Phase: %s | Dirt left: %d", state.Phase, state.DirtLeft)
	if state.Player != nil {
		at = &state.Player.Position
		fmt.Fprintf(&b, " | Position: %s | Battery: %d/%d | Moves: %d",
			state.Player.Position, state.Player.Battery, engine.MaxBattery, state.Player.Moves)
	}
	b.WriteString("\n")

	if state.BatteryRisk != "" {
		fmt.Fprintf(&b, "Battery risk: %s\n", state.BatteryRisk)
	}
	b.WriteString("\n")

	if len(state.Grid) > 0 {
		b.WriteString(render.Grid(state.Grid, at))
	}

	if state.GameOver {
		if state.Victory {
			b.WriteString("🎉 VICTORY!")
		} else {
			b.WriteString("GAME OVER")
		}
	}

	if state.Message != "" {
		fmt.Fprintf(&b, "\nMessage: %s", state.Message)
	}

	return b.String()
}

func formatSetupResult(result *service.SetupResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Setup: %d applied, %d rejected\n", result.Applied, result.Rejected)
	for _, r := range result.Reports {
		line := fmt.Sprintf("- %s: %s", r.Command, r.Event)
		if r.Message != "" {
			line += " (" + r.Message + ")"
		}
		b.WriteString(line + "\n")
	}
	for _, e := range result.ParseErrors {
		fmt.Fprintf(&b, "! %s\n", e)
	}
	if result.Finished {
		b.WriteString("Setup finished. Use start to place the robot.\n")
	}
	if result.Board != "" {
		b.WriteString("\n" + result.Board)
	}
	return b.String()
}

func formatActionResult(action string, result *service.ActionResult) string {
	var b strings.Builder
	if result.Success {
		fmt.Fprintf(&b, "✓ %s successful\n", action)
	} else {
		fmt.Fprintf(&b, "✗ %s failed\n", action)
	}

	if s := result.Step; s != nil {
		status := "✗"
		if s.Moved {
			status = "✓"
		}
		fmt.Fprintf(&b, "Step: %s %s→%s batt=%d %s", s.Dir, s.From, s.To, s.BatteryAfter, status)
		if s.Blocked {
			fmt.Fprintf(&b, " blocked by wall at %s", s.Target)
		}
		if s.Cleaned {
			b.WriteString(" cleaned")
		}
		b.WriteString("\n")
	}

	if result.Event != "" {
		fmt.Fprintf(&b, "Event: %s\n", result.Event)
	}
	if result.Message != "" {
		fmt.Fprintf(&b, "Message: %s\n", result.Message)
	}
	if result.Error != "" {
		fmt.Fprintf(&b, "Error: %s\n", result.Error)
	}

	b.WriteString("\n" + formatGameState(result.GameState))
	return b.String()
}

func formatBulkMoveResult(sessionID string, result *service.BulkMoveResult) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Session: %s\n", sessionID)
	fmt.Fprintf(&b, "Executed %d/%d moves", result.MovesExecuted, result.RequestedMoves)
	if result.Truncated {
		fmt.Fprintf(&b, " (truncated to %d)", result.Limit)
	}
	b.WriteString("\n")
	if result.StopReasonCode != "" {
		fmt.Fprintf(&b, "Stopped on move %d: %s (%s)\n", result.StoppedOnMove, result.StopReasonCode, result.StoppedReason)
	}
	fmt.Fprintf(&b, "From %s batt=%d to %s batt=%d, cleaned %d\n",
		result.StartPos, result.StartBattery, result.EndPos, result.EndBattery, result.DirtCleaned)

	if len(result.Steps) > 0 {
		b.WriteString("\nSteps:\n")
		for _, s := range result.Steps {
			status := "✓"
			if !s.Moved {
				status = "✗"
			}
			fmt.Fprintf(&b, "%d. %s %s→%s batt=%d %s\n", s.Idx, s.Dir, s.From, s.To, s.BatteryAfter, status)
		}
	}

	if pm := possibleMoves(result.GameState); len(pm) > 0 {
		b.WriteString("\nPossible moves: ")
		b.WriteString(strings.Join(pm, ","))
		b.WriteString("\n")
	}
	if len(result.LocalView3x3) == 3 {
		b.WriteString("Local 3x3:\n")
		for _, line := range result.LocalView3x3 {
			b.WriteString(line + "\n")
		}
	}
	if result.BatteryRisk != "" {
		fmt.Fprintf(&b, "Battery risk: %s\n", result.BatteryRisk)
	}
	if result.Message != "" {
		fmt.Fprintf(&b, "Message: %s\n", result.Message)
	}

	b.WriteString("\n")
	b.WriteString(formatGameState(result.GameState))
	return b.String()
}

// possibleMoves lists the directions whose wrapped neighbour is not a wall
func possibleMoves(state *engine.GameState) []string {
	if state == nil || state.GameOver || state.Player == nil || state.Player.Battery <= 0 {
		return nil
	}
	board := engine.BoardFromGrid(state.Grid)
	var res []string
	for _, d := range engine.Directions {
		t, _ := board.At(engine.Next(state.Player.Position, d))
		if t.Base != engine.Wall {
			res = append(res, d.String())
		}
	}
	return res
}

func formatHistory(history *service.HistoryResponse) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Move History (Page %d/%d), Total: %d\n\n",
		history.Page, history.TotalPages, history.TotalMoves)

	for _, move := range history.Moves {
		status := "✓"
		if !move.Success {
			status = "✗"
		}
		fmt.Fprintf(&b, "%d. %s %s→%s %s [Battery: %d]",
			move.MoveNumber, move.Action, move.FromPosition, move.ToPosition, status, move.Battery)
		if move.Cleaned {
			b.WriteString(" cleaned")
		}
		b.WriteString("\n")
	}

	return b.String()
}
