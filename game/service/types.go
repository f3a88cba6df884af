package service

import (
	"time"

	"github.com/wricardo/mcp-training/gridcleaner/game/config"
	"github.com/wricardo/mcp-training/gridcleaner/game/engine"
)

// SessionInfo provides information about a game session
type SessionInfo struct {
	ID             string            `json:"id"`
	ScenarioID     string            `json:"scenario_id"`
	CreatedAt      time.Time         `json:"created_at"`
	LastAccessedAt time.Time         `json:"last_accessed_at"`
	GameState      *engine.GameState `json:"game_state"`
	Scenario       *config.Scenario  `json:"scenario,omitempty"`
}

// ActionResult contains the result of one setup, start or play action
type ActionResult struct {
	Success   bool              `json:"success"`
	Event     engine.Event      `json:"event"`
	Message   string            `json:"message,omitempty"`
	Error     string            `json:"error,omitempty"`
	GameState *engine.GameState `json:"game_state"`
	Step      *StepInfo         `json:"step,omitempty"`
	Board     string            `json:"board,omitempty"`
}

// SetupResult contains the outcome of a setup script
type SetupResult struct {
	Applied     int               `json:"applied"`
	Rejected    int               `json:"rejected"`
	Reports     []SetupReport     `json:"reports"`
	ParseErrors []string          `json:"parse_errors,omitempty"`
	Finished    bool              `json:"finished"`
	GameState   *engine.GameState `json:"game_state"`
	Board       string            `json:"board"`
}

// SetupReport is the result of one setup command
type SetupReport struct {
	Command string       `json:"command"`
	Event   engine.Event `json:"event"`
	Message string       `json:"message,omitempty"`
}

// PlayResult contains the results of a packed key sequence such as "ddsb"
type PlayResult struct {
	Keys      string            `json:"keys"`
	Results   []ActionResult    `json:"results"`
	Messages  []string          `json:"messages"`
	GameState *engine.GameState `json:"game_state"`
	Board     string            `json:"board"`
}

// BulkMoveResult contains the result of multiple moves
type BulkMoveResult struct {
	MovesExecuted  int               `json:"moves_executed"`
	RequestedMoves int               `json:"requested_moves"`
	Success        bool              `json:"success"`
	GameState      *engine.GameState `json:"game_state"`
	StoppedReason  string            `json:"stopped_reason,omitempty"`
	StopReasonCode string            `json:"stop_reason_code,omitempty"` // blocked_wall|battery_empty|invalid_direction|victory|game_over
	StoppedOnMove  int               `json:"stopped_on_move,omitempty"`  // 1-based index of the move that caused the stop
	Truncated      bool              `json:"truncated,omitempty"`
	Limit          int               `json:"limit,omitempty"`

	StartPos     engine.Position `json:"start_pos"`
	EndPos       engine.Position `json:"end_pos"`
	StartBattery int             `json:"start_battery"`
	EndBattery   int             `json:"end_battery"`
	DirtCleaned  int             `json:"dirt_cleaned"`

	Steps []StepInfo `json:"steps,omitempty"`

	GameOver     bool     `json:"game_over"`
	Message      string   `json:"message,omitempty"`
	LocalView3x3 []string `json:"local_view_3x3,omitempty"`
	BatteryRisk  string   `json:"battery_risk,omitempty"`
}

// StepInfo is a compact record for each executed move
type StepInfo struct {
	Idx           int             `json:"idx"`
	Dir           string          `json:"dir"`
	From          engine.Position `json:"from"`
	To            engine.Position `json:"to"`
	Target        engine.Position `json:"target"`
	BatteryBefore int             `json:"battery_before"`
	BatteryAfter  int             `json:"battery_after"`
	Moved         bool            `json:"moved"`
	Blocked       bool            `json:"blocked,omitempty"`
	Cleaned       bool            `json:"cleaned,omitempty"`
	Victory       bool            `json:"victory,omitempty"`
}

// HistoryOptions configures move history retrieval
type HistoryOptions struct {
	Page  int    `json:"page"`
	Limit int    `json:"limit"`
	Order string `json:"order"` // "asc" or "desc"
}

// HistoryResponse contains paginated move history
type HistoryResponse struct {
	Moves       []engine.MoveHistoryEntry `json:"moves"`
	TotalMoves  int                       `json:"total_moves"`
	Page        int                       `json:"page"`
	PageSize    int                       `json:"page_size"`
	TotalPages  int                       `json:"total_pages"`
	HasNext     bool                      `json:"has_next"`
	HasPrevious bool                      `json:"has_previous"`
}

// TranscriptEntry is one line of a session transcript
type TranscriptEntry struct {
	Time      time.Time      `json:"time"`
	SessionID string         `json:"session_id"`
	Action    string         `json:"action"`
	Args      string         `json:"args,omitempty"`
	Event     engine.Event   `json:"event,omitempty"`
	Message   string         `json:"message,omitempty"`
	Error     string         `json:"error,omitempty"`
	Phase     engine.Phase   `json:"phase"`
	Player    *engine.Player `json:"player,omitempty"`
	DirtLeft  int            `json:"dirt_left"`
}
