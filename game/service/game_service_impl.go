package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/wricardo/mcp-training/gridcleaner/game/command"
	"github.com/wricardo/mcp-training/gridcleaner/game/config"
	"github.com/wricardo/mcp-training/gridcleaner/game/engine"
	"github.com/wricardo/mcp-training/gridcleaner/game/render"
)

// Bulk move stop reason codes
const (
	StopBlockedWall      = "blocked_wall"
	StopBatteryEmpty     = "battery_empty"
	StopInvalidDirection = "invalid_direction"
	StopVictory          = "victory"
	StopGameOver         = "game_over"
)

// gameServiceImpl implements the GameService interface
type gameServiceImpl struct {
	sessions  SessionManager
	scenarios ScenarioManager
}

// NewGameService creates a new game service instance
func NewGameService(sessions SessionManager, scenarios ScenarioManager) GameService {
	return &gameServiceImpl{
		sessions:  sessions,
		scenarios: scenarios,
	}
}

// getScenarioID returns the scenario_id for a scenario display name, used for consistent API responses
func (s *gameServiceImpl) getScenarioID(name string) string {
	infos, err := s.scenarios.ListScenarios()
	if err == nil {
		for _, info := range infos {
			if info.Name == name {
				return info.ScenarioID
			}
		}
	}
	if name == "" {
		return "default"
	}
	return name
}

// CreateSession creates a new game session. An empty scenario id selects the default scenario.
func (s *gameServiceImpl) CreateSession(ctx context.Context, scenarioID string) (*SessionInfo, error) {
	var scenario *config.Scenario
	if scenarioID != "" {
		var err error
		scenario, err = s.scenarios.LoadScenario(scenarioID)
		if err != nil {
			if errors.Is(err, config.ErrScenarioNotFound) {
				// Provide helpful error message with available options
				infos, listErr := s.scenarios.ListScenarios()
				if listErr == nil && len(infos) > 0 {
					ids := make([]string, 0, len(infos))
					for _, info := range infos {
						ids = append(ids, info.ScenarioID)
					}
					return nil, fmt.Errorf("%w: '%s'. Available scenarios: %v", config.ErrScenarioNotFound, scenarioID, ids)
				}
				return nil, fmt.Errorf("%w: '%s'. Use /api/scenarios to list available scenarios", config.ErrScenarioNotFound, scenarioID)
			}
			return nil, fmt.Errorf("failed to load scenario %s: %w", scenarioID, err)
		}
	} else {
		scenario = s.scenarios.GetDefault()
		scenarioID = s.getScenarioID(scenario.Name)
	}

	// Let session manager generate a proper 4-character ID
	sess, err := s.sessions.Create("", scenarioID, scenario)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	sess.Lock()
	defer sess.Unlock()
	s.record(sess, TranscriptEntry{Action: "create", Args: scenarioID})
	return sessionInfo(sess), nil
}

// GetSession retrieves session information
func (s *gameServiceImpl) GetSession(ctx context.Context, sessionID string) (*SessionInfo, error) {
	sess, err := s.acquire(sessionID)
	if err != nil {
		return nil, err
	}
	defer sess.Unlock()
	return sessionInfo(sess), nil
}

// ListSessions returns all active sessions
func (s *gameServiceImpl) ListSessions(ctx context.Context) ([]*SessionInfo, error) {
	sessions := s.sessions.List()
	result := make([]*SessionInfo, 0, len(sessions))
	for _, sess := range sessions {
		sess.Lock()
		result = append(result, sessionInfo(sess))
		sess.Unlock()
	}
	return result, nil
}

// DeleteSession removes a session
func (s *gameServiceImpl) DeleteSession(ctx context.Context, sessionID string) error {
	if err := s.sessions.Delete(sessionID); err != nil {
		return fmt.Errorf("session not found: %w", err)
	}
	return nil
}

// Setup runs a setup script such as "w 1 1\nL 2 2 2 7\nq" against a session still in setup.
// Malformed arguments are reported without aborting the remaining commands.
func (s *gameServiceImpl) Setup(ctx context.Context, sessionID, script string) (*SetupResult, error) {
	sess, err := s.acquire(sessionID)
	if err != nil {
		return nil, err
	}
	defer sess.Unlock()

	if sess.Engine.Phase() != engine.PhaseSetup {
		return nil, fmt.Errorf("setup: %w", engine.ErrWrongPhase)
	}

	cmds, parseErr := command.ParseSetupScript(script)
	result := &SetupResult{
		Reports:     make([]SetupReport, 0, len(cmds)),
		ParseErrors: splitErrors(parseErr),
	}

	for _, cmd := range cmds {
		r := sess.Engine.ApplySetup(cmd)
		text := command.FormatSetup(cmd)
		result.Reports = append(result.Reports, SetupReport{Command: text, Event: r.Event, Message: r.Message})
		if r.Failed() {
			result.Rejected++
		} else {
			result.Applied++
		}
		if r.Done {
			result.Finished = true
		}
		s.record(sess, TranscriptEntry{Action: "setup", Args: text, Event: r.Event, Message: r.Message, Error: errString(r.Err)})
	}

	log.WithFields(log.Fields{
		"session":  sess.ID,
		"applied":  result.Applied,
		"rejected": result.Rejected,
		"finished": result.Finished,
	}).Debug("Setup script applied")

	result.GameState = sess.Engine.GetState()
	result.Board = renderSession(sess)
	return result, nil
}

// Start places the robot and begins play
func (s *gameServiceImpl) Start(ctx context.Context, sessionID string, pos engine.Position) (*ActionResult, error) {
	sess, err := s.acquire(sessionID)
	if err != nil {
		return nil, err
	}
	defer sess.Unlock()

	r, err := sess.Engine.Start(pos)
	s.record(sess, TranscriptEntry{Action: "start", Args: fmt.Sprintf("%d %d", pos.Row, pos.Col), Event: r.Event, Message: r.Message, Error: errString(err)})
	if err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{"session": sess.ID, "start": pos.String()}).Info("Play started")
	return actionResult(sess, r), nil
}

// Move executes a single move for a session
func (s *gameServiceImpl) Move(ctx context.Context, sessionID, direction string) (*ActionResult, error) {
	dir, err := engine.ParseDirection(direction)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	return s.apply(sessionID, engine.MoveCmd{Dir: dir}, dir.String())
}

// Recharge refills the battery when the robot stands on a charger
func (s *gameServiceImpl) Recharge(ctx context.Context, sessionID string) (*ActionResult, error) {
	return s.apply(sessionID, engine.RechargeCmd{}, "recharge")
}

func (s *gameServiceImpl) apply(sessionID string, cmd engine.PlayCommand, action string) (*ActionResult, error) {
	sess, err := s.acquire(sessionID)
	if err != nil {
		return nil, err
	}
	defer sess.Unlock()

	if err := playable(sess.Engine); err != nil {
		return nil, err
	}

	before, _ := sess.Engine.Player()
	r := sess.Engine.Apply(cmd)
	s.record(sess, TranscriptEntry{Action: action, Event: r.Event, Message: r.Message, Error: errString(r.Err)})

	result := actionResult(sess, r)
	if r.Step != nil {
		after, _ := sess.Engine.Player()
		result.Step = stepInfo(1, action, before, after, r)
	}
	return result, nil
}

// Play runs a packed key sequence such as "dddsb". Unknown keys are skipped and
// the sequence stops once the game is won.
func (s *gameServiceImpl) Play(ctx context.Context, sessionID, keys string) (*PlayResult, error) {
	sess, err := s.acquire(sessionID)
	if err != nil {
		return nil, err
	}
	defer sess.Unlock()

	if err := playable(sess.Engine); err != nil {
		return nil, err
	}

	result := &PlayResult{
		Keys:     keys,
		Results:  []ActionResult{},
		Messages: []string{},
	}
	for i, cmd := range command.ParsePlayKeys(keys) {
		if sess.Engine.IsGameOver() {
			break
		}
		before, _ := sess.Engine.Player()
		r := sess.Engine.Apply(cmd)
		action := playAction(cmd)
		s.record(sess, TranscriptEntry{Action: action, Event: r.Event, Message: r.Message, Error: errString(r.Err)})

		ar := ActionResult{
			Success: !r.Failed() && (r.Step == nil || r.Step.Moved),
			Event:   r.Event,
			Message: r.Message,
			Error:   errString(r.Err),
		}
		if r.Step != nil {
			after, _ := sess.Engine.Player()
			ar.Step = stepInfo(i+1, action, before, after, r)
		}
		result.Results = append(result.Results, ar)
		if r.Message != "" {
			result.Messages = append(result.Messages, r.Message)
		}
	}

	result.GameState = sess.Engine.GetState()
	result.Board = renderSession(sess)
	return result, nil
}

// BulkMove executes multiple moves in sequence. It stops at the first rejected move,
// an unknown direction or the end of the game.
func (s *gameServiceImpl) BulkMove(ctx context.Context, sessionID string, moves []string) (*BulkMoveResult, error) {
	sess, err := s.acquire(sessionID)
	if err != nil {
		return nil, err
	}
	defer sess.Unlock()

	if err := playable(sess.Engine); err != nil {
		return nil, err
	}

	start, _ := sess.Engine.Player()
	dirtBefore := sess.Engine.Board().DirtCount()
	result := &BulkMoveResult{
		RequestedMoves: len(moves),
		Success:        true,
		StartPos:       start.Position,
		StartBattery:   start.Battery,
		Steps:          []StepInfo{},
	}

	// Limit moves to prevent abuse
	if len(moves) > engine.MaxBulkMoves {
		result.Truncated = true
		result.Limit = engine.MaxBulkMoves
		moves = moves[:engine.MaxBulkMoves]
	}

	dirs := make([]engine.Direction, 0, len(moves))
	badIdx := -1
	for i, move := range moves {
		d, err := engine.ParseDirection(move)
		if err != nil {
			badIdx = i
			result.StoppedReason = fmt.Sprintf("invalid direction %q", move)
			break
		}
		dirs = append(dirs, d)
	}

	reports := sess.Engine.BulkMove(dirs)

	p := start
	for i, r := range reports {
		if r.Step == nil {
			continue
		}
		next := p
		if r.Step.Moved {
			next.Position = r.Step.Target
			next.Battery--
			next.Moves++
		}
		step := stepInfo(i+1, dirs[i].String(), p, next, r)
		result.Steps = append(result.Steps, *step)
		if r.Step.Moved {
			result.MovesExecuted++
		}
		p = next
		s.record(sess, TranscriptEntry{Action: dirs[i].String(), Event: r.Event, Message: r.Message, Error: errString(r.Err)})
	}

	if n := len(reports); n > 0 {
		last := reports[n-1]
		switch {
		case last.Event == engine.EventVictory:
			result.StopReasonCode = StopVictory
			result.StoppedReason = last.Message
			if n < len(dirs) || badIdx >= 0 {
				result.StoppedOnMove = n
			}
		case errors.Is(last.Err, engine.ErrBatteryEmpty):
			s.recordStop(sess, last, dirs[n-1])
			result.Success = false
			result.StopReasonCode = StopBatteryEmpty
			result.StoppedReason = last.Message
			result.StoppedOnMove = n
		case last.Step != nil && last.Step.Blocked:
			result.Success = false
			result.StopReasonCode = StopBlockedWall
			result.StoppedReason = fmt.Sprintf("wall at %s", last.Step.Target)
			result.StoppedOnMove = n
		}
	}
	if result.StopReasonCode == "" && badIdx >= 0 {
		result.Success = false
		result.StopReasonCode = StopInvalidDirection
		result.StoppedOnMove = badIdx + 1
	}

	end, _ := sess.Engine.Player()
	state := sess.Engine.GetState()
	result.GameState = state
	result.EndPos = end.Position
	result.EndBattery = end.Battery
	result.DirtCleaned = dirtBefore - state.DirtLeft
	result.GameOver = state.GameOver
	result.Message = state.Message

	// Decision aids
	result.LocalView3x3 = buildLocal3x3(sess.Engine.Board(), end.Position)
	result.BatteryRisk = riskCode(state.BatteryRisk)

	log.WithFields(log.Fields{
		"session":   sess.ID,
		"requested": result.RequestedMoves,
		"executed":  result.MovesExecuted,
		"stop":      result.StopReasonCode,
	}).Debug("Bulk move finished")
	return result, nil
}

// recordStop notes the gated move in the transcript. BulkMove records executed steps only.
func (s *gameServiceImpl) recordStop(sess *Session, r engine.Report, d engine.Direction) {
	s.record(sess, TranscriptEntry{Action: d.String(), Event: r.Event, Message: r.Message, Error: errString(r.Err)})
}

// Reset resets a game session to its initial state
func (s *gameServiceImpl) Reset(ctx context.Context, sessionID string) (*engine.GameState, error) {
	sess, err := s.acquire(sessionID)
	if err != nil {
		return nil, err
	}
	defer sess.Unlock()

	state := sess.Engine.Reset()
	s.record(sess, TranscriptEntry{Action: "reset", Message: state.Message})
	return state, nil
}

// GetGameState retrieves the current game state
func (s *gameServiceImpl) GetGameState(ctx context.Context, sessionID string) (*engine.GameState, error) {
	sess, err := s.acquire(sessionID)
	if err != nil {
		return nil, err
	}
	defer sess.Unlock()
	return sess.Engine.GetState(), nil
}

// Render returns the text board for a session
func (s *gameServiceImpl) Render(ctx context.Context, sessionID string) (string, error) {
	sess, err := s.acquire(sessionID)
	if err != nil {
		return "", err
	}
	defer sess.Unlock()
	return renderSession(sess), nil
}

// GetMoveHistory returns paginated move history
func (s *gameServiceImpl) GetMoveHistory(ctx context.Context, sessionID string, opts HistoryOptions) (*HistoryResponse, error) {
	sess, err := s.acquire(sessionID)
	if err != nil {
		return nil, err
	}
	defer sess.Unlock()

	history := sess.Engine.GetMoveHistory()
	total := len(history)

	// Apply defaults
	if opts.Page < 1 {
		opts.Page = 1
	}
	if opts.Limit <= 0 {
		opts.Limit = 20
	}
	if opts.Limit > 100 {
		opts.Limit = 100
	}
	if opts.Order == "" {
		opts.Order = "desc"
	}

	totalPages := (total + opts.Limit - 1) / opts.Limit
	if totalPages == 0 {
		totalPages = 1
	}

	start := (opts.Page - 1) * opts.Limit
	end := start + opts.Limit
	if end > total {
		end = total
	}

	moves := []engine.MoveHistoryEntry{}
	if opts.Order == "desc" {
		// Most recent first
		for i := total - 1 - start; i >= 0 && i >= total-end; i-- {
			moves = append(moves, history[i])
		}
	} else if start < total {
		moves = append(moves, history[start:end]...)
	}

	return &HistoryResponse{
		Moves:       moves,
		TotalMoves:  total,
		Page:        opts.Page,
		PageSize:    opts.Limit,
		TotalPages:  totalPages,
		HasNext:     opts.Page < totalPages,
		HasPrevious: opts.Page > 1,
	}, nil
}

// ListScenarios returns available scenarios
func (s *gameServiceImpl) ListScenarios(ctx context.Context) ([]*config.ScenarioInfo, error) {
	return s.scenarios.ListScenarios()
}

// LoadScenario loads a specific scenario
func (s *gameServiceImpl) LoadScenario(ctx context.Context, name string) (*config.Scenario, error) {
	return s.scenarios.LoadScenario(name)
}

// SaveScenario saves a scenario to disk
func (s *gameServiceImpl) SaveScenario(ctx context.Context, name string, scenario *config.Scenario) error {
	if strings.TrimSpace(name) == "" || strings.ContainsAny(name, "/\\") {
		return fmt.Errorf("%w: scenario name %q", ErrInvalidInput, name)
	}
	return s.scenarios.SaveScenario(name, scenario)
}

// acquire looks up a session, touches it and locks it. Callers must Unlock.
func (s *gameServiceImpl) acquire(sessionID string) (*Session, error) {
	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("session not found: %w", err)
	}
	s.sessions.UpdateLastAccessed(sessionID)
	sess.Lock()
	return sess, nil
}

// record appends one transcript entry. Recording failures never fail the command.
func (s *gameServiceImpl) record(sess *Session, entry TranscriptEntry) {
	st := sess.Engine.GetState()
	entry.Phase = st.Phase
	entry.Player = st.Player
	entry.DirtLeft = st.DirtLeft
	if err := s.sessions.Record(sess.ID, entry); err != nil {
		log.WithError(err).WithField("session", sess.ID).Warn("Failed to record transcript entry")
	}
}

func playable(e *engine.GameEngine) error {
	switch e.Phase() {
	case engine.PhaseSetup:
		return fmt.Errorf("play: %w", engine.ErrWrongPhase)
	case engine.PhaseOver:
		return engine.ErrGameOver
	}
	return nil
}

func sessionInfo(sess *Session) *SessionInfo {
	return &SessionInfo{
		ID:             sess.ID,
		ScenarioID:     sess.ScenarioID,
		CreatedAt:      sess.CreatedAt,
		LastAccessedAt: sess.LastAccessedAt,
		GameState:      sess.Engine.GetState(),
		Scenario:       sess.Scenario,
	}
}

func actionResult(sess *Session, r engine.Report) *ActionResult {
	return &ActionResult{
		Success:   !r.Failed() && (r.Step == nil || r.Step.Moved),
		Event:     r.Event,
		Message:   r.Message,
		Error:     errString(r.Err),
		GameState: sess.Engine.GetState(),
		Board:     renderSession(sess),
	}
}

func stepInfo(idx int, dir string, before, after engine.Player, r engine.Report) *StepInfo {
	return &StepInfo{
		Idx:           idx,
		Dir:           dir,
		From:          before.Position,
		To:            after.Position,
		Target:        r.Step.Target,
		BatteryBefore: before.Battery,
		BatteryAfter:  after.Battery,
		Moved:         r.Step.Moved,
		Blocked:       r.Step.Blocked,
		Cleaned:       r.Step.Cleaned,
		Victory:       r.Event == engine.EventVictory,
	}
}

func playAction(cmd engine.PlayCommand) string {
	switch c := cmd.(type) {
	case engine.MoveCmd:
		return c.Dir.String()
	case engine.QueryBatteryCmd:
		return "battery"
	case engine.QueryMovesCmd:
		return "moves"
	case engine.RechargeCmd:
		return "recharge"
	}
	return "unknown"
}

func renderSession(sess *Session) string {
	var at *engine.Position
	if p, ok := sess.Engine.Player(); ok {
		at = &p.Position
	}
	return render.String(sess.Engine.Board(), at)
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

// splitErrors flattens an errors.Join result into messages
func splitErrors(err error) []string {
	if err == nil {
		return nil
	}
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		var out []string
		for _, e := range joined.Unwrap() {
			out = append(out, e.Error())
		}
		return out
	}
	return []string{err.Error()}
}

// buildLocal3x3 returns the tiles around the robot as layout characters, wrapping at the edges.
// The robot is drawn as '@'.
func buildLocal3x3(b *engine.Board, at engine.Position) []string {
	if b == nil {
		return nil
	}
	lines := make([]string, 0, 3)
	for dr := -1; dr <= 1; dr++ {
		var row strings.Builder
		for dc := -1; dc <= 1; dc++ {
			if dr == 0 && dc == 0 {
				row.WriteByte('@')
				continue
			}
			p := engine.Position{
				Row: (at.Row + dr + engine.Rows) % engine.Rows,
				Col: (at.Col + dc + engine.Cols) % engine.Cols,
			}
			tile, _ := b.At(p)
			row.WriteRune(config.LayoutChar(tile))
		}
		lines = append(lines, row.String())
	}
	return lines
}

func riskCode(text string) string {
	t := strings.ToLower(text)
	switch {
	case strings.Contains(t, "critical"):
		return "CRITICAL"
	case strings.Contains(t, "danger"):
		return "DANGER"
	case strings.Contains(t, "caution"):
		return "CAUTION"
	case strings.Contains(t, "low"):
		return "LOW"
	case strings.Contains(t, "warning"):
		return "WARNING"
	case strings.Contains(t, "safe"):
		return "SAFE"
	default:
		return "UNKNOWN"
	}
}
