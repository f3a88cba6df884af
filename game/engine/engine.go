package engine

import (
	"errors"
	"fmt"
	"time"
)

const msgSetup = "Setup: place walls, dirt and chargers, then finish setup and choose a start"

// Engine provides the main interface for game operations
type Engine interface {
	// Game state management
	GetState() *GameState
	Phase() Phase
	Reset() *GameState
	IsGameOver() bool
	IsVictory() bool
	Board() *Board
	Player() (Player, bool)

	// Setup operations
	ApplySetup(cmd SetupCommand) Report
	Start(p Position) (Report, error)

	// Play operations
	Apply(cmd PlayCommand) Report
	Move(d Direction) Report

	// History
	GetMoveHistory() []MoveHistoryEntry
	GetLastMove() *MoveHistoryEntry
}

// GameEngine implements the Engine interface. It drives one board through setup and play.
type GameEngine struct {
	name    string
	origin  *Board
	played  *Board
	setup   *Setup
	game    *Game
	start   Position
	message string
	history []MoveHistoryEntry
}

// NewEngine creates an engine in the setup phase. The board becomes owned by the engine.
func NewEngine(name string, b *Board) *GameEngine {
	if b == nil {
		b = NewBoard()
	}
	return &GameEngine{
		name:    name,
		origin:  b.Clone(),
		setup:   NewSetup(b),
		message: msgSetup,
	}
}

// Name returns the scenario name the engine was created from
func (e *GameEngine) Name() string {
	return e.name
}

// Phase returns the current lifecycle stage
func (e *GameEngine) Phase() Phase {
	switch {
	case e.game == nil:
		return PhaseSetup
	case e.game.Over():
		return PhaseOver
	}
	return PhasePlaying
}

// Board returns the live board
func (e *GameEngine) Board() *Board {
	if e.game != nil {
		return e.game.Board()
	}
	return e.setup.Board()
}

// Player returns the robot state; ok is false before play starts
func (e *GameEngine) Player() (Player, bool) {
	if e.game == nil {
		return Player{}, false
	}
	return e.game.Player(), true
}

// ApplySetup runs one board edit
func (e *GameEngine) ApplySetup(cmd SetupCommand) Report {
	if e.game != nil {
		return Report{Event: EventIgnored, Err: fmt.Errorf("setup: %w", ErrWrongPhase)}
	}
	r := e.setup.Apply(cmd)
	e.note(r)
	return r
}

// Start closes setup and places the robot. An invalid start leaves the engine in setup.
func (e *GameEngine) Start(p Position) (Report, error) {
	if e.game != nil {
		err := fmt.Errorf("start: %w", ErrWrongPhase)
		return Report{Event: EventIgnored, Err: err}, err
	}

	snapshot := e.setup.Board().Clone()
	g, err := e.setup.Finish(p)
	if err != nil {
		e.message = InvalidStartMessage(p)
		return Report{Event: EventIgnored, Message: e.message, Err: err}, err
	}

	e.played = snapshot
	e.game = g
	e.start = p
	r := g.Opening()
	e.message = fmt.Sprintf("Robot placed at %s", p)
	e.note(r)
	return r, nil
}

// Apply runs one play command and records state-changing commands in the history
func (e *GameEngine) Apply(cmd PlayCommand) Report {
	if e.game == nil {
		return Report{Event: EventIgnored, Err: fmt.Errorf("play: %w", ErrWrongPhase)}
	}

	from := e.game.Player().Position
	r := e.game.Apply(cmd)
	if errors.Is(r.Err, ErrGameOver) {
		return r
	}

	switch c := cmd.(type) {
	case MoveCmd:
		e.addMoveToHistory(c.Dir.String(), from, r)
		if r.Message == "" && r.Step != nil {
			if r.Step.Blocked {
				e.message = fmt.Sprintf("Can't move %s: wall at %s", c.Dir, r.Step.Target)
			} else {
				e.message = fmt.Sprintf("Moved %s to %s", c.Dir, r.Step.Target)
			}
		}
	case RechargeCmd:
		e.addMoveToHistory("recharge", from, r)
	}
	e.note(r)
	return r
}

// Move attempts to move the robot in the specified direction
func (e *GameEngine) Move(d Direction) Report {
	return e.Apply(MoveCmd{Dir: d})
}

// Reset restores the board to where play began and puts the robot back on its start tile.
// Before play starts it restores the board the engine was created with. History is kept.
func (e *GameEngine) Reset() *GameState {
	if e.game == nil {
		e.setup = NewSetup(e.origin.Clone())
		e.message = msgSetup
		return e.GetState()
	}

	e.setup = NewSetup(e.played.Clone())
	g, err := e.setup.Finish(e.start)
	if err != nil {
		// the start tile was valid on this exact board when play began
		panic(fmt.Sprintf("reset: %v", err))
	}
	e.game = g
	e.message = "Game reset to initial state"
	e.note(g.Opening())
	return e.GetState()
}

// IsGameOver returns whether the game is over
func (e *GameEngine) IsGameOver() bool {
	return e.Phase() == PhaseOver
}

// IsVictory returns whether all dirt has been cleaned. Victory is the only terminal state.
func (e *GameEngine) IsVictory() bool {
	return e.IsGameOver()
}

// GetState returns a snapshot of the engine
func (e *GameEngine) GetState() *GameState {
	b := e.Board()
	history := make([]MoveHistoryEntry, len(e.history))
	copy(history, e.history)

	st := &GameState{
		Phase:        e.Phase(),
		Grid:         b.Grid(),
		DirtLeft:     b.DirtCount(),
		Message:      e.message,
		Victory:      e.IsVictory(),
		GameOver:     e.IsGameOver(),
		ScenarioName: e.name,
		MoveHistory:  history,
		TotalMoves:   len(history),
	}
	if p, ok := e.Player(); ok {
		st.Player = &p
		st.BatteryRisk = AnalyzeBatteryRisk(b, p)
	}
	return st
}

// GetMoveHistory returns the complete move history
func (e *GameEngine) GetMoveHistory() []MoveHistoryEntry {
	return e.history
}

// GetLastMove returns the last recorded command, or nil if none
func (e *GameEngine) GetLastMove() *MoveHistoryEntry {
	if len(e.history) == 0 {
		return nil
	}
	return &e.history[len(e.history)-1]
}

// BulkMove executes moves in sequence and stops at the first rejected move or the end of
// the game. It returns the reports of the commands that ran.
func (e *GameEngine) BulkMove(dirs []Direction) []Report {
	reports := make([]Report, 0, len(dirs))
	for _, d := range dirs {
		if e.IsGameOver() {
			break
		}
		r := e.Move(d)
		reports = append(reports, r)
		if r.Failed() || r.Step == nil || !r.Step.Moved {
			break
		}
	}
	return reports
}

func (e *GameEngine) note(r Report) {
	if r.Message != "" {
		e.message = r.Message
	}
}

func (e *GameEngine) addMoveToHistory(action string, from Position, r Report) {
	p, _ := e.Player()
	entry := MoveHistoryEntry{
		Action:       action,
		FromPosition: from,
		ToPosition:   p.Position,
		Battery:      p.Battery,
		Timestamp:    time.Now().Unix(),
		Success:      !r.Failed() && (r.Step == nil || r.Step.Moved),
		MoveNumber:   len(e.history) + 1,
	}
	if r.Step != nil {
		entry.Cleaned = r.Step.Cleaned
	}
	e.history = append(e.history, entry)
}
