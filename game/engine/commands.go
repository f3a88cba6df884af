package engine

// SetupCommand is a board-editing command accepted before play starts
type SetupCommand interface {
	setupCommand()
}

// PlaceWallCmd turns one tile into a wall
type PlaceWallCmd struct{ At Position }

// MarkDirtCmd flags one tile as dirty
type MarkDirtCmd struct{ At Position }

// PlaceChargerCmd turns one tile into a charger
type PlaceChargerCmd struct{ At Position }

// PlaceLineCmd draws a straight wall segment
type PlaceLineCmd struct{ From, To Position }

// QuitSetupCmd ends the setup phase
type QuitSetupCmd struct{}

func (PlaceWallCmd) setupCommand() {}
func (MarkDirtCmd) setupCommand() {}
func (PlaceChargerCmd) setupCommand() {}
func (PlaceLineCmd) setupCommand() {}
func (QuitSetupCmd) setupCommand() {}

// PlayCommand is a command accepted while the robot is on the board
type PlayCommand interface {
	playCommand()
}

// MoveCmd moves the robot one tile
type MoveCmd struct{ Dir Direction }

// QueryBatteryCmd reports the battery level
type QueryBatteryCmd struct{}

// QueryMovesCmd reports the move count
type QueryMovesCmd struct{}

// RechargeCmd refills the battery when standing on a charger
type RechargeCmd struct{}

func (MoveCmd) playCommand() {}
func (QueryBatteryCmd) playCommand() {}
func (QueryMovesCmd) playCommand() {}
func (RechargeCmd) playCommand() {}

// Event names the outcome of a command
type Event string

const (
	EventWallPlaced    Event = "wall_placed"
	EventDirtMarked    Event = "dirt_marked"
	EventChargerPlaced Event = "charger_placed"
	EventLinePlaced    Event = "line_placed"
	EventOutOfBounds   Event = "out_of_bounds"
	EventInvalidLine   Event = "invalid_line"
	EventSetupDone     Event = "setup_done"

	EventStarted      Event = "started"
	EventBattery      Event = "battery"
	EventMoves        Event = "moves"
	EventRecharged    Event = "recharged"
	EventNotOnCharger Event = "not_on_charger"
	EventMoved        Event = "moved"
	EventBlocked      Event = "blocked"
	EventBatteryEmpty Event = "battery_empty"
	EventVictory      Event = "victory"
	EventIgnored      Event = "ignored"
)

// Report is what a controller hands back after one command. Render asks the caller to
// redraw the board; Done marks a terminal state.
type Report struct {
	Event   Event       `json:"event"`
	Message string      `json:"message,omitempty"`
	Err     error       `json:"-"`
	Render  bool        `json:"-"`
	Done    bool        `json:"done,omitempty"`
	Step    *StepResult `json:"step,omitempty"`
}

// Failed reports whether the command was rejected
func (r Report) Failed() bool {
	return r.Err != nil
}
