package engine

import (
	"fmt"
	"strings"
)

// Board dimensions and battery limits
const (
	Rows       = 10
	Cols       = 10
	MaxBattery = 100

	// Validation constants
	MaxBulkMoves = 50
)

// Base is the terrain classification of a tile
type Base int

const (
	Empty Base = iota
	Wall
	Charger
)

var baseNames = map[Base]string{
	Empty:   "empty",
	Wall:    "wall",
	Charger: "charger",
}

func (b Base) String() string {
	if name, ok := baseNames[b]; ok {
		return name
	}
	return fmt.Sprintf("base(%d)", int(b))
}

// MarshalText encodes the base as its lowercase name
func (b Base) MarshalText() ([]byte, error) {
	name, ok := baseNames[b]
	if !ok {
		return nil, fmt.Errorf("unknown base %d", int(b))
	}
	return []byte(name), nil
}

// UnmarshalText decodes a lowercase base name
func (b *Base) UnmarshalText(text []byte) error {
	for base, name := range baseNames {
		if name == strings.ToLower(string(text)) {
			*b = base
			return nil
		}
	}
	return fmt.Errorf("unknown base %q", string(text))
}

// Tile represents a single board cell
type Tile struct {
	Base  Base `json:"base"`
	Dirty bool `json:"dirty,omitempty"`
}

// Position represents row,col coordinates
type Position struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

// InBounds reports whether the position lies on the board
func (p Position) InBounds() bool {
	return InBounds(p.Row, p.Col)
}

func (p Position) String() string {
	return fmt.Sprintf("(%d, %d)", p.Row, p.Col)
}

// Player is the robot state. It is mutated only by Step and the game controller.
type Player struct {
	Position
	Moves   int `json:"moves"`
	Battery int `json:"battery"`
}

// Direction is one of the four movement directions
type Direction int

const (
	Up Direction = iota + 1
	Down
	Left
	Right
)

// Directions lists every direction in key order w, s, a, d
var Directions = []Direction{Up, Down, Left, Right}

func (d Direction) String() string {
	switch d {
	case Up:
		return "up"
	case Down:
		return "down"
	case Left:
		return "left"
	case Right:
		return "right"
	}
	return "unknown"
}

// Key returns the play-stream key bound to the direction
func (d Direction) Key() rune {
	switch d {
	case Up:
		return 'w'
	case Down:
		return 's'
	case Left:
		return 'a'
	case Right:
		return 'd'
	}
	return 0
}

// delta returns the row and column offsets of one step
func (d Direction) delta() (int, int) {
	switch d {
	case Up:
		return -1, 0
	case Down:
		return 1, 0
	case Left:
		return 0, -1
	case Right:
		return 0, 1
	}
	return 0, 0
}

// ParseDirection accepts a direction name (up, down, left, right) or its key (w, s, a, d)
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "up", "w":
		return Up, nil
	case "down", "s":
		return Down, nil
	case "left", "a":
		return Left, nil
	case "right", "d":
		return Right, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownDirection, s)
}

// Phase is the lifecycle stage of a game engine
type Phase string

const (
	PhaseSetup   Phase = "setup"
	PhasePlaying Phase = "playing"
	PhaseOver    Phase = "over"
)

// GameState is a JSON snapshot of an engine
type GameState struct {
	Phase        Phase              `json:"phase"`
	Grid         [][]Tile           `json:"grid"`
	Player       *Player            `json:"player,omitempty"`
	DirtLeft     int                `json:"dirt_left"`
	Message      string             `json:"message"`
	Victory      bool               `json:"victory"`
	GameOver     bool               `json:"game_over"`
	ScenarioName string             `json:"scenario_name,omitempty"`
	MoveHistory  []MoveHistoryEntry `json:"move_history"`
	TotalMoves   int                `json:"total_moves"`

	// Computed helper view (not required for core game logic)
	BatteryRisk string `json:"battery_risk,omitempty"`
}

// MoveHistoryEntry represents a single play command in the game history
type MoveHistoryEntry struct {
	Action       string   `json:"action"`
	FromPosition Position `json:"from_position"`
	ToPosition   Position `json:"to_position"`
	Battery      int      `json:"battery"`
	Timestamp    int64    `json:"timestamp"`
	Success      bool     `json:"success"`
	Cleaned      bool     `json:"cleaned,omitempty"`
	MoveNumber   int      `json:"move_number"`
}
