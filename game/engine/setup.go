package engine

import (
	"errors"
	"fmt"
)

const (
	msgOutOfBounds  = "Location out of bounds"
	msgInvalidLine  = "Only straight lines are supported."
	msgInvalidStart = "Position (%d, %d) is invalid"
)

// Edit applies one setup command to the board
func Edit(b *Board, cmd SetupCommand) Report {
	switch c := cmd.(type) {
	case PlaceWallCmd:
		if err := b.PlaceWall(c.At); err != nil {
			return outOfBounds(err)
		}
		return Report{Event: EventWallPlaced, Render: true}

	case MarkDirtCmd:
		if err := b.MarkDirt(c.At); err != nil {
			return outOfBounds(err)
		}
		return Report{Event: EventDirtMarked, Render: true}

	case PlaceChargerCmd:
		if err := b.PlaceCharger(c.At); err != nil {
			return outOfBounds(err)
		}
		return Report{Event: EventChargerPlaced, Render: true}

	case PlaceLineCmd:
		if _, err := b.PlaceLine(c.From, c.To); err != nil {
			if errors.Is(err, ErrInvalidLineGeometry) {
				return Report{Event: EventInvalidLine, Message: msgInvalidLine, Err: err, Render: true}
			}
			return outOfBounds(err)
		}
		return Report{Event: EventLinePlaced, Render: true}

	case QuitSetupCmd:
		return Report{Event: EventSetupDone, Done: true}
	}
	return Report{Event: EventIgnored}
}

func outOfBounds(err error) Report {
	return Report{Event: EventOutOfBounds, Message: msgOutOfBounds, Err: err, Render: true}
}

// Setup is the board editor used before play. It owns the board until Finish.
type Setup struct {
	board *Board
	done  bool
}

// NewSetup starts editing b
func NewSetup(b *Board) *Setup {
	return &Setup{board: b}
}

// Apply runs one setup command. Commands after QuitSetupCmd are rejected.
func (s *Setup) Apply(cmd SetupCommand) Report {
	if s.done {
		return Report{Event: EventIgnored, Err: ErrSetupClosed}
	}
	r := Edit(s.board, cmd)
	if r.Done {
		s.done = true
	}
	return r
}

// Done reports whether setup has been closed
func (s *Setup) Done() bool {
	return s.done
}

// Board returns the board being edited
func (s *Setup) Board() *Board {
	return s.board
}

// Finish closes setup and places the robot at start
func (s *Setup) Finish(start Position) (*Game, error) {
	g, err := NewGame(s.board, start)
	if err != nil {
		return nil, err
	}
	s.done = true
	return g, nil
}

// ValidStart reports whether the robot may start at p
func ValidStart(b *Board, p Position) bool {
	t, ok := b.At(p)
	return ok && t.Base != Wall
}

// NewPlayer creates the robot at a validated start tile with a full battery
func NewPlayer(b *Board, start Position) (Player, error) {
	if !ValidStart(b, start) {
		return Player{}, fmt.Errorf(msgInvalidStart+": %w", start.Row, start.Col, ErrInvalidStart)
	}
	return Player{Position: start, Battery: MaxBattery}, nil
}

// InvalidStartMessage is the operator message for a rejected start position
func InvalidStartMessage(p Position) string {
	return fmt.Sprintf(msgInvalidStart, p.Row, p.Col)
}
