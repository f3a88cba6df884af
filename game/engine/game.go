package engine

import "fmt"

const (
	msgBattery      = "Battery: %d%%"
	msgMoves        = "Moves: %d"
	msgRecharged    = "Recharged to 100%."
	msgNotOnCharger = "Not on a charger."
	msgBatteryEmpty = "Battery empty - move to a charger and press 'r'."
)

// VictoryMessage is the win banner. Only a count of exactly one is singular.
func VictoryMessage(moves int) string {
	if moves == 1 {
		return "=== All clean in 1 move! ==="
	}
	return fmt.Sprintf("=== All clean in %d moves! ===", moves)
}

// Play dispatches one play command against the board and returns the updated player.
// The battery gate lives here, not in Step.
func Play(b *Board, p Player, cmd PlayCommand) (Player, Report) {
	switch c := cmd.(type) {
	case QueryBatteryCmd:
		return p, Report{Event: EventBattery, Message: fmt.Sprintf(msgBattery, p.Battery)}

	case QueryMovesCmd:
		return p, Report{Event: EventMoves, Message: fmt.Sprintf(msgMoves, p.Moves)}

	case RechargeCmd:
		if t, ok := b.At(p.Position); ok && t.Base == Charger {
			p.Battery = MaxBattery
			return p, Report{Event: EventRecharged, Message: msgRecharged, Render: true}
		}
		return p, Report{Event: EventNotOnCharger, Message: msgNotOnCharger, Err: ErrNotOnCharger, Render: true}

	case MoveCmd:
		if c.Dir < Up || c.Dir > Right {
			return p, Report{Event: EventIgnored, Err: fmt.Errorf("%w: %d", ErrUnknownDirection, int(c.Dir))}
		}
		if p.Battery <= 0 {
			return p, Report{Event: EventBatteryEmpty, Message: msgBatteryEmpty, Err: ErrBatteryEmpty, Render: true}
		}

		next, res := Step(b, p, c.Dir)
		r := Report{Event: EventMoved, Render: true, Step: &res}
		if res.Blocked {
			r.Event = EventBlocked
		}
		if !b.AnyDirtLeft() {
			r.Event = EventVictory
			r.Message = VictoryMessage(next.Moves)
			r.Done = true
		}
		return next, r
	}
	return p, Report{Event: EventIgnored}
}

// Game is the play-phase controller. It owns the player and mutates the board by cleaning.
type Game struct {
	board   *Board
	player  Player
	over    bool
	opening Report
}

// NewGame places the robot at start. The robot cleans the tile it starts on, so a board
// with no dirt left is won before the first command.
func NewGame(b *Board, start Position) (*Game, error) {
	p, err := NewPlayer(b, start)
	if err != nil {
		return nil, err
	}
	b.Clean(start)

	g := &Game{
		board:   b,
		player:  p,
		opening: Report{Event: EventStarted, Render: true},
	}
	if !b.AnyDirtLeft() {
		g.over = true
		g.opening = Report{Event: EventVictory, Message: VictoryMessage(0), Render: true, Done: true}
	}
	return g, nil
}

// Opening returns the report produced by placing the robot
func (g *Game) Opening() Report {
	return g.opening
}

// Apply runs one play command. Once the game is won every command is rejected.
func (g *Game) Apply(cmd PlayCommand) Report {
	if g.over {
		return Report{Event: EventIgnored, Err: ErrGameOver}
	}
	p, r := Play(g.board, g.player, cmd)
	g.player = p
	if r.Done {
		g.over = true
	}
	return r
}

// Over reports whether the game reached its terminal state
func (g *Game) Over() bool {
	return g.over
}

// Player returns a copy of the robot state
func (g *Game) Player() Player {
	return g.player
}

// Board returns the board in play
func (g *Game) Board() *Board {
	return g.board
}
