// Package autopilot plans moves for the robot from a game state snapshot.
//
// The strategy is greedy: head for the nearest dirty tile, but only when the
// battery covers the trip there plus the way back to a charger. Otherwise it
// returns to the nearest charger and recharges first.
package autopilot

import (
	"sort"

	"github.com/wricardo/mcp-training/gridcleaner/game/engine"
)

// Action is what the robot should do next
type Action int

const (
	// ActionNone means the game is over or no reachable target remains
	ActionNone Action = iota
	ActionMove
	ActionRecharge
)

func (a Action) String() string {
	switch a {
	case ActionMove:
		return "move"
	case ActionRecharge:
		return "recharge"
	}
	return "none"
}

// Plan is one planning step
type Plan struct {
	Action Action
	Moves  []engine.Direction
	Target engine.Position
	Reason string
}

// Keys returns the moves as a play-stream key string such as "ddsw"
func (p Plan) Keys() string {
	keys := make([]rune, len(p.Moves))
	for i, d := range p.Moves {
		keys[i] = d.Key()
	}
	return string(keys)
}

// ChooseStart picks a start position for a board still in setup: a charger if
// there is one, then a dirty tile, then the first open tile. ok is false when
// every tile is a wall.
func ChooseStart(grid [][]engine.Tile) (engine.Position, bool) {
	board := engine.BoardFromGrid(grid)

	var dirt, open *engine.Position
	for r := 0; r < engine.Rows; r++ {
		for c := 0; c < engine.Cols; c++ {
			p := engine.Position{Row: r, Col: c}
			tile, _ := board.At(p)
			switch {
			case tile.Base == engine.Wall:
				continue
			case tile.Base == engine.Charger:
				return p, true
			case tile.Dirty && dirt == nil:
				dirt = &p
			case open == nil:
				open = &p
			}
		}
	}
	if dirt != nil {
		return *dirt, true
	}
	if open != nil {
		return *open, true
	}
	return engine.Position{}, false
}

// Next plans the next action for a game in play
func Next(state *engine.GameState) Plan {
	if state == nil || state.Player == nil || state.GameOver || state.DirtLeft == 0 {
		return Plan{Action: ActionNone, Reason: "game is not in play"}
	}

	board := engine.BoardFromGrid(state.Grid)
	player := *state.Player
	fromHere := engine.Distances(board, player.Position)

	targets := dirtByDistance(board, fromHere)
	if len(targets) == 0 {
		return Plan{Action: ActionNone, Reason: "no reachable dirt"}
	}

	target := targets[0]
	trip := fromHere[target]
	onCharger := isCharger(board, player.Position)
	if player.Battery <= 0 && !onCharger {
		return Plan{Action: ActionNone, Reason: "battery empty away from a charger"}
	}

	// the last dirty tile ends the game, so there is no need to get back
	needed := trip
	_, back, hasCharger := nearestCharger(board, target)
	if len(targets) > 1 && hasCharger {
		needed += back
	}

	if player.Battery >= needed || !hasCharger {
		return Plan{Action: ActionMove, Moves: Path(board, player.Position, target), Target: target, Reason: "nearest dirt"}
	}

	if onCharger {
		if player.Battery < engine.MaxBattery {
			return Plan{Action: ActionRecharge, Target: player.Position, Reason: "battery too low for the next trip"}
		}
		// a full charge still cannot make the round trip; go anyway
		return Plan{Action: ActionMove, Moves: Path(board, player.Position, target), Target: target, Reason: "nearest dirt, no round trip"}
	}

	charger, _, ok := nearestCharger(board, player.Position)
	if !ok {
		return Plan{Action: ActionMove, Moves: Path(board, player.Position, target), Target: target, Reason: "nearest dirt, no charger in reach"}
	}
	return Plan{Action: ActionMove, Moves: Path(board, player.Position, charger), Target: charger, Reason: "heading to charger"}
}

// Path returns the shortest sequence of moves from one tile to another, following
// wrap-around and avoiding walls. It is nil when to is unreachable or equal to from.
func Path(board *engine.Board, from, to engine.Position) []engine.Direction {
	toTarget := engine.Distances(board, to)
	left, ok := toTarget[from]
	if !ok {
		return nil
	}

	moves := make([]engine.Direction, 0, left)
	current := from
	for left > 0 {
		for _, d := range engine.Directions {
			next := engine.Next(current, d)
			if dist, ok := toTarget[next]; ok && dist == left-1 {
				moves = append(moves, d)
				current = next
				left = dist
				break
			}
		}
	}
	return moves
}

// dirtByDistance lists reachable dirty tiles, nearest first, ties in row-major order
func dirtByDistance(board *engine.Board, dist map[engine.Position]int) []engine.Position {
	var dirt []engine.Position
	for p := range dist {
		if tile, _ := board.At(p); tile.Dirty {
			dirt = append(dirt, p)
		}
	}
	sort.Slice(dirt, func(i, j int) bool {
		di, dj := dist[dirt[i]], dist[dirt[j]]
		if di != dj {
			return di < dj
		}
		if dirt[i].Row != dirt[j].Row {
			return dirt[i].Row < dirt[j].Row
		}
		return dirt[i].Col < dirt[j].Col
	})
	return dirt
}

// nearestCharger finds the charger with the shortest walking distance from p
func nearestCharger(board *engine.Board, p engine.Position) (engine.Position, int, bool) {
	dist := engine.Distances(board, p)
	best, bestDist := engine.Position{}, -1
	for q, d := range dist {
		if !isCharger(board, q) {
			continue
		}
		if bestDist == -1 || d < bestDist || (d == bestDist && (q.Row < best.Row || (q.Row == best.Row && q.Col < best.Col))) {
			best, bestDist = q, d
		}
	}
	return best, bestDist, bestDist >= 0
}

func isCharger(board *engine.Board, p engine.Position) bool {
	tile, _ := board.At(p)
	return tile.Base == engine.Charger
}
