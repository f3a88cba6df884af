package engine

// StepResult describes what a single Step did
type StepResult struct {
	Target  Position `json:"target"`
	Moved   bool     `json:"moved"`
	Blocked bool     `json:"blocked,omitempty"`
	Cleaned bool     `json:"cleaned,omitempty"`
}

// Wrap applies toroidal wrap-around to a position at most one step off the board
func Wrap(p Position) Position {
	if p.Row < 0 {
		p.Row = Rows - 1
	}
	if p.Row >= Rows {
		p.Row = 0
	}
	if p.Col < 0 {
		p.Col = Cols - 1
	}
	if p.Col >= Cols {
		p.Col = 0
	}
	return p
}

// Next returns the wrapped neighbour of p in direction d
func Next(p Position, d Direction) Position {
	dr, dc := d.delta()
	return Wrap(Position{Row: p.Row + dr, Col: p.Col + dc})
}

// CanMoveTo checks if the robot can enter the specified tile
func (b *Board) CanMoveTo(p Position) bool {
	t, ok := b.At(p)
	if !ok {
		return false
	}
	return t.Base != Wall
}

// Step moves the player one tile in direction d. A wall target leaves the player unchanged.
// An accepted move costs one unit of battery and cleans a dirty destination.
// Battery gating is the caller's job.
func Step(b *Board, p Player, d Direction) (Player, StepResult) {
	if d < Up || d > Right {
		return p, StepResult{Target: p.Position}
	}

	target := Next(p.Position, d)
	if !b.CanMoveTo(target) {
		return p, StepResult{Target: target, Blocked: true}
	}

	p.Position = target
	p.Moves++
	p.Battery--

	return p, StepResult{
		Target:  target,
		Moved:   true,
		Cleaned: b.Clean(target),
	}
}
