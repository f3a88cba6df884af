package engine

import "fmt"

// ClampLine pulls both endpoints onto the board. A line lying entirely off the board on
// both axes is rejected with ErrOutOfBounds.
func ClampLine(from, to Position) (Position, Position, error) {
	allOutRows := (from.Row < 0 && to.Row < 0) || (from.Row >= Rows && to.Row >= Rows)
	allOutCols := (from.Col < 0 && to.Col < 0) || (from.Col >= Cols && to.Col >= Cols)
	if allOutRows && allOutCols {
		return from, to, fmt.Errorf("line %s-%s: %w", from, to, ErrOutOfBounds)
	}
	return clampPosition(from), clampPosition(to), nil
}

// PlaceLine draws an axis-aligned wall segment between two endpoints, inclusive.
// Endpoints are clamped first; a rejected clamp draws nothing. It returns the number of
// tiles turned into walls.
func (b *Board) PlaceLine(from, to Position) (int, error) {
	from, to, err := ClampLine(from, to)
	if err != nil {
		return 0, err
	}

	switch {
	case from.Row == to.Row:
		lo, hi := order(from.Col, to.Col)
		for c := lo; c <= hi; c++ {
			b.setWall(from.Row, c)
		}
		return hi - lo + 1, nil
	case from.Col == to.Col:
		lo, hi := order(from.Row, to.Row)
		for r := lo; r <= hi; r++ {
			b.setWall(r, from.Col)
		}
		return hi - lo + 1, nil
	}
	return 0, fmt.Errorf("line %s-%s: %w", from, to, ErrInvalidLineGeometry)
}

func clampPosition(p Position) Position {
	return Position{Row: clamp(p.Row, Rows-1), Col: clamp(p.Col, Cols-1)}
}

func clamp(v, limit int) int {
	if v < 0 {
		return 0
	}
	if v > limit {
		return limit
	}
	return v
}

func order(a, b int) (int, int) {
	if a > b {
		return b, a
	}
	return a, b
}
