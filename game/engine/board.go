package engine

import "fmt"

// Board is the fixed-size grid. It is the only owner of tile memory.
type Board struct {
	tiles [Rows][Cols]Tile
}

// NewBoard returns a board with every tile empty and clean
func NewBoard() *Board {
	return &Board{}
}

// InBounds reports whether row,col indexes a tile
func InBounds(row, col int) bool {
	return row >= 0 && row < Rows && col >= 0 && col < Cols
}

// At returns the tile at p. ok is false when p is off the board.
func (b *Board) At(p Position) (Tile, bool) {
	if !p.InBounds() {
		return Tile{}, false
	}
	return b.tiles[p.Row][p.Col], true
}

// PlaceWall turns the tile into a clean wall, overwriting chargers
func (b *Board) PlaceWall(p Position) error {
	if !p.InBounds() {
		return fmt.Errorf("wall at %s: %w", p, ErrOutOfBounds)
	}
	b.setWall(p.Row, p.Col)
	return nil
}

// MarkDirt flags the tile as dirty. Walls are left untouched.
func (b *Board) MarkDirt(p Position) error {
	if !p.InBounds() {
		return fmt.Errorf("dirt at %s: %w", p, ErrOutOfBounds)
	}
	t := &b.tiles[p.Row][p.Col]
	if t.Base != Wall {
		t.Dirty = true
	}
	return nil
}

// PlaceCharger sets the base to Charger, keeping the dirt flag. Walls are left untouched.
func (b *Board) PlaceCharger(p Position) error {
	if !p.InBounds() {
		return fmt.Errorf("charger at %s: %w", p, ErrOutOfBounds)
	}
	t := &b.tiles[p.Row][p.Col]
	if t.Base != Wall {
		t.Base = Charger
	}
	return nil
}

// Clean clears the dirt flag and reports whether the tile was dirty
func (b *Board) Clean(p Position) bool {
	if !p.InBounds() {
		return false
	}
	t := &b.tiles[p.Row][p.Col]
	if !t.Dirty {
		return false
	}
	t.Dirty = false
	return true
}

// AnyDirtLeft scans the whole board for a dirty tile
func (b *Board) AnyDirtLeft() bool {
	for r := 0; r < Rows; r++ {
		for c := 0; c < Cols; c++ {
			if b.tiles[r][c].Dirty {
				return true
			}
		}
	}
	return false
}

// DirtCount counts dirty tiles
func (b *Board) DirtCount() int {
	count := 0
	for r := 0; r < Rows; r++ {
		for c := 0; c < Cols; c++ {
			if b.tiles[r][c].Dirty {
				count++
			}
		}
	}
	return count
}

// CountBase counts tiles with the given base
func (b *Board) CountBase(base Base) int {
	count := 0
	for r := 0; r < Rows; r++ {
		for c := 0; c < Cols; c++ {
			if b.tiles[r][c].Base == base {
				count++
			}
		}
	}
	return count
}

// Clone returns an independent copy of the board
func (b *Board) Clone() *Board {
	cp := *b
	return &cp
}

// Grid returns a row-major copy of the tiles for serialization
func (b *Board) Grid() [][]Tile {
	grid := make([][]Tile, Rows)
	for r := range grid {
		grid[r] = make([]Tile, Cols)
		copy(grid[r], b.tiles[r][:])
	}
	return grid
}

// BoardFromGrid rebuilds a board from a Grid snapshot. Cells outside the board are
// ignored and walls are stored clean.
func BoardFromGrid(grid [][]Tile) *Board {
	b := NewBoard()
	for r, row := range grid {
		for c, t := range row {
			if !InBounds(r, c) {
				continue
			}
			if t.Base == Wall {
				b.setWall(r, c)
				continue
			}
			b.tiles[r][c] = t
		}
	}
	return b
}

// setWall is the single write path for walls
func (b *Board) setWall(row, col int) {
	b.tiles[row][col] = Tile{Base: Wall}
}
