package engine

import (
	"errors"
	"testing"
)

func TestClampLine(t *testing.T) {
	tests := []struct {
		name       string
		from, to   Position
		wantFrom   Position
		wantTo     Position
		wantReject bool
	}{
		{
			name: "inside board untouched",
			from: Position{2, 2}, to: Position{2, 7},
			wantFrom: Position{2, 2}, wantTo: Position{2, 7},
		},
		{
			name: "columns clamped",
			from: Position{4, -3}, to: Position{4, 15},
			wantFrom: Position{4, 0}, wantTo: Position{4, 9},
		},
		{
			name: "rows off board but columns on board",
			from: Position{-5, 3}, to: Position{-2, 5},
			wantFrom: Position{0, 3}, wantTo: Position{0, 5},
		},
		{
			name: "both axes off below",
			from: Position{-5, -5}, to: Position{-3, -3},
			wantReject: true,
		},
		{
			name: "both axes off above",
			from: Position{10, 12}, to: Position{20, 10},
			wantReject: true,
		},
		{
			name: "endpoints on opposite sides are clamped",
			from: Position{-1, -1}, to: Position{12, 12},
			wantFrom: Position{0, 0}, wantTo: Position{9, 9},
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			from, to, err := ClampLine(test.from, test.to)
			if test.wantReject {
				if !errors.Is(err, ErrOutOfBounds) {
					t.Fatalf("expected ErrOutOfBounds, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if from != test.wantFrom || to != test.wantTo {
				t.Errorf("expected %v-%v, got %v-%v", test.wantFrom, test.wantTo, from, to)
			}
		})
	}
}

func TestPlaceLine_Horizontal(t *testing.T) {
	b := NewBoard()
	b.MarkDirt(Position{2, 4})

	n, err := b.PlaceLine(Position{2, 7}, Position{2, 2})
	if err != nil {
		t.Fatalf("PlaceLine: %v", err)
	}
	if n != 6 {
		t.Errorf("expected 6 tiles, got %d", n)
	}
	for c := 2; c <= 7; c++ {
		if tile, _ := b.At(Position{2, c}); tile.Base != Wall {
			t.Errorf("(2, %d) should be a wall", c)
		}
	}
	if b.CountBase(Wall) != 6 {
		t.Errorf("expected exactly 6 walls, got %d", b.CountBase(Wall))
	}
	assertWallPurity(t, b)
}

func TestPlaceLine_Vertical(t *testing.T) {
	b := NewBoard()
	n, err := b.PlaceLine(Position{8, 5}, Position{3, 5})
	if err != nil {
		t.Fatalf("PlaceLine: %v", err)
	}
	if n != 6 {
		t.Errorf("expected 6 tiles, got %d", n)
	}
	for r := 3; r <= 8; r++ {
		if tile, _ := b.At(Position{r, 5}); tile.Base != Wall {
			t.Errorf("(%d, 5) should be a wall", r)
		}
	}
}

func TestPlaceLine_SinglePoint(t *testing.T) {
	b := NewBoard()
	n, err := b.PlaceLine(Position{5, 5}, Position{5, 5})
	if err != nil || n != 1 {
		t.Fatalf("expected one tile, got n=%d err=%v", n, err)
	}
}

func TestPlaceLine_DiagonalRejected(t *testing.T) {
	b := NewBoard()
	n, err := b.PlaceLine(Position{1, 1}, Position{4, 4})
	if !errors.Is(err, ErrInvalidLineGeometry) {
		t.Fatalf("expected ErrInvalidLineGeometry, got %v", err)
	}
	if n != 0 || b.CountBase(Wall) != 0 {
		t.Error("diagonal line must not place walls")
	}
}

func TestPlaceLine_FullyOutsideDrawsNothing(t *testing.T) {
	b := NewBoard()
	before := b.Grid()

	_, err := b.PlaceLine(Position{-5, -5}, Position{-3, -3})
	if !errors.Is(err, ErrOutOfBounds) {
		t.Fatalf("expected ErrOutOfBounds, got %v", err)
	}
	after := b.Grid()
	for r := range before {
		for c := range before[r] {
			if before[r][c] != after[r][c] {
				t.Fatalf("tile (%d, %d) changed after rejected line", r, c)
			}
		}
	}
}

func TestPlaceLine_ClampedOntoEdge(t *testing.T) {
	b := NewBoard()
	if _, err := b.PlaceLine(Position{-4, 0}, Position{-4, 9}); err != nil {
		t.Fatalf("PlaceLine: %v", err)
	}
	for c := 0; c < Cols; c++ {
		if tile, _ := b.At(Position{0, c}); tile.Base != Wall {
			t.Errorf("(0, %d) should be a wall after clamping", c)
		}
	}
}
