// Package render draws the Grid Cleaner board as bordered ASCII text.
package render

import (
	"bufio"
	"io"
	"strings"

	"github.com/wricardo/mcp-training/gridcleaner/game/engine"
)

// Title is centered in the header row
const Title = " G R I D   C L E A N E R "

// Width is the number of characters in every rendered line
const Width = engine.Cols*4 + 1

// Cell glyphs, highest precedence first
const (
	GlyphPlayer  = " @ "
	GlyphWall    = "###"
	GlyphDirt    = " * "
	GlyphCharger = " + "
	GlyphBlank   = "   "
)

// Glyph returns the three-character cell for a tile
func Glyph(t engine.Tile, player bool) string {
	switch {
	case player:
		return GlyphPlayer
	case t.Base == engine.Wall:
		return GlyphWall
	case t.Dirty:
		return GlyphDirt
	case t.Base == engine.Charger:
		return GlyphCharger
	}
	return GlyphBlank
}

// Board writes the board. player may be nil during setup.
func Board(w io.Writer, b *engine.Board, player *engine.Position) error {
	bw := bufio.NewWriter(w)
	border := strings.Repeat("-", Width) + "\n"

	bw.WriteString(border)
	pad := Width - len(Title) - 2
	bw.WriteString("|")
	bw.WriteString(strings.Repeat(" ", pad/2))
	bw.WriteString(Title)
	bw.WriteString(strings.Repeat(" ", (pad+1)/2))
	bw.WriteString("|\n")

	for r := 0; r < engine.Rows; r++ {
		bw.WriteString(border)
		for c := 0; c < engine.Cols; c++ {
			p := engine.Position{Row: r, Col: c}
			t, _ := b.At(p)
			bw.WriteString("|")
			bw.WriteString(Glyph(t, player != nil && *player == p))
		}
		bw.WriteString("|\n")
	}
	bw.WriteString(border)
	bw.WriteString("\n")
	return bw.Flush()
}

// String returns the rendered board
func String(b *engine.Board, player *engine.Position) string {
	var sb strings.Builder
	Board(&sb, b, player)
	return sb.String()
}

// Grid renders a JSON grid snapshot, as found in engine.GameState
func Grid(grid [][]engine.Tile, player *engine.Position) string {
	return String(engine.BoardFromGrid(grid), player)
}
