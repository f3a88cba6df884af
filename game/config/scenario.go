package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/wricardo/mcp-training/gridcleaner/game/command"
	"github.com/wricardo/mcp-training/gridcleaner/game/engine"
)

// Layout characters
const (
	LayoutEmpty        = '.'
	LayoutWall         = '#'
	LayoutDirt         = '*'
	LayoutCharger      = '+'
	LayoutDirtyCharger = '&'
)

// Scenario is a prepared board: an optional layout, setup commands applied on top
// of it, and an optional start position.
type Scenario struct {
	Name        string           `json:"name" yaml:"name"`
	Description string           `json:"description,omitempty" yaml:"description,omitempty"`
	Layout      []string         `json:"layout,omitempty" yaml:"layout,omitempty"`
	Setup       []string         `json:"setup,omitempty" yaml:"setup,omitempty"`
	Start       *engine.Position `json:"start,omitempty" yaml:"start,omitempty"`
}

// ScenarioInfo describes an available scenario
type ScenarioInfo struct {
	Filename    string `json:"filename"`
	ScenarioID  string `json:"scenario_id"` // identifier to use for session creation
	Name        string `json:"name"`
	Description string `json:"description"`
	Walls       int    `json:"walls"`
	Dirt        int    `json:"dirt"`
	Chargers    int    `json:"chargers"`
	HasStart    bool   `json:"has_start"`
}

// Build returns a fresh board for the scenario
func (s *Scenario) Build() (*engine.Board, error) {
	b := engine.NewBoard()
	if err := applyLayout(b, s.Layout); err != nil {
		return nil, err
	}

	cmds, err := command.ParseSetupScript(strings.Join(s.Setup, "\n"))
	if err != nil {
		return nil, fmt.Errorf("%w: setup: %v", ErrInvalidScenario, err)
	}
	for i, cmd := range cmds {
		if _, ok := cmd.(engine.QuitSetupCmd); ok {
			break
		}
		if r := engine.Edit(b, cmd); r.Failed() {
			return nil, fmt.Errorf("%w: setup command %d (%s): %v", ErrInvalidScenario, i+1, command.FormatSetup(cmd), r.Err)
		}
	}
	return b, nil
}

// Info summarizes the scenario for listings
func (s *Scenario) Info(id, filename string) *ScenarioInfo {
	info := &ScenarioInfo{
		Filename:    filename,
		ScenarioID:  id,
		Name:        s.Name,
		Description: s.Description,
		HasStart:    s.Start != nil,
	}
	if b, err := s.Build(); err == nil {
		info.Walls = b.CountBase(engine.Wall)
		info.Chargers = b.CountBase(engine.Charger)
		info.Dirt = b.DirtCount()
	}
	return info
}

// ValidateScenario checks the rules the schema cannot express
func ValidateScenario(s *Scenario) error {
	if s == nil {
		return fmt.Errorf("%w: scenario is nil", ErrInvalidScenario)
	}
	if strings.TrimSpace(s.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidScenario)
	}
	if len(s.Layout) != 0 && len(s.Layout) != engine.Rows {
		return fmt.Errorf("%w: layout must have %d rows, got %d", ErrInvalidScenario, engine.Rows, len(s.Layout))
	}

	b, err := s.Build()
	if err != nil {
		return err
	}
	if s.Start != nil && !engine.ValidStart(b, *s.Start) {
		return fmt.Errorf("%w: start %s is off the board or on a wall", ErrInvalidScenario, s.Start)
	}
	return nil
}

func applyLayout(b *engine.Board, layout []string) error {
	if len(layout) == 0 {
		return nil
	}
	if len(layout) != engine.Rows {
		return fmt.Errorf("%w: layout must have %d rows, got %d", ErrInvalidScenario, engine.Rows, len(layout))
	}

	for r, line := range layout {
		row := []rune(line)
		if len(row) != engine.Cols {
			return fmt.Errorf("%w: layout row %d must have %d cells, got %d", ErrInvalidScenario, r, engine.Cols, len(row))
		}
		for c, ch := range row {
			p := engine.Position{Row: r, Col: c}
			var err error
			switch ch {
			case LayoutEmpty:
			case LayoutWall:
				err = b.PlaceWall(p)
			case LayoutDirt:
				err = b.MarkDirt(p)
			case LayoutCharger:
				err = b.PlaceCharger(p)
			case LayoutDirtyCharger:
				err = errors.Join(b.PlaceCharger(p), b.MarkDirt(p))
			default:
				return fmt.Errorf("%w: unknown layout character %q at %s", ErrInvalidScenario, ch, p)
			}
			if err != nil {
				return err
			}
		}
	}
	return nil
}

// LayoutOf renders a board back into layout strings
func LayoutOf(b *engine.Board) []string {
	layout := make([]string, 0, engine.Rows)
	for _, row := range b.Grid() {
		var sb strings.Builder
		for _, t := range row {
			sb.WriteRune(LayoutChar(t))
		}
		layout = append(layout, sb.String())
	}
	return layout
}

// LayoutChar is the layout character for one tile
func LayoutChar(t engine.Tile) rune {
	switch {
	case t.Base == engine.Wall:
		return LayoutWall
	case t.Base == engine.Charger && t.Dirty:
		return LayoutDirtyCharger
	case t.Base == engine.Charger:
		return LayoutCharger
	case t.Dirty:
		return LayoutDirt
	}
	return LayoutEmpty
}
