package command

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/wricardo/mcp-training/gridcleaner/game/engine"
)

// ParseSetupScript parses a whole setup script. Parsing stops after a quit command.
// Malformed arguments are collected into the returned error while the remaining
// commands are still returned.
func ParseSetupScript(src string) ([]engine.SetupCommand, error) {
	s := NewScanner(strings.NewReader(src))
	var (
		cmds []engine.SetupCommand
		errs []error
	)
	for {
		cmd, err := s.NextSetup()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var argErr *ArgError
			if !errors.As(err, &argErr) {
				return cmds, err
			}
			errs = append(errs, err)
			continue
		}
		cmds = append(cmds, cmd)
		if _, ok := cmd.(engine.QuitSetupCmd); ok {
			break
		}
	}
	return cmds, errors.Join(errs...)
}

// ParsePlayKeys maps a key string such as "dddsb" to play commands. Unknown keys are skipped.
func ParsePlayKeys(keys string) []engine.PlayCommand {
	var cmds []engine.PlayCommand
	for _, ch := range keys {
		if cmd, ok := PlayKey(ch); ok {
			cmds = append(cmds, cmd)
		}
	}
	return cmds
}

// FormatSetup renders a setup command back into its stream form
func FormatSetup(cmd engine.SetupCommand) string {
	switch c := cmd.(type) {
	case engine.PlaceWallCmd:
		return fmt.Sprintf("%c %d %d", KeyWall, c.At.Row, c.At.Col)
	case engine.MarkDirtCmd:
		return fmt.Sprintf("%c %d %d", KeyDirt, c.At.Row, c.At.Col)
	case engine.PlaceChargerCmd:
		return fmt.Sprintf("%c %d %d", KeyCharger, c.At.Row, c.At.Col)
	case engine.PlaceLineCmd:
		return fmt.Sprintf("%c %d %d %d %d", KeyLine, c.From.Row, c.From.Col, c.To.Row, c.To.Col)
	case engine.QuitSetupCmd:
		return string(KeyQuit)
	}
	return ""
}
