package command

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode"

	"github.com/wricardo/mcp-training/gridcleaner/game/engine"
)

// Setup and play command letters
const (
	KeyWall    = 'w'
	KeyDirt    = 'd'
	KeyCharger = 'h'
	KeyLine    = 'L'
	KeyQuit    = 'q'

	KeyUp       = 'w'
	KeyLeft     = 'a'
	KeyDown     = 's'
	KeyRight    = 'd'
	KeyBattery  = 'b'
	KeyMoves    = 'c'
	KeyRecharge = 'r'
)

// ErrMissingNumber is returned when a numeric argument is not a signed decimal
var ErrMissingNumber = errors.New("expected a number")

// ArgError reports a malformed numeric argument. The offending token has been discarded.
type ArgError struct {
	Command rune
	Token   string
	Err     error
}

func (e *ArgError) Error() string {
	msg := e.Err.Error()
	if e.Token != "" {
		msg = fmt.Sprintf("bad argument %q: %v", e.Token, e.Err)
	}
	if e.Command != 0 {
		return fmt.Sprintf("command %c: %s", e.Command, msg)
	}
	return msg
}

func (e *ArgError) Unwrap() error {
	return e.Err
}

// Scanner reads commands one rune at a time. Command letters may be packed
// together ("ddds") and numbers are signed decimal tokens separated by whitespace.
type Scanner struct {
	r *bufio.Reader
}

// NewScanner wraps r
func NewScanner(r io.Reader) *Scanner {
	if br, ok := r.(*bufio.Reader); ok {
		return &Scanner{r: br}
	}
	return &Scanner{r: bufio.NewReader(r)}
}

// NextSetup returns the next setup command, skipping unknown letters.
// It returns io.EOF once the input is exhausted. A malformed argument yields an
// *ArgError and the command is dropped; the scanner stays usable.
func (s *Scanner) NextSetup() (engine.SetupCommand, error) {
	for {
		ch, err := s.letter()
		if err != nil {
			return nil, err
		}

		switch ch {
		case KeyQuit:
			return engine.QuitSetupCmd{}, nil

		case KeyWall, KeyDirt, KeyCharger:
			p, err := s.position(ch)
			if err != nil {
				return nil, err
			}
			switch ch {
			case KeyWall:
				return engine.PlaceWallCmd{At: p}, nil
			case KeyDirt:
				return engine.MarkDirtCmd{At: p}, nil
			}
			return engine.PlaceChargerCmd{At: p}, nil

		case KeyLine:
			from, err := s.position(ch)
			if err != nil {
				return nil, err
			}
			to, err := s.position(ch)
			if err != nil {
				return nil, err
			}
			return engine.PlaceLineCmd{From: from, To: to}, nil
		}
	}
}

// NextPlay returns the next play command, skipping unknown letters.
// It returns io.EOF once the input is exhausted.
func (s *Scanner) NextPlay() (engine.PlayCommand, error) {
	for {
		ch, err := s.letter()
		if err != nil {
			return nil, err
		}
		if cmd, ok := PlayKey(ch); ok {
			return cmd, nil
		}
	}
}

// ReadPosition reads a "row col" pair, used by the start prompt
func (s *Scanner) ReadPosition() (engine.Position, error) {
	row, err := s.number()
	if err != nil {
		return engine.Position{}, err
	}
	col, err := s.number()
	if err != nil {
		return engine.Position{}, err
	}
	return engine.Position{Row: row, Col: col}, nil
}

// PlayKey maps a single key to its play command
func PlayKey(ch rune) (engine.PlayCommand, bool) {
	switch ch {
	case KeyUp:
		return engine.MoveCmd{Dir: engine.Up}, true
	case KeyLeft:
		return engine.MoveCmd{Dir: engine.Left}, true
	case KeyDown:
		return engine.MoveCmd{Dir: engine.Down}, true
	case KeyRight:
		return engine.MoveCmd{Dir: engine.Right}, true
	case KeyBattery:
		return engine.QueryBatteryCmd{}, true
	case KeyMoves:
		return engine.QueryMovesCmd{}, true
	case KeyRecharge:
		return engine.RechargeCmd{}, true
	}
	return nil, false
}

func (s *Scanner) position(cmd rune) (engine.Position, error) {
	p, err := s.ReadPosition()
	if err != nil {
		var argErr *ArgError
		if errors.As(err, &argErr) {
			argErr.Command = cmd
		}
		return engine.Position{}, err
	}
	return p, nil
}

// letter returns the next non-space rune
func (s *Scanner) letter() (rune, error) {
	if err := s.skipSpace(); err != nil {
		return 0, err
	}
	ch, _, err := s.r.ReadRune()
	return ch, err
}

// number reads an optionally signed decimal integer. Digits end at the first
// non-digit rune, which is left in the input.
func (s *Scanner) number() (int, error) {
	if err := s.skipSpace(); err != nil {
		if errors.Is(err, io.EOF) {
			return 0, &ArgError{Err: io.ErrUnexpectedEOF}
		}
		return 0, err
	}

	var sb strings.Builder
	for {
		ch, _, err := s.r.ReadRune()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return 0, err
		}
		if unicode.IsDigit(ch) || (sb.Len() == 0 && (ch == '-' || ch == '+')) {
			sb.WriteRune(ch)
			continue
		}
		if sb.Len() == 0 || !endsInDigit(sb.String()) {
			s.r.UnreadRune()
			return 0, s.discard(sb.String())
		}
		s.r.UnreadRune()
		break
	}

	tok := sb.String()
	n, err := strconv.Atoi(tok)
	if err != nil {
		return 0, &ArgError{Token: tok, Err: ErrMissingNumber}
	}
	return n, nil
}

// discard drops the rest of a malformed token up to the next space
func (s *Scanner) discard(prefix string) error {
	var sb strings.Builder
	sb.WriteString(prefix)
	for {
		ch, _, err := s.r.ReadRune()
		if err != nil {
			break
		}
		if unicode.IsSpace(ch) {
			s.r.UnreadRune()
			break
		}
		sb.WriteRune(ch)
	}
	return &ArgError{Token: sb.String(), Err: ErrMissingNumber}
}

func (s *Scanner) skipSpace() error {
	for {
		ch, _, err := s.r.ReadRune()
		if err != nil {
			return err
		}
		if !unicode.IsSpace(ch) {
			return s.r.UnreadRune()
		}
	}
}

func endsInDigit(tok string) bool {
	return tok != "" && tok[len(tok)-1] >= '0' && tok[len(tok)-1] <= '9'
}
