package terminal

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/gdamore/tcell/v2"
	log "github.com/sirupsen/logrus"

	"github.com/wricardo/mcp-training/gridcleaner/game/engine"
	"github.com/wricardo/mcp-training/gridcleaner/game/render"
	"github.com/wricardo/mcp-training/gridcleaner/game/service"
)

const (
	helpSetup = "arrows: cursor  x: wall  *: dirt  +: charger  enter: start here  q/esc: quit"
	helpPlay  = "wasd: move  b: battery  c: moves  r: recharge  q/esc: quit"
)

// Screen rows below the rendered board
const (
	boardTop  = 0
	boardRows = 3 + 2*engine.Rows
	statusRow = boardRows + 1
	msgRow    = statusRow + 1
	helpRow   = msgRow + 1
)

var (
	styleDefault = tcell.StyleDefault
	styleRobot   = tcell.StyleDefault.Foreground(tcell.ColorGreen).Bold(true)
	styleWall    = tcell.StyleDefault.Foreground(tcell.ColorGray)
	styleDirt    = tcell.StyleDefault.Foreground(tcell.ColorYellow)
	styleCharger = tcell.StyleDefault.Foreground(tcell.ColorAqua)
	styleError   = tcell.StyleDefault.Foreground(tcell.ColorRed)
	styleWin     = tcell.StyleDefault.Foreground(tcell.ColorGreen)
)

// UI drives one session of a GameService from a tcell screen
type UI struct {
	screen    tcell.Screen
	svc       service.GameService
	sessionID string

	state   *engine.GameState
	cursor  engine.Position
	message string
	failed  bool
}

// New creates a UI. The screen must already be initialized; the caller owns Fini.
func New(screen tcell.Screen, svc service.GameService, sessionID string) *UI {
	return &UI{
		screen:    screen,
		svc:       svc,
		sessionID: sessionID,
		cursor:    engine.Position{Row: engine.Rows / 2, Col: engine.Cols / 2},
	}
}

// Run processes key events until the user quits or ctx is cancelled
func (u *UI) Run(ctx context.Context) error {
	if err := u.refresh(ctx); err != nil {
		return err
	}
	u.draw()

	events := make(chan tcell.Event, 16)
	done := make(chan struct{})
	defer close(done)
	go func() {
		for {
			ev := u.screen.PollEvent()
			if ev == nil {
				return
			}
			select {
			case events <- ev:
			case <-done:
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev := <-events:
			switch ev := ev.(type) {
			case *tcell.EventKey:
				if !u.handleKey(ctx, ev) {
					return nil
				}
			case *tcell.EventResize:
				u.screen.Sync()
			}
			u.draw()
		}
	}
}

// handleKey applies one key press. It returns false when the user quits.
func (u *UI) handleKey(ctx context.Context, ev *tcell.EventKey) bool {
	switch ev.Key() {
	case tcell.KeyEscape, tcell.KeyCtrlC:
		return false
	case tcell.KeyRune:
		if ev.Rune() == 'q' {
			return false
		}
	}

	if u.state != nil && u.state.Phase == engine.PhaseSetup {
		u.handleSetupKey(ctx, ev)
	} else {
		u.handlePlayKey(ctx, ev)
	}
	return true
}

func (u *UI) handleSetupKey(ctx context.Context, ev *tcell.EventKey) {
	switch ev.Key() {
	case tcell.KeyUp:
		u.cursor = engine.Next(u.cursor, engine.Up)
	case tcell.KeyDown:
		u.cursor = engine.Next(u.cursor, engine.Down)
	case tcell.KeyLeft:
		u.cursor = engine.Next(u.cursor, engine.Left)
	case tcell.KeyRight:
		u.cursor = engine.Next(u.cursor, engine.Right)
	case tcell.KeyEnter:
		u.start(ctx)
	case tcell.KeyRune:
		var letter rune
		switch ev.Rune() {
		case 'x', '#':
			letter = 'w'
		case '*':
			letter = 'd'
		case '+':
			letter = 'h'
		default:
			return
		}
		u.setup(ctx, fmt.Sprintf("%c %d %d", letter, u.cursor.Row, u.cursor.Col))
	}
}

func (u *UI) handlePlayKey(ctx context.Context, ev *tcell.EventKey) {
	if ev.Key() != tcell.KeyRune {
		return
	}
	switch ev.Rune() {
	case 'w', 'a', 's', 'd', 'b', 'c', 'r':
	default:
		return
	}

	result, err := u.svc.Play(ctx, u.sessionID, string(ev.Rune()))
	if err != nil {
		u.fail(err)
		return
	}
	u.state = result.GameState
	u.failed = false
	u.message = strings.Join(result.Messages, "  ")
	for _, r := range result.Results {
		if r.Error != "" {
			u.failed = true
		}
	}
}

func (u *UI) setup(ctx context.Context, script string) {
	result, err := u.svc.Setup(ctx, u.sessionID, script)
	if err != nil {
		u.fail(err)
		return
	}
	u.state = result.GameState
	u.failed = result.Rejected > 0
	u.message = ""
	if len(result.Reports) > 0 {
		u.message = result.Reports[len(result.Reports)-1].Message
	}
}

func (u *UI) start(ctx context.Context) {
	result, err := u.svc.Start(ctx, u.sessionID, u.cursor)
	if err != nil {
		u.fail(err)
		return
	}
	u.state = result.GameState
	u.failed = false
	u.message = result.Message
}

func (u *UI) fail(err error) {
	u.failed = true
	switch {
	case errors.Is(err, engine.ErrGameOver):
		u.message = "Game over. Press q to quit."
	case errors.Is(err, engine.ErrInvalidStart):
		u.message = engine.InvalidStartMessage(u.cursor)
	default:
		u.message = err.Error()
	}
	log.WithError(err).WithField("session", u.sessionID).Debug("Terminal command rejected")
}

func (u *UI) refresh(ctx context.Context) error {
	state, err := u.svc.GetGameState(ctx, u.sessionID)
	if err != nil {
		return fmt.Errorf("load session %s: %w", u.sessionID, err)
	}
	u.state = state
	u.message = state.Message
	return nil
}

func (u *UI) draw() {
	u.screen.Clear()
	if u.state == nil {
		u.screen.Show()
		return
	}

	var at *engine.Position
	if u.state.Player != nil {
		at = &u.state.Player.Position
	}
	lines := strings.Split(render.Grid(u.state.Grid, at), "\n")
	for y, line := range lines {
		if y >= boardRows {
			break
		}
		u.drawLine(0, boardTop+y, line, cellStyle)
	}

	if u.state.Phase == engine.PhaseSetup {
		x, y := cellOrigin(u.cursor)
		for i := 0; i < 3; i++ {
			mainc, combc, style, _ := u.screen.GetContent(x+i, y)
			u.screen.SetContent(x+i, y, mainc, combc, style.Reverse(true))
		}
		u.drawText(0, helpRow, helpSetup, styleDefault)
	} else {
		u.drawText(0, helpRow, helpPlay, styleDefault)
	}

	u.drawText(0, statusRow, u.status(), styleDefault)

	msgStyle := styleDefault
	switch {
	case u.state.Victory:
		msgStyle = styleWin
	case u.failed:
		msgStyle = styleError
	}
	u.drawText(0, msgRow, u.message, msgStyle)

	u.screen.Show()
}

// status is the one-line summary under the board
func (u *UI) status() string {
	s := fmt.Sprintf("Session %s  Phase: %s  Dirt: %d", u.sessionID, u.state.Phase, u.state.DirtLeft)
	if p := u.state.Player; p != nil {
		s += fmt.Sprintf("  Battery: %d%%  Moves: %d", p.Battery, p.Moves)
	}
	if u.state.Phase == engine.PhaseSetup {
		s += fmt.Sprintf("  Cursor: %s", u.cursor)
	}
	return s
}

// cellOrigin returns the screen coordinates of a tile's three-character glyph
func cellOrigin(p engine.Position) (int, int) {
	return 1 + 4*p.Col, boardTop + 3 + 2*p.Row
}

func cellStyle(r rune) tcell.Style {
	switch r {
	case '@':
		return styleRobot
	case '#':
		return styleWall
	case '*':
		return styleDirt
	case '+':
		return styleCharger
	}
	return styleDefault
}

func (u *UI) drawLine(x, y int, s string, style func(rune) tcell.Style) {
	for i, r := range []rune(s) {
		u.screen.SetContent(x+i, y, r, nil, style(r))
	}
}

func (u *UI) drawText(x, y int, s string, style tcell.Style) {
	for i, r := range []rune(s) {
		u.screen.SetContent(x+i, y, r, nil, style)
	}
}
