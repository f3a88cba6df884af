// Package console runs Grid Cleaner as a line-oriented program over a reader and a writer.
package console

import (
	"context"
	"errors"
	"fmt"
	"io"

	log "github.com/sirupsen/logrus"

	"github.com/wricardo/mcp-training/gridcleaner/game/command"
	"github.com/wricardo/mcp-training/gridcleaner/game/engine"
	"github.com/wricardo/mcp-training/gridcleaner/game/render"
)

const (
	bannerSetup = "=== Grid Cleaner: Setup ==="
	bannerStart = "\n=== Starting Grid Cleaner! ==="
	promptStart = "Enter robot starting position: "
)

// Console reads setup and play commands from in and writes boards and messages to out
type Console struct {
	in    *command.Scanner
	out   io.Writer
	board *engine.Board
}

// New creates a console over in and out. A nil board starts from an empty one.
func New(in io.Reader, out io.Writer, board *engine.Board) *Console {
	if board == nil {
		board = engine.NewBoard()
	}
	return &Console{
		in:    command.NewScanner(in),
		out:   out,
		board: board,
	}
}

// Run plays one game. It returns nil after a victory or when the input ends.
func (c *Console) Run(ctx context.Context) error {
	fmt.Fprintln(c.out, bannerSetup)
	c.render(nil)

	setup := engine.NewSetup(c.board)
	if err := c.runSetup(ctx, setup); err != nil {
		return ignoreEOF(err)
	}
	log.WithFields(log.Fields{
		"walls":    c.board.CountBase(engine.Wall),
		"chargers": c.board.CountBase(engine.Charger),
		"dirt":     c.board.DirtCount(),
	}).Debug("Setup finished")

	game, err := c.promptStart(ctx, setup)
	if err != nil {
		return ignoreEOF(err)
	}

	fmt.Fprintln(c.out, bannerStart)
	p := game.Player().Position
	c.render(&p)
	if open := game.Opening(); open.Done {
		fmt.Fprintln(c.out, open.Message)
		return nil
	}

	return ignoreEOF(c.runPlay(ctx, game))
}

func (c *Console) runSetup(ctx context.Context, setup *engine.Setup) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		cmd, err := c.in.NextSetup()
		if err != nil {
			if c.reportArgError(err) {
				continue
			}
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				// input ended during setup; the start prompt sees the same end
				return nil
			}
			return err
		}

		r := setup.Apply(cmd)
		if r.Done {
			return nil
		}
		c.message(r)
		if r.Render {
			c.render(nil)
		}
	}
}

func (c *Console) promptStart(ctx context.Context, setup *engine.Setup) (*engine.Game, error) {
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		fmt.Fprint(c.out, promptStart)
		p, err := c.in.ReadPosition()
		if err != nil {
			if c.reportArgError(err) {
				continue
			}
			return nil, err
		}

		game, err := setup.Finish(p)
		if err != nil {
			fmt.Fprintln(c.out, engine.InvalidStartMessage(p))
			continue
		}
		log.WithField("start", p.String()).Debug("Robot placed")
		return game, nil
	}
}

func (c *Console) runPlay(ctx context.Context, game *engine.Game) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		cmd, err := c.in.NextPlay()
		if err != nil {
			return err
		}

		r := game.Apply(cmd)
		p := game.Player().Position
		if r.Done {
			c.render(&p)
			fmt.Fprintln(c.out, r.Message)
			log.WithField("moves", game.Player().Moves).Debug("All clean")
			return nil
		}
		c.message(r)
		if r.Render {
			c.render(&p)
		}
	}
}

func (c *Console) message(r engine.Report) {
	if r.Message != "" {
		fmt.Fprintln(c.out, r.Message)
	}
}

func (c *Console) render(player *engine.Position) {
	render.Board(c.out, c.board, player)
}

// reportArgError prints a malformed argument and reports whether err was one
func (c *Console) reportArgError(err error) bool {
	var argErr *command.ArgError
	if !errors.As(err, &argErr) || errors.Is(err, io.ErrUnexpectedEOF) {
		return false
	}
	fmt.Fprintln(c.out, argErr.Error())
	return true
}

func ignoreEOF(err error) error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return nil
	}
	return err
}
