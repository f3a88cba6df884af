// Command autopilot plays a Grid Cleaner session through the REST API.
//
// It creates (or resumes) a session, picks a start position when the session is
// still in setup, then repeatedly asks the greedy planner for the next action
// and sends it as a bulk move or a recharge until the board is clean.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v3"

	"github.com/wricardo/mcp-training/gridcleaner/game/autopilot"
	"github.com/wricardo/mcp-training/gridcleaner/game/engine"
	"github.com/wricardo/mcp-training/gridcleaner/game/service"
)

// Client talks to the game's REST API for one session
type Client struct {
	baseURL   string
	sessionID string
	client    *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

func (c *Client) do(ctx context.Context, method, path string, body, result interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, _ := io.ReadAll(resp.Body)
	if resp.StatusCode >= 400 {
		var apiErr struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(data, &apiErr) == nil && apiErr.Error != "" {
			return fmt.Errorf("%s %s: %s", method, path, apiErr.Error)
		}
		return fmt.Errorf("%s %s: %s", method, path, resp.Status)
	}

	if result != nil {
		if err := json.Unmarshal(data, result); err != nil {
			return fmt.Errorf("parse response: %w", err)
		}
	}
	return nil
}

func (c *Client) sessionPath(suffix string) string {
	return "/api/sessions/" + url.PathEscape(c.sessionID) + suffix
}

// CreateSession creates a session from a scenario and binds the client to it
func (c *Client) CreateSession(ctx context.Context, scenarioID string) (*service.SessionInfo, error) {
	var info service.SessionInfo
	body := map[string]string{"scenario_id": scenarioID}
	if err := c.do(ctx, http.MethodPost, "/api/sessions", body, &info); err != nil {
		return nil, err
	}
	c.sessionID = info.ID
	return &info, nil
}

// Resume binds the client to an existing session
func (c *Client) Resume(sessionID string) {
	c.sessionID = sessionID
}

func (c *Client) State(ctx context.Context) (*engine.GameState, error) {
	var state engine.GameState
	if err := c.do(ctx, http.MethodGet, c.sessionPath("/state"), nil, &state); err != nil {
		return nil, err
	}
	return &state, nil
}

func (c *Client) Start(ctx context.Context, p engine.Position) (*service.ActionResult, error) {
	var result service.ActionResult
	body := map[string]int{"row": p.Row, "col": p.Col}
	if err := c.do(ctx, http.MethodPost, c.sessionPath("/start"), body, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) BulkMove(ctx context.Context, moves []string) (*service.BulkMoveResult, error) {
	var result service.BulkMoveResult
	body := map[string][]string{"moves": moves}
	if err := c.do(ctx, http.MethodPost, c.sessionPath("/bulk-move"), body, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) Recharge(ctx context.Context) (*service.ActionResult, error) {
	var result service.ActionResult
	if err := c.do(ctx, http.MethodPost, c.sessionPath("/recharge"), nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Options bound a run
type Options struct {
	MaxTurns int
	Delay    time.Duration
}

// Summary is the outcome of a run
type Summary struct {
	SessionID string
	Turns     int
	Moves     int
	Recharges int
	Victory   bool
	Message   string
}

var errStuck = errors.New("autopilot is stuck")

// Run drives the bound session until victory, a dead end or MaxTurns
func Run(ctx context.Context, c *Client, opts Options) (Summary, error) {
	summary := Summary{SessionID: c.sessionID}

	state, err := c.State(ctx)
	if err != nil {
		return summary, err
	}

	if state.Phase == engine.PhaseSetup {
		start, ok := autopilot.ChooseStart(state.Grid)
		if !ok {
			return summary, fmt.Errorf("%w: no open tile to start on", errStuck)
		}
		result, err := c.Start(ctx, start)
		if err != nil {
			return summary, err
		}
		state = result.GameState
		log.WithFields(log.Fields{"session": c.sessionID, "start": start.String()}).Info("Robot placed")
	}

	for summary.Turns < opts.MaxTurns {
		if state.Victory {
			summary.Victory = true
			summary.Message = state.Message
			return summary, nil
		}

		plan := autopilot.Next(state)
		summary.Turns++

		entry := log.WithFields(log.Fields{
			"session": c.sessionID,
			"turn":    summary.Turns,
			"action":  plan.Action.String(),
			"target":  plan.Target.String(),
			"reason":  plan.Reason,
		})

		switch plan.Action {
		case autopilot.ActionRecharge:
			entry.Debug("Recharging")
			result, err := c.Recharge(ctx)
			if err != nil {
				return summary, err
			}
			if !result.Success {
				return summary, fmt.Errorf("%w: recharge refused: %s", errStuck, result.Message)
			}
			summary.Recharges++
			state = result.GameState

		case autopilot.ActionMove:
			entry.WithField("keys", plan.Keys()).Debug("Moving")
			moves := make([]string, len(plan.Moves))
			for i, d := range plan.Moves {
				moves[i] = string(d.Key())
			}
			for len(moves) > 0 {
				n := len(moves)
				if n > engine.MaxBulkMoves {
					n = engine.MaxBulkMoves
				}
				result, err := c.BulkMove(ctx, moves[:n])
				if err != nil {
					return summary, err
				}
				summary.Moves += result.MovesExecuted
				state = result.GameState
				if result.StopReasonCode == "victory" {
					break
				}
				if result.MovesExecuted < n {
					return summary, fmt.Errorf("%w: %s", errStuck, result.StoppedReason)
				}
				moves = moves[n:]
			}

		default:
			return summary, fmt.Errorf("%w: %s", errStuck, plan.Reason)
		}

		if opts.Delay > 0 {
			select {
			case <-ctx.Done():
				return summary, ctx.Err()
			case <-time.After(opts.Delay):
			}
		}
	}

	if state.Victory {
		summary.Victory = true
		summary.Message = state.Message
		return summary, nil
	}
	return summary, fmt.Errorf("%w: gave up after %d turns", errStuck, summary.Turns)
}

func main() {
	cmd := &cli.Command{
		Name:  "autopilot",
		Usage: "clean a Grid Cleaner board through the REST API",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "url",
				Usage:   "game server URL",
				Value:   "http://localhost:8080",
				Sources: cli.EnvVars("GRIDCLEANER_API_URL"),
			},
			&cli.StringFlag{
				Name:  "scenario",
				Usage: "scenario for a new session",
			},
			&cli.StringFlag{
				Name:  "session",
				Usage: "resume an existing session by ID instead of creating one",
			},
			&cli.DurationFlag{
				Name:  "delay",
				Usage: "pause between turns, for watching over the WebSocket",
			},
			&cli.BoolFlag{
				Name:  "v",
				Usage: "verbose output",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if cmd.Bool("v") {
				log.SetLevel(log.DebugLevel)
			}

			client := NewClient(cmd.String("url"))
			if id := cmd.String("session"); id != "" {
				client.Resume(id)
				log.WithField("session", id).Info("Resuming session")
			} else {
				info, err := client.CreateSession(ctx, cmd.String("scenario"))
				if err != nil {
					return fmt.Errorf("failed to create session: %w", err)
				}
				log.WithFields(log.Fields{"session": info.ID, "scenario": info.ScenarioID}).Info("Session created")
			}

			summary, err := Run(ctx, client, Options{MaxTurns: 500, Delay: cmd.Duration("delay")})
			log.WithFields(log.Fields{
				"session":   summary.SessionID,
				"turns":     summary.Turns,
				"moves":     summary.Moves,
				"recharges": summary.Recharges,
			}).Info("Autopilot finished")
			if err != nil {
				return err
			}
			fmt.Println(summary.Message)
			return nil
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}
