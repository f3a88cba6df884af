// Command gridcleaner runs the Grid Cleaner robot-vacuum game.
//
// It supports four modes:
//  1. "play" (default) - the line-oriented console game on stdin/stdout
//  2. "serve" - HTTP server exposing REST API, WebSocket, and an /mcp HTTP endpoint
//  3. "mcp" - MCP stdio server that spins up an internal HTTP API if none is available
//  4. "tui" - full-screen terminal frontend over a local session
//
// Flags control the scenario directory, logging, and for "serve" the listen
// address, transcripts and optional ngrok tunneling.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/gdamore/tcell/v2"
	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v3"

	"github.com/wricardo/mcp-training/gridcleaner/game/config"
	"github.com/wricardo/mcp-training/gridcleaner/game/console"
	"github.com/wricardo/mcp-training/gridcleaner/game/engine"
	"github.com/wricardo/mcp-training/gridcleaner/game/service"
	"github.com/wricardo/mcp-training/gridcleaner/game/session"
	"github.com/wricardo/mcp-training/gridcleaner/transport/terminal"
)

// Version information
const (
	Version = "1.0.0"
	AppName = "Grid Cleaner"
)

func main() {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		if !os.IsNotExist(err) {
			log.WithError(err).Warn("Error loading .env file")
		}
	} else {
		log.Debug("Loaded environment variables from .env file")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newApp(os.Stdin, os.Stdout).Run(ctx, os.Args); err != nil {
		log.Fatal(err)
	}
}

// newApp builds the command tree. The console game reads in and writes out.
func newApp(in io.Reader, out io.Writer) *cli.Command {
	return &cli.Command{
		Name:           "gridcleaner",
		Usage:          "steer a battery-powered robot vacuum around a 10x10 wrapping grid",
		Version:        Version,
		DefaultCommand: "play",
		Writer:         out,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config-dir",
				Usage:   "directory containing scenario files",
				Value:   "configs",
				Sources: cli.EnvVars("CONFIG_DIR"),
			},
			&cli.BoolFlag{
				Name:    "debug",
				Usage:   "enable debug logging",
				Sources: cli.EnvVars("GRIDCLEANER_DEBUG"),
			},
			&cli.StringFlag{
				Name:    "log-format",
				Usage:   "log format: text or json",
				Value:   "text",
				Sources: cli.EnvVars("GRIDCLEANER_LOG_FORMAT"),
			},
		},
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			return ctx, configureLogging(cmd.Bool("debug"), cmd.String("log-format"))
		},
		Commands: []*cli.Command{
			{
				Name:  "play",
				Usage: "play in the console: setup commands, a start position, then wasd",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "scenario",
						Usage: "preload the board from a scenario",
					},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return runConsole(ctx, in, out, cmd.String("config-dir"), cmd.String("scenario"))
				},
			},
			serveCommand(),
			mcpCommand(),
			{
				Name:  "tui",
				Usage: "play in a full-screen terminal UI",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "scenario",
						Usage: "scenario to create the session from",
					},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return runTerminal(ctx, cmd.String("config-dir"), cmd.String("scenario"))
				},
			},
		},
	}
}

// configureLogging sets the logrus level and formatter. Logs go to stderr so the
// console game and the MCP stdio stream stay clean.
func configureLogging(debug bool, format string) error {
	log.SetOutput(os.Stderr)
	if debug {
		log.SetLevel(log.DebugLevel)
	} else {
		log.SetLevel(log.InfoLevel)
	}

	switch format {
	case "", "text":
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	case "json":
		log.SetFormatter(&log.JSONFormatter{})
	default:
		return fmt.Errorf("unknown log format %q (want text or json)", format)
	}
	return nil
}

// initializeServices wires the scenario and session managers into a game service.
// A non-empty transcriptsDir records every session to a zstd-compressed log.
func initializeServices(configDir, transcriptsDir string) (service.GameService, *session.Manager, error) {
	configManager, err := config.NewManager(configDir)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create config manager: %w", err)
	}

	sessionManager := session.NewManager()
	if transcriptsDir != "" {
		recorder, err := session.NewZstdRecorder(transcriptsDir)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create transcript recorder: %w", err)
		}
		sessionManager = session.NewManagerWithRecorder(recorder)
		log.WithField("dir", transcriptsDir).Info("Recording session transcripts")
	}

	return service.NewGameService(sessionManager, configManager), sessionManager, nil
}

// runConsole plays one console game, optionally on a board prepared by a scenario
func runConsole(ctx context.Context, in io.Reader, out io.Writer, configDir, scenarioName string) error {
	board := engine.NewBoard()
	if scenarioName != "" {
		scenarios, err := config.NewManager(configDir)
		if err != nil {
			return fmt.Errorf("failed to create config manager: %w", err)
		}
		scenario, err := scenarios.LoadScenario(scenarioName)
		if err != nil {
			return err
		}
		if board, err = scenario.Build(); err != nil {
			return err
		}
		log.WithField("scenario", scenarioName).Debug("Loaded scenario board")
	}

	return console.New(in, out, board).Run(ctx)
}

// runTerminal opens a tcell screen over a fresh local session
func runTerminal(ctx context.Context, configDir, scenarioName string) error {
	gameService, sessions, err := initializeServices(configDir, "")
	if err != nil {
		return err
	}
	defer sessions.Close()

	info, err := gameService.CreateSession(ctx, scenarioName)
	if err != nil {
		return err
	}

	screen, err := tcell.NewScreen()
	if err != nil {
		return fmt.Errorf("failed to open terminal: %w", err)
	}
	if err := screen.Init(); err != nil {
		return fmt.Errorf("failed to init terminal: %w", err)
	}
	defer screen.Fini()

	return terminal.New(screen, gameService, info.ID).Run(ctx)
}
