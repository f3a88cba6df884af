package main

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	log "github.com/sirupsen/logrus"

	"github.com/wricardo/mcp-training/gridcleaner/transport/websocket"
)

func TestConstants(t *testing.T) {
	if Version == "" {
		t.Error("Version should not be empty")
	}

	expectedAppName := "Grid Cleaner"
	if AppName != expectedAppName {
		t.Errorf("Expected app name %s, got %s", expectedAppName, AppName)
	}
}

func TestConfigureLogging(t *testing.T) {
	t.Cleanup(func() { configureLogging(false, "text") })

	tests := []struct {
		name      string
		debug     bool
		format    string
		wantLevel log.Level
		wantErr   bool
	}{
		{"default text", false, "text", log.InfoLevel, false},
		{"empty format", false, "", log.InfoLevel, false},
		{"debug json", true, "json", log.DebugLevel, false},
		{"unknown format", false, "xml", log.InfoLevel, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := configureLogging(tt.debug, tt.format)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Expected error %v, got %v", tt.wantErr, err)
			}
			if got := log.GetLevel(); got != tt.wantLevel {
				t.Errorf("Expected level %s, got %s", tt.wantLevel, got)
			}
		})
	}

	configureLogging(false, "json")
	if _, ok := log.StandardLogger().Formatter.(*log.JSONFormatter); !ok {
		t.Error("Expected JSON formatter")
	}
}

func TestInitializeServices(t *testing.T) {
	gameService, sessions, err := initializeServices(t.TempDir(), "")
	if err != nil {
		t.Fatalf("Failed to initialize services: %v", err)
	}
	if gameService == nil || sessions == nil {
		t.Fatal("Expected services to be initialized")
	}

	info, err := gameService.CreateSession(context.Background(), "")
	if err != nil {
		t.Fatalf("Failed to create session: %v", err)
	}
	if sessions.Count() != 1 {
		t.Errorf("Expected 1 session, got %d", sessions.Count())
	}
	if info.ScenarioID != "empty" {
		t.Errorf("Expected builtin scenario, got %s", info.ScenarioID)
	}
}

func TestInitializeServices_Transcripts(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "transcripts")
	_, sessions, err := initializeServices(t.TempDir(), dir)
	if err != nil {
		t.Fatalf("Failed to initialize services: %v", err)
	}
	defer sessions.Close()

	if _, err := os.Stat(dir); err != nil {
		t.Errorf("Expected transcripts directory to be created: %v", err)
	}
}

func TestInitializeServices_InvalidConfigDir(t *testing.T) {
	_, _, err := initializeServices("/non/existent/path", "")
	if err == nil {
		t.Error("Expected error for non-existent config directory")
	}
}

func TestNewHandler(t *testing.T) {
	gameService, _, err := initializeServices(t.TempDir(), "")
	if err != nil {
		t.Fatalf("Failed to initialize services: %v", err)
	}
	hub := websocket.NewHub()
	go hub.Run()
	t.Cleanup(hub.Stop)

	ts := httptest.NewServer(newHandler(gameService, hub, "http://unused.invalid"))
	defer ts.Close()

	t.Run("health", func(t *testing.T) {
		if !apiAvailable(ts.URL) {
			t.Error("Expected the API to answer /health")
		}
	})

	t.Run("mcp rejects GET", func(t *testing.T) {
		resp, err := http.Get(ts.URL + "/mcp")
		if err != nil {
			t.Fatalf("Request failed: %v", err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusMethodNotAllowed {
			t.Errorf("Expected status %d, got %d", http.StatusMethodNotAllowed, resp.StatusCode)
		}
	})

	t.Run("mcp lists tools", func(t *testing.T) {
		body := strings.NewReader(`{"jsonrpc":"2.0","id":1,"method":"tools/list"}`)
		resp, err := http.Post(ts.URL+"/mcp", "application/json", body)
		if err != nil {
			t.Fatalf("Request failed: %v", err)
		}
		defer resp.Body.Close()

		var buf bytes.Buffer
		buf.ReadFrom(resp.Body)
		for _, tool := range []string{"create_session", "bulk_move", "describe_cell"} {
			if !strings.Contains(buf.String(), tool) {
				t.Errorf("Expected tool %s in %s", tool, buf.String())
			}
		}
	})
}

func TestAPIAvailable_Unreachable(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	url := ts.URL
	ts.Close()

	if apiAvailable(url) {
		t.Error("Expected a closed server to be unavailable")
	}
}

func TestPlayCommand(t *testing.T) {
	t.Cleanup(func() { configureLogging(false, "text") })

	configDir := t.TempDir()
	scenario := `{"name": "Hall", "setup": ["d 5 6"]}`
	if err := os.WriteFile(filepath.Join(configDir, "hall.json"), []byte(scenario), 0644); err != nil {
		t.Fatalf("Failed to write scenario: %v", err)
	}

	tests := []struct {
		name   string
		args   []string
		script string
		want   string
	}{
		{
			name:   "default command",
			args:   []string{"gridcleaner"},
			script: "d 5 6\nq\n5 5\nd\n",
			want:   "=== All clean in 1 move! ===",
		},
		{
			name:   "play with scenario",
			args:   []string{"gridcleaner", "--config-dir", configDir, "play", "--scenario", "hall"},
			script: "q\n5 5\nd\n",
			want:   "=== All clean in 1 move! ===",
		},
		{
			name:   "input ends during setup",
			args:   []string{"gridcleaner", "play"},
			script: "w 0 0\n",
			want:   "=== Grid Cleaner: Setup ===",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			app := newApp(strings.NewReader(tt.script), &out)
			if err := app.Run(context.Background(), tt.args); err != nil {
				t.Fatalf("Run failed: %v", err)
			}
			if !strings.Contains(out.String(), tt.want) {
				t.Errorf("Expected %q in output, got %q", tt.want, out.String())
			}
		})
	}
}

func TestPlayCommand_Errors(t *testing.T) {
	t.Cleanup(func() { configureLogging(false, "text") })

	tests := []struct {
		name string
		args []string
	}{
		{"unknown scenario", []string{"gridcleaner", "--config-dir", t.TempDir(), "play", "--scenario", "missing"}},
		{"missing config dir", []string{"gridcleaner", "--config-dir", "/non/existent/path", "play", "--scenario", "x"}},
		{"bad log format", []string{"gridcleaner", "--log-format", "xml", "play"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := newApp(strings.NewReader(""), &bytes.Buffer{})
			if err := app.Run(context.Background(), tt.args); err == nil {
				t.Error("Expected an error")
			}
		})
	}
}

func TestCommandTree(t *testing.T) {
	app := newApp(strings.NewReader(""), &bytes.Buffer{})

	for _, name := range []string{"play", "serve", "mcp", "tui"} {
		found := false
		for _, cmd := range app.Commands {
			if cmd.Name == name {
				found = true
			}
		}
		if !found {
			t.Errorf("Expected subcommand %s", name)
		}
	}
	if app.DefaultCommand != "play" {
		t.Errorf("Expected play as the default command, got %s", app.DefaultCommand)
	}
}
