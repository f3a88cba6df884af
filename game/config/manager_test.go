package config

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/wricardo/mcp-training/gridcleaner/game/engine"
)

func createValidScenario() *Scenario {
	return &Scenario{
		Name:        "Test Scenario",
		Description: "Test scenario",
		Layout: []string{
			"..........",
			".#####....",
			"..*.......",
			"..........",
			"....+.....",
			"..........",
			".......&..",
			"..........",
			"..........",
			".........*",
		},
		Setup: []string{"d 0 0", "h 9 0"},
		Start: &engine.Position{Row: 5, Col: 5},
	}
}

func writeScenarioFile(t *testing.T, dir, name string, s *Scenario) {
	t.Helper()
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		t.Fatalf("Failed to marshal scenario: %v", err)
	}

	filename := name
	if filepath.Ext(filename) == "" {
		filename = name + ".json"
	}
	if err := os.WriteFile(filepath.Join(dir, filename), data, 0644); err != nil {
		t.Fatalf("Failed to write scenario file: %v", err)
	}
}

func TestNewManager(t *testing.T) {
	t.Run("valid directory", func(t *testing.T) {
		dir := t.TempDir()
		s := createValidScenario()
		s.Name = "Classic"
		writeScenarioFile(t, dir, "classic", s)

		manager, err := NewManager(dir)
		if err != nil {
			t.Fatalf("Failed to create manager: %v", err)
		}
		if got := manager.GetDefault().Name; got != "Classic" {
			t.Errorf("Expected default 'Classic', got '%s'", got)
		}
	})

	t.Run("non-existent directory", func(t *testing.T) {
		_, err := NewManager("/non/existent/path")
		if err == nil {
			t.Error("Expected error for non-existent directory")
		}
	})

	t.Run("empty directory falls back to built-in", func(t *testing.T) {
		manager, err := NewManager(t.TempDir())
		if err != nil {
			t.Fatalf("NewManager should succeed without scenario files, got error: %v", err)
		}
		def := manager.GetDefault()
		if def == nil || def.Name != BuiltinName {
			t.Fatalf("Expected built-in default, got %+v", def)
		}
	})

	t.Run("first file when no classic", func(t *testing.T) {
		dir := t.TempDir()
		s := createValidScenario()
		s.Name = "Alpha"
		writeScenarioFile(t, dir, "alpha", s)

		manager, err := NewManager(dir)
		if err != nil {
			t.Fatalf("Failed to create manager: %v", err)
		}
		if got := manager.GetDefault().Name; got != "Alpha" {
			t.Errorf("Expected default 'Alpha', got '%s'", got)
		}
	})
}

func TestManager_LoadScenario(t *testing.T) {
	dir := t.TempDir()
	writeScenarioFile(t, dir, "classic", createValidScenario())

	manager, err := NewManager(dir)
	if err != nil {
		t.Fatalf("Failed to create manager: %v", err)
	}

	t.Run("load with and without extension", func(t *testing.T) {
		a, err := manager.LoadScenario("classic")
		if err != nil {
			t.Fatalf("Failed to load scenario: %v", err)
		}
		b, err := manager.LoadScenario("classic.json")
		if err != nil {
			t.Fatalf("Failed to load scenario with extension: %v", err)
		}
		if a != b {
			t.Error("Expected both names to hit the same cache entry")
		}
	})

	t.Run("load yaml", func(t *testing.T) {
		yamlDoc := []byte("name: Corridor\nsetup:\n  - L 4 0 4 8\n  - d 9 9\nstart:\n  row: 0\n  col: 0\n")
		if err := os.WriteFile(filepath.Join(dir, "corridor.yaml"), yamlDoc, 0644); err != nil {
			t.Fatal(err)
		}
		s, err := manager.LoadScenario("corridor")
		if err != nil {
			t.Fatalf("Failed to load yaml scenario: %v", err)
		}
		b, err := s.Build()
		if err != nil {
			t.Fatalf("Build: %v", err)
		}
		if b.CountBase(engine.Wall) != 9 || b.DirtCount() != 1 {
			t.Errorf("Unexpected board: %d walls, %d dirt", b.CountBase(engine.Wall), b.DirtCount())
		}
		if s.Start == nil || *s.Start != (engine.Position{}) {
			t.Errorf("Unexpected start %v", s.Start)
		}
	})

	t.Run("built-in empty", func(t *testing.T) {
		s, err := manager.LoadScenario(BuiltinName)
		if err != nil {
			t.Fatalf("Failed to load built-in: %v", err)
		}
		if s.Name != BuiltinName {
			t.Errorf("Expected '%s', got '%s'", BuiltinName, s.Name)
		}
	})

	t.Run("non-existent scenario", func(t *testing.T) {
		_, err := manager.LoadScenario("non-existent")
		if !errors.Is(err, ErrScenarioNotFound) {
			t.Errorf("Expected ErrScenarioNotFound, got %v", err)
		}
	})

	t.Run("schema violation", func(t *testing.T) {
		data := []byte(`{"name": "Bad", "layout": ["..."], "extra": true}`)
		if err := os.WriteFile(filepath.Join(dir, "schema.json"), data, 0644); err != nil {
			t.Fatal(err)
		}
		_, err := manager.LoadScenario("schema")
		if !errors.Is(err, ErrInvalidScenario) {
			t.Errorf("Expected ErrInvalidScenario, got %v", err)
		}
	})

	t.Run("malformed JSON", func(t *testing.T) {
		data := []byte(`{"name": "Malformed", invalid json}`)
		if err := os.WriteFile(filepath.Join(dir, "malformed.json"), data, 0644); err != nil {
			t.Fatal(err)
		}
		if _, err := manager.LoadScenario("malformed"); err == nil {
			t.Error("Expected error for malformed JSON")
		}
	})
}

func TestManager_ListScenarios(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"classic", "easy", "maze"} {
		s := createValidScenario()
		s.Name = name
		writeScenarioFile(t, dir, name, s)
	}
	os.WriteFile(filepath.Join(dir, "readme.txt"), []byte("readme"), 0644)
	os.WriteFile(filepath.Join(dir, "broken.json"), []byte(`{"name": ""}`), 0644)

	manager, err := NewManager(dir)
	if err != nil {
		t.Fatalf("Failed to create manager: %v", err)
	}

	infos, err := manager.ListScenarios()
	if err != nil {
		t.Fatalf("Failed to list scenarios: %v", err)
	}

	var ids []string
	for _, info := range infos {
		ids = append(ids, info.ScenarioID)
	}
	want := []string{"classic", "easy", BuiltinName, "maze"}
	if len(ids) != len(want) {
		t.Fatalf("Expected %v, got %v", want, ids)
	}
	for i := range want {
		if ids[i] != want[i] {
			t.Errorf("Expected %v, got %v", want, ids)
			break
		}
	}

	classic := infos[0]
	if classic.Walls != 5 || classic.Chargers != 3 || classic.Dirt != 4 || !classic.HasStart {
		t.Errorf("Unexpected counts %+v", classic)
	}
}

func TestManager_SaveScenario(t *testing.T) {
	dir := t.TempDir()
	manager, err := NewManager(dir)
	if err != nil {
		t.Fatalf("Failed to create manager: %v", err)
	}

	t.Run("json round trip", func(t *testing.T) {
		s := createValidScenario()
		if err := manager.SaveScenario("saved", s); err != nil {
			t.Fatalf("SaveScenario: %v", err)
		}
		loaded, err := ReadScenarioFile(filepath.Join(dir, "saved.json"))
		if err != nil {
			t.Fatalf("ReadScenarioFile: %v", err)
		}
		if loaded.Name != s.Name || len(loaded.Layout) != engine.Rows {
			t.Errorf("Unexpected scenario %+v", loaded)
		}
	})

	t.Run("yaml round trip", func(t *testing.T) {
		s := createValidScenario()
		if err := manager.SaveScenario("saved.yaml", s); err != nil {
			t.Fatalf("SaveScenario: %v", err)
		}
		loaded, err := ReadScenarioFile(filepath.Join(dir, "saved.yaml"))
		if err != nil {
			t.Fatalf("ReadScenarioFile: %v", err)
		}
		if loaded.Start == nil || *loaded.Start != *s.Start {
			t.Errorf("Expected start %v, got %v", s.Start, loaded.Start)
		}
	})

	t.Run("invalid scenario rejected", func(t *testing.T) {
		s := createValidScenario()
		s.Start = &engine.Position{Row: 1, Col: 1} // wall
		err := manager.SaveScenario("bad", s)
		if !errors.Is(err, ErrInvalidScenario) {
			t.Errorf("Expected ErrInvalidScenario, got %v", err)
		}
		if _, statErr := os.Stat(filepath.Join(dir, "bad.json")); !os.IsNotExist(statErr) {
			t.Error("Invalid scenario must not be written")
		}
	})
}

func TestManager_ReloadScenario(t *testing.T) {
	dir := t.TempDir()
	s := createValidScenario()
	s.Description = "before"
	writeScenarioFile(t, dir, "changeable", s)

	manager, err := NewManager(dir)
	if err != nil {
		t.Fatalf("Failed to create manager: %v", err)
	}
	loaded, _ := manager.LoadScenario("changeable")
	if loaded.Description != "before" {
		t.Fatalf("Expected 'before', got '%s'", loaded.Description)
	}

	s.Description = "after"
	writeScenarioFile(t, dir, "changeable", s)

	if err := manager.ReloadScenario("changeable"); err != nil {
		t.Fatalf("Failed to reload scenario: %v", err)
	}
	reloaded, _ := manager.LoadScenario("changeable")
	if reloaded.Description != "after" {
		t.Errorf("Expected 'after', got '%s'", reloaded.Description)
	}

	s.Description = "refreshed"
	writeScenarioFile(t, dir, "changeable", s)
	if err := manager.RefreshCache(); err != nil {
		t.Fatalf("RefreshCache: %v", err)
	}
	refreshed, _ := manager.LoadScenario("changeable")
	if refreshed.Description != "refreshed" {
		t.Errorf("Expected 'refreshed', got '%s'", refreshed.Description)
	}
}

func TestManager_ConcurrentAccess(t *testing.T) {
	dir := t.TempDir()
	writeScenarioFile(t, dir, "classic", createValidScenario())

	manager, err := NewManager(dir)
	if err != nil {
		t.Fatalf("Failed to create manager: %v", err)
	}

	var wg sync.WaitGroup
	errs := make(chan error, 20)
	for i := 0; i < 10; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			if _, err := manager.LoadScenario("classic"); err != nil {
				errs <- err
			}
		}()
		go func() {
			defer wg.Done()
			if _, err := manager.ListScenarios(); err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Errorf("Concurrent access error: %v", err)
	}
}
