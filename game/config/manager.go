package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	log "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

var (
	ErrScenarioNotFound = errors.New("scenario not found")
	ErrInvalidScenario  = errors.New("invalid scenario")
)

// BuiltinName is the scenario served when the directory has none
const BuiltinName = "empty"

var extensions = []string{".json", ".yaml", ".yml"}

// Manager handles scenario loading and caching
type Manager struct {
	configDir       string
	defaultScenario *Scenario
	scenarios       map[string]*Scenario
	mu              sync.RWMutex
}

// NewManager creates a new scenario manager
func NewManager(configDir string) (*Manager, error) {
	if _, err := os.Stat(configDir); os.IsNotExist(err) {
		return nil, fmt.Errorf("config directory does not exist: %s", configDir)
	}

	m := &Manager{
		configDir: configDir,
		scenarios: make(map[string]*Scenario),
	}

	if err := m.loadDefaultScenario(); err != nil {
		return nil, fmt.Errorf("failed to load default scenario: %w", err)
	}

	return m, nil
}

// LoadScenario loads a scenario by name. The name may carry its file extension.
func (m *Manager) LoadScenario(name string) (*Scenario, error) {
	id := scenarioID(name)

	m.mu.RLock()
	if s, exists := m.scenarios[id]; exists {
		m.mu.RUnlock()
		return s, nil
	}
	m.mu.RUnlock()

	m.mu.Lock()
	defer m.mu.Unlock()

	// Double-check after acquiring write lock
	if s, exists := m.scenarios[id]; exists {
		return s, nil
	}

	path, err := m.findFile(name)
	if err != nil {
		if errors.Is(err, ErrScenarioNotFound) && id == BuiltinName {
			return builtinScenario(), nil
		}
		return nil, err
	}

	s, err := ReadScenarioFile(path)
	if err != nil {
		return nil, err
	}

	m.scenarios[id] = s
	log.WithFields(log.Fields{"scenario": id, "file": filepath.Base(path)}).Debug("Scenario loaded")
	return s, nil
}

// ReadScenarioFile reads, schema-checks and validates one scenario file
func ReadScenarioFile(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrScenarioNotFound
		}
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	if ext := strings.ToLower(filepath.Ext(path)); ext == ".yaml" || ext == ".yml" {
		if data, err = yamlToJSON(data); err != nil {
			return nil, err
		}
	}
	return ParseScenario(data)
}

// ParseScenario decodes a JSON scenario document and validates it
func ParseScenario(data []byte) (*Scenario, error) {
	if err := ValidateDocument(data); err != nil {
		return nil, err
	}

	var s Scenario
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to parse scenario: %w", err)
	}
	if err := ValidateScenario(&s); err != nil {
		return nil, err
	}
	return &s, nil
}

// ListScenarios returns information about all available scenarios
func (m *Manager) ListScenarios() ([]*ScenarioInfo, error) {
	entries, err := os.ReadDir(m.configDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read config directory: %w", err)
	}

	var infos []*ScenarioInfo
	seen := make(map[string]bool)

	for _, entry := range entries {
		if entry.IsDir() || !hasScenarioExt(entry.Name()) {
			continue
		}
		id := scenarioID(entry.Name())
		if seen[id] {
			continue
		}

		s, err := m.LoadScenario(entry.Name())
		if err != nil {
			log.WithError(err).WithField("file", entry.Name()).Warn("Skipping invalid scenario")
			continue
		}
		seen[id] = true
		infos = append(infos, s.Info(id, entry.Name()))
	}

	if !seen[BuiltinName] {
		infos = append(infos, builtinScenario().Info(BuiltinName, ""))
	}

	sort.Slice(infos, func(i, j int) bool { return infos[i].ScenarioID < infos[j].ScenarioID })
	return infos, nil
}

// GetDefault returns the default scenario
func (m *Manager) GetDefault() *Scenario {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.defaultScenario
}

// SetDefault sets the default scenario by name
func (m *Manager) SetDefault(name string) error {
	s, err := m.LoadScenario(name)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.defaultScenario = s
	return nil
}

// RefreshCache drops every cached scenario and reloads the default
func (m *Manager) RefreshCache() error {
	m.mu.Lock()
	m.scenarios = make(map[string]*Scenario)
	m.mu.Unlock()

	return m.loadDefaultScenario()
}

// ReloadScenario drops one scenario from the cache and loads it again
func (m *Manager) ReloadScenario(name string) error {
	m.mu.Lock()
	delete(m.scenarios, scenarioID(name))
	m.mu.Unlock()

	_, err := m.LoadScenario(name)
	return err
}

// SaveScenario writes a scenario to disk. A .yaml or .yml name selects YAML, anything else JSON.
func (m *Manager) SaveScenario(name string, s *Scenario) error {
	if err := ValidateScenario(s); err != nil {
		return err
	}

	filename := name
	if !hasScenarioExt(filename) {
		filename = name + ".json"
	}

	var (
		data []byte
		err  error
	)
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".yaml", ".yml":
		data, err = yaml.Marshal(s)
	default:
		data, err = json.MarshalIndent(s, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("failed to marshal scenario: %w", err)
	}

	if err := os.WriteFile(filepath.Join(m.configDir, filename), data, 0644); err != nil {
		return fmt.Errorf("failed to write scenario file: %w", err)
	}

	m.mu.Lock()
	m.scenarios[scenarioID(name)] = s
	m.mu.Unlock()

	return nil
}

// loadDefaultScenario prefers "classic", then the first file, then the built-in board
func (m *Manager) loadDefaultScenario() error {
	s, err := m.LoadScenario("classic")
	if err != nil {
		s = builtinScenario()
		if infos, listErr := m.ListScenarios(); listErr == nil && len(infos) > 0 && infos[0].Filename != "" {
			if first, err := m.LoadScenario(infos[0].Filename); err == nil {
				s = first
			}
		}
	}

	m.mu.Lock()
	m.defaultScenario = s
	m.mu.Unlock()
	return nil
}

func (m *Manager) findFile(name string) (string, error) {
	if hasScenarioExt(name) {
		path := filepath.Join(m.configDir, name)
		if _, err := os.Stat(path); err != nil {
			return "", ErrScenarioNotFound
		}
		return path, nil
	}
	for _, ext := range extensions {
		path := filepath.Join(m.configDir, name+ext)
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}
	return "", ErrScenarioNotFound
}

func scenarioID(name string) string {
	for _, ext := range extensions {
		if strings.HasSuffix(strings.ToLower(name), ext) {
			return name[:len(name)-len(ext)]
		}
	}
	return name
}

func hasScenarioExt(name string) bool {
	return scenarioID(name) != name
}

// builtinScenario is an empty board with no dirt
func builtinScenario() *Scenario {
	return &Scenario{
		Name:        BuiltinName,
		Description: "Empty 10x10 board; build it in setup",
	}
}
