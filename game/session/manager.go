package session

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/wricardo/mcp-training/gridcleaner/game/config"
	"github.com/wricardo/mcp-training/gridcleaner/game/engine"
	"github.com/wricardo/mcp-training/gridcleaner/game/service"
)

var (
	ErrSessionNotFound      = service.ErrSessionNotFound
	ErrSessionAlreadyExists = service.ErrSessionAlreadyExists
	ErrInvalidSessionID     = errors.New("invalid session ID")
)

// Manager handles game session lifecycle
type Manager struct {
	sessions map[string]*service.Session
	recorder Recorder
	mu       sync.RWMutex
}

// NewManager creates a new session manager
func NewManager() *Manager {
	return &Manager{
		sessions: make(map[string]*service.Session),
	}
}

// NewManagerWithRecorder creates a session manager that writes transcripts to rec
func NewManagerWithRecorder(rec Recorder) *Manager {
	m := NewManager()
	m.recorder = rec
	return m
}

// Create creates a new session for a scenario. An empty id is generated.
// A scenario with a start position begins in play, otherwise in setup.
func (m *Manager) Create(id, scenarioID string, scenario *config.Scenario) (*service.Session, error) {
	if scenario == nil {
		return nil, fmt.Errorf("%w: scenario is required", config.ErrInvalidScenario)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if id == "" {
		id = m.generateSessionID()
	} else if strings.TrimSpace(id) != id || strings.ContainsAny(id, "/\\") {
		return nil, ErrInvalidSessionID
	}

	// Check if session already exists (case-insensitive)
	if _, exists := m.sessions[strings.ToLower(id)]; exists {
		return nil, ErrSessionAlreadyExists
	}

	board, err := scenario.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build board: %w", err)
	}
	eng := engine.NewEngine(scenario.Name, board)
	if scenario.Start != nil {
		if _, err := eng.Start(*scenario.Start); err != nil {
			return nil, fmt.Errorf("failed to start engine: %w", err)
		}
	}

	now := time.Now()
	sess := &service.Session{
		ID:             id,
		ScenarioID:     scenarioID,
		Engine:         eng,
		Scenario:       scenario,
		CreatedAt:      now,
		LastAccessedAt: now,
	}
	m.sessions[strings.ToLower(id)] = sess

	log.WithFields(log.Fields{
		"session":  id,
		"scenario": scenarioID,
		"phase":    eng.Phase(),
	}).Info("Session created")
	return sess, nil
}

// Get retrieves a session by ID (case-insensitive)
func (m *Manager) Get(id string) (*service.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	sess, exists := m.sessions[strings.ToLower(id)]
	if !exists {
		return nil, ErrSessionNotFound
	}
	return sess, nil
}

// GetOrCreate gets an existing session or creates a new one
func (m *Manager) GetOrCreate(id, scenarioID string, scenario *config.Scenario) (*service.Session, error) {
	sess, err := m.Get(id)
	if err == nil {
		return sess, nil
	}
	if errors.Is(err, ErrSessionNotFound) {
		return m.Create(id, scenarioID, scenario)
	}
	return nil, err
}

// List returns all active sessions
func (m *Manager) List() []*service.Session {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]*service.Session, 0, len(m.sessions))
	for _, sess := range m.sessions {
		result = append(result, sess)
	}
	return result
}

// Delete removes a session and closes its transcript
func (m *Manager) Delete(id string) error {
	m.mu.Lock()
	lowerID := strings.ToLower(id)
	sess, exists := m.sessions[lowerID]
	if exists {
		delete(m.sessions, lowerID)
	}
	m.mu.Unlock()

	if !exists {
		return ErrSessionNotFound
	}
	m.closeTranscript(sess.ID)
	return nil
}

// UpdateLastAccessed updates the last accessed time for a session
func (m *Manager) UpdateLastAccessed(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	sess, exists := m.sessions[strings.ToLower(id)]
	if !exists {
		return ErrSessionNotFound
	}
	sess.LastAccessedAt = time.Now()
	return nil
}

// Record appends an entry to the session transcript. Without a recorder it does nothing.
func (m *Manager) Record(id string, entry service.TranscriptEntry) error {
	if m.recorder == nil {
		return nil
	}
	sess, err := m.Get(id)
	if err != nil {
		return err
	}
	entry.SessionID = sess.ID
	if entry.Time.IsZero() {
		entry.Time = time.Now()
	}
	return m.recorder.Record(entry)
}

// CleanupExpiredSessions removes sessions that haven't been accessed in the given duration
func (m *Manager) CleanupExpiredSessions(maxAge time.Duration) int {
	m.mu.Lock()
	cutoff := time.Now().Add(-maxAge)
	var expired []string
	for key, sess := range m.sessions {
		if sess.LastAccessedAt.Before(cutoff) {
			delete(m.sessions, key)
			expired = append(expired, sess.ID)
		}
	}
	m.mu.Unlock()

	for _, id := range expired {
		m.closeTranscript(id)
	}
	if len(expired) > 0 {
		log.WithField("count", len(expired)).Info("Expired sessions removed")
	}
	return len(expired)
}

// Count returns the number of active sessions
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Close closes every open transcript
func (m *Manager) Close() error {
	if m.recorder == nil {
		return nil
	}
	return m.recorder.Close()
}

func (m *Manager) closeTranscript(id string) {
	if m.recorder == nil {
		return
	}
	if err := m.recorder.CloseSession(id); err != nil {
		log.WithError(err).WithField("session", id).Warn("Failed to close transcript")
	}
}

// generateSessionID generates a random 4-character session ID not yet in use.
// Callers hold m.mu.
func (m *Manager) generateSessionID() string {
	bytes := make([]byte, 2)
	for {
		rand.Read(bytes)
		id := hex.EncodeToString(bytes)
		if _, exists := m.sessions[id]; !exists {
			return id
		}
	}
}
