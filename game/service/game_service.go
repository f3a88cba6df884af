package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/wricardo/mcp-training/gridcleaner/game/config"
	"github.com/wricardo/mcp-training/gridcleaner/game/engine"
)

var (
	ErrSessionNotFound      = errors.New("session not found")
	ErrSessionAlreadyExists = errors.New("session already exists")
	ErrInvalidInput         = errors.New("invalid input")
)

// GameService defines all game-related operations
type GameService interface {
	// Session Management
	CreateSession(ctx context.Context, scenarioID string) (*SessionInfo, error)
	GetSession(ctx context.Context, sessionID string) (*SessionInfo, error)
	ListSessions(ctx context.Context) ([]*SessionInfo, error)
	DeleteSession(ctx context.Context, sessionID string) error

	// Setup
	Setup(ctx context.Context, sessionID, script string) (*SetupResult, error)
	Start(ctx context.Context, sessionID string, pos engine.Position) (*ActionResult, error)

	// Game Operations
	Move(ctx context.Context, sessionID, direction string) (*ActionResult, error)
	BulkMove(ctx context.Context, sessionID string, moves []string) (*BulkMoveResult, error)
	Play(ctx context.Context, sessionID, keys string) (*PlayResult, error)
	Recharge(ctx context.Context, sessionID string) (*ActionResult, error)
	Reset(ctx context.Context, sessionID string) (*engine.GameState, error)

	// Game State
	GetGameState(ctx context.Context, sessionID string) (*engine.GameState, error)
	Render(ctx context.Context, sessionID string) (string, error)
	GetMoveHistory(ctx context.Context, sessionID string, opts HistoryOptions) (*HistoryResponse, error)

	// Scenarios
	ListScenarios(ctx context.Context) ([]*config.ScenarioInfo, error)
	LoadScenario(ctx context.Context, name string) (*config.Scenario, error)
	SaveScenario(ctx context.Context, name string, scenario *config.Scenario) error
}

// SessionManager defines session storage operations
type SessionManager interface {
	Create(id, scenarioID string, scenario *config.Scenario) (*Session, error)
	Get(id string) (*Session, error)
	List() []*Session
	Delete(id string) error
	UpdateLastAccessed(id string) error
	Record(id string, entry TranscriptEntry) error
}

// ScenarioManager handles scenario loading
type ScenarioManager interface {
	LoadScenario(name string) (*config.Scenario, error)
	ListScenarios() ([]*config.ScenarioInfo, error)
	GetDefault() *config.Scenario
	SaveScenario(name string, scenario *config.Scenario) error
}

// Session represents an active game session
type Session struct {
	ID             string
	ScenarioID     string
	Engine         *engine.GameEngine
	Scenario       *config.Scenario
	CreatedAt      time.Time
	LastAccessedAt time.Time

	// mu serializes commands against this session's engine
	mu sync.Mutex
}

// Lock serializes access to the session engine
func (s *Session) Lock() { s.mu.Lock() }

// Unlock releases the session engine
func (s *Session) Unlock() { s.mu.Unlock() }
