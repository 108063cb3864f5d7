package service

import (
	"context"
	"sync"
	"time"

	"github.com/wricardo/nine-nine/game/engine"
)

// GameService defines all game-related operations
type GameService interface {
	// Session Management
	CreateSession(ctx context.Context, configID string) (*SessionInfo, error)
	GetSession(ctx context.Context, sessionID string) (*SessionInfo, error)
	ListSessions(ctx context.Context) ([]*SessionInfo, error)
	DeleteSession(ctx context.Context, sessionID string) error
	CleanupExpiredSessions(ctx context.Context, maxAge time.Duration) int

	// Player input
	RequestRoll(ctx context.Context, sessionID string, side engine.Side) (*ActionResult, error)
	SelectDirection(ctx context.Context, sessionID string, side engine.Side, direction string) (*ActionResult, error)
	SelectFiveOption(ctx context.Context, sessionID string, side engine.Side, option string) (*ActionResult, error)
	ActivateSkill(ctx context.Context, sessionID string, side engine.Side, skill string) (*ActionResult, error)
	SelectZodiac(ctx context.Context, sessionID string, side engine.Side, zodiac string) (*ActionResult, error)
	Reset(ctx context.Context, sessionID string) (*ActionResult, error)

	// Match State
	GetGameState(ctx context.Context, sessionID string) (*engine.Snapshot, error)
	GetMatchHistory(ctx context.Context, sessionID string, opts HistoryOptions) (*HistoryResponse, error)

	// Configuration
	ListConfigs(ctx context.Context) ([]*ConfigInfo, error)
	LoadConfig(ctx context.Context, configName string) (*engine.GameConfig, error)
	SaveConfig(ctx context.Context, configName string, config *engine.GameConfig) error
	ZodiacCatalog(ctx context.Context) []engine.ZodiacSkill

	// Close stops the timers of every session
	Close()
}

// SessionManager defines session storage operations
type SessionManager interface {
	Create(id, configID string, config *engine.GameConfig) (*Session, error)
	Get(id string) (*Session, error)
	List() []*Session
	Delete(id string) error
	UpdateLastAccessed(id string) error
	Expired(maxAge time.Duration) []*Session
}

// ConfigManager handles game configuration loading
type ConfigManager interface {
	LoadConfig(name string) (*engine.GameConfig, error)
	ListConfigs() ([]*ConfigInfo, error)
	GetDefault() *engine.GameConfig
	DefaultID() string
	SaveConfig(name string, config *engine.GameConfig) error
}

// Presenter receives the events of every transition together with the
// resulting state
type Presenter interface {
	Publish(sessionID string, events []engine.Event, state engine.Snapshot)
}

// Session represents an active game session
type Session struct {
	ID             string
	ConfigID       string
	Engine         engine.Engine
	Config         *engine.GameConfig
	CreatedAt      time.Time
	LastAccessedAt time.Time

	// guards Engine and the timers below
	mu     sync.Mutex
	ticker Timer
	step   Timer
	closed bool

	// bumped on every ticker restart; ticks from older tickers are ignored
	tickerGen uint64
}
