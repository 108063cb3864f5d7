package service

import (
	"time"

	"github.com/wricardo/nine-nine/game/engine"
)

// SessionInfo provides information about a game session
type SessionInfo struct {
	ID             string             `json:"id"`
	ConfigName     string             `json:"config_name"`
	Mode           engine.Mode        `json:"mode"`
	CreatedAt      time.Time          `json:"created_at"`
	LastAccessedAt time.Time          `json:"last_accessed_at"`
	State          *engine.Snapshot   `json:"state"`
	GameConfig     *engine.GameConfig `json:"game_config"`
}

// ActionResult contains everything one player action caused, including
// scheduled steps that completed immediately
type ActionResult struct {
	SessionID string               `json:"session_id"`
	State     engine.Snapshot      `json:"state"`
	Events    []engine.Event       `json:"events"`
	Pending   *engine.Continuation `json:"pending,omitempty"`
	Restarted bool                 `json:"restarted"`
	Message   string               `json:"message,omitempty"`
}

// HistoryOptions configures match history retrieval
type HistoryOptions struct {
	Page  int    `json:"page"`
	Limit int    `json:"limit"`
	Order string `json:"order"` // "asc" or "desc"
}

// HistoryResponse contains paginated match history
type HistoryResponse struct {
	Entries      []engine.HistoryEntry `json:"entries"`
	TotalEntries int                   `json:"total_entries"`
	Page         int                   `json:"page"`
	PageSize     int                   `json:"page_size"`
	TotalPages   int                   `json:"total_pages"`
	HasNext      bool                  `json:"has_next"`
	HasPrevious  bool                  `json:"has_previous"`
}

// ConfigInfo provides information about a game configuration
type ConfigInfo struct {
	Filename         string      `json:"filename"`
	ConfigID         string      `json:"config_id"` // The identifier to use for session creation
	Name             string      `json:"name"`      // Display name
	Description      string      `json:"description"`
	Mode             engine.Mode `json:"mode"`
	DiceFaces        int         `json:"dice_faces"`
	TimeLimitSeconds int         `json:"time_limit_seconds"`
	Scripted         bool        `json:"scripted,omitempty"`
}
