package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wricardo/nine-nine/game/board"
	"github.com/wricardo/nine-nine/game/config"
	"github.com/wricardo/nine-nine/game/engine"
	"github.com/wricardo/nine-nine/game/service"
	"github.com/wricardo/nine-nine/game/session"
	"github.com/wricardo/nine-nine/transport/websocket"
)

// MockGameService implements service.GameService for testing
type MockGameService struct {
	CreateSessionFunc func(ctx context.Context, configID string) (*service.SessionInfo, error)
	GetSessionFunc    func(ctx context.Context, sessionID string) (*service.SessionInfo, error)
	ListSessionsFunc  func(ctx context.Context) ([]*service.SessionInfo, error)
	DeleteSessionFunc func(ctx context.Context, sessionID string) error

	RequestRollFunc      func(ctx context.Context, sessionID string, side engine.Side) (*service.ActionResult, error)
	SelectDirectionFunc  func(ctx context.Context, sessionID string, side engine.Side, direction string) (*service.ActionResult, error)
	SelectFiveOptionFunc func(ctx context.Context, sessionID string, side engine.Side, option string) (*service.ActionResult, error)
	ActivateSkillFunc    func(ctx context.Context, sessionID string, side engine.Side, skill string) (*service.ActionResult, error)
	SelectZodiacFunc     func(ctx context.Context, sessionID string, side engine.Side, zodiac string) (*service.ActionResult, error)
	ResetFunc            func(ctx context.Context, sessionID string) (*service.ActionResult, error)

	GetGameStateFunc    func(ctx context.Context, sessionID string) (*engine.Snapshot, error)
	GetMatchHistoryFunc func(ctx context.Context, sessionID string, opts service.HistoryOptions) (*service.HistoryResponse, error)

	ListConfigsFunc func(ctx context.Context) ([]*service.ConfigInfo, error)
	LoadConfigFunc  func(ctx context.Context, configName string) (*engine.GameConfig, error)
	SaveConfigFunc  func(ctx context.Context, configName string, config *engine.GameConfig) error
}

func (m *MockGameService) CreateSession(ctx context.Context, configID string) (*service.SessionInfo, error) {
	if m.CreateSessionFunc != nil {
		return m.CreateSessionFunc(ctx, configID)
	}
	return &service.SessionInfo{ID: "ab12", ConfigName: configID, Mode: engine.ModeVsCom, CreatedAt: time.Now()}, nil
}

func (m *MockGameService) GetSession(ctx context.Context, sessionID string) (*service.SessionInfo, error) {
	if m.GetSessionFunc != nil {
		return m.GetSessionFunc(ctx, sessionID)
	}
	return &service.SessionInfo{ID: sessionID, ConfigName: "classic", Mode: engine.ModeVsCom}, nil
}

func (m *MockGameService) ListSessions(ctx context.Context) ([]*service.SessionInfo, error) {
	if m.ListSessionsFunc != nil {
		return m.ListSessionsFunc(ctx)
	}
	return []*service.SessionInfo{}, nil
}

func (m *MockGameService) DeleteSession(ctx context.Context, sessionID string) error {
	if m.DeleteSessionFunc != nil {
		return m.DeleteSessionFunc(ctx, sessionID)
	}
	return nil
}

func (m *MockGameService) CleanupExpiredSessions(ctx context.Context, maxAge time.Duration) int {
	return 0
}

func actionResult(sessionID string) *service.ActionResult {
	return &service.ActionResult{SessionID: sessionID, Events: []engine.Event{}}
}

func (m *MockGameService) RequestRoll(ctx context.Context, sessionID string, side engine.Side) (*service.ActionResult, error) {
	if m.RequestRollFunc != nil {
		return m.RequestRollFunc(ctx, sessionID, side)
	}
	return actionResult(sessionID), nil
}

func (m *MockGameService) SelectDirection(ctx context.Context, sessionID string, side engine.Side, direction string) (*service.ActionResult, error) {
	if m.SelectDirectionFunc != nil {
		return m.SelectDirectionFunc(ctx, sessionID, side, direction)
	}
	return actionResult(sessionID), nil
}

func (m *MockGameService) SelectFiveOption(ctx context.Context, sessionID string, side engine.Side, option string) (*service.ActionResult, error) {
	if m.SelectFiveOptionFunc != nil {
		return m.SelectFiveOptionFunc(ctx, sessionID, side, option)
	}
	return actionResult(sessionID), nil
}

func (m *MockGameService) ActivateSkill(ctx context.Context, sessionID string, side engine.Side, skill string) (*service.ActionResult, error) {
	if m.ActivateSkillFunc != nil {
		return m.ActivateSkillFunc(ctx, sessionID, side, skill)
	}
	return actionResult(sessionID), nil
}

func (m *MockGameService) SelectZodiac(ctx context.Context, sessionID string, side engine.Side, zodiac string) (*service.ActionResult, error) {
	if m.SelectZodiacFunc != nil {
		return m.SelectZodiacFunc(ctx, sessionID, side, zodiac)
	}
	return actionResult(sessionID), nil
}

func (m *MockGameService) Reset(ctx context.Context, sessionID string) (*service.ActionResult, error) {
	if m.ResetFunc != nil {
		return m.ResetFunc(ctx, sessionID)
	}
	return actionResult(sessionID), nil
}

func (m *MockGameService) GetGameState(ctx context.Context, sessionID string) (*engine.Snapshot, error) {
	if m.GetGameStateFunc != nil {
		return m.GetGameStateFunc(ctx, sessionID)
	}
	return &engine.Snapshot{}, nil
}

func (m *MockGameService) GetMatchHistory(ctx context.Context, sessionID string, opts service.HistoryOptions) (*service.HistoryResponse, error) {
	if m.GetMatchHistoryFunc != nil {
		return m.GetMatchHistoryFunc(ctx, sessionID, opts)
	}
	return &service.HistoryResponse{Entries: []engine.HistoryEntry{}, Page: opts.Page, PageSize: opts.Limit, TotalPages: 1}, nil
}

func (m *MockGameService) ListConfigs(ctx context.Context) ([]*service.ConfigInfo, error) {
	if m.ListConfigsFunc != nil {
		return m.ListConfigsFunc(ctx)
	}
	return []*service.ConfigInfo{}, nil
}

func (m *MockGameService) LoadConfig(ctx context.Context, configName string) (*engine.GameConfig, error) {
	if m.LoadConfigFunc != nil {
		return m.LoadConfigFunc(ctx, configName)
	}
	return engine.DefaultConfig(engine.ModeVsCom), nil
}

func (m *MockGameService) SaveConfig(ctx context.Context, configName string, config *engine.GameConfig) error {
	if m.SaveConfigFunc != nil {
		return m.SaveConfigFunc(ctx, configName, config)
	}
	return nil
}

func (m *MockGameService) ZodiacCatalog(ctx context.Context) []engine.ZodiacSkill {
	return engine.ZodiacCatalog()
}

func (m *MockGameService) Close() {}

// Helpers

func setupTestServer(mockService *MockGameService) *Server {
	return NewServer(mockService, websocket.NewHub(), "http://localhost:8080")
}

func makeRequest(method, path string, body interface{}) *http.Request {
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	return req
}

func serve(server http.Handler, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	server.ServeHTTP(w, req)
	return w
}

func parseResponse(t *testing.T, w *httptest.ResponseRecorder, target interface{}) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), target); err != nil {
		t.Fatalf("Failed to parse response: %v (%s)", err, w.Body.String())
	}
}

// Session Management Tests

func TestCreateSession(t *testing.T) {
	tests := []struct {
		name           string
		requestBody    map[string]string
		setupMock      func(*MockGameService)
		expectedStatus int
		expectedError  string
	}{
		{
			name:           "Create session with default config",
			expectedStatus: http.StatusCreated,
		},
		{
			name:        "Create session with specific config",
			requestBody: map[string]string{"config_id": "duel"},
			setupMock: func(m *MockGameService) {
				m.CreateSessionFunc = func(ctx context.Context, configID string) (*service.SessionInfo, error) {
					if configID != "duel" {
						t.Errorf("Expected config id 'duel', got %s", configID)
					}
					return &service.SessionInfo{ID: "cd34", ConfigName: configID, Mode: engine.ModeVsPlayer}, nil
				}
			},
			expectedStatus: http.StatusCreated,
		},
		{
			name:        "Unknown config",
			requestBody: map[string]string{"config_id": "nope"},
			setupMock: func(m *MockGameService) {
				m.CreateSessionFunc = func(ctx context.Context, configID string) (*service.SessionInfo, error) {
					return nil, fmt.Errorf("config '%s' not found: %w", configID, service.ErrConfigNotFound)
				}
			},
			expectedStatus: http.StatusNotFound,
			expectedError:  "config 'nope' not found: configuration not found",
		},
		{
			name: "Handle service error",
			setupMock: func(m *MockGameService) {
				m.CreateSessionFunc = func(ctx context.Context, configID string) (*service.SessionInfo, error) {
					return nil, fmt.Errorf("service error")
				}
			},
			expectedStatus: http.StatusInternalServerError,
			expectedError:  "service error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := &MockGameService{}
			if tt.setupMock != nil {
				tt.setupMock(mockService)
			}

			var body interface{}
			if tt.requestBody != nil {
				body = tt.requestBody
			}
			w := serve(setupTestServer(mockService), makeRequest("POST", "/api/sessions", body))

			if w.Code != tt.expectedStatus {
				t.Errorf("Expected status %d, got %d", tt.expectedStatus, w.Code)
			}
			if tt.expectedError != "" {
				var resp map[string]string
				parseResponse(t, w, &resp)
				assert.Equal(t, tt.expectedError, resp["error"])
			}
		})
	}
}

func TestListSessions(t *testing.T) {
	base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	mockService := &MockGameService{
		ListSessionsFunc: func(ctx context.Context) ([]*service.SessionInfo, error) {
			return []*service.SessionInfo{
				{ID: "a", CreatedAt: base, LastAccessedAt: base.Add(3 * time.Minute)},
				{ID: "b", CreatedAt: base.Add(time.Minute), LastAccessedAt: base.Add(time.Minute)},
				{ID: "c", CreatedAt: base.Add(2 * time.Minute), LastAccessedAt: base.Add(2 * time.Minute)},
			}, nil
		},
	}
	server := setupTestServer(mockService)

	tests := []struct {
		name     string
		query    string
		expected []string
	}{
		{"default accessed desc", "", []string{"a", "c", "b"}},
		{"created asc", "?sort=created&order=asc", []string{"a", "b", "c"}},
		{"limit", "?sort=created&limit=2", []string{"c", "b"}},
		{"invalid limit ignored", "?limit=zero", []string{"a", "c", "b"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := serve(server, makeRequest("GET", "/api/sessions"+tt.query, nil))
			require.Equal(t, http.StatusOK, w.Code)

			var resp struct {
				Count    int                    `json:"count"`
				Total    int                    `json:"total"`
				Sessions []*service.SessionInfo `json:"sessions"`
			}
			parseResponse(t, w, &resp)

			ids := make([]string, 0, len(resp.Sessions))
			for _, s := range resp.Sessions {
				ids = append(ids, s.ID)
			}
			assert.Equal(t, tt.expected, ids)
			assert.Equal(t, len(tt.expected), resp.Count)
			assert.Equal(t, 3, resp.Total)
		})
	}
}

func TestGetAndDeleteSession(t *testing.T) {
	mockService := &MockGameService{
		GetSessionFunc: func(ctx context.Context, sessionID string) (*service.SessionInfo, error) {
			if sessionID == "ab12" {
				return &service.SessionInfo{ID: sessionID, Mode: engine.ModeVsCom}, nil
			}
			return nil, fmt.Errorf("session not found: %w", session.ErrSessionNotFound)
		},
		DeleteSessionFunc: func(ctx context.Context, sessionID string) error {
			if sessionID == "ab12" {
				return nil
			}
			return fmt.Errorf("session not found: %w", session.ErrSessionNotFound)
		},
	}
	server := setupTestServer(mockService)

	assert.Equal(t, http.StatusOK, serve(server, makeRequest("GET", "/api/sessions/ab12", nil)).Code)
	assert.Equal(t, http.StatusNotFound, serve(server, makeRequest("GET", "/api/sessions/zz99", nil)).Code)
	assert.Equal(t, http.StatusOK, serve(server, makeRequest("DELETE", "/api/sessions/ab12", nil)).Code)
	assert.Equal(t, http.StatusNotFound, serve(server, makeRequest("DELETE", "/api/sessions/zz99", nil)).Code)
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err    error
		status int
	}{
		{fmt.Errorf("session not found: %w", session.ErrSessionNotFound), http.StatusNotFound},
		{fmt.Errorf("session not found: %w", service.ErrSessionClosed), http.StatusNotFound},
		{config.ErrConfigNotFound, http.StatusNotFound},
		{fmt.Errorf("%w: %q", board.ErrUnknownDirection, "north"), http.StatusBadRequest},
		{engine.ErrUnknownSide, http.StatusBadRequest},
		{engine.ErrUnknownSkill, http.StatusBadRequest},
		{engine.ErrInvalidOption, http.StatusBadRequest},
		{fmt.Errorf("%w: dice_faces", config.ErrInvalidConfig), http.StatusBadRequest},
		{engine.ErrNotYourTurn, http.StatusConflict},
		{engine.ErrWrongPhase, http.StatusConflict},
		{engine.ErrIllegalMove, http.StatusConflict},
		{engine.ErrIllegalPlacement, http.StatusConflict},
		{engine.ErrBusy, http.StatusConflict},
		{engine.ErrInsufficientPoints, http.StatusConflict},
		{engine.ErrSkillUnavailable, http.StatusConflict},
		{engine.ErrUnsupported, http.StatusConflict},
		{errors.New("disk on fire"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			assert.Equal(t, tt.status, statusFor(tt.err))
		})
	}
}

func TestResolveSide(t *testing.T) {
	tests := []struct {
		mode     engine.Mode
		player   string
		expected engine.Side
	}{
		{engine.ModeVsCom, "", engine.Human},
		{engine.ModeVsCom, "1", engine.Human},
		{engine.ModeVsCom, "2", engine.Computer},
		{engine.ModeVsCom, " Human ", engine.Human},
		{engine.ModeVsPlayer, "1", engine.Player1},
		{engine.ModeVsPlayer, "2", engine.Player2},
		{engine.ModeVsPlayer, "player2", engine.Player2},
		{engine.ModeVsPlayer, "", engine.Side("")},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, resolveSide(tt.mode, tt.player), "%s %q", tt.mode, tt.player)
	}
}

// Match Action Tests

func TestActionHandlers(t *testing.T) {
	var gotSide engine.Side
	var gotArg string
	record := func(side engine.Side, arg string) {
		gotSide, gotArg = side, arg
	}

	mockService := &MockGameService{
		GetSessionFunc: func(ctx context.Context, sessionID string) (*service.SessionInfo, error) {
			switch sessionID {
			case "vsco":
				return &service.SessionInfo{ID: sessionID, Mode: engine.ModeVsCom}, nil
			case "duel":
				return &service.SessionInfo{ID: sessionID, Mode: engine.ModeVsPlayer}, nil
			}
			return nil, session.ErrSessionNotFound
		},
		RequestRollFunc: func(ctx context.Context, sessionID string, side engine.Side) (*service.ActionResult, error) {
			record(side, "")
			return actionResult(sessionID), nil
		},
		SelectDirectionFunc: func(ctx context.Context, sessionID string, side engine.Side, direction string) (*service.ActionResult, error) {
			record(side, direction)
			if direction == "left" {
				return nil, engine.ErrIllegalMove
			}
			return actionResult(sessionID), nil
		},
		SelectFiveOptionFunc: func(ctx context.Context, sessionID string, side engine.Side, option string) (*service.ActionResult, error) {
			record(side, option)
			return actionResult(sessionID), nil
		},
		ActivateSkillFunc: func(ctx context.Context, sessionID string, side engine.Side, skill string) (*service.ActionResult, error) {
			record(side, skill)
			return nil, engine.ErrInsufficientPoints
		},
		SelectZodiacFunc: func(ctx context.Context, sessionID string, side engine.Side, zodiac string) (*service.ActionResult, error) {
			record(side, zodiac)
			return actionResult(sessionID), nil
		},
	}
	server := setupTestServer(mockService)

	tests := []struct {
		name           string
		path           string
		body           interface{}
		expectedStatus int
		expectedSide   engine.Side
		expectedArg    string
	}{
		{"roll defaults to the human", "/api/sessions/vsco/roll", nil, http.StatusOK, engine.Human, ""},
		{"roll as player 2", "/api/sessions/duel/roll", map[string]string{"player": "2"}, http.StatusOK, engine.Player2, ""},
		{"direction", "/api/sessions/vsco/direction", map[string]string{"direction": "up"}, http.StatusOK, engine.Human, "up"},
		{"illegal direction", "/api/sessions/vsco/direction", map[string]string{"direction": "left"}, http.StatusConflict, engine.Human, "left"},
		{"missing direction", "/api/sessions/vsco/direction", map[string]string{}, http.StatusBadRequest, "", ""},
		{"five option", "/api/sessions/vsco/five-option", map[string]string{"choice": "2"}, http.StatusOK, engine.Human, "2"},
		{"skill without points", "/api/sessions/duel/skill", map[string]string{"player": "1", "skill": "dice_up"}, http.StatusConflict, engine.Player1, "dice_up"},
		{"zodiac", "/api/sessions/duel/zodiac", map[string]string{"player": "player2", "zodiac": "rat"}, http.StatusOK, engine.Player2, "rat"},
		{"unknown session", "/api/sessions/nope/roll", nil, http.StatusNotFound, "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotSide, gotArg = "", ""
			w := serve(server, makeRequest("POST", tt.path, tt.body))

			assert.Equal(t, tt.expectedStatus, w.Code, w.Body.String())
			assert.Equal(t, tt.expectedSide, gotSide)
			assert.Equal(t, tt.expectedArg, gotArg)
		})
	}

	t.Run("malformed body", func(t *testing.T) {
		req := httptest.NewRequest("POST", "/api/sessions/vsco/roll", bytes.NewBufferString("{not json"))
		assert.Equal(t, http.StatusBadRequest, serve(server, req).Code)
	})
}

func TestGetHistory(t *testing.T) {
	var got service.HistoryOptions
	mockService := &MockGameService{
		GetMatchHistoryFunc: func(ctx context.Context, sessionID string, opts service.HistoryOptions) (*service.HistoryResponse, error) {
			got = opts
			return &service.HistoryResponse{Entries: []engine.HistoryEntry{}, Page: opts.Page}, nil
		},
	}
	server := setupTestServer(mockService)

	tests := []struct {
		query    string
		expected service.HistoryOptions
	}{
		{"", service.HistoryOptions{Page: 1, Limit: 20, Order: "desc"}},
		{"?page=3&limit=5&order=asc", service.HistoryOptions{Page: 3, Limit: 5, Order: "asc"}},
		{"?page=-1&limit=x&order=sideways", service.HistoryOptions{Page: 1, Limit: 20, Order: "desc"}},
	}

	for _, tt := range tests {
		w := serve(server, makeRequest("GET", "/api/sessions/ab12/history"+tt.query, nil))
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, tt.expected, got, tt.query)
	}
}

// Configuration Tests

func TestConfigHandlers(t *testing.T) {
	var saved *engine.GameConfig
	var savedName string
	mockService := &MockGameService{
		ListConfigsFunc: func(ctx context.Context) ([]*service.ConfigInfo, error) {
			return []*service.ConfigInfo{{ConfigID: "classic", Name: "Classic", Mode: engine.ModeVsCom}}, nil
		},
		LoadConfigFunc: func(ctx context.Context, name string) (*engine.GameConfig, error) {
			if name == "classic" {
				return engine.DefaultConfig(engine.ModeVsCom), nil
			}
			return nil, fmt.Errorf("%w: %s", config.ErrConfigNotFound, name)
		},
		SaveConfigFunc: func(ctx context.Context, name string, c *engine.GameConfig) error {
			if err := engine.ValidateGameConfig(c); err != nil {
				return fmt.Errorf("%w: %v", config.ErrInvalidConfig, err)
			}
			savedName, saved = name, c
			return nil
		},
	}
	server := setupTestServer(mockService)

	t.Run("list", func(t *testing.T) {
		w := serve(server, makeRequest("GET", "/api/configs", nil))
		require.Equal(t, http.StatusOK, w.Code)
		var configs []service.ConfigInfo
		parseResponse(t, w, &configs)
		require.Len(t, configs, 1)
		assert.Equal(t, "classic", configs[0].ConfigID)
	})

	t.Run("get", func(t *testing.T) {
		assert.Equal(t, http.StatusOK, serve(server, makeRequest("GET", "/api/configs/classic", nil)).Code)
		assert.Equal(t, http.StatusNotFound, serve(server, makeRequest("GET", "/api/configs/missing", nil)).Code)
	})

	t.Run("create keeps mode defaults", func(t *testing.T) {
		body := map[string]interface{}{
			"id":         "cheap-skills",
			"name":       "Cheap Skills",
			"mode":       "vsplayer",
			"skill_cost": 40,
		}
		w := serve(server, makeRequest("POST", "/api/configs", body))
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

		assert.Equal(t, "cheap-skills", savedName)
		assert.Equal(t, engine.ModeVsPlayer, saved.Mode)
		assert.Equal(t, 40, saved.SkillCost)
		assert.Equal(t, 10, saved.TurnBonus)
		assert.Equal(t, 4, saved.DiceFaces)
	})

	t.Run("create requires id", func(t *testing.T) {
		w := serve(server, makeRequest("POST", "/api/configs", map[string]string{"name": "x"}))
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("create rejects invalid rules", func(t *testing.T) {
		body := map[string]interface{}{"id": "bad", "name": "Bad", "dice_faces": 12}
		w := serve(server, makeRequest("POST", "/api/configs", body))
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("zodiac catalog", func(t *testing.T) {
		w := serve(server, makeRequest("GET", "/api/zodiac", nil))
		require.Equal(t, http.StatusOK, w.Code)
		var catalog []engine.ZodiacSkill
		parseResponse(t, w, &catalog)
		require.NotEmpty(t, catalog)
		assert.Equal(t, "rat", catalog[0].Name)
	})
}

func TestCORS(t *testing.T) {
	server := setupTestServer(&MockGameService{})

	req := makeRequest("GET", "/healthz", nil)
	req.Header.Set("Origin", "http://localhost:8080")
	w := serve(server, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "http://localhost:8080", w.Header().Get("Access-Control-Allow-Origin"))

	req = makeRequest("GET", "/healthz", nil)
	req.Header.Set("Origin", "http://evil.example")
	w = serve(server, req)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))

	req = makeRequest("OPTIONS", "/api/sessions/ab12/roll", nil)
	req.Header.Set("Origin", "http://localhost:8080")
	w = serve(server, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Contains(t, w.Header().Get("Access-Control-Allow-Methods"), "POST")
}

func TestHealth(t *testing.T) {
	w := serve(setupTestServer(&MockGameService{}), makeRequest("GET", "/healthz", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var resp map[string]string
	parseResponse(t, w, &resp)
	assert.Equal(t, "healthy", resp["status"])
}

func TestWebSocketRequiresSession(t *testing.T) {
	mockService := &MockGameService{
		GetGameStateFunc: func(ctx context.Context, sessionID string) (*engine.Snapshot, error) {
			return nil, session.ErrSessionNotFound
		},
	}
	server := setupTestServer(mockService)

	assert.Equal(t, http.StatusBadRequest, serve(server, makeRequest("GET", "/ws", nil)).Code)
	assert.Equal(t, http.StatusNotFound, serve(server, makeRequest("GET", "/ws?session=zz99", nil)).Code)
}

// End-to-end through the real service

// zeroRand always answers 0: every roll is a 1 and policies take the first option
type zeroRand struct{}

func (zeroRand) Intn(n int) int { return 0 }

const quickRules = `{
  "name": "Quick",
  "description": "No delays, no countdown",
  "mode": "vscom",
  "first_mover": "human",
  "time_limit_seconds": 0,
  "roll_delay_ms": 0,
  "step_delay_ms": 0
}`

func newRealServer(t *testing.T) *Server {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "quick.json"), []byte(quickRules), 0644))

	configs, err := config.NewManager(dir)
	require.NoError(t, err)

	gameService := service.NewGameService(
		session.NewManager(engine.WithRand(zeroRand{})),
		configs,
		service.WithScheduler(service.NewManualScheduler()),
	)
	t.Cleanup(gameService.Close)

	return NewServer(gameService, websocket.NewHub())
}

func TestServer_PlaysATurn(t *testing.T) {
	server := newRealServer(t)

	w := serve(server, makeRequest("POST", "/api/sessions", map[string]string{"config_id": "quick"}))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var info service.SessionInfo
	parseResponse(t, w, &info)
	require.NotNil(t, info.State)
	assert.Equal(t, engine.Human, info.State.Active)
	assert.Equal(t, engine.PhaseAwaitingRoll, info.State.Phase)

	base := "/api/sessions/" + info.ID

	// the computer cannot act on the human's turn
	w = serve(server, makeRequest("POST", base+"/roll", map[string]string{"player": "2"}))
	assert.Equal(t, http.StatusConflict, w.Code)

	w = serve(server, makeRequest("POST", base+"/roll", nil))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var rolled service.ActionResult
	parseResponse(t, w, &rolled)
	assert.Equal(t, 1, rolled.State.Dice)
	assert.Equal(t, engine.PhaseMovement, rolled.State.Phase)

	w = serve(server, makeRequest("POST", base+"/direction", map[string]string{"direction": "sideways"}))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = serve(server, makeRequest("POST", base+"/direction", map[string]string{"direction": "up"}))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var moved service.ActionResult
	parseResponse(t, w, &moved)
	assert.Equal(t, board.Position{X: 4, Y: 7}, moved.State.Positions[engine.Human])
	assert.Equal(t, engine.PhasePlacement, moved.State.Phase)

	w = serve(server, makeRequest("POST", base+"/direction", map[string]string{"direction": "up"}))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var placed service.ActionResult
	parseResponse(t, w, &placed)
	assert.Contains(t, placed.State.Board.Obstacles, board.Position{X: 4, Y: 6})

	// the computer's zero-delay turn ran inline
	assert.Equal(t, engine.Human, placed.State.Active)
	assert.Equal(t, 3, placed.State.Turn)

	w = serve(server, makeRequest("GET", base+"/history?order=asc", nil))
	require.Equal(t, http.StatusOK, w.Code)
	var history service.HistoryResponse
	parseResponse(t, w, &history)
	assert.Greater(t, history.TotalEntries, 3)

	w = serve(server, makeRequest("DELETE", base, nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, http.StatusNotFound, serve(server, makeRequest("GET", base+"/state", nil)).Code)
}
