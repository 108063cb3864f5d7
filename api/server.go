package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/wricardo/nine-nine/game/board"
	"github.com/wricardo/nine-nine/game/config"
	"github.com/wricardo/nine-nine/game/engine"
	"github.com/wricardo/nine-nine/game/service"
	"github.com/wricardo/nine-nine/game/session"
	"github.com/wricardo/nine-nine/transport/websocket"
)

// maxConfigBody bounds rule sets posted to /api/configs
const maxConfigBody = 1 << 20

// Server represents the REST API server
type Server struct {
	service        service.GameService
	hub            *websocket.Hub
	router         *mux.Router
	allowedOrigins map[string]bool
}

// NewServer creates a new API server. Cross-origin requests are answered for
// the given origins only.
func NewServer(gameService service.GameService, hub *websocket.Hub, allowedOrigins ...string) *Server {
	s := &Server{
		service:        gameService,
		hub:            hub,
		router:         mux.NewRouter(),
		allowedOrigins: make(map[string]bool),
	}
	for _, origin := range allowedOrigins {
		if origin = strings.TrimSpace(origin); origin != "" {
			s.allowedOrigins[origin] = true
		}
	}

	s.setupRoutes()
	return s
}

// setupRoutes configures all API routes
func (s *Server) setupRoutes() {
	s.router.Use(s.cors)

	api := s.router.PathPrefix("/api").Subrouter()

	// Session management
	api.HandleFunc("/sessions", s.handleCreateSession).Methods("POST")
	api.HandleFunc("/sessions", s.handleListSessions).Methods("GET")
	api.HandleFunc("/sessions/{id}", s.handleGetSession).Methods("GET")
	api.HandleFunc("/sessions/{id}", s.handleDeleteSession).Methods("DELETE")

	// Match operations
	api.HandleFunc("/sessions/{id}/state", s.handleGetGameState).Methods("GET")
	api.HandleFunc("/sessions/{id}/roll", s.handleRoll).Methods("POST")
	api.HandleFunc("/sessions/{id}/direction", s.handleDirection).Methods("POST")
	api.HandleFunc("/sessions/{id}/five-option", s.handleFiveOption).Methods("POST")
	api.HandleFunc("/sessions/{id}/skill", s.handleSkill).Methods("POST")
	api.HandleFunc("/sessions/{id}/zodiac", s.handleZodiac).Methods("POST")
	api.HandleFunc("/sessions/{id}/reset", s.handleReset).Methods("POST")
	api.HandleFunc("/sessions/{id}/history", s.handleGetHistory).Methods("GET")

	// Configuration
	api.HandleFunc("/configs", s.handleListConfigs).Methods("GET")
	api.HandleFunc("/configs", s.handleCreateConfig).Methods("POST")
	api.HandleFunc("/configs/{name}", s.handleGetConfig).Methods("GET")
	api.HandleFunc("/zodiac", s.handleZodiacCatalog).Methods("GET")

	// Preflight for every API route
	api.PathPrefix("/").Methods("OPTIONS").HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	s.router.HandleFunc("/ws", s.handleWebSocket)
	s.router.HandleFunc("/healthz", s.handleHealth).Methods("GET")

	// Static files (if needed)
	s.router.PathPrefix("/").Handler(http.FileServer(http.Dir("./static/")))
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// cors echoes allowed origins back to the browser
func (s *Server) cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if origin := r.Header.Get("Origin"); origin != "" && s.allowedOrigins[origin] {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Vary", "Origin")
			if r.Method == http.MethodOptions {
				w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
				w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
			}
		}
		next.ServeHTTP(w, r)
	})
}

// Response helpers
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// respondServiceError maps service errors to status codes
func respondServiceError(w http.ResponseWriter, err error) {
	respondError(w, statusFor(err), err.Error())
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, session.ErrSessionNotFound),
		errors.Is(err, service.ErrSessionClosed),
		errors.Is(err, service.ErrConfigNotFound):
		return http.StatusNotFound
	case errors.Is(err, board.ErrUnknownDirection),
		errors.Is(err, engine.ErrUnknownSide),
		errors.Is(err, engine.ErrUnknownSkill),
		errors.Is(err, engine.ErrInvalidOption),
		errors.Is(err, config.ErrInvalidConfig):
		return http.StatusBadRequest
	case errors.Is(err, engine.ErrNotYourTurn),
		errors.Is(err, engine.ErrWrongPhase),
		errors.Is(err, engine.ErrIllegalMove),
		errors.Is(err, engine.ErrIllegalPlacement),
		errors.Is(err, engine.ErrBusy),
		errors.Is(err, engine.ErrInsufficientPoints),
		errors.Is(err, engine.ErrSkillUnavailable),
		errors.Is(err, engine.ErrStaleContinuation),
		errors.Is(err, engine.ErrUnsupported):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

// actionRequest is the body shared by every match action
type actionRequest struct {
	Player    string `json:"player"`
	Direction string `json:"direction,omitempty"`
	Choice    string `json:"choice,omitempty"`
	Skill     string `json:"skill,omitempty"`
	Zodiac    string `json:"zodiac,omitempty"`
}

// resolveSide maps the player field to a side of mode. "1" and "2" name the
// first and second side in board order; an empty player is the human in vscom.
func resolveSide(mode engine.Mode, player string) engine.Side {
	sides := engine.SidesFor(mode)
	normalized := strings.ToLower(strings.TrimSpace(player))
	switch normalized {
	case "1":
		return sides[0]
	case "2":
		return sides[1]
	case "":
		if mode == engine.ModeVsCom {
			return engine.Human
		}
	}
	return engine.Side(normalized)
}

// decodeAction reads the request body and resolves the acting side
func (s *Server) decodeAction(w http.ResponseWriter, r *http.Request) (string, engine.Side, *actionRequest, bool) {
	sessionID := mux.Vars(r)["id"]

	req := &actionRequest{}
	if r.Body != nil {
		if err := json.NewDecoder(r.Body).Decode(req); err != nil && !errors.Is(err, io.EOF) {
			respondError(w, http.StatusBadRequest, "Invalid request body")
			return "", "", nil, false
		}
	}

	info, err := s.service.GetSession(r.Context(), sessionID)
	if err != nil {
		respondServiceError(w, err)
		return "", "", nil, false
	}

	return sessionID, resolveSide(info.Mode, req.Player), req, true
}

func (s *Server) respondAction(w http.ResponseWriter, action string, result *service.ActionResult, err error) {
	if err != nil {
		respondServiceError(w, err)
		return
	}

	logrus.WithFields(logrus.Fields{
		"session": result.SessionID,
		"action":  action,
		"turn":    result.State.Turn,
		"phase":   result.State.Phase,
		"events":  len(result.Events),
	}).Debug("action applied")

	respondJSON(w, http.StatusOK, result)
}

// Session Handlers

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ConfigID string `json:"config_id,omitempty"`
	}

	if r.Body != nil {
		json.NewDecoder(r.Body).Decode(&req)
	}

	info, err := s.service.CreateSession(r.Context(), req.ConfigID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, info)
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	sessions, err := s.service.ListSessions(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	total := len(sessions)

	// Parse query parameters
	query := r.URL.Query()
	sortBy := query.Get("sort")    // "created", "accessed" (default)
	order := query.Get("order")    // "asc", "desc" (default: "desc")
	limitStr := query.Get("limit") // number of sessions to return

	if sortBy == "" {
		sortBy = "accessed"
	}
	if order == "" {
		order = "desc"
	}

	sort.Slice(sessions, func(i, j int) bool {
		var ti, tj time.Time
		if sortBy == "created" {
			ti, tj = sessions[i].CreatedAt, sessions[j].CreatedAt
		} else {
			ti, tj = sessions[i].LastAccessedAt, sessions[j].LastAccessedAt
		}

		if order == "asc" {
			return ti.Before(tj)
		}
		return ti.After(tj)
	})

	limit := len(sessions)
	if limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 && l < len(sessions) {
			limit = l
		}
	}
	sessions = sessions[:limit]

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"count":    len(sessions),
		"total":    total,
		"sessions": sessions,
		"sort":     sortBy,
		"order":    order,
	})
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	info, err := s.service.GetSession(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, info)
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	if err := s.service.DeleteSession(r.Context(), sessionID); err != nil {
		respondServiceError(w, err)
		return
	}

	if s.hub != nil {
		s.hub.BroadcastEvent(sessionID, "session_deleted", sessionID)
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"message": fmt.Sprintf("Session %s deleted", sessionID),
	})
}

// Match Handlers

func (s *Server) handleGetGameState(w http.ResponseWriter, r *http.Request) {
	state, err := s.service.GetGameState(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, state)
}

func (s *Server) handleRoll(w http.ResponseWriter, r *http.Request) {
	sessionID, side, _, ok := s.decodeAction(w, r)
	if !ok {
		return
	}
	result, err := s.service.RequestRoll(r.Context(), sessionID, side)
	s.respondAction(w, "roll", result, err)
}

func (s *Server) handleDirection(w http.ResponseWriter, r *http.Request) {
	sessionID, side, req, ok := s.decodeAction(w, r)
	if !ok {
		return
	}
	if req.Direction == "" {
		respondError(w, http.StatusBadRequest, "direction is required")
		return
	}
	result, err := s.service.SelectDirection(r.Context(), sessionID, side, req.Direction)
	s.respondAction(w, "direction", result, err)
}

func (s *Server) handleFiveOption(w http.ResponseWriter, r *http.Request) {
	sessionID, side, req, ok := s.decodeAction(w, r)
	if !ok {
		return
	}
	if req.Choice == "" {
		respondError(w, http.StatusBadRequest, "choice is required")
		return
	}
	result, err := s.service.SelectFiveOption(r.Context(), sessionID, side, req.Choice)
	s.respondAction(w, "five-option", result, err)
}

func (s *Server) handleSkill(w http.ResponseWriter, r *http.Request) {
	sessionID, side, req, ok := s.decodeAction(w, r)
	if !ok {
		return
	}
	if req.Skill == "" {
		respondError(w, http.StatusBadRequest, "skill is required")
		return
	}
	result, err := s.service.ActivateSkill(r.Context(), sessionID, side, req.Skill)
	s.respondAction(w, "skill", result, err)
}

func (s *Server) handleZodiac(w http.ResponseWriter, r *http.Request) {
	sessionID, side, req, ok := s.decodeAction(w, r)
	if !ok {
		return
	}
	if req.Zodiac == "" {
		respondError(w, http.StatusBadRequest, "zodiac is required")
		return
	}
	result, err := s.service.SelectZodiac(r.Context(), sessionID, side, req.Zodiac)
	s.respondAction(w, "zodiac", result, err)
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	result, err := s.service.Reset(r.Context(), mux.Vars(r)["id"])
	s.respondAction(w, "reset", result, err)
}

func (s *Server) handleGetHistory(w http.ResponseWriter, r *http.Request) {
	opts := service.HistoryOptions{
		Page:  1,
		Limit: 20,
		Order: "desc",
	}

	query := r.URL.Query()
	if pageStr := query.Get("page"); pageStr != "" {
		if p, err := strconv.Atoi(pageStr); err == nil && p > 0 {
			opts.Page = p
		}
	}

	if limitStr := query.Get("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 {
			opts.Limit = l
		}
	}

	if order := query.Get("order"); order == "asc" || order == "desc" {
		opts.Order = order
	}

	history, err := s.service.GetMatchHistory(r.Context(), mux.Vars(r)["id"], opts)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, history)
}

// Configuration Handlers

func (s *Server) handleListConfigs(w http.ResponseWriter, r *http.Request) {
	configs, err := s.service.ListConfigs(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, configs)
}

func (s *Server) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	gameConfig, err := s.service.LoadConfig(r.Context(), mux.Vars(r)["name"])
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, gameConfig)
}

func (s *Server) handleCreateConfig(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxConfigBody))
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	var req struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(body, &req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.ID == "" {
		respondError(w, http.StatusBadRequest, "Config id is required")
		return
	}

	// Fields left out of the body keep the defaults of the mode
	gameConfig, err := engine.ParseGameConfig(body, "json")
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := s.service.SaveConfig(r.Context(), req.ID, gameConfig); err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, map[string]interface{}{
		"message":   "Configuration saved successfully",
		"config_id": req.ID,
	})
}

func (s *Server) handleZodiacCatalog(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, s.service.ZodiacCatalog(r.Context()))
}

// WebSocket Handler

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("session")
	if sessionID == "" {
		http.Error(w, "session parameter required", http.StatusBadRequest)
		return
	}

	state, err := s.service.GetGameState(r.Context(), sessionID)
	if err != nil {
		http.Error(w, "Invalid session", http.StatusNotFound)
		return
	}

	s.hub.ServeWS(w, r, sessionID, state)
}

// Health check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
	})
}
