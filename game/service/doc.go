// Package service provides the business logic layer for nine-nine.
//
// The service sits between the transports (HTTP, WebSocket, MCP) and the
// engines. It owns everything an engine deliberately leaves out:
//   - Multi-session management and rule-set selection
//   - Serialising input, scheduled steps and clock ticks per session
//   - Running delayed continuations through a Scheduler
//   - Running the match countdown, restarted on every reset
//   - Fanning transition events out to a Presenter
//   - Paginated match history
//
// Core Interfaces:
//
// GameService is the main service interface providing high-level operations.
// SessionManager stores sessions. ConfigManager loads and saves rule sets.
// Scheduler abstracts timers; NewScheduler uses the runtime timers and
// ManualScheduler is driven explicitly by tests.
//
// Usage:
//
//	sessionMgr := session.NewManager()
//	configMgr, _ := config.NewManager("configs")
//	hub := websocket.NewHub()
//	gameService := service.NewGameService(sessionMgr, configMgr, service.WithPresenter(hub))
//
//	info, err := gameService.CreateSession(ctx, "classic")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	result, err := gameService.RequestRoll(ctx, info.ID, engine.Human)
//
// Engine rejections (engine.ErrNotYourTurn, engine.ErrWrongPhase, ...) are
// returned unchanged so callers can match them with errors.Is.
package service
