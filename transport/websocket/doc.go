// Package websocket streams match events to browsers watching a session.
//
// The Hub implements service.Presenter. Every transition the game service
// settles is published as one message carrying the events in order and the
// resulting snapshot:
//
//	{"session_id": "ab12", "event": "transition", "events": [...], "state": {...}}
//
// A client subscribes with /ws?session=ID and first receives a "snapshot"
// message with the current state. Publish never blocks the caller: messages
// beyond the hub's queue are dropped with a warning, and a client whose own
// buffer is full is disconnected.
//
// Usage:
//
//	hub := websocket.NewHub(allowedOrigins...)
//	go hub.Run()
//	defer hub.Stop()
//
//	gameService := service.NewGameService(sessions, configs, service.WithPresenter(hub))
//
// Origins are checked against the allow-list given to NewHub; an empty list
// accepts every origin.
package websocket
