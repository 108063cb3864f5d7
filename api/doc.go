// Package api provides the HTTP REST API for nine-nine.
//
// Endpoints:
//
// Session Management:
//   - POST /api/sessions - Create a session {config_id}
//   - GET /api/sessions - List sessions (?sort=created|accessed&order=asc|desc&limit=N)
//   - GET /api/sessions/{id} - Session info with the current snapshot
//   - DELETE /api/sessions/{id} - Delete a session and stop its timers
//
// Match Operations:
//   - GET /api/sessions/{id}/state - Current snapshot
//   - POST /api/sessions/{id}/roll - {player}
//   - POST /api/sessions/{id}/direction - {player, direction}
//   - POST /api/sessions/{id}/five-option - {player, choice: "1"|"2"|"move"|"place"}
//   - POST /api/sessions/{id}/skill - {player, skill: "dice_up"|"dice_down"|"zodiac"}
//   - POST /api/sessions/{id}/zodiac - {player, zodiac}
//   - POST /api/sessions/{id}/reset - Abandon the match and start a new one
//   - GET /api/sessions/{id}/history - Paginated history (?page&limit&order)
//
// Configuration:
//   - GET /api/configs - List rule sets
//   - POST /api/configs - Save a rule set {id, ...fields}
//   - GET /api/configs/{name} - Load a rule set
//   - GET /api/zodiac - Zodiac skill catalog
//
// Other:
//   - GET /ws?session=ID - Event stream (see transport/websocket)
//   - GET /healthz - Health check
//
// The player field accepts a side name (human, computer, player1, player2) or
// "1" and "2" for the first and second side of the session's mode. In vscom an
// empty player means the human.
//
// Status codes:
//
//	200/201  action applied, body is an ActionResult or the requested resource
//	400      malformed body, unknown direction, side, skill or option
//	404      unknown session or rule set
//	409      action rejected by the rules (not your turn, wrong phase, ...)
//
// Errors are returned as {"error": "..."}.
package api
