// Package mcp exposes nine-nine to AI agents over the Model Context Protocol.
//
// The Client is a thin proxy: every tool calls the REST API of a running
// server and renders the JSON answer as text, with the board drawn as a 9x9
// grid of '.', '#' and the two piece marks.
//
// MCP Tools:
//   - create_session, list_sessions, get_session
//   - match_state: board, active side, phase, dice and enabled directions
//   - roll_dice, select_direction, choose_five_option
//   - activate_skill, select_zodiac (vsplayer rule sets)
//   - reset_game, match_history, list_configs
//   - game_instructions: the complete rules
//
// Usage:
//
//	client := mcp.NewClient("http://localhost:8080")
//	if err := client.Run(); err != nil { // serves stdio
//		log.Fatal(err)
//	}
package mcp
