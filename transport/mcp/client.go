package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/wricardo/nine-nine/game/board"
	"github.com/wricardo/nine-nine/game/engine"
	"github.com/wricardo/nine-nine/game/service"
)

// Client is a thin MCP client that proxies to the REST API
type Client struct {
	baseURL    string
	httpClient *http.Client
	mcpServer  *server.MCPServer
}

// NewClient creates a new MCP client that calls the REST API
func NewClient(baseURL string) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}

	c.initMCPServer()
	return c
}

var serverInstructions = heredoc.Doc(`
	Nine-Nine - MCP Interface

	This is a thin client that proxies all requests to the REST API server.

	Two tokens share a 9x9 board. On your turn you roll the dice, move that many
	cells in a straight line and then drop an obstacle next to your token. A
	token that leaves the board, or a player with nowhere to go, loses.

	AVAILABLE TOOLS:
	- create_session / list_sessions / get_session: manage sessions
	- match_state: board, phase, dice and the directions you may pick
	- roll_dice, select_direction, choose_five_option: play a turn
	- activate_skill, select_zodiac: spend points (vsplayer rule sets)
	- reset_game, match_history, list_configs
	- game_instructions: the complete rules

	Always read enabled directions from match_state before choosing one.
`)

// initMCPServer initializes the MCP server with all tools
func (c *Client) initMCPServer() {
	c.mcpServer = server.NewMCPServer(
		"Nine-Nine",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithInstructions(serverInstructions),
	)

	c.registerTools()
}

func stringProp(description string) map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": description,
	}
}

func enumProp(description string, values ...string) map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": description,
		"enum":        values,
	}
}

var (
	sessionProp = stringProp("Session ID")
	playerProp  = stringProp("Acting side: human, player1, player2, or 1/2 for the first/second side. Defaults to the human in vscom.")
)

// registerTools registers all MCP tools
func (c *Client) registerTools() {
	// Session management
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "create_session",
		Description: "Create a new game session and start its first match",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"config_id": stringProp("Rule set to use (optional, see list_configs)"),
			},
		},
	}, c.handleCreateSession)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_sessions",
		Description: "List all active game sessions",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleListSessions)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "get_session",
		Description: "Get details of a specific session",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{"session_id": sessionProp},
			Required:   []string{"session_id"},
		},
	}, c.handleGetSession)

	// Match operations
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "match_state",
		Description: "Get the board, the active side, the phase and the enabled directions",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{"session_id": sessionProp},
			Required:   []string{"session_id"},
		},
	}, c.handleMatchState)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "roll_dice",
		Description: "Roll the dice to start your turn",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionProp,
				"player":     playerProp,
			},
			Required: []string{"session_id"},
		},
	}, c.handleRollDice)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "select_direction",
		Description: "Move your token (movement phase) or place an obstacle (placement phase)",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionProp,
				"player":     playerProp,
				"direction": enumProp("Direction to move or place in",
					"up", "down", "left", "right", "up-left", "up-right", "down-left", "down-right"),
			},
			Required: []string{"session_id", "direction"},
		},
	}, c.handleSelectDirection)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "choose_five_option",
		Description: "After rolling the five-choice value: move then place, or place in any of eight directions",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionProp,
				"player":     playerProp,
				"choice":     enumProp("move (1) or place (2)", "move", "place", "1", "2"),
			},
			Required: []string{"session_id", "choice"},
		},
	}, c.handleFiveOption)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "activate_skill",
		Description: "Spend points on a skill during your own turn (vsplayer only)",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionProp,
				"player":     playerProp,
				"skill":      enumProp("Skill to activate", string(engine.SkillDiceUp), string(engine.SkillDiceDown), string(engine.SkillZodiac)),
			},
			Required: []string{"session_id", "player", "skill"},
		},
	}, c.handleActivateSkill)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "select_zodiac",
		Description: "Choose the zodiac skill used by activate_skill zodiac (vsplayer only)",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionProp,
				"player":     playerProp,
				"zodiac":     stringProp("Zodiac name or glyph from the catalog"),
			},
			Required: []string{"session_id", "player", "zodiac"},
		},
	}, c.handleSelectZodiac)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "reset_game",
		Description: "Abandon the current match and start a new one",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{"session_id": sessionProp},
			Required:   []string{"session_id"},
		},
	}, c.handleReset)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "match_history",
		Description: "Get the recorded actions of every match in the session",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionProp,
				"page": map[string]interface{}{
					"type":        "number",
					"description": "Page number (default 1)",
				},
				"limit": map[string]interface{}{
					"type":        "number",
					"description": "Entries per page (default 20, max 100)",
				},
				"order": enumProp("Sort order (default desc)", "asc", "desc"),
			},
			Required: []string{"session_id"},
		},
	}, c.handleMatchHistory)

	// Configuration
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_configs",
		Description: "List available rule sets",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleListConfigs)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "game_instructions",
		Description: "Get the complete rules of both game modes",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleGameInstructions)
}

// GetMCPServer returns the underlying MCP server
func (c *Client) GetMCPServer() *server.MCPServer {
	return c.mcpServer
}

// Run serves the tools over stdio until the client disconnects
func (c *Client) Run() error {
	return server.ServeStdio(c.mcpServer)
}

// Helper methods for API calls

func (c *Client) apiCall(ctx context.Context, method, path string, body interface{}, result interface{}) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reqBody = bytes.NewBuffer(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return err
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var errResp map[string]string
		json.NewDecoder(resp.Body).Decode(&errResp)
		if msg, ok := errResp["error"]; ok {
			return fmt.Errorf("%s", msg)
		}
		return fmt.Errorf("API error: %d", resp.StatusCode)
	}

	if result != nil {
		return json.NewDecoder(resp.Body).Decode(result)
	}

	return nil
}

func arguments(request mcp.CallToolRequest) map[string]interface{} {
	if args, ok := request.Params.Arguments.(map[string]interface{}); ok {
		return args
	}
	return map[string]interface{}{}
}

func stringArg(args map[string]interface{}, key string) string {
	switch v := args[key].(type) {
	case string:
		return strings.TrimSpace(v)
	case float64:
		return fmt.Sprintf("%d", int(v))
	}
	return ""
}

func sessionPath(sessionID, suffix string) string {
	return "/api/sessions/" + url.PathEscape(sessionID) + suffix
}

// Tool handlers

func (c *Client) handleCreateSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)

	body := map[string]string{}
	if configID := stringArg(args, "config_id"); configID != "" {
		body["config_id"] = configID
	}

	var session service.SessionInfo
	if err := c.apiCall(ctx, "POST", "/api/sessions", body, &session); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatSessionInfo(&session)), nil
}

func (c *Client) handleListSessions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var response struct {
		Count    int                   `json:"count"`
		Sessions []service.SessionInfo `json:"sessions"`
	}

	if err := c.apiCall(ctx, "GET", "/api/sessions", nil, &response); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Active Sessions (%d):\n\n", response.Count)
	for _, s := range response.Sessions {
		fmt.Fprintf(&b, "- %s (Config: %s, Mode: %s, Created: %s)\n",
			s.ID, s.ConfigName, s.Mode, s.CreatedAt.Format("15:04:05"))
	}

	return mcp.NewToolResultText(b.String()), nil
}

func (c *Client) handleGetSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID := stringArg(arguments(request), "session_id")

	var session service.SessionInfo
	if err := c.apiCall(ctx, "GET", sessionPath(sessionID, ""), nil, &session); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatSessionInfo(&session)), nil
}

func (c *Client) handleMatchState(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID := stringArg(arguments(request), "session_id")

	var state engine.Snapshot
	if err := c.apiCall(ctx, "GET", sessionPath(sessionID, "/state"), nil, &state); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatSnapshot(&state)), nil
}

// action posts a match action and formats its result
func (c *Client) action(ctx context.Context, request mcp.CallToolRequest, suffix string, fields ...string) (*mcp.CallToolResult, error) {
	args := arguments(request)
	sessionID := stringArg(args, "session_id")

	body := map[string]string{"player": stringArg(args, "player")}
	for _, field := range fields {
		body[field] = stringArg(args, field)
	}

	var result service.ActionResult
	if err := c.apiCall(ctx, "POST", sessionPath(sessionID, suffix), body, &result); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatActionResult(&result)), nil
}

func (c *Client) handleRollDice(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return c.action(ctx, request, "/roll")
}

func (c *Client) handleSelectDirection(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return c.action(ctx, request, "/direction", "direction")
}

func (c *Client) handleFiveOption(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return c.action(ctx, request, "/five-option", "choice")
}

func (c *Client) handleActivateSkill(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return c.action(ctx, request, "/skill", "skill")
}

func (c *Client) handleSelectZodiac(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return c.action(ctx, request, "/zodiac", "zodiac")
}

func (c *Client) handleReset(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID := stringArg(arguments(request), "session_id")

	var result service.ActionResult
	if err := c.apiCall(ctx, "POST", sessionPath(sessionID, "/reset"), nil, &result); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText("Match reset\n\n" + formatActionResult(&result)), nil
}

func (c *Client) handleMatchHistory(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	sessionID := stringArg(args, "session_id")

	params := url.Values{}
	if page, ok := args["page"].(float64); ok {
		params.Set("page", fmt.Sprintf("%d", int(page)))
	}
	if limit, ok := args["limit"].(float64); ok {
		params.Set("limit", fmt.Sprintf("%d", int(limit)))
	}
	if order := stringArg(args, "order"); order != "" {
		params.Set("order", order)
	}

	path := sessionPath(sessionID, "/history")
	if len(params) > 0 {
		path += "?" + params.Encode()
	}

	var history service.HistoryResponse
	if err := c.apiCall(ctx, "GET", path, nil, &history); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatHistory(&history)), nil
}

func (c *Client) handleListConfigs(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var configs []service.ConfigInfo
	if err := c.apiCall(ctx, "GET", "/api/configs", nil, &configs); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var b strings.Builder
	b.WriteString("Available Rule Sets:\n\n")
	for _, config := range configs {
		fmt.Fprintf(&b, "• %s (config_id: %s)\n  %s\n  Mode: %s, Dice: 1-%d",
			config.Name, config.ConfigID, config.Description, config.Mode, config.DiceFaces)
		if config.TimeLimitSeconds > 0 {
			fmt.Fprintf(&b, ", Time limit: %s", formatClock(config.TimeLimitSeconds))
		}
		if config.Scripted {
			b.WriteString(", Scripted opponent")
		}
		b.WriteString("\n\n")
	}

	return mcp.NewToolResultText(b.String()), nil
}

var gameInstructions = heredoc.Doc(`
	Nine-Nine - Complete Instructions

	BOARD:
	A 9x9 grid. x grows to the right (0-8), y grows downwards (0-8).
	Each side has one token. Obstacles (#) are permanent and block movement
	and placement.

	A TURN:
	1. roll_dice: the dice decides how far you move.
	2. select_direction: move exactly that many cells in a straight line.
	   Only directions whose first cell is free are enabled. If the walk hits
	   an obstacle or the other token it stops just before it. Leaving the
	   board loses the match, except on the edge-safe roll (4 in classic):
	   then your token stops on the last cell inside the board.
	3. select_direction again: place an obstacle on a free cell next to you.

	FIVE CHOICE (vscom):
	Rolling the five-choice value asks choose_five_option:
	- move (1): move five cells, then place as usual
	- place (2): skip movement and place in any of the eight directions

	LOSING:
	- Your token leaves the board
	- You have no legal move or no legal placement when you must act
	- The countdown (when the rule set has one) ends the match with no winner
	Every ended match is recorded and a new one starts automatically.

	VSPLAYER POINTS AND SKILLS:
	- Every completed turn earns the turn bonus (10 points in duel)
	- Having only one or two enabled directions earns a choice bonus
	- dice_up / dice_down change your pending roll by one (cost 100)
	- zodiac sets the dice to your selected zodiac value (select_zodiac first)
	Skills are only available on your own turn and never push points below 0.

	PLAYER FIELD:
	vscom: omit it or use "human". vsplayer: "1"/"player1" and "2"/"player2".

	TIPS:
	- Read enabled_directions from match_state before choosing
	- Obstacles next to the opponent reduce their options
	- Keep away from the edges unless you hold the edge-safe roll
`)

func (c *Client) handleGameInstructions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(gameInstructions), nil
}

// Formatting

func formatSessionInfo(session *service.SessionInfo) string {
	return fmt.Sprintf("Session: %s\nConfig: %s\nMode: %s\nCreated: %s\n\n%s",
		session.ID, session.ConfigName, session.Mode,
		session.CreatedAt.Format("2006-01-02 15:04:05"),
		formatSnapshot(session.State))
}

// formatClock renders seconds as mm:ss
func formatClock(seconds int) string {
	return fmt.Sprintf("%02d:%02d", seconds/60, seconds%60)
}

// pieceMark is the board glyph of side: the first letter, or the player number
func pieceMark(side engine.Side) string {
	switch side {
	case engine.Player1:
		return "1"
	case engine.Player2:
		return "2"
	}
	if side == "" {
		return "?"
	}
	return strings.ToUpper(string(side)[:1])
}

func formatBoard(b *board.Board, sides [2]engine.Side) string {
	var out strings.Builder
	out.WriteString("  012345678\n")
	for y := 0; y < board.Size; y++ {
		fmt.Fprintf(&out, "%d ", y)
		for x := 0; x < board.Size; x++ {
			p := board.Position{X: x, Y: y}
			switch {
			case b.Pieces[0] == p:
				out.WriteString(pieceMark(sides[0]))
			case b.Pieces[1] == p:
				out.WriteString(pieceMark(sides[1]))
			case b.HasObstacle(p):
				out.WriteString("#")
			default:
				out.WriteString(".")
			}
		}
		out.WriteString("\n")
	}
	return out.String()
}

func formatSnapshot(state *engine.Snapshot) string {
	if state == nil {
		return "No match state available"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Match %d (%s) | Turn %d | Active: %s | Phase: %s",
		state.Match, state.Mode, state.Turn, state.Active, state.Phase)
	if state.Dice > 0 {
		fmt.Fprintf(&b, " | Dice: %d", state.Dice)
	}
	if state.TimeRemaining > 0 {
		fmt.Fprintf(&b, " | Time: %s", formatClock(state.TimeRemaining))
	}
	b.WriteString("\n")

	for _, side := range state.Sides {
		pos := state.Positions[side]
		fmt.Fprintf(&b, "%s (%s) at (%d,%d)", side, pieceMark(side), pos.X, pos.Y)
		if state.Points != nil {
			fmt.Fprintf(&b, " points=%d", state.Points[side])
		}
		if next, ok := state.NextDice[side]; ok && next > 0 {
			fmt.Fprintf(&b, " next=%d", next)
		}
		if zodiac := state.Zodiac[side]; zodiac != "" {
			fmt.Fprintf(&b, " zodiac=%s", zodiac)
		}
		b.WriteString("\n")
	}
	b.WriteString("\n")

	if state.Board != nil {
		b.WriteString(formatBoard(state.Board, state.Sides))
	}

	if len(state.EnabledDirections) > 0 {
		names := make([]string, len(state.EnabledDirections))
		for i, d := range state.EnabledDirections {
			names[i] = string(d)
		}
		fmt.Fprintf(&b, "\nEnabled directions: %s\n", strings.Join(names, ", "))
	}
	if state.Busy {
		b.WriteString("\nWaiting for the opponent's scheduled step\n")
	}
	if state.LastOutcome != nil {
		fmt.Fprintf(&b, "\nLast match: %s\n", state.LastOutcome.Message)
	}

	return b.String()
}

func describeEvent(e engine.Event) string {
	switch e.Type {
	case engine.EventDiceResult:
		return fmt.Sprintf("%s rolled %d", e.Side, e.Dice)
	case engine.EventTurnIndicator:
		return fmt.Sprintf("turn %d: %s", e.Turn, e.Side)
	case engine.EventPlacementSound:
		if e.Position != nil {
			return fmt.Sprintf("%s placed an obstacle at (%d,%d)", e.Side, e.Position.X, e.Position.Y)
		}
	case engine.EventPointDelta:
		return fmt.Sprintf("%s +%d points (%d)", e.Side, e.Delta, e.Points)
	case engine.EventSkillUsed:
		return fmt.Sprintf("%s used %s", e.Side, e.Skill)
	case engine.EventChoicePrompt:
		return fmt.Sprintf("%s must choose: move or place", e.Side)
	case engine.EventOutcome:
		if e.Outcome != nil {
			return "match over: " + e.Outcome.Message
		}
	case engine.EventReset:
		return "new match started"
	}
	return ""
}

func formatActionResult(result *service.ActionResult) string {
	var b strings.Builder
	for _, e := range result.Events {
		if line := describeEvent(e); line != "" {
			fmt.Fprintf(&b, "- %s\n", line)
		}
	}
	if b.Len() > 0 {
		b.WriteString("\n")
	}

	b.WriteString(formatSnapshot(&result.State))

	if result.Pending != nil {
		fmt.Fprintf(&b, "\nNext scheduled step: %s in %s\n", result.Pending.Step, result.Pending.Delay)
	}
	return b.String()
}

func formatHistory(history *service.HistoryResponse) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Match History (Page %d/%d) - Total entries: %d\n\n",
		history.Page, history.TotalPages, history.TotalEntries)

	for _, entry := range history.Entries {
		fmt.Fprintf(&b, "%d. [match %d, turn %d] %s %s", entry.Number, entry.Match, entry.Turn, entry.Side, entry.Action)
		if entry.Dice > 0 {
			fmt.Fprintf(&b, " dice=%d", entry.Dice)
		}
		if entry.Direction != "" {
			fmt.Fprintf(&b, " %s", entry.Direction)
		}
		if entry.To != nil {
			fmt.Fprintf(&b, " -> (%d,%d)", entry.To.X, entry.To.Y)
		}
		if entry.Detail != "" {
			fmt.Fprintf(&b, " (%s)", entry.Detail)
		}
		b.WriteString("\n")
	}

	return b.String()
}
