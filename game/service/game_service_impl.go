package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/wricardo/nine-nine/game/board"
	"github.com/wricardo/nine-nine/game/engine"
)

var (
	ErrConfigNotFound = errors.New("configuration not found")
	ErrSessionClosed  = errors.New("session closed")
)

// gameServiceImpl implements the GameService interface
type gameServiceImpl struct {
	sessions  SessionManager
	configs   ConfigManager
	scheduler Scheduler
	presenter Presenter
}

// Option customises the game service
type Option func(*gameServiceImpl)

// WithScheduler replaces the runtime timers used for delayed steps and countdowns
func WithScheduler(scheduler Scheduler) Option {
	return func(s *gameServiceImpl) { s.scheduler = scheduler }
}

// WithPresenter sets the receiver of every transition's events
func WithPresenter(presenter Presenter) Option {
	return func(s *gameServiceImpl) { s.presenter = presenter }
}

// NewGameService creates a new game service instance
func NewGameService(sessions SessionManager, configs ConfigManager, opts ...Option) GameService {
	s := &gameServiceImpl{
		sessions:  sessions,
		configs:   configs,
		scheduler: NewScheduler(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateSession creates a new game session and starts its first match
func (s *gameServiceImpl) CreateSession(ctx context.Context, configID string) (*SessionInfo, error) {
	var config *engine.GameConfig
	var err error
	if configID != "" {
		config, err = s.configs.LoadConfig(configID)
		if err != nil {
			// Provide helpful error message with available options
			if errors.Is(err, ErrConfigNotFound) {
				availableConfigs, listErr := s.configs.ListConfigs()
				if listErr == nil && len(availableConfigs) > 0 {
					var configIDs []string
					for _, cfg := range availableConfigs {
						configIDs = append(configIDs, cfg.ConfigID)
					}
					return nil, fmt.Errorf("config '%s' not found. Available configs: %v: %w", configID, configIDs, err)
				}
				return nil, fmt.Errorf("config '%s' not found. Use /api/configs to list available configurations: %w", configID, err)
			}
			return nil, fmt.Errorf("failed to load config %s: %w", configID, err)
		}
	} else {
		config = s.configs.GetDefault()
		configID = s.configs.DefaultID()
	}

	sess, err := s.sessions.Create("", configID, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	sess.mu.Lock()
	s.startTicker(sess)
	s.settle(sess, sess.Engine.Start())
	sess.mu.Unlock()

	logrus.WithFields(logrus.Fields{
		"session": sess.ID,
		"config":  configID,
		"mode":    config.Mode,
	}).Info("session created")

	return s.info(sess), nil
}

// GetSession retrieves session information
func (s *gameServiceImpl) GetSession(ctx context.Context, sessionID string) (*SessionInfo, error) {
	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("session not found: %w", err)
	}

	s.sessions.UpdateLastAccessed(sessionID)
	return s.info(sess), nil
}

// ListSessions returns all active sessions
func (s *gameServiceImpl) ListSessions(ctx context.Context) ([]*SessionInfo, error) {
	sessions := s.sessions.List()
	result := make([]*SessionInfo, 0, len(sessions))
	for _, sess := range sessions {
		result = append(result, s.info(sess))
	}
	return result, nil
}

// DeleteSession stops a session's timers and removes it
func (s *gameServiceImpl) DeleteSession(ctx context.Context, sessionID string) error {
	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return fmt.Errorf("session not found: %w", err)
	}

	s.shutdown(sess)
	if err := s.sessions.Delete(sessionID); err != nil {
		return fmt.Errorf("session not found: %w", err)
	}

	logrus.WithField("session", sess.ID).Info("session deleted")
	return nil
}

// CleanupExpiredSessions deletes sessions idle for longer than maxAge
func (s *gameServiceImpl) CleanupExpiredSessions(ctx context.Context, maxAge time.Duration) int {
	removed := 0
	for _, sess := range s.sessions.Expired(maxAge) {
		if err := s.DeleteSession(ctx, sess.ID); err != nil {
			logrus.WithError(err).WithField("session", sess.ID).Warn("failed to remove expired session")
			continue
		}
		removed++
	}
	return removed
}

// Close stops the timers of every session
func (s *gameServiceImpl) Close() {
	for _, sess := range s.sessions.List() {
		s.shutdown(sess)
	}
}

// RequestRoll rolls the dice for side
func (s *gameServiceImpl) RequestRoll(ctx context.Context, sessionID string, side engine.Side) (*ActionResult, error) {
	return s.act(sessionID, func(e engine.Engine) (engine.Result, error) {
		return e.RequestRoll(side)
	})
}

// SelectDirection answers a movement or placement prompt
func (s *gameServiceImpl) SelectDirection(ctx context.Context, sessionID string, side engine.Side, direction string) (*ActionResult, error) {
	d, err := board.ParseDirection(direction)
	if err != nil {
		return nil, err
	}
	return s.act(sessionID, func(e engine.Engine) (engine.Result, error) {
		return e.SelectDirection(side, d)
	})
}

// SelectFiveOption answers the five-choice prompt. "1" and "2" are accepted
// for move and place.
func (s *gameServiceImpl) SelectFiveOption(ctx context.Context, sessionID string, side engine.Side, option string) (*ActionResult, error) {
	choice := parseFiveOption(option)
	return s.act(sessionID, func(e engine.Engine) (engine.Result, error) {
		return e.SelectFiveOption(side, choice)
	})
}

// ActivateSkill spends points on a skill
func (s *gameServiceImpl) ActivateSkill(ctx context.Context, sessionID string, side engine.Side, skill string) (*ActionResult, error) {
	name := engine.Skill(strings.ToLower(strings.TrimSpace(skill)))
	return s.act(sessionID, func(e engine.Engine) (engine.Result, error) {
		return e.ActivateSkill(side, name)
	})
}

// SelectZodiac chooses the zodiac skill used by the zodiac action
func (s *gameServiceImpl) SelectZodiac(ctx context.Context, sessionID string, side engine.Side, zodiac string) (*ActionResult, error) {
	return s.act(sessionID, func(e engine.Engine) (engine.Result, error) {
		return e.SelectZodiac(side, strings.TrimSpace(zodiac))
	})
}

// Reset abandons the current match and starts a new one
func (s *gameServiceImpl) Reset(ctx context.Context, sessionID string) (*ActionResult, error) {
	return s.act(sessionID, func(e engine.Engine) (engine.Result, error) {
		return e.Reset(), nil
	})
}

// GetGameState retrieves the current match snapshot
func (s *gameServiceImpl) GetGameState(ctx context.Context, sessionID string) (*engine.Snapshot, error) {
	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("session not found: %w", err)
	}

	s.sessions.UpdateLastAccessed(sessionID)

	sess.mu.Lock()
	state := sess.Engine.Snapshot()
	sess.mu.Unlock()
	return &state, nil
}

// GetMatchHistory returns paginated history across every match of the session
func (s *gameServiceImpl) GetMatchHistory(ctx context.Context, sessionID string, opts HistoryOptions) (*HistoryResponse, error) {
	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("session not found: %w", err)
	}

	sess.mu.Lock()
	history := sess.Engine.History()
	sess.mu.Unlock()
	total := len(history)

	// Apply defaults
	if opts.Page < 1 {
		opts.Page = 1
	}
	if opts.Limit <= 0 {
		opts.Limit = 20
	}
	if opts.Limit > 100 {
		opts.Limit = 100
	}
	if opts.Order == "" {
		opts.Order = "desc"
	}

	// Calculate pagination
	totalPages := (total + opts.Limit - 1) / opts.Limit
	if totalPages == 0 {
		totalPages = 1
	}

	start := (opts.Page - 1) * opts.Limit
	end := start + opts.Limit
	if end > total {
		end = total
	}

	var entries []engine.HistoryEntry
	if opts.Order == "desc" {
		// Most recent first
		for i := total - 1 - start; i >= 0 && i >= total-end; i-- {
			entries = append(entries, history[i])
		}
	} else if start < total {
		entries = history[start:end]
	}

	if entries == nil {
		entries = []engine.HistoryEntry{}
	}

	return &HistoryResponse{
		Entries:      entries,
		TotalEntries: total,
		Page:         opts.Page,
		PageSize:     opts.Limit,
		TotalPages:   totalPages,
		HasNext:      opts.Page < totalPages,
		HasPrevious:  opts.Page > 1,
	}, nil
}

// ListConfigs returns available rule sets
func (s *gameServiceImpl) ListConfigs(ctx context.Context) ([]*ConfigInfo, error) {
	return s.configs.ListConfigs()
}

// LoadConfig loads a specific rule set
func (s *gameServiceImpl) LoadConfig(ctx context.Context, configName string) (*engine.GameConfig, error) {
	return s.configs.LoadConfig(configName)
}

// SaveConfig saves a rule set to disk
func (s *gameServiceImpl) SaveConfig(ctx context.Context, configName string, config *engine.GameConfig) error {
	return s.configs.SaveConfig(configName, config)
}

// ZodiacCatalog lists the zodiac skills players can select
func (s *gameServiceImpl) ZodiacCatalog(ctx context.Context) []engine.ZodiacSkill {
	return engine.ZodiacCatalog()
}

// act runs one player action under the session lock
func (s *gameServiceImpl) act(sessionID string, action func(engine.Engine) (engine.Result, error)) (*ActionResult, error) {
	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("session not found: %w", err)
	}
	s.sessions.UpdateLastAccessed(sessionID)

	sess.mu.Lock()
	defer sess.mu.Unlock()

	if sess.closed {
		return nil, fmt.Errorf("session not found: %w", ErrSessionClosed)
	}

	res, err := action(sess.Engine)
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"session": sess.ID,
			"phase":   sess.Engine.Snapshot().Phase,
		}).WithError(err).Debug("action rejected")
		return nil, err
	}
	return s.settle(sess, res), nil
}

// settle applies the scheduling side of a transition: restarts the countdown
// after a reset, advances zero-delay continuations inline and schedules the
// rest. It publishes the combined events. Callers hold sess.mu.
func (s *gameServiceImpl) settle(sess *Session, res engine.Result) *ActionResult {
	out := &ActionResult{SessionID: sess.ID, Events: []engine.Event{}}

	for {
		out.Events = append(out.Events, res.Events...)
		out.State = res.State
		out.Pending = nil

		if res.Restarted {
			out.Restarted = true
			s.stopStep(sess)
			s.startTicker(sess)
		}

		if res.Next == nil {
			break
		}
		if res.Next.Delay > 0 {
			out.Pending = res.Next
			s.scheduleStep(sess, *res.Next)
			break
		}

		next, err := sess.Engine.Advance(res.Next.Token)
		if err != nil {
			logrus.WithField("session", sess.ID).WithError(err).Warn("continuation rejected")
			break
		}
		res = next
	}

	for _, e := range out.Events {
		if e.Type == engine.EventOutcome && e.Outcome != nil {
			out.Message = e.Message
			logrus.WithFields(logrus.Fields{
				"session": sess.ID,
				"match":   e.Outcome.MatchID,
				"winner":  e.Outcome.Winner,
				"reason":  e.Outcome.Reason,
				"turn":    e.Outcome.Turn,
			}).Info("match concluded")
		}
	}

	if s.presenter != nil {
		s.presenter.Publish(sess.ID, out.Events, out.State)
	}
	return out
}

func (s *gameServiceImpl) scheduleStep(sess *Session, next engine.Continuation) {
	s.stopStep(sess)
	sess.step = s.scheduler.AfterFunc(next.Delay, func() {
		s.fire(sess, next.Token)
	})
}

// fire runs a scheduled continuation
func (s *gameServiceImpl) fire(sess *Session, token uint64) {
	sess.mu.Lock()
	defer sess.mu.Unlock()

	if sess.closed {
		return
	}
	res, err := sess.Engine.Advance(token)
	if err != nil {
		logrus.WithFields(logrus.Fields{"session": sess.ID, "token": token}).WithError(err).Debug("dropping continuation")
		return
	}
	s.settle(sess, res)
}

func (s *gameServiceImpl) stopStep(sess *Session) {
	if sess.step != nil {
		sess.step.Stop()
		sess.step = nil
	}
}

// startTicker replaces the session's countdown ticker. Callers hold sess.mu.
func (s *gameServiceImpl) startTicker(sess *Session) {
	if sess.ticker != nil {
		sess.ticker.Stop()
		sess.ticker = nil
	}
	sess.tickerGen++
	if sess.Config.TimeLimitSeconds == 0 {
		return
	}
	gen := sess.tickerGen
	sess.ticker = s.scheduler.Every(time.Second, func() {
		s.tick(sess, gen)
	})
}

// tick forwards one second to the engine unless the ticker that fired has
// since been replaced.
func (s *gameServiceImpl) tick(sess *Session, gen uint64) {
	sess.mu.Lock()
	defer sess.mu.Unlock()

	if sess.closed || sess.tickerGen != gen {
		return
	}
	res := sess.Engine.Tick()
	if len(res.Events) == 0 {
		return
	}
	s.settle(sess, res)
}

// shutdown stops the session's timers and releases its engine
func (s *gameServiceImpl) shutdown(sess *Session) {
	sess.mu.Lock()
	defer sess.mu.Unlock()

	if sess.closed {
		return
	}
	sess.closed = true
	s.stopStep(sess)
	if sess.ticker != nil {
		sess.ticker.Stop()
		sess.ticker = nil
	}
	sess.Engine.Close()
}

func (s *gameServiceImpl) info(sess *Session) *SessionInfo {
	sess.mu.Lock()
	state := sess.Engine.Snapshot()
	sess.mu.Unlock()

	return &SessionInfo{
		ID:             sess.ID,
		ConfigName:     sess.ConfigID,
		Mode:           sess.Config.Mode,
		CreatedAt:      sess.CreatedAt,
		LastAccessedAt: sess.LastAccessedAt,
		State:          &state,
		GameConfig:     sess.Config,
	}
}

func parseFiveOption(option string) engine.FiveOption {
	switch strings.ToLower(strings.TrimSpace(option)) {
	case "1", "move":
		return engine.FiveMove
	case "2", "place":
		return engine.FivePlace
	}
	return engine.FiveOption(option)
}
