package gamemaster

import (
	"errors"
	"fmt"
	"sync"

	"checkers/config"
	"checkers/engine"
	"checkers/game"
	"checkers/searcher"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

var ErrSessionNotFound = errors.New("game not found")

// session serializes every access to one engine. Views are pushed to
// subscribers after each change and each simulator progress update.
type session struct {
	id        string
	mu        sync.Mutex
	engine    *engine.Engine
	simulator *searcher.Simulator

	subMu       sync.Mutex
	nextSub     int
	subscribers map[int]chan engine.View
}

// do runs fn against the engine and broadcasts the resulting view.
func (s *session) do(fn func(e *engine.Engine) (bool, error)) (bool, engine.View, error) {
	s.mu.Lock()
	ok, err := fn(s.engine)
	view := s.engine.View()
	s.mu.Unlock()

	if err == nil {
		s.broadcast(view)
	}
	return ok, view, err
}

func (s *session) view() engine.View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.engine.View()
}

func (s *session) subscribe() (int, <-chan engine.View) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	id := s.nextSub
	s.nextSub++
	ch := make(chan engine.View, 8)
	s.subscribers[id] = ch
	return id, ch
}

func (s *session) unsubscribe(id int) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	if ch, ok := s.subscribers[id]; ok {
		delete(s.subscribers, id)
		close(ch)
	}
}

// broadcast never blocks: a subscriber that is behind misses intermediate views.
func (s *session) broadcast(v engine.View) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	for id, ch := range s.subscribers {
		select {
		case ch <- v:
		default:
			log.Debug().Str("game", s.id).Int("subscriber", id).Msg("dropping view for slow subscriber")
		}
	}
}

func (s *session) close() {
	s.simulator.Reset()
	s.subMu.Lock()
	defer s.subMu.Unlock()
	for id, ch := range s.subscribers {
		delete(s.subscribers, id)
		close(ch)
	}
}

// CreateRequest overrides the configured game settings for one game.
type CreateRequest struct {
	Mode       string `json:"mode"`
	Difficulty string `json:"difficulty"`
	AIColor    string `json:"ai_color"`
}

func (r CreateRequest) apply(settings config.Game) (config.Game, error) {
	var err error
	if r.Mode != "" {
		if settings.Mode, err = engine.ParseMode(r.Mode); err != nil {
			return settings, err
		}
	}
	if r.Difficulty != "" {
		if settings.Difficulty, err = searcher.ParseDifficulty(r.Difficulty); err != nil {
			return settings, err
		}
	}
	if r.AIColor != "" {
		if settings.AIColor, err = game.ParseColor(r.AIColor); err != nil {
			return settings, err
		}
	}
	return settings, nil
}

// Manager holds the live game sessions keyed by id.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*session
	settings config.Game
	reporter engine.Reporter
}

func NewManager(settings config.Game, reporter engine.Reporter) *Manager {
	return &Manager{
		sessions: make(map[string]*session),
		settings: settings,
		reporter: reporter,
	}
}

func (m *Manager) Create(req CreateRequest) (*session, error) {
	settings, err := req.apply(m.settings)
	if err != nil {
		return nil, fmt.Errorf("cannot create game: %w", err)
	}

	s := &session{
		id:          uuid.New().String(),
		subscribers: make(map[int]chan engine.View),
	}
	s.simulator = searcher.NewSimulator(
		searcher.WithBatchSize(settings.BatchSize),
		searcher.WithDrawCap(settings.DrawCap),
		searcher.WithOnUpdate(func(searcher.Result) {
			s.broadcast(s.view())
		}),
	)

	options := []engine.Option{
		engine.WithMode(settings.Mode),
		engine.WithEstimator(s.simulator),
	}
	if m.reporter != nil {
		options = append(options, engine.WithReporter(m.reporter))
	}
	switch settings.Mode {
	case engine.HumanVsAI:
		options = append(options, engine.WithAI(settings.AIColor, settings.Difficulty))
	case engine.AIVsAI:
		options = append(options,
			engine.WithAI(game.Red, settings.Difficulty),
			engine.WithAI(game.White, settings.Difficulty),
		)
	}

	e, err := engine.New(options...)
	if err != nil {
		return nil, fmt.Errorf("cannot create game: %w", err)
	}
	s.engine = e

	s.mu.Lock()
	e.Start()
	s.mu.Unlock()

	m.mu.Lock()
	m.sessions[s.id] = s
	m.mu.Unlock()

	log.Info().Str("game", s.id).Str("mode", settings.Mode.String()).Msg("game created")
	return s, nil
}

func (m *Manager) Get(id string) (*session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%s: %w", id, ErrSessionNotFound)
	}
	return s, nil
}

func (m *Manager) Delete(id string) error {
	m.mu.Lock()
	s, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()
	if !ok {
		return fmt.Errorf("%s: %w", id, ErrSessionNotFound)
	}
	s.close()
	log.Info().Str("game", id).Msg("game deleted")
	return nil
}

func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}
