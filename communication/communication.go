package communication

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
)

// Outcome is the statistics payload sent once per finished game.
type Outcome struct {
	User       string    `json:"user,omitempty"`
	Win        bool      `json:"win"`
	ReportedAt time.Time `json:"reported_at"`
}

// Stats mirrors a player profile: games played, wins and losses.
type Stats struct {
	GamesPlayed int `json:"games_played"`
	Wins        int `json:"wins"`
	Losses      int `json:"losses"`
}

func (s Stats) add(win bool) Stats {
	s.GamesPlayed++
	if win {
		s.Wins++
	} else {
		s.Losses++
	}
	return s
}

// LogReporter keeps a local tally and logs every outcome.
type LogReporter struct {
	user  string
	mu    sync.Mutex
	stats Stats
}

func NewLogReporter(user string) *LogReporter {
	return &LogReporter{user: user}
}

func (r *LogReporter) ReportOutcome(win bool) error {
	r.mu.Lock()
	r.stats = r.stats.add(win)
	stats := r.stats
	r.mu.Unlock()

	log.Info().
		Str("user", r.user).
		Bool("win", win).
		Int("games", stats.GamesPlayed).
		Int("wins", stats.Wins).
		Int("losses", stats.Losses).
		Msg("game outcome")
	return nil
}

func (r *LogReporter) Stats() Stats {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stats
}

// HTTPReporter posts outcomes as JSON to a statistics service.
type HTTPReporter struct {
	url     string
	user    string
	timeout time.Duration
	local   *LogReporter
}

func NewHTTPReporter(url, user string, timeout time.Duration) *HTTPReporter {
	return &HTTPReporter{
		url:     url,
		user:    user,
		timeout: timeout,
		local:   NewLogReporter(user),
	}
}

func (r *HTTPReporter) ReportOutcome(win bool) error {
	// The local tally is kept even when the service cannot be reached.
	_ = r.local.ReportOutcome(win)

	agent := fiber.Post(r.url).
		JSON(Outcome{User: r.user, Win: win, ReportedAt: time.Now().UTC()})
	if r.timeout > 0 {
		agent = agent.Timeout(r.timeout)
	}
	code, body, errs := agent.Bytes()
	if len(errs) > 0 {
		return fmt.Errorf("cannot report outcome to %s: %w", r.url, errors.Join(errs...))
	}
	if code < fiber.StatusOK || code >= fiber.StatusMultipleChoices {
		return fmt.Errorf("cannot report outcome to %s: status %d: %s", r.url, code, body)
	}
	return nil
}

func (r *HTTPReporter) Stats() Stats {
	return r.local.Stats()
}
