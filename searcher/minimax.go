package searcher

import (
	"fmt"
	"math"

	"checkers/experiments/metrics"
	"checkers/game"
	"checkers/meta"

	"github.com/rs/zerolog/log"
)

type Option func(m *Minimax)

// Minimax is a depth-limited alpha-beta searcher. It only reads the board it is
// given; every candidate move is tried on a private copy.
type Minimax struct {
	depth   int
	metrics metrics.Collector
}

// Decision is the outcome of one search.
type Decision struct {
	Move   game.Move
	Score  float64
	Metric metrics.SearchMetric
}

func WithDepth(depth int) Option {
	return func(m *Minimax) {
		if depth > 0 {
			m.depth = depth
		}
	}
}

func WithDifficulty(d Difficulty) Option {
	return WithDepth(d.Depth())
}

func WithMetrics() Option {
	return func(m *Minimax) {
		m.metrics = metrics.NewCollector()
	}
}

func NewMinimax(options ...Option) *Minimax {
	m := &Minimax{
		depth:   meta.MEDIUM_DEPTH,
		metrics: metrics.NewDummyCollector(),
	}
	for _, option := range options {
		option(m)
	}
	return m
}

func (m *Minimax) Depth() int {
	return m.depth
}

// FindMove searches for the best move of color on b. ok is false when color has
// no legal move. Ties go to the first best move in enumeration order: pieces in
// row-major order, then each piece's moves in generation order.
func (m *Minimax) FindMove(b *game.Board, color game.Color) (Decision, bool) {
	m.metrics.Start(m.depth)
	score, move, ok := m.search(b.Copy(), m.depth, math.Inf(-1), math.Inf(1), true, color)
	decision := Decision{Move: move, Score: score, Metric: m.metrics.Complete()}

	log.Debug().
		Str("color", color.String()).
		Int("depth", m.depth).
		Float64("score", score).
		Bool("found", ok).
		Int("nodes", decision.Metric.Nodes).
		Msg("minimax search finished")

	return decision, ok
}

// search returns the score of b for ai, with the side to move being ai when
// maximizing and its opponent otherwise. A side with pieces but no moves scores
// as a loss for that side.
func (m *Minimax) search(b *game.Board, depth int, alpha, beta float64, maximizing bool, ai game.Color) (float64, game.Move, bool) {
	m.metrics.AddNode()
	if depth == 0 || b.Count(game.Red) == 0 || b.Count(game.White) == 0 {
		return b.EvaluateFor(ai), game.Move{}, false
	}

	mover := ai
	best := math.Inf(-1)
	if !maximizing {
		mover = ai.Opponent()
		best = math.Inf(1)
	}

	var bestMove game.Move
	found := false

pieces:
	for _, p := range b.Pieces(mover) {
		for _, move := range game.ValidMoves(b, p) {
			child := b.Copy()
			if _, err := game.Apply(child, move); err != nil {
				panic(fmt.Sprintf("generated move does not apply: %v", err))
			}
			score, _, _ := m.search(child, depth-1, alpha, beta, !maximizing, ai)

			if maximizing {
				if !found || score > best {
					best, bestMove, found = score, move, true
				}
				alpha = math.Max(alpha, score)
			} else {
				if !found || score < best {
					best, bestMove, found = score, move, true
				}
				beta = math.Min(beta, score)
			}
			if beta <= alpha {
				m.metrics.AddCutoff()
				break pieces
			}
		}
	}

	return best, bestMove, found
}
