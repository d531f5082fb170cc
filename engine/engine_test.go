package engine

import (
	"errors"
	"testing"

	"checkers/game"
	"checkers/searcher"

	"github.com/stretchr/testify/require"
)

type fakeReporter struct {
	outcomes []bool
	err      error
}

func (r *fakeReporter) ReportOutcome(win bool) error {
	r.outcomes = append(r.outcomes, win)
	return r.err
}

type launch struct {
	board *game.Board
	turn  game.Color
}

type fakeEstimator struct {
	resets   int
	launches []launch
	result   searcher.Result
}

func (f *fakeEstimator) Reset() {
	f.resets++
}

func (f *fakeEstimator) Launch(b *game.Board, turn game.Color) bool {
	f.launches = append(f.launches, launch{board: b.Copy(), turn: turn})
	return true
}

func (f *fakeEstimator) Result() searcher.Result {
	return f.result
}

func position(t *testing.T, pieces ...game.Piece) *game.Board {
	t.Helper()
	b := game.EmptyBoard()
	for _, p := range pieces {
		require.NoError(t, b.Place(p))
	}
	return b
}

// lastWhite leaves a single WHITE man that RED can take from (5,4).
func lastWhite(t *testing.T) *game.Board {
	return position(t,
		game.Piece{Color: game.Red, Row: 5, Col: 4},
		game.Piece{Color: game.Red, Row: 7, Col: 0},
		game.Piece{Color: game.White, Row: 4, Col: 5},
	)
}

func newEngine(t *testing.T, options ...Option) *Engine {
	t.Helper()
	e, err := New(options...)
	require.NoError(t, err)
	e.Start()
	return e
}

func play(t *testing.T, e *Engine, from, to game.Position) {
	t.Helper()
	selected, err := e.Select(from.Row, from.Col)
	require.NoError(t, err)
	require.True(t, selected, "Should select %s", from)
	moved, err := e.Apply(to.Row, to.Col)
	require.NoError(t, err)
	require.True(t, moved, "Should move %s to %s", from, to)
}

func TestNew(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		e := newEngine(t)

		require.Equal(t, game.Red, e.Turn())
		require.Equal(t, Playing, e.Status())
		require.Equal(t, HumanVsHuman, e.Mode())
		require.Equal(t, 12, e.Board().Count(game.Red))
		require.Equal(t, 12, e.Board().Count(game.White))
		require.Empty(t, e.WinnerLabel())
	})

	t.Run("agents must match the mode", func(t *testing.T) {
		_, err := New(WithAI(game.White, searcher.Easy))
		require.ErrorIs(t, err, ErrAgentSetup)

		_, err = New(WithMode(HumanVsAI), WithAI(game.White, searcher.Easy), WithAI(game.Red, searcher.Easy))
		require.ErrorIs(t, err, ErrAgentSetup)
	})

	t.Run("human perspective against an AI", func(t *testing.T) {
		e, err := New(WithMode(HumanVsAI), WithAI(game.Red, searcher.Easy))
		require.NoError(t, err)
		require.Equal(t, game.White, e.perspective)
	})

	t.Run("parse mode", func(t *testing.T) {
		mode, err := ParseMode("AI_vs_AI")
		require.NoError(t, err)
		require.Equal(t, AIVsAI, mode)

		_, err = ParseMode("online")
		require.ErrorIs(t, err, ErrUnknownMode)
	})
}

func TestSelectAndApply(t *testing.T) {
	t.Run("select only the side to move", func(t *testing.T) {
		e := newEngine(t)

		ok, err := e.Select(2, 1)
		require.NoError(t, err)
		require.False(t, ok, "WHITE cannot be selected on RED's turn")

		ok, err = e.Select(4, 1)
		require.NoError(t, err)
		require.False(t, ok, "Empty squares cannot be selected")

		ok, err = e.Select(5, 0)
		require.NoError(t, err)
		require.True(t, ok)
		piece, moves, selected := e.Selection()
		require.True(t, selected)
		require.Equal(t, game.Position{Row: 5, Col: 0}, piece.Position())
		require.Equal(t, []game.Position{{Row: 4, Col: 1}}, moves.Destinations())
	})

	t.Run("out of range coordinates", func(t *testing.T) {
		e := newEngine(t)

		_, err := e.Select(8, 0)
		require.ErrorIs(t, err, game.ErrOutOfBounds)
		_, err = e.Apply(-1, 3)
		require.ErrorIs(t, err, game.ErrOutOfBounds)
	})

	t.Run("valid move flips the turn", func(t *testing.T) {
		e := newEngine(t)

		play(t, e, game.Position{Row: 5, Col: 0}, game.Position{Row: 4, Col: 1})

		b := e.Board()
		_, ok := b.PieceAt(5, 0)
		require.False(t, ok)
		p, ok := b.PieceAt(4, 1)
		require.True(t, ok)
		require.Equal(t, game.Red, p.Color)
		require.Equal(t, game.White, e.Turn())
		_, _, selected := e.Selection()
		require.False(t, selected, "Selection is cleared after a move")
	})

	t.Run("invalid destination is rejected", func(t *testing.T) {
		e := newEngine(t)
		before := e.Board()

		ok, err := e.Select(5, 0)
		require.NoError(t, err)
		require.True(t, ok)
		moved, err := e.Apply(3, 2)
		require.NoError(t, err)

		require.False(t, moved)
		require.Equal(t, before, e.Board())
		require.Equal(t, game.Red, e.Turn())
		require.False(t, e.CanUndo())
		_, _, selected := e.Selection()
		require.False(t, selected)
	})

	t.Run("apply without selection", func(t *testing.T) {
		e := newEngine(t)

		moved, err := e.Apply(4, 1)
		require.NoError(t, err)
		require.False(t, moved)
	})

	t.Run("click selects, reselects and moves", func(t *testing.T) {
		e := newEngine(t)

		ok, err := e.Click(5, 0)
		require.NoError(t, err)
		require.True(t, ok)
		ok, err = e.Click(5, 2)
		require.NoError(t, err)
		require.True(t, ok, "Clicking another own piece switches the selection")
		ok, err = e.Click(4, 3)
		require.NoError(t, err)
		require.True(t, ok)

		p, found := e.Board().PieceAt(4, 3)
		require.True(t, found)
		require.Equal(t, game.Red, p.Color)
		require.Equal(t, game.White, e.Turn())
	})
}

func TestUndoRedo(t *testing.T) {
	t.Run("empty history", func(t *testing.T) {
		e := newEngine(t)

		require.False(t, e.Undo())
		require.False(t, e.Redo())
	})

	t.Run("round trip", func(t *testing.T) {
		e := newEngine(t)
		initial := e.Board()

		play(t, e, game.Position{Row: 5, Col: 2}, game.Position{Row: 4, Col: 3})
		afterRed := e.Board()
		play(t, e, game.Position{Row: 2, Col: 5}, game.Position{Row: 3, Col: 4})
		afterWhite := e.Board()

		require.True(t, e.Undo())
		require.Equal(t, afterRed, e.Board())
		require.Equal(t, game.White, e.Turn())
		require.True(t, e.Undo())
		require.Equal(t, initial, e.Board())
		require.Equal(t, game.Red, e.Turn())
		require.False(t, e.Undo())

		require.True(t, e.Redo())
		require.True(t, e.Redo())
		require.Equal(t, afterWhite, e.Board())
		require.Equal(t, game.Red, e.Turn())
		require.False(t, e.Redo())
	})

	t.Run("undo clears the selection", func(t *testing.T) {
		e := newEngine(t)
		play(t, e, game.Position{Row: 5, Col: 2}, game.Position{Row: 4, Col: 3})
		ok, err := e.Select(2, 1)
		require.NoError(t, err)
		require.True(t, ok)

		require.True(t, e.Undo())
		_, _, selected := e.Selection()
		require.False(t, selected)
	})

	t.Run("new move discards redo", func(t *testing.T) {
		e := newEngine(t)
		play(t, e, game.Position{Row: 5, Col: 2}, game.Position{Row: 4, Col: 3})
		require.True(t, e.Undo())
		require.True(t, e.CanRedo())

		play(t, e, game.Position{Row: 5, Col: 0}, game.Position{Row: 4, Col: 1})

		require.False(t, e.CanRedo())
		require.False(t, e.Redo())
	})
}

func TestGameOver(t *testing.T) {
	t.Run("capturing the last piece wins", func(t *testing.T) {
		reporter := &fakeReporter{}
		e := newEngine(t, WithPosition(lastWhite(t), game.Red), WithReporter(reporter))

		play(t, e, game.Position{Row: 5, Col: 4}, game.Position{Row: 3, Col: 6})

		require.Equal(t, GameOver, e.Status())
		require.Equal(t, game.Red, e.Winner())
		require.Equal(t, "RED WINS!", e.WinnerLabel())
		require.Equal(t, []bool{true}, reporter.outcomes)

		ok, err := e.Select(7, 0)
		require.NoError(t, err)
		require.False(t, ok, "Nothing can be selected after the game ends")
	})

	t.Run("outcome is reported once per game", func(t *testing.T) {
		reporter := &fakeReporter{err: errors.New("stats service down")}
		e := newEngine(t, WithPosition(lastWhite(t), game.Red), WithReporter(reporter), WithPerspective(game.White))

		play(t, e, game.Position{Row: 5, Col: 4}, game.Position{Row: 3, Col: 6})
		require.True(t, e.Undo())
		require.Equal(t, Playing, e.Status())
		require.Empty(t, e.WinnerLabel())
		play(t, e, game.Position{Row: 5, Col: 4}, game.Position{Row: 3, Col: 6})

		require.Equal(t, GameOver, e.Status())
		require.Equal(t, []bool{false}, reporter.outcomes, "A WHITE perspective loses when RED wins")
	})

	t.Run("side without moves loses", func(t *testing.T) {
		blocked := position(t,
			game.Piece{Color: game.White, Row: 0, Col: 1},
			game.Piece{Color: game.Red, Row: 1, Col: 0},
			game.Piece{Color: game.Red, Row: 1, Col: 2},
			game.Piece{Color: game.Red, Row: 2, Col: 3},
		)
		reporter := &fakeReporter{}
		e := newEngine(t, WithPosition(blocked, game.White), WithReporter(reporter))

		require.Equal(t, GameOver, e.Status())
		require.Equal(t, game.Red, e.Winner())
		require.Len(t, reporter.outcomes, 1)
	})
}

func TestEstimator(t *testing.T) {
	t.Run("relaunched on every turn change", func(t *testing.T) {
		estimator := &fakeEstimator{}
		e := newEngine(t, WithEstimator(estimator))
		require.Len(t, estimator.launches, 1, "Start estimates the opening position")

		play(t, e, game.Position{Row: 5, Col: 0}, game.Position{Row: 4, Col: 1})

		require.Equal(t, 2, estimator.resets)
		require.Len(t, estimator.launches, 2)
		require.Equal(t, game.White, estimator.launches[1].turn)
		require.Equal(t, e.Board(), estimator.launches[1].board)
	})

	t.Run("not launched once the game is over", func(t *testing.T) {
		estimator := &fakeEstimator{}
		e := newEngine(t, WithPosition(lastWhite(t), game.Red), WithEstimator(estimator))

		play(t, e, game.Position{Row: 5, Col: 4}, game.Position{Row: 3, Col: 6})

		require.Equal(t, 2, estimator.resets)
		require.Len(t, estimator.launches, 1)
	})

	t.Run("view shows the estimate", func(t *testing.T) {
		estimator := &fakeEstimator{result: searcher.Result{Red: 1, White: 2, Draw: 1, Total: 4}}
		e := newEngine(t, WithEstimator(estimator))
		ok, err := e.Select(5, 0)
		require.NoError(t, err)
		require.True(t, ok)

		v := e.View()

		require.Len(t, v.Pieces, 24)
		require.Equal(t, game.Red, v.Turn)
		require.Equal(t, &game.Position{Row: 5, Col: 0}, v.Selected)
		require.Equal(t, []game.Position{{Row: 4, Col: 1}}, v.Destinations)
		require.Equal(t, Estimate{Red: 25, White: 50, Draw: 25, Total: 4}, v.Estimate)
		require.False(t, v.GameOver)
	})
}

func TestHumanVsAI(t *testing.T) {
	t.Run("AI answers a human move", func(t *testing.T) {
		e := newEngine(t, WithMode(HumanVsAI), WithAI(game.White, searcher.Easy))
		initial := e.Board()

		play(t, e, game.Position{Row: 5, Col: 0}, game.Position{Row: 4, Col: 1})

		require.Equal(t, game.Red, e.Turn(), "AI should have replied")
		require.Len(t, e.MoveMetrics(), 1)
		require.Equal(t, "WHITE", e.MoveMetrics()[0].Player)
		require.Equal(t, 2, e.MoveMetrics()[0].Depth)
		afterReply := e.Board()

		require.True(t, e.Undo())
		require.Equal(t, initial, e.Board(), "Undo goes back to the human's turn")
		require.Equal(t, game.Red, e.Turn())

		require.True(t, e.Redo())
		require.Equal(t, afterReply, e.Board())
		require.Equal(t, game.Red, e.Turn())
	})

	t.Run("human cannot move for the AI", func(t *testing.T) {
		e, err := New(WithMode(HumanVsAI), WithAI(game.Red, searcher.Easy))
		require.NoError(t, err)

		ok, err := e.Select(5, 0)
		require.NoError(t, err)
		require.False(t, ok)
	})

	t.Run("AI opens as RED", func(t *testing.T) {
		e := newEngine(t, WithMode(HumanVsAI), WithAI(game.Red, searcher.Easy))

		require.Equal(t, game.White, e.Turn())
		require.True(t, e.CanUndo())
	})
}

func TestRun(t *testing.T) {
	e, err := New(
		WithMode(AIVsAI),
		WithAI(game.Red, searcher.Easy),
		WithAI(game.White, searcher.Easy),
		WithMaxTurns(30),
	)
	require.NoError(t, err)

	winner, gameMetric, moves := e.Run()

	require.Equal(t, "RED", gameMetric.StartingPlayer)
	require.LessOrEqual(t, gameMetric.TotalMoves, 30)
	require.Len(t, moves, gameMetric.TotalMoves)
	if winner == game.NoColor {
		require.Equal(t, 30, gameMetric.TotalMoves)
		require.Equal(t, Playing, e.Status())
	} else {
		require.Equal(t, winner.String(), gameMetric.Winner)
	}
	for i, m := range moves {
		require.Equal(t, i+1, m.Step)
	}
}
