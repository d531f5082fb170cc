package engine

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"checkers/experiments/metrics"
	"checkers/game"
	"checkers/meta"
	"checkers/searcher"

	"github.com/rs/zerolog/log"
)

var (
	ErrUnknownMode = errors.New("unknown game mode")
	ErrAgentSetup  = errors.New("agents do not match game mode")
)

type Status int

const (
	Playing Status = iota
	GameOver
)

func (s Status) String() string {
	if s == GameOver {
		return "game_over"
	}
	return "playing"
}

type Mode int

const (
	HumanVsHuman Mode = iota
	HumanVsAI
	AIVsAI
)

func (m Mode) String() string {
	switch m {
	case HumanVsAI:
		return "human_vs_ai"
	case AIVsAI:
		return "ai_vs_ai"
	default:
		return "human_vs_human"
	}
}

func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "human_vs_human":
		return HumanVsHuman, nil
	case "human_vs_ai":
		return HumanVsAI, nil
	case "ai_vs_ai":
		return AIVsAI, nil
	default:
		return HumanVsHuman, fmt.Errorf("cannot parse %q: %w", s, ErrUnknownMode)
	}
}

// Reporter receives the outcome of a finished game, relative to the engine's
// perspective color.
type Reporter interface {
	ReportOutcome(win bool) error
}

// Estimator runs background win-probability estimates for a position.
type Estimator interface {
	Reset()
	Launch(b *game.Board, turn game.Color) bool
	Result() searcher.Result
}

type Option func(e *Engine)

// Engine owns one game: the live board, whose turn it is, the selection made
// through the UI and the undo/redo history. It is not safe for concurrent use.
type Engine struct {
	board  *game.Board
	turn   game.Color
	status Status
	winner game.Color

	selected    game.Piece
	hasSelected bool
	moves       game.MoveSet

	mode        Mode
	agents      map[game.Color]*searcher.Minimax
	estimator   Estimator
	reporter    Reporter
	perspective game.Color
	reported    bool
	maxTurns    int

	history     history
	moveMetrics []metrics.MoveMetric
}

func WithMode(mode Mode) Option {
	return func(e *Engine) {
		e.mode = mode
	}
}

// WithAI lets a minimax searcher of the given difficulty play color.
func WithAI(color game.Color, difficulty searcher.Difficulty) Option {
	return WithAgent(color, searcher.NewMinimax(searcher.WithDifficulty(difficulty), searcher.WithMetrics()))
}

func WithAgent(color game.Color, agent *searcher.Minimax) Option {
	return func(e *Engine) {
		e.agents[color] = agent
	}
}

func WithEstimator(estimator Estimator) Option {
	return func(e *Engine) {
		e.estimator = estimator
	}
}

func WithReporter(reporter Reporter) Option {
	return func(e *Engine) {
		e.reporter = reporter
	}
}

// WithPerspective sets the color whose win ReportOutcome reports as true.
func WithPerspective(color game.Color) Option {
	return func(e *Engine) {
		e.perspective = color
	}
}

// WithPosition starts the game from b with turn to move instead of the
// standard layout.
func WithPosition(b *game.Board, turn game.Color) Option {
	return func(e *Engine) {
		e.board = b.Copy()
		e.turn = turn
	}
}

func WithMaxTurns(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.maxTurns = n
		}
	}
}

// New builds an engine. RED moves first. In human_vs_ai without an explicit
// agent the AI plays WHITE at medium difficulty.
func New(options ...Option) (*Engine, error) {
	e := &Engine{
		board:    game.NewBoard(),
		turn:     game.Red,
		mode:     HumanVsHuman,
		agents:   make(map[game.Color]*searcher.Minimax),
		maxTurns: meta.MAX_TURNS,
	}
	for _, option := range options {
		option(e)
	}

	switch e.mode {
	case HumanVsHuman:
		if len(e.agents) != 0 {
			return nil, fmt.Errorf("cannot create %s game with %d agents: %w", e.mode, len(e.agents), ErrAgentSetup)
		}
	case HumanVsAI:
		if len(e.agents) == 0 {
			e.agents[game.White] = searcher.NewMinimax(searcher.WithMetrics())
		}
		if len(e.agents) != 1 {
			return nil, fmt.Errorf("cannot create %s game with %d agents: %w", e.mode, len(e.agents), ErrAgentSetup)
		}
	case AIVsAI:
		for _, c := range []game.Color{game.Red, game.White} {
			if _, ok := e.agents[c]; !ok {
				e.agents[c] = searcher.NewMinimax(searcher.WithMetrics())
			}
		}
	}

	if e.perspective == game.NoColor {
		e.perspective = game.Red
		if e.mode == HumanVsAI {
			for c := range e.agents {
				e.perspective = c.Opponent()
			}
		}
	}
	return e, nil
}

// Start evaluates the opening position, launches the first estimate and lets
// the AI open when it moves first in a human_vs_ai game.
func (e *Engine) Start() {
	log.Info().Msgf("%s game started, %s to move", e.mode, e.turn)
	e.checkWinner()
	e.estimate()
	e.autoplay()
}

func (e *Engine) Board() *game.Board {
	return e.board.Copy()
}

func (e *Engine) Turn() game.Color {
	return e.turn
}

func (e *Engine) Status() Status {
	return e.status
}

func (e *Engine) Mode() Mode {
	return e.mode
}

// Winner returns NoColor while the game is playing.
func (e *Engine) Winner() game.Color {
	return e.winner
}

// WinnerLabel is the display text for the winner, empty while playing.
func (e *Engine) WinnerLabel() string {
	if e.status != GameOver {
		return ""
	}
	return e.winner.String() + " WINS!"
}

func (e *Engine) MoveMetrics() []metrics.MoveMetric {
	return e.moveMetrics
}

// Selection returns the selected piece and its legal moves.
func (e *Engine) Selection() (game.Piece, game.MoveSet, bool) {
	return e.selected, e.moves, e.hasSelected
}

func (e *Engine) isAI(c game.Color) bool {
	_, ok := e.agents[c]
	return ok
}

func (e *Engine) humanToMove() bool {
	return e.status == Playing && !e.isAI(e.turn)
}

func checkCoordinates(row, col int) error {
	pos := game.Position{Row: row, Col: col}
	if !pos.InBounds() {
		return fmt.Errorf("cannot use square %s: %w", pos, game.ErrOutOfBounds)
	}
	return nil
}

// Select makes the piece on (row, col) the active selection when it belongs to
// the side to move. Anything else clears the selection and returns false.
func (e *Engine) Select(row, col int) (bool, error) {
	if err := checkCoordinates(row, col); err != nil {
		return false, err
	}
	e.clearSelection()
	if !e.humanToMove() {
		return false, nil
	}
	p, ok := e.board.PieceAt(row, col)
	if !ok || p.Color != e.turn {
		return false, nil
	}
	e.selected, e.hasSelected = p, true
	e.moves = game.ValidMoves(e.board, p)
	return true, nil
}

// Apply moves the selected piece to (row, col). Destinations outside the
// selection's move set are rejected without changing the game; the selection
// is cleared either way.
func (e *Engine) Apply(row, col int) (bool, error) {
	if err := checkCoordinates(row, col); err != nil {
		return false, err
	}
	if !e.hasSelected || !e.humanToMove() {
		e.clearSelection()
		return false, nil
	}
	move, ok := e.moves.Lookup(game.Position{Row: row, Col: col})
	if !ok {
		e.clearSelection()
		return false, nil
	}
	e.play(move)
	e.autoplay()
	return true, nil
}

// Click is the single-square input of a board UI: with a selection it tries to
// move there, and otherwise, or when the move fails, it tries to select.
func (e *Engine) Click(row, col int) (bool, error) {
	if e.hasSelected {
		moved, err := e.Apply(row, col)
		if err != nil || moved {
			return moved, err
		}
	}
	return e.Select(row, col)
}

// Undo restores the state before the last move. Against an AI it keeps going
// back until the human is to move again.
func (e *Engine) Undo() bool {
	if !e.restore(e.history.back) {
		return false
	}
	if e.mode == HumanVsAI && e.status == Playing && e.isAI(e.turn) {
		e.restore(e.history.back)
	}
	e.afterRestore()
	return true
}

// Redo reapplies the last undone move. Against an AI it also replays the
// AI's answer.
func (e *Engine) Redo() bool {
	if !e.restore(e.history.forward) {
		return false
	}
	if e.mode == HumanVsAI && e.status == Playing && e.isAI(e.turn) {
		e.restore(e.history.forward)
	}
	e.afterRestore()
	return true
}

func (e *Engine) CanUndo() bool {
	undo, _ := e.history.depth()
	return undo > 0
}

func (e *Engine) CanRedo() bool {
	_, redo := e.history.depth()
	return redo > 0
}

func (e *Engine) restore(step func(Snapshot) (Snapshot, bool)) bool {
	s, ok := step(e.snapshot())
	if !ok {
		return false
	}
	e.board = s.Board.Copy()
	e.turn = s.Turn
	e.status = s.Status
	e.winner = s.Winner
	return true
}

func (e *Engine) afterRestore() {
	e.clearSelection()
	e.estimate()
	e.autoplay()
}

func (e *Engine) snapshot() Snapshot {
	return Snapshot{
		Board:  e.board.Copy(),
		Turn:   e.turn,
		Status: e.status,
		Winner: e.winner,
	}
}

func (e *Engine) clearSelection() {
	e.selected, e.hasSelected = game.Piece{}, false
	e.moves = nil
}

// play applies a move produced by the move generator and hands the turn over.
func (e *Engine) play(move game.Move) {
	e.history.record(e.snapshot())
	if _, err := game.Apply(e.board, move); err != nil {
		panic(fmt.Sprintf("generated move does not apply: %v", err))
	}
	log.Debug().
		Str("color", e.turn.String()).
		Stringer("from", move.From).
		Stringer("to", move.To).
		Int("captured", len(move.Captured)).
		Msg("move applied")
	e.changeTurn()
}

func (e *Engine) changeTurn() {
	e.clearSelection()
	e.turn = e.turn.Opponent()
	e.checkWinner()
	e.estimate()
}

// checkWinner ends the game when a side has no pieces or no moves. RED is
// checked first.
func (e *Engine) checkWinner() {
	if e.status == GameOver {
		return
	}
	for _, c := range []game.Color{game.Red, game.White} {
		if e.board.Count(c) == 0 || !game.HasMoves(e.board, c) {
			e.finish(c.Opponent())
			return
		}
	}
}

func (e *Engine) finish(winner game.Color) {
	e.status = GameOver
	e.winner = winner
	log.Info().Msgf("game over: %s", e.WinnerLabel())

	if e.reported || e.reporter == nil {
		return
	}
	e.reported = true
	if err := e.reporter.ReportOutcome(winner == e.perspective); err != nil {
		log.Warn().Err(err).Msg("failed to report game outcome")
	}
}

func (e *Engine) estimate() {
	if e.estimator == nil {
		return
	}
	e.estimator.Reset()
	if e.status == Playing {
		e.estimator.Launch(e.board, e.turn)
	}
}

// autoplay answers for the AI in human_vs_ai games.
func (e *Engine) autoplay() {
	if e.mode != HumanVsAI || e.status != Playing || !e.isAI(e.turn) {
		return
	}
	if !e.playAI() {
		log.Warn().Msgf("%s AI found no move", e.turn)
	}
}

func (e *Engine) playAI() bool {
	decision, ok := e.agents[e.turn].FindMove(e.board, e.turn)
	if !ok {
		return false
	}
	undo, _ := e.history.depth()
	e.moveMetrics = append(e.moveMetrics, metrics.MoveMetric{
		Step:         undo + 1,
		Player:       e.turn.String(),
		SearchMetric: decision.Metric,
	})
	e.play(decision.Move)
	return true
}

// Step plays a single AI move of an ai_vs_ai game.
func (e *Engine) Step() bool {
	if e.mode != AIVsAI || e.status != Playing {
		return false
	}
	return e.playAI()
}

// Run plays an ai_vs_ai game until it ends or the turn cap is reached. The
// winner is NoColor when the cap stops the game.
func (e *Engine) Run() (game.Color, metrics.GameMetric, []metrics.MoveMetric) {
	if e.mode != AIVsAI {
		panic("Run requires an ai_vs_ai engine")
	}

	gameMetric := metrics.GameMetric{
		StartingPlayer: e.turn.String(),
		StartTime:      time.Now(),
	}
	log.Info().Msgf("%s is starting", e.turn)

	e.checkWinner()
	turns := 0
	for e.status == Playing && turns < e.maxTurns {
		if !e.Step() {
			break
		}
		turns++
	}
	if e.status == Playing {
		log.Info().Msgf("stopped after %d turns without a winner", turns)
	}

	gameMetric.EndTime = time.Now()
	gameMetric.Duration = gameMetric.EndTime.Sub(gameMetric.StartTime)
	gameMetric.TotalMoves = turns
	if e.winner != game.NoColor {
		gameMetric.Winner = e.winner.String()
	}
	return e.winner, gameMetric, e.moveMetrics
}
