package searcher

import (
	"sync"
	"sync/atomic"
	"time"

	"checkers/experiments/metrics"
	"checkers/game"
	"checkers/meta"
	"checkers/utils"

	"github.com/rs/zerolog/log"
	"golang.org/x/exp/rand"
)

// Result tallies playout outcomes. Total always equals Red+White+Draw.
type Result struct {
	Red   int `json:"red"`
	White int `json:"white"`
	Draw  int `json:"draw"`
	Total int `json:"total"`
}

func (r Result) record(winner game.Color) Result {
	switch winner {
	case game.Red:
		r.Red++
	case game.White:
		r.White++
	default:
		r.Draw++
	}
	r.Total++
	return r
}

// Percentages converts the counters for display; they sum to 100 once Total > 0.
func (r Result) Percentages() (red, white, draw float64) {
	return utils.Percent(r.Red, r.Total), utils.Percent(r.White, r.Total), utils.Percent(r.Draw, r.Total)
}

// snapshot ties a published result to the position generation it belongs to.
type snapshot struct {
	generation uint64
	result     Result
}

type request struct {
	board      *game.Board
	turn       game.Color
	generation uint64
}

type SimulatorOption func(s *Simulator)

// Simulator estimates win probabilities with random playouts on a background
// goroutine. Readers only ever see complete Result snapshots.
type Simulator struct {
	batchSize     int
	drawCap       int
	progressEvery int
	seed          uint64
	batches       atomic.Uint64
	onUpdate      func(Result)
	metrics       metrics.Collector

	result     atomic.Pointer[snapshot]
	generation atomic.Uint64

	mu      sync.Mutex
	running bool
	pending *request
	wg      sync.WaitGroup
}

func WithBatchSize(n int) SimulatorOption {
	return func(s *Simulator) {
		if n > 0 {
			s.batchSize = n
		}
	}
}

func WithDrawCap(n int) SimulatorOption {
	return func(s *Simulator) {
		if n > 0 {
			s.drawCap = n
		}
	}
}

func WithProgressEvery(n int) SimulatorOption {
	return func(s *Simulator) {
		if n > 0 {
			s.progressEvery = n
		}
	}
}

// WithSeed makes playouts reproducible.
func WithSeed(seed uint64) SimulatorOption {
	return func(s *Simulator) {
		s.seed = seed
	}
}

// WithOnUpdate registers a callback run on the simulator goroutine after every
// published snapshot.
func WithOnUpdate(fn func(Result)) SimulatorOption {
	return func(s *Simulator) {
		s.onUpdate = fn
	}
}

func WithSimulationMetrics() SimulatorOption {
	return func(s *Simulator) {
		s.metrics = metrics.NewCollector()
	}
}

func NewSimulator(options ...SimulatorOption) *Simulator {
	s := &Simulator{
		batchSize:     meta.BATCH_SIZE,
		drawCap:       meta.DRAW_CAP,
		progressEvery: meta.PROGRESS_EVERY,
		seed:          uint64(time.Now().UnixNano()),
		metrics:       metrics.NewDummyCollector(),
	}
	for _, option := range options {
		option(s)
	}
	s.result.Store(&snapshot{})
	return s
}

func (s *Simulator) BatchSize() int {
	return s.batchSize
}

func (s *Simulator) DrawCap() int {
	return s.drawCap
}

// Result returns the latest published snapshot.
func (s *Simulator) Result() Result {
	return s.result.Load().result
}

// Reset clears the published result and marks any running batch as stale.
func (s *Simulator) Reset() {
	gen := s.generation.Add(1)
	s.result.Store(&snapshot{generation: gen})
}

// Launch requests a batch for a copy of b with turn to move. At most one batch
// runs at a time: a request made while one is running is parked, replacing any
// older parked request, and runs when the current batch ends. Launch reports
// whether it started a new goroutine.
func (s *Simulator) Launch(b *game.Board, turn game.Color) bool {
	req := request{board: b.Copy(), turn: turn, generation: s.generation.Load()}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		s.pending = &req
		return false
	}
	s.running = true
	s.wg.Add(1)
	go s.work(req)
	return true
}

// Wait blocks until no batch is running or parked.
func (s *Simulator) Wait() {
	s.wg.Wait()
}

func (s *Simulator) work(req request) {
	defer s.wg.Done()
	for {
		s.runBatch(req)

		s.mu.Lock()
		if s.pending == nil {
			s.running = false
			s.mu.Unlock()
			return
		}
		req = *s.pending
		s.pending = nil
		s.mu.Unlock()
	}
}

func (s *Simulator) runBatch(req request) {
	rng := s.newRand()
	s.metrics.Start(0)

	res := Result{}
	for res.Total < s.batchSize {
		if s.generation.Load() != req.generation {
			metric := s.metrics.Complete()
			log.Debug().
				Int("done", res.Total).
				Dur("duration", metric.Duration).
				Msg("monte carlo batch is stale, stopping")
			return
		}
		winner := Playout(req.board, req.turn, s.drawCap, rng)
		s.metrics.AddPlayout(winner == game.NoColor)
		res = res.record(winner)
		if res.Total%s.progressEvery == 0 || res.Total == s.batchSize {
			s.publish(req.generation, res)
		}
	}

	metric := s.metrics.Complete()
	log.Debug().
		Str("turn", req.turn.String()).
		Int("red", res.Red).
		Int("white", res.White).
		Int("draw", res.Draw).
		Dur("duration", metric.Duration).
		Msg("monte carlo batch complete")
}

// publish swaps in res unless the position changed since the batch started.
func (s *Simulator) publish(generation uint64, res Result) {
	next := &snapshot{generation: generation, result: res}
	for {
		current := s.result.Load()
		if current.generation != generation {
			return
		}
		if s.result.CompareAndSwap(current, next) {
			break
		}
	}
	if s.onUpdate != nil {
		s.onUpdate(res)
	}
}

// Run plays a whole batch synchronously on the calling goroutine without
// publishing anything. The metric is empty unless WithSimulationMetrics is set.
func (s *Simulator) Run(b *game.Board, turn game.Color) (Result, metrics.SearchMetric) {
	rng := s.newRand()
	board := b.Copy()
	s.metrics.Start(0)
	res := Result{}
	for res.Total < s.batchSize {
		winner := Playout(board, turn, s.drawCap, rng)
		s.metrics.AddPlayout(winner == game.NoColor)
		res = res.record(winner)
	}
	return res, s.metrics.Complete()
}

func (s *Simulator) newRand() *rand.Rand {
	return rand.New(rand.NewSource(s.seed + s.batches.Add(1)))
}

// Playout plays random moves from a copy of b until one side has no pieces or
// no moves, or until drawCap moves have been made. It returns the winner, or
// game.NoColor for a draw.
func Playout(b *game.Board, turn game.Color, drawCap int, rng *rand.Rand) game.Color {
	board := b.Copy()
	moves := 0
	for {
		if board.Count(game.Red) == 0 {
			return game.White
		}
		if board.Count(game.White) == 0 {
			return game.Red
		}

		pieces := board.Pieces(turn)
		rng.Shuffle(len(pieces), func(i, j int) {
			pieces[i], pieces[j] = pieces[j], pieces[i]
		})

		played := false
		for _, p := range pieces {
			options := game.ValidMoves(board, p)
			if len(options) == 0 {
				continue
			}
			if _, err := game.Apply(board, options[rng.Intn(len(options))]); err != nil {
				panic(err)
			}
			played = true
			break
		}
		if !played {
			return turn.Opponent()
		}

		turn = turn.Opponent()
		moves++
		if moves >= drawCap {
			return game.NoColor
		}
	}
}
