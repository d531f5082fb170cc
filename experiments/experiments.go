package experiments

import (
	"context"
	"fmt"

	"checkers/config"
	"checkers/engine"
	"checkers/experiments/metrics"
	"checkers/game"
	"checkers/searcher"

	"github.com/rs/zerolog/log"
	"golang.org/x/exp/rand"
	"golang.org/x/sync/errgroup"
)

// MatchUp pairs the agent playing RED with the agent playing WHITE.
type MatchUp struct {
	Red   metrics.AgentConfig
	White metrics.AgentConfig
}

type Options struct {
	Games            int // Per match up
	Concurrency      int
	OpeningPlies     int // Random plies played before the agents take over
	EstimatePlayouts int // Monte Carlo playouts on the opening position; 0 skips it
	MaxTurns         int
	Seed             uint64
	OutputDir        string
}

func OptionsFrom(c config.Experiment) Options {
	return Options{
		Games:            c.Games,
		Concurrency:      c.Concurrency,
		OpeningPlies:     c.OpeningPlies,
		EstimatePlayouts: c.EstimatePlayouts,
		MaxTurns:         c.MaxTurns,
		Seed:             c.Seed,
		OutputDir:        c.OutputDir,
	}
}

// Summary is what an experiment produced and where it was written.
type Summary struct {
	Dir   string
	Games []metrics.GameRecord
	Moves int
	Wins  map[int]int // AgentConfig.ID -> games won
}

var difficultyConfigs = []metrics.AgentConfig{
	{ID: 1, Difficulty: searcher.Easy.String(), Depth: searcher.Easy.Depth()},
	{ID: 2, Difficulty: searcher.Medium.String(), Depth: searcher.Medium.Depth()},
	{ID: 3, Difficulty: searcher.Hard.String(), Depth: searcher.Hard.Depth()},
}

// RunDifficulty plays every pair of difficulty tiers against each other, each
// tier taking both colors.
func RunDifficulty(ctx context.Context, opts Options) (Summary, error) {
	var matchUps []MatchUp
	for i, a := range difficultyConfigs {
		for _, b := range difficultyConfigs[i+1:] {
			matchUps = append(matchUps, MatchUp{Red: a, White: b}, MatchUp{Red: b, White: a})
		}
	}
	return Run(ctx, "difficulty", difficultyConfigs, matchUps, opts)
}

type gameJob struct {
	id      int
	matchUp MatchUp
	seed    uint64
}

type gameResult struct {
	record metrics.GameRecord
	moves  []metrics.MoveMetric
	winner game.Color
}

// Run plays opts.Games games per match up, at most opts.Concurrency at a time,
// and writes agent configs, game records and move records as CSV.
func Run(ctx context.Context, name string, configs []metrics.AgentConfig, matchUps []MatchUp, opts Options) (Summary, error) {
	if opts.Games <= 0 || opts.Concurrency <= 0 {
		return Summary{}, fmt.Errorf("cannot run %s experiment: games and concurrency must be positive", name)
	}

	var jobs []gameJob
	for _, mu := range matchUps {
		for i := 0; i < opts.Games; i++ {
			id := len(jobs) + 1
			jobs = append(jobs, gameJob{id: id, matchUp: mu, seed: opts.Seed + uint64(id)})
		}
	}
	log.Info().Msgf("starting %s experiment with %d games...", name, len(jobs))

	results := make([]gameResult, len(jobs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Concurrency)
	for i, job := range jobs {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			result, err := runGame(job, opts)
			if err != nil {
				return err
			}
			results[i] = result
			log.Info().Msgf("completed game %d of %d (%s vs %s) with winner: %s",
				job.id, len(jobs), job.matchUp.Red.Difficulty, job.matchUp.White.Difficulty, result.winner)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Summary{}, fmt.Errorf("%s experiment stopped: %w", name, err)
	}
	if err := ctx.Err(); err != nil {
		return Summary{}, fmt.Errorf("%s experiment stopped: %w", name, err)
	}
	log.Info().Msgf("completed %s experiment", name)

	summary := Summary{Wins: make(map[int]int)}
	var moveRecords []metrics.MoveRecord
	for _, r := range results {
		summary.Games = append(summary.Games, r.record)
		switch r.winner {
		case game.Red:
			summary.Wins[r.record.Red]++
		case game.White:
			summary.Wins[r.record.White]++
		}
		for _, mm := range r.moves {
			moveRecords = append(moveRecords, metrics.MoveRecord{Game: r.record.ID, MoveMetric: mm})
		}
	}
	summary.Moves = len(moveRecords)

	writer, err := metrics.NewWriter(opts.OutputDir, name)
	if err != nil {
		return summary, fmt.Errorf("cannot create experiment writer: %w", err)
	}
	summary.Dir = writer.Dir()
	if err := writer.WriteAgentConfigs(configs); err != nil {
		return summary, fmt.Errorf("cannot store agent configs: %w", err)
	}
	if err := writer.WriteGameRecords(summary.Games); err != nil {
		return summary, fmt.Errorf("cannot store game records: %w", err)
	}
	if err := writer.WriteMoveRecords(moveRecords); err != nil {
		return summary, fmt.Errorf("cannot store move records: %w", err)
	}
	log.Info().Msgf("stored %s experiment results in %s", name, writer.Dir())
	return summary, nil
}

func runGame(job gameJob, opts Options) (gameResult, error) {
	board, turn := opening(job.seed, opts.OpeningPlies)
	estimate := estimateOpening(board, turn, job.seed, opts.EstimatePlayouts)

	e, err := engine.New(
		engine.WithMode(engine.AIVsAI),
		engine.WithAgent(game.Red, createMinimax(job.matchUp.Red)),
		engine.WithAgent(game.White, createMinimax(job.matchUp.White)),
		engine.WithPosition(board, turn),
		engine.WithMaxTurns(opts.MaxTurns),
	)
	if err != nil {
		return gameResult{}, fmt.Errorf("cannot set up game %d: %w", job.id, err)
	}

	winner, gameMetric, moveMetrics := e.Run()
	return gameResult{
		record: metrics.GameRecord{
			ID:         job.id,
			Red:        job.matchUp.Red.ID,
			White:      job.matchUp.White.ID,
			Opening:    estimate,
			GameMetric: gameMetric,
		},
		moves:  moveMetrics,
		winner: winner,
	}, nil
}

// opening plays random plies from the standard layout so that games between
// the same deterministic agents differ.
func opening(seed uint64, plies int) (*game.Board, game.Color) {
	rng := rand.New(rand.NewSource(seed))
	b := game.NewBoard()
	turn := game.Red
	for i := 0; i < plies; i++ {
		moves := game.AllMoves(b, turn)
		if len(moves) == 0 {
			break
		}
		if _, err := game.Apply(b, moves[rng.Intn(len(moves))]); err != nil {
			panic(fmt.Sprintf("generated move does not apply: %v", err))
		}
		turn = turn.Opponent()
	}
	return b, turn
}

// estimateOpening runs Monte Carlo playouts on the position the agents take
// over, so that results can be set against how balanced the opening was.
func estimateOpening(b *game.Board, turn game.Color, seed uint64, playouts int) metrics.OpeningEstimate {
	if playouts <= 0 {
		return metrics.OpeningEstimate{}
	}
	sim := searcher.NewSimulator(
		searcher.WithBatchSize(playouts),
		searcher.WithSeed(seed),
		searcher.WithSimulationMetrics(),
	)
	res, metric := sim.Run(b, turn)
	return metrics.OpeningEstimate{RedWins: res.Red, WhiteWins: res.White, SearchMetric: metric}
}

func createMinimax(config metrics.AgentConfig) *searcher.Minimax {
	return searcher.NewMinimax(searcher.WithDepth(config.Depth), searcher.WithMetrics())
}
