package searcher

import (
	"sync"
	"sync/atomic"
	"testing"

	"checkers/experiments/metrics"
	"checkers/game"

	"github.com/stretchr/testify/require"
	"golang.org/x/exp/rand"
)

func requireConsistent(t *testing.T, r Result) {
	t.Helper()
	require.Equal(t, r.Total, r.Red+r.White+r.Draw, "Total should equal the sum of outcomes")
}

// recordingCollector counts how often a batch is opened and closed.
type recordingCollector struct {
	metrics.Collector
	starts    atomic.Int32
	completes atomic.Int32
}

func (c *recordingCollector) Start(depth int) {
	c.starts.Add(1)
	c.Collector.Start(depth)
}

func (c *recordingCollector) Complete() metrics.SearchMetric {
	c.completes.Add(1)
	return c.Collector.Complete()
}

func TestPlayout(t *testing.T) {
	rng := rand.New(rand.NewSource(1))

	t.Run("side without pieces loses", func(t *testing.T) {
		b := board(t, game.Piece{Color: game.White, Row: 2, Col: 1})

		require.Equal(t, game.White, Playout(b, game.Red, 200, rng))
	})

	t.Run("blocked side loses", func(t *testing.T) {
		require.Equal(t, game.Red, Playout(blockedWhite(t), game.White, 200, rng))
	})

	t.Run("draw cap", func(t *testing.T) {
		require.Equal(t, game.NoColor, Playout(game.NewBoard(), game.Red, 1, rng),
			"One opening move cannot end the game")
	})

	t.Run("does not touch the input board", func(t *testing.T) {
		b := game.NewBoard()
		before := b.Copy()

		Playout(b, game.Red, 200, rng)

		require.Equal(t, before, b)
	})
}

func TestSimulatorRun(t *testing.T) {
	t.Run("single playout on a blocked board", func(t *testing.T) {
		s := NewSimulator(WithBatchSize(1), WithSeed(5))

		got, metric := s.Run(blockedWhite(t), game.White)

		require.Equal(t, Result{Red: 1, Total: 1}, got)
		require.Equal(t, metrics.SearchMetric{}, metric, "No metric without a collector")
	})

	t.Run("whole batch is counted", func(t *testing.T) {
		s := NewSimulator(WithBatchSize(40), WithSeed(5), WithSimulationMetrics())

		got, metric := s.Run(game.NewBoard(), game.Red)

		require.Equal(t, 40, got.Total)
		requireConsistent(t, got)
		require.Equal(t, 40, metric.Playouts)
		require.Equal(t, got.Draw, metric.Draws)
	})

	t.Run("seeded runs repeat", func(t *testing.T) {
		first, _ := NewSimulator(WithBatchSize(25), WithSeed(9)).Run(game.NewBoard(), game.White)
		second, _ := NewSimulator(WithBatchSize(25), WithSeed(9)).Run(game.NewBoard(), game.White)

		require.Equal(t, first, second)
	})

	t.Run("draw cap applies to every playout", func(t *testing.T) {
		s := NewSimulator(WithBatchSize(30), WithDrawCap(1))

		got, _ := s.Run(game.NewBoard(), game.Red)

		require.Equal(t, Result{Draw: 30, Total: 30}, got)
	})
}

func TestSimulatorLaunch(t *testing.T) {
	t.Run("publishes the blocked board outcome once", func(t *testing.T) {
		s := NewSimulator(WithBatchSize(1))

		require.True(t, s.Launch(blockedWhite(t), game.White))
		s.Wait()

		require.Equal(t, Result{Red: 1, Total: 1}, s.Result())
	})

	t.Run("readers always see consistent snapshots", func(t *testing.T) {
		s := NewSimulator(WithBatchSize(200), WithProgressEvery(1), WithSeed(2))
		var done atomic.Bool
		var wg sync.WaitGroup

		wg.Add(1)
		go func() {
			defer wg.Done()
			for !done.Load() {
				r := s.Result()
				if r.Total != r.Red+r.White+r.Draw {
					t.Errorf("inconsistent snapshot: %+v", r)
					return
				}
			}
		}()

		s.Launch(game.NewBoard(), game.Red)
		s.Wait()
		done.Store(true)
		wg.Wait()

		got := s.Result()
		require.Equal(t, 200, got.Total)
		requireConsistent(t, got)
	})

	t.Run("progress is reported", func(t *testing.T) {
		var updates []Result
		s := NewSimulator(WithBatchSize(30), WithProgressEvery(10), WithOnUpdate(func(r Result) {
			updates = append(updates, r)
		}))

		s.Launch(game.NewBoard(), game.White)
		s.Wait()

		require.Len(t, updates, 3)
		for i, r := range updates {
			require.Equal(t, (i+1)*10, r.Total)
			requireConsistent(t, r)
		}
	})

	t.Run("launch while running is parked", func(t *testing.T) {
		release := make(chan struct{})
		s := NewSimulator(WithBatchSize(5), WithProgressEvery(1), WithDrawCap(20), WithOnUpdate(func(Result) {
			<-release
		}))

		require.True(t, s.Launch(game.NewBoard(), game.Red))
		require.False(t, s.Launch(game.NewBoard(), game.White), "Second launch should wait for the first batch")
		require.False(t, s.Launch(blockedWhite(t), game.White), "Newest parked request replaces the older one")
		close(release)
		s.Wait()

		require.Equal(t, Result{Red: 5, Total: 5}, s.Result(), "Parked request should run after the first batch")
	})

	t.Run("reset discards a stale batch", func(t *testing.T) {
		release := make(chan struct{})
		var once sync.Once
		s := NewSimulator(WithBatchSize(50), WithProgressEvery(1), WithOnUpdate(func(Result) {
			once.Do(func() { <-release })
		}))

		s.Launch(game.NewBoard(), game.Red)
		s.Reset()
		close(release)
		s.Wait()

		require.Equal(t, Result{}, s.Result(), "A batch started before Reset should not publish")
	})

	t.Run("stale batch still completes its metrics", func(t *testing.T) {
		rec := &recordingCollector{Collector: metrics.NewCollector()}
		s := NewSimulator(WithBatchSize(500))
		s.metrics = rec

		s.Launch(game.NewBoard(), game.Red)
		s.Reset()
		s.Wait()

		require.Equal(t, int32(1), rec.starts.Load())
		require.Equal(t, int32(1), rec.completes.Load(), "Every started batch should be completed")
	})
}

func TestResultPercentages(t *testing.T) {
	red, white, draw := Result{Red: 3, White: 1, Draw: 0, Total: 4}.Percentages()
	require.InDelta(t, 75.0, red, 1e-9)
	require.InDelta(t, 25.0, white, 1e-9)
	require.Zero(t, draw)

	red, white, draw = Result{}.Percentages()
	require.Zero(t, red+white+draw, "Empty result has no percentages")
}
