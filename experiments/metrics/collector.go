package metrics

import (
	"sync/atomic"
	"time"
)

// SearchMetric describes one AI decision or one Monte Carlo batch.
type SearchMetric struct {
	Depth    int
	Duration time.Duration
	Nodes    int
	Cutoffs  int
	Playouts int
	Draws    int
}

type MoveMetric struct {
	Step   int
	Player string // Color label of the side that moved
	SearchMetric
}

type GameMetric struct {
	StartingPlayer string
	Winner         string // "" for a game stopped at the turn cap
	StartTime      time.Time
	EndTime        time.Time
	Duration       time.Duration
	TotalMoves     int
}

type Collector interface {
	Start(depth int)
	AddNode()
	AddCutoff()
	AddPlayout(draw bool)
	Complete() SearchMetric
}

type collector struct {
	depth     int
	startTime time.Time
	nodes     atomic.Int64
	cutoffs   atomic.Int64
	playouts  atomic.Int64
	draws     atomic.Int64
}

func NewCollector() Collector {
	return &collector{}
}

// Start resets the counters for a new search.
func (m *collector) Start(depth int) {
	m.depth = depth
	m.startTime = time.Now()
	m.nodes.Store(0)
	m.cutoffs.Store(0)
	m.playouts.Store(0)
	m.draws.Store(0)
}

func (m *collector) AddNode() {
	m.nodes.Add(1)
}

func (m *collector) AddCutoff() {
	m.cutoffs.Add(1)
}

func (m *collector) AddPlayout(draw bool) {
	m.playouts.Add(1)
	if draw {
		m.draws.Add(1)
	}
}

func (m *collector) Complete() SearchMetric {
	return SearchMetric{
		Depth:    m.depth,
		Duration: time.Since(m.startTime),
		Nodes:    int(m.nodes.Load()),
		Cutoffs:  int(m.cutoffs.Load()),
		Playouts: int(m.playouts.Load()),
		Draws:    int(m.draws.Load()),
	}
}

type dummyCollector struct{}

func NewDummyCollector() Collector {
	return &dummyCollector{}
}

func (m *dummyCollector) Start(depth int)        {}
func (m *dummyCollector) AddNode()               {}
func (m *dummyCollector) AddCutoff()             {}
func (m *dummyCollector) AddPlayout(draw bool)   {}
func (m *dummyCollector) Complete() SearchMetric { return SearchMetric{} }
