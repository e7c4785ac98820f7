package simulation

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
)

// ErrAllocation is returned when the outcome buffers for an entity cannot be allocated.
var ErrAllocation = errors.New("cannot allocate simulation buffers")

// Paths holds the outcome sets of one entity's trials, indexed by trial (0-based).
type Paths struct {
	// Final is the cumulative growth percentage of each trial.
	Final []float64
	// Yearly[y][i] is the growth simulated for forecast year y in trial i.
	Yearly [][]float64
}

// Progress tracks completed trials per entity. Workers only add to it; callers may poll it
// at any time from another goroutine.
type Progress struct {
	mu       sync.Mutex
	counters []*trialCounter
}

type trialCounter struct {
	ticker string
	total  int64
	done   atomic.Int64
}

// EntityProgress is a snapshot of one entity's trials.
type EntityProgress struct {
	Ticker string
	Done   int64
	Total  int64
}

// Percent returns completion in [0, 100].
func (p EntityProgress) Percent() int {
	if p.Total == 0 {
		return 0
	}
	return int(p.Done * 100 / p.Total)
}

// track registers an entity about to run trials. A nil Progress tracks nothing.
func (p *Progress) track(ticker string, trials int) *trialCounter {
	if p == nil {
		return nil
	}
	c := &trialCounter{ticker: ticker, total: int64(trials)}
	p.mu.Lock()
	p.counters = append(p.counters, c)
	p.mu.Unlock()
	return c
}

// Entities returns one snapshot per started entity, in start order.
func (p *Progress) Entities() []EntityProgress {
	p.mu.Lock()
	defer p.mu.Unlock()

	out := make([]EntityProgress, len(p.counters))
	for i, c := range p.counters {
		out[i] = EntityProgress{Ticker: c.ticker, Done: c.done.Load(), Total: c.total}
	}
	return out
}

// Done returns the number of completed trials across all entities.
func (p *Progress) Done() int64 {
	var n int64
	for _, e := range p.Entities() {
		n += e.Done
	}
	return n
}

// Total returns the number of trials scheduled so far across all entities.
func (p *Progress) Total() int64 {
	var n int64
	for _, e := range p.Entities() {
		n += e.Total
	}
	return n
}

func allocatePaths(trials, years, maxCells int) (p *Paths, err error) {
	if trials <= 0 || years <= 0 {
		return nil, fmt.Errorf("%w: %d trials x %d years", ErrAllocation, trials, years)
	}
	if trials > maxCells/(years+1) {
		return nil, fmt.Errorf("%w: %d trials x %d years exceeds %d cells", ErrAllocation, trials, years, maxCells)
	}

	defer func() {
		if r := recover(); r != nil {
			p = nil
			err = fmt.Errorf("%w: %v", ErrAllocation, r)
		}
	}()

	p = &Paths{
		Final:  make([]float64, trials),
		Yearly: make([][]float64, years),
	}
	for y := range p.Yearly {
		p.Yearly[y] = make([]float64, trials)
	}
	return p, nil
}

// SimulatePaths runs the configured number of independent trials over the forecast
// horizon growth, perturbing every year with N(growth[y], sigma^2) noise, using the
// engine's full worker pool.
func (e *Engine) SimulatePaths(ctx context.Context, growth []float64, sigma float64) (*Paths, error) {
	return e.simulatePaths(ctx, "", growth, sigma, e.cfg.Workers, e.cfg.MaxCells, e.baseSeed())
}

// simulatePaths splits trial indices into contiguous blocks, one per worker. Every worker
// owns a generator seeded with seed+worker, so a fixed (seed, workers) pair reproduces the
// same Paths. On cancellation the partial Paths are discarded. At most maxCells outcome
// cells are allocated.
func (e *Engine) simulatePaths(ctx context.Context, ticker string, growth []float64, sigma float64, workers, maxCells int, seed int64) (*Paths, error) {
	trials := e.cfg.Trials

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	paths, err := allocatePaths(trials, len(growth), maxCells)
	if err != nil {
		return nil, err
	}

	if workers < 1 {
		workers = 1
	}
	if workers > trials {
		workers = trials
	}
	progress := e.progress.track(ticker, trials)

	block := (trials + workers - 1) / workers
	g, gctx := errgroup.WithContext(ctx)
	for w := 0; w < workers; w++ {
		start := w * block
		end := min(start+block, trials)
		if start >= end {
			break
		}
		gen := NewNormalGenerator(seed + int64(w))

		g.Go(func() error {
			for i := start; i < end; i++ {
				if err := gctx.Err(); err != nil {
					return err
				}

				multiplier := 1.0
				for y, expected := range growth {
					simulated := gen.Next(expected, sigma)
					paths.Yearly[y][i] = simulated
					multiplier *= 1 + simulated/100
				}
				paths.Final[i] = (multiplier - 1) * 100

				if progress != nil {
					progress.done.Add(1)
				}
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return paths, nil
}
