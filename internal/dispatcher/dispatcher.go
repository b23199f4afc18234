// Package dispatcher drains the candidate queue through a fixed-size worker
// pool, filtering excluded hosts before they ever reach the network.
package dispatcher

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"proxyvet/internal/probe"
	"proxyvet/internal/ranges"
	"proxyvet/internal/shared/logger"
	"proxyvet/internal/shared/types"
)

// OutcomeFunc receives each outcome exactly once. It is called concurrently
// from all workers and must be safe for that.
type OutcomeFunc func(types.Outcome)

// Pool is a fixed set of workers sharing one candidate queue.
type Pool struct {
	prober      probe.Prober
	set         *ranges.RangeSet
	concurrency int

	processed atomic.Int64
	total     atomic.Int64
}

// New builds a pool. Zero or negative concurrency is an unrecoverable setup
// condition and fails before any work starts.
func New(prober probe.Prober, set *ranges.RangeSet, concurrency int) (*Pool, error) {
	if prober == nil {
		return nil, fmt.Errorf("dispatcher: nil prober")
	}
	if concurrency < 1 {
		return nil, fmt.Errorf("dispatcher: concurrency must be >= 1, got %d", concurrency)
	}
	return &Pool{
		prober:      prober,
		set:         set,
		concurrency: concurrency,
	}, nil
}

// Run feeds candidates to the workers and blocks until the queue is drained
// and every in-flight probe has completed, or ctx is cancelled. On
// cancellation no further candidates are dequeued; outcomes already produced
// have been delivered.
//
// Every candidate that enters the pipeline yields exactly one onOutcome call,
// including excluded ones: exclusions are recorded with StatusExcluded for
// auditability rather than silently dropped.
func (p *Pool) Run(ctx context.Context, candidates []types.Candidate, onOutcome OutcomeFunc) {
	l := logger.WithComponent("Dispatcher")
	p.total.Store(int64(len(candidates)))
	p.processed.Store(0)

	l.Info().Int("candidates", len(candidates)).Int("workers", p.concurrency).Msg("Starting worker pool.")

	queue := make(chan types.Candidate)
	var wg sync.WaitGroup

	for i := 0; i < p.concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for c := range queue {
				onOutcome(p.check(ctx, c))
				p.processed.Add(1)
			}
		}()
	}

feed:
	for _, c := range candidates {
		select {
		case queue <- c:
		case <-ctx.Done():
			l.Warn().Err(ctx.Err()).Msg("Run cancelled; abandoning remaining candidates.")
			break feed
		}
	}
	close(queue)

	wg.Wait()
	l.Info().Int64("processed", p.processed.Load()).Msg("Worker pool drained.")
}

// check handles one candidate: range filter first, network probe second.
func (p *Pool) check(ctx context.Context, c types.Candidate) types.Outcome {
	if p.set != nil && p.set.ContainsAddr(c.Host) {
		l := logger.WithComponent("Dispatcher")
		l.Debug().
			Str("proxy", c.Addr()).
			Msg("Candidate in exclusion list, skipping probe.")
		return types.Outcome{Candidate: c, Status: types.StatusExcluded}
	}
	return p.prober.Probe(ctx, c)
}

// Progress reports how many candidates have finished against the total.
// Counters are informational only; the sink is the source of truth.
func (p *Pool) Progress() (done, total int64) {
	return p.processed.Load(), p.total.Load()
}
