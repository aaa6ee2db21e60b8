// Package pool runs groups of concurrent workers over a shared work
// queue. Each group corresponds to one backoffice endpoint and owns its
// workers; groups run independently of each other.
package pool

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"

	"backoffice-republisher/internal/module"
	"backoffice-republisher/internal/queue"
)

// Outcome is the terminal state of one item's per-worker procedure.
type Outcome string

const (
	// OutcomeSkipped means the item did not need the publish action.
	OutcomeSkipped Outcome = "skipped"
	// OutcomeCompleted means the action was triggered and its completion
	// signal observed.
	OutcomeCompleted Outcome = "completed"
	// OutcomeUnconfirmed means the action was triggered but the completion
	// signal was not observed before the bounded wait elapsed. Treated as
	// best-effort success, not failure.
	OutcomeUnconfirmed Outcome = "unconfirmed"
	// OutcomeFailed means the retry budget was exhausted for this item.
	OutcomeFailed Outcome = "failed"
)

// ProcessFunc performs the per-item procedure (status check, then the
// conditional triggered action) and reports the item's outcome. It must
// contain its own retry handling; the pool only tallies results.
type ProcessFunc func(ctx context.Context, rec module.Record) Outcome

// Summary tallies item outcomes for one group run.
type Summary struct {
	Skipped     int64
	Completed   int64
	Unconfirmed int64
	Failed      int64
}

// Total returns the number of items the group processed.
func (s Summary) Total() int64 {
	return s.Skipped + s.Completed + s.Unconfirmed + s.Failed
}

// Group is one logical endpoint's worker pool.
type Group struct {
	Name    string
	Workers int
	Log     *slog.Logger
}

// Run spawns the group's workers and drains the queue. Each worker loops:
// claim an item, run process to completion, claim the next. Workers never
// overlap two items, and the queue's atomic claim is the only coordination
// between them. Run returns once the queue is drained or ctx is cancelled.
func (g Group) Run(ctx context.Context, q *queue.Queue, process ProcessFunc) Summary {
	workers := g.Workers
	if workers < 1 {
		workers = 1
	}

	var (
		skipped, completed, unconfirmed, failed atomic.Int64
		wg                                      sync.WaitGroup
	)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			log := g.Log.With(slog.String("group", g.Name), slog.Int("worker", id))
			for {
				if ctx.Err() != nil {
					return
				}
				rec, ok := q.ClaimNext()
				if !ok {
					return
				}

				outcome := process(ctx, rec)
				switch outcome {
				case OutcomeSkipped:
					skipped.Add(1)
				case OutcomeCompleted:
					completed.Add(1)
				case OutcomeUnconfirmed:
					unconfirmed.Add(1)
				default:
					failed.Add(1)
				}
				log.Info("item done",
					slog.String("module", rec.Name),
					slog.String("url", rec.URL),
					slog.String("outcome", string(outcome)))
			}
		}(i)
	}
	wg.Wait()

	return Summary{
		Skipped:     skipped.Load(),
		Completed:   completed.Load(),
		Unconfirmed: unconfirmed.Load(),
		Failed:      failed.Load(),
	}
}
