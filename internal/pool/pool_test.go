package pool

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"backoffice-republisher/internal/module"
	"backoffice-republisher/internal/queue"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func makeQueue(n int) *queue.Queue {
	records := make([]module.Record, n)
	for i := range records {
		records[i] = module.Record{URL: fmt.Sprintf("https://backoffice.example/m%d", i), Name: fmt.Sprintf("M%d_OS", i), Suffix: "OS"}
	}
	return queue.New(records)
}

func TestGroupProcessesEveryItemOnce(t *testing.T) {
	const n = 200
	q := makeQueue(n)

	var mu sync.Mutex
	seen := make(map[string]int, n)

	g := Group{Name: "node1", Workers: 8, Log: testLogger()}
	summary := g.Run(context.Background(), q, func(ctx context.Context, rec module.Record) Outcome {
		mu.Lock()
		seen[rec.URL]++
		mu.Unlock()
		return OutcomeCompleted
	})

	require.Len(t, seen, n)
	for url, count := range seen {
		assert.Equal(t, 1, count, "item %s processed %d times", url, count)
	}
	assert.Equal(t, int64(n), summary.Completed)
	assert.Equal(t, int64(n), summary.Total())
}

func TestSummaryTalliesOutcomes(t *testing.T) {
	q := queue.New([]module.Record{
		{URL: "a", Suffix: "OS"},
		{URL: "b", Suffix: "OS"},
		{URL: "c", Suffix: "OS"},
		{URL: "d", Suffix: "OS"},
	})

	outcomes := map[string]Outcome{
		"a": OutcomeSkipped,
		"b": OutcomeCompleted,
		"c": OutcomeUnconfirmed,
		"d": OutcomeFailed,
	}

	g := Group{Name: "node1", Workers: 2, Log: testLogger()}
	summary := g.Run(context.Background(), q, func(ctx context.Context, rec module.Record) Outcome {
		return outcomes[rec.URL]
	})

	assert.Equal(t, int64(1), summary.Skipped)
	assert.Equal(t, int64(1), summary.Completed)
	assert.Equal(t, int64(1), summary.Unconfirmed)
	assert.Equal(t, int64(1), summary.Failed)
}

// Item-level failures never stop the group; the remaining items still run.
func TestFailedItemsDoNotAbortGroup(t *testing.T) {
	const n = 50
	q := makeQueue(n)

	g := Group{Name: "node1", Workers: 4, Log: testLogger()}
	summary := g.Run(context.Background(), q, func(ctx context.Context, rec module.Record) Outcome {
		return OutcomeFailed
	})

	assert.Equal(t, int64(n), summary.Failed)
	assert.Equal(t, int64(n), summary.Total())
}

func TestZeroWorkersDefaultsToOne(t *testing.T) {
	q := makeQueue(3)
	g := Group{Name: "node1", Workers: 0, Log: testLogger()}
	summary := g.Run(context.Background(), q, func(ctx context.Context, rec module.Record) Outcome {
		return OutcomeSkipped
	})
	assert.Equal(t, int64(3), summary.Total())
}

func TestCancelledContextStopsClaiming(t *testing.T) {
	q := makeQueue(100)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	g := Group{Name: "node1", Workers: 4, Log: testLogger()}
	summary := g.Run(ctx, q, func(ctx context.Context, rec module.Record) Outcome {
		return OutcomeCompleted
	})

	assert.Equal(t, int64(0), summary.Total())
}
