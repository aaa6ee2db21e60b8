package pipeline

import (
	"context"
	"log/slog"
	"sync"

	"backoffice-republisher/internal/config"
	"backoffice-republisher/internal/module"
	"backoffice-republisher/internal/pool"
	"backoffice-republisher/internal/queue"
	"backoffice-republisher/internal/snapshot"
)

// ItemProcessor runs the per-item procedure against one endpoint.
type ItemProcessor interface {
	Process(ctx context.Context, rec module.Record) pool.Outcome
	Close()
}

// ConnectFunc establishes a session with one endpoint. An error is a
// group-level failure: the endpoint's pool never starts, siblings are
// unaffected.
type ConnectFunc func(ctx context.Context, endpoint config.Endpoint) (ItemProcessor, error)

// GroupResult is one endpoint's outcome for a publish run.
type GroupResult struct {
	Endpoint string
	Aborted  bool
	Err      error
	Summary  pool.Summary
}

// Publisher fans the snapshot out to all endpoints concurrently. Each
// endpoint gets its own queue view over the same record list, so every
// module is republished once per endpoint.
type Publisher struct {
	Connect   ConnectFunc
	Endpoints []config.Endpoint
	Workers   int
	Log       *slog.Logger
}

// LoadRecords reads the snapshot and applies the category filter. An
// empty or entirely unrecognized filter falls back to processing
// everything, with a warning.
func (p *Publisher) LoadRecords(path string, categories map[string]bool, unknown []string) ([]module.Record, error) {
	records, err := snapshot.Load(path)
	if err != nil {
		return nil, err
	}

	if len(unknown) > 0 && len(categories) == 0 {
		p.Log.Warn("no recognized categories in filter, processing everything",
			slog.Any("ignored", unknown))
	}
	filtered := module.Filter(records, categories)

	p.Log.Info("snapshot loaded",
		slog.String("path", path),
		slog.Int("total", len(records)),
		slog.Int("selected", len(filtered)))
	return filtered, nil
}

// Run processes records on every endpoint concurrently and waits for all
// groups to finish. Item-level failures are tallied, never fatal; a group
// that cannot connect is reported aborted and the rest keep going.
func (p *Publisher) Run(ctx context.Context, records []module.Record) []GroupResult {
	results := make([]GroupResult, len(p.Endpoints))

	var wg sync.WaitGroup
	for i, endpoint := range p.Endpoints {
		wg.Add(1)
		go func(i int, endpoint config.Endpoint) {
			defer wg.Done()
			results[i] = p.runGroup(ctx, endpoint, records)
		}(i, endpoint)
	}
	wg.Wait()

	for _, res := range results {
		if res.Aborted {
			p.Log.Error("group aborted",
				slog.String("endpoint", res.Endpoint),
				slog.String("error", res.Err.Error()))
			continue
		}
		p.Log.Info("group finished",
			slog.String("endpoint", res.Endpoint),
			slog.Int64("completed", res.Summary.Completed),
			slog.Int64("unconfirmed", res.Summary.Unconfirmed),
			slog.Int64("skipped", res.Summary.Skipped),
			slog.Int64("failed", res.Summary.Failed))
	}
	return results
}

func (p *Publisher) runGroup(ctx context.Context, endpoint config.Endpoint, records []module.Record) GroupResult {
	processor, err := p.Connect(ctx, endpoint)
	if err != nil {
		return GroupResult{Endpoint: endpoint.Node, Aborted: true, Err: err}
	}
	defer processor.Close()

	g := pool.Group{Name: endpoint.Node, Workers: p.Workers, Log: p.Log}
	summary := g.Run(ctx, queue.New(records), processor.Process)
	return GroupResult{Endpoint: endpoint.Node, Summary: summary}
}
