package pipeline

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"backoffice-republisher/internal/config"
	"backoffice-republisher/internal/module"
	"backoffice-republisher/internal/pool"
	"backoffice-republisher/internal/snapshot"
)

// fakeProcessor records which URLs it processed and answers with a
// scripted outcome per URL.
type fakeProcessor struct {
	mu       sync.Mutex
	seen     []string
	outcomes map[string]pool.Outcome
	closed   bool
}

func (f *fakeProcessor) Process(ctx context.Context, rec module.Record) pool.Outcome {
	f.mu.Lock()
	f.seen = append(f.seen, rec.URL)
	f.mu.Unlock()
	if out, ok := f.outcomes[rec.URL]; ok {
		return out
	}
	return pool.OutcomeCompleted
}

func (f *fakeProcessor) Close() {
	f.mu.Lock()
	f.closed = true
	f.mu.Unlock()
}

func endpoints(nodes ...string) []config.Endpoint {
	eps := make([]config.Endpoint, len(nodes))
	for i, n := range nodes {
		eps[i] = config.Endpoint{Node: n, BaseURL: "https://backoffice-" + n + ".staging.example.com"}
	}
	return eps
}

func TestPublishDispatchesToEveryGroup(t *testing.T) {
	records := []module.Record{
		{URL: "a", Name: "X_OS", Suffix: "OS"},
		{URL: "b", Name: "Y_BL", Suffix: "BL"},
	}

	var mu sync.Mutex
	processors := map[string]*fakeProcessor{}

	p := &Publisher{
		Endpoints: endpoints("node1", "node2"),
		Workers:   2,
		Log:       testLogger(),
		Connect: func(ctx context.Context, ep config.Endpoint) (ItemProcessor, error) {
			fp := &fakeProcessor{}
			mu.Lock()
			processors[ep.Node] = fp
			mu.Unlock()
			return fp, nil
		},
	}

	results := p.Run(context.Background(), records)
	require.Len(t, results, 2)

	// Same snapshot dispatched once per group: each endpoint saw both
	// records, mirroring a republish across deployment targets.
	for _, node := range []string{"node1", "node2"} {
		fp := processors[node]
		require.NotNil(t, fp)
		assert.ElementsMatch(t, []string{"a", "b"}, fp.seen)
		assert.True(t, fp.closed)
	}
	for _, res := range results {
		assert.False(t, res.Aborted)
		assert.Equal(t, int64(2), res.Summary.Completed)
	}
}

func TestGroupConnectFailureDoesNotAffectSiblings(t *testing.T) {
	records := []module.Record{{URL: "a", Name: "X_OS", Suffix: "OS"}}

	good := &fakeProcessor{}
	p := &Publisher{
		Endpoints: endpoints("node1", "node2"),
		Workers:   1,
		Log:       testLogger(),
		Connect: func(ctx context.Context, ep config.Endpoint) (ItemProcessor, error) {
			if ep.Node == "node1" {
				return nil, errors.New("login refused")
			}
			return good, nil
		},
	}

	results := p.Run(context.Background(), records)
	require.Len(t, results, 2)

	assert.True(t, results[0].Aborted)
	assert.Error(t, results[0].Err)
	assert.False(t, results[1].Aborted)
	assert.Equal(t, int64(1), results[1].Summary.Completed)
	assert.Equal(t, []string{"a"}, good.seen)
}

func TestItemFailuresAreNotFatal(t *testing.T) {
	records := []module.Record{
		{URL: "a", Suffix: "OS"},
		{URL: "b", Suffix: "OS"},
	}

	fp := &fakeProcessor{outcomes: map[string]pool.Outcome{"a": pool.OutcomeFailed}}
	p := &Publisher{
		Endpoints: endpoints("node1"),
		Workers:   1,
		Log:       testLogger(),
		Connect: func(ctx context.Context, ep config.Endpoint) (ItemProcessor, error) {
			return fp, nil
		},
	}

	results := p.Run(context.Background(), records)
	require.Len(t, results, 1)
	assert.False(t, results[0].Aborted)
	assert.Equal(t, int64(1), results[0].Summary.Failed)
	assert.Equal(t, int64(1), results[0].Summary.Completed)
	assert.Equal(t, int64(2), results[0].Summary.Total())
}

func TestLoadRecordsAppliesFilter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "modules.json")
	require.NoError(t, snapshot.Save(path, []module.Record{
		{URL: "a", Name: "X_OS", Suffix: "OS"},
		{URL: "b", Name: "Y_UI", Suffix: "UI"},
		{URL: "c", Name: "Z_BL", Suffix: "BL"},
	}))

	p := &Publisher{Log: testLogger()}

	// Filter "OS": only the OS record is enqueued.
	records, err := p.LoadRecords(path, map[string]bool{module.CategoryOS: true}, nil)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "a", records[0].URL)

	// All-invalid filter falls back to everything.
	records, err = p.LoadRecords(path, map[string]bool{}, []string{"bogus"})
	require.NoError(t, err)
	assert.Len(t, records, 3)
}

func TestLoadRecordsMissingSnapshot(t *testing.T) {
	p := &Publisher{Log: testLogger()}
	_, err := p.LoadRecords(filepath.Join(t.TempDir(), "absent.json"), nil, nil)
	assert.Error(t, err)
}
