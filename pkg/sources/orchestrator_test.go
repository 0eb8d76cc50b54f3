package sources

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/defeedco/prefetch/pkg/snapshot"
	"github.com/defeedco/prefetch/pkg/sources/types"
	"github.com/morikuni/failure/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fetchTime = time.Date(2026, 10, 19, 8, 30, 0, 0, time.UTC)

type memoryWriter struct {
	mu      sync.Mutex
	written map[string]any
	order   []string
	failOn  map[string]error
}

func newMemoryWriter() *memoryWriter {
	return &memoryWriter{
		written: make(map[string]any),
		failOn:  make(map[string]error),
	}
}

func (w *memoryWriter) Write(_ context.Context, name string, payload any) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.failOn[name]; err != nil {
		return err
	}
	w.written[name] = payload
	w.order = append(w.order, name)
	return nil
}

func newTestOrchestrator(registry *Registry, writer snapshot.Writer) *Orchestrator {
	logger := zerolog.Nop()
	return NewOrchestrator(&logger, registry, writer, FixedHorizon(4*time.Hour),
		WithOrchestratorClock(func() time.Time { return fetchTime }))
}

// scenarioRegistry is A enabled and succeeding, B enabled and failing, C disabled and succeeding.
func scenarioRegistry(t *testing.T) *Registry {
	return newTestRegistry(t,
		Descriptor{Name: "A", Enabled: true, CacheLifetime: time.Hour, Fetcher: staticFetcher(types.Success(map[string]any{"source": "A"}))},
		Descriptor{Name: "B", Enabled: true, CacheLifetime: time.Hour, Fetcher: staticFetcher(types.Failure("upstream returned 503"))},
		Descriptor{Name: "C", Enabled: false, CacheLifetime: time.Hour, Fetcher: staticFetcher(types.Success(map[string]any{"source": "C"}))},
	)
}

func assertSummaryConsistent(t *testing.T, summary *Summary) {
	t.Helper()

	successes := 0
	for _, outcome := range summary.Results {
		if outcome == types.OutcomeSuccess {
			successes++
		}
	}
	assert.Equal(t, successes, summary.SuccessCount)
	assert.Equal(t, len(summary.Results), summary.Total)
	assert.Len(t, summary.Order, summary.Total)
	assert.LessOrEqual(t, summary.SuccessCount, summary.Total)
}

func TestOrchestrator_RunAllEnabled(t *testing.T) {
	writer := newMemoryWriter()
	orchestrator := newTestOrchestrator(scenarioRegistry(t), writer)

	summary, err := orchestrator.Run(context.Background(), ParseSelection("all"))
	require.NoError(t, err)

	assert.Equal(t, map[string]types.Outcome{
		"A": types.OutcomeSuccess,
		"B": types.OutcomeFailed,
	}, summary.Results)
	assert.Equal(t, 1, summary.SuccessCount)
	assert.Equal(t, 2, summary.Total)
	assert.False(t, summary.OK())
	assert.Equal(t, []string{"B"}, summary.Failed())
	assertSummaryConsistent(t, summary)

	assert.Equal(t, fetchTime, summary.FetchTime)
	assert.Equal(t, fetchTime.Add(4*time.Hour), summary.NextScheduledFetch)

	// Failed sources keep their previous snapshot; the summary is written last.
	assert.Equal(t, []string{"A", SummarySlot}, writer.order)
	assert.Same(t, summary, writer.written[SummarySlot])
	assert.Equal(t, StateCompleted, orchestrator.State())
}

func TestOrchestrator_RunExplicitSelection(t *testing.T) {
	writer := newMemoryWriter()
	orchestrator := newTestOrchestrator(scenarioRegistry(t), writer)

	summary, err := orchestrator.Run(context.Background(), ParseSelection("C,A"))
	require.NoError(t, err)

	assert.Equal(t, map[string]types.Outcome{
		"A": types.OutcomeSuccess,
		"C": types.OutcomeSuccess,
	}, summary.Results)
	assert.Equal(t, 2, summary.Total)
	assert.True(t, summary.OK())
	assert.Equal(t, []string{"A", "C"}, summary.Order)
	assert.Contains(t, writer.written, "C")
	assert.NotContains(t, writer.written, "B")
}

func TestOrchestrator_RunUnknownSelection(t *testing.T) {
	writer := newMemoryWriter()
	orchestrator := newTestOrchestrator(scenarioRegistry(t), writer)

	summary, err := orchestrator.Run(context.Background(), ParseSelection("Z"))
	require.NoError(t, err)

	assert.Empty(t, summary.Results)
	assert.Equal(t, 0, summary.Total)
	assert.Equal(t, 0, summary.SuccessCount)
	assert.True(t, summary.OK())
	assert.Equal(t, []string{SummarySlot}, writer.order)
}

func TestOrchestrator_PanicIsIsolated(t *testing.T) {
	var ranAfterPanic bool
	registry := newTestRegistry(t,
		Descriptor{Name: "boom", Enabled: true, Fetcher: types.FetcherFunc(func(context.Context) types.Result {
			var m map[string]int
			m["nil map"]++
			return types.Success(nil)
		})},
		Descriptor{Name: "after", Enabled: true, Fetcher: types.FetcherFunc(func(context.Context) types.Result {
			ranAfterPanic = true
			return types.Success("ok")
		})},
	)

	writer := newMemoryWriter()
	summary, err := newTestOrchestrator(registry, writer).Run(context.Background(), All())
	require.NoError(t, err)

	assert.True(t, ranAfterPanic)
	assert.Equal(t, types.OutcomeError, summary.Results["boom"])
	assert.Equal(t, types.OutcomeSuccess, summary.Results["after"])
	assert.NotContains(t, writer.written, "boom")
	assertSummaryConsistent(t, summary)
}

func TestOrchestrator_SourceWriteFailureIsRecorded(t *testing.T) {
	registry := newTestRegistry(t,
		Descriptor{Name: "A", Enabled: true, Snapshot: "slot-a", Fetcher: staticFetcher(types.Success("a"))},
		Descriptor{Name: "B", Enabled: true, Fetcher: staticFetcher(types.Success("b"))},
	)

	writer := newMemoryWriter()
	writer.failOn["slot-a"] = errors.New("disk full")

	summary, err := newTestOrchestrator(registry, writer).Run(context.Background(), All())
	require.NoError(t, err)

	assert.Equal(t, types.OutcomeFailed, summary.Results["A"])
	assert.Equal(t, types.OutcomeSuccess, summary.Results["B"])
	assert.Equal(t, "b", writer.written["B"])
}

func TestOrchestrator_SummaryWriteFailureIsFatal(t *testing.T) {
	writer := newMemoryWriter()
	writer.failOn[SummarySlot] = errors.New("read-only file system")

	summary, err := newTestOrchestrator(scenarioRegistry(t), writer).Run(context.Background(), All())
	require.Error(t, err)
	assert.ErrorContains(t, err, "write run summary")
	require.NotNil(t, summary)
	assert.Equal(t, 2, summary.Total)
}

func TestOrchestrator_CancelledRunRecordsRemainingSources(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	registry := newTestRegistry(t,
		Descriptor{Name: "first", Enabled: true, Fetcher: types.FetcherFunc(func(context.Context) types.Result {
			cancel()
			return types.Failure("interrupted")
		})},
		Descriptor{Name: "second", Enabled: true, Fetcher: staticFetcher(types.Success("never"))},
	)

	writer := newMemoryWriter()
	summary, err := newTestOrchestrator(registry, writer).Run(ctx, All())
	require.NoError(t, err)

	assert.Equal(t, types.OutcomeFailed, summary.Results["first"])
	assert.Equal(t, types.OutcomeError, summary.Results["second"])
	assert.Contains(t, writer.written, SummarySlot)
}

func TestOrchestrator_RejectsConcurrentRun(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})

	registry := newTestRegistry(t,
		Descriptor{Name: "slow", Enabled: true, Fetcher: types.FetcherFunc(func(context.Context) types.Result {
			close(started)
			<-release
			return types.Success("done")
		})},
	)
	orchestrator := newTestOrchestrator(registry, newMemoryWriter())
	assert.Equal(t, StateIdle, orchestrator.State())

	done := make(chan error, 1)
	go func() {
		_, err := orchestrator.Run(context.Background(), All())
		done <- err
	}()

	<-started
	assert.Equal(t, StateRunning, orchestrator.State())

	_, err := orchestrator.Run(context.Background(), All())
	assert.ErrorIs(t, err, ErrRunInProgress)

	close(release)
	require.NoError(t, <-done)
	assert.Equal(t, StateCompleted, orchestrator.State())
}

func TestOrchestrator_WritesEnvelopesToDisk(t *testing.T) {
	logger := zerolog.Nop()
	store := snapshot.NewFileStore(&snapshot.Config{
		Dir:       t.TempDir(),
		TTL:       2 * time.Hour,
		SourceTag: "api-prefetch-pipeline",
		Version:   "2.0",
	}, &logger, snapshot.WithClock(func() time.Time { return fetchTime }))

	orchestrator := NewOrchestrator(&logger, scenarioRegistry(t), store, FixedHorizon(4*time.Hour),
		WithOrchestratorClock(func() time.Time { return fetchTime }))

	_, err := orchestrator.Run(context.Background(), All())
	require.NoError(t, err)

	envelope, err := store.Read("A")
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"source": "A"}, envelope.Data)
	assert.False(t, envelope.Metadata.ExpiresAt.Before(envelope.Metadata.FetchedAt))

	_, err = store.Read("B")
	assert.True(t, failure.Is(err, snapshot.NotFound))

	summary, err := store.Read(SummarySlot)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{
		"fetch_time":           "2026-10-19T08:30:00Z",
		"results":              map[string]any{"A": "success", "B": "failed"},
		"success_count":        float64(1),
		"total_apis":           float64(2),
		"next_scheduled_fetch": "2026-10-19T12:30:00Z",
	}, summary.Data)
}
