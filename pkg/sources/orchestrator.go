package sources

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"strings"
	"sync"
	"time"

	"github.com/defeedco/prefetch/pkg/snapshot"
	"github.com/defeedco/prefetch/pkg/sources/types"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type State int

const (
	StateIdle State = iota
	StateRunning
	StateCompleted
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateCompleted:
		return "completed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

var ErrRunInProgress = errors.New("a run is already in progress")

// Orchestrator runs the selected sources one after another and records the outcome of each.
//
// One source never influences another: a failure, a panic or a write error is
// recorded against the source that caused it and the loop moves on.
type Orchestrator struct {
	registry *Registry
	writer   snapshot.Writer
	schedule Schedule
	logger   *zerolog.Logger
	now      func() time.Time

	mu    sync.Mutex
	state State
}

type OrchestratorOption func(*Orchestrator)

func WithOrchestratorClock(now func() time.Time) OrchestratorOption {
	return func(o *Orchestrator) {
		o.now = now
	}
}

func NewOrchestrator(
	logger *zerolog.Logger,
	registry *Registry,
	writer snapshot.Writer,
	schedule Schedule,
	opts ...OrchestratorOption,
) *Orchestrator {
	if schedule == nil {
		schedule = FixedHorizon(DefaultHorizon)
	}
	o := &Orchestrator{
		registry: registry,
		writer:   writer,
		schedule: schedule,
		logger:   logger,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// Run processes the sources resolved from sel and writes the run summary.
// Per-source problems end up in the summary; only a failure to write the
// summary itself is returned as an error.
func (o *Orchestrator) Run(ctx context.Context, sel Selection) (*Summary, error) {
	o.mu.Lock()
	if o.state == StateRunning {
		o.mu.Unlock()
		return nil, ErrRunInProgress
	}
	o.state = StateRunning
	o.mu.Unlock()

	defer func() {
		o.mu.Lock()
		o.state = StateCompleted
		o.mu.Unlock()
	}()

	runLogger := o.logger.With().Str("run_id", uuid.NewString()).Logger()

	for _, name := range o.registry.Unknown(sel) {
		event := runLogger.Warn().Str("source", name)
		if suggestions := o.registry.Suggest(name); len(suggestions) > 0 {
			event = event.Str("did_you_mean", strings.Join(suggestions, ","))
		}
		event.Msg("Ignoring unknown source")
	}

	descriptors := o.registry.Resolve(sel)
	summary := newSummary(o.now().UTC(), len(descriptors))

	runLogger.Info().
		Str("selection", sel.String()).
		Int("count", len(descriptors)).
		Msg("Starting fetch run")

	for _, d := range descriptors {
		sLogger := runLogger.With().Str("source", d.Name).Logger()

		if err := ctx.Err(); err != nil {
			sLogger.Error().Err(err).Msg("Run cancelled before source was fetched")
			summary.record(d.Name, types.OutcomeError)
			continue
		}

		outcome := o.process(ctx, d, &sLogger)
		summary.record(d.Name, outcome)
	}

	summary.NextScheduledFetch = o.schedule.Next(summary.FetchTime).UTC()

	// The summary is written even when the run was cancelled, so that
	// consumers see which sources are stale.
	if err := o.writer.Write(context.WithoutCancel(ctx), SummarySlot, summary); err != nil {
		return summary, fmt.Errorf("write run summary: %w", err)
	}

	runLogger.Info().
		Int("success_count", summary.SuccessCount).
		Int("total", summary.Total).
		Time("next_scheduled_fetch", summary.NextScheduledFetch).
		Msgf("Fetch run completed: %d/%d successful", summary.SuccessCount, summary.Total)

	return summary, nil
}

func (o *Orchestrator) process(ctx context.Context, d Descriptor, logger *zerolog.Logger) types.Outcome {
	logger.Info().Msg("Fetching source")
	start := time.Now()

	result, panicked := safeFetch(ctx, d.Fetcher, logger)
	if panicked {
		return types.OutcomeError
	}

	if !result.OK() {
		logger.Error().
			Str("reason", result.Reason()).
			Dur("duration", time.Since(start)).
			Msg("Source fetch failed")
		return types.OutcomeFailed
	}

	if err := o.writer.Write(ctx, d.Snapshot, result.Document()); err != nil {
		logger.Error().
			Err(err).
			Str("slot", d.Snapshot).
			Msg("Failed to save source snapshot")
		return types.OutcomeFailed
	}

	logger.Info().
		Str("slot", d.Snapshot).
		Dur("duration", time.Since(start)).
		Msg("Source fetched")

	return types.OutcomeSuccess
}

// safeFetch calls the fetcher and converts a panic into a reported flag.
func safeFetch(ctx context.Context, fetcher types.Fetcher, logger *zerolog.Logger) (result types.Result, panicked bool) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error().
				Interface("panic", r).
				Str("stack", string(debug.Stack())).
				Msg("Source fetcher panicked")
			result = types.Failuref("panic: %v", r)
			panicked = true
		}
	}()

	return fetcher.Fetch(ctx), false
}
