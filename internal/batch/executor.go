package batch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/smilemakc/smslabel/internal/apperr"
	"github.com/smilemakc/smslabel/internal/fusion"
	"github.com/smilemakc/smslabel/internal/provider"
	"github.com/smilemakc/smslabel/internal/rules"
	"github.com/smilemakc/smslabel/internal/store"
	"github.com/smilemakc/smslabel/internal/taxonomy"
)

// retryDelay is the fixed inter-attempt sleep workers observe between
// classify attempts.
const retryDelay = 120 * time.Millisecond

// progressThrottle bounds how often the coordinator emits a snapshot to
// the sink.
const progressThrottle = 200 * time.Millisecond

// ProviderBuilder constructs the provider snapshot used for one run. The
// build result is frozen at start(): in-flight reconfiguration is
// intentionally ignored.
type ProviderBuilder func() (provider.Provider, error)

// Executor drives classification over a candidate set with a bounded
// worker pool. The progress record, failed-id list and pending-queue
// bookkeeping live under one exclusive lock (mu); heavy per-message
// counters are atomic to avoid lock contention from workers.
type Executor struct {
	store        *store.Store
	buildProvider ProviderBuilder
	logDir       string
	logger       *slog.Logger

	mu               sync.Mutex
	running          bool
	stopFlag         atomic.Bool
	total            int
	currentMessageID *int64
	startedAtMs      *int64
	finishedElapsed  int64
	failedIDs        []int64
	sink             Sink
	opts             Options

	done          atomic.Int64
	failed        atomic.Int64
	strongHits    atomic.Int64
	modelCalls    atomic.Int64
	modelFailures atomic.Int64
}

// New builds an Executor bound to a store, a provider builder snapshot
// function, and the directory where batch_errors.log is appended.
func New(st *store.Store, buildProvider ProviderBuilder, logDir string, logger *slog.Logger) *Executor {
	return &Executor{store: st, buildProvider: buildProvider, logDir: logDir, logger: logger}
}

// Start begins a batch run. It fails with ErrAlreadyRunning if one is in
// progress, or surfaces a coordinator error (candidate fetch / provider
// build failure) to the caller without starting the batch.
func (e *Executor) Start(ctx context.Context, opts Options, sink Sink) error {
	e.mu.Lock()
	if e.running {
		e.mu.Unlock()
		return apperr.ErrAlreadyRunning
	}
	e.running = true
	e.mu.Unlock()

	opts = opts.normalized()
	e.stopFlag.Store(false)

	e.mu.Lock()
	e.failedIDs = nil
	e.opts = opts
	e.sink = sink
	e.mu.Unlock()

	ids, err := e.store.FetchBatchCandidates(ctx, opts.Mode, 0, opts.IDMin, opts.IDMax)
	if err != nil {
		e.mu.Lock()
		e.running = false
		e.mu.Unlock()
		return fmt.Errorf("fetch candidates: %w", err)
	}

	prov, err := e.buildProvider()
	if err != nil {
		e.mu.Lock()
		e.running = false
		e.mu.Unlock()
		return fmt.Errorf("build provider: %w", err)
	}

	now := time.Now().UnixMilli()
	e.mu.Lock()
	e.total = len(ids)
	e.startedAtMs = &now
	e.currentMessageID = nil
	e.mu.Unlock()
	e.done.Store(0)
	e.failed.Store(0)
	e.strongHits.Store(0)
	e.modelCalls.Store(0)
	e.modelFailures.Store(0)

	go e.coordinate(ctx, ids, opts, prov)
	return nil
}

// Stop requests cancellation. The coordinator and workers observe the
// flag at well-defined points; in-flight provider calls are not
// cancelled and must time out on their own deadline.
func (e *Executor) Stop() {
	e.stopFlag.Store(true)
}

// Status returns an advisory snapshot.
func (e *Executor) Status() Progress {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshotLocked()
}

func (e *Executor) snapshotLocked() Progress {
	elapsed := e.finishedElapsed
	if e.running && e.startedAtMs != nil {
		elapsed = time.Now().UnixMilli() - *e.startedAtMs
	}
	return Progress{
		Running:          e.running,
		Total:            e.total,
		Done:             e.done.Load(),
		Failed:           e.failed.Load(),
		RuleStrongHits:   e.strongHits.Load(),
		ModelCalls:       e.modelCalls.Load(),
		ModelFailures:    e.modelFailures.Load(),
		CurrentMessageID: e.currentMessageID,
		StartedAtMs:      e.startedAtMs,
		ElapsedMs:        elapsed,
	}
}

// RetryFailed moves the accumulated failed ids back into a pending queue
// and starts a new run over exactly those ids. It fails with
// ErrNotRunning ("is running") if a batch is currently active.
func (e *Executor) RetryFailed(ctx context.Context, sink Sink) error {
	e.mu.Lock()
	if e.running {
		e.mu.Unlock()
		return apperr.ErrNotRunning
	}
	ids := e.failedIDs
	e.failedIDs = nil
	opts := e.opts
	e.mu.Unlock()

	if len(ids) == 0 {
		return nil
	}

	e.mu.Lock()
	e.running = true
	e.mu.Unlock()
	e.stopFlag.Store(false)

	prov, err := e.buildProvider()
	if err != nil {
		e.mu.Lock()
		e.running = false
		e.mu.Unlock()
		return fmt.Errorf("build provider: %w", err)
	}

	now := time.Now().UnixMilli()
	e.mu.Lock()
	e.total = len(ids)
	e.startedAtMs = &now
	e.currentMessageID = nil
	e.sink = sink
	e.mu.Unlock()
	e.done.Store(0)
	e.failed.Store(0)
	e.strongHits.Store(0)
	e.modelCalls.Store(0)
	e.modelFailures.Store(0)

	go e.coordinate(ctx, ids, opts, prov)
	return nil
}

// coordinate is the single driver: it feeds ids to a bounded worker pool
// through a job channel and consumes a result channel, emitting throttled
// progress to the sink until all ids are accounted for or stop drains
// in-flight work.
func (e *Executor) coordinate(ctx context.Context, ids []int64, opts Options, prov provider.Provider) {
	jobs := make(chan int64)
	results := make(chan jobResult)

	var wg sync.WaitGroup
	for i := 0; i < opts.Concurrency; i++ {
		wg.Add(1)
		go e.worker(ctx, jobs, results, opts, prov, &wg)
	}

	go func() {
		defer close(jobs)
		for _, id := range ids {
			if e.stopFlag.Load() {
				return
			}
			e.mu.Lock()
			idCopy := id
			e.currentMessageID = &idCopy
			e.mu.Unlock()
			select {
			case jobs <- id:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	lastEmit := time.Now().Add(-progressThrottle)
	for res := range results {
		switch res.outcome {
		case outcomeOK:
			e.done.Add(1)
		case outcomeFailed:
			e.done.Add(1)
			e.failed.Add(1)
			e.mu.Lock()
			e.failedIDs = append(e.failedIDs, res.id)
			e.mu.Unlock()
		case outcomeStopped:
			// neither success nor failure; not counted.
		}

		if time.Since(lastEmit) >= progressThrottle {
			e.emitProgress()
			lastEmit = time.Now()
		}
	}

	e.mu.Lock()
	e.running = false
	e.currentMessageID = nil
	if e.startedAtMs != nil {
		e.finishedElapsed = time.Now().UnixMilli() - *e.startedAtMs
	}
	e.mu.Unlock()
	e.emitProgress()
}

func (e *Executor) emitProgress() {
	e.mu.Lock()
	sink := e.sink
	snap := e.snapshotLocked()
	e.mu.Unlock()
	if sink != nil {
		sink.OnProgress(snap)
	}
}

func (e *Executor) worker(ctx context.Context, jobs <-chan int64, results chan<- jobResult, opts Options, prov provider.Provider, wg *sync.WaitGroup) {
	defer wg.Done()
	for id := range jobs {
		if e.stopFlag.Load() {
			results <- jobResult{id: id, outcome: outcomeStopped}
			continue
		}
		err := e.processOne(ctx, id, opts, prov)
		if err != nil {
			results <- jobResult{id: id, outcome: outcomeFailed, err: err}
			continue
		}
		results <- jobResult{id: id, outcome: outcomeOK}
	}
}

// processOne implements the per-message pipeline: rules, optional model
// call with bounded retries, fusion, and persistence. A failure after all
// retries writes an error_fallback label so the message is never left
// undecided.
func (e *Executor) processOne(ctx context.Context, id int64, opts Options, prov provider.Provider) error {
	content, err := e.store.GetMessageContent(ctx, id)
	if err != nil {
		return err
	}

	ruleResult := rules.Run(content, "")

	var modelLabel *taxonomy.Label
	if ruleResult.StrongHit {
		e.strongHits.Add(1)
	} else {
		if prov == nil {
			e.modelFailures.Add(1)
			return e.fallback(ctx, id, ruleResult, &apperr.ProviderError{Kind: apperr.KindProviderUnavail, Err: apperr.ErrProviderUnavail})
		}
		e.modelCalls.Add(1)
		payload := provider.Payload{
			MessageID: id,
			Content:   content,
			Entities:  ruleResult.Entities,
			Signals:   ruleResult.Signals,
		}
		timeout := time.Duration(opts.TimeoutMS) * time.Millisecond
		var lastErr error
		attempts := 1 + opts.MaxRetries
		for attempt := 0; attempt < attempts; attempt++ {
			if attempt > 0 {
				time.Sleep(retryDelay)
			}
			label, err := prov.Classify(ctx, payload, timeout)
			if err == nil {
				modelLabel = &label
				lastErr = nil
				break
			}
			lastErr = err
		}
		if lastErr != nil {
			e.modelFailures.Add(1)
			return e.fallback(ctx, id, ruleResult, lastErr)
		}
	}

	final := fusion.Fuse(fusion.Input{
		Rule:          ruleResult.Label,
		Model:         modelLabel,
		RuleStrongHit: ruleResult.StrongHit,
	})
	if err := e.store.UpsertLabelAuto(ctx, id, final); err != nil {
		return err
	}
	return nil
}

func (e *Executor) fallback(ctx context.Context, id int64, ruleResult rules.Result, cause error) error {
	label := taxonomy.ErrorFallback(ruleResult.Entities, ruleResult.Signals, cause)
	if err := e.store.UpsertLabelAuto(ctx, id, label); err != nil {
		return err
	}
	e.appendErrorLog(id, cause)
	return cause
}

func (e *Executor) appendErrorLog(id int64, cause error) {
	if e.logDir == "" {
		return
	}
	path := filepath.Join(e.logDir, "batch_errors.log")
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		if e.logger != nil {
			e.logger.Error("failed to open batch error log", "error", err)
		}
		return
	}
	defer f.Close()
	var line string
	if errors.Is(cause, apperr.ErrProviderUnavail) {
		line = fmt.Sprintf("provider unavailable: %s\n", cause.Error())
	} else {
		line = fmt.Sprintf("message_id=%d classify failed: %s\n", id, cause.Error())
	}
	if _, err := f.WriteString(line); err != nil && e.logger != nil {
		e.logger.Error("failed to append batch error log", "error", err)
	}
}
