// Package worker provides the periodic reconciliation worker: a backstop for
// expired status flags and drifted section counts on content that is never
// read.
package worker

import (
	"context"
	"sync"
	"time"

	"github.com/latifiss/oak/internal/content"
	"github.com/latifiss/oak/internal/logger"
)

const defaultInterval = time.Hour

// ReconcileWorker periodically runs every site's flag reconciler and section
// recount. Read paths reconcile on demand; this loop covers what nobody
// reads.
type ReconcileWorker struct {
	reconcilers []*content.Reconciler
	sections    []*content.SectionService
	interval    time.Duration
	logger      logger.Logger

	stopChan chan struct{}
	wg       sync.WaitGroup
	started  bool
	mu       sync.Mutex
}

// NewReconcileWorker creates the worker. A non-positive interval falls back
// to hourly.
func NewReconcileWorker(reconcilers []*content.Reconciler, sections []*content.SectionService, interval time.Duration, log logger.Logger) *ReconcileWorker {
	if interval <= 0 {
		interval = defaultInterval
	}
	return &ReconcileWorker{
		reconcilers: reconcilers,
		sections:    sections,
		interval:    interval,
		logger:      log,
		stopChan:    make(chan struct{}),
	}
}

// Start begins the reconciliation loop. Safe to call once; repeat calls are
// no-ops.
func (w *ReconcileWorker) Start(ctx context.Context) {
	w.mu.Lock()
	if w.started {
		w.mu.Unlock()
		return
	}
	w.started = true
	w.mu.Unlock()

	w.wg.Add(1)
	go w.run(ctx)

	w.logger.Info("reconcile worker started",
		logger.Duration("interval", w.interval))
}

// Stop gracefully stops the worker and waits for the current pass to finish.
func (w *ReconcileWorker) Stop() {
	w.mu.Lock()
	if !w.started {
		w.mu.Unlock()
		return
	}
	w.started = false
	w.mu.Unlock()

	close(w.stopChan)
	w.wg.Wait()

	w.logger.Info("reconcile worker stopped")
}

func (w *ReconcileWorker) run(ctx context.Context) {
	defer w.wg.Done()

	// One pass at startup so a restart never waits a full interval.
	w.pass(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopChan:
			return
		case <-ticker.C:
			w.pass(ctx)
		}
	}
}

func (w *ReconcileWorker) pass(ctx context.Context) {
	for _, r := range w.reconcilers {
		r.Reconcile(ctx)
	}
	for _, s := range w.sections {
		if err := s.RecountAll(ctx); err != nil {
			w.logger.Error("section recount pass failed", logger.Error(err))
		}
	}
}
