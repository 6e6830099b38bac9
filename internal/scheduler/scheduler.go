// Package scheduler implements the Job Scheduler (C8): N worker loops
// polling the store's atomic dequeue, the lease-expiry sweeper, and a
// cron-driven scheduled-rescan supplement, per spec §4.8.
package scheduler

import (
	"context"
	"math/rand"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/sceneforged/sceneforged/internal/events"
	"github.com/sceneforged/sceneforged/internal/probe"
	"github.com/sceneforged/sceneforged/internal/store"
	"github.com/sceneforged/sceneforged/internal/toolchain"
)

// ScanFunc walks a library's configured paths, probing and registering new
// or changed files. It is supplied by the (out-of-scope) ingest/scan
// surface; the scheduler only knows when to call it.
type ScanFunc func(ctx context.Context, library *store.Library) error

// Deps bundles every collaborator a worker loop or the rescan cron needs.
type Deps struct {
	Store  *store.Store
	Prober *probe.Prober
	Tools  *toolchain.Registry
	Bus    *events.Bus
	Log    zerolog.Logger

	PollInterval      time.Duration
	PollBackoffCap    time.Duration
	LeaseTTL          time.Duration
	ProcessingWorkers int
	ConversionWorkers int

	OnScan ScanFunc // optional; nil disables the scheduled-rescan cron
}

// Scheduler owns the worker pool, the lease sweeper, and the rescan cron.
type Scheduler struct {
	deps Deps
	cron *cron.Cron

	group errgroup.Group
	stop  chan struct{}
}

// New builds a Scheduler. Call Start to begin its loops.
func New(deps Deps) *Scheduler {
	if deps.ProcessingWorkers <= 0 {
		deps.ProcessingWorkers = 1
	}
	return &Scheduler{
		deps: deps,
		cron: cron.New(),
		stop: make(chan struct{}),
	}
}

// Start launches every worker loop, the lease sweeper, and — if OnScan is
// set — the scheduled-rescan cron entry, all against ctx. Each loop is
// bounded by an errgroup.Group rather than a raw sync.WaitGroup so a future
// loop that does need to report a hard failure (vs. just running until
// ctx is done) can return it from Stop without changing this shape.
func (s *Scheduler) Start(ctx context.Context) {
	total := s.deps.ProcessingWorkers + s.deps.ConversionWorkers
	for i := 0; i < total; i++ {
		workerID := workerName(i)
		s.group.Go(func() error {
			s.runWorker(ctx, workerID)
			return nil
		})
	}

	s.group.Go(func() error {
		s.runLeaseSweeper(ctx)
		return nil
	})

	if s.deps.OnScan != nil {
		s.startRescanCron(ctx)
	}
}

// Stop signals every loop to exit and blocks until they do.
func (s *Scheduler) Stop() {
	close(s.stop)
	if s.cron != nil {
		<-s.cron.Stop().Done()
	}
	_ = s.group.Wait()
}

func workerName(i int) string {
	const letters = "abcdefghijklmnopqrstuvwxyz0123456789"
	suffix := make([]byte, 4)
	r := rand.New(rand.NewSource(int64(i) + time.Now().UnixNano()))
	for j := range suffix {
		suffix[j] = letters[r.Intn(len(letters))]
	}
	return "worker-" + string(rune('a'+i%26)) + "-" + string(suffix)
}
