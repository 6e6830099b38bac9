package scheduler

import (
	"context"

	"github.com/sceneforged/sceneforged/internal/store"
)

// rescanCheckSpec is how often the cron fires to check for due libraries;
// the actual cadence per library is governed by its own ScanIntervalSecs
// via store.LibraryRepository.GetDueForScan, not by this tick rate.
const rescanCheckSpec = "@every 1m"

// startRescanCron registers the scheduled-rescan check and starts the cron
// runner. Supplements spec §3's Library entity with automatic recurring
// rescans (disabled per-library by leaving ScanIntervalSecs at 0).
func (s *Scheduler) startRescanCron(ctx context.Context) {
	_, _ = s.cron.AddFunc(rescanCheckSpec, func() {
		s.checkDueLibraries(ctx)
	})
	s.cron.Start()
}

func (s *Scheduler) checkDueLibraries(ctx context.Context) {
	due, err := s.deps.Store.Libraries.GetDueForScan()
	if err != nil {
		s.deps.Log.Error().Err(err).Msg("rescan: list due libraries failed")
		return
	}
	for _, lib := range due {
		// Advance next_scan_at before running so a slow scan (or a crash
		// mid-scan) can't cause the same library to fire again next tick.
		if err := s.deps.Store.Libraries.AdvanceNextScan(lib.ID); err != nil {
			s.deps.Log.Error().Err(err).Str("library", lib.Name).Msg("rescan: advance next_scan_at failed")
			continue
		}
		go s.runScan(ctx, lib)
	}
}

func (s *Scheduler) runScan(ctx context.Context, lib *store.Library) {
	if err := s.deps.OnScan(ctx, lib); err != nil {
		s.deps.Log.Error().Err(err).Str("library", lib.Name).Msg("scheduled rescan failed")
	}
}
