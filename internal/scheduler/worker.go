package scheduler

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog"

	"github.com/sceneforged/sceneforged/internal/actions"
	"github.com/sceneforged/sceneforged/internal/apperr"
	"github.com/sceneforged/sceneforged/internal/events"
	"github.com/sceneforged/sceneforged/internal/hls"
	"github.com/sceneforged/sceneforged/internal/pipeline"
	"github.com/sceneforged/sceneforged/internal/probe"
	"github.com/sceneforged/sceneforged/internal/rules"
	"github.com/sceneforged/sceneforged/internal/store"
	"github.com/sceneforged/sceneforged/internal/toolchain"
)

// runWorker is one worker loop: poll DequeueNext, process what it finds,
// back off when the queue is empty, repeat until ctx is done or Stop was
// called (spec §4.8 step 1).
func (s *Scheduler) runWorker(ctx context.Context, workerID string) {
	log := s.deps.Log.With().Str("worker", workerID).Logger()
	consecutiveEmpty := 0

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stop:
			return
		default:
		}

		job, err := s.deps.Store.Jobs.DequeueNext(workerID, s.deps.LeaseTTL)
		if err != nil {
			log.Error().Err(err).Msg("dequeue failed")
			sleep(ctx, jitter(time.Second))
			continue
		}
		if job == nil {
			consecutiveEmpty++
			sleep(ctx, pollBackoff(s.deps.PollInterval, s.deps.PollBackoffCap, consecutiveEmpty))
			continue
		}
		consecutiveEmpty = 0
		s.processJob(ctx, log, job)
	}
}

func sleep(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

// processJob drives a single dequeued job through probe → rule dispatch →
// pipeline execution → completion/retry/failure, per spec §4.8 steps 2-6.
func (s *Scheduler) processJob(ctx context.Context, log zerolog.Logger, job *store.Job) {
	bus := s.deps.Bus
	bus.Publish(events.Event{Type: events.KindStarted, JobID: job.ID, Category: events.CategoryAdmin, Timestamp: time.Now()})

	info, err := s.deps.Prober.Probe(ctx, job.FilePath)
	if err != nil {
		s.failOrRetry(ctx, job, apperr.Pipeline("probe", err.Error()))
		return
	}

	ruleSet, err := s.loadRules()
	if err != nil {
		s.failOrRetry(ctx, job, err)
		return
	}
	rule, matched := rules.FirstMatch(ruleSet, info)
	if !matched {
		// Nothing to do: the file already satisfies every enabled rule's
		// negative space. Treat as a completed no-op (spec §4.3).
		s.complete(job, info)
		return
	}

	configs := make([]actions.Config, 0, len(rule.Actions))
	for _, a := range rule.Actions {
		configs = append(configs, actions.Config{Name: a.Name, Args: a.Args})
	}
	actionList, err := actions.BuildAll(configs)
	if err != nil {
		s.failOrRetry(ctx, job, err)
		return
	}

	ws, err := toolchain.New(job.FilePath)
	if err != nil {
		s.failOrRetry(ctx, job, apperr.IO("workspace", err))
		return
	}
	defer ws.Close()

	actionCtx := &actions.Ctx{
		Context:   ctx,
		Workspace: ws,
		Info:      info,
		Tools:     s.deps.Tools,
		DryRun:    false,
	}

	lastRefresh := time.Now()
	report := func(fraction float64, step string) {
		pct := int(fraction * 100)
		_ = s.deps.Store.Jobs.UpdateProgress(job.ID, pct, step)
		bus.Publish(events.Event{
			Type: events.KindProgress, JobID: job.ID, Category: events.CategoryAdmin,
			Timestamp: time.Now(), Fraction: fraction, Step: step,
		})
		// Refresh the lease at most once a second; the executor's stage
		// boundaries can fire far more often than that under fast actions.
		if job.LeaseToken != nil && time.Since(lastRefresh) > time.Second {
			if err := s.deps.Store.Jobs.RefreshLease(job.ID, *job.LeaseToken); err == nil {
				lastRefresh = time.Now()
			}
		}
	}
	actionCtx.Progress = report

	exec := pipeline.NewExecutor(actionList)
	if err := exec.Run(ctx, actionCtx, report); err != nil {
		s.failOrRetry(ctx, job, err)
		return
	}

	s.completeAfterAction(job, ws.InputPath())
}

// complete marks job done and, when info already serves as universal
// (no action was needed), builds and caches its HLS segment map.
func (s *Scheduler) complete(job *store.Job, info *probe.MediaInfo) {
	if info.ServesAsUniversal() {
		s.rebuildSegmentMap(job.FilePath)
	}
	_ = s.deps.Store.Jobs.Complete(job.ID)
	s.deps.Bus.Publish(events.Event{Type: events.KindCompleted, JobID: job.ID, Category: events.CategoryAdmin, Timestamp: time.Now()})
}

// completeAfterAction re-probes filePath (an action may have rewritten it in
// place), persists the refreshed MediaFile row, and rebuilds the HLS segment
// map when the result now serves as universal.
func (s *Scheduler) completeAfterAction(job *store.Job, filePath string) {
	info, err := s.deps.Prober.Probe(context.Background(), filePath)
	if err == nil {
		if mf, getErr := s.deps.Store.MediaFiles.GetByFilePath(filePath); getErr == nil {
			applyProbeResult(mf, info)
			_ = s.deps.Store.MediaFiles.Upsert(mf)
		}
		if info.ServesAsUniversal() {
			s.rebuildSegmentMap(filePath)
		}
	}
	_ = s.deps.Store.Jobs.Complete(job.ID)
	s.deps.Bus.Publish(events.Event{Type: events.KindCompleted, JobID: job.ID, Category: events.CategoryAdmin, Timestamp: time.Now()})
}

func applyProbeResult(mf *store.MediaFile, info *probe.MediaInfo) {
	mf.FileSize = info.Size
	mf.Container = info.Container
	mf.Duration = info.Duration
	mf.HasFaststart = info.HasFaststart
	mf.Profile = probe.Classify(info)
	mf.ServesAsUniversal = info.ServesAsUniversal()
	if v := info.PrimaryVideo(); v != nil {
		mf.VideoCodec = v.Codec
		mf.HDRFormat = v.HDRFormat
		if v.DVInfo != nil {
			profile := v.DVInfo.Profile
			mf.DvProfile = &profile
			mf.HasRPU = v.DVInfo.RPUPresent
		}
	}
	if a := info.PrimaryAudio(); a != nil {
		mf.AudioCodec = a.Codec
	}
}

// rebuildSegmentMap builds and upserts the HLS cache row for filePath,
// logging rather than failing the job on error — a missing segment map
// only blocks HLS playback, not the completed pipeline run (spec §4.9.1).
func (s *Scheduler) rebuildSegmentMap(filePath string) {
	sm, err := hls.BuildSegmentMap(filePath)
	if err != nil {
		s.deps.Log.Warn().Err(err).Str("path", filePath).Msg("hls: segment map build failed")
		return
	}
	mf, err := s.deps.Store.MediaFiles.GetByFilePath(filePath)
	if err != nil {
		s.deps.Log.Warn().Err(err).Str("path", filePath).Msg("hls: no media_files row for segment map")
		return
	}
	wire, err := sm.Marshal()
	if err != nil {
		s.deps.Log.Warn().Err(err).Msg("hls: segment map marshal failed")
		return
	}
	cache := &store.HLSCache{MediaFileID: mf.ID, InitSegment: sm.InitSegment, SegmentCount: len(sm.Segments), SegmentMap: wire}
	if err := s.deps.Store.HLSCache.Upsert(cache); err != nil {
		s.deps.Log.Warn().Err(err).Msg("hls: segment map upsert failed")
	}
}

// failOrRetry implements spec §4.8 step 5: retry with backoff while under
// MaxRetries, otherwise permanently fail the job.
func (s *Scheduler) failOrRetry(_ context.Context, job *store.Job, cause error) {
	msg := cause.Error()
	if job.RetryCount >= job.MaxRetries || !apperr.Retryable(cause) {
		_ = s.deps.Store.Jobs.Fail(job.ID, msg)
		s.deps.Bus.Publish(events.Event{Type: events.KindFailed, JobID: job.ID, Category: events.CategoryAdmin, Timestamp: time.Now(), Error: msg})
		return
	}
	delay := retryBackoff(job.RetryCount)
	_ = s.deps.Store.Jobs.Requeue(job.ID, time.Now().Add(delay), msg)
	s.deps.Bus.Publish(events.Event{Type: events.KindFailed, JobID: job.ID, Category: events.CategoryAdmin, Timestamp: time.Now(), Error: msg})
}

func (s *Scheduler) loadRules() ([]rules.Rule, error) {
	rows, err := s.deps.Store.Rules.ListEnabled()
	if err != nil {
		return nil, err
	}
	out := make([]rules.Rule, 0, len(rows))
	for _, row := range rows {
		var raw rules.RawRule
		if err := json.Unmarshal(row.ConfigJSON, &raw); err != nil {
			s.deps.Log.Warn().Err(err).Str("rule", row.Name).Msg("skipping unparseable rule")
			continue
		}
		out = append(out, raw.ToRule())
	}
	return out, nil
}

// runLeaseSweeper periodically reclaims jobs whose worker crashed mid-lease
// (spec §4.7's lease-expiry recovery), requeueing them for another worker.
func (s *Scheduler) runLeaseSweeper(ctx context.Context) {
	interval := s.deps.LeaseTTL / 2
	if interval <= 0 {
		interval = 30 * time.Second
	}
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stop:
			return
		case <-t.C:
			ids, err := s.deps.Store.Jobs.SweepExpiredLeases(s.deps.LeaseTTL)
			if err != nil {
				s.deps.Log.Error().Err(err).Msg("lease sweep failed")
				continue
			}
			for _, id := range ids {
				s.deps.Log.Warn().Str("job_id", id.String()).Msg("reclaimed expired lease")
			}
		}
	}
}
