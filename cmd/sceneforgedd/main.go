// Command sceneforgedd is the daemon entrypoint: it wires the store,
// scheduler, HLS/admin facades, and the webhook subsystem together and
// blocks serving HTTP, following CineVault's cmd/cinevault/main.go wiring
// order (config → db → collaborators → background loops → server).
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/sceneforged/sceneforged/internal/config"
	"github.com/sceneforged/sceneforged/internal/events"
	"github.com/sceneforged/sceneforged/internal/logging"
	"github.com/sceneforged/sceneforged/internal/probe"
	"github.com/sceneforged/sceneforged/internal/scheduler"
	"github.com/sceneforged/sceneforged/internal/service"
	"github.com/sceneforged/sceneforged/internal/store"
	"github.com/sceneforged/sceneforged/internal/toolchain"
	"github.com/sceneforged/sceneforged/internal/webhook"
)

const banner = `
  ____                            __                          _
 / ___|  ___ ___ _ __   ___ / _| ___  _ __ __ _  ___  __| |
 \___ \ / __/ _ \ '_ \ / _ \ |_ / _ \| '__/ _' |/ _ \/ _' |
  ___) | (_|  __/ | | |  __/  _| (_) | | | (_| |  __/ (_| |
 |____/ \___\___|_| |_|\___|_|  \___/|_|  \__, |\___|\__,_|
                                           |___/
`

func main() {
	fmt.Println(banner)

	cfg := config.Load()
	log := logging.New(logging.Config{Level: os.Getenv("SCENEFORGED_LOG_LEVEL")})

	st, err := store.Open(cfg.DatabaseURL, log)
	if err != nil {
		log.Fatal().Err(err).Msg("store: connect failed")
	}
	defer st.Close()

	if err := store.Migrate(st.DB, "migrations", log); err != nil {
		log.Fatal().Err(err).Msg("store: migration failed")
	}
	cfg.MergeFromStore(st.DB)

	prober := probe.Default(log, cfg.FFprobePath)

	tools := toolchain.NewRegistry(map[string]toolchain.ToolConfig{
		"ffmpeg":    {Path: cfg.FFmpegPath, Timeout: 6 * time.Hour},
		"ffprobe":   {Path: cfg.FFprobePath, Timeout: time.Minute},
		"mkvmerge":  {Path: cfg.MuxToolPath, Timeout: time.Hour},
		"dovi_tool": {Path: cfg.DoviToolPath, Timeout: time.Hour},
	}, 2, 4)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	tools.Discover(ctx)

	bus := events.NewBus(256, 32)

	sched := scheduler.New(scheduler.Deps{
		Store:  st,
		Prober: prober,
		Tools:  tools,
		Bus:    bus,
		Log:    log,

		PollInterval:      cfg.PollInterval,
		PollBackoffCap:    cfg.PollBackoffCap,
		LeaseTTL:          cfg.LeaseTTL,
		ProcessingWorkers: cfg.ProcessingWorkers,
		ConversionWorkers: cfg.ConversionWorkers,
		// OnScan is left nil: walking a library's configured paths and
		// registering items belongs to the ingest/scan surface, which is
		// out of scope here. Scheduled rescans are a no-op until that
		// surface is wired in.
	})
	sched.Start(ctx)
	defer sched.Stop()

	fsWatcher, err := webhook.New(func(libraryID uuid.UUID, path string) {
		job := &store.Job{FilePath: path, MaxRetries: 3, Source: store.JobSourceWatcher}
		if _, err := st.Jobs.Submit(job); err != nil {
			log.Error().Err(err).Str("path", path).Msg("watcher: submit job failed")
		}
	}, log, 0)
	if err != nil {
		log.Warn().Err(err).Msg("filesystem watcher unavailable")
	} else {
		libs, err := st.Libraries.List()
		if err != nil {
			log.Warn().Err(err).Msg("watcher: could not list libraries")
		}
		for _, lib := range libs {
			for _, root := range lib.Paths {
				if err := fsWatcher.Watch(root, lib.ID); err != nil {
					log.Warn().Err(err).Str("path", root).Msg("watcher: watch root failed")
				}
			}
		}
		fsWatcher.Start()
		defer fsWatcher.Stop()
	}

	dispatcher := webhook.NewDispatcher(cfg.RedisAddr, log)
	defer dispatcher.Close()
	bridge := webhook.NewBridge(dispatcher, func() []webhook.Subscription {
		subs, err := st.WebhookSubscriptions.ListEnabled()
		if err != nil {
			log.Error().Err(err).Msg("webhook: list subscriptions failed")
			return nil
		}
		out := make([]webhook.Subscription, 0, len(subs))
		for _, s := range subs {
			out = append(out, webhook.Subscription{ID: s.ID.String(), URL: s.URL, Secret: s.Secret, Events: s.Events, Enabled: s.Enabled})
		}
		return out
	}, log)
	go bridge.Run(ctx, bus)

	deliverySrv, deliveryMux := webhook.NewServer(cfg.RedisAddr, 5, log)
	go func() {
		if err := deliverySrv.Run(deliveryMux); err != nil {
			log.Error().Err(err).Msg("webhook delivery server stopped")
		}
	}()
	defer deliverySrv.Shutdown()

	mux := http.NewServeMux()
	mux.Handle("/", service.NewAdminServer(st, log))
	mux.Handle("/"+cfg.HLSURLPrefix+"/", service.NewHLSServer(st, log))

	addr := os.Getenv("SCENEFORGED_LISTEN_ADDR")
	if addr == "" {
		addr = ":8420"
	}
	log.Info().Str("addr", addr).Msg("sceneforgedd listening")
	httpServer := &http.Server{Addr: addr, Handler: mux}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = httpServer.Shutdown(shutdownCtx)
	}()
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal().Err(err).Msg("http server failed")
	}
}
