// Package config loads Sceneforged's runtime configuration from environment
// variables, following the same env()/envInt() pattern the original server
// used, extended with spf13/cast for lenient coercion of admin-editable
// settings pulled from the store at startup.
package config

import (
	"database/sql"
	"os"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cast"
)

// Config holds every tunable the core components need. The HTTP/CLI layers
// that own process startup are out of spec scope, but this is the shape they
// construct and pass in.
type Config struct {
	DatabaseURL string
	DataDir     string
	TempDir     string

	FFmpegPath   string
	FFprobePath  string
	MuxToolPath  string
	DoviToolPath string

	PollInterval      time.Duration
	PollBackoffCap    time.Duration
	LeaseTTL          time.Duration
	ProcessingWorkers int
	ConversionWorkers int

	HLSURLPrefix string

	RedisAddr string
}

func Load() *Config {
	return &Config{
		DatabaseURL: env("SCENEFORGED_DATABASE_URL", "postgres://sceneforged:sceneforged@db:5432/sceneforged?sslmode=disable"),
		DataDir:     env("SCENEFORGED_DATA_DIR", "/data"),
		TempDir:     env("SCENEFORGED_TEMP_DIR", os.TempDir()),

		FFmpegPath:   env("SCENEFORGED_FFMPEG_PATH", "ffmpeg"),
		FFprobePath:  env("SCENEFORGED_FFPROBE_PATH", "ffprobe"),
		MuxToolPath:  env("SCENEFORGED_MUX_TOOL_PATH", "mkvmerge"),
		DoviToolPath: env("SCENEFORGED_DOVI_TOOL_PATH", "dovi_tool"),

		PollInterval:      envDuration("SCENEFORGED_POLL_INTERVAL", time.Second),
		PollBackoffCap:    envDuration("SCENEFORGED_POLL_BACKOFF_CAP", 10*time.Second),
		LeaseTTL:          envDuration("SCENEFORGED_LEASE_TTL", 5*time.Minute),
		ProcessingWorkers: envInt("SCENEFORGED_PROCESSING_WORKERS", 1),
		ConversionWorkers: envInt("SCENEFORGED_CONVERSION_WORKERS", 2),

		HLSURLPrefix: env("SCENEFORGED_HLS_PREFIX", "hls"),

		RedisAddr: env("SCENEFORGED_REDIS_ADDR", "127.0.0.1:6379"),
	}
}

// MergeFromStore overlays admin-editable settings stored in the `settings`
// table, mirroring the teacher's MergeFromDB but using cast for coercion
// instead of hand-rolled strconv per key.
func (c *Config) MergeFromStore(db *sql.DB) {
	rows, err := db.Query("SELECT key, value FROM settings")
	if err != nil {
		log.Warn().Err(err).Msg("config: skipping store merge")
		return
	}
	defer rows.Close()

	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			continue
		}
		switch key {
		case "poll_interval_secs":
			if secs, err := cast.ToIntE(value); err == nil {
				c.PollInterval = time.Duration(secs) * time.Second
			}
		case "lease_ttl_secs":
			if secs, err := cast.ToIntE(value); err == nil {
				c.LeaseTTL = time.Duration(secs) * time.Second
			}
		case "processing_workers":
			if n, err := cast.ToIntE(value); err == nil {
				c.ProcessingWorkers = n
			}
		case "conversion_workers":
			if n, err := cast.ToIntE(value); err == nil {
				c.ConversionWorkers = n
			}
		case "ffmpeg_path":
			c.FFmpegPath = value
		case "ffprobe_path":
			c.FFprobePath = value
		}
	}
}

func env(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := cast.ToIntE(v); err == nil {
			return n
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := cast.ToDurationE(v); err == nil {
			return d
		}
	}
	return fallback
}
