package store

import (
	"time"

	"github.com/google/uuid"

	"github.com/sceneforged/sceneforged/internal/apperr"
	"github.com/sceneforged/sceneforged/internal/probe"
)

// ──────────────────── Enums ────────────────────

type MediaType string

const (
	MediaTypeMovies MediaType = "movies"
	MediaTypeTV     MediaType = "tv"
	MediaTypeMusic  MediaType = "music"
)

type ItemKind string

const (
	ItemKindMovie   ItemKind = "movie"
	ItemKindSeries  ItemKind = "series"
	ItemKindSeason  ItemKind = "season"
	ItemKindEpisode ItemKind = "episode"
)

type MediaRole string

const (
	RoleSource    MediaRole = "source"
	RoleUniversal MediaRole = "universal"
	RoleExtra     MediaRole = "extra"
)

type JobStatus string

const (
	JobQueued     JobStatus = "queued"
	JobProcessing JobStatus = "processing"
	JobCompleted  JobStatus = "completed"
	JobFailed     JobStatus = "failed"
	JobCancelled  JobStatus = "cancelled"
)

type JobSource string

const (
	JobSourceManual  JobSource = "manual"
	JobSourceWebhook JobSource = "webhook"
	JobSourceWatcher JobSource = "watcher"
	JobSourceAPI     JobSource = "api"
)

// ──────────────────── Library / Item ────────────────────

type Library struct {
	ID        uuid.UUID `db:"id"`
	Name      string    `db:"name"`
	MediaType MediaType `db:"media_type"`
	Paths     []string  `db:"paths"`
	// ScanIntervalSecs and NextScanAt back the scheduled-rescan supplement
	// (internal/scheduler): 0 disables automatic rescanning for this library.
	ScanIntervalSecs int       `db:"scan_interval_secs"`
	NextScanAt       time.Time `db:"next_scan_at"`
	CreatedAt        time.Time `db:"created_at"`
	UpdatedAt        time.Time `db:"updated_at"`
}

type Item struct {
	ID           uuid.UUID  `db:"id"`
	LibraryID    uuid.UUID  `db:"library_id"`
	Kind         ItemKind   `db:"kind"`
	Name         string     `db:"name"`
	SortName     *string    `db:"sort_name"`
	Year         *int       `db:"year"`
	ParentID     *uuid.UUID `db:"parent_id"`
	SeasonNumber *int       `db:"season_number"`
	EpisodeNumber *int      `db:"episode_number"`
	ExternalIDs  map[string]string `db:"-"`
	CreatedAt    time.Time  `db:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at"`
}

// ──────────────────── MediaFile ────────────────────

type MediaFile struct {
	ID                 uuid.UUID         `db:"id"`
	ItemID             uuid.UUID         `db:"item_id"`
	FilePath           string            `db:"file_path"`
	FileSize           int64             `db:"file_size"`
	Container          probe.Container   `db:"container"`
	VideoCodec         string            `db:"video_codec"`
	AudioCodec         string            `db:"audio_codec"`
	Resolution         string            `db:"resolution"`
	HDRFormat          probe.HDRFormat   `db:"hdr_format"`
	DvProfile          *int              `db:"dv_profile"`
	HasRPU             bool              `db:"has_rpu"`
	Duration           float64           `db:"duration"`
	Role               MediaRole         `db:"role"`
	Profile            probe.Profile     `db:"profile"`
	ServesAsUniversal  bool              `db:"serves_as_universal"`
	HasFaststart       bool              `db:"has_faststart"`
	KeyframeIntervalS  float64           `db:"keyframe_interval_secs"`
	CreatedAt          time.Time         `db:"created_at"`
	UpdatedAt          time.Time         `db:"updated_at"`
}

// Validate enforces the §3 invariant that serves_as_universal implies the
// profile-B shape. Callers populate MediaFile from probe.MediaInfo/Classify
// before persisting, so this is a defensive check, not routing logic.
func (m *MediaFile) Validate() error {
	if m.ServesAsUniversal {
		if m.Container != probe.ContainerMP4 || m.VideoCodec != "h264" || m.AudioCodec != "aac" || m.Profile != probe.ProfileB {
			return apperr.Validation("serves_as_universal", "requires mp4/h264/aac/profile-B")
		}
	}
	return nil
}

// ──────────────────── Rule ────────────────────

// Rule persists one rule's RawRule JSON encoding (rules.RawRule, the
// flat/advanced on-disk form) alongside the name/enabled/priority columns
// the enabled-rule and admin-listing queries filter and sort on directly.
type Rule struct {
	ID         uuid.UUID `db:"id"`
	Name       string    `db:"name"`
	Enabled    bool      `db:"enabled"`
	Priority   int       `db:"priority"`
	ConfigJSON []byte    `db:"config_json"`
	CreatedAt  time.Time `db:"created_at"`
	UpdatedAt  time.Time `db:"updated_at"`
}

// ──────────────────── Job ────────────────────

type Job struct {
	ID           uuid.UUID  `db:"id"`
	FilePath     string     `db:"file_path"`
	Status       JobStatus  `db:"status"`
	RuleRef      *uuid.UUID `db:"rule_ref"`
	Priority     int        `db:"priority"`
	RetryCount   int        `db:"retry_count"`
	MaxRetries   int        `db:"max_retries"`
	ScheduledFor time.Time  `db:"scheduled_for"`
	LeaseToken   *uuid.UUID `db:"lease_token"`
	LeasedAt     *time.Time `db:"leased_at"`
	Progress     int        `db:"progress"`
	CurrentStep  string     `db:"current_step"`
	Error        *string    `db:"error"`
	Source       JobSource  `db:"source"`
	CreatedAt    time.Time  `db:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at"`
}

// ConversionJob augments a Job with transcode-specific progress telemetry
// (spec §3: "specialization of Job").
type ConversionJob struct {
	JobID      uuid.UUID `db:"job_id"`
	ItemID     uuid.UUID `db:"item_id"`
	MediaFileID uuid.UUID `db:"media_file_id"`
	EncodeFPS  float64   `db:"encode_fps"`
	ETASecs    float64   `db:"eta_secs"`
	ElapsedSecs float64  `db:"elapsed_secs"`
}

// ──────────────────── HLSCache ────────────────────

type HLSCache struct {
	MediaFileID  uuid.UUID `db:"media_file_id"`
	InitSegment  []byte    `db:"init_segment"`
	SegmentCount int       `db:"segment_count"`
	SegmentMap   []byte    `db:"segment_map"`
	CreatedAt    time.Time `db:"created_at"`
}

// ──────────────────── Auth ────────────────────

type User struct {
	ID           uuid.UUID `db:"id"`
	Username     string    `db:"username"`
	PasswordHash string    `db:"-"`
	IsAdmin      bool      `db:"is_admin"`
	CreatedAt    time.Time `db:"created_at"`
}

type AuthToken struct {
	ID        uuid.UUID `db:"id"`
	UserID    uuid.UUID `db:"user_id"`
	TokenHash string    `db:"token_hash"`
	ExpiresAt time.Time `db:"expires_at"`
	CreatedAt time.Time `db:"created_at"`
}

type PlaybackState struct {
	UserID     uuid.UUID `db:"user_id"`
	ItemID     uuid.UUID `db:"item_id"`
	PositionS  float64   `db:"position_secs"`
	UpdatedAt  time.Time `db:"updated_at"`
}
