package store

import (
	"database/sql"

	"github.com/google/uuid"

	"github.com/sceneforged/sceneforged/internal/apperr"
)

type MediaFileRepository struct {
	db *sql.DB
}

func (r *MediaFileRepository) Create(m *MediaFile) error {
	if err := m.Validate(); err != nil {
		return err
	}
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	query := `INSERT INTO media_files
		(id, item_id, file_path, file_size, container, video_codec, audio_codec, resolution,
		 hdr_format, dv_profile, has_rpu, duration, role, profile, serves_as_universal,
		 has_faststart, keyframe_interval_secs)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17)
		RETURNING created_at, updated_at`
	return r.db.QueryRow(query, m.ID, m.ItemID, m.FilePath, m.FileSize, m.Container, m.VideoCodec,
		m.AudioCodec, m.Resolution, m.HDRFormat, m.DvProfile, m.HasRPU, m.Duration, m.Role,
		m.Profile, m.ServesAsUniversal, m.HasFaststart, m.KeyframeIntervalS).
		Scan(&m.CreatedAt, &m.UpdatedAt)
}

func (r *MediaFileRepository) GetByID(id uuid.UUID) (*MediaFile, error) {
	m := &MediaFile{}
	query := `SELECT id, item_id, file_path, file_size, container, video_codec, audio_codec, resolution,
		hdr_format, dv_profile, has_rpu, duration, role, profile, serves_as_universal,
		has_faststart, keyframe_interval_secs, created_at, updated_at
		FROM media_files WHERE id = $1`
	err := r.db.QueryRow(query, id).Scan(&m.ID, &m.ItemID, &m.FilePath, &m.FileSize, &m.Container,
		&m.VideoCodec, &m.AudioCodec, &m.Resolution, &m.HDRFormat, &m.DvProfile, &m.HasRPU,
		&m.Duration, &m.Role, &m.Profile, &m.ServesAsUniversal, &m.HasFaststart,
		&m.KeyframeIntervalS, &m.CreatedAt, &m.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, apperr.NotFound("media_file", id.String())
	}
	return m, err
}

// GetByFilePath looks up the MediaFile row the scheduler resolves a Job's
// file_path against before probing/pipeline dispatch.
func (r *MediaFileRepository) GetByFilePath(path string) (*MediaFile, error) {
	m := &MediaFile{}
	query := `SELECT id, item_id, file_path, file_size, container, video_codec, audio_codec, resolution,
		hdr_format, dv_profile, has_rpu, duration, role, profile, serves_as_universal,
		has_faststart, keyframe_interval_secs, created_at, updated_at
		FROM media_files WHERE file_path = $1`
	err := r.db.QueryRow(query, path).Scan(&m.ID, &m.ItemID, &m.FilePath, &m.FileSize, &m.Container,
		&m.VideoCodec, &m.AudioCodec, &m.Resolution, &m.HDRFormat, &m.DvProfile, &m.HasRPU,
		&m.Duration, &m.Role, &m.Profile, &m.ServesAsUniversal, &m.HasFaststart,
		&m.KeyframeIntervalS, &m.CreatedAt, &m.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, apperr.NotFound("media_file", path)
	}
	return m, err
}

// Upsert creates or updates the MediaFile row for FilePath, keyed on the
// unique file_path constraint — how the scheduler records a fresh probe
// result after an action mutates a file in place.
func (r *MediaFileRepository) Upsert(m *MediaFile) error {
	if err := m.Validate(); err != nil {
		return err
	}
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	query := `INSERT INTO media_files
		(id, item_id, file_path, file_size, container, video_codec, audio_codec, resolution,
		 hdr_format, dv_profile, has_rpu, duration, role, profile, serves_as_universal,
		 has_faststart, keyframe_interval_secs)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17)
		ON CONFLICT (file_path) DO UPDATE SET
			file_size = EXCLUDED.file_size, container = EXCLUDED.container,
			video_codec = EXCLUDED.video_codec, audio_codec = EXCLUDED.audio_codec,
			resolution = EXCLUDED.resolution, hdr_format = EXCLUDED.hdr_format,
			dv_profile = EXCLUDED.dv_profile, has_rpu = EXCLUDED.has_rpu,
			duration = EXCLUDED.duration, role = EXCLUDED.role, profile = EXCLUDED.profile,
			serves_as_universal = EXCLUDED.serves_as_universal, has_faststart = EXCLUDED.has_faststart,
			keyframe_interval_secs = EXCLUDED.keyframe_interval_secs, updated_at = CURRENT_TIMESTAMP
		RETURNING id, created_at, updated_at`
	return r.db.QueryRow(query, m.ID, m.ItemID, m.FilePath, m.FileSize, m.Container, m.VideoCodec,
		m.AudioCodec, m.Resolution, m.HDRFormat, m.DvProfile, m.HasRPU, m.Duration, m.Role,
		m.Profile, m.ServesAsUniversal, m.HasFaststart, m.KeyframeIntervalS).
		Scan(&m.ID, &m.CreatedAt, &m.UpdatedAt)
}

func (r *MediaFileRepository) ListByItem(itemID uuid.UUID) ([]*MediaFile, error) {
	rows, err := r.db.Query(`SELECT id, item_id, file_path, file_size, container, video_codec, audio_codec, resolution,
		hdr_format, dv_profile, has_rpu, duration, role, profile, serves_as_universal,
		has_faststart, keyframe_interval_secs, created_at, updated_at
		FROM media_files WHERE item_id = $1 ORDER BY profile`, itemID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*MediaFile
	for rows.Next() {
		m := &MediaFile{}
		if err := rows.Scan(&m.ID, &m.ItemID, &m.FilePath, &m.FileSize, &m.Container,
			&m.VideoCodec, &m.AudioCodec, &m.Resolution, &m.HDRFormat, &m.DvProfile, &m.HasRPU,
			&m.Duration, &m.Role, &m.Profile, &m.ServesAsUniversal, &m.HasFaststart,
			&m.KeyframeIntervalS, &m.CreatedAt, &m.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (r *MediaFileRepository) Delete(id uuid.UUID) error {
	_, err := r.db.Exec(`DELETE FROM media_files WHERE id = $1`, id)
	return err
}
