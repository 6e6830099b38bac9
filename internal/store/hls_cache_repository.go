package store

import (
	"database/sql"

	"github.com/google/uuid"

	"github.com/sceneforged/sceneforged/internal/apperr"
)

type HLSCacheRepository struct {
	db *sql.DB
}

// Upsert replaces any existing cache row for mediaFileID. HLSCache is
// immutable after creation (spec §5): a rebuild overwrites every column of
// the existing row (and resets created_at) in this single statement.
func (r *HLSCacheRepository) Upsert(c *HLSCache) error {
	query := `INSERT INTO hls_cache (media_file_id, init_segment, segment_count, segment_map)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (media_file_id) DO UPDATE SET
			init_segment = EXCLUDED.init_segment,
			segment_count = EXCLUDED.segment_count,
			segment_map = EXCLUDED.segment_map,
			created_at = CURRENT_TIMESTAMP
		RETURNING created_at`
	return r.db.QueryRow(query, c.MediaFileID, c.InitSegment, c.SegmentCount, c.SegmentMap).Scan(&c.CreatedAt)
}

func (r *HLSCacheRepository) GetByMediaFile(mediaFileID uuid.UUID) (*HLSCache, error) {
	c := &HLSCache{}
	query := `SELECT media_file_id, init_segment, segment_count, segment_map, created_at FROM hls_cache WHERE media_file_id = $1`
	err := r.db.QueryRow(query, mediaFileID).Scan(&c.MediaFileID, &c.InitSegment, &c.SegmentCount, &c.SegmentMap, &c.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, apperr.NotFound("hls_cache", mediaFileID.String())
	}
	return c, err
}

func (r *HLSCacheRepository) Delete(mediaFileID uuid.UUID) error {
	_, err := r.db.Exec(`DELETE FROM hls_cache WHERE media_file_id = $1`, mediaFileID)
	return err
}
