package store

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/sceneforged/sceneforged/internal/apperr"
)

type LibraryRepository struct {
	db *sql.DB
}

func (r *LibraryRepository) Create(l *Library) error {
	query := `INSERT INTO libraries (id, name, media_type, paths, scan_interval_secs, next_scan_at)
		VALUES ($1, $2, $3, $4, $5, $6) RETURNING created_at, updated_at`
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	if l.NextScanAt.IsZero() {
		l.NextScanAt = time.Now()
	}
	return r.db.QueryRow(query, l.ID, l.Name, l.MediaType, pq.Array(l.Paths), l.ScanIntervalSecs, l.NextScanAt).
		Scan(&l.CreatedAt, &l.UpdatedAt)
}

func (r *LibraryRepository) GetByID(id uuid.UUID) (*Library, error) {
	l := &Library{}
	query := `SELECT id, name, media_type, paths, scan_interval_secs, next_scan_at, created_at, updated_at
		FROM libraries WHERE id = $1`
	err := r.db.QueryRow(query, id).Scan(&l.ID, &l.Name, &l.MediaType, pq.Array(&l.Paths),
		&l.ScanIntervalSecs, &l.NextScanAt, &l.CreatedAt, &l.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, apperr.NotFound("library", id.String())
	}
	return l, err
}

func (r *LibraryRepository) List() ([]*Library, error) {
	rows, err := r.db.Query(`SELECT id, name, media_type, paths, scan_interval_secs, next_scan_at, created_at, updated_at
		FROM libraries ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*Library
	for rows.Next() {
		l := &Library{}
		if err := rows.Scan(&l.ID, &l.Name, &l.MediaType, pq.Array(&l.Paths),
			&l.ScanIntervalSecs, &l.NextScanAt, &l.CreatedAt, &l.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

// GetDueForScan returns every library with automatic rescanning enabled
// (scan_interval_secs > 0) whose next_scan_at has passed.
func (r *LibraryRepository) GetDueForScan() ([]*Library, error) {
	rows, err := r.db.Query(`SELECT id, name, media_type, paths, scan_interval_secs, next_scan_at, created_at, updated_at
		FROM libraries WHERE scan_interval_secs > 0 AND next_scan_at <= NOW()`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*Library
	for rows.Next() {
		l := &Library{}
		if err := rows.Scan(&l.ID, &l.Name, &l.MediaType, pq.Array(&l.Paths),
			&l.ScanIntervalSecs, &l.NextScanAt, &l.CreatedAt, &l.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

// AdvanceNextScan pushes next_scan_at forward by the library's own
// scan_interval_secs, called immediately on detecting a due library so a
// slow scan can't cause it to re-trigger before it finishes.
func (r *LibraryRepository) AdvanceNextScan(id uuid.UUID) error {
	_, err := r.db.Exec(`UPDATE libraries SET next_scan_at = NOW() + (scan_interval_secs * INTERVAL '1 second'), updated_at = NOW()
		WHERE id = $1`, id)
	return err
}

// Delete cascades to items via the foreign key ON DELETE CASCADE (spec §3:
// "deleted cascades to items").
func (r *LibraryRepository) Delete(id uuid.UUID) error {
	_, err := r.db.Exec(`DELETE FROM libraries WHERE id = $1`, id)
	return err
}
