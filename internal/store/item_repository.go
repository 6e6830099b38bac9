package store

import (
	"database/sql"

	"github.com/google/uuid"

	"github.com/sceneforged/sceneforged/internal/apperr"
)

type ItemRepository struct {
	db *sql.DB
}

func (r *ItemRepository) Create(it *Item) error {
	if it.ID == uuid.Nil {
		it.ID = uuid.New()
	}
	query := `INSERT INTO items (id, library_id, kind, name, sort_name, year, parent_id, season_number, episode_number)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9) RETURNING created_at, updated_at`
	return r.db.QueryRow(query, it.ID, it.LibraryID, it.Kind, it.Name, it.SortName, it.Year,
		it.ParentID, it.SeasonNumber, it.EpisodeNumber).Scan(&it.CreatedAt, &it.UpdatedAt)
}

func (r *ItemRepository) GetByID(id uuid.UUID) (*Item, error) {
	it := &Item{}
	query := `SELECT id, library_id, kind, name, sort_name, year, parent_id, season_number, episode_number, created_at, updated_at
		FROM items WHERE id = $1`
	err := r.db.QueryRow(query, id).Scan(&it.ID, &it.LibraryID, &it.Kind, &it.Name, &it.SortName, &it.Year,
		&it.ParentID, &it.SeasonNumber, &it.EpisodeNumber, &it.CreatedAt, &it.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, apperr.NotFound("item", id.String())
	}
	return it, err
}

func (r *ItemRepository) ListByLibrary(libraryID uuid.UUID) ([]*Item, error) {
	rows, err := r.db.Query(`SELECT id, library_id, kind, name, sort_name, year, parent_id, season_number, episode_number, created_at, updated_at
		FROM items WHERE library_id = $1 ORDER BY sort_name NULLS LAST, name`, libraryID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*Item
	for rows.Next() {
		it := &Item{}
		if err := rows.Scan(&it.ID, &it.LibraryID, &it.Kind, &it.Name, &it.SortName, &it.Year,
			&it.ParentID, &it.SeasonNumber, &it.EpisodeNumber, &it.CreatedAt, &it.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

func (r *ItemRepository) UpdateNames(id uuid.UUID, name string, sortName *string) error {
	_, err := r.db.Exec(`UPDATE items SET name = $1, sort_name = $2, updated_at = CURRENT_TIMESTAMP WHERE id = $3`, name, sortName, id)
	return err
}
