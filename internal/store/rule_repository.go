package store

import (
	"database/sql"

	"github.com/google/uuid"

	"github.com/sceneforged/sceneforged/internal/apperr"
)

type RuleRepository struct {
	db *sql.DB
}

// Create inserts a rule, rejecting a duplicate name with Conflict (spec §3:
// "Rule — {… name unique …}").
func (r *RuleRepository) Create(rule *Rule) error {
	if rule.ID == uuid.Nil {
		rule.ID = uuid.New()
	}
	query := `INSERT INTO rules (id, name, enabled, priority, config_json)
		VALUES ($1, $2, $3, $4, $5) RETURNING created_at, updated_at`
	err := r.db.QueryRow(query, rule.ID, rule.Name, rule.Enabled, rule.Priority, rule.ConfigJSON).
		Scan(&rule.CreatedAt, &rule.UpdatedAt)
	if isUniqueViolation(err) {
		return apperr.Conflict("rule name " + rule.Name + " already exists")
	}
	return err
}

func (r *RuleRepository) Update(rule *Rule) error {
	query := `UPDATE rules SET name=$1, enabled=$2, priority=$3, config_json=$4, updated_at=CURRENT_TIMESTAMP
		WHERE id=$5`
	res, err := r.db.Exec(query, rule.Name, rule.Enabled, rule.Priority, rule.ConfigJSON, rule.ID)
	if isUniqueViolation(err) {
		return apperr.Conflict("rule name " + rule.Name + " already exists")
	}
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err == nil && n == 0 {
		return apperr.NotFound("rule", rule.ID.String())
	}
	return err
}

// ListEnabled returns every enabled rule, sorted by priority desc then name
// asc — the same tiebreak rules.FirstMatch applies in-process, mirrored
// here so the query order matches what callers expect before conversion.
func (r *RuleRepository) ListEnabled() ([]*Rule, error) {
	query := `SELECT id, name, enabled, priority, config_json, created_at, updated_at
		FROM rules WHERE enabled ORDER BY priority DESC, name ASC`
	rows, err := r.db.Query(query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*Rule
	for rows.Next() {
		rl := &Rule{}
		if err := rows.Scan(&rl.ID, &rl.Name, &rl.Enabled, &rl.Priority, &rl.ConfigJSON, &rl.CreatedAt, &rl.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, rl)
	}
	return out, rows.Err()
}

func (r *RuleRepository) List() ([]*Rule, error) {
	query := `SELECT id, name, enabled, priority, config_json, created_at, updated_at FROM rules ORDER BY priority DESC, name ASC`
	rows, err := r.db.Query(query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*Rule
	for rows.Next() {
		rl := &Rule{}
		if err := rows.Scan(&rl.ID, &rl.Name, &rl.Enabled, &rl.Priority, &rl.ConfigJSON, &rl.CreatedAt, &rl.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, rl)
	}
	return out, rows.Err()
}

func (r *RuleRepository) Delete(id uuid.UUID) error {
	_, err := r.db.Exec(`DELETE FROM rules WHERE id = $1`, id)
	return err
}
