package store

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// WebhookSubscription is one registered outbound delivery target (see
// migrations/0008_settings.up.sql), consumed by internal/webhook's Bridge.
type WebhookSubscription struct {
	ID        uuid.UUID `db:"id"`
	URL       string    `db:"url"`
	Secret    string    `db:"secret"`
	Events    []string  `db:"events"`
	Enabled   bool      `db:"enabled"`
	CreatedAt time.Time `db:"created_at"`
}

type WebhookSubscriptionRepository struct {
	db *sql.DB
}

func (r *WebhookSubscriptionRepository) Create(sub *WebhookSubscription) error {
	if sub.ID == uuid.Nil {
		sub.ID = uuid.New()
	}
	query := `INSERT INTO webhook_subscriptions (id, url, secret, events, enabled)
		VALUES ($1, $2, $3, $4, $5) RETURNING created_at`
	return r.db.QueryRow(query, sub.ID, sub.URL, sub.Secret, pq.Array(sub.Events), sub.Enabled).Scan(&sub.CreatedAt)
}

// ListEnabled returns every enabled subscription, polled by the webhook
// bridge before fanning out each completed/failed job event.
func (r *WebhookSubscriptionRepository) ListEnabled() ([]*WebhookSubscription, error) {
	rows, err := r.db.Query(`SELECT id, url, secret, events, enabled, created_at
		FROM webhook_subscriptions WHERE enabled ORDER BY created_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*WebhookSubscription
	for rows.Next() {
		sub := &WebhookSubscription{}
		if err := rows.Scan(&sub.ID, &sub.URL, &sub.Secret, pq.Array(&sub.Events), &sub.Enabled, &sub.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, sub)
	}
	return out, rows.Err()
}

func (r *WebhookSubscriptionRepository) Delete(id uuid.UUID) error {
	_, err := r.db.Exec(`DELETE FROM webhook_subscriptions WHERE id = $1`, id)
	return err
}
