// Package store implements the Persistent Store (C7): schema, migrations,
// typed repositories, and the atomic job-dequeue statement spec §4.7
// requires.
package store

import (
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
	"github.com/rs/zerolog"
)

// Store wraps a pooled *sql.DB with the bounded-writer pool spec §4.7/§5
// names (~4 writers) and exposes one repository per entity, following
// CineVault's db.Connect + internal/repository/*.go split.
type Store struct {
	DB  *sql.DB
	log zerolog.Logger

	Libraries            *LibraryRepository
	Items                *ItemRepository
	MediaFiles           *MediaFileRepository
	Rules                *RuleRepository
	Jobs                 *JobRepository
	HLSCache             *HLSCacheRepository
	Users                *UserRepository
	WebhookSubscriptions *WebhookSubscriptionRepository
}

// Open connects to databaseURL, pings it, and wires every repository
// against the shared pool.
func Open(databaseURL string, log zerolog.Logger) (*Store, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}

	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(4)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping: %w", err)
	}

	log.Info().Str("component", "store").Msg("database connected")

	return &Store{
		DB:                   db,
		log:                  log,
		Libraries:            &LibraryRepository{db: db},
		Items:                &ItemRepository{db: db},
		MediaFiles:           &MediaFileRepository{db: db},
		Rules:                &RuleRepository{db: db},
		Jobs:                 &JobRepository{db: db},
		HLSCache:             &HLSCacheRepository{db: db},
		Users:                &UserRepository{db: db},
		WebhookSubscriptions: &WebhookSubscriptionRepository{db: db},
	}, nil
}

func (s *Store) Close() error { return s.DB.Close() }

// WithTx runs fn inside a transaction, committing on success and rolling
// back on any error or panic (spec §4.7: "the transaction wrapper rolls
// back on drop unless commit was called").
func (s *Store) WithTx(fn func(tx *sql.Tx) error) (err error) {
	tx, err := s.DB.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback()
			return
		}
		err = tx.Commit()
	}()
	return fn(tx)
}
