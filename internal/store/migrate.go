package store

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"github.com/sceneforged/sceneforged/internal/apperr"
)

// Migrate applies append-only numbered SQL files from dir, tracked in
// schema_migrations(version, checksum). If a previously applied version's
// on-disk checksum no longer matches what was recorded, startup fails with
// apperr.MigrationDrift (spec §4.7/§9) — this is the one piece goose's own
// migration runner doesn't expose, so it's reimplemented here directly in
// the teacher's db.Migrate idiom rather than layered on top of goose.
func Migrate(db *sql.DB, dir string, log zerolog.Logger) error {
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS schema_migrations (
		version VARCHAR(255) PRIMARY KEY,
		checksum VARCHAR(64) NOT NULL,
		applied_at TIMESTAMPTZ DEFAULT NOW()
	)`); err != nil {
		return fmt.Errorf("create migrations table: %w", err)
	}

	files, err := filepath.Glob(filepath.Join(dir, "*.up.sql"))
	if err != nil {
		return fmt.Errorf("glob migrations: %w", err)
	}
	sort.Strings(files)

	for _, f := range files {
		name := filepath.Base(f)
		version := strings.TrimSuffix(name, ".up.sql")

		content, err := os.ReadFile(f)
		if err != nil {
			return fmt.Errorf("read %s: %w", name, err)
		}
		sum := checksum(content)

		var appliedChecksum string
		err = db.QueryRow(`SELECT checksum FROM schema_migrations WHERE version = $1`, version).Scan(&appliedChecksum)
		switch {
		case err == sql.ErrNoRows:
			log.Info().Str("component", "store").Str("version", version).Msg("applying migration")
			if _, err := db.Exec(string(content)); err != nil {
				return fmt.Errorf("apply %s: %w", name, err)
			}
			if _, err := db.Exec(`INSERT INTO schema_migrations (version, checksum) VALUES ($1, $2)`, version, sum); err != nil {
				return fmt.Errorf("record migration %s: %w", version, err)
			}
		case err != nil:
			return fmt.Errorf("check migration %s: %w", version, err)
		case appliedChecksum != sum:
			return apperr.MigrationDrift(version)
		}
	}

	return nil
}

func checksum(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}
