package store

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"time"

	"github.com/google/uuid"

	"github.com/sceneforged/sceneforged/internal/apperr"
	"github.com/sceneforged/sceneforged/internal/auth"
)

type UserRepository struct {
	db *sql.DB
}

// minPasswordLength mirrors the teacher's own registration rule (8
// characters, no forced complexity) — spec §3 sets no stricter bar.
const minPasswordLength = 8

// Create validates password strength, then hashes it with
// auth.HashPassword before persisting — this repository never stores a
// plaintext credential.
func (r *UserRepository) Create(u *User, password string) error {
	if err := auth.ValidatePassword(password, minPasswordLength, false); err != nil {
		return apperr.Validation("password", err.Error())
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	query := `INSERT INTO users (id, username, password_hash, is_admin) VALUES ($1, $2, $3, $4) RETURNING created_at`
	err = r.db.QueryRow(query, u.ID, u.Username, hash, u.IsAdmin).Scan(&u.CreatedAt)
	if isUniqueViolation(err) {
		return apperr.Conflict("username " + u.Username + " already exists")
	}
	return err
}

func (r *UserRepository) Authenticate(username, password string) (*User, error) {
	u := &User{Username: username}
	var hash string
	err := r.db.QueryRow(`SELECT id, password_hash, is_admin, created_at FROM users WHERE username = $1`, username).
		Scan(&u.ID, &hash, &u.IsAdmin, &u.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, apperr.Unauthorized(auth.ErrInvalidCredentials.Error())
	}
	if err != nil {
		return nil, err
	}
	if !auth.CheckPassword(hash, password) {
		return nil, apperr.Unauthorized(auth.ErrInvalidCredentials.Error())
	}
	return u, nil
}

// IssueToken mints a random bearer token, persisting only its SHA-256
// digest (so a leaked database dump doesn't yield usable tokens).
func (r *UserRepository) IssueToken(userID uuid.UUID, ttl time.Duration) (string, error) {
	token, err := auth.GenerateToken()
	if err != nil {
		return "", err
	}
	digest := sha256.Sum256([]byte(token))
	query := `INSERT INTO auth_tokens (id, user_id, token_hash, expires_at) VALUES ($1, $2, $3, $4)`
	_, err = r.db.Exec(query, uuid.New(), userID, hex.EncodeToString(digest[:]), time.Now().Add(ttl))
	return token, err
}

func (r *UserRepository) ValidateToken(token string) (*User, error) {
	digest := sha256.Sum256([]byte(token))
	u := &User{}
	query := `SELECT u.id, u.username, u.is_admin, u.created_at FROM auth_tokens t
		JOIN users u ON u.id = t.user_id
		WHERE t.token_hash = $1 AND t.expires_at > NOW()`
	err := r.db.QueryRow(query, hex.EncodeToString(digest[:])).Scan(&u.ID, &u.Username, &u.IsAdmin, &u.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, apperr.Unauthorized("token expired or unknown")
	}
	return u, err
}
