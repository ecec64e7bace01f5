package store

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
)

// User mirrors a row of the users table.
type User struct {
	ID           pgtype.UUID
	Name         string
	Email        string
	Phone        pgtype.Text
	PasswordHash string
	Role         string
	CreatedAt    pgtype.Timestamptz
	UpdatedAt    pgtype.Timestamptz
}

// Session mirrors a row of the sessions table. RefreshToken holds a hash,
// never the token itself.
type Session struct {
	ID           pgtype.UUID
	UserID       pgtype.UUID
	RefreshToken string
	UserAgent    pgtype.Text
	IP           pgtype.Text
	ExpiresAt    pgtype.Timestamptz
	CreatedAt    pgtype.Timestamptz
}

// CreateUserParams captures the fields required to register a user.
type CreateUserParams struct {
	Name         string
	Email        string
	Phone        string
	PasswordHash string
}

const createUserSQL = `
INSERT INTO users (name, email, phone, password_hash)
VALUES ($1, $2, $3, $4)
RETURNING id, name, email, phone, password_hash, role, created_at, updated_at`

// CreateUser inserts a new user row.
func (s *Store) CreateUser(ctx context.Context, arg CreateUserParams) (User, error) {
	row := s.pool.QueryRow(ctx, createUserSQL, arg.Name, arg.Email, pgText(arg.Phone), arg.PasswordHash)
	return scanUser(row)
}

const getUserByEmailSQL = `
SELECT id, name, email, phone, password_hash, role, created_at, updated_at
FROM users WHERE email = $1`

// GetUserByEmail fetches a user by normalised email.
func (s *Store) GetUserByEmail(ctx context.Context, email string) (User, error) {
	return scanUser(s.pool.QueryRow(ctx, getUserByEmailSQL, email))
}

const getUserByIDSQL = `
SELECT id, name, email, phone, password_hash, role, created_at, updated_at
FROM users WHERE id = $1`

// GetUserByID fetches a user by primary key.
func (s *Store) GetUserByID(ctx context.Context, id pgtype.UUID) (User, error) {
	return scanUser(s.pool.QueryRow(ctx, getUserByIDSQL, id))
}

const updateUserProfileSQL = `
UPDATE users SET name = $2, phone = $3, updated_at = now()
WHERE id = $1
RETURNING id, name, email, phone, password_hash, role, created_at, updated_at`

// UpdateUserProfile updates the mutable profile fields of a user.
func (s *Store) UpdateUserProfile(ctx context.Context, id pgtype.UUID, name, phone string) (User, error) {
	return scanUser(s.pool.QueryRow(ctx, updateUserProfileSQL, id, name, pgText(phone)))
}

// CreateSessionParams captures the fields of a refresh session.
type CreateSessionParams struct {
	UserID       pgtype.UUID
	RefreshToken string
	UserAgent    string
	IP           string
	ExpiresAt    time.Time
}

const createSessionSQL = `
INSERT INTO sessions (user_id, refresh_token, user_agent, ip, expires_at)
VALUES ($1, $2, $3, $4, $5)
RETURNING id, user_id, refresh_token, user_agent, ip, expires_at, created_at`

// CreateSession persists a refresh session.
func (s *Store) CreateSession(ctx context.Context, arg CreateSessionParams) (Session, error) {
	row := s.pool.QueryRow(ctx, createSessionSQL,
		arg.UserID, arg.RefreshToken, pgText(arg.UserAgent), pgText(arg.IP),
		pgtype.Timestamptz{Time: arg.ExpiresAt, Valid: true})
	return scanSession(row)
}

const getSessionByTokenSQL = `
SELECT id, user_id, refresh_token, user_agent, ip, expires_at, created_at
FROM sessions WHERE refresh_token = $1`

// GetSessionByToken fetches a session by refresh-token hash.
func (s *Store) GetSessionByToken(ctx context.Context, tokenHash string) (Session, error) {
	return scanSession(s.pool.QueryRow(ctx, getSessionByTokenSQL, tokenHash))
}

// DeleteSessionByToken removes a session identified by refresh-token hash.
func (s *Store) DeleteSessionByToken(ctx context.Context, tokenHash string) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM sessions WHERE refresh_token = $1`, tokenHash)
	return err
}

// DeleteSessionsByUser removes all sessions belonging to a user.
func (s *Store) DeleteSessionsByUser(ctx context.Context, userID pgtype.UUID) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM sessions WHERE user_id = $1`, userID)
	return err
}

const rotateSessionTokenSQL = `
UPDATE sessions SET refresh_token = $2, expires_at = $3
WHERE id = $1
RETURNING id, user_id, refresh_token, user_agent, ip, expires_at, created_at`

// RotateSessionToken swaps the refresh-token hash on an existing session.
func (s *Store) RotateSessionToken(ctx context.Context, id pgtype.UUID, tokenHash string, expiresAt time.Time) (Session, error) {
	row := s.pool.QueryRow(ctx, rotateSessionTokenSQL, id, tokenHash,
		pgtype.Timestamptz{Time: expiresAt, Valid: true})
	return scanSession(row)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.Phone, &u.PasswordHash, &u.Role, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}

func scanSession(row rowScanner) (Session, error) {
	var sess Session
	err := row.Scan(&sess.ID, &sess.UserID, &sess.RefreshToken, &sess.UserAgent, &sess.IP, &sess.ExpiresAt, &sess.CreatedAt)
	return sess, err
}
