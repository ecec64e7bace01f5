package auth

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/kiraya-np/backend-kiraya/internal/store"
)

type fakeQueries struct {
	mu              sync.Mutex
	usersByEmail    map[string]store.User
	usersByID       map[string]store.User
	sessionsByToken map[string]store.Session
	sessionsByID    map[string]store.Session
}

func newFakeQueries() *fakeQueries {
	return &fakeQueries{
		usersByEmail:    make(map[string]store.User),
		usersByID:       make(map[string]store.User),
		sessionsByToken: make(map[string]store.Session),
		sessionsByID:    make(map[string]store.Session),
	}
}

func pgTimestamp(t time.Time) pgtype.Timestamptz {
	return pgtype.Timestamptz{Time: t, Valid: true}
}

func newPgUUID() pgtype.UUID {
	id, _ := store.ToUUID(uuid.NewString())
	return id
}

func (f *fakeQueries) CreateUser(_ context.Context, arg store.CreateUserParams) (store.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	key := strings.ToLower(arg.Email)
	if _, ok := f.usersByEmail[key]; ok {
		return store.User{}, &pgconn.PgError{Code: "23505", ConstraintName: "users_email_key"}
	}
	now := time.Now()
	user := store.User{
		ID:           newPgUUID(),
		Name:         arg.Name,
		Email:        arg.Email,
		Phone:        pgtype.Text{String: arg.Phone, Valid: arg.Phone != ""},
		PasswordHash: arg.PasswordHash,
		Role:         "customer",
		CreatedAt:    pgTimestamp(now),
		UpdatedAt:    pgTimestamp(now),
	}
	f.usersByEmail[key] = user
	f.usersByID[store.UUIDString(user.ID)] = user
	return user, nil
}

func (f *fakeQueries) GetUserByEmail(_ context.Context, email string) (store.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.usersByEmail[strings.ToLower(email)]
	if !ok {
		return store.User{}, fmt.Errorf("user not found")
	}
	return user, nil
}

func (f *fakeQueries) GetUserByID(_ context.Context, id pgtype.UUID) (store.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.usersByID[store.UUIDString(id)]
	if !ok {
		return store.User{}, fmt.Errorf("user not found")
	}
	return user, nil
}

func (f *fakeQueries) UpdateUserProfile(_ context.Context, id pgtype.UUID, name, phone string) (store.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := store.UUIDString(id)
	user, ok := f.usersByID[key]
	if !ok {
		return store.User{}, fmt.Errorf("user not found")
	}
	user.Name = name
	user.Phone = pgtype.Text{String: phone, Valid: phone != ""}
	user.UpdatedAt = pgTimestamp(time.Now())
	f.usersByID[key] = user
	f.usersByEmail[strings.ToLower(user.Email)] = user
	return user, nil
}

func (f *fakeQueries) CreateSession(_ context.Context, arg store.CreateSessionParams) (store.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	session := store.Session{
		ID:           newPgUUID(),
		UserID:       arg.UserID,
		RefreshToken: arg.RefreshToken,
		UserAgent:    pgtype.Text{String: arg.UserAgent, Valid: arg.UserAgent != ""},
		IP:           pgtype.Text{String: arg.IP, Valid: arg.IP != ""},
		ExpiresAt:    pgTimestamp(arg.ExpiresAt),
		CreatedAt:    pgTimestamp(time.Now()),
	}
	f.sessionsByToken[arg.RefreshToken] = session
	f.sessionsByID[store.UUIDString(session.ID)] = session
	return session, nil
}

func (f *fakeQueries) GetSessionByToken(_ context.Context, tokenHash string) (store.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	session, ok := f.sessionsByToken[tokenHash]
	if !ok {
		return store.Session{}, fmt.Errorf("session not found")
	}
	return session, nil
}

func (f *fakeQueries) DeleteSessionByToken(_ context.Context, tokenHash string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	session, ok := f.sessionsByToken[tokenHash]
	if !ok {
		return nil
	}
	delete(f.sessionsByToken, tokenHash)
	delete(f.sessionsByID, store.UUIDString(session.ID))
	return nil
}

func (f *fakeQueries) DeleteSessionsByUser(_ context.Context, userID pgtype.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := store.UUIDString(userID)
	for token, session := range f.sessionsByToken {
		if store.UUIDString(session.UserID) == key {
			delete(f.sessionsByToken, token)
			delete(f.sessionsByID, store.UUIDString(session.ID))
		}
	}
	return nil
}

func (f *fakeQueries) RotateSessionToken(_ context.Context, id pgtype.UUID, tokenHash string, expiresAt time.Time) (store.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := store.UUIDString(id)
	session, ok := f.sessionsByID[key]
	if !ok {
		return store.Session{}, fmt.Errorf("session not found")
	}
	delete(f.sessionsByToken, session.RefreshToken)
	session.RefreshToken = tokenHash
	session.ExpiresAt = pgTimestamp(expiresAt)
	f.sessionsByID[key] = session
	f.sessionsByToken[tokenHash] = session
	return session, nil
}

func (f *fakeQueries) sessionCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sessionsByToken)
}

func newTestService(t interface{ Fatalf(string, ...any) }) (*Service, *fakeQueries) {
	queries := newFakeQueries()
	svc, err := NewService(Config{
		Queries:         queries,
		Secret:          "super-secret-key",
		AccessTokenTTL:  time.Minute,
		RefreshTokenTTL: time.Hour,
		Issuer:          "backend-kiraya",
		Audience:        "kiraya-frontend",
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc, queries
}
