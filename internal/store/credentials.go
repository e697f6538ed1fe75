package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"docent/internal/session"
	"docent/internal/types"
)

// Get returns the stored credential or session.ErrNoCredential.
func (s *LocalStore) Get(ctx context.Context) (session.Credential, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var c session.Credential
	err := s.db.QueryRowContext(ctx,
		"SELECT token, user_id, nickname FROM credentials WHERE id = 1",
	).Scan(&c.Token, &c.User.ID, &c.User.Nickname)
	if errors.Is(err, sql.ErrNoRows) {
		return session.Credential{}, session.ErrNoCredential
	}
	if err != nil {
		return session.Credential{}, fmt.Errorf("query credential: %w", err)
	}
	return c, nil
}

// Set replaces the stored credential.
func (s *LocalStore) Set(ctx context.Context, c session.Credential) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO credentials (id, token, user_id, nickname, updated_at) VALUES (1, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET token = excluded.token, user_id = excluded.user_id,
		   nickname = excluded.nickname, updated_at = excluded.updated_at`,
		c.Token, c.User.ID, c.User.Nickname, s.stamp(),
	)
	if err != nil {
		return fmt.Errorf("store credential: %w", err)
	}
	return nil
}

// Clear removes the stored credential. Clearing an empty store is not an error.
func (s *LocalStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.ExecContext(ctx, "DELETE FROM credentials"); err != nil {
		return fmt.Errorf("clear credential: %w", err)
	}
	return nil
}

// User returns the signed-in user, or the zero value.
func (s *LocalStore) User(ctx context.Context) (types.UserInfo, error) {
	c, err := s.Get(ctx)
	if errors.Is(err, session.ErrNoCredential) {
		return types.UserInfo{}, nil
	}
	return c.User, err
}

var _ session.CredentialStore = (*LocalStore)(nil)
