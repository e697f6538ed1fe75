package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"docent/internal/events"
	"docent/internal/types"

	"go.uber.org/zap"
)

// ToggleLike flips the like flag of one target and returns the new value.
func (s *LocalStore) ToggleLike(ctx context.Context, kind events.TargetKind, id int64) (bool, error) {
	if !kind.Valid() {
		return false, fmt.Errorf("target kind %q: %w", kind, ErrInvalidInput)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	var one int
	err = tx.QueryRowContext(ctx,
		"SELECT 1 FROM likes WHERE target_kind = ? AND target_id = ?", string(kind), id,
	).Scan(&one)

	liked := false
	switch {
	case errors.Is(err, sql.ErrNoRows):
		_, err = tx.ExecContext(ctx,
			"INSERT INTO likes (target_kind, target_id, liked_at) VALUES (?, ?, ?)",
			string(kind), id, s.stamp())
		liked = true
	case err == nil:
		_, err = tx.ExecContext(ctx,
			"DELETE FROM likes WHERE target_kind = ? AND target_id = ?", string(kind), id)
	}
	if err != nil {
		return false, fmt.Errorf("toggle like %s/%d: %w", kind, id, err)
	}
	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("commit: %w", err)
	}

	s.logger.Debug("like toggled",
		zap.String("kind", string(kind)), zap.Int64("id", id), zap.Bool("liked", liked))
	return liked, nil
}

// IsLiked reports the current like flag of one target.
func (s *LocalStore) IsLiked(ctx context.Context, kind events.TargetKind, id int64) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM likes WHERE target_kind = ? AND target_id = ?", string(kind), id,
	).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("query like: %w", err)
	}
	return n > 0, nil
}

// Likes lists liked targets, newest first. An empty kind lists every kind.
func (s *LocalStore) Likes(ctx context.Context, kind events.TargetKind) ([]types.LikedItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT target_kind, target_id, liked_at FROM likes
		 WHERE ? = '' OR target_kind = ?
		 ORDER BY liked_at DESC, target_id DESC`,
		string(kind), string(kind))
	if err != nil {
		return nil, fmt.Errorf("query likes: %w", err)
	}
	defer rows.Close()

	var items []types.LikedItem
	for rows.Next() {
		var (
			it types.LikedItem
			ms int64
		)
		if err := rows.Scan(&it.TargetKind, &it.TargetID, &ms); err != nil {
			return nil, err
		}
		it.LikedAt = fromMillis(ms)
		items = append(items, it)
	}
	return items, rows.Err()
}
