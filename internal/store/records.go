package store

import (
	"context"
	"fmt"
	"strings"

	"docent/internal/types"

	"github.com/google/uuid"
)

// CreateRecord stores a visit record.
func (s *LocalStore) CreateRecord(ctx context.Context, title, note string) (types.Record, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return types.Record{}, fmt.Errorf("record title: %w", ErrInvalidInput)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.stamp()
	res, err := s.db.ExecContext(ctx,
		"INSERT INTO records (title, note, created_at) VALUES (?, ?, ?)", title, note, now)
	if err != nil {
		return types.Record{}, fmt.Errorf("insert record: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return types.Record{}, err
	}
	return types.Record{ID: id, Title: title, Note: note, CreatedAt: fromMillis(now)}, nil
}

// DeleteRecord removes a visit record.
func (s *LocalStore) DeleteRecord(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, "DELETE FROM records WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete record %d: %w", id, err)
	}
	return expectOne(res, "record", id)
}

// Records lists visit records, newest first.
func (s *LocalStore) Records(ctx context.Context) ([]types.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT id, title, note, created_at FROM records ORDER BY created_at DESC, id DESC")
	if err != nil {
		return nil, fmt.Errorf("query records: %w", err)
	}
	defer rows.Close()

	records := []types.Record{}
	for rows.Next() {
		var (
			r  types.Record
			ms int64
		)
		if err := rows.Scan(&r.ID, &r.Title, &r.Note, &ms); err != nil {
			return nil, err
		}
		r.CreatedAt = fromMillis(ms)
		records = append(records, r)
	}
	return records, rows.Err()
}

// AddHighlight underlines text in one paragraph of a docent's narration.
func (s *LocalStore) AddHighlight(ctx context.Context, docentID, paragraphID int64, text string) (types.Highlight, error) {
	if strings.TrimSpace(text) == "" {
		return types.Highlight{}, fmt.Errorf("highlight text: %w", ErrInvalidInput)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	h := types.Highlight{
		ID:          uuid.NewString(),
		DocentID:    docentID,
		ParagraphID: paragraphID,
		Text:        text,
	}
	now := s.stamp()
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO highlights (id, docent_id, paragraph_id, text, created_at) VALUES (?, ?, ?, ?, ?)",
		h.ID, h.DocentID, h.ParagraphID, h.Text, now)
	if err != nil {
		return types.Highlight{}, fmt.Errorf("insert highlight: %w", err)
	}
	h.CreatedAt = fromMillis(now)
	return h, nil
}

// RemoveHighlight deletes a highlight by id.
func (s *LocalStore) RemoveHighlight(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, "DELETE FROM highlights WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete highlight %s: %w", id, err)
	}
	return expectOne(res, "highlight", id)
}

// Highlights lists highlights, oldest first. docentID 0 lists all of them.
func (s *LocalStore) Highlights(ctx context.Context, docentID int64) ([]types.Highlight, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, docent_id, paragraph_id, text, created_at FROM highlights
		 WHERE ? = 0 OR docent_id = ?
		 ORDER BY created_at ASC, id ASC`, docentID, docentID)
	if err != nil {
		return nil, fmt.Errorf("query highlights: %w", err)
	}
	defer rows.Close()

	out := []types.Highlight{}
	for rows.Next() {
		var (
			h  types.Highlight
			ms int64
		)
		if err := rows.Scan(&h.ID, &h.DocentID, &h.ParagraphID, &h.Text, &ms); err != nil {
			return nil, err
		}
		h.CreatedAt = fromMillis(ms)
		out = append(out, h)
	}
	return out, rows.Err()
}
