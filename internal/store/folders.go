package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"docent/internal/types"

	"go.uber.org/zap"
)

// Folders lists every folder with its docent count, oldest first.
func (s *LocalStore) Folders(ctx context.Context) ([]types.Folder, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT f.id, f.name, f.created_at, COUNT(fd.docent_id)
		 FROM folders f
		 LEFT JOIN folder_docents fd ON fd.folder_id = f.id
		 GROUP BY f.id
		 ORDER BY f.created_at ASC, f.id ASC`)
	if err != nil {
		return nil, fmt.Errorf("query folders: %w", err)
	}
	defer rows.Close()

	folders := []types.Folder{}
	for rows.Next() {
		var (
			f  types.Folder
			ms int64
		)
		if err := rows.Scan(&f.ID, &f.Name, &ms, &f.DocentCount); err != nil {
			return nil, err
		}
		f.CreatedAt = fromMillis(ms)
		folders = append(folders, f)
	}
	return folders, rows.Err()
}

// CreateFolder adds an empty folder.
func (s *LocalStore) CreateFolder(ctx context.Context, name string) (types.Folder, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return types.Folder{}, fmt.Errorf("folder name: %w", ErrInvalidInput)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.stamp()
	res, err := s.db.ExecContext(ctx,
		"INSERT INTO folders (name, created_at, updated_at) VALUES (?, ?, ?)", name, now, now)
	if err != nil {
		return types.Folder{}, fmt.Errorf("insert folder: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return types.Folder{}, err
	}

	s.logger.Debug("folder created", zap.Int64("id", id), zap.String("name", name))
	return types.Folder{ID: id, Name: name, CreatedAt: fromMillis(now)}, nil
}

// RenameFolder changes a folder's name.
func (s *LocalStore) RenameFolder(ctx context.Context, id int64, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("folder name: %w", ErrInvalidInput)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx,
		"UPDATE folders SET name = ?, updated_at = ? WHERE id = ?", name, s.stamp(), id)
	if err != nil {
		return fmt.Errorf("rename folder %d: %w", id, err)
	}
	return expectOne(res, "folder", id)
}

// DeleteFolder removes a folder and everything saved in it.
func (s *LocalStore) DeleteFolder(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM folder_docents WHERE folder_id = ?", id); err != nil {
		return fmt.Errorf("delete folder contents %d: %w", id, err)
	}
	res, err := tx.ExecContext(ctx, "DELETE FROM folders WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete folder %d: %w", id, err)
	}
	if err := expectOne(res, "folder", id); err != nil {
		return err
	}
	return tx.Commit()
}

// SaveDocent toggles whether docentID is saved in folderID and returns the new
// state. A nil folder means saved without a folder.
func (s *LocalStore) SaveDocent(ctx context.Context, docentID int64, folderID *int64) (bool, error) {
	var folder int64
	if folderID != nil {
		folder = *folderID
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if folder != 0 {
		var one int
		err := tx.QueryRowContext(ctx, "SELECT 1 FROM folders WHERE id = ?", folder).Scan(&one)
		if errors.Is(err, sql.ErrNoRows) {
			return false, fmt.Errorf("folder %d: %w", folder, ErrNotFound)
		}
		if err != nil {
			return false, err
		}
	}

	res, err := tx.ExecContext(ctx,
		"DELETE FROM folder_docents WHERE folder_id = ? AND docent_id = ?", folder, docentID)
	if err != nil {
		return false, fmt.Errorf("unsave docent %d: %w", docentID, err)
	}
	removed, err := res.RowsAffected()
	if err != nil {
		return false, err
	}

	saved := removed == 0
	if saved {
		_, err = tx.ExecContext(ctx,
			"INSERT INTO folder_docents (folder_id, docent_id, saved_at) VALUES (?, ?, ?)",
			folder, docentID, s.stamp())
		if err != nil {
			return false, fmt.Errorf("save docent %d: %w", docentID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("commit: %w", err)
	}
	return saved, nil
}

// DashboardSummary counts the user's likes, saved docents, highlights and
// records.
func (s *LocalStore) DashboardSummary(ctx context.Context) (types.DashboardSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var d types.DashboardSummary
	err := s.db.QueryRowContext(ctx,
		`SELECT
			(SELECT COUNT(*) FROM likes),
			(SELECT COUNT(DISTINCT docent_id) FROM folder_docents),
			(SELECT COUNT(*) FROM highlights),
			(SELECT COUNT(*) FROM records)`,
	).Scan(&d.Likes, &d.Saved, &d.Highlights, &d.Records)
	if err != nil {
		return types.DashboardSummary{}, fmt.Errorf("query dashboard: %w", err)
	}
	return d, nil
}

func expectOne(res sql.Result, what string, id any) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%s %v: %w", what, id, ErrNotFound)
	}
	return nil
}
