package store

import (
	"database/sql"
	"fmt"

	"go.uber.org/zap"
)

// Migration adds a column that databases created by older builds lack.
type Migration struct {
	Table  string
	Column string
	Def    string
}

// pendingMigrations lists columns added after the table was first shipped.
var pendingMigrations = []Migration{
	// Rename support for folders.
	{"folders", "updated_at", "INTEGER NOT NULL DEFAULT 0"},
}

// RunMigrations applies pendingMigrations to db. A failed ALTER is logged and
// skipped; missing tables are skipped quietly.
func RunMigrations(db *sql.DB, logger *zap.Logger) error {
	applied, skipped := 0, 0
	for _, m := range pendingMigrations {
		if !tableExists(db, m.Table) {
			skipped++
			continue
		}
		ok, err := columnExists(db, m.Table, m.Column)
		if err != nil {
			return err
		}
		if ok {
			skipped++
			continue
		}

		query := fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s", m.Table, m.Column, m.Def)
		if _, err := db.Exec(query); err != nil {
			logger.Warn("migration failed",
				zap.String("table", m.Table),
				zap.String("column", m.Column),
				zap.Error(err))
			skipped++
			continue
		}
		logger.Info("migration applied", zap.String("table", m.Table), zap.String("column", m.Column))
		applied++
	}

	logger.Debug("schema migrations complete", zap.Int("applied", applied), zap.Int("skipped", skipped))
	return nil
}

func columnExists(db *sql.DB, table, column string) (bool, error) {
	rows, err := db.Query(fmt.Sprintf("PRAGMA table_info(%s)", table))
	if err != nil {
		return false, fmt.Errorf("table_info(%s): %w", table, err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			cid       int
			name      string
			ctype     string
			notnull   int
			dfltValue any
			pk        int
		)
		if err := rows.Scan(&cid, &name, &ctype, &notnull, &dfltValue, &pk); err != nil {
			return false, err
		}
		if name == column {
			return true, nil
		}
	}
	return false, rows.Err()
}

func tableExists(db *sql.DB, table string) bool {
	var count int
	err := db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&count)
	return err == nil && count > 0
}
