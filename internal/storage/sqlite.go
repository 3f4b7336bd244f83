package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"fgfbot/internal/model"
	logx "fgfbot/pkg/logx"

	_ "modernc.org/sqlite"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS saved_posts (
	seq   INTEGER PRIMARY KEY AUTOINCREMENT,
	id    TEXT NOT NULL UNIQUE,
	title TEXT NOT NULL,
	saved_at DATETIME DEFAULT CURRENT_TIMESTAMP
);
`

type sqliteStore struct {
	db  *sql.DB
	log logx.Logger
}

func openSQLite(cfg Config, log logx.Logger) (Store, error) {
	if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", cfg.Path)
	if err != nil {
		return nil, err
	}
	// SQLite prefers a single writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if _, err := db.Exec(sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: migrate %s: %v", ErrCorrupt, cfg.Path, err)
	}
	return &sqliteStore{db: db, log: log}, nil
}

func (s *sqliteStore) Load(ctx context.Context) ([]model.SavedPost, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, title FROM saved_posts ORDER BY seq`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	posts := []model.SavedPost{}
	for rows.Next() {
		var p model.SavedPost
		if err := rows.Scan(&p.ID, &p.Title); err != nil {
			return nil, err
		}
		posts = append(posts, p)
	}
	return posts, rows.Err()
}

// Save inserts entries not yet stored. Existing rows keep their position.
func (s *sqliteStore) Save(ctx context.Context, all []model.SavedPost) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO saved_posts (id, title) VALUES (?, ?) ON CONFLICT(id) DO NOTHING`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	inserted := 0
	for _, p := range all {
		res, err := stmt.ExecContext(ctx, p.ID, p.Title)
		if err != nil {
			return fmt.Errorf("insert %s: %w", p.ID, err)
		}
		if n, _ := res.RowsAffected(); n > 0 {
			inserted++
		}
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	s.log.Debug("state saved", logx.Int("inserted", inserted))
	return nil
}

func (s *sqliteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}
