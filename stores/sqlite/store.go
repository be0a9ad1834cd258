// Package sqlite 把文档保存在 SQLite 数据库中（modernc.org/sqlite，无需 cgo）。
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"

	"github.com/ByLCY/vellum/document"
)

const schema = `
CREATE TABLE IF NOT EXISTS documents (
	id TEXT PRIMARY KEY,
	title TEXT,
	pages INTEGER,
	elements INTEGER,
	data BLOB,
	created_at DATETIME,
	updated_at DATETIME
);`

type sqliteStore struct {
	db *sql.DB
}

// NewStore 打开数据库并建表。
func NewStore(dataSourceName string) (*sqliteStore, error) {
	db, err := sql.Open("sqlite", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("打开 sqlite 数据库失败: %w", err)
	}
	// 内存数据库每个连接各自独立
	db.SetMaxOpenConns(1)
	if _, err = db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("创建 documents 表失败: %w", err)
	}
	return &sqliteStore{db}, nil
}

// Close 关闭数据库。
func (s *sqliteStore) Close() error { return s.db.Close() }

func (s *sqliteStore) List(ctx context.Context) ([]document.Meta, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT id, title, pages, elements, created_at, updated_at FROM documents ORDER BY id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []document.Meta{}
	for rows.Next() {
		var m document.Meta
		if err := rows.Scan(&m.ID, &m.Title, &m.Pages, &m.Elements, &m.CreatedAt, &m.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (s *sqliteStore) Get(ctx context.Context, id string) (document.Document, error) {
	log := logrus.WithField("document_id", id)
	var data []byte
	err := s.db.QueryRowContext(ctx, "SELECT data FROM documents WHERE id = ?", id).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		log.Debug("document not found")
		return document.Document{}, fmt.Errorf("%w: %s", document.ErrNotFound, id)
	}
	if err != nil {
		log.WithError(err).Error("Failed to retrieve document")
		return document.Document{}, err
	}
	d, err := document.Decode(data)
	if err != nil {
		return document.Document{}, err
	}
	if d.ID == "" {
		d.ID = id
	}
	return d, nil
}

func (s *sqliteStore) Save(ctx context.Context, d *document.Document) error {
	if d.ID == "" {
		d.ID = ulid.Make().String()
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	var created time.Time
	err = tx.QueryRowContext(ctx, "SELECT created_at FROM documents WHERE id = ?", d.ID).Scan(&created)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		if d.CreatedAt.IsZero() {
			d.CreatedAt = now
		}
	case err != nil:
		return err
	default:
		d.CreatedAt = created
	}
	d.UpdatedAt = now

	data, err := document.Encode(*d)
	if err != nil {
		return err
	}
	meta := document.MetaOf(*d)
	_, err = tx.ExecContext(ctx, `INSERT INTO documents (id, title, pages, elements, data, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET title = excluded.title, pages = excluded.pages,
			elements = excluded.elements, data = excluded.data, updated_at = excluded.updated_at`,
		d.ID, meta.Title, meta.Pages, meta.Elements, data, d.CreatedAt, d.UpdatedAt)
	if err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	logrus.WithFields(logrus.Fields{"document_id": d.ID, "data_length": len(data)}).Info("Document saved")
	return nil
}

func (s *sqliteStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM documents WHERE id = ?", id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: %s", document.ErrNotFound, id)
	}
	return nil
}
