// Package store 在 SQLite 中保存生成的文档记录及其历史版本
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	_ "modernc.org/sqlite"
)

// ErrNotFound 记录不存在
var ErrNotFound = errors.New("document not found")

// Status 文档处理状态
type Status string

const (
	StatusPending    Status = "PENDING"
	StatusProcessing Status = "PROCESSING"
	StatusCompleted  Status = "COMPLETED"
	StatusFailed     Status = "FAILED"
)

// Document 文档记录
type Document struct {
	ID        string                 `json:"id"`
	OwnerID   string                 `json:"userId"`
	Title     string                 `json:"title"`
	Type      string                 `json:"type"`
	Content   string                 `json:"content"`
	FilePath  string                 `json:"filePath,omitempty"`
	Status    Status                 `json:"status"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Version   int                    `json:"version"`
	CreatedAt time.Time              `json:"createdAt"`
	UpdatedAt time.Time              `json:"updatedAt"`
	Versions  []Version              `json:"versions,omitempty"`
}

// Version 文档的历史快照
type Version struct {
	ID         string    `json:"id"`
	DocumentID string    `json:"documentId"`
	Version    int       `json:"version"`
	Content    string    `json:"content"`
	FilePath   string    `json:"filePath,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}

// Edit 对当前记录的修改，nil 字段保持不变
type Edit struct {
	Content  *string
	FilePath *string
}

const schema = `
CREATE TABLE IF NOT EXISTS documents (
	id         TEXT PRIMARY KEY,
	owner_id   TEXT NOT NULL,
	title      TEXT NOT NULL,
	type       TEXT NOT NULL,
	content    TEXT NOT NULL DEFAULT '',
	file_path  TEXT NOT NULL DEFAULT '',
	status     TEXT NOT NULL,
	metadata   TEXT NOT NULL DEFAULT '{}',
	version    INTEGER NOT NULL DEFAULT 1,
	created_at INTEGER NOT NULL,
	updated_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_documents_owner ON documents(owner_id, updated_at DESC);

CREATE TABLE IF NOT EXISTS document_versions (
	id          TEXT PRIMARY KEY,
	document_id TEXT NOT NULL REFERENCES documents(id) ON DELETE CASCADE,
	version     INTEGER NOT NULL,
	content     TEXT NOT NULL DEFAULT '',
	file_path   TEXT NOT NULL DEFAULT '',
	created_at  INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_versions_document ON document_versions(document_id, created_at DESC);
`

var pragmas = []string{
	"PRAGMA foreign_keys=ON",
	"PRAGMA journal_mode=WAL",
	"PRAGMA busy_timeout=10000",
	"PRAGMA synchronous=NORMAL",
}

// Store 文档记录库
type Store struct {
	db     *sql.DB
	now    func() time.Time
	logger *zap.Logger
}

// Open 打开（必要时创建）数据库并初始化表结构
func Open(path string, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("store: mkdir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("store: open: %w", err)
	}
	if path == ":memory:" {
		// 每个连接都是独立的内存库
		db.SetMaxOpenConns(1)
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("store: %s: %w", pragma, err)
		}
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: schema: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: ping: %w", err)
	}

	logger.Debug("document store opened", zap.String("path", path))
	return &Store{db: db, now: time.Now, logger: logger}, nil
}

// Close 关闭数据库
func (s *Store) Close() error {
	return s.db.Close()
}

// Create 创建记录，ID 为空时自动生成，版本从 1 开始
func (s *Store) Create(ctx context.Context, doc *Document) error {
	if doc.ID == "" {
		doc.ID = uuid.NewString()
	}
	if doc.Status == "" {
		doc.Status = StatusCompleted
	}
	now := s.now()
	doc.Version = 1
	doc.CreatedAt = now
	doc.UpdatedAt = now

	meta, err := encodeMetadata(doc.Metadata)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO documents (id, owner_id, title, type, content, file_path, status, metadata, version, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		doc.ID, doc.OwnerID, doc.Title, doc.Type, doc.Content, doc.FilePath, string(doc.Status), meta,
		doc.Version, now.UnixMilli(), now.UnixMilli())
	if err != nil {
		return fmt.Errorf("insert document: %w", err)
	}
	return nil
}

// Get 获取记录及其全部历史版本（新的在前）
func (s *Store) Get(ctx context.Context, id string) (*Document, error) {
	doc, err := scanDocument(s.db.QueryRowContext(ctx, selectDocument+` WHERE id = ?`, id))
	if err != nil {
		return nil, err
	}
	doc.Versions, err = s.Versions(ctx, id, 0)
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// ListByOwner 按更新时间倒序列出用户的记录，每条附带最近 versionLimit 个版本
func (s *Store) ListByOwner(ctx context.Context, ownerID string, versionLimit int) ([]*Document, error) {
	rows, err := s.db.QueryContext(ctx, selectDocument+` WHERE owner_id = ? ORDER BY updated_at DESC, rowid DESC`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}

	var docs []*Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	for _, doc := range docs {
		if doc.Versions, err = s.Versions(ctx, doc.ID, versionLimit); err != nil {
			return nil, err
		}
	}
	return docs, nil
}

// Versions 返回历史版本，新的在前；limit <= 0 表示全部
func (s *Store) Versions(ctx context.Context, documentID string, limit int) ([]Version, error) {
	query := `SELECT id, document_id, version, content, file_path, created_at
		FROM document_versions WHERE document_id = ? ORDER BY created_at DESC, rowid DESC`
	args := []interface{}{documentID}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list versions: %w", err)
	}
	defer rows.Close()

	versions := []Version{}
	for rows.Next() {
		var (
			v       Version
			created int64
		)
		if err := rows.Scan(&v.ID, &v.DocumentID, &v.Version, &v.Content, &v.FilePath, &created); err != nil {
			return nil, fmt.Errorf("scan version: %w", err)
		}
		v.CreatedAt = time.UnixMilli(created)
		versions = append(versions, v)
	}
	return versions, rows.Err()
}

// ApplyEdit 在一个事务中保存当前内容的快照，然后写入修改并将版本号加一
func (s *Store) ApplyEdit(ctx context.Context, id string, edit Edit) (*Document, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	current, err := scanDocument(tx.QueryRowContext(ctx, selectDocument+` WHERE id = ?`, id))
	if err != nil {
		return nil, err
	}

	now := s.now()
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO document_versions (id, document_id, version, content, file_path, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		uuid.NewString(), current.ID, current.Version, current.Content, current.FilePath, now.UnixMilli()); err != nil {
		return nil, fmt.Errorf("insert version: %w", err)
	}

	if edit.Content != nil {
		current.Content = *edit.Content
	}
	if edit.FilePath != nil {
		current.FilePath = *edit.FilePath
	}
	current.Version++
	current.UpdatedAt = now

	if _, err := tx.ExecContext(ctx, `
		UPDATE documents SET content = ?, file_path = ?, version = ?, updated_at = ? WHERE id = ?`,
		current.Content, current.FilePath, current.Version, now.UnixMilli(), current.ID); err != nil {
		return nil, fmt.Errorf("update document: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}

	s.logger.Debug("document edited", zap.String("id", id), zap.Int("version", current.Version))
	return current, nil
}

// Delete 删除记录及其历史版本
func (s *Store) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM documents WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// CountByFilePath 统计引用某个文件的记录与历史版本数
func (s *Store) CountByFilePath(ctx context.Context, filePath string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM (
			SELECT file_path FROM documents
			UNION ALL
			SELECT file_path FROM document_versions
		) WHERE file_path = ?`, filePath).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count documents: %w", err)
	}
	return n, nil
}

const selectDocument = `SELECT id, owner_id, title, type, content, file_path, status, metadata, version, created_at, updated_at FROM documents`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanDocument(row rowScanner) (*Document, error) {
	var (
		doc              Document
		status, meta     string
		created, updated int64
	)
	err := row.Scan(&doc.ID, &doc.OwnerID, &doc.Title, &doc.Type, &doc.Content, &doc.FilePath,
		&status, &meta, &doc.Version, &created, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan document: %w", err)
	}

	doc.Status = Status(status)
	doc.CreatedAt = time.UnixMilli(created)
	doc.UpdatedAt = time.UnixMilli(updated)
	if meta != "" && meta != "{}" {
		if err := json.Unmarshal([]byte(meta), &doc.Metadata); err != nil {
			return nil, fmt.Errorf("decode metadata: %w", err)
		}
	}
	return &doc, nil
}

func encodeMetadata(meta map[string]interface{}) (string, error) {
	if len(meta) == 0 {
		return "{}", nil
	}
	data, err := json.Marshal(meta)
	if err != nil {
		return "", fmt.Errorf("encode metadata: %w", err)
	}
	return string(data), nil
}
