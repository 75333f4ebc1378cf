package sqlstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/goliatone/go-emailbuilder/components/builder"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// Store is a builder.Repository backed by a single SQLite file.
type Store struct {
	conn  *sql.DB
	now   func() time.Time
	newID func() string
}

var _ builder.Repository = (*Store)(nil)

// Open opens (or creates) the database at path and applies migrations.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}
	conn, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// one writer at a time
	conn.SetMaxOpenConns(1)

	s, err := New(conn)
	if err != nil {
		conn.Close()
		return nil, err
	}
	return s, nil
}

// New wraps an open connection and applies migrations. The caller keeps
// ownership of conn on error.
func New(conn *sql.DB) (*Store, error) {
	s := &Store{conn: conn, now: time.Now, newID: uuid.NewString}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.conn.Close()
}

// Conn returns the underlying database connection.
func (s *Store) Conn() *sql.DB {
	return s.conn
}

func (s *Store) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS layouts (
			id TEXT PRIMARY KEY,
			session_id TEXT NOT NULL,
			name TEXT NOT NULL DEFAULT '',
			layout_type TEXT NOT NULL DEFAULT '',
			grid_system INTEGER NOT NULL,
			background_color TEXT NOT NULL DEFAULT '',
			container_settings TEXT NOT NULL DEFAULT '{}',
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_layouts_session ON layouts(session_id)`,
		`CREATE TABLE IF NOT EXISTS blocks (
			id TEXT PRIMARY KEY,
			layout_id TEXT NOT NULL REFERENCES layouts(id) ON DELETE CASCADE,
			block_type TEXT NOT NULL,
			name TEXT NOT NULL DEFAULT '',
			row_position INTEGER NOT NULL,
			column_position INTEGER NOT NULL,
			column_span INTEGER NOT NULL,
			content TEXT NOT NULL DEFAULT '{}',
			styling TEXT NOT NULL DEFAULT '{}',
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_blocks_layout ON blocks(layout_id)`,
	}
	for _, m := range migrations {
		if _, err := s.conn.Exec(m); err != nil {
			return fmt.Errorf("exec migration: %w", err)
		}
	}
	return nil
}

func (s *Store) CreateLayout(ctx context.Context, sessionID string, settings builder.LayoutSettings) (builder.Layout, error) {
	if settings.GridSystem < 1 {
		return builder.Layout{}, fmt.Errorf("%w: grid system must be positive", builder.ErrInvalidConfig)
	}
	containerJSON, err := encodeMap(settings.ContainerSettings)
	if err != nil {
		return builder.Layout{}, err
	}
	now := s.now().UTC()
	layout := builder.Layout{
		ID:                s.newID(),
		Name:              settings.Name,
		LayoutType:        settings.LayoutType,
		GridSystem:        settings.GridSystem,
		BackgroundColor:   settings.BackgroundColor,
		ContainerSettings: settings.ContainerSettings,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	_, err = s.conn.ExecContext(ctx,
		`INSERT INTO layouts (id, session_id, name, layout_type, grid_system, background_color, container_settings, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		layout.ID, sessionID, layout.Name, layout.LayoutType, layout.GridSystem, layout.BackgroundColor, containerJSON, layout.CreatedAt, layout.UpdatedAt,
	)
	if err != nil {
		return builder.Layout{}, fmt.Errorf("insert layout: %w", err)
	}
	return layout.Clone(), nil
}

func (s *Store) GetLayout(ctx context.Context, layoutID, sessionID string) (builder.LayoutDocument, error) {
	layout, err := s.layout(ctx, layoutID, sessionID)
	if err != nil {
		return builder.LayoutDocument{}, err
	}
	rows, err := s.conn.QueryContext(ctx,
		`SELECT `+blockColumns+` FROM blocks WHERE layout_id = ? ORDER BY created_at ASC, rowid ASC`, layoutID,
	)
	if err != nil {
		return builder.LayoutDocument{}, fmt.Errorf("list blocks: %w", err)
	}
	defer rows.Close()

	doc := builder.LayoutDocument{Layout: layout, Blocks: []builder.Block{}}
	for rows.Next() {
		block, err := scanBlock(rows)
		if err != nil {
			return builder.LayoutDocument{}, err
		}
		doc.Blocks = append(doc.Blocks, block)
	}
	return doc, rows.Err()
}

func (s *Store) CreateBlock(ctx context.Context, layoutID, sessionID string, req builder.CreateBlockRequest) (builder.Block, error) {
	if _, err := s.layout(ctx, layoutID, sessionID); err != nil {
		return builder.Block{}, err
	}
	block := builder.Block{
		ID:         s.newID(),
		LayoutID:   layoutID,
		BlockType:  req.BlockType,
		Name:       req.Name,
		Row:        req.Row,
		Column:     req.Column,
		ColumnSpan: req.ColumnSpan,
		Content:    req.Content,
		Styling:    req.Styling,
	}
	content, styling, err := encodeBlockMaps(block)
	if err != nil {
		return builder.Block{}, err
	}
	now := s.now().UTC()
	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return builder.Block{}, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO blocks (id, layout_id, block_type, name, row_position, column_position, column_span, content, styling, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		block.ID, layoutID, block.BlockType, block.Name, block.Row, block.Column, block.ColumnSpan, content, styling, now, now,
	); err != nil {
		return builder.Block{}, fmt.Errorf("insert block: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `UPDATE layouts SET updated_at = ? WHERE id = ?`, now, layoutID); err != nil {
		return builder.Block{}, fmt.Errorf("touch layout: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return builder.Block{}, fmt.Errorf("commit: %w", err)
	}
	return block.Clone(), nil
}

func (s *Store) UpdateBlock(ctx context.Context, blockID, sessionID string, patch builder.BlockPatch) (builder.Block, error) {
	current, err := s.block(ctx, blockID, sessionID)
	if err != nil {
		return builder.Block{}, err
	}
	block := patch.Apply(current)
	content, styling, err := encodeBlockMaps(block)
	if err != nil {
		return builder.Block{}, err
	}
	_, err = s.conn.ExecContext(ctx,
		`UPDATE blocks SET name = ?, row_position = ?, column_position = ?, column_span = ?, content = ?, styling = ?, updated_at = ? WHERE id = ?`,
		block.Name, block.Row, block.Column, block.ColumnSpan, content, styling, s.now().UTC(), blockID,
	)
	if err != nil {
		return builder.Block{}, fmt.Errorf("update block: %w", err)
	}
	return block, nil
}

func (s *Store) DeleteBlock(ctx context.Context, blockID, sessionID string) error {
	if _, err := s.block(ctx, blockID, sessionID); err != nil {
		return err
	}
	if _, err := s.conn.ExecContext(ctx, `DELETE FROM blocks WHERE id = ?`, blockID); err != nil {
		return fmt.Errorf("delete block: %w", err)
	}
	return nil
}

func (s *Store) UpdateLayout(ctx context.Context, layoutID, sessionID string, patch builder.LayoutPatch) (builder.Layout, error) {
	current, err := s.layout(ctx, layoutID, sessionID)
	if err != nil {
		return builder.Layout{}, err
	}
	layout := patch.Apply(current)
	layout.UpdatedAt = s.now().UTC()
	containerJSON, err := encodeMap(layout.ContainerSettings)
	if err != nil {
		return builder.Layout{}, err
	}
	_, err = s.conn.ExecContext(ctx,
		`UPDATE layouts SET name = ?, background_color = ?, container_settings = ?, updated_at = ? WHERE id = ?`,
		layout.Name, layout.BackgroundColor, containerJSON, layout.UpdatedAt, layoutID,
	)
	if err != nil {
		return builder.Layout{}, fmt.Errorf("update layout: %w", err)
	}
	return layout, nil
}

// Layouts returns the ids of layouts owned by sessionID, oldest first.
func (s *Store) Layouts(ctx context.Context, sessionID string) ([]string, error) {
	rows, err := s.conn.QueryContext(ctx,
		`SELECT id FROM layouts WHERE session_id = ? ORDER BY created_at ASC, rowid ASC`, sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("list layouts: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (s *Store) layout(ctx context.Context, layoutID, sessionID string) (builder.Layout, error) {
	var (
		layout    builder.Layout
		container string
	)
	err := s.conn.QueryRowContext(ctx,
		`SELECT id, name, layout_type, grid_system, background_color, container_settings, created_at, updated_at FROM layouts WHERE id = ? AND session_id = ?`,
		layoutID, sessionID,
	).Scan(&layout.ID, &layout.Name, &layout.LayoutType, &layout.GridSystem, &layout.BackgroundColor, &container, &layout.CreatedAt, &layout.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return builder.Layout{}, fmt.Errorf("%w: layout %s", builder.ErrRecordNotFound, layoutID)
	}
	if err != nil {
		return builder.Layout{}, fmt.Errorf("get layout: %w", err)
	}
	if layout.ContainerSettings, err = decodeMap(container); err != nil {
		return builder.Layout{}, err
	}
	return layout, nil
}

const blockColumns = `id, layout_id, block_type, name, row_position, column_position, column_span, content, styling`

func (s *Store) block(ctx context.Context, blockID, sessionID string) (builder.Block, error) {
	row := s.conn.QueryRowContext(ctx,
		`SELECT b.id, b.layout_id, b.block_type, b.name, b.row_position, b.column_position, b.column_span, b.content, b.styling
		 FROM blocks b JOIN layouts l ON l.id = b.layout_id
		 WHERE b.id = ? AND l.session_id = ?`,
		blockID, sessionID,
	)
	block, err := scanBlock(row)
	if errors.Is(err, sql.ErrNoRows) {
		return builder.Block{}, fmt.Errorf("%w: block %s", builder.ErrRecordNotFound, blockID)
	}
	return block, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanBlock(row scanner) (builder.Block, error) {
	var (
		block            builder.Block
		content, styling string
	)
	if err := row.Scan(&block.ID, &block.LayoutID, &block.BlockType, &block.Name, &block.Row, &block.Column, &block.ColumnSpan, &content, &styling); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return builder.Block{}, err
		}
		return builder.Block{}, fmt.Errorf("scan block: %w", err)
	}
	var err error
	if block.Content, err = decodeMap(content); err != nil {
		return builder.Block{}, err
	}
	if block.Styling, err = decodeMap(styling); err != nil {
		return builder.Block{}, err
	}
	return block, nil
}

func encodeBlockMaps(block builder.Block) (string, string, error) {
	content, err := encodeMap(block.Content)
	if err != nil {
		return "", "", err
	}
	styling, err := encodeMap(block.Styling)
	if err != nil {
		return "", "", err
	}
	return content, styling, nil
}

func encodeMap(m map[string]any) (string, error) {
	if m == nil {
		return "{}", nil
	}
	raw, err := json.Marshal(m)
	if err != nil {
		return "", fmt.Errorf("encode json column: %w", err)
	}
	return string(raw), nil
}

func decodeMap(raw string) (map[string]any, error) {
	out := map[string]any{}
	if raw == "" {
		return out, nil
	}
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil, fmt.Errorf("decode json column: %w", err)
	}
	return out, nil
}
