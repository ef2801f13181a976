package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3" // registers the sqlite3 driver

	"github.com/vyrodovalexey/todo-api/internal/model"
)

const sqliteSchema = `CREATE TABLE IF NOT EXISTS todo_items (
	seq          INTEGER PRIMARY KEY AUTOINCREMENT,
	id           TEXT    NOT NULL UNIQUE,
	title        TEXT    NOT NULL,
	is_completed INTEGER NOT NULL DEFAULT 0
)`

const sqliteMetaSchema = `CREATE TABLE IF NOT EXISTS todo_meta (
	name  TEXT PRIMARY KEY,
	value TEXT NOT NULL
)`

// metaLastIssuedID names the todo_meta row holding the last inserted id.
const metaLastIssuedID = "last_issued_id"

// SQLiteBackend implements Backend on a sqlite table. Identifiers are stored
// in their textual form; the seq column preserves insertion order.
type SQLiteBackend[K model.ID] struct {
	db    *sql.DB
	codec KeyCodec[K]
}

// OpenSQLite opens the sqlite database at dsn and ensures the todo table exists.
func OpenSQLite[K model.ID](ctx context.Context, dsn string, codec KeyCodec[K]) (*SQLiteBackend[K], error) {
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %q: %w", dsn, err)
	}

	// sqlite allows a single writer; a single connection also keeps
	// ":memory:" databases from being split across connections.
	db.SetMaxOpenConns(1)

	b := &SQLiteBackend[K]{db: db, codec: codec}
	if err := b.init(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}

	return b, nil
}

func (b *SQLiteBackend[K]) init(ctx context.Context) error {
	if _, err := b.db.ExecContext(ctx, sqliteSchema); err != nil {
		return fmt.Errorf("create todo_items table: %w", err)
	}
	if _, err := b.db.ExecContext(ctx, sqliteMetaSchema); err != nil {
		return fmt.Errorf("create todo_meta table: %w", err)
	}
	return nil
}

// List returns all items ordered by insertion.
func (b *SQLiteBackend[K]) List(ctx context.Context) ([]model.TodoItem[K], error) {
	rows, err := b.db.QueryContext(ctx, `SELECT id, title, is_completed FROM todo_items ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("query todo_items: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	items := make([]model.TodoItem[K], 0)
	for rows.Next() {
		item, err := b.scan(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate todo_items: %w", err)
	}

	return items, nil
}

// Get retrieves an item by its ID.
func (b *SQLiteBackend[K]) Get(ctx context.Context, id K) (*model.TodoItem[K], error) {
	row := b.db.QueryRowContext(ctx,
		`SELECT id, title, is_completed FROM todo_items WHERE id = ?`,
		b.codec.Format(id),
	)

	item, err := b.scan(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	return item, nil
}

// Insert adds a new row and records its ID as the last one issued.
func (b *SQLiteBackend[K]) Insert(ctx context.Context, item model.TodoItem[K]) error {
	id := b.codec.Format(item.ID)

	tx, err := b.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("insert todo %s: begin: %w", id, err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO todo_items (id, title, is_completed) VALUES (?, ?, ?)`,
		id, item.Title, item.IsCompleted,
	); err != nil {
		return fmt.Errorf("insert todo %s: %w", id, err)
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT OR REPLACE INTO todo_meta (name, value) VALUES (?, ?)`,
		metaLastIssuedID, id,
	); err != nil {
		return fmt.Errorf("insert todo %s: record issued id: %w", id, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("insert todo %s: commit: %w", id, err)
	}
	return nil
}

// LastIssued returns the ID of the most recent Insert, including rows that
// have since been deleted. ok is false when nothing was ever inserted.
func (b *SQLiteBackend[K]) LastIssued(ctx context.Context) (K, bool, error) {
	var (
		zero K
		raw  string
	)

	err := b.db.QueryRowContext(ctx,
		`SELECT value FROM todo_meta WHERE name = ?`, metaLastIssuedID,
	).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return zero, false, nil
	}
	if err != nil {
		return zero, false, fmt.Errorf("read last issued id: %w", err)
	}

	id, err := b.codec.Parse(raw)
	if err != nil {
		return zero, false, fmt.Errorf("read last issued id: %w", err)
	}
	return id, true, nil
}

// Update replaces the title and completion flag of the row with item's ID.
func (b *SQLiteBackend[K]) Update(ctx context.Context, item model.TodoItem[K]) error {
	res, err := b.db.ExecContext(ctx,
		`UPDATE todo_items SET title = ?, is_completed = ? WHERE id = ?`,
		item.Title, item.IsCompleted, b.codec.Format(item.ID),
	)
	if err != nil {
		return fmt.Errorf("update todo %s: %w", b.codec.Format(item.ID), err)
	}

	return affectedOne(res)
}

// Remove deletes the row with the given ID.
func (b *SQLiteBackend[K]) Remove(ctx context.Context, id K) error {
	res, err := b.db.ExecContext(ctx, `DELETE FROM todo_items WHERE id = ?`, b.codec.Format(id))
	if err != nil {
		return fmt.Errorf("delete todo %s: %w", b.codec.Format(id), err)
	}

	return affectedOne(res)
}

// Ping checks the database connection.
func (b *SQLiteBackend[K]) Ping(ctx context.Context) error {
	if err := b.db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping sqlite: %w", err)
	}
	return nil
}

// Close closes the database.
func (b *SQLiteBackend[K]) Close() error {
	return b.db.Close()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (b *SQLiteBackend[K]) scan(row rowScanner) (*model.TodoItem[K], error) {
	var (
		rawID string
		item  model.TodoItem[K]
	)

	if err := row.Scan(&rawID, &item.Title, &item.IsCompleted); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan todo: %w", err)
	}

	id, err := b.codec.Parse(rawID)
	if err != nil {
		return nil, fmt.Errorf("scan todo: stored id: %w", err)
	}
	item.ID = id

	return &item, nil
}

func affectedOne(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
