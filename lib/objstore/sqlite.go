// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package objstore

import (
	"context"
	"fmt"
	"log/slog"

	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"

	"github.com/bureau-foundation/fix/lib/objhash"
	"github.com/bureau-foundation/fix/lib/object"
	"github.com/bureau-foundation/fix/lib/sqlitepool"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS blobs (
	pointer BLOB PRIMARY KEY,
	size    INTEGER NOT NULL,
	data    BLOB NOT NULL
) WITHOUT ROWID;

CREATE TABLE IF NOT EXISTS trees (
	pointer BLOB PRIMARY KEY,
	size    INTEGER NOT NULL,
	payload BLOB NOT NULL
) WITHOUT ROWID;
`

// SQLiteConfig configures [OpenSQLite].
type SQLiteConfig struct {
	// Path is the database file. The parent directory must exist.
	Path string

	// PoolSize is the connection pool size; zero picks a default.
	PoolSize int

	// Logger receives pool lifecycle messages. Nil discards.
	Logger *slog.Logger
}

// SQLite stores blobs and trees in two tables keyed by pointer. Trees
// are stored as their canonical encoding.
type SQLite struct {
	pool   *sqlitepool.Pool
	logger *slog.Logger
}

// OpenSQLite opens (creating if needed) a SQLite object store. The
// schema is applied eagerly so that configuration errors surface here
// rather than on first use.
func OpenSQLite(ctx context.Context, cfg SQLiteConfig) (*SQLite, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	pool, err := sqlitepool.Open(sqlitepool.Config{
		Path:     cfg.Path,
		PoolSize: cfg.PoolSize,
		Schema:   sqliteSchema,
		Logger:   logger,
	})
	if err != nil {
		return nil, err
	}
	if err := pool.With(ctx, func(*sqlite.Conn) error { return nil }); err != nil {
		pool.Close()
		return nil, fmt.Errorf("sqlite store %s: %w", cfg.Path, err)
	}
	return &SQLite{pool: pool, logger: logger}, nil
}

// LoadBlob implements [object.Backend].
func (s *SQLite) LoadBlob(ctx context.Context, name object.BlobName) ([]byte, error) {
	content, found, err := s.queryBytes(ctx, "SELECT data FROM blobs WHERE pointer = ?", pointerArg(name.Pointer()))
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", name, err)
	}
	if !found {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return content, nil
}

// LoadBlobRange implements [object.BlobRangeLoader] with substr, so
// only the requested bytes leave the database.
func (s *SQLite) LoadBlobRange(ctx context.Context, name object.BlobName, start, end uint64) ([]byte, error) {
	if start > end || end > name.Size() {
		return nil, fmt.Errorf("range [%d, %d) out of bounds for %s", start, end, name)
	}
	content, found, err := s.queryBytes(ctx,
		"SELECT substr(data, ?, ?) FROM blobs WHERE pointer = ?",
		int64(start)+1, int64(end-start), pointerArg(name.Pointer()))
	if err != nil {
		return nil, fmt.Errorf("reading %s[%d:%d]: %w", name, start, end, err)
	}
	if !found {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return content, nil
}

// LoadTree implements [object.Backend].
func (s *SQLite) LoadTree(ctx context.Context, name object.TreeName[object.Handle]) ([]object.Handle, error) {
	payload, found, err := s.queryBytes(ctx, "SELECT payload FROM trees WHERE pointer = ?", pointerArg(name.Pointer()))
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", name, err)
	}
	if !found {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	if pointer := objhash.HashTree(payload); pointer != name.Pointer() {
		return nil, fmt.Errorf("reading %s: content hashes to %s", name, pointer)
	}
	return object.DecodeTree(payload)
}

// CreateBlob implements [object.Backend].
func (s *SQLite) CreateBlob(ctx context.Context, data []byte) (object.BlobName, error) {
	name := object.NameBlob(data)
	if name.IsLiteral() {
		return name, nil
	}
	err := s.pool.With(ctx, func(conn *sqlite.Conn) error {
		return sqlitex.Execute(conn,
			"INSERT OR IGNORE INTO blobs (pointer, size, data) VALUES (?, ?, ?)",
			&sqlitex.ExecOptions{Args: []any{pointerArg(name.Pointer()), int64(len(data)), data}})
	})
	if err != nil {
		return object.BlobName{}, fmt.Errorf("writing %s: %w", name, err)
	}
	return name, nil
}

// CreateTree implements [object.Backend].
func (s *SQLite) CreateTree(ctx context.Context, elements []object.Handle) (object.TreeName[object.Handle], error) {
	name, err := object.NameTree(elements)
	if err != nil {
		return object.TreeName[object.Handle]{}, err
	}
	if name.Size() == 0 {
		return name, nil
	}
	encoded, err := object.EncodeTree(elements)
	if err != nil {
		return object.TreeName[object.Handle]{}, err
	}
	err = s.pool.With(ctx, func(conn *sqlite.Conn) error {
		return sqlitex.Execute(conn,
			"INSERT OR IGNORE INTO trees (pointer, size, payload) VALUES (?, ?, ?)",
			&sqlitex.ExecOptions{Args: []any{pointerArg(name.Pointer()), int64(name.Size()), encoded}})
	})
	if err != nil {
		return object.TreeName[object.Handle]{}, fmt.Errorf("writing %s: %w", name, err)
	}
	return name, nil
}

// Close closes the connection pool.
func (s *SQLite) Close() error { return s.pool.Close() }

// queryBytes runs a single-column query and returns the first row's
// value.
func (s *SQLite) queryBytes(ctx context.Context, query string, args ...any) ([]byte, bool, error) {
	var result []byte
	found := false
	err := s.pool.With(ctx, func(conn *sqlite.Conn) error {
		return sqlitex.Execute(conn, query, &sqlitex.ExecOptions{
			Args: args,
			ResultFunc: func(stmt *sqlite.Stmt) error {
				result = make([]byte, stmt.ColumnLen(0))
				stmt.ColumnBytes(0, result)
				found = true
				return nil
			},
		})
	})
	return result, found, err
}

func pointerArg(pointer objhash.Pointer) []byte {
	return pointer[:]
}
