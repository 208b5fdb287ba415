// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package sqlitepool provides the SQLite connection pool behind the
// sqlite object backend.
//
// It wraps zombiezen.com/go/sqlite with defaults suited to an
// append-only content store: WAL journal mode so readers never block
// the single writer, NORMAL synchronous, memory-mapped reads, and a
// busy timeout to absorb write contention between processes sharing
// one database file.
//
// Callers [Pool.Take] a connection, perform work, and [Pool.Put] it
// back, or use [Pool.With] which does both. Connections are not safe
// for concurrent use.
//
// # Pragmas
//
// Every connection in the pool is initialized with:
//
//   - journal_mode=WAL
//   - synchronous=NORMAL: survives process crashes, not power loss.
//     Objects are content-addressed, so a lost tail of writes is
//     recreated by re-running whatever produced it.
//   - busy_timeout=5000
//   - foreign_keys=OFF
//   - cache_size=-8192: 8 MB page cache per connection.
//   - mmap_size=268435456: 256 MB memory-mapped I/O for reads.
//   - temp_store=MEMORY
//
// [Config].Schema runs after the pragmas on every connection, so it
// must be idempotent (CREATE TABLE IF NOT EXISTS).
//
// # Usage
//
//	pool, err := sqlitepool.Open(sqlitepool.Config{
//	    Path:   "/var/lib/fix/objects.db",
//	    Schema: schema,
//	    Logger: logger,
//	})
//	if err != nil {
//	    return err
//	}
//	defer pool.Close()
//
//	err = pool.With(ctx, func(conn *sqlite.Conn) error {
//	    return sqlitex.Execute(conn, query, options)
//	})
package sqlitepool
