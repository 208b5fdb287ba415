// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package objstore implements [object.Backend] over three kinds of
// storage:
//
//   - [Memory]: maps behind a read-write mutex, for tests and one-shot
//     evaluations.
//   - [Disk]: one file per object under a sharded directory tree,
//     written through a temp file and an atomic rename. Each file is a
//     CBOR record whose payload may be lz4 or zstd compressed.
//   - [SQLite]: two tables keyed by pointer in a WAL-mode database,
//     opened through lib/sqlitepool.
//
// All three are safe for concurrent use, and concurrent creates of
// identical content converge on one stored object: the disk backend
// keeps whichever rename lands first, the SQLite backend inserts with
// INSERT OR IGNORE, and the memory backend holds the write lock.
//
// Literal blobs and empty trees never reach a backend; lib/object
// resolves them from the name alone.
//
// [Open] picks a backend from a [config.StoreConfig].
package objstore
