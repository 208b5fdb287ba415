// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package objstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/bureau-foundation/fix/lib/config"
	"github.com/bureau-foundation/fix/lib/object"
)

// ErrNotFound is wrapped by every backend when an object is absent.
var ErrNotFound = errors.New("object not found")

// Store is a backend that holds resources until closed.
type Store interface {
	object.Backend
	io.Closer
}

var (
	_ Store                  = (*Memory)(nil)
	_ Store                  = (*Disk)(nil)
	_ Store                  = (*SQLite)(nil)
	_ object.BlobRangeLoader = (*Memory)(nil)
	_ object.BlobRangeLoader = (*SQLite)(nil)
)

// Open returns the backend selected by cfg. A nil logger discards.
func Open(ctx context.Context, cfg config.StoreConfig, logger *slog.Logger) (Store, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	switch cfg.Backend {
	case "memory":
		return NewMemory(), nil
	case "disk":
		compression, err := ParseCompression(cfg.Compression)
		if err != nil {
			return nil, err
		}
		return NewDisk(cfg.Path, compression, logger)
	case "sqlite":
		return OpenSQLite(ctx, SQLiteConfig{
			Path:     cfg.Path,
			PoolSize: cfg.PoolSize,
			Logger:   logger,
		})
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
	}
}
