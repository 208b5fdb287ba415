// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package objstore

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/bureau-foundation/fix/lib/codec"
	"github.com/bureau-foundation/fix/lib/objhash"
	"github.com/bureau-foundation/fix/lib/object"
)

// Directory names within the disk store root.
const (
	blobDir = "blobs"
	treeDir = "trees"
	tmpDir  = "tmp"
)

// recordVersion is the format version of disk records.
const recordVersion = 1

// diskRecord is the content of one object file.
type diskRecord struct {
	_           struct{} `cbor:",toarray"`
	Version     uint8
	Kind        uint8
	Size        uint64
	Compression uint8
	Payload     []byte
}

// Disk stores one file per object under root:
//
//	blobs/a3/f9/a3f9b2c1...
//	trees/07/1c/071c9e4d...
//
// Writes go through tmp/ and an atomic rename. When the final path
// already exists the temp file is discarded: the existing object is
// identical by construction.
type Disk struct {
	root        string
	compression Compression
	logger      *slog.Logger
}

// NewDisk creates a disk store rooted at root, creating the directory
// structure if needed.
func NewDisk(root string, compression Compression, logger *slog.Logger) (*Disk, error) {
	if root == "" {
		return nil, fmt.Errorf("disk store: root is required")
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	for _, dir := range []string{
		root,
		filepath.Join(root, blobDir),
		filepath.Join(root, treeDir),
		filepath.Join(root, tmpDir),
	} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating store directory %s: %w", dir, err)
		}
	}
	logger.Debug("disk store opened", "root", root, "compression", compression)
	return &Disk{root: root, compression: compression, logger: logger}, nil
}

// LoadBlob implements [object.Backend]. The content is re-hashed and
// checked against the name.
func (d *Disk) LoadBlob(ctx context.Context, name object.BlobName) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	content, err := d.readObject(d.objectPath(blobDir, name.Pointer()), object.BlobKind)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", name, err)
	}
	if loaded := object.NameBlob(content); !loaded.Equal(name) {
		return nil, fmt.Errorf("reading %s: content names %s", name, loaded)
	}
	return content, nil
}

// LoadTree implements [object.Backend]. The element list is re-named
// and checked against the pointer.
func (d *Disk) LoadTree(ctx context.Context, name object.TreeName[object.Handle]) ([]object.Handle, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	payload, err := d.readObject(d.objectPath(treeDir, name.Pointer()), object.TreeKind)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", name, err)
	}
	if pointer := objhash.HashTree(payload); pointer != name.Pointer() {
		return nil, fmt.Errorf("reading %s: content hashes to %s", name, pointer)
	}
	elements, err := object.DecodeTree(payload)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", name, err)
	}
	return elements, nil
}

// CreateBlob implements [object.Backend].
func (d *Disk) CreateBlob(ctx context.Context, data []byte) (object.BlobName, error) {
	name := object.NameBlob(data)
	if name.IsLiteral() {
		return name, nil
	}
	if err := ctx.Err(); err != nil {
		return object.BlobName{}, err
	}
	if err := d.writeObject(d.objectPath(blobDir, name.Pointer()), object.BlobKind, data); err != nil {
		return object.BlobName{}, fmt.Errorf("writing %s: %w", name, err)
	}
	return name, nil
}

// CreateTree implements [object.Backend]. The stored payload is the
// canonical element encoding, so the file verifies against its name.
func (d *Disk) CreateTree(ctx context.Context, elements []object.Handle) (object.TreeName[object.Handle], error) {
	name, err := object.NameTree(elements)
	if err != nil {
		return object.TreeName[object.Handle]{}, err
	}
	if name.Size() == 0 {
		return name, nil
	}
	if err := ctx.Err(); err != nil {
		return object.TreeName[object.Handle]{}, err
	}
	encoded, err := object.EncodeTree(elements)
	if err != nil {
		return object.TreeName[object.Handle]{}, err
	}
	if err := d.writeObject(d.objectPath(treeDir, name.Pointer()), object.TreeKind, encoded); err != nil {
		return object.TreeName[object.Handle]{}, fmt.Errorf("writing %s: %w", name, err)
	}
	return name, nil
}

// Close implements [Store]. The disk store holds no open files.
func (d *Disk) Close() error { return nil }

// objectPath returns the sharded path for a pointer:
// <root>/<dir>/a3/f9/a3f9b2c1...
func (d *Disk) objectPath(dir string, pointer objhash.Pointer) string {
	hex := pointer.String()
	return filepath.Join(d.root, dir, hex[:2], hex[2:4], hex)
}

// readObject reads and decompresses one object file.
func (d *Disk) readObject(path string, kind object.ObjectKind) ([]byte, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	var record diskRecord
	if err := codec.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("decoding record: %w", err)
	}
	if record.Version != recordVersion {
		return nil, fmt.Errorf("unsupported record version %d", record.Version)
	}
	if object.ObjectKind(record.Kind) != kind {
		return nil, fmt.Errorf("record holds a %s, want a %s", object.ObjectKind(record.Kind), kind)
	}
	return decompress(record.Payload, Compression(record.Compression), record.Size)
}

// writeObject writes payload to path via a temp file and an atomic
// rename. An existing file at path is left untouched.
func (d *Disk) writeObject(path string, kind object.ObjectKind, payload []byte) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	}

	stored, algorithm, err := compress(payload, d.compression)
	if err != nil {
		return err
	}
	data, err := codec.Marshal(diskRecord{
		Version:     recordVersion,
		Kind:        uint8(kind),
		Size:        uint64(len(payload)),
		Compression: uint8(algorithm),
		Payload:     stored,
	})
	if err != nil {
		return fmt.Errorf("encoding record: %w", err)
	}

	tmpFile, err := os.CreateTemp(filepath.Join(d.root, tmpDir), kind.String()+"-*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	// Clean up the temp file on any error path.
	success := false
	defer func() {
		if !success {
			os.Remove(tmpPath)
		}
	}()

	if _, err := tmpFile.Write(data); err != nil {
		tmpFile.Close()
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating shard directory: %w", err)
	}

	// A concurrent writer of the same content may have won the race.
	if _, err := os.Stat(path); err == nil {
		os.Remove(tmpPath)
		success = true
		return nil
	}

	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("renaming to %s: %w", path, err)
	}
	success = true

	d.logger.Debug("object stored",
		"kind", kind,
		"path", path,
		"size", len(payload),
		"stored", len(stored),
		"compression", algorithm,
	)
	return nil
}
