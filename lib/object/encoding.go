// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package object

import (
	"fmt"
	"math"

	"github.com/bureau-foundation/fix/lib/codec"
	"github.com/bureau-foundation/fix/lib/objhash"
)

// handleRecord is the canonical wire form of one tree element. Array
// encoding keeps the element list compact and the field order fixed,
// so the tree pointer is a function of the elements alone.
type handleRecord struct {
	_      struct{} `cbor:",toarray"`
	Kind   uint8
	Thunk  uint8
	Access uint8
	Data   dataRecord
}

// dataRecord is the wire form of a name plus its accessibility. Thunk
// payloads reuse it: an identification carries its data, selections and
// applications carry their tree name.
type dataRecord struct {
	_          struct{} `cbor:",toarray"`
	Accessible bool
	Object     uint8
	Pointer    []byte
	Size       uint64
	Literal    []byte
	Footprint  uint32
	Eq         bool
	Tag        bool
}

// EncodeTree returns the canonical encoding of a tree's elements. The
// tree-domain pointer is the hash of these bytes.
func EncodeTree(elements []Handle) ([]byte, error) {
	records := make([]handleRecord, 0, len(elements))
	for _, element := range elements {
		records = append(records, encodeHandle(element))
	}
	encoded, err := codec.Marshal(records)
	if err != nil {
		return nil, fmt.Errorf("encoding tree: %w", err)
	}
	return encoded, nil
}

// DecodeTree parses the output of [EncodeTree], validating every name.
func DecodeTree(encoded []byte) ([]Handle, error) {
	var records []handleRecord
	if err := codec.Unmarshal(encoded, &records); err != nil {
		return nil, fmt.Errorf("decoding tree: %w", err)
	}
	elements := make([]Handle, 0, len(records))
	for i, record := range records {
		element, err := decodeHandle(record)
		if err != nil {
			return nil, fmt.Errorf("decoding tree element %d: %w", i, err)
		}
		elements = append(elements, element)
	}
	return elements, nil
}

func encodeHandle(h Handle) handleRecord {
	switch h.kind {
	case DataHandle:
		return handleRecord{Kind: uint8(DataHandle), Data: encodeData(h.data)}
	default:
		return handleRecord{
			Kind:   uint8(h.kind),
			Thunk:  uint8(h.thunk.kind),
			Access: uint8(h.access),
			Data:   encodeThunk(h.thunk),
		}
	}
}

func encodeThunk(t Thunk) dataRecord {
	if t.kind == Identification {
		return encodeData(t.data)
	}
	return encodeTreeName(t.tree, false)
}

func encodeData(d Data[Handle]) dataRecord {
	if d.accessible {
		if d.object.kind == BlobKind {
			return encodeBlobName(d.object.blob, true)
		}
		return encodeTreeName(d.object.tree, true)
	}
	if d.ref.kind == BlobKind {
		return encodeBlobName(d.ref.blob, false)
	}
	return encodeTreeName(d.ref.tree, false)
}

func encodeBlobName(name BlobName, accessible bool) dataRecord {
	record := dataRecord{
		Accessible: accessible,
		Object:     uint8(BlobKind),
		Size:       name.size,
		Eq:         true,
	}
	if name.named {
		record.Pointer = name.pointer[:]
	} else {
		record.Literal = name.literal[:name.size]
	}
	return record
}

func encodeTreeName(name TreeName[Handle], accessible bool) dataRecord {
	return dataRecord{
		Accessible: accessible,
		Object:     uint8(TreeKind),
		Pointer:    name.pointer[:],
		Size:       uint64(name.size),
		Footprint:  name.footprint,
		Eq:         name.eq,
		Tag:        name.tag,
	}
}

func decodeHandle(record handleRecord) (Handle, error) {
	switch HandleKind(record.Kind) {
	case DataHandle:
		data, err := decodeData(record.Data)
		if err != nil {
			return Handle{}, err
		}
		return FromData(data), nil
	case ThunkHandle, EncodeHandle:
		thunk, err := decodeThunk(ThunkKind(record.Thunk), record.Data)
		if err != nil {
			return Handle{}, err
		}
		if HandleKind(record.Kind) == ThunkHandle {
			return FromThunk(thunk), nil
		}
		access := Access(record.Access)
		if access > Lower {
			return Handle{}, fmt.Errorf("unknown accessibility %d", record.Access)
		}
		return FromEncode(Encode{Thunk: thunk, Access: access}), nil
	default:
		return Handle{}, fmt.Errorf("unknown handle kind %d", record.Kind)
	}
}

func decodeThunk(kind ThunkKind, record dataRecord) (Thunk, error) {
	switch kind {
	case Identification:
		data, err := decodeData(record)
		if err != nil {
			return Thunk{}, err
		}
		return Identify(data), nil
	case Selection, Application:
		if ObjectKind(record.Object) != TreeKind {
			return Thunk{}, fmt.Errorf("%s thunk must carry a tree", kind)
		}
		name, err := decodeTreeName(record)
		if err != nil {
			return Thunk{}, err
		}
		return Thunk{kind: kind, tree: name}, nil
	default:
		return Thunk{}, fmt.Errorf("unknown thunk kind %d", kind)
	}
}

func decodeData(record dataRecord) (Data[Handle], error) {
	var ref Ref
	switch ObjectKind(record.Object) {
	case BlobKind:
		name, err := decodeBlobName(record)
		if err != nil {
			return Data[Handle]{}, err
		}
		if record.Accessible {
			return ObjectData(BlobObject[Handle](name)), nil
		}
		ref = BlobRef(name)
	case TreeKind:
		name, err := decodeTreeName(record)
		if err != nil {
			return Data[Handle]{}, err
		}
		if record.Accessible {
			return ObjectData(TreeObject(name)), nil
		}
		ref = TreeRef(name)
	default:
		return Data[Handle]{}, fmt.Errorf("unknown object kind %d", record.Object)
	}
	return RefData[Handle](ref), nil
}

func decodeBlobName(record dataRecord) (BlobName, error) {
	if len(record.Pointer) == 0 {
		if uint64(len(record.Literal)) != record.Size {
			return BlobName{}, fmt.Errorf("literal blob carries %d bytes but declares %d", len(record.Literal), record.Size)
		}
		return LiteralBlob(record.Literal)
	}
	if len(record.Literal) != 0 {
		return BlobName{}, fmt.Errorf("named blob carries inline content")
	}
	pointer, err := objhash.FromBytes(record.Pointer)
	if err != nil {
		return BlobName{}, err
	}
	return namedBlob(pointer, record.Size)
}

func decodeTreeName(record dataRecord) (TreeName[Handle], error) {
	if record.Size > math.MaxUint32 {
		return TreeName[Handle]{}, fmt.Errorf("tree size %d exceeds the maximum", record.Size)
	}
	pointer, err := objhash.FromBytes(record.Pointer)
	if err != nil {
		return TreeName[Handle]{}, err
	}
	return TreeName[Handle]{
		pointer:   pointer,
		size:      uint32(record.Size),
		footprint: record.Footprint,
		eq:        record.Eq,
		tag:       record.Tag,
	}, nil
}
