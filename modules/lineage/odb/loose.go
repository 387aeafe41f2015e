// Copyright ©️ Lineage Project. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package odb

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zstd"

	"github.com/bmeddeb/lineage/modules/lineage/object"
	"github.com/bmeddeb/lineage/modules/plumbing"
)

// Loose-object layout: <root>/<first two hex chars>/<remaining hex>.
// Each file is a 8-byte header followed by a zstd frame:
//
//	magic 'L' 'O'  version(2, BE)  kind(1)  reserved(3)

var (
	looseMagic = [2]byte{'L', 'O'}

	ErrMismatchedMagic   = errors.New("mismatched magic")
	ErrMismatchedVersion = errors.New("mismatched version")
)

const looseCurrentVersion uint16 = 1

// LooseStorage stores zstd-compressed objects as individual files under
// a root directory.
type LooseStorage struct {
	root string
}

func NewLooseStorage(root string) (*LooseStorage, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, err
	}
	return &LooseStorage{root: root}, nil
}

func (s *LooseStorage) path(oid plumbing.Hash) string {
	hex := oid.String()
	return filepath.Join(s.root, hex[:2], hex[2:])
}

func (s *LooseStorage) Object(oid plumbing.Hash) (object.ObjectType, []byte, error) {
	raw, err := os.ReadFile(s.path(oid))
	if err != nil {
		if os.IsNotExist(err) {
			return object.InvalidObject, nil, plumbing.NoSuchObject(oid)
		}
		return object.InvalidObject, nil, err
	}
	if len(raw) < 8 {
		return object.InvalidObject, nil, fmt.Errorf("object %s: truncated header", oid.Prefix())
	}
	if !bytes.Equal(raw[:2], looseMagic[:]) {
		return object.InvalidObject, nil, ErrMismatchedMagic
	}
	if version := binary.BigEndian.Uint16(raw[2:4]); version != looseCurrentVersion {
		return object.InvalidObject, nil, ErrMismatchedVersion
	}
	kind := object.ObjectType(raw[4])
	if !kind.Valid() {
		return object.InvalidObject, nil, object.ErrUnsupportedObject
	}
	zr, err := zstd.NewReader(bytes.NewReader(raw[8:]))
	if err != nil {
		return object.InvalidObject, nil, fmt.Errorf("unable new zstd decoder: %w", err)
	}
	defer zr.Close()
	payload, err := io.ReadAll(zr)
	if err != nil {
		return object.InvalidObject, nil, err
	}
	return kind, payload, nil
}

func (s *LooseStorage) Store(kind object.ObjectType, payload []byte) (plumbing.Hash, error) {
	if !kind.Valid() {
		return plumbing.ZeroHash, object.ErrUnsupportedObject
	}
	oid := plumbing.HashObject(kind.String(), payload)
	p := s.path(oid)
	if _, err := os.Stat(p); err == nil {
		return oid, nil
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return plumbing.ZeroHash, err
	}
	var buf bytes.Buffer
	var hdr [8]byte
	copy(hdr[:2], looseMagic[:])
	binary.BigEndian.PutUint16(hdr[2:4], looseCurrentVersion)
	hdr[4] = byte(kind)
	_, _ = buf.Write(hdr[:])
	zw, err := zstd.NewWriter(&buf)
	if err != nil {
		return plumbing.ZeroHash, err
	}
	if _, err := zw.Write(payload); err != nil {
		_ = zw.Close()
		return plumbing.ZeroHash, err
	}
	if err := zw.Close(); err != nil {
		return plumbing.ZeroHash, err
	}
	// write-then-rename keeps readers away from partial objects
	tmp := p + ".tmp"
	if err := os.WriteFile(tmp, buf.Bytes(), 0o644); err != nil {
		return plumbing.ZeroHash, err
	}
	if err := os.Rename(tmp, p); err != nil {
		_ = os.Remove(tmp)
		return plumbing.ZeroHash, err
	}
	return oid, nil
}

func (s *LooseStorage) Close() error { return nil }

var (
	_ WritableStorage = &LooseStorage{}
)
