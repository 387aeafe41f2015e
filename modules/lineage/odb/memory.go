// Copyright ©️ Lineage Project. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package odb

import (
	"sync"

	"github.com/bmeddeb/lineage/modules/lineage/object"
	"github.com/bmeddeb/lineage/modules/plumbing"
)

type memoryObject struct {
	kind    object.ObjectType
	payload []byte
}

// MemoryStorage is an in-memory WritableStorage, primarily for fixtures
// and tests.
type MemoryStorage struct {
	mu      sync.RWMutex
	objects map[plumbing.Hash]memoryObject
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		objects: make(map[plumbing.Hash]memoryObject),
	}
}

func (s *MemoryStorage) Object(oid plumbing.Hash) (object.ObjectType, []byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	o, ok := s.objects[oid]
	if !ok {
		return object.InvalidObject, nil, plumbing.NoSuchObject(oid)
	}
	return o.kind, o.payload, nil
}

func (s *MemoryStorage) Store(kind object.ObjectType, payload []byte) (plumbing.Hash, error) {
	if !kind.Valid() {
		return plumbing.ZeroHash, object.ErrUnsupportedObject
	}
	oid := plumbing.HashObject(kind.String(), payload)
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.objects[oid]; !ok {
		stored := make([]byte, len(payload))
		copy(stored, payload)
		s.objects[oid] = memoryObject{kind: kind, payload: stored}
	}
	return oid, nil
}

func (s *MemoryStorage) Close() error { return nil }

var (
	_ WritableStorage = &MemoryStorage{}
)
