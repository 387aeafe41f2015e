// Copyright ©️ Lineage Project. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

// Package odb implements the object database the engine reads commits,
// trees and blobs from: pluggable storage underneath, one decode layer,
// and an LRU over decoded objects on top.
package odb

import (
	"errors"

	"github.com/bmeddeb/lineage/modules/lineage/object"
	"github.com/bmeddeb/lineage/modules/plumbing"
)

var (
	// ErrReadOnlyStorage is returned when writing through a Database whose
	// Storage is not writable.
	ErrReadOnlyStorage = errors.New("storage is read-only")
)

// Storage is byte-addressable retrieval of encoded objects.
type Storage interface {
	// Object returns the kind and encoded payload of the object with the
	// given id, or an error satisfying plumbing.IsNoSuchObject.
	Object(oid plumbing.Hash) (object.ObjectType, []byte, error)
	Close() error
}

// WritableStorage is a Storage objects can be written into. The id of a
// stored object is derived from its kind and payload, so storing is
// idempotent.
type WritableStorage interface {
	Storage
	Store(kind object.ObjectType, payload []byte) (plumbing.Hash, error)
}
