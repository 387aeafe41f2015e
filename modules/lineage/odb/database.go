// Copyright ©️ Lineage Project. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package odb

import (
	"bytes"
	"context"
	"sync/atomic"

	"github.com/dgraph-io/ristretto/v2"

	"github.com/bmeddeb/lineage/modules/lineage/object"
	"github.com/bmeddeb/lineage/modules/plumbing"
)

const (
	defaultCacheCost = 64 << 20 // decoded-object budget in bytes
)

// Database decodes objects out of a Storage and keeps recently decoded
// commits, trees and blobs behind a ristretto LRU so a traversal does not
// re-decode the objects it revisits.
type Database struct {
	store     Storage
	lru       *ristretto.Cache[string, any]
	cacheHits atomic.Uint64
	enableLRU bool
}

type Option func(*Database)

// WithoutCache disables the decoded-object LRU.
func WithoutCache() Option {
	return func(d *Database) {
		d.enableLRU = false
	}
}

func NewDatabase(store Storage, opts ...Option) (*Database, error) {
	d := &Database{store: store, enableLRU: true}
	for _, opt := range opts {
		opt(d)
	}
	if d.enableLRU {
		lru, err := ristretto.NewCache(&ristretto.Config[string, any]{
			NumCounters: 10000,
			MaxCost:     defaultCacheCost,
			BufferItems: 64,
		})
		if err != nil {
			return nil, err
		}
		d.lru = lru
	}
	return d, nil
}

func (d *Database) Close() error {
	if d.lru != nil {
		d.lru.Close()
	}
	return d.store.Close()
}

// CacheHits reports how many object loads were served from the LRU.
func (d *Database) CacheHits() uint64 {
	return d.cacheHits.Load()
}

func (d *Database) cacheGet(oid plumbing.Hash) (any, bool) {
	if d.lru == nil {
		return nil, false
	}
	v, ok := d.lru.Get(oid.String())
	if ok {
		d.cacheHits.Add(1)
	}
	return v, ok
}

func (d *Database) cacheSet(oid plumbing.Hash, v any, cost int64) {
	if d.lru == nil {
		return
	}
	_ = d.lru.Set(oid.String(), v, cost)
}

func (d *Database) load(oid plumbing.Hash, want object.ObjectType) ([]byte, error) {
	kind, payload, err := d.store.Object(oid)
	if err != nil {
		return nil, err
	}
	if kind != want {
		return nil, object.ErrUnsupportedObject
	}
	return payload, nil
}

func (d *Database) Commit(ctx context.Context, oid plumbing.Hash) (*object.Commit, error) {
	if v, ok := d.cacheGet(oid); ok {
		if cc, ok := v.(*object.Commit); ok {
			return cc, nil
		}
	}
	payload, err := d.load(oid, object.CommitObject)
	if err != nil {
		return nil, err
	}
	cc := new(object.Commit)
	if err := cc.Decode(oid, bytes.NewReader(payload)); err != nil {
		return nil, err
	}
	cc.Bind(d)
	d.cacheSet(oid, cc, int64(len(payload)))
	return cc, nil
}

func (d *Database) Tree(ctx context.Context, oid plumbing.Hash) (*object.Tree, error) {
	if v, ok := d.cacheGet(oid); ok {
		if t, ok := v.(*object.Tree); ok {
			return t, nil
		}
	}
	payload, err := d.load(oid, object.TreeObject)
	if err != nil {
		return nil, err
	}
	t := new(object.Tree)
	if err := t.Decode(oid, bytes.NewReader(payload)); err != nil {
		return nil, err
	}
	t.Bind(d)
	d.cacheSet(oid, t, int64(len(payload)))
	return t, nil
}

func (d *Database) Blob(ctx context.Context, oid plumbing.Hash) (*object.Blob, error) {
	if v, ok := d.cacheGet(oid); ok {
		if b, ok := v.(*object.Blob); ok {
			return b, nil
		}
	}
	payload, err := d.load(oid, object.BlobObject)
	if err != nil {
		return nil, err
	}
	b := &object.Blob{Hash: oid, Contents: payload}
	d.cacheSet(oid, b, b.Size())
	return b, nil
}

// WriteBlob stores raw content and returns its id.
func (d *Database) WriteBlob(content []byte) (plumbing.Hash, error) {
	return d.write(object.BlobObject, content)
}

// WriteTree encodes and stores a tree.
func (d *Database) WriteTree(t *object.Tree) (plumbing.Hash, error) {
	var buf bytes.Buffer
	if err := t.Encode(&buf); err != nil {
		return plumbing.ZeroHash, err
	}
	return d.write(object.TreeObject, buf.Bytes())
}

// WriteCommit encodes and stores a commit.
func (d *Database) WriteCommit(cc *object.Commit) (plumbing.Hash, error) {
	var buf bytes.Buffer
	if err := cc.Encode(&buf); err != nil {
		return plumbing.ZeroHash, err
	}
	return d.write(object.CommitObject, buf.Bytes())
}

func (d *Database) write(kind object.ObjectType, payload []byte) (plumbing.Hash, error) {
	ws, ok := d.store.(WritableStorage)
	if !ok {
		return plumbing.ZeroHash, ErrReadOnlyStorage
	}
	return ws.Store(kind, payload)
}

var (
	_ object.Backend = &Database{}
)
