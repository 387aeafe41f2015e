// Copyright ©️ Lineage Project. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package commitgraph_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bmeddeb/lineage/modules/commitgraph"
	"github.com/bmeddeb/lineage/modules/lineage/object"
	"github.com/bmeddeb/lineage/modules/lineage/odb"
	"github.com/bmeddeb/lineage/modules/plumbing"
)

func TestBloomFilter(t *testing.T) {
	f := commitgraph.NewBloomFilter(3)
	f.Add("a.go")
	f.Add("pkg/b.go")
	f.Add("docs/readme.md")

	// no false negatives
	assert.True(t, f.MayContain("a.go"))
	assert.True(t, f.MayContain("pkg/b.go"))
	assert.True(t, f.MayContain("docs/readme.md"))

	misses := 0
	for i := 0; i < 100; i++ {
		if !f.MayContain(fmt.Sprintf("absent-%d.txt", i)) {
			misses++
		}
	}
	assert.Greater(t, misses, 90, "almost all absent paths must be rejected")
}

type fixture struct {
	t    *testing.T
	db   *odb.Database
	when time.Time
}

func (f *fixture) commit(files map[string]string, parents ...plumbing.Hash) plumbing.Hash {
	f.t.Helper()
	tree := &object.Tree{}
	for name, content := range files {
		oid, err := f.db.WriteBlob([]byte(content))
		require.NoError(f.t, err)
		tree.Entries = append(tree.Entries, &object.TreeEntry{Name: name, Mode: plumbing.Regular, Hash: oid})
	}
	treeOid, err := f.db.WriteTree(tree)
	require.NoError(f.t, err)
	f.when = f.when.Add(time.Minute)
	sig := object.Signature{Name: "Alice", Email: "alice@example.com", When: f.when}
	oid, err := f.db.WriteCommit(&object.Commit{
		Tree: treeOid, Parents: parents, Author: sig, Committer: sig, Message: "change\n",
	})
	require.NoError(f.t, err)
	return oid
}

func TestBuildIndex(t *testing.T) {
	ctx := context.Background()
	db, err := odb.NewDatabase(odb.NewMemoryStorage())
	require.NoError(t, err)
	defer db.Close()
	f := &fixture{t: t, db: db, when: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}

	a := f.commit(map[string]string{"f": "1\n", "g": "x\n"})
	b := f.commit(map[string]string{"f": "2\n", "g": "x\n"}, a)
	c := f.commit(map[string]string{"f": "1\n", "g": "y\n"}, a)
	m := f.commit(map[string]string{"f": "2\n", "g": "y\n"}, b, c)

	idx, err := commitgraph.Build(ctx, db, m)
	require.NoError(t, err)

	// every commit's generation exceeds all of its parents'
	gen := func(oid plumbing.Hash) uint64 {
		g, ok := idx.Generation(oid)
		require.True(t, ok)
		return g
	}
	assert.Equal(t, uint64(1), gen(a))
	assert.Equal(t, uint64(2), gen(b))
	assert.Equal(t, uint64(2), gen(c))
	assert.Equal(t, uint64(3), gen(m))

	// changed-path filters are computed against the first parent
	assert.True(t, idx.MayChangePath(b, "f"))
	assert.False(t, idx.MayChangePath(b, "g"))
	assert.True(t, idx.MayChangePath(c, "g"))
	assert.False(t, idx.MayChangePath(c, "f"))

	// unknown commits are uncovered: both answers degrade safely
	unknown := plumbing.HashBytes([]byte("unknown"))
	_, ok := idx.Generation(unknown)
	assert.False(t, ok)
	assert.True(t, idx.MayChangePath(unknown, "f"))
}
