// Copyright ©️ Lineage Project. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

// Package commitgraph provides the optional auxiliary index the traversal
// consults: generation numbers for queue ordering and changed-path bloom
// filters for skipping commits that cannot have touched a path.
package commitgraph

import (
	"context"

	"github.com/bmeddeb/lineage/modules/lineage/object"
	"github.com/bmeddeb/lineage/modules/plumbing"
)

// Index is the capability set the engine consumes. A commit may be
// uncovered: Generation then reports ok == false, and MayChangePath
// answers true.
type Index interface {
	// Generation returns the commit's generation number: every commit's
	// number exceeds all of its parents'.
	Generation(oid plumbing.Hash) (uint64, bool)
	// MayChangePath reports whether the commit may have modified path
	// relative to its first parent; false is authoritative.
	MayChangePath(oid plumbing.Hash, path string) bool
}

type node struct {
	generation uint64
	bloom      *BloomFilter
}

// MemoryIndex is an Index built by walking parent edges from a set of
// tips.
type MemoryIndex struct {
	nodes map[plumbing.Hash]*node
}

func (x *MemoryIndex) Generation(oid plumbing.Hash) (uint64, bool) {
	n, ok := x.nodes[oid]
	if !ok {
		return 0, false
	}
	return n.generation, true
}

func (x *MemoryIndex) MayChangePath(oid plumbing.Hash, path string) bool {
	n, ok := x.nodes[oid]
	if !ok || n.bloom == nil {
		return true
	}
	return n.bloom.MayContain(path)
}

// Build walks every commit reachable from tips, assigns generation
// numbers and computes one changed-path filter per commit against its
// first parent.
func Build(ctx context.Context, b object.Backend, tips ...plumbing.Hash) (*MemoryIndex, error) {
	x := &MemoryIndex{nodes: make(map[plumbing.Hash]*node)}
	commits := make(map[plumbing.Hash]*object.Commit)
	// collect
	stack := append([]plumbing.Hash(nil), tips...)
	for len(stack) > 0 {
		oid := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if _, seen := commits[oid]; seen {
			continue
		}
		cc, err := b.Commit(ctx, oid)
		if err != nil {
			return nil, err
		}
		commits[oid] = cc
		stack = append(stack, cc.Parents...)
	}
	// generation numbers: 1 + max parent generation
	var generation func(oid plumbing.Hash) uint64
	generation = func(oid plumbing.Hash) uint64 {
		if n, ok := x.nodes[oid]; ok {
			return n.generation
		}
		cc := commits[oid]
		var gen uint64 = 1
		for _, p := range cc.Parents {
			if pg := generation(p); pg >= gen {
				gen = pg + 1
			}
		}
		x.nodes[oid] = &node{generation: gen}
		return gen
	}
	for oid := range commits {
		generation(oid)
	}
	// changed-path filters
	for oid, cc := range commits {
		paths, err := changedPaths(ctx, b, cc)
		if err != nil {
			return nil, err
		}
		f := NewBloomFilter(len(paths))
		for _, p := range paths {
			f.Add(p)
		}
		x.nodes[oid].bloom = f
	}
	return x, nil
}

// changedPaths lists the file paths whose blob differs between the
// commit and its first parent; for a root commit every path counts.
func changedPaths(ctx context.Context, b object.Backend, cc *object.Commit) ([]string, error) {
	cur, err := cc.Root(ctx)
	if err != nil {
		return nil, err
	}
	var base *object.Tree
	if len(cc.Parents) > 0 {
		parent, err := b.Commit(ctx, cc.Parents[0])
		if err != nil {
			return nil, err
		}
		if parent.Tree == cc.Tree {
			return nil, nil
		}
		if base, err = parent.Root(ctx); err != nil {
			return nil, err
		}
	}
	var paths []string
	if err := diffTrees(ctx, b, "", base, cur, &paths); err != nil {
		return nil, err
	}
	return paths, nil
}

func diffTrees(ctx context.Context, b object.Backend, prefix string, from, to *object.Tree, out *[]string) error {
	fromEntries := make(map[string]*object.TreeEntry)
	if from != nil {
		for _, e := range from.Entries {
			fromEntries[e.Name] = e
		}
	}
	toEntries := make(map[string]*object.TreeEntry)
	if to != nil {
		for _, e := range to.Entries {
			toEntries[e.Name] = e
		}
	}
	names := make(map[string]struct{}, len(fromEntries)+len(toEntries))
	for name := range fromEntries {
		names[name] = struct{}{}
	}
	for name := range toEntries {
		names[name] = struct{}{}
	}
	for name := range names {
		fe, inFrom := fromEntries[name]
		te, inTo := toEntries[name]
		if inFrom && inTo && fe.Equal(te) {
			continue
		}
		p := name
		if prefix != "" {
			p = prefix + "/" + name
		}
		fromDir := inFrom && fe.IsDir()
		toDir := inTo && te.IsDir()
		if !fromDir && !toDir {
			*out = append(*out, p)
			continue
		}
		var fromSub, toSub *object.Tree
		var err error
		if fromDir {
			if fromSub, err = b.Tree(ctx, fe.Hash); err != nil {
				return err
			}
		}
		if toDir {
			if toSub, err = b.Tree(ctx, te.Hash); err != nil {
				return err
			}
		}
		if inFrom && !fromDir {
			*out = append(*out, p)
		}
		if inTo && !toDir {
			*out = append(*out, p)
		}
		if err := diffTrees(ctx, b, p, fromSub, toSub, out); err != nil {
			return err
		}
	}
	return nil
}
