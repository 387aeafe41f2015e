// Copyright ©️ Lineage Project. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package blame

import (
	"bytes"
	"context"
	"time"

	"github.com/emirpasic/gods/trees/binaryheap"

	"github.com/bmeddeb/lineage/modules/commitgraph"
	"github.com/bmeddeb/lineage/modules/lineage/object"
	"github.com/bmeddeb/lineage/modules/plumbing"
	"github.com/bmeddeb/lineage/modules/textdiff"
)

// engine holds one request's state: the priority queue of suspect
// commits, their unresolved hunks, and the entries resolved so far.
type engine struct {
	backend  object.Backend
	graph    commitgraph.Index
	algo     textdiff.Algorithm
	path     string
	since    time.Time
	suspects *suspectSet
	queue    *binaryheap.Heap
	queued   map[plumbing.Hash]bool
	// texts caches intermediate blob text for the request, evicted
	// oldest-first past maxCachedTexts
	texts      map[plumbing.Hash]string
	textOrder  []plumbing.Hash
	entries    []Entry
	stats      Stats
	incomplete bool
}

type queueItem struct {
	commit     *object.Commit
	generation uint64
}

func newEngine(backend object.Backend, path string, opts *Options) *engine {
	e := &engine{
		backend:  backend,
		graph:    opts.Graph,
		algo:     opts.Algorithm,
		path:     path,
		since:    opts.Since,
		suspects: newSuspectSet(),
		queued:   make(map[plumbing.Hash]bool),
		texts:    make(map[plumbing.Hash]string),
	}
	// Newest first: committer time, then generation number, then hash,
	// all descending, so equal-time pops are deterministic.
	e.queue = binaryheap.NewWith(func(a, b any) int {
		ia, ib := a.(*queueItem), b.(*queueItem)
		ca, cb := ia.commit, ib.commit
		if ca.Committer.When.After(cb.Committer.When) {
			return -1
		}
		if cb.Committer.When.After(ca.Committer.When) {
			return 1
		}
		if ia.generation != ib.generation {
			if ia.generation > ib.generation {
				return -1
			}
			return 1
		}
		return -bytes.Compare(ca.Hash[:], cb.Hash[:])
	})
	return e
}

// enqueue schedules a commit for visitation unless it is already queued.
func (e *engine) enqueue(cc *object.Commit) {
	if e.queued[cc.Hash] {
		return
	}
	var gen uint64
	if e.graph != nil {
		gen, _ = e.graph.Generation(cc.Hash)
	}
	e.queue.Push(&queueItem{commit: cc, generation: gen})
	e.queued[cc.Hash] = true
}

// run drives the traversal: pop the newest suspect, step it, repeat
// until no unresolved hunks remain. Cancellation is observed between
// steps and leaves the entries resolved so far intact.
func (e *engine) run(ctx context.Context) error {
	for !e.queue.Empty() {
		if ctx.Err() != nil {
			e.incomplete = true
			return nil
		}
		v, _ := e.queue.Pop()
		item := v.(*queueItem)
		oid := item.commit.Hash
		delete(e.queued, oid)
		hs := e.suspects.take(oid)
		if len(hs) == 0 {
			continue
		}
		if err := e.step(ctx, item.commit, hs); err != nil {
			return err
		}
		if e.suspects.empty() {
			break
		}
	}
	return nil
}
