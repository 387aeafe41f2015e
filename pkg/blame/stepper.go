// Copyright ©️ Lineage Project. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package blame

import (
	"context"
	"fmt"

	"github.com/bmeddeb/lineage/modules/lineage/object"
	"github.com/bmeddeb/lineage/modules/plumbing"
	"github.com/bmeddeb/lineage/modules/textdiff"
	"github.com/bmeddeb/lineage/modules/trace"
)

// step processes one suspect commit: route every unresolved hunk either
// down to a parent that still contains it, or resolve it to this commit.
func (e *engine) step(ctx context.Context, cc *object.Commit, hs []hunk) error {
	e.stats.CommitsVisited++

	// commits older than the bound are boundary commits, stepped as roots
	if !e.since.IsZero() && cc.Committer.When.Before(e.since) {
		e.resolveAll(cc.Hash, hs)
		return nil
	}

	// bloom short-circuit: the commit-graph says this commit cannot have
	// modified the path, so its blob equals its parent's
	if e.graph != nil && len(cc.Parents) == 1 && !e.graph.MayChangePath(cc.Hash, e.path) {
		parent, err := e.backend.Commit(ctx, cc.Parents[0])
		if err != nil {
			return err
		}
		trace.DbgPrint("blame: %s skipped by changed-path filter", cc.Hash.Prefix())
		e.suspects.add(parent.Hash, hs)
		e.enqueue(parent)
		return nil
	}

	parents := make([]*object.Commit, 0, len(cc.Parents))
	for _, p := range cc.Parents {
		pc, err := e.backend.Commit(ctx, p)
		if err != nil {
			return err
		}
		parents = append(parents, pc)
	}

	// identical-tree short-circuit: no parent changed anything
	if len(parents) > 0 {
		allSame := true
		for _, p := range parents {
			if p.Tree != cc.Tree {
				allSame = false
				break
			}
		}
		if allSame {
			e.suspects.add(parents[0].Hash, hs)
			e.enqueue(parents[0])
			return nil
		}
	}

	e.stats.TreesInspected++
	entry, err := cc.FindEntry(ctx, e.path)
	if err != nil {
		if object.IsErrEntryNotFound(err) || object.IsErrDirectoryNotFound(err) {
			// the path does not exist here; whatever traced to this
			// commit was introduced by it
			e.resolveAll(cc.Hash, hs)
			return nil
		}
		return err
	}

	// Parents are visited in declared order; a hunk fragment passes to
	// the first parent whose version still contains it, and only that
	// one. What no parent contains is resolved to this commit.
	remaining := hs
	var curText string
	curLoaded := false
	for _, parent := range parents {
		if len(remaining) == 0 {
			break
		}
		e.stats.TreesInspected++
		pe, err := parent.FindEntry(ctx, e.path)
		if err != nil {
			if object.IsErrEntryNotFound(err) || object.IsErrDirectoryNotFound(err) {
				continue
			}
			return err
		}
		var passed []hunk
		if pe.Hash == entry.Hash {
			// same blob: every line maps 1-to-1
			passed, remaining = remaining, nil
		} else {
			if !curLoaded {
				if curText, err = e.blobText(ctx, entry.Hash); err != nil {
					return err
				}
				curLoaded = true
			}
			parentText, err := e.blobText(ctx, pe.Hash)
			if err != nil {
				return err
			}
			diffHunks, err := textdiff.Hunks(e.algo, parentText, curText)
			if err != nil {
				return fmt.Errorf("diff %s..%s: %w", pe.Hash.Prefix(), entry.Hash.Prefix(), err)
			}
			e.stats.DiffsPerformed++
			passed, remaining = splitHunks(remaining, diffHunks)
		}
		if len(passed) > 0 {
			e.suspects.add(parent.Hash, passed)
			e.enqueue(parent)
		}
	}
	e.resolveAll(cc.Hash, remaining)
	return nil
}

func (e *engine) resolveAll(commit plumbing.Hash, hs []hunk) {
	for _, h := range hs {
		e.entries = append(e.entries, h.entry(commit))
	}
}

// maxCachedTexts bounds the per-request text cache; the odb's own LRU
// still bounds decoded blobs across requests.
const maxCachedTexts = 64

// blobText loads a blob's text, keeping the most recently fetched ones
// for the duration of the request.
func (e *engine) blobText(ctx context.Context, oid plumbing.Hash) (string, error) {
	if text, ok := e.texts[oid]; ok {
		return text, nil
	}
	blob, err := e.backend.Blob(ctx, oid)
	if err != nil {
		return "", err
	}
	e.stats.BlobsFetched++
	text := blob.Text()
	if len(e.texts) >= maxCachedTexts {
		evict := e.textOrder[0]
		e.textOrder = e.textOrder[1:]
		delete(e.texts, evict)
	}
	e.texts[oid] = text
	e.textOrder = append(e.textOrder, oid)
	return text, nil
}
