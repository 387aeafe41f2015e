// Copyright ©️ Lineage Project. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

// Package blame attributes every line of a file at a commit to the
// commit that introduced it.
//
// The engine walks the commit graph newest-first with a priority queue.
// Each visited commit diffs its version of the file against each parent's
// version: line ranges that exist identically in a parent are rewritten
// into that parent's line numbering and handed down; ranges no parent
// contains are attributed to the visited commit. Interval bookkeeping is
// done on half-open line ranges of the target file, split and shifted by
// the diff hunks commit by commit.
package blame

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/bmeddeb/lineage/modules/commitgraph"
	"github.com/bmeddeb/lineage/modules/lineage/object"
	"github.com/bmeddeb/lineage/modules/plumbing"
	"github.com/bmeddeb/lineage/modules/textdiff"
)

// Options configures one request.
type Options struct {
	// Algorithm selects the diff algorithm; the zero value means
	// histogram.
	Algorithm textdiff.Algorithm
	// Ranges restricts the request to these target-file intervals.
	// Empty means the entire file.
	Ranges []Range
	// Since treats commits committed strictly before it as roots: their
	// surviving ranges resolve to the boundary commit.
	Since time.Time
	// Graph optionally supplies generation numbers and changed-path
	// filters.
	Graph commitgraph.Index
}

// Stats counts the work one request performed.
type Stats struct {
	CommitsVisited int `json:"commits_visited"`
	TreesInspected int `json:"trees_inspected"`
	BlobsFetched   int `json:"blobs_fetched"`
	DiffsPerformed int `json:"diffs_performed"`
}

// Result is the outcome of a request.
type Result struct {
	// Path is the path of the file that was blamed.
	Path string
	// Rev is the starting commit the result was generated from.
	Rev plumbing.Hash
	// Entries covers the requested ranges, ordered by target line,
	// maximally coalesced.
	Entries []Entry
	// BlobBytes is the content of the file at Rev.
	BlobBytes []byte
	// Stats counts commits visited, trees inspected, blobs fetched and
	// diffs performed.
	Stats Stats
	// Incomplete is set when cancellation was observed before the
	// traversal finished; Entries then holds what was resolved so far.
	Incomplete bool
}

// Blame attributes each line of `path` at commit `rev` to the commit
// that introduced it.
func Blame(ctx context.Context, backend object.Backend, rev plumbing.Hash, path string, opts *Options) (*Result, error) {
	if opts == nil {
		opts = &Options{}
	}
	e := newEngine(backend, path, opts)

	start, err := backend.Commit(ctx, rev)
	if err != nil {
		return nil, err
	}
	root, err := start.Root(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEmptyTraversal, err)
	}
	e.stats.TreesInspected++
	entry, err := root.FindEntry(ctx, path)
	if err != nil {
		if object.IsErrEntryNotFound(err) || object.IsErrDirectoryNotFound(err) {
			return nil, &ErrFileMissing{Path: path}
		}
		return nil, err
	}
	text, err := e.blobText(ctx, entry.Hash)
	if err != nil {
		return nil, err
	}
	lines := textdiff.LineCount(text)

	ranges := append([]Range(nil), opts.Ranges...)
	if len(ranges) == 0 && lines > 0 {
		ranges = []Range{{Lo: 0, Hi: lines}}
	}
	sort.Slice(ranges, func(i, j int) bool { return ranges[i].Lo < ranges[j].Lo })
	initial := make([]hunk, 0, len(ranges))
	for i, r := range ranges {
		if r.Lo < 0 || r.Hi <= r.Lo || r.Hi > lines {
			return nil, &ErrInvalidRange{Range: r, Lines: lines}
		}
		if i > 0 && r.Lo < ranges[i-1].Hi {
			return nil, &ErrInvalidRange{Range: r, Lines: lines}
		}
		initial = append(initial, newHunk(r.Lo, r.Hi, r.Lo))
	}

	if len(initial) > 0 {
		e.suspects.add(rev, initial)
		e.enqueue(start)
		if err := e.run(ctx); err != nil {
			return nil, err
		}
	}

	return &Result{
		Path:       path,
		Rev:        rev,
		Entries:    finalize(e.entries),
		BlobBytes:  []byte(text),
		Stats:      e.stats,
		Incomplete: e.incomplete,
	}, nil
}
