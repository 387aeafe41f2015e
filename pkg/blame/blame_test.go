// Copyright ©️ Lineage Project. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package blame_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bmeddeb/lineage/modules/commitgraph"
	"github.com/bmeddeb/lineage/modules/lineage/object"
	"github.com/bmeddeb/lineage/modules/lineage/odb"
	"github.com/bmeddeb/lineage/modules/plumbing"
	"github.com/bmeddeb/lineage/modules/textdiff"
	"github.com/bmeddeb/lineage/pkg/blame"
)

// historyBuilder assembles commit histories against an in-memory odb.
type historyBuilder struct {
	t    *testing.T
	db   *odb.Database
	when time.Time
}

func newHistory(t *testing.T) *historyBuilder {
	t.Helper()
	db, err := odb.NewDatabase(odb.NewMemoryStorage())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return &historyBuilder{
		t:    t,
		db:   db,
		when: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

func (h *historyBuilder) writeTree(files map[string]string) plumbing.Hash {
	h.t.Helper()
	tree := &object.Tree{}
	subdirs := make(map[string]map[string]string)
	for path, content := range files {
		if name, rest, ok := strings.Cut(path, "/"); ok {
			if subdirs[name] == nil {
				subdirs[name] = make(map[string]string)
			}
			subdirs[name][rest] = content
			continue
		}
		oid, err := h.db.WriteBlob([]byte(content))
		require.NoError(h.t, err)
		tree.Entries = append(tree.Entries, &object.TreeEntry{Name: path, Mode: plumbing.Regular, Hash: oid})
	}
	for name, sub := range subdirs {
		oid := h.writeTree(sub)
		tree.Entries = append(tree.Entries, &object.TreeEntry{Name: name, Mode: plumbing.Dir, Hash: oid})
	}
	oid, err := h.db.WriteTree(tree)
	require.NoError(h.t, err)
	return oid
}

// commit writes a commit with the given file contents, one minute after
// the previous one.
func (h *historyBuilder) commit(files map[string]string, parents ...plumbing.Hash) plumbing.Hash {
	h.t.Helper()
	h.when = h.when.Add(time.Minute)
	return h.commitAt(h.when, files, parents...)
}

func (h *historyBuilder) commitAt(when time.Time, files map[string]string, parents ...plumbing.Hash) plumbing.Hash {
	h.t.Helper()
	sig := object.Signature{Name: "Alice", Email: "alice@example.com", When: when}
	cc := &object.Commit{
		Tree:      h.writeTree(files),
		Parents:   parents,
		Author:    sig,
		Committer: sig,
		Message:   "change\n",
	}
	oid, err := h.db.WriteCommit(cc)
	require.NoError(h.t, err)
	return oid
}

// verifyResult checks the result's structural invariants: the entries
// partition the covered ranges in order, maximally coalesced, and each
// entry's target lines equal the source lines of its commit's blob.
func verifyResult(t *testing.T, db *odb.Database, path string, res *blame.Result) {
	t.Helper()
	ctx := context.Background()
	targetLines := textdiff.SplitLines(string(res.BlobBytes))
	last := -1
	for i, entry := range res.Entries {
		require.Greater(t, entry.Range.Hi, entry.Range.Lo)
		require.GreaterOrEqual(t, entry.Range.Lo, last)
		last = entry.Range.Hi
		if i > 0 {
			prev := res.Entries[i-1]
			mergeable := prev.Commit == entry.Commit &&
				prev.Range.Hi == entry.Range.Lo &&
				prev.SourceLo+prev.Range.Len() == entry.SourceLo
			assert.False(t, mergeable, "entries %d and %d should have been coalesced", i-1, i)
		}
		cc, err := db.Commit(ctx, entry.Commit)
		require.NoError(t, err)
		fe, err := cc.FindEntry(ctx, path)
		require.NoError(t, err)
		blob, err := db.Blob(ctx, fe.Hash)
		require.NoError(t, err)
		sourceLines := textdiff.SplitLines(blob.Text())
		for off := 0; off < entry.Range.Len(); off++ {
			assert.Equal(t, sourceLines[entry.SourceLo+off], targetLines[entry.Range.Lo+off],
				"entry %v line %d", entry, off)
		}
	}
}

func run(t *testing.T, h *historyBuilder, rev plumbing.Hash, path string, opts *blame.Options) *blame.Result {
	t.Helper()
	res, err := blame.Blame(context.Background(), h.db, rev, path, opts)
	require.NoError(t, err)
	verifyResult(t, h.db, path, res)
	return res
}

func entry(lo, hi int, commit plumbing.Hash, sourceLo int) blame.Entry {
	return blame.Entry{Range: blame.Range{Lo: lo, Hi: hi}, Commit: commit, SourceLo: sourceLo}
}

func TestLinearHistory(t *testing.T) {
	h := newHistory(t)
	a := h.commit(map[string]string{"f": "a\nb\nc\n"})
	b := h.commit(map[string]string{"f": "a\nB\nc\n"}, a)
	head := h.commit(map[string]string{"f": "a\nB\nC\n"}, b)

	res := run(t, h, head, "f", nil)
	assert.Equal(t, []blame.Entry{
		entry(0, 1, a, 0),
		entry(1, 2, b, 1),
		entry(2, 3, head, 2),
	}, res.Entries)
	assert.False(t, res.Incomplete)
	assert.Equal(t, []byte("a\nB\nC\n"), res.BlobBytes)
}

func TestInsertionInTheMiddle(t *testing.T) {
	h := newHistory(t)
	a := h.commit(map[string]string{"f": "x\ny\n"})
	head := h.commit(map[string]string{"f": "x\nmid\ny\n"}, a)

	res := run(t, h, head, "f", nil)
	assert.Equal(t, []blame.Entry{
		entry(0, 1, a, 0),
		entry(1, 2, head, 1),
		entry(2, 3, a, 1),
	}, res.Entries)
}

func TestDeletion(t *testing.T) {
	h := newHistory(t)
	a := h.commit(map[string]string{"f": "p\nq\nr\n"})
	head := h.commit(map[string]string{"f": "p\nr\n"}, a)

	res := run(t, h, head, "f", nil)
	assert.Equal(t, []blame.Entry{
		entry(0, 1, a, 0),
		entry(1, 2, a, 2),
	}, res.Entries)
}

func TestMergeWithIdentityParent(t *testing.T) {
	h := newHistory(t)
	a := h.commit(map[string]string{"f": "a\nb\n", "other": "1\n"})
	b := h.commit(map[string]string{"f": "a\nb\nnew\n", "other": "1\n"}, a)
	c := h.commit(map[string]string{"f": "a\nb\n", "other": "2\n"}, a)
	// tree(HEAD) == tree(B): the merge contributes nothing itself
	head := h.commit(map[string]string{"f": "a\nb\nnew\n", "other": "1\n"}, b, c)

	res := run(t, h, head, "f", nil)
	assert.Equal(t, []blame.Entry{
		entry(0, 2, a, 0),
		entry(2, 3, b, 2),
	}, res.Entries)
}

func TestMergeWithGenuineMerge(t *testing.T) {
	h := newHistory(t)
	a := h.commit(map[string]string{"f": "c1\nc2\n"})
	b := h.commit(map[string]string{"f": "c1\nc2\nfromB\n"}, a)
	c := h.commit(map[string]string{"f": "c1\nc2\nfromC\n"}, a)
	head := h.commit(map[string]string{"f": "c1\nc2\nfromB\nfromC\n"}, b, c)

	res := run(t, h, head, "f", nil)
	assert.Equal(t, []blame.Entry{
		entry(0, 2, a, 0),
		entry(2, 3, b, 2),
		entry(3, 4, c, 2),
	}, res.Entries)
	for _, e := range res.Entries {
		assert.NotEqual(t, head, e.Commit, "nothing may be attributed to the merge itself")
	}
}

func TestRangeRestriction(t *testing.T) {
	h := newHistory(t)
	a := h.commit(map[string]string{"f": "a\nb\nc\n"})
	b := h.commit(map[string]string{"f": "a\nB\nc\n"}, a)
	head := h.commit(map[string]string{"f": "a\nB\nC\n"}, b)

	res := run(t, h, head, "f", &blame.Options{Ranges: []blame.Range{{Lo: 1, Hi: 3}}})
	assert.Equal(t, []blame.Entry{
		entry(1, 2, b, 1),
		entry(2, 3, head, 2),
	}, res.Entries)
}

func TestSingleCommitFile(t *testing.T) {
	h := newHistory(t)
	head := h.commit(map[string]string{"f": "one\ntwo\nthree\n"})

	res := run(t, h, head, "f", nil)
	assert.Equal(t, []blame.Entry{entry(0, 3, head, 0)}, res.Entries)
	assert.Equal(t, 1, res.Stats.CommitsVisited)
}

func TestPurePrepend(t *testing.T) {
	h := newHistory(t)
	a := h.commit(map[string]string{"f": "body1\nbody2\n"})
	head := h.commit(map[string]string{"f": "head1\nhead2\nbody1\nbody2\n"}, a)

	res := run(t, h, head, "f", nil)
	assert.Equal(t, []blame.Entry{
		entry(0, 2, head, 0),
		entry(2, 4, a, 0),
	}, res.Entries)
}

func TestEmptyFile(t *testing.T) {
	h := newHistory(t)
	head := h.commit(map[string]string{"f": ""})

	res := run(t, h, head, "f", nil)
	assert.Empty(t, res.Entries)
	assert.Empty(t, res.BlobBytes)
}

func TestSingleLineFile(t *testing.T) {
	h := newHistory(t)
	head := h.commit(map[string]string{"f": "only\n"})

	res := run(t, h, head, "f", nil)
	assert.Equal(t, []blame.Entry{entry(0, 1, head, 0)}, res.Entries)
}

func TestFinalLineWithoutTerminator(t *testing.T) {
	h := newHistory(t)
	a := h.commit(map[string]string{"f": "a\nb"})
	head := h.commit(map[string]string{"f": "a\nb\nc"}, a)

	// "b" gained a terminator, so the line content changed and HEAD owns it
	res := run(t, h, head, "f", nil)
	assert.Equal(t, []blame.Entry{
		entry(0, 1, a, 0),
		entry(1, 3, head, 1),
	}, res.Entries)
}

func TestNestedPath(t *testing.T) {
	h := newHistory(t)
	a := h.commit(map[string]string{"dir/sub/f": "x\n"})
	head := h.commit(map[string]string{"dir/sub/f": "x\ny\n"}, a)

	res := run(t, h, head, "dir/sub/f", nil)
	assert.Equal(t, []blame.Entry{
		entry(0, 1, a, 0),
		entry(1, 2, head, 1),
	}, res.Entries)
}

func TestFileMissing(t *testing.T) {
	h := newHistory(t)
	head := h.commit(map[string]string{"f": "a\n"})

	_, err := blame.Blame(context.Background(), h.db, head, "nope", nil)
	assert.True(t, blame.IsErrFileMissing(err))
}

func TestInvalidRange(t *testing.T) {
	h := newHistory(t)
	head := h.commit(map[string]string{"f": "a\nb\n"})

	_, err := blame.Blame(context.Background(), h.db, head, "f",
		&blame.Options{Ranges: []blame.Range{{Lo: 1, Hi: 5}}})
	assert.True(t, blame.IsErrInvalidRange(err))

	_, err = blame.Blame(context.Background(), h.db, head, "f",
		&blame.Options{Ranges: []blame.Range{{Lo: 2, Hi: 2}}})
	assert.True(t, blame.IsErrInvalidRange(err))

	// overlapping restrictions are rejected too
	_, err = blame.Blame(context.Background(), h.db, head, "f",
		&blame.Options{Ranges: []blame.Range{{Lo: 0, Hi: 2}, {Lo: 1, Hi: 2}}})
	assert.True(t, blame.IsErrInvalidRange(err))
}

func TestMissingStartingCommit(t *testing.T) {
	h := newHistory(t)
	_ = h.commit(map[string]string{"f": "a\n"})

	_, err := blame.Blame(context.Background(), h.db, plumbing.NewHash(strings.Repeat("ab", 32)), "f", nil)
	assert.True(t, plumbing.IsNoSuchObject(err))
}

func TestSinceBoundary(t *testing.T) {
	h := newHistory(t)
	a := h.commit(map[string]string{"f": "a\nb\nc\n"})
	b := h.commit(map[string]string{"f": "a\nB\nc\n"}, a)
	head := h.commit(map[string]string{"f": "a\nB\nC\n"}, b)
	hc, err := h.db.Commit(context.Background(), head)
	require.NoError(t, err)

	// commits strictly older than the bound become boundary commits: B
	// keeps everything that would have flowed to A
	res := run(t, h, head, "f", &blame.Options{Since: hc.Committer.When})
	assert.Equal(t, []blame.Entry{
		entry(0, 2, b, 0),
		entry(2, 3, head, 2),
	}, res.Entries)
}

func TestCancellation(t *testing.T) {
	h := newHistory(t)
	a := h.commit(map[string]string{"f": "a\n"})
	head := h.commit(map[string]string{"f": "a\nb\n"}, a)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res, err := blame.Blame(ctx, h.db, head, "f", nil)
	require.NoError(t, err)
	assert.True(t, res.Incomplete)
	assert.Empty(t, res.Entries)
}

func TestDeterminism(t *testing.T) {
	h := newHistory(t)
	a := h.commit(map[string]string{"f": "c1\nc2\n"})
	// same committer time on both sides forces the hash tiebreak
	when := h.when.Add(time.Minute)
	b := h.commitAt(when, map[string]string{"f": "c1\nc2\nfromB\n"}, a)
	c := h.commitAt(when, map[string]string{"f": "fromC\nc1\nc2\n"}, a)
	head := h.commit(map[string]string{"f": "fromC\nc1\nc2\nfromB\n"}, b, c)

	first := run(t, h, head, "f", nil)
	for i := 0; i < 3; i++ {
		again := run(t, h, head, "f", nil)
		assert.Equal(t, first.Entries, again.Entries)
	}
}

func TestFileRemovedFromBothMergeParents(t *testing.T) {
	h := newHistory(t)
	a := h.commit(map[string]string{"g": "unrelated\n"})
	b := h.commit(map[string]string{"g": "unrelated\nb\n"}, a)
	c := h.commit(map[string]string{"g": "unrelated\nc\n"}, a)
	// neither parent carries f: the merge introduced it
	head := h.commit(map[string]string{"f": "new\n", "g": "unrelated\n"}, b, c)

	res := run(t, h, head, "f", nil)
	assert.Equal(t, []blame.Entry{entry(0, 1, head, 0)}, res.Entries)
}

func TestEmptyIntermediateBlob(t *testing.T) {
	h := newHistory(t)
	a := h.commit(map[string]string{"f": "old\n"})
	b := h.commit(map[string]string{"f": ""}, a)
	head := h.commit(map[string]string{"f": "new\n"}, b)

	res := run(t, h, head, "f", nil)
	assert.Equal(t, []blame.Entry{entry(0, 1, head, 0)}, res.Entries)
}

func TestIdenticalTreePassThrough(t *testing.T) {
	h := newHistory(t)
	a := h.commit(map[string]string{"f": "a\nb\n"})
	// empty commit: same tree as its parent
	b := h.commit(map[string]string{"f": "a\nb\n"}, a)
	head := h.commit(map[string]string{"f": "a\nb\nc\n"}, b)

	res := run(t, h, head, "f", nil)
	assert.Equal(t, []blame.Entry{
		entry(0, 2, a, 0),
		entry(2, 3, head, 2),
	}, res.Entries)
	// the empty commit is stepped but never diffed
	assert.Equal(t, 1, res.Stats.DiffsPerformed)
}

func TestStatsAndAlgorithms(t *testing.T) {
	h := newHistory(t)
	a := h.commit(map[string]string{"f": "a\nb\nc\n"})
	b := h.commit(map[string]string{"f": "a\nB\nc\n"}, a)
	head := h.commit(map[string]string{"f": "a\nB\nC\n"}, b)

	for _, algo := range []textdiff.Algorithm{textdiff.Histogram, textdiff.Myers, textdiff.ONP, textdiff.Patience} {
		res := run(t, h, head, "f", &blame.Options{Algorithm: algo})
		assert.Equal(t, []blame.Entry{
			entry(0, 1, a, 0),
			entry(1, 2, b, 1),
			entry(2, 3, head, 2),
		}, res.Entries, "algorithm %s", algo)
		assert.Equal(t, 3, res.Stats.CommitsVisited)
		assert.Equal(t, 2, res.Stats.DiffsPerformed)
		assert.Equal(t, 3, res.Stats.BlobsFetched)
	}
}

func TestCommitGraphShortCircuit(t *testing.T) {
	h := newHistory(t)
	ctx := context.Background()
	a := h.commit(map[string]string{"f": "a\nb\n", "g": "1\n"})
	// b only touches g
	b := h.commit(map[string]string{"f": "a\nb\n", "g": "2\n"}, a)
	head := h.commit(map[string]string{"f": "a\nb\nc\n", "g": "2\n"}, b)

	idx, err := commitgraph.Build(ctx, h.db, head)
	require.NoError(t, err)
	assert.False(t, idx.MayChangePath(b, "f"))
	assert.True(t, idx.MayChangePath(b, "g"))

	plain := run(t, h, head, "f", nil)
	filtered := run(t, h, head, "f", &blame.Options{Graph: idx})
	assert.Equal(t, plain.Entries, filtered.Entries)
	assert.Less(t, filtered.Stats.TreesInspected, plain.Stats.TreesInspected)
}

func TestAnnotate(t *testing.T) {
	h := newHistory(t)
	a := h.commit(map[string]string{"f": "a\nb\n"})
	head := h.commit(map[string]string{"f": "a\nB\n"}, a)

	res := run(t, h, head, "f", nil)
	ann, err := res.Annotate(context.Background(), h.db)
	require.NoError(t, err)
	require.Len(t, ann.Lines, 2)
	assert.Equal(t, "a", ann.Lines[0].Text)
	assert.Equal(t, a, ann.Lines[0].Hash)
	assert.Equal(t, "B", ann.Lines[1].Text)
	assert.Equal(t, head, ann.Lines[1].Hash)
	assert.Equal(t, "alice@example.com", ann.Lines[0].Author)
	assert.NotEmpty(t, ann.String())
}
