// Copyright ©️ Lineage Project. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package blame

import (
	"fmt"

	"github.com/bmeddeb/lineage/modules/plumbing"
)

// Range is a half-open line interval [Lo, Hi).
type Range struct {
	Lo int `json:"lo"`
	Hi int `json:"hi"`
}

func (r Range) Len() int {
	return r.Hi - r.Lo
}

func (r Range) Empty() bool {
	return r.Hi <= r.Lo
}

func (r Range) String() string {
	return fmt.Sprintf("[%d,%d)", r.Lo, r.Hi)
}

// Entry is one resolved attribution: the target-file lines [Range.Lo,
// Range.Hi) were introduced by Commit, where they start at line SourceLo
// of that commit's version of the file. Entries are immutable once
// emitted.
type Entry struct {
	Range    Range         `json:"range"`
	Commit   plumbing.Hash `json:"commit"`
	SourceLo int           `json:"source_lo"`
}

// mergeable reports whether next directly extends e in target-line and
// source-line space under the same commit.
func (e Entry) mergeable(next Entry) bool {
	return e.Commit == next.Commit &&
		e.Range.Hi == next.Range.Lo &&
		e.SourceLo+e.Range.Len() == next.SourceLo
}

// hunk is one unresolved range: target-file lines [targetLo, targetHi)
// currently mapped into some suspect commit's blob starting at line
// suspectLo.
type hunk struct {
	targetLo int
	targetHi int
	// suspectLo is the first line of the mapped range in the suspect's
	// blob; the length is always targetHi-targetLo.
	suspectLo int
}

func newHunk(targetLo, targetHi, suspectLo int) hunk {
	if targetHi <= targetLo {
		panic(fmt.Sprintf("blame: empty unresolved range [%d,%d)", targetLo, targetHi))
	}
	if suspectLo < 0 {
		panic(fmt.Sprintf("blame: negative suspect line %d for [%d,%d)", suspectLo, targetLo, targetHi))
	}
	return hunk{targetLo: targetLo, targetHi: targetHi, suspectLo: suspectLo}
}

func (h hunk) len() int {
	return h.targetHi - h.targetLo
}

func (h hunk) suspectHi() int {
	return h.suspectLo + h.len()
}

// entry resolves the hunk to a commit at its mapped suspect line.
func (h hunk) entry(commit plumbing.Hash) Entry {
	return Entry{
		Range:    Range{Lo: h.targetLo, Hi: h.targetHi},
		Commit:   commit,
		SourceLo: h.suspectLo,
	}
}
