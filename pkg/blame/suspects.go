// Copyright ©️ Lineage Project. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package blame

import (
	"fmt"
	"sort"

	"github.com/bmeddeb/lineage/modules/plumbing"
)

// suspectSet holds, for every commit waiting in the traversal queue, its
// ordered list of unresolved hunks. A commit is a suspect while the list
// is non-empty.
type suspectSet struct {
	byCommit map[plumbing.Hash][]hunk
}

func newSuspectSet() *suspectSet {
	return &suspectSet{byCommit: make(map[plumbing.Hash][]hunk)}
}

// add inserts hunks into a suspect's list, keeping ascending targetLo
// order and merging hunks that are adjacent in both target and suspect
// space.
func (s *suspectSet) add(oid plumbing.Hash, hs []hunk) {
	if len(hs) == 0 {
		return
	}
	merged := append(s.byCommit[oid], hs...)
	sort.Slice(merged, func(i, j int) bool {
		return merged[i].targetLo < merged[j].targetLo
	})
	out := merged[:0]
	for _, h := range merged {
		if n := len(out); n > 0 {
			prev := &out[n-1]
			if h.targetLo < prev.targetHi {
				panic(fmt.Sprintf("blame: overlapping unresolved ranges %v and %v for suspect %s",
					*prev, h, oid.Prefix()))
			}
			if prev.targetHi == h.targetLo && prev.suspectHi() == h.suspectLo {
				prev.targetHi = h.targetHi
				continue
			}
		}
		out = append(out, h)
	}
	s.byCommit[oid] = out
}

// take removes and returns a suspect's hunks.
func (s *suspectSet) take(oid plumbing.Hash) []hunk {
	hs := s.byCommit[oid]
	delete(s.byCommit, oid)
	return hs
}

func (s *suspectSet) empty() bool {
	return len(s.byCommit) == 0
}
