// Copyright ©️ Lineage Project. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package textdiff

// Histogram diff in the style of git's histogram strategy. A region is
// split at an anchor: a common run of lines found by scanning the new
// side, where a candidate replaces the current best when it is longer or
// when its rarest line occurs less often on the old side. Both sides of
// the anchor are diffed recursively. When every common line is more popular
// than maxChainLength the region falls back to the O(NP) core, which is
// exact but slower on low-entropy input.

const maxChainLength = 63

// anchor is a candidate split point: length lines starting at oldStart
// and newStart are equal on both sides, and the rarest line inside the
// run occurs support times on the old side.
type anchor struct {
	oldStart int
	newStart int
	length   int
	support  int
}

// HistogramDiff computes changes turning old into new.
func HistogramDiff[E comparable](old, new []E) []Change {
	changes := make([]Change, 0, 16)
	histogramRegion(old, 0, new, 0, &changes)
	return changes
}

func histogramRegion[E comparable](old []E, oldPos int, new []E, newPos int, out *[]Change) {
	prefix := commonPrefixLength(old, new)
	old, new = old[prefix:], new[prefix:]
	oldPos, newPos = oldPos+prefix, newPos+prefix
	suffix := commonSuffixLength(old, new)
	old, new = old[:len(old)-suffix], new[:len(new)-suffix]
	switch {
	case len(old) == 0 && len(new) == 0:
		return
	case len(old) == 0:
		*out = append(*out, Change{P1: oldPos, P2: newPos, Ins: len(new)})
		return
	case len(new) == 0:
		*out = append(*out, Change{P1: oldPos, P2: newPos, Del: len(old)})
		return
	}
	best, common := findAnchor(old, new)
	if best == nil {
		if common {
			// only over-popular lines in common, let the exact core decide
			*out = append(*out, onpDiff(old, oldPos, new, newPos)...)
			return
		}
		*out = append(*out, Change{P1: oldPos, P2: newPos, Del: len(old), Ins: len(new)})
		return
	}
	histogramRegion(old[:best.oldStart], oldPos, new[:best.newStart], newPos, out)
	oldTail := best.oldStart + best.length
	newTail := best.newStart + best.length
	histogramRegion(old[oldTail:], oldPos+oldTail, new[newTail:], newPos+newTail, out)
}

// findAnchor picks the split run for a region, or nil when none is
// usable. common reports whether the sides share any line at all, so the
// caller can tell "nothing in common" from "everything too popular".
func findAnchor[E comparable](old, new []E) (*anchor, bool) {
	index := make(map[E][]int, len(old))
	for i, line := range old {
		index[line] = append(index[line], i)
	}
	var best *anchor
	common := false
	pos := 0
	for pos < len(new) {
		occ := index[new[pos]]
		if len(occ) == 0 {
			pos++
			continue
		}
		common = true
		if len(occ) > maxChainLength {
			pos++
			continue
		}
		next := pos + 1
		for _, at := range occ {
			// widen the match around (at, pos) as far as it goes
			o1, n1 := at, pos
			support := len(occ)
			for o1 > 0 && n1 > 0 && old[o1-1] == new[n1-1] {
				o1--
				n1--
				support = min(support, len(index[old[o1]]))
			}
			o2, n2 := at+1, pos+1
			for o2 < len(old) && n2 < len(new) && old[o2] == new[n2] {
				support = min(support, len(index[old[o2]]))
				o2++
				n2++
			}
			// resume the scan past the longest run seen at this line
			next = max(next, n2)
			length := n2 - n1
			if best == nil || length > best.length || support < best.support {
				best = &anchor{oldStart: o1, newStart: n1, length: length, support: support}
			}
		}
		pos = next
	}
	return best, common
}
