// Copyright ©️ Lineage Project. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package textdiff

import "slices"

// Patience diff: anchor on the longest common subsequence of lines that
// are unique on both sides, then diff the gaps between anchors.

// uniqueElements returns the elements occurring exactly once in a, with
// their original indices.
func uniqueElements[E comparable](a []E) ([]E, []int) {
	m := make(map[E]int)
	for _, e := range a {
		m[e]++
	}
	elements := make([]E, 0, len(a))
	indices := make([]int, 0, len(a))
	for i, e := range a {
		if m[e] == 1 {
			elements = append(elements, e)
			indices = append(indices, i)
		}
	}
	return elements, indices
}

// uniqueLCS computes the longest common subsequence of two slices of
// unique elements and returns its index pairs.
func uniqueLCS[E comparable](a, b []E) [][2]int {
	lcs := make([][]int, len(a)+1)
	for i := 0; i <= len(a); i++ {
		lcs[i] = make([]int, len(b)+1)
	}
	for i := 1; i < len(lcs); i++ {
		for j := 1; j < len(lcs[i]); j++ {
			if a[i-1] == b[j-1] {
				lcs[i][j] = lcs[i-1][j-1] + 1
			} else {
				lcs[i][j] = max(lcs[i-1][j], lcs[i][j-1])
			}
		}
	}
	// backtrack
	i, j := len(a), len(b)
	s := make([][2]int, 0, lcs[i][j])
	for i > 0 && j > 0 {
		switch {
		case a[i-1] == b[j-1]:
			s = append(s, [2]int{i - 1, j - 1})
			i--
			j--
		case lcs[i-1][j] > lcs[i][j-1]:
			i--
		default:
			j--
		}
	}
	slices.Reverse(s)
	return s
}

func patience[E comparable](a []E, p1 int, b []E, p2 int, out *[]Change) {
	prefix := commonPrefixLength(a, b)
	a, b = a[prefix:], b[prefix:]
	p1, p2 = p1+prefix, p2+prefix
	suffix := commonSuffixLength(a, b)
	a, b = a[:len(a)-suffix], b[:len(b)-suffix]
	if len(a) == 0 && len(b) == 0 {
		return
	}
	if len(a) == 0 {
		*out = append(*out, Change{P1: p1, P2: p2, Ins: len(b)})
		return
	}
	if len(b) == 0 {
		*out = append(*out, Change{P1: p1, P2: p2, Del: len(a)})
		return
	}
	ua, idxa := uniqueElements(a)
	ub, idxb := uniqueElements(b)
	anchors := uniqueLCS(ua, ub)
	if len(anchors) == 0 {
		*out = append(*out, Change{P1: p1, P2: p2, Del: len(a), Ins: len(b)})
		return
	}
	// map back to original indices
	for i, x := range anchors {
		anchors[i][0] = idxa[x[0]]
		anchors[i][1] = idxb[x[1]]
	}
	ga, gb := 0, 0
	for _, ip := range anchors {
		patience(a[ga:ip[0]], p1+ga, b[gb:ip[1]], p2+gb, out)
		ga = ip[0] + 1
		gb = ip[1] + 1
	}
	patience(a[ga:], p1+ga, b[gb:], p2+gb, out)
}

// PatienceDiff computes changes turning a into b.
func PatienceDiff[E comparable](a, b []E) []Change {
	changes := make([]Change, 0, 16)
	patience(a, 0, b, 0, &changes)
	return changes
}
