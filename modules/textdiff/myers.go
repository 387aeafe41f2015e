/*---------------------------------------------------------------------------------------------
 *  Copyright (c) Microsoft Corporation. All rights reserved.
 *  Licensed under the MIT License. See License.txt in the project root for license information.
 *--------------------------------------------------------------------------------------------*/
// https://github.com/microsoft/vscode/blob/main/src/vs/editor/common/diff/defaultLinesDiffComputer/algorithms/myersDiffAlgorithm.ts

package textdiff

// Myers: An O(ND) Difference Algorithm and Its Variations (1986), greedy
// forward variant with recorded snake paths, ported from vscode's
// line-diff computer.

import "slices"

type snakePath struct {
	prev         *snakePath
	x, y, length int
}

// kIntArray stores ints addressed by diagonal k, which may be negative.
type kIntArray struct {
	pos []int
	neg []int
}

func newKIntArray() *kIntArray {
	return &kIntArray{
		pos: make([]int, 10),
		neg: make([]int, 10),
	}
}

func (t *kIntArray) get(i int) int {
	if i < 0 {
		return t.neg[-i-1]
	}
	return t.pos[i]
}

func (t *kIntArray) set(i, v int) {
	arr := &t.pos
	if i < 0 {
		i = -i - 1
		arr = &t.neg
	}
	if i >= len(*arr) {
		grown := make([]int, max(len(*arr)*2, i+1))
		copy(grown, *arr)
		*arr = grown
	}
	(*arr)[i] = v
}

// kPathArray stores snake paths addressed by diagonal k.
type kPathArray struct {
	pos map[int]*snakePath
	neg map[int]*snakePath
}

func (t *kPathArray) get(i int) *snakePath {
	if i < 0 {
		return t.neg[-i-1]
	}
	return t.pos[i]
}

func (t *kPathArray) set(i int, v *snakePath) {
	if i < 0 {
		t.neg[-i-1] = v
		return
	}
	t.pos[i] = v
}

// MyersDiff computes changes turning seq1 into seq2.
func MyersDiff[E comparable](seq1, seq2 []E) []Change {
	if len(seq1) == 0 && len(seq2) == 0 {
		return []Change{}
	}
	if len(seq1) == 0 {
		return []Change{{Ins: len(seq2)}}
	}
	if len(seq2) == 0 {
		return []Change{{Del: len(seq1)}}
	}
	seqX := seq1
	seqY := seq2
	xAfterSnake := func(x, y int) int {
		for x < len(seqX) && y < len(seqY) && seqX[x] == seqY[y] {
			y++
			x++
		}
		return x
	}
	d := 0
	// v[k] holds the x value of the longest d-line ending in diagonal k
	// (diagonal k: points with x-y == k).
	v := newKIntArray()
	v.set(0, xAfterSnake(0, 0))
	paths := &kPathArray{
		pos: make(map[int]*snakePath),
		neg: make(map[int]*snakePath),
	}
	if v.get(0) == 0 {
		paths.set(0, nil)
	} else {
		paths.set(0, &snakePath{prev: nil, x: 0, y: 0, length: v.get(0)})
	}
	k := 0
outer:
	for {
		d++
		// diagonals beyond the sequence bounds cannot influence the result
		lowerBound := -min(d, len(seqY)+(d%2))
		upperBound := min(d, len(seqX)+(d%2))
		for k = lowerBound; k <= upperBound; k += 2 {
			// extend from the longer of the (d-1)-lines above and left
			maxXTop, maxXLeft := -1, -1
			if k != upperBound {
				maxXTop = v.get(k + 1)
			}
			if k != lowerBound {
				maxXLeft = v.get(k-1) + 1
			}
			x := min(max(maxXTop, maxXLeft), len(seqX))
			y := x - k
			if x > len(seqX) || y > len(seqY) {
				continue
			}
			newMaxX := xAfterSnake(x, y)
			v.set(k, newMaxX)
			var lastPath *snakePath
			if x == maxXTop {
				lastPath = paths.get(k + 1)
			} else {
				lastPath = paths.get(k - 1)
			}
			if newMaxX != x {
				paths.set(k, &snakePath{prev: lastPath, x: x, y: y, length: newMaxX - x})
			} else {
				paths.set(k, lastPath)
			}
			if v.get(k) == len(seqX) && v.get(k)-k == len(seqY) {
				break outer
			}
		}
	}
	path := paths.get(k)
	lastAlignedX := len(seqX)
	lastAlignedY := len(seqY)
	changes := make([]Change, 0, 10)
	for {
		var endX, endY int
		if path != nil {
			endX = path.x + path.length
			endY = path.y + path.length
		}
		if endX != lastAlignedX || endY != lastAlignedY {
			changes = append(changes, Change{P1: endX, P2: endY, Del: lastAlignedX - endX, Ins: lastAlignedY - endY})
		}
		if path == nil {
			break
		}
		lastAlignedX = path.x
		lastAlignedY = path.y
		path = path.prev
	}
	slices.Reverse(changes)
	return changes
}
