// Copyright ©️ Lineage Project. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package commitgraph

import (
	"github.com/spaolacci/murmur3"
)

// Changed-path bloom filters, following git's commit-graph parameters:
// 10 bits per path, 7 probes, double hashing with two murmur3 seeds. A
// filter answers "may this commit have changed path P" with no false
// negatives.

const (
	bloomBitsPerEntry = 10
	bloomHashCount    = 7
	bloomSeed1        = 0x293ae76f
	bloomSeed2        = 0x7e646e2c
)

type BloomFilter struct {
	bits []byte
}

// NewBloomFilter sizes a filter for n paths, with a floor of 64 bits to
// keep the false-positive rate low for tiny commits.
func NewBloomFilter(n int) *BloomFilter {
	size := max((n*bloomBitsPerEntry+7)/8, 8)
	return &BloomFilter{bits: make([]byte, size)}
}

func (f *BloomFilter) probes(path string) (uint32, uint32) {
	data := []byte(path)
	return murmur3.Sum32WithSeed(data, bloomSeed1), murmur3.Sum32WithSeed(data, bloomSeed2)
}

func (f *BloomFilter) Add(path string) {
	h1, h2 := f.probes(path)
	n := uint32(len(f.bits) * 8)
	for i := uint32(0); i < bloomHashCount; i++ {
		bit := (h1 + i*h2) % n
		f.bits[bit/8] |= 1 << (bit % 8)
	}
}

// MayContain reports whether path may have been added; false means
// definitely not.
func (f *BloomFilter) MayContain(path string) bool {
	if f == nil || len(f.bits) == 0 {
		return true
	}
	h1, h2 := f.probes(path)
	n := uint32(len(f.bits) * 8)
	for i := uint32(0); i < bloomHashCount; i++ {
		bit := (h1 + i*h2) % n
		if f.bits[bit/8]&(1<<(bit%8)) == 0 {
			return false
		}
	}
	return true
}
