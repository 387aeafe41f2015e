// Copyright ©️ Lineage Project. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package blame

import (
	"fmt"
	"sort"
)

// finalize orders resolved entries by target line and coalesces adjacent
// runs sharing a commit and contiguous source lines. The result is
// maximally coalesced: no adjacent pair remains mergeable.
func finalize(entries []Entry) []Entry {
	if len(entries) == 0 {
		return nil
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Range.Lo < entries[j].Range.Lo
	})
	out := make([]Entry, 0, len(entries))
	for _, entry := range entries {
		if entry.Range.Empty() {
			panic(fmt.Sprintf("blame: empty resolved entry %v", entry))
		}
		if n := len(out); n > 0 {
			prev := &out[n-1]
			if entry.Range.Lo < prev.Range.Hi {
				panic(fmt.Sprintf("blame: overlapping resolved entries %v and %v", *prev, entry))
			}
			if prev.mergeable(entry) {
				prev.Range.Hi = entry.Range.Hi
				continue
			}
		}
		out = append(out, entry)
	}
	return out
}
