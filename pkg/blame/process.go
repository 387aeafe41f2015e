// Copyright ©️ Lineage Project. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package blame

import (
	"fmt"

	"github.com/bmeddeb/lineage/modules/textdiff"
)

// splitHunk routes one unresolved hunk through the suspect→parent diff.
//
// Diff hunks replace parent lines [O1,O2) with suspect lines [N1,N2), in
// ascending N order. Lines of u that fall inside some hunk's N range
// exist only in the suspect: they are kept (still mapped into the
// suspect, to be resolved there unless another parent claims them).
// Lines outside every hunk exist identically in the parent and are
// passed down, with the suspect line number shifted by the cumulative
// size delta of all hunks to their left.
func splitHunk(u hunk, diffHunks []textdiff.Hunk) (passed, kept []hunk) {
	uLo, uHi := u.suspectLo, u.suspectHi()
	tLo := u.targetLo
	delta := 0
	for _, h := range diffHunks {
		if h.N2 <= uLo {
			// entirely left of u: only shifts the mapping
			delta += h.OldLines() - h.NewLines()
			continue
		}
		if h.N1 >= uHi {
			break
		}
		oLo := max(uLo, h.N1)
		oHi := min(uHi, h.N2)
		if oLo > uLo {
			// unchanged prefix, present in the parent
			passed = append(passed, rebase(newHunk(tLo, tLo+(oLo-uLo), uLo), delta))
		}
		if oHi > oLo {
			// the overlap exists only in the suspect
			kept = append(kept, newHunk(tLo+(oLo-uLo), tLo+(oHi-uLo), oLo))
		}
		tLo += oHi - uLo
		uLo = oHi
		delta += h.OldLines() - h.NewLines()
		if uLo >= uHi {
			return passed, kept
		}
	}
	// unchanged tail
	passed = append(passed, rebase(newHunk(tLo, u.targetHi, uLo), delta))
	return passed, kept
}

// rebase shifts a hunk's suspect mapping into the parent's line space.
func rebase(h hunk, delta int) hunk {
	shifted := h.suspectLo + delta
	if shifted < 0 {
		panic(fmt.Sprintf("blame: hunk %v rebased to negative line %d", h, shifted))
	}
	return newHunk(h.targetLo, h.targetHi, shifted)
}

// splitHunks routes every unresolved hunk through one suspect→parent
// diff. passed hunks are mapped into the parent; kept hunks remain
// mapped into the suspect.
func splitHunks(unresolved []hunk, diffHunks []textdiff.Hunk) (passed, kept []hunk) {
	for _, u := range unresolved {
		p, k := splitHunk(u, diffHunks)
		passed = append(passed, p...)
		kept = append(kept, k...)
	}
	return passed, kept
}
