// Copyright ©️ Lineage Project. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package plumbing

import (
	"fmt"
	"strconv"
)

// FileMode is the mode of a tree entry, encoded the way Git encodes it
// (an octal uint32 with the object kind in the high bits).
type FileMode uint32

const (
	Empty      FileMode = 0
	Dir        FileMode = 0040000
	Regular    FileMode = 0100644
	Executable FileMode = 0100755
	Symlink    FileMode = 0120000
	Submodule  FileMode = 0160000
)

func NewFileMode(s string) (FileMode, error) {
	n, err := strconv.ParseUint(s, 8, 32)
	if err != nil {
		return Empty, fmt.Errorf("malformed mode %q: %w", s, err)
	}
	m := FileMode(n)
	switch m {
	case Empty, Dir, Regular, Executable, Symlink, Submodule:
		return m, nil
	}
	return Empty, fmt.Errorf("malformed mode %q", s)
}

func (m FileMode) IsFile() bool {
	return m == Regular || m == Executable || m == Symlink
}

func (m FileMode) IsRegular() bool {
	return m == Regular || m == Executable
}

func (m FileMode) String() string {
	return fmt.Sprintf("%07o", uint32(m))
}
