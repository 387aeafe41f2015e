// Copyright ©️ Lineage Project. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package object

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/bmeddeb/lineage/modules/plumbing"
)

const (
	maxTreeDepth = 1024
)

var (
	ErrMaxTreeDepth = errors.New("maximum tree depth exceeded")
)

type ErrDirectoryNotFound struct {
	dir string
}

func (e *ErrDirectoryNotFound) Error() string {
	return fmt.Sprintf("dir '%s' not found", e.dir)
}

func IsErrDirectoryNotFound(err error) bool {
	if err == nil {
		return false
	}
	var e *ErrDirectoryNotFound
	return errors.As(err, &e)
}

type ErrEntryNotFound struct {
	entry string
}

func (e *ErrEntryNotFound) Error() string {
	return fmt.Sprintf("entry '%s' not found", e.entry)
}

func IsErrEntryNotFound(err error) bool {
	if err == nil {
		return false
	}
	var e *ErrEntryNotFound
	return errors.As(err, &e)
}

// TreeEntry represents one name in a tree: a blob, a sub-tree, or a link.
type TreeEntry struct {
	Name string            `json:"name"`
	Mode plumbing.FileMode `json:"mode"`
	Hash plumbing.Hash     `json:"hash"`
}

// Equal returns whether the receiving and given TreeEntry instances are
// identical in name, filemode, and OID.
func (e *TreeEntry) Equal(other *TreeEntry) bool {
	if (e == nil) != (other == nil) {
		return false
	}
	if e != nil {
		return e.Name == other.Name &&
			e.Hash == other.Hash &&
			e.Mode == other.Mode
	}
	return true
}

func (e *TreeEntry) IsDir() bool {
	return e.Mode == plumbing.Dir
}

func (e *TreeEntry) Type() ObjectType {
	if e.IsDir() {
		return TreeObject
	}
	return BlobObject
}

// Tree is a directory object: an ordered list of entries.
type Tree struct {
	Hash    plumbing.Hash `json:"hash"`
	Entries []*TreeEntry  `json:"entries"`
	b       Backend
}

func (t *Tree) Bind(b Backend) {
	t.b = b
}

// Encode writes entries as "<mode> <name>\x00<oid>" records, sorted the
// way Git sorts tree entries (directories compare with a trailing slash).
func (t *Tree) Encode(w io.Writer) error {
	entries := make([]*TreeEntry, len(t.Entries))
	copy(entries, t.Entries)
	sort.Slice(entries, func(i, j int) bool {
		return entrySortKey(entries[i]) < entrySortKey(entries[j])
	})
	for _, e := range entries {
		if _, err := fmt.Fprintf(w, "%o %s", uint32(e.Mode), e.Name); err != nil {
			return err
		}
		if _, err := w.Write([]byte{0}); err != nil {
			return err
		}
		if _, err := w.Write(e.Hash[:]); err != nil {
			return err
		}
	}
	return nil
}

func entrySortKey(e *TreeEntry) string {
	if e.IsDir() {
		return e.Name + "/"
	}
	return e.Name
}

func (t *Tree) Decode(oid plumbing.Hash, reader io.Reader) error {
	t.Hash = oid
	r := bufio.NewReader(reader)
	for {
		mode, err := r.ReadString(' ')
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		fileMode, err := plumbing.NewFileMode(strings.TrimSuffix(mode, " "))
		if err != nil {
			return err
		}
		name, err := r.ReadString(0)
		if err != nil {
			return err
		}
		var oid plumbing.Hash
		if _, err := io.ReadFull(r, oid[:]); err != nil {
			return err
		}
		t.Entries = append(t.Entries, &TreeEntry{
			Name: strings.TrimSuffix(name, "\x00"),
			Mode: fileMode,
			Hash: oid,
		})
	}
}

// entry looks up a single name in this tree.
func (t *Tree) entry(name string) (*TreeEntry, error) {
	for _, e := range t.Entries {
		if e.Name == name {
			return e, nil
		}
	}
	return nil, &ErrEntryNotFound{entry: name}
}

// FindEntry descends the slash-separated path and returns its entry.
func (t *Tree) FindEntry(ctx context.Context, path string) (*TreeEntry, error) {
	if strings.Count(path, "/") > maxTreeDepth {
		return nil, ErrMaxTreeDepth
	}
	pathParts := strings.Split(path, "/")
	current := t
	for _, part := range pathParts[:len(pathParts)-1] {
		e, err := current.entry(part)
		if err != nil {
			return nil, &ErrDirectoryNotFound{dir: part}
		}
		if !e.IsDir() {
			return nil, &ErrDirectoryNotFound{dir: part}
		}
		sub, err := resolveTree(ctx, t.b, e.Hash)
		if err != nil {
			return nil, err
		}
		current = sub
	}
	return current.entry(pathParts[len(pathParts)-1])
}

func resolveTree(ctx context.Context, b Backend, oid plumbing.Hash) (*Tree, error) {
	if b == nil {
		return nil, plumbing.NoSuchObject(oid)
	}
	return b.Tree(ctx, oid)
}

// Equal reports whether two trees have the same id.
func (t *Tree) Equal(other *Tree) bool {
	if (t == nil) != (other == nil) {
		return false
	}
	return t == nil || t.Hash == other.Hash
}
