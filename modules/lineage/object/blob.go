// Copyright ©️ Lineage Project. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package object

import (
	"github.com/bmeddeb/lineage/modules/plumbing"
)

// Blob is the byte content of one file version. Contents are fully
// materialized: the engine slices them into lines repeatedly and the odb
// keeps decoded blobs behind its LRU.
type Blob struct {
	Hash     plumbing.Hash
	Contents []byte
}

func (b *Blob) Size() int64 {
	return int64(len(b.Contents))
}

// Text returns the blob content as a string; blobs are immutable once
// decoded.
func (b *Blob) Text() string {
	return string(b.Contents)
}
