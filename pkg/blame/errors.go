// Copyright ©️ Lineage Project. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package blame

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyTraversal is returned when the starting commit has no
	// accessible tree.
	ErrEmptyTraversal = errors.New("starting commit has no accessible tree")
	// ErrCancelled reports cancellation observed before completion; the
	// engine itself returns a partial result instead, but callers that
	// treat partial results as failures can use the sentinel.
	ErrCancelled = errors.New("blame cancelled")
)

// ErrFileMissing is returned when the path is absent at the starting
// commit.
type ErrFileMissing struct {
	Path string
}

func (e *ErrFileMissing) Error() string {
	return fmt.Sprintf("file '%s' does not exist at the starting commit", e.Path)
}

func IsErrFileMissing(err error) bool {
	var e *ErrFileMissing
	return errors.As(err, &e)
}

// ErrInvalidRange is returned when a requested sub-range falls outside
// the target file, is empty, or overlaps another requested sub-range.
type ErrInvalidRange struct {
	Range Range
	Lines int
}

func (e *ErrInvalidRange) Error() string {
	return fmt.Sprintf("range %s is outside the file's %d lines", e.Range, e.Lines)
}

func IsErrInvalidRange(err error) bool {
	var e *ErrInvalidRange
	return errors.As(err, &e)
}
