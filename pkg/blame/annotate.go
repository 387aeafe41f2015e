// Copyright ©️ Lineage Project. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package blame

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/bmeddeb/lineage/modules/lineage/object"
	"github.com/bmeddeb/lineage/modules/plumbing"
	"github.com/bmeddeb/lineage/modules/textdiff"
)

// Line pairs one line of the blamed file with the commit that
// introduced it.
type Line struct {
	// Author is the introducing commit's author email.
	Author string
	// AuthorName is the author's display name.
	AuthorName string
	// Text is the line content, terminator stripped.
	Text string
	// Date is the author timestamp of the introducing commit.
	Date time.Time
	// Hash identifies the introducing commit.
	Hash plumbing.Hash
}

// Annotation pairs the blamed lines with their authorship.
type Annotation struct {
	Path  string
	Rev   plumbing.Hash
	Lines []*Line
}

// Annotate enriches the result's entries with commit authorship. Only
// lines covered by the entries are annotated, so a range-restricted
// result yields exactly the requested lines.
func (r *Result) Annotate(ctx context.Context, backend object.Backend) (*Annotation, error) {
	texts := textdiff.SplitLines(string(r.BlobBytes))
	lines := make([]*Line, 0, len(texts))
	commits := make(map[plumbing.Hash]*object.Commit)
	for _, entry := range r.Entries {
		cc, ok := commits[entry.Commit]
		if !ok {
			var err error
			if cc, err = backend.Commit(ctx, entry.Commit); err != nil {
				return nil, err
			}
			commits[entry.Commit] = cc
		}
		for i := entry.Range.Lo; i < entry.Range.Hi; i++ {
			lines = append(lines, &Line{
				Author:     cc.Author.Email,
				AuthorName: cc.Author.Name,
				Text:       strings.TrimRight(texts[i], "\r\n"),
				Date:       cc.Author.When,
				Hash:       cc.Hash,
			})
		}
	}
	return &Annotation{Path: r.Path, Rev: r.Rev, Lines: lines}, nil
}

// String renders the annotation in a git-blame-like layout: abbreviated
// commit id, author, date, line number, line text. Columns are padded to
// the widest author name and line number.
func (a *Annotation) String() string {
	authorWidth := 0
	for _, l := range a.Lines {
		authorWidth = max(authorWidth, utf8.RuneCountInString(l.AuthorName))
	}
	numWidth := len(strconv.Itoa(len(a.Lines)))
	var b strings.Builder
	for i, l := range a.Lines {
		fmt.Fprintf(&b, "%s (%-*s %s %*d) %s\n",
			l.Hash.Prefix(), authorWidth, l.AuthorName,
			l.Date.Format("2006-01-02 15:04:05 -0700"), numWidth, i+1, l.Text)
	}
	return b.String()
}

// String lists the result's entries, one coalesced run per line.
func (r *Result) String() string {
	var b strings.Builder
	for _, entry := range r.Entries {
		fmt.Fprintf(&b, "%s %s @%d\n", entry.Range, entry.Commit.Prefix(), entry.SourceLo)
	}
	return b.String()
}
