// Copyright ©️ Lineage Project. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package textdiff

import (
	"strings"
)

const (
	// NEWLINE_RAW keeps line bytes intact, terminator included.
	NEWLINE_RAW = iota
	// NEWLINE_LF strips the trailing LF (and a CR before it).
	NEWLINE_LF
)

// Sink interns line content to small integer tokens so the diff
// algorithms compare ints instead of strings. One sink must be shared by
// both sides of a diff.
type Sink struct {
	Lines   []string
	Index   map[string]int
	NewLine int
}

func NewSink(newLineMode int) *Sink {
	return &Sink{
		Lines:   make([]string, 0, 200),
		Index:   make(map[string]int),
		NewLine: newLineMode,
	}
}

func (s *Sink) addLine(line string) int {
	if lineIndex, ok := s.Index[line]; ok {
		return lineIndex
	}
	index := len(s.Lines)
	s.Index[line] = index
	s.Lines = append(s.Lines, line)
	return index
}

// SplitRawLines splits text after every LF; the final line does not
// require a terminator. An empty text has no lines.
func (s *Sink) SplitRawLines(text string) []int {
	lines := make([]int, 0, 200)
	for pos := 0; pos < len(text); {
		part := text[pos:]
		newPos := strings.IndexByte(part, '\n')
		if newPos == -1 {
			lines = append(lines, s.addLine(part))
			break
		}
		lines = append(lines, s.addLine(part[:newPos+1]))
		pos += newPos + 1
	}
	return lines
}

// SplitLines splits text into tokens honoring the sink's newline mode.
func (s *Sink) SplitLines(text string) []int {
	if s.NewLine == NEWLINE_RAW {
		return s.SplitRawLines(text)
	}
	lines := make([]int, 0, 200)
	for pos := 0; pos < len(text); {
		part := text[pos:]
		newPos := strings.IndexByte(part, '\n')
		if newPos == -1 {
			lines = append(lines, s.addLine(strings.TrimSuffix(part, "\r")))
			break
		}
		lines = append(lines, s.addLine(strings.TrimSuffix(part[:newPos], "\r")))
		pos += newPos + 1
	}
	return lines
}

// SplitLines decomposes text into raw line slices, terminators kept.
// It is the line definition every interval in the engine is measured in.
func SplitLines(text string) []string {
	lines := make([]string, 0, 200)
	for pos := 0; pos < len(text); {
		part := text[pos:]
		newPos := strings.IndexByte(part, '\n')
		if newPos == -1 {
			lines = append(lines, part)
			break
		}
		lines = append(lines, part[:newPos+1])
		pos += newPos + 1
	}
	return lines
}

// LineCount reports how many lines SplitLines would produce without
// materializing them.
func LineCount(text string) int {
	n := 0
	for pos := 0; pos < len(text); {
		part := text[pos:]
		newPos := strings.IndexByte(part, '\n')
		if newPos == -1 {
			return n + 1
		}
		n++
		pos += newPos + 1
	}
	return n
}
