package dynamicimport

import (
	"fmt"
	"nextdynamic/internal/domain/errors/domain"
	"sort"
)

// edit replaces source[start:end] with text. An insertion has start == end.
type edit struct {
	start uint32
	end   uint32
	text  string
	seq   int
}

func (e edit) isInsertion() bool {
	return e.start == e.end
}

// conflicts reports whether two edits touch the same bytes. Insertions at the
// same offset never conflict; they are applied in the order they were added.
func (e edit) conflicts(other edit) bool {
	switch {
	case e.isInsertion() && other.isInsertion():
		return false
	case e.isInsertion():
		return other.start < e.start && e.start < other.end
	case other.isInsertion():
		return e.start < other.start && other.start < e.end
	default:
		return e.start < other.end && other.start < e.end
	}
}

// editSet collects accepted edits for one file.
type editSet struct {
	edits []edit
	next  int
}

func insertAt(offset uint32, text string) edit {
	return edit{start: offset, end: offset, text: text}
}

func replaceRange(start, end uint32, text string) edit {
	return edit{start: start, end: end, text: text}
}

// accepts reports whether none of group conflicts with an accepted edit or
// with another member of group.
func (s *editSet) accepts(group []edit) bool {
	for i, candidate := range group {
		for _, accepted := range s.edits {
			if candidate.conflicts(accepted) {
				return false
			}
		}
		for _, sibling := range group[i+1:] {
			if candidate.conflicts(sibling) {
				return false
			}
		}
	}
	return true
}

// add commits group. Callers check accepts first.
func (s *editSet) add(group []edit) {
	for _, e := range group {
		e.seq = s.next
		s.next++
		s.edits = append(s.edits, e)
	}
}

func (s *editSet) len() int {
	return len(s.edits)
}

// apply produces the rewritten source. Bytes outside every edit range are
// copied verbatim.
func (s *editSet) apply(source []byte) ([]byte, error) {
	if len(s.edits) == 0 {
		out := make([]byte, len(source))
		copy(out, source)
		return out, nil
	}

	ordered := make([]edit, len(s.edits))
	copy(ordered, s.edits)
	sort.SliceStable(ordered, func(i, j int) bool {
		a, b := ordered[i], ordered[j]
		if a.start != b.start {
			return a.start < b.start
		}
		if a.isInsertion() != b.isInsertion() {
			return a.isInsertion()
		}
		return a.seq < b.seq
	})

	grow := 0
	for _, e := range ordered {
		grow += len(e.text)
	}
	out := make([]byte, 0, len(source)+grow)

	var cursor uint32
	for _, e := range ordered {
		if e.start < cursor || int(e.end) > len(source) {
			return nil, fmt.Errorf("%w: edit [%d,%d) after offset %d", domain.ErrOverlappingEdits, e.start, e.end, cursor)
		}
		out = append(out, source[cursor:e.start]...)
		out = append(out, e.text...)
		cursor = e.end
	}
	out = append(out, source[cursor:]...)
	return out, nil
}
