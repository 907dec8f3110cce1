package hierarchy

import (
	"slices"

	"github.com/banshee-data/housing.layout/internal/placement"
)

// Selection collects indices for a pending group. The first index picked
// becomes the base.
type Selection struct {
	indices []int
}

// Toggle adds i to the selection, or removes it if already present, and
// reports whether i is now selected.
func (s *Selection) Toggle(i int) bool {
	if k := slices.Index(s.indices, i); k >= 0 {
		s.indices = slices.Delete(s.indices, k, k+1)
		return false
	}
	s.indices = append(s.indices, i)
	return true
}

// Contains reports whether i is selected.
func (s *Selection) Contains(i int) bool {
	return slices.Contains(s.indices, i)
}

// Base returns the base index, or -1 when nothing is selected.
func (s *Selection) Base() int {
	if len(s.indices) == 0 {
		return -1
	}
	return s.indices[0]
}

// Len returns the number of selected indices.
func (s *Selection) Len() int {
	return len(s.indices)
}

// Clear drops the selection.
func (s *Selection) Clear() {
	s.indices = nil
}

// Commit groups the selection in l and clears it. Fewer than two picks
// is a no-op.
func (s *Selection) Commit(l *placement.List) error {
	defer s.Clear()
	if len(s.indices) < 2 {
		return nil
	}
	return Group(l, s.indices[0], s.indices[1:])
}
