package session

import (
	"fmt"
	"slices"

	"github.com/banshee-data/housing.layout/internal/hierarchy"
	"github.com/banshee-data/housing.layout/internal/placement"
)

// BeginGrouping starts collecting records for a group.
func (s *Session) BeginGrouping() {
	s.selection.Clear()
	s.grouping = true
}

// Grouping reports whether a group is being collected.
func (s *Session) Grouping() bool {
	return s.grouping
}

// ToggleGroupMember adds or removes top-level record i from the pending
// group. The first record added is the base.
func (s *Session) ToggleGroupMember(i int) (bool, error) {
	if !s.grouping {
		return false, ErrNotGrouping
	}
	if _, err := s.stored.At(i); err != nil {
		return false, err
	}
	return s.selection.Toggle(i), nil
}

// EndGrouping groups the pending selection and leaves grouping mode.
func (s *Session) EndGrouping() error {
	if !s.grouping {
		return ErrNotGrouping
	}
	s.grouping = false
	s.selected = -1
	grouped := s.selection.Len() > 1
	if err := s.selection.Commit(&s.stored); err != nil {
		return err
	}
	if grouped {
		s.indicesMoved()
	}
	return nil
}

// Disband ungroups the base at top-level index i.
func (s *Session) Disband(i int) error {
	if err := hierarchy.Ungroup(&s.stored, i); err != nil {
		return err
	}
	s.indicesMoved()
	return nil
}

// Select makes top-level record i the target of SetPosition and
// SetRotate.
func (s *Session) Select(i int) error {
	if _, err := s.stored.At(i); err != nil {
		return fmt.Errorf("select: %w", err)
	}
	s.selected = i
	return nil
}

// Selected returns the selected record, or ErrNoSelection.
func (s *Session) Selected() (*placement.Record, error) {
	if s.selected < 0 {
		return nil, ErrNoSelection
	}
	r, err := s.stored.At(s.selected)
	if err != nil {
		s.selected = -1
		return nil, ErrNoSelection
	}
	return r, nil
}

// SetPosition moves the selected record. Grouped children follow.
func (s *Session) SetPosition(pos placement.Vec3) error {
	r, err := s.Selected()
	if err != nil {
		return err
	}
	hierarchy.Move(r, pos)
	return nil
}

// SetRotate turns the selected record. Grouped children swing with it.
func (s *Session) SetRotate(rotate float32) error {
	r, err := s.Selected()
	if err != nil {
		return err
	}
	hierarchy.Turn(r, rotate)
	return nil
}

// indicesMoved drops selection and hide state after the top-level order
// changed; the stored indices no longer name the same records.
func (s *Session) indicesMoved() {
	s.selected = -1
	s.hidden = nil
}

// Hide removes top-level record i from on-screen drawing. The hide
// history is cleared whenever grouping, ungrouping or sorting reorders
// the list.
func (s *Session) Hide(i int) {
	if !slices.Contains(s.hidden, i) {
		s.hidden = append(s.hidden, i)
	}
}

// UndoHide restores the most recently hidden record and returns its
// index.
func (s *Session) UndoHide() (int, bool) {
	if len(s.hidden) == 0 {
		return -1, false
	}
	last := s.hidden[len(s.hidden)-1]
	s.hidden = s.hidden[:len(s.hidden)-1]
	return last, true
}

// Hidden reports whether top-level record i is hidden.
func (s *Session) Hidden(i int) bool {
	return slices.Contains(s.hidden, i)
}
