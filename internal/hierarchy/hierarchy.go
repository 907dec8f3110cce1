// Package hierarchy groups placements under a base record so the group
// moves and turns as one rigid piece.
//
// Children keep the offset they had from the base at group time,
// expressed in the base's yaw frame. Recalc re-derives child positions
// from that offset whenever the base moves or turns. A child position
// edited directly while grouped is not folded back into its offset; the
// next Recalc overwrites it.
package hierarchy

import (
	"errors"
	"fmt"
	"slices"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/banshee-data/housing.layout/internal/placement"
	"github.com/banshee-data/housing.layout/internal/transform"
)

var (
	// ErrIndex is returned for an index outside the top-level list.
	ErrIndex = errors.New("placement index out of range")
	// ErrNested is returned when grouping would nest deeper than one level.
	ErrNested = errors.New("grouped record cannot be nested")
	// ErrDuplicate is returned when a member index appears twice.
	ErrDuplicate = errors.New("duplicate group member")
	// ErrNotBase is returned when ungrouping a record without children.
	ErrNotBase = errors.New("record has no grouped children")
)

// Group moves the records at members under the record at baseIndex. The
// base index is ignored if it appears among the members. Nothing is
// mutated when validation fails.
func Group(l *placement.List, baseIndex int, members []int) error {
	base, err := l.At(baseIndex)
	if err != nil {
		return fmt.Errorf("%w: base %d", ErrIndex, baseIndex)
	}

	order := make([]int, 0, len(members))
	seen := make(map[int]bool, len(members))
	for _, i := range members {
		if i == baseIndex {
			continue
		}
		if seen[i] {
			return fmt.Errorf("%w: %d", ErrDuplicate, i)
		}
		seen[i] = true
		m, err := l.At(i)
		if err != nil {
			return fmt.Errorf("%w: member %d", ErrIndex, i)
		}
		if m.IsBase() {
			return fmt.Errorf("%w: member %d has %d children", ErrNested, i, len(m.Children))
		}
		order = append(order, i)
	}
	if len(order) == 0 {
		return nil
	}
	slices.Sort(order)

	adopted := make([]*placement.Record, len(order))
	for k, i := range order {
		m := l.Items[i]
		m.RelativeOffset = RelativeOffset(base, m.Position)
		adopted[k] = m
	}

	// Highest index first so the remaining indices stay valid.
	for k := len(order) - 1; k >= 0; k-- {
		i := order[k]
		l.Items = slices.Delete(l.Items, i, i+1)
	}
	base.Children = append(base.Children, adopted...)
	return nil
}

// RelativeOffset expresses a world position as an offset in base's yaw
// frame.
func RelativeOffset(base *placement.Record, world placement.Vec3) placement.Vec3 {
	delta := r3.Sub(world.R3(), base.Position.R3())
	return placement.FromR3(transform.RotateByYaw(-base.Rotate, delta))
}

// Ungroup returns the base's children to the end of the top-level list in
// their current order. Positions are left as last computed.
func Ungroup(l *placement.List, baseIndex int) error {
	base, err := l.At(baseIndex)
	if err != nil {
		return fmt.Errorf("%w: base %d", ErrIndex, baseIndex)
	}
	if !base.IsBase() {
		return fmt.Errorf("%w: %d", ErrNotBase, baseIndex)
	}
	for _, c := range base.Children {
		c.RelativeOffset = placement.Vec3{}
		l.Items = append(l.Items, c)
	}
	base.Children = nil
	return nil
}

// Recalc places every child at base.Position plus its relative offset
// turned by the base's yaw. Child yaw is never changed.
func Recalc(base *placement.Record) {
	origin := base.Position.R3()
	for _, c := range base.Children {
		offset := transform.RotateByYaw(base.Rotate, c.RelativeOffset.R3())
		c.Position = placement.FromR3(r3.Add(origin, offset))
	}
}

// Move sets the base position and drags its children along.
func Move(base *placement.Record, pos placement.Vec3) {
	base.Position = pos
	if base.IsBase() {
		Recalc(base)
	}
}

// Turn sets the base yaw and swings its children around it.
func Turn(base *placement.Record, rotate float32) {
	base.Rotate = rotate
	if base.IsBase() {
		Recalc(base)
	}
}
