package placement

import (
	"cmp"
	"slices"
)

// Sort orders top-level records by item id, then X, Y, Z and yaw. The
// sort is stable so equal records keep their relative order.
func Sort(l *List) {
	slices.SortStableFunc(l.Items, func(a, b *Record) int {
		if c := cmp.Compare(a.ItemID, b.ItemID); c != 0 {
			return c
		}
		if c := cmp.Compare(a.Position.X, b.Position.X); c != 0 {
			return c
		}
		if c := cmp.Compare(a.Position.Y, b.Position.Y); c != 0 {
			return c
		}
		if c := cmp.Compare(a.Position.Z, b.Position.Z); c != 0 {
			return c
		}
		return cmp.Compare(a.Rotate, b.Rotate)
	})
}
