package placement

import (
	"fmt"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/banshee-data/housing.layout/internal/catalog"
)

// Vec3 is a single-precision position. Y is vertical.
type Vec3 struct {
	X, Y, Z float32
}

// R3 widens v for geometry.
func (v Vec3) R3() r3.Vec {
	return r3.Vec{X: float64(v.X), Y: float64(v.Y), Z: float64(v.Z)}
}

// FromR3 narrows a geometry vector back to a position.
func FromR3(v r3.Vec) Vec3 {
	return Vec3{X: float32(v.X), Y: float32(v.Y), Z: float32(v.Z)}
}

// Record is one placed furnishing.
type Record struct {
	FurnitureKey uint32
	ModelKey     uint32
	ItemID       uint32
	Stain        uint8
	Position     Vec3
	Rotate       float32
	Name         string

	// Children are grouped under this record and move with it.
	Children []*Record
	// RelativeOffset is the child's offset in its base's yaw frame. It is
	// only meaningful while the record is someone's child.
	RelativeOffset Vec3
}

// NetID is the wire-level id: the furniture key without its category
// offset.
func (r *Record) NetID() uint16 {
	return uint16(r.FurnitureKey - catalog.FurnitureKeyOffset)
}

// IsBase reports whether the record has grouped children.
func (r *Record) IsBase() bool {
	return len(r.Children) > 0
}

// Clone deep-copies the record and its children.
func (r *Record) Clone() *Record {
	c := *r
	if r.Children != nil {
		c.Children = make([]*Record, len(r.Children))
		for i, child := range r.Children {
			c.Children[i] = child.Clone()
		}
	}
	return &c
}

func (r *Record) String() string {
	return fmt.Sprintf("%s#%d (%.3f, %.3f, %.3f) rot=%.3f stain=%d",
		r.Name, r.ItemID, r.Position.X, r.Position.Y, r.Position.Z, r.Rotate, r.Stain)
}

// List is the ordered top-level placement list.
type List struct {
	Items []*Record
}

// Len returns the number of top-level records.
func (l *List) Len() int {
	return len(l.Items)
}

// At returns the record at index i, or an error when i is out of range.
func (l *List) At(i int) (*Record, error) {
	if i < 0 || i >= len(l.Items) {
		return nil, fmt.Errorf("index %d out of range [0, %d)", i, len(l.Items))
	}
	return l.Items[i], nil
}

// Clear drops every record.
func (l *List) Clear() {
	l.Items = nil
}

// Replace swaps in a new set of top-level records.
func (l *List) Replace(items []*Record) {
	l.Items = items
}

// Flatten returns every record, each base followed by its children.
func (l *List) Flatten() []*Record {
	out := make([]*Record, 0, len(l.Items))
	for _, r := range l.Items {
		out = append(out, r)
		out = append(out, r.Children...)
	}
	return out
}

// Clone deep-copies the list.
func (l *List) Clone() *List {
	out := &List{Items: make([]*Record, len(l.Items))}
	for i, r := range l.Items {
		out.Items[i] = r.Clone()
	}
	return out
}
