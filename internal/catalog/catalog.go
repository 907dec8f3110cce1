// Package catalog describes the item and stain lookups the housing core
// consumes, and provides an in-memory implementation of them.
//
// The host application owns the real game data sheets; the core only
// needs to resolve a furniture key or an item id to its display name,
// model key and custom-talk category, and to enumerate stains in row
// order.
package catalog

import (
	"fmt"
	"strings"
)

// FurnitureKeyOffset separates category-qualified furniture keys from the
// wire-level net ids carried in housing buffers.
const FurnitureKeyOffset = 0x30000

// Furniture is one row of the housing furniture sheet, joined with the
// item it places.
type Furniture struct {
	Key        uint32 `yaml:"key" json:"key"`
	ModelKey   uint32 `yaml:"model" json:"model"`
	ItemID     uint32 `yaml:"item" json:"item"`
	Name       string `yaml:"name" json:"name"`
	CustomTalk string `yaml:"talk,omitempty" json:"talk,omitempty"`
}

// TalkTag returns the custom-talk category, the part of the talk name
// before the first underscore. Furniture without custom talk returns "".
func (f Furniture) TalkTag() string {
	tag, _, _ := strings.Cut(f.CustomTalk, "_")
	return tag
}

// Stain is one row of the stain sheet. Color is 0xRRGGBB in the low 24
// bits; the high byte is ignored.
type Stain struct {
	ID     uint32 `yaml:"id" json:"id"`
	Name   string `yaml:"name" json:"name"`
	Color  uint32 `yaml:"-" json:"color"`
	Usable bool   `yaml:"usable" json:"usable"`
}

// RGB splits the stain colour into its channels.
func (s Stain) RGB() (r, g, b uint8) {
	return uint8(s.Color >> 16), uint8(s.Color >> 8), uint8(s.Color)
}

// FurnitureLookup resolves a category-qualified furniture key.
type FurnitureLookup interface {
	Furniture(key uint32) (Furniture, bool)
}

// ItemLookup resolves the first furniture row placing an item.
type ItemLookup interface {
	FurnitureByItem(itemID uint32) (Furniture, bool)
}

// FurnitureCatalog is the full furniture collaborator.
type FurnitureCatalog interface {
	FurnitureLookup
	ItemLookup
}

// StainCatalog exposes stains by id and in stable row order.
type StainCatalog interface {
	Stain(id uint32) (Stain, bool)
	Stains() []Stain
}

// Memory is a map-backed catalog. Rows keep their insertion order, which
// is the order FurnitureByItem and Stains observe.
type Memory struct {
	furniture []Furniture
	byKey     map[uint32]int
	byItem    map[uint32]int
	stains    []Stain
	byStain   map[uint32]int
}

// NewMemory builds a catalog from rows. A later row with a duplicate key
// replaces the earlier one in place.
func NewMemory(furniture []Furniture, stains []Stain) *Memory {
	m := &Memory{
		byKey:   make(map[uint32]int, len(furniture)),
		byItem:  make(map[uint32]int, len(furniture)),
		byStain: make(map[uint32]int, len(stains)),
	}
	for _, f := range furniture {
		m.AddFurniture(f)
	}
	for _, s := range stains {
		m.AddStain(s)
	}
	return m
}

// AddFurniture appends or replaces a furniture row.
func (m *Memory) AddFurniture(f Furniture) {
	i, ok := m.byKey[f.Key]
	if !ok {
		m.byKey[f.Key] = len(m.furniture)
		m.furniture = append(m.furniture, f)
		if _, ok := m.byItem[f.ItemID]; !ok && f.ItemID != 0 {
			m.byItem[f.ItemID] = len(m.furniture) - 1
		}
		return
	}
	old := m.furniture[i].ItemID
	m.furniture[i] = f
	m.indexItem(old)
	m.indexItem(f.ItemID)
}

// indexItem points byItem at the first row placing itemID, or drops the
// entry when no row does.
func (m *Memory) indexItem(itemID uint32) {
	if itemID == 0 {
		return
	}
	for i, f := range m.furniture {
		if f.ItemID == itemID {
			m.byItem[itemID] = i
			return
		}
	}
	delete(m.byItem, itemID)
}

// AddStain appends or replaces a stain row.
func (m *Memory) AddStain(s Stain) {
	if i, ok := m.byStain[s.ID]; ok {
		m.stains[i] = s
		return
	}
	m.byStain[s.ID] = len(m.stains)
	m.stains = append(m.stains, s)
}

// Furniture returns the row for key. Rows that place no item count as
// missing.
func (m *Memory) Furniture(key uint32) (Furniture, bool) {
	i, ok := m.byKey[key]
	if !ok || m.furniture[i].ItemID == 0 {
		return Furniture{}, false
	}
	return m.furniture[i], true
}

// FurnitureByItem returns the first row placing itemID.
func (m *Memory) FurnitureByItem(itemID uint32) (Furniture, bool) {
	i, ok := m.byItem[itemID]
	if !ok {
		return Furniture{}, false
	}
	return m.furniture[i], true
}

// Stain returns the stain row with id.
func (m *Memory) Stain(id uint32) (Stain, bool) {
	i, ok := m.byStain[id]
	if !ok {
		return Stain{}, false
	}
	return m.stains[i], true
}

// Stains returns a copy of every stain in row order.
func (m *Memory) Stains() []Stain {
	out := make([]Stain, len(m.stains))
	copy(out, m.stains)
	return out
}

// FurnitureRows returns a copy of every furniture row in insertion order.
func (m *Memory) FurnitureRows() []Furniture {
	out := make([]Furniture, len(m.furniture))
	copy(out, m.furniture)
	return out
}

// String summarises the catalog size for log lines.
func (m *Memory) String() string {
	return fmt.Sprintf("catalog{furniture=%d stains=%d}", len(m.furniture), len(m.stains))
}
