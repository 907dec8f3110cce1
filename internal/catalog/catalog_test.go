package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fixture = `
furniture:
  - key: 196609
    model: 1
    item: 6541
    name: Wooden Chair
  - key: 196772
    model: 164
    item: 7001
    name: Potted Maple
    talk: HouFurPlantPot_00001
  - key: 196610
    model: 2
    item: 6541
    name: Wooden Chair (alt row)
  - key: 196999
    model: 391
    item: 0
    name: ""
stains:
  - id: 0
    name: none
    color: "000000"
    usable: false
  - id: 1
    name: Red
    color: "#FF0000"
    usable: true
  - id: 2
    name: Green
    color: "#00ff00"
    usable: true
`

func TestParseYAML(t *testing.T) {
	m, err := ParseYAML([]byte(fixture))
	require.NoError(t, err)

	f, ok := m.Furniture(196609)
	require.True(t, ok)
	assert.Equal(t, "Wooden Chair", f.Name)
	assert.Equal(t, uint32(6541), f.ItemID)
	assert.Equal(t, "", f.TalkTag())

	pot, ok := m.Furniture(196772)
	require.True(t, ok)
	assert.Equal(t, "HouFurPlantPot", pot.TalkTag())

	stains := m.Stains()
	require.Len(t, stains, 3)
	assert.Equal(t, uint32(0xFF0000), stains[1].Color)
	assert.Equal(t, uint32(0x00FF00), stains[2].Color)
	assert.True(t, stains[2].Usable)
}

func TestMemory_RowWithoutItemIsMissing(t *testing.T) {
	m, err := ParseYAML([]byte(fixture))
	require.NoError(t, err)

	_, ok := m.Furniture(196999)
	assert.False(t, ok)
	_, ok = m.Furniture(1)
	assert.False(t, ok)
}

func TestMemory_FurnitureByItemReturnsFirstRow(t *testing.T) {
	m, err := ParseYAML([]byte(fixture))
	require.NoError(t, err)

	f, ok := m.FurnitureByItem(6541)
	require.True(t, ok)
	assert.Equal(t, uint32(196609), f.Key)

	_, ok = m.FurnitureByItem(42)
	assert.False(t, ok)
}

func TestMemory_ReplacedRowMovesItemIndex(t *testing.T) {
	tests := []struct {
		name    string
		replace Furniture
		oldItem uint32
		wantOld uint32 // key FurnitureByItem(oldItem) should return, 0 for a miss
		newItem uint32
		wantNew uint32
	}{
		{
			name:    "sole row for the old item",
			replace: Furniture{Key: 3, ModelKey: 3, ItemID: 900, Name: "Stool"},
			oldItem: 300, wantOld: 0,
			newItem: 900, wantNew: 3,
		},
		{
			name:    "old item still placed by a later row",
			replace: Furniture{Key: 1, ModelKey: 1, ItemID: 900, Name: "Stool"},
			oldItem: 100, wantOld: 2,
			newItem: 900, wantNew: 1,
		},
		{
			name:    "replaced row now precedes the new item's first row",
			replace: Furniture{Key: 1, ModelKey: 1, ItemID: 300, Name: "Stool"},
			oldItem: 100, wantOld: 2,
			newItem: 300, wantNew: 1,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewMemory([]Furniture{
				{Key: 1, ModelKey: 1, ItemID: 100, Name: "Chair"},
				{Key: 2, ModelKey: 2, ItemID: 100, Name: "Chair (alt)"},
				{Key: 3, ModelKey: 3, ItemID: 300, Name: "Table"},
			}, nil)
			m.AddFurniture(tt.replace)

			f, ok := m.FurnitureByItem(tt.oldItem)
			if tt.wantOld == 0 {
				assert.False(t, ok)
			} else {
				require.True(t, ok)
				assert.Equal(t, tt.wantOld, f.Key)
			}
			f, ok = m.FurnitureByItem(tt.newItem)
			require.True(t, ok)
			assert.Equal(t, tt.wantNew, f.Key)
		})
	}
}

func TestMemory_ReplaceKeepsOrder(t *testing.T) {
	m := NewMemory(nil, []Stain{{ID: 1, Name: "a"}, {ID: 2, Name: "b"}})
	m.AddStain(Stain{ID: 1, Name: "c"})

	stains := m.Stains()
	require.Len(t, stains, 2)
	assert.Equal(t, "c", stains[0].Name)
	assert.Equal(t, "b", stains[1].Name)

	s, ok := m.Stain(2)
	require.True(t, ok)
	assert.Equal(t, "b", s.Name)
}

func TestStain_RGB(t *testing.T) {
	r, g, b := Stain{Color: 0xFF123456}.RGB()
	assert.Equal(t, uint8(0x12), r)
	assert.Equal(t, uint8(0x34), g)
	assert.Equal(t, uint8(0x56), b)
}

func TestParseHexColor(t *testing.T) {
	tests := []struct {
		in      string
		want    uint32
		wantErr bool
	}{
		{"", 0, false},
		{"#FE0101", 0xFE0101, false},
		{"fe0101", 0xFE0101, false},
		{"FE0101FF", 0xFE0101, false},
		{"zzzzzz", 0, true},
	}
	for _, tt := range tests {
		got, err := ParseHexColor(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestLoadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte(fixture), 0644))

	m, err := LoadYAML(path)
	require.NoError(t, err)
	assert.Len(t, m.FurnitureRows(), 4)

	_, err = LoadYAML(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestParseYAML_BadColour(t *testing.T) {
	_, err := ParseYAML([]byte("stains:\n  - id: 3\n    color: nothex\n"))
	assert.Error(t, err)
}
