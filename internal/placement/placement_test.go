package placement

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"

	"github.com/banshee-data/housing.layout/internal/catalog"
)

func testCatalog() *catalog.Memory {
	return catalog.NewMemory([]catalog.Furniture{
		{Key: 0x30001, ModelKey: 11, ItemID: 100, Name: "Chair"},
		{Key: 0x30002, ModelKey: 12, ItemID: 200, Name: "Table"},
		{Key: 0x30003, ModelKey: 13, ItemID: 300, Name: "ápple crate"},
	}, nil)
}

func TestRecord_NetID(t *testing.T) {
	r := &Record{FurnitureKey: 0x301EF}
	assert.Equal(t, uint16(0x1EF), r.NetID())
}

func TestResolveKeys_Idempotent(t *testing.T) {
	cat := testCatalog()
	records := []*Record{
		{ModelKey: 1},
		{FurnitureKey: 0x30002, ModelKey: 12},
		{ModelKey: 0},
	}

	ResolveKeys(records, cat)
	assert.Equal(t, uint32(0x30001), records[0].FurnitureKey)
	assert.Equal(t, uint32(11), records[0].ModelKey)
	assert.Equal(t, uint32(0x30002), records[1].FurnitureKey)
	assert.Equal(t, uint32(0), records[2].FurnitureKey)

	first := []Record{*records[0], *records[1], *records[2]}
	ResolveKeys(records, cat)
	assert.Equal(t, first, []Record{*records[0], *records[1], *records[2]})
}

func TestResolveKeys_Children(t *testing.T) {
	base := &Record{FurnitureKey: 0x30002, Children: []*Record{{ModelKey: 3}}}
	ResolveKeys([]*Record{base}, testCatalog())
	assert.Equal(t, uint32(0x30003), base.Children[0].FurnitureKey)
	assert.Equal(t, uint32(13), base.Children[0].ModelKey)
}

func TestResolveNames_DropsUnknown(t *testing.T) {
	records := []*Record{
		{FurnitureKey: 0x30001, Name: "stale"},
		{FurnitureKey: 0x39999, Name: "ghost"},
		{ModelKey: 2},
	}
	out := ResolveNames(records, testCatalog())
	require.Len(t, out, 2)
	assert.Equal(t, "Chair", out[0].Name)
	assert.Equal(t, "Table", out[1].Name)
}

func TestSort(t *testing.T) {
	l := &List{Items: []*Record{
		{ItemID: 200, Position: Vec3{X: 1}},
		{ItemID: 100, Position: Vec3{X: 2}},
		{ItemID: 100, Position: Vec3{X: 1, Y: 5}},
		{ItemID: 100, Position: Vec3{X: 1, Y: 5}, Rotate: -1},
	}}
	Sort(l)

	got := make([][2]float32, len(l.Items))
	for i, r := range l.Items {
		got[i] = [2]float32{float32(r.ItemID), r.Position.X}
	}
	assert.Equal(t, [][2]float32{{100, 1}, {100, 1}, {100, 2}, {200, 1}}, got)
	assert.Equal(t, float32(-1), l.Items[0].Rotate)
}

func TestTally(t *testing.T) {
	l := &List{Items: []*Record{
		{ItemID: 200, Name: "Table", Children: []*Record{{ItemID: 100, Name: "Chair"}, {ItemID: 100, Name: "Chair"}}},
		{ItemID: 100, Name: "Chair"},
		{ItemID: 300, Name: "ápple crate"},
	}}
	entries := Tally(l, language.English)

	want := []TallyEntry{
		{ItemID: 300, Name: "ápple crate", Count: 1},
		{ItemID: 100, Name: "Chair", Count: 3},
		{ItemID: 200, Name: "Table", Count: 1},
	}
	if diff := cmp.Diff(want, entries); diff != "" {
		t.Errorf("Tally mismatch (-want +got):\n%s", diff)
	}

	text := FormatTally(entries)
	assert.True(t, strings.HasPrefix(text, TallyHeading+"\n"))
	assert.Contains(t, text, "item#100\tChair\t3\n")
}

func TestList_Flatten(t *testing.T) {
	child := &Record{Name: "c"}
	l := &List{Items: []*Record{{Name: "a", Children: []*Record{child}}, {Name: "b"}}}
	flat := l.Flatten()
	require.Len(t, flat, 3)
	assert.Equal(t, []string{"a", "c", "b"}, []string{flat[0].Name, flat[1].Name, flat[2].Name})

	_, err := l.At(2)
	assert.Error(t, err)
	r, err := l.At(1)
	require.NoError(t, err)
	assert.Equal(t, "b", r.Name)
}

func TestClone_IsDeep(t *testing.T) {
	l := &List{Items: []*Record{{Name: "a", Children: []*Record{{Name: "c"}}}}}
	c := l.Clone()
	c.Items[0].Children[0].Name = "changed"
	assert.Equal(t, "c", l.Items[0].Children[0].Name)
}

func TestNativeList_RoundTrip(t *testing.T) {
	records := []*Record{
		{
			FurnitureKey: 0x30002, ModelKey: 12, ItemID: 200, Stain: 3,
			Position: Vec3{X: 1.5, Y: 0, Z: -2}, Rotate: 0.5, Name: "Table",
			Children: []*Record{{
				FurnitureKey: 0x30001, ModelKey: 11, ItemID: 100,
				Position: Vec3{X: 2, Y: 0, Z: -2}, Name: "Chair",
				RelativeOffset: Vec3{X: 0.4, Z: 0.2},
			}},
		},
	}
	data, err := MarshalList(records)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"ItemKey":200`)
	assert.Contains(t, string(data), `"children":[`)

	got, err := UnmarshalList(data)
	require.NoError(t, err)
	if diff := cmp.Diff(records, got); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestUnmarshalList_RejectsDeepNesting(t *testing.T) {
	data := `[{"Name":"a","children":[{"Name":"b","children":[{"Name":"c"}]}]}]`
	_, err := UnmarshalList([]byte(data))
	assert.Error(t, err)

	_, err = UnmarshalList([]byte(`{"not":"a list"}`))
	assert.Error(t, err)
}
