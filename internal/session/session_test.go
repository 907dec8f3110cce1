package session

import (
	"encoding/binary"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/housing.layout/internal/catalog"
	"github.com/banshee-data/housing.layout/internal/housing/wire"
	"github.com/banshee-data/housing.layout/internal/placement"
	"github.com/banshee-data/housing.layout/internal/timeutil"
)

const (
	keyChair = 0x30001
	keyTable = 0x30002
	keyOdd   = 0x30003
)

func testCatalog() *catalog.Memory {
	return catalog.NewMemory(
		[]catalog.Furniture{
			{Key: keyChair, ModelKey: 1, ItemID: 100, Name: "Chair"},
			{Key: keyTable, ModelKey: 2, ItemID: 200, Name: "Table", CustomTalk: "CmnDefHousingObject_00001"},
			{Key: keyOdd, ModelKey: 3, ItemID: 300, Name: "Oddity", CustomTalk: "HouFurMystery_00001"},
		},
		[]catalog.Stain{
			{ID: 0, Name: "none"},
			{ID: 1, Name: "Red", Color: 0xFF0000, Usable: true},
		},
	)
}

type fixture struct {
	s     *Session
	clock *timeutil.MockClock
	reg   *prometheus.Registry
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	cat := testCatalog()
	clock := timeutil.NewMockClock(time.Date(2025, time.June, 1, 12, 0, 0, 0, time.UTC))
	reg := prometheus.NewRegistry()
	s, err := New(Options{
		Furniture:  cat,
		Stains:     cat,
		Clock:      clock,
		Registerer: reg,
	})
	require.NoError(t, err)
	return fixture{s: s, clock: clock, reg: reg}
}

func counterValue(t *testing.T, reg *prometheus.Registry, name string) float64 {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)
	total := 0.0
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
		for _, m := range mf.GetMetric() {
			total += m.GetCounter().GetValue()
		}
	}
	return total
}

// buffer builds a housing buffer with one slot per key.
func buffer(keys ...uint32) []byte {
	buf := make([]byte, wire.BUFFER_SIZE)
	for i, key := range keys {
		offset := wire.RECORDS_START + i*wire.RECORD_SIZE
		wire.WriteSlot(buf[offset:offset+wire.RECORD_SIZE], wire.Slot{
			NetID:   uint16(key - catalog.FurnitureKeyOffset),
			Variant: wire.VariantGeneric,
			X:       float32(i),
		})
	}
	return buf
}

func sentinel() []byte {
	buf := buffer(keyChair)
	for i := 0; i < wire.SENTINEL_SIZE; i++ {
		buf[i] = 0xFF
	}
	return buf
}

func TestNew_RequiresCatalogs(t *testing.T) {
	_, err := New(Options{})
	assert.Error(t, err)
}

func TestNew_SharedRegistry(t *testing.T) {
	cat := testCatalog()
	reg := prometheus.NewRegistry()
	_, err := New(Options{Furniture: cat, Stains: cat, Registerer: reg})
	require.NoError(t, err)
	_, err = New(Options{Furniture: cat, Stains: cat, Registerer: reg})
	assert.NoError(t, err)
}

func TestHandleBuffer_CaptureWithinWindow(t *testing.T) {
	f := newFixture(t)

	out, err := f.s.HandleBuffer(buffer(keyChair, keyTable))
	require.NoError(t, err)
	assert.Equal(t, KindCapture, out.Kind)
	assert.Equal(t, 2, out.Decoded)

	f.clock.Advance(time.Second)
	_, err = f.s.HandleBuffer(buffer(keyTable))
	require.NoError(t, err)
	assert.Len(t, f.s.Captured(), 3)

	f.clock.Advance(6 * time.Second)
	_, err = f.s.HandleBuffer(buffer(keyChair))
	require.NoError(t, err)
	require.Len(t, f.s.Captured(), 1, "expired window starts a new capture")
	assert.Equal(t, "Chair", f.s.Captured()[0].Name)

	assert.Equal(t, 3.0, counterValue(t, f.reg, "housing_captures_total"))
	assert.Equal(t, 4.0, counterValue(t, f.reg, "housing_captured_records_total"))
}

func TestHandleBuffer_Sentinel(t *testing.T) {
	f := newFixture(t)
	_, err := f.s.HandleBuffer(buffer(keyChair))
	require.NoError(t, err)
	f.s.SetDrawScreen(true)

	out, err := f.s.HandleBuffer(sentinel())
	require.NoError(t, err)
	assert.Equal(t, KindSentinel, out.Kind)
	assert.Empty(t, f.s.Captured())
	assert.False(t, f.s.DrawScreen())
	assert.Equal(t, 1.0, counterValue(t, f.reg, "housing_sentinel_buffers_total"))
}

func TestHandleBuffer_WrongSize(t *testing.T) {
	f := newFixture(t)
	_, err := f.s.HandleBuffer(make([]byte, 100))
	assert.ErrorIs(t, err, wire.ErrBufferSize)
}

func TestCommit(t *testing.T) {
	f := newFixture(t)

	assert.ErrorIs(t, f.s.Commit(1), ErrNothingCaptured)

	_, err := f.s.HandleBuffer(buffer(keyChair, keyTable))
	require.NoError(t, err)
	require.NoError(t, f.s.Commit(341))
	assert.Equal(t, uint32(341), f.s.Location())
	require.Equal(t, 2, f.s.Stored().Len())

	// The stored list owns its records.
	f.s.Stored().Items[0].Position.X = 99
	assert.Equal(t, float32(0), f.s.Captured()[0].Position.X)

	assert.ErrorIs(t, f.s.Commit(341), ErrStoredNotEmpty)

	f.s.Clear()
	require.NoError(t, f.s.SetPreviewing(true))
	assert.ErrorIs(t, f.s.Commit(341), ErrPreviewing)
}

func storedChairs(n int) []*placement.Record {
	records := make([]*placement.Record, n)
	for i := range records {
		records[i] = &placement.Record{
			FurnitureKey: keyChair, ModelKey: 1, ItemID: 100, Name: "Chair",
			Position: placement.Vec3{X: float32(i)},
		}
	}
	return records
}

func TestHandleBuffer_PreviewPages(t *testing.T) {
	f := newFixture(t)
	f.s.Replace(storedChairs(150))
	f.s.TerritoryChanged(341)
	require.NoError(t, f.s.SetPreviewing(true))

	buf := buffer()
	out, err := f.s.HandleBuffer(buf)
	require.NoError(t, err)
	assert.Equal(t, KindPreview, out.Kind)
	assert.Equal(t, 0, out.Preview.Page)
	assert.Equal(t, 100, out.Preview.Count)
	slot := wire.ReadSlot(buf[wire.RECORDS_START:])
	assert.Equal(t, uint16(1), slot.NetID)

	buf = buffer()
	out, err = f.s.HandleBuffer(buf)
	require.NoError(t, err)
	assert.Equal(t, 1, out.Preview.Page)
	assert.Equal(t, 50, out.Preview.Count)
	slot = wire.ReadSlot(buf[wire.RECORDS_START:])
	assert.Equal(t, float32(100), slot.X)

	assert.Empty(t, f.s.Captured(), "preview never captures")
	assert.Equal(t, 150.0, counterValue(t, f.reg, "housing_preview_slots_total"))
	assert.Equal(t, 2.0, counterValue(t, f.reg, "housing_preview_pages_total"))
}

func TestHandleBuffer_PreviewShortPageClearsLiveSlots(t *testing.T) {
	f := newFixture(t)
	f.s.Replace([]*placement.Record{{
		FurnitureKey: keyChair, ModelKey: 1, ItemID: 100, Name: "Chair",
		Position: placement.Vec3{X: 42},
	}})
	require.NoError(t, f.s.SetPreviewing(true))
	codec := wire.NewCodec(testCatalog(), nil)

	buf := buffer(keyTable, keyTable, keyTable)
	out, err := f.s.HandleBuffer(buf)
	require.NoError(t, err)
	assert.Equal(t, 1, out.Preview.Count)
	loaded, err := codec.Decode(buf)
	require.NoError(t, err)
	require.Len(t, loaded.Records, 1)
	assert.Equal(t, "Chair", loaded.Records[0].Name)
	assert.Equal(t, float32(42), loaded.Records[0].Position.X)

	// Page 1 is past the end of the stored list.
	buf = buffer(keyTable, keyTable)
	out, err = f.s.HandleBuffer(buf)
	require.NoError(t, err)
	assert.Equal(t, 1, out.Preview.Page)
	assert.Equal(t, 0, out.Preview.Count)
	loaded, err = codec.Decode(buf)
	require.NoError(t, err)
	assert.Empty(t, loaded.Records)
}

func TestHandleBuffer_PreviewIncludesChildren(t *testing.T) {
	f := newFixture(t)
	records := storedChairs(2)
	child := &placement.Record{FurnitureKey: keyTable, ModelKey: 2, ItemID: 200, Name: "Table"}
	records[0].Children = []*placement.Record{child}
	f.s.Replace(records)
	require.NoError(t, f.s.SetPreviewing(true))

	buf := buffer()
	out, err := f.s.HandleBuffer(buf)
	require.NoError(t, err)
	assert.Equal(t, 3, out.Preview.Count)
	assert.Equal(t, uint16(2), binary.LittleEndian.Uint16(buf[wire.RECORDS_START+wire.RECORD_SIZE:]))
}

func TestHandleBuffer_PreviewRejected(t *testing.T) {
	f := newFixture(t)
	f.s.Replace([]*placement.Record{
		{FurnitureKey: keyOdd, ItemID: 300, Name: "Oddity"},
		{FurnitureKey: keyChair, ItemID: 100, Name: "Chair"},
	})
	require.NoError(t, f.s.SetPreviewing(true))

	out, err := f.s.HandleBuffer(buffer())
	require.NoError(t, err)
	assert.Equal(t, 1, out.Preview.Count)
	assert.Equal(t, 1.0, counterValue(t, f.reg, "housing_preview_rejected_total"))
}

func TestSetPreviewing_OffInsidePreviewTerritory(t *testing.T) {
	f := newFixture(t)
	f.s.Replace(storedChairs(1))
	f.s.TerritoryChanged(341)
	require.NoError(t, f.s.SetPreviewing(true))
	_, err := f.s.HandleBuffer(buffer())
	require.NoError(t, err)

	assert.ErrorIs(t, f.s.SetPreviewing(false), ErrInPreviewTerritory)
	assert.True(t, f.s.Previewing())

	f.s.TerritoryChanged(132)
	require.NoError(t, f.s.SetPreviewing(false))
	assert.False(t, f.s.Previewing())
}

func TestTerritoryChanged_ResetsWindow(t *testing.T) {
	f := newFixture(t)
	f.s.Replace(storedChairs(150))
	require.NoError(t, f.s.SetPreviewing(true))

	out, err := f.s.HandleBuffer(buffer())
	require.NoError(t, err)
	assert.Equal(t, 0, out.Preview.Page)

	f.s.SetDrawScreen(true)
	f.s.TerritoryChanged(341)
	assert.False(t, f.s.DrawScreen())

	out, err = f.s.HandleBuffer(buffer())
	require.NoError(t, err)
	assert.Equal(t, 0, out.Preview.Page)
}

const sampleDocument = `{
	"interiorScale": 1,
	"interiorFurniture": [
		{"itemId": 200, "name": "Table",
		 "transform": {"location": [1, 3, 2], "rotation": [0, 0, 0, 1], "scale": [1, 1, 1]},
		 "properties": {"color": "ff0000"}}
	]
}`

func TestImport_ReplacesOnSuccessOnly(t *testing.T) {
	f := newFixture(t)
	f.s.Replace(storedChairs(3))

	assert.Error(t, f.s.Import([]byte(`{"interiorFurniture": []}`)))
	assert.Error(t, f.s.Import([]byte(`not json`)))
	assert.Equal(t, 3, f.s.Stored().Len())
	assert.Equal(t, 2.0, counterValue(t, f.reg, "housing_imports_total"))

	require.NoError(t, f.s.Import([]byte(sampleDocument)))
	require.Equal(t, 1, f.s.Stored().Len())
	table := f.s.Stored().Items[0]
	assert.Equal(t, "Table", table.Name)
	assert.Equal(t, uint8(1), table.Stain)
	assert.Equal(t, placement.Vec3{X: 1, Y: 2, Z: 3}, table.Position)
}

func TestExport(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.s.Import([]byte(sampleDocument)))

	data, err := f.s.Export("Small", "Mist")
	require.NoError(t, err)
	assert.Contains(t, string(data), `"houseSize":"Small"`)
	assert.Contains(t, string(data), `"color":"ff0000"`)
}

func TestListRoundTrip(t *testing.T) {
	f := newFixture(t)
	records := storedChairs(2)
	records = append(records, &placement.Record{FurnitureKey: 0x3FFFF, ItemID: 9, Name: "Gone"})
	f.s.Replace(records)

	data, err := f.s.ExportList()
	require.NoError(t, err)

	g := newFixture(t)
	require.NoError(t, g.s.ImportList(data))
	assert.Equal(t, 2, g.s.Stored().Len(), "records missing from the catalog are dropped")

	assert.Error(t, g.s.ImportList([]byte(`{`)))
	assert.Equal(t, 2, g.s.Stored().Len())

	one, err := g.s.ExportItem(1)
	require.NoError(t, err)
	assert.Contains(t, string(one), `"X":1`)
	_, err = g.s.ExportItem(5)
	assert.Error(t, err)
}

func TestGroupingAndEditing(t *testing.T) {
	f := newFixture(t)
	f.s.Replace([]*placement.Record{
		{FurnitureKey: keyTable, ItemID: 200, Name: "Table", Position: placement.Vec3{X: 10, Z: 10}},
		{FurnitureKey: keyChair, ItemID: 100, Name: "Chair", Position: placement.Vec3{X: 11, Z: 10}},
		{FurnitureKey: keyChair, ItemID: 100, Name: "Chair", Position: placement.Vec3{X: 0, Z: 0}},
	})

	_, err := f.s.ToggleGroupMember(0)
	assert.ErrorIs(t, err, ErrNotGrouping)

	f.s.BeginGrouping()
	assert.ErrorIs(t, f.s.Sort(), ErrGrouping)
	_, err = f.s.ToggleGroupMember(0)
	require.NoError(t, err)
	_, err = f.s.ToggleGroupMember(1)
	require.NoError(t, err)
	require.NoError(t, f.s.EndGrouping())
	assert.False(t, f.s.Grouping())

	require.Equal(t, 2, f.s.Stored().Len())
	base := f.s.Stored().Items[0]
	require.Len(t, base.Children, 1)

	_, err = f.s.Selected()
	assert.ErrorIs(t, err, ErrNoSelection)
	assert.ErrorIs(t, f.s.SetRotate(1), ErrNoSelection)

	require.NoError(t, f.s.Select(0))
	require.NoError(t, f.s.SetRotate(math.Pi/2))
	child := base.Children[0]
	assert.InDelta(t, 10.0, child.Position.X, 1e-4)
	assert.InDelta(t, 9.0, child.Position.Z, 1e-4)

	require.NoError(t, f.s.SetPosition(placement.Vec3{X: 20, Y: 1, Z: 20}))
	assert.InDelta(t, 20.0, child.Position.X, 1e-4)
	assert.InDelta(t, 19.0, child.Position.Z, 1e-4)
	assert.InDelta(t, 1.0, child.Position.Y, 1e-4)

	require.NoError(t, f.s.Disband(0))
	assert.Equal(t, 3, f.s.Stored().Len())
	assert.Error(t, f.s.Disband(0))
	assert.Error(t, f.s.Select(10))
}

func TestSortAndTally(t *testing.T) {
	f := newFixture(t)
	f.s.Replace([]*placement.Record{
		{ItemID: 200, Name: "Table", Position: placement.Vec3{X: 1}},
		{ItemID: 100, Name: "Chair", Position: placement.Vec3{X: 2}},
		{ItemID: 100, Name: "Chair", Position: placement.Vec3{X: 1}},
	})
	require.NoError(t, f.s.Select(0))
	require.NoError(t, f.s.Sort())
	_, err := f.s.Selected()
	assert.ErrorIs(t, err, ErrNoSelection)

	items := f.s.Stored().Items
	assert.Equal(t, uint32(100), items[0].ItemID)
	assert.Equal(t, float32(1), items[0].Position.X)
	assert.Equal(t, uint32(200), items[2].ItemID)

	tally := f.s.Tally()
	assert.True(t, strings.Contains(tally, "item#100\tChair\t2"), tally)
	assert.True(t, strings.Contains(tally, "item#200\tTable\t1"), tally)
}

func TestHide(t *testing.T) {
	f := newFixture(t)
	f.s.Hide(2)
	f.s.Hide(4)
	f.s.Hide(2)
	assert.True(t, f.s.Hidden(2))

	i, ok := f.s.UndoHide()
	assert.True(t, ok)
	assert.Equal(t, 4, i)
	i, ok = f.s.UndoHide()
	assert.True(t, ok)
	assert.Equal(t, 2, i)
	_, ok = f.s.UndoHide()
	assert.False(t, ok)
}

func TestHide_ClearedWhenIndicesMove(t *testing.T) {
	rows := func() []*placement.Record {
		return []*placement.Record{
			{FurnitureKey: keyTable, ItemID: 200, Name: "Table", Position: placement.Vec3{X: 3}},
			{FurnitureKey: keyChair, ItemID: 100, Name: "Chair", Position: placement.Vec3{X: 2}},
			{FurnitureKey: keyChair, ItemID: 100, Name: "Chair", Position: placement.Vec3{X: 1}},
		}
	}
	tests := []struct {
		name    string
		reorder func(t *testing.T, s *Session)
	}{
		{"group", func(t *testing.T, s *Session) {
			s.BeginGrouping()
			_, err := s.ToggleGroupMember(0)
			require.NoError(t, err)
			_, err = s.ToggleGroupMember(1)
			require.NoError(t, err)
			require.NoError(t, s.EndGrouping())
		}},
		{"disband", func(t *testing.T, s *Session) {
			s.BeginGrouping()
			_, err := s.ToggleGroupMember(0)
			require.NoError(t, err)
			_, err = s.ToggleGroupMember(1)
			require.NoError(t, err)
			require.NoError(t, s.EndGrouping())
			s.Hide(1)
			require.NoError(t, s.Disband(0))
		}},
		{"sort", func(t *testing.T, s *Session) {
			require.NoError(t, s.Sort())
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.s.Replace(rows())
			f.s.Hide(1)
			require.True(t, f.s.Hidden(1))

			tt.reorder(t, f.s)
			assert.False(t, f.s.Hidden(1))
			_, ok := f.s.UndoHide()
			assert.False(t, ok)
		})
	}
}

func TestHide_KeptWhenNothingGrouped(t *testing.T) {
	f := newFixture(t)
	f.s.Replace(storedChairs(3))
	f.s.Hide(2)
	f.s.BeginGrouping()
	_, err := f.s.ToggleGroupMember(0)
	require.NoError(t, err)
	require.NoError(t, f.s.EndGrouping())
	assert.True(t, f.s.Hidden(2), "a single pick groups nothing")
}
