package wire

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"github.com/banshee-data/housing.layout/internal/catalog"
	"github.com/banshee-data/housing.layout/internal/placement"
)

/*
Housing placement buffer layout

The host hands over one fixed-size buffer per load call. The first 12 bytes
are a header this package never interprets or writes; placement slots follow
in 24-byte strides.

BUFFER (2416 bytes):
├── Header (12 bytes) - opaque; first 8 bytes all 0xFF means "no capture"
└── Slots, 24 bytes each, starting at offset 12
    ├── 0-1   net id (furniture key - 0x30000), uint16 little-endian
    ├── 2     talk variant (0 dish, 1 generic, 2 orchestrion)
    ├── 3     reserved
    ├── 4     stain index
    ├── 5-7   reserved
    ├── 8-11  rotate, float32 radians
    ├── 12-15 x, float32
    ├── 16-19 y, float32 (vertical)
    └── 20-23 z, float32

The slot loop runs while offset+24 < len(buffer). With the 4-byte tail that
leaves exactly 100 usable slots; the strict comparison is kept as-is.
*/

// Housing buffer layout constants.
const (
	BUFFER_SIZE    = 2416 // Total buffer length in bytes
	HEADER_SIZE    = 12   // Opaque header preceding the first slot
	SENTINEL_SIZE  = 8    // Leading 0xFF bytes that mark an empty capture
	RECORD_SIZE    = 24   // Bytes per placement slot
	RECORDS_START  = HEADER_SIZE
	SLOT_NET_ID    = 0  // uint16 LE
	SLOT_VARIANT   = 2  // uint8
	SLOT_STAIN     = 4  // uint8
	SLOT_ROTATE    = 8  // float32 LE
	SLOT_X         = 12 // float32 LE
	SLOT_Y         = 16 // float32 LE
	SLOT_Z         = 20 // float32 LE
	SLOTS_PER_PAGE = 100
)

// Talk variant codes written at SLOT_VARIANT.
const (
	VariantDish        uint8 = 0
	VariantGeneric     uint8 = 1
	VariantOrchestrion uint8 = 2
)

// ErrBufferSize is returned when a buffer is not exactly BUFFER_SIZE bytes.
var ErrBufferSize = errors.New("housing buffer has wrong size")

// Capture is the result of decoding one buffer. A Sentinel capture means
// the host has no current layout: callers drop any accumulated capture.
// A non-sentinel capture with no records is an ordinary empty decode.
type Capture struct {
	Sentinel bool
	Records  []*placement.Record
}

// Slot is the raw content of one 24-byte placement slot.
type Slot struct {
	NetID   uint16
	Variant uint8
	Stain   uint8
	Rotate  float32
	X, Y, Z float32
}

// Codec converts between housing buffers and placement records.
type Codec struct {
	furniture catalog.FurnitureLookup
	remap     *RemapTable
}

// NewCodec creates a codec resolving furniture through the given catalog.
// A nil remap table uses DefaultRemapTable.
func NewCodec(furniture catalog.FurnitureLookup, remap *RemapTable) *Codec {
	if remap == nil {
		remap = DefaultRemapTable()
	}
	return &Codec{furniture: furniture, remap: remap}
}

// IsSentinel reports whether buf starts with the 8-byte 0xFF marker.
func IsSentinel(buf []byte) bool {
	if len(buf) < SENTINEL_SIZE {
		return false
	}
	for _, b := range buf[:SENTINEL_SIZE] {
		if b != 0xFF {
			return false
		}
	}
	return true
}

// CheckSize returns ErrBufferSize unless buf is exactly BUFFER_SIZE bytes.
func CheckSize(buf []byte) error {
	if len(buf) != BUFFER_SIZE {
		return fmt.Errorf("%w: expected %d bytes, got %d", ErrBufferSize, BUFFER_SIZE, len(buf))
	}
	return nil
}

// Decode parses every resolvable slot of buf into records, in slot order.
// Slots whose furniture key is unknown to the catalog are empty and are
// skipped. buf is not retained.
func (c *Codec) Decode(buf []byte) (Capture, error) {
	if err := CheckSize(buf); err != nil {
		return Capture{}, err
	}
	if IsSentinel(buf) {
		diagf("sentinel buffer, no capture")
		return Capture{Sentinel: true}, nil
	}

	var records []*placement.Record
	for offset := RECORDS_START; offset+RECORD_SIZE < len(buf); offset += RECORD_SIZE {
		slot := ReadSlot(buf[offset : offset+RECORD_SIZE])
		key := uint32(slot.NetID) + catalog.FurnitureKeyOffset
		f, ok := c.furniture.Furniture(key)
		if !ok {
			continue
		}
		tracef("slot %d: %s % X", (offset-RECORDS_START)/RECORD_SIZE, f.Name, buf[offset:offset+RECORD_SIZE])
		records = append(records, &placement.Record{
			FurnitureKey: key,
			ModelKey:     f.ModelKey,
			ItemID:       f.ItemID,
			Stain:        slot.Stain,
			Position:     placement.Vec3{X: slot.X, Y: slot.Y, Z: slot.Z},
			Rotate:       slot.Rotate,
			Name:         f.Name,
		})
	}
	diagf("decoded %d furnishings", len(records))
	return Capture{Records: records}, nil
}

// Encode writes page into the slots of buf, one record per slot, and
// returns how many slots were synthesised. Everything after the header is
// zeroed first, so slots past the end of page and the tail reach the host
// empty. Records whose talk category the remap table rejects leave a
// zeroed slot and are not counted. The header is left untouched.
func (c *Codec) Encode(buf []byte, page []*placement.Record) (int, error) {
	if err := CheckSize(buf); err != nil {
		return 0, err
	}
	clear(buf[RECORDS_START:])

	count := 0
	i := 0
	for offset := RECORDS_START; offset+RECORD_SIZE < len(buf) && i < len(page); offset += RECORD_SIZE {
		rec := page[i]
		i++
		dst := buf[offset : offset+RECORD_SIZE]

		tag := ""
		if f, ok := c.furniture.Furniture(rec.FurnitureKey); ok {
			tag = f.TalkTag()
		}
		out, ok := c.remap.Apply(tag, rec.NetID())
		if !ok {
			opsf("ignore %s: unsupported talk category %q", rec.Name, tag)
			continue
		}

		WriteSlot(dst, Slot{
			NetID:   out.NetID,
			Variant: out.Variant,
			Stain:   rec.Stain,
			Rotate:  rec.Rotate,
			X:       rec.Position.X,
			Y:       rec.Position.Y,
			Z:       rec.Position.Z,
		})
		count++
	}
	if i < len(page) {
		opsf("page holds %d records but the buffer fits %d", len(page), i)
	}
	diagf("synthesised %d of %d furnishings", count, len(page))
	return count, nil
}

// ReadSlot decodes one 24-byte slot.
func ReadSlot(b []byte) Slot {
	_ = b[RECORD_SIZE-1]
	return Slot{
		NetID:   binary.LittleEndian.Uint16(b[SLOT_NET_ID:]),
		Variant: b[SLOT_VARIANT],
		Stain:   b[SLOT_STAIN],
		Rotate:  math.Float32frombits(binary.LittleEndian.Uint32(b[SLOT_ROTATE:])),
		X:       math.Float32frombits(binary.LittleEndian.Uint32(b[SLOT_X:])),
		Y:       math.Float32frombits(binary.LittleEndian.Uint32(b[SLOT_Y:])),
		Z:       math.Float32frombits(binary.LittleEndian.Uint32(b[SLOT_Z:])),
	}
}

// WriteSlot encodes s into a 24-byte slot. Reserved bytes are zeroed.
func WriteSlot(b []byte, s Slot) {
	_ = b[RECORD_SIZE-1]
	clear(b[:RECORD_SIZE])
	binary.LittleEndian.PutUint16(b[SLOT_NET_ID:], s.NetID)
	b[SLOT_VARIANT] = s.Variant
	b[SLOT_STAIN] = s.Stain
	binary.LittleEndian.PutUint32(b[SLOT_ROTATE:], math.Float32bits(s.Rotate))
	binary.LittleEndian.PutUint32(b[SLOT_X:], math.Float32bits(s.X))
	binary.LittleEndian.PutUint32(b[SLOT_Y:], math.Float32bits(s.Y))
	binary.LittleEndian.PutUint32(b[SLOT_Z:], math.Float32bits(s.Z))
}
