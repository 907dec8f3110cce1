package presets

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"
	"github.com/klauspost/compress/zstd"

	"github.com/banshee-data/housing.layout/internal/placement"
)

// layoutVersion tags the encoded blob so the record shape can change
// without breaking stored presets.
const layoutVersion = 1

// maxLayoutSize bounds the uncompressed blob. A full house is a few
// hundred records, far below this.
const maxLayoutSize = 16 * 1024 * 1024

// blobRecord is the stored shape of one placement. Integer keys keep the
// blob small.
type blobRecord struct {
	FurnitureKey uint32       `cbor:"1,keyasint"`
	ModelKey     uint32       `cbor:"2,keyasint"`
	ItemID       uint32       `cbor:"3,keyasint"`
	Stain        uint8        `cbor:"4,keyasint"`
	Position     [3]float32   `cbor:"5,keyasint"`
	Rotate       float32      `cbor:"6,keyasint"`
	Name         string       `cbor:"7,keyasint"`
	Relative     [3]float32   `cbor:"8,keyasint"`
	Children     []blobRecord `cbor:"9,keyasint,omitempty"`
}

type blob struct {
	Version int          `cbor:"1,keyasint"`
	Records []blobRecord `cbor:"2,keyasint"`
}

var (
	encMode     cbor.EncMode
	decMode     cbor.DecMode
	zstdEncoder *zstd.Encoder
	zstdDecoder *zstd.Decoder
)

func init() {
	var err error
	encMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("presets: CBOR encoder initialization failed: " + err.Error())
	}
	decMode, err = cbor.DecOptions{}.DecMode()
	if err != nil {
		panic("presets: CBOR decoder initialization failed: " + err.Error())
	}
	zstdEncoder, err = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		panic("presets: zstd encoder initialization failed: " + err.Error())
	}
	zstdDecoder, err = zstd.NewReader(nil, zstd.WithDecoderMaxMemory(maxLayoutSize))
	if err != nil {
		panic("presets: zstd decoder initialization failed: " + err.Error())
	}
}

func toBlob(r *placement.Record) blobRecord {
	b := blobRecord{
		FurnitureKey: r.FurnitureKey,
		ModelKey:     r.ModelKey,
		ItemID:       r.ItemID,
		Stain:        r.Stain,
		Position:     [3]float32{r.Position.X, r.Position.Y, r.Position.Z},
		Rotate:       r.Rotate,
		Name:         r.Name,
		Relative:     [3]float32{r.RelativeOffset.X, r.RelativeOffset.Y, r.RelativeOffset.Z},
	}
	for _, c := range r.Children {
		b.Children = append(b.Children, toBlob(c))
	}
	return b
}

func fromBlob(b blobRecord) *placement.Record {
	r := &placement.Record{
		FurnitureKey:   b.FurnitureKey,
		ModelKey:       b.ModelKey,
		ItemID:         b.ItemID,
		Stain:          b.Stain,
		Position:       placement.Vec3{X: b.Position[0], Y: b.Position[1], Z: b.Position[2]},
		Rotate:         b.Rotate,
		Name:           b.Name,
		RelativeOffset: placement.Vec3{X: b.Relative[0], Y: b.Relative[1], Z: b.Relative[2]},
	}
	for _, c := range b.Children {
		r.Children = append(r.Children, fromBlob(c))
	}
	return r
}

// encodeLayout returns the compressed blob and its uncompressed size.
func encodeLayout(records []*placement.Record) ([]byte, int, error) {
	b := blob{Version: layoutVersion, Records: make([]blobRecord, 0, len(records))}
	for _, r := range records {
		b.Records = append(b.Records, toBlob(r))
	}
	raw, err := encMode.Marshal(b)
	if err != nil {
		return nil, 0, fmt.Errorf("cbor encode: %w", err)
	}
	if len(raw) > maxLayoutSize {
		return nil, 0, fmt.Errorf("layout blob too large: %d bytes (max %d)", len(raw), maxLayoutSize)
	}
	compressed := zstdEncoder.EncodeAll(raw, nil)
	tracef("layout blob %d bytes, %d compressed", len(raw), len(compressed))
	return compressed, len(raw), nil
}

func decodeLayout(compressed []byte, rawSize int) ([]*placement.Record, error) {
	if rawSize < 0 || rawSize > maxLayoutSize {
		return nil, fmt.Errorf("invalid layout size %d (max %d)", rawSize, maxLayoutSize)
	}
	raw, err := zstdDecoder.DecodeAll(compressed, make([]byte, 0, rawSize))
	if err != nil {
		return nil, fmt.Errorf("zstd decompress: %w", err)
	}
	if len(raw) != rawSize {
		return nil, fmt.Errorf("zstd decompress: got %d bytes, expected %d", len(raw), rawSize)
	}
	var b blob
	if err := decMode.Unmarshal(raw, &b); err != nil {
		return nil, fmt.Errorf("cbor decode: %w", err)
	}
	if b.Version != layoutVersion {
		return nil, fmt.Errorf("unsupported layout version %d", b.Version)
	}
	records := make([]*placement.Record, 0, len(b.Records))
	for _, r := range b.Records {
		records = append(records, fromBlob(r))
	}
	return records, nil
}
