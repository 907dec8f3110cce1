// Package interchange converts placement lists to and from the external
// layout editor's JSON document.
//
// The document is Z-up and turns the opposite way to placement space.
// Locations are multiplied by the converter's scale on export and divided
// by the document's interiorScale on import. Colours travel as hex and
// come back as the nearest usable stain.
package interchange

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/banshee-data/housing.layout/internal/catalog"
	"github.com/banshee-data/housing.layout/internal/placement"
	"github.com/banshee-data/housing.layout/internal/transform"
)

// DefaultImportScale is assumed when a document has no interiorScale.
const DefaultImportScale = 100

var (
	// ErrMissingField is returned when a document has no interiorFurniture.
	ErrMissingField = errors.New("document has no interiorFurniture field")
	// ErrNoFurniture is returned when interiorFurniture is empty.
	ErrNoFurniture = errors.New("document has no furniture")
	// ErrInvalidScale is returned for a zero or negative interiorScale.
	ErrInvalidScale = errors.New("document interiorScale must be positive")
)

// Converter maps between placement records and documents.
type Converter struct {
	furniture catalog.FurnitureCatalog
	stains    catalog.StainCatalog
	scale     float64
}

// NewConverter creates a converter. scale multiplies exported locations;
// zero or negative means 1.
func NewConverter(furniture catalog.FurnitureCatalog, stains catalog.StainCatalog, scale float64) *Converter {
	if scale <= 0 {
		scale = 1
	}
	return &Converter{furniture: furniture, stains: stains, scale: scale}
}

// Export builds a document for records. Children follow their base.
func (c *Converter) Export(records []*placement.Record, houseSize, houseName string) (*Document, error) {
	flat := (&placement.List{Items: records}).Flatten()

	items := make([]Item, 0, len(flat))
	for _, r := range flat {
		items = append(items, c.exportItem(r))
	}

	scale := c.scale
	doc := &Document{
		LightLevel: DocumentLightLevel,
		HouseSize:  houseSize,
		InteriorFixture: []Fixture{{
			Type: FixtureTypeDistrict,
			Name: houseName,
		}},
		MetaData:          MetaData{Version: DocumentVersion},
		InteriorScale:     &scale,
		InteriorFurniture: items,
		Properties:        map[string]any{},
	}
	diagf("exported %d furnishings (%s, %s)", len(items), houseSize, houseName)
	return doc, nil
}

func (c *Converter) exportItem(r *placement.Record) Item {
	loc := transform.Scale(transform.ToDocumentAxes(r.Position.R3()), c.scale)
	q := transform.QuatFromYaw(r.Rotate)

	color := ""
	if s, ok := c.stains.Stain(uint32(r.Stain)); ok {
		color = HexColor(s.Color)
	} else if r.Stain != 0 {
		tracef("stain %d of %s not in catalog", r.Stain, r.Name)
	}

	return Item{
		ItemID: r.ItemID,
		Name:   r.Name,
		Transform: Transform{
			Location: [3]float32{float32(loc.X), float32(loc.Y), float32(loc.Z)},
			Rotation: [4]float32{float32(q.Imag), float32(q.Jmag), float32(q.Kmag), float32(q.Real)},
			Scale:    [3]float32{1, 1, 1},
		},
		Properties: ItemProperties{Color: color},
	}
}

// Import converts a document into top-level records. Entries whose item
// is not in the catalog are skipped.
func (c *Converter) Import(doc *Document) ([]*placement.Record, error) {
	if doc.InteriorFurniture == nil {
		return nil, ErrMissingField
	}
	if len(doc.InteriorFurniture) == 0 {
		return nil, ErrNoFurniture
	}
	scale := float64(DefaultImportScale)
	if doc.InteriorScale != nil {
		scale = *doc.InteriorScale
	}
	if scale <= 0 {
		return nil, fmt.Errorf("%w: %v", ErrInvalidScale, scale)
	}

	records := make([]*placement.Record, 0, len(doc.InteriorFurniture))
	skipped := 0
	for i, item := range doc.InteriorFurniture {
		f, ok := c.furniture.FurnitureByItem(item.ItemID)
		if !ok {
			tracef("entry %d: item %d (%s) not in catalog", i, item.ItemID, item.Name)
			skipped++
			continue
		}
		stain, err := c.nearestStain(item.Properties.Color)
		if err != nil {
			return nil, fmt.Errorf("entry %d (%s): %w", i, item.Name, err)
		}

		loc := item.Transform.Location
		pos := transform.Scale(transform.FromDocumentAxes(r3.Vec{X: float64(loc[0]), Y: float64(loc[1]), Z: float64(loc[2])}), 1/scale)
		rot := item.Transform.Rotation
		q := quat.Number{Real: float64(rot[3]), Imag: float64(rot[0]), Jmag: float64(rot[1]), Kmag: float64(rot[2])}

		records = append(records, &placement.Record{
			FurnitureKey: f.Key,
			ModelKey:     f.ModelKey,
			ItemID:       item.ItemID,
			Stain:        stain,
			Position:     placement.FromR3(pos),
			Rotate:       transform.YawFromQuat(q),
			Name:         f.Name,
		})
	}
	if skipped > 0 {
		opsf("skipped %d of %d entries with unknown items", skipped, len(doc.InteriorFurniture))
	}
	diagf("imported %d furnishings", len(records))
	return records, nil
}

func (c *Converter) nearestStain(hex string) (uint8, error) {
	if hex == "" {
		return 0, nil
	}
	rgb, err := catalog.ParseHexColor(hex)
	if err != nil {
		return 0, err
	}
	return uint8(NearestStain(c.stains.Stains(), rgb)), nil
}

// NearestStain returns the id of the usable stain whose colour is closest
// to rgb by squared RGB distance. Ties go to the earliest row. With no
// usable stain the result is 0.
func NearestStain(stains []catalog.Stain, rgb uint32) uint32 {
	target := catalog.Stain{Color: rgb}
	tr, tg, tb := target.RGB()

	best := uint32(0)
	bestDist := -1
	for _, s := range stains {
		if !s.Usable {
			continue
		}
		r, g, b := s.RGB()
		dr := int(r) - int(tr)
		dg := int(g) - int(tg)
		db := int(b) - int(tb)
		d := dr*dr + dg*dg + db*db
		if bestDist < 0 || d < bestDist {
			best, bestDist = s.ID, d
		}
	}
	return best
}

// HexColor renders the low 24 bits of color as six lowercase hex digits,
// or "" for black.
func HexColor(color uint32) string {
	rgb := color & 0xFFFFFF
	if rgb == 0 {
		return ""
	}
	return fmt.Sprintf("%06x", rgb)
}
