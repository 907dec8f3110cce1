package interchange

import (
	"encoding/json"
	"fmt"

	"github.com/tidwall/jsonc"
)

// Fixed values every exported document carries.
const (
	DocumentLightLevel  = 1
	DocumentVersion     = 139
	FixtureTypeDistrict = "District"
)

// Document is the interchange layout file. Field order matches the order
// the external editor writes.
type Document struct {
	LightLevel      int       `json:"lightLevel"`
	HouseSize       string    `json:"houseSize"`
	InteriorFixture []Fixture `json:"interiorFixture"`
	MetaData        MetaData  `json:"metaData"`
	// InteriorScale is the factor locations were multiplied by. Nil means
	// the field was absent.
	InteriorScale *float64 `json:"interiorScale,omitempty"`
	// InteriorFurniture is nil when the field was absent and non-nil but
	// empty for "[]".
	InteriorFurniture []Item         `json:"interiorFurniture"`
	Properties        map[string]any `json:"properties"`
}

// Fixture is one interior fixture entry. Only the district entry is
// written.
type Fixture struct {
	Level  string `json:"level"`
	Type   string `json:"type"`
	Name   string `json:"name"`
	ItemID uint32 `json:"itemId"`
	Color  string `json:"color"`
}

// MetaData carries the document format version.
type MetaData struct {
	Version int `json:"version"`
}

// Item is one placed furnishing.
type Item struct {
	ItemID     uint32         `json:"itemId"`
	Name       string         `json:"name"`
	Transform  Transform      `json:"transform"`
	Properties ItemProperties `json:"properties"`
}

// Transform places an item. Location is Z-up; Rotation is [x, y, z, w].
// Components are single precision, matching the placement slots, so
// exported values print without widening noise.
type Transform struct {
	Location [3]float32 `json:"location"`
	Rotation [4]float32 `json:"rotation"`
	Scale    [3]float32 `json:"scale"`
}

// ItemProperties holds the item colour as six hex digits, or "" for
// unstained.
type ItemProperties struct {
	Color string `json:"color"`
}

// ParseDocument decodes a document. Comments and trailing commas are
// tolerated.
func ParseDocument(data []byte) (*Document, error) {
	var doc Document
	if err := json.Unmarshal(jsonc.ToJSON(data), &doc); err != nil {
		return nil, fmt.Errorf("parsing layout document: %w", err)
	}
	return &doc, nil
}

// Marshal encodes the document as compact JSON.
func (d *Document) Marshal() ([]byte, error) {
	data, err := json.Marshal(d)
	if err != nil {
		return nil, fmt.Errorf("encoding layout document: %w", err)
	}
	return data, nil
}
