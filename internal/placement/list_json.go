package placement

import (
	"encoding/json"
	"fmt"
)

// jsonRecord is the native saved-list shape.
type jsonRecord struct {
	FurnitureKey uint32        `json:"FurnitureKey"`
	ModelKey     uint32        `json:"ModelKey"`
	ItemKey      uint32        `json:"ItemKey"`
	Stain        uint8         `json:"Stain"`
	X            float32       `json:"X"`
	Y            float32       `json:"Y"`
	Z            float32       `json:"Z"`
	Rotate       float32       `json:"Rotate"`
	Name         string        `json:"Name"`
	Children     []*jsonRecord `json:"children"`
	RelativeX    float32       `json:"RelativeX,omitempty"`
	RelativeY    float32       `json:"RelativeY,omitempty"`
	RelativeZ    float32       `json:"RelativeZ,omitempty"`
}

func toJSON(r *Record) *jsonRecord {
	j := &jsonRecord{
		FurnitureKey: r.FurnitureKey,
		ModelKey:     r.ModelKey,
		ItemKey:      r.ItemID,
		Stain:        r.Stain,
		X:            r.Position.X,
		Y:            r.Position.Y,
		Z:            r.Position.Z,
		Rotate:       r.Rotate,
		Name:         r.Name,
		Children:     []*jsonRecord{},
		RelativeX:    r.RelativeOffset.X,
		RelativeY:    r.RelativeOffset.Y,
		RelativeZ:    r.RelativeOffset.Z,
	}
	for _, c := range r.Children {
		j.Children = append(j.Children, toJSON(c))
	}
	return j
}

func fromJSON(j *jsonRecord, depth int) (*Record, error) {
	if j == nil {
		return nil, fmt.Errorf("null record")
	}
	r := &Record{
		FurnitureKey:   j.FurnitureKey,
		ModelKey:       j.ModelKey,
		ItemID:         j.ItemKey,
		Stain:          j.Stain,
		Position:       Vec3{X: j.X, Y: j.Y, Z: j.Z},
		Rotate:         j.Rotate,
		Name:           j.Name,
		RelativeOffset: Vec3{X: j.RelativeX, Y: j.RelativeY, Z: j.RelativeZ},
	}
	if len(j.Children) > 0 && depth > 0 {
		return nil, fmt.Errorf("record %q: children nested more than one level", j.Name)
	}
	for _, c := range j.Children {
		child, err := fromJSON(c, depth+1)
		if err != nil {
			return nil, err
		}
		r.Children = append(r.Children, child)
	}
	return r, nil
}

// MarshalList encodes the list in the native saved-list format.
func MarshalList(records []*Record) ([]byte, error) {
	out := make([]*jsonRecord, 0, len(records))
	for _, r := range records {
		out = append(out, toJSON(r))
	}
	return json.Marshal(out)
}

// UnmarshalList decodes the native saved-list format. Nesting deeper than
// one level is rejected.
func UnmarshalList(data []byte) ([]*Record, error) {
	var in []*jsonRecord
	if err := json.Unmarshal(data, &in); err != nil {
		return nil, fmt.Errorf("parsing placement list: %w", err)
	}
	out := make([]*Record, 0, len(in))
	for _, j := range in {
		r, err := fromJSON(j, 0)
		if err != nil {
			return nil, fmt.Errorf("parsing placement list: %w", err)
		}
		out = append(out, r)
	}
	return out, nil
}
