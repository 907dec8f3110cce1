package placement

import "github.com/banshee-data/housing.layout/internal/catalog"

// ResolveKeys fills in furniture keys for records that only carry a model
// key, the shape older saved lists use. The derived key is
// ModelKey + FurnitureKeyOffset, after which ModelKey is replaced with the
// catalog's model key for that row. Records that already have a key are
// left alone, so the call is idempotent.
func ResolveKeys(records []*Record, furniture catalog.FurnitureLookup) {
	for _, r := range records {
		resolveKey(r, furniture)
		for _, c := range r.Children {
			resolveKey(c, furniture)
		}
	}
}

func resolveKey(r *Record, furniture catalog.FurnitureLookup) {
	if r.ModelKey == 0 || r.FurnitureKey != 0 {
		return
	}
	r.FurnitureKey = r.ModelKey + catalog.FurnitureKeyOffset
	if f, ok := furniture.Furniture(r.FurnitureKey); ok {
		r.ModelKey = f.ModelKey
	}
}

// ResolveNames resolves keys, then refreshes every display name from the
// catalog. Top-level records whose name comes back empty are dropped and
// the surviving slice is returned.
func ResolveNames(records []*Record, furniture catalog.FurnitureLookup) []*Record {
	ResolveKeys(records, furniture)

	out := make([]*Record, 0, len(records))
	for _, r := range records {
		r.Name = nameOf(r, furniture)
		for _, c := range r.Children {
			c.Name = nameOf(c, furniture)
		}
		if r.Name == "" {
			continue
		}
		out = append(out, r)
	}
	return out
}

func nameOf(r *Record, furniture catalog.FurnitureLookup) string {
	f, ok := furniture.Furniture(r.FurnitureKey)
	if !ok {
		return ""
	}
	return f.Name
}
