package wire

import (
	"fmt"
	"maps"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// RemapRule adapts one talk category to the wire variant the host
// accepts. NetIDs remaps specific net ids; any other id becomes NetID when
// that is set, or stays unchanged. Reject drops the slot.
type RemapRule struct {
	Variant uint8             `yaml:"variant"`
	NetID   *uint16           `yaml:"net_id,omitempty"`
	NetIDs  map[uint16]uint16 `yaml:"net_ids,omitempty"`
	Reject  bool              `yaml:"reject,omitempty"`
}

// RemapOutcome is the net id and variant to write for a slot.
type RemapOutcome struct {
	NetID   uint16
	Variant uint8
}

// RemapTable maps talk category tags to rules. Tags missing from the table
// are rejected; an empty tag is always generic.
type RemapTable struct {
	rules map[string]RemapRule
}

// genericTalks are the categories that load through the generic variant
// unchanged.
var genericTalks = []string{
	"CmnDefHousingObject",
	"CmnDefRetainerBell",
	"ComDefCompanyChest",
	"CmnDefBeautySalon",
	"CmnDefCutSceneReplay",
	"CmnDefMiniGame",
	"CmnDefCabinet",
	"HouFurVisitNote",
}

func fixedID(id uint16) *uint16 { return &id }

// DefaultRemapTable returns the built-in category table.
func DefaultRemapTable() *RemapTable {
	rules := make(map[string]RemapRule, len(genericTalks)+9)
	for _, tag := range genericTalks {
		rules[tag] = RemapRule{Variant: VariantGeneric}
	}

	rules["CmnDefHousingDish"] = RemapRule{Variant: VariantDish}
	rules["HouFurOrchestrion"] = RemapRule{Variant: VariantOrchestrion}
	rules["HouFurAquarium"] = RemapRule{Variant: VariantGeneric, NetID: fixedID(0x1EF)}
	rules["HouFurVase"] = RemapRule{
		Variant: VariantGeneric,
		NetIDs: map[uint16]uint16{
			0x0DC: 0x08F,
			0x0DD: 0x090,
		},
		NetID: fixedID(0x091),
	}
	rules["HouFurPlantPot"] = RemapRule{Variant: VariantGeneric, NetID: fixedID(0x160)}
	picture := RemapRule{
		Variant: VariantGeneric,
		NetIDs:  map[uint16]uint16{0x222: 0x2F0},
		NetID:   fixedID(0x01E),
	}
	rules["HouFurPicture"] = picture
	rules["HouFurFishprint"] = picture
	rules["HouFurWallpaperPartition"] = RemapRule{Variant: VariantGeneric, NetID: fixedID(0x20C)}

	return &RemapTable{rules: rules}
}

// Apply looks up tag and returns the outcome for a slot carrying netID.
// The second result is false when the slot must be rejected.
func (t *RemapTable) Apply(tag string, netID uint16) (RemapOutcome, bool) {
	if tag == "" {
		return RemapOutcome{NetID: netID, Variant: VariantGeneric}, true
	}
	rule, ok := t.rules[tag]
	if !ok || rule.Reject {
		return RemapOutcome{}, false
	}

	out := RemapOutcome{NetID: netID, Variant: rule.Variant}
	if mapped, ok := rule.NetIDs[netID]; ok {
		out.NetID = mapped
	} else if rule.NetID != nil {
		out.NetID = *rule.NetID
	}
	return out, true
}

// Rule returns the rule registered for tag.
func (t *RemapTable) Rule(tag string) (RemapRule, bool) {
	r, ok := t.rules[tag]
	return r, ok
}

// Len returns the number of registered tags.
func (t *RemapTable) Len() int {
	return len(t.rules)
}

// Merge returns a copy of t with overrides applied on top.
func (t *RemapTable) Merge(overrides map[string]RemapRule) *RemapTable {
	rules := maps.Clone(t.rules)
	maps.Copy(rules, overrides)
	return &RemapTable{rules: rules}
}

// ParseRemapOverrides decodes a YAML mapping of tag to rule.
func ParseRemapOverrides(data []byte) (map[string]RemapRule, error) {
	var overrides map[string]RemapRule
	if err := yaml.Unmarshal(data, &overrides); err != nil {
		return nil, fmt.Errorf("parsing remap overrides: %w", err)
	}
	for tag, rule := range overrides {
		if rule.Variant > VariantOrchestrion {
			return nil, fmt.Errorf("remap %q: variant must be 0-2, got %d", tag, rule.Variant)
		}
	}
	return overrides, nil
}

// LoadRemapTable reads YAML overrides from path and merges them over the
// defaults. An empty path returns the defaults.
func LoadRemapTable(path string) (*RemapTable, error) {
	table := DefaultRemapTable()
	if path == "" {
		return table, nil
	}
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("failed to read remap file: %w", err)
	}
	overrides, err := ParseRemapOverrides(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return table.Merge(overrides), nil
}
