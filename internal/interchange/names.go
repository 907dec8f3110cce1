package interchange

import "strconv"

// HouseSizeName returns the document house size for a housing size code,
// or "" for codes the host never reports.
func HouseSizeName(code uint8) string {
	switch code {
	case 0:
		return "Small"
	case 1:
		return "Medium"
	case 2:
		return "Large"
	case 3:
		return "Apartment"
	case 4:
		return "Unknown0"
	case 5:
		return "Unknown1"
	case 255:
		return "Unknown2"
	}
	return ""
}

var districtNames = map[uint32]string{
	502: "Mist",
	505: "Goblet",
	507: "Lavender Beds",
	512: "Empyreum",
	513: "Shirogane",
}

// DistrictName returns the district written into the fixture list for a
// territory place-name id. Unknown ids are written as their decimal value.
func DistrictName(placeNameID uint32) string {
	if name, ok := districtNames[placeNameID]; ok {
		return name
	}
	return strconv.FormatUint(uint64(placeNameID), 10)
}

var renovationDistricts = map[string]string{
	"Riviera Style":     "Mist",
	"Glade Style":       "Lavender Beds",
	"Oasis Style":       "Goblet",
	"Far Eastern Style": "Shirogane",
	"Highland Style":    "Empyreum",
	"Minimalist Style":  "Minimalist",
}

// RenovationDistrict maps an interior renovation style to the district
// name the editor uses for it. Unknown styles return "".
func RenovationDistrict(style string) string {
	return renovationDistricts[style]
}
