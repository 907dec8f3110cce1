package placement

import (
	"fmt"
	"slices"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// TallyHeading opens every shopping list.
const TallyHeading = "Only for purchasing, please use Export/Import for the whole preset."

// TallyEntry counts one distinct item across a layout.
type TallyEntry struct {
	ItemID uint32
	Name   string
	Count  int
}

// Tally counts every distinct item in the list, children included, and
// orders the entries by display name using the collation rules of lang.
func Tally(l *List, lang language.Tag) []TallyEntry {
	index := make(map[TallyEntry]int)
	var entries []TallyEntry
	for _, r := range l.Flatten() {
		key := TallyEntry{ItemID: r.ItemID, Name: r.Name}
		if i, ok := index[key]; ok {
			entries[i].Count++
			continue
		}
		index[key] = len(entries)
		key.Count = 1
		entries = append(entries, key)
	}

	col := collate.New(lang)
	slices.SortStableFunc(entries, func(a, b TallyEntry) int {
		if c := col.CompareString(a.Name, b.Name); c != 0 {
			return c
		}
		switch {
		case a.ItemID < b.ItemID:
			return -1
		case a.ItemID > b.ItemID:
			return 1
		}
		return 0
	})
	return entries
}

// FormatTally renders entries as tab-separated shopping list lines
// under TallyHeading.
func FormatTally(entries []TallyEntry) string {
	var b strings.Builder
	b.WriteString(TallyHeading)
	b.WriteByte('\n')
	for _, e := range entries {
		fmt.Fprintf(&b, "item#%d\t%s\t%d\n", e.ItemID, e.Name, e.Count)
	}
	return b.String()
}
