// Package placement owns the in-memory furniture placement model.
//
// A Record is one placed item: its furniture key, stain, position and yaw,
// plus an optional list of grouped children. Grouping is one level deep:
// a child never has children of its own. Records are created by buffer
// capture, by document import, or by the native list format, and are
// addressed by their index in a List.
package placement
