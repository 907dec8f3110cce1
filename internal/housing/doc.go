// Package housing groups the layers that touch the native housing
// buffer.
//
// wire decodes and encodes the fixed 2416-byte placement buffer and owns
// the per-category compatibility remap. preview decides which page of a
// stored layout is synthesised into the buffer on each call.
//
// Dependency rule: wire depends only on placement and catalog; preview
// builds on wire.
package housing
