package preview

import (
	"fmt"

	"github.com/banshee-data/housing.layout/internal/catalog"
	"github.com/banshee-data/housing.layout/internal/housing/wire"
	"github.com/banshee-data/housing.layout/internal/placement"
)

// Preview describes one synthesised page.
type Preview struct {
	Page  int
	Start int
	End   int
	Count int
}

// Synthesizer fills housing buffers with successive pages of a stored
// layout.
type Synthesizer struct {
	codec     *wire.Codec
	furniture catalog.FurnitureLookup
	window    *Window
}

// NewSynthesizer creates a synthesizer drawing pages from window.
func NewSynthesizer(codec *wire.Codec, furniture catalog.FurnitureLookup, window *Window) *Synthesizer {
	return &Synthesizer{codec: codec, furniture: furniture, window: window}
}

// Window returns the page window the synthesizer advances.
func (s *Synthesizer) Window() *Window {
	return s.window
}

// Synthesize claims the next page of stored and encodes it into buf.
func (s *Synthesizer) Synthesize(buf []byte, stored []*placement.Record) (Preview, error) {
	placement.ResolveKeys(stored, s.furniture)

	page := s.window.Next()
	start, end := PageBounds(page, len(stored))
	count, err := s.codec.Encode(buf, stored[start:end])
	if err != nil {
		return Preview{}, fmt.Errorf("synthesising page %d: %w", page, err)
	}
	diagf("previewing %d furnishings from page %d [%d, %d)", count, page, start, end)
	return Preview{Page: page, Start: start, End: end, Count: count}, nil
}
