// Package session drives the housing core the way the host's load hook
// does: every load call hands over one buffer, which is either captured
// into a working list or overwritten with a page of the stored layout.
//
// A Session is not safe for concurrent use. The host calls it from a
// single game thread.
package session

import (
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/text/language"

	"github.com/banshee-data/housing.layout/internal/catalog"
	"github.com/banshee-data/housing.layout/internal/hierarchy"
	"github.com/banshee-data/housing.layout/internal/housing/preview"
	"github.com/banshee-data/housing.layout/internal/housing/wire"
	"github.com/banshee-data/housing.layout/internal/interchange"
	"github.com/banshee-data/housing.layout/internal/placement"
	"github.com/banshee-data/housing.layout/internal/timeutil"
)

var (
	ErrPreviewing         = errors.New("preview is on")
	ErrNothingCaptured    = errors.New("no furniture captured")
	ErrStoredNotEmpty     = errors.New("stored list is not empty")
	ErrInPreviewTerritory = errors.New("still inside the previewed territory")
	ErrGrouping           = errors.New("grouping in progress")
	ErrNotGrouping        = errors.New("grouping not started")
	ErrNoSelection        = errors.New("no record selected")
)

// Kind classifies what HandleBuffer did with a buffer.
type Kind int

const (
	KindCapture Kind = iota
	KindPreview
	KindSentinel
)

func (k Kind) String() string {
	switch k {
	case KindCapture:
		return "capture"
	case KindPreview:
		return "preview"
	case KindSentinel:
		return "sentinel"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Outcome reports the result of one HandleBuffer call.
type Outcome struct {
	Kind Kind
	// Decoded is the number of records captured from the buffer.
	Decoded int
	// Preview describes the synthesised page.
	Preview preview.Preview
}

// Options configures a Session. Furniture and Stains are required.
type Options struct {
	Furniture     catalog.FurnitureCatalog
	Stains        catalog.StainCatalog
	Remap         *wire.RemapTable
	Clock         timeutil.Clock
	PageWindow    time.Duration
	InteriorScale float64
	Language      language.Tag
	Registerer    prometheus.Registerer
}

// Session holds the capture list, the stored layout and the editing state
// around them.
type Session struct {
	furniture catalog.FurnitureCatalog
	codec     *wire.Codec
	window    *preview.Window
	synth     *preview.Synthesizer
	conv      *interchange.Converter
	lang      language.Tag
	metrics   *Metrics

	capture []*placement.Record
	stored  placement.List

	previewing       bool
	drawScreen       bool
	territory        uint32
	previewTerritory uint32
	location         uint32

	grouping  bool
	selection hierarchy.Selection
	selected  int
	hidden    []int
}

// New creates a session.
func New(opts Options) (*Session, error) {
	if opts.Furniture == nil || opts.Stains == nil {
		return nil, errors.New("session needs furniture and stain catalogs")
	}
	metrics, err := NewMetrics(opts.Registerer)
	if err != nil {
		return nil, err
	}
	codec := wire.NewCodec(opts.Furniture, opts.Remap)
	window := preview.NewWindow(opts.Clock, opts.PageWindow)
	lang := opts.Language
	if lang == language.Und {
		lang = language.English
	}
	return &Session{
		furniture: opts.Furniture,
		codec:     codec,
		window:    window,
		synth:     preview.NewSynthesizer(codec, opts.Furniture, window),
		conv:      interchange.NewConverter(opts.Furniture, opts.Stains, opts.InteriorScale),
		lang:      lang,
		metrics:   metrics,
		selected:  -1,
	}, nil
}

// HandleBuffer processes one load call. In preview mode buf is
// overwritten with the next page of the stored layout; otherwise its
// records are appended to the capture list, which is first cleared when
// the page window has expired.
func (s *Session) HandleBuffer(buf []byte) (Outcome, error) {
	if err := wire.CheckSize(buf); err != nil {
		return Outcome{}, err
	}

	if wire.IsSentinel(buf) {
		s.capture = nil
		s.drawScreen = false
		s.metrics.Sentinels.Inc()
		diagf("sentinel buffer: capture dropped")
		return Outcome{Kind: KindSentinel}, nil
	}

	if s.previewing {
		flat := s.stored.Flatten()
		p, err := s.synth.Synthesize(buf, flat)
		if err != nil {
			return Outcome{}, err
		}
		s.previewTerritory = s.territory
		s.metrics.PreviewPages.Inc()
		s.metrics.PreviewSlots.Add(float64(p.Count))
		s.metrics.PreviewRejected.Add(float64(p.End - p.Start - p.Count))
		diagf("previewing %d furnishings", p.Count)
		return Outcome{Kind: KindPreview, Preview: p}, nil
	}

	if s.window.Expire() {
		if len(s.capture) > 0 {
			tracef("window expired: dropping %d captured records", len(s.capture))
		}
		s.capture = nil
	}
	capture, err := s.codec.Decode(buf)
	if err != nil {
		return Outcome{}, err
	}
	s.capture = append(s.capture, capture.Records...)
	s.metrics.Captures.Inc()
	s.metrics.CapturedRecords.Add(float64(len(capture.Records)))
	return Outcome{Kind: KindCapture, Decoded: len(capture.Records)}, nil
}

// Commit copies the capture list into the empty stored list and records
// territory as its location.
func (s *Session) Commit(territory uint32) error {
	switch {
	case s.previewing:
		opsf("commit refused: decorating in preview mode is unsafe")
		return ErrPreviewing
	case len(s.capture) == 0:
		return ErrNothingCaptured
	case s.stored.Len() > 0:
		opsf("commit refused: clear the stored list and re-enter to load the current layout")
		return ErrStoredNotEmpty
	}

	placement.ResolveKeys(s.capture, s.furniture)
	items := make([]*placement.Record, len(s.capture))
	for i, r := range s.capture {
		items[i] = r.Clone()
	}
	s.stored.Replace(items)
	s.location = territory
	s.resetRecord()
	opsf("loaded %d furnishings", len(items))
	return nil
}

// SetPreviewing turns preview mode on or off. Preview cannot be turned
// off while still inside the territory it last wrote a page for.
func (s *Session) SetPreviewing(on bool) error {
	if !on && s.previewing && s.previewTerritory != 0 && s.territory == s.previewTerritory {
		return ErrInPreviewTerritory
	}
	s.previewing = on
	tracef("previewing=%t", on)
	return nil
}

// Previewing reports whether preview mode is on.
func (s *Session) Previewing() bool {
	return s.previewing
}

// TerritoryChanged records the new territory, stops on-screen drawing and
// restarts the page window.
func (s *Session) TerritoryChanged(territory uint32) {
	s.territory = territory
	s.drawScreen = false
	s.window.Reset()
	tracef("territory %d", territory)
}

// SetDrawScreen toggles on-screen drawing of the stored list.
func (s *Session) SetDrawScreen(on bool) {
	s.drawScreen = on
}

// DrawScreen reports whether on-screen drawing is on.
func (s *Session) DrawScreen() bool {
	return s.drawScreen
}

// Captured returns the current capture list.
func (s *Session) Captured() []*placement.Record {
	return s.capture
}

// Stored returns the stored layout.
func (s *Session) Stored() *placement.List {
	return &s.stored
}

// Location is the territory the stored list was committed in.
func (s *Session) Location() uint32 {
	return s.location
}

// Clear empties the stored list.
func (s *Session) Clear() {
	s.stored.Clear()
	s.resetRecord()
}

func (s *Session) resetRecord() {
	s.selected = -1
	s.hidden = nil
	s.selection.Clear()
	s.grouping = false
}

// Sort orders the stored list. It is refused while grouping.
func (s *Session) Sort() error {
	if s.grouping {
		return ErrGrouping
	}
	placement.Sort(&s.stored)
	s.indicesMoved()
	return nil
}

// Tally renders the shopping list for the stored layout.
func (s *Session) Tally() string {
	return placement.FormatTally(placement.Tally(&s.stored, s.lang))
}
