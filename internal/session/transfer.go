package session

import (
	"fmt"

	"github.com/banshee-data/housing.layout/internal/interchange"
	"github.com/banshee-data/housing.layout/internal/placement"
)

const (
	formatDocument = "document"
	formatList     = "list"
)

// Import replaces the stored list with the furniture of an interchange
// document. On any error the stored list is left as it was.
func (s *Session) Import(data []byte) error {
	records, err := s.importDocument(data)
	if err != nil {
		s.metrics.Imports.WithLabelValues(formatDocument, "error").Inc()
		opsf("import failed: %v", err)
		return err
	}
	s.replace(records)
	s.metrics.Imports.WithLabelValues(formatDocument, "ok").Inc()
	opsf("imported %d furnishings", len(records))
	return nil
}

func (s *Session) importDocument(data []byte) ([]*placement.Record, error) {
	doc, err := interchange.ParseDocument(data)
	if err != nil {
		return nil, err
	}
	return s.conv.Import(doc)
}

// Export renders the stored list as an interchange document.
func (s *Session) Export(houseSize, houseName string) ([]byte, error) {
	doc, err := s.conv.Export(s.stored.Items, houseSize, houseName)
	if err != nil {
		return nil, err
	}
	return doc.Marshal()
}

// ImportList replaces the stored list with a native list export. Keys and
// names are resolved against the catalog and unknown records dropped.
func (s *Session) ImportList(data []byte) error {
	records, err := placement.UnmarshalList(data)
	if err != nil {
		s.metrics.Imports.WithLabelValues(formatList, "error").Inc()
		opsf("list import failed: %v", err)
		return err
	}
	records = placement.ResolveNames(records, s.furniture)
	s.replace(records)
	s.metrics.Imports.WithLabelValues(formatList, "ok").Inc()
	opsf("imported %d furnishings", len(records))
	return nil
}

// ExportList renders the stored list in the native format.
func (s *Session) ExportList() ([]byte, error) {
	return placement.MarshalList(s.stored.Items)
}

// ExportItem renders one top-level record, with its children, in the
// native format.
func (s *Session) ExportItem(i int) ([]byte, error) {
	r, err := s.stored.At(i)
	if err != nil {
		return nil, fmt.Errorf("export item: %w", err)
	}
	return placement.MarshalList([]*placement.Record{r})
}

// Replace swaps in records as the stored list, as a loaded preset does.
func (s *Session) Replace(records []*placement.Record) {
	s.replace(records)
}

func (s *Session) replace(records []*placement.Record) {
	s.stored.Replace(records)
	s.resetRecord()
}
