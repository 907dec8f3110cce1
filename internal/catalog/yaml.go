package catalog

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// maxFixtureSize bounds catalog fixture files.
const maxFixtureSize = 16 * 1024 * 1024

type yamlStain struct {
	Stain `yaml:",inline"`
	Color string `yaml:"color"`
}

type yamlCatalog struct {
	Furniture []Furniture `yaml:"furniture"`
	Stains    []yamlStain `yaml:"stains"`
}

// ParseYAML decodes a catalog fixture. Stain colours are written as
// "#RRGGBB" (the leading '#' is optional).
func ParseYAML(data []byte) (*Memory, error) {
	var doc yamlCatalog
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing catalog: %w", err)
	}

	stains := make([]Stain, 0, len(doc.Stains))
	for _, s := range doc.Stains {
		color, err := ParseHexColor(s.Color)
		if err != nil {
			return nil, fmt.Errorf("stain %d: %w", s.ID, err)
		}
		row := s.Stain
		row.Color = color
		stains = append(stains, row)
	}
	return NewMemory(doc.Furniture, stains), nil
}

// LoadYAML reads and parses a catalog fixture file.
func LoadYAML(path string) (*Memory, error) {
	cleanPath := filepath.Clean(path)
	info, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat catalog file: %w", err)
	}
	if info.Size() > maxFixtureSize {
		return nil, fmt.Errorf("catalog file too large: %d bytes (max %d)", info.Size(), maxFixtureSize)
	}
	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog file: %w", err)
	}
	m, err := ParseYAML(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", cleanPath, err)
	}
	return m, nil
}

// ParseHexColor parses "RRGGBB" or "#RRGGBB". An empty string is black.
func ParseHexColor(s string) (uint32, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")
	if s == "" {
		return 0, nil
	}
	if len(s) > 6 {
		s = s[:6]
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid colour %q: %w", s, err)
	}
	return uint32(v), nil
}
